package config

import "os"

type Config struct {
	Port                    string
	Env                     string
	FirebaseCredentialsPath string
	StorageBucket           string
	PostgresConnStr         string
	MongoURI                string
	MetricsPort             string
}

func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", "./firebase_credentials.json"),
		StorageBucket:           getEnv("STORAGE_BUCKET", ""),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MetricsPort:             getEnv("METRICS_PORT", "9090"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
