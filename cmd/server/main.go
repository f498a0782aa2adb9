package main

import (
	"context"

	"github.com/archiveshq/archives/backend/internal/metrics"
	"github.com/archiveshq/archives/backend/internal/router"
	"github.com/archiveshq/archives/backend/pkg/config"
	"github.com/archiveshq/archives/backend/pkg/firebase"
	"github.com/archiveshq/archives/backend/validators"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	config.LoadDotenv()
	cfg := config.Load()

	// Initialize database connections
	db, err := config.InitDB(cfg)
	if err != nil {
		logrus.Fatalf("Failed to initialize databases: %v", err)
	}
	defer db.CloseDB() // Ensure database connections are closed when main exits

	// Initialize Firebase
	ctx := context.Background()
	firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath, cfg.StorageBucket)
	if err != nil {
		logrus.Fatalf("Failed to initialize Firebase: %v", err)
	}

	// Metrics server
	metrics.Serve(cfg.MetricsPort)

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	router.SetupRoutes(e, db.Postgres, db.Mongo, firebaseApp, cfg.StorageBucket)

	// Validator
	e.Validator = validators.NewValidator()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}
