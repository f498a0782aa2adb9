package router

import (
	"github.com/archiveshq/archives/backend/internal/blob"
	"github.com/archiveshq/archives/backend/internal/handlers"
	"github.com/archiveshq/archives/backend/internal/middleware"
	"github.com/archiveshq/archives/backend/internal/models"
	"github.com/archiveshq/archives/backend/internal/notify"
	"github.com/archiveshq/archives/backend/internal/store"
	pkgfirebase "github.com/archiveshq/archives/backend/pkg/firebase"
	"github.com/labstack/echo/v4"
	eMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"
)

// SetupMiddleware configures global Echo middleware
func SetupMiddleware(e *echo.Echo) {
	e.Use(eMiddleware.Recover())
	e.Use(eMiddleware.CORS())
	logrus.Info("Global middleware configured.")
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, pgdb *gorm.DB, mgClient *mongo.Client, firebaseApp *pkgfirebase.App, bucketName string) {
	// AutoMigrate PostgreSQL models
	err := pgdb.AutoMigrate(
		&models.User{},
		&models.Notification{},
	)
	if err != nil {
		logrus.Fatalf("Failed to auto migrate models: %v", err)
	}
	logrus.Info("PostgreSQL auto-migrations completed.")

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	// --- Initialize stores and collaborators ---
	mongoDB := mgClient.Database("archives")
	userStore := store.NewPostgresUserStore(pgdb)
	postStore := store.NewMongoPostStore(mongoDB)
	messageStore := store.NewMongoMessageStore(mongoDB)
	notificationStore := store.NewPostgresNotificationStore(pgdb)
	blobStore := blob.NewGCSStore(firebaseApp.Bucket)
	emitter := notify.NewEmitter(notificationStore)

	// --- Unprotected routes for authentication ---
	authGroup := e.Group("/api/v1/auth")
	authHandler := handlers.NewAuthHandler(userStore, firebaseApp.AuthClient)
	authHandler.RegisterAuthRoutes(authGroup)
	logrus.Info("Auth routes configured.")

	// --- Protected routes (require a verified Firebase ID token) ---
	api := e.Group("/api/v1")
	api.Use(middleware.FirebaseAuthMiddleware(firebaseApp.AuthClient))
	logrus.Info("Firebase authentication middleware applied to /api/v1 group.")

	// User profile routes
	userHandler := handlers.NewUserHandler(userStore)
	userHandler.RegisterProfileRoutes(api)
	logrus.Info("User profile routes configured.")

	// Post routes
	postHandler := handlers.NewPostHandler(postStore, userStore, emitter, blobStore, bucketName)
	postHandler.RegisterPostRoutes(api)
	logrus.Info("Post routes configured.")

	// Live interaction session routes
	interactionHandler := handlers.NewInteractionHandler(postStore, userStore, emitter, blobStore)
	interactionHandler.RegisterInteractionRoutes(api)
	logrus.Info("Interaction routes configured.")

	// Notification routes
	notificationHandler := handlers.NewNotificationHandler(notificationStore, userStore)
	notificationHandler.RegisterNotificationRoutes(api)
	logrus.Info("Notification routes configured.")

	// Direct message routes
	messageHandler := handlers.NewMessageHandler(messageStore)
	messageHandler.RegisterMessageRoutes(api)
	logrus.Info("Message routes configured.")

	logrus.Info("All routes configured.")
}
