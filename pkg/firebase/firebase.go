package firebase

import (
	"context"
	"fmt"
	"os"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
)

// App holds the initialized Firebase app and the clients consumed by the
// application: token verification and the post-image storage bucket
type App struct {
	FirebaseApp *firebase.App
	AuthClient  *auth.Client
	Bucket      *storage.BucketHandle
}

// InitFirebase initializes the Firebase application, authentication client and
// storage bucket handle
func InitFirebase(ctx context.Context, credentialsPath, bucketName string) (*App, error) {
	if credentialsPath == "" {
		return nil, fmt.Errorf("Firebase credentials path not provided")
	}

	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("Firebase credentials file not found at %s", credentialsPath)
	}

	opt := option.WithCredentialsFile(credentialsPath)

	conf := &firebase.Config{StorageBucket: bucketName}
	firebaseApp, err := firebase.NewApp(ctx, conf, opt)
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	storageClient, err := firebaseApp.Storage(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase storage client: %w", err)
	}

	bucket, err := storageClient.DefaultBucket()
	if err != nil {
		return nil, fmt.Errorf("error getting default storage bucket: %w", err)
	}

	logrus.Info("Firebase app, auth client and storage bucket initialized successfully!")
	return &App{FirebaseApp: firebaseApp, AuthClient: authClient, Bucket: bucket}, nil
}
