package blob

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// Store defines the object storage operations consumed by the application
type Store interface {
	Upload(ctx context.Context, key, contentType string, r io.Reader) error
	Delete(ctx context.Context, key string) error
}

// PostImageKey derives the storage key for a post's image blob
func PostImageKey(ownerID, postID string) string {
	return fmt.Sprintf("users/%s/Posts/%s.jpg", ownerID, postID)
}

// GCSStore implements Store on a Cloud Storage bucket
type GCSStore struct {
	bucket *storage.BucketHandle
}

// NewGCSStore creates a new GCSStore
func NewGCSStore(bucket *storage.BucketHandle) *GCSStore {
	return &GCSStore{bucket: bucket}
}

// Upload writes a blob under the given key
func (s *GCSStore) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	w := s.bucket.Object(key).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return fmt.Errorf("uploading blob %s: %w", key, err)
	}
	return w.Close()
}

// Delete removes the blob under the given key. A missing object is not an
// error: cascade deletion must be safe to re-run.
func (s *GCSStore) Delete(ctx context.Context, key string) error {
	err := s.bucket.Object(key).Delete(ctx)
	if err == storage.ErrObjectNotExist {
		return nil
	}
	return err
}
