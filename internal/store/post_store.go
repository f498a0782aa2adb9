package store

import (
	"context"
	"fmt"
	"time"

	"github.com/archiveshq/archives/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostStore defines the interface for post document operations.
// Like and comment mutations are expressed as atomic array deltas so that
// concurrent interactions never need a client-side read-modify-write.
type PostStore interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPost(ctx context.Context, ownerID, postID string) (*models.Post, error)
	GetPostsByOwner(ctx context.Context, ownerID string, skip, limit int64) ([]models.Post, error)
	GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error)
	DeletePost(ctx context.Context, ownerID, postID string) error

	AddLike(ctx context.Context, ownerID, postID, actorID string) error
	RemoveLike(ctx context.Context, ownerID, postID, actorID string) error
	AppendComment(ctx context.Context, ownerID, postID string, comment models.Comment) error
	RemoveComment(ctx context.Context, ownerID, postID, commentID string) error

	// Watch streams the full post document on every write, including writes
	// from other sessions. The stream closes when ctx is cancelled.
	Watch(ctx context.Context, ownerID, postID string) (<-chan models.Post, error)
}

// MongoPostStore implements PostStore for MongoDB
type MongoPostStore struct {
	collection *mongo.Collection
}

// NewMongoPostStore creates a new MongoPostStore
func NewMongoPostStore(db *mongo.Database) *MongoPostStore {
	return &MongoPostStore{collection: db.Collection("posts")}
}

func postFilter(ownerID, postID string) bson.M {
	return bson.M{"_id": postID, "owner_id": ownerID}
}

// CreatePost creates a new post document
func (s *MongoPostStore) CreatePost(ctx context.Context, post *models.Post) error {
	if post.Likes == nil {
		post.Likes = []string{}
	}
	if post.Comments == nil {
		post.Comments = []models.Comment{}
	}
	post.CreatedAt = time.Now()
	_, err := s.collection.InsertOne(ctx, post)
	return err
}

// GetPost retrieves a post by its (ownerID, postID) identity
func (s *MongoPostStore) GetPost(ctx context.Context, ownerID, postID string) (*models.Post, error) {
	var post models.Post
	err := s.collection.FindOne(ctx, postFilter(ownerID, postID)).Decode(&post)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("post not found")
		}
		return nil, err
	}
	return &post, nil
}

// GetPostsByOwner retrieves posts created by a specific user
func (s *MongoPostStore) GetPostsByOwner(ctx context.Context, ownerID string, skip, limit int64) ([]models.Post, error) {
	var posts []models.Post
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.collection.Find(ctx, bson.M{"owner_id": ownerID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// GetAllPosts retrieves all posts with pagination, newest first
func (s *MongoPostStore) GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	var posts []models.Post
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.collection.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// DeletePost deletes the post document; embedded comments and likes go with it
func (s *MongoPostStore) DeletePost(ctx context.Context, ownerID, postID string) error {
	res, err := s.collection.DeleteOne(ctx, postFilter(ownerID, postID))
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("post not found")
	}
	return nil
}

// AddLike adds actorID to the post's like set. $addToSet makes the operation
// idempotent under retry: adding an existing member is a no-op.
func (s *MongoPostStore) AddLike(ctx context.Context, ownerID, postID, actorID string) error {
	_, err := s.collection.UpdateOne(ctx, postFilter(ownerID, postID),
		bson.M{"$addToSet": bson.M{"likes": actorID}})
	return err
}

// RemoveLike removes actorID from the post's like set
func (s *MongoPostStore) RemoveLike(ctx context.Context, ownerID, postID, actorID string) error {
	_, err := s.collection.UpdateOne(ctx, postFilter(ownerID, postID),
		bson.M{"$pull": bson.M{"likes": actorID}})
	return err
}

// AppendComment appends a comment to the post's comment array
func (s *MongoPostStore) AppendComment(ctx context.Context, ownerID, postID string, comment models.Comment) error {
	_, err := s.collection.UpdateOne(ctx, postFilter(ownerID, postID),
		bson.M{"$addToSet": bson.M{"comments": comment}})
	return err
}

// RemoveComment removes the comment with the given ID from the post's comment
// array. Removal is keyed by identifier, not by full value, so a concurrent
// edit of the comment cannot make the removal miss.
func (s *MongoPostStore) RemoveComment(ctx context.Context, ownerID, postID, commentID string) error {
	_, err := s.collection.UpdateOne(ctx, postFilter(ownerID, postID),
		bson.M{"$pull": bson.M{"comments": bson.M{"id": commentID}}})
	return err
}

type postChangeEvent struct {
	OperationType string      `bson:"operationType"`
	FullDocument  models.Post `bson:"fullDocument"`
}

// Watch opens a change stream scoped to one post document and forwards the
// full document on every write. Requires the deployment to support change
// streams (replica set or sharded cluster).
func (s *MongoPostStore) Watch(ctx context.Context, ownerID, postID string) (<-chan models.Post, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"fullDocument._id":      postID,
			"fullDocument.owner_id": ownerID,
		}}},
	}
	opts := options.ChangeStream().SetFullDocument(options.UpdateLookup)
	stream, err := s.collection.Watch(ctx, pipeline, opts)
	if err != nil {
		return nil, err
	}

	out := make(chan models.Post)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			var event postChangeEvent
			if err := stream.Decode(&event); err != nil {
				continue
			}
			if event.OperationType == "delete" {
				continue
			}
			select {
			case out <- event.FullDocument:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
