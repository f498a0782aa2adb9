package store

import (
	"context"
	"time"

	"github.com/archiveshq/archives/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageStore defines the interface for direct message operations
type MessageStore interface {
	Append(ctx context.Context, message *models.Message) error
	History(ctx context.Context, chatID string, limit int64) ([]models.Message, error)
	// Watch streams new messages in a chat until ctx is cancelled.
	Watch(ctx context.Context, chatID string) (<-chan models.Message, error)
}

// MongoMessageStore implements MessageStore for MongoDB
type MongoMessageStore struct {
	collection *mongo.Collection
}

// NewMongoMessageStore creates a new MongoMessageStore
func NewMongoMessageStore(db *mongo.Database) *MongoMessageStore {
	return &MongoMessageStore{collection: db.Collection("messages")}
}

// Append stores a new message
func (s *MongoMessageStore) Append(ctx context.Context, message *models.Message) error {
	message.ID = primitive.NewObjectID()
	message.CreatedAt = time.Now()
	_, err := s.collection.InsertOne(ctx, message)
	return err
}

// History retrieves the most recent messages in a chat, oldest first
func (s *MongoMessageStore) History(ctx context.Context, chatID string, limit int64) ([]models.Message, error) {
	var messages []models.Message
	findOptions := options.Find().SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.collection.Find(ctx, bson.M{"chat_id": chatID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	// newest-first from the store, oldest-first for rendering
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}

type messageChangeEvent struct {
	OperationType string         `bson:"operationType"`
	FullDocument  models.Message `bson:"fullDocument"`
}

// Watch opens a change stream over inserts into one chat
func (s *MongoMessageStore) Watch(ctx context.Context, chatID string) (<-chan models.Message, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"operationType":        "insert",
			"fullDocument.chat_id": chatID,
		}}},
	}
	stream, err := s.collection.Watch(ctx, pipeline)
	if err != nil {
		return nil, err
	}

	out := make(chan models.Message)
	go func() {
		defer close(out)
		defer stream.Close(context.Background())
		for stream.Next(ctx) {
			var event messageChangeEvent
			if err := stream.Decode(&event); err != nil {
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
