package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Message represents a direct message stored in MongoDB
type Message struct {
	ID          primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	ChatID      string             `json:"chat_id" bson:"chat_id"`
	SenderID    string             `json:"sender_id" bson:"sender_id"`
	RecipientID string             `json:"recipient_id" bson:"recipient_id"`
	Text        string             `json:"text" bson:"text"`
	CreatedAt   time.Time          `json:"created_at" bson:"created_at"`
}
