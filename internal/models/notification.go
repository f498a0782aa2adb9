package models

import "time"

// Notification kinds
const (
	NotificationLike    = "like"
	NotificationComment = "comment"
)

// Notification represents a user notification (PostgreSQL).
// Created as a side effect of a like or comment and deleted when the
// triggering interaction is undone; never updated apart from the read flag.
type Notification struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	RecipientID string    `json:"recipient_id" gorm:"size:128;index"` // post owner's Firebase UID
	Kind        string    `json:"kind" gorm:"size:20;index"`          // like, comment
	PostID      string    `json:"post_id" gorm:"size:64;index"`
	ActorID     string    `json:"actor_id" gorm:"size:128;index"`
	CommentID   string    `json:"comment_id,omitempty" gorm:"size:32"`
	CommentText string    `json:"comment_text,omitempty"`
	IsRead      bool      `json:"is_read" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
}
