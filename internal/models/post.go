package models

import "time"

// Post represents a social media post stored in MongoDB.
// A post is identified by (OwnerID, ID); likes and comments are embedded so the
// store's atomic array operators keep concurrent interactions consistent.
type Post struct {
	ID          string    `json:"id" bson:"_id"`
	OwnerID     string    `json:"owner_id" bson:"owner_id"` // Firebase UID of the user who created the post
	ImageURL    string    `json:"image_url" bson:"image_url"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Likes       []string  `json:"likes" bson:"likes"` // Firebase UIDs; set semantics via $addToSet
	Comments    []Comment `json:"comments" bson:"comments"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// Comment is embedded in its post document. Immutable once created except for
// deletion, which is keyed by ID.
type Comment struct {
	ID       string `json:"id" bson:"id"` // creation time in Unix millis
	AuthorID string `json:"author_id" bson:"author_id"`
	Text     string `json:"text" bson:"text"`
}

// LikedBy reports whether actorID is in the post's like set.
func (p *Post) LikedBy(actorID string) bool {
	for _, id := range p.Likes {
		if id == actorID {
			return true
		}
	}
	return false
}

// CreatePostRequest defines the request body for creating a new post
type CreatePostRequest struct {
	Description string `json:"description" validate:"omitempty,max=2200"`
}
