package models

import "gorm.io/gorm"

type User struct {
	gorm.Model  `json:"-"`
	ID          uint   `json:"id" gorm:"primaryKey"`
	FirebaseUID string `json:"firebase_uid" gorm:"size:128;uniqueIndex"` // Link to Firebase User UID
	Username    string `json:"username" gorm:"size:30;uniqueIndex"`
	Name        string `json:"name"`
	Email       string `json:"email" gorm:"uniqueIndex"` // Ensure email is unique across all users
	Bio         string `json:"bio,omitempty"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// UserCompact is the projection rendered next to comments and notifications
type UserCompact struct {
	FirebaseUID string `json:"firebase_uid"`
	Username    string `json:"username"`
	PhotoURL    string `json:"photo_url,omitempty"`
}

// ToCompact converts a User to its compact projection
func (u *User) ToCompact() UserCompact {
	return UserCompact{
		FirebaseUID: u.FirebaseUID,
		Username:    u.Username,
		PhotoURL:    u.PhotoURL,
	}
}

// FirebaseLoginRequest defines the request body for the firebase-login endpoint
type FirebaseLoginRequest struct {
	IDToken string `json:"id_token" validate:"required"`
}

// UpdateUserRequest defines the request body for updating a profile
type UpdateUserRequest struct {
	Username string `json:"username,omitempty" validate:"omitempty,min=2,max=30"`
	Name     string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Bio      string `json:"bio,omitempty" validate:"omitempty,max=160"`
	PhotoURL string `json:"photo_url,omitempty" validate:"omitempty,url"`
}
