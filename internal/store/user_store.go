package store

import (
	"github.com/archiveshq/archives/backend/internal/models"
	"gorm.io/gorm"
)

// UserStore defines the interface for user profile operations
type UserStore interface {
	CreateUser(user *models.User) error
	GetUserByFirebaseUID(uid string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	UpdateUser(user *models.User) error
}

// PostgresUserStore implements UserStore for PostgreSQL
type PostgresUserStore struct {
	db *gorm.DB
}

// NewPostgresUserStore creates a new PostgresUserStore
func NewPostgresUserStore(db *gorm.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

// CreateUser creates a new user profile row
func (s *PostgresUserStore) CreateUser(user *models.User) error {
	return s.db.Create(user).Error
}

// GetUserByFirebaseUID retrieves a user by their Firebase UID
func (s *PostgresUserStore) GetUserByFirebaseUID(uid string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("firebase_uid = ?", uid).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserByID retrieves a user by their primary key
func (s *PostgresUserStore) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateUser persists changes to an existing user profile
func (s *PostgresUserStore) UpdateUser(user *models.User) error {
	return s.db.Save(user).Error
}

// Lookup resolves a Firebase UID to the compact projection rendered next to
// comments and notifications
func (s *PostgresUserStore) Lookup(uid string) (models.UserCompact, error) {
	user, err := s.GetUserByFirebaseUID(uid)
	if err != nil {
		return models.UserCompact{}, err
	}
	return user.ToCompact(), nil
}
