package store

import (
	"github.com/archiveshq/archives/backend/internal/models"
	"gorm.io/gorm"
)

// NotificationStore defines the interface for notification record operations
type NotificationStore interface {
	Create(notification *models.Notification) error
	// DeleteLike removes the like notification matching the
	// (recipient, post, actor) tuple.
	DeleteLike(recipientID, postID, actorID string) error
	// DeleteComment removes the notification tied to one specific comment.
	DeleteComment(recipientID, postID, actorID, commentID string) error
	// DeleteByPostID removes every notification referencing a post,
	// regardless of kind or actor. Used by the post-deletion cascade.
	DeleteByPostID(postID string) error

	GetByRecipientID(recipientID string, page, limit int) ([]models.Notification, int64, error)
	GetUnreadCount(recipientID string) (int64, error)
	MarkAsRead(notificationID uint) error
	MarkAllAsRead(recipientID string) error
}

type postgresNotificationStore struct {
	db *gorm.DB
}

// NewPostgresNotificationStore creates a NotificationStore backed by PostgreSQL
func NewPostgresNotificationStore(db *gorm.DB) NotificationStore {
	return &postgresNotificationStore{db: db}
}

func (s *postgresNotificationStore) Create(notification *models.Notification) error {
	return s.db.Create(notification).Error
}

func (s *postgresNotificationStore) DeleteLike(recipientID, postID, actorID string) error {
	return s.db.
		Where("recipient_id = ? AND kind = ? AND post_id = ? AND actor_id = ?",
			recipientID, models.NotificationLike, postID, actorID).
		Delete(&models.Notification{}).Error
}

func (s *postgresNotificationStore) DeleteComment(recipientID, postID, actorID, commentID string) error {
	return s.db.
		Where("recipient_id = ? AND kind = ? AND post_id = ? AND actor_id = ? AND comment_id = ?",
			recipientID, models.NotificationComment, postID, actorID, commentID).
		Delete(&models.Notification{}).Error
}

func (s *postgresNotificationStore) DeleteByPostID(postID string) error {
	return s.db.Where("post_id = ?", postID).Delete(&models.Notification{}).Error
}

func (s *postgresNotificationStore) GetByRecipientID(recipientID string, page, limit int) ([]models.Notification, int64, error) {
	var notifications []models.Notification
	var total int64

	s.db.Model(&models.Notification{}).Where("recipient_id = ?", recipientID).Count(&total)

	offset := (page - 1) * limit
	err := s.db.Where("recipient_id = ?", recipientID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&notifications).Error

	return notifications, total, err
}

func (s *postgresNotificationStore) GetUnreadCount(recipientID string) (int64, error) {
	var count int64
	err := s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Count(&count).Error
	return count, err
}

func (s *postgresNotificationStore) MarkAsRead(notificationID uint) error {
	return s.db.Model(&models.Notification{}).Where("id = ?", notificationID).Update("is_read", true).Error
}

func (s *postgresNotificationStore) MarkAllAsRead(recipientID string) error {
	return s.db.Model(&models.Notification{}).
		Where("recipient_id = ? AND is_read = false", recipientID).
		Update("is_read", true).Error
}
