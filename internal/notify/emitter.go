package notify

import (
	"time"

	"github.com/archiveshq/archives/backend/internal/metrics"
	"github.com/archiveshq/archives/backend/internal/models"
	"github.com/archiveshq/archives/backend/internal/store"
	"github.com/sirupsen/logrus"
)

// Emitter keeps the notification side table synchronized with interaction
// mutations. Every operation is fire-and-forget: a failure to create or
// delete a record is logged and counted, never propagated, and never rolls
// back the interaction that triggered it.
type Emitter struct {
	notifications store.NotificationStore
}

// NewEmitter creates a new Emitter
func NewEmitter(notifications store.NotificationStore) *Emitter {
	return &Emitter{notifications: notifications}
}

// LikeToggled records a like notification, or removes the matching prior one
// on unlike. The lookup-then-delete on unlike is not transactional; racing
// toggles can leave at most one stale record behind.
func (e *Emitter) LikeToggled(recipientID, actorID, postID string, nowLiked bool) {
	if nowLiked {
		notification := &models.Notification{
			RecipientID: recipientID,
			Kind:        models.NotificationLike,
			PostID:      postID,
			ActorID:     actorID,
			CreatedAt:   time.Now(),
		}
		if err := e.notifications.Create(notification); err != nil {
			e.fail("create like notification", err, postID, actorID)
		}
		return
	}

	if err := e.notifications.DeleteLike(recipientID, postID, actorID); err != nil {
		e.fail("delete like notification", err, postID, actorID)
	}
}

// CommentAdded records a comment notification carrying the comment text
func (e *Emitter) CommentAdded(recipientID, actorID, postID, commentID, text string) {
	notification := &models.Notification{
		RecipientID: recipientID,
		Kind:        models.NotificationComment,
		PostID:      postID,
		ActorID:     actorID,
		CommentID:   commentID,
		CommentText: text,
		CreatedAt:   time.Now(),
	}
	if err := e.notifications.Create(notification); err != nil {
		e.fail("create comment notification", err, postID, actorID)
	}
}

// CommentRemoved deletes the notification tied to the removed comment.
// Removal is keyed by the comment ID, so an actor's other comments on the
// same post keep their notifications.
func (e *Emitter) CommentRemoved(recipientID, actorID, postID, commentID string) {
	if err := e.notifications.DeleteComment(recipientID, postID, actorID, commentID); err != nil {
		e.fail("delete comment notification", err, postID, actorID)
	}
}

// PostDeleted removes every notification referencing the post, as part of the
// post-deletion cascade
func (e *Emitter) PostDeleted(postID string) {
	if err := e.notifications.DeleteByPostID(postID); err != nil {
		e.fail("delete notifications for post", err, postID, "")
	}
}

func (e *Emitter) fail(op string, err error, postID, actorID string) {
	metrics.NotificationFailures.Inc()
	logrus.WithError(err).WithFields(logrus.Fields{
		"post_id":  postID,
		"actor_id": actorID,
	}).Errorf("failed to %s", op)
}
