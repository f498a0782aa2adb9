package interactions

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/archiveshq/archives/backend/internal/blob"
	"github.com/archiveshq/archives/backend/internal/metrics"
	"github.com/archiveshq/archives/backend/internal/models"
	"github.com/archiveshq/archives/backend/internal/store"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

var (
	ErrCommentNotFound  = errors.New("comment not found")
	ErrNotCommentAuthor = errors.New("only the comment author can delete a comment")
	ErrNotPostOwner     = errors.New("only the post owner can delete a post")
)

// Emitter receives interaction side effects. Implementations must be
// fire-and-forget: they log failures instead of returning them.
type Emitter interface {
	LikeToggled(recipientID, actorID, postID string, nowLiked bool)
	CommentAdded(recipientID, actorID, postID, commentID, text string)
	CommentRemoved(recipientID, actorID, postID, commentID string)
	PostDeleted(postID string)
}

// UserDirectory resolves actor identifiers to display details for the
// commenter cache.
type UserDirectory interface {
	Lookup(actorID string) (models.UserCompact, error)
}

// Synchronizer owns the optimistic local state for one post's likes and
// comments. Mutations are applied locally first, then issued to the store as
// atomic deltas; the live subscription opened by Start is the final authority
// and overwrites local state on every server-observed change.
//
// The actor performing each operation is passed explicitly; the synchronizer
// holds no ambient notion of a current user.
type Synchronizer struct {
	ownerID string
	postID  string

	posts   store.PostStore
	users   UserDirectory
	emitter Emitter
	blobs   blob.Store

	mu       sync.Mutex
	state    State
	onChange func(State)

	cancel    context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
}

// New creates a Synchronizer for the post identified by (ownerID, postID).
// It does not touch the store until Start is called, so a Synchronizer can
// also serve one-shot operations such as DeletePost.
func New(ownerID, postID string, posts store.PostStore, users UserDirectory, emitter Emitter, blobs blob.Store) *Synchronizer {
	return &Synchronizer{
		ownerID: ownerID,
		postID:  postID,
		posts:   posts,
		users:   users,
		emitter: emitter,
		blobs:   blobs,
		state: State{
			OwnerID:    ownerID,
			PostID:     postID,
			Likes:      []string{},
			Comments:   []models.Comment{},
			Commenters: map[string]models.UserCompact{},
		},
	}
}

// OnChange registers the callback invoked with a state snapshot after every
// local or server-observed change. Must be set before Start.
func (s *Synchronizer) OnChange(fn func(State)) {
	s.onChange = fn
}

// Start loads the post document and opens the live subscription. The
// subscription stays active until Close or ctx cancellation.
func (s *Synchronizer) Start(ctx context.Context) error {
	post, err := s.posts.GetPost(ctx, s.ownerID, s.postID)
	if err != nil {
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	updates, err := s.posts.Watch(watchCtx, s.ownerID, s.postID)
	if err != nil {
		cancel()
		return err
	}
	s.cancel = cancel
	s.done = make(chan struct{})

	s.apply(*post)

	go func() {
		defer close(s.done)
		for snapshot := range updates {
			metrics.Reconciliations.Inc()
			s.apply(snapshot)
		}
	}()
	return nil
}

// Close releases the live subscription. Safe to call more than once; only the
// first call has any effect. Writes still in flight complete in the
// background.
func (s *Synchronizer) Close() {
	s.closeOnce.Do(func() {
		if s.cancel != nil {
			s.cancel()
		}
		if s.done != nil {
			<-s.done
		}
	})
}

// Snapshot returns a copy of the current local state
func (s *Synchronizer) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone()
}

// ToggleLike flips the actor's like membership: locally first, then as an
// atomic set-membership delta against the store. Re-invoking with the same
// resulting membership is a no-op at the store level.
func (s *Synchronizer) ToggleLike(ctx context.Context, actorID string) error {
	s.mu.Lock()
	prev := s.state.clone()
	liked := s.state.LikedBy(actorID)
	if liked {
		s.state.Likes = lo.Without(s.state.Likes, actorID)
	} else {
		s.state.Likes = append(s.state.Likes, actorID)
	}
	snapshot := s.state.clone()
	s.mu.Unlock()
	s.notifyChange(snapshot)

	kind := "like"
	var err error
	if liked {
		kind = "unlike"
		err = s.posts.RemoveLike(ctx, s.ownerID, s.postID, actorID)
	} else {
		err = s.posts.AddLike(ctx, s.ownerID, s.postID, actorID)
	}
	if err != nil {
		s.rollback(kind, err, prev)
		return err
	}

	metrics.Interactions.WithLabelValues(kind).Inc()
	s.emitter.LikeToggled(s.ownerID, actorID, s.postID, !liked)
	return nil
}

// AddComment appends a comment authored by actorID. Whitespace-only text is a
// silent no-op: nothing is written locally or remotely.
func (s *Synchronizer) AddComment(ctx context.Context, actorID, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	comment := models.Comment{
		ID:       strconv.FormatInt(time.Now().UnixMilli(), 10),
		AuthorID: actorID,
		Text:     trimmed,
	}

	s.mu.Lock()
	prev := s.state.clone()
	s.state.Comments = append(s.state.Comments, comment)
	snapshot := s.state.clone()
	s.mu.Unlock()
	s.notifyChange(snapshot)

	if err := s.posts.AppendComment(ctx, s.ownerID, s.postID, comment); err != nil {
		s.rollback("comment", err, prev)
		return err
	}

	metrics.Interactions.WithLabelValues("comment").Inc()
	s.emitter.CommentAdded(s.ownerID, actorID, s.postID, comment.ID, trimmed)
	return nil
}

// DeleteComment removes the comment with the given ID. Only the comment's
// author may delete it; the store enforces the same rule server-side. The
// store removal is keyed by the comment ID, never by value equality.
func (s *Synchronizer) DeleteComment(ctx context.Context, commentID, requesterID string) error {
	s.mu.Lock()
	idx := -1
	for i, c := range s.state.Comments {
		if c.ID == commentID {
			idx = i
			break
		}
	}
	if idx < 0 {
		s.mu.Unlock()
		return ErrCommentNotFound
	}
	if s.state.Comments[idx].AuthorID != requesterID {
		s.mu.Unlock()
		return ErrNotCommentAuthor
	}
	prev := s.state.clone()
	s.state.Comments = append(s.state.Comments[:idx], s.state.Comments[idx+1:]...)
	snapshot := s.state.clone()
	s.mu.Unlock()
	s.notifyChange(snapshot)

	if err := s.posts.RemoveComment(ctx, s.ownerID, s.postID, commentID); err != nil {
		s.rollback("comment_delete", err, prev)
		return err
	}

	metrics.Interactions.WithLabelValues("comment_delete").Inc()
	s.emitter.CommentRemoved(s.ownerID, requesterID, s.postID, commentID)
	return nil
}

// DeletePost cascades deletion of the post's notifications, image blob and
// document. Only the owner may delete. The steps are independent: a failure
// partway through is logged and does not halt later steps, so a partial
// failure can leave orphaned records until the cascade is re-run.
func (s *Synchronizer) DeletePost(ctx context.Context, requesterID string) error {
	if requesterID != s.ownerID {
		return ErrNotPostOwner
	}

	s.emitter.PostDeleted(s.postID)

	if err := s.blobs.Delete(ctx, blob.PostImageKey(s.ownerID, s.postID)); err != nil {
		logrus.WithError(err).WithField("post_id", s.postID).Error("failed to delete post image blob")
	}

	// Embedded comments and likes are removed with the document itself.
	if err := s.posts.DeletePost(ctx, s.ownerID, s.postID); err != nil {
		metrics.InteractionFailures.WithLabelValues("post_delete").Inc()
		logrus.WithError(err).WithField("post_id", s.postID).Error("failed to delete post document")
		return err
	}

	metrics.Interactions.WithLabelValues("post_delete").Inc()
	return nil
}

// rollback restores the pre-mutation snapshot after a failed store write.
// The live subscription remains the final authority: if a server-observed
// change raced with the failed write, the next update overwrites this too.
func (s *Synchronizer) rollback(kind string, err error, prev State) {
	metrics.InteractionFailures.WithLabelValues(kind).Inc()
	logrus.WithError(err).WithFields(logrus.Fields{
		"owner_id": s.ownerID,
		"post_id":  s.postID,
		"kind":     kind,
	}).Error("interaction write failed, restoring local state")

	s.mu.Lock()
	s.state = prev
	snapshot := s.state.clone()
	s.mu.Unlock()
	s.notifyChange(snapshot)
}

// apply replaces local likes and comments with a server-observed document and
// refreshes the commenter-details cache for authors not seen before.
func (s *Synchronizer) apply(post models.Post) {
	s.mu.Lock()
	s.state.ImageURL = post.ImageURL
	s.state.Description = post.Description
	s.state.Likes = append([]string{}, post.Likes...)
	s.state.Comments = append([]models.Comment{}, post.Comments...)

	authors := lo.Uniq(lo.Map(post.Comments, func(c models.Comment, _ int) string {
		return c.AuthorID
	}))
	missing := lo.Filter(authors, func(id string, _ int) bool {
		_, ok := s.state.Commenters[id]
		return !ok
	})
	snapshot := s.state.clone()
	s.mu.Unlock()

	if len(missing) > 0 {
		resolved := make(map[string]models.UserCompact, len(missing))
		for _, id := range missing {
			user, err := s.users.Lookup(id)
			if err != nil {
				logrus.WithError(err).WithField("user_id", id).Warn("failed to resolve commenter details")
				continue
			}
			resolved[id] = user
		}
		s.mu.Lock()
		for id, user := range resolved {
			s.state.Commenters[id] = user
		}
		snapshot = s.state.clone()
		s.mu.Unlock()
	}

	s.notifyChange(snapshot)
}

func (s *Synchronizer) notifyChange(snapshot State) {
	if s.onChange != nil {
		s.onChange(snapshot)
	}
}
