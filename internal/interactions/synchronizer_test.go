package interactions

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/archiveshq/archives/backend/internal/models"
	"github.com/stretchr/testify/require"
)

// fakePostStore keeps one post in memory, applies the same array-delta
// semantics as the real store, and lets tests push subscription updates and
// inject write failures.
type fakePostStore struct {
	mu       sync.Mutex
	post     models.Post
	failWith error
	updates  chan models.Post
	calls    []string
}

func newFakePostStore(post models.Post) *fakePostStore {
	return &fakePostStore{post: post, updates: make(chan models.Post)}
}

func (f *fakePostStore) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakePostStore) CreatePost(ctx context.Context, post *models.Post) error {
	return nil
}

func (f *fakePostStore) GetPost(ctx context.Context, ownerID, postID string) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post := f.post
	return &post, nil
}

func (f *fakePostStore) GetPostsByOwner(ctx context.Context, ownerID string, skip, limit int64) ([]models.Post, error) {
	return nil, nil
}

func (f *fakePostStore) GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	return nil, nil
}

func (f *fakePostStore) DeletePost(ctx context.Context, ownerID, postID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeletePost")
	return f.failWith
}

func (f *fakePostStore) AddLike(ctx context.Context, ownerID, postID, actorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AddLike " + actorID)
	if f.failWith != nil {
		return f.failWith
	}
	if !f.post.LikedBy(actorID) {
		f.post.Likes = append(f.post.Likes, actorID)
	}
	return nil
}

func (f *fakePostStore) RemoveLike(ctx context.Context, ownerID, postID, actorID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RemoveLike " + actorID)
	if f.failWith != nil {
		return f.failWith
	}
	likes := f.post.Likes[:0]
	for _, id := range f.post.Likes {
		if id != actorID {
			likes = append(likes, id)
		}
	}
	f.post.Likes = likes
	return nil
}

func (f *fakePostStore) AppendComment(ctx context.Context, ownerID, postID string, comment models.Comment) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("AppendComment " + comment.ID)
	if f.failWith != nil {
		return f.failWith
	}
	f.post.Comments = append(f.post.Comments, comment)
	return nil
}

func (f *fakePostStore) RemoveComment(ctx context.Context, ownerID, postID, commentID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("RemoveComment " + commentID)
	if f.failWith != nil {
		return f.failWith
	}
	comments := f.post.Comments[:0]
	for _, c := range f.post.Comments {
		if c.ID != commentID {
			comments = append(comments, c)
		}
	}
	f.post.Comments = comments
	return nil
}

func (f *fakePostStore) Watch(ctx context.Context, ownerID, postID string) (<-chan models.Post, error) {
	out := make(chan models.Post)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case post := <-f.updates:
				select {
				case out <- post:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

func (f *fakePostStore) push(post models.Post) {
	f.updates <- post
}

func (f *fakePostStore) snapshot() models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.post
}

type emitterCall struct {
	op        string
	recipient string
	actor     string
	postID    string
	commentID string
	text      string
	nowLiked  bool
}

type fakeEmitter struct {
	mu    sync.Mutex
	calls []emitterCall
}

func (f *fakeEmitter) LikeToggled(recipientID, actorID, postID string, nowLiked bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, emitterCall{op: "like", recipient: recipientID, actor: actorID, postID: postID, nowLiked: nowLiked})
}

func (f *fakeEmitter) CommentAdded(recipientID, actorID, postID, commentID, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, emitterCall{op: "comment_added", recipient: recipientID, actor: actorID, postID: postID, commentID: commentID, text: text})
}

func (f *fakeEmitter) CommentRemoved(recipientID, actorID, postID, commentID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, emitterCall{op: "comment_removed", recipient: recipientID, actor: actorID, postID: postID, commentID: commentID})
}

func (f *fakeEmitter) PostDeleted(postID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, emitterCall{op: "post_deleted", postID: postID})
}

func (f *fakeEmitter) all() []emitterCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]emitterCall(nil), f.calls...)
}

type fakeDirectory struct {
	users map[string]models.UserCompact
}

func (f *fakeDirectory) Lookup(actorID string) (models.UserCompact, error) {
	if u, ok := f.users[actorID]; ok {
		return u, nil
	}
	return models.UserCompact{}, errors.New("user not found")
}

type fakeBlobStore struct {
	mu      sync.Mutex
	deleted []string
}

func (f *fakeBlobStore) Upload(ctx context.Context, key, contentType string, r io.Reader) error {
	return nil
}

func (f *fakeBlobStore) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, key)
	return nil
}

func newTestSynchronizer(post models.Post) (*Synchronizer, *fakePostStore, *fakeEmitter, *fakeBlobStore) {
	posts := newFakePostStore(post)
	emitter := &fakeEmitter{}
	blobs := &fakeBlobStore{}
	directory := &fakeDirectory{users: map[string]models.UserCompact{
		"alice": {FirebaseUID: "alice", Username: "alice_a"},
		"bob":   {FirebaseUID: "bob", Username: "bob_b"},
	}}
	return New(post.OwnerID, post.ID, posts, directory, emitter, blobs), posts, emitter, blobs
}

func testPost() models.Post {
	return models.Post{
		ID:      "p1",
		OwnerID: "bob",
		Likes:   []string{},
		Comments: []models.Comment{
			{ID: "100", AuthorID: "alice", Text: "first"},
		},
	}
}

func TestToggleLikeParity(t *testing.T) {
	syncer, posts, _, _ := newTestSynchronizer(testPost())

	for i := 1; i <= 5; i++ {
		require.NoError(t, syncer.ToggleLike(context.Background(), "alice"))
		wantLiked := i%2 == 1
		require.Equal(t, wantLiked, syncer.Snapshot().LikedBy("alice"))
		stored := posts.snapshot()
		require.Equal(t, wantLiked, stored.LikedBy("alice"))
	}
}

func TestToggleLikeEmitsNotificationSideEffect(t *testing.T) {
	syncer, _, emitter, _ := newTestSynchronizer(testPost())

	require.NoError(t, syncer.ToggleLike(context.Background(), "alice"))
	require.NoError(t, syncer.ToggleLike(context.Background(), "alice"))

	calls := emitter.all()
	require.Len(t, calls, 2)
	require.Equal(t, emitterCall{op: "like", recipient: "bob", actor: "alice", postID: "p1", nowLiked: true}, calls[0])
	require.Equal(t, emitterCall{op: "like", recipient: "bob", actor: "alice", postID: "p1", nowLiked: false}, calls[1])
}

func TestAddCommentWhitespaceIsNoOp(t *testing.T) {
	syncer, posts, emitter, _ := newTestSynchronizer(testPost())

	require.NoError(t, syncer.AddComment(context.Background(), "alice", "   \t\n"))

	require.Len(t, syncer.Snapshot().Comments, 0)
	require.Empty(t, posts.calls)
	require.Empty(t, emitter.all())
}

func TestAddCommentTrimsAndAppends(t *testing.T) {
	syncer, posts, emitter, _ := newTestSynchronizer(testPost())

	require.NoError(t, syncer.AddComment(context.Background(), "alice", "  nice shot  "))

	state := syncer.Snapshot()
	require.Len(t, state.Comments, 1)
	require.Equal(t, "nice shot", state.Comments[0].Text)
	require.Equal(t, "alice", state.Comments[0].AuthorID)
	require.NotEmpty(t, state.Comments[0].ID)

	stored := posts.snapshot().Comments
	require.Len(t, stored, 2) // the pre-existing comment plus the new one
	require.Equal(t, state.Comments[0], stored[1])

	calls := emitter.all()
	require.Len(t, calls, 1)
	require.Equal(t, "comment_added", calls[0].op)
	require.Equal(t, "nice shot", calls[0].text)
	require.Equal(t, state.Comments[0].ID, calls[0].commentID)
}

func TestDeleteCommentRemovesExactlyOneByID(t *testing.T) {
	post := testPost()
	post.Comments = append(post.Comments, models.Comment{ID: "200", AuthorID: "alice", Text: "second"})
	syncer, posts, emitter, _ := newTestSynchronizer(post)
	require.NoError(t, syncer.Start(context.Background()))
	defer syncer.Close()

	require.NoError(t, syncer.DeleteComment(context.Background(), "100", "alice"))

	state := syncer.Snapshot()
	require.Len(t, state.Comments, 1)
	require.Equal(t, "200", state.Comments[0].ID)
	require.Contains(t, posts.calls, "RemoveComment 100")
	require.Len(t, posts.snapshot().Comments, 1)

	calls := emitter.all()
	require.Len(t, calls, 1)
	require.Equal(t, emitterCall{op: "comment_removed", recipient: "bob", actor: "alice", postID: "p1", commentID: "100"}, calls[0])
}

func TestDeleteCommentRequiresAuthor(t *testing.T) {
	syncer, posts, emitter, _ := newTestSynchronizer(testPost())
	require.NoError(t, syncer.Start(context.Background()))
	defer syncer.Close()

	err := syncer.DeleteComment(context.Background(), "100", "mallory")
	require.ErrorIs(t, err, ErrNotCommentAuthor)

	require.Len(t, syncer.Snapshot().Comments, 1)
	require.NotContains(t, posts.calls, "RemoveComment 100")
	require.Empty(t, emitter.all())
}

func TestDeleteCommentNotFound(t *testing.T) {
	syncer, _, _, _ := newTestSynchronizer(testPost())
	require.NoError(t, syncer.Start(context.Background()))
	defer syncer.Close()

	err := syncer.DeleteComment(context.Background(), "999", "alice")
	require.ErrorIs(t, err, ErrCommentNotFound)
}

func TestFailedWriteRollsBackLocalState(t *testing.T) {
	syncer, posts, emitter, _ := newTestSynchronizer(testPost())
	posts.failWith = errors.New("store unavailable")

	err := syncer.ToggleLike(context.Background(), "alice")
	require.Error(t, err)

	require.False(t, syncer.Snapshot().LikedBy("alice"))
	require.Empty(t, emitter.all())
}

func TestFailedCommentWriteRollsBackLocalState(t *testing.T) {
	syncer, posts, emitter, _ := newTestSynchronizer(testPost())
	posts.failWith = errors.New("store unavailable")

	err := syncer.AddComment(context.Background(), "alice", "hello")
	require.Error(t, err)

	require.Len(t, syncer.Snapshot().Comments, 0)
	require.Empty(t, emitter.all())
}

func TestSubscriptionOverwritesOptimisticState(t *testing.T) {
	post := testPost()
	post.Likes = []string{"alice"}
	syncer, posts, _, _ := newTestSynchronizer(post)

	require.NoError(t, syncer.Start(context.Background()))
	defer syncer.Close()

	// Local optimism says alice no longer likes the post...
	require.NoError(t, syncer.ToggleLike(context.Background(), "alice"))
	require.False(t, syncer.Snapshot().LikedBy("alice"))

	// ...but a server-observed state races in claiming she still does.
	// The subscription is the final authority.
	serverState := post
	serverState.Likes = []string{"alice", "carol"}
	posts.push(serverState)

	require.Eventually(t, func() bool {
		state := syncer.Snapshot()
		return state.LikedBy("carol") && state.LikedBy("alice")
	}, time.Second, 5*time.Millisecond)
}

func TestSubscriptionResolvesCommenterDetails(t *testing.T) {
	syncer, _, _, _ := newTestSynchronizer(testPost())
	require.NoError(t, syncer.Start(context.Background()))
	defer syncer.Close()

	state := syncer.Snapshot()
	require.Equal(t, "alice_a", state.Commenters["alice"].Username)
}

func TestDeletePostCascade(t *testing.T) {
	syncer, posts, emitter, blobs := newTestSynchronizer(testPost())

	require.NoError(t, syncer.DeletePost(context.Background(), "bob"))

	require.Contains(t, posts.calls, "DeletePost")
	require.Equal(t, []string{"users/bob/Posts/p1.jpg"}, blobs.deleted)

	calls := emitter.all()
	require.Len(t, calls, 1)
	require.Equal(t, emitterCall{op: "post_deleted", postID: "p1"}, calls[0])
}

func TestDeletePostRequiresOwner(t *testing.T) {
	syncer, posts, emitter, blobs := newTestSynchronizer(testPost())

	err := syncer.DeletePost(context.Background(), "alice")
	require.ErrorIs(t, err, ErrNotPostOwner)

	require.Empty(t, posts.calls)
	require.Empty(t, blobs.deleted)
	require.Empty(t, emitter.all())
}

func TestCloseReleasesSubscriptionOnce(t *testing.T) {
	syncer, _, _, _ := newTestSynchronizer(testPost())
	require.NoError(t, syncer.Start(context.Background()))

	syncer.Close()
	syncer.Close() // second call is a no-op
}

func TestSnapshotIsACopy(t *testing.T) {
	syncer, _, _, _ := newTestSynchronizer(testPost())
	require.NoError(t, syncer.Start(context.Background()))
	defer syncer.Close()

	state := syncer.Snapshot()
	state.Likes = append(state.Likes, "mallory")
	state.Comments[0].Text = "tampered"

	fresh := syncer.Snapshot()
	require.False(t, fresh.LikedBy("mallory"))
	require.Equal(t, "first", fresh.Comments[0].Text)
}

func TestManyCommentersResolved(t *testing.T) {
	post := testPost()
	directoryUsers := map[string]models.UserCompact{}
	for i := 0; i < 5; i++ {
		uid := fmt.Sprintf("user%d", i)
		post.Comments = append(post.Comments, models.Comment{ID: fmt.Sprintf("%d", 200+i), AuthorID: uid, Text: "hi"})
		directoryUsers[uid] = models.UserCompact{FirebaseUID: uid, Username: "name_" + uid}
	}
	posts := newFakePostStore(post)
	syncer := New(post.OwnerID, post.ID, posts, &fakeDirectory{users: directoryUsers}, &fakeEmitter{}, &fakeBlobStore{})

	require.NoError(t, syncer.Start(context.Background()))
	defer syncer.Close()

	commenters := syncer.Snapshot().Commenters
	for uid, want := range directoryUsers {
		require.Equal(t, want, commenters[uid])
	}
	// unknown commenters stay unresolved without failing the update
	_, ok := commenters["alice"]
	require.False(t, ok)
}
