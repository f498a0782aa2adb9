package handlers

import (
	"context"
	"net/http"
	"sync"

	"github.com/archiveshq/archives/backend/internal/blob"
	"github.com/archiveshq/archives/backend/internal/interactions"
	"github.com/archiveshq/archives/backend/internal/store"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// InteractionHandler exposes the live interaction session for a post: one
// WebSocket connection per viewer, backed by a Synchronizer whose
// subscription is acquired on connect and released on disconnect.
type InteractionHandler struct {
	posts     store.PostStore
	directory interactions.UserDirectory
	emitter   interactions.Emitter
	blobs     blob.Store
	upgrader  websocket.Upgrader
}

// NewInteractionHandler creates a new InteractionHandler
func NewInteractionHandler(posts store.PostStore, directory interactions.UserDirectory, emitter interactions.Emitter, blobs blob.Store) *InteractionHandler {
	return &InteractionHandler{
		posts:     posts,
		directory: directory,
		emitter:   emitter,
		blobs:     blobs,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterInteractionRoutes registers the live session route
func (h *InteractionHandler) RegisterInteractionRoutes(g *echo.Group) {
	g.GET("/posts/:owner_id/:post_id/live", h.LiveSession)
}

// intentMessage is a user intent arriving over the session socket
type intentMessage struct {
	Action    string `json:"action"` // toggle_like, add_comment, delete_comment, delete_post
	Text      string `json:"text,omitempty"`
	CommentID string `json:"comment_id,omitempty"`
	Confirm   bool   `json:"confirm,omitempty"`
}

// sessionFrame is a server-to-client frame
type sessionFrame struct {
	Type  string              `json:"type"` // state, error, post_deleted
	State *interactions.State `json:"state,omitempty"`
	Error string              `json:"error,omitempty"`
}

// LiveSession upgrades the connection and runs the interaction session until
// the client disconnects or deletes the post
func (h *InteractionHandler) LiveSession(c echo.Context) error {
	actorID := c.Get("firebaseUID").(string)
	ownerID := c.Param("owner_id")
	postID := c.Param("post_id")

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	// State snapshots arrive from both the subscription goroutine and the
	// operation path, so writes to the socket are serialized.
	var writeMu sync.Mutex
	send := func(frame sessionFrame) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(frame); err != nil {
			logrus.WithError(err).Debug("failed to write session frame")
		}
	}

	syncer := interactions.New(ownerID, postID, h.posts, h.directory, h.emitter, h.blobs)
	syncer.OnChange(func(state interactions.State) {
		send(sessionFrame{Type: "state", State: &state})
	})

	if err := syncer.Start(ctx); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"owner_id": ownerID,
			"post_id":  postID,
		}).Error("failed to start interaction session")
		send(sessionFrame{Type: "error", Error: "post not available"})
		return nil
	}
	defer syncer.Close()

	for {
		var intent intentMessage
		if err := conn.ReadJSON(&intent); err != nil {
			return nil
		}

		switch intent.Action {
		case "toggle_like":
			if err := syncer.ToggleLike(ctx, actorID); err != nil {
				send(sessionFrame{Type: "error", Error: "operation failed"})
			}
		case "add_comment":
			if err := syncer.AddComment(ctx, actorID, intent.Text); err != nil {
				send(sessionFrame{Type: "error", Error: "operation failed"})
			}
		case "delete_comment":
			if err := syncer.DeleteComment(ctx, intent.CommentID, actorID); err != nil {
				send(sessionFrame{Type: "error", Error: "operation failed"})
			}
		case "delete_post":
			// Destructive: the client must confirm explicitly.
			if !intent.Confirm {
				send(sessionFrame{Type: "error", Error: "post deletion requires confirmation"})
				continue
			}
			if err := syncer.DeletePost(ctx, actorID); err != nil {
				send(sessionFrame{Type: "error", Error: "operation failed"})
				continue
			}
			send(sessionFrame{Type: "post_deleted"})
			return nil
		default:
			send(sessionFrame{Type: "error", Error: "unknown action"})
		}
	}
}
