package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/archiveshq/archives/backend/internal/blob"
	"github.com/archiveshq/archives/backend/internal/interactions"
	"github.com/archiveshq/archives/backend/internal/models"
	"github.com/archiveshq/archives/backend/internal/store"
	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PostHandler handles HTTP requests related to posts
type PostHandler struct {
	posts      store.PostStore
	directory  interactions.UserDirectory
	emitter    interactions.Emitter
	blobs      blob.Store
	bucketName string
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(posts store.PostStore, directory interactions.UserDirectory, emitter interactions.Emitter, blobs blob.Store, bucketName string) *PostHandler {
	return &PostHandler{
		posts:      posts,
		directory:  directory,
		emitter:    emitter,
		blobs:      blobs,
		bucketName: bucketName,
	}
}

// RegisterPostRoutes registers post-related routes
func (h *PostHandler) RegisterPostRoutes(g *echo.Group) {
	g.POST("/posts", h.CreatePost)
	g.GET("/posts/:owner_id/:post_id", h.GetPost)
	g.DELETE("/posts/:owner_id/:post_id", h.DeletePost)
	g.GET("/users/:uid/posts", h.GetPostsByOwner)
	g.GET("/feed", h.GetFeed)
}

// CreatePost creates a new post: the image is uploaded to object storage
// under the derived key, then the post document is inserted
func (h *PostHandler) CreatePost(c echo.Context) error {
	ownerID := c.Get("firebaseUID").(string)

	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Post image is required")
	}

	src, err := file.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	defer src.Close()

	postID := primitive.NewObjectID().Hex()
	key := blob.PostImageKey(ownerID, postID)
	if err := h.blobs.Upload(c.Request().Context(), key, "image/jpeg", src); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to upload post image")
	}

	post := &models.Post{
		ID:          postID,
		OwnerID:     ownerID,
		ImageURL:    fmt.Sprintf("https://storage.googleapis.com/%s/%s", h.bucketName, key),
		Description: c.FormValue("description"),
	}

	if err := h.posts.CreatePost(c.Request().Context(), post); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, post)
}

// GetPost retrieves a single post
func (h *PostHandler) GetPost(c echo.Context) error {
	post, err := h.posts.GetPost(c.Request().Context(), c.Param("owner_id"), c.Param("post_id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}
	return c.JSON(http.StatusOK, post)
}

// DeletePost cascades deletion of a post's notifications, blob and document.
// Requires an explicit confirm=true query parameter.
func (h *PostHandler) DeletePost(c echo.Context) error {
	requesterID := c.Get("firebaseUID").(string)
	ownerID := c.Param("owner_id")
	postID := c.Param("post_id")

	if c.QueryParam("confirm") != "true" {
		return echo.NewHTTPError(http.StatusBadRequest, "Post deletion requires confirmation")
	}

	syncer := interactions.New(ownerID, postID, h.posts, h.directory, h.emitter, h.blobs)
	if err := syncer.DeletePost(c.Request().Context(), requesterID); err != nil {
		if err == interactions.ErrNotPostOwner {
			return echo.NewHTTPError(http.StatusForbidden, "Only the post owner can delete a post")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to delete post")
	}

	return c.NoContent(http.StatusNoContent)
}

// GetPostsByOwner retrieves a user's posts for the profile grid
func (h *PostHandler) GetPostsByOwner(c echo.Context) error {
	skip, limit := pagination(c)
	posts, err := h.posts.GetPostsByOwner(c.Request().Context(), c.Param("uid"), skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, posts)
}

// GetFeed retrieves all posts with pagination, newest first
func (h *PostHandler) GetFeed(c echo.Context) error {
	skip, limit := pagination(c)
	posts, err := h.posts.GetAllPosts(c.Request().Context(), skip, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, posts)
}

func pagination(c echo.Context) (skip, limit int64) {
	page, _ := strconv.ParseInt(c.QueryParam("page"), 10, 64)
	limit, _ = strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}
	return (page - 1) * limit, limit
}
