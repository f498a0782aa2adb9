package handlers

import (
	"net/http"

	"github.com/archiveshq/archives/backend/internal/models"
	"github.com/archiveshq/archives/backend/internal/store"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// UserHandler handles HTTP requests related to user profiles
type UserHandler struct {
	users store.UserStore
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(users store.UserStore) *UserHandler {
	return &UserHandler{users: users}
}

// RegisterProfileRoutes registers user profile-related routes
func (h *UserHandler) RegisterProfileRoutes(g *echo.Group) {
	g.GET("/profile", h.GetProfile)    // Get own profile
	g.PUT("/profile", h.UpdateProfile) // Update own profile
	g.GET("/users/:uid", h.GetUser)    // Get another user's profile
}

// GetProfile retrieves the authenticated user's profile
func (h *UserHandler) GetProfile(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	user, err := h.users.GetUserByFirebaseUID(firebaseUID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user)
}

// GetUser retrieves another user's profile by Firebase UID
func (h *UserHandler) GetUser(c echo.Context) error {
	user, err := h.users.GetUserByFirebaseUID(c.Param("uid"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user.ToCompact())
}

// UpdateProfile updates the authenticated user's profile
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	firebaseUID := c.Get("firebaseUID").(string)

	var req models.UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.users.GetUserByFirebaseUID(firebaseUID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return echo.NewHTTPError(http.StatusNotFound, "User profile not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	if req.Username != "" {
		user.Username = req.Username
	}
	if req.Name != "" {
		user.Name = req.Name
	}
	if req.Bio != "" {
		user.Bio = req.Bio
	}
	if req.PhotoURL != "" {
		user.PhotoURL = req.PhotoURL
	}

	if err := h.users.UpdateUser(user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, user)
}
