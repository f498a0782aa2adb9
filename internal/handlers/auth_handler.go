package handlers

import (
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/archiveshq/archives/backend/internal/models"
	"github.com/archiveshq/archives/backend/internal/store"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	users        store.UserStore
	firebaseAuth *auth.Client
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(users store.UserStore, firebaseAuthClient *auth.Client) *AuthHandler {
	return &AuthHandler{
		users:        users,
		firebaseAuth: firebaseAuthClient,
	}
}

// RegisterAuthRoutes registers authentication-related routes
func (h *AuthHandler) RegisterAuthRoutes(g *echo.Group) {
	g.POST("/firebase-login", h.FirebaseLogin)
}

// FirebaseLogin verifies a Firebase ID token and returns the matching profile
// row, creating it on first login
func (h *AuthHandler) FirebaseLogin(c echo.Context) error {
	var req models.FirebaseLoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request payload")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	token, err := h.firebaseAuth.VerifyIDToken(c.Request().Context(), req.IDToken)
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
	}

	user, err := h.users.GetUserByFirebaseUID(token.UID)
	if err == nil {
		return c.JSON(http.StatusOK, user)
	}
	if err != gorm.ErrRecordNotFound {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	email, _ := token.Claims["email"].(string)
	user = &models.User{
		FirebaseUID: token.UID,
		Email:       email,
	}
	if err := h.users.CreateUser(user); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusCreated, user)
}
