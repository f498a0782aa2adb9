package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
)

// FirebaseAuthMiddleware creates an Echo middleware to verify Firebase ID
// tokens. The verified UID is the actor identity threaded through every
// downstream operation; nothing else reads ambient auth state.
func FirebaseAuthMiddleware(authClient *auth.Client) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				// WebSocket clients cannot set headers from browsers, so the
				// token may arrive as a query parameter instead.
				if token := c.QueryParam("token"); token != "" {
					authHeader = "Bearer " + token
				}
			}
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header is missing")
			}

			tokenParts := strings.Split(authHeader, " ")
			if len(tokenParts) != 2 || strings.ToLower(tokenParts[0]) != "bearer" {
				return echo.NewHTTPError(http.StatusUnauthorized, "Authorization header must be in Bearer format")
			}

			idToken := tokenParts[1]

			token, err := authClient.VerifyIDToken(c.Request().Context(), idToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, fmt.Sprintf("Invalid or expired ID token: %v", err))
			}

			c.Set("firebaseUID", token.UID)

			return next(c)
		}
	}
}
