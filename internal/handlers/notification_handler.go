package handlers

import (
	"math"
	"net/http"
	"strconv"

	"github.com/archiveshq/archives/backend/internal/interactions"
	"github.com/archiveshq/archives/backend/internal/models"
	"github.com/archiveshq/archives/backend/internal/store"
	"github.com/labstack/echo/v4"
)

// NotificationHandler handles notification-related HTTP requests
type NotificationHandler struct {
	notifications store.NotificationStore
	directory     interactions.UserDirectory
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notifications store.NotificationStore, directory interactions.UserDirectory) *NotificationHandler {
	return &NotificationHandler{
		notifications: notifications,
		directory:     directory,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.GET("/notifications/unread-count", h.GetUnreadCount)
	g.PUT("/notifications/:id/read", h.MarkAsRead)
	g.PUT("/notifications/read-all", h.MarkAllAsRead)
}

// EnrichedNotification includes actor info
type EnrichedNotification struct {
	models.Notification
	Actor models.UserCompact `json:"actor"`
}

func (h *NotificationHandler) enrichNotifications(notifications []models.Notification) []EnrichedNotification {
	enriched := make([]EnrichedNotification, len(notifications))
	actorCache := make(map[string]models.UserCompact)

	for i, n := range notifications {
		enriched[i] = EnrichedNotification{Notification: n}
		if actor, ok := actorCache[n.ActorID]; ok {
			enriched[i].Actor = actor
		} else if actor, err := h.directory.Lookup(n.ActorID); err == nil {
			actorCache[n.ActorID] = actor
			enriched[i].Actor = actor
		}
	}
	return enriched
}

// GetNotifications returns paginated notifications for the authenticated user
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	recipientID := c.Get("firebaseUID").(string)

	page, _ := strconv.Atoi(c.QueryParam("page"))
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 50 {
		limit = 20
	}

	notifications, total, err := h.notifications.GetByRecipientID(recipientID, page, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))

	return c.JSON(http.StatusOK, echo.Map{
		"notifications": h.enrichNotifications(notifications),
		"meta": echo.Map{
			"currentPage":  page,
			"totalPages":   totalPages,
			"totalItems":   total,
			"itemsPerPage": limit,
		},
	})
}

// GetUnreadCount returns the unread notification count
func (h *NotificationHandler) GetUnreadCount(c echo.Context) error {
	recipientID := c.Get("firebaseUID").(string)

	count, err := h.notifications.GetUnreadCount(recipientID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"count": count})
}

// MarkAsRead marks a notification as read
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	notifID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid notification ID")
	}

	if err := h.notifications.MarkAsRead(uint(notifID)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}

// MarkAllAsRead marks all of the authenticated user's notifications as read
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	recipientID := c.Get("firebaseUID").(string)

	if err := h.notifications.MarkAllAsRead(recipientID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.NoContent(http.StatusNoContent)
}
