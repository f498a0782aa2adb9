package handlers

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"github.com/archiveshq/archives/backend/internal/models"
	"github.com/archiveshq/archives/backend/internal/store"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

const messageHistoryLimit = 50

// MessageHandler handles direct message chats: history over REST and a live
// per-chat WebSocket stream backed by the store's change subscription
type MessageHandler struct {
	messages store.MessageStore
	upgrader websocket.Upgrader
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messages store.MessageStore) *MessageHandler {
	return &MessageHandler{
		messages: messages,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// RegisterMessageRoutes registers message-related routes
func (h *MessageHandler) RegisterMessageRoutes(g *echo.Group) {
	g.GET("/chats/:chat_id/messages", h.GetHistory)
	g.GET("/chats/:chat_id/live", h.LiveChat)
}

// GetHistory returns the most recent messages in a chat, oldest first
func (h *MessageHandler) GetHistory(c echo.Context) error {
	messages, err := h.messages.History(c.Request().Context(), c.Param("chat_id"), messageHistoryLimit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, messages)
}

// outboundMessage is a client-to-server chat frame
type outboundMessage struct {
	Text        string `json:"text"`
	RecipientID string `json:"recipient_id"`
}

// LiveChat streams chat messages over a WebSocket: history first, then new
// messages as they land in the store. Inbound frames are appended to the
// chat; whitespace-only sends are dropped.
func (h *MessageHandler) LiveChat(c echo.Context) error {
	senderID := c.Get("firebaseUID").(string)
	chatID := c.Param("chat_id")

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	var writeMu sync.Mutex
	send := func(message models.Message) {
		writeMu.Lock()
		defer writeMu.Unlock()
		if err := conn.WriteJSON(message); err != nil {
			logrus.WithError(err).Debug("failed to write chat message")
		}
	}

	history, err := h.messages.History(ctx, chatID, messageHistoryLimit)
	if err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Error("failed to load chat history")
		return nil
	}

	updates, err := h.messages.Watch(ctx, chatID)
	if err != nil {
		logrus.WithError(err).WithField("chat_id", chatID).Error("failed to watch chat")
		return nil
	}

	for _, message := range history {
		send(message)
	}

	go func() {
		for message := range updates {
			send(message)
		}
	}()

	for {
		var outbound outboundMessage
		if err := conn.ReadJSON(&outbound); err != nil {
			return nil
		}

		text := strings.TrimSpace(outbound.Text)
		if text == "" {
			continue
		}

		message := &models.Message{
			ChatID:      chatID,
			SenderID:    senderID,
			RecipientID: outbound.RecipientID,
			Text:        text,
		}
		if err := h.messages.Append(ctx, message); err != nil {
			logrus.WithError(err).WithField("chat_id", chatID).Error("failed to store message")
		}
	}
}
