package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/marula-ai/marula/internal/server/middleware"
	"github.com/marula-ai/marula/pkg/logger"
)

// GetChatHandler returns a conversation's turns in insertion order.
func GetChatHandler(c echo.Context) error {
	type getChatParams struct {
		ConversationID string `param:"conversation_id" validate:"required"`
	}

	type chatMessage struct {
		Role    string    `json:"role"`
		Content string    `json:"content"`
		Created time.Time `json:"created"`
	}

	type getChatResponse struct {
		ConversationID string        `json:"conversation_id"`
		Messages       []chatMessage `json:"messages"`
	}

	params := new(getChatParams)
	if err := c.Bind(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request params"})
	}
	if err := c.Validate(params); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "Invalid request params"})
	}

	params.ConversationID = strings.TrimSpace(params.ConversationID)
	if params.ConversationID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"message": "conversation_id is required"})
	}

	ctx := c.Request().Context()
	app := c.(*middleware.AppContext).App

	msgs, err := app.Storage.GetChatMessages(ctx, params.ConversationID)
	if err != nil {
		logger.Error("Failed to get conversation", "conversation_id", params.ConversationID, "err", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"message": "Internal server error"})
	}
	if len(msgs) == 0 {
		return c.JSON(http.StatusNotFound, map[string]string{"message": "Conversation not found"})
	}

	messages := make([]chatMessage, 0, len(msgs))
	for _, msg := range msgs {
		messages = append(messages, chatMessage{
			Role:    msg.Role,
			Content: msg.Content,
			Created: msg.Created,
		})
	}

	return c.JSON(http.StatusOK, getChatResponse{
		ConversationID: params.ConversationID,
		Messages:       messages,
	})
}
