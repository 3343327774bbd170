package util

import (
	"context"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/marula-ai/marula/pkg/common"
	"github.com/marula-ai/marula/pkg/logger"
)

// ChatStore is the slice of graph storage needed to persist conversation
// turns.
type ChatStore interface {
	AppendChatMessage(ctx context.Context, conversationID string, msg common.ChatMessage) error
}

// NewConversationID generates a fresh conversation identifier.
func NewConversationID() (string, error) {
	return gonanoid.New()
}

// RecordExchange appends the user question and the assistant answer to the
// conversation history. Persistence failures are logged and swallowed; a
// lost history entry must not fail a query that already produced an answer.
func RecordExchange(
	ctx context.Context,
	storage ChatStore,
	conversationID string,
	question string,
	answer string,
) {
	now := time.Now()
	messages := []common.ChatMessage{
		{Role: "user", Content: question, Created: now},
		{Role: "assistant", Content: answer, Created: now},
	}
	for _, msg := range messages {
		if err := storage.AppendChatMessage(ctx, conversationID, msg); err != nil {
			logger.Error("Failed to record chat message", "conversation_id", conversationID, "err", err)
			return
		}
	}
}
