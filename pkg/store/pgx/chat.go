package pgx

import (
	"context"
	"fmt"

	"github.com/marula-ai/marula/pkg/common"
)

// AppendChatMessage appends one turn to a conversation. Failed retrieval
// runs also append their canned assistant turn, so the history reflects
// what the user actually saw.
func (s *GraphDBStorage) AppendChatMessage(ctx context.Context, conversationID string, msg common.ChatMessage) error {
	_, err := s.conn.Exec(ctx, `
		INSERT INTO chat_messages (conversation_id, role, content, created)
		VALUES ($1, $2, $3, $4)
	`, conversationID, msg.Role, msg.Content, msg.Created)
	if err != nil {
		return fmt.Errorf("failed to append chat message: %w", err)
	}
	return nil
}

// GetChatMessages returns a conversation's turns in insertion order.
func (s *GraphDBStorage) GetChatMessages(ctx context.Context, conversationID string) ([]common.ChatMessage, error) {
	rows, err := s.conn.Query(ctx, `
		SELECT role, content, created
		FROM chat_messages
		WHERE conversation_id = $1
		ORDER BY id ASC
	`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to get chat messages: %w", err)
	}
	defer rows.Close()

	var msgs []common.ChatMessage
	for rows.Next() {
		var msg common.ChatMessage
		if err := rows.Scan(&msg.Role, &msg.Content, &msg.Created); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
