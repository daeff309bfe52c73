package services

import (
	"context"
	"strings"
	"time"

	"github.com/harentsoaR/healthcare-portal/internal/models"
)

// MessageService is the persisted side of the chat relay.
type MessageService struct {
	*base
}

// Send stores one message. sentAt falls back to the current time.
func (s *MessageService) Send(ctx context.Context, senderID, receiverID, content string, sentAt time.Time) (*models.Message, error) {
	from, err := objectID(senderID, "sender")
	if err != nil {
		return nil, err
	}
	to, err := objectID(receiverID, "receiver")
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, validation("Message cannot be empty")
	}
	if sentAt.IsZero() {
		sentAt = s.now()
	}
	m := &models.Message{
		Conversation: models.NewConversationID(from.Hex(), to.Hex()),
		Sender:       from,
		Receiver:     to,
		Content:      content,
		CreatedAt:    sentAt,
	}
	if err := s.store.Messages.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// History returns the conversation between two users, oldest first.
func (s *MessageService) History(ctx context.Context, userID, otherID string) ([]models.Message, error) {
	a, err := objectID(userID, "user")
	if err != nil {
		return nil, err
	}
	b, err := objectID(otherID, "user")
	if err != nil {
		return nil, err
	}
	return s.store.Messages.ListConversation(ctx, models.NewConversationID(a.Hex(), b.Hex()))
}
