package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
)

type ConversationRepository interface {
	// GetOrCreate возвращает существующую беседу с тем же ключом или создаёт conv вместе с участниками.
	GetOrCreate(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, bool, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error)
	ListForUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*ConversationSummary, error)
	MarkRead(ctx context.Context, conversationID, userID uuid.UUID, at time.Time) error
	UnreadCount(ctx context.Context, conversationID, userID uuid.UUID) (int, error)
}

type ConversationSummary struct {
	Conversation *entity.Conversation
	OtherUser    *entity.User
	GigTitle     *string
	LastMessage  *entity.Message
	UnreadCount  int
}

type MessageRepository interface {
	// Create сохраняет сообщение и сдвигает last_message_at беседы.
	Create(ctx context.Context, msg *entity.Message) error
	Update(ctx context.Context, msg *entity.Message) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Message, error)
	ListByConversation(ctx context.Context, conversationID uuid.UUID, beforeID *uuid.UUID, limit int) ([]*entity.Message, error)
}
