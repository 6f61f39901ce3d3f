package conversation

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/event"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

const (
	DefaultEditWindow = 15 * time.Minute

	defaultMessagesLimit = 30
	maxMessagesLimit     = 100
)

// loadForParticipant возвращает беседу, если пользователь в ней участвует.
func loadForParticipant(ctx context.Context, convRepo repository.ConversationRepository, conversationID, userID uuid.UUID) (*entity.Conversation, error) {
	conv, err := convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if !conv.IsParticipant(userID) {
		return nil, apperror.ErrForbidden
	}
	return conv, nil
}

func loadMessage(ctx context.Context, msgRepo repository.MessageRepository, conv *entity.Conversation, messageID uuid.UUID) (*entity.Message, error) {
	msg, err := msgRepo.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg.ConversationID != conv.ID {
		return nil, apperror.ErrMessageNotFound
	}
	return msg, nil
}

type StartConversationInput struct {
	UserID      uuid.UUID
	OtherUserID uuid.UUID
	GigID       *uuid.UUID
}

type StartConversationUseCase struct {
	convRepo repository.ConversationRepository
	userRepo repository.UserRepository
	gigRepo  repository.GigRepository
}

func NewStartConversationUseCase(convRepo repository.ConversationRepository, userRepo repository.UserRepository, gigRepo repository.GigRepository) *StartConversationUseCase {
	return &StartConversationUseCase{convRepo: convRepo, userRepo: userRepo, gigRepo: gigRepo}
}

// Execute возвращает существующую беседу с тем же ключом или создаёт новую; created сообщает, что беседа новая.
func (uc *StartConversationUseCase) Execute(ctx context.Context, input StartConversationInput) (conv *entity.Conversation, created bool, err error) {
	if input.UserID == input.OtherUserID {
		return nil, false, apperror.Validation(apperror.FieldError{Field: "other_user_id", Message: "нельзя создать беседу с самим собой"})
	}

	user, err := uc.userRepo.FindByID(ctx, input.UserID)
	if err != nil {
		return nil, false, err
	}
	other, err := uc.userRepo.FindByID(ctx, input.OtherUserID)
	if err != nil {
		return nil, false, err
	}

	var employerID, freelancerID uuid.UUID
	switch {
	case user.Role == valueobject.RoleEmployer && other.Role == valueobject.RoleFreelancer:
		employerID, freelancerID = user.ID, other.ID
	case user.Role == valueobject.RoleFreelancer && other.Role == valueobject.RoleEmployer:
		employerID, freelancerID = other.ID, user.ID
	default:
		return nil, false, apperror.Validation(apperror.FieldError{Field: "other_user_id", Message: "беседа возможна только между работодателем и исполнителем"})
	}

	if input.GigID != nil {
		if _, err := uc.gigRepo.FindByID(ctx, *input.GigID); err != nil {
			return nil, false, err
		}
	}

	candidate, err := entity.NewConversation(input.GigID, employerID, freelancerID, time.Now())
	if err != nil {
		return nil, false, err
	}
	return uc.convRepo.GetOrCreate(ctx, candidate)
}

type ListConversationsUseCase struct {
	convRepo repository.ConversationRepository
}

func NewListConversationsUseCase(convRepo repository.ConversationRepository) *ListConversationsUseCase {
	return &ListConversationsUseCase{convRepo: convRepo}
}

func (uc *ListConversationsUseCase) Execute(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]*repository.ConversationSummary, error) {
	return uc.convRepo.ListForUser(ctx, userID, unreadOnly)
}

// MessageView дополняет сообщение правами текущего пользователя.
type MessageView struct {
	Message   *entity.Message
	IsMine    bool
	CanEdit   bool
	CanDelete bool
}

func newMessageView(msg *entity.Message, userID uuid.UUID, now time.Time, window time.Duration) *MessageView {
	return &MessageView{
		Message:   msg,
		IsMine:    msg.IsOwnedBy(userID),
		CanEdit:   msg.CanEdit(userID, now, window),
		CanDelete: msg.CanDelete(userID),
	}
}

type ListMessagesInput struct {
	ConversationID uuid.UUID
	UserID         uuid.UUID
	BeforeID       *uuid.UUID
	Limit          int
}

type ListMessagesUseCase struct {
	convRepo   repository.ConversationRepository
	msgRepo    repository.MessageRepository
	editWindow time.Duration
}

func NewListMessagesUseCase(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository, editWindow time.Duration) *ListMessagesUseCase {
	return &ListMessagesUseCase{convRepo: convRepo, msgRepo: msgRepo, editWindow: editWindow}
}

// Execute отдаёт сообщения от новых к старым, включая удалённые (без текста).
func (uc *ListMessagesUseCase) Execute(ctx context.Context, input ListMessagesInput) ([]*MessageView, error) {
	conv, err := loadForParticipant(ctx, uc.convRepo, input.ConversationID, input.UserID)
	if err != nil {
		return nil, err
	}

	limit := input.Limit
	if limit <= 0 {
		limit = defaultMessagesLimit
	}
	if limit > maxMessagesLimit {
		limit = maxMessagesLimit
	}

	messages, err := uc.msgRepo.ListByConversation(ctx, conv.ID, input.BeforeID, limit)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	views := make([]*MessageView, 0, len(messages))
	for _, msg := range messages {
		views = append(views, newMessageView(msg, input.UserID, now, uc.editWindow))
	}
	return views, nil
}

type SendMessageUseCase struct {
	convRepo   repository.ConversationRepository
	msgRepo    repository.MessageRepository
	publisher  event.Publisher
	editWindow time.Duration
}

func NewSendMessageUseCase(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository, publisher event.Publisher, editWindow time.Duration) *SendMessageUseCase {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &SendMessageUseCase{convRepo: convRepo, msgRepo: msgRepo, publisher: publisher, editWindow: editWindow}
}

func (uc *SendMessageUseCase) Execute(ctx context.Context, conversationID, senderID uuid.UUID, body string) (*MessageView, error) {
	conv, err := loadForParticipant(ctx, uc.convRepo, conversationID, senderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	msg, err := entity.NewMessage(conv.ID, senderID, body, now)
	if err != nil {
		return nil, err
	}
	if err := uc.msgRepo.Create(ctx, msg); err != nil {
		return nil, err
	}

	uc.publisher.MessageCreated(ctx, event.MessageCreated{
		ConversationID: conv.ID,
		MessageID:      msg.ID,
		SenderID:       senderID,
		RecipientID:    conv.OtherParticipant(senderID),
		Body:           msg.Body,
		CreatedAt:      msg.CreatedAt,
	})
	return newMessageView(msg, senderID, now, uc.editWindow), nil
}

type EditMessageInput struct {
	ConversationID uuid.UUID
	MessageID      uuid.UUID
	UserID         uuid.UUID
	Body           string
}

type EditMessageUseCase struct {
	convRepo   repository.ConversationRepository
	msgRepo    repository.MessageRepository
	editWindow time.Duration
}

func NewEditMessageUseCase(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository, editWindow time.Duration) *EditMessageUseCase {
	return &EditMessageUseCase{convRepo: convRepo, msgRepo: msgRepo, editWindow: editWindow}
}

func (uc *EditMessageUseCase) Execute(ctx context.Context, input EditMessageInput) (*MessageView, error) {
	conv, err := loadForParticipant(ctx, uc.convRepo, input.ConversationID, input.UserID)
	if err != nil {
		return nil, err
	}
	msg, err := loadMessage(ctx, uc.msgRepo, conv, input.MessageID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if err := msg.Edit(input.UserID, input.Body, now, uc.editWindow); err != nil {
		return nil, err
	}
	if err := uc.msgRepo.Update(ctx, msg); err != nil {
		return nil, err
	}
	return newMessageView(msg, input.UserID, now, uc.editWindow), nil
}

type DeleteMessageUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
}

func NewDeleteMessageUseCase(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository) *DeleteMessageUseCase {
	return &DeleteMessageUseCase{convRepo: convRepo, msgRepo: msgRepo}
}

// Execute помечает сообщение удалённым; текст больше не отдаётся клиентам.
func (uc *DeleteMessageUseCase) Execute(ctx context.Context, conversationID, messageID, userID uuid.UUID) error {
	conv, err := loadForParticipant(ctx, uc.convRepo, conversationID, userID)
	if err != nil {
		return err
	}
	msg, err := loadMessage(ctx, uc.msgRepo, conv, messageID)
	if err != nil {
		return err
	}
	if err := msg.Delete(userID, time.Now()); err != nil {
		return err
	}
	if err := uc.msgRepo.Update(ctx, msg); err != nil {
		return err
	}

	logger.WithComponent("conversation").WithFields(logrus.Fields{
		"conversation_id": conv.ID,
		"message_id":      msg.ID,
	}).Debug("сообщение удалено")
	return nil
}

type MarkReadUseCase struct {
	convRepo repository.ConversationRepository
}

func NewMarkReadUseCase(convRepo repository.ConversationRepository) *MarkReadUseCase {
	return &MarkReadUseCase{convRepo: convRepo}
}

func (uc *MarkReadUseCase) Execute(ctx context.Context, conversationID, userID uuid.UUID) error {
	conv, err := loadForParticipant(ctx, uc.convRepo, conversationID, userID)
	if err != nil {
		return err
	}
	return uc.convRepo.MarkRead(ctx, conv.ID, userID, time.Now())
}

type UnreadCountUseCase struct {
	convRepo repository.ConversationRepository
}

func NewUnreadCountUseCase(convRepo repository.ConversationRepository) *UnreadCountUseCase {
	return &UnreadCountUseCase{convRepo: convRepo}
}

func (uc *UnreadCountUseCase) Execute(ctx context.Context, conversationID, userID uuid.UUID) (int, error) {
	conv, err := loadForParticipant(ctx, uc.convRepo, conversationID, userID)
	if err != nil {
		return 0, err
	}
	return uc.convRepo.UnreadCount(ctx, conv.ID, userID)
}
