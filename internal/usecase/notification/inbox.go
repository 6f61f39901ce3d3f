package notification

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

// View то, что видит клиент в списке и в push-событии.
type View struct {
	ID        uuid.UUID              `json:"id"`
	Type      string                 `json:"type"`
	Title     string                 `json:"title"`
	Body      string                 `json:"body"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"is_read"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func newView(n *entity.Notification) View {
	return View{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		Data:      n.Data,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

func NewViews(items []*entity.Notification) []View {
	views := make([]View, 0, len(items))
	for _, n := range items {
		views = append(views, newView(n))
	}
	return views
}

type ListInput struct {
	UserID     uuid.UUID
	UnreadOnly bool
	Limit      int
	Offset     int
}

type ListUseCase struct {
	notifRepo repository.NotificationRepository
}

func NewListUseCase(notifRepo repository.NotificationRepository) *ListUseCase {
	return &ListUseCase{notifRepo: notifRepo}
}

func (uc *ListUseCase) Execute(ctx context.Context, input ListInput) ([]*entity.Notification, error) {
	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}
	return uc.notifRepo.List(ctx, input.UserID, input.UnreadOnly, limit, offset)
}

type UnreadCountUseCase struct {
	notifRepo repository.NotificationRepository
}

func NewUnreadCountUseCase(notifRepo repository.NotificationRepository) *UnreadCountUseCase {
	return &UnreadCountUseCase{notifRepo: notifRepo}
}

func (uc *UnreadCountUseCase) Execute(ctx context.Context, userID uuid.UUID) (int, error) {
	return uc.notifRepo.CountUnread(ctx, userID)
}

type MarkReadUseCase struct {
	notifRepo repository.NotificationRepository
}

func NewMarkReadUseCase(notifRepo repository.NotificationRepository) *MarkReadUseCase {
	return &MarkReadUseCase{notifRepo: notifRepo}
}

// Execute: чужое уведомление выглядит как отсутствующее.
func (uc *MarkReadUseCase) Execute(ctx context.Context, id, userID uuid.UUID) (*entity.Notification, error) {
	n, err := uc.notifRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if n.UserID != userID {
		return nil, apperror.ErrNotificationNotFound
	}
	if n.IsRead {
		return n, nil
	}
	now := time.Now()
	if err := uc.notifRepo.MarkRead(ctx, n.ID, now); err != nil {
		return nil, err
	}
	n.MarkRead(now)
	return n, nil
}

type MarkAllReadUseCase struct {
	notifRepo repository.NotificationRepository
}

func NewMarkAllReadUseCase(notifRepo repository.NotificationRepository) *MarkAllReadUseCase {
	return &MarkAllReadUseCase{notifRepo: notifRepo}
}

func (uc *MarkAllReadUseCase) Execute(ctx context.Context, userID uuid.UUID) (int64, error) {
	return uc.notifRepo.MarkAllRead(ctx, userID, time.Now())
}
