package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
)

type ReviewRepository interface {
	// Create возвращает DUPLICATE_REVIEW, если отзыв по отклику уже есть.
	Create(ctx context.Context, review *entity.GigReview) error
	FindByApplication(ctx context.Context, applicationID uuid.UUID) (*entity.GigReview, error)
}

type PenaltyRepository interface {
	Create(ctx context.Context, penalty *entity.Penalty) error
	FindByID(ctx context.Context, id uuid.UUID) (*PenaltyView, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*PenaltyView, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	// CreateAppeal возвращает ALREADY_APPEALED, если апелляция уже подана.
	CreateAppeal(ctx context.Context, appeal *entity.PenaltyAppeal) error
}

type PenaltyView struct {
	Penalty    *entity.Penalty
	Appeal     *entity.PenaltyAppeal
	GigTitle   *string
	GigStartAt *time.Time
	Company    *string
}
