package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
)

type ApplicationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.GigApplication, error)
	// UpdateStatus меняет статус условно: если текущий статус уже не from, возвращает INVALID_TRANSITION.
	UpdateStatus(ctx context.Context, app *entity.GigApplication, from valueobject.ApplicationStatus) error
	ListByGig(ctx context.Context, gigID uuid.UUID, status *valueobject.ApplicationStatus) ([]*ApplicationView, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status *valueobject.ApplicationStatus) ([]*ApplicationView, error)
	FindView(ctx context.Context, id uuid.UUID) (*ApplicationView, error)
	CountByStatus(ctx context.Context, userID uuid.UUID) (map[valueobject.ApplicationStatus]int, error)
	CompletedSummary(ctx context.Context, userID uuid.UUID) (*CompletedSummary, error)
}

// ApplicationView дополняет отклик сменой, исполнителем и отзывом.
type ApplicationView struct {
	Application *entity.GigApplication
	Gig         *entity.Gig
	Applicant   *entity.User
	Review      *entity.GigReview
}

type CompletedSummary struct {
	CompletedCount int
	TotalEarnings  float64
	AverageRating  *float64
}
