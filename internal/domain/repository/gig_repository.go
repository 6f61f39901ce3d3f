package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
)

type GigRepository interface {
	Create(ctx context.Context, gig *entity.Gig) error
	// Update сохраняет поля, не влияющие на вместимость; статус и workers_needed не трогает.
	Update(ctx context.Context, gig *entity.Gig) error
	SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Gig, error)
	FindView(ctx context.Context, id, viewerID uuid.UUID) (*GigView, error)
	List(ctx context.Context, filter GigFilter) ([]*GigView, int, error)

	// WithGigLock выполняет fn в транзакции, удерживая эксклюзивную блокировку строки смены.
	WithGigLock(ctx context.Context, gigID uuid.UUID, fn func(tx GigTx) error) error

	CloseExpired(ctx context.Context, now time.Time) (int64, error)
	CompleteEnded(ctx context.Context, now time.Time) (SweepResult, error)
}

// GigTx доступен только внутри WithGigLock.
type GigTx interface {
	Gig() *entity.Gig
	CountAccepted(ctx context.Context) (int, error)
	HasApplication(ctx context.Context, userID uuid.UUID) (bool, error)
	FindApplication(ctx context.Context, id uuid.UUID) (*entity.GigApplication, error)
	CreateApplication(ctx context.Context, app *entity.GigApplication) error
	// SaveApplication обновляет статус, только если в хранилище он всё ещё равен from.
	SaveApplication(ctx context.Context, app *entity.GigApplication, from valueobject.ApplicationStatus) error
	// SaveGig сохраняет статус и workers_needed, SaveDetails остальные поля смены.
	SaveGig(ctx context.Context) error
	SaveDetails(ctx context.Context) error
}

type GigView struct {
	Gig             *entity.Gig
	ApplicantsCount int
	AcceptedCount   int
	DistanceKm      *float64
	IsBookmarked    bool
	HasApplied      bool
}

func (v *GigView) SpotsLeft() int {
	return v.Gig.SpotsLeft(v.AcceptedCount)
}

type GigFilter struct {
	ViewerID     uuid.UUID
	EmployerID   *uuid.UUID
	Status       *valueobject.GigStatus
	Location     string
	SkillID      *uuid.UUID
	MinPay       *float64
	MaxPay       *float64
	TimeSlot     *valueobject.TimeSlot
	Near         *valueobject.Coordinates
	RadiusKm     float64
	CreatedAfter *time.Time
	Limit        int
	Offset       int
}

type SweepResult struct {
	Gigs         int64
	Applications int64
}
