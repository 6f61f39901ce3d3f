package application

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

type UpdateStatusInput struct {
	GigID           uuid.UUID
	ApplicationID   uuid.UUID
	EmployerID      uuid.UUID
	Status          valueobject.ApplicationStatus
	RejectionReason *string
}

type UpdateStatusResult struct {
	Application *entity.GigApplication
	Gig         *entity.Gig
	SpotsLeft   int
}

type UpdateApplicationStatusUseCase struct {
	gigRepo   repository.GigRepository
	publisher event.Publisher
}

func NewUpdateApplicationStatusUseCase(gigRepo repository.GigRepository, publisher event.Publisher) *UpdateApplicationStatusUseCase {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &UpdateApplicationStatusUseCase{gigRepo: gigRepo, publisher: publisher}
}

// Execute меняет статус отклика и статус смены одной транзакцией под блокировкой строки смены.
func (uc *UpdateApplicationStatusUseCase) Execute(ctx context.Context, input UpdateStatusInput) (*UpdateStatusResult, error) {
	switch input.Status {
	case valueobject.ApplicationStatusAccepted, valueobject.ApplicationStatusRejected, valueobject.ApplicationStatusCancelled:
	default:
		return nil, apperror.Validation(apperror.FieldError{Field: "status", Message: "допустимые значения: accepted, rejected, cancelled"})
	}

	var result UpdateStatusResult
	err := uc.gigRepo.WithGigLock(ctx, input.GigID, func(tx repository.GigTx) error {
		gig := tx.Gig()
		if !gig.IsOwnedBy(input.EmployerID) {
			return apperror.ErrForbidden
		}

		app, err := tx.FindApplication(ctx, input.ApplicationID)
		if err != nil {
			return err
		}
		if !app.BelongsTo(gig.ID) {
			return apperror.New(apperror.ErrCodeNotFound, "отклик не относится к этой смене")
		}

		accepted, err := tx.CountAccepted(ctx)
		if err != nil {
			return err
		}

		now := time.Now()
		from := app.Status
		switch input.Status {
		case valueobject.ApplicationStatusAccepted:
			if !from.CanTransitionTo(valueobject.ApplicationStatusAccepted) {
				return apperror.InvalidTransition("принять можно только отклик на рассмотрении")
			}
			if !gig.Status.IsActive() {
				return apperror.ErrGigNotOpen
			}
			if gig.SpotsLeft(accepted) <= 0 {
				return apperror.ErrCapacityExceeded
			}
			if err := app.Accept(now); err != nil {
				return err
			}
			accepted++
		case valueobject.ApplicationStatusRejected:
			if err := app.Reject(input.RejectionReason, now); err != nil {
				return err
			}
			if from == valueobject.ApplicationStatusAccepted {
				accepted--
			}
		case valueobject.ApplicationStatusCancelled:
			if err := app.Cancel(now); err != nil {
				return err
			}
			if from == valueobject.ApplicationStatusAccepted {
				accepted--
			}
		}

		if err := tx.SaveApplication(ctx, app, from); err != nil {
			return err
		}
		if gig.Status.IsActive() && gig.SyncCapacity(accepted, now) {
			if err := tx.SaveGig(ctx); err != nil {
				return err
			}
		}

		result = UpdateStatusResult{Application: app, Gig: gig, SpotsLeft: gig.SpotsLeft(accepted)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithComponent("application").WithFields(logrus.Fields{
		"application_id": result.Application.ID,
		"gig_id":         result.Gig.ID,
		"status":         result.Application.Status,
		"gig_status":     result.Gig.Status,
		"spots_left":     result.SpotsLeft,
	}).Info("статус отклика изменён")

	uc.publisher.ApplicationStatusChanged(ctx, event.ApplicationStatusChanged{
		ApplicationID: result.Application.ID,
		GigID:         result.Gig.ID,
		GigTitle:      result.Gig.Title,
		FreelancerID:  result.Application.UserID,
		Status:        result.Application.Status,
		GigStatus:     result.Gig.Status,
		Reason:        result.Application.RejectionReason,
	})

	return &result, nil
}
