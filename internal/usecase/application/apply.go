package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

type ApplyInput struct {
	GigID                    uuid.UUID
	FreelancerID             uuid.UUID
	RequirementConfirmations []bool
}

type ApplyUseCase struct {
	gigRepo repository.GigRepository
}

func NewApplyUseCase(gigRepo repository.GigRepository) *ApplyUseCase {
	return &ApplyUseCase{gigRepo: gigRepo}
}

// Execute проверяет все условия по актуальному состоянию смены под блокировкой её строки.
func (uc *ApplyUseCase) Execute(ctx context.Context, input ApplyInput) (*entity.GigApplication, error) {
	var app *entity.GigApplication

	err := uc.gigRepo.WithGigLock(ctx, input.GigID, func(tx repository.GigTx) error {
		gig := tx.Gig()
		if gig.Status != valueobject.GigStatusOpen {
			return apperror.ErrGigNotOpen
		}
		if gig.IsOwnedBy(input.FreelancerID) {
			return apperror.ErrForbidden
		}

		exists, err := tx.HasApplication(ctx, input.FreelancerID)
		if err != nil {
			return err
		}
		if exists {
			return apperror.ErrDuplicateApplication
		}

		if err := gig.CheckConfirmations(input.RequirementConfirmations); err != nil {
			return err
		}

		accepted, err := tx.CountAccepted(ctx)
		if err != nil {
			return err
		}
		if gig.SpotsLeft(accepted) <= 0 {
			return apperror.ErrCapacityExceeded
		}

		var confirmations []bool
		if len(gig.Requirements) > 0 {
			confirmations = input.RequirementConfirmations
		}
		app = entity.NewGigApplication(gig.ID, input.FreelancerID, confirmations, time.Now())
		return tx.CreateApplication(ctx, app)
	})
	if err != nil {
		return nil, err
	}

	logger.WithComponent("application").WithFields(logrus.Fields{
		"application_id": app.ID,
		"gig_id":         app.GigID,
		"user_id":        app.UserID,
	}).Info("отклик создан")
	return app, nil
}
