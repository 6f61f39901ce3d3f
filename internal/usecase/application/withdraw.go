package application

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

type WithdrawUseCase struct {
	appRepo repository.ApplicationRepository
}

func NewWithdrawUseCase(appRepo repository.ApplicationRepository) *WithdrawUseCase {
	return &WithdrawUseCase{appRepo: appRepo}
}

// Execute не трогает смену: отклик на рассмотрении место не занимал.
func (uc *WithdrawUseCase) Execute(ctx context.Context, applicationID, freelancerID uuid.UUID) (*entity.GigApplication, error) {
	app, err := uc.appRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !app.IsOwnedBy(freelancerID) {
		return nil, apperror.ErrForbidden
	}

	from := app.Status
	if err := app.Withdraw(time.Now()); err != nil {
		return nil, err
	}
	if err := uc.appRepo.UpdateStatus(ctx, app, from); err != nil {
		return nil, err
	}

	logger.WithComponent("application").WithField("application_id", app.ID).Info("отклик отозван")
	return app, nil
}
