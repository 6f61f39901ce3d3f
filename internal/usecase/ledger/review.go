package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

type RecordReviewInput struct {
	GigID         uuid.UUID
	ApplicationID uuid.UUID
	EmployerID    uuid.UUID
	Rating        int
	Review        *string
	Earnings      float64
}

type RecordReviewUseCase struct {
	gigRepo    repository.GigRepository
	appRepo    repository.ApplicationRepository
	reviewRepo repository.ReviewRepository
}

func NewRecordReviewUseCase(gigRepo repository.GigRepository, appRepo repository.ApplicationRepository, reviewRepo repository.ReviewRepository) *RecordReviewUseCase {
	return &RecordReviewUseCase{gigRepo: gigRepo, appRepo: appRepo, reviewRepo: reviewRepo}
}

// Execute пишет отзыв один раз на отклик; повтор возвращает DUPLICATE_REVIEW.
func (uc *RecordReviewUseCase) Execute(ctx context.Context, input RecordReviewInput) (*entity.GigReview, error) {
	gig, err := uc.gigRepo.FindByID(ctx, input.GigID)
	if err != nil {
		return nil, err
	}
	if !gig.IsOwnedBy(input.EmployerID) {
		return nil, apperror.ErrForbidden
	}

	app, err := uc.appRepo.FindByID(ctx, input.ApplicationID)
	if err != nil {
		return nil, err
	}
	if !app.BelongsTo(gig.ID) {
		return nil, apperror.New(apperror.ErrCodeNotFound, "отклик не относится к этой смене")
	}

	review, err := entity.NewGigReview(app, input.EmployerID, input.Rating, input.Review, input.Earnings, time.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}

	logger.WithComponent("ledger").WithFields(logrus.Fields{
		"application_id": app.ID,
		"rating":         review.Rating,
		"earnings":       review.Earnings,
	}).Info("отзыв записан")
	return review, nil
}
