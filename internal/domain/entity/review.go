package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

// GigReview оставляется работодателем один раз на завершённый отклик.
type GigReview struct {
	ID               uuid.UUID
	GigApplicationID uuid.UUID
	GigID            uuid.UUID
	EmployerID       uuid.UUID
	FreelancerID     uuid.UUID
	Rating           int
	Review           *string
	Earnings         float64
	CreatedAt        time.Time
}

func NewGigReview(app *GigApplication, employerID uuid.UUID, rating int, text *string, earnings float64, now time.Time) (*GigReview, error) {
	var errs apperror.FieldErrors
	if rating < 1 || rating > 5 {
		errs.Add("rating", "оценка должна быть от 1 до 5")
	}
	if earnings < 0 {
		errs.Add("earnings", "сумма не может быть отрицательной")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	if app.Status != valueobject.ApplicationStatusCompleted {
		return nil, apperror.InvalidTransition("отзыв можно оставить только по завершённому отклику")
	}
	return &GigReview{
		ID:               uuid.New(),
		GigApplicationID: app.ID,
		GigID:            app.GigID,
		EmployerID:       employerID,
		FreelancerID:     app.UserID,
		Rating:           rating,
		Review:           text,
		Earnings:         valueobject.Round2(earnings),
		CreatedAt:        now,
	}, nil
}
