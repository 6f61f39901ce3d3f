package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/application"
)

type ApplyRequest struct {
	RequirementConfirmations []bool `json:"requirement_confirmations"`
}

type UpdateApplicationStatusRequest struct {
	Status          string  `json:"status" binding:"required"`
	RejectionReason *string `json:"rejection_reason"`
}

type ApplicationResponse struct {
	ID                       uuid.UUID                     `json:"id"`
	GigID                    uuid.UUID                     `json:"gig_id"`
	UserID                   uuid.UUID                     `json:"user_id"`
	Status                   valueobject.ApplicationStatus `json:"status"`
	RequirementConfirmations []bool                        `json:"requirement_confirmations"`
	RejectionReason          *string                       `json:"rejection_reason,omitempty"`
	CreatedAt                time.Time                     `json:"created_at"`
	UpdatedAt                time.Time                     `json:"updated_at"`
	Gig                      *GigSummary                   `json:"gig,omitempty"`
	Applicant                *UserSummary                  `json:"applicant,omitempty"`
	Review                   *ReviewResponse               `json:"review,omitempty"`
}

func ToApplicationResponse(app *entity.GigApplication) ApplicationResponse {
	confirmations := app.RequirementConfirmations
	if confirmations == nil {
		confirmations = []bool{}
	}
	return ApplicationResponse{
		ID:                       app.ID,
		GigID:                    app.GigID,
		UserID:                   app.UserID,
		Status:                   app.Status,
		RequirementConfirmations: confirmations,
		RejectionReason:          app.RejectionReason,
		CreatedAt:                app.CreatedAt,
		UpdatedAt:                app.UpdatedAt,
	}
}

func ToApplicationViewResponse(v *repository.ApplicationView) ApplicationResponse {
	resp := ToApplicationResponse(v.Application)
	resp.Gig = ToGigSummary(v.Gig)
	resp.Applicant = ToUserSummary(v.Applicant)
	if v.Review != nil {
		review := ToReviewResponse(v.Review)
		resp.Review = &review
	}
	return resp
}

func ToApplicationViewResponses(views []*repository.ApplicationView) []ApplicationResponse {
	result := make([]ApplicationResponse, len(views))
	for i, v := range views {
		result[i] = ToApplicationViewResponse(v)
	}
	return result
}

type ApplicationStatusResponse struct {
	Application ApplicationResponse   `json:"application"`
	GigStatus   valueobject.GigStatus `json:"gig_status"`
	SpotsLeft   int                   `json:"spots_left"`
}

func ToApplicationStatusResponse(r *application.UpdateStatusResult) ApplicationStatusResponse {
	return ApplicationStatusResponse{
		Application: ToApplicationResponse(r.Application),
		GigStatus:   r.Gig.Status,
		SpotsLeft:   r.SpotsLeft,
	}
}

// ToStatusCounts отдаёт все пять статусов, даже нулевые.
func ToStatusCounts(counts map[valueobject.ApplicationStatus]int) map[string]int {
	result := make(map[string]int, len(valueobject.AllApplicationStatuses))
	for _, status := range valueobject.AllApplicationStatuses {
		result[string(status)] = counts[status]
	}
	return result
}

type CompletedSummaryResponse struct {
	CompletedCount int      `json:"completed_count"`
	TotalEarnings  float64  `json:"total_earnings"`
	AverageRating  *float64 `json:"average_rating"`
}

func ToCompletedSummaryResponse(s *repository.CompletedSummary) CompletedSummaryResponse {
	resp := CompletedSummaryResponse{
		CompletedCount: s.CompletedCount,
		TotalEarnings:  valueobject.Round2(s.TotalEarnings),
	}
	if s.AverageRating != nil {
		avg := valueobject.Round2(*s.AverageRating)
		resp.AverageRating = &avg
	}
	return resp
}
