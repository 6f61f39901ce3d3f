package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/ledger"
)

type ReviewRequest struct {
	Rating   int     `json:"rating"`
	Review   *string `json:"review"`
	Earnings float64 `json:"earnings"`
}

type ReviewResponse struct {
	ID               uuid.UUID `json:"id"`
	GigApplicationID uuid.UUID `json:"gig_application_id"`
	GigID            uuid.UUID `json:"gig_id"`
	EmployerID       uuid.UUID `json:"employer_id"`
	FreelancerID     uuid.UUID `json:"freelancer_id"`
	Rating           int       `json:"rating"`
	Review           *string   `json:"review,omitempty"`
	Earnings         float64   `json:"earnings"`
	CreatedAt        time.Time `json:"created_at"`
}

func ToReviewResponse(r *entity.GigReview) ReviewResponse {
	return ReviewResponse{
		ID:               r.ID,
		GigApplicationID: r.GigApplicationID,
		GigID:            r.GigID,
		EmployerID:       r.EmployerID,
		FreelancerID:     r.FreelancerID,
		Rating:           r.Rating,
		Review:           r.Review,
		Earnings:         r.Earnings,
		CreatedAt:        r.CreatedAt,
	}
}

type IssuePenaltyRequest struct {
	UserID      uuid.UUID  `json:"user_id" binding:"required"`
	GigID       *uuid.UUID `json:"gig_id"`
	Reason      string     `json:"reason"`
	Description *string    `json:"description"`
}

type AppealRequest struct {
	Message *string `json:"message"`
}

type AppealResponse struct {
	ID        uuid.UUID                `json:"id"`
	Message   *string                  `json:"message,omitempty"`
	Status    valueobject.AppealStatus `json:"status"`
	CreatedAt time.Time                `json:"created_at"`
}

type PenaltyResponse struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	GigID       *uuid.UUID      `json:"gig_id,omitempty"`
	IssuedBy    uuid.UUID       `json:"issued_by"`
	Reason      string          `json:"reason"`
	Description *string         `json:"description,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	GigTitle    *string         `json:"gig_title,omitempty"`
	GigStartAt  *time.Time      `json:"gig_start_at,omitempty"`
	Company     *string         `json:"company,omitempty"`
	Appeal      *AppealResponse `json:"appeal,omitempty"`
}

func ToPenaltyResponse(p *entity.Penalty) PenaltyResponse {
	return PenaltyResponse{
		ID:          p.ID,
		UserID:      p.UserID,
		GigID:       p.GigID,
		IssuedBy:    p.IssuedBy,
		Reason:      p.Reason,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
	}
}

func ToPenaltyViewResponse(v *repository.PenaltyView) PenaltyResponse {
	resp := ToPenaltyResponse(v.Penalty)
	resp.GigTitle = v.GigTitle
	resp.GigStartAt = v.GigStartAt
	resp.Company = v.Company
	if v.Appeal != nil {
		resp.Appeal = &AppealResponse{
			ID:        v.Appeal.ID,
			Message:   v.Appeal.Message,
			Status:    v.Appeal.Status,
			CreatedAt: v.Appeal.CreatedAt,
		}
	}
	return resp
}

type WarningSummaryResponse struct {
	ledger.WarningSummary
	NextPenaltyMessage string `json:"next_penalty_message"`
}

func ToWarningSummaryResponse(s ledger.WarningSummary) WarningSummaryResponse {
	return WarningSummaryResponse{WarningSummary: s, NextPenaltyMessage: s.NextPenalty.Message()}
}

type IssuedPenaltyResponse struct {
	Penalty        PenaltyResponse        `json:"penalty"`
	WarningSummary WarningSummaryResponse `json:"warning_summary"`
}

type MyPenaltiesResponse struct {
	Penalties      []PenaltyResponse      `json:"penalties"`
	WarningSummary WarningSummaryResponse `json:"warning_summary"`
}

func ToMyPenaltiesResponse(m *ledger.MyPenalties) MyPenaltiesResponse {
	items := make([]PenaltyResponse, len(m.Items))
	for i, v := range m.Items {
		items[i] = ToPenaltyViewResponse(v)
	}
	return MyPenaltiesResponse{Penalties: items, WarningSummary: ToWarningSummaryResponse(m.Summary)}
}

type PenaltyDetailResponse struct {
	PenaltyResponse
	WarningSummary WarningSummaryResponse `json:"warning_summary"`
}
