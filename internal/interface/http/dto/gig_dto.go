package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/gig"
)

// CreateGigRequest: обязательность полей проверяет домен, чтобы вернуть все ошибки разом.
type CreateGigRequest struct {
	Title              string      `json:"title"`
	PrimarySkillID     uuid.UUID   `json:"primary_skill_id"`
	SupportingSkillIDs []uuid.UUID `json:"supporting_skill_ids"`
	Location           string      `json:"location"`
	Latitude           *float64    `json:"latitude"`
	Longitude          *float64    `json:"longitude"`
	StartAt            time.Time   `json:"start_at"`
	EndAt              time.Time   `json:"end_at"`
	Pay                float64     `json:"pay"`
	AppSavingPercent   int         `json:"app_saving_percent"`
	WorkersNeeded      int         `json:"workers_needed"`
	Description        string      `json:"description"`
	AutoCloseEnabled   bool        `json:"auto_close_enabled"`
	AutoCloseAt        *time.Time  `json:"auto_close_at"`
	Requirements       []string    `json:"requirements"`
}

func (r CreateGigRequest) ToDetails() entity.GigDetails {
	return entity.GigDetails{
		Title:              r.Title,
		PrimarySkillID:     r.PrimarySkillID,
		SupportingSkillIDs: r.SupportingSkillIDs,
		Location:           r.Location,
		Latitude:           r.Latitude,
		Longitude:          r.Longitude,
		StartAt:            r.StartAt,
		EndAt:              r.EndAt,
		Pay:                r.Pay,
		AppSavingPercent:   r.AppSavingPercent,
		WorkersNeeded:      r.WorkersNeeded,
		Description:        r.Description,
		AutoCloseEnabled:   r.AutoCloseEnabled,
		AutoCloseAt:        r.AutoCloseAt,
		Requirements:       r.Requirements,
	}
}

type UpdateGigRequest struct {
	Title              *string      `json:"title"`
	PrimarySkillID     *uuid.UUID   `json:"primary_skill_id"`
	SupportingSkillIDs *[]uuid.UUID `json:"supporting_skill_ids"`
	Location           *string      `json:"location"`
	Latitude           *float64     `json:"latitude"`
	Longitude          *float64     `json:"longitude"`
	StartAt            *time.Time   `json:"start_at"`
	EndAt              *time.Time   `json:"end_at"`
	Pay                *float64     `json:"pay"`
	AppSavingPercent   *int         `json:"app_saving_percent"`
	WorkersNeeded      *int         `json:"workers_needed"`
	Description        *string      `json:"description"`
	AutoCloseEnabled   *bool        `json:"auto_close_enabled"`
	AutoCloseAt        *time.Time   `json:"auto_close_at"`
	Requirements       *[]string    `json:"requirements"`
}

func (r UpdateGigRequest) ToPatch() gig.GigPatch {
	return gig.GigPatch{
		Title:              r.Title,
		PrimarySkillID:     r.PrimarySkillID,
		SupportingSkillIDs: r.SupportingSkillIDs,
		Location:           r.Location,
		Latitude:           r.Latitude,
		Longitude:          r.Longitude,
		StartAt:            r.StartAt,
		EndAt:              r.EndAt,
		Pay:                r.Pay,
		AppSavingPercent:   r.AppSavingPercent,
		WorkersNeeded:      r.WorkersNeeded,
		Description:        r.Description,
		AutoCloseEnabled:   r.AutoCloseEnabled,
		AutoCloseAt:        r.AutoCloseAt,
		Requirements:       r.Requirements,
	}
}

type UpdateWorkersRequest struct {
	WorkersNeeded int `json:"workers_needed" binding:"required"`
}

type GigResponse struct {
	ID                 uuid.UUID             `json:"id"`
	EmployerID         uuid.UUID             `json:"employer_id"`
	Title              string                `json:"title"`
	PrimarySkillID     uuid.UUID             `json:"primary_skill_id"`
	SupportingSkillIDs []uuid.UUID           `json:"supporting_skill_ids"`
	Location           string                `json:"location"`
	Latitude           *float64              `json:"latitude,omitempty"`
	Longitude          *float64              `json:"longitude,omitempty"`
	StartAt            time.Time             `json:"start_at"`
	EndAt              time.Time             `json:"end_at"`
	DurationHours      float64               `json:"duration_hours"`
	Pay                float64               `json:"pay"`
	AppSavingPercent   int                   `json:"app_saving_percent"`
	AppSavingAmount    float64               `json:"app_saving_amount"`
	FreelancerPay      float64               `json:"freelancer_pay"`
	RatePerHour        float64               `json:"rate_per_hour"`
	WorkersNeeded      int                   `json:"workers_needed"`
	SpotsLeft          int                   `json:"spots_left"`
	ApplicantsCount    int                   `json:"applicants_count"`
	AcceptedCount      int                   `json:"accepted_count"`
	Description        string                `json:"description"`
	AutoCloseEnabled   bool                  `json:"auto_close_enabled"`
	AutoCloseAt        *time.Time            `json:"auto_close_at,omitempty"`
	Requirements       []string              `json:"requirements"`
	Status             valueobject.GigStatus `json:"status"`
	DistanceKm         *float64              `json:"distance_km,omitempty"`
	IsBookmarked       *bool                 `json:"is_bookmarked,omitempty"`
	HasApplied         *bool                 `json:"has_applied,omitempty"`
	CreatedAt          time.Time             `json:"created_at"`
	UpdatedAt          time.Time             `json:"updated_at"`
}

// ToGigResponse собирает карточку смены; флаги закладки и отклика видны только исполнителю.
func ToGigResponse(v *repository.GigView, role valueobject.Role) GigResponse {
	g := v.Gig
	resp := GigResponse{
		ID:                 g.ID,
		EmployerID:         g.EmployerID,
		Title:              g.Title,
		PrimarySkillID:     g.PrimarySkillID,
		SupportingSkillIDs: g.SupportingSkillIDs,
		Location:           g.Location,
		StartAt:            g.StartAt,
		EndAt:              g.EndAt,
		DurationHours:      g.DurationHours(),
		Pay:                g.Pay.Amount,
		AppSavingPercent:   g.Pay.SavingPercent,
		AppSavingAmount:    g.Pay.SavingAmount(),
		FreelancerPay:      g.Pay.FreelancerPay(),
		RatePerHour:        g.RatePerHour(),
		WorkersNeeded:      g.WorkersNeeded,
		SpotsLeft:          g.SpotsLeft(v.AcceptedCount),
		ApplicantsCount:    v.ApplicantsCount,
		AcceptedCount:      v.AcceptedCount,
		Description:        g.Description,
		AutoCloseEnabled:   g.AutoCloseEnabled,
		AutoCloseAt:        g.AutoCloseAt,
		Requirements:       g.Requirements,
		Status:             g.Status,
		CreatedAt:          g.CreatedAt,
		UpdatedAt:          g.UpdatedAt,
	}
	if resp.SupportingSkillIDs == nil {
		resp.SupportingSkillIDs = []uuid.UUID{}
	}
	if resp.Requirements == nil {
		resp.Requirements = []string{}
	}
	if g.Coordinates != nil {
		lat, lng := g.Coordinates.Latitude, g.Coordinates.Longitude
		resp.Latitude, resp.Longitude = &lat, &lng
	}
	if v.DistanceKm != nil {
		d := valueobject.Round2(*v.DistanceKm)
		resp.DistanceKm = &d
	}
	if role == valueobject.RoleFreelancer {
		bookmarked, applied := v.IsBookmarked, v.HasApplied
		resp.IsBookmarked, resp.HasApplied = &bookmarked, &applied
	}
	return resp
}

func ToGigResponses(views []*repository.GigView, role valueobject.Role) []GigResponse {
	result := make([]GigResponse, len(views))
	for i, v := range views {
		result[i] = ToGigResponse(v, role)
	}
	return result
}

// GigSummary: краткая карточка смены внутри отклика.
type GigSummary struct {
	ID         uuid.UUID             `json:"id"`
	EmployerID uuid.UUID             `json:"employer_id"`
	Title      string                `json:"title"`
	Location   string                `json:"location"`
	StartAt    time.Time             `json:"start_at"`
	EndAt      time.Time             `json:"end_at"`
	Pay        float64               `json:"pay"`
	Status     valueobject.GigStatus `json:"status"`
	IsDeleted  bool                  `json:"is_deleted"`
}

func ToGigSummary(g *entity.Gig) *GigSummary {
	if g == nil {
		return nil
	}
	return &GigSummary{
		ID:         g.ID,
		EmployerID: g.EmployerID,
		Title:      g.Title,
		Location:   g.Location,
		StartAt:    g.StartAt,
		EndAt:      g.EndAt,
		Pay:        g.Pay.Amount,
		Status:     g.Status,
		IsDeleted:  g.IsDeleted(),
	}
}

type BookmarkToggleResponse struct {
	GigID      uuid.UUID `json:"gig_id"`
	Bookmarked bool      `json:"bookmarked"`
}

type BookmarkResponse struct {
	ID        uuid.UUID   `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Gig       GigResponse `json:"gig"`
}

func ToBookmarkResponses(items []*repository.BookmarkView) []BookmarkResponse {
	result := make([]BookmarkResponse, len(items))
	for i, item := range items {
		result[i] = BookmarkResponse{
			ID:        item.Bookmark.ID,
			CreatedAt: item.Bookmark.CreatedAt,
			Gig:       ToGigResponse(item.Gig, valueobject.RoleFreelancer),
		}
	}
	return result
}
