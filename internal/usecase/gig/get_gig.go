package gig

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

const (
	defaultLimit = 15
	maxLimit     = 100
	newGigWindow = 24 * time.Hour
)

type GetGigUseCase struct {
	gigRepo repository.GigRepository
}

func NewGetGigUseCase(gigRepo repository.GigRepository) *GetGigUseCase {
	return &GetGigUseCase{gigRepo: gigRepo}
}

// Execute: работодатель видит только свои смены, исполнитель только открытые.
func (uc *GetGigUseCase) Execute(ctx context.Context, gigID, viewerID uuid.UUID, role valueobject.Role) (*repository.GigView, error) {
	view, err := uc.gigRepo.FindView(ctx, gigID, viewerID)
	if err != nil {
		return nil, err
	}

	switch role {
	case valueobject.RoleEmployer:
		if !view.Gig.IsOwnedBy(viewerID) {
			return nil, apperror.ErrForbidden
		}
	case valueobject.RoleFreelancer:
		if view.Gig.Status != valueobject.GigStatusOpen {
			return nil, apperror.New(apperror.ErrCodeNotFound, "смена больше недоступна")
		}
	}
	return view, nil
}

type ListGigsInput struct {
	ViewerID  uuid.UUID
	Role      valueobject.Role
	Status    string
	Location  string
	SkillID   *uuid.UUID
	MinPay    *float64
	MaxPay    *float64
	TimeSlot  string
	Latitude  *float64
	Longitude *float64
	RadiusKm  *float64
	NewOnly   bool
	Limit     int
	Offset    int
}

type ListGigsUseCase struct {
	gigRepo repository.GigRepository
}

func NewListGigsUseCase(gigRepo repository.GigRepository) *ListGigsUseCase {
	return &ListGigsUseCase{gigRepo: gigRepo}
}

func (uc *ListGigsUseCase) Execute(ctx context.Context, input ListGigsInput) ([]*repository.GigView, int, error) {
	filter, err := buildFilter(input, time.Now())
	if err != nil {
		return nil, 0, err
	}
	return uc.gigRepo.List(ctx, filter)
}

func buildFilter(input ListGigsInput, now time.Time) (repository.GigFilter, error) {
	filter := repository.GigFilter{
		ViewerID: input.ViewerID,
		Limit:    input.Limit,
		Offset:   input.Offset,
	}
	if filter.Limit <= 0 || filter.Limit > maxLimit {
		filter.Limit = defaultLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var errs apperror.FieldErrors

	if input.Role == valueobject.RoleEmployer {
		employerID := input.ViewerID
		filter.EmployerID = &employerID
		if input.Status != "" && input.Status != "all" {
			status, err := valueobject.NewGigStatus(input.Status)
			if err != nil {
				errs.Add("status", "некорректный статус смены")
			} else {
				filter.Status = &status
			}
		}
		return filter, errs.Err()
	}

	open := valueobject.GigStatusOpen
	filter.Status = &open
	filter.Location = input.Location
	filter.SkillID = input.SkillID
	filter.MinPay = input.MinPay
	filter.MaxPay = input.MaxPay
	if input.MinPay != nil && input.MaxPay != nil && *input.MinPay > *input.MaxPay {
		errs.Add("max_pay", "максимальная оплата меньше минимальной")
	}

	if input.TimeSlot != "" {
		slot := valueobject.TimeSlot(input.TimeSlot)
		if !slot.IsValid() {
			errs.Add("time_slot", "допустимые значения: morning, afternoon, evening")
		} else {
			filter.TimeSlot = &slot
		}
	}

	coords, err := valueobject.NewCoordinates(input.Latitude, input.Longitude)
	if err != nil {
		collectFields(&errs, err)
	} else if coords != nil {
		filter.Near = coords
		filter.RadiusKm = valueobject.DefaultRadiusKm
		if input.RadiusKm != nil {
			if *input.RadiusKm <= 0 {
				errs.Add("radius", "радиус должен быть больше нуля")
			} else {
				filter.RadiusKm = *input.RadiusKm
			}
		}
	}

	if input.NewOnly {
		since := now.Add(-newGigWindow)
		filter.CreatedAfter = &since
	}

	return filter, errs.Err()
}
