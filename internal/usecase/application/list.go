package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

func parseStatus(status string) (*valueobject.ApplicationStatus, error) {
	if status == "" || status == "all" {
		return nil, nil
	}
	s, err := valueobject.NewApplicationStatus(status)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

type ListForGigUseCase struct {
	gigRepo repository.GigRepository
	appRepo repository.ApplicationRepository
}

func NewListForGigUseCase(gigRepo repository.GigRepository, appRepo repository.ApplicationRepository) *ListForGigUseCase {
	return &ListForGigUseCase{gigRepo: gigRepo, appRepo: appRepo}
}

func (uc *ListForGigUseCase) Execute(ctx context.Context, gigID, employerID uuid.UUID, status string) ([]*repository.ApplicationView, error) {
	gig, err := uc.gigRepo.FindByID(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if !gig.IsOwnedBy(employerID) {
		return nil, apperror.ErrForbidden
	}
	s, err := parseStatus(status)
	if err != nil {
		return nil, err
	}
	return uc.appRepo.ListByGig(ctx, gigID, s)
}

type ListMineUseCase struct {
	appRepo repository.ApplicationRepository
}

func NewListMineUseCase(appRepo repository.ApplicationRepository) *ListMineUseCase {
	return &ListMineUseCase{appRepo: appRepo}
}

func (uc *ListMineUseCase) Execute(ctx context.Context, freelancerID uuid.UUID, status string) ([]*repository.ApplicationView, error) {
	s, err := parseStatus(status)
	if err != nil {
		return nil, err
	}
	return uc.appRepo.ListByUser(ctx, freelancerID, s)
}

type GetMineUseCase struct {
	appRepo repository.ApplicationRepository
}

func NewGetMineUseCase(appRepo repository.ApplicationRepository) *GetMineUseCase {
	return &GetMineUseCase{appRepo: appRepo}
}

func (uc *GetMineUseCase) Execute(ctx context.Context, applicationID, freelancerID uuid.UUID) (*repository.ApplicationView, error) {
	view, err := uc.appRepo.FindView(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if !view.Application.IsOwnedBy(freelancerID) {
		return nil, apperror.ErrForbidden
	}
	return view, nil
}

type CountMineUseCase struct {
	appRepo repository.ApplicationRepository
}

func NewCountMineUseCase(appRepo repository.ApplicationRepository) *CountMineUseCase {
	return &CountMineUseCase{appRepo: appRepo}
}

// Execute возвращает счётчики по всем статусам, включая нулевые.
func (uc *CountMineUseCase) Execute(ctx context.Context, freelancerID uuid.UUID) (map[valueobject.ApplicationStatus]int, error) {
	counts, err := uc.appRepo.CountByStatus(ctx, freelancerID)
	if err != nil {
		return nil, err
	}
	result := make(map[valueobject.ApplicationStatus]int, len(valueobject.AllApplicationStatuses))
	for _, s := range valueobject.AllApplicationStatuses {
		result[s] = counts[s]
	}
	return result, nil
}

type CompletedSummaryUseCase struct {
	appRepo repository.ApplicationRepository
}

func NewCompletedSummaryUseCase(appRepo repository.ApplicationRepository) *CompletedSummaryUseCase {
	return &CompletedSummaryUseCase{appRepo: appRepo}
}

func (uc *CompletedSummaryUseCase) Execute(ctx context.Context, freelancerID uuid.UUID) (*repository.CompletedSummary, error) {
	return uc.appRepo.CompletedSummary(ctx, freelancerID)
}
