package ledger

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

// WarningSummary проецирует последствия следующего взыскания; сам ничего не применяет.
type WarningSummary struct {
	CurrentWarnings int                      `json:"current_warnings"`
	MaxWarnings     int                      `json:"max_warnings"`
	NextPenalty     valueobject.WarningLevel `json:"next_penalty"`
}

func summarize(count, max int) WarningSummary {
	return WarningSummary{
		CurrentWarnings: count,
		MaxWarnings:     max,
		NextPenalty:     valueobject.ProjectWarning(count, max),
	}
}

type IssuePenaltyInput struct {
	IssuerID    uuid.UUID
	IssuerRole  valueobject.Role
	UserID      uuid.UUID
	GigID       *uuid.UUID
	Reason      string
	Description *string
}

type IssuePenaltyUseCase struct {
	penaltyRepo repository.PenaltyRepository
	gigRepo     repository.GigRepository
	appRepo     repository.ApplicationRepository
	userRepo    repository.UserRepository
	maxWarnings int
}

func NewIssuePenaltyUseCase(
	penaltyRepo repository.PenaltyRepository,
	gigRepo repository.GigRepository,
	appRepo repository.ApplicationRepository,
	userRepo repository.UserRepository,
	maxWarnings int,
) *IssuePenaltyUseCase {
	return &IssuePenaltyUseCase{
		penaltyRepo: penaltyRepo,
		gigRepo:     gigRepo,
		appRepo:     appRepo,
		userRepo:    userRepo,
		maxWarnings: maxWarnings,
	}
}

// Execute: администратор может оштрафовать любого, работодатель только участника своей смены.
func (uc *IssuePenaltyUseCase) Execute(ctx context.Context, input IssuePenaltyInput) (*entity.Penalty, WarningSummary, error) {
	if _, err := uc.userRepo.FindByID(ctx, input.UserID); err != nil {
		return nil, WarningSummary{}, err
	}

	switch input.IssuerRole {
	case valueobject.RoleAdmin:
		if input.GigID != nil {
			if _, err := uc.gigRepo.FindByID(ctx, *input.GigID); err != nil {
				return nil, WarningSummary{}, err
			}
		}
	case valueobject.RoleEmployer:
		if err := uc.checkEmployer(ctx, input); err != nil {
			return nil, WarningSummary{}, err
		}
	default:
		return nil, WarningSummary{}, apperror.ErrForbidden
	}

	penalty, err := entity.NewPenalty(input.UserID, input.GigID, input.IssuerID, input.Reason, input.Description, time.Now())
	if err != nil {
		return nil, WarningSummary{}, err
	}
	if err := uc.penaltyRepo.Create(ctx, penalty); err != nil {
		return nil, WarningSummary{}, err
	}

	count, err := uc.penaltyRepo.CountByUser(ctx, input.UserID)
	if err != nil {
		return nil, WarningSummary{}, err
	}
	summary := summarize(count, uc.maxWarnings)

	logger.WithComponent("ledger").WithFields(logrus.Fields{
		"penalty_id":   penalty.ID,
		"user_id":      penalty.UserID,
		"warnings":     count,
		"next_penalty": summary.NextPenalty,
	}).Info("выдано взыскание")
	return penalty, summary, nil
}

func (uc *IssuePenaltyUseCase) checkEmployer(ctx context.Context, input IssuePenaltyInput) error {
	if input.GigID == nil {
		return apperror.Validation(apperror.FieldError{Field: "gig_id", Message: "работодатель указывает смену"})
	}
	gig, err := uc.gigRepo.FindByID(ctx, *input.GigID)
	if err != nil {
		return err
	}
	if !gig.IsOwnedBy(input.IssuerID) {
		return apperror.ErrForbidden
	}
	apps, err := uc.appRepo.ListByGig(ctx, gig.ID, nil)
	if err != nil {
		return err
	}
	for _, v := range apps {
		if v.Application.UserID == input.UserID {
			return nil
		}
	}
	return apperror.Validation(apperror.FieldError{Field: "user_id", Message: "исполнитель не откликался на эту смену"})
}

type MyPenalties struct {
	Items   []*repository.PenaltyView
	Summary WarningSummary
}

type ListMyPenaltiesUseCase struct {
	penaltyRepo repository.PenaltyRepository
	maxWarnings int
}

func NewListMyPenaltiesUseCase(penaltyRepo repository.PenaltyRepository, maxWarnings int) *ListMyPenaltiesUseCase {
	return &ListMyPenaltiesUseCase{penaltyRepo: penaltyRepo, maxWarnings: maxWarnings}
}

func (uc *ListMyPenaltiesUseCase) Execute(ctx context.Context, userID uuid.UUID) (*MyPenalties, error) {
	items, err := uc.penaltyRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	count, err := uc.penaltyRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &MyPenalties{Items: items, Summary: summarize(count, uc.maxWarnings)}, nil
}

type GetMyPenaltyUseCase struct {
	penaltyRepo repository.PenaltyRepository
	maxWarnings int
}

func NewGetMyPenaltyUseCase(penaltyRepo repository.PenaltyRepository, maxWarnings int) *GetMyPenaltyUseCase {
	return &GetMyPenaltyUseCase{penaltyRepo: penaltyRepo, maxWarnings: maxWarnings}
}

func (uc *GetMyPenaltyUseCase) Execute(ctx context.Context, penaltyID, userID uuid.UUID) (*repository.PenaltyView, WarningSummary, error) {
	view, err := uc.penaltyRepo.FindByID(ctx, penaltyID)
	if err != nil {
		return nil, WarningSummary{}, err
	}
	if !view.Penalty.IsOwnedBy(userID) {
		return nil, WarningSummary{}, apperror.ErrForbidden
	}
	count, err := uc.penaltyRepo.CountByUser(ctx, userID)
	if err != nil {
		return nil, WarningSummary{}, err
	}
	return view, summarize(count, uc.maxWarnings), nil
}

type AppealPenaltyUseCase struct {
	penaltyRepo repository.PenaltyRepository
}

func NewAppealPenaltyUseCase(penaltyRepo repository.PenaltyRepository) *AppealPenaltyUseCase {
	return &AppealPenaltyUseCase{penaltyRepo: penaltyRepo}
}

// Execute принимает одну апелляцию на взыскание; повтор возвращает ALREADY_APPEALED.
func (uc *AppealPenaltyUseCase) Execute(ctx context.Context, penaltyID, userID uuid.UUID, message *string) (*repository.PenaltyView, error) {
	view, err := uc.penaltyRepo.FindByID(ctx, penaltyID)
	if err != nil {
		return nil, err
	}
	if !view.Penalty.IsOwnedBy(userID) {
		return nil, apperror.ErrForbidden
	}
	if view.Appeal != nil {
		return nil, apperror.ErrAlreadyAppealed
	}

	appeal, err := entity.NewPenaltyAppeal(view.Penalty, userID, message, time.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.penaltyRepo.CreateAppeal(ctx, appeal); err != nil {
		return nil, err
	}

	logger.WithComponent("ledger").WithField("penalty_id", penaltyID).Info("подана апелляция")
	view.Appeal = appeal
	return view, nil
}
