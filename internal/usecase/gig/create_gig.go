package gig

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/event"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

type CreateGigInput struct {
	EmployerID uuid.UUID
	Details    entity.GigDetails
}

type CreateGigUseCase struct {
	gigRepo   repository.GigRepository
	skillRepo repository.SkillRepository
	publisher event.Publisher
}

func NewCreateGigUseCase(gigRepo repository.GigRepository, skillRepo repository.SkillRepository, publisher event.Publisher) *CreateGigUseCase {
	if publisher == nil {
		publisher = event.NopPublisher{}
	}
	return &CreateGigUseCase{gigRepo: gigRepo, skillRepo: skillRepo, publisher: publisher}
}

func (uc *CreateGigUseCase) Execute(ctx context.Context, input CreateGigInput) (*repository.GigView, error) {
	now := time.Now()

	var errs apperror.FieldErrors
	gig, err := entity.NewGig(input.EmployerID, input.Details, now)
	if err != nil && !collectFields(&errs, err) {
		return nil, err
	}
	if err := checkSkills(ctx, uc.skillRepo, input.Details, &errs); err != nil {
		return nil, err
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := uc.gigRepo.Create(ctx, gig); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось создать смену")
	}

	logger.WithComponent("gig").WithFields(logrus.Fields{
		"gig_id":         gig.ID,
		"employer_id":    gig.EmployerID,
		"workers_needed": gig.WorkersNeeded,
	}).Info("смена создана")

	uc.publisher.GigCreated(ctx, event.GigCreated{
		GigID:      gig.ID,
		EmployerID: gig.EmployerID,
		Title:      gig.Title,
		Location:   gig.Location,
		StartAt:    gig.StartAt,
		Pay:        gig.Pay.Amount,
		SkillIDs:   gig.SkillIDs(),
		CreatedAt:  gig.CreatedAt,
	})

	return &repository.GigView{Gig: gig}, nil
}

// collectFields переносит ошибки полей из VALIDATION_ERROR; для прочих ошибок возвращает false.
func collectFields(errs *apperror.FieldErrors, err error) bool {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperror.ErrCodeValidation {
		return false
	}
	*errs = append(*errs, appErr.Fields...)
	return true
}

// checkSkills проверяет, что все указанные навыки есть в справочнике.
func checkSkills(ctx context.Context, skillRepo repository.SkillRepository, d entity.GigDetails, errs *apperror.FieldErrors) error {
	ids := make([]uuid.UUID, 0, len(d.SupportingSkillIDs)+1)
	if d.PrimarySkillID != uuid.Nil {
		ids = append(ids, d.PrimarySkillID)
	}
	ids = append(ids, d.SupportingSkillIDs...)
	if len(ids) == 0 {
		return nil
	}

	skills, err := skillRepo.FindByIDs(ctx, ids)
	if err != nil {
		return err
	}
	known := make(map[uuid.UUID]struct{}, len(skills))
	for _, s := range skills {
		known[s.ID] = struct{}{}
	}

	if d.PrimarySkillID != uuid.Nil {
		if _, ok := known[d.PrimarySkillID]; !ok && !errs.Has("primary_skill_id") {
			errs.Add("primary_skill_id", "навык не найден")
		}
	}
	for _, id := range d.SupportingSkillIDs {
		if _, ok := known[id]; !ok {
			if !errs.Has("supporting_skill_ids") {
				errs.Add("supporting_skill_ids", "один из дополнительных навыков не найден")
			}
			break
		}
	}
	return nil
}
