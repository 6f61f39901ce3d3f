package gig

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

// GigPatch описывает частичное обновление; nil означает «не менять».
type GigPatch struct {
	Title              *string
	PrimarySkillID     *uuid.UUID
	SupportingSkillIDs *[]uuid.UUID
	Location           *string
	Latitude           *float64
	Longitude          *float64
	StartAt            *time.Time
	EndAt              *time.Time
	Pay                *float64
	AppSavingPercent   *int
	WorkersNeeded      *int
	Description        *string
	AutoCloseEnabled   *bool
	AutoCloseAt        *time.Time
	Requirements       *[]string
}

func (p GigPatch) applyTo(d entity.GigDetails) entity.GigDetails {
	if p.Title != nil {
		d.Title = *p.Title
	}
	if p.PrimarySkillID != nil {
		d.PrimarySkillID = *p.PrimarySkillID
	}
	if p.SupportingSkillIDs != nil {
		d.SupportingSkillIDs = *p.SupportingSkillIDs
	}
	if p.Location != nil {
		d.Location = *p.Location
	}
	if p.Latitude != nil || p.Longitude != nil {
		d.Latitude, d.Longitude = p.Latitude, p.Longitude
	}
	if p.StartAt != nil {
		d.StartAt = *p.StartAt
	}
	if p.EndAt != nil {
		d.EndAt = *p.EndAt
	}
	if p.Pay != nil {
		d.Pay = *p.Pay
	}
	if p.AppSavingPercent != nil {
		d.AppSavingPercent = *p.AppSavingPercent
	}
	if p.Description != nil {
		d.Description = *p.Description
	}
	if p.AutoCloseEnabled != nil {
		d.AutoCloseEnabled = *p.AutoCloseEnabled
	}
	if p.AutoCloseAt != nil {
		d.AutoCloseAt = p.AutoCloseAt
	}
	if p.Requirements != nil {
		d.Requirements = *p.Requirements
	}
	return d
}

type UpdateGigUseCase struct {
	gigRepo   repository.GigRepository
	skillRepo repository.SkillRepository
}

func NewUpdateGigUseCase(gigRepo repository.GigRepository, skillRepo repository.SkillRepository) *UpdateGigUseCase {
	return &UpdateGigUseCase{gigRepo: gigRepo, skillRepo: skillRepo}
}

// Execute меняет поля смены без блокировки. Если в патче есть workers_needed,
// весь патч применяется одной транзакцией под блокировкой строки смены.
func (uc *UpdateGigUseCase) Execute(ctx context.Context, gigID, employerID uuid.UUID, patch GigPatch) (*repository.GigView, error) {
	if patch.WorkersNeeded != nil {
		if err := uc.updateLocked(ctx, gigID, employerID, patch); err != nil {
			return nil, err
		}
		return uc.gigRepo.FindView(ctx, gigID, employerID)
	}

	gig, err := uc.gigRepo.FindByID(ctx, gigID)
	if err != nil {
		return nil, err
	}
	if !gig.IsOwnedBy(employerID) {
		return nil, apperror.ErrForbidden
	}

	var errs apperror.FieldErrors
	if err := uc.edit(ctx, gig, patch, &errs); err != nil {
		return nil, err
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	if err := uc.gigRepo.Update(ctx, gig); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "не удалось обновить смену")
	}
	return uc.gigRepo.FindView(ctx, gigID, employerID)
}

func (uc *UpdateGigUseCase) updateLocked(ctx context.Context, gigID, employerID uuid.UUID, patch GigPatch) error {
	return uc.gigRepo.WithGigLock(ctx, gigID, func(tx repository.GigTx) error {
		gig := tx.Gig()
		if !gig.IsOwnedBy(employerID) {
			return apperror.ErrForbidden
		}

		var errs apperror.FieldErrors
		if err := uc.edit(ctx, gig, patch, &errs); err != nil {
			return err
		}
		accepted, err := tx.CountAccepted(ctx)
		if err != nil {
			return err
		}
		before := gig.Status
		if err := gig.ChangeWorkersNeeded(*patch.WorkersNeeded, accepted, time.Now()); err != nil && !collectFields(&errs, err) {
			return err
		}
		if err := errs.Err(); err != nil {
			return err
		}

		if err := tx.SaveDetails(ctx); err != nil {
			return err
		}
		if err := tx.SaveGig(ctx); err != nil {
			return err
		}
		logger.WithComponent("gig").WithFields(logrus.Fields{
			"gig_id":         gig.ID,
			"workers_needed": gig.WorkersNeeded,
			"accepted":       accepted,
			"status_before":  before,
			"status_after":   gig.Status,
		}).Info("смена обновлена вместе с числом исполнителей")
		return nil
	})
}

// edit применяет патч к смене; нарушения полей копятся в errs, остальные ошибки возвращаются.
func (uc *UpdateGigUseCase) edit(ctx context.Context, gig *entity.Gig, patch GigPatch, errs *apperror.FieldErrors) error {
	d := patch.applyTo(gig.Details())
	if err := gig.Edit(d, time.Now()); err != nil && !collectFields(errs, err) {
		return err
	}
	if patch.PrimarySkillID != nil || patch.SupportingSkillIDs != nil {
		return checkSkills(ctx, uc.skillRepo, d, errs)
	}
	return nil
}

type DeleteGigUseCase struct {
	gigRepo repository.GigRepository
}

func NewDeleteGigUseCase(gigRepo repository.GigRepository) *DeleteGigUseCase {
	return &DeleteGigUseCase{gigRepo: gigRepo}
}

func (uc *DeleteGigUseCase) Execute(ctx context.Context, gigID, employerID uuid.UUID) error {
	gig, err := uc.gigRepo.FindByID(ctx, gigID)
	if err != nil {
		return err
	}
	if !gig.IsOwnedBy(employerID) {
		return apperror.ErrForbidden
	}
	return uc.gigRepo.SoftDelete(ctx, gigID, time.Now())
}

type CloseGigUseCase struct {
	gigRepo repository.GigRepository
}

func NewCloseGigUseCase(gigRepo repository.GigRepository) *CloseGigUseCase {
	return &CloseGigUseCase{gigRepo: gigRepo}
}

// Execute закрывает смену под блокировкой, чтобы не конкурировать с принятием откликов.
func (uc *CloseGigUseCase) Execute(ctx context.Context, gigID, employerID uuid.UUID) (*repository.GigView, error) {
	err := uc.gigRepo.WithGigLock(ctx, gigID, func(tx repository.GigTx) error {
		gig := tx.Gig()
		if !gig.IsOwnedBy(employerID) {
			return apperror.ErrForbidden
		}
		if err := gig.Close(time.Now()); err != nil {
			return err
		}
		return tx.SaveGig(ctx)
	})
	if err != nil {
		return nil, err
	}

	logger.WithComponent("gig").WithField("gig_id", gigID).Info("смена закрыта работодателем")
	return uc.gigRepo.FindView(ctx, gigID, employerID)
}

type UpdateWorkersNeededUseCase struct {
	gigRepo repository.GigRepository
}

func NewUpdateWorkersNeededUseCase(gigRepo repository.GigRepository) *UpdateWorkersNeededUseCase {
	return &UpdateWorkersNeededUseCase{gigRepo: gigRepo}
}

func (uc *UpdateWorkersNeededUseCase) Execute(ctx context.Context, gigID, employerID uuid.UUID, workersNeeded int) (*repository.GigView, error) {
	err := uc.gigRepo.WithGigLock(ctx, gigID, func(tx repository.GigTx) error {
		gig := tx.Gig()
		if !gig.IsOwnedBy(employerID) {
			return apperror.ErrForbidden
		}
		accepted, err := tx.CountAccepted(ctx)
		if err != nil {
			return err
		}
		before := gig.Status
		if err := gig.ChangeWorkersNeeded(workersNeeded, accepted, time.Now()); err != nil {
			return err
		}
		if err := tx.SaveGig(ctx); err != nil {
			return err
		}
		logger.WithComponent("gig").WithFields(logrus.Fields{
			"gig_id":         gig.ID,
			"workers_needed": gig.WorkersNeeded,
			"accepted":       accepted,
			"status_before":  before,
			"status_after":   gig.Status,
		}).Info("изменено число исполнителей")
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.gigRepo.FindView(ctx, gigID, employerID)
}
