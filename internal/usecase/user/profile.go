package user

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/gigmarket-backend/internal/validation"
)

// ResumeStorage сохраняет файл резюме и возвращает его URL.
type ResumeStorage interface {
	Save(ctx context.Context, userID uuid.UUID, r io.Reader) (string, error)
	Delete(ctx context.Context, url string) error
}

type GetProfileUseCase struct {
	profileRepo repository.ProfileRepository
}

func NewGetProfileUseCase(profileRepo repository.ProfileRepository) *GetProfileUseCase {
	return &GetProfileUseCase{profileRepo: profileRepo}
}

func (uc *GetProfileUseCase) Execute(ctx context.Context, userID uuid.UUID) (*entity.FreelancerProfile, error) {
	return uc.profileRepo.GetOrCreate(ctx, userID)
}

type UpdateProfileInput struct {
	UserID         uuid.UUID
	Bio            *string
	Availability   *string
	AvailableToday *bool
}

type UpdateProfileUseCase struct {
	profileRepo repository.ProfileRepository
}

func NewUpdateProfileUseCase(profileRepo repository.ProfileRepository) *UpdateProfileUseCase {
	return &UpdateProfileUseCase{profileRepo: profileRepo}
}

func (uc *UpdateProfileUseCase) Execute(ctx context.Context, input UpdateProfileInput) (*entity.FreelancerProfile, error) {
	var errs apperror.FieldErrors
	if err := validation.ValidateOptional("о себе", input.Bio, validation.MaxBioLength); err != nil {
		errs.Add("bio", err.Error())
	}
	if err := validation.ValidateOptional("доступность", input.Availability, validation.MaxAvailabilityLength); err != nil {
		errs.Add("availability", err.Error())
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	profile, err := uc.profileRepo.GetOrCreate(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if input.Bio != nil {
		profile.Bio = trimmedOrNil(*input.Bio)
	}
	if input.Availability != nil {
		profile.Availability = trimmedOrNil(*input.Availability)
	}
	if input.AvailableToday != nil {
		profile.AvailableToday = *input.AvailableToday
	}
	profile.UpdatedAt = time.Now()

	if err := uc.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

func trimmedOrNil(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

type UploadResumeUseCase struct {
	profileRepo repository.ProfileRepository
	storage     ResumeStorage
}

func NewUploadResumeUseCase(profileRepo repository.ProfileRepository, storage ResumeStorage) *UploadResumeUseCase {
	return &UploadResumeUseCase{profileRepo: profileRepo, storage: storage}
}

// Execute сохраняет новый файл, записывает в профиль только его URL и удаляет прежний файл.
func (uc *UploadResumeUseCase) Execute(ctx context.Context, userID uuid.UUID, file io.Reader) (*entity.FreelancerProfile, error) {
	profile, err := uc.profileRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}

	url, err := uc.storage.Save(ctx, userID, file)
	if err != nil {
		return nil, err
	}

	var previous string
	if profile.ResumeURL != nil {
		previous = *profile.ResumeURL
	}
	profile.AttachResume(url, time.Now())

	if err := uc.profileRepo.Update(ctx, profile); err != nil {
		_ = uc.storage.Delete(ctx, url)
		return nil, err
	}

	if previous != "" && previous != url {
		if err := uc.storage.Delete(ctx, previous); err != nil {
			logger.WithComponent("profile").WithFields(logrus.Fields{
				"user_id": userID,
				"error":   err.Error(),
			}).Warn("не удалось удалить прежнее резюме")
		}
	}
	return profile, nil
}
