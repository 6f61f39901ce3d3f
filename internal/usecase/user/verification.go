package user

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/gigmarket-backend/internal/validation"
)

// VerificationResult пользователь после подтверждения. AlreadyVerified означает, что
// ничего не изменилось.
type VerificationResult struct {
	User            *entity.User
	AlreadyVerified bool
}

type GetVerificationStatusUseCase struct {
	userRepo repository.UserRepository
}

func NewGetVerificationStatusUseCase(userRepo repository.UserRepository) *GetVerificationStatusUseCase {
	return &GetVerificationStatusUseCase{userRepo: userRepo}
}

func (uc *GetVerificationStatusUseCase) Execute(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	return uc.userRepo.FindByID(ctx, userID)
}

// VerifyEmailUseCase подтверждает почту сразу, без отправки кода.
type VerifyEmailUseCase struct {
	userRepo     repository.UserRepository
	verification repository.VerificationRepository
}

func NewVerifyEmailUseCase(userRepo repository.UserRepository, verification repository.VerificationRepository) *VerifyEmailUseCase {
	return &VerifyEmailUseCase{userRepo: userRepo, verification: verification}
}

func (uc *VerifyEmailUseCase) Execute(ctx context.Context, userID uuid.UUID) (*VerificationResult, error) {
	user, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.VerifyEmail(time.Now()) {
		return &VerificationResult{User: user, AlreadyVerified: true}, nil
	}
	if err := uc.verification.SaveVerification(ctx, user); err != nil {
		return nil, err
	}
	logger.WithComponent("verification").WithFields(logrus.Fields{
		"user_id": userID,
	}).Info("почта подтверждена")
	return &VerificationResult{User: user}, nil
}

// VerifyPhoneUseCase подтверждает телефон; переданный номер заменяет сохранённый.
type VerifyPhoneUseCase struct {
	userRepo     repository.UserRepository
	verification repository.VerificationRepository
}

func NewVerifyPhoneUseCase(userRepo repository.UserRepository, verification repository.VerificationRepository) *VerifyPhoneUseCase {
	return &VerifyPhoneUseCase{userRepo: userRepo, verification: verification}
}

func (uc *VerifyPhoneUseCase) Execute(ctx context.Context, userID uuid.UUID, phone *string) (*VerificationResult, error) {
	if err := validation.ValidatePhone(phone); err != nil {
		return nil, apperror.Validation(apperror.FieldError{Field: "phone_number", Message: err.Error()})
	}
	user, err := uc.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	changed, err := user.VerifyPhone(phone, time.Now())
	if err != nil {
		return nil, err
	}
	if !changed {
		return &VerificationResult{User: user, AlreadyVerified: true}, nil
	}
	if err := uc.verification.SaveVerification(ctx, user); err != nil {
		return nil, err
	}
	logger.WithComponent("verification").WithFields(logrus.Fields{
		"user_id": userID,
	}).Info("телефон подтверждён")
	return &VerificationResult{User: user}, nil
}
