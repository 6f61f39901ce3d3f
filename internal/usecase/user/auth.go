package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/gigmarket-backend/internal/auth"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/gigmarket-backend/internal/validation"
)

// PasswordCost стоимость bcrypt; тесты понижают её до bcrypt.MinCost.
var PasswordCost = bcrypt.DefaultCost

// TokenIssuer выпускает и проверяет пары токенов.
type TokenIssuer interface {
	GeneratePair(user *entity.User) (*auth.TokenPair, error)
	ParseRefresh(token string) (*auth.RefreshToken, error)
}

type AuthResult struct {
	User   *entity.User
	Tokens *auth.TokenPair
}

type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Role        string
	PhoneNumber *string
}

type RegisterUseCase struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	tokens      TokenIssuer
}

func NewRegisterUseCase(userRepo repository.UserRepository, profileRepo repository.ProfileRepository, tokens TokenIssuer) *RegisterUseCase {
	return &RegisterUseCase{userRepo: userRepo, profileRepo: profileRepo, tokens: tokens}
}

// Execute регистрирует работодателя или исполнителя. Администраторы создаются вне API.
func (uc *RegisterUseCase) Execute(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	var errs apperror.FieldErrors
	if err := validation.ValidateEmail(input.Email); err != nil {
		errs.Add("email", err.Error())
	}
	validation.CheckPassword(&errs, "password", input.Password, input.Email)
	if err := validation.ValidateName("имя", input.FirstName); err != nil {
		errs.Add("first_name", err.Error())
	}
	if err := validation.ValidateName("фамилия", input.LastName); err != nil {
		errs.Add("last_name", err.Error())
	}
	if err := validation.ValidatePhone(input.PhoneNumber); err != nil {
		errs.Add("phone_number", err.Error())
	}
	role := valueobject.Role(input.Role)
	if role != valueobject.RoleEmployer && role != valueobject.RoleFreelancer {
		errs.Add("role", "роль должна быть employer или freelancer")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), PasswordCost)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось захешировать пароль")
	}

	now := time.Now()
	user := &entity.User{
		ID:           uuid.New(),
		Email:        validation.NormalizeEmail(input.Email),
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         role,
		PhoneNumber:  input.PhoneNumber,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	if user.IsFreelancer() {
		if _, err := uc.profileRepo.GetOrCreate(ctx, user.ID); err != nil {
			return nil, err
		}
	}

	tokens, err := uc.tokens.GeneratePair(user)
	if err != nil {
		return nil, err
	}

	logger.WithComponent("auth").WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("пользователь зарегистрирован")
	return &AuthResult{User: user, Tokens: tokens}, nil
}

type LoginUseCase struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
}

func NewLoginUseCase(userRepo repository.UserRepository, tokens TokenIssuer) *LoginUseCase {
	return &LoginUseCase{userRepo: userRepo, tokens: tokens}
}

func (uc *LoginUseCase) Execute(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := uc.userRepo.FindByEmail(ctx, validation.NormalizeEmail(email))
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, apperror.ErrInvalidCredentials
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось проверить пароль")
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "аккаунт заблокирован")
	}

	now := time.Now()
	if err := uc.userRepo.TouchLastLogin(ctx, user.ID, now); err != nil {
		logger.WithComponent("auth").WithFields(logrus.Fields{
			"user_id": user.ID,
			"error":   err.Error(),
		}).Warn("не удалось обновить last_login_at")
	} else {
		user.LastLoginAt = &now
	}

	tokens, err := uc.tokens.GeneratePair(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

type RefreshUseCase struct {
	userRepo repository.UserRepository
	revoked  repository.RevokedTokenRepository
	tokens   TokenIssuer
}

func NewRefreshUseCase(userRepo repository.UserRepository, revoked repository.RevokedTokenRepository, tokens TokenIssuer) *RefreshUseCase {
	return &RefreshUseCase{userRepo: userRepo, revoked: revoked, tokens: tokens}
}

func (uc *RefreshUseCase) Execute(ctx context.Context, refreshToken string) (*AuthResult, error) {
	refresh, err := uc.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return nil, err
	}
	revoked, err := uc.revoked.IsRevoked(ctx, refresh.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, apperror.ErrUnauthorized
	}
	user, err := uc.userRepo.FindByID(ctx, refresh.UserID)
	if err != nil {
		if apperror.IsNotFound(err) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "аккаунт заблокирован")
	}
	tokens, err := uc.tokens.GeneratePair(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: tokens}, nil
}

// LogoutUseCase отзывает refresh токен. Выданный access токен действует до своего истечения.
type LogoutUseCase struct {
	revoked repository.RevokedTokenRepository
	tokens  TokenIssuer
}

func NewLogoutUseCase(revoked repository.RevokedTokenRepository, tokens TokenIssuer) *LogoutUseCase {
	return &LogoutUseCase{revoked: revoked, tokens: tokens}
}

func (uc *LogoutUseCase) Execute(ctx context.Context, userID uuid.UUID, refreshToken string) error {
	refresh, err := uc.tokens.ParseRefresh(refreshToken)
	if err != nil {
		return err
	}
	if refresh.UserID != userID {
		return apperror.ErrForbidden
	}
	if err := uc.revoked.Revoke(ctx, refresh.ID, refresh.UserID, refresh.ExpiresAt); err != nil {
		return err
	}
	logger.WithComponent("auth").WithFields(logrus.Fields{
		"user_id": userID,
	}).Info("пользователь вышел")
	return nil
}

type MeUseCase struct {
	userRepo repository.UserRepository
}

func NewMeUseCase(userRepo repository.UserRepository) *MeUseCase {
	return &MeUseCase{userRepo: userRepo}
}

func (uc *MeUseCase) Execute(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	return uc.userRepo.FindByID(ctx, userID)
}

type ListUsersInput struct {
	Role   string
	Limit  int
	Offset int
}

type ListUsersUseCase struct {
	userRepo repository.UserRepository
}

func NewListUsersUseCase(userRepo repository.UserRepository) *ListUsersUseCase {
	return &ListUsersUseCase{userRepo: userRepo}
}

func (uc *ListUsersUseCase) Execute(ctx context.Context, input ListUsersInput) ([]*entity.User, int, error) {
	var role *valueobject.Role
	if input.Role != "" {
		r, err := valueobject.NewRole(input.Role)
		if err != nil {
			return nil, 0, err
		}
		role = &r
	}
	limit := input.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := input.Offset
	if offset < 0 {
		offset = 0
	}
	return uc.userRepo.List(ctx, role, limit, offset)
}
