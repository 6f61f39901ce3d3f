package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
)

type UserRepository interface {
	// Create возвращает CONFLICT, если email уже занят.
	Create(ctx context.Context, user *entity.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	List(ctx context.Context, role *valueobject.Role, limit, offset int) ([]*entity.User, int, error)
	// FindFreelancersBySkills ищет исполнителей хотя бы с одним из навыков.
	FindFreelancersBySkills(ctx context.Context, skillIDs []uuid.UUID, exclude uuid.UUID) ([]uuid.UUID, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type VerificationRepository interface {
	SaveVerification(ctx context.Context, user *entity.User) error
}

// RevokedTokenRepository хранит отозванные при выходе refresh токены до истечения их срока.
type RevokedTokenRepository interface {
	Revoke(ctx context.Context, tokenID string, userID uuid.UUID, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type ProfileRepository interface {
	// GetOrCreate возвращает профиль исполнителя, создавая пустой при первом обращении.
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*entity.FreelancerProfile, error)
	Update(ctx context.Context, profile *entity.FreelancerProfile) error
}
