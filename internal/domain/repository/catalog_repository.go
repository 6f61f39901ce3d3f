package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
)

type SkillRepository interface {
	List(ctx context.Context) ([]*entity.Skill, error)
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Skill, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Skill, error)
	// Create возвращает CONFLICT при повторяющемся названии.
	Create(ctx context.Context, skill *entity.Skill) error
	Update(ctx context.Context, skill *entity.Skill) error
	Delete(ctx context.Context, id uuid.UUID) error
	IsReferenced(ctx context.Context, id uuid.UUID) (bool, error)
	UpsertByName(ctx context.Context, names []string) (int, error)

	ListForUser(ctx context.Context, userID uuid.UUID) ([]*entity.Skill, error)
	ReplaceForUser(ctx context.Context, userID uuid.UUID, skillIDs []uuid.UUID) error
}
