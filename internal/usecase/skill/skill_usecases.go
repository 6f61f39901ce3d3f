package skill

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/cache"
)

// ListCache хранит справочник навыков целиком; любая правка каталога его сбрасывает.
type ListCache = cache.TTLCache[[]*entity.Skill]

const listCacheKey = "skills:all"

func NewListCache(ttl time.Duration) *ListCache {
	return cache.New[[]*entity.Skill](ttl, ttl)
}

type ListSkillsUseCase struct {
	skillRepo repository.SkillRepository
	cache     *ListCache
}

func NewListSkillsUseCase(skillRepo repository.SkillRepository, c *ListCache) *ListSkillsUseCase {
	return &ListSkillsUseCase{skillRepo: skillRepo, cache: c}
}

func (uc *ListSkillsUseCase) Execute(ctx context.Context) ([]*entity.Skill, error) {
	return uc.cache.GetOrSet(listCacheKey, func() ([]*entity.Skill, error) {
		return uc.skillRepo.List(ctx)
	})
}

type GetSkillUseCase struct {
	skillRepo repository.SkillRepository
}

func NewGetSkillUseCase(skillRepo repository.SkillRepository) *GetSkillUseCase {
	return &GetSkillUseCase{skillRepo: skillRepo}
}

func (uc *GetSkillUseCase) Execute(ctx context.Context, id uuid.UUID) (*entity.Skill, error) {
	return uc.skillRepo.FindByID(ctx, id)
}

type CreateSkillUseCase struct {
	skillRepo repository.SkillRepository
	cache     *ListCache
}

func NewCreateSkillUseCase(skillRepo repository.SkillRepository, c *ListCache) *CreateSkillUseCase {
	return &CreateSkillUseCase{skillRepo: skillRepo, cache: c}
}

func (uc *CreateSkillUseCase) Execute(ctx context.Context, name string) (*entity.Skill, error) {
	skill, err := entity.NewSkill(name, time.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.skillRepo.Create(ctx, skill); err != nil {
		return nil, err
	}
	uc.cache.Delete(listCacheKey)

	logger.WithComponent("skill").WithField("skill_id", skill.ID).Info("навык добавлен")
	return skill, nil
}

type RenameSkillUseCase struct {
	skillRepo repository.SkillRepository
	cache     *ListCache
}

func NewRenameSkillUseCase(skillRepo repository.SkillRepository, c *ListCache) *RenameSkillUseCase {
	return &RenameSkillUseCase{skillRepo: skillRepo, cache: c}
}

func (uc *RenameSkillUseCase) Execute(ctx context.Context, id uuid.UUID, name string) (*entity.Skill, error) {
	skill, err := uc.skillRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := skill.Rename(name, time.Now()); err != nil {
		return nil, err
	}
	if err := uc.skillRepo.Update(ctx, skill); err != nil {
		return nil, err
	}
	uc.cache.Delete(listCacheKey)
	return skill, nil
}

type DeleteSkillUseCase struct {
	skillRepo repository.SkillRepository
	cache     *ListCache
}

func NewDeleteSkillUseCase(skillRepo repository.SkillRepository, c *ListCache) *DeleteSkillUseCase {
	return &DeleteSkillUseCase{skillRepo: skillRepo, cache: c}
}

// Execute не удаляет навык, пока на него ссылается хотя бы одна смена.
func (uc *DeleteSkillUseCase) Execute(ctx context.Context, id uuid.UUID) error {
	if _, err := uc.skillRepo.FindByID(ctx, id); err != nil {
		return err
	}
	referenced, err := uc.skillRepo.IsReferenced(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return apperror.New(apperror.ErrCodeConflict, "навык используется в сменах")
	}
	if err := uc.skillRepo.Delete(ctx, id); err != nil {
		return err
	}
	uc.cache.Delete(listCacheKey)

	logger.WithComponent("skill").WithField("skill_id", id).Info("навык удалён")
	return nil
}

type ListMySkillsUseCase struct {
	skillRepo repository.SkillRepository
}

func NewListMySkillsUseCase(skillRepo repository.SkillRepository) *ListMySkillsUseCase {
	return &ListMySkillsUseCase{skillRepo: skillRepo}
}

func (uc *ListMySkillsUseCase) Execute(ctx context.Context, userID uuid.UUID) ([]*entity.Skill, error) {
	return uc.skillRepo.ListForUser(ctx, userID)
}

type ReplaceMySkillsUseCase struct {
	skillRepo repository.SkillRepository
}

func NewReplaceMySkillsUseCase(skillRepo repository.SkillRepository) *ReplaceMySkillsUseCase {
	return &ReplaceMySkillsUseCase{skillRepo: skillRepo}
}

// Execute полностью заменяет набор навыков исполнителя.
func (uc *ReplaceMySkillsUseCase) Execute(ctx context.Context, userID uuid.UUID, skillIDs []uuid.UUID) ([]*entity.Skill, error) {
	ids := dedupe(skillIDs)
	if len(ids) == 0 {
		return nil, apperror.Validation(apperror.FieldError{Field: "skill_ids", Message: "укажите хотя бы один навык"})
	}

	found, err := uc.skillRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(found) != len(ids) {
		known := make(map[uuid.UUID]struct{}, len(found))
		for _, s := range found {
			known[s.ID] = struct{}{}
		}
		var errs apperror.FieldErrors
		for _, id := range ids {
			if _, ok := known[id]; !ok {
				errs.Add("skill_ids", "навык "+id.String()+" не найден")
			}
		}
		return nil, errs.Err()
	}

	if err := uc.skillRepo.ReplaceForUser(ctx, userID, ids); err != nil {
		return nil, err
	}

	logger.WithComponent("skill").WithFields(logrus.Fields{
		"user_id": userID,
		"skills":  len(ids),
	}).Info("навыки исполнителя обновлены")
	return found, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
