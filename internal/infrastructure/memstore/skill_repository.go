package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

type SkillRepository struct {
	s *Store
}

var _ repository.SkillRepository = (*SkillRepository)(nil)

func (r *SkillRepository) List(ctx context.Context) ([]*entity.Skill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	skills := make([]*entity.Skill, 0, len(r.s.skills))
	for _, sk := range r.s.skills {
		cp := *sk
		skills = append(skills, &cp)
	}
	sort.Slice(skills, func(i, j int) bool { return skills[i].Name < skills[j].Name })
	return skills, nil
}

func (r *SkillRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Skill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	sk, ok := r.s.skills[id]
	if !ok {
		return nil, apperror.ErrSkillNotFound
	}
	cp := *sk
	return &cp, nil
}

func (r *SkillRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Skill, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var skills []*entity.Skill
	for _, id := range ids {
		if sk, ok := r.s.skills[id]; ok {
			cp := *sk
			skills = append(skills, &cp)
		}
	}
	return skills, nil
}

func (r *SkillRepository) nameTakenLocked(name string, except uuid.UUID) bool {
	for _, sk := range r.s.skills {
		if sk.ID != except && strings.EqualFold(sk.Name, name) {
			return true
		}
	}
	return false
}

func (r *SkillRepository) Create(ctx context.Context, skill *entity.Skill) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.nameTakenLocked(skill.Name, skill.ID) {
		return apperror.New(apperror.ErrCodeConflict, "навык с таким названием уже есть")
	}
	cp := *skill
	r.s.skills[skill.ID] = &cp
	return nil
}

func (r *SkillRepository) Update(ctx context.Context, skill *entity.Skill) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.skills[skill.ID]; !ok {
		return apperror.ErrSkillNotFound
	}
	if r.nameTakenLocked(skill.Name, skill.ID) {
		return apperror.New(apperror.ErrCodeConflict, "навык с таким названием уже есть")
	}
	cp := *skill
	r.s.skills[skill.ID] = &cp
	return nil
}

func (r *SkillRepository) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.skills[id]; !ok {
		return apperror.ErrSkillNotFound
	}
	delete(r.s.skills, id)
	return nil
}

func (r *SkillRepository) IsReferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, g := range r.s.gigs {
		for _, sid := range g.SkillIDs() {
			if sid == id {
				return true, nil
			}
		}
	}
	return false, nil
}

func (r *SkillRepository) UpsertByName(ctx context.Context, names []string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	created := 0
	now := time.Now()
	for _, name := range names {
		if r.nameTakenLocked(name, uuid.Nil) {
			continue
		}
		sk, err := entity.NewSkill(name, now)
		if err != nil {
			return created, err
		}
		r.s.skills[sk.ID] = sk
		created++
	}
	return created, nil
}

func (r *SkillRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*entity.Skill, error) {
	r.s.mu.Lock()
	ids := append([]uuid.UUID(nil), r.s.userSkills[userID]...)
	r.s.mu.Unlock()
	return r.FindByIDs(ctx, ids)
}

func (r *SkillRepository) ReplaceForUser(ctx context.Context, userID uuid.UUID, skillIDs []uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.userSkills[userID] = append([]uuid.UUID(nil), skillIDs...)
	return nil
}

// AddSkill создаёт навык с заданным названием и возвращает его.
func (s *Store) AddSkill(name string) *entity.Skill {
	sk, err := entity.NewSkill(name, time.Now())
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skills[sk.ID] = sk
	return sk
}
