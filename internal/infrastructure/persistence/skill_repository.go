package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

var errSkillNameTaken = apperror.New(apperror.ErrCodeConflict, "навык с таким названием уже есть")

type SkillRepository struct {
	db *sqlx.DB
}

var _ repository.SkillRepository = (*SkillRepository)(nil)

func NewSkillRepository(db *sqlx.DB) *SkillRepository {
	return &SkillRepository{db: db}
}

const skillColumns = `s.id, s.name, s.created_at, s.updated_at`

func (r *SkillRepository) List(ctx context.Context) ([]*entity.Skill, error) {
	return r.selectSkills(ctx, `SELECT `+skillColumns+` FROM skills s ORDER BY s.name`)
}

func (r *SkillRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Skill, error) {
	var row skillRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+skillColumns+` FROM skills s WHERE s.id = $1`, id); err != nil {
		return nil, notFoundOr(err, apperror.ErrSkillNotFound, "не удалось получить навык")
	}
	return row.toEntity(), nil
}

func (r *SkillRepository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]*entity.Skill, error) {
	if len(ids) == 0 {
		return []*entity.Skill{}, nil
	}
	return r.selectSkills(ctx, `SELECT `+skillColumns+` FROM skills s WHERE s.id = ANY($1::uuid[]) ORDER BY s.name`,
		pq.Array(uuidStrings(ids)))
}

func (r *SkillRepository) Create(ctx context.Context, s *entity.Skill) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO skills (id, name, created_at, updated_at) VALUES ($1, $2, $3, $4)`,
		s.ID, s.Name, s.CreatedAt, s.UpdatedAt)
	return classify(err, "не удалось создать навык", errSkillNameTaken)
}

func (r *SkillRepository) Update(ctx context.Context, s *entity.Skill) error {
	res, err := r.db.ExecContext(ctx, `UPDATE skills SET name = $2, updated_at = $3 WHERE id = $1`, s.ID, s.Name, s.UpdatedAt)
	if err != nil {
		return classify(err, "не удалось переименовать навык", errSkillNameTaken)
	}
	return requireAffected(res, apperror.ErrSkillNotFound)
}

func (r *SkillRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM skills WHERE id = $1`, id)
	if err != nil {
		return classify(err, "не удалось удалить навык", nil)
	}
	return requireAffected(res, apperror.ErrSkillNotFound)
}

// IsReferenced учитывает и удалённые смены: внешние ключи на них сохраняются.
func (r *SkillRepository) IsReferenced(ctx context.Context, id uuid.UUID) (bool, error) {
	var referenced bool
	query := `SELECT EXISTS (SELECT 1 FROM gigs WHERE primary_skill_id = $1)
		OR EXISTS (SELECT 1 FROM gig_supporting_skills WHERE skill_id = $1)`
	if err := r.db.GetContext(ctx, &referenced, query, id); err != nil {
		return false, classify(err, "не удалось проверить использование навыка", nil)
	}
	return referenced, nil
}

func (r *SkillRepository) UpsertByName(ctx context.Context, names []string) (int, error) {
	var created int
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		now := time.Now().UTC()
		for _, name := range names {
			s, err := entity.NewSkill(name, now)
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx, `INSERT INTO skills (id, name, created_at, updated_at)
				VALUES ($1, $2, $3, $3) ON CONFLICT (name) DO NOTHING`, s.ID, s.Name, now)
			if err != nil {
				return classify(err, "не удалось загрузить навык", nil)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return classify(err, "не удалось загрузить навык", nil)
			}
			created += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (r *SkillRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*entity.Skill, error) {
	return r.selectSkills(ctx, `SELECT `+skillColumns+` FROM skills s
		JOIN user_skills us ON us.skill_id = s.id
		WHERE us.user_id = $1
		ORDER BY s.name`, userID)
}

func (r *SkillRepository) ReplaceForUser(ctx context.Context, userID uuid.UUID, skillIDs []uuid.UUID) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM user_skills WHERE user_id = $1`, userID); err != nil {
			return classify(err, "не удалось обновить навыки", nil)
		}
		bi := NewBatchInserter(tx, `INSERT INTO user_skills (user_id, skill_id)`, `ON CONFLICT DO NOTHING`, 2, 100)
		for _, id := range skillIDs {
			if err := bi.Add(ctx, userID, id); err != nil {
				return err
			}
		}
		return bi.Flush(ctx)
	})
}

func (r *SkillRepository) selectSkills(ctx context.Context, query string, args ...interface{}) ([]*entity.Skill, error) {
	var rows []skillRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, classify(err, "не удалось получить навыки", nil)
	}
	skills := make([]*entity.Skill, len(rows))
	for i := range rows {
		skills[i] = rows[i].toEntity()
	}
	return skills, nil
}

type skillRow struct {
	ID        uuid.UUID `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *skillRow) toEntity() *entity.Skill {
	return &entity.Skill{ID: s.ID, Name: s.Name, CreatedAt: s.CreatedAt, UpdatedAt: s.UpdatedAt}
}
