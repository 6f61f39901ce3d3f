package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

const DefaultLockTimeout = 5 * time.Second

type GigRepository struct {
	db          *sqlx.DB
	lockTimeout time.Duration
}

var _ repository.GigRepository = (*GigRepository)(nil)

func NewGigRepository(db *sqlx.DB, lockTimeout time.Duration) *GigRepository {
	if lockTimeout <= 0 {
		lockTimeout = DefaultLockTimeout
	}
	return &GigRepository{db: db, lockTimeout: lockTimeout}
}

const gigColumns = `g.id, g.employer_id, g.title, g.primary_skill_id, g.location, g.latitude, g.longitude,
	g.start_at, g.end_at, g.pay, g.app_saving_percent, g.workers_needed, g.description,
	g.auto_close_enabled, g.auto_close_at, g.requirements, g.status, g.deleted_at, g.created_at, g.updated_at,
	ARRAY(SELECT s.skill_id::text FROM gig_supporting_skills s WHERE s.gig_id = g.id ORDER BY s.position) AS supporting_skill_ids`

func (r *GigRepository) Create(ctx context.Context, g *entity.Gig) error {
	requirements, err := jsonColumn(g.Requirements)
	if err != nil {
		return err
	}
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		lat, lng := coordinateArgs(g.Coordinates)
		query := `INSERT INTO gigs (id, employer_id, title, primary_skill_id, location, latitude, longitude,
				start_at, end_at, pay, app_saving_percent, workers_needed, description,
				auto_close_enabled, auto_close_at, requirements, status, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`
		_, err := tx.ExecContext(ctx, query,
			g.ID, g.EmployerID, g.Title, g.PrimarySkillID, g.Location, lat, lng,
			g.StartAt, g.EndAt, g.Pay.Amount, g.Pay.SavingPercent, g.WorkersNeeded, g.Description,
			g.AutoCloseEnabled, g.AutoCloseAt, requirements, string(g.Status), g.CreatedAt, g.UpdatedAt,
		)
		if err != nil {
			return classify(err, "не удалось создать смену", nil)
		}
		return insertSupportingSkills(ctx, tx, g.ID, g.SupportingSkillIDs)
	})
}

func (r *GigRepository) Update(ctx context.Context, g *entity.Gig) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return updateGigDetails(ctx, tx, g)
	})
}

func updateGigDetails(ctx context.Context, tx *sqlx.Tx, g *entity.Gig) error {
	requirements, err := jsonColumn(g.Requirements)
	if err != nil {
		return err
	}
	lat, lng := coordinateArgs(g.Coordinates)
	query := `UPDATE gigs SET title = $2, primary_skill_id = $3, location = $4, latitude = $5, longitude = $6,
			start_at = $7, end_at = $8, pay = $9, app_saving_percent = $10, description = $11,
			auto_close_enabled = $12, auto_close_at = $13, requirements = $14, updated_at = $15
		WHERE id = $1 AND deleted_at IS NULL`
	res, err := tx.ExecContext(ctx, query,
		g.ID, g.Title, g.PrimarySkillID, g.Location, lat, lng,
		g.StartAt, g.EndAt, g.Pay.Amount, g.Pay.SavingPercent, g.Description,
		g.AutoCloseEnabled, g.AutoCloseAt, requirements, g.UpdatedAt,
	)
	if err != nil {
		return classify(err, "не удалось обновить смену", nil)
	}
	if err := requireAffected(res, apperror.ErrGigNotFound); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM gig_supporting_skills WHERE gig_id = $1`, g.ID); err != nil {
		return classify(err, "не удалось обновить навыки смены", nil)
	}
	return insertSupportingSkills(ctx, tx, g.ID, g.SupportingSkillIDs)
}

func insertSupportingSkills(ctx context.Context, tx *sqlx.Tx, gigID uuid.UUID, skillIDs []uuid.UUID) error {
	bi := NewBatchInserter(tx, `INSERT INTO gig_supporting_skills (gig_id, skill_id, position)`, "", 3, 100)
	for i, id := range skillIDs {
		if err := bi.Add(ctx, gigID, id, i); err != nil {
			return err
		}
	}
	return bi.Flush(ctx)
}

func (r *GigRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE gigs SET deleted_at = $2, updated_at = $2 WHERE id = $1 AND deleted_at IS NULL`, id, at)
	if err != nil {
		return classify(err, "не удалось удалить смену", nil)
	}
	return requireAffected(res, apperror.ErrGigNotFound)
}

func (r *GigRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Gig, error) {
	var row gigRow
	query := `SELECT ` + gigColumns + ` FROM gigs g WHERE g.id = $1 AND g.deleted_at IS NULL`
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, notFoundOr(err, apperror.ErrGigNotFound, "не удалось получить смену")
	}
	return row.toEntity()
}

func (r *GigRepository) FindView(ctx context.Context, id, viewerID uuid.UUID) (*repository.GigView, error) {
	q := &queryArgs{}
	viewer := q.add(viewerID)
	query := `SELECT ` + gigColumns + `, ` + gigViewColumns(viewer, "NULL::float8") + `
		FROM gigs g WHERE g.id = ` + q.add(id) + ` AND g.deleted_at IS NULL`
	var row gigViewRow
	if err := r.db.GetContext(ctx, &row, query, q.args...); err != nil {
		return nil, notFoundOr(err, apperror.ErrGigNotFound, "не удалось получить смену")
	}
	return row.toView()
}

func (r *GigRepository) List(ctx context.Context, f repository.GigFilter) ([]*repository.GigView, int, error) {
	countArgs := &queryArgs{}
	where, _ := gigListWhere(f, countArgs)
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM gigs g WHERE `+where, countArgs.args...); err != nil {
		return nil, 0, classify(err, "не удалось посчитать смены", nil)
	}

	q := &queryArgs{}
	viewer := q.add(f.ViewerID)
	where, distance := gigListWhere(f, q)
	query := `SELECT ` + gigColumns + `, ` + gigViewColumns(viewer, distance) + `
		FROM gigs g
		WHERE ` + where + `
		ORDER BY g.created_at DESC, g.id`
	if f.Limit > 0 {
		query += ` LIMIT ` + q.add(f.Limit)
	}
	if f.Offset > 0 {
		query += ` OFFSET ` + q.add(f.Offset)
	}

	var rows []gigViewRow
	if err := r.db.SelectContext(ctx, &rows, query, q.args...); err != nil {
		return nil, 0, classify(err, "не удалось получить смены", nil)
	}
	views := make([]*repository.GigView, 0, len(rows))
	for i := range rows {
		v, err := rows[i].toView()
		if err != nil {
			return nil, 0, err
		}
		views = append(views, v)
	}
	return views, total, nil
}

// queryArgs раздаёт позиционные плейсхолдеры по мере добавления аргументов.
type queryArgs struct {
	args []interface{}
}

func (q *queryArgs) add(v interface{}) string {
	q.args = append(q.args, v)
	return "$" + strconv.Itoa(len(q.args))
}

func gigViewColumns(viewer, distance string) string {
	return `(SELECT COUNT(*) FROM gig_applications a WHERE a.gig_id = g.id) AS applicants_count,
		(SELECT COUNT(*) FROM gig_applications a WHERE a.gig_id = g.id AND a.status = 'accepted') AS accepted_count,
		EXISTS (SELECT 1 FROM gig_bookmarks b WHERE b.gig_id = g.id AND b.user_id = ` + viewer + `) AS is_bookmarked,
		EXISTS (SELECT 1 FROM gig_applications a WHERE a.gig_id = g.id AND a.user_id = ` + viewer + `) AS has_applied,
		` + distance + ` AS distance_km`
}

// haversine возвращает SQL-выражение расстояния в километрах от точки (lat, lng) до смены.
func haversine(lat, lng string) string {
	return fmt.Sprintf(`(6371 * 2 * ASIN(SQRT(
		POWER(SIN(RADIANS(g.latitude - %[1]s) / 2), 2) +
		COS(RADIANS(%[1]s)) * COS(RADIANS(g.latitude)) * POWER(SIN(RADIANS(g.longitude - %[2]s) / 2), 2))))`, lat, lng)
}

// gigListWhere строит условие выборки и выражение расстояния (NULL, если точка не задана).
func gigListWhere(f repository.GigFilter, q *queryArgs) (string, string) {
	conds := []string{"g.deleted_at IS NULL"}
	distance := "NULL::float8"

	if f.EmployerID != nil {
		conds = append(conds, "g.employer_id = "+q.add(*f.EmployerID))
	}
	if f.Status != nil {
		conds = append(conds, "g.status = "+q.add(string(*f.Status)))
	}
	if f.Location != "" {
		conds = append(conds, "g.location ILIKE "+q.add("%"+escapeLike(f.Location)+"%"))
	}
	if f.SkillID != nil {
		p := q.add(*f.SkillID)
		conds = append(conds, "(g.primary_skill_id = "+p+
			" OR EXISTS (SELECT 1 FROM gig_supporting_skills s WHERE s.gig_id = g.id AND s.skill_id = "+p+"))")
	}
	if f.MinPay != nil {
		conds = append(conds, "g.pay >= "+q.add(*f.MinPay))
	}
	if f.MaxPay != nil {
		conds = append(conds, "g.pay <= "+q.add(*f.MaxPay))
	}
	if f.TimeSlot != nil {
		from, to := f.TimeSlot.HourRange()
		hour := "EXTRACT(HOUR FROM g.start_at AT TIME ZONE 'UTC')"
		conds = append(conds, hour+" >= "+q.add(from), hour+" < "+q.add(to))
	}
	if f.Near != nil {
		distance = haversine(q.add(f.Near.Latitude)+"::float8", q.add(f.Near.Longitude)+"::float8")
		radius := f.RadiusKm
		if radius <= 0 {
			radius = valueobject.DefaultRadiusKm
		}
		conds = append(conds, "g.latitude IS NOT NULL", "g.longitude IS NOT NULL", distance+" <= "+q.add(radius))
	}
	if f.CreatedAfter != nil {
		conds = append(conds, "g.created_at >= "+q.add(*f.CreatedAfter))
	}
	return strings.Join(conds, " AND "), distance
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

func (r *GigRepository) WithGigLock(ctx context.Context, gigID uuid.UUID, fn func(tx repository.GigTx) error) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		// SET LOCAL не принимает параметры, поэтому значение подставляется числом.
		setTimeout := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
		if _, err := tx.ExecContext(ctx, setTimeout); err != nil {
			return classify(err, "не удалось настроить блокировку", nil)
		}

		var row gigRow
		query := `SELECT ` + gigColumns + ` FROM gigs g WHERE g.id = $1 AND g.deleted_at IS NULL FOR UPDATE OF g`
		if err := tx.GetContext(ctx, &row, query, gigID); err != nil {
			return notFoundOr(err, apperror.ErrGigNotFound, "не удалось заблокировать смену")
		}
		gig, err := row.toEntity()
		if err != nil {
			return err
		}
		return fn(&gigTx{tx: tx, gig: gig})
	})
}

func (r *GigRepository) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE gigs SET status = 'closed', updated_at = $1
		WHERE deleted_at IS NULL AND status = 'open' AND auto_close_enabled
		  AND auto_close_at IS NOT NULL AND auto_close_at <= $1`, now)
	if err != nil {
		return 0, classify(err, "не удалось закрыть просроченные смены", nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify(err, "не удалось закрыть просроченные смены", nil)
	}
	return n, nil
}

func (r *GigRepository) CompleteEnded(ctx context.Context, now time.Time) (repository.SweepResult, error) {
	var res struct {
		Gigs         int64 `db:"gigs"`
		Applications int64 `db:"applications"`
	}
	query := `WITH done AS (
			UPDATE gigs SET status = 'completed', updated_at = $1
			WHERE deleted_at IS NULL AND status IN ('open', 'filled') AND end_at <= $1
			RETURNING id
		), apps AS (
			UPDATE gig_applications a SET status = 'completed', updated_at = $1
			FROM done
			WHERE a.gig_id = done.id AND a.status = 'accepted'
			RETURNING a.id
		)
		SELECT (SELECT COUNT(*) FROM done) AS gigs, (SELECT COUNT(*) FROM apps) AS applications`
	if err := r.db.GetContext(ctx, &res, query, now); err != nil {
		return repository.SweepResult{}, classify(err, "не удалось завершить прошедшие смены", nil)
	}
	return repository.SweepResult{Gigs: res.Gigs, Applications: res.Applications}, nil
}

// gigTx работает внутри транзакции, удерживающей FOR UPDATE на строке смены.
type gigTx struct {
	tx  *sqlx.Tx
	gig *entity.Gig
}

func (t *gigTx) Gig() *entity.Gig { return t.gig }

func (t *gigTx) CountAccepted(ctx context.Context) (int, error) {
	var n int
	err := t.tx.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM gig_applications WHERE gig_id = $1 AND status = 'accepted'`, t.gig.ID)
	if err != nil {
		return 0, classify(err, "не удалось посчитать принятые отклики", nil)
	}
	return n, nil
}

func (t *gigTx) HasApplication(ctx context.Context, userID uuid.UUID) (bool, error) {
	var exists bool
	err := t.tx.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM gig_applications WHERE gig_id = $1 AND user_id = $2)`, t.gig.ID, userID)
	if err != nil {
		return false, classify(err, "не удалось проверить отклик", nil)
	}
	return exists, nil
}

func (t *gigTx) FindApplication(ctx context.Context, id uuid.UUID) (*entity.GigApplication, error) {
	var row applicationRow
	if err := t.tx.GetContext(ctx, &row, `SELECT `+applicationColumns+` FROM gig_applications a WHERE a.id = $1`, id); err != nil {
		return nil, notFoundOr(err, apperror.ErrApplicationNotFound, "не удалось получить отклик")
	}
	return row.toEntity()
}

func (t *gigTx) CreateApplication(ctx context.Context, app *entity.GigApplication) error {
	confirmations, err := jsonColumn(app.RequirementConfirmations)
	if err != nil {
		return err
	}
	query := `INSERT INTO gig_applications (id, gig_id, user_id, status, requirement_confirmations,
			rejection_reason, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err = t.tx.ExecContext(ctx, query, app.ID, app.GigID, app.UserID, string(app.Status), confirmations,
		app.RejectionReason, app.CreatedAt, app.UpdatedAt)
	return classify(err, "не удалось создать отклик", apperror.ErrDuplicateApplication)
}

func (t *gigTx) SaveApplication(ctx context.Context, app *entity.GigApplication, from valueobject.ApplicationStatus) error {
	return updateApplicationStatus(ctx, t.tx, app, from)
}

func (t *gigTx) SaveDetails(ctx context.Context) error {
	return updateGigDetails(ctx, t.tx, t.gig)
}

func (t *gigTx) SaveGig(ctx context.Context) error {
	_, err := t.tx.ExecContext(ctx, `UPDATE gigs SET status = $2, workers_needed = $3, updated_at = $4 WHERE id = $1`,
		t.gig.ID, string(t.gig.Status), t.gig.WorkersNeeded, t.gig.UpdatedAt)
	return classify(err, "не удалось сохранить смену", nil)
}

func coordinateArgs(c *valueobject.Coordinates) (sql.NullFloat64, sql.NullFloat64) {
	if c == nil {
		return sql.NullFloat64{}, sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: c.Latitude, Valid: true}, sql.NullFloat64{Float64: c.Longitude, Valid: true}
}

type gigRow struct {
	ID                 uuid.UUID       `db:"id"`
	EmployerID         uuid.UUID       `db:"employer_id"`
	Title              string          `db:"title"`
	PrimarySkillID     uuid.UUID       `db:"primary_skill_id"`
	Location           string          `db:"location"`
	Latitude           sql.NullFloat64 `db:"latitude"`
	Longitude          sql.NullFloat64 `db:"longitude"`
	StartAt            time.Time       `db:"start_at"`
	EndAt              time.Time       `db:"end_at"`
	Pay                float64         `db:"pay"`
	AppSavingPercent   int             `db:"app_saving_percent"`
	WorkersNeeded      int             `db:"workers_needed"`
	Description        string          `db:"description"`
	AutoCloseEnabled   bool            `db:"auto_close_enabled"`
	AutoCloseAt        sql.NullTime    `db:"auto_close_at"`
	Requirements       []byte          `db:"requirements"`
	Status             string          `db:"status"`
	DeletedAt          sql.NullTime    `db:"deleted_at"`
	CreatedAt          time.Time       `db:"created_at"`
	UpdatedAt          time.Time       `db:"updated_at"`
	SupportingSkillIDs pq.StringArray  `db:"supporting_skill_ids"`
}

func (g *gigRow) toEntity() (*entity.Gig, error) {
	gig := &entity.Gig{
		ID:               g.ID,
		EmployerID:       g.EmployerID,
		Title:            g.Title,
		PrimarySkillID:   g.PrimarySkillID,
		Location:         g.Location,
		StartAt:          g.StartAt,
		EndAt:            g.EndAt,
		Pay:              valueobject.Pay{Amount: g.Pay, SavingPercent: g.AppSavingPercent},
		WorkersNeeded:    g.WorkersNeeded,
		Description:      g.Description,
		AutoCloseEnabled: g.AutoCloseEnabled,
		AutoCloseAt:      nullTime(g.AutoCloseAt),
		Status:           valueobject.GigStatus(g.Status),
		DeletedAt:        nullTime(g.DeletedAt),
		CreatedAt:        g.CreatedAt,
		UpdatedAt:        g.UpdatedAt,
	}
	if g.Latitude.Valid && g.Longitude.Valid {
		gig.Coordinates = &valueobject.Coordinates{Latitude: g.Latitude.Float64, Longitude: g.Longitude.Float64}
	}
	if len(g.Requirements) > 0 {
		if err := json.Unmarshal(g.Requirements, &gig.Requirements); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждены требования смены")
		}
	}
	for _, s := range g.SupportingSkillIDs {
		id, err := uuid.Parse(s)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждены навыки смены")
		}
		gig.SupportingSkillIDs = append(gig.SupportingSkillIDs, id)
	}
	return gig, nil
}

type gigViewRow struct {
	gigRow
	ApplicantsCount int             `db:"applicants_count"`
	AcceptedCount   int             `db:"accepted_count"`
	IsBookmarked    bool            `db:"is_bookmarked"`
	HasApplied      bool            `db:"has_applied"`
	DistanceKm      sql.NullFloat64 `db:"distance_km"`
}

func (v *gigViewRow) toView() (*repository.GigView, error) {
	gig, err := v.toEntity()
	if err != nil {
		return nil, err
	}
	view := &repository.GigView{
		Gig:             gig,
		ApplicantsCount: v.ApplicantsCount,
		AcceptedCount:   v.AcceptedCount,
		IsBookmarked:    v.IsBookmarked,
		HasApplied:      v.HasApplied,
	}
	if v.DistanceKm.Valid {
		d := valueobject.Round2(v.DistanceKm.Float64)
		view.DistanceKm = &d
	}
	return view, nil
}
