package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

type ApplicationRepository struct {
	db *sqlx.DB
}

var _ repository.ApplicationRepository = (*ApplicationRepository)(nil)

func NewApplicationRepository(db *sqlx.DB) *ApplicationRepository {
	return &ApplicationRepository{db: db}
}

const applicationColumns = `a.id, a.gig_id, a.user_id, a.status, a.requirement_confirmations,
	a.rejection_reason, a.created_at, a.updated_at`

func (r *ApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.GigApplication, error) {
	var row applicationRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+applicationColumns+` FROM gig_applications a WHERE a.id = $1`, id); err != nil {
		return nil, notFoundOr(err, apperror.ErrApplicationNotFound, "не удалось получить отклик")
	}
	return row.toEntity()
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, app *entity.GigApplication, from valueobject.ApplicationStatus) error {
	return updateApplicationStatus(ctx, r.db, app, from)
}

// updateApplicationStatus применяет условное обновление: строка меняется, только если статус всё ещё from.
func updateApplicationStatus(ctx context.Context, exec sqlx.ExecerContext, app *entity.GigApplication, from valueobject.ApplicationStatus) error {
	res, err := exec.ExecContext(ctx, `UPDATE gig_applications
		SET status = $3, rejection_reason = $4, updated_at = $5
		WHERE id = $1 AND status = $2`,
		app.ID, string(from), string(app.Status), app.RejectionReason, app.UpdatedAt)
	if err != nil {
		return classify(err, "не удалось обновить отклик", nil)
	}
	return requireAffected(res, apperror.InvalidTransition("статус отклика уже изменился"))
}

func (r *ApplicationRepository) ListByGig(ctx context.Context, gigID uuid.UUID, status *valueobject.ApplicationStatus) ([]*repository.ApplicationView, error) {
	return r.list(ctx, "a.gig_id = $1", gigID, status)
}

func (r *ApplicationRepository) ListByUser(ctx context.Context, userID uuid.UUID, status *valueobject.ApplicationStatus) ([]*repository.ApplicationView, error) {
	return r.list(ctx, "a.user_id = $1", userID, status)
}

func (r *ApplicationRepository) list(ctx context.Context, cond string, id uuid.UUID, status *valueobject.ApplicationStatus) ([]*repository.ApplicationView, error) {
	var statusArg sql.NullString
	if status != nil {
		statusArg = sql.NullString{String: string(*status), Valid: true}
	}
	var rows []applicationRow
	query := `SELECT ` + applicationColumns + ` FROM gig_applications a
		WHERE ` + cond + ` AND ($2::text IS NULL OR a.status = $2)
		ORDER BY a.created_at DESC, a.id`
	if err := r.db.SelectContext(ctx, &rows, query, id, statusArg); err != nil {
		return nil, classify(err, "не удалось получить отклики", nil)
	}
	return r.views(ctx, rows)
}

func (r *ApplicationRepository) FindView(ctx context.Context, id uuid.UUID) (*repository.ApplicationView, error) {
	var row applicationRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+applicationColumns+` FROM gig_applications a WHERE a.id = $1`, id); err != nil {
		return nil, notFoundOr(err, apperror.ErrApplicationNotFound, "не удалось получить отклик")
	}
	views, err := r.views(ctx, []applicationRow{row})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

// views дозагружает смены, исполнителей и отзывы тремя запросами на весь список.
// Удалённые смены тоже подгружаются: история откликов должна их показывать.
func (r *ApplicationRepository) views(ctx context.Context, rows []applicationRow) ([]*repository.ApplicationView, error) {
	views := make([]*repository.ApplicationView, 0, len(rows))
	if len(rows) == 0 {
		return views, nil
	}

	gigIDs := make([]uuid.UUID, 0, len(rows))
	userIDs := make([]uuid.UUID, 0, len(rows))
	appIDs := make([]uuid.UUID, 0, len(rows))
	for i := range rows {
		gigIDs = append(gigIDs, rows[i].GigID)
		userIDs = append(userIDs, rows[i].UserID)
		appIDs = append(appIDs, rows[i].ID)
	}

	var gigRows []gigRow
	if err := r.db.SelectContext(ctx, &gigRows,
		`SELECT `+gigColumns+` FROM gigs g WHERE g.id = ANY($1::uuid[])`, pq.Array(uuidStrings(gigIDs))); err != nil {
		return nil, classify(err, "не удалось получить смены откликов", nil)
	}
	gigs := make(map[uuid.UUID]*entity.Gig, len(gigRows))
	for i := range gigRows {
		g, err := gigRows[i].toEntity()
		if err != nil {
			return nil, err
		}
		gigs[g.ID] = g
	}

	var userRows []userRow
	if err := r.db.SelectContext(ctx, &userRows,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1::uuid[])`, pq.Array(uuidStrings(userIDs))); err != nil {
		return nil, classify(err, "не удалось получить исполнителей", nil)
	}
	users := make(map[uuid.UUID]*entity.User, len(userRows))
	for i := range userRows {
		users[userRows[i].ID] = userRows[i].toEntity()
	}

	var reviewRows []reviewRow
	if err := r.db.SelectContext(ctx, &reviewRows,
		`SELECT `+reviewColumns+` FROM gig_reviews WHERE gig_application_id = ANY($1::uuid[])`, pq.Array(uuidStrings(appIDs))); err != nil {
		return nil, classify(err, "не удалось получить отзывы", nil)
	}
	reviews := make(map[uuid.UUID]*entity.GigReview, len(reviewRows))
	for i := range reviewRows {
		reviews[reviewRows[i].GigApplicationID] = reviewRows[i].toEntity()
	}

	for i := range rows {
		app, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		views = append(views, &repository.ApplicationView{
			Application: app,
			Gig:         gigs[app.GigID],
			Applicant:   users[app.UserID],
			Review:      reviews[app.ID],
		})
	}
	return views, nil
}

func (r *ApplicationRepository) CountByStatus(ctx context.Context, userID uuid.UUID) (map[valueobject.ApplicationStatus]int, error) {
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := r.db.SelectContext(ctx, &rows,
		`SELECT status, COUNT(*) AS count FROM gig_applications WHERE user_id = $1 GROUP BY status`, userID); err != nil {
		return nil, classify(err, "не удалось посчитать отклики", nil)
	}
	counts := make(map[valueobject.ApplicationStatus]int, len(rows))
	for _, row := range rows {
		counts[valueobject.ApplicationStatus(row.Status)] = row.Count
	}
	return counts, nil
}

func (r *ApplicationRepository) CompletedSummary(ctx context.Context, userID uuid.UUID) (*repository.CompletedSummary, error) {
	var row struct {
		CompletedCount int             `db:"completed_count"`
		TotalEarnings  float64         `db:"total_earnings"`
		AverageRating  sql.NullFloat64 `db:"average_rating"`
	}
	// Без отзыва заработок берётся из оплаты смены за вычетом удержания.
	query := `SELECT COUNT(*) AS completed_count,
			COALESCE(SUM(COALESCE(rv.earnings,
				ROUND(g.pay - ROUND(g.pay * g.app_saving_percent / 100.0, 2), 2))), 0)::float8 AS total_earnings,
			AVG(rv.rating)::float8 AS average_rating
		FROM gig_applications a
		JOIN gigs g ON g.id = a.gig_id
		LEFT JOIN gig_reviews rv ON rv.gig_application_id = a.id
		WHERE a.user_id = $1 AND a.status = 'completed'`
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		return nil, classify(err, "не удалось посчитать итоги", nil)
	}
	summary := &repository.CompletedSummary{
		CompletedCount: row.CompletedCount,
		TotalEarnings:  valueobject.Round2(row.TotalEarnings),
	}
	if row.AverageRating.Valid {
		avg := valueobject.Round2(row.AverageRating.Float64)
		summary.AverageRating = &avg
	}
	return summary, nil
}

type applicationRow struct {
	ID                       uuid.UUID      `db:"id"`
	GigID                    uuid.UUID      `db:"gig_id"`
	UserID                   uuid.UUID      `db:"user_id"`
	Status                   string         `db:"status"`
	RequirementConfirmations []byte         `db:"requirement_confirmations"`
	RejectionReason          sql.NullString `db:"rejection_reason"`
	CreatedAt                time.Time      `db:"created_at"`
	UpdatedAt                time.Time      `db:"updated_at"`
}

func (a *applicationRow) toEntity() (*entity.GigApplication, error) {
	app := &entity.GigApplication{
		ID:              a.ID,
		GigID:           a.GigID,
		UserID:          a.UserID,
		Status:          valueobject.ApplicationStatus(a.Status),
		RejectionReason: nullString(a.RejectionReason),
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	}
	if len(a.RequirementConfirmations) > 0 {
		if err := json.Unmarshal(a.RequirementConfirmations, &app.RequirementConfirmations); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждены подтверждения отклика")
		}
	}
	return app, nil
}
