package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

// notificationBatchSize ограничивает число строк в одном INSERT при рассылке.
const notificationBatchSize = 500

type NotificationRepository struct {
	db *sqlx.DB
}

var _ repository.NotificationRepository = (*NotificationRepository)(nil)

func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const notificationInsert = `INSERT INTO notifications (id, user_id, type, title, body, data, is_read, read_at, created_at)`

func notificationValues(n *entity.Notification) ([]interface{}, error) {
	data, err := json.Marshal(n.Data)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось закодировать уведомление")
	}
	if n.Data == nil {
		data = []byte("{}")
	}
	return []interface{}{n.ID, n.UserID, n.Type, n.Title, n.Body, data, n.IsRead, n.ReadAt, n.CreatedAt}, nil
}

func (r *NotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	values, err := notificationValues(n)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, notificationInsert+` VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`, values...)
	return classify(err, "не удалось сохранить уведомление", nil)
}

func (r *NotificationRepository) CreateBatch(ctx context.Context, items []*entity.Notification) error {
	if len(items) == 0 {
		return nil
	}
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		bi := NewBatchInserter(tx, notificationInsert, "", 9, notificationBatchSize)
		for _, n := range items {
			values, err := notificationValues(n)
			if err != nil {
				return err
			}
			if err := bi.Add(ctx, values...); err != nil {
				return err
			}
		}
		return bi.Flush(ctx)
	})
}

const notificationColumns = `id, user_id, type, title, body, data, is_read, read_at, created_at`

func (r *NotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error) {
	var row notificationRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id); err != nil {
		return nil, notFoundOr(err, apperror.ErrNotificationNotFound, "не удалось получить уведомление")
	}
	return row.toEntity()
}

func (r *NotificationRepository) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	var rows []notificationRow
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR NOT is_read)
		ORDER BY created_at DESC, id
		LIMIT $3 OFFSET $4`
	if err := r.db.SelectContext(ctx, &rows, query, userID, unreadOnly, limit, offset); err != nil {
		return nil, classify(err, "не удалось получить уведомления", nil)
	}
	items := make([]*entity.Notification, 0, len(rows))
	for i := range rows {
		n, err := rows[i].toEntity()
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND NOT is_read`, userID); err != nil {
		return 0, classify(err, "не удалось посчитать уведомления", nil)
	}
	return n, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE, read_at = COALESCE(read_at, $2) WHERE id = $1`, id, at)
	if err != nil {
		return classify(err, "не удалось отметить уведомление", nil)
	}
	return requireAffected(res, apperror.ErrNotificationNotFound)
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE, read_at = $2 WHERE user_id = $1 AND NOT is_read`, userID, at)
	if err != nil {
		return 0, classify(err, "не удалось отметить уведомления", nil)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, classify(err, "не удалось отметить уведомления", nil)
	}
	return n, nil
}

type notificationRow struct {
	ID        uuid.UUID    `db:"id"`
	UserID    uuid.UUID    `db:"user_id"`
	Type      string       `db:"type"`
	Title     string       `db:"title"`
	Body      string       `db:"body"`
	Data      []byte       `db:"data"`
	IsRead    bool         `db:"is_read"`
	ReadAt    sql.NullTime `db:"read_at"`
	CreatedAt time.Time    `db:"created_at"`
}

func (n *notificationRow) toEntity() (*entity.Notification, error) {
	item := &entity.Notification{
		ID:        n.ID,
		UserID:    n.UserID,
		Type:      n.Type,
		Title:     n.Title,
		Body:      n.Body,
		IsRead:    n.IsRead,
		ReadAt:    nullTime(n.ReadAt),
		CreatedAt: n.CreatedAt,
	}
	if len(n.Data) > 0 {
		if err := json.Unmarshal(n.Data, &item.Data); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "повреждены данные уведомления")
		}
	}
	return item, nil
}

type ReportRepository struct {
	db *sqlx.DB
}

var _ repository.ReportRepository = (*ReportRepository)(nil)

func NewReportRepository(db *sqlx.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

func (r *ReportRepository) Create(ctx context.Context, rep *entity.Report) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO reports (id, reporter_id, reportable_type, reportable_id, reason, details, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rep.ID, rep.ReporterID, rep.Target.TargetType(), rep.Target.TargetID(), string(rep.Reason), rep.Details,
		string(rep.Status), rep.CreatedAt)
	return classify(err, "не удалось сохранить жалобу", nil)
}

func (r *ReportRepository) ListByReporter(ctx context.Context, reporterID uuid.UUID) ([]*entity.Report, error) {
	var rows []struct {
		ID             uuid.UUID      `db:"id"`
		ReporterID     uuid.UUID      `db:"reporter_id"`
		ReportableType string         `db:"reportable_type"`
		ReportableID   uuid.UUID      `db:"reportable_id"`
		Reason         string         `db:"reason"`
		Details        sql.NullString `db:"details"`
		Status         string         `db:"status"`
		CreatedAt      time.Time      `db:"created_at"`
	}
	query := `SELECT id, reporter_id, reportable_type, reportable_id, reason, details, status, created_at
		FROM reports WHERE reporter_id = $1 ORDER BY created_at DESC, id`
	if err := r.db.SelectContext(ctx, &rows, query, reporterID); err != nil {
		return nil, classify(err, "не удалось получить жалобы", nil)
	}
	reports := make([]*entity.Report, 0, len(rows))
	for _, row := range rows {
		target, err := entity.NewReportable(row.ReportableType, row.ReportableID)
		if err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeDatabaseError, "неизвестный тип объекта жалобы")
		}
		reports = append(reports, &entity.Report{
			ID:         row.ID,
			ReporterID: row.ReporterID,
			Target:     target,
			Reason:     valueobject.ReportReason(row.Reason),
			Details:    nullString(row.Details),
			Status:     valueobject.ReportStatus(row.Status),
			CreatedAt:  row.CreatedAt,
		})
	}
	return reports, nil
}
