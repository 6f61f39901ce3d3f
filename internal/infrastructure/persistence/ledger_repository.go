package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

type ReviewRepository struct {
	db *sqlx.DB
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

const reviewColumns = `id, gig_application_id, gig_id, employer_id, freelancer_id, rating, review, earnings, created_at`

func (r *ReviewRepository) Create(ctx context.Context, rv *entity.GigReview) error {
	query := `INSERT INTO gig_reviews (` + reviewColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query, rv.ID, rv.GigApplicationID, rv.GigID, rv.EmployerID, rv.FreelancerID,
		rv.Rating, rv.Review, rv.Earnings, rv.CreatedAt)
	return classify(err, "не удалось сохранить отзыв", apperror.ErrDuplicateReview)
}

func (r *ReviewRepository) FindByApplication(ctx context.Context, applicationID uuid.UUID) (*entity.GigReview, error) {
	var row reviewRow
	err := r.db.GetContext(ctx, &row, `SELECT `+reviewColumns+` FROM gig_reviews WHERE gig_application_id = $1`, applicationID)
	if err != nil {
		return nil, notFoundOr(err, apperror.New(apperror.ErrCodeNotFound, "отзыв не найден"), "не удалось получить отзыв")
	}
	return row.toEntity(), nil
}

type reviewRow struct {
	ID               uuid.UUID      `db:"id"`
	GigApplicationID uuid.UUID      `db:"gig_application_id"`
	GigID            uuid.UUID      `db:"gig_id"`
	EmployerID       uuid.UUID      `db:"employer_id"`
	FreelancerID     uuid.UUID      `db:"freelancer_id"`
	Rating           int            `db:"rating"`
	Review           sql.NullString `db:"review"`
	Earnings         float64        `db:"earnings"`
	CreatedAt        time.Time      `db:"created_at"`
}

func (r *reviewRow) toEntity() *entity.GigReview {
	return &entity.GigReview{
		ID:               r.ID,
		GigApplicationID: r.GigApplicationID,
		GigID:            r.GigID,
		EmployerID:       r.EmployerID,
		FreelancerID:     r.FreelancerID,
		Rating:           r.Rating,
		Review:           nullString(r.Review),
		Earnings:         r.Earnings,
		CreatedAt:        r.CreatedAt,
	}
}

type PenaltyRepository struct {
	db *sqlx.DB
}

var _ repository.PenaltyRepository = (*PenaltyRepository)(nil)

func NewPenaltyRepository(db *sqlx.DB) *PenaltyRepository {
	return &PenaltyRepository{db: db}
}

func (r *PenaltyRepository) Create(ctx context.Context, p *entity.Penalty) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO penalties (id, user_id, gig_id, issued_by, reason, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		p.ID, p.UserID, p.GigID, p.IssuedBy, p.Reason, p.Description, p.CreatedAt)
	return classify(err, "не удалось сохранить взыскание", nil)
}

// Компания смены берётся из имени работодателя.
const penaltyViewQuery = `SELECT p.id, p.user_id, p.gig_id, p.issued_by, p.reason, p.description, p.created_at,
		ap.id AS appeal_id, ap.message AS appeal_message, ap.status AS appeal_status,
		ap.created_at AS appeal_created_at, ap.updated_at AS appeal_updated_at,
		g.title AS gig_title, g.start_at AS gig_start_at,
		NULLIF(TRIM(e.first_name || ' ' || e.last_name), '') AS company
	FROM penalties p
	LEFT JOIN penalty_appeals ap ON ap.penalty_id = p.id
	LEFT JOIN gigs g ON g.id = p.gig_id
	LEFT JOIN users e ON e.id = g.employer_id`

func (r *PenaltyRepository) FindByID(ctx context.Context, id uuid.UUID) (*repository.PenaltyView, error) {
	var row penaltyViewRow
	if err := r.db.GetContext(ctx, &row, penaltyViewQuery+` WHERE p.id = $1`, id); err != nil {
		return nil, notFoundOr(err, apperror.ErrPenaltyNotFound, "не удалось получить взыскание")
	}
	return row.toView(), nil
}

func (r *PenaltyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*repository.PenaltyView, error) {
	var rows []penaltyViewRow
	if err := r.db.SelectContext(ctx, &rows, penaltyViewQuery+` WHERE p.user_id = $1 ORDER BY p.created_at DESC, p.id`, userID); err != nil {
		return nil, classify(err, "не удалось получить взыскания", nil)
	}
	views := make([]*repository.PenaltyView, len(rows))
	for i := range rows {
		views[i] = rows[i].toView()
	}
	return views, nil
}

func (r *PenaltyRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM penalties WHERE user_id = $1`, userID); err != nil {
		return 0, classify(err, "не удалось посчитать взыскания", nil)
	}
	return n, nil
}

func (r *PenaltyRepository) CreateAppeal(ctx context.Context, a *entity.PenaltyAppeal) error {
	_, err := r.db.ExecContext(ctx, `INSERT INTO penalty_appeals (id, penalty_id, user_id, message, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.PenaltyID, a.UserID, a.Message, string(a.Status), a.CreatedAt, a.UpdatedAt)
	return classify(err, "не удалось подать апелляцию", apperror.ErrAlreadyAppealed)
}

type penaltyViewRow struct {
	ID              uuid.UUID      `db:"id"`
	UserID          uuid.UUID      `db:"user_id"`
	GigID           uuid.NullUUID  `db:"gig_id"`
	IssuedBy        uuid.UUID      `db:"issued_by"`
	Reason          string         `db:"reason"`
	Description     sql.NullString `db:"description"`
	CreatedAt       time.Time      `db:"created_at"`
	AppealID        uuid.NullUUID  `db:"appeal_id"`
	AppealMessage   sql.NullString `db:"appeal_message"`
	AppealStatus    sql.NullString `db:"appeal_status"`
	AppealCreatedAt sql.NullTime   `db:"appeal_created_at"`
	AppealUpdatedAt sql.NullTime   `db:"appeal_updated_at"`
	GigTitle        sql.NullString `db:"gig_title"`
	GigStartAt      sql.NullTime   `db:"gig_start_at"`
	Company         sql.NullString `db:"company"`
}

func (p *penaltyViewRow) toView() *repository.PenaltyView {
	v := &repository.PenaltyView{
		Penalty: &entity.Penalty{
			ID:          p.ID,
			UserID:      p.UserID,
			GigID:       nullUUID(p.GigID),
			IssuedBy:    p.IssuedBy,
			Reason:      p.Reason,
			Description: nullString(p.Description),
			CreatedAt:   p.CreatedAt,
		},
		GigTitle:   nullString(p.GigTitle),
		GigStartAt: nullTime(p.GigStartAt),
		Company:    nullString(p.Company),
	}
	if p.AppealID.Valid {
		v.Appeal = &entity.PenaltyAppeal{
			ID:        p.AppealID.UUID,
			PenaltyID: p.ID,
			UserID:    p.UserID,
			Message:   nullString(p.AppealMessage),
			Status:    valueobject.AppealStatus(p.AppealStatus.String),
			CreatedAt: p.AppealCreatedAt.Time,
			UpdatedAt: p.AppealUpdatedAt.Time,
		}
	}
	return v
}
