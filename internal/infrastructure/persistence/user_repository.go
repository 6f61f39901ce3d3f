package persistence

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

var errEmailTaken = apperror.New(apperror.ErrCodeConflict, "пользователь с таким email уже зарегистрирован")

type UserRepository struct {
	db *sqlx.DB
}

var (
	_ repository.UserRepository         = (*UserRepository)(nil)
	_ repository.VerificationRepository = (*UserRepository)(nil)
)

func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, password_hash, first_name, last_name, role, phone_number,
	profile_image_url, is_active, email_verified_at, phone_verified_at, last_login_at, created_at, updated_at`

func (r *UserRepository) Create(ctx context.Context, u *entity.User) error {
	query := `INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.db.ExecContext(ctx, query,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, string(u.Role), u.PhoneNumber,
		u.ProfileImageURL, u.IsActive, u.EmailVerifiedAt, u.PhoneVerifiedAt, u.LastLoginAt, u.CreatedAt, u.UpdatedAt,
	)
	return classify(err, "не удалось создать пользователя", errEmailTaken)
}

func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1`, id); err != nil {
		return nil, notFoundOr(err, apperror.ErrUserNotFound, "не удалось получить пользователя")
	}
	return row.toEntity(), nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	var row userRow
	if err := r.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE email = $1`, email); err != nil {
		return nil, notFoundOr(err, apperror.ErrUserNotFound, "не удалось получить пользователя")
	}
	return row.toEntity(), nil
}

func (r *UserRepository) List(ctx context.Context, role *valueobject.Role, limit, offset int) ([]*entity.User, int, error) {
	var roleArg sql.NullString
	if role != nil {
		roleArg = sql.NullString{String: string(*role), Valid: true}
	}

	var total int
	if err := r.db.GetContext(ctx, &total,
		`SELECT COUNT(*) FROM users WHERE ($1::text IS NULL OR role = $1)`, roleArg); err != nil {
		return nil, 0, classify(err, "не удалось посчитать пользователей", nil)
	}

	var rows []userRow
	query := `SELECT ` + userColumns + ` FROM users
		WHERE ($1::text IS NULL OR role = $1)
		ORDER BY created_at DESC, id
		LIMIT $2 OFFSET $3`
	if err := r.db.SelectContext(ctx, &rows, query, roleArg, limit, offset); err != nil {
		return nil, 0, classify(err, "не удалось получить пользователей", nil)
	}
	users := make([]*entity.User, len(rows))
	for i := range rows {
		users[i] = rows[i].toEntity()
	}
	return users, total, nil
}

func (r *UserRepository) FindFreelancersBySkills(ctx context.Context, skillIDs []uuid.UUID, exclude uuid.UUID) ([]uuid.UUID, error) {
	if len(skillIDs) == 0 {
		return nil, nil
	}
	var ids []uuid.UUID
	query := `SELECT DISTINCT u.id
		FROM users u
		JOIN user_skills us ON us.user_id = u.id
		WHERE u.role = 'freelancer' AND u.is_active AND u.id <> $2
		  AND us.skill_id = ANY($1::uuid[])`
	if err := r.db.SelectContext(ctx, &ids, query, pq.Array(uuidStrings(skillIDs)), exclude); err != nil {
		return nil, classify(err, "не удалось подобрать исполнителей", nil)
	}
	return ids, nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE users SET last_login_at = $2 WHERE id = $1`, id, at)
	return classify(err, "не удалось обновить время входа", nil)
}

// SaveVerification сохраняет телефон и отметки подтверждения.
func (r *UserRepository) SaveVerification(ctx context.Context, u *entity.User) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users
		SET phone_number = $2, email_verified_at = $3, phone_verified_at = $4, updated_at = $5
		WHERE id = $1`,
		u.ID, u.PhoneNumber, u.EmailVerifiedAt, u.PhoneVerifiedAt, u.UpdatedAt)
	if err != nil {
		return classify(err, "не удалось сохранить подтверждение", nil)
	}
	return requireAffected(res, apperror.ErrUserNotFound)
}

type userRow struct {
	ID              uuid.UUID      `db:"id"`
	Email           string         `db:"email"`
	PasswordHash    string         `db:"password_hash"`
	FirstName       string         `db:"first_name"`
	LastName        string         `db:"last_name"`
	Role            string         `db:"role"`
	PhoneNumber     sql.NullString `db:"phone_number"`
	ProfileImageURL sql.NullString `db:"profile_image_url"`
	IsActive        bool           `db:"is_active"`
	EmailVerifiedAt sql.NullTime   `db:"email_verified_at"`
	PhoneVerifiedAt sql.NullTime   `db:"phone_verified_at"`
	LastLoginAt     sql.NullTime   `db:"last_login_at"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
}

func (u *userRow) toEntity() *entity.User {
	return &entity.User{
		ID:              u.ID,
		Email:           u.Email,
		PasswordHash:    u.PasswordHash,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            valueobject.Role(u.Role),
		PhoneNumber:     nullString(u.PhoneNumber),
		ProfileImageURL: nullString(u.ProfileImageURL),
		IsActive:        u.IsActive,
		EmailVerifiedAt: nullTime(u.EmailVerifiedAt),
		PhoneVerifiedAt: nullTime(u.PhoneVerifiedAt),
		LastLoginAt:     nullTime(u.LastLoginAt),
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

// ProfileRepository хранит профиль исполнителя; рейтинг и счётчики считаются по отзывам и взысканиям.
type ProfileRepository struct {
	db *sqlx.DB
}

var _ repository.ProfileRepository = (*ProfileRepository)(nil)

func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

func (r *ProfileRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*entity.FreelancerProfile, error) {
	now := time.Now().UTC()
	_, err := r.db.ExecContext(ctx, `INSERT INTO freelancer_profiles (user_id, created_at, updated_at)
		VALUES ($1, $2, $2) ON CONFLICT (user_id) DO NOTHING`, userID, now)
	if err != nil {
		return nil, classify(err, "не удалось создать профиль", nil)
	}

	var row profileRow
	query := `SELECT p.user_id, p.bio, p.resume_url, p.resume_uploaded_at, p.availability,
			p.available_today, p.created_at, p.updated_at,
			(SELECT ROUND(AVG(rv.rating)::numeric, 2)::float8 FROM gig_reviews rv WHERE rv.freelancer_id = p.user_id) AS avg_rating,
			(SELECT COUNT(*) FROM gig_applications a WHERE a.user_id = p.user_id AND a.status = 'completed') AS completed_gigs,
			(SELECT COUNT(*) FROM penalties pn WHERE pn.user_id = p.user_id) AS no_shows
		FROM freelancer_profiles p
		WHERE p.user_id = $1`
	if err := r.db.GetContext(ctx, &row, query, userID); err != nil {
		return nil, notFoundOr(err, apperror.ErrUserNotFound, "не удалось получить профиль")
	}
	return row.toEntity(), nil
}

func (r *ProfileRepository) Update(ctx context.Context, p *entity.FreelancerProfile) error {
	query := `UPDATE freelancer_profiles
		SET bio = $2, resume_url = $3, resume_uploaded_at = $4, availability = $5,
			available_today = $6, updated_at = $7
		WHERE user_id = $1`
	res, err := r.db.ExecContext(ctx, query,
		p.UserID, p.Bio, p.ResumeURL, p.ResumeUploadedAt, p.Availability, p.AvailableToday, p.UpdatedAt)
	if err != nil {
		return classify(err, "не удалось обновить профиль", nil)
	}
	return requireAffected(res, apperror.ErrUserNotFound)
}

type profileRow struct {
	UserID           uuid.UUID       `db:"user_id"`
	Bio              sql.NullString  `db:"bio"`
	ResumeURL        sql.NullString  `db:"resume_url"`
	ResumeUploadedAt sql.NullTime    `db:"resume_uploaded_at"`
	Availability     sql.NullString  `db:"availability"`
	AvailableToday   bool            `db:"available_today"`
	AvgRating        sql.NullFloat64 `db:"avg_rating"`
	CompletedGigs    int             `db:"completed_gigs"`
	NoShows          int             `db:"no_shows"`
	CreatedAt        time.Time       `db:"created_at"`
	UpdatedAt        time.Time       `db:"updated_at"`
}

func (p *profileRow) toEntity() *entity.FreelancerProfile {
	return &entity.FreelancerProfile{
		UserID:           p.UserID,
		Bio:              nullString(p.Bio),
		ResumeURL:        nullString(p.ResumeURL),
		ResumeUploadedAt: nullTime(p.ResumeUploadedAt),
		Availability:     nullString(p.Availability),
		AvailableToday:   p.AvailableToday,
		AvgRating:        nullFloat(p.AvgRating),
		CompletedGigs:    p.CompletedGigs,
		NoShows:          p.NoShows,
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
}
