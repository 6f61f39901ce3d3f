package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
)

type RevokedTokenRepository struct {
	db *sqlx.DB
}

var _ repository.RevokedTokenRepository = (*RevokedTokenRepository)(nil)

func NewRevokedTokenRepository(db *sqlx.DB) *RevokedTokenRepository {
	return &RevokedTokenRepository{db: db}
}

// Revoke заодно удаляет истёкшие записи пользователя: после expires_at токен и так не пройдёт проверку.
func (r *RevokedTokenRepository) Revoke(ctx context.Context, tokenID string, userID uuid.UUID, expiresAt time.Time) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM revoked_tokens WHERE user_id = $1 AND expires_at < NOW()`, userID); err != nil {
			return classify(err, "не удалось очистить отозванные токены", nil)
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO revoked_tokens (token_id, user_id, expires_at)
			VALUES ($1, $2, $3) ON CONFLICT (token_id) DO NOTHING`, tokenID, userID, expiresAt)
		return classify(err, "не удалось отозвать токен", nil)
	})
}

func (r *RevokedTokenRepository) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	var revoked bool
	if err := r.db.GetContext(ctx, &revoked,
		`SELECT EXISTS (SELECT 1 FROM revoked_tokens WHERE token_id = $1)`, tokenID); err != nil {
		return false, classify(err, "не удалось проверить токен", nil)
	}
	return revoked, nil
}
