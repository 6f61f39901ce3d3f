package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
)

type BookmarkRepository struct {
	db *sqlx.DB
}

var _ repository.BookmarkRepository = (*BookmarkRepository)(nil)

func NewBookmarkRepository(db *sqlx.DB) *BookmarkRepository {
	return &BookmarkRepository{db: db}
}

func (r *BookmarkRepository) Toggle(ctx context.Context, b *entity.GigBookmark) (bool, error) {
	var bookmarked bool
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM gig_bookmarks WHERE user_id = $1 AND gig_id = $2`, b.UserID, b.GigID)
		if err != nil {
			return classify(err, "не удалось обновить закладку", nil)
		}
		removed, err := res.RowsAffected()
		if err != nil {
			return classify(err, "не удалось обновить закладку", nil)
		}
		if removed > 0 {
			return nil
		}
		_, err = tx.ExecContext(ctx, `INSERT INTO gig_bookmarks (id, user_id, gig_id, created_at)
			VALUES ($1, $2, $3, $4) ON CONFLICT (user_id, gig_id) DO NOTHING`, b.ID, b.UserID, b.GigID, b.CreatedAt)
		if err != nil {
			return classify(err, "не удалось добавить закладку", nil)
		}
		bookmarked = true
		return nil
	})
	return bookmarked, err
}

func (r *BookmarkRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*repository.BookmarkView, error) {
	var rows []struct {
		gigViewRow
		BookmarkID        uuid.UUID `db:"bookmark_id"`
		BookmarkCreatedAt time.Time `db:"bookmark_created_at"`
	}
	query := `SELECT ` + gigColumns + `, ` + gigViewColumns("$1", "NULL::float8") + `,
			b.id AS bookmark_id, b.created_at AS bookmark_created_at
		FROM gig_bookmarks b
		JOIN gigs g ON g.id = b.gig_id AND g.deleted_at IS NULL
		WHERE b.user_id = $1
		ORDER BY b.created_at DESC, b.id`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, classify(err, "не удалось получить закладки", nil)
	}
	views := make([]*repository.BookmarkView, 0, len(rows))
	for i := range rows {
		gig, err := rows[i].toView()
		if err != nil {
			return nil, err
		}
		views = append(views, &repository.BookmarkView{
			Bookmark: &entity.GigBookmark{
				ID:        rows[i].BookmarkID,
				UserID:    userID,
				GigID:     gig.Gig.ID,
				CreatedAt: rows[i].BookmarkCreatedAt,
			},
			Gig: gig,
		})
	}
	return views, nil
}
