package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
)

type BookmarkRepository interface {
	// Toggle удаляет закладку, если она есть, иначе создаёт; возвращает итоговое наличие.
	Toggle(ctx context.Context, bookmark *entity.GigBookmark) (bool, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*BookmarkView, error)
}

type BookmarkView struct {
	Bookmark *entity.GigBookmark
	Gig      *GigView
}
