package bookmark

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
)

type ToggleBookmarkUseCase struct {
	bookmarkRepo repository.BookmarkRepository
	gigRepo      repository.GigRepository
}

func NewToggleBookmarkUseCase(bookmarkRepo repository.BookmarkRepository, gigRepo repository.GigRepository) *ToggleBookmarkUseCase {
	return &ToggleBookmarkUseCase{bookmarkRepo: bookmarkRepo, gigRepo: gigRepo}
}

// Execute возвращает true, если после вызова смена в закладках.
func (uc *ToggleBookmarkUseCase) Execute(ctx context.Context, userID, gigID uuid.UUID) (bool, error) {
	if _, err := uc.gigRepo.FindByID(ctx, gigID); err != nil {
		return false, err
	}
	return uc.bookmarkRepo.Toggle(ctx, entity.NewGigBookmark(userID, gigID, time.Now()))
}

type ListMyBookmarksUseCase struct {
	bookmarkRepo repository.BookmarkRepository
}

func NewListMyBookmarksUseCase(bookmarkRepo repository.BookmarkRepository) *ListMyBookmarksUseCase {
	return &ListMyBookmarksUseCase{bookmarkRepo: bookmarkRepo}
}

func (uc *ListMyBookmarksUseCase) Execute(ctx context.Context, userID uuid.UUID) ([]*repository.BookmarkView, error) {
	return uc.bookmarkRepo.ListByUser(ctx, userID)
}
