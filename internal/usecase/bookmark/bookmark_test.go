package bookmark_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/infrastructure/memstore"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/bookmark"
)

func TestToggleBookmark_Twice(t *testing.T) {
	store := memstore.New()
	gig := &entity.Gig{
		ID:            uuid.New(),
		EmployerID:    uuid.New(),
		Title:         "Промоутер",
		Status:        valueobject.GigStatusOpen,
		StartAt:       time.Now().Add(24 * time.Hour),
		EndAt:         time.Now().Add(28 * time.Hour),
		WorkersNeeded: 2,
	}
	store.PutGig(gig)
	user := uuid.New()
	ctx := context.Background()

	toggle := bookmark.NewToggleBookmarkUseCase(store.Bookmarks(), store.Gigs())
	list := bookmark.NewListMyBookmarksUseCase(store.Bookmarks())

	on, err := toggle.Execute(ctx, user, gig.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !on {
		t.Fatal("expected bookmark to be added")
	}

	views, err := list.Execute(ctx, user)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 1 || views[0].Gig.Gig.ID != gig.ID {
		t.Fatalf("expected one bookmarked gig, got %+v", views)
	}

	on, err = toggle.Execute(ctx, user, gig.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if on {
		t.Error("expected bookmark to be removed")
	}
	views, _ = list.Execute(ctx, user)
	if len(views) != 0 {
		t.Errorf("expected empty list, got %d", len(views))
	}
}

func TestToggleBookmark_UnknownGig(t *testing.T) {
	store := memstore.New()
	toggle := bookmark.NewToggleBookmarkUseCase(store.Bookmarks(), store.Gigs())

	_, err := toggle.Execute(context.Background(), uuid.New(), uuid.New())
	if !apperror.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}
