package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

type BookmarkRepository struct {
	s *Store
}

var _ repository.BookmarkRepository = (*BookmarkRepository)(nil)

func (r *BookmarkRepository) Toggle(ctx context.Context, b *entity.GigBookmark) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	key := bookmarkKey{userID: b.UserID, gigID: b.GigID}
	if _, ok := r.s.bookmarks[key]; ok {
		delete(r.s.bookmarks, key)
		return false, nil
	}
	cp := *b
	r.s.bookmarks[key] = &cp
	return true, nil
}

func (r *BookmarkRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*repository.BookmarkView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var views []*repository.BookmarkView
	for key, b := range r.s.bookmarks {
		if key.userID != userID {
			continue
		}
		g, ok := r.s.gigs[key.gigID]
		if !ok || g.IsDeleted() {
			continue
		}
		cp := *b
		views = append(views, &repository.BookmarkView{Bookmark: &cp, Gig: r.s.viewLocked(g, userID, nil)})
	}
	sortNewestFirst(views, func(v *repository.BookmarkView) time.Time { return v.Bookmark.CreatedAt })
	return views, nil
}

type ReviewRepository struct {
	s *Store
}

var _ repository.ReviewRepository = (*ReviewRepository)(nil)

func (r *ReviewRepository) Create(ctx context.Context, review *entity.GigReview) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.reviews[review.GigApplicationID]; ok {
		return apperror.ErrDuplicateReview
	}
	cp := *review
	r.s.reviews[review.GigApplicationID] = &cp
	return nil
}

func (r *ReviewRepository) FindByApplication(ctx context.Context, applicationID uuid.UUID) (*entity.GigReview, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	rv, ok := r.s.reviews[applicationID]
	if !ok {
		return nil, apperror.New(apperror.ErrCodeNotFound, "отзыв не найден")
	}
	cp := *rv
	return &cp, nil
}
