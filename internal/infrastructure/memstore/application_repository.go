package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

type ApplicationRepository struct {
	s *Store
}

var _ repository.ApplicationRepository = (*ApplicationRepository)(nil)

func (r *ApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.GigApplication, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.apps[id]
	if !ok {
		return nil, apperror.ErrApplicationNotFound
	}
	return cloneApp(a), nil
}

func (r *ApplicationRepository) UpdateStatus(ctx context.Context, app *entity.GigApplication, from valueobject.ApplicationStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.apps[app.ID]
	if !ok {
		return apperror.ErrApplicationNotFound
	}
	if stored.Status != from {
		return apperror.InvalidTransition("статус отклика уже изменился")
	}
	r.s.apps[app.ID] = cloneApp(app)
	return nil
}

func (s *Store) appViewLocked(a *entity.GigApplication) *repository.ApplicationView {
	v := &repository.ApplicationView{Application: cloneApp(a)}
	if g, ok := s.gigs[a.GigID]; ok {
		v.Gig = cloneGig(g)
	}
	if u, ok := s.users[a.UserID]; ok {
		cp := *u
		v.Applicant = &cp
	}
	if rv, ok := s.reviews[a.ID]; ok {
		cp := *rv
		v.Review = &cp
	}
	return v
}

func (r *ApplicationRepository) list(keep func(a *entity.GigApplication) bool) []*repository.ApplicationView {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var views []*repository.ApplicationView
	for _, a := range r.s.apps {
		if keep(a) {
			views = append(views, r.s.appViewLocked(a))
		}
	}
	sortNewestFirst(views, func(v *repository.ApplicationView) time.Time { return v.Application.CreatedAt })
	return views
}

func (r *ApplicationRepository) ListByGig(ctx context.Context, gigID uuid.UUID, status *valueobject.ApplicationStatus) ([]*repository.ApplicationView, error) {
	return r.list(func(a *entity.GigApplication) bool {
		return a.GigID == gigID && (status == nil || a.Status == *status)
	}), nil
}

func (r *ApplicationRepository) ListByUser(ctx context.Context, userID uuid.UUID, status *valueobject.ApplicationStatus) ([]*repository.ApplicationView, error) {
	return r.list(func(a *entity.GigApplication) bool {
		return a.UserID == userID && (status == nil || a.Status == *status)
	}), nil
}

func (r *ApplicationRepository) FindView(ctx context.Context, id uuid.UUID) (*repository.ApplicationView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.apps[id]
	if !ok {
		return nil, apperror.ErrApplicationNotFound
	}
	return r.s.appViewLocked(a), nil
}

func (r *ApplicationRepository) CountByStatus(ctx context.Context, userID uuid.UUID) (map[valueobject.ApplicationStatus]int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	counts := make(map[valueobject.ApplicationStatus]int)
	for _, a := range r.s.apps {
		if a.UserID == userID {
			counts[a.Status]++
		}
	}
	return counts, nil
}

func (r *ApplicationRepository) CompletedSummary(ctx context.Context, userID uuid.UUID) (*repository.CompletedSummary, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	summary := &repository.CompletedSummary{}
	var ratingSum, rated int
	for _, a := range r.s.apps {
		if a.UserID != userID || a.Status != valueobject.ApplicationStatusCompleted {
			continue
		}
		summary.CompletedCount++
		if rv, ok := r.s.reviews[a.ID]; ok {
			summary.TotalEarnings += rv.Earnings
			ratingSum += rv.Rating
			rated++
		} else if g, ok := r.s.gigs[a.GigID]; ok {
			summary.TotalEarnings += g.Pay.FreelancerPay()
		}
	}
	summary.TotalEarnings = valueobject.Round2(summary.TotalEarnings)
	if rated > 0 {
		avg := valueobject.Round2(float64(ratingSum) / float64(rated))
		summary.AverageRating = &avg
	}
	return summary, nil
}
