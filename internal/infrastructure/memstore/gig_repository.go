package memstore

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

type GigRepository struct {
	s *Store
}

var _ repository.GigRepository = (*GigRepository)(nil)

func (r *GigRepository) Create(ctx context.Context, g *entity.Gig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.gigs[g.ID] = cloneGig(g)
	return nil
}

func (r *GigRepository) Update(ctx context.Context, g *entity.Gig) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	stored, ok := r.s.gigs[g.ID]
	if !ok || stored.IsDeleted() {
		return apperror.ErrGigNotFound
	}
	cp := cloneGig(g)
	cp.Status = stored.Status
	cp.WorkersNeeded = stored.WorkersNeeded
	cp.DeletedAt = stored.DeletedAt
	r.s.gigs[g.ID] = cp
	return nil
}

func (r *GigRepository) SoftDelete(ctx context.Context, id uuid.UUID, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.gigs[id]
	if !ok || g.IsDeleted() {
		return apperror.ErrGigNotFound
	}
	g.Delete(at)
	return nil
}

func (r *GigRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Gig, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.gigs[id]
	if !ok || g.IsDeleted() {
		return nil, apperror.ErrGigNotFound
	}
	return cloneGig(g), nil
}

func (r *GigRepository) FindView(ctx context.Context, id, viewerID uuid.UUID) (*repository.GigView, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	g, ok := r.s.gigs[id]
	if !ok || g.IsDeleted() {
		return nil, apperror.ErrGigNotFound
	}
	return r.s.viewLocked(g, viewerID, nil), nil
}

func (s *Store) viewLocked(g *entity.Gig, viewerID uuid.UUID, near *valueobject.Coordinates) *repository.GigView {
	_, bookmarked := s.bookmarks[bookmarkKey{userID: viewerID, gigID: g.ID}]
	v := &repository.GigView{
		Gig:             cloneGig(g),
		ApplicantsCount: s.applicantsLocked(g.ID),
		AcceptedCount:   s.acceptedLocked(g.ID),
		IsBookmarked:    bookmarked,
		HasApplied:      s.hasAppliedLocked(g.ID, viewerID),
	}
	if near != nil && g.Coordinates != nil {
		d := valueobject.Round2(near.DistanceKm(*g.Coordinates))
		v.DistanceKm = &d
	}
	return v
}

func (r *GigRepository) List(ctx context.Context, f repository.GigFilter) ([]*repository.GigView, int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var views []*repository.GigView
	for _, g := range r.s.gigs {
		if !matches(g, f) {
			continue
		}
		views = append(views, r.s.viewLocked(g, f.ViewerID, f.Near))
	}
	sortNewestFirst(views, func(v *repository.GigView) time.Time { return v.Gig.CreatedAt })

	total := len(views)
	if f.Offset >= total {
		return []*repository.GigView{}, total, nil
	}
	end := total
	if f.Limit > 0 && f.Offset+f.Limit < total {
		end = f.Offset + f.Limit
	}
	return views[f.Offset:end], total, nil
}

func matches(g *entity.Gig, f repository.GigFilter) bool {
	if g.IsDeleted() {
		return false
	}
	if f.EmployerID != nil && g.EmployerID != *f.EmployerID {
		return false
	}
	if f.Status != nil && g.Status != *f.Status {
		return false
	}
	if f.Location != "" && !strings.Contains(strings.ToLower(g.Location), strings.ToLower(f.Location)) {
		return false
	}
	if f.SkillID != nil {
		found := false
		for _, id := range g.SkillIDs() {
			if id == *f.SkillID {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.MinPay != nil && g.Pay.Amount < *f.MinPay {
		return false
	}
	if f.MaxPay != nil && g.Pay.Amount > *f.MaxPay {
		return false
	}
	if f.TimeSlot != nil && !f.TimeSlot.Contains(g.StartAt.UTC().Hour()) {
		return false
	}
	if f.Near != nil {
		if g.Coordinates == nil || f.Near.DistanceKm(*g.Coordinates) > f.RadiusKm {
			return false
		}
	}
	if f.CreatedAfter != nil && g.CreatedAt.Before(*f.CreatedAfter) {
		return false
	}
	return true
}

func (r *GigRepository) WithGigLock(ctx context.Context, gigID uuid.UUID, fn func(tx repository.GigTx) error) error {
	lock := r.s.gigLock(gigID)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInfrastructure, "не удалось получить блокировку смены")
	}

	r.s.mu.Lock()
	stored, ok := r.s.gigs[gigID]
	if !ok || stored.IsDeleted() {
		r.s.mu.Unlock()
		return apperror.ErrGigNotFound
	}
	tx := &gigTx{
		s:       r.s,
		gig:     cloneGig(stored),
		created: make(map[uuid.UUID]*entity.GigApplication),
		saved:   make(map[uuid.UUID]savedApp),
	}
	r.s.mu.Unlock()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.commit()
}

func (r *GigRepository) CloseExpired(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	for _, id := range r.s.gigIDs() {
		lock := r.s.gigLock(id)
		lock.Lock()
		r.s.mu.Lock()
		g := r.s.gigs[id]
		if !g.IsDeleted() && g.Status == valueobject.GigStatusOpen && g.AutoCloseEnabled &&
			g.AutoCloseAt != nil && !g.AutoCloseAt.After(now) {
			g.Status = valueobject.GigStatusClosed
			g.UpdatedAt = now
			n++
		}
		r.s.mu.Unlock()
		lock.Unlock()
	}
	return n, nil
}

func (r *GigRepository) CompleteEnded(ctx context.Context, now time.Time) (repository.SweepResult, error) {
	var res repository.SweepResult
	for _, id := range r.s.gigIDs() {
		lock := r.s.gigLock(id)
		lock.Lock()
		r.s.mu.Lock()
		g := r.s.gigs[id]
		if !g.IsDeleted() && g.Status.IsActive() && !g.EndAt.After(now) {
			g.Status = valueobject.GigStatusCompleted
			g.UpdatedAt = now
			res.Gigs++
			for _, a := range r.s.apps {
				if a.GigID == id && a.Status == valueobject.ApplicationStatusAccepted {
					a.Status = valueobject.ApplicationStatusCompleted
					a.UpdatedAt = now
					res.Applications++
				}
			}
		}
		r.s.mu.Unlock()
		lock.Unlock()
	}
	return res, nil
}

func (s *Store) gigIDs() []uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]uuid.UUID, 0, len(s.gigs))
	for id := range s.gigs {
		ids = append(ids, id)
	}
	return ids
}

type savedApp struct {
	app  *entity.GigApplication
	from valueobject.ApplicationStatus
}

// gigTx копит изменения и применяет их разом при успешном завершении fn.
type gigTx struct {
	s            *Store
	gig          *entity.Gig
	gigDirty     bool
	detailsDirty bool
	created      map[uuid.UUID]*entity.GigApplication
	saved        map[uuid.UUID]savedApp
}

func (t *gigTx) Gig() *entity.Gig { return t.gig }

func (t *gigTx) current(id uuid.UUID) (*entity.GigApplication, bool) {
	if a, ok := t.created[id]; ok {
		return cloneApp(a), true
	}
	if sa, ok := t.saved[id]; ok {
		return cloneApp(sa.app), true
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	a, ok := t.s.apps[id]
	if !ok {
		return nil, false
	}
	return cloneApp(a), true
}

func (t *gigTx) CountAccepted(ctx context.Context) (int, error) {
	t.s.mu.Lock()
	ids := make([]uuid.UUID, 0)
	for id, a := range t.s.apps {
		if a.GigID == t.gig.ID {
			ids = append(ids, id)
		}
	}
	t.s.mu.Unlock()
	for id := range t.created {
		ids = append(ids, id)
	}

	n := 0
	for _, id := range ids {
		if a, ok := t.current(id); ok && a.HoldsSpot() {
			n++
		}
	}
	return n, nil
}

func (t *gigTx) HasApplication(ctx context.Context, userID uuid.UUID) (bool, error) {
	for _, a := range t.created {
		if a.UserID == userID {
			return true, nil
		}
	}
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	return t.s.hasAppliedLocked(t.gig.ID, userID), nil
}

func (t *gigTx) FindApplication(ctx context.Context, id uuid.UUID) (*entity.GigApplication, error) {
	a, ok := t.current(id)
	if !ok {
		return nil, apperror.ErrApplicationNotFound
	}
	return a, nil
}

func (t *gigTx) CreateApplication(ctx context.Context, app *entity.GigApplication) error {
	t.created[app.ID] = cloneApp(app)
	return nil
}

func (t *gigTx) SaveApplication(ctx context.Context, app *entity.GigApplication, from valueobject.ApplicationStatus) error {
	if cur, ok := t.current(app.ID); !ok || cur.Status != from {
		return apperror.InvalidTransition("статус отклика уже изменился")
	}
	if _, ok := t.created[app.ID]; ok {
		t.created[app.ID] = cloneApp(app)
		return nil
	}
	prev, ok := t.saved[app.ID]
	if ok {
		from = prev.from
	}
	t.saved[app.ID] = savedApp{app: cloneApp(app), from: from}
	return nil
}

func (t *gigTx) SaveDetails(ctx context.Context) error {
	t.detailsDirty = true
	return nil
}

func (t *gigTx) SaveGig(ctx context.Context) error {
	t.gigDirty = true
	return nil
}

func (t *gigTx) commit() error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()

	for id, sa := range t.saved {
		stored, ok := t.s.apps[id]
		if !ok || stored.Status != sa.from {
			return apperror.InvalidTransition("статус отклика уже изменился")
		}
	}
	for _, a := range t.created {
		if t.s.hasAppliedLocked(a.GigID, a.UserID) {
			return apperror.ErrDuplicateApplication
		}
	}

	for id, a := range t.created {
		t.s.apps[id] = a
	}
	for id, sa := range t.saved {
		t.s.apps[id] = sa.app
	}
	if t.detailsDirty {
		stored := t.s.gigs[t.gig.ID]
		cp := cloneGig(t.gig)
		cp.Status = stored.Status
		cp.WorkersNeeded = stored.WorkersNeeded
		cp.DeletedAt = stored.DeletedAt
		t.s.gigs[t.gig.ID] = cp
	}
	if t.gigDirty {
		stored := t.s.gigs[t.gig.ID]
		stored.Status = t.gig.Status
		stored.WorkersNeeded = t.gig.WorkersNeeded
		stored.UpdatedAt = t.gig.UpdatedAt
	}
	return nil
}
