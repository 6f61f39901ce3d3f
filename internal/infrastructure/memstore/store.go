// Package memstore хранит данные биржи смен в памяти процесса. Используется в тестах
// сценариев; блокировка строки смены моделируется отдельным мьютексом на каждую смену.
package memstore

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
)

type bookmarkKey struct {
	userID uuid.UUID
	gigID  uuid.UUID
}

type Store struct {
	mu         sync.Mutex
	gigs       map[uuid.UUID]*entity.Gig
	apps       map[uuid.UUID]*entity.GigApplication
	bookmarks  map[bookmarkKey]*entity.GigBookmark
	reviews    map[uuid.UUID]*entity.GigReview
	users      map[uuid.UUID]*entity.User
	skills     map[uuid.UUID]*entity.Skill
	userSkills map[uuid.UUID][]uuid.UUID

	locksMu  sync.Mutex
	gigLocks map[uuid.UUID]*sync.Mutex
}

func New() *Store {
	return &Store{
		gigs:       make(map[uuid.UUID]*entity.Gig),
		apps:       make(map[uuid.UUID]*entity.GigApplication),
		bookmarks:  make(map[bookmarkKey]*entity.GigBookmark),
		reviews:    make(map[uuid.UUID]*entity.GigReview),
		users:      make(map[uuid.UUID]*entity.User),
		skills:     make(map[uuid.UUID]*entity.Skill),
		userSkills: make(map[uuid.UUID][]uuid.UUID),
		gigLocks:   make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *Store) Gigs() *GigRepository                 { return &GigRepository{s: s} }
func (s *Store) Applications() *ApplicationRepository { return &ApplicationRepository{s: s} }
func (s *Store) Bookmarks() *BookmarkRepository       { return &BookmarkRepository{s: s} }
func (s *Store) Reviews() *ReviewRepository           { return &ReviewRepository{s: s} }
func (s *Store) Skills() *SkillRepository             { return &SkillRepository{s: s} }

func (s *Store) AddUser(u *entity.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *u
	s.users[u.ID] = &cp
}

// SetUserSkills задаёт навыки пользователя напрямую.
func (s *Store) SetUserSkills(userID uuid.UUID, skillIDs ...uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userSkills[userID] = append([]uuid.UUID(nil), skillIDs...)
}

// PutGig кладёт смену как есть, без проверок; удобно для подготовки состояния.
func (s *Store) PutGig(g *entity.Gig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gigs[g.ID] = cloneGig(g)
}

// PutApplication кладёт отклик как есть.
func (s *Store) PutApplication(a *entity.GigApplication) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apps[a.ID] = cloneApp(a)
}

// AcceptedCount считает принятые отклики смены.
func (s *Store) AcceptedCount(gigID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.acceptedLocked(gigID)
}

func (s *Store) gigLock(id uuid.UUID) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.gigLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.gigLocks[id] = l
	}
	return l
}

func (s *Store) acceptedLocked(gigID uuid.UUID) int {
	n := 0
	for _, a := range s.apps {
		if a.GigID == gigID && a.HoldsSpot() {
			n++
		}
	}
	return n
}

func (s *Store) applicantsLocked(gigID uuid.UUID) int {
	n := 0
	for _, a := range s.apps {
		if a.GigID == gigID {
			n++
		}
	}
	return n
}

func (s *Store) hasAppliedLocked(gigID, userID uuid.UUID) bool {
	for _, a := range s.apps {
		if a.GigID == gigID && a.UserID == userID {
			return true
		}
	}
	return false
}

func cloneGig(g *entity.Gig) *entity.Gig {
	cp := *g
	cp.SupportingSkillIDs = append([]uuid.UUID(nil), g.SupportingSkillIDs...)
	cp.Requirements = append([]string(nil), g.Requirements...)
	if g.Coordinates != nil {
		c := *g.Coordinates
		cp.Coordinates = &c
	}
	cp.AutoCloseAt = cloneTime(g.AutoCloseAt)
	cp.DeletedAt = cloneTime(g.DeletedAt)
	return &cp
}

func cloneApp(a *entity.GigApplication) *entity.GigApplication {
	cp := *a
	cp.RequirementConfirmations = append([]bool(nil), a.RequirementConfirmations...)
	if a.RejectionReason != nil {
		r := *a.RejectionReason
		cp.RejectionReason = &r
	}
	return &cp
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func sortNewestFirst[T any](items []T, createdAt func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool {
		return createdAt(items[i]).After(createdAt(items[j]))
	})
}
