package ledger_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/infrastructure/memstore"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/ledger"
)

type mockPenaltyRepository struct {
	mu        sync.Mutex
	penalties map[uuid.UUID]*entity.Penalty
	appeals   map[uuid.UUID]*entity.PenaltyAppeal
}

func newMockPenaltyRepository() *mockPenaltyRepository {
	return &mockPenaltyRepository{
		penalties: make(map[uuid.UUID]*entity.Penalty),
		appeals:   make(map[uuid.UUID]*entity.PenaltyAppeal),
	}
}

func (m *mockPenaltyRepository) Create(ctx context.Context, p *entity.Penalty) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.penalties[p.ID] = p
	return nil
}

func (m *mockPenaltyRepository) FindByID(ctx context.Context, id uuid.UUID) (*repository.PenaltyView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.penalties[id]
	if !ok {
		return nil, apperror.ErrPenaltyNotFound
	}
	return &repository.PenaltyView{Penalty: p, Appeal: m.appeals[id]}, nil
}

func (m *mockPenaltyRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*repository.PenaltyView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*repository.PenaltyView
	for _, p := range m.penalties {
		if p.UserID == userID {
			result = append(result, &repository.PenaltyView{Penalty: p, Appeal: m.appeals[p.ID]})
		}
	}
	return result, nil
}

func (m *mockPenaltyRepository) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	list, _ := m.ListByUser(ctx, userID)
	return len(list), nil
}

func (m *mockPenaltyRepository) CreateAppeal(ctx context.Context, a *entity.PenaltyAppeal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.appeals[a.PenaltyID]; ok {
		return apperror.ErrAlreadyAppealed
	}
	m.appeals[a.PenaltyID] = a
	return nil
}

type mockUserRepository struct {
	users map[uuid.UUID]*entity.User
}

func (m *mockUserRepository) Create(ctx context.Context, u *entity.User) error {
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, apperror.ErrUserNotFound
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, apperror.ErrUserNotFound
}

func (m *mockUserRepository) List(ctx context.Context, role *valueobject.Role, limit, offset int) ([]*entity.User, int, error) {
	return nil, 0, nil
}

func (m *mockUserRepository) FindFreelancersBySkills(ctx context.Context, skillIDs []uuid.UUID, exclude uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (m *mockUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

type world struct {
	store      *memstore.Store
	penalties  *mockPenaltyRepository
	users      *mockUserRepository
	employerID uuid.UUID
	freelancer uuid.UUID
	gig        *entity.Gig
	app        *entity.GigApplication
}

func newWorld(appStatus valueobject.ApplicationStatus) *world {
	w := &world{
		store:      memstore.New(),
		penalties:  newMockPenaltyRepository(),
		employerID: uuid.New(),
		freelancer: uuid.New(),
	}
	w.users = &mockUserRepository{users: map[uuid.UUID]*entity.User{
		w.freelancer: {ID: w.freelancer, Role: valueobject.RoleFreelancer},
	}}
	now := time.Now()
	w.gig = &entity.Gig{
		ID:            uuid.New(),
		EmployerID:    w.employerID,
		Title:         "Официант на банкет",
		StartAt:       now.Add(-6 * time.Hour),
		EndAt:         now.Add(-time.Hour),
		Pay:           valueobject.Pay{Amount: 3000},
		WorkersNeeded: 1,
		Status:        valueobject.GigStatusCompleted,
	}
	w.store.PutGig(w.gig)
	w.app = &entity.GigApplication{ID: uuid.New(), GigID: w.gig.ID, UserID: w.freelancer, Status: appStatus}
	w.store.PutApplication(w.app)
	return w
}

func (w *world) recordReview(rating int, earnings float64) (*entity.GigReview, error) {
	uc := ledger.NewRecordReviewUseCase(w.store.Gigs(), w.store.Applications(), w.store.Reviews())
	return uc.Execute(context.Background(), ledger.RecordReviewInput{
		GigID:         w.gig.ID,
		ApplicationID: w.app.ID,
		EmployerID:    w.employerID,
		Rating:        rating,
		Earnings:      earnings,
	})
}

func TestRecordReview_OncePerApplication(t *testing.T) {
	w := newWorld(valueobject.ApplicationStatusCompleted)

	review, err := w.recordReview(5, 3200)
	require.NoError(t, err)
	assert.Equal(t, 5, review.Rating)
	assert.Equal(t, w.freelancer, review.FreelancerID)

	_, err = w.recordReview(4, 3000)
	assert.Equal(t, apperror.ErrCodeDuplicateReview, apperror.CodeOf(err))
}

func TestRecordReview_RequiresCompleted(t *testing.T) {
	w := newWorld(valueobject.ApplicationStatusAccepted)

	_, err := w.recordReview(5, 3000)
	assert.Equal(t, apperror.ErrCodeInvalidTransition, apperror.CodeOf(err))
}

func TestRecordReview_Validation(t *testing.T) {
	w := newWorld(valueobject.ApplicationStatusCompleted)

	_, err := w.recordReview(0, -5)
	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.ErrCodeValidation, appErr.Code)
	assert.Len(t, appErr.Fields, 2)
}

func TestRecordReview_OnlyGigOwner(t *testing.T) {
	w := newWorld(valueobject.ApplicationStatusCompleted)
	uc := ledger.NewRecordReviewUseCase(w.store.Gigs(), w.store.Applications(), w.store.Reviews())

	_, err := uc.Execute(context.Background(), ledger.RecordReviewInput{
		GigID: w.gig.ID, ApplicationID: w.app.ID, EmployerID: uuid.New(), Rating: 5,
	})
	assert.True(t, apperror.IsForbidden(err))
}

func (w *world) issue(t *testing.T, role valueobject.Role, issuer uuid.UUID, gigID *uuid.UUID) (ledger.WarningSummary, error) {
	t.Helper()
	uc := ledger.NewIssuePenaltyUseCase(w.penalties, w.store.Gigs(), w.store.Applications(), w.users, valueobject.DefaultMaxWarnings)
	_, summary, err := uc.Execute(context.Background(), ledger.IssuePenaltyInput{
		IssuerID:   issuer,
		IssuerRole: role,
		UserID:     w.freelancer,
		GigID:      gigID,
		Reason:     "Неявка на смену",
	})
	return summary, err
}

func TestIssuePenalty_WarningEscalation(t *testing.T) {
	w := newWorld(valueobject.ApplicationStatusCompleted)

	want := []valueobject.WarningLevel{
		valueobject.WarningInformational,
		valueobject.WarningTemporaryRestriction,
		valueobject.WarningSuspension,
		valueobject.WarningSuspension,
	}
	for i, level := range want {
		summary, err := w.issue(t, valueobject.RoleEmployer, w.employerID, &w.gig.ID)
		require.NoError(t, err)
		assert.Equal(t, i+1, summary.CurrentWarnings)
		assert.Equal(t, 3, summary.MaxWarnings)
		assert.Equal(t, level, summary.NextPenalty, "after %d penalties", i+1)
	}
}

func TestIssuePenalty_Authorization(t *testing.T) {
	w := newWorld(valueobject.ApplicationStatusCompleted)

	_, err := w.issue(t, valueobject.RoleEmployer, uuid.New(), &w.gig.ID)
	assert.True(t, apperror.IsForbidden(err))

	_, err = w.issue(t, valueobject.RoleEmployer, w.employerID, nil)
	assert.True(t, apperror.IsValidation(err))

	_, err = w.issue(t, valueobject.RoleFreelancer, uuid.New(), nil)
	assert.True(t, apperror.IsForbidden(err))

	_, err = w.issue(t, valueobject.RoleAdmin, uuid.New(), nil)
	assert.NoError(t, err)
}

func TestAppealPenalty_Once(t *testing.T) {
	w := newWorld(valueobject.ApplicationStatusCompleted)
	_, err := w.issue(t, valueobject.RoleAdmin, uuid.New(), nil)
	require.NoError(t, err)

	mine, err := ledger.NewListMyPenaltiesUseCase(w.penalties, 3).Execute(context.Background(), w.freelancer)
	require.NoError(t, err)
	require.Len(t, mine.Items, 1)
	assert.Equal(t, valueobject.WarningInformational, mine.Summary.NextPenalty)
	penaltyID := mine.Items[0].Penalty.ID

	uc := ledger.NewAppealPenaltyUseCase(w.penalties)

	_, err = uc.Execute(context.Background(), penaltyID, uuid.New(), nil)
	assert.True(t, apperror.IsForbidden(err))

	msg := "Я предупредил работодателя заранее"
	view, err := uc.Execute(context.Background(), penaltyID, w.freelancer, &msg)
	require.NoError(t, err)
	require.NotNil(t, view.Appeal)
	assert.Equal(t, valueobject.AppealStatusPending, view.Appeal.Status)

	_, err = uc.Execute(context.Background(), penaltyID, w.freelancer, nil)
	assert.Equal(t, apperror.ErrCodeAlreadyAppealed, apperror.CodeOf(err))
}

func TestAppealPenalty_MessageTooLong(t *testing.T) {
	w := newWorld(valueobject.ApplicationStatusCompleted)
	_, err := w.issue(t, valueobject.RoleAdmin, uuid.New(), nil)
	require.NoError(t, err)
	mine, _ := ledger.NewListMyPenaltiesUseCase(w.penalties, 3).Execute(context.Background(), w.freelancer)

	long := strings.Repeat("a", entity.MaxAppealLength+1)
	_, err = ledger.NewAppealPenaltyUseCase(w.penalties).Execute(context.Background(), mine.Items[0].Penalty.ID, w.freelancer, &long)
	assert.True(t, apperror.IsValidation(err))
}

func TestGetMyPenalty_Owner(t *testing.T) {
	w := newWorld(valueobject.ApplicationStatusCompleted)
	_, err := w.issue(t, valueobject.RoleAdmin, uuid.New(), nil)
	require.NoError(t, err)
	mine, _ := ledger.NewListMyPenaltiesUseCase(w.penalties, 3).Execute(context.Background(), w.freelancer)
	id := mine.Items[0].Penalty.ID

	uc := ledger.NewGetMyPenaltyUseCase(w.penalties, 3)
	_, summary, err := uc.Execute(context.Background(), id, w.freelancer)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.CurrentWarnings)

	_, _, err = uc.Execute(context.Background(), id, uuid.New())
	assert.True(t, apperror.IsForbidden(err))
}
