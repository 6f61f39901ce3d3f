package notification_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/event"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/retry"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/notification"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var fastRetry = retry.Policy{MaxRetries: 3, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}

type mockUserRepository struct {
	repository.UserRepository
	bySkill map[uuid.UUID][]uuid.UUID
}

func (m *mockUserRepository) FindFreelancersBySkills(ctx context.Context, skillIDs []uuid.UUID, exclude uuid.UUID) ([]uuid.UUID, error) {
	seen := make(map[uuid.UUID]bool)
	var result []uuid.UUID
	for _, sid := range skillIDs {
		for _, uid := range m.bySkill[sid] {
			if uid != exclude && !seen[uid] {
				seen[uid] = true
				result = append(result, uid)
			}
		}
	}
	return result, nil
}

type mockNotificationRepository struct {
	mu         sync.Mutex
	items      map[uuid.UUID]*entity.Notification
	failures   int
	failWith   error
	batchCalls int
}

func newMockNotificationRepository() *mockNotificationRepository {
	return &mockNotificationRepository{items: make(map[uuid.UUID]*entity.Notification)}
}

func (m *mockNotificationRepository) Create(ctx context.Context, n *entity.Notification) error {
	return m.CreateBatch(ctx, []*entity.Notification{n})
}

func (m *mockNotificationRepository) CreateBatch(ctx context.Context, items []*entity.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.batchCalls++
	if m.failures > 0 {
		m.failures--
		return m.failWith
	}
	for _, n := range items {
		m.items[n.ID] = n
	}
	return nil
}

func (m *mockNotificationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n, ok := m.items[id]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, apperror.ErrNotificationNotFound
}

func (m *mockNotificationRepository) List(ctx context.Context, userID uuid.UUID, unreadOnly bool, limit, offset int) ([]*entity.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*entity.Notification
	for _, n := range m.items {
		if n.UserID == userID && (!unreadOnly || !n.IsRead) {
			result = append(result, n)
		}
	}
	return result, nil
}

func (m *mockNotificationRepository) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	list, _ := m.List(ctx, userID, true, 0, 0)
	return len(list), nil
}

func (m *mockNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[id].MarkRead(at)
	return nil
}

func (m *mockNotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, item := range m.items {
		if item.UserID == userID && !item.IsRead {
			item.MarkRead(at)
			n++
		}
	}
	return n, nil
}

type pushed struct {
	userID uuid.UUID
	event  string
}

type recordingPusher struct {
	mu     sync.Mutex
	pushes []pushed
}

func (p *recordingPusher) Push(ctx context.Context, userID uuid.UUID, event string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushes = append(p.pushes, pushed{userID: userID, event: event})
	return nil
}

func (p *recordingPusher) events() []pushed {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pushed(nil), p.pushes...)
}

type fanOutFixture struct {
	users    *mockUserRepository
	notifs   *mockNotificationRepository
	pusher   *recordingPusher
	uc       *notification.FanOutGigUseCase
	employer uuid.UUID
	cook     uuid.UUID
	waiter   uuid.UUID
	skill    uuid.UUID
	other    uuid.UUID
}

func newFanOutFixture() *fanOutFixture {
	f := &fanOutFixture{
		notifs:   newMockNotificationRepository(),
		pusher:   &recordingPusher{},
		employer: uuid.New(),
		cook:     uuid.New(),
		waiter:   uuid.New(),
		skill:    uuid.New(),
		other:    uuid.New(),
	}
	f.users = &mockUserRepository{bySkill: map[uuid.UUID][]uuid.UUID{
		f.skill: {f.cook, f.waiter, f.employer},
		f.other: {f.waiter},
	}}
	f.uc = notification.NewFanOutGigUseCase(f.users, f.notifs, f.pusher, fastRetry)
	return f
}

func (f *fanOutFixture) gigCreated() event.GigCreated {
	return event.GigCreated{
		GigID:      uuid.New(),
		EmployerID: f.employer,
		Title:      "Повар на кухню",
		Location:   "Казань",
		StartAt:    time.Now().Add(48 * time.Hour),
		Pay:        4500,
		SkillIDs:   []uuid.UUID{f.skill, f.other},
	}
}

func TestFanOut_MatchesSkillsExceptEmployer(t *testing.T) {
	f := newFanOutFixture()

	sent, err := f.uc.Execute(context.Background(), f.gigCreated())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Len(t, f.notifs.items, 2)

	recipients := map[uuid.UUID]bool{}
	for _, p := range f.pusher.events() {
		assert.Equal(t, entity.NotificationNewGigMatch, p.event)
		recipients[p.userID] = true
	}
	assert.Equal(t, map[uuid.UUID]bool{f.cook: true, f.waiter: true}, recipients)
}

func TestFanOut_RetriesTransientFailures(t *testing.T) {
	f := newFanOutFixture()
	f.notifs.failures = 2
	f.notifs.failWith = apperror.New(apperror.ErrCodeInfrastructure, "lock timeout")

	sent, err := f.uc.Execute(context.Background(), f.gigCreated())
	require.NoError(t, err)
	assert.Equal(t, 2, sent)
	assert.Equal(t, 3, f.notifs.batchCalls)
}

func TestFanOut_PermanentFailureNotPushed(t *testing.T) {
	f := newFanOutFixture()
	f.notifs.failures = 1
	f.notifs.failWith = errors.New("violates foreign key")

	_, err := f.uc.Execute(context.Background(), f.gigCreated())
	require.Error(t, err)
	assert.Equal(t, 1, f.notifs.batchCalls)
	assert.Empty(t, f.pusher.events())
}

func TestNotifier_DeliversInBackground(t *testing.T) {
	f := newFanOutFixture()
	status := notification.NewNotifyApplicationStatusUseCase(f.notifs, f.pusher, fastRetry)
	n := notification.NewNotifier(f.uc, status, f.pusher)

	ctx, cancel := context.WithCancel(context.Background())
	reason := "набор закрыт"
	n.GigCreated(ctx, f.gigCreated())
	n.ApplicationStatusChanged(ctx, event.ApplicationStatusChanged{
		ApplicationID: uuid.New(),
		GigID:         uuid.New(),
		GigTitle:      "Бариста",
		FreelancerID:  f.cook,
		Status:        valueobject.ApplicationStatusRejected,
		GigStatus:     valueobject.GigStatusOpen,
		Reason:        &reason,
	})
	n.MessageCreated(ctx, event.MessageCreated{ConversationID: uuid.New(), RecipientID: f.waiter, Body: "Привет"})
	cancel()
	n.Wait()

	assert.Len(t, f.notifs.items, 3)
	byEvent := map[string]int{}
	for _, p := range f.pusher.events() {
		byEvent[p.event]++
	}
	assert.Equal(t, map[string]int{
		entity.NotificationNewGigMatch:              2,
		entity.NotificationApplicationStatusChanged: 1,
		entity.NotificationMessageCreated:           1,
	}, byEvent)

	var rejected *entity.Notification
	for _, item := range f.notifs.items {
		if item.Type == entity.NotificationApplicationStatusChanged {
			rejected = item
		}
	}
	require.NotNil(t, rejected)
	assert.Equal(t, "Отклик отклонён", rejected.Title)
	assert.Equal(t, "Бариста: набор закрыт", rejected.Body)
}

func TestInbox(t *testing.T) {
	repo := newMockNotificationRepository()
	owner := uuid.New()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, entity.NewNotification(owner, entity.NotificationNewGigMatch, "t", "b", nil, time.Now())))
	}
	list, err := notification.NewListUseCase(repo).Execute(ctx, notification.ListInput{UserID: owner})
	require.NoError(t, err)
	require.Len(t, list, 3)

	_, err = notification.NewMarkReadUseCase(repo).Execute(ctx, list[0].ID, uuid.New())
	assert.True(t, apperror.IsNotFound(err))

	read, err := notification.NewMarkReadUseCase(repo).Execute(ctx, list[0].ID, owner)
	require.NoError(t, err)
	assert.True(t, read.IsRead)

	count, err := notification.NewUnreadCountUseCase(repo).Execute(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	marked, err := notification.NewMarkAllReadUseCase(repo).Execute(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), marked)

	count, _ = notification.NewUnreadCountUseCase(repo).Execute(ctx, owner)
	assert.Equal(t, 0, count)

	views := notification.NewViews(list)
	assert.Len(t, views, 3)
}
