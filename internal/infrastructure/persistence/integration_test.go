package persistence

import (
	"context"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/gigmarket-backend/internal/db"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/application"
)

// Тесты ниже работают с настоящим PostgreSQL и пропускаются без DATABASE_URL.
// База должна быть отдельной: миграции применяются, данные остаются после прогона.

type pgFixture struct {
	db       *sqlx.DB
	users    *UserRepository
	gigs     *GigRepository
	apps     *ApplicationRepository
	skill    *entity.Skill
	employer *entity.User
}

func newPgFixture(t *testing.T) *pgFixture {
	t.Helper()
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL не задан")
	}
	ctx := context.Background()

	conn, err := db.NewPostgres(ctx, dsn, db.DefaultPoolConfig())
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	require.NoError(t, db.RunMigrations(ctx, conn, "../../../migrations"))

	f := &pgFixture{
		db:    conn,
		users: NewUserRepository(conn),
		gigs:  NewGigRepository(conn, 10*time.Second),
		apps:  NewApplicationRepository(conn),
	}
	f.skill, err = entity.NewSkill("Бариста "+uuid.NewString()[:8], time.Now())
	require.NoError(t, err)
	require.NoError(t, NewSkillRepository(conn).Create(ctx, f.skill))
	f.employer = f.user(t, valueobject.RoleEmployer)
	return f
}

func (f *pgFixture) user(t *testing.T, role valueobject.Role) *entity.User {
	t.Helper()
	now := time.Now().UTC()
	u := &entity.User{
		ID:           uuid.New(),
		Email:        strings.ToLower(uuid.NewString()) + "@example.com",
		PasswordHash: "x",
		FirstName:    "Тест",
		LastName:     "Тестов",
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func (f *pgFixture) gig(t *testing.T, workers int, autoCloseAt *time.Time) *entity.Gig {
	t.Helper()
	now := time.Now().UTC()
	g, err := entity.NewGig(f.employer.ID, entity.GigDetails{
		Title:            "Бариста на фестиваль",
		PrimarySkillID:   f.skill.ID,
		Location:         "Москва, Парк Горького",
		StartAt:          now.Add(48 * time.Hour),
		EndAt:            now.Add(56 * time.Hour),
		Pay:              4000,
		WorkersNeeded:    workers,
		Description:      "Приготовление кофе",
		AutoCloseEnabled: autoCloseAt != nil,
		AutoCloseAt:      autoCloseAt,
	}, now)
	require.NoError(t, err)
	require.NoError(t, f.gigs.Create(context.Background(), g))
	return g
}

func (f *pgFixture) apply(t *testing.T, gigID uuid.UUID) *entity.GigApplication {
	t.Helper()
	freelancer := f.user(t, valueobject.RoleFreelancer)
	app, err := application.NewApplyUseCase(f.gigs).Execute(context.Background(),
		application.ApplyInput{GigID: gigID, FreelancerID: freelancer.ID})
	require.NoError(t, err)
	return app
}

func TestPostgres_ConcurrentAcceptNeverExceedsCapacity(t *testing.T) {
	const (
		workers    = 3
		applicants = 12
	)
	f := newPgFixture(t)
	g := f.gig(t, workers, nil)
	update := application.NewUpdateApplicationStatusUseCase(f.gigs, nil)

	ids := make([]uuid.UUID, 0, applicants)
	for i := 0; i < applicants; i++ {
		ids = append(ids, f.apply(t, g.ID).ID)
	}

	var wg sync.WaitGroup
	start := make(chan struct{})
	errs := make(chan error, applicants)
	for _, id := range ids {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			<-start
			_, err := update.Execute(context.Background(), application.UpdateStatusInput{
				GigID:         g.ID,
				ApplicationID: id,
				EmployerID:    f.employer.ID,
				Status:        valueobject.ApplicationStatusAccepted,
			})
			errs <- err
		}(id)
	}
	close(start)
	wg.Wait()
	close(errs)

	ok, exceeded := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case apperror.CodeOf(err) == apperror.ErrCodeCapacityExceeded:
			exceeded++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, workers, ok)
	assert.Equal(t, applicants-workers, exceeded)

	var accepted int
	require.NoError(t, f.gigs.WithGigLock(context.Background(), g.ID, func(tx repository.GigTx) error {
		var err error
		accepted, err = tx.CountAccepted(context.Background())
		return err
	}))
	assert.Equal(t, workers, accepted)

	stored, err := f.gigs.FindByID(context.Background(), g.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.GigStatusFilled, stored.Status)
}

func TestPostgres_CreateApplicationDuplicate(t *testing.T) {
	f := newPgFixture(t)
	g := f.gig(t, 1, nil)
	app := f.apply(t, g.ID)

	err := f.gigs.WithGigLock(context.Background(), g.ID, func(tx repository.GigTx) error {
		dup := entity.NewGigApplication(g.ID, app.UserID, nil, time.Now().UTC())
		return tx.CreateApplication(context.Background(), dup)
	})
	assert.Equal(t, apperror.ErrCodeDuplicateApplication, apperror.CodeOf(err))
}

func TestPostgres_SweepsAreIdempotent(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()

	deadline := time.Now().UTC().Add(time.Hour)
	closing := f.gig(t, 2, &deadline)
	closeAt := deadline.Add(time.Minute)

	closed, err := f.gigs.CloseExpired(ctx, closeAt)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, closed, int64(1))
	stored, err := f.gigs.FindByID(ctx, closing.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.GigStatusClosed, stored.Status)

	closed, err = f.gigs.CloseExpired(ctx, closeAt)
	require.NoError(t, err)
	assert.Zero(t, closed)

	ending := f.gig(t, 2, nil)
	app := f.apply(t, ending.ID)
	_, err = application.NewUpdateApplicationStatusUseCase(f.gigs, nil).Execute(ctx, application.UpdateStatusInput{
		GigID:         ending.ID,
		ApplicationID: app.ID,
		EmployerID:    f.employer.ID,
		Status:        valueobject.ApplicationStatusAccepted,
	})
	require.NoError(t, err)

	endAt := ending.EndAt.Add(time.Minute)
	res, err := f.gigs.CompleteEnded(ctx, endAt)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Gigs, int64(1))
	assert.GreaterOrEqual(t, res.Applications, int64(1))

	stored, err = f.gigs.FindByID(ctx, ending.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.GigStatusCompleted, stored.Status)
	done, err := f.apps.FindByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ApplicationStatusCompleted, done.Status)

	res, err = f.gigs.CompleteEnded(ctx, endAt)
	require.NoError(t, err)
	assert.Zero(t, res.Gigs)
	assert.Zero(t, res.Applications)

	// Закрытая смена не завершается повторно и не переоткрывается.
	stored, err = f.gigs.FindByID(ctx, closing.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.GigStatusClosed, stored.Status)
}

func TestPostgres_LockTimeoutIsRetryable(t *testing.T) {
	f := newPgFixture(t)
	g := f.gig(t, 1, nil)
	impatient := NewGigRepository(f.db, 100*time.Millisecond)

	locked := make(chan struct{})
	release := make(chan struct{})
	holderErr := make(chan error, 1)
	go func() {
		holderErr <- f.gigs.WithGigLock(context.Background(), g.ID, func(tx repository.GigTx) error {
			close(locked)
			<-release
			return nil
		})
	}()
	<-locked

	err := impatient.WithGigLock(context.Background(), g.ID, func(tx repository.GigTx) error {
		t.Error("блокировка не должна быть получена")
		return nil
	})
	close(release)
	require.NoError(t, <-holderErr)

	require.Error(t, err)
	assert.Equal(t, apperror.ErrCodeInfrastructure, apperror.CodeOf(err))
	assert.True(t, apperror.IsRetryable(err))

	// После снятия блокировки та же операция проходит.
	assert.NoError(t, impatient.WithGigLock(context.Background(), g.ID, func(tx repository.GigTx) error { return nil }))
}

func TestPostgres_ApplicationStatusCompareAndSwap(t *testing.T) {
	f := newPgFixture(t)
	ctx := context.Background()
	g := f.gig(t, 2, nil)
	app := f.apply(t, g.ID)

	stale := *app
	require.NoError(t, app.Reject(nil, time.Now().UTC()))
	require.NoError(t, f.apps.UpdateStatus(ctx, app, valueobject.ApplicationStatusPending))

	// Вторая запись опирается на уже устаревший статус pending.
	require.NoError(t, stale.Cancel(time.Now().UTC()))
	err := f.gigs.WithGigLock(ctx, g.ID, func(tx repository.GigTx) error {
		return tx.SaveApplication(ctx, &stale, valueobject.ApplicationStatusPending)
	})
	assert.Equal(t, apperror.ErrCodeInvalidTransition, apperror.CodeOf(err))

	stored, err := f.apps.FindByID(ctx, app.ID)
	require.NoError(t, err)
	assert.Equal(t, valueobject.ApplicationStatusRejected, stored.Status)
}
