package user_test

import (
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ignatzorin/gigmarket-backend/internal/auth"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/user"
)

func TestMain(m *testing.M) {
	user.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type mockUserRepository struct {
	users   map[uuid.UUID]*entity.User
	touched int
	saved   int
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[uuid.UUID]*entity.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, u *entity.User) error {
	for _, existing := range m.users {
		if existing.Email == u.Email {
			return apperror.New(apperror.ErrCodeConflict, "email уже зарегистрирован")
		}
	}
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
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.ErrUserNotFound
}

func (m *mockUserRepository) List(ctx context.Context, role *valueobject.Role, limit, offset int) ([]*entity.User, int, error) {
	var result []*entity.User
	for _, u := range m.users {
		if role == nil || u.Role == *role {
			result = append(result, u)
		}
	}
	return result, len(result), nil
}

func (m *mockUserRepository) FindFreelancersBySkills(ctx context.Context, skillIDs []uuid.UUID, exclude uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (m *mockUserRepository) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.touched++
	return nil
}

func (m *mockUserRepository) SaveVerification(ctx context.Context, u *entity.User) error {
	if _, ok := m.users[u.ID]; !ok {
		return apperror.ErrUserNotFound
	}
	m.saved++
	m.users[u.ID] = u
	return nil
}

type mockRevokedTokens struct {
	tokens map[string]uuid.UUID
}

func newMockRevokedTokens() *mockRevokedTokens {
	return &mockRevokedTokens{tokens: make(map[string]uuid.UUID)}
}

func (m *mockRevokedTokens) Revoke(ctx context.Context, tokenID string, userID uuid.UUID, expiresAt time.Time) error {
	m.tokens[tokenID] = userID
	return nil
}

func (m *mockRevokedTokens) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, ok := m.tokens[tokenID]
	return ok, nil
}

type mockProfileRepository struct {
	profiles map[uuid.UUID]*entity.FreelancerProfile
	failNext bool
}

func newMockProfileRepository() *mockProfileRepository {
	return &mockProfileRepository{profiles: make(map[uuid.UUID]*entity.FreelancerProfile)}
}

func (m *mockProfileRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*entity.FreelancerProfile, error) {
	if p, ok := m.profiles[userID]; ok {
		cp := *p
		return &cp, nil
	}
	p := entity.NewFreelancerProfile(userID, time.Now())
	m.profiles[userID] = p
	cp := *p
	return &cp, nil
}

func (m *mockProfileRepository) Update(ctx context.Context, p *entity.FreelancerProfile) error {
	if m.failNext {
		m.failNext = false
		return errors.New("connection reset")
	}
	cp := *p
	m.profiles[p.UserID] = &cp
	return nil
}

type fakeStorage struct {
	files   map[string]string
	counter int
}

func (f *fakeStorage) Save(ctx context.Context, userID uuid.UUID, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(string(data), "%PDF") {
		return "", apperror.Validation(apperror.FieldError{Field: "resume", Message: "резюме должно быть в формате pdf, doc или docx"})
	}
	f.counter++
	url := "/storage/resumes/" + userID.String() + "/" + string(rune('a'+f.counter)) + ".pdf"
	f.files[url] = string(data)
	return url, nil
}

func (f *fakeStorage) Delete(ctx context.Context, url string) error {
	delete(f.files, url)
	return nil
}

func newTokens() *auth.TokenManager {
	return auth.NewTokenManager("access-secret-access-secret-1234", "refresh-secret-refresh-secret-12", time.Minute, time.Hour)
}

func validRegistration() user.RegisterInput {
	return user.RegisterInput{
		Email:     " Olga@Example.com ",
		Password:  "Secret123",
		FirstName: "Ольга",
		LastName:  "Смирнова",
		Role:      "freelancer",
	}
}

func TestRegister_LoginRefresh(t *testing.T) {
	users := newMockUserRepository()
	profiles := newMockProfileRepository()
	tokens := newTokens()
	ctx := context.Background()

	reg, err := user.NewRegisterUseCase(users, profiles, tokens).Execute(ctx, validRegistration())
	require.NoError(t, err)
	assert.Equal(t, "olga@example.com", reg.User.Email)
	assert.NotEqual(t, "Secret123", reg.User.PasswordHash)
	assert.Contains(t, profiles.profiles, reg.User.ID)

	_, err = user.NewRegisterUseCase(users, profiles, tokens).Execute(ctx, validRegistration())
	assert.Equal(t, apperror.ErrCodeConflict, apperror.CodeOf(err))

	login := user.NewLoginUseCase(users, tokens)
	res, err := login.Execute(ctx, "OLGA@example.com", "Secret123")
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.Equal(t, 1, users.touched)

	_, err = login.Execute(ctx, "olga@example.com", "Wrong1234")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
	_, err = login.Execute(ctx, "nobody@example.com", "Secret123")
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)

	refresh := user.NewRefreshUseCase(users, newMockRevokedTokens(), tokens)
	refreshed, err := refresh.Execute(ctx, res.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, refreshed.User.ID)

	_, err = refresh.Execute(ctx, res.Tokens.AccessToken)
	assert.Equal(t, apperror.ErrCodeUnauthorized, apperror.CodeOf(err))
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	users := newMockUserRepository()
	revoked := newMockRevokedTokens()
	tokens := newTokens()
	ctx := context.Background()

	reg, err := user.NewRegisterUseCase(users, newMockProfileRepository(), tokens).Execute(ctx, validRegistration())
	require.NoError(t, err)
	other, err := user.NewLoginUseCase(users, tokens).Execute(ctx, "olga@example.com", "Secret123")
	require.NoError(t, err)

	logout := user.NewLogoutUseCase(revoked, tokens)
	err = logout.Execute(ctx, uuid.New(), reg.Tokens.RefreshToken)
	assert.True(t, apperror.IsForbidden(err))
	assert.Empty(t, revoked.tokens)

	require.NoError(t, logout.Execute(ctx, reg.User.ID, reg.Tokens.RefreshToken))
	require.NoError(t, logout.Execute(ctx, reg.User.ID, reg.Tokens.RefreshToken))
	assert.Len(t, revoked.tokens, 1)

	refresh := user.NewRefreshUseCase(users, revoked, tokens)
	_, err = refresh.Execute(ctx, reg.Tokens.RefreshToken)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	// Другие сессии пользователя продолжают работать.
	_, err = refresh.Execute(ctx, other.Tokens.RefreshToken)
	assert.NoError(t, err)

	err = logout.Execute(ctx, reg.User.ID, reg.Tokens.AccessToken)
	assert.Equal(t, apperror.ErrCodeUnauthorized, apperror.CodeOf(err))
}

func TestRegister_ValidationCollectsAllFields(t *testing.T) {
	in := user.RegisterInput{Email: "bad", Password: "short", Role: "admin"}
	_, err := user.NewRegisterUseCase(newMockUserRepository(), newMockProfileRepository(), newTokens()).Execute(context.Background(), in)

	var appErr *apperror.AppError
	require.ErrorAs(t, err, &appErr)
	fields := make([]string, 0, len(appErr.Fields))
	for _, f := range appErr.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"email", "password", "first_name", "last_name", "role"}, fields)
}

func TestLogin_Blocked(t *testing.T) {
	users := newMockUserRepository()
	tokens := newTokens()
	reg, err := user.NewRegisterUseCase(users, newMockProfileRepository(), tokens).Execute(context.Background(), validRegistration())
	require.NoError(t, err)
	users.users[reg.User.ID].IsActive = false

	_, err = user.NewLoginUseCase(users, tokens).Execute(context.Background(), "olga@example.com", "Secret123")
	assert.True(t, apperror.IsForbidden(err))
}

func TestListUsers_RoleFilter(t *testing.T) {
	users := newMockUserRepository()
	users.users[uuid.New()] = &entity.User{Role: valueobject.RoleEmployer}
	users.users[uuid.New()] = &entity.User{Role: valueobject.RoleFreelancer}

	list, total, err := user.NewListUsersUseCase(users).Execute(context.Background(), user.ListUsersInput{Role: "employer"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, list, 1)

	_, _, err = user.NewListUsersUseCase(users).Execute(context.Background(), user.ListUsersInput{Role: "robot"})
	assert.True(t, apperror.IsValidation(err))
}

func TestUpdateProfile(t *testing.T) {
	profiles := newMockProfileRepository()
	id := uuid.New()
	bio := "  Опыт работы официантом 3 года "
	today := true

	p, err := user.NewUpdateProfileUseCase(profiles).Execute(context.Background(), user.UpdateProfileInput{
		UserID: id, Bio: &bio, AvailableToday: &today,
	})
	require.NoError(t, err)
	require.NotNil(t, p.Bio)
	assert.Equal(t, "Опыт работы официантом 3 года", *p.Bio)
	assert.True(t, profiles.profiles[id].AvailableToday)

	long := strings.Repeat("б", 1001)
	_, err = user.NewUpdateProfileUseCase(profiles).Execute(context.Background(), user.UpdateProfileInput{UserID: id, Bio: &long})
	assert.True(t, apperror.IsValidation(err))
}

func TestUploadResume_ReplacesPrevious(t *testing.T) {
	profiles := newMockProfileRepository()
	storage := &fakeStorage{files: make(map[string]string)}
	uc := user.NewUploadResumeUseCase(profiles, storage)
	id := uuid.New()
	ctx := context.Background()

	first, err := uc.Execute(ctx, id, strings.NewReader("%PDF-1.4 v1"))
	require.NoError(t, err)
	firstURL := *first.ResumeURL

	second, err := uc.Execute(ctx, id, strings.NewReader("%PDF-1.4 v2"))
	require.NoError(t, err)
	assert.NotEqual(t, firstURL, *second.ResumeURL)
	assert.NotNil(t, second.ResumeUploadedAt)
	assert.NotContains(t, storage.files, firstURL)
	assert.Len(t, storage.files, 1)

	_, err = uc.Execute(ctx, id, strings.NewReader("GIF89a"))
	assert.True(t, apperror.IsValidation(err))

	profiles.failNext = true
	_, err = uc.Execute(ctx, id, strings.NewReader("%PDF-1.4 v3"))
	require.Error(t, err)
	assert.Len(t, storage.files, 1, "new file must be removed when the profile update fails")
	assert.Equal(t, *second.ResumeURL, *profiles.profiles[id].ResumeURL)
}
