package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/gigmarket-backend/internal/auth"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/user"
)

type stubUsers struct {
	users map[uuid.UUID]*entity.User
}

func (s *stubUsers) Create(ctx context.Context, u *entity.User) error {
	s.users[u.ID] = u
	return nil
}

func (s *stubUsers) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, apperror.ErrUserNotFound
}

func (s *stubUsers) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	return nil, apperror.ErrUserNotFound
}

func (s *stubUsers) List(ctx context.Context, role *valueobject.Role, limit, offset int) ([]*entity.User, int, error) {
	return nil, 0, nil
}

func (s *stubUsers) FindFreelancersBySkills(ctx context.Context, skillIDs []uuid.UUID, exclude uuid.UUID) ([]uuid.UUID, error) {
	return nil, nil
}

func (s *stubUsers) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return nil
}

func (s *stubUsers) SaveVerification(ctx context.Context, u *entity.User) error {
	s.users[u.ID] = u
	return nil
}

type stubRevoked map[string]struct{}

func (s stubRevoked) Revoke(ctx context.Context, tokenID string, userID uuid.UUID, expiresAt time.Time) error {
	s[tokenID] = struct{}{}
	return nil
}

func (s stubRevoked) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	_, ok := s[tokenID]
	return ok, nil
}

func newVerificationServer(t *testing.T) (*testServer, *entity.User, *auth.TokenManager, stubRevoked) {
	t.Helper()
	u := &entity.User{ID: uuid.New(), Email: "anna@example.com", Role: valueobject.RoleFreelancer, IsActive: true}
	users := &stubUsers{users: map[uuid.UUID]*entity.User{u.ID: u}}
	revoked := stubRevoked{}
	tokens := auth.NewTokenManager("access-secret-access-secret-1234", "refresh-secret-refresh-secret-12", time.Minute, time.Hour)

	verification := NewVerificationHandler(
		user.NewGetVerificationStatusUseCase(users),
		user.NewVerifyEmailUseCase(users, users),
		user.NewVerifyPhoneUseCase(users, users),
	)
	authHandler := NewAuthHandler(nil, nil,
		user.NewRefreshUseCase(users, revoked, tokens),
		user.NewLogoutUseCase(revoked, tokens),
		nil, nil,
	)

	engine := gin.New()
	api := engine.Group("/api", asUser())
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)
	api.GET("/verification/status", verification.Status)
	api.POST("/verification/email/verify", verification.VerifyEmail)
	api.POST("/verification/phone/verify", verification.VerifyPhone)
	return &testServer{engine: engine}, u, tokens, revoked
}

func TestVerificationHandler_Flow(t *testing.T) {
	ts, u, _, _ := newVerificationServer(t)
	role := valueobject.RoleFreelancer

	w, env := ts.do(t, http.MethodGet, "/api/verification/status", u.ID, role, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var status struct {
		EmailVerified bool `json:"email_verified"`
		PhoneVerified bool `json:"phone_verified"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.False(t, status.EmailVerified)

	var verified struct {
		Message string `json:"message"`
	}
	_, env = ts.do(t, http.MethodPost, "/api/verification/email/verify", u.ID, role, nil)
	require.NoError(t, json.Unmarshal(env.Data, &verified))
	assert.Equal(t, "почта подтверждена", verified.Message)
	_, env = ts.do(t, http.MethodPost, "/api/verification/email/verify", u.ID, role, nil)
	require.NoError(t, json.Unmarshal(env.Data, &verified))
	assert.Equal(t, "почта уже подтверждена", verified.Message)

	// Без тела и без сохранённого номера подтверждать нечего.
	w, env = ts.do(t, http.MethodPost, "/api/verification/phone/verify", u.ID, role, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "phone_number", env.Error.Fields[0].Field)

	w, _ = ts.do(t, http.MethodPost, "/api/verification/phone/verify", u.ID, role,
		map[string]string{"phone_number": "+7 999 123-45-67-000000000"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/verification/phone/verify", u.ID, role,
		map[string]string{"phone_number": "+79991234567"})
	require.Equal(t, http.StatusOK, w.Code)

	_, env = ts.do(t, http.MethodGet, "/api/verification/status", u.ID, role, nil)
	require.NoError(t, json.Unmarshal(env.Data, &status))
	assert.True(t, status.EmailVerified)
	assert.True(t, status.PhoneVerified)

	w, _ = ts.do(t, http.MethodGet, "/api/verification/status", uuid.Nil, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthHandler_LogoutRevokesRefresh(t *testing.T) {
	ts, u, tokens, revoked := newVerificationServer(t)
	pair, err := tokens.GeneratePair(u)
	require.NoError(t, err)
	body := map[string]string{"refresh_token": pair.RefreshToken}

	w, _ := ts.do(t, http.MethodPost, "/api/auth/logout", u.ID, u.Role, body)
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, revoked, 1)

	w, env := ts.do(t, http.MethodPost, "/api/auth/refresh", uuid.Nil, "", body)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, string(apperror.ErrCodeUnauthorized), env.Error.Code)

	w, _ = ts.do(t, http.MethodPost, "/api/auth/logout", uuid.New(), u.Role, body)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
