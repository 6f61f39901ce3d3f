package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

// TokenPair хранит пару access/refresh токенов.
type TokenPair struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Claims access токена.
type Claims struct {
	Role valueobject.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager выпускает и проверяет JWT.
type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	now           func() time.Time
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		now:           time.Now,
	}
}

func (m *TokenManager) GeneratePair(user *entity.User) (*TokenPair, error) {
	now := m.now()
	accessExp := now.Add(m.accessTTL)

	access := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role: user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(accessExp),
		},
	})
	accessToken, err := access.SignedString(m.accessSecret)
	if err != nil {
		return nil, fmt.Errorf("sign access token: %w", err)
	}

	refresh := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   user.ID.String(),
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
	})
	refreshToken, err := refresh.SignedString(m.refreshSecret)
	if err != nil {
		return nil, fmt.Errorf("sign refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    accessExp,
	}, nil
}

// ParseAccess извлекает пользователя и роль из access токена.
func (m *TokenManager) ParseAccess(token string) (uuid.UUID, valueobject.Role, error) {
	claims := &Claims{}
	if _, err := m.parse(token, claims, m.accessSecret); err != nil {
		return uuid.Nil, "", err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || !claims.Role.IsValid() {
		return uuid.Nil, "", apperror.ErrUnauthorized
	}
	return userID, claims.Role, nil
}

// RefreshToken проверенный refresh токен; ID нужен для отзыва при выходе.
type RefreshToken struct {
	UserID    uuid.UUID
	ID        string
	ExpiresAt time.Time
}

func (m *TokenManager) ParseRefresh(token string) (*RefreshToken, error) {
	claims := &jwt.RegisteredClaims{}
	if _, err := m.parse(token, claims, m.refreshSecret); err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil || claims.ID == "" || claims.ExpiresAt == nil {
		return nil, apperror.ErrUnauthorized
	}
	return &RefreshToken{UserID: userID, ID: claims.ID, ExpiresAt: claims.ExpiresAt.Time}, nil
}

func (m *TokenManager) parse(token string, claims jwt.Claims, secret []byte) (*jwt.Token, error) {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "срок действия токена истёк")
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeUnauthorized, "недействительный токен")
	}
	if !parsed.Valid {
		return nil, apperror.ErrUnauthorized
	}
	return parsed, nil
}
