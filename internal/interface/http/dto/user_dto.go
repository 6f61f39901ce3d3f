package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/user"
)

type RegisterRequest struct {
	Email       string  `json:"email" binding:"required"`
	Password    string  `json:"password" binding:"required"`
	FirstName   string  `json:"first_name"`
	LastName    string  `json:"last_name"`
	Role        string  `json:"role" binding:"required"`
	PhoneNumber *string `json:"phone_number"`
}

func (r RegisterRequest) ToInput() user.RegisterInput {
	return user.RegisterInput{
		Email:       r.Email,
		Password:    r.Password,
		FirstName:   r.FirstName,
		LastName:    r.LastName,
		Role:        r.Role,
		PhoneNumber: r.PhoneNumber,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type VerifyPhoneRequest struct {
	PhoneNumber *string `json:"phone_number" binding:"omitempty,max=20"`
}

type VerificationStatusResponse struct {
	EmailVerified   bool       `json:"email_verified"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	PhoneVerified   bool       `json:"phone_verified"`
	PhoneVerifiedAt *time.Time `json:"phone_verified_at"`
	PhoneNumber     *string    `json:"phone_number"`
}

func ToVerificationStatusResponse(u *entity.User) VerificationStatusResponse {
	return VerificationStatusResponse{
		EmailVerified:   u.EmailVerifiedAt != nil,
		EmailVerifiedAt: u.EmailVerifiedAt,
		PhoneVerified:   u.PhoneVerifiedAt != nil,
		PhoneVerifiedAt: u.PhoneVerifiedAt,
		PhoneNumber:     u.PhoneNumber,
	}
}

type VerificationResponse struct {
	Message string                     `json:"message"`
	Status  VerificationStatusResponse `json:"status"`
}

func ToVerificationResponse(res *user.VerificationResult, verified, already string) VerificationResponse {
	message := verified
	if res.AlreadyVerified {
		message = already
	}
	return VerificationResponse{Message: message, Status: ToVerificationStatusResponse(res.User)}
}

type UserResponse struct {
	ID              uuid.UUID        `json:"id"`
	Email           string           `json:"email"`
	FirstName       string           `json:"first_name"`
	LastName        string           `json:"last_name"`
	FullName        string           `json:"full_name"`
	Role            valueobject.Role `json:"role"`
	PhoneNumber     *string          `json:"phone_number,omitempty"`
	ProfileImageURL *string          `json:"profile_image_url,omitempty"`
	IsActive        bool             `json:"is_active"`
	LastLoginAt     *time.Time       `json:"last_login_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

func ToUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		FullName:        u.FullName(),
		Role:            u.Role,
		PhoneNumber:     u.PhoneNumber,
		ProfileImageURL: u.ProfileImageURL,
		IsActive:        u.IsActive,
		LastLoginAt:     u.LastLoginAt,
		CreatedAt:       u.CreatedAt,
	}
}

func ToUserResponses(users []*entity.User) []UserResponse {
	result := make([]UserResponse, len(users))
	for i, u := range users {
		result[i] = ToUserResponse(u)
	}
	return result
}

// UserSummary: публичная часть пользователя, без email и телефона.
type UserSummary struct {
	ID              uuid.UUID        `json:"id"`
	FirstName       string           `json:"first_name"`
	LastName        string           `json:"last_name"`
	FullName        string           `json:"full_name"`
	Role            valueobject.Role `json:"role"`
	ProfileImageURL *string          `json:"profile_image_url,omitempty"`
}

func ToUserSummary(u *entity.User) *UserSummary {
	if u == nil {
		return nil
	}
	return &UserSummary{
		ID:              u.ID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		FullName:        u.FullName(),
		Role:            u.Role,
		ProfileImageURL: u.ProfileImageURL,
	}
}

type AuthResponse struct {
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	ExpiresAt    time.Time    `json:"expires_at"`
}

func ToAuthResponse(r *user.AuthResult) AuthResponse {
	return AuthResponse{
		User:         ToUserResponse(r.User),
		AccessToken:  r.Tokens.AccessToken,
		RefreshToken: r.Tokens.RefreshToken,
		TokenType:    r.Tokens.TokenType,
		ExpiresAt:    r.Tokens.ExpiresAt,
	}
}

type UpdateProfileRequest struct {
	Bio            *string `json:"bio"`
	Availability   *string `json:"availability"`
	AvailableToday *bool   `json:"available_today"`
}

type ProfileResponse struct {
	UserID           uuid.UUID  `json:"user_id"`
	Bio              *string    `json:"bio"`
	ResumeURL        *string    `json:"resume_url"`
	ResumeUploadedAt *time.Time `json:"resume_uploaded_at"`
	Availability     *string    `json:"availability"`
	AvailableToday   bool       `json:"available_today"`
	AvgRating        *float64   `json:"avg_rating"`
	CompletedGigs    int        `json:"completed_gigs"`
	NoShows          int        `json:"no_shows"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

func ToProfileResponse(p *entity.FreelancerProfile) ProfileResponse {
	resp := ProfileResponse{
		UserID:           p.UserID,
		Bio:              p.Bio,
		ResumeURL:        p.ResumeURL,
		ResumeUploadedAt: p.ResumeUploadedAt,
		Availability:     p.Availability,
		AvailableToday:   p.AvailableToday,
		CompletedGigs:    p.CompletedGigs,
		NoShows:          p.NoShows,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.AvgRating != nil {
		avg := valueobject.Round2(*p.AvgRating)
		resp.AvgRating = &avg
	}
	return resp
}
