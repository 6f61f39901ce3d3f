package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

type User struct {
	ID              uuid.UUID
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	Role            valueobject.Role
	PhoneNumber     *string
	ProfileImageURL *string
	IsActive        bool
	EmailVerifiedAt *time.Time
	PhoneVerifiedAt *time.Time
	LastLoginAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) IsEmployer() bool {
	return u.Role == valueobject.RoleEmployer
}

func (u *User) IsFreelancer() bool {
	return u.Role == valueobject.RoleFreelancer
}

// VerifyEmail отмечает почту подтверждённой. false если она уже подтверждена.
func (u *User) VerifyEmail(now time.Time) bool {
	if u.EmailVerifiedAt != nil {
		return false
	}
	u.EmailVerifiedAt = &now
	u.UpdatedAt = now
	return true
}

// VerifyPhone подтверждает телефон. Новый номер заменяет старый и
// подтверждается заново.
func (u *User) VerifyPhone(phone *string, now time.Time) (bool, error) {
	if phone != nil && *phone != "" && (u.PhoneNumber == nil || *u.PhoneNumber != *phone) {
		number := *phone
		u.PhoneNumber = &number
		u.PhoneVerifiedAt = nil
	}
	if u.PhoneNumber == nil || *u.PhoneNumber == "" {
		return false, apperror.Validation(apperror.FieldError{Field: "phone_number", Message: "номер телефона не указан"})
	}
	if u.PhoneVerifiedAt != nil {
		return false, nil
	}
	u.PhoneVerifiedAt = &now
	u.UpdatedAt = now
	return true, nil
}

// FreelancerProfile дополняет пользователя-исполнителя.
type FreelancerProfile struct {
	UserID           uuid.UUID
	Bio              *string
	ResumeURL        *string
	ResumeUploadedAt *time.Time
	Availability     *string
	AvailableToday   bool
	AvgRating        *float64
	CompletedGigs    int
	NoShows          int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func NewFreelancerProfile(userID uuid.UUID, now time.Time) *FreelancerProfile {
	return &FreelancerProfile{UserID: userID, CreatedAt: now, UpdatedAt: now}
}

func (p *FreelancerProfile) AttachResume(url string, now time.Time) {
	p.ResumeURL = &url
	p.ResumeUploadedAt = &now
	p.UpdatedAt = now
}
