package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

const MaxAppealLength = 2000

type Penalty struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	GigID       *uuid.UUID
	IssuedBy    uuid.UUID
	Reason      string
	Description *string
	CreatedAt   time.Time
}

func NewPenalty(userID uuid.UUID, gigID *uuid.UUID, issuedBy uuid.UUID, reason string, description *string, now time.Time) (*Penalty, error) {
	var errs apperror.FieldErrors
	reason = strings.TrimSpace(reason)
	switch {
	case reason == "":
		errs.Add("reason", "причина обязательна")
	case utf8.RuneCountInString(reason) > 255:
		errs.Add("reason", "причина не длиннее 255 символов")
	}
	if userID == issuedBy {
		errs.Add("user_id", "нельзя выдать взыскание самому себе")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return &Penalty{
		ID:          uuid.New(),
		UserID:      userID,
		GigID:       gigID,
		IssuedBy:    issuedBy,
		Reason:      reason,
		Description: description,
		CreatedAt:   now,
	}, nil
}

func (p *Penalty) IsOwnedBy(userID uuid.UUID) bool {
	return p.UserID == userID
}

type PenaltyAppeal struct {
	ID        uuid.UUID
	PenaltyID uuid.UUID
	UserID    uuid.UUID
	Message   *string
	Status    valueobject.AppealStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewPenaltyAppeal(penalty *Penalty, userID uuid.UUID, message *string, now time.Time) (*PenaltyAppeal, error) {
	if !penalty.IsOwnedBy(userID) {
		return nil, apperror.ErrForbidden
	}
	if message != nil {
		trimmed := strings.TrimSpace(*message)
		if utf8.RuneCountInString(trimmed) > MaxAppealLength {
			return nil, apperror.Validation(apperror.FieldError{Field: "message", Message: "текст апелляции не длиннее 2000 символов"})
		}
		if trimmed == "" {
			message = nil
		} else {
			message = &trimmed
		}
	}
	return &PenaltyAppeal{
		ID:        uuid.New(),
		PenaltyID: penalty.ID,
		UserID:    userID,
		Message:   message,
		Status:    valueobject.AppealStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
