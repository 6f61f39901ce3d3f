package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

const (
	ReportTargetConversation = "conversation"
	ReportTargetMessage      = "message"
)

// Reportable: жалоба направлена либо на беседу, либо на сообщение.
type Reportable interface {
	TargetID() uuid.UUID
	TargetType() string
	reportable()
}

type ConversationTarget struct{ ID uuid.UUID }

func (t ConversationTarget) TargetID() uuid.UUID { return t.ID }
func (t ConversationTarget) TargetType() string  { return ReportTargetConversation }
func (ConversationTarget) reportable()           {}

type MessageTarget struct{ ID uuid.UUID }

func (t MessageTarget) TargetID() uuid.UUID { return t.ID }
func (t MessageTarget) TargetType() string  { return ReportTargetMessage }
func (MessageTarget) reportable()           {}

func NewReportable(targetType string, id uuid.UUID) (Reportable, error) {
	switch targetType {
	case ReportTargetConversation:
		return ConversationTarget{ID: id}, nil
	case ReportTargetMessage:
		return MessageTarget{ID: id}, nil
	}
	return nil, apperror.Validation(apperror.FieldError{Field: "reportable_type", Message: "жалобу можно подать на conversation или message"})
}

const MaxReportDetailsLength = 2000

type Report struct {
	ID         uuid.UUID
	ReporterID uuid.UUID
	Target     Reportable
	Reason     valueobject.ReportReason
	Details    *string
	Status     valueobject.ReportStatus
	CreatedAt  time.Time
}

func NewReport(reporterID uuid.UUID, target Reportable, reason valueobject.ReportReason, details *string, now time.Time) (*Report, error) {
	if details != nil {
		trimmed := strings.TrimSpace(*details)
		if utf8.RuneCountInString(trimmed) > MaxReportDetailsLength {
			return nil, apperror.Validation(apperror.FieldError{Field: "details", Message: "описание не длиннее 2000 символов"})
		}
		details = &trimmed
	}
	return &Report{
		ID:         uuid.New(),
		ReporterID: reporterID,
		Target:     target,
		Reason:     reason,
		Details:    details,
		Status:     valueobject.ReportStatusPending,
		CreatedAt:  now,
	}, nil
}
