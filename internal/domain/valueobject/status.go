package valueobject

import "github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"

type GigStatus string

const (
	GigStatusOpen      GigStatus = "open"
	GigStatusFilled    GigStatus = "filled"
	GigStatusCompleted GigStatus = "completed"
	GigStatusClosed    GigStatus = "closed"
)

var gigTransitions = map[GigStatus][]GigStatus{
	GigStatusOpen:      {GigStatusFilled, GigStatusClosed, GigStatusCompleted},
	GigStatusFilled:    {GigStatusOpen, GigStatusClosed, GigStatusCompleted},
	GigStatusCompleted: {},
	GigStatusClosed:    {},
}

func (s GigStatus) IsValid() bool {
	switch s {
	case GigStatusOpen, GigStatusFilled, GigStatusCompleted, GigStatusClosed:
		return true
	}
	return false
}

func (s GigStatus) CanTransitionTo(newStatus GigStatus) bool {
	for _, status := range gigTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

// IsActive сообщает, что смена ещё не завершена и не закрыта.
func (s GigStatus) IsActive() bool {
	return s == GigStatusOpen || s == GigStatusFilled
}

func NewGigStatus(status string) (GigStatus, error) {
	s := GigStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation(apperror.FieldError{Field: "status", Message: "некорректный статус смены"})
	}
	return s, nil
}

type ApplicationStatus string

const (
	ApplicationStatusPending   ApplicationStatus = "pending"
	ApplicationStatusAccepted  ApplicationStatus = "accepted"
	ApplicationStatusRejected  ApplicationStatus = "rejected"
	ApplicationStatusCompleted ApplicationStatus = "completed"
	ApplicationStatusCancelled ApplicationStatus = "cancelled"
)

// AllApplicationStatuses перечисляет статусы в порядке жизненного цикла.
var AllApplicationStatuses = []ApplicationStatus{
	ApplicationStatusPending,
	ApplicationStatusAccepted,
	ApplicationStatusRejected,
	ApplicationStatusCompleted,
	ApplicationStatusCancelled,
}

var applicationTransitions = map[ApplicationStatus][]ApplicationStatus{
	ApplicationStatusPending:   {ApplicationStatusAccepted, ApplicationStatusRejected, ApplicationStatusCancelled},
	ApplicationStatusAccepted:  {ApplicationStatusRejected, ApplicationStatusCancelled, ApplicationStatusCompleted},
	ApplicationStatusRejected:  {},
	ApplicationStatusCompleted: {},
	ApplicationStatusCancelled: {},
}

func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationStatusPending, ApplicationStatusAccepted, ApplicationStatusRejected,
		ApplicationStatusCompleted, ApplicationStatusCancelled:
		return true
	}
	return false
}

func (s ApplicationStatus) CanTransitionTo(newStatus ApplicationStatus) bool {
	for _, status := range applicationTransitions[s] {
		if status == newStatus {
			return true
		}
	}
	return false
}

func NewApplicationStatus(status string) (ApplicationStatus, error) {
	s := ApplicationStatus(status)
	if !s.IsValid() {
		return "", apperror.Validation(apperror.FieldError{Field: "status", Message: "некорректный статус отклика"})
	}
	return s, nil
}

type Role string

const (
	RoleEmployer   Role = "employer"
	RoleFreelancer Role = "freelancer"
	RoleAdmin      Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleEmployer, RoleFreelancer, RoleAdmin:
		return true
	}
	return false
}

func NewRole(role string) (Role, error) {
	r := Role(role)
	if !r.IsValid() {
		return "", apperror.Validation(apperror.FieldError{Field: "role", Message: "роль должна быть employer, freelancer или admin"})
	}
	return r, nil
}

type AppealStatus string

const (
	AppealStatusPending  AppealStatus = "pending"
	AppealStatusApproved AppealStatus = "approved"
	AppealStatusRejected AppealStatus = "rejected"
)

type ReportStatus string

const (
	ReportStatusPending  ReportStatus = "pending"
	ReportStatusReviewed ReportStatus = "reviewed"
)

type ReportReason string

const (
	ReportReasonSpam          ReportReason = "spam"
	ReportReasonHarassment    ReportReason = "harassment"
	ReportReasonInappropriate ReportReason = "inappropriate"
	ReportReasonScam          ReportReason = "scam"
	ReportReasonOther         ReportReason = "other"
)

func NewReportReason(reason string) (ReportReason, error) {
	r := ReportReason(reason)
	switch r {
	case ReportReasonSpam, ReportReasonHarassment, ReportReasonInappropriate, ReportReasonScam, ReportReasonOther:
		return r, nil
	}
	return "", apperror.Validation(apperror.FieldError{Field: "reason", Message: "причина должна быть spam, harassment, inappropriate, scam или other"})
}
