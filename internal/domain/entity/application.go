package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

type GigApplication struct {
	ID                       uuid.UUID
	GigID                    uuid.UUID
	UserID                   uuid.UUID
	Status                   valueobject.ApplicationStatus
	RequirementConfirmations []bool
	RejectionReason          *string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

func NewGigApplication(gigID, userID uuid.UUID, confirmations []bool, now time.Time) *GigApplication {
	return &GigApplication{
		ID:                       uuid.New(),
		GigID:                    gigID,
		UserID:                   userID,
		Status:                   valueobject.ApplicationStatusPending,
		RequirementConfirmations: confirmations,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
}

func (a *GigApplication) BelongsTo(gigID uuid.UUID) bool {
	return a.GigID == gigID
}

func (a *GigApplication) IsOwnedBy(userID uuid.UUID) bool {
	return a.UserID == userID
}

// HoldsSpot сообщает, занимает ли отклик место на смене.
func (a *GigApplication) HoldsSpot() bool {
	return a.Status == valueobject.ApplicationStatusAccepted
}

func (a *GigApplication) transition(to valueobject.ApplicationStatus, now time.Time) error {
	if !a.Status.CanTransitionTo(to) {
		return apperror.InvalidTransition("нельзя перевести отклик из статуса " + string(a.Status) + " в " + string(to))
	}
	a.Status = to
	a.UpdatedAt = now
	return nil
}

func (a *GigApplication) Accept(now time.Time) error {
	return a.transition(valueobject.ApplicationStatusAccepted, now)
}

func (a *GigApplication) Reject(reason *string, now time.Time) error {
	if err := a.transition(valueobject.ApplicationStatusRejected, now); err != nil {
		return err
	}
	a.RejectionReason = reason
	return nil
}

func (a *GigApplication) Cancel(now time.Time) error {
	return a.transition(valueobject.ApplicationStatusCancelled, now)
}

// Withdraw доступен исполнителю только для отклика в статусе pending.
func (a *GigApplication) Withdraw(now time.Time) error {
	if a.Status != valueobject.ApplicationStatusPending {
		return apperror.InvalidTransition("отозвать можно только отклик на рассмотрении")
	}
	return a.transition(valueobject.ApplicationStatusCancelled, now)
}

func (a *GigApplication) Complete(now time.Time) error {
	return a.transition(valueobject.ApplicationStatusCompleted, now)
}
