package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
)

// GigCreated публикуется после создания смены; по SkillIDs подбираются исполнители.
type GigCreated struct {
	GigID      uuid.UUID   `json:"gig_id"`
	EmployerID uuid.UUID   `json:"employer_id"`
	Title      string      `json:"title"`
	Location   string      `json:"location"`
	StartAt    time.Time   `json:"start_at"`
	Pay        float64     `json:"pay"`
	SkillIDs   []uuid.UUID `json:"skill_ids"`
	CreatedAt  time.Time   `json:"created_at"`
}

type ApplicationStatusChanged struct {
	ApplicationID uuid.UUID                     `json:"application_id"`
	GigID         uuid.UUID                     `json:"gig_id"`
	GigTitle      string                        `json:"gig_title"`
	FreelancerID  uuid.UUID                     `json:"freelancer_id"`
	Status        valueobject.ApplicationStatus `json:"status"`
	GigStatus     valueobject.GigStatus         `json:"gig_status"`
	Reason        *string                       `json:"reason,omitempty"`
}

type MessageCreated struct {
	ConversationID uuid.UUID `json:"conversation_id"`
	MessageID      uuid.UUID `json:"message_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	RecipientID    uuid.UUID `json:"recipient_id"`
	Body           string    `json:"body"`
	CreatedAt      time.Time `json:"created_at"`
}

// Publisher доставляет события асинхронно; ошибки доставки не влияют на исходную операцию.
type Publisher interface {
	GigCreated(ctx context.Context, e GigCreated)
	ApplicationStatusChanged(ctx context.Context, e ApplicationStatusChanged)
	MessageCreated(ctx context.Context, e MessageCreated)
}

// NopPublisher ничего не делает.
type NopPublisher struct{}

func (NopPublisher) GigCreated(context.Context, GigCreated)                             {}
func (NopPublisher) ApplicationStatusChanged(context.Context, ApplicationStatusChanged) {}
func (NopPublisher) MessageCreated(context.Context, MessageCreated)                     {}

// MultiPublisher передаёт каждое событие всем получателям по очереди.
type MultiPublisher []Publisher

func (m MultiPublisher) GigCreated(ctx context.Context, e GigCreated) {
	for _, p := range m {
		p.GigCreated(ctx, e)
	}
}

func (m MultiPublisher) ApplicationStatusChanged(ctx context.Context, e ApplicationStatusChanged) {
	for _, p := range m {
		p.ApplicationStatusChanged(ctx, e)
	}
}

func (m MultiPublisher) MessageCreated(ctx context.Context, e MessageCreated) {
	for _, p := range m {
		p.MessageCreated(ctx, e)
	}
}
