package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

const MaxMessageLength = 5000

// Conversation однозначно определяется тройкой (смена, работодатель, исполнитель).
type Conversation struct {
	ID            uuid.UUID
	GigID         *uuid.UUID
	EmployerID    uuid.UUID
	FreelancerID  uuid.UUID
	LastMessageAt *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func NewConversation(gigID *uuid.UUID, employerID, freelancerID uuid.UUID, now time.Time) (*Conversation, error) {
	if employerID == freelancerID {
		return nil, apperror.Validation(apperror.FieldError{Field: "participant_id", Message: "нельзя создать беседу с самим собой"})
	}
	return &Conversation{
		ID:           uuid.New(),
		GigID:        gigID,
		EmployerID:   employerID,
		FreelancerID: freelancerID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

func (c *Conversation) IsParticipant(userID uuid.UUID) bool {
	return c.EmployerID == userID || c.FreelancerID == userID
}

func (c *Conversation) OtherParticipant(userID uuid.UUID) uuid.UUID {
	if c.EmployerID == userID {
		return c.FreelancerID
	}
	return c.EmployerID
}

func (c *Conversation) Touch(at time.Time) {
	c.LastMessageAt = &at
	c.UpdatedAt = at
}

// Participant хранит отметку прочтения пользователя в беседе.
type Participant struct {
	ConversationID uuid.UUID
	UserID         uuid.UUID
	LastReadAt     *time.Time
}

// ReadSince возвращает момент, после которого сообщения считаются непрочитанными.
func (p *Participant) ReadSince() time.Time {
	if p == nil || p.LastReadAt == nil {
		return time.Unix(0, 0).UTC()
	}
	return *p.LastReadAt
}

type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	SenderID       uuid.UUID
	Body           string
	IsEdited       bool
	EditedAt       *time.Time
	DeletedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func NewMessage(conversationID, senderID uuid.UUID, body string, now time.Time) (*Message, error) {
	body, err := normalizeMessageBody(body)
	if err != nil {
		return nil, err
	}
	return &Message{
		ID:             uuid.New(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Body:           body,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (m *Message) IsOwnedBy(userID uuid.UUID) bool {
	return m.SenderID == userID
}

func (m *Message) IsDeleted() bool {
	return m.DeletedAt != nil
}

// CanEdit: только отправитель, не удалено и не позже window от создания включительно.
func (m *Message) CanEdit(userID uuid.UUID, now time.Time, window time.Duration) bool {
	return m.IsOwnedBy(userID) && !m.IsDeleted() && now.Sub(m.CreatedAt) <= window
}

func (m *Message) CanDelete(userID uuid.UUID) bool {
	return m.IsOwnedBy(userID) && !m.IsDeleted()
}

func (m *Message) Edit(userID uuid.UUID, body string, now time.Time, window time.Duration) error {
	if !m.IsOwnedBy(userID) {
		return apperror.InvalidTransition("редактировать можно только свои сообщения")
	}
	if m.IsDeleted() {
		return apperror.InvalidTransition("сообщение удалено")
	}
	if now.Sub(m.CreatedAt) > window {
		return apperror.InvalidTransition("время на редактирование сообщения истекло")
	}
	body, err := normalizeMessageBody(body)
	if err != nil {
		return err
	}
	m.Body = body
	m.IsEdited = true
	m.EditedAt = &now
	m.UpdatedAt = now
	return nil
}

func (m *Message) Delete(userID uuid.UUID, now time.Time) error {
	if !m.IsOwnedBy(userID) {
		return apperror.InvalidTransition("удалять можно только свои сообщения")
	}
	if m.IsDeleted() {
		return apperror.InvalidTransition("сообщение уже удалено")
	}
	m.DeletedAt = &now
	m.UpdatedAt = now
	return nil
}

// IsUnreadFor: чужое неудалённое сообщение, созданное после отметки прочтения.
func (m *Message) IsUnreadFor(userID uuid.UUID, since time.Time) bool {
	return m.SenderID != userID && !m.IsDeleted() && m.CreatedAt.After(since)
}

// VisibleBody скрывает текст удалённого сообщения.
func (m *Message) VisibleBody() *string {
	if m.IsDeleted() {
		return nil
	}
	body := m.Body
	return &body
}

func normalizeMessageBody(body string) (string, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return "", apperror.Validation(apperror.FieldError{Field: "body", Message: "сообщение не может быть пустым"})
	}
	if utf8.RuneCountInString(body) > MaxMessageLength {
		return "", apperror.Validation(apperror.FieldError{Field: "body", Message: "сообщение не длиннее 5000 символов"})
	}
	return body, nil
}
