package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationNewGigMatch              = "new_gig_match"
	NotificationApplicationStatusChanged = "application_status_changed"
	NotificationMessageCreated           = "message_created"
)

type Notification struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Type      string
	Title     string
	Body      string
	Data      map[string]interface{}
	IsRead    bool
	ReadAt    *time.Time
	CreatedAt time.Time
}

func NewNotification(userID uuid.UUID, kind, title, body string, data map[string]interface{}, now time.Time) *Notification {
	return &Notification{
		ID:        uuid.New(),
		UserID:    userID,
		Type:      kind,
		Title:     title,
		Body:      body,
		Data:      data,
		CreatedAt: now,
	}
}

func (n *Notification) MarkRead(now time.Time) {
	if n.IsRead {
		return
	}
	n.IsRead = true
	n.ReadAt = &now
}
