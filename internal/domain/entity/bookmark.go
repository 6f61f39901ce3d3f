package entity

import (
	"time"

	"github.com/google/uuid"
)

type GigBookmark struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	GigID     uuid.UUID
	CreatedAt time.Time
}

func NewGigBookmark(userID, gigID uuid.UUID, now time.Time) *GigBookmark {
	return &GigBookmark{ID: uuid.New(), UserID: userID, GigID: gigID, CreatedAt: now}
}
