package entity

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

type Skill struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

func NewSkill(name string, now time.Time) (*Skill, error) {
	name, err := normalizeSkillName(name)
	if err != nil {
		return nil, err
	}
	return &Skill{ID: uuid.New(), Name: name, CreatedAt: now, UpdatedAt: now}, nil
}

func (s *Skill) Rename(name string, now time.Time) error {
	name, err := normalizeSkillName(name)
	if err != nil {
		return err
	}
	s.Name = name
	s.UpdatedAt = now
	return nil
}

func normalizeSkillName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperror.Validation(apperror.FieldError{Field: "name", Message: "название навыка обязательно"})
	}
	if utf8.RuneCountInString(name) > 255 {
		return "", apperror.Validation(apperror.FieldError{Field: "name", Message: "название навыка не длиннее 255 символов"})
	}
	return name, nil
}
