package dto

import (
	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
)

type SkillRequest struct {
	Name string `json:"name" binding:"required"`
}

type ReplaceMySkillsRequest struct {
	SkillIDs []uuid.UUID `json:"skill_ids"`
}

type SkillResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

func ToSkillResponse(s *entity.Skill) SkillResponse {
	return SkillResponse{ID: s.ID, Name: s.Name}
}

func ToSkillResponses(skills []*entity.Skill) []SkillResponse {
	result := make([]SkillResponse, len(skills))
	for i, s := range skills {
		result[i] = ToSkillResponse(s)
	}
	return result
}
