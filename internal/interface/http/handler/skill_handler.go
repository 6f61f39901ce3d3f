package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/dto"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/skill"
)

type SkillHandler struct {
	listUC        *skill.ListSkillsUseCase
	getUC         *skill.GetSkillUseCase
	createUC      *skill.CreateSkillUseCase
	renameUC      *skill.RenameSkillUseCase
	deleteUC      *skill.DeleteSkillUseCase
	listMineUC    *skill.ListMySkillsUseCase
	replaceMineUC *skill.ReplaceMySkillsUseCase
}

func NewSkillHandler(
	listUC *skill.ListSkillsUseCase,
	getUC *skill.GetSkillUseCase,
	createUC *skill.CreateSkillUseCase,
	renameUC *skill.RenameSkillUseCase,
	deleteUC *skill.DeleteSkillUseCase,
	listMineUC *skill.ListMySkillsUseCase,
	replaceMineUC *skill.ReplaceMySkillsUseCase,
) *SkillHandler {
	return &SkillHandler{
		listUC:        listUC,
		getUC:         getUC,
		createUC:      createUC,
		renameUC:      renameUC,
		deleteUC:      deleteUC,
		listMineUC:    listMineUC,
		replaceMineUC: replaceMineUC,
	}
}

func (h *SkillHandler) ListSkills(c *gin.Context) {
	skills, err := h.listUC.Execute(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToSkillResponses(skills))
}

func (h *SkillHandler) GetSkill(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "некорректный ID навыка")
	if !ok {
		return
	}

	s, err := h.getUC.Execute(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToSkillResponse(s))
}

func (h *SkillHandler) CreateSkill(c *gin.Context) {
	var req dto.SkillRequest
	if !bindJSON(c, &req) {
		return
	}

	s, err := h.createUC.Execute(c.Request.Context(), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToSkillResponse(s))
}

func (h *SkillHandler) RenameSkill(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "некорректный ID навыка")
	if !ok {
		return
	}
	var req dto.SkillRequest
	if !bindJSON(c, &req) {
		return
	}

	s, err := h.renameUC.Execute(c.Request.Context(), id, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToSkillResponse(s))
}

func (h *SkillHandler) DeleteSkill(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id", "некорректный ID навыка")
	if !ok {
		return
	}

	if err := h.deleteUC.Execute(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListMySkills обрабатывает GET /api/my-skills.
func (h *SkillHandler) ListMySkills(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	skills, err := h.listMineUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToSkillResponses(skills))
}

// ReplaceMySkills обрабатывает PUT /api/my-skills: набор заменяется целиком.
func (h *SkillHandler) ReplaceMySkills(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.ReplaceMySkillsRequest
	if !bindJSON(c, &req) {
		return
	}

	skills, err := h.replaceMineUC.Execute(c.Request.Context(), userID, req.SkillIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToSkillResponses(skills))
}
