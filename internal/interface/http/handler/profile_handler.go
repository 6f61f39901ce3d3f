package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/dto"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/user"
)

const resumeFormField = "resume"

type ProfileHandler struct {
	getUC    *user.GetProfileUseCase
	updateUC *user.UpdateProfileUseCase
	resumeUC *user.UploadResumeUseCase
}

func NewProfileHandler(getUC *user.GetProfileUseCase, updateUC *user.UpdateProfileUseCase, resumeUC *user.UploadResumeUseCase) *ProfileHandler {
	return &ProfileHandler{getUC: getUC, updateUC: updateUC, resumeUC: resumeUC}
}

func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	profile, err := h.getUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToProfileResponse(profile))
}

func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.updateUC.Execute(c.Request.Context(), user.UpdateProfileInput{
		UserID:         userID,
		Bio:            req.Bio,
		Availability:   req.Availability,
		AvailableToday: req.AvailableToday,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToProfileResponse(profile))
}

// UploadResume обрабатывает POST /api/freelancer-profile/resume (multipart, поле resume).
// Тип и размер проверяет хранилище по содержимому.
func (h *ProfileHandler) UploadResume(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	header, err := c.FormFile(resumeFormField)
	if err != nil {
		response.BadRequest(c, "файл resume обязателен")
		return
	}
	file, err := header.Open()
	if err != nil {
		response.BadRequest(c, "не удалось прочитать файл")
		return
	}
	defer file.Close()

	profile, err := h.resumeUC.Execute(c.Request.Context(), userID, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToProfileResponse(profile))
}
