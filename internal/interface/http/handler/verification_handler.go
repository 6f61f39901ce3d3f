package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/dto"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/user"
)

type VerificationHandler struct {
	statusUC *user.GetVerificationStatusUseCase
	emailUC  *user.VerifyEmailUseCase
	phoneUC  *user.VerifyPhoneUseCase
}

func NewVerificationHandler(
	statusUC *user.GetVerificationStatusUseCase,
	emailUC *user.VerifyEmailUseCase,
	phoneUC *user.VerifyPhoneUseCase,
) *VerificationHandler {
	return &VerificationHandler{statusUC: statusUC, emailUC: emailUC, phoneUC: phoneUC}
}

// Status обрабатывает GET /api/verification/status.
func (h *VerificationHandler) Status(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	u, err := h.statusUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToVerificationStatusResponse(u))
}

// VerifyEmail обрабатывает POST /api/verification/email/verify.
func (h *VerificationHandler) VerifyEmail(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	res, err := h.emailUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToVerificationResponse(res, "почта подтверждена", "почта уже подтверждена"))
}

// VerifyPhone обрабатывает POST /api/verification/phone/verify. Тело необязательно.
func (h *VerificationHandler) VerifyPhone(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	var req dto.VerifyPhoneRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	res, err := h.phoneUC.Execute(c.Request.Context(), userID, req.PhoneNumber)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToVerificationResponse(res, "телефон подтверждён", "телефон уже подтверждён"))
}
