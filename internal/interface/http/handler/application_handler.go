package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/dto"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/application"
)

type ApplicationHandler struct {
	applyUC        *application.ApplyUseCase
	listForGigUC   *application.ListForGigUseCase
	updateStatusUC *application.UpdateApplicationStatusUseCase
	listMineUC     *application.ListMineUseCase
	getMineUC      *application.GetMineUseCase
	countMineUC    *application.CountMineUseCase
	summaryUC      *application.CompletedSummaryUseCase
	withdrawUC     *application.WithdrawUseCase
}

func NewApplicationHandler(
	applyUC *application.ApplyUseCase,
	listForGigUC *application.ListForGigUseCase,
	updateStatusUC *application.UpdateApplicationStatusUseCase,
	listMineUC *application.ListMineUseCase,
	getMineUC *application.GetMineUseCase,
	countMineUC *application.CountMineUseCase,
	summaryUC *application.CompletedSummaryUseCase,
	withdrawUC *application.WithdrawUseCase,
) *ApplicationHandler {
	return &ApplicationHandler{
		applyUC:        applyUC,
		listForGigUC:   listForGigUC,
		updateStatusUC: updateStatusUC,
		listMineUC:     listMineUC,
		getMineUC:      getMineUC,
		countMineUC:    countMineUC,
		summaryUC:      summaryUC,
		withdrawUC:     withdrawUC,
	}
}

// Apply обрабатывает POST /api/gigs/:id/applications.
func (h *ApplicationHandler) Apply(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	gigID, ok := parseUUIDParam(c, "id", "некорректный ID смены")
	if !ok {
		return
	}

	var req dto.ApplyRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	app, err := h.applyUC.Execute(c.Request.Context(), application.ApplyInput{
		GigID:                    gigID,
		FreelancerID:             userID,
		RequirementConfirmations: req.RequirementConfirmations,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToApplicationResponse(app))
}

// ListForGig обрабатывает GET /api/gigs/:id/applications?status=.
func (h *ApplicationHandler) ListForGig(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	gigID, ok := parseUUIDParam(c, "id", "некорректный ID смены")
	if !ok {
		return
	}

	views, err := h.listForGigUC.Execute(c.Request.Context(), gigID, userID, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToApplicationViewResponses(views))
}

// UpdateStatus обрабатывает PATCH /api/gigs/:id/applications/:applicationId/status.
func (h *ApplicationHandler) UpdateStatus(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	gigID, ok := parseUUIDParam(c, "id", "некорректный ID смены")
	if !ok {
		return
	}
	appID, ok := parseUUIDParam(c, "applicationId", "некорректный ID отклика")
	if !ok {
		return
	}

	var req dto.UpdateApplicationStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.updateStatusUC.Execute(c.Request.Context(), application.UpdateStatusInput{
		GigID:           gigID,
		ApplicationID:   appID,
		EmployerID:      userID,
		Status:          valueobject.ApplicationStatus(req.Status),
		RejectionReason: req.RejectionReason,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToApplicationStatusResponse(result))
}

// ListMine обрабатывает GET /api/my-applications?status=.
func (h *ApplicationHandler) ListMine(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	views, err := h.listMineUC.Execute(c.Request.Context(), userID, c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToApplicationViewResponses(views))
}

func (h *ApplicationHandler) GetMine(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	appID, ok := parseUUIDParam(c, "id", "некорректный ID отклика")
	if !ok {
		return
	}

	view, err := h.getMineUC.Execute(c.Request.Context(), appID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToApplicationViewResponse(view))
}

func (h *ApplicationHandler) CountMine(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	counts, err := h.countMineUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToStatusCounts(counts))
}

func (h *ApplicationHandler) CompletedSummary(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	summary, err := h.summaryUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToCompletedSummaryResponse(summary))
}

// Withdraw обрабатывает POST /api/my-applications/:id/withdraw.
func (h *ApplicationHandler) Withdraw(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	appID, ok := parseUUIDParam(c, "id", "некорректный ID отклика")
	if !ok {
		return
	}

	app, err := h.withdrawUC.Execute(c.Request.Context(), appID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToApplicationResponse(app))
}
