package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/dto"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/report"
)

type ReportHandler struct {
	createUC *report.CreateReportUseCase
	listUC   *report.ListMyReportsUseCase
}

func NewReportHandler(createUC *report.CreateReportUseCase, listUC *report.ListMyReportsUseCase) *ReportHandler {
	return &ReportHandler{createUC: createUC, listUC: listUC}
}

// CreateReport обрабатывает POST /api/reports.
func (h *ReportHandler) CreateReport(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateReportRequest
	if !bindJSON(c, &req) {
		return
	}

	target, err := entity.NewReportable(req.ReportableType, req.ReportableID)
	if err != nil {
		response.Error(c, err)
		return
	}

	created, err := h.createUC.Execute(c.Request.Context(), report.CreateReportInput{
		ReporterID: userID,
		Target:     target,
		Reason:     req.Reason,
		Details:    req.Details,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToReportResponse(created))
}

func (h *ReportHandler) ListMyReports(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	reports, err := h.listUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToReportResponses(reports))
}
