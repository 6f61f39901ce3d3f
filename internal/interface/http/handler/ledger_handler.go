package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/dto"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/ledger"
)

// LedgerHandler: отзывы по завершённым сменам и взыскания.
type LedgerHandler struct {
	recordReviewUC *ledger.RecordReviewUseCase
	issueUC        *ledger.IssuePenaltyUseCase
	listMineUC     *ledger.ListMyPenaltiesUseCase
	getMineUC      *ledger.GetMyPenaltyUseCase
	appealUC       *ledger.AppealPenaltyUseCase
}

func NewLedgerHandler(
	recordReviewUC *ledger.RecordReviewUseCase,
	issueUC *ledger.IssuePenaltyUseCase,
	listMineUC *ledger.ListMyPenaltiesUseCase,
	getMineUC *ledger.GetMyPenaltyUseCase,
	appealUC *ledger.AppealPenaltyUseCase,
) *LedgerHandler {
	return &LedgerHandler{
		recordReviewUC: recordReviewUC,
		issueUC:        issueUC,
		listMineUC:     listMineUC,
		getMineUC:      getMineUC,
		appealUC:       appealUC,
	}
}

// RecordReview обрабатывает POST /api/gigs/:id/applications/:applicationId/review.
func (h *LedgerHandler) RecordReview(c *gin.Context) {
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

	var req dto.ReviewRequest
	if !bindJSON(c, &req) {
		return
	}

	review, err := h.recordReviewUC.Execute(c.Request.Context(), ledger.RecordReviewInput{
		GigID:         gigID,
		ApplicationID: appID,
		EmployerID:    userID,
		Rating:        req.Rating,
		Review:        req.Review,
		Earnings:      req.Earnings,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToReviewResponse(review))
}

// IssuePenalty обрабатывает POST /api/penalties.
func (h *LedgerHandler) IssuePenalty(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.IssuePenaltyRequest
	if !bindJSON(c, &req) {
		return
	}

	penalty, summary, err := h.issueUC.Execute(c.Request.Context(), ledger.IssuePenaltyInput{
		IssuerID:    userID,
		IssuerRole:  role,
		UserID:      req.UserID,
		GigID:       req.GigID,
		Reason:      req.Reason,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.IssuedPenaltyResponse{
		Penalty:        dto.ToPenaltyResponse(penalty),
		WarningSummary: dto.ToWarningSummaryResponse(summary),
	})
}

func (h *LedgerHandler) ListMyPenalties(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.listMineUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToMyPenaltiesResponse(result))
}

func (h *LedgerHandler) GetMyPenalty(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	penaltyID, ok := parseUUIDParam(c, "id", "некорректный ID взыскания")
	if !ok {
		return
	}

	view, summary, err := h.getMineUC.Execute(c.Request.Context(), penaltyID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.PenaltyDetailResponse{
		PenaltyResponse: dto.ToPenaltyViewResponse(view),
		WarningSummary:  dto.ToWarningSummaryResponse(summary),
	})
}

// Appeal обрабатывает POST /api/my-penalties/:id/appeal; одна апелляция на взыскание.
func (h *LedgerHandler) Appeal(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	penaltyID, ok := parseUUIDParam(c, "id", "некорректный ID взыскания")
	if !ok {
		return
	}

	var req dto.AppealRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	view, err := h.appealUC.Execute(c.Request.Context(), penaltyID, userID, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToPenaltyViewResponse(view))
}
