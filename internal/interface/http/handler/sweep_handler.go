package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/gig"
)

// SweepHandler даёт внешнему планировщику запустить плановый проход.
type SweepHandler struct {
	sweepUC *gig.SweepUseCase
}

func NewSweepHandler(sweepUC *gig.SweepUseCase) *SweepHandler {
	return &SweepHandler{sweepUC: sweepUC}
}

// Run обрабатывает POST /api/internal/sweeps/:kind.
func (h *SweepHandler) Run(c *gin.Context) {
	report, err := h.sweepUC.Run(c.Request.Context(), c.Param("kind"), time.Now())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, report)
}
