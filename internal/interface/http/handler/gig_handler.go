package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/dto"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/gig"
)

type GigHandler struct {
	createUC  *gig.CreateGigUseCase
	getUC     *gig.GetGigUseCase
	listUC    *gig.ListGigsUseCase
	updateUC  *gig.UpdateGigUseCase
	deleteUC  *gig.DeleteGigUseCase
	closeUC   *gig.CloseGigUseCase
	workersUC *gig.UpdateWorkersNeededUseCase
}

func NewGigHandler(
	createUC *gig.CreateGigUseCase,
	getUC *gig.GetGigUseCase,
	listUC *gig.ListGigsUseCase,
	updateUC *gig.UpdateGigUseCase,
	deleteUC *gig.DeleteGigUseCase,
	closeUC *gig.CloseGigUseCase,
	workersUC *gig.UpdateWorkersNeededUseCase,
) *GigHandler {
	return &GigHandler{
		createUC:  createUC,
		getUC:     getUC,
		listUC:    listUC,
		updateUC:  updateUC,
		deleteUC:  deleteUC,
		closeUC:   closeUC,
		workersUC: workersUC,
	}
}

// CreateGig обрабатывает POST /api/gigs.
func (h *GigHandler) CreateGig(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateGigRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.createUC.Execute(c.Request.Context(), gig.CreateGigInput{
		EmployerID: userID,
		Details:    req.ToDetails(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToGigResponse(view, role))
}

// ListGigs обрабатывает GET /api/gigs.
// Работодатель видит свои смены, исполнитель ищет открытые с фильтрами.
func (h *GigHandler) ListGigs(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}

	var errs apperror.FieldErrors
	limit, offset := pageParams(c, 15, 100)
	input := gig.ListGigsInput{
		ViewerID:  userID,
		Role:      role,
		Status:    c.Query("status"),
		Location:  c.Query("location"),
		SkillID:   parseUUIDQuery(c, "skill_id", &errs),
		MinPay:    parseFloatQuery(c, "min_pay", &errs),
		MaxPay:    parseFloatQuery(c, "max_pay", &errs),
		TimeSlot:  c.Query("time_slot"),
		Latitude:  parseFloatQuery(c, "latitude", &errs),
		Longitude: parseFloatQuery(c, "longitude", &errs),
		RadiusKm:  parseFloatQuery(c, "radius", &errs),
		NewOnly:   parseBoolQuery(c, "new"),
		Limit:     limit,
		Offset:    offset,
	}
	if err := errs.Err(); err != nil {
		response.Error(c, err)
		return
	}

	views, total, err := h.listUC.Execute(c.Request.Context(), input)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Paginated(c, dto.ToGigResponses(views, role), total, limit, offset)
}

func (h *GigHandler) GetGig(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	gigID, ok := parseUUIDParam(c, "id", "некорректный ID смены")
	if !ok {
		return
	}

	view, err := h.getUC.Execute(c.Request.Context(), gigID, userID, role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToGigResponse(view, role))
}

// UpdateGig обрабатывает PATCH /api/gigs/:id; отсутствующие поля не меняются.
func (h *GigHandler) UpdateGig(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	gigID, ok := parseUUIDParam(c, "id", "некорректный ID смены")
	if !ok {
		return
	}

	var req dto.UpdateGigRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.updateUC.Execute(c.Request.Context(), gigID, userID, req.ToPatch())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToGigResponse(view, role))
}

func (h *GigHandler) DeleteGig(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	gigID, ok := parseUUIDParam(c, "id", "некорректный ID смены")
	if !ok {
		return
	}

	if err := h.deleteUC.Execute(c.Request.Context(), gigID, userID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// CloseGig обрабатывает PATCH /api/gigs/:id/close.
func (h *GigHandler) CloseGig(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	gigID, ok := parseUUIDParam(c, "id", "некорректный ID смены")
	if !ok {
		return
	}

	view, err := h.closeUC.Execute(c.Request.Context(), gigID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToGigResponse(view, role))
}

// UpdateWorkers обрабатывает PATCH /api/gigs/:id/workers.
func (h *GigHandler) UpdateWorkers(c *gin.Context) {
	userID, role, ok := currentUser(c)
	if !ok {
		return
	}
	gigID, ok := parseUUIDParam(c, "id", "некорректный ID смены")
	if !ok {
		return
	}

	var req dto.UpdateWorkersRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.workersUC.Execute(c.Request.Context(), gigID, userID, req.WorkersNeeded)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToGigResponse(view, role))
}
