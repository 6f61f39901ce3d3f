package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Pinger: то, что умеет проверить соединение (*sqlx.DB).
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db}
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Checks    map[string]string `json:"checks"`
}

// Health обрабатывает GET /health.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{Status: "healthy", Timestamp: time.Now(), Checks: map[string]string{}}
	status := http.StatusOK
	if err := h.db.PingContext(ctx); err != nil {
		resp.Status = "unhealthy"
		resp.Checks["database"] = "unhealthy: " + err.Error()
		status = http.StatusServiceUnavailable
	} else {
		resp.Checks["database"] = "healthy"
	}
	c.JSON(status, resp)
}
