package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
)

const SweepTokenHeader = "X-Sweep-Token"

// SweepToken защищает внутренний триггер фоновых задач общим секретом.
// Пустой секрет закрывает эндпоинт полностью.
func SweepToken(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		got := c.GetHeader(SweepTokenHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			response.Unauthorized(c, "неверный токен задачи")
			return
		}
		c.Next()
	}
}
