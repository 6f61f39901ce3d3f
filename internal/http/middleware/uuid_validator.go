package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
)

// UUIDValidator отклоняет запрос, если параметры пути не являются UUID.
// Использование: gigs.GET("/:id", UUIDValidator("id"), h.Get)
func UUIDValidator(params ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, name := range params {
			raw := c.Param(name)
			if raw == "" {
				response.BadRequest(c, "параметр "+name+" обязателен")
				return
			}
			if _, err := uuid.Parse(raw); err != nil {
				response.BadRequest(c, "параметр "+name+" должен быть валидным UUID")
				return
			}
		}
		c.Next()
	}
}
