package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
)

// RateLimitMiddleware ограничивает частоту запросов.
// Ключ: id пользователя, если он уже известен, иначе IP.
func RateLimitMiddleware(limit int64, period time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		limit = 10
	}
	if period <= 0 {
		period = time.Minute
	}

	instance := limiter.New(memory.NewStore(), limiter.Rate{Period: period, Limit: limit})

	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if userID, ok := CurrentUserID(c); ok {
			key = "user:" + userID.String()
		}

		state, err := instance.Get(c.Request.Context(), key)
		if err != nil {
			// при ошибке store запрос пропускается
			logger.Log.WithField("error", err).Warn("rate limiter недоступен")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(state.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(state.Remaining, 10))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(state.Reset, 10))

		if state.Reached {
			response.TooManyRequests(c, "слишком много запросов, попробуйте позже")
			return
		}
		c.Next()
	}
}
