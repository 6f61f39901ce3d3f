package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

// ErrorHandler логирует ошибки из c.Errors и отвечает за хендлер, если тот ничего не записал.
// Паники превращаются в 500 с тем же конвертом.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Log.WithFields(logrus.Fields{
					"panic":  rec,
					"path":   c.Request.URL.Path,
					"method": c.Request.Method,
				}).Error("паника в обработчике запроса")
				if !c.Writer.Written() {
					response.Error(c, apperror.New(apperror.ErrCodeInternal, "внутренняя ошибка сервера"))
				}
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		last := c.Errors.Last()

		entry := logger.Log.WithFields(logrus.Fields{
			"error":  last.Error(),
			"code":   apperror.CodeOf(last.Err),
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
		if apperror.IsRetryable(last.Err) {
			entry.Warn("временный сбой инфраструктуры")
		} else {
			entry.Error("ошибка обработки запроса")
		}

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, response.Response{
				Success: false,
				Error: &response.ErrorInfo{
					Code:    string(apperror.ErrCodeInternal),
					Message: "внутренняя ошибка сервера",
				},
			})
		}
	}
}
