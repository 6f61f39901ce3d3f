package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/http/middleware"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

// currentUser достаёт пользователя из контекста; при отсутствии сам отвечает 401.
func currentUser(c *gin.Context) (uuid.UUID, valueobject.Role, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "требуется авторизация")
		return uuid.Nil, "", false
	}
	role, _ := middleware.CurrentRole(c)
	return userID, role, true
}

func parseUUIDParam(c *gin.Context, name, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		response.BadRequest(c, message)
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		response.BadRequest(c, "некорректное тело запроса: "+err.Error())
		return false
	}
	return true
}

func parseIntQuery(c *gin.Context, key string, defaultValue int) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func parseBoolQuery(c *gin.Context, key string) bool {
	value, err := strconv.ParseBool(c.Query(key))
	return err == nil && value
}

// parseFloatQuery: пустое значение даёт nil, мусор попадает в errs.
func parseFloatQuery(c *gin.Context, key string, errs *apperror.FieldErrors) *float64 {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		errs.Add(key, "ожидается число")
		return nil
	}
	return &value
}

func parseUUIDQuery(c *gin.Context, key string, errs *apperror.FieldErrors) *uuid.UUID {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		errs.Add(key, "ожидается UUID")
		return nil
	}
	return &id
}

// pageParams нормализует limit/offset так же, как use case, чтобы pagination в ответе совпадала.
func pageParams(c *gin.Context, defaultLimit, maxLimit int) (limit, offset int) {
	limit = parseIntQuery(c, "limit", defaultLimit)
	if limit <= 0 || limit > maxLimit {
		limit = defaultLimit
	}
	offset = parseIntQuery(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
