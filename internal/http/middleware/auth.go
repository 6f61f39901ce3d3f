package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/auth"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
)

// Context ключи для gin.Context.
const (
	ContextUserIDKey = "userID"
	ContextRoleKey   = "role"
)

// AccessTokenParser проверяет access токен.
type AccessTokenParser interface {
	ParseAccess(token string) (uuid.UUID, valueobject.Role, error)
}

var _ AccessTokenParser = (*auth.TokenManager)(nil)

// AuthMiddleware проверяет JWT access токен из заголовка Authorization.
func AuthMiddleware(tokens AccessTokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			response.Unauthorized(c, "требуется авторизация")
			return
		}

		userID, role, err := tokens.ParseAccess(strings.TrimPrefix(header, "Bearer "))
		if err != nil || userID == uuid.Nil {
			response.Unauthorized(c, "токен невалиден")
			return
		}

		c.Set(ContextUserIDKey, userID)
		c.Set(ContextRoleKey, role)
		c.Next()
	}
}

// RequireRole пропускает только пользователей с одной из перечисленных ролей.
func RequireRole(roles ...valueobject.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := CurrentRole(c)
		if !ok {
			response.Unauthorized(c, "требуется авторизация")
			return
		}
		for _, allowed := range roles {
			if role == allowed {
				c.Next()
				return
			}
		}
		response.Forbidden(c, "недостаточно прав для этого действия")
	}
}

// CurrentUserID достаёт id пользователя, положенный AuthMiddleware.
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, ok := c.Get(ContextUserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok && id != uuid.Nil
}

func CurrentRole(c *gin.Context) (valueobject.Role, bool) {
	v, ok := c.Get(ContextRoleKey)
	if !ok {
		return "", false
	}
	role, ok := v.(valueobject.Role)
	return role, ok
}
