package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/http/middleware"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
	"github.com/ignatzorin/gigmarket-backend/internal/ws"
)

// WSHandler поднимает WebSocket для пушей уведомлений и сообщений.
type WSHandler struct {
	hub      *ws.Hub
	tokens   middleware.AccessTokenParser
	upgrader websocket.Upgrader
}

func NewWSHandler(hub *ws.Hub, tokens middleware.AccessTokenParser, allowedOrigins []string) *WSHandler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = struct{}{}
	}
	return &WSHandler{
		hub:    hub,
		tokens: tokens,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" {
					return true
				}
				_, ok := allowed[origin]
				return ok
			},
		},
	}
}

// Handle обслуживает GET /api/ws?token=...; браузер не умеет слать заголовок при апгрейде.
func (h *WSHandler) Handle(c *gin.Context) {
	rawToken := c.Query("token")
	if rawToken == "" {
		response.Unauthorized(c, "access токен обязателен")
		return
	}
	userID, _, err := h.tokens.ParseAccess(rawToken)
	if err != nil || userID == uuid.Nil {
		response.Unauthorized(c, "невалидный access токен")
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		logger.WithComponent("ws").WithFields(logrus.Fields{"user_id": userID, "error": err.Error()}).Warn("не удалось поднять websocket")
		return
	}

	ws.NewClient(conn, h.hub, userID).Run()
}
