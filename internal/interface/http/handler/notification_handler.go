package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/notification"
)

type NotificationHandler struct {
	listUC        *notification.ListUseCase
	unreadCountUC *notification.UnreadCountUseCase
	markReadUC    *notification.MarkReadUseCase
	markAllReadUC *notification.MarkAllReadUseCase
}

func NewNotificationHandler(
	listUC *notification.ListUseCase,
	unreadCountUC *notification.UnreadCountUseCase,
	markReadUC *notification.MarkReadUseCase,
	markAllReadUC *notification.MarkAllReadUseCase,
) *NotificationHandler {
	return &NotificationHandler{
		listUC:        listUC,
		unreadCountUC: unreadCountUC,
		markReadUC:    markReadUC,
		markAllReadUC: markAllReadUC,
	}
}

// List обрабатывает GET /api/notifications?unread_only=&limit=&offset=.
func (h *NotificationHandler) List(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	limit, offset := pageParams(c, 20, 100)
	items, err := h.listUC.Execute(c.Request.Context(), notification.ListInput{
		UserID:     userID,
		UnreadOnly: parseBoolQuery(c, "unread_only"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, notification.NewViews(items))
}

func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	count, err := h.unreadCountUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"count": count})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id", "некорректный ID уведомления")
	if !ok {
		return
	}

	n, err := h.markReadUC.Execute(c.Request.Context(), id, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, notification.NewViews([]*entity.Notification{n})[0])
}

func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	updated, err := h.markAllReadUC.Execute(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"updated": updated})
}
