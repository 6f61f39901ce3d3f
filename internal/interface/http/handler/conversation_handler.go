package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/dto"
	"github.com/ignatzorin/gigmarket-backend/internal/interface/http/response"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/conversation"
)

type ConversationHandler struct {
	startUC        *conversation.StartConversationUseCase
	listUC         *conversation.ListConversationsUseCase
	listMessagesUC *conversation.ListMessagesUseCase
	sendUC         *conversation.SendMessageUseCase
	editUC         *conversation.EditMessageUseCase
	deleteUC       *conversation.DeleteMessageUseCase
	markReadUC     *conversation.MarkReadUseCase
	unreadUC       *conversation.UnreadCountUseCase
}

func NewConversationHandler(
	startUC *conversation.StartConversationUseCase,
	listUC *conversation.ListConversationsUseCase,
	listMessagesUC *conversation.ListMessagesUseCase,
	sendUC *conversation.SendMessageUseCase,
	editUC *conversation.EditMessageUseCase,
	deleteUC *conversation.DeleteMessageUseCase,
	markReadUC *conversation.MarkReadUseCase,
	unreadUC *conversation.UnreadCountUseCase,
) *ConversationHandler {
	return &ConversationHandler{
		startUC:        startUC,
		listUC:         listUC,
		listMessagesUC: listMessagesUC,
		sendUC:         sendUC,
		editUC:         editUC,
		deleteUC:       deleteUC,
		markReadUC:     markReadUC,
		unreadUC:       unreadUC,
	}
}

// StartConversation обрабатывает POST /api/conversations.
// Повторный вызов с тем же ключом возвращает существующую беседу со статусом 200.
func (h *ConversationHandler) StartConversation(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.StartConversationRequest
	if !bindJSON(c, &req) {
		return
	}

	conv, created, err := h.startUC.Execute(c.Request.Context(), conversation.StartConversationInput{
		UserID:      userID,
		OtherUserID: req.ParticipantID,
		GigID:       req.GigID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	if created {
		response.Created(c, dto.ToConversationResponse(conv))
		return
	}
	response.Success(c, dto.ToConversationResponse(conv))
}

// ListConversations обрабатывает GET /api/conversations?unread_only=true.
func (h *ConversationHandler) ListConversations(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}

	items, err := h.listUC.Execute(c.Request.Context(), userID, parseBoolQuery(c, "unread_only"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToConversationSummaries(items, userID))
}

func (h *ConversationHandler) MarkRead(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := parseUUIDParam(c, "id", "некорректный ID беседы")
	if !ok {
		return
	}

	if err := h.markReadUC.Execute(c.Request.Context(), convID, userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"conversation_id": convID, "unread_count": 0})
}

func (h *ConversationHandler) UnreadCount(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := parseUUIDParam(c, "id", "некорректный ID беседы")
	if !ok {
		return
	}

	count, err := h.unreadUC.Execute(c.Request.Context(), convID, userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"conversation_id": convID, "unread_count": count})
}

// ListMessages обрабатывает GET /api/conversations/:id/messages?before_id=&limit=.
func (h *ConversationHandler) ListMessages(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := parseUUIDParam(c, "id", "некорректный ID беседы")
	if !ok {
		return
	}

	var errs apperror.FieldErrors
	beforeID := parseUUIDQuery(c, "before_id", &errs)
	if err := errs.Err(); err != nil {
		response.Error(c, err)
		return
	}

	views, err := h.listMessagesUC.Execute(c.Request.Context(), conversation.ListMessagesInput{
		ConversationID: convID,
		UserID:         userID,
		BeforeID:       beforeID,
		Limit:          parseIntQuery(c, "limit", 0),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToMessageResponses(views))
}

func (h *ConversationHandler) SendMessage(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := parseUUIDParam(c, "id", "некорректный ID беседы")
	if !ok {
		return
	}

	var req dto.MessageRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.sendUC.Execute(c.Request.Context(), convID, userID, req.Body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, dto.ToMessageResponse(view))
}

// EditMessage обрабатывает PATCH /api/conversations/:id/messages/:messageId.
func (h *ConversationHandler) EditMessage(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := parseUUIDParam(c, "id", "некорректный ID беседы")
	if !ok {
		return
	}
	msgID, ok := parseUUIDParam(c, "messageId", "некорректный ID сообщения")
	if !ok {
		return
	}

	var req dto.MessageRequest
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.editUC.Execute(c.Request.Context(), conversation.EditMessageInput{
		ConversationID: convID,
		MessageID:      msgID,
		UserID:         userID,
		Body:           req.Body,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto.ToMessageResponse(view))
}

func (h *ConversationHandler) DeleteMessage(c *gin.Context) {
	userID, _, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := parseUUIDParam(c, "id", "некорректный ID беседы")
	if !ok {
		return
	}
	msgID, ok := parseUUIDParam(c, "messageId", "некорректный ID сообщения")
	if !ok {
		return
	}

	if err := h.deleteUC.Execute(c.Request.Context(), convID, msgID, userID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
