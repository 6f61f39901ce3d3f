package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/conversation"
)

type StartConversationRequest struct {
	ParticipantID uuid.UUID  `json:"participant_id" binding:"required"`
	GigID         *uuid.UUID `json:"gig_id"`
}

type MessageRequest struct {
	Body string `json:"body"`
}

type ConversationResponse struct {
	ID            uuid.UUID        `json:"id"`
	GigID         *uuid.UUID       `json:"gig_id"`
	GigTitle      *string          `json:"gig_title,omitempty"`
	EmployerID    uuid.UUID        `json:"employer_id"`
	FreelancerID  uuid.UUID        `json:"freelancer_id"`
	OtherUser     *UserSummary     `json:"other_user,omitempty"`
	LastMessage   *MessageResponse `json:"last_message,omitempty"`
	UnreadCount   int              `json:"unread_count"`
	LastMessageAt *time.Time       `json:"last_message_at"`
	CreatedAt     time.Time        `json:"created_at"`
}

func ToConversationResponse(conv *entity.Conversation) ConversationResponse {
	return ConversationResponse{
		ID:            conv.ID,
		GigID:         conv.GigID,
		EmployerID:    conv.EmployerID,
		FreelancerID:  conv.FreelancerID,
		LastMessageAt: conv.LastMessageAt,
		CreatedAt:     conv.CreatedAt,
	}
}

// ToConversationSummaries формирует список бесед; последнее сообщение без прав текущего пользователя.
func ToConversationSummaries(items []*repository.ConversationSummary, viewerID uuid.UUID) []ConversationResponse {
	result := make([]ConversationResponse, len(items))
	for i, item := range items {
		resp := ToConversationResponse(item.Conversation)
		resp.GigTitle = item.GigTitle
		resp.OtherUser = ToUserSummary(item.OtherUser)
		resp.UnreadCount = item.UnreadCount
		if item.LastMessage != nil {
			last := toMessageResponse(item.LastMessage)
			last.IsMine = item.LastMessage.IsOwnedBy(viewerID)
			resp.LastMessage = &last
		}
		result[i] = resp
	}
	return result
}

type MessageResponse struct {
	ID             uuid.UUID  `json:"id"`
	ConversationID uuid.UUID  `json:"conversation_id"`
	SenderID       uuid.UUID  `json:"sender_id"`
	Body           *string    `json:"body"`
	IsEdited       bool       `json:"is_edited"`
	EditedAt       *time.Time `json:"edited_at,omitempty"`
	IsDeleted      bool       `json:"is_deleted"`
	IsMine         bool       `json:"is_mine"`
	CanEdit        bool       `json:"can_edit"`
	CanDelete      bool       `json:"can_delete"`
	CreatedAt      time.Time  `json:"created_at"`
}

func toMessageResponse(m *entity.Message) MessageResponse {
	return MessageResponse{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		SenderID:       m.SenderID,
		Body:           m.VisibleBody(),
		IsEdited:       m.IsEdited,
		EditedAt:       m.EditedAt,
		IsDeleted:      m.IsDeleted(),
		CreatedAt:      m.CreatedAt,
	}
}

func ToMessageResponse(v *conversation.MessageView) MessageResponse {
	resp := toMessageResponse(v.Message)
	resp.IsMine = v.IsMine
	resp.CanEdit = v.CanEdit
	resp.CanDelete = v.CanDelete
	return resp
}

func ToMessageResponses(views []*conversation.MessageView) []MessageResponse {
	result := make([]MessageResponse, len(views))
	for i, v := range views {
		result[i] = ToMessageResponse(v)
	}
	return result
}
