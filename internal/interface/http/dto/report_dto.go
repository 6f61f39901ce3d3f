package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
)

type CreateReportRequest struct {
	ReportableType string    `json:"reportable_type" binding:"required"`
	ReportableID   uuid.UUID `json:"reportable_id" binding:"required"`
	Reason         string    `json:"reason"`
	Details        *string   `json:"details"`
}

type ReportResponse struct {
	ID             uuid.UUID                `json:"id"`
	ReportableType string                   `json:"reportable_type"`
	ReportableID   uuid.UUID                `json:"reportable_id"`
	Reason         valueobject.ReportReason `json:"reason"`
	Details        *string                  `json:"details,omitempty"`
	Status         valueobject.ReportStatus `json:"status"`
	CreatedAt      time.Time                `json:"created_at"`
}

func ToReportResponse(r *entity.Report) ReportResponse {
	return ReportResponse{
		ID:             r.ID,
		ReportableType: r.Target.TargetType(),
		ReportableID:   r.Target.TargetID(),
		Reason:         r.Reason,
		Details:        r.Details,
		Status:         r.Status,
		CreatedAt:      r.CreatedAt,
	}
}

func ToReportResponses(reports []*entity.Report) []ReportResponse {
	result := make([]ReportResponse, len(reports))
	for i, r := range reports {
		result[i] = ToReportResponse(r)
	}
	return result
}
