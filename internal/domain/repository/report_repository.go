package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
)

type ReportRepository interface {
	Create(ctx context.Context, report *entity.Report) error
	ListByReporter(ctx context.Context, reporterID uuid.UUID) ([]*entity.Report, error)
}
