package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

type CreateReportInput struct {
	ReporterID uuid.UUID
	Target     entity.Reportable
	Reason     string
	Details    *string
}

type CreateReportUseCase struct {
	reportRepo repository.ReportRepository
	convRepo   repository.ConversationRepository
	msgRepo    repository.MessageRepository
}

func NewCreateReportUseCase(reportRepo repository.ReportRepository, convRepo repository.ConversationRepository, msgRepo repository.MessageRepository) *CreateReportUseCase {
	return &CreateReportUseCase{reportRepo: reportRepo, convRepo: convRepo, msgRepo: msgRepo}
}

func (uc *CreateReportUseCase) Execute(ctx context.Context, input CreateReportInput) (*entity.Report, error) {
	reason, err := valueobject.NewReportReason(input.Reason)
	if err != nil {
		return nil, err
	}
	if err := uc.authorize(ctx, input.ReporterID, input.Target); err != nil {
		return nil, err
	}

	report, err := entity.NewReport(input.ReporterID, input.Target, reason, input.Details, time.Now())
	if err != nil {
		return nil, err
	}
	if err := uc.reportRepo.Create(ctx, report); err != nil {
		return nil, err
	}

	logger.WithComponent("report").WithFields(logrus.Fields{
		"report_id":   report.ID,
		"target_type": report.Target.TargetType(),
		"target_id":   report.Target.TargetID(),
		"reason":      report.Reason,
	}).Info("жалоба принята")
	return report, nil
}

// authorize проверяет, что жалующийся участвует в беседе и не жалуется на собственное сообщение.
func (uc *CreateReportUseCase) authorize(ctx context.Context, reporterID uuid.UUID, target entity.Reportable) error {
	switch t := target.(type) {
	case entity.ConversationTarget:
		conv, err := uc.convRepo.FindByID(ctx, t.ID)
		if err != nil {
			return err
		}
		if !conv.IsParticipant(reporterID) {
			return apperror.ErrForbidden
		}
	case entity.MessageTarget:
		msg, err := uc.msgRepo.FindByID(ctx, t.ID)
		if err != nil {
			return err
		}
		conv, err := uc.convRepo.FindByID(ctx, msg.ConversationID)
		if err != nil {
			return err
		}
		if !conv.IsParticipant(reporterID) {
			return apperror.ErrForbidden
		}
		if msg.IsOwnedBy(reporterID) {
			return apperror.Validation(apperror.FieldError{Field: "reportable_id", Message: "нельзя пожаловаться на собственное сообщение"})
		}
	default:
		return apperror.Validation(apperror.FieldError{Field: "reportable_type", Message: "неизвестный объект жалобы"})
	}
	return nil
}

type ListMyReportsUseCase struct {
	reportRepo repository.ReportRepository
}

func NewListMyReportsUseCase(reportRepo repository.ReportRepository) *ListMyReportsUseCase {
	return &ListMyReportsUseCase{reportRepo: reportRepo}
}

func (uc *ListMyReportsUseCase) Execute(ctx context.Context, reporterID uuid.UUID) ([]*entity.Report, error) {
	return uc.reportRepo.ListByReporter(ctx, reporterID)
}
