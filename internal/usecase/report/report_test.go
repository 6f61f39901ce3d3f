package report_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/report"
)

type mockReportRepository struct {
	reports []*entity.Report
}

func (m *mockReportRepository) Create(ctx context.Context, r *entity.Report) error {
	m.reports = append(m.reports, r)
	return nil
}

func (m *mockReportRepository) ListByReporter(ctx context.Context, reporterID uuid.UUID) ([]*entity.Report, error) {
	var result []*entity.Report
	for _, r := range m.reports {
		if r.ReporterID == reporterID {
			result = append(result, r)
		}
	}
	return result, nil
}

type mockConversationRepository struct {
	repository.ConversationRepository
	conversations map[uuid.UUID]*entity.Conversation
}

func (m *mockConversationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Conversation, error) {
	if c, ok := m.conversations[id]; ok {
		return c, nil
	}
	return nil, apperror.ErrConversationNotFound
}

type mockMessageRepository struct {
	repository.MessageRepository
	messages map[uuid.UUID]*entity.Message
}

func (m *mockMessageRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Message, error) {
	if msg, ok := m.messages[id]; ok {
		return msg, nil
	}
	return nil, apperror.ErrMessageNotFound
}

type fixture struct {
	uc            *report.CreateReportUseCase
	reports       *mockReportRepository
	conv          *entity.Conversation
	employer      uuid.UUID
	freelancer    uuid.UUID
	employerMsg   *entity.Message
	freelancerMsg *entity.Message
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{employer: uuid.New(), freelancer: uuid.New(), reports: &mockReportRepository{}}
	now := time.Now()

	conv, err := entity.NewConversation(nil, f.employer, f.freelancer, now)
	require.NoError(t, err)
	f.conv = conv
	f.employerMsg, err = entity.NewMessage(conv.ID, f.employer, "Переведу оплату вне сервиса", now)
	require.NoError(t, err)
	f.freelancerMsg, err = entity.NewMessage(conv.ID, f.freelancer, "Хорошо", now)
	require.NoError(t, err)

	convRepo := &mockConversationRepository{conversations: map[uuid.UUID]*entity.Conversation{conv.ID: conv}}
	msgRepo := &mockMessageRepository{messages: map[uuid.UUID]*entity.Message{
		f.employerMsg.ID:   f.employerMsg,
		f.freelancerMsg.ID: f.freelancerMsg,
	}}
	f.uc = report.NewCreateReportUseCase(f.reports, convRepo, msgRepo)
	return f
}

func TestCreateReport_Targets(t *testing.T) {
	f := newFixture(t)
	outsider := uuid.New()

	tests := []struct {
		name     string
		reporter uuid.UUID
		target   entity.Reportable
		reason   string
		wantCode apperror.ErrorCode
	}{
		{"conversation by participant", f.freelancer, entity.ConversationTarget{ID: f.conv.ID}, "spam", ""},
		{"conversation by outsider", outsider, entity.ConversationTarget{ID: f.conv.ID}, "spam", apperror.ErrCodeForbidden},
		{"missing conversation", f.freelancer, entity.ConversationTarget{ID: uuid.New()}, "spam", apperror.ErrCodeNotFound},
		{"foreign message", f.freelancer, entity.MessageTarget{ID: f.employerMsg.ID}, "scam", ""},
		{"own message", f.freelancer, entity.MessageTarget{ID: f.freelancerMsg.ID}, "scam", apperror.ErrCodeValidation},
		{"message by outsider", outsider, entity.MessageTarget{ID: f.employerMsg.ID}, "scam", apperror.ErrCodeForbidden},
		{"missing message", f.freelancer, entity.MessageTarget{ID: uuid.New()}, "scam", apperror.ErrCodeNotFound},
		{"unknown reason", f.freelancer, entity.ConversationTarget{ID: f.conv.ID}, "boring", apperror.ErrCodeValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := f.uc.Execute(context.Background(), report.CreateReportInput{
				ReporterID: tt.reporter,
				Target:     tt.target,
				Reason:     tt.reason,
			})
			if tt.wantCode == "" {
				require.NoError(t, err)
				assert.Equal(t, valueobject.ReportStatusPending, r.Status)
				return
			}
			assert.Equal(t, tt.wantCode, apperror.CodeOf(err))
		})
	}

	mine, err := report.NewListMyReportsUseCase(f.reports).Execute(context.Background(), f.freelancer)
	require.NoError(t, err)
	assert.Len(t, mine, 2)
}

func TestCreateReport_DetailsLimit(t *testing.T) {
	f := newFixture(t)
	details := strings.Repeat("д", entity.MaxReportDetailsLength+1)

	_, err := f.uc.Execute(context.Background(), report.CreateReportInput{
		ReporterID: f.employer,
		Target:     entity.ConversationTarget{ID: f.conv.ID},
		Reason:     "harassment",
		Details:    &details,
	})
	assert.True(t, apperror.IsValidation(err))
}
