package gig

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/repository"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

const (
	SweepAutoClose    = "auto-close"
	SweepAutoComplete = "auto-complete"
)

type SweepReport struct {
	Kind         string    `json:"kind"`
	RanAt        time.Time `json:"ran_at"`
	Gigs         int64     `json:"gigs"`
	Applications int64     `json:"applications"`
}

// SweepUseCase выполняет плановые массовые переходы. Повторный запуск безопасен:
// условия выборки исключают уже обработанные смены.
type SweepUseCase struct {
	gigRepo repository.GigRepository
}

func NewSweepUseCase(gigRepo repository.GigRepository) *SweepUseCase {
	return &SweepUseCase{gigRepo: gigRepo}
}

// AutoClose закрывает открытые смены с наступившим auto_close_at.
func (uc *SweepUseCase) AutoClose(ctx context.Context, now time.Time) (*SweepReport, error) {
	n, err := uc.gigRepo.CloseExpired(ctx, now)
	if err != nil {
		return nil, err
	}
	report := &SweepReport{Kind: SweepAutoClose, RanAt: now, Gigs: n}
	uc.log(report)
	return report, nil
}

// AutoComplete завершает открытые и заполненные смены, у которых прошло end_at.
func (uc *SweepUseCase) AutoComplete(ctx context.Context, now time.Time) (*SweepReport, error) {
	res, err := uc.gigRepo.CompleteEnded(ctx, now)
	if err != nil {
		return nil, err
	}
	report := &SweepReport{Kind: SweepAutoComplete, RanAt: now, Gigs: res.Gigs, Applications: res.Applications}
	uc.log(report)
	return report, nil
}

func (uc *SweepUseCase) log(r *SweepReport) {
	logger.WithComponent("sweeper").WithFields(logrus.Fields{
		"kind":         r.Kind,
		"gigs":         r.Gigs,
		"applications": r.Applications,
	}).Info("плановый проход выполнен")
}

// Run запускает проход по имени: auto-close или auto-complete.
func (uc *SweepUseCase) Run(ctx context.Context, kind string, now time.Time) (*SweepReport, error) {
	switch kind {
	case SweepAutoClose:
		return uc.AutoClose(ctx, now)
	case SweepAutoComplete:
		return uc.AutoComplete(ctx, now)
	}
	return nil, apperror.Validation(apperror.FieldError{Field: "kind", Message: "допустимые значения: auto-close, auto-complete"})
}
