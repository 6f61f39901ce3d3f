package valueobject

import (
	"math"

	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

// Pay хранит оплату за смену и процент удержания платформы.
type Pay struct {
	Amount        float64
	SavingPercent int
}

func NewPay(amount float64, savingPercent int) (Pay, error) {
	var errs apperror.FieldErrors
	if amount <= 0 {
		errs.Add("pay", "оплата должна быть больше нуля")
	}
	if savingPercent < 0 || savingPercent > 100 {
		errs.Add("app_saving_percent", "процент удержания должен быть от 0 до 100")
	}
	if err := errs.Err(); err != nil {
		return Pay{}, err
	}
	return Pay{Amount: amount, SavingPercent: savingPercent}, nil
}

// SavingAmount = pay × percent / 100.
func (p Pay) SavingAmount() float64 {
	return Round2(p.Amount * float64(p.SavingPercent) / 100)
}

// FreelancerPay возвращает сумму, которую получает исполнитель.
func (p Pay) FreelancerPay() float64 {
	return Round2(p.Amount - p.SavingAmount())
}

// RatePerHour делит оплату на длительность; 0 при нулевой длительности.
func (p Pay) RatePerHour(durationHours float64) float64 {
	if durationHours <= 0 {
		return 0
	}
	return Round2(p.Amount / durationHours)
}

// Round2 округляет до копеек, половину от нуля.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
