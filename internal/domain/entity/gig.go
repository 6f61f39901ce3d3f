package entity

import (
	"errors"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
)

const (
	maxTitleLength       = 255
	maxLocationLength    = 255
	maxDescriptionLength = 300
)

type Gig struct {
	ID                 uuid.UUID
	EmployerID         uuid.UUID
	Title              string
	PrimarySkillID     uuid.UUID
	SupportingSkillIDs []uuid.UUID
	Location           string
	Coordinates        *valueobject.Coordinates
	StartAt            time.Time
	EndAt              time.Time
	Pay                valueobject.Pay
	WorkersNeeded      int
	Description        string
	AutoCloseEnabled   bool
	AutoCloseAt        *time.Time
	Requirements       []string
	Status             valueobject.GigStatus
	DeletedAt          *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// GigDetails содержит редактируемые поля смены.
type GigDetails struct {
	Title              string
	PrimarySkillID     uuid.UUID
	SupportingSkillIDs []uuid.UUID
	Location           string
	Latitude           *float64
	Longitude          *float64
	StartAt            time.Time
	EndAt              time.Time
	Pay                float64
	AppSavingPercent   int
	WorkersNeeded      int
	Description        string
	AutoCloseEnabled   bool
	AutoCloseAt        *time.Time
	Requirements       []string
}

// NewGig проверяет все поля сразу и возвращает смену в статусе open.
func NewGig(employerID uuid.UUID, d GigDetails, now time.Time) (*Gig, error) {
	g := &Gig{
		ID:         uuid.New(),
		EmployerID: employerID,
		Status:     valueobject.GigStatusOpen,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	errs := g.apply(d, now, futureChecks{start: true, autoClose: true})
	if d.WorkersNeeded < 1 {
		errs.Add("workers_needed", "нужен хотя бы один исполнитель")
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	g.WorkersNeeded = d.WorkersNeeded
	return g, nil
}

// Edit меняет поля, не влияющие на вместимость смены.
// Требования «в будущем» проверяются только для изменённых времён: прошедший
// дедлайн автозакрытия не мешает править заполненную смену.
func (g *Gig) Edit(d GigDetails, now time.Time) error {
	checks := futureChecks{
		start:     !d.StartAt.Equal(g.StartAt) || !d.EndAt.Equal(g.EndAt),
		autoClose: d.AutoCloseEnabled != g.AutoCloseEnabled || !sameTime(d.AutoCloseAt, g.AutoCloseAt),
	}
	if err := g.apply(d, now, checks).Err(); err != nil {
		return err
	}
	g.UpdatedAt = now
	return nil
}

type futureChecks struct {
	start     bool
	autoClose bool
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

// apply валидирует d и, если нарушений нет, переносит значения в смену.
func (g *Gig) apply(d GigDetails, now time.Time, future futureChecks) apperror.FieldErrors {
	var errs apperror.FieldErrors
	if d.Title == "" {
		errs.Add("title", "название обязательно")
	} else if utf8.RuneCountInString(d.Title) > maxTitleLength {
		errs.Add("title", "название не длиннее 255 символов")
	}
	if d.PrimarySkillID == uuid.Nil {
		errs.Add("primary_skill_id", "основной навык обязателен")
	}
	if d.Location == "" {
		errs.Add("location", "место проведения обязательно")
	} else if utf8.RuneCountInString(d.Location) > maxLocationLength {
		errs.Add("location", "место проведения не длиннее 255 символов")
	}
	if d.Description == "" {
		errs.Add("description", "описание обязательно")
	} else if utf8.RuneCountInString(d.Description) > maxDescriptionLength {
		errs.Add("description", "описание не длиннее 300 символов")
	}

	pay, err := valueobject.NewPay(d.Pay, d.AppSavingPercent)
	if err != nil {
		appendFieldErrors(&errs, err)
	}
	coords, err := valueobject.NewCoordinates(d.Latitude, d.Longitude)
	if err != nil {
		appendFieldErrors(&errs, err)
	}

	if d.StartAt.IsZero() {
		errs.Add("start_at", "время начала обязательно")
	} else if future.start && !d.StartAt.After(now) {
		errs.Add("start_at", "смена должна начинаться в будущем")
	}
	if d.EndAt.IsZero() {
		errs.Add("end_at", "время окончания обязательно")
	} else if !d.EndAt.After(d.StartAt) {
		errs.Add("end_at", "время окончания должно быть позже начала")
	}

	if d.AutoCloseEnabled {
		switch {
		case d.AutoCloseAt == nil:
			errs.Add("auto_close_at", "укажите время автозакрытия")
		case future.autoClose && !d.AutoCloseAt.After(now):
			errs.Add("auto_close_at", "время автозакрытия должно быть в будущем")
		case !d.AutoCloseAt.Before(d.StartAt):
			errs.Add("auto_close_at", "автозакрытие должно наступать до начала смены")
		}
	}

	seen := make(map[uuid.UUID]struct{}, len(d.SupportingSkillIDs))
	for _, id := range d.SupportingSkillIDs {
		if id == d.PrimarySkillID {
			errs.Add("supporting_skill_ids", "дополнительные навыки не должны включать основной")
			break
		}
		if _, dup := seen[id]; dup {
			errs.Add("supporting_skill_ids", "дополнительные навыки не должны повторяться")
			break
		}
		seen[id] = struct{}{}
	}

	for _, r := range d.Requirements {
		if r == "" {
			errs.Add("requirements", "требование не может быть пустым")
			break
		}
	}

	if len(errs) > 0 {
		return errs
	}

	g.Title = d.Title
	g.PrimarySkillID = d.PrimarySkillID
	g.SupportingSkillIDs = d.SupportingSkillIDs
	g.Location = d.Location
	g.Coordinates = coords
	g.StartAt = d.StartAt
	g.EndAt = d.EndAt
	g.Pay = pay
	g.Description = d.Description
	g.AutoCloseEnabled = d.AutoCloseEnabled
	g.AutoCloseAt = nil
	if d.AutoCloseEnabled {
		g.AutoCloseAt = d.AutoCloseAt
	}
	g.Requirements = d.Requirements
	return nil
}

func appendFieldErrors(errs *apperror.FieldErrors, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		*errs = append(*errs, appErr.Fields...)
	}
}

// Details возвращает текущие редактируемые поля, удобно для частичного обновления.
func (g *Gig) Details() GigDetails {
	d := GigDetails{
		Title:              g.Title,
		PrimarySkillID:     g.PrimarySkillID,
		SupportingSkillIDs: g.SupportingSkillIDs,
		Location:           g.Location,
		StartAt:            g.StartAt,
		EndAt:              g.EndAt,
		Pay:                g.Pay.Amount,
		AppSavingPercent:   g.Pay.SavingPercent,
		WorkersNeeded:      g.WorkersNeeded,
		Description:        g.Description,
		AutoCloseEnabled:   g.AutoCloseEnabled,
		AutoCloseAt:        g.AutoCloseAt,
		Requirements:       g.Requirements,
	}
	if g.Coordinates != nil {
		lat, lng := g.Coordinates.Latitude, g.Coordinates.Longitude
		d.Latitude, d.Longitude = &lat, &lng
	}
	return d
}

func (g *Gig) IsOwnedBy(userID uuid.UUID) bool {
	return g.EmployerID == userID
}

func (g *Gig) IsDeleted() bool {
	return g.DeletedAt != nil
}

// SkillIDs возвращает основной и дополнительные навыки без повторов.
func (g *Gig) SkillIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(g.SupportingSkillIDs)+1)
	ids = append(ids, g.PrimarySkillID)
	for _, id := range g.SupportingSkillIDs {
		if id != g.PrimarySkillID {
			ids = append(ids, id)
		}
	}
	return ids
}

func (g *Gig) SpotsLeft(acceptedCount int) int {
	return g.WorkersNeeded - acceptedCount
}

func (g *Gig) DurationHours() float64 {
	if g.EndAt.IsZero() || !g.EndAt.After(g.StartAt) {
		return 0
	}
	return valueobject.Round2(g.EndAt.Sub(g.StartAt).Hours())
}

func (g *Gig) RatePerHour() float64 {
	return g.Pay.RatePerHour(g.DurationHours())
}

// CheckConfirmations сверяет подтверждения исполнителя с требованиями смены.
func (g *Gig) CheckConfirmations(confirmations []bool) error {
	if len(g.Requirements) == 0 {
		return nil
	}
	if len(confirmations) != len(g.Requirements) {
		return apperror.ErrRequirementsNotConfirmed
	}
	for _, ok := range confirmations {
		if !ok {
			return apperror.ErrRequirementsNotConfirmed
		}
	}
	return nil
}

// SyncCapacity приводит статус к числу принятых откликов:
// open → filled при заполнении, filled → open при освобождении места.
func (g *Gig) SyncCapacity(acceptedCount int, now time.Time) bool {
	switch {
	case g.Status == valueobject.GigStatusOpen && acceptedCount >= g.WorkersNeeded:
		g.Status = valueobject.GigStatusFilled
	case g.Status == valueobject.GigStatusFilled && acceptedCount < g.WorkersNeeded:
		g.Status = valueobject.GigStatusOpen
	default:
		return false
	}
	g.UpdatedAt = now
	return true
}

func (g *Gig) ChangeWorkersNeeded(n, acceptedCount int, now time.Time) error {
	if n < 1 {
		return apperror.Validation(apperror.FieldError{Field: "workers_needed", Message: "нужен хотя бы один исполнитель"})
	}
	if n < acceptedCount {
		return apperror.Validation(apperror.FieldError{
			Field:   "workers_needed",
			Message: "нельзя указать меньше исполнителей, чем уже принято",
		})
	}
	g.WorkersNeeded = n
	g.UpdatedAt = now
	g.SyncCapacity(acceptedCount, now)
	return nil
}

func (g *Gig) Close(now time.Time) error {
	if !g.Status.CanTransitionTo(valueobject.GigStatusClosed) {
		return apperror.InvalidTransition("закрыть можно только открытую или заполненную смену")
	}
	g.Status = valueobject.GigStatusClosed
	g.UpdatedAt = now
	return nil
}

func (g *Gig) Delete(now time.Time) {
	g.DeletedAt = &now
	g.UpdatedAt = now
}
