package gig_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/event"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/infrastructure/memstore"
	"github.com/ignatzorin/gigmarket-backend/internal/pkg/apperror"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/gig"
)

type recordingPublisher struct {
	event.NopPublisher
	mu      sync.Mutex
	created []event.GigCreated
}

func (p *recordingPublisher) GigCreated(ctx context.Context, e event.GigCreated) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, e)
}

type env struct {
	store      *memstore.Store
	employerID uuid.UUID
	primary    *entity.Skill
	supporting *entity.Skill
	publisher  *recordingPublisher
}

func newEnv() *env {
	store := memstore.New()
	return &env{
		store:      store,
		employerID: uuid.New(),
		primary:    store.AddSkill("Бариста"),
		supporting: store.AddSkill("Кассир"),
		publisher:  &recordingPublisher{},
	}
}

func (e *env) details() entity.GigDetails {
	day := time.Now().Add(72 * time.Hour)
	start := time.Date(day.Year(), day.Month(), day.Day(), 8, 0, 0, 0, time.UTC)
	return entity.GigDetails{
		Title:              "Бариста на конференцию",
		PrimarySkillID:     e.primary.ID,
		SupportingSkillIDs: []uuid.UUID{e.supporting.ID},
		Location:           "Санкт-Петербург, Экспофорум",
		StartAt:            start,
		EndAt:              start.Add(8 * time.Hour),
		Pay:                5000,
		AppSavingPercent:   10,
		WorkersNeeded:      2,
		Description:        "Кофе для участников",
	}
}

func (e *env) create(t *testing.T, d entity.GigDetails) *entity.Gig {
	t.Helper()
	uc := gig.NewCreateGigUseCase(e.store.Gigs(), e.store.Skills(), e.publisher)
	view, err := uc.Execute(context.Background(), gig.CreateGigInput{EmployerID: e.employerID, Details: d})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return view.Gig
}

func fieldsOf(t *testing.T, err error) map[string]bool {
	t.Helper()
	appErr, ok := err.(*apperror.AppError)
	if !ok || appErr.Code != apperror.ErrCodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := make(map[string]bool)
	for _, f := range appErr.Fields {
		fields[f.Field] = true
	}
	return fields
}

func TestCreateGig_Success(t *testing.T) {
	e := newEnv()
	g := e.create(t, e.details())

	if g.Status != valueobject.GigStatusOpen {
		t.Errorf("expected status open, got %s", g.Status)
	}
	if g.Pay.FreelancerPay() != 4500 {
		t.Errorf("expected freelancer pay 4500, got %v", g.Pay.FreelancerPay())
	}
	if g.RatePerHour() != 625 {
		t.Errorf("expected rate 625, got %v", g.RatePerHour())
	}
	if len(e.publisher.created) != 1 {
		t.Fatalf("expected 1 event, got %d", len(e.publisher.created))
	}
	if got := e.publisher.created[0].SkillIDs; len(got) != 2 || got[0] != e.primary.ID {
		t.Errorf("unexpected skill ids in event: %v", got)
	}
}

func TestCreateGig_ReportsAllViolations(t *testing.T) {
	e := newEnv()
	d := e.details()
	d.EndAt = d.StartAt.Add(-time.Hour)
	d.SupportingSkillIDs = []uuid.UUID{e.primary.ID}
	d.AutoCloseEnabled = true
	d.AutoCloseAt = nil
	d.WorkersNeeded = 0
	d.AppSavingPercent = 150

	uc := gig.NewCreateGigUseCase(e.store.Gigs(), e.store.Skills(), e.publisher)
	_, err := uc.Execute(context.Background(), gig.CreateGigInput{EmployerID: e.employerID, Details: d})

	fields := fieldsOf(t, err)
	for _, want := range []string{"end_at", "supporting_skill_ids", "auto_close_at", "workers_needed", "app_saving_percent"} {
		if !fields[want] {
			t.Errorf("expected violation for %s, got %v", want, fields)
		}
	}
	if len(e.publisher.created) != 0 {
		t.Error("event must not be published for invalid gig")
	}
}

func TestCreateGig_AutoCloseAfterStart(t *testing.T) {
	e := newEnv()
	d := e.details()
	d.AutoCloseEnabled = true
	after := d.StartAt.Add(time.Minute)
	d.AutoCloseAt = &after

	uc := gig.NewCreateGigUseCase(e.store.Gigs(), e.store.Skills(), nil)
	_, err := uc.Execute(context.Background(), gig.CreateGigInput{EmployerID: e.employerID, Details: d})

	if !fieldsOf(t, err)["auto_close_at"] {
		t.Error("expected auto_close_at violation")
	}
}

func TestCreateGig_UnknownSkill(t *testing.T) {
	e := newEnv()
	d := e.details()
	d.PrimarySkillID = uuid.New()
	d.Title = ""

	uc := gig.NewCreateGigUseCase(e.store.Gigs(), e.store.Skills(), nil)
	_, err := uc.Execute(context.Background(), gig.CreateGigInput{EmployerID: e.employerID, Details: d})

	fields := fieldsOf(t, err)
	if !fields["primary_skill_id"] || !fields["title"] {
		t.Errorf("expected primary_skill_id and title violations, got %v", fields)
	}
}

func TestGetGig_Visibility(t *testing.T) {
	e := newEnv()
	g := e.create(t, e.details())
	uc := gig.NewGetGigUseCase(e.store.Gigs())

	if _, err := uc.Execute(context.Background(), g.ID, e.employerID, valueobject.RoleEmployer); err != nil {
		t.Fatalf("owner must see the gig: %v", err)
	}
	if _, err := uc.Execute(context.Background(), g.ID, uuid.New(), valueobject.RoleEmployer); !apperror.IsForbidden(err) {
		t.Errorf("expected forbidden for another employer, got %v", err)
	}

	closer := gig.NewCloseGigUseCase(e.store.Gigs())
	if _, err := closer.Execute(context.Background(), g.ID, e.employerID); err != nil {
		t.Fatalf("close: %v", err)
	}
	if _, err := uc.Execute(context.Background(), g.ID, uuid.New(), valueobject.RoleFreelancer); !apperror.IsNotFound(err) {
		t.Errorf("expected not found for closed gig, got %v", err)
	}
}

func TestListGigs_FreelancerFilters(t *testing.T) {
	e := newEnv()
	base := e.details()

	lat, lng := 59.7639, 30.3559
	near := base
	near.Latitude, near.Longitude = &lat, &lng
	nearGig := e.create(t, near)

	farLat, farLng := 55.7558, 37.6173
	evening := base
	evening.Title = "Вечерняя смена"
	evening.Location = "Москва"
	evening.StartAt = base.StartAt.Add(11 * time.Hour)
	evening.EndAt = evening.StartAt.Add(4 * time.Hour)
	evening.Pay = 9000
	evening.SupportingSkillIDs = nil
	evening.Latitude, evening.Longitude = &farLat, &farLng
	eveningGig := e.create(t, evening)

	closed := e.create(t, base)
	if _, err := gig.NewCloseGigUseCase(e.store.Gigs()).Execute(context.Background(), closed.ID, e.employerID); err != nil {
		t.Fatalf("close: %v", err)
	}

	uc := gig.NewListGigsUseCase(e.store.Gigs())
	viewer := uuid.New()
	minPay := 8000.0
	radius := 10.0

	tests := []struct {
		name  string
		input gig.ListGigsInput
		want  []uuid.UUID
	}{
		{name: "all open", input: gig.ListGigsInput{}, want: []uuid.UUID{eveningGig.ID, nearGig.ID}},
		{name: "location substring", input: gig.ListGigsInput{Location: "петербург"}, want: []uuid.UUID{nearGig.ID}},
		{name: "supporting skill", input: gig.ListGigsInput{SkillID: &e.supporting.ID}, want: []uuid.UUID{nearGig.ID}},
		{name: "pay range", input: gig.ListGigsInput{MinPay: &minPay}, want: []uuid.UUID{eveningGig.ID}},
		{name: "evening slot", input: gig.ListGigsInput{TimeSlot: "evening"}, want: []uuid.UUID{eveningGig.ID}},
		{name: "morning slot", input: gig.ListGigsInput{TimeSlot: "morning"}, want: []uuid.UUID{nearGig.ID}},
		{name: "radius", input: gig.ListGigsInput{Latitude: &lat, Longitude: &lng, RadiusKm: &radius}, want: []uuid.UUID{nearGig.ID}},
		{name: "new only", input: gig.ListGigsInput{NewOnly: true}, want: []uuid.UUID{eveningGig.ID, nearGig.ID}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.input.ViewerID = viewer
			tt.input.Role = valueobject.RoleFreelancer
			views, total, err := uc.Execute(context.Background(), tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if total != len(tt.want) {
				t.Fatalf("expected %d gigs, got %d", len(tt.want), total)
			}
			got := make(map[uuid.UUID]bool)
			for _, v := range views {
				got[v.Gig.ID] = true
			}
			for _, id := range tt.want {
				if !got[id] {
					t.Errorf("expected gig %s in result", id)
				}
			}
		})
	}
}

func TestListGigs_InvalidFilter(t *testing.T) {
	e := newEnv()
	lat := 95.0
	uc := gig.NewListGigsUseCase(e.store.Gigs())

	_, _, err := uc.Execute(context.Background(), gig.ListGigsInput{
		ViewerID: uuid.New(),
		Role:     valueobject.RoleFreelancer,
		TimeSlot: "night",
		Latitude: &lat,
	})

	fields := fieldsOf(t, err)
	if !fields["time_slot"] || !fields["latitude"] || !fields["longitude"] {
		t.Errorf("expected time_slot, latitude and longitude violations, got %v", fields)
	}
}

func TestListGigs_EmployerSeesOwnByStatus(t *testing.T) {
	e := newEnv()
	open := e.create(t, e.details())
	closed := e.create(t, e.details())
	if _, err := gig.NewCloseGigUseCase(e.store.Gigs()).Execute(context.Background(), closed.ID, e.employerID); err != nil {
		t.Fatalf("close: %v", err)
	}

	uc := gig.NewListGigsUseCase(e.store.Gigs())
	views, total, err := uc.Execute(context.Background(), gig.ListGigsInput{
		ViewerID: e.employerID,
		Role:     valueobject.RoleEmployer,
		Status:   "open",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 || views[0].Gig.ID != open.ID {
		t.Fatalf("expected only the open gig, got %d", total)
	}

	_, total, _ = uc.Execute(context.Background(), gig.ListGigsInput{ViewerID: uuid.New(), Role: valueobject.RoleEmployer})
	if total != 0 {
		t.Errorf("another employer must not see these gigs, got %d", total)
	}
}

func TestUpdateGig_PatchesAndValidates(t *testing.T) {
	e := newEnv()
	g := e.create(t, e.details())
	uc := gig.NewUpdateGigUseCase(e.store.Gigs(), e.store.Skills())

	title := "Старший бариста"
	view, err := uc.Execute(context.Background(), g.ID, e.employerID, gig.GigPatch{Title: &title})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Gig.Title != title {
		t.Errorf("expected title %q, got %q", title, view.Gig.Title)
	}
	if view.Gig.Location != g.Location {
		t.Errorf("location must stay unchanged")
	}

	end := g.StartAt.Add(-time.Hour)
	empty := ""
	_, err = uc.Execute(context.Background(), g.ID, e.employerID, gig.GigPatch{EndAt: &end, Description: &empty})
	fields := fieldsOf(t, err)
	if !fields["end_at"] || !fields["description"] {
		t.Errorf("expected end_at and description violations, got %v", fields)
	}

	if _, err := uc.Execute(context.Background(), g.ID, uuid.New(), gig.GigPatch{Title: &title}); !apperror.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestUpdateGig_WorkersGoThroughLock(t *testing.T) {
	e := newEnv()
	g := e.create(t, e.details())
	uc := gig.NewUpdateGigUseCase(e.store.Gigs(), e.store.Skills())

	workers := 5
	view, err := uc.Execute(context.Background(), g.ID, e.employerID, gig.GigPatch{WorkersNeeded: &workers})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Gig.WorkersNeeded != 5 {
		t.Errorf("expected 5 workers, got %d", view.Gig.WorkersNeeded)
	}
}

func TestUpdateGig_RejectedWorkersKeepsOtherFields(t *testing.T) {
	e := newEnv()
	g := e.create(t, e.details())
	acceptN(t, e.store, g.ID, 2)
	uc := gig.NewUpdateGigUseCase(e.store.Gigs(), e.store.Skills())

	title := "Новое название"
	empty := ""
	workers := 1
	_, err := uc.Execute(context.Background(), g.ID, e.employerID, gig.GigPatch{
		Title:         &title,
		Description:   &empty,
		WorkersNeeded: &workers,
	})
	fields := fieldsOf(t, err)
	if !fields["workers_needed"] || !fields["description"] {
		t.Errorf("expected workers_needed and description violations together, got %v", fields)
	}

	_, err = uc.Execute(context.Background(), g.ID, e.employerID, gig.GigPatch{Title: &title, WorkersNeeded: &workers})
	fields = fieldsOf(t, err)
	if !fields["workers_needed"] {
		t.Errorf("expected workers_needed violation, got %v", fields)
	}

	stored, err := e.store.Gigs().FindByID(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.Title != g.Title {
		t.Errorf("title must stay %q after a rejected update, got %q", g.Title, stored.Title)
	}
	if stored.WorkersNeeded != 2 {
		t.Errorf("workers_needed must stay 2, got %d", stored.WorkersNeeded)
	}
}

func TestUpdateGig_FieldsAndWorkersSavedTogether(t *testing.T) {
	e := newEnv()
	g := e.create(t, e.details())
	acceptN(t, e.store, g.ID, 2)
	uc := gig.NewUpdateGigUseCase(e.store.Gigs(), e.store.Skills())

	title := "Бариста, три человека"
	workers := 3
	view, err := uc.Execute(context.Background(), g.ID, e.employerID, gig.GigPatch{Title: &title, WorkersNeeded: &workers})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Gig.Title != title || view.Gig.WorkersNeeded != 3 {
		t.Errorf("expected title %q and 3 workers, got %q and %d", title, view.Gig.Title, view.Gig.WorkersNeeded)
	}
	if view.Gig.Status != valueobject.GigStatusOpen || view.SpotsLeft() != 1 {
		t.Errorf("expected open gig with 1 spot, got %s with %d", view.Gig.Status, view.SpotsLeft())
	}
}

func TestListGigs_TimeSlotUsesUTC(t *testing.T) {
	e := newEnv()
	d := e.details()
	// 09:00 по местному времени зоны UTC-10 это 19:00 UTC
	zone := time.FixedZone("UTC-10", -10*3600)
	day := d.StartAt
	d.StartAt = time.Date(day.Year(), day.Month(), day.Day(), 9, 0, 0, 0, zone)
	d.EndAt = d.StartAt.Add(3 * time.Hour)
	g := e.create(t, d)

	uc := gig.NewListGigsUseCase(e.store.Gigs())
	for slot, want := range map[string]int{"evening": 1, "morning": 0} {
		views, total, err := uc.Execute(context.Background(), gig.ListGigsInput{
			ViewerID: uuid.New(),
			Role:     valueobject.RoleFreelancer,
			TimeSlot: slot,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if total != want {
			t.Errorf("slot %s: expected %d gigs, got %d", slot, want, total)
		}
		if want == 1 && views[0].Gig.ID != g.ID {
			t.Errorf("slot %s: unexpected gig %s", slot, views[0].Gig.ID)
		}
	}
}

func acceptN(t *testing.T, store *memstore.Store, gigID uuid.UUID, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		store.PutApplication(&entity.GigApplication{
			ID:     uuid.New(),
			GigID:  gigID,
			UserID: uuid.New(),
			Status: valueobject.ApplicationStatusAccepted,
		})
	}
}

func TestUpdateWorkersNeeded(t *testing.T) {
	e := newEnv()
	g := e.create(t, e.details())
	acceptN(t, e.store, g.ID, 2)
	uc := gig.NewUpdateWorkersNeededUseCase(e.store.Gigs())

	if _, err := uc.Execute(context.Background(), g.ID, e.employerID, 1); !apperror.IsValidation(err) {
		t.Fatalf("expected validation error below accepted count, got %v", err)
	}

	view, err := uc.Execute(context.Background(), g.ID, e.employerID, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Gig.Status != valueobject.GigStatusFilled {
		t.Errorf("expected filled when workers equal accepted, got %s", view.Gig.Status)
	}

	view, err = uc.Execute(context.Background(), g.ID, e.employerID, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Gig.Status != valueobject.GigStatusOpen {
		t.Errorf("expected open after raising workers, got %s", view.Gig.Status)
	}
	if view.SpotsLeft() != 2 {
		t.Errorf("expected 2 spots left, got %d", view.SpotsLeft())
	}
}

func TestCloseGig(t *testing.T) {
	e := newEnv()
	g := e.create(t, e.details())
	uc := gig.NewCloseGigUseCase(e.store.Gigs())

	if _, err := uc.Execute(context.Background(), g.ID, uuid.New()); !apperror.IsForbidden(err) {
		t.Errorf("expected forbidden, got %v", err)
	}

	view, err := uc.Execute(context.Background(), g.ID, e.employerID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if view.Gig.Status != valueobject.GigStatusClosed {
		t.Errorf("expected closed, got %s", view.Gig.Status)
	}

	_, err = uc.Execute(context.Background(), g.ID, e.employerID)
	if apperror.CodeOf(err) != apperror.ErrCodeInvalidTransition {
		t.Errorf("expected invalid transition for closed gig, got %v", err)
	}
}

func TestDeleteGig_KeepsApplicationHistory(t *testing.T) {
	e := newEnv()
	g := e.create(t, e.details())
	freelancer := uuid.New()
	e.store.PutApplication(&entity.GigApplication{
		ID:     uuid.New(),
		GigID:  g.ID,
		UserID: freelancer,
		Status: valueobject.ApplicationStatusAccepted,
	})

	uc := gig.NewDeleteGigUseCase(e.store.Gigs())
	if err := uc.Execute(context.Background(), g.ID, uuid.New()); !apperror.IsForbidden(err) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if err := uc.Execute(context.Background(), g.ID, e.employerID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := e.store.Gigs().FindByID(context.Background(), g.ID); !apperror.IsNotFound(err) {
		t.Errorf("deleted gig must not be found, got %v", err)
	}

	views, err := e.store.Applications().ListByUser(context.Background(), freelancer, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 1 || views[0].Gig == nil {
		t.Fatal("accepted application must keep its gig")
	}
}

func TestSweeps_AreIdempotent(t *testing.T) {
	e := newEnv()
	now := time.Now()

	autoCloseAt := now.Add(-time.Minute)
	expiring := &entity.Gig{
		ID: uuid.New(), EmployerID: e.employerID, Status: valueobject.GigStatusOpen,
		StartAt: now.Add(time.Hour), EndAt: now.Add(5 * time.Hour), WorkersNeeded: 1,
		AutoCloseEnabled: true, AutoCloseAt: &autoCloseAt,
	}
	ended := &entity.Gig{
		ID: uuid.New(), EmployerID: e.employerID, Status: valueobject.GigStatusFilled,
		StartAt: now.Add(-5 * time.Hour), EndAt: now.Add(-time.Hour), WorkersNeeded: 1,
	}
	future := &entity.Gig{
		ID: uuid.New(), EmployerID: e.employerID, Status: valueobject.GigStatusOpen,
		StartAt: now.Add(time.Hour), EndAt: now.Add(2 * time.Hour), WorkersNeeded: 1,
	}
	for _, g := range []*entity.Gig{expiring, ended, future} {
		e.store.PutGig(g)
	}
	acceptN(t, e.store, ended.ID, 1)

	uc := gig.NewSweepUseCase(e.store.Gigs())

	report, err := uc.Run(context.Background(), gig.SweepAutoClose, now)
	if err != nil || report.Gigs != 1 {
		t.Fatalf("expected 1 closed gig, got %+v, %v", report, err)
	}
	report, err = uc.Run(context.Background(), gig.SweepAutoComplete, now)
	if err != nil || report.Gigs != 1 || report.Applications != 1 {
		t.Fatalf("expected 1 completed gig and application, got %+v, %v", report, err)
	}

	for _, kind := range []string{gig.SweepAutoClose, gig.SweepAutoComplete} {
		report, err := uc.Run(context.Background(), kind, now)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if report.Gigs != 0 {
			t.Errorf("second %s run changed %d gigs", kind, report.Gigs)
		}
	}

	got, _ := e.store.Gigs().FindByID(context.Background(), future.ID)
	if got.Status != valueobject.GigStatusOpen {
		t.Errorf("future gig must stay open, got %s", got.Status)
	}

	if _, err := uc.Run(context.Background(), "unknown", now); !apperror.IsValidation(err) {
		t.Errorf("expected validation error for unknown sweep, got %v", err)
	}
}
