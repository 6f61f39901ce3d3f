package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ignatzorin/gigmarket-backend/internal/domain/entity"
	"github.com/ignatzorin/gigmarket-backend/internal/domain/valueobject"
	"github.com/ignatzorin/gigmarket-backend/internal/http/middleware"
	"github.com/ignatzorin/gigmarket-backend/internal/infrastructure/memstore"
	"github.com/ignatzorin/gigmarket-backend/internal/logger"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/application"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/bookmark"
	"github.com/ignatzorin/gigmarket-backend/internal/usecase/gig"
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Discard()
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code   string `json:"code"`
		Fields []struct {
			Field string `json:"field"`
		} `json:"fields"`
	} `json:"error"`
}

type testServer struct {
	engine     *gin.Engine
	store      *memstore.Store
	skill      *entity.Skill
	employer   uuid.UUID
	freelancer uuid.UUID
}

// asUser подменяет AuthMiddleware: пользователь задаётся заголовками теста.
func asUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if id, err := uuid.Parse(c.GetHeader("X-Test-User")); err == nil {
			c.Set(middleware.ContextUserIDKey, id)
			c.Set(middleware.ContextRoleKey, valueobject.Role(c.GetHeader("X-Test-Role")))
		}
		c.Next()
	}
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := memstore.New()
	gigs, apps := store.Gigs(), store.Applications()

	gigHandler := NewGigHandler(
		gig.NewCreateGigUseCase(gigs, store.Skills(), nil),
		gig.NewGetGigUseCase(gigs),
		gig.NewListGigsUseCase(gigs),
		gig.NewUpdateGigUseCase(gigs, store.Skills()),
		gig.NewDeleteGigUseCase(gigs),
		gig.NewCloseGigUseCase(gigs),
		gig.NewUpdateWorkersNeededUseCase(gigs),
	)
	appHandler := NewApplicationHandler(
		application.NewApplyUseCase(gigs),
		application.NewListForGigUseCase(gigs, apps),
		application.NewUpdateApplicationStatusUseCase(gigs, nil),
		application.NewListMineUseCase(apps),
		application.NewGetMineUseCase(apps),
		application.NewCountMineUseCase(apps),
		application.NewCompletedSummaryUseCase(apps),
		application.NewWithdrawUseCase(apps),
	)
	bookmarkHandler := NewBookmarkHandler(
		bookmark.NewToggleBookmarkUseCase(store.Bookmarks(), gigs),
		bookmark.NewListMyBookmarksUseCase(store.Bookmarks()),
	)

	r := gin.New()
	r.Use(asUser())
	r.POST("/gigs", gigHandler.CreateGig)
	r.GET("/gigs", gigHandler.ListGigs)
	r.GET("/gigs/:id", gigHandler.GetGig)
	r.PATCH("/gigs/:id/workers", gigHandler.UpdateWorkers)
	r.POST("/gigs/:id/applications", appHandler.Apply)
	r.PATCH("/gigs/:id/applications/:applicationId/status", appHandler.UpdateStatus)
	r.POST("/gigs/:id/bookmark", bookmarkHandler.Toggle)
	r.GET("/my-applications/counts", appHandler.CountMine)

	ts := &testServer{
		engine:     r,
		store:      store,
		skill:      store.AddSkill("Бариста"),
		employer:   uuid.New(),
		freelancer: uuid.New(),
	}
	store.AddUser(&entity.User{ID: ts.employer, Role: valueobject.RoleEmployer, FirstName: "Анна", IsActive: true})
	store.AddUser(&entity.User{ID: ts.freelancer, Role: valueobject.RoleFreelancer, FirstName: "Иван", IsActive: true})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, userID uuid.UUID, role valueobject.Role, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if userID != uuid.Nil {
		req.Header.Set("X-Test-User", userID.String())
		req.Header.Set("X-Test-Role", string(role))
	}
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	}
	return w, env
}

func (ts *testServer) gigBody(workers int, requirements ...string) map[string]interface{} {
	start := time.Now().Add(48 * time.Hour).UTC().Truncate(time.Second)
	return map[string]interface{}{
		"title":              "Бариста на выходные",
		"primary_skill_id":   ts.skill.ID,
		"location":           "Москва, Тверская 1",
		"start_at":           start,
		"end_at":             start.Add(8 * time.Hour),
		"pay":                4000,
		"app_saving_percent": 10,
		"workers_needed":     workers,
		"description":        "Кофейня в центре",
		"requirements":       requirements,
	}
}

func (ts *testServer) createGig(t *testing.T, workers int, requirements ...string) gigResult {
	t.Helper()
	w, env := ts.do(t, http.MethodPost, "/gigs", ts.employer, valueobject.RoleEmployer, ts.gigBody(workers, requirements...))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var g gigResult
	require.NoError(t, json.Unmarshal(env.Data, &g))
	return g
}

type gigResult struct {
	ID            uuid.UUID `json:"id"`
	Status        string    `json:"status"`
	SpotsLeft     int       `json:"spots_left"`
	FreelancerPay float64   `json:"freelancer_pay"`
	RatePerHour   float64   `json:"rate_per_hour"`
	HasApplied    *bool     `json:"has_applied"`
	IsBookmarked  *bool     `json:"is_bookmarked"`
}

func TestGigHandler_CreateComputesDerivedFields(t *testing.T) {
	ts := newTestServer(t)

	g := ts.createGig(t, 2)
	assert.Equal(t, "open", g.Status)
	assert.Equal(t, 2, g.SpotsLeft)
	assert.Equal(t, 3600.0, g.FreelancerPay)
	assert.Equal(t, 500.0, g.RatePerHour)
	assert.Nil(t, g.HasApplied, "флаги исполнителя не показываются работодателю")
}

func TestGigHandler_CreateReportsAllFieldErrors(t *testing.T) {
	ts := newTestServer(t)

	body := ts.gigBody(1)
	body["title"] = ""
	body["pay"] = 0
	body["workers_needed"] = 0

	w, env := ts.do(t, http.MethodPost, "/gigs", ts.employer, valueobject.RoleEmployer, body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	var fields []string
	for _, f := range env.Error.Fields {
		fields = append(fields, f.Field)
	}
	assert.ElementsMatch(t, []string{"title", "pay", "workers_needed"}, fields)
}

func TestGigHandler_BadRequests(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(t, http.MethodGet, "/gigs/not-a-uuid", ts.freelancer, valueobject.RoleFreelancer, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(t, http.MethodGet, "/gigs/"+uuid.NewString(), uuid.Nil, "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := ts.do(t, http.MethodGet, "/gigs?min_pay=abc", ts.freelancer, valueobject.RoleFreelancer, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "min_pay", env.Error.Fields[0].Field)
}

func TestApplicationHandler_ApplyAcceptFlow(t *testing.T) {
	ts := newTestServer(t)
	g := ts.createGig(t, 1, "Медкнижка")
	gigPath := "/gigs/" + g.ID.String()

	w, env := ts.do(t, http.MethodPost, gigPath+"/applications", ts.freelancer, valueobject.RoleFreelancer,
		map[string]interface{}{"requirement_confirmations": []bool{false}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "REQUIREMENTS_NOT_CONFIRMED", env.Error.Code)

	w, env = ts.do(t, http.MethodPost, gigPath+"/applications", ts.freelancer, valueobject.RoleFreelancer,
		map[string]interface{}{"requirement_confirmations": []bool{true}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var app struct {
		ID     uuid.UUID `json:"id"`
		Status string    `json:"status"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &app))
	assert.Equal(t, "pending", app.Status)

	w, env = ts.do(t, http.MethodPost, gigPath+"/applications", ts.freelancer, valueobject.RoleFreelancer,
		map[string]interface{}{"requirement_confirmations": []bool{true}})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_APPLICATION", env.Error.Code)

	w, env = ts.do(t, http.MethodGet, gigPath, ts.freelancer, valueobject.RoleFreelancer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var seen gigResult
	require.NoError(t, json.Unmarshal(env.Data, &seen))
	require.NotNil(t, seen.HasApplied)
	assert.True(t, *seen.HasApplied)

	statusPath := gigPath + "/applications/" + app.ID.String() + "/status"
	w, env = ts.do(t, http.MethodPatch, statusPath, ts.freelancer, valueobject.RoleFreelancer, map[string]string{"status": "accepted"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = ts.do(t, http.MethodPatch, statusPath, ts.employer, valueobject.RoleEmployer, map[string]string{"status": "accepted"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result struct {
		GigStatus string `json:"gig_status"`
		SpotsLeft int    `json:"spots_left"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "filled", result.GigStatus)
	assert.Equal(t, 0, result.SpotsLeft)

	w, env = ts.do(t, http.MethodPatch, gigPath+"/workers", ts.employer, valueobject.RoleEmployer, map[string]int{"workers_needed": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var reopened gigResult
	require.NoError(t, json.Unmarshal(env.Data, &reopened))
	assert.Equal(t, "open", reopened.Status)
	assert.Equal(t, 1, reopened.SpotsLeft)
}

func TestApplicationHandler_CountMineListsEveryStatus(t *testing.T) {
	ts := newTestServer(t)

	w, env := ts.do(t, http.MethodGet, "/my-applications/counts", ts.freelancer, valueobject.RoleFreelancer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var counts map[string]int
	require.NoError(t, json.Unmarshal(env.Data, &counts))
	assert.Len(t, counts, len(valueobject.AllApplicationStatuses))
	assert.Zero(t, counts["pending"])
}

func TestBookmarkHandler_Toggle(t *testing.T) {
	ts := newTestServer(t)
	g := ts.createGig(t, 1)
	path := "/gigs/" + g.ID.String() + "/bookmark"

	var state struct {
		Bookmarked bool `json:"bookmarked"`
	}
	_, env := ts.do(t, http.MethodPost, path, ts.freelancer, valueobject.RoleFreelancer, nil)
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.True(t, state.Bookmarked)

	_, env = ts.do(t, http.MethodPost, path, ts.freelancer, valueobject.RoleFreelancer, nil)
	require.NoError(t, json.Unmarshal(env.Data, &state))
	assert.False(t, state.Bookmarked)

	w, _ := ts.do(t, http.MethodPost, "/gigs/"+uuid.NewString()+"/bookmark", ts.freelancer, valueobject.RoleFreelancer, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
