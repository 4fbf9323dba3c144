package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fishery-permit/internal/common/logger"
	"fishery-permit/internal/models"
	"fishery-permit/internal/permit/attachments"
	"fishery-permit/internal/permit/demo"
	"fishery-permit/internal/permit/session"
	"fishery-permit/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// ==========================
// Test Helper Functions
// ==========================

type fixture struct {
	handler  http.Handler
	repo     *store.MemoryRepository
	sessions *session.Manager
}

func newFixture(t *testing.T, mutate ...func(*Options)) *fixture {
	t.Helper()
	repo := store.NewMemoryRepository(demo.Fixtures{})
	manager := session.NewManager(session.Options{
		Debounce:        5 * time.Millisecond,
		ValidationDelay: time.Millisecond,
		Limits:          attachments.DefaultLimits(),
		NumberGenerator: func(time.Time) string { return "F2025060427" },
	}, repo, logger.NewNoOpLogger(), session.WithDemoData(demo.Fixtures{}))
	t.Cleanup(manager.Close)

	opts := Options{
		Sessions:       manager,
		Repo:           repo,
		Mode:           ModeMock,
		Warnings:       []string{"DATABASE_POSTGRES_HOST is not set"},
		AllowedOrigins: []string{"http://localhost:3000"},
		Logger:         logger.NewTestLogger(t),
	}
	for _, m := range mutate {
		m(&opts)
	}
	return &fixture{handler: NewServer(opts).Handler(), repo: repo, sessions: manager}
}

func (f *fixture) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), dest))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	decode(t, rec, &body)
	return body.Error.Code
}

func (f *fixture) createSession(t *testing.T, prefill bool) session.View {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/sessions", map[string]bool{"prefill": prefill})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var view session.View
	decode(t, rec, &view)
	require.NotEmpty(t, view.ID)
	return view
}

type staticSnapshot struct {
	apps   []models.FisheryApplication
	loaded bool
}

func (s staticSnapshot) Snapshot() ([]models.FisheryApplication, bool) {
	return s.apps, s.loaded
}

// ==========================
// Health & metadata
// ==========================

func TestHealth(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, ModeMock, body["mode"])
	assert.Len(t, body["warnings"], 1)
}

func TestHealth_Degraded(t *testing.T) {
	f := newFixture(t, func(o *Options) {
		o.Mode = ModeDatabase
		o.Warnings = nil
		o.Ping = func(context.Context) error { return fmt.Errorf("connection refused") }
	})

	rec := f.do(t, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]interface{}
	decode(t, rec, &body)
	assert.Equal(t, "degraded", body["status"])
	assert.NotContains(t, body, "warnings")
}

func TestSteps(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/steps", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Steps []struct {
			ID    int    `json:"id"`
			Title string `json:"title"`
		} `json:"steps"`
	}
	decode(t, rec, &body)
	require.Len(t, body.Steps, 5)
	assert.Equal(t, "신청인 정보", body.Steps[0].Title)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodGet, "/api/steps", nil)

	rec := f.do(t, http.MethodGet, "/metrics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `permit_http_requests_total{code="200",method="GET",route="/api/steps"}`)
}

func TestCORSPreflight(t *testing.T) {
	f := newFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/steps", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

// ==========================
// Session flow
// ==========================

func TestSession_FieldUpdateAndNavigation(t *testing.T) {
	f := newFixture(t)
	view := f.createSession(t, false)
	assert.Equal(t, 1, view.CurrentStep)
	assert.Nil(t, view.EstimatedHours)

	base := "/api/sessions/" + view.ID
	rec := f.do(t, http.MethodPut, base+"/fields/fisheryType", map[string]string{"value": "coastal"})
	require.Equal(t, http.StatusAccepted, rec.Code)
	rec = f.do(t, http.MethodPut, base+"/fields/vesselTonnage", map[string]string{"value": "8.5"})
	require.Equal(t, http.StatusAccepted, rec.Code)

	decode(t, rec, &view)
	assert.Equal(t, "coastal", view.Form["fisheryType"])
	require.NotNil(t, view.EstimatedHours)

	assert.Eventually(t, func() bool {
		var current session.View
		decode(t, f.do(t, http.MethodGet, base, nil), &current)
		return len(current.Validation) == 2
	}, time.Second, 10*time.Millisecond)

	rec = f.do(t, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)
	assert.Equal(t, 2, view.CurrentStep)

	rec = f.do(t, http.MethodPost, base+"/retreat", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decode(t, rec, &view)
	assert.Equal(t, 1, view.CurrentStep)
	assert.Equal(t, "8.5", view.Form["vesselTonnage"])
}

func TestSession_Errors(t *testing.T) {
	f := newFixture(t)
	view := f.createSession(t, false)
	base := "/api/sessions/" + view.ID

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
		code   string
	}{
		{"unknown session", http.MethodGet, "/api/sessions/nope", nil, http.StatusNotFound, "SESSION_NOT_FOUND"},
		{"unknown field", http.MethodPut, base + "/fields/shoeSize", map[string]string{"value": "270"}, http.StatusUnprocessableEntity, "UNKNOWN_FIELD"},
		{"malformed body", http.MethodPut, base + "/fields/vesselName", `{"value":`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"unexpected body field", http.MethodPut, base + "/fields/vesselName", `{"val":"x"}`, http.StatusBadRequest, "INVALID_REQUEST"},
		{"empty file batch", http.MethodPost, base + "/files", map[string]interface{}{"files": []interface{}{}}, http.StatusUnprocessableEntity, "APPLICATION_VALIDATION_FAILED"},
		{"nameless file", http.MethodPost, base + "/files", map[string]interface{}{"files": []map[string]interface{}{{"sizeBytes": 10}}}, http.StatusUnprocessableEntity, "APPLICATION_VALIDATION_FAILED"},
		{"disallowed extension", http.MethodPost, base + "/files", map[string]interface{}{"files": []map[string]interface{}{{"name": "setup.exe", "sizeBytes": 10}}}, http.StatusUnprocessableEntity, "ATTACHMENT_REJECTED"},
		{"incomplete submit", http.MethodPost, base + "/submit", nil, http.StatusUnprocessableEntity, "APPLICATION_VALIDATION_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.Equal(t, tt.code, errorCode(t, rec))
		})
	}
}

func TestSession_FilesAndVerify(t *testing.T) {
	f := newFixture(t)
	view := f.createSession(t, false)
	base := "/api/sessions/" + view.ID

	rec := f.do(t, http.MethodPost, base+"/files", map[string]interface{}{
		"files": []map[string]interface{}{
			{"name": "어선검사증서.pdf", "sizeBytes": 2202009},
			{"name": "선박국적증서.pdf", "sizeBytes": 1887436},
		},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var added filesResponse
	decode(t, rec, &added)
	require.Len(t, added.Files, 2)
	assert.Equal(t, models.DocumentReceived, added.Files[0].Status)
	assert.Equal(t, models.DocVesselInspection, added.Files[0].Type)

	rec = f.do(t, http.MethodPost, base+"/files/verify", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var verified filesResponse
	decode(t, rec, &verified)
	for _, doc := range verified.Session.Files {
		assert.Equal(t, models.DocumentVerified, doc.Status, doc.Name)
	}
}

func TestSession_SubmitStoresApplicationOnce(t *testing.T) {
	f := newFixture(t)
	view := f.createSession(t, true)
	assert.Len(t, view.Files, 3)
	base := "/api/sessions/" + view.ID

	rec := f.do(t, http.MethodPost, base+"/submit", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var resp submitResponse
	decode(t, rec, &resp)
	assert.Equal(t, "F2025060427", resp.Application.ApplicationNumber)
	assert.Equal(t, models.StatusPending, resp.Application.Status)
	require.NotNil(t, resp.Session.Submitted)

	stored, err := f.repo.GetByNumber(context.Background(), "F2025060427")
	require.NoError(t, err)
	assert.Equal(t, "희망찬바다호", stored.VesselName)

	rec = f.do(t, http.MethodPost, base+"/submit", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "APPLICATION_ALREADY_SUBMITTED", errorCode(t, rec))
}

func TestSession_Delete(t *testing.T) {
	f := newFixture(t)
	view := f.createSession(t, false)

	rec := f.do(t, http.MethodDelete, "/api/sessions/"+view.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, 0, f.sessions.Len())

	rec = f.do(t, http.MethodDelete, "/api/sessions/"+view.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSession_PrefillQuery(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/sessions?prefill=true", nil)

	require.Equal(t, http.StatusCreated, rec.Code)
	var view session.View
	decode(t, rec, &view)
	assert.Equal(t, "박용환", view.Form["applicantName"])
}

func TestSession_PrefillQueryMustBeBoolean(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/sessions?prefill=yes", nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", errorCode(t, rec))
	assert.Equal(t, 0, f.sessions.Len())
}

// ==========================
// Application records
// ==========================

func TestApplications_List(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/applications", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		Applications []models.FisheryApplication `json:"applications"`
		Total        int                         `json:"total"`
	}
	decode(t, rec, &body)
	assert.Equal(t, 3, body.Total)
	assert.Equal(t, "F2025060001", body.Applications[0].ApplicationNumber)

	rec = f.do(t, http.MethodGet, "/api/applications?status=manual_review", nil)
	decode(t, rec, &body)
	require.Equal(t, 1, body.Total)
	assert.Equal(t, "app_002", body.Applications[0].ID)

	rec = f.do(t, http.MethodGet, "/api/applications?status=archived", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestApplications_ListPrefersLoadedSnapshot(t *testing.T) {
	only := demo.Fixtures{}.Applications()[2]
	f := newFixture(t, func(o *Options) {
		o.Live = staticSnapshot{apps: []models.FisheryApplication{only}, loaded: true}
	})

	var body struct {
		Total int `json:"total"`
	}
	decode(t, f.do(t, http.MethodGet, "/api/applications", nil), &body)
	assert.Equal(t, 1, body.Total)

	f = newFixture(t, func(o *Options) { o.Live = staticSnapshot{} })
	decode(t, f.do(t, http.MethodGet, "/api/applications", nil), &body)
	assert.Equal(t, 3, body.Total)
}

func TestApplications_Get(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/applications/app_001", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var app models.FisheryApplication
	decode(t, rec, &app)
	assert.Equal(t, "F2025060001", app.ApplicationNumber)

	rec = f.do(t, http.MethodGet, "/api/applications/app_999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "APPLICATION_NOT_FOUND", errorCode(t, rec))
}

func TestApplications_UpdateStatus(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		body   interface{}
		status int
		code   string
	}{
		{"approve in review", "app_001", map[string]string{"status": "approved"}, http.StatusOK, ""},
		{"complete approved", "app_003", map[string]string{"status": "completed"}, http.StatusOK, ""},
		{"reopen approved", "app_003", map[string]string{"status": "manual_review"}, http.StatusConflict, "INVALID_STATUS_TRANSITION"},
		{"unknown status", "app_001", map[string]string{"status": "archived"}, http.StatusUnprocessableEntity, "APPLICATION_VALIDATION_FAILED"},
		{"missing status", "app_001", map[string]string{}, http.StatusUnprocessableEntity, "APPLICATION_VALIDATION_FAILED"},
		{"unknown application", "app_999", map[string]string{"status": "approved"}, http.StatusNotFound, "APPLICATION_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)

			rec := f.do(t, http.MethodPatch, "/api/applications/"+tt.id+"/status", tt.body)

			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.code != "" {
				assert.Equal(t, tt.code, errorCode(t, rec))
				return
			}
			var resp statusUpdateResponse
			decode(t, rec, &resp)
			stored, err := f.repo.Get(context.Background(), tt.id)
			require.NoError(t, err)
			assert.Equal(t, resp.Application.Status, stored.Status)
			assert.NotEqual(t, resp.PreviousStatus, stored.Status)
		})
	}
}

func TestTrackStatus(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/status/F2025060002", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var body trackedStatus
	decode(t, rec, &body)
	assert.Equal(t, models.StatusManualReview, body.Status)
	assert.NotContains(t, rec.Body.String(), "010-")
	assert.False(t, strings.Contains(rec.Body.String(), "applicantName"))

	rec = f.do(t, http.MethodGet, "/api/status/F0000000000", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStats(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/stats", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var stats models.DashboardStats
	decode(t, rec, &stats)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 1, stats.Approved)
}
