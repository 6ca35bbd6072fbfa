package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/studytrack/study-dashboard/internal/application/query"
	"github.com/studytrack/study-dashboard/internal/domain/study"
	"github.com/studytrack/study-dashboard/internal/infrastructure/persistence/memory"
	"github.com/studytrack/study-dashboard/internal/interface/http/handlers"
	"github.com/studytrack/study-dashboard/pkg/logger"
)

type envelope struct {
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Error     *APIError       `json:"error"`
	Meta      *ResponseMeta   `json:"meta"`
	RequestID string          `json:"request_id"`
}

func newTestServer(t *testing.T, cfg Config) (*Server, *memory.Gateway) {
	t.Helper()
	g := memory.NewGateway()
	require.NoError(t, g.Initialize(context.Background(), study.DefaultProgram()))

	deps := NewDependencies(g, query.DefaultDashboardSettings())
	deps.Logger = logger.New(logger.Options{Output: io.Discard})

	checker := handlers.NewCompositeHealthChecker("test")
	checker.AddCheck("database", handlers.NewDatabaseCheck(g))
	deps.HealthChecker = checker

	s := NewServer(cfg, deps)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s, g
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.RateLimitPerMinute = 0
	return cfg
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var env envelope
	if rec.Code != http.StatusNoContent {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func decode[T any](t *testing.T, raw json.RawMessage) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(raw, &v))
	return v
}

func TestModuleEndpoints(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec, env := do(t, s, http.MethodPost, "/api/v1/modules", `{"name":"Algorithms","code":"ALG1","credits":5,"exam_form":"written-exam"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "ALG1", decode[query.ModuleDTO](t, env.Data).Code)

	rec, env = do(t, s, http.MethodPost, "/api/v1/modules", `{"name":"Algorithms 2","code":"ALG1","credits":5,"exam_form":"project"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_exists", env.Error.Code)

	rec, env = do(t, s, http.MethodPost, "/api/v1/modules", `{"name":"Broken","code":"BRK","credits":0,"exam_form":"essay"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation_failed", env.Error.Code)
	assert.Contains(t, env.Error.Details, "credits")
	assert.Contains(t, env.Error.Details, "exam_form")

	rec, env = do(t, s, http.MethodPost, "/api/v1/modules", `{"name":"   ","code":"WS","credits":5,"exam_form":"project"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error.Details, "name")

	rec, env = do(t, s, http.MethodPost, "/api/v1/modules", `{"name":"X","code":"X","credits":5,"exam_form":"project","color":"red"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", env.Error.Code)

	rec, env = do(t, s, http.MethodPatch, "/api/v1/modules/ALG1", `{"credits":6,"exam_form":"Oral-Exam"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	updated := decode[query.ModuleDTO](t, env.Data)
	assert.Equal(t, 6, updated.Credits)
	assert.Equal(t, "oral-exam", updated.ExamForm)

	rec, env = do(t, s, http.MethodGet, "/api/v1/modules", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, env.Meta.TotalCount)

	rec, _ = do(t, s, http.MethodDelete, "/api/v1/modules/ALG1", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec, env = do(t, s, http.MethodGet, "/api/v1/modules/ALG1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestExamResultsAndDashboard(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	rec, _ := do(t, s, http.MethodPost, "/api/v1/modules", `{"name":"Algorithms","code":"ALG1","credits":5,"exam_form":"written-exam"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, _ = do(t, s, http.MethodPost, "/api/v1/enrollments", `{"semester":1,"module_code":"ALG1","kind":"planned"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	rec, env := do(t, s, http.MethodPost, "/api/v1/enrollments", `{"semester":1,"module_code":"ALG1","kind":"passed"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "current", decode[EnrollmentKeyResponse](t, env.Data).Kind)

	rec, env = do(t, s, http.MethodPost, "/api/v1/modules/ALG1/exam-results", `{"description":"Klausur","date":"2024-07-03","grade":1.7}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[struct {
		ID int64 `json:"id"`
	}](t, env.Data)

	rec, env = do(t, s, http.MethodPost, "/api/v1/modules/ALG1/exam-results", `{"description":"Klausur","date":"03.07.2024","grade":6}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error.Details, "date")
	assert.Contains(t, env.Error.Details, "grade")

	rec, _ = do(t, s, http.MethodPost, "/api/v1/modules/NOPE/exam-results", `{"description":"Klausur"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, env = do(t, s, http.MethodGet, "/api/v1/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[query.DashboardDTO](t, env.Data)
	assert.Equal(t, 5, dash.EarnedCredits)
	require.NotNil(t, dash.WeightedAverage)
	assert.Equal(t, 1.7, *dash.WeightedAverage)
	assert.True(t, dash.MeetsGradeTarget)
	assert.Equal(t, 100.0, dash.Semesters[0].ProgressPercent)

	path := "/api/v1/exam-results/" + itoa(created.ID)
	rec, env = do(t, s, http.MethodPatch, path, `{"grade":null}`)
	require.Equal(t, http.StatusOK, rec.Code)
	result := decode[query.ExamResultDTO](t, env.Data)
	assert.Nil(t, result.Grade)
	require.NotNil(t, result.Date)
	assert.Equal(t, "2024-07-03", *result.Date)

	_, env = do(t, s, http.MethodGet, "/api/v1/dashboard", "")
	dash = decode[query.DashboardDTO](t, env.Data)
	assert.Nil(t, dash.WeightedAverage)
	assert.Equal(t, "in-progress", dash.Modules[0].Status)

	rec, env = do(t, s, http.MethodPatch, path, `{"date":"2024-02-30"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error.Details, "date")

	rec, _ = do(t, s, http.MethodPatch, "/api/v1/exam-results/abc", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, s, http.MethodGet, "/api/v1/program", "")
	require.Equal(t, http.StatusOK, rec.Code)
	program := decode[query.ProgramDTO](t, env.Data)
	assert.Equal(t, []string{"ALG1"}, program.Semesters[0].Planned)
	assert.Equal(t, []string{"ALG1"}, program.Semesters[0].Current)

	rec, _ = do(t, s, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = do(t, s, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestEnrollmentEndpoints(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	do(t, s, http.MethodPost, "/api/v1/modules", `{"name":"Algorithms","code":"ALG1","credits":5,"exam_form":"written-exam"}`)
	do(t, s, http.MethodPost, "/api/v1/modules", `{"name":"Databases","code":"DB","credits":5,"exam_form":"project"}`)
	for _, body := range []string{
		`{"semester":2,"module_code":"DB","kind":"planned"}`,
		`{"semester":1,"module_code":"ALG1","kind":"planned"}`,
		`{"semester":1,"module_code":"ALG1","kind":"current","comment":"done"}`,
		`{"semester":1,"module_code":"ALG1","kind":"planned"}`,
	} {
		rec, _ := do(t, s, http.MethodPost, "/api/v1/enrollments", body)
		require.Equal(t, http.StatusCreated, rec.Code, body)
	}

	_, env := do(t, s, http.MethodGet, "/api/v1/enrollments", "")
	all := decode[[]query.EnrollmentDTO](t, env.Data)
	require.Len(t, all, 3, "duplicate insert is a no-op")
	assert.Equal(t, 1, all[0].SemesterNumber)
	assert.Equal(t, "passed", all[0].KindLabel)

	_, env = do(t, s, http.MethodGet, "/api/v1/enrollments?module=DB", "")
	assert.Len(t, decode[[]query.EnrollmentDTO](t, env.Data), 1)

	rec, _ := do(t, s, http.MethodGet, "/api/v1/enrollments?semester=first", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, env = do(t, s, http.MethodPost, "/api/v1/enrollments", `{"semester":9,"module_code":"ALG1","kind":"planned"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code, env.Error)

	rec, env = do(t, s, http.MethodPost, "/api/v1/enrollments", `{"semester":1,"module_code":"ALG1","kind":"later"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, env.Error.Details, "kind")

	rec, _ = do(t, s, http.MethodPatch, "/api/v1/enrollments/1/ALG1/planned", `{"kind":"passed"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec, env = do(t, s, http.MethodPatch, "/api/v1/enrollments/1/ALG1/passed", `{"comment":"graded"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "graded", decode[query.EnrollmentDTO](t, env.Data).Comment)

	rec, _ = do(t, s, http.MethodDelete, "/api/v1/enrollments/2/DB/planned", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec, _ = do(t, s, http.MethodDelete, "/api/v1/enrollments/2/DB/planned", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = do(t, s, http.MethodDelete, "/api/v1/enrollments/0/DB/planned", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	_, env = do(t, s, http.MethodGet, "/api/v1/semesters", "")
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, decode[[]int](t, env.Data))
}

func TestIntegrityErrorMapsTo500(t *testing.T) {
	s, g := newTestServer(t, testConfig())
	g.Seed(study.GraphRecords{
		Program:     &study.ProgramRecord{ID: 1, Name: "Broken", TotalCredits: 180, NominalDuration: 1},
		Semesters:   []study.SemesterRecord{{ID: 2, Number: 1, Label: "Semester 1", ProgramID: 1}},
		Enrollments: []study.EnrollmentRecord{{ID: 3, SemesterID: 2, ModuleID: 99, Kind: study.KindPlanned}},
	})

	rec, env := do(t, s, http.MethodGet, "/api/v1/dashboard", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "integrity_error", env.Error.Code)
}

func TestErrorMessagesHideOperationChain(t *testing.T) {
	s, _ := newTestServer(t, testConfig())
	do(t, s, http.MethodPost, "/api/v1/modules", `{"name":"Algorithms","code":"ALG1","credits":5,"exam_form":"written-exam"}`)

	rec, env := do(t, s, http.MethodPatch, "/api/v1/exam-results/999", `{"grade":2.0}`)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "exam result 999 not found", env.Error.Message)

	rec, env = do(t, s, http.MethodPost, "/api/v1/modules", `{"name":"Again","code":"ALG1","credits":5,"exam_form":"project"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, `module code "ALG1" already exists`, env.Error.Message)

	rec, env = do(t, s, http.MethodGet, "/api/v1/modules/NOPE", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotContains(t, env.Error.Message, "get_module")
}

func TestOversizedBodyIs413(t *testing.T) {
	cfg := testConfig()
	cfg.MaxBodyBytes = 64
	s, _ := newTestServer(t, cfg)
	body := `{"name":"` + strings.Repeat("x", 200) + `","code":"BIG","credits":5,"exam_form":"project"}`

	t.Run("streamed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/modules", strings.NewReader(body))
		req.ContentLength = -1
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		var env envelope
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
		assert.Equal(t, "payload_too_large", env.Error.Code)
	})

	t.Run("declared length", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/modules", strings.NewReader(body))
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestRequestLoggerCarriesRequestID(t *testing.T) {
	var buf bytes.Buffer
	g := memory.NewGateway()
	require.NoError(t, g.Initialize(context.Background(), study.DefaultProgram()))
	g.Seed(study.GraphRecords{
		Program:     &study.ProgramRecord{ID: 1, Name: "Broken", TotalCredits: 180, NominalDuration: 1},
		Semesters:   []study.SemesterRecord{{ID: 2, Number: 1, Label: "Semester 1", ProgramID: 1}},
		Enrollments: []study.EnrollmentRecord{{ID: 3, SemesterID: 2, ModuleID: 99, Kind: study.KindPlanned}},
	})
	deps := NewDependencies(g, query.DefaultDashboardSettings())
	deps.Logger = logger.New(logger.Options{Output: &buf, Level: logger.LevelInfo})
	s := NewServer(testConfig(), deps)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })

	req := httptest.NewRequest(http.MethodGet, "/api/v1/dashboard", nil)
	req.Header.Set("X-Request-ID", "req-integrity")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusInternalServerError, rec.Code)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2, buf.String())
	for _, line := range lines {
		var entry logger.LogEntry
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, "req-integrity", entry.Fields[logger.RequestIDKey], entry.Message)
	}
}

func TestHealthAndRequestID(t *testing.T) {
	s, _ := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "req-42", env.RequestID)
	status := decode[handlers.HealthStatus](t, env.Data)
	assert.True(t, status.Checks["database"].Healthy)

	rec, _ = do(t, s, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitPerMinute = 2
	s, _ := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		rec, _ := do(t, s, http.MethodGet, "/live", "")
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, env := do(t, s, http.MethodGet, "/live", "")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limit_exceeded", env.Error.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestMemoryRateLimiter(t *testing.T) {
	rl := NewMemoryRateLimiter(2, time.Minute)
	defer rl.Stop()

	now := time.Date(2024, time.July, 3, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }
	ctx := context.Background()

	for _, want := range []bool{true, true, false} {
		ok, err := rl.Allow(ctx, "1.2.3.4")
		require.NoError(t, err)
		assert.Equal(t, want, ok)
	}

	ok, _ := rl.Allow(ctx, "5.6.7.8")
	assert.True(t, ok, "keys are independent")

	now = now.Add(time.Minute + time.Second)
	ok, _ = rl.Allow(ctx, "1.2.3.4")
	assert.True(t, ok, "window has passed")
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
