package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/phrazzld/todo-api/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskColumns = []string{"id", "user_id", "title", "description", "completed", "created_at", "updated_at"}

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{Port: 8080, LogLevel: "info", ShutdownTimeoutSeconds: 1},
		Database: config.DatabaseConfig{
			URL:          "postgres://localhost:5432/todo_test",
			MaxOpenConns: 2,
		},
		Auth: config.AuthConfig{
			JWTSecret:            "router-test-secret-at-least-32-characters",
			TokenLifetimeMinutes: 60,
		},
		CORS:      config.CORSConfig{AllowedOrigins: []string{"http://localhost:3000"}},
		RateLimit: config.RateLimitConfig{RequestsPerMinute: 120, Burst: 120},
		Metrics:   config.MetricsConfig{Enabled: true},
	}
}

type testServer struct {
	app    *application
	router http.Handler
	mock   sqlmock.Sqlmock
}

func newTestServer(t *testing.T, cfg *config.Config) *testServer {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app, err := newApplication(cfg, logger, db)
	require.NoError(t, err)
	t.Cleanup(app.cleanup)

	return &testServer{app: app, router: app.setupRouter(), mock: mock}
}

func (s *testServer) token(t *testing.T, userID uuid.UUID) string {
	t.Helper()
	token, err := s.app.jwtService.GenerateToken(context.Background(), userID)
	require.NoError(t, err)
	return token
}

func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)
	return rr
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig())

	rr := s.do(http.MethodGet, "/health", "", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rr.Body.String())
	assert.NotEmpty(t, rr.Header().Get("X-Trace-ID"))
}

func TestCreateThenCrossUserGet(t *testing.T) {
	s := newTestServer(t, testConfig())
	owner, other := uuid.New(), uuid.New()

	s.mock.ExpectBegin()
	s.mock.ExpectExec("INSERT INTO tasks").WillReturnResult(sqlmock.NewResult(0, 1))
	s.mock.ExpectCommit()

	rr := s.do(http.MethodPost, "/api/"+owner.String()+"/tasks", s.token(t, owner),
		`{"title":"Buy groceries","description":"milk"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created struct {
		ID          string  `json:"id"`
		UserID      string  `json:"user_id"`
		Title       string  `json:"title"`
		Description *string `json:"description"`
		Completed   bool    `json:"completed"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&created))
	assert.Equal(t, owner.String(), created.UserID)
	assert.Equal(t, "Buy groceries", created.Title)
	assert.False(t, created.Completed)

	now := time.Now().UTC()
	s.mock.ExpectBegin()
	s.mock.ExpectQuery(`SELECT (.+) FROM tasks WHERE id = \$1`).
		WithArgs(created.ID).
		WillReturnRows(sqlmock.NewRows(taskColumns).
			AddRow(created.ID, owner.String(), "Buy groceries", "milk", false, now, now))
	s.mock.ExpectRollback()

	rr = s.do(http.MethodGet, "/api/"+other.String()+"/tasks/"+created.ID, s.token(t, other), "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.NotContains(t, rr.Body.String(), "Buy groceries")

	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestTaskRoutes_AuthOrdering(t *testing.T) {
	s := newTestServer(t, testConfig())
	owner := uuid.New()
	token := s.token(t, owner)

	tests := []struct {
		name   string
		method string
		path   string
		token  string
		status int
	}{
		{"no token", http.MethodGet, "/api/" + owner.String() + "/tasks", "", http.StatusUnauthorized},
		{"no token bad path id", http.MethodGet, "/api/nope/tasks", "", http.StatusUnauthorized},
		{"other user's path", http.MethodGet, "/api/" + uuid.New().String() + "/tasks", token, http.StatusForbidden},
		{"malformed path user id", http.MethodGet, "/api/nope/tasks", token, http.StatusUnprocessableEntity},
		{"malformed task id", http.MethodDelete, "/api/" + owner.String() + "/tasks/nope", token, http.StatusUnprocessableEntity},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rr := s.do(tc.method, tc.path, tc.token, "")
			assert.Equal(t, tc.status, rr.Code)
		})
	}

	// None of the rejected requests reached the database.
	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestListTasks_ThroughRouter(t *testing.T) {
	s := newTestServer(t, testConfig())
	owner := uuid.New()
	now := time.Now().UTC()

	s.mock.ExpectBegin()
	s.mock.ExpectQuery("SELECT (.+) FROM tasks").
		WithArgs(owner.String()).
		WillReturnRows(sqlmock.NewRows(taskColumns).
			AddRow(uuid.NewString(), owner.String(), "first", nil, false, now, now).
			AddRow(uuid.NewString(), owner.String(), "second", nil, true, now, now))
	s.mock.ExpectCommit()

	rr := s.do(http.MethodGet, "/api/"+owner.String()+"/tasks", s.token(t, owner), "")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Tasks []struct {
			Title       string  `json:"title"`
			Description *string `json:"description"`
		} `json:"tasks"`
		Total int `json:"total"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, 2, resp.Total)
	require.Len(t, resp.Tasks, 2)
	assert.Equal(t, "first", resp.Tasks[0].Title)
	assert.Nil(t, resp.Tasks[0].Description)

	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestRateLimit_ThroughRouter(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = config.RateLimitConfig{RequestsPerMinute: 1, Burst: 1}
	s := newTestServer(t, cfg)
	owner := uuid.New()
	token := s.token(t, owner)

	s.mock.ExpectBegin()
	s.mock.ExpectQuery("SELECT (.+) FROM tasks").WillReturnRows(sqlmock.NewRows(taskColumns))
	s.mock.ExpectCommit()

	rr := s.do(http.MethodGet, "/api/"+owner.String()+"/tasks", token, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = s.do(http.MethodGet, "/api/"+owner.String()+"/tasks", token, "")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))

	assert.NoError(t, s.mock.ExpectationsWereMet())
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, testConfig())

	s.do(http.MethodGet, "/health", "", "")
	rr := s.do(http.MethodGet, "/metrics", "", "")

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `todo_http_requests_total{method="GET",route="/health",status_code="200"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestMetricsEndpoint_Disabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	s := newTestServer(t, cfg)

	rr := s.do(http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCORSPreflight_ThroughRouter(t *testing.T) {
	s := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodOptions, "/api/"+uuid.NewString()+"/tasks", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rr := httptest.NewRecorder()
	s.router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "http://localhost:3000", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestConfigurePool(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	configurePool(db, config.DatabaseConfig{MaxOpenConns: 7, MaxIdleConns: 3, ConnMaxLifetimeMinutes: 1})

	assert.Equal(t, 7, db.Stats().MaxOpenConnections)
}

func TestShutdownTimeout(t *testing.T) {
	app := &application{config: testConfig()}
	assert.Equal(t, time.Second, app.shutdownTimeout())

	app.config.Server.ShutdownTimeoutSeconds = 0
	assert.Equal(t, defaultShutdownTimeout, app.shutdownTimeout())
}

