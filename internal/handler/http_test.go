package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recycle-rewards/internal/config"
	"github.com/recycle-rewards/internal/domain"
	"github.com/recycle-rewards/internal/memory"
	"github.com/recycle-rewards/internal/metrics"
	"github.com/recycle-rewards/internal/service"
	"github.com/recycle-rewards/internal/websocket"
)

type testAPI struct {
	t      *testing.T
	router http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	store := memory.NewStore()
	svc := service.NewRewardsService(
		service.Stores{Users: store, Sessions: store, Board: store, Ledger: store},
		domain.DefaultCatalog(),
		service.Options{
			Leaderboard: config.LeaderboardConfig{DefaultLimit: 50, MaxLimit: 500},
			Rules:       config.RulesConfig{MinPasswordLength: 6, WeeklyGoalKg: 10},
			Session:     config.SessionConfig{TTL: time.Hour},
		},
		logger,
	)
	hub := websocket.NewHub(logger)
	svc.SetHub(hub)

	h := NewHandler(svc, hub, logger).
		WithMetrics(metrics.New(), "/metrics").
		WithBackend("memory", store)
	return &testAPI{t: t, router: h.Router()}
}

func (a *testAPI) do(method, path, token string, body any) (int, APIResponse) {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set(SessionHeader, token)
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var resp APIResponse
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(a.t, json.Unmarshal(rec.Body.Bytes(), &resp))
	}
	return rec.Code, resp
}

// data re-decodes the envelope's data into out
func data(t *testing.T, resp APIResponse, out any) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, out))
}

func (a *testAPI) register(email, role string) string {
	a.t.Helper()
	req := map[string]string{
		"name":             "Tester",
		"email":            email,
		"password":         "secret1",
		"confirm_password": "secret1",
		"role":             role,
	}
	if role == "child" {
		req["parent_email"] = "parent@example.com"
	}
	code, resp := a.do(http.MethodPost, "/api/v1/users", "", req)
	require.Equal(a.t, http.StatusCreated, code, resp.Error)

	var res domain.RegistrationResult
	data(a.t, resp, &res)
	require.NotEmpty(a.t, res.SessionToken)
	return res.SessionToken
}

func TestRegisterAndSession(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ada@example.com", "family")

	code, resp := api.do(http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, code)
	var me domain.User
	data(t, resp, &me)
	assert.Equal(t, "ada@example.com", me.Email)
	assert.Contains(t, me.Badges, "first-steps")

	code, _ = api.do(http.MethodGet, "/api/v1/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = api.do(http.MethodPost, "/api/v1/users", "", map[string]string{
		"name": "Again", "email": "ada@example.com", "password": "secret1",
		"confirm_password": "secret1", "role": "school",
	})
	assert.Equal(t, http.StatusConflict, code)

	code, resp = api.do(http.MethodPost, "/api/v1/users", "", map[string]string{
		"name": "Short", "email": "short@example.com", "password": "abc",
		"confirm_password": "abc", "role": "family",
	})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.False(t, resp.Success)

	code, _ = api.do(http.MethodDelete, "/api/v1/session", token, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, "/api/v1/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestLogWaste(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ada@example.com", "child")

	code, resp := api.do(http.MethodPost, "/api/v1/waste-logs", token, map[string]any{"waste_type": "plastic", "weight": 2.5})
	require.Equal(t, http.StatusCreated, code, resp.Error)
	var res domain.WasteLogResult
	data(t, resp, &res)
	assert.Equal(t, int64(125), res.Entry.PointsEarned)
	assert.Equal(t, "api", res.Entry.Source)

	code, _ = api.do(http.MethodPost, "/api/v1/waste-logs", token, map[string]any{"waste_type": "plastic", "weight": -1})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = api.do(http.MethodPost, "/api/v1/waste-logs", token, map[string]any{"waste_type": "wood", "weight": 1})
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = api.do(http.MethodPost, "/api/v1/waste-logs", token, map[string]any{"kind": "plastic"})
	assert.Equal(t, http.StatusBadRequest, code)

	code, resp = api.do(http.MethodGet, "/api/v1/waste-logs?limit=10", token, nil)
	require.Equal(t, http.StatusOK, code)
	var logs []domain.WasteLogEntry
	data(t, resp, &logs)
	assert.Len(t, logs, 1)

	code, resp = api.do(http.MethodGet, "/api/v1/leaderboard?type=individual", "", nil)
	require.Equal(t, http.StatusOK, code)
	var board []domain.LeaderboardEntry
	data(t, resp, &board)
	require.Len(t, board, 1)
	assert.Equal(t, int64(1), board[0].Rank)

	code, _ = api.do(http.MethodGet, "/api/v1/leaderboard?type=robots", "", nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestWizard(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ada@example.com", "child")

	code, _ := api.do(http.MethodPost, "/api/v1/wizard/next", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)

	steps := []struct {
		path string
		body any
	}{
		{"/api/v1/wizard/type", map[string]string{"waste_type": "glass"}},
		{"/api/v1/wizard/next", nil},
		{"/api/v1/wizard/weight", map[string]float64{"weight": 2}},
		{"/api/v1/wizard/next", nil},
	}
	for _, s := range steps {
		code, resp := api.do(http.MethodPost, s.path, token, s.body)
		require.Equal(t, http.StatusOK, code, "%s: %s", s.path, resp.Error)
	}

	code, resp := api.do(http.MethodGet, "/api/v1/wizard", token, nil)
	require.Equal(t, http.StatusOK, code)
	var w domain.Wizard
	data(t, resp, &w)
	assert.Equal(t, domain.StepReview, w.Step)

	code, resp = api.do(http.MethodPost, "/api/v1/wizard/submit", token, nil)
	require.Equal(t, http.StatusCreated, code, resp.Error)
	code, _ = api.do(http.MethodPost, "/api/v1/wizard/submit", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
}

func TestRewardsAndQuiz(t *testing.T) {
	api := newTestAPI(t)
	token := api.register("ada@example.com", "family")

	code, resp := api.do(http.MethodPost, "/api/v1/rewards/notebook-set/redeem", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Contains(t, resp.Error, "300")

	code, _ = api.do(http.MethodPost, "/api/v1/rewards/yacht/redeem", token, nil)
	assert.Equal(t, http.StatusNotFound, code)

	code, resp = api.do(http.MethodGet, "/api/v1/rewards/notebook-set/check", token, nil)
	require.Equal(t, http.StatusOK, code)
	var check domain.RedemptionCheck
	data(t, resp, &check)
	assert.Equal(t, domain.RedemptionInsufficientPoints, check.Status)

	code, resp = api.do(http.MethodGet, "/api/v1/rewards?category=airtime", "", nil)
	require.Equal(t, http.StatusOK, code)
	var list struct {
		Rewards []domain.Reward `json:"rewards"`
	}
	data(t, resp, &list)
	require.NotEmpty(t, list.Rewards)
	for _, rw := range list.Rewards {
		assert.Equal(t, domain.CategoryAirtime, rw.Category)
	}

	code, _ = api.do(http.MethodPost, "/api/v1/quiz/paper-carbon/answer", token, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, code)
	code, resp = api.do(http.MethodPost, "/api/v1/quiz/paper-carbon/answer", token, map[string]int{"selected": 3})
	require.Equal(t, http.StatusOK, code, resp.Error)
	var answer domain.QuizAnswerResult
	data(t, resp, &answer)
	assert.Equal(t, int64(50), answer.PointsCredited)
	code, _ = api.do(http.MethodPost, "/api/v1/quiz/nope/answer", token, map[string]int{"selected": 0})
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = api.do(http.MethodGet, "/api/v1/dashboard", token, nil)
	assert.Equal(t, http.StatusOK, code)
	code, _ = api.do(http.MethodGet, "/api/v1/badges", token, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrSessionNotFound, http.StatusUnauthorized},
		{domain.ErrUserNotFound, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", domain.ErrRewardNotFound), http.StatusNotFound},
		{domain.ErrUserExists, http.StatusConflict},
		{domain.ErrConflict, http.StatusConflict},
		{&domain.InsufficientPointsError{Cost: 400, Balance: 300, Shortfall: 100}, http.StatusUnprocessableEntity},
		{domain.ErrRewardUnavailable, http.StatusUnprocessableEntity},
		{domain.ErrInvalidTransition, http.StatusUnprocessableEntity},
		{domain.ErrInvalidWeight, http.StatusBadRequest},
		{&domain.ValidationError{Field: "email", Err: domain.ErrInvalidRequest}, http.StatusBadRequest},
		{errors.New("redis down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), "%v", tt.err)
	}
}

type downPinger struct{}

func (downPinger) Ping(context.Context) error { return errors.New("down") }

func TestReadyCheck(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	h := NewHandler(nil, nil, logger).WithBackend("redis", downPinger{})

	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	l := NewRateLimiter(config.RateLimitConfig{Enabled: true, RPS: 0.001, Burst: 2, IdleTimeout: time.Minute}, logger)
	h := l.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for j := 0; j < 3; j++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	// Another client has its own bucket
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	assert.Equal(t, 0, l.evict(time.Now()))
	assert.Equal(t, 2, l.evict(time.Now().Add(2*time.Minute)))
}

func TestRateLimiter_ForwardedHeaders(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, tt := range []struct {
		name  string
		trust bool
		want  []int
	}{
		{"spoofed headers share the peer bucket", false, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}},
		{"trusted proxy headers pick the bucket", true, []int{http.StatusNoContent, http.StatusNoContent, http.StatusNoContent}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			l := NewRateLimiter(config.RateLimitConfig{RPS: 0.001, Burst: 2, TrustProxy: tt.trust}, logger)
			h := rememberPeer(middleware.RealIP(l.Middleware(ok)))

			codes := make([]int, 0, 3)
			for i := 0; i < 3; i++ {
				req := httptest.NewRequest(http.MethodGet, "/", nil)
				req.RemoteAddr = "10.0.0.1:1234"
				req.Header.Set("X-Forwarded-For", fmt.Sprintf("203.0.113.%d", i+1))
				rec := httptest.NewRecorder()
				h.ServeHTTP(rec, req)
				codes = append(codes, rec.Code)
			}
			assert.Equal(t, tt.want, codes)
		})
	}
}
