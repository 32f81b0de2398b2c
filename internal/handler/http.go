// Package handler exposes the rewards service over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/recycle-rewards/internal/domain"
	"github.com/recycle-rewards/internal/metrics"
	"github.com/recycle-rewards/internal/service"
	"github.com/recycle-rewards/internal/websocket"
)

// SessionHeader carries the session token returned by registration
const SessionHeader = "X-Session-Token"

// Pinger is a backend checked by the readiness endpoint
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler provides HTTP handlers for the rewards API
type Handler struct {
	service     *service.RewardsService
	hub         *websocket.Hub
	metrics     *metrics.Metrics
	metricsPath string
	limiter     *RateLimiter
	backends    map[string]Pinger
	logger      *slog.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(service *service.RewardsService, hub *websocket.Hub, logger *slog.Logger) *Handler {
	return &Handler{
		service:  service,
		hub:      hub,
		backends: make(map[string]Pinger),
		logger:   logger,
	}
}

// WithMetrics instruments the router and serves the registry at path
func (h *Handler) WithMetrics(m *metrics.Metrics, path string) *Handler {
	h.metrics = m
	h.metricsPath = path
	return h
}

// WithRateLimiter throttles /api/v1 per client
func (h *Handler) WithRateLimiter(l *RateLimiter) *Handler {
	h.limiter = l
	return h
}

// WithBackend adds a backend to the readiness check
func (h *Handler) WithBackend(name string, p Pinger) *Handler {
	h.backends[name] = p
	return h
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(rememberPeer)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)
	if h.metrics != nil && h.metricsPath != "" {
		r.Handle(h.metricsPath, h.metrics.Handler())
	}

	// WebSocket endpoint
	r.Get("/ws", h.HandleWebSocket)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Compress(5))
		if h.limiter != nil {
			r.Use(h.limiter.Middleware)
		}

		r.Post("/users", h.Register)

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/waste-types", h.GetWasteTypes)
			r.Get("/badges", h.GetBadges)
			r.Get("/quiz", h.GetQuizCatalog)
		})
		r.Get("/rewards", h.GetRewards)

		r.Get("/leaderboard", h.GetLeaderboard)
		r.Get("/leaderboard/counts", h.GetLeaderboardCounts)

		r.Get("/ws/stats", h.GetWebSocketStats)

		// Everything below acts on the session's user
		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)

			r.Delete("/session", h.Logout)
			r.Get("/me", h.GetMe)

			r.Post("/waste-logs", h.LogWaste)
			r.Get("/waste-logs", h.GetWasteLogs)

			r.Route("/wizard", func(r chi.Router) {
				r.Get("/", h.GetWizard)
				r.Post("/type", h.WizardSelectType)
				r.Post("/weight", h.WizardSetWeight)
				r.Post("/next", h.WizardNext)
				r.Post("/back", h.WizardBack)
				r.Post("/submit", h.WizardSubmit)
				r.Post("/reset", h.WizardReset)
			})

			r.Get("/rewards/{rewardID}/check", h.CheckReward)
			r.Post("/rewards/{rewardID}/redeem", h.Redeem)
			r.Get("/redemptions", h.GetRedemptions)

			r.Get("/quiz", h.GetQuiz)
			r.Get("/quiz/attempts", h.GetQuizAttempts)
			r.Post("/quiz/{questionID}/answer", h.AnswerQuiz)

			r.Get("/dashboard", h.GetDashboard)
			r.Get("/badges", h.GetBadgeBoard)
		})
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, X-Request-ID, "+SessionHeader)

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Warn("failed to write response", "error", err)
	}
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data any) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// writeServiceError maps a service error to its status code. Unclassified
// errors are logged and hidden behind ErrInternalError.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("failed to "+op, "error", err, "request_id", middleware.GetReqID(r.Context()))
		h.writeError(w, status, domain.ErrInternalError)
		return
	}
	h.writeError(w, status, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusUnauthorized
	case domain.IsNotFoundError(err):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUserExists), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	case domain.IsRejectedError(err):
		return http.StatusUnprocessableEntity
	case domain.IsValidationError(err):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// decode reads a JSON body, rejecting unknown fields
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return domain.ErrInvalidRequest
	}
	return nil
}

// queryInt returns a positive integer query parameter or 0
func queryInt(r *http.Request, name string) int {
	if s := r.URL.Query().Get(name); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 0
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		h.writeError(w, http.StatusServiceUnavailable, errors.New("realtime updates disabled"))
		return
	}
	websocket.ServeWs(h.hub, h.logger, w, r)
}

// GetWebSocketStats returns WebSocket connection statistics
func (h *Handler) GetWebSocketStats(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		h.writeSuccess(w, map[string]int{"total_connections": 0})
		return
	}
	h.writeSuccess(w, h.hub.Stats())
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck pings every backend
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := map[string]string{"status": "ready"}
	ready := true
	for name, p := range h.backends {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn("backend not ready", "backend", name, "error", err)
			status[name] = "unavailable"
			ready = false
			continue
		}
		status[name] = "ok"
	}

	if !ready {
		status["status"] = "not_ready"
		h.writeJSON(w, http.StatusServiceUnavailable, APIResponse{Success: false, Data: status, Error: "not ready"})
		return
	}
	h.writeSuccess(w, status)
}
