// Package api provides the HTTP server for SideQuest.
// Every user-scoped route lives under /api/users/{userID}.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/sidequest-app/sidequest/internal/app/profile"
	"github.com/sidequest-app/sidequest/internal/domain"
	"github.com/sidequest-app/sidequest/internal/health"
	"github.com/sidequest-app/sidequest/internal/infra/metrics"
)

// Version is reported by /api/version.
const Version = "0.1.0"

// Server is the SideQuest HTTP API server.
type Server struct {
	profiles       *profile.Service
	checker        *health.Checker
	metricsEnabled bool
	writeLimiter   *rate.Limiter
	timeout        time.Duration
}

// NewServer creates a new API server.
func NewServer(profiles *profile.Service) *Server {
	return &Server{
		profiles: profiles,
		timeout:  30 * time.Second,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetHealthChecker reports the checker's results on /health.
func (s *Server) SetHealthChecker(c *health.Checker) { s.checker = c }

// SetWriteLimit caps mutating requests per second across all clients.
// A non-positive rate disables the limit.
func (s *Server) SetWriteLimit(perSecond float64, burst int) {
	if perSecond <= 0 {
		s.writeLimiter = nil
		return
	}
	if burst < 1 {
		burst = 1
	}
	s.writeLimiter = rate.NewLimiter(rate.Limit(perSecond), burst)
}

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.timeout))
	r.Use(requestLogger)
	r.Use(corsMiddleware)

	r.Get("/health", s.handleHealth)

	r.Get("/api/version", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"version": Version,
		})
	})

	r.Route("/api/users", func(r chi.Router) {
		r.Use(s.limitWrites)
		r.Get("/", s.handleListUsers)
		r.Post("/", s.handleCreateUser)

		r.Route("/{userID}", func(r chi.Router) {
			r.Get("/", s.handleGetUser)
			r.Get("/streak", s.handleStreak)
			r.Post("/streak/savers", s.handleGrantSavers)
			r.Post("/decay", s.handleDecay)
			r.Get("/history", s.handleHistory)
			r.Get("/totals", s.handleTotals)
			r.Get("/badges", s.handleBadges)

			r.Get("/quests", s.handleListQuests)
			r.Post("/quests", s.handleCreateQuest)
			r.Delete("/quests/{questID}", s.handleArchiveQuest)
			r.Post("/quests/{questID}/complete", s.handleComplete)

			r.Get("/chests", s.handleListChests)
			r.Post("/chests", s.handleGrantChest)
			r.Post("/chests/{chestID}/open", s.handleOpenChest)

			r.Get("/proofs", s.handleListProofs)
			r.Post("/proofs/{proofID}/submit", s.handleSubmitProof)
			r.Post("/proofs/{proofID}/reject", s.handleRejectProof)
		})
	})

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.checker == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status, code := "ok", http.StatusOK
	if !s.checker.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{
		"status": status,
		"checks": s.checker.Statuses(),
	})
}

// limitWrites rejects mutating requests beyond the configured rate.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.writeLimiter != nil && r.Method != http.MethodGet && !s.writeLimiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs each request with logrus and counts it by route.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		metrics.HTTPRequests.WithLabelValues(route, strconv.Itoa(ww.Status())).Inc()
		log.WithFields(log.Fields{
			"method":     r.Method,
			"route":      route,
			"status":     ww.Status(),
			"duration":   time.Since(start).String(),
			"request_id": middleware.GetReqID(r.Context()),
		}).Debug("http request")
	})
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps domain errors to HTTP status codes.
func writeDomainError(w http.ResponseWriter, err error) {
	var pe *domain.PreconditionError
	switch {
	case errors.As(err, &pe):
		writeJSON(w, http.StatusConflict, map[string]any{
			"error": map[string]any{
				"message":  err.Error(),
				"type":     "precondition",
				"reason":   pe.Reason,
				"quest_id": pe.QuestID,
			},
		})
	case domain.IsInvalidInput(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrQuestNotFound),
		errors.Is(err, domain.ErrChestNotFound),
		errors.Is(err, domain.ErrProofNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrChestOpened),
		errors.Is(err, domain.ErrDailyChestExists):
		writeError(w, http.StatusConflict, err.Error())
	default:
		log.WithError(err).Error("request failed")
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// decodeBody decodes an optional JSON body into v. An empty body is allowed.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return &domain.InvalidInputError{Field: "body", Reason: err.Error()}
	}
	return nil
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
