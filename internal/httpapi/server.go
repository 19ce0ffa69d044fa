// Package httpapi exposes the subscription and scheduler REST surface.
package httpapi

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"ai-newsletter/internal/ai"
	"ai-newsletter/internal/scheduler"
	"ai-newsletter/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server wires the HTTP handlers to their collaborators.
type Server struct {
	Store       *storage.RedisStore
	Generator   ai.Generator
	Scheduler   *scheduler.Scheduler
	MailStatus  func(r *http.Request) bool // nil when no mail provider is configured
	ListmonkURL string
	Log         *slog.Logger
}

// Router builds the chi router for the API.
func (s *Server) Router() http.Handler {
	if s.Log == nil {
		s.Log = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/api/topics", s.handleTopics)
	r.Post("/api/subscribe", s.handleSubscribe)
	r.Get("/api/subscribers", s.handleSubscribers)
	r.Get("/api/test-content", s.handleTestContent)
	r.Post("/api/generate-content", s.handleGenerateContent)
	r.Post("/api/generate-newsletter", s.handleGenerateNewsletter)
	r.Get("/api/health", s.handleHealth)
	r.Get("/api/email-service-status", s.handleEmailServiceStatus)
	r.Get("/api/scheduler-status", s.handleSchedulerStatus)
	r.Post("/api/start-scheduler", s.handleStartScheduler)
	r.Post("/api/stop-scheduler", s.handleStopScheduler)
	r.Post("/api/generate-newsletters", s.handleGenerateNewsletters)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   "Endpoint not found",
		})
	})
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"success": false, "error": msg})
}

func timePtrString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}
