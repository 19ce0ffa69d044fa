package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"ai-newsletter/internal/model"
	"ai-newsletter/internal/scheduler"
	"ai-newsletter/internal/topics"
)

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func (s *Server) handleTopics(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"topics":  topics.Available,
	})
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email  string   `json:"email"`
		Topics []string `json:"topics"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	if !emailPattern.MatchString(email) {
		writeError(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	}
	if err := topics.Validate(req.Topics); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	existed, err := s.Store.UpsertSubscriber(r.Context(), model.Subscriber{
		Email:     email,
		Topics:    req.Topics,
		CreatedAt: time.Now().UTC(),
		Active:    true,
	})
	if err != nil {
		s.Log.Error("subscribe: upsert failed", "email", email, "err", err)
		writeError(w, http.StatusInternalServerError, "Database error occurred")
		return
	}
	msg := "Successfully subscribed to AI newsletter"
	if existed {
		msg = "Subscription updated successfully"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": msg,
		"email":   email,
		"topics":  req.Topics,
	})
}

func (s *Server) handleSubscribers(w http.ResponseWriter, r *http.Request) {
	subs, err := s.Store.ListSubscribers(r.Context())
	if err != nil {
		s.Log.Error("subscribers: list failed", "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve subscribers")
		return
	}
	out := make([]map[string]any, 0, len(subs))
	for _, sub := range subs {
		out = append(out, map[string]any{
			"email":      sub.Email,
			"topics":     sub.Topics,
			"created_at": sub.CreatedAt.UTC().Format(time.RFC3339),
			"active":     sub.Active,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":     true,
		"subscribers": out,
		"total":       len(out),
	})
}

func (s *Server) handleTestContent(w http.ResponseWriter, r *http.Request) {
	testTopics := []string{"LLMs released this week", "Coding tools and IDEs"}
	content := s.Generator.GenerateNewsletter(r.Context(), testTopics)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"content":        content,
		"api_configured": s.Generator.IsConfigured(),
	})
}

func (s *Server) handleGenerateContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Topics []string `json:"topics"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}
	if err := topics.Validate(req.Topics); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	content := s.Generator.GenerateNewsletter(r.Context(), req.Topics)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"content":        content,
		"api_configured": s.Generator.IsConfigured(),
	})
}

func (s *Server) handleGenerateNewsletter(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}
	sub, ok, err := s.Store.GetSubscriber(r.Context(), email)
	if err != nil {
		s.Log.Error("generate-newsletter: lookup failed", "email", email, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to generate newsletter")
		return
	}
	if !ok || !sub.Active {
		writeError(w, http.StatusNotFound, "Subscriber not found")
		return
	}
	content := s.Generator.GenerateNewsletter(r.Context(), sub.Topics)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"email":          email,
		"content":        content,
		"api_configured": s.Generator.IsConfigured(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	db := "connected"
	if err := s.Store.Ping(r.Context()); err != nil {
		db = "unreachable"
	}
	api := "not_configured"
	if s.Generator.IsConfigured() {
		api = "configured"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":        true,
		"status":         "healthy",
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
		"database":       db,
		"perplexity_api": api,
	})
}

func (s *Server) handleEmailServiceStatus(w http.ResponseWriter, r *http.Request) {
	status := "not_configured"
	if s.MailStatus != nil && s.MailStatus(r) {
		status = "configured"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"email_service": "listmonk",
		"status":        status,
		"url":           s.ListmonkURL,
	})
}

func (s *Server) handleSchedulerStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.Scheduler.Status()
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           true,
		"scheduler_running": st.Running,
		"next_run":          timePtrString(st.NextRun),
		"last_run":          timePtrString(st.LastRun),
		"scheduled_jobs":    st.ScheduledJobs,
	})
}

func (s *Server) handleStartScheduler(w http.ResponseWriter, _ *http.Request) {
	err := s.Scheduler.Start()
	msg := "Scheduler started successfully"
	success := true
	if err != nil {
		success = false
		msg = fmt.Sprintf("Failed to start scheduler: %v", err)
		if errors.Is(err, scheduler.ErrAlreadyRunning) {
			msg = "Scheduler is already running"
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           success,
		"message":           msg,
		"scheduler_running": s.Scheduler.Status().Running,
	})
}

func (s *Server) handleStopScheduler(w http.ResponseWriter, _ *http.Request) {
	err := s.Scheduler.Stop()
	msg := "Scheduler stopped successfully"
	success := true
	if err != nil {
		success = false
		msg = fmt.Sprintf("Failed to stop scheduler: %v", err)
		if errors.Is(err, scheduler.ErrNotRunning) {
			msg = "Scheduler is not running"
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":           success,
		"message":           msg,
		"scheduler_running": s.Scheduler.Status().Running,
	})
}

func (s *Server) handleGenerateNewsletters(w http.ResponseWriter, r *http.Request) {
	rep, err := s.Scheduler.RunNow(r.Context())
	if err != nil {
		s.Log.Error("generate-newsletters: pass failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   "Failed to generate newsletters",
		})
		return
	}
	msg := fmt.Sprintf("Generated newsletters for %d subscribers", rep.NewslettersGenerated)
	if rep.NewslettersGenerated == 0 {
		msg = "No active subscribers found"
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"success":                  true,
		"message":                  msg,
		"newsletters_generated":    rep.NewslettersGenerated,
		"unique_content_generated": rep.UniqueContentGenerated,
		"subscribers_reached":      rep.SubscribersReached,
	})
}
