package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strconv"

	"commentrating/internal/app"
	"commentrating/internal/ratelimit"
	"commentrating/internal/salebot"
	"commentrating/internal/util"
	"commentrating/pkg/domain"
)

// Notifier forwards rating events to the external automation API.
type Notifier interface {
	NotifyRating(ctx context.Context, n salebot.Notification) error
}

// Config wires required dependencies for the HTTP server.
type Config struct {
	App      *app.App
	Notifier Notifier
	// Limiter is optional; nil disables rate limiting.
	Limiter *ratelimit.FixedWindowLimiter
	// AdminToken guards the settings endpoints; empty disables them.
	AdminToken string
}

// Server exposes the comment-rating HTTP endpoints.
type Server struct {
	app        *app.App
	notifier   Notifier
	limiter    *ratelimit.FixedWindowLimiter
	adminToken string
	mux        *http.ServeMux
}

// New constructs the server with routes configured.
func New(cfg Config) *Server {
	s := &Server{
		app:        cfg.App,
		notifier:   cfg.Notifier,
		limiter:    cfg.Limiter,
		adminToken: cfg.AdminToken,
		mux:        http.NewServeMux(),
	}
	s.routes()
	return s
}

// Router returns the configured handler with middleware applied.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(util.WithSecurityHeaders(s.mux)))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.Handle("/add-comment", s.withRateLimit(http.HandlerFunc(s.handleAddComment)))
	s.mux.Handle("/add-rate", s.withRateLimit(http.HandlerFunc(s.handleAddRate)))
	s.mux.HandleFunc("/leaders", s.handleLeaders)
	s.mux.Handle("/settings", s.withAdminToken(http.HandlerFunc(s.handleSettings)))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// statusResponse is the fixed response shape of the write endpoints:
// callers only learn success or failure, diagnostics go to the logs.
type statusResponse struct {
	Status bool `json:"status"`
}

type addCommentRequest struct {
	Channel     string   `json:"channel"`
	SenderID    string   `json:"sender_id"`
	MessageID   string   `json:"message_id"`
	MessageText string   `json:"message_text"`
	ThreadID    string   `json:"thread_id"`
	Value       *float64 `json:"value"`
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	ctx := r.Context()
	logger := util.LoggerFromContext(ctx)

	var req addCommentRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		logger.Error("invalid add-comment body", "err", err)
		writeJSON(w, http.StatusOK, statusResponse{Status: false})
		return
	}

	err := s.app.AddComment(ctx, app.AddCommentRequest{
		Channel:     req.Channel,
		SenderID:    req.SenderID,
		MessageID:   req.MessageID,
		MessageText: req.MessageText,
		ThreadID:    req.ThreadID,
		Value:       req.Value,
	})
	if err != nil {
		logger.Error("add comment failed", "err", err)
		writeJSON(w, http.StatusOK, statusResponse{Status: false})
		return
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: true})
}

type addRateRequest struct {
	Channel   string   `json:"channel"`
	SenderID  string   `json:"sender_id"`
	MessageID string   `json:"message_id"`
	Value     *float64 `json:"value"`
}

func (s *Server) handleAddRate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	ctx := r.Context()
	logger := util.LoggerFromContext(ctx)

	var req addRateRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&req); err != nil {
		logger.Error("invalid add-rate body", "err", err)
		writeJSON(w, http.StatusOK, statusResponse{Status: false})
		return
	}
	if req.Value == nil {
		logger.Error("add rate failed", "err", &app.MissingFieldError{Field: "value"})
		writeJSON(w, http.StatusOK, statusResponse{Status: false})
		return
	}

	comment, err := s.app.ApplyRating(ctx, app.RateRequest{
		Channel:   req.Channel,
		SenderID:  req.SenderID,
		MessageID: req.MessageID,
		Value:     *req.Value,
	})
	if err != nil {
		logger.Error("add rate failed", "err", err)
		writeJSON(w, http.StatusOK, statusResponse{Status: false})
		return
	}

	// Best effort: the rating is committed, a notification failure
	// must not unwind it or the response.
	if s.notifier != nil {
		if err := s.notifier.NotifyRating(ctx, salebot.Notification{
			SenderID:    comment.SenderID,
			Channel:     comment.Channel,
			ThreadText:  comment.ThreadText,
			MessageID:   comment.MessageID,
			MessageText: comment.MessageText,
		}); err != nil {
			logger.Warn("rating notification failed", "err", err)
		}
	}
	writeJSON(w, http.StatusOK, statusResponse{Status: true})
}

func (s *Server) handleLeaders(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	channel := r.URL.Query().Get("channel")
	if channel == "" {
		writeError(w, http.StatusBadRequest, "channel is required")
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	leaders, err := s.app.Leaders(r.Context(), channel, limit)
	if err != nil {
		util.LoggerFromContext(r.Context()).Error("leaders read failed", "err", err)
		writeError(w, http.StatusInternalServerError, "failed to read leaderboard")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"channel": channel, "leaders": leaders})
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	switch r.Method {
	case http.MethodGet:
		settings, err := s.app.Settings(ctx)
		if err != nil {
			util.LoggerFromContext(ctx).Error("settings read failed", "err", err)
			writeError(w, http.StatusInternalServerError, "failed to read settings")
			return
		}
		writeJSON(w, http.StatusOK, settings)
	case http.MethodPut:
		var settings domain.Settings
		if err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(&settings); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		saved, err := s.app.SaveSettings(ctx, settings)
		if err != nil {
			util.LoggerFromContext(ctx).Error("settings update failed", "err", err)
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, saved)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(clientIP(r)) {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withAdminToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.adminToken == "" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("X-Admin-Token") != s.adminToken {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
