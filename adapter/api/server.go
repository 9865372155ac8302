// Package api provides the HTTP surface: tasks, capture, scheduling,
// calendar sync, and Google OAuth, all backed by a single app.Container.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/qnz18/qzwhatnext/internal/app"
)

// Server is the HTTP API server.
type Server struct {
	mux    *http.ServeMux
	server *http.Server
	logger *slog.Logger
	h      *Handler
}

// ServerConfig holds configuration for the API server.
type ServerConfig struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// DefaultServerConfig returns the default server configuration.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:         "0.0.0.0:8080",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// NewServer creates a new API server bound to a container.
func NewServer(cfg ServerConfig, container *app.Container, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	s := &Server{
		mux:    mux,
		logger: logger,
		h:      NewHandler(container, logger),
	}

	s.registerRoutes()

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      s.mux,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /tasks", s.h.CreateTask)
	s.mux.HandleFunc("GET /tasks", s.h.ListTasks)
	s.mux.HandleFunc("GET /tasks/{id}", s.h.GetTask)
	s.mux.HandleFunc("PUT /tasks/{id}", s.h.UpdateTask)
	s.mux.HandleFunc("DELETE /tasks/{id}", s.h.SoftDeleteTask)
	s.mux.HandleFunc("POST /tasks/{id}/restore", s.h.RestoreTask)
	s.mux.HandleFunc("DELETE /tasks/{id}/purge", s.h.PurgeTask)
	s.mux.HandleFunc("POST /tasks/bulk_delete", s.h.BulkDeleteTasks)
	s.mux.HandleFunc("POST /tasks/bulk_restore", s.h.BulkRestoreTasks)
	s.mux.HandleFunc("POST /tasks/bulk_purge", s.h.BulkPurgeTasks)
	s.mux.HandleFunc("POST /tasks/add_smart", s.h.AddSmartTask)

	s.mux.HandleFunc("POST /capture", s.h.Capture)

	s.mux.HandleFunc("POST /schedule", s.h.RebuildSchedule)
	s.mux.HandleFunc("GET /schedule", s.h.GetSchedule)
	s.mux.HandleFunc("POST /sync-calendar", s.h.SyncCalendar)
	s.mux.HandleFunc("POST /schedule/blocks/{id}/lock", s.h.LockBlock)
	s.mux.HandleFunc("POST /schedule/blocks/{id}/unlock", s.h.UnlockBlock)

	s.mux.HandleFunc("GET /auth/google/auth-url", s.h.GoogleAuthURL)
	s.mux.HandleFunc("GET /auth/google/calendar/auth-url", s.h.GoogleAuthURL)
	s.mux.HandleFunc("GET /auth/google/callback", s.h.GoogleCallback)
	s.mux.HandleFunc("POST /auth/google/code-exchange", s.h.GoogleCodeExchange)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

// Start starts the API server.
func (s *Server) Start() error {
	s.logger.Info("starting API server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down API server")
	return s.server.Shutdown(ctx)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", "error", err)
		}
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{
		"error":   http.StatusText(status),
		"message": message,
	})
}

// APIError represents an API error.
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Common API errors.
var (
	ErrBadRequest = &APIError{
		Status:  http.StatusBadRequest,
		Code:    "bad_request",
		Message: "Invalid request",
	}
	ErrNotFound = &APIError{
		Status:  http.StatusNotFound,
		Code:    "not_found",
		Message: "Resource not found",
	}
	ErrInternalServer = &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "internal_error",
		Message: "Internal server error",
	}
)
