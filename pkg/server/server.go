// Package server exposes validation over HTTP for editor and CI
// integrations: POST /api/validate plus read-only endpoints for patterns,
// the tool registry, workspace skills and validation history.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/jingkaihe/skillspec/pkg/diary"
	"github.com/jingkaihe/skillspec/pkg/logger"
	"github.com/jingkaihe/skillspec/pkg/presenter"
	"github.com/jingkaihe/skillspec/pkg/workspace"
)

// Config holds the configuration for the HTTP server.
type Config struct {
	Host string
	Port int

	// WorkspaceRoot is the skillspec directory served. Empty means the
	// nearest workspace above the working directory.
	WorkspaceRoot string

	// DiaryPath is the sqlite database backing the history endpoints.
	// Empty disables history.
	DiaryPath string
}

// Validate validates the server configuration.
func (c *Config) Validate() error {
	if c.Host == "" {
		return errors.New("host cannot be empty")
	}
	if c.Port < 1 || c.Port > 65535 {
		return errors.Errorf("port must be between 1 and 65535, got %d", c.Port)
	}
	return nil
}

// Server is the skillspec HTTP API server.
type Server struct {
	router *mux.Router
	config *Config
	ws     *workspace.Workspace
	store  *diary.Store
	server *http.Server
}

// NewServer creates the API server. The diary store is opened eagerly so a
// broken database path fails at startup rather than on the first request.
func NewServer(ctx context.Context, config *Config) (*Server, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid server configuration")
	}

	var ws *workspace.Workspace
	if config.WorkspaceRoot != "" {
		ws = workspace.New(config.WorkspaceRoot)
	} else {
		found, err := workspace.Find(".")
		if err != nil {
			return nil, errors.Wrap(err, "failed to locate workspace")
		}
		ws = found
	}

	var store *diary.Store
	if config.DiaryPath != "" {
		var err error
		store, err = diary.Open(ctx, config.DiaryPath)
		if err != nil {
			return nil, errors.Wrap(err, "failed to open validation history")
		}
	}

	s := &Server{
		router: mux.NewRouter(),
		config: config,
		ws:     ws,
		store:  store,
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/validate", s.handleValidate).Methods("POST")
	api.HandleFunc("/skills", s.handleListSkills).Methods("GET")
	api.HandleFunc("/patterns", s.handleGetPatterns).Methods("GET")
	api.HandleFunc("/tools", s.handleListTools).Methods("GET")
	api.HandleFunc("/history", s.handleListHistory).Methods("GET")
	api.HandleFunc("/history/{id}", s.handleGetHistoryEntry).Methods("GET")

	s.router.HandleFunc("/", s.handleServiceInfo).Methods("GET")

	// Catch-all so the middleware chain (and the CORS preflight response)
	// runs for unmatched paths and methods too.
	s.router.PathPrefix("/").HandlerFunc(s.handleNotFound)

	s.router.Use(s.loggingMiddleware)
	s.router.Use(s.corsMiddleware)
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.writeErrorResponse(w, http.StatusNotFound, "not found", nil)
}

// Handler returns the configured router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		rw := &responseWriter{ResponseWriter: w, statusCode: 200}
		next.ServeHTTP(rw, r)

		logger.G(r.Context()).WithFields(map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      rw.statusCode,
			"duration":    time.Since(start),
			"remote_addr": r.RemoteAddr,
		}).Info("HTTP request")
	})
}

// corsMiddleware adds CORS headers.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) writeJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode JSON response")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	if err != nil {
		logger.G(context.TODO()).WithError(err).Error(message)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]any{
		"error":   message,
		"status":  statusCode,
		"success": false,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logger.G(context.TODO()).WithError(err).Error("failed to encode error response")
	}
}

// Start runs the server until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	address := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.server = &http.Server{
		Addr:    address,
		Handler: s.router,
	}

	presenter.Info(fmt.Sprintf("Starting API server on http://%s", address))

	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.G(ctx).WithError(err).Error("API server error")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return s.server.Shutdown(shutdownCtx)
}

// Close releases the diary store.
func (s *Server) Close() error {
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}
