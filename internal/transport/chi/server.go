// Package chi serves the worker's admin API: health, metrics, the model
// registry and task scheduling.
package chi

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/docsearch/internal/logger"
	"github.com/kailas-cloud/docsearch/internal/usecase/health"
	"github.com/kailas-cloud/docsearch/internal/version"
)

// Error codes returned in ErrorResponse.
const (
	CodeBadRequest   = "bad_request"
	CodeUnauthorized = "unauthorized"
	CodeUnavailable  = "unavailable"
	CodeInternal     = "internal_error"
)

// ErrorResponse is the JSON body of every error.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ModelResponse describes one registered model.
type ModelResponse struct {
	Model  string   `json:"model"`
	Index  string   `json:"index"`
	Schema string   `json:"schema"`
	Fields []string `json:"fields"`
	Rank   string   `json:"rank,omitempty"`
}

// TaskResponse acknowledges a scheduled task.
type TaskResponse struct {
	Task   string `json:"task"`
	App    string `json:"app,omitempty"`
	Model  string `json:"model,omitempty"`
	Status string `json:"status"`
}

// IndexingState is the body of the indexing endpoints.
type IndexingState struct {
	Enabled *bool `json:"enabled"`
}

// Server handles admin requests.
type Server struct {
	tasks    TaskScheduler
	health   HealthChecker
	models   ModelRegistry
	indexing IndexingSwitch
	logger   *zap.Logger
}

// NewServer creates an admin server.
func NewServer(
	tasks TaskScheduler,
	health HealthChecker,
	models ModelRegistry,
	indexing IndexingSwitch,
	logger *zap.Logger,
) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		tasks:    tasks,
		health:   health,
		models:   models,
		indexing: indexing,
		logger:   logger,
	}
}

// Routes mounts the admin endpoints on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/version", s.Version)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/models", s.ListModels)
	r.Get("/indexing", s.GetIndexing)
	r.Put("/indexing", s.SetIndexing)
	r.Post("/tasks/purge", s.PurgeAll)
	r.Post("/tasks/remove-orphans", s.RemoveOrphans)
	r.Post("/tasks/reindex", s.Reindex)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())
	status := http.StatusOK
	if report.Status == health.Unhealthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}

// Version handles GET /version.
func (s *Server) Version(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, version.Get())
}

// ListModels handles GET /models.
func (s *Server) ListModels(w http.ResponseWriter, _ *http.Request) {
	models := s.models.Models()
	items := make([]ModelResponse, 0, len(models))
	for _, m := range models {
		e, ok := s.models.Get(m)
		if !ok {
			continue
		}
		fields := make([]string, 0, len(e.Schema.Fields()))
		for _, f := range e.Schema.Fields() {
			fields = append(fields, f.Name())
		}
		items = append(items, ModelResponse{
			Model:  m.String(),
			Index:  e.IndexName,
			Schema: e.Schema.Name(),
			Fields: fields,
			Rank:   e.Rank,
		})
	}
	writeJSON(w, http.StatusOK, items)
}

// GetIndexing handles GET /indexing.
func (s *Server) GetIndexing(w http.ResponseWriter, _ *http.Request) {
	enabled := s.indexing.Enabled()
	writeJSON(w, http.StatusOK, IndexingState{Enabled: &enabled})
}

// SetIndexing handles PUT /indexing.
func (s *Server) SetIndexing(w http.ResponseWriter, r *http.Request) {
	var req IndexingState
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Enabled == nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "enabled is required")
		return
	}
	if *req.Enabled {
		s.indexing.Enable()
	} else {
		s.indexing.Disable()
	}
	s.log(r).Info("Automatic indexing switched", zap.Bool("enabled", *req.Enabled))
	s.GetIndexing(w, r)
}

// PurgeAll handles POST /tasks/purge.
func (s *Server) PurgeAll(w http.ResponseWriter, r *http.Request) {
	if err := s.tasks.PurgeAll(r.Context()); err != nil {
		s.handleTaskError(w, r, "purge", err)
		return
	}
	writeJSON(w, http.StatusAccepted, TaskResponse{Task: "purge", Status: "scheduled"})
}

// RemoveOrphans handles POST /tasks/remove-orphans?app=&model=.
func (s *Server) RemoveOrphans(w http.ResponseWriter, r *http.Request) {
	app, model := r.URL.Query().Get("app"), r.URL.Query().Get("model")
	if err := s.tasks.RemoveOrphans(r.Context(), app, model); err != nil {
		s.handleTaskError(w, r, "remove_orphans", err)
		return
	}
	writeJSON(w, http.StatusAccepted, TaskResponse{Task: "remove_orphans", App: app, Model: model, Status: "scheduled"})
}

// Reindex handles POST /tasks/reindex?app=&model=.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	app, model := r.URL.Query().Get("app"), r.URL.Query().Get("model")
	if err := s.tasks.Reindex(r.Context(), app, model); err != nil {
		s.handleTaskError(w, r, "reindex", err)
		return
	}
	writeJSON(w, http.StatusAccepted, TaskResponse{Task: "reindex", App: app, Model: model, Status: "scheduled"})
}

func (s *Server) handleTaskError(w http.ResponseWriter, r *http.Request, task string, err error) {
	s.log(r).Error("Failed to schedule task",
		zap.String("task", task),
		zap.Error(err),
	)
	writeError(w, http.StatusServiceUnavailable, CodeUnavailable, "task queue unavailable")
}

// log returns the request logger set by the logging middleware, or the
// server logger.
func (s *Server) log(r *http.Request) *zap.Logger {
	if l := logger.FromContext(r.Context()); l.Core().Enabled(zap.ErrorLevel) {
		return l
	}
	return s.logger
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}
