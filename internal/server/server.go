// Package server exposes the search engine over HTTP: searches run as
// cancellable background jobs that clients start, poll and cancel.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"gonum.org/v1/gonum/mat"

	"github.com/copyleftdev/SWARMTUNE/internal/config"
	"github.com/copyleftdev/SWARMTUNE/internal/logging"
	"github.com/copyleftdev/SWARMTUNE/internal/metrics"
	"github.com/copyleftdev/SWARMTUNE/internal/ml"
	"github.com/copyleftdev/SWARMTUNE/internal/search"
	"github.com/copyleftdev/SWARMTUNE/internal/search/pso"
	"github.com/copyleftdev/SWARMTUNE/internal/search/space"
)

// Logger is the logging interface used by the server.
type Logger interface {
	Debug(msg string, fields ...map[string]interface{})
	Info(msg string, fields ...map[string]interface{})
	Warn(msg string, fields ...map[string]interface{})
	Error(msg string, fields ...map[string]interface{})
	WithFields(fields map[string]interface{}) *logging.Logger
}

// SearchState tracks one search job. Access is guarded by the server's
// job mutex.
type SearchState struct {
	ID          string
	Status      string // "pending", "running", "completed", "failed", "cancelled"
	StartTime   time.Time
	EndTime     *time.Time
	Result      *search.Result
	Err         string
	CancelFunc  context.CancelFunc
	LastUpdated time.Time
}

// Server manages search jobs behind the HTTP API.
type Server struct {
	cfg    *config.Config
	logger Logger

	jobsMu sync.RWMutex
	jobs   map[string]*SearchState
	nextID int
}

// NewServer creates a server with the given config and logger.
func NewServer(cfg *config.Config, logger Logger) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger,
		jobs:   make(map[string]*SearchState),
	}
}

// RegisterRoutes mounts the search API.
func (s *Server) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.handleSearch)
		r.Get("/status/{id}", s.handleStatus)
		r.Delete("/search/{id}", s.handleCancel)
	})
}

// dimensionSpec is the wire form of one search dimension.
type dimensionSpec struct {
	Name   string  `json:"name"`
	Type   string  `json:"type"` // "categorical", "integer", "real"
	Low    float64 `json:"low,omitempty"`
	High   float64 `json:"high,omitempty"`
	Scale  string  `json:"scale,omitempty"` // "linear" (default), "exponential"
	Values []any   `json:"values,omitempty"`
}

// searchRequest is the body of POST /api/v1/search.
type searchRequest struct {
	Mode        string          `json:"mode"` // "tune" (default) or "select"
	Estimator   string          `json:"estimator"`
	SearchSpace []dimensionSpec `json:"search_space,omitempty"`
	Data        struct {
		X [][]float64 `json:"x"`
		Y []float64   `json:"y"`
	} `json:"data"`
	NParticles int    `json:"n_particles,omitempty"`
	MaxIter    int    `json:"max_iter,omitempty"`
	CV         int    `json:"cv,omitempty"`
	Scoring    string `json:"scoring,omitempty"`
	Strategy   string `json:"strategy,omitempty"`
	Seed       int64  `json:"seed,omitempty"`
	NJobs      int    `json:"n_jobs,omitempty"`
	Patience   int    `json:"patience,omitempty"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}

	X, y, err := buildDataset(req.Data.X, req.Data.Y)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	driver, err := s.buildDriver(&req)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.jobsMu.Lock()
	s.nextID++
	id := fmt.Sprintf("search_%d_%d", time.Now().Unix(), s.nextID)
	state := &SearchState{
		ID:          id,
		Status:      "pending",
		StartTime:   time.Now(),
		CancelFunc:  cancel,
		LastUpdated: time.Now(),
	}
	s.jobs[id] = state
	s.jobsMu.Unlock()

	go s.runSearch(ctx, id, driver, X, y)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{
		"search_id": id,
		"status":    "pending",
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.jobsMu.RLock()
	state, ok := s.jobs[id]
	if !ok {
		s.jobsMu.RUnlock()
		s.respondError(w, http.StatusNotFound, "search not found")
		return
	}
	response := map[string]interface{}{
		"search_id":    state.ID,
		"status":       state.Status,
		"start_time":   state.StartTime,
		"last_updated": state.LastUpdated,
	}
	if state.EndTime != nil {
		response["end_time"] = *state.EndTime
	}
	if state.Err != "" {
		response["error"] = state.Err
	}
	if res := state.Result; res != nil {
		response["best_score"] = res.BestScore
		response["iterations"] = res.Iterations
		response["stopped_early"] = res.Stopped
		if res.BestParams != nil {
			response["best_params"] = res.BestParams
		}
		if res.BestFeatures != nil {
			response["best_features"] = res.BestFeatures
		}
		if res.BestProba != nil {
			response["best_proba"] = probaRows(res.BestProba)
		}
	}
	s.jobsMu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.jobsMu.Lock()
	state, ok := s.jobs[id]
	if !ok {
		s.jobsMu.Unlock()
		s.respondError(w, http.StatusNotFound, "search not found")
		return
	}
	switch state.Status {
	case "completed", "failed", "cancelled":
		status := state.Status
		s.jobsMu.Unlock()
		s.respondError(w, http.StatusConflict, fmt.Sprintf("cannot cancel search with status %q", status))
		return
	}
	if state.CancelFunc != nil {
		state.CancelFunc()
	}
	state.Status = "cancelled"
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
	s.jobsMu.Unlock()

	s.logger.Info("Search cancelled", map[string]interface{}{"search_id": id})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "cancellation requested"})
}

// runSearch executes one search job in the background.
func (s *Server) runSearch(ctx context.Context, id string, driver *pso.Driver, X *mat.Dense, y []float64) {
	s.jobsMu.Lock()
	s.jobs[id].Status = "running"
	s.jobs[id].LastUpdated = time.Now()
	s.jobsMu.Unlock()

	result, err := driver.Fit(ctx, X, y)

	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	state := s.jobs[id]
	if state.Status == "cancelled" {
		return
	}
	if err != nil {
		s.logger.Error("Search failed", map[string]interface{}{
			"search_id": id,
			"error":     err.Error(),
		})
		state.Status = "failed"
		state.Err = err.Error()
	} else {
		state.Status = "completed"
		state.Result = result
		metrics.BestScore.WithLabelValues(id).Set(result.BestScore)
	}
	now := time.Now()
	state.EndTime = &now
	state.LastUpdated = now
}

// buildDriver translates a request into a validated search driver,
// filling omitted knobs from the service defaults.
func (s *Server) buildDriver(req *searchRequest) (*pso.Driver, error) {
	factory, err := ml.FactoryFor(req.Estimator)
	if err != nil {
		return nil, err
	}

	cfg := pso.Config{
		Factory:    factory,
		NParticles: req.NParticles,
		MaxIter:    req.MaxIter,
		NJobs:      req.NJobs,
		Patience:   req.Patience,
		Strategy:   req.Strategy,
		Seed:       req.Seed,
		Folds:      req.CV,
		Scoring:    req.Scoring,
		Logger:     s.logger.WithFields(map[string]interface{}{"component": "driver"}),
	}
	if cfg.NParticles == 0 {
		cfg.NParticles = s.cfg.Search.Particles
	}
	if cfg.MaxIter == 0 {
		cfg.MaxIter = s.cfg.Search.Iterations
	}
	if cfg.NJobs == 0 {
		cfg.NJobs = s.cfg.Search.Workers
	}
	if cfg.Folds == 0 {
		cfg.Folds = s.cfg.Search.Folds
	}
	if cfg.Strategy == "" {
		cfg.Strategy = s.cfg.Search.Strategy
	}

	switch req.Mode {
	case "select":
		cfg.SelectFeatures = true
	case "", "tune":
		sp, err := buildSpace(req.SearchSpace)
		if err != nil {
			return nil, err
		}
		cfg.Space = sp
	default:
		return nil, fmt.Errorf("unknown mode %q (want tune or select)", req.Mode)
	}

	return pso.New(cfg)
}

func buildSpace(specs []dimensionSpec) (*space.Space, error) {
	dims := make([]space.Dimension, 0, len(specs))
	for _, d := range specs {
		scale := space.Scale(d.Scale)
		if d.Scale == "" {
			scale = space.Linear
		}
		switch d.Type {
		case "categorical":
			dims = append(dims, space.NewCategorical(d.Name, d.Values...))
		case "integer":
			dims = append(dims, space.NewInteger(d.Name, int(d.Low), int(d.High), scale))
		case "real":
			dims = append(dims, space.NewReal(d.Name, d.Low, d.High, scale))
		default:
			return nil, fmt.Errorf("dimension %q: unknown type %q", d.Name, d.Type)
		}
	}
	return space.New(dims...), nil
}

func buildDataset(x [][]float64, y []float64) (*mat.Dense, []float64, error) {
	if len(x) == 0 || len(x[0]) == 0 {
		return nil, nil, fmt.Errorf("data.x must not be empty")
	}
	if len(x) != len(y) {
		return nil, nil, fmt.Errorf("data.x has %d rows but data.y has %d entries", len(x), len(y))
	}
	cols := len(x[0])
	X := mat.NewDense(len(x), cols, nil)
	for i, row := range x {
		if len(row) != cols {
			return nil, nil, fmt.Errorf("data.x row %d has %d columns, want %d", i, len(row), cols)
		}
		X.SetRow(i, row)
	}
	return X, y, nil
}

func probaRows(proba *mat.Dense) [][]float64 {
	rows, cols := proba.Dims()
	out := make([][]float64, rows)
	for i := 0; i < rows; i++ {
		out[i] = make([]float64, cols)
		for j := 0; j < cols; j++ {
			out[i][j] = proba.At(i, j)
		}
	}
	return out
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.logger.Error("Request error", map[string]interface{}{
		"status":  status,
		"message": message,
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// Close cancels every running search.
func (s *Server) Close() error {
	s.jobsMu.Lock()
	defer s.jobsMu.Unlock()
	for _, job := range s.jobs {
		if job.CancelFunc != nil {
			job.CancelFunc()
		}
	}
	return nil
}
