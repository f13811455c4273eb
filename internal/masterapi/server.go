// Package masterapi is the master's HTTP surface (spec.md §6):
// POST /submit, GET /status/{job_id}, GET /health, GET /workers.
package masterapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/judgecluster/judgecluster/internal/jobcontroller"
	"github.com/judgecluster/judgecluster/internal/jobstore"
	"github.com/judgecluster/judgecluster/internal/logging"
	"github.com/judgecluster/judgecluster/internal/metrics"
	"github.com/judgecluster/judgecluster/internal/registry"
	"github.com/judgecluster/judgecluster/pkg/models"
)

// Server holds the dependencies every handler needs.
type Server struct {
	jobs     *jobcontroller.Controller
	registry *registry.Registry
	cache    jobstore.Store
}

// New builds a Server.
func New(jobs *jobcontroller.Controller, reg *registry.Registry, cache jobstore.Store) *Server {
	return &Server{jobs: jobs, registry: reg, cache: cache}
}

// NewEchoServer wires routes and middleware, adapted from the teacher's
// internal/api/server.go::NewEchoServer.
func NewEchoServer(s *Server, withRateLimit bool) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomw.Recover())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Content-Type"},
	}))
	e.Use(metricsMiddleware)

	e.GET("/health", s.HandleHealth)
	e.GET("/workers", s.HandleWorkers)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	submitGroup := e.Group("")
	if withRateLimit {
		limiter := NewRateLimiter(10, time.Minute)
		submitGroup.Use(RateLimitMiddleware(limiter))
	}
	submitGroup.POST("/submit", s.HandleSubmit)
	e.GET("/status/:job_id", s.HandleStatus)

	return e
}

// HandleSubmit accepts a new submission and hands it to the controller,
// which stores a compiled language Compiling and dispatches its compile
// task, or stores an interpreted language Executing and dispatches its
// test batches straight to execution workers.
func (s *Server) HandleSubmit(c echo.Context) error {
	var req models.SubmissionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid_request", Message: err.Error()})
	}
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "invalid_request", Message: err.Error()})
	}

	job := &models.Job{
		ID:            uuid.New().String(),
		Language:      req.Language.Normalize(),
		SourceCode:    req.SourceCode,
		TestCases:     req.TestCases,
		CompilerFlags: req.CompilerFlags,
		TimeLimitMs:   req.TimeLimitMs,
		MemoryLimitMB: req.MemoryLimitMB,
	}

	if err := s.jobs.Submit(job); err != nil {
		logging.WithComponent("masterapi").Warn().Err(err).Str("job_id", job.ID).Msg("submit failed")
		return c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
			Error: "no_compile_worker", Message: err.Error(),
		})
	}
	metrics.JobsSubmittedTotal.Inc()

	return c.JSON(http.StatusAccepted, models.SubmitResponse{
		JobID:   job.ID,
		Message: "accepted",
	})
}

// HandleStatus returns a job's current phase and any results collected
// so far, checking the read-through cache before the controller.
func (s *Server) HandleStatus(c echo.Context) error {
	jobID := c.Param("job_id")
	if jobID == "" {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "missing_job_id"})
	}

	if cached, ok := s.cache.Get(jobID); ok {
		return c.JSON(http.StatusOK, toStatusResponse(cached))
	}

	job, err := s.jobs.Get(jobID)
	if err != nil {
		return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: "not_found", Message: "job not found"})
	}

	if job.Phase == models.PhaseCompleted {
		if err := s.cache.Put(job); err != nil {
			logging.WithComponent("masterapi").Warn().Err(err).Str("job_id", jobID).Msg("failed to cache completed job")
		}
	}

	return c.JSON(http.StatusOK, toStatusResponse(job))
}

func toStatusResponse(job *models.Job) models.StatusResponse {
	results := make([]models.TestResultOutput, 0, len(job.Results))
	for _, r := range job.Results {
		results = append(results, models.TestResultOutput{
			TestID:      r.TestID,
			Status:      r.Verdict,
			TimeMs:      r.ElapsedMs,
			MemoryBytes: r.MemoryBytes,
			Stdout:      r.Stdout,
			Stderr:      r.Stderr,
		})
	}
	return models.StatusResponse{
		JobID:          job.ID,
		State:          job.Phase,
		Results:        results,
		CompilerOutput: job.CompilerOutput,
		Error:          job.SystemError,
	}
}

// HandleHealth is a liveness probe.
func (s *Server) HandleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// HandleWorkers returns live per-worker load, matching
// original_source/master/src/http.rs::list_workers exactly.
func (s *Server) HandleWorkers(c echo.Context) error {
	snapshots := s.registry.Snapshot()
	workers := make([]models.WorkerInfo, 0, len(snapshots))
	for _, snap := range snapshots {
		entry := s.registry.Get(snap.ID)
		if entry == nil {
			continue
		}
		workers = append(workers, models.WorkerInfo{
			ID:             entry.ID,
			CPUCores:       entry.CPUCores,
			TotalRAMMB:     entry.TotalRAMMB,
			CPULoadPercent: snap.CPULoadPercent,
			RAMUsageMB:     snap.RAMUsageMB,
			ActiveTasks:    snap.ActiveTasks,
			Tags:           entry.Tags,
		})
	}
	return c.JSON(http.StatusOK, models.WorkersResponse{Workers: workers})
}
