// Package jobcontroller owns the Job lifecycle state machine
// (spec.md §3-§5): Compiling -> Executing{pending_batches} -> Completed,
// with every job mutated under its own lock.
package jobcontroller

import (
	"container/list"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/judgecluster/judgecluster/internal/logging"
	"github.com/judgecluster/judgecluster/internal/metrics"
	"github.com/judgecluster/judgecluster/internal/registry"
	"github.com/judgecluster/judgecluster/internal/scheduler"
	"github.com/judgecluster/judgecluster/internal/wire"
	"github.com/judgecluster/judgecluster/pkg/models"
)

// DefaultRetentionCap bounds how many completed jobs the controller keeps
// in memory at once. Once exceeded, the oldest-completed job is evicted
// LRU-style; jobs still Compiling/Executing are never evicted.
const DefaultRetentionCap = 10000

// ErrUnknownJob is returned when an operation names a job id that isn't
// tracked (never submitted, or already evicted by retention).
var ErrUnknownJob = errors.New("jobcontroller: unknown job")

// ErrNoCompileWorker is returned by Submit when no worker currently
// qualifies to compile (spec.md §4.3's compile-worker selection).
var ErrNoCompileWorker = errors.New("jobcontroller: no compile-capable worker available")

type jobEntry struct {
	mu  sync.Mutex
	job *models.Job
}

// Controller is the single owner of every job's state transitions.
type Controller struct {
	registry     *registry.Registry
	retentionCap int

	mu   sync.RWMutex
	jobs map[string]*jobEntry

	// completed tracks completed job ids in completion order (oldest
	// front, most-recently-completed back) for retention eviction.
	completed   *list.List
	completedEl map[string]*list.Element
}

// New builds a Controller bound to a worker registry, retaining up to
// DefaultRetentionCap completed jobs.
func New(reg *registry.Registry) *Controller {
	return NewWithRetention(reg, DefaultRetentionCap)
}

// NewWithRetention builds a Controller with an explicit completed-job
// retention cap. A cap <= 0 disables eviction.
func NewWithRetention(reg *registry.Registry, retentionCap int) *Controller {
	return &Controller{
		registry:     reg,
		retentionCap: retentionCap,
		jobs:         make(map[string]*jobEntry),
		completed:    list.New(),
		completedEl:  make(map[string]*list.Element),
	}
}

// Submit registers a new job and dispatches its first task. Compiled
// languages are stored Compiling and sent a CompileTask to a
// can_compile-tagged worker (spec.md §4.5). Interpreted languages
// (python/javascript/ruby) skip compilation entirely per spec.md §3:
// they are stored Executing with their test cases already batched and
// dispatched straight to execution workers, same as the post-compile
// dispatch path in HandleCompileResult. The job is stored regardless of
// dispatch outcome; spec.md §9 leaves "stuck job between selection and
// send" as an open question — see DESIGN.md for the recorded decision.
func (c *Controller) Submit(job *models.Job) error {
	job.CreatedAt = time.Now()
	log := logging.WithComponent("jobcontroller").With().Str("job_id", job.ID).Logger()

	if job.Language.Interpreted() {
		return c.submitInterpreted(job, log)
	}
	return c.submitCompiled(job, log)
}

func (c *Controller) submitCompiled(job *models.Job, log zerolog.Logger) error {
	job.Phase = models.PhaseCompiling
	c.store(job)
	metrics.JobsInFlight.WithLabelValues(string(models.PhaseCompiling)).Inc()

	timer := metrics.NewTimer()
	workerID, ok := scheduler.SelectCompileWorker(c.registry.Snapshot())
	timer.ObserveDuration(metrics.SchedulingLatency)
	if !ok {
		log.Warn().Msg("no compile worker available at submit time")
		return ErrNoCompileWorker
	}

	cmd := &wire.MasterCommand{
		Compile: &wire.CompileTask{
			JobID:      job.ID,
			Language:   string(job.Language),
			SourceCode: job.SourceCode,
			Flags:      job.CompilerFlags,
		},
	}
	if err := c.registry.TrySend(workerID, cmd); err != nil {
		log.Warn().Err(err).Str("worker_id", workerID).Msg("failed to dispatch compile task")
		return err
	}

	log.Info().Str("worker_id", workerID).Msg("dispatched compile task")
	return nil
}

// submitInterpreted stores a job Executing and dispatches its batched
// test cases straight to execution workers, with no can_compile
// requirement, since the language needs no compile step.
func (c *Controller) submitInterpreted(job *models.Job, log zerolog.Logger) error {
	job.Phase = models.PhaseExecuting
	c.store(job)
	entry := c.entry(job.ID)
	entry.mu.Lock()
	defer entry.mu.Unlock()
	metrics.JobsInFlight.WithLabelValues(string(models.PhaseExecuting)).Inc()

	batches := scheduler.CreateBatches(job.TestCases)
	if len(batches) == 0 {
		c.completeLocked(job)
		return nil
	}

	c.dispatchExecuteBatches(job, batches, log)
	if job.PendingBatches == 0 {
		c.completeLocked(job)
	}
	return nil
}

func (c *Controller) store(job *models.Job) {
	entry := &jobEntry{job: job}
	c.mu.Lock()
	c.jobs[job.ID] = entry
	c.mu.Unlock()
}

// Get returns a copy of a job's current state for status reporting.
func (c *Controller) Get(jobID string) (*models.Job, error) {
	entry := c.entry(jobID)
	if entry == nil {
		return nil, ErrUnknownJob
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	clone := *entry.job
	clone.Results = append([]models.TestCaseResult(nil), entry.job.Results...)
	return &clone, nil
}

// HandleCompileResult advances a job from Compiling to Executing (or
// straight to Completed on compile failure). Results for jobs not
// currently in Compiling phase are discarded: either the job doesn't
// exist (evicted/unknown) or a late/duplicate result arrived after the
// phase already moved on.
func (c *Controller) HandleCompileResult(res wire.CompileResult) {
	entry := c.entry(res.JobID)
	log := logging.WithComponent("jobcontroller").With().Str("job_id", res.JobID).Logger()
	if entry == nil {
		log.Warn().Msg("compile result for unknown job, discarding")
		return
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	job := entry.job

	if job.Phase != models.PhaseCompiling {
		log.Warn().Str("phase", string(job.Phase)).Msg("compile result received outside compiling phase, discarding")
		return
	}

	job.CompilerOutput = res.CompilerOutput

	if !res.Success {
		c.completeLocked(job)
		return
	}

	job.Artifact = res.BinaryPayload
	batches := scheduler.CreateBatches(job.TestCases)
	if len(batches) == 0 {
		c.completeLocked(job)
		return
	}

	metrics.JobsInFlight.WithLabelValues(string(models.PhaseCompiling)).Dec()
	job.Phase = models.PhaseExecuting
	metrics.JobsInFlight.WithLabelValues(string(models.PhaseExecuting)).Inc()

	c.dispatchExecuteBatches(job, batches, log)
	if job.PendingBatches == 0 {
		c.completeLocked(job)
	}
}

// dispatchExecuteBatches selects execution workers for each batch and
// sends one ExecuteBatchTask per batch, counting job.PendingBatches up
// for every batch a worker's sink actually accepted. Shared by the
// post-compile dispatch path and the interpreted-language submit path,
// since both hand a job's test cases to execution workers the same way.
func (c *Controller) dispatchExecuteBatches(job *models.Job, batches [][]models.TestCase, log zerolog.Logger) {
	workers := scheduler.SelectExecutionWorkers(c.registry.Snapshot(), len(batches))
	job.PendingBatches = 0

	for i, batch := range batches {
		if i >= len(workers) {
			log.Warn().Int("batch", i).Msg("no execution worker available for batch, it will never complete")
			continue
		}
		cmd := &wire.MasterCommand{
			Execute: &wire.ExecuteBatchTask{
				JobID:          job.ID,
				BatchID:        batchID(job.ID, i),
				Language:       string(job.Language),
				SourceCode:     interpretedSourceOrEmpty(job),
				BinaryArtifact: job.Artifact,
				Inputs:         batch,
				TimeLimitMs:    job.TimeLimitMs,
				MemoryLimitMB:  job.MemoryLimitMB,
			},
		}
		if err := c.registry.TrySend(workers[i], cmd); err != nil {
			log.Warn().Err(err).Str("worker_id", workers[i]).Int("batch", i).Msg("failed to dispatch execute batch")
			continue
		}
		job.PendingBatches++
	}
}

// HandleBatchResult appends a batch's results and, once every pending
// batch has reported, completes the job.
func (c *Controller) HandleBatchResult(res wire.BatchExecutionResult) {
	entry := c.entry(res.JobID)
	log := logging.WithComponent("jobcontroller").With().Str("job_id", res.JobID).Logger()
	if entry == nil {
		log.Warn().Msg("batch result for unknown job, discarding")
		return
	}

	entry.mu.Lock()
	defer entry.mu.Unlock()
	job := entry.job

	if job.Phase != models.PhaseExecuting {
		log.Warn().Str("phase", string(job.Phase)).Msg("batch result received outside executing phase, discarding")
		return
	}

	if res.SystemError != "" {
		job.SystemError = res.SystemError
	}
	job.Results = append(job.Results, res.Results...)
	job.PendingBatches--

	if job.PendingBatches <= 0 {
		c.completeLocked(job)
	}
}

func (c *Controller) completeLocked(job *models.Job) {
	metrics.JobsInFlight.WithLabelValues(string(job.Phase)).Dec()
	job.Phase = models.PhaseCompleted
	now := time.Now()
	job.CompletedAt = &now

	outcome := "completed"
	if job.SystemError != "" {
		outcome = "system_error"
	}
	metrics.JobsCompletedTotal.WithLabelValues(outcome).Inc()

	c.trackCompletion(job.ID)
}

// trackCompletion records a job's completion for LRU retention and evicts
// the oldest completed job once the retention cap is exceeded. Jobs still
// Compiling/Executing are never tracked here and so are never evicted.
func (c *Controller) trackCompletion(jobID string) {
	if c.retentionCap <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.completedEl[jobID] = c.completed.PushBack(jobID)

	for c.completed.Len() > c.retentionCap {
		oldest := c.completed.Front()
		if oldest == nil {
			break
		}
		c.completed.Remove(oldest)
		evictedID := oldest.Value.(string)
		delete(c.completedEl, evictedID)
		delete(c.jobs, evictedID)
	}
}

func (c *Controller) entry(jobID string) *jobEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.jobs[jobID]
}

func batchID(jobID string, index int) string {
	return jobID + "-batch-" + strconv.Itoa(index)
}

// interpretedSourceOrEmpty only ships source code to the worker when
// the language doesn't compile to a binary artifact: native and
// jvm-bundled languages already carry their payload in job.Artifact.
func interpretedSourceOrEmpty(job *models.Job) string {
	if job.Language.Interpreted() {
		return job.SourceCode
	}
	return ""
}
