// Package registry tracks connected workers: their live resource
// metrics and a bounded outbound command sink per worker (spec.md §4.2,
// "Worker Registry").
package registry

import (
	"errors"
	"sync"
	"time"

	"github.com/judgecluster/judgecluster/internal/metrics"
	"github.com/judgecluster/judgecluster/internal/wire"
)

// SinkDepth bounds how many unsent commands queue per worker before
// TrySend starts failing fast instead of blocking the dispatcher.
const SinkDepth = 32

// ErrSinkFull is returned by TrySend when a worker's command channel is
// saturated; the caller decides whether to reschedule or drop.
var ErrSinkFull = errors.New("registry: worker command sink is full")

// ErrNotFound is returned when an operation names a worker id that
// isn't registered.
var ErrNotFound = errors.New("registry: worker not found")

// Entry is one connected worker's registration and live state.
type Entry struct {
	ID          string
	CPUCores    uint32
	TotalRAMMB  uint64
	Tags        []string
	ConnectedAt time.Time

	mu             sync.RWMutex
	cpuLoadPercent float32
	ramUsageMB     uint64
	activeTasks    uint32
	sink           chan *wire.MasterCommand
}

// CanCompile reports whether this worker advertises the "can_compile"
// tag (spec.md §5, compile-worker selection).
func (e *Entry) CanCompile() bool {
	for _, t := range e.Tags {
		if t == "can_compile" {
			return true
		}
	}
	return false
}

// Snapshot is a point-in-time, allocation-cheap copy of an Entry's load,
// the shape internal/scheduler's pure functions operate on so the
// scheduler package never needs to import registry's mutex-guarded
// type.
type Snapshot struct {
	ID             string
	Tags           []string
	CPULoadPercent float32
	RAMUsageMB     uint64
	ActiveTasks    uint32
}

func (e *Entry) snapshot() Snapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return Snapshot{
		ID:             e.ID,
		Tags:           e.Tags,
		CPULoadPercent: e.cpuLoadPercent,
		RAMUsageMB:     e.ramUsageMB,
		ActiveTasks:    e.activeTasks,
	}
}

// Registry is a concurrency-safe map of worker id to Entry.
type Registry struct {
	mu      sync.RWMutex
	workers map[string]*Entry
}

// New builds an empty Registry.
func New() *Registry {
	return &Registry{workers: make(map[string]*Entry)}
}

// Register adds a worker and returns its Entry, whose command sink the
// caller's stream-send goroutine drains. Re-registering an id replaces
// the previous entry and closes nothing: the old stream, if still
// alive, is expected to be torn down by its own Session handler
// returning.
func (r *Registry) Register(reg wire.Register) *Entry {
	e := &Entry{
		ID:          reg.WorkerID,
		CPUCores:    reg.CPUCores,
		TotalRAMMB:  reg.TotalRAMMB,
		Tags:        reg.Tags,
		ConnectedAt: time.Now(),
		sink:        make(chan *wire.MasterCommand, SinkDepth),
	}

	r.mu.Lock()
	_, replaced := r.workers[e.ID]
	r.workers[e.ID] = e
	r.mu.Unlock()
	if !replaced {
		metrics.WorkersConnected.Inc()
	}

	return e
}

// Remove drops a worker, e.g. on stream disconnect.
func (r *Registry) Remove(workerID string) {
	r.mu.Lock()
	_, existed := r.workers[workerID]
	delete(r.workers, workerID)
	r.mu.Unlock()
	if existed {
		metrics.WorkersConnected.Dec()
	}
}

// Heartbeat updates a worker's live metrics. Returns ErrNotFound if the
// worker was already removed (a heartbeat racing a disconnect).
func (r *Registry) Heartbeat(hb wire.Heartbeat) error {
	e := r.get(hb.WorkerID)
	if e == nil {
		return ErrNotFound
	}
	e.mu.Lock()
	e.cpuLoadPercent = hb.CPULoadPercent
	e.ramUsageMB = hb.RAMUsageMB
	e.activeTasks = hb.ActiveTasks
	e.mu.Unlock()
	return nil
}

// Sink returns a worker's outbound command channel, or nil if unknown.
func (r *Registry) Sink(workerID string) chan *wire.MasterCommand {
	e := r.get(workerID)
	if e == nil {
		return nil
	}
	return e.sink
}

// TrySend enqueues a command for a worker without blocking. It fails
// fast with ErrSinkFull rather than stall the scheduler behind one slow
// worker (spec.md §4.2's bounded-channel requirement).
func (r *Registry) TrySend(workerID string, cmd *wire.MasterCommand) error {
	sink := r.Sink(workerID)
	if sink == nil {
		return ErrNotFound
	}
	select {
	case sink <- cmd:
		return nil
	default:
		return ErrSinkFull
	}
}

// Snapshot returns a load snapshot of every registered worker.
func (r *Registry) Snapshot() []Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Snapshot, 0, len(r.workers))
	for _, e := range r.workers {
		out = append(out, e.snapshot())
	}
	return out
}

// Get returns a worker's Entry, or nil if unknown.
func (r *Registry) Get(workerID string) *Entry {
	return r.get(workerID)
}

func (r *Registry) get(workerID string) *Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.workers[workerID]
}

// Len reports how many workers are currently registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}
