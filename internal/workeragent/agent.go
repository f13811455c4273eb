// Package workeragent is the worker side of the session stream
// (spec.md §4.1, §6), adapted from
// original_source/worker/src/main.rs and the (filtered-out) grpc.rs
// client loop it drove: register once, heartbeat on a ticker, and
// service compile/execute tasks pushed down by the master.
package workeragent

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/judgecluster/judgecluster/internal/logging"
	"github.com/judgecluster/judgecluster/internal/metrics"
	"github.com/judgecluster/judgecluster/internal/sandbox"
	"github.com/judgecluster/judgecluster/internal/wire"
)

// HeartbeatInterval matches spec.md §4.2's 2-5s cadence.
const HeartbeatInterval = 3 * time.Second

// Config configures one Agent instance.
type Config struct {
	WorkerID   string
	CPUCores   uint32
	TotalRAMMB uint64
	Tags       []string
}

// ApplyDefaults fills in a random WorkerID when unset, mirroring the
// original's uuid.new_v4 worker identity.
func (c *Config) ApplyDefaults() {
	if c.WorkerID == "" {
		c.WorkerID = uuid.New().String()
	}
}

// Agent drives one worker's session: it registers, heartbeats, and
// executes whatever CompileTask/ExecuteBatchTask the master sends,
// reporting results back over the same stream.
type Agent struct {
	cfg     Config
	runtime sandbox.Runtime

	mu          sync.Mutex
	activeTasks uint32
}

// New builds an Agent bound to a sandbox runtime.
func New(cfg Config, runtime sandbox.Runtime) *Agent {
	cfg.ApplyDefaults()
	return &Agent{cfg: cfg, runtime: runtime}
}

// Run opens a session on stream and blocks until ctx is cancelled or the
// stream breaks. stream is expected to already be connected (the caller
// owns dialing/redialing).
func (a *Agent) Run(ctx context.Context, stream wire.WorkerService_SessionClient) error {
	log := logging.WithComponent("workeragent").With().Str("worker_id", a.cfg.WorkerID).Logger()

	if err := stream.Send(&wire.WorkerMessage{Register: &wire.Register{
		WorkerID:   a.cfg.WorkerID,
		CPUCores:   a.cfg.CPUCores,
		TotalRAMMB: a.cfg.TotalRAMMB,
		Tags:       a.cfg.Tags,
	}}); err != nil {
		return err
	}
	log.Info().Msg("registered with master")

	recvErrCh := make(chan error, 1)
	go a.recvLoop(ctx, stream, recvErrCh)

	heartbeat := time.NewTicker(HeartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-recvErrCh:
			return err
		case <-heartbeat.C:
			hb := a.sampleHeartbeat()
			if err := stream.Send(&wire.WorkerMessage{Heartbeat: &hb}); err != nil {
				log.Warn().Err(err).Msg("failed to send heartbeat")
			}
		}
	}
}

// recvLoop pulls MasterCommands off the stream and services each on its
// own goroutine, so a slow compile/execute never blocks heartbeats or
// the next dispatched command.
func (a *Agent) recvLoop(ctx context.Context, stream wire.WorkerService_SessionClient, errCh chan<- error) {
	log := logging.WithComponent("workeragent").With().Str("worker_id", a.cfg.WorkerID).Logger()
	for {
		cmd, err := stream.Recv()
		if err != nil {
			errCh <- err
			return
		}

		switch {
		case cmd.Compile != nil:
			go a.handleCompile(ctx, stream, *cmd.Compile)
		case cmd.Execute != nil:
			go a.handleExecute(ctx, stream, *cmd.Execute)
		default:
			log.Warn().Msg("received empty master command")
		}
	}
}

func (a *Agent) handleCompile(ctx context.Context, stream wire.WorkerService_SessionClient, task wire.CompileTask) {
	log := logging.WithComponent("workeragent").With().Str("job_id", task.JobID).Logger()
	a.addTask(1)
	defer a.addTask(-1)

	timer := metrics.NewTimer()
	result, err := a.runtime.Compile(ctx, task)
	timer.ObserveDurationVec(metrics.TaskDuration, "compile")

	outcome := "success"
	if err != nil {
		log.Error().Err(err).Msg("compile task failed")
		result = &wire.CompileResult{JobID: task.JobID, Success: false, CompilerOutput: err.Error()}
		outcome = "error"
	} else if !result.Success {
		outcome = "failed"
	}
	metrics.TasksExecutedTotal.WithLabelValues("compile", outcome).Inc()

	if sendErr := stream.Send(&wire.WorkerMessage{CompileResult: result}); sendErr != nil {
		log.Warn().Err(sendErr).Msg("failed to send compile result")
	}
}

func (a *Agent) handleExecute(ctx context.Context, stream wire.WorkerService_SessionClient, task wire.ExecuteBatchTask) {
	log := logging.WithComponent("workeragent").With().Str("job_id", task.JobID).Str("batch_id", task.BatchID).Logger()
	a.addTask(1)
	defer a.addTask(-1)

	timer := metrics.NewTimer()
	result, err := a.runtime.ExecuteBatch(ctx, task)
	timer.ObserveDurationVec(metrics.TaskDuration, "execute")

	outcome := "success"
	if err != nil {
		log.Error().Err(err).Msg("execute batch task failed")
		result = &wire.BatchExecutionResult{
			JobID: task.JobID, BatchID: task.BatchID, WorkerID: a.cfg.WorkerID,
			SystemError: err.Error(),
		}
		outcome = "error"
	} else {
		result.WorkerID = a.cfg.WorkerID
	}
	metrics.TasksExecutedTotal.WithLabelValues("execute", outcome).Inc()

	if sendErr := stream.Send(&wire.WorkerMessage{BatchResult: result}); sendErr != nil {
		log.Warn().Err(sendErr).Msg("failed to send batch result")
	}
}

func (a *Agent) addTask(delta int32) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if delta < 0 {
		a.activeTasks -= uint32(-delta)
	} else {
		a.activeTasks += uint32(delta)
	}
}

// sampleHeartbeat reads live CPU/RAM usage via gopsutil. A sampling
// failure degrades to zeroed metrics rather than breaking the stream.
func (a *Agent) sampleHeartbeat() wire.Heartbeat {
	log := logging.WithComponent("workeragent")

	var cpuLoad float32
	if percentages, err := cpu.Percent(0, false); err != nil {
		log.Warn().Err(err).Msg("failed to sample cpu usage")
	} else if len(percentages) > 0 {
		cpuLoad = float32(percentages[0])
	}

	var ramMB uint64
	if vm, err := mem.VirtualMemory(); err != nil {
		log.Warn().Err(err).Msg("failed to sample memory usage")
	} else {
		ramMB = vm.Used / (1024 * 1024)
	}

	a.mu.Lock()
	active := a.activeTasks
	a.mu.Unlock()

	return wire.Heartbeat{
		WorkerID:       a.cfg.WorkerID,
		CPULoadPercent: cpuLoad,
		RAMUsageMB:     ramMB,
		ActiveTasks:    active,
	}
}
