// Package grpcserver implements the master side of the worker session
// stream (spec.md §4, §6), adapted from
// original_source/master/src/grpc.rs::WorkerServiceImpl.
package grpcserver

import (
	"errors"
	"io"
	"time"

	"github.com/judgecluster/judgecluster/internal/jobcontroller"
	"github.com/judgecluster/judgecluster/internal/logging"
	"github.com/judgecluster/judgecluster/internal/registry"
	"github.com/judgecluster/judgecluster/internal/wire"
)

// Server implements wire.WorkerServiceServer, fanning out each worker's
// inbound messages to the registry and job controller.
type Server struct {
	registry *registry.Registry
	jobs     *jobcontroller.Controller
}

// New builds a Server.
func New(reg *registry.Registry, jobs *jobcontroller.Controller) *Server {
	return &Server{registry: reg, jobs: jobs}
}

var _ wire.WorkerServiceServer = (*Server)(nil)

// Session handles one worker's long-lived stream: the first message must
// be a Register, after which Heartbeat/CompileResult/BatchResult arrive
// interleaved in any order until the worker disconnects.
func (s *Server) Session(stream wire.WorkerService_SessionServer) error {
	log := logging.WithComponent("grpcserver")
	var workerID string

	defer func() {
		if workerID != "" {
			log.Info().Str("worker_id", workerID).Msg("worker disconnected")
			s.registry.Remove(workerID)
		}
	}()

	for {
		msg, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		switch {
		case msg.Register != nil:
			workerID = msg.Register.WorkerID
			s.registry.Register(*msg.Register)
			log.Info().
				Str("worker_id", workerID).
				Uint32("cpu_cores", msg.Register.CPUCores).
				Uint64("ram_mb", msg.Register.TotalRAMMB).
				Strs("tags", msg.Register.Tags).
				Msg("worker registered")
			go s.pump(stream, workerID)

		case msg.Heartbeat != nil:
			if err := s.registry.Heartbeat(*msg.Heartbeat); err != nil {
				log.Warn().Str("worker_id", msg.Heartbeat.WorkerID).Msg("heartbeat for unknown worker")
			}

		case msg.CompileResult != nil:
			log.Info().
				Str("job_id", msg.CompileResult.JobID).
				Bool("success", msg.CompileResult.Success).
				Msg("compile result received")
			s.jobs.HandleCompileResult(*msg.CompileResult)

		case msg.BatchResult != nil:
			log.Info().
				Str("job_id", msg.BatchResult.JobID).
				Str("batch_id", msg.BatchResult.BatchID).
				Int("num_results", len(msg.BatchResult.Results)).
				Msg("batch result received")
			s.jobs.HandleBatchResult(*msg.BatchResult)
		}
	}
}

// pump drains a worker's registry sink onto its stream until the sink's
// owning Entry is removed or the send fails. Starting this only after
// Register mirrors the original's per-connection mpsc channel, which is
// only created once the worker is known. It polls liveness on a ticker
// rather than blocking forever on the sink, since Remove doesn't close
// the channel (a closed sink racing a concurrent TrySend would panic).
func (s *Server) pump(stream wire.WorkerService_SessionServer, workerID string) {
	log := logging.WithComponent("grpcserver")
	sink := s.registry.Sink(workerID)
	if sink == nil {
		return
	}

	liveness := time.NewTicker(2 * time.Second)
	defer liveness.Stop()

	for {
		select {
		case cmd := <-sink:
			if err := stream.Send(cmd); err != nil {
				log.Warn().Err(err).Str("worker_id", workerID).Msg("failed to send command to worker")
				return
			}
		case <-liveness.C:
			if s.registry.Get(workerID) == nil {
				return
			}
		}
	}
}
