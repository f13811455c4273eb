// Package wire defines the master<->worker protocol messages (spec.md §6)
// and the gRPC bidirectional streaming transport that carries them.
package wire

import "github.com/judgecluster/judgecluster/pkg/models"

// Register is the first message a worker sends after connecting.
type Register struct {
	WorkerID   string   `json:"worker_id"`
	CPUCores   uint32   `json:"cpu_cores"`
	TotalRAMMB uint64   `json:"total_ram_mb"`
	Tags       []string `json:"tags"`
}

// Heartbeat carries live resource metrics, sent every 2-5s.
type Heartbeat struct {
	WorkerID       string  `json:"worker_id"`
	CPULoadPercent float32 `json:"cpu_load_percent"`
	RAMUsageMB     uint64  `json:"ram_usage_mb"`
	ActiveTasks    uint32  `json:"active_tasks"`
}

// CompileResult reports the outcome of a CompileTask.
type CompileResult struct {
	JobID          string `json:"job_id"`
	Success        bool   `json:"success"`
	CompilerOutput string `json:"compiler_output"`
	BinaryPayload  []byte `json:"binary_payload,omitempty"`
	DurationMs     int64  `json:"duration_ms"`
}

// ResourceMetrics accompanies a BatchExecutionResult.
type ResourceMetrics struct {
	PeakRAMBytes   uint64 `json:"peak_ram_bytes"`
	TotalCPUTimeMs int64  `json:"total_cpu_time_ms"`
}

// BatchExecutionResult reports the outcome of an ExecuteBatchTask.
type BatchExecutionResult struct {
	JobID       string                  `json:"job_id"`
	BatchID     string                  `json:"batch_id"`
	WorkerID    string                  `json:"worker_id"`
	Results     []models.TestCaseResult `json:"results"`
	Metrics     ResourceMetrics         `json:"metrics"`
	SystemError string                  `json:"system_error,omitempty"`
}

// WorkerMessage is the worker->master envelope. Exactly one field is set;
// this is Go's substitute for the original protobuf oneof.
type WorkerMessage struct {
	Register      *Register             `json:"register,omitempty"`
	Heartbeat     *Heartbeat            `json:"heartbeat,omitempty"`
	CompileResult *CompileResult        `json:"compile_result,omitempty"`
	BatchResult   *BatchExecutionResult `json:"batch_result,omitempty"`
}

// CompileTask asks a worker to compile source code for a job.
type CompileTask struct {
	JobID      string   `json:"job_id"`
	Language   string   `json:"language"`
	SourceCode string   `json:"source_code"`
	Flags      []string `json:"flags,omitempty"`
}

// ExecuteBatchTask asks a worker to run a batch of test cases. Exactly one
// of SourceCode or BinaryArtifact is set, depending on language class.
type ExecuteBatchTask struct {
	JobID          string            `json:"job_id"`
	BatchID        string            `json:"batch_id"`
	Language       string            `json:"language"`
	SourceCode     string            `json:"source_code,omitempty"`
	BinaryArtifact []byte            `json:"binary_artifact,omitempty"`
	Inputs         []models.TestCase `json:"inputs"`
	TimeLimitMs    uint32            `json:"time_limit_ms"`
	MemoryLimitMB  uint32            `json:"memory_limit_mb"`
}

// MasterCommand is the master->worker envelope.
type MasterCommand struct {
	Compile *CompileTask      `json:"compile,omitempty"`
	Execute *ExecuteBatchTask `json:"execute,omitempty"`
}
