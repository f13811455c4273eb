package models

import "fmt"

// SubmissionRequest is the body of POST /submit (spec.md §6).
type SubmissionRequest struct {
	Language      Language   `json:"language"`
	SourceCode    string     `json:"source_code"`
	TestCases     []TestCase `json:"test_cases"`
	CompilerFlags []string   `json:"compiler_flags,omitempty"`
	TimeLimitMs   uint32     `json:"time_limit_ms,omitempty"`
	MemoryLimitMB uint32     `json:"memory_limit_mb,omitempty"`
}

const (
	DefaultTimeLimitMs   uint32 = 2000
	DefaultMemoryLimitMB uint32 = 128
)

// ApplyDefaults fills in the optional fields spec.md §6 defaults.
func (r *SubmissionRequest) ApplyDefaults() {
	if r.TimeLimitMs == 0 {
		r.TimeLimitMs = DefaultTimeLimitMs
	}
	if r.MemoryLimitMB == 0 {
		r.MemoryLimitMB = DefaultMemoryLimitMB
	}
}

// Validate checks the structural requirements of a submission.
func (r *SubmissionRequest) Validate() error {
	if r.Language == "" {
		return fmt.Errorf("language is required")
	}
	if len(r.TestCases) == 0 {
		return fmt.Errorf("at least one test case is required")
	}
	for i, tc := range r.TestCases {
		if tc.ID == "" {
			return fmt.Errorf("test_cases[%d]: id is required", i)
		}
	}
	return nil
}

// SubmitResponse is returned by POST /submit.
type SubmitResponse struct {
	JobID   string `json:"job_id"`
	Message string `json:"message"`
}

// TestResultOutput is the client-facing shape of a TestCaseResult.
type TestResultOutput struct {
	TestID      string  `json:"test_id"`
	Status      Verdict `json:"status"`
	TimeMs      int64   `json:"time_ms"`
	MemoryBytes uint64  `json:"memory_bytes"`
	Stdout      string  `json:"stdout"`
	Stderr      string  `json:"stderr"`
}

// StatusResponse is returned by GET /status/{job_id}.
type StatusResponse struct {
	JobID          string             `json:"job_id"`
	State          Phase              `json:"state"`
	Results        []TestResultOutput `json:"results"`
	CompilerOutput string             `json:"compiler_output,omitempty"`
	Error          string             `json:"error,omitempty"`
}

// ErrorResponse is the generic JSON error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// WorkerInfo is one row of GET /workers, mirroring
// original_source/master/src/http.rs::list_workers exactly.
type WorkerInfo struct {
	ID             string   `json:"id"`
	CPUCores       uint32   `json:"cpu_cores"`
	TotalRAMMB     uint64   `json:"total_ram_mb"`
	CPULoadPercent float32  `json:"cpu_load_percent"`
	RAMUsageMB     uint64   `json:"ram_usage_mb"`
	ActiveTasks    uint32   `json:"active_tasks"`
	Tags           []string `json:"tags"`
}

// WorkersResponse is returned by GET /workers.
type WorkersResponse struct {
	Workers []WorkerInfo `json:"workers"`
}
