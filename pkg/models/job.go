package models

import "time"

// TestCase is one (id, input, expected_output) triple supplied by the
// submitter (spec.md §3).
type TestCase struct {
	ID             string `json:"id"`
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

// TestCaseResult is the per-test outcome produced by the Sandbox Runner.
type TestCaseResult struct {
	TestID      string  `json:"test_id"`
	Verdict     Verdict `json:"verdict"`
	Stdout      string  `json:"stdout"`
	Stderr      string  `json:"stderr"`
	ElapsedMs   int64   `json:"elapsed_ms"`
	MemoryBytes uint64  `json:"memory_bytes"`
}

// Job is the master's record of one submission, from submit through
// Completed (spec.md §3). Mutation is owned exclusively by the Job
// Controller; see internal/jobcontroller for the lock discipline.
type Job struct {
	ID             string           `json:"id"`
	Language       Language         `json:"language"`
	SourceCode     string           `json:"-"`
	TestCases      []TestCase       `json:"-"`
	CompilerFlags  []string         `json:"-"`
	TimeLimitMs    uint32           `json:"-"`
	MemoryLimitMB  uint32           `json:"-"`
	Artifact       []byte           `json:"-"`
	Results        []TestCaseResult `json:"results"`
	Phase          Phase            `json:"state"`
	PendingBatches int              `json:"-"`
	CompilerOutput string           `json:"compiler_output,omitempty"`
	SystemError    string           `json:"error,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}

// TotalTestCases returns how many test cases this job was submitted with.
func (j *Job) TotalTestCases() int {
	return len(j.TestCases)
}
