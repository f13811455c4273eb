package jobcontroller

import (
	"testing"

	"github.com/judgecluster/judgecluster/internal/registry"
	"github.com/judgecluster/judgecluster/internal/wire"
	"github.com/judgecluster/judgecluster/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newControllerWithWorkers(t *testing.T, ids ...string) (*Controller, *registry.Registry) {
	t.Helper()
	reg := registry.New()
	for _, id := range ids {
		reg.Register(wire.Register{WorkerID: id, Tags: []string{"can_compile"}})
	}
	return New(reg), reg
}

func TestSubmitDispatchesCompileTask(t *testing.T) {
	ctrl, reg := newControllerWithWorkers(t, "w1")

	job := &models.Job{ID: "job-1", Language: models.LanguageCpp, SourceCode: "int main(){}"}
	require.NoError(t, ctrl.Submit(job))

	got, err := ctrl.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseCompiling, got.Phase)

	cmd := <-reg.Sink("w1")
	require.NotNil(t, cmd.Compile)
	assert.Equal(t, "job-1", cmd.Compile.JobID)
}

func TestSubmitNoCompileWorker(t *testing.T) {
	ctrl, _ := newControllerWithWorkers(t)
	err := ctrl.Submit(&models.Job{ID: "job-1"})
	assert.ErrorIs(t, err, ErrNoCompileWorker)
}

func TestGetUnknownJob(t *testing.T) {
	ctrl, _ := newControllerWithWorkers(t)
	_, err := ctrl.Get("ghost")
	assert.ErrorIs(t, err, ErrUnknownJob)
}

func TestCompileFailureCompletesJobDirectly(t *testing.T) {
	ctrl, _ := newControllerWithWorkers(t, "w1")
	job := &models.Job{ID: "job-1", Language: models.LanguageCpp}
	require.NoError(t, ctrl.Submit(job))

	ctrl.HandleCompileResult(wire.CompileResult{JobID: "job-1", Success: false, CompilerOutput: "syntax error"})

	got, err := ctrl.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseCompleted, got.Phase)
	assert.Equal(t, "syntax error", got.CompilerOutput)
	assert.NotNil(t, got.CompletedAt)
}

func TestCompileSuccessDispatchesExecuteBatches(t *testing.T) {
	ctrl, reg := newControllerWithWorkers(t, "w1")
	reg.Register(wire.Register{WorkerID: "w2"})

	cases := make([]models.TestCase, 25) // spans 2 batches (BatchSize=20)
	for i := range cases {
		cases[i] = models.TestCase{ID: "tc"}
	}
	job := &models.Job{ID: "job-1", Language: models.LanguageCpp, TestCases: cases}
	require.NoError(t, ctrl.Submit(job))
	<-reg.Sink("w1") // drain the compile task

	ctrl.HandleCompileResult(wire.CompileResult{JobID: "job-1", Success: true, BinaryPayload: []byte("bin")})

	got, err := ctrl.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseExecuting, got.Phase)
	assert.Equal(t, 2, got.PendingBatches)
}

func TestCompileResultDiscardedOutsideCompilingPhase(t *testing.T) {
	ctrl, _ := newControllerWithWorkers(t, "w1")
	job := &models.Job{ID: "job-1", Language: models.LanguageCpp}
	require.NoError(t, ctrl.Submit(job))

	ctrl.HandleCompileResult(wire.CompileResult{JobID: "job-1", Success: false})
	before, _ := ctrl.Get("job-1")
	assert.Equal(t, models.PhaseCompleted, before.Phase)

	// A duplicate/late result must not resurrect or re-mutate the job.
	ctrl.HandleCompileResult(wire.CompileResult{JobID: "job-1", Success: true, CompilerOutput: "late"})
	after, _ := ctrl.Get("job-1")
	assert.Equal(t, models.PhaseCompleted, after.Phase)
	assert.NotEqual(t, "late", after.CompilerOutput)
}

func TestBatchResultCompletesJobWhenAllBatchesIn(t *testing.T) {
	ctrl, reg := newControllerWithWorkers(t, "w1")
	reg.Register(wire.Register{WorkerID: "w2"})

	cases := make([]models.TestCase, 25)
	job := &models.Job{ID: "job-1", Language: models.LanguageCpp, TestCases: cases}
	require.NoError(t, ctrl.Submit(job))
	<-reg.Sink("w1")
	ctrl.HandleCompileResult(wire.CompileResult{JobID: "job-1", Success: true})

	ctrl.HandleBatchResult(wire.BatchExecutionResult{JobID: "job-1", Results: []models.TestCaseResult{{TestID: "a", Verdict: models.VerdictPassed}}})
	mid, _ := ctrl.Get("job-1")
	assert.Equal(t, models.PhaseExecuting, mid.Phase)
	assert.Len(t, mid.Results, 1)

	ctrl.HandleBatchResult(wire.BatchExecutionResult{JobID: "job-1", Results: []models.TestCaseResult{{TestID: "b", Verdict: models.VerdictFailed}}})
	done, _ := ctrl.Get("job-1")
	assert.Equal(t, models.PhaseCompleted, done.Phase)
	assert.Len(t, done.Results, 2)
}

func TestBatchResultDiscardedForUnknownJob(t *testing.T) {
	ctrl, _ := newControllerWithWorkers(t)
	// Must not panic.
	ctrl.HandleBatchResult(wire.BatchExecutionResult{JobID: "ghost"})
}

func TestSubmitInterpretedSkipsCompilationAndDispatchesExecuteBatch(t *testing.T) {
	// No worker here carries the can_compile tag: a python submission
	// must still succeed by going straight to Executing.
	reg := registry.New()
	reg.Register(wire.Register{WorkerID: "w1"})

	ctrl := New(reg)
	job := &models.Job{
		ID:         "job-1",
		Language:   models.LanguagePython,
		SourceCode: "print('hi')",
		TestCases:  []models.TestCase{{ID: "a"}, {ID: "b"}},
	}
	require.NoError(t, ctrl.Submit(job))

	got, err := ctrl.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseExecuting, got.Phase)
	assert.Equal(t, 1, got.PendingBatches)

	cmd := <-reg.Sink("w1")
	require.NotNil(t, cmd.Execute)
	assert.Equal(t, "job-1", cmd.Execute.JobID)
	assert.Equal(t, "print('hi')", cmd.Execute.SourceCode)
	assert.Nil(t, cmd.Execute.BinaryArtifact)
	assert.Len(t, cmd.Execute.Inputs, 2)
}

func TestSubmitInterpretedCompletesWhenNoExecutionWorkerAvailable(t *testing.T) {
	ctrl := New(registry.New())
	job := &models.Job{
		ID:        "job-1",
		Language:  models.LanguageJavaScript,
		TestCases: []models.TestCase{{ID: "a"}},
	}
	require.NoError(t, ctrl.Submit(job))

	got, err := ctrl.Get("job-1")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseCompleted, got.Phase)
}

func TestRetentionEvictsOldestCompletedJob(t *testing.T) {
	reg := registry.New()
	reg.Register(wire.Register{WorkerID: "w1", Tags: []string{"can_compile"}})
	ctrl := NewWithRetention(reg, 2)

	for _, id := range []string{"job-1", "job-2", "job-3"} {
		job := &models.Job{ID: id, Language: models.LanguageCpp}
		require.NoError(t, ctrl.Submit(job))
		<-reg.Sink("w1")
		ctrl.HandleCompileResult(wire.CompileResult{JobID: id, Success: false})
	}

	_, err := ctrl.Get("job-1")
	assert.ErrorIs(t, err, ErrUnknownJob, "oldest completed job should have been evicted")

	got2, err := ctrl.Get("job-2")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseCompleted, got2.Phase)

	got3, err := ctrl.Get("job-3")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseCompleted, got3.Phase)
}
