package sandbox

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/judgecluster/judgecluster/internal/langtable"
	"github.com/judgecluster/judgecluster/internal/metrics"
	"github.com/judgecluster/judgecluster/internal/wire"
	"github.com/judgecluster/judgecluster/pkg/models"
)

// Resource limits, carried over from original_source/worker/src/docker.rs
// (compile containers get more headroom than execute containers, which
// also run under a PID cap and no network).
const (
	CompileMemoryBytes = 512 * 1024 * 1024
	CompileNanoCPUs    = 2_000_000_000
	CompileExecTimeout = 60 * time.Second
	ContainerTimeout   = 300 * time.Second

	ExecuteNanoCPUs  = 1_000_000_000
	ExecutePidsLimit = 50

	MaxOutputBytes = 1 * 1024 * 1024
)

// DockerRuntime runs compile and execute-batch tasks as short-lived
// Docker containers, one per job/batch. Grounded on the teacher's
// internal/docker/client.go (container lifecycle, limited-output
// collection) generalized from a single hardcoded C++ toolchain to the
// full language table, plus original_source/worker/src/docker.rs for the
// execute-batch and verdict-classification behavior the teacher's
// compile-only service never needed.
type DockerRuntime struct {
	cli   *client.Client
	table langtable.Lookuper
}

// NewDockerRuntime dials the local Docker daemon (DOCKER_HOST or the
// platform default socket).
func NewDockerRuntime(table langtable.Lookuper) (*DockerRuntime, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, fmt.Errorf("create docker client: %w", err)
	}
	return &DockerRuntime{cli: cli, table: table}, nil
}

func (r *DockerRuntime) Close() error {
	return r.cli.Close()
}

// Compile stages source code into a fresh container and runs the
// language's compile command, returning the compiled artifact on
// success. Interpreted languages are rejected: they have no compile
// phase (spec.md §6).
func (r *DockerRuntime) Compile(ctx context.Context, task wire.CompileTask) (*wire.CompileResult, error) {
	start := time.Now()
	lang := models.Language(task.Language).Normalize()

	entry, err := r.table.Lookup(lang)
	if err != nil {
		return &wire.CompileResult{JobID: task.JobID, Success: false, CompilerOutput: err.Error()}, nil
	}
	if entry.Class == langtable.ClassInterpreted {
		return &wire.CompileResult{
			JobID:   task.JobID,
			Success: false,
			CompilerOutput: fmt.Sprintf(
				"%s is interpreted and does not need compilation", lang),
		}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, CompileExecTimeout)
	defer cancel()

	name := "compile_" + sanitizeName(task.JobID)
	hostConfig := &container.HostConfig{
		Resources: container.Resources{
			Memory:   CompileMemoryBytes,
			NanoCPUs: CompileNanoCPUs,
		},
		NetworkMode: "none",
	}
	containerConfig := &container.Config{
		Image: entry.Image,
		Cmd:   []string{"sleep", "300"},
	}

	if _, err := r.cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, name); err != nil {
		return failedCompile(task.JobID, start, fmt.Errorf("create container: %w", err)), nil
	}
	metrics.SandboxContainersActive.Inc()
	defer r.removeContainer(name)

	if err := r.cli.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return failedCompile(task.JobID, start, fmt.Errorf("start container: %w", err)), nil
	}

	if err := r.uploadFile(ctx, name, entry.SourceFilename, []byte(task.SourceCode), false); err != nil {
		return failedCompile(task.JobID, start, fmt.Errorf("upload source: %w", err)), nil
	}

	cmd := renderCompileCmd(entry.CompileCmd, task.Flags)
	exitCode, output, execErr := r.execInContainer(ctx, name, cmd, CompileExecTimeout)
	if execErr != nil {
		return failedCompile(task.JobID, start, execErr), nil
	}

	success := exitCode == 0
	var payload []byte
	if success {
		downloadPath := "/tmp/main"
		if lang == models.LanguageJava {
			downloadPath = "/tmp/java_bundle.tar"
		}
		payload, _ = r.downloadFile(ctx, name, downloadPath)
	}

	return &wire.CompileResult{
		JobID:          task.JobID,
		Success:        success,
		CompilerOutput: output,
		BinaryPayload:  payload,
		DurationMs:     time.Since(start).Milliseconds(),
	}, nil
}

func failedCompile(jobID string, start time.Time, err error) *wire.CompileResult {
	return &wire.CompileResult{
		JobID:          jobID,
		Success:        false,
		CompilerOutput: err.Error(),
		DurationMs:     time.Since(start).Milliseconds(),
	}
}

// renderCompileCmd substitutes compiler flags into a command template
// that has a "%s" placeholder; templates without one (go build, the
// multi-step java pipeline) are used verbatim.
func renderCompileCmd(template string, flags []string) string {
	if strings.Contains(template, "%s") {
		return fmt.Sprintf(template, strings.Join(flags, " "))
	}
	return template
}

// ExecuteBatch stages the compiled artifact (or source, for interpreted
// languages) into a fresh container and runs every test case's input
// through it in sequence, classifying each result with ClassifyVerdict.
func (r *DockerRuntime) ExecuteBatch(ctx context.Context, task wire.ExecuteBatchTask) (*wire.BatchExecutionResult, error) {
	lang := models.Language(task.Language).Normalize()
	entry, err := r.table.Lookup(lang)
	if err != nil {
		return &wire.BatchExecutionResult{
			JobID: task.JobID, BatchID: task.BatchID,
			SystemError: err.Error(),
		}, nil
	}

	name := "run_" + sanitizeName(task.JobID) + "_" + sanitizeName(task.BatchID)
	hostConfig := &container.HostConfig{
		Resources: container.Resources{
			Memory:    int64(task.MemoryLimitMB) * 1024 * 1024,
			NanoCPUs:  ExecuteNanoCPUs,
			PidsLimit: ptrInt64(ExecutePidsLimit),
		},
		NetworkMode: "none",
	}
	containerConfig := &container.Config{
		Image: entry.Image,
		Cmd:   []string{"sleep", "300"},
	}

	if _, err := r.cli.ContainerCreate(ctx, containerConfig, hostConfig, nil, nil, name); err != nil {
		return &wire.BatchExecutionResult{
			JobID: task.JobID, BatchID: task.BatchID,
			SystemError: fmt.Sprintf("create container: %v", err),
		}, nil
	}
	metrics.SandboxContainersActive.Inc()
	defer r.removeContainer(name)

	if err := r.cli.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return &wire.BatchExecutionResult{
			JobID: task.JobID, BatchID: task.BatchID,
			SystemError: fmt.Sprintf("start container: %v", err),
		}, nil
	}

	if err := r.stageArtifact(ctx, name, entry, task); err != nil {
		return &wire.BatchExecutionResult{
			JobID: task.JobID, BatchID: task.BatchID,
			SystemError: fmt.Sprintf("stage artifact: %v", err),
		}, nil
	}

	results := make([]models.TestCaseResult, 0, len(task.Inputs))
	var totalCPUMs int64
	timeLimit := time.Duration(task.TimeLimitMs) * time.Millisecond

	for _, tc := range task.Inputs {
		start := time.Now()
		exitCode, stdout, timedOut, runErr := r.runWithInput(ctx, name, entry.RunCmd, tc.Input, timeLimit)
		elapsed := time.Since(start)
		totalCPUMs += elapsed.Milliseconds()

		if runErr != nil && !timedOut {
			results = append(results, models.TestCaseResult{
				TestID:    tc.ID,
				Verdict:   models.VerdictRE,
				Stderr:    runErr.Error(),
				ElapsedMs: elapsed.Milliseconds(),
			})
			continue
		}

		verdict := ClassifyVerdict(timedOut, exitCode, stdout, "", tc.ExpectedOutput)
		results = append(results, models.TestCaseResult{
			TestID:    tc.ID,
			Verdict:   verdict,
			Stdout:    stdout,
			ElapsedMs: elapsed.Milliseconds(),
		})
	}

	return &wire.BatchExecutionResult{
		JobID:   task.JobID,
		BatchID: task.BatchID,
		Results: results,
		Metrics: wire.ResourceMetrics{
			TotalCPUTimeMs: totalCPUMs,
		},
	}, nil
}

// stageArtifact uploads the compiled binary, the java class bundle, or
// raw source into the execute container depending on language class.
func (r *DockerRuntime) stageArtifact(ctx context.Context, name string, entry langtable.Entry, task wire.ExecuteBatchTask) error {
	switch entry.Class {
	case langtable.ClassInterpreted:
		return r.uploadFile(ctx, name, entry.SourceFilename, []byte(task.SourceCode), false)
	case langtable.ClassJVMBundled:
		if err := r.uploadTarArchive(ctx, name, task.BinaryArtifact); err != nil {
			return err
		}
		_, _, err := r.execInContainer(ctx, name,
			"mkdir -p /tmp/classes && cd /tmp && tar -xf /tmp/java_bundle.tar && chmod +x /tmp/main",
			10*time.Second)
		return err
	default: // native
		if err := r.uploadFile(ctx, name, "main", task.BinaryArtifact, true); err != nil {
			return err
		}
		_, _, err := r.execInContainer(ctx, name, "chmod +x /tmp/main", 5*time.Second)
		return err
	}
}

// removeContainer force-removes a container, best effort, using a
// context detached from the caller's so cleanup still runs after a
// timeout or cancellation.
func (r *DockerRuntime) removeContainer(name string) {
	ctx := context.WithoutCancel(context.Background())
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_ = r.cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: true, RemoveVolumes: true})
	metrics.SandboxContainersActive.Dec()
}

func (r *DockerRuntime) uploadFile(ctx context.Context, containerName, filename string, content []byte, executable bool) error {
	var (
		tarball io.Reader
		err     error
	)
	if executable {
		tarball, err = buildExecutableTar(filename, content)
	} else {
		tarball, err = buildTar(filename, content)
	}
	if err != nil {
		return err
	}
	return r.cli.CopyToContainer(ctx, containerName, "/tmp", tarball, container.CopyToContainerOptions{})
}

// uploadTarArchive uploads an already-built tar stream verbatim (the
// java compile step produces one directly).
func (r *DockerRuntime) uploadTarArchive(ctx context.Context, containerName string, tarball []byte) error {
	return r.cli.CopyToContainer(ctx, containerName, "/tmp", strings.NewReader(string(tarball)), container.CopyToContainerOptions{})
}

func (r *DockerRuntime) downloadFile(ctx context.Context, containerName, path string) ([]byte, error) {
	reader, _, err := r.cli.CopyFromContainer(ctx, containerName, path)
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return firstFileFromTar(reader)
}

// execInContainer runs a shell command inside an already-running
// container and returns its exit code and combined stdout+stderr,
// matching original_source/worker/src/docker.rs's simplified capture
// (it doesn't separate the two streams either).
func (r *DockerRuntime) execInContainer(ctx context.Context, containerName, cmd string, timeout time.Duration) (int, string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	exec, err := r.cli.ContainerExecCreate(ctx, containerName, container.ExecOptions{
		Cmd:          []string{"sh", "-c", cmd},
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return -1, "", fmt.Errorf("create exec: %w", err)
	}

	attach, err := r.cli.ContainerExecAttach(ctx, exec.ID, container.ExecAttachOptions{})
	if err != nil {
		return -1, "", fmt.Errorf("attach exec: %w", err)
	}
	defer attach.Close()

	var out, errBuf limitedBuffer
	out.limit, errBuf.limit = MaxOutputBytes, MaxOutputBytes
	copyErr := make(chan error, 1)
	go func() {
		_, err := stdcopy.StdCopy(&out, &errBuf, attach.Reader)
		copyErr <- err
	}()

	select {
	case err := <-copyErr:
		if err != nil && !errors.Is(err, io.EOF) {
			return -1, "", fmt.Errorf("read exec output: %w", err)
		}
	case <-ctx.Done():
		return -1, out.String() + errBuf.String(), fmt.Errorf("exec timeout: %w", ctx.Err())
	}

	inspect, err := r.cli.ContainerExecInspect(ctx, exec.ID)
	if err != nil {
		return -1, out.String() + errBuf.String(), fmt.Errorf("inspect exec: %w", err)
	}

	return inspect.ExitCode, out.String() + errBuf.String(), nil
}

// runWithInput pipes a test case's input to the run command via a shell
// echo, quote-escaped the way original_source/worker/src/docker.rs does
// it. The run command comes from the language table; the input is
// embedded in the shell command line inside single quotes. echo appends
// a trailing newline and may interpret backslash sequences, so the
// program does not necessarily receive the input byte-for-byte.
func (r *DockerRuntime) runWithInput(ctx context.Context, containerName, runCmd, input string, timeout time.Duration) (int, string, bool, error) {
	escaped := strings.ReplaceAll(input, "'", `'\''`)
	fullCmd := fmt.Sprintf("echo '%s' | %s", escaped, runCmd)

	exitCode, output, err := r.execInContainer(ctx, containerName, fullCmd, timeout)
	if err != nil {
		timedOut := errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "timeout")
		return exitCode, output, timedOut, err
	}
	return exitCode, output, false, nil
}

func sanitizeName(id string) string {
	return strings.ReplaceAll(id, "-", "_")
}

func ptrInt64(v int64) *int64 { return &v }

var _ Runtime = (*DockerRuntime)(nil)
