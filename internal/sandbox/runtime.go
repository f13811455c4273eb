// Package sandbox runs compile and batch-execute tasks inside isolated
// containers (spec.md §4.1, "Sandbox Runner").
package sandbox

import (
	"context"

	"github.com/judgecluster/judgecluster/internal/wire"
)

// Runtime compiles submissions and executes test batches against a
// compiled artifact or interpreted source. DockerRuntime is the primary
// implementation; KubernetesRuntime is an alternate backend for
// cluster deployments, adapted from the same Job-based approach the
// teacher used for compile-only workloads.
type Runtime interface {
	Compile(ctx context.Context, task wire.CompileTask) (*wire.CompileResult, error)
	ExecuteBatch(ctx context.Context, task wire.ExecuteBatchTask) (*wire.BatchExecutionResult, error)
	Close() error
}
