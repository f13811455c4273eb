// Package scheduler holds pure worker-selection and test-batching
// functions (spec.md §4.3, "Scheduler"). No I/O: every function takes
// plain values and returns plain values, so it's testable without a
// registry or a cluster.
package scheduler

import (
	"sort"

	"github.com/judgecluster/judgecluster/internal/registry"
	"github.com/judgecluster/judgecluster/pkg/models"
)

// BatchSize is the fixed chunk size CreateBatches splits test cases
// into (spec.md §4.3).
const BatchSize = 20

// CompileLoadCeiling excludes compile-capable workers running hotter
// than this from consideration.
const CompileLoadCeiling = 50.0

// ExecuteLoadCeiling excludes execution workers running hotter than
// this from consideration.
const ExecuteLoadCeiling = 80.0

// SelectCompileWorker picks the lowest-loaded worker tagged
// "can_compile" with load under CompileLoadCeiling. Returns ("", false)
// if none qualify.
func SelectCompileWorker(workers []registry.Snapshot) (string, bool) {
	var best registry.Snapshot
	found := false

	for _, w := range workers {
		if !hasTag(w.Tags, "can_compile") {
			continue
		}
		if w.CPULoadPercent >= CompileLoadCeiling {
			continue
		}
		if !found || w.CPULoadPercent < best.CPULoadPercent {
			best = w
			found = true
		}
	}

	if !found {
		return "", false
	}
	return best.ID, true
}

// SelectExecutionWorkers returns up to n worker ids with load under
// ExecuteLoadCeiling, ascending by load. Fewer than n may come back if
// fewer qualify.
func SelectExecutionWorkers(workers []registry.Snapshot, n int) []string {
	candidates := make([]registry.Snapshot, 0, len(workers))
	for _, w := range workers {
		if w.CPULoadPercent < ExecuteLoadCeiling {
			candidates = append(candidates, w)
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].CPULoadPercent < candidates[j].CPULoadPercent
	})

	if n > len(candidates) {
		n = len(candidates)
	}

	ids := make([]string, n)
	for i := 0; i < n; i++ {
		ids[i] = candidates[i].ID
	}
	return ids
}

// CreateBatches splits test cases into fixed-size chunks of BatchSize,
// the unit of work a single ExecuteBatchTask carries.
func CreateBatches(cases []models.TestCase) [][]models.TestCase {
	if len(cases) == 0 {
		return nil
	}

	batches := make([][]models.TestCase, 0, (len(cases)+BatchSize-1)/BatchSize)
	for start := 0; start < len(cases); start += BatchSize {
		end := start + BatchSize
		if end > len(cases) {
			end = len(cases)
		}
		batches = append(batches, cases[start:end])
	}
	return batches
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}
