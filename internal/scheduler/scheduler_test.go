package scheduler

import (
	"testing"

	"github.com/judgecluster/judgecluster/internal/registry"
	"github.com/judgecluster/judgecluster/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestSelectCompileWorkerPicksLowestLoadAmongTagged(t *testing.T) {
	workers := []registry.Snapshot{
		{ID: "w1", Tags: []string{"can_compile"}, CPULoadPercent: 40},
		{ID: "w2", Tags: []string{"can_compile"}, CPULoadPercent: 10},
		{ID: "w3", Tags: []string{"gpu"}, CPULoadPercent: 5},
	}

	id, ok := SelectCompileWorker(workers)
	assert.True(t, ok)
	assert.Equal(t, "w2", id)
}

func TestSelectCompileWorkerExcludesOverloaded(t *testing.T) {
	workers := []registry.Snapshot{
		{ID: "w1", Tags: []string{"can_compile"}, CPULoadPercent: 50},
		{ID: "w2", Tags: []string{"can_compile"}, CPULoadPercent: 99},
	}

	_, ok := SelectCompileWorker(workers)
	assert.False(t, ok)
}

func TestSelectCompileWorkerNoneTagged(t *testing.T) {
	workers := []registry.Snapshot{{ID: "w1", Tags: []string{"gpu"}, CPULoadPercent: 1}}
	_, ok := SelectCompileWorker(workers)
	assert.False(t, ok)
}

func TestSelectExecutionWorkersAscendingLoad(t *testing.T) {
	workers := []registry.Snapshot{
		{ID: "w1", CPULoadPercent: 70},
		{ID: "w2", CPULoadPercent: 10},
		{ID: "w3", CPULoadPercent: 40},
		{ID: "w4", CPULoadPercent: 90}, // excluded, over ceiling
	}

	got := SelectExecutionWorkers(workers, 2)
	assert.Equal(t, []string{"w2", "w3"}, got)
}

func TestSelectExecutionWorkersFewerThanRequested(t *testing.T) {
	workers := []registry.Snapshot{{ID: "w1", CPULoadPercent: 10}}
	got := SelectExecutionWorkers(workers, 5)
	assert.Equal(t, []string{"w1"}, got)
}

func TestSelectExecutionWorkersNoneQualify(t *testing.T) {
	workers := []registry.Snapshot{{ID: "w1", CPULoadPercent: 99}}
	got := SelectExecutionWorkers(workers, 3)
	assert.Empty(t, got)
}

func TestCreateBatchesChunksFixedSize(t *testing.T) {
	cases := make([]models.TestCase, 45)
	for i := range cases {
		cases[i] = models.TestCase{ID: string(rune('a' + i%26))}
	}

	batches := CreateBatches(cases)
	assert.Len(t, batches, 3)
	assert.Len(t, batches[0], BatchSize)
	assert.Len(t, batches[1], BatchSize)
	assert.Len(t, batches[2], 5)
}

func TestCreateBatchesEmpty(t *testing.T) {
	assert.Nil(t, CreateBatches(nil))
}
