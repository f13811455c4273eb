package registry

import (
	"testing"

	"github.com/judgecluster/judgecluster/internal/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndSnapshot(t *testing.T) {
	r := New()
	r.Register(wire.Register{WorkerID: "w1", CPUCores: 4, TotalRAMMB: 8192, Tags: []string{"can_compile"}})

	require.NoError(t, r.Heartbeat(wire.Heartbeat{WorkerID: "w1", CPULoadPercent: 12.5, RAMUsageMB: 512, ActiveTasks: 1}))

	snap := r.Snapshot()
	require.Len(t, snap, 1)
	assert.Equal(t, "w1", snap[0].ID)
	assert.InDelta(t, 12.5, snap[0].CPULoadPercent, 0.001)
	assert.Equal(t, uint64(512), snap[0].RAMUsageMB)
	assert.Equal(t, uint32(1), snap[0].ActiveTasks)
}

func TestHeartbeatUnknownWorker(t *testing.T) {
	r := New()
	err := r.Heartbeat(wire.Heartbeat{WorkerID: "ghost"})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveDropsWorker(t *testing.T) {
	r := New()
	r.Register(wire.Register{WorkerID: "w1"})
	require.Equal(t, 1, r.Len())

	r.Remove("w1")
	assert.Equal(t, 0, r.Len())
	assert.Nil(t, r.Get("w1"))
}

func TestTrySendDeliversToSink(t *testing.T) {
	r := New()
	r.Register(wire.Register{WorkerID: "w1"})

	cmd := &wire.MasterCommand{Compile: &wire.CompileTask{JobID: "job-1"}}
	require.NoError(t, r.TrySend("w1", cmd))

	sink := r.Sink("w1")
	received := <-sink
	assert.Equal(t, "job-1", received.Compile.JobID)
}

func TestTrySendUnknownWorker(t *testing.T) {
	r := New()
	err := r.TrySend("ghost", &wire.MasterCommand{})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTrySendFailsFastWhenSinkFull(t *testing.T) {
	r := New()
	r.Register(wire.Register{WorkerID: "w1"})

	for i := 0; i < SinkDepth; i++ {
		require.NoError(t, r.TrySend("w1", &wire.MasterCommand{}))
	}

	err := r.TrySend("w1", &wire.MasterCommand{})
	assert.ErrorIs(t, err, ErrSinkFull)
}

func TestCanCompileTag(t *testing.T) {
	r := New()
	e := r.Register(wire.Register{WorkerID: "w1", Tags: []string{"can_compile", "gpu"}})
	assert.True(t, e.CanCompile())

	e2 := r.Register(wire.Register{WorkerID: "w2", Tags: []string{"gpu"}})
	assert.False(t, e2.CanCompile())
}
