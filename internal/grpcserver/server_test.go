package grpcserver

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/judgecluster/judgecluster/internal/jobcontroller"
	"github.com/judgecluster/judgecluster/internal/registry"
	"github.com/judgecluster/judgecluster/internal/wire"
)

// fakeStream implements wire.WorkerService_SessionServer over in-memory
// channels, letting Session be exercised without a real gRPC transport.
type fakeStream struct {
	grpc.ServerStream
	in  chan *wire.WorkerMessage
	out chan *wire.MasterCommand

	mu     sync.Mutex
	closed bool
}

func newFakeStream() *fakeStream {
	return &fakeStream{
		in:  make(chan *wire.WorkerMessage, 8),
		out: make(chan *wire.MasterCommand, 8),
	}
}

func (f *fakeStream) Send(m *wire.MasterCommand) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return io.ErrClosedPipe
	}
	f.out <- m
	return nil
}

func (f *fakeStream) Recv() (*wire.WorkerMessage, error) {
	m, ok := <-f.in
	if !ok {
		return nil, io.EOF
	}
	return m, nil
}

func (f *fakeStream) Context() context.Context { return context.Background() }

func (f *fakeStream) closeIn() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.in)
	}
}

func TestSessionRegistersWorkerAndRoutesHeartbeat(t *testing.T) {
	reg := registry.New()
	ctrl := jobcontroller.New(reg)
	s := New(reg, ctrl)

	stream := newFakeStream()
	stream.in <- &wire.WorkerMessage{Register: &wire.Register{
		WorkerID: "w1", CPUCores: 4, TotalRAMMB: 8192, Tags: []string{"can_compile"},
	}}
	stream.in <- &wire.WorkerMessage{Heartbeat: &wire.Heartbeat{
		WorkerID: "w1", CPULoadPercent: 12.5, RAMUsageMB: 256, ActiveTasks: 1,
	}}

	done := make(chan error, 1)
	go func() { done <- s.Session(stream) }()

	require.Eventually(t, func() bool {
		e := reg.Get("w1")
		return e != nil
	}, time.Second, 10*time.Millisecond)

	require.Eventually(t, func() bool {
		snaps := reg.Snapshot()
		for _, snap := range snaps {
			if snap.ID == "w1" && snap.ActiveTasks == 1 {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)

	stream.closeIn()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Session did not return after stream closed")
	}

	assert.Nil(t, reg.Get("w1"))
}

func TestSessionDispatchesQueuedCommandToStream(t *testing.T) {
	reg := registry.New()
	ctrl := jobcontroller.New(reg)
	s := New(reg, ctrl)

	stream := newFakeStream()
	stream.in <- &wire.WorkerMessage{Register: &wire.Register{WorkerID: "w1", Tags: []string{"can_compile"}}}

	go func() { _ = s.Session(stream) }()

	require.Eventually(t, func() bool { return reg.Get("w1") != nil }, time.Second, 10*time.Millisecond)

	require.NoError(t, reg.TrySend("w1", &wire.MasterCommand{Compile: &wire.CompileTask{JobID: "j1"}}))

	select {
	case cmd := <-stream.out:
		require.NotNil(t, cmd.Compile)
		assert.Equal(t, "j1", cmd.Compile.JobID)
	case <-time.After(3 * time.Second):
		t.Fatal("command was not pumped to the stream")
	}

	stream.closeIn()
}
