package workeragent

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"

	"github.com/judgecluster/judgecluster/internal/wire"
)

type fakeClientStream struct {
	grpc.ClientStream
	out chan *wire.WorkerMessage
	in  chan *wire.MasterCommand

	mu     sync.Mutex
	closed bool
}

func newFakeClientStream() *fakeClientStream {
	return &fakeClientStream{
		out: make(chan *wire.WorkerMessage, 16),
		in:  make(chan *wire.MasterCommand, 16),
	}
}

func (f *fakeClientStream) Send(m *wire.WorkerMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return io.ErrClosedPipe
	}
	f.out <- m
	return nil
}

func (f *fakeClientStream) Recv() (*wire.MasterCommand, error) {
	m, ok := <-f.in
	if !ok {
		return nil, io.EOF
	}
	return m, nil
}

func (f *fakeClientStream) Context() context.Context { return context.Background() }

func (f *fakeClientStream) closeIn() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.in)
	}
}

type fakeRuntime struct {
	compileResult *wire.CompileResult
	compileErr    error
	batchResult   *wire.BatchExecutionResult
	batchErr      error
}

func (r *fakeRuntime) Compile(ctx context.Context, task wire.CompileTask) (*wire.CompileResult, error) {
	if r.compileErr != nil {
		return nil, r.compileErr
	}
	return r.compileResult, nil
}

func (r *fakeRuntime) ExecuteBatch(ctx context.Context, task wire.ExecuteBatchTask) (*wire.BatchExecutionResult, error) {
	if r.batchErr != nil {
		return nil, r.batchErr
	}
	return r.batchResult, nil
}

func (r *fakeRuntime) Close() error { return nil }

func TestRunRegistersThenRespondsToCompile(t *testing.T) {
	rt := &fakeRuntime{compileResult: &wire.CompileResult{JobID: "j1", Success: true}}
	agent := New(Config{WorkerID: "w1", Tags: []string{"can_compile"}}, rt)

	stream := newFakeClientStream()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- agent.Run(ctx, stream) }()

	select {
	case msg := <-stream.out:
		require.NotNil(t, msg.Register)
		assert.Equal(t, "w1", msg.Register.WorkerID)
	case <-time.After(time.Second):
		t.Fatal("agent did not register")
	}

	stream.in <- &wire.MasterCommand{Compile: &wire.CompileTask{JobID: "j1", Language: "cpp"}}

	select {
	case msg := <-stream.out:
		require.NotNil(t, msg.CompileResult)
		assert.Equal(t, "j1", msg.CompileResult.JobID)
		assert.True(t, msg.CompileResult.Success)
	case <-time.After(2 * time.Second):
		t.Fatal("agent did not report compile result")
	}

	stream.closeIn()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, io.EOF)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after stream closed")
	}
}

func TestRunReportsExecuteBatchError(t *testing.T) {
	rt := &fakeRuntime{batchErr: errors.New("sandbox exploded")}
	agent := New(Config{WorkerID: "w2"}, rt)

	stream := newFakeClientStream()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = agent.Run(ctx, stream) }()
	<-stream.out // register

	stream.in <- &wire.MasterCommand{Execute: &wire.ExecuteBatchTask{JobID: "j2", BatchID: "b1"}}

	select {
	case msg := <-stream.out:
		require.NotNil(t, msg.BatchResult)
		assert.Equal(t, "j2", msg.BatchResult.JobID)
		assert.Equal(t, "w2", msg.BatchResult.WorkerID)
		assert.Contains(t, msg.BatchResult.SystemError, "sandbox exploded")
	case <-time.After(2 * time.Second):
		t.Fatal("agent did not report batch error")
	}

	stream.closeIn()
}

func TestConfigApplyDefaultsGeneratesID(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	assert.NotEmpty(t, cfg.WorkerID)
}
