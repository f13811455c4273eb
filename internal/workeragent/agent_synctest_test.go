//go:build go1.25

package workeragent

import (
	"context"
	"testing"
	"testing/synctest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judgecluster/judgecluster/internal/wire"
)

// TestRunSendsHeartbeatsOnTicker uses testing/synctest to verify the
// heartbeat cadence without waiting on a real clock: every
// HeartbeatInterval of virtual time must produce exactly one Heartbeat
// message, even with no tasks dispatched.
func TestRunSendsHeartbeatsOnTicker(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		agent := New(Config{WorkerID: "w-synctest"}, &fakeRuntime{})
		stream := newFakeClientStream()

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		done := make(chan error, 1)
		go func() { done <- agent.Run(ctx, stream) }()

		msg := <-stream.out
		require.NotNil(t, msg.Register)

		for i := 0; i < 3; i++ {
			time.Sleep(HeartbeatInterval)
			synctest.Wait()

			select {
			case hb := <-stream.out:
				require.NotNil(t, hb.Heartbeat)
				assert.Equal(t, "w-synctest", hb.Heartbeat.WorkerID)
			default:
				t.Fatalf("no heartbeat observed after tick %d", i)
			}

			select {
			case extra := <-stream.out:
				t.Fatalf("unexpected extra message after tick %d: %+v", i, extra)
			default:
			}
		}

		cancel()
		synctest.Wait()
		stream.closeIn()
		<-done
	})
}
