package wire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecRoundTrip(t *testing.T) {
	codec := Codec{}
	assert.Equal(t, "json", codec.Name())

	original := &WorkerMessage{
		Heartbeat: &Heartbeat{
			WorkerID:       "worker-1",
			CPULoadPercent: 12.5,
			RAMUsageMB:     256,
			ActiveTasks:    2,
		},
	}

	data, err := codec.Marshal(original)
	require.NoError(t, err)

	var decoded WorkerMessage
	require.NoError(t, codec.Unmarshal(data, &decoded))

	require.NotNil(t, decoded.Heartbeat)
	assert.Equal(t, original.Heartbeat.WorkerID, decoded.Heartbeat.WorkerID)
	assert.Equal(t, original.Heartbeat.CPULoadPercent, decoded.Heartbeat.CPULoadPercent)
	assert.Nil(t, decoded.Register)
}
