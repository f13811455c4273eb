package sandbox

import (
	"io"
	"strings"
)

// limitedBuffer caps how much exec output it will retain, so a runaway
// submission can't exhaust worker memory (teacher's
// internal/docker/client.go::limitedWriter, generalized to a zero-value
// usable type).
type limitedBuffer struct {
	strings.Builder
	limit int
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	remaining := b.limit - b.Len()
	if remaining <= 0 {
		return 0, io.EOF
	}
	if len(p) > remaining {
		p = p[:remaining]
	}
	return b.Builder.Write(p)
}
