package sandbox

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderCompileCmdSubstitutesFlags(t *testing.T) {
	got := renderCompileCmd("g++ -static %s -o /tmp/main /tmp/main.cpp", []string{"-O2", "-std=c++20"})
	assert.Equal(t, "g++ -static -O2 -std=c++20 -o /tmp/main /tmp/main.cpp", got)
}

func TestRenderCompileCmdNoPlaceholderIsVerbatim(t *testing.T) {
	got := renderCompileCmd("go build -o /tmp/main /tmp/main.go", []string{"-race"})
	assert.Equal(t, "go build -o /tmp/main /tmp/main.go", got)
}

func TestSanitizeNameStripsHyphens(t *testing.T) {
	assert.Equal(t, "job_abc_123", sanitizeName("job-abc-123"))
}
