package langtable

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/judgecluster/judgecluster/pkg/models"
)

const initialYAML = `languages:
  - language: cpp
    class: native
    image: gcc:latest
    source_filename: main.cpp
    compile_cmd: "g++ %s -o /tmp/main /tmp/main.cpp"
    run_cmd: /tmp/main
`

const reloadedYAML = `languages:
  - language: cpp
    class: native
    image: gcc:latest
    source_filename: main.cpp
    compile_cmd: "g++ %s -o /tmp/main /tmp/main.cpp"
    run_cmd: /tmp/main
  - language: zig
    class: native
    image: zig:latest
    source_filename: main.zig
    compile_cmd: "zig build-exe %s -femit-bin=/tmp/main /tmp/main.zig"
    run_cmd: /tmp/main
`

func TestWatchReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "languages.yaml")
	require.NoError(t, os.WriteFile(path, []byte(initialYAML), 0o644))

	w, err := Watch(path)
	require.NoError(t, err)
	defer w.Close() //nolint:errcheck

	_, err = w.Lookup(models.Language("zig"))
	assert.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(reloadedYAML), 0o644))

	require.Eventually(t, func() bool {
		_, err := w.Lookup(models.Language("zig"))
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
}

func TestWatchFailsOnMissingFile(t *testing.T) {
	_, err := Watch("/nonexistent/languages.yaml")
	assert.Error(t, err)
}
