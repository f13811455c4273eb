package sandbox

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTarRoundTrip(t *testing.T) {
	r, err := buildTar("main.py", []byte("print('hi')"))
	require.NoError(t, err)

	data, err := io.ReadAll(r)
	require.NoError(t, err)

	content, err := firstFileFromTar(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "print('hi')", string(content))
}

func TestBuildExecutableTarRoundTrip(t *testing.T) {
	r, err := buildExecutableTar("main", []byte{0x7f, 'E', 'L', 'F'})
	require.NoError(t, err)

	data, err := io.ReadAll(r)
	require.NoError(t, err)

	content, err := firstFileFromTar(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, []byte{0x7f, 'E', 'L', 'F'}, content)
}

func TestFirstFileFromTarEmptyArchiveErrors(t *testing.T) {
	_, err := firstFileFromTar(bytes.NewReader(nil))
	assert.Error(t, err)
}
