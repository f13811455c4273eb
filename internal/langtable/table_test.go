package langtable

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/judgecluster/judgecluster/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLookupNormalizesAliases(t *testing.T) {
	table := Default()

	e, err := table.Lookup(models.LanguageCPPAlias)
	require.NoError(t, err)
	assert.Equal(t, ClassNative, e.Class)
	assert.Equal(t, "main.cpp", e.SourceFilename)

	e, err = table.Lookup(models.LanguagePython3)
	require.NoError(t, err)
	assert.Equal(t, ClassInterpreted, e.Class)
	assert.Empty(t, e.CompileCmd)
}

func TestDefaultLookupUnknownLanguage(t *testing.T) {
	table := Default()
	_, err := table.Lookup(models.Language("brainfuck"))
	assert.Error(t, err)
}

func TestDefaultCoversEveryClassification(t *testing.T) {
	table := Default()

	java, err := table.Lookup(models.LanguageJava)
	require.NoError(t, err)
	assert.Equal(t, ClassJVMBundled, java.Class)

	gopl, err := table.Lookup(models.LanguageGo)
	require.NoError(t, err)
	assert.Equal(t, ClassNative, gopl.Class)
}

func TestLoadFileParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "languages.yaml")
	contents := `
languages:
  - language: python
    class: interpreted
    image: python:3-slim
    source_filename: main.py
    run_cmd: "python /tmp/main.py"
  - language: c
    class: native
    image: gcc:latest
    source_filename: main.c
    compile_cmd: "gcc %s -o /tmp/main /tmp/main.c"
    run_cmd: "/tmp/main"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	table, err := LoadFile(path)
	require.NoError(t, err)

	e, err := table.Lookup(models.LanguagePython)
	require.NoError(t, err)
	assert.Equal(t, "python:3-slim", e.Image)

	e, err = table.Lookup(models.LanguageC)
	require.NoError(t, err)
	assert.Equal(t, "gcc %s -o /tmp/main /tmp/main.c", e.CompileCmd)
}

func TestLoadFileRejectsEmpty(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "languages.yaml")
	require.NoError(t, os.WriteFile(path, []byte("languages: []\n"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}

func TestLoadFileMissingRequiredFields(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "languages.yaml")
	require.NoError(t, os.WriteFile(path, []byte("languages:\n  - language: c\n"), 0o644))

	_, err := LoadFile(path)
	assert.Error(t, err)
}
