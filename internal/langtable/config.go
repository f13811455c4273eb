package langtable

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/judgecluster/judgecluster/pkg/models"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors configs/languages.yaml.
type fileConfig struct {
	Languages []fileEntry `yaml:"languages"`
}

type fileEntry struct {
	Language       string `yaml:"language"`
	Class          string `yaml:"class"`
	Image          string `yaml:"image"`
	SourceFilename string `yaml:"source_filename"`
	CompileCmd     string `yaml:"compile_cmd"`
	RunCmd         string `yaml:"run_cmd"`
}

// LoadFile parses configs/languages.yaml into a Table. It returns an
// error if the file is missing or malformed; falling back to Default()
// is left to its callers.
func LoadFile(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read language config: %w", err)
	}

	var cfg fileConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse language config: %w", err)
	}
	if len(cfg.Languages) == 0 {
		return nil, fmt.Errorf("no languages defined in %s", path)
	}

	entries := make(map[models.Language]Entry, len(cfg.Languages))
	for i, le := range cfg.Languages {
		if le.Language == "" {
			return nil, fmt.Errorf("languages[%d]: language is required", i)
		}
		if le.Image == "" {
			return nil, fmt.Errorf("languages[%d]: image is required", i)
		}
		if le.SourceFilename == "" {
			return nil, fmt.Errorf("languages[%d]: source_filename is required", i)
		}
		lang := models.Language(le.Language).Normalize()
		entries[lang] = Entry{
			Language:       lang,
			Class:          Class(le.Class),
			Image:          le.Image,
			SourceFilename: le.SourceFilename,
			CompileCmd:     le.CompileCmd,
			RunCmd:         le.RunCmd,
		}
	}

	return &Table{entries: entries}, nil
}

// DefaultConfigPath mirrors the teacher's
// internal/compiler/config.go::GetDefaultConfigPath search order.
func DefaultConfigPath() string {
	candidates := []string{
		"configs/languages.yaml",
		"../configs/languages.yaml",
		"../../configs/languages.yaml",
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			abs, _ := filepath.Abs(candidate)
			return abs
		}
	}
	return "configs/languages.yaml"
}

// Load tries configs/languages.yaml at its default location and falls
// back to the hardcoded Default table, logging nothing itself: callers
// hold the logger and decide whether a fallback is worth a warning.
func Load() (*Table, error) {
	t, err := LoadFile(DefaultConfigPath())
	if err != nil {
		return Default(), err
	}
	return t, nil
}
