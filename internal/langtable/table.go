// Package langtable holds the language -> (image, filenames, commands,
// classification) dispatch table (spec.md §6, design note "Dynamic
// dispatch over languages").
package langtable

import (
	"fmt"

	"github.com/judgecluster/judgecluster/pkg/models"
)

// Class is how the Sandbox Runner stages and runs a language's payload.
type Class string

const (
	ClassNative      Class = "native"
	ClassJVMBundled  Class = "jvm-bundled"
	ClassInterpreted Class = "interpreted"
)

// Entry is one row of the language table.
type Entry struct {
	Language       models.Language
	Class          Class
	Image          string
	SourceFilename string
	// CompileCmd is empty for interpreted languages.
	CompileCmd string
	// RunCmd is the command that executes the compiled artifact or the
	// source file directly.
	RunCmd string
}

// Lookuper is satisfied by both a fixed Table and a hot-reloading
// Watcher, so the sandbox runtimes don't care which one backs them.
type Lookuper interface {
	Lookup(lang models.Language) (Entry, error)
	Languages() []models.Language
}

// Table is a language -> Entry map, safe to read concurrently once built.
type Table struct {
	entries map[models.Language]Entry
}

var _ Lookuper = (*Table)(nil)

// Lookup returns the entry for a (possibly aliased) language.
func (t *Table) Lookup(lang models.Language) (Entry, error) {
	e, ok := t.entries[lang.Normalize()]
	if !ok {
		return Entry{}, fmt.Errorf("unsupported language: %s", lang)
	}
	return e, nil
}

// Languages returns every configured language, for GET /environments-style
// introspection.
func (t *Table) Languages() []models.Language {
	out := make([]models.Language, 0, len(t.entries))
	for l := range t.entries {
		out = append(out, l)
	}
	return out
}

// Default builds the hardcoded table of spec.md §6, used when
// configs/languages.yaml cannot be loaded.
func Default() *Table {
	entries := map[models.Language]Entry{
		models.LanguageC: {
			Language: models.LanguageC, Class: ClassNative,
			Image: "gcc:latest", SourceFilename: "main.c",
			CompileCmd: "gcc -static %s -o /tmp/main /tmp/main.c",
			RunCmd:     "/tmp/main",
		},
		models.LanguageCpp: {
			Language: models.LanguageCpp, Class: ClassNative,
			Image: "gcc:latest", SourceFilename: "main.cpp",
			CompileCmd: "g++ -static %s -o /tmp/main /tmp/main.cpp",
			RunCmd:     "/tmp/main",
		},
		models.LanguageRust: {
			Language: models.LanguageRust, Class: ClassNative,
			Image: "rust:latest", SourceFilename: "main.rs",
			CompileCmd: "rustc %s -o /tmp/main /tmp/main.rs",
			RunCmd:     "/tmp/main",
		},
		models.LanguageGo: {
			Language: models.LanguageGo, Class: ClassNative,
			Image: "golang:latest", SourceFilename: "main.go",
			CompileCmd: "go build -o /tmp/main /tmp/main.go",
			RunCmd:     "/tmp/main",
		},
		models.LanguageJava: {
			Language: models.LanguageJava, Class: ClassJVMBundled,
			Image: "eclipse-temurin:25", SourceFilename: "Main.java",
			CompileCmd: "mkdir -p /tmp/classes && javac /tmp/Main.java -d /tmp/classes && " +
				"cd /tmp && tar -cf /tmp/java_bundle.tar -C /tmp/classes . && " +
				"printf '#!/bin/sh\\njava -cp /tmp/classes Main\\n' > /tmp/main && chmod +x /tmp/main && " +
				"tar -rf /tmp/java_bundle.tar -C /tmp main",
			RunCmd: "/tmp/main",
		},
		models.LanguagePython: {
			Language: models.LanguagePython, Class: ClassInterpreted,
			Image: "python:3-slim", SourceFilename: "main.py",
			RunCmd: "python /tmp/main.py",
		},
		models.LanguageJavaScript: {
			Language: models.LanguageJavaScript, Class: ClassInterpreted,
			Image: "node:slim", SourceFilename: "main.js",
			RunCmd: "node /tmp/main.js",
		},
		models.LanguageRuby: {
			Language: models.LanguageRuby, Class: ClassInterpreted,
			Image: "ruby:slim", SourceFilename: "main.rb",
			RunCmd: "ruby /tmp/main.rb",
		},
	}
	return &Table{entries: entries}
}
