// Package models holds the public data types shared between the master's
// HTTP surface, the master/worker wire protocol, and the job store.
package models

// Language identifies a submission's programming language.
type Language string

const (
	LanguageC          Language = "c"
	LanguageCpp        Language = "cpp"
	LanguageCPPAlias   Language = "c++"
	LanguageGo         Language = "go"
	LanguageGolang     Language = "golang"
	LanguageRust       Language = "rust"
	LanguageJava       Language = "java"
	LanguagePython     Language = "python"
	LanguagePython3    Language = "python3"
	LanguageJavaScript Language = "javascript"
	LanguageJS         Language = "js"
	LanguageNode       Language = "node"
	LanguageRuby       Language = "ruby"
)

// Normalize collapses language aliases to their canonical spelling.
func (l Language) Normalize() Language {
	switch l {
	case LanguageCPPAlias:
		return LanguageCpp
	case LanguageGolang:
		return LanguageGo
	case LanguagePython3:
		return LanguagePython
	case LanguageJS, LanguageNode:
		return LanguageJavaScript
	default:
		return l
	}
}

// Interpreted reports whether the language runs from source with no
// compile phase (spec.md §6 classification table).
func (l Language) Interpreted() bool {
	switch l.Normalize() {
	case LanguagePython, LanguageJavaScript, LanguageRuby:
		return true
	default:
		return false
	}
}

// Verdict is a per-test-case outcome tag.
type Verdict string

const (
	VerdictPassed Verdict = "PASSED"
	VerdictFailed Verdict = "FAILED"
	VerdictRE     Verdict = "RE"
	VerdictTLE    Verdict = "TLE"
	VerdictMLE    Verdict = "MLE"
)

// Phase is the master-side job lifecycle phase (spec.md §3).
type Phase string

const (
	PhaseCompiling Phase = "compiling"
	PhaseExecuting Phase = "executing"
	PhaseCompleted Phase = "completed"
	PhaseNotFound  Phase = "not_found"
)
