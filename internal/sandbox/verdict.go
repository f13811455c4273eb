package sandbox

import (
	"strings"

	"github.com/judgecluster/judgecluster/pkg/models"
)

// ClassifyVerdict applies spec.md §4.1's precedence: TLE, then MLE, then
// RE, then an output comparison for PASSED/FAILED. Pure and Docker-free
// so it is unit-testable without a daemon.
func ClassifyVerdict(timedOut bool, exitCode int, stdout, stderr, expectedOutput string) models.Verdict {
	if timedOut {
		return models.VerdictTLE
	}
	if isOOM(exitCode, stdout, stderr) {
		return models.VerdictMLE
	}
	if exitCode != 0 {
		return models.VerdictRE
	}
	if strings.TrimSpace(stdout) == strings.TrimSpace(expectedOutput) {
		return models.VerdictPassed
	}
	return models.VerdictFailed
}

// isOOM detects the OOM killer: exit code 137 is 128+SIGKILL, and the
// "Killed"/"Out of memory" markers cover cases where the container
// runtime doesn't propagate the signal-derived exit code cleanly.
func isOOM(exitCode int, stdout, stderr string) bool {
	return exitCode == 137 ||
		strings.Contains(stdout, "Killed") ||
		strings.Contains(stderr, "Killed") ||
		strings.Contains(stderr, "Out of memory")
}
