package sandbox

import (
	"testing"

	"github.com/judgecluster/judgecluster/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestClassifyVerdictPrecedence(t *testing.T) {
	cases := []struct {
		name     string
		timedOut bool
		exitCode int
		stdout   string
		stderr   string
		expected string
		want     models.Verdict
	}{
		{"timeout wins over everything", true, 137, "Killed", "", "x", models.VerdictTLE},
		{"oom exit code", false, 137, "", "", "x", models.VerdictMLE},
		{"oom killed marker in stdout", false, 0, "Killed", "", "x", models.VerdictMLE},
		{"oom marker in stderr", false, 0, "", "Out of memory", "x", models.VerdictMLE},
		{"nonzero exit is runtime error", false, 1, "anything", "", "anything", models.VerdictRE},
		{"matching trimmed output passes", false, 0, "42\n", "", "42", models.VerdictPassed},
		{"mismatched output fails", false, 0, "43", "", "42", models.VerdictFailed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ClassifyVerdict(tc.timedOut, tc.exitCode, tc.stdout, tc.stderr, tc.expected)
			assert.Equal(t, tc.want, got)
		})
	}
}
