package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/judgecluster/judgecluster/pkg/models"
)

// Sentinel errors for the submit command.
var (
	ErrUnsupportedFileExt = errors.New("unsupported file extension")
	ErrJobFailed          = errors.New("job did not complete successfully")
)

var submitCmd = &cobra.Command{
	Use:   "submit <file>",
	Short: "Submit a source file to the cluster and wait for its result",
	Long: `Submit reads a source file, detects its language from the
extension, and submits it to the judgecluster master along with one or
more test cases. It then polls /status until the job completes.`,
	Example: `  # Submit a C++ file with one inline test case
  judgectl submit mycode.cpp --test "case1::expected output"

  # Submit with test case input and expected output from files
  judgectl submit mycode.cpp --test "case1:@input.txt:@expected.txt"`,
	Args: cobra.ExactArgs(1),
	RunE: runSubmit,
}

var (
	submitLanguage string
	submitTests    []string
	submitTimeout  int
	submitWait     bool
)

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVar(&submitLanguage, "language", "", "override the language detected from the file extension")
	submitCmd.Flags().StringArrayVar(&submitTests, "test", nil, "test case as id:input:expected_output (prefix input/expected with @ to read from a file); repeatable")
	submitCmd.Flags().IntVar(&submitTimeout, "timeout", 60, "seconds to wait for the job to complete")
	submitCmd.Flags().BoolVar(&submitWait, "wait", true, "poll /status until the job reaches a terminal state")
}

func runSubmit(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	sourceCode, err := os.ReadFile(filePath)
	if err != nil {
		printError("failed to read file: %v", err)
		return err
	}

	language := models.Language(submitLanguage)
	if language == "" {
		language, err = detectLanguage(filePath)
		if err != nil {
			printError("%v", err)
			return err
		}
	}

	testCases, err := parseTestFlags(submitTests)
	if err != nil {
		printError("%v", err)
		return err
	}

	printVerbose(cmd, "Detected language: %s", language)
	printInfo(cmd, "Submitting %s (%d test case(s))...", filepath.Base(filePath), len(testCases))

	req := models.SubmissionRequest{
		Language:   language,
		SourceCode: string(sourceCode),
		TestCases:  testCases,
	}
	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		printError("%v", err)
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(submitTimeout)*time.Second)
	defer cancel()

	c := masterClient(cmd)
	resp, err := c.SubmitJob(ctx, req)
	if err != nil {
		printError("submit failed: %v", err)
		return err
	}
	printInfo(cmd, "job accepted: %s", resp.JobID)

	if !submitWait {
		return nil
	}

	status, err := waitForCompletion(ctx, cmd, resp.JobID)
	if err != nil {
		printError("%v", err)
		return err
	}

	printStatus(cmd, status)

	for _, r := range status.Results {
		if r.Status != models.VerdictPassed {
			return ErrJobFailed
		}
	}
	return nil
}

func waitForCompletion(ctx context.Context, cmd *cobra.Command, jobID string) (*models.StatusResponse, error) {
	c := masterClient(cmd)
	for {
		status, err := c.GetStatus(ctx, jobID)
		if err != nil {
			return nil, fmt.Errorf("fetching status: %w", err)
		}
		printVerbose(cmd, "job %s: %s", jobID, status.State)
		if status.State == models.PhaseCompleted {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("timed out waiting for job %s", jobID)
		case <-time.After(500 * time.Millisecond):
		}
	}
}

func printStatus(cmd *cobra.Command, status *models.StatusResponse) {
	if status.CompilerOutput != "" && !isQuiet(cmd) {
		fmt.Println("\n--- Compiler output ---")
		fmt.Println(status.CompilerOutput)
	}
	if status.Error != "" {
		printError("%s", status.Error)
	}
	for _, r := range status.Results {
		printInfo(cmd, "%-16s %-8s %6dms", r.TestID, r.Status, r.TimeMs)
		if !isQuiet(cmd) && (r.Stdout != "" || r.Stderr != "") {
			if r.Stdout != "" {
				fmt.Println("  stdout:", r.Stdout)
			}
			if r.Stderr != "" {
				fmt.Println("  stderr:", r.Stderr)
			}
		}
	}
}

// parseTestFlags turns --test id:input:expected (with optional @file
// references) into TestCase values.
func parseTestFlags(raw []string) ([]models.TestCase, error) {
	cases := make([]models.TestCase, 0, len(raw))
	for _, spec := range raw {
		parts := strings.SplitN(spec, ":", 3)
		if len(parts) == 0 || parts[0] == "" {
			return nil, fmt.Errorf("invalid --test %q: expected id:input:expected_output", spec)
		}

		tc := models.TestCase{ID: parts[0]}
		if len(parts) > 1 {
			input, err := resolveTestField(parts[1])
			if err != nil {
				return nil, err
			}
			tc.Input = input
		}
		if len(parts) > 2 {
			expected, err := resolveTestField(parts[2])
			if err != nil {
				return nil, err
			}
			tc.ExpectedOutput = expected
		}
		cases = append(cases, tc)
	}
	return cases, nil
}

func resolveTestField(field string) (string, error) {
	if strings.HasPrefix(field, "@") {
		data, err := os.ReadFile(field[1:])
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", field[1:], err)
		}
		return string(data), nil
	}
	return field, nil
}

// detectLanguage detects the programming language from file extension.
func detectLanguage(filePath string) (models.Language, error) {
	ext := filepath.Ext(filePath)

	switch ext {
	case ".cpp", ".cc", ".cxx", ".c++":
		return models.LanguageCpp, nil
	case ".c":
		return models.LanguageC, nil
	case ".go":
		return models.LanguageGo, nil
	case ".rs":
		return models.LanguageRust, nil
	case ".java":
		return models.LanguageJava, nil
	case ".py":
		return models.LanguagePython, nil
	case ".js":
		return models.LanguageJavaScript, nil
	case ".rb":
		return models.LanguageRuby, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileExt, ext)
	}
}
