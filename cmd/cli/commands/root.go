package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/judgecluster/judgecluster/cmd/tui/client"
)

// masterClient builds an API client pointed at the --master flag.
func masterClient(cmd *cobra.Command) *client.Client {
	base, _ := cmd.Flags().GetString("master")
	return client.NewClient(base)
}

var (
	// Version information (set by build flags).
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "judgectl",
	Short: "A client for the judgecluster distributed code judge",
	Long: `judgectl submits compile-and-run jobs to a judgecluster master
node and reports their results.

Each submission is compiled and executed against a set of test cases
inside the cluster's sandboxed workers; judgectl just talks to the
master's HTTP API.`,
	Version: version,
	Example: `  # Submit a C++ file with one test case
  judgectl submit mycode.cpp --test id1:@input.txt:@expected.txt

  # Check a job's status
  judgectl status <job_id>

  # List connected workers
  judgectl workers

  # Show version
  judgectl version`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Set custom version template
	rootCmd.SetVersionTemplate(fmt.Sprintf("judgectl version %s (commit: %s, built: %s)\n", version, commit, buildDate))

	// Global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "quiet mode (errors only)")
	rootCmd.PersistentFlags().String("master", "http://localhost:8080", "judgecluster master API base URL")
}

// isVerbose returns true if verbose flag is set.
func isVerbose(cmd *cobra.Command) bool {
	verbose, _ := cmd.Flags().GetBool("verbose")
	return verbose
}

// isQuiet returns true if quiet flag is set.
func isQuiet(cmd *cobra.Command) bool {
	quiet, _ := cmd.Flags().GetBool("quiet")
	return quiet
}

// printInfo prints informational messages (unless quiet mode).
func printInfo(cmd *cobra.Command, format string, args ...interface{}) {
	if !isQuiet(cmd) {
		fmt.Fprintf(os.Stdout, format+"\n", args...)
	}
}

// printVerbose prints verbose messages (only in verbose mode).
func printVerbose(cmd *cobra.Command, format string, args ...interface{}) {
	if isVerbose(cmd) {
		fmt.Fprintf(os.Stdout, "[VERBOSE] "+format+"\n", args...)
	}
}

// printError prints error messages.
func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
