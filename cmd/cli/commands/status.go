package commands

import (
	"context"
	"time"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:     "status <job_id>",
	Short:   "Fetch a job's current phase and results",
	Args:    cobra.ExactArgs(1),
	RunE:    runStatus,
	Example: `  judgectl status 3fa85f64-5717-4562-b3fc-2c963f66afa6`,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := masterClient(cmd)
	status, err := c.GetStatus(ctx, args[0])
	if err != nil {
		printError("%v", err)
		return err
	}

	printInfo(cmd, "job %s: %s", status.JobID, status.State)
	printStatus(cmd, status)
	return nil
}
