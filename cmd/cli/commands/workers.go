package commands

import (
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var workersCmd = &cobra.Command{
	Use:     "workers",
	Short:   "List workers currently connected to the cluster",
	Example: `  judgectl workers`,
	RunE:    runWorkers,
}

func init() {
	rootCmd.AddCommand(workersCmd)
}

func runWorkers(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := masterClient(cmd)
	resp, err := c.GetWorkers(ctx)
	if err != nil {
		printError("%v", err)
		return err
	}

	if len(resp.Workers) == 0 {
		printInfo(cmd, "no workers connected")
		return nil
	}

	for _, w := range resp.Workers {
		printInfo(cmd, "%-38s cpu=%5.1f%% ram=%d/%dMB active=%d tags=%s",
			w.ID, w.CPULoadPercent, w.RAMUsageMB, w.TotalRAMMB, w.ActiveTasks, strings.Join(w.Tags, ","))
	}
	return nil
}
