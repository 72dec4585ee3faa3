package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the effective configuration and endpoint pool",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Close()

	cmd.Printf("executors: %s\n", strings.Join(a.registry.Types(), ", "))
	cmd.Printf("max concurrent: %d\n", a.cfg.Engine.MaxConcurrent)
	cmd.Printf("plan retries: %d\n", a.cfg.Engine.PlanRetries)
	cmd.Printf("task bounds: %d-%d\n", a.cfg.Engine.MinTasks, a.cfg.Engine.MaxTasks)
	cmd.Printf("acquire timeout: %s\n\n", a.cfg.Pool.AcquireTimeout())

	snap := a.pool.Status()
	cmd.Printf("endpoints: %d (%d with spare capacity, %d/%d slots in use)\n",
		snap.Total, snap.Available, snap.TotalLoad, snap.TotalCapacity)
	for _, ep := range snap.Endpoints {
		cmd.Printf("  %-24s capacity %d\n", ep.Address, ep.Capacity)
	}
	return nil
}
