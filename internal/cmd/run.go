package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hollis-m/relay/internal/engine"
	"github.com/hollis-m/relay/internal/task"
	"github.com/hollis-m/relay/internal/tui"
)

// timeUnit is the rounding granularity for printed durations.
const timeUnit = time.Millisecond

var runMonitor bool

var runCmd = &cobra.Command{
	Use:   "run <plan-file>",
	Short: "Execute a plan file",
	Long: `Validate the plan, schedule its tasks into dependency waves, and
execute them against the configured endpoint pool. JSON and YAML plan
files are supported.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runMonitor, "monitor", false, "render a live TUI while the plan runs")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Close()

	planFile := args[0]
	eng, err := a.newEngine(filePlanner{path: planFile, logger: a.logger})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	request := "plan file " + planFile

	var result *engine.Result
	if runMonitor {
		monitor := tui.NewMonitor(request, a.bus, a.pool)
		result, err = monitor.Run(ctx, func(ctx context.Context) (*engine.Result, error) {
			return eng.Run(ctx, request)
		})
	} else {
		result, err = eng.Run(ctx, request)
	}
	if err != nil {
		return err
	}

	printResult(cmd, result)
	if result.Failed > 0 || result.Blocked > 0 {
		return fmt.Errorf("%d task(s) failed, %d blocked", result.Failed, result.Blocked)
	}
	return nil
}

func printResult(cmd *cobra.Command, result *engine.Result) {
	if result.Fallback {
		cmd.Printf("delegated execution abandoned, fallback answered:\n%s\n", result.Answer)
		cmd.Printf("\nduration: %s\n", result.Duration.Round(timeUnit))
		return
	}

	cmd.Printf("plan %s: %d completed, %d failed, %d blocked\n\n",
		result.PlanID, result.Completed, result.Failed, result.Blocked)

	for _, t := range result.Tasks {
		switch t.Status {
		case task.StatusCompleted:
			cmd.Printf("  ✓ %-14s %s\n", t.ID, t.Duration().Round(timeUnit))
			if t.Result != "" {
				cmd.Printf("      %s\n", t.Result)
			}
		case task.StatusFailed:
			cmd.Printf("  ✗ %-14s %s\n", t.ID, t.Error)
		case task.StatusBlocked:
			cmd.Printf("  ⊘ %-14s blocked by a failed dependency\n", t.ID)
		}
	}
	cmd.Printf("\nduration: %s\n", result.Duration.Round(timeUnit))
}
