package cmd

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hollis-m/relay/internal/watch"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Execute plan files as they appear in the watch directory",
	Long: `Watch the configured directory and run every matching plan file as
it is dropped in. Files already in the directory are run first.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Close()

	runner := func(ctx context.Context, path string) {
		eng, err := a.newEngine(filePlanner{path: path, logger: a.logger})
		if err != nil {
			a.logger.Error("engine setup failed", "file", path, "error", err)
			return
		}

		result, err := eng.Run(ctx, "plan file "+path)
		if err != nil {
			a.logger.Error("plan run failed", "file", filepath.Base(path), "error", err)
			cmd.Printf("✗ %s: %v\n", filepath.Base(path), err)
			return
		}
		if result.Fallback {
			cmd.Printf("⚠ %s: answered by fallback\n", filepath.Base(path))
			return
		}
		cmd.Printf("✓ %s: %d completed, %d failed, %d blocked (%s)\n",
			filepath.Base(path), result.Completed, result.Failed, result.Blocked,
			result.Duration.Round(timeUnit))
	}

	w, err := watch.New(a.cfg.Watch.Dir, a.cfg.Watch.Pattern, runner,
		watch.WithLogger(a.logger), watch.WithSettle(a.cfg.Watch.Settle()))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd.Printf("watching %s for %s\n", a.cfg.Watch.Dir, a.cfg.Watch.Pattern)
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
