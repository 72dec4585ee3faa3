package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/hollis-m/relay/internal/plan"
	"github.com/hollis-m/relay/internal/scheduler"
)

var validateCmd = &cobra.Command{
	Use:   "validate <plan-file>",
	Short: "Validate a plan file without executing it",
	Long: `Parse the plan, run the full validation pipeline, and print the
execution order the scheduler would use.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.logger.Close()

	p, err := plan.ParseFile(args[0])
	if err != nil {
		return err
	}

	validator := plan.NewValidator(a.registry.Types()).
		WithTaskBounds(a.cfg.Engine.MinTasks, a.cfg.Engine.MaxTasks)
	if err := validator.Validate(p); err != nil {
		return err
	}

	order := scheduler.TopologicalOrder(p)

	cmd.Printf("plan %s is valid (%d tasks)\n", p.ID, len(p.Tasks))
	cmd.Printf("execution order: %s\n", strings.Join(order, " -> "))
	return nil
}
