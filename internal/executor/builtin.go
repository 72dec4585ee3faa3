package executor

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/hollis-m/relay/internal/errors"
)

// Built-in executor type tags.
const (
	TypeEcho  = "echo"
	TypeShell = "shell"
	TypeSleep = "sleep"
)

// NewDefaultRegistry returns a registry with the built-in executors
// registered. Embedders replace or extend these with real capabilities.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	_ = r.Register(TypeEcho, Func(Echo))
	_ = r.Register(TypeShell, Func(Shell))
	_ = r.Register(TypeSleep, Func(Sleep))
	return r
}

// Echo returns the task description unchanged. Useful for dry runs and
// demos where the graph shape matters more than the work.
func Echo(_ context.Context, req Request) (string, error) {
	return req.Description, nil
}

// Shell runs the task description as a shell command and returns its
// combined output.
func Shell(ctx context.Context, req Request) (string, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", req.Description)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", errors.NewTaskError(
			fmt.Sprintf("%v: %s", err, strings.TrimSpace(string(out))),
			errors.ErrTaskExecution).WithTaskID(req.TaskID).WithExecutorType(TypeShell)
	}
	return strings.TrimSpace(string(out)), nil
}

// Sleep pauses for the duration given in the task description (e.g. "250ms"),
// defaulting to one second. Used to exercise concurrency behavior.
func Sleep(ctx context.Context, req Request) (string, error) {
	d := time.Second
	if parsed, err := time.ParseDuration(strings.TrimSpace(req.Description)); err == nil {
		d = parsed
	}

	select {
	case <-time.After(d):
		return fmt.Sprintf("slept %s", d), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
