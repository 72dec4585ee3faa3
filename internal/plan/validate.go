package plan

import (
	"fmt"
	"strings"

	"github.com/hollis-m/relay/internal/errors"
)

// Default bounds on the number of tasks in a plan.
const (
	DefaultMinTasks = 1
	DefaultMaxTasks = 12
)

// Validator checks a proposed plan before any task entity is created.
// It performs no mutation and has no side effects; on rejection it returns
// a *errors.PlanError whose Reason is fed back to the planner.
type Validator struct {
	minTasks      int
	maxTasks      int
	executorTypes map[string]bool
	typeList      []string // preserves whitelist order for messages
}

// NewValidator creates a Validator with the given executor-type whitelist
// and default task count bounds.
func NewValidator(executorTypes []string) *Validator {
	v := &Validator{
		minTasks:      DefaultMinTasks,
		maxTasks:      DefaultMaxTasks,
		executorTypes: make(map[string]bool, len(executorTypes)),
		typeList:      executorTypes,
	}
	for _, t := range executorTypes {
		v.executorTypes[t] = true
	}
	return v
}

// WithTaskBounds overrides the task count bounds. Values below 1 keep
// the defaults.
func (v *Validator) WithTaskBounds(minTasks, maxTasks int) *Validator {
	if minTasks >= 1 {
		v.minTasks = minTasks
	}
	if maxTasks >= 1 {
		v.maxTasks = maxTasks
	}
	return v
}

// Validate runs the checks in order, short-circuiting on the first failure:
// structure (non-empty, count bound, required fields), executor-type
// whitelist, dependency cycles, unknown dependencies.
func (v *Validator) Validate(p *Plan) error {
	if p == nil {
		return errors.NewPlanError("plan is nil", errors.ErrPlanStructure)
	}

	if len(p.Tasks) == 0 {
		return errors.NewPlanError("plan has no tasks", errors.ErrPlanStructure)
	}
	if len(p.Tasks) < v.minTasks || len(p.Tasks) > v.maxTasks {
		return errors.NewPlanError(
			fmt.Sprintf("plan has %d tasks, must have between %d and %d",
				len(p.Tasks), v.minTasks, v.maxTasks),
			errors.ErrPlanStructure)
	}

	seen := make(map[string]bool, len(p.Tasks))
	for i, t := range p.Tasks {
		if strings.TrimSpace(t.ID) == "" {
			return errors.NewPlanError(
				fmt.Sprintf("task at index %d has no id", i),
				errors.ErrPlanStructure)
		}
		if seen[t.ID] {
			return errors.NewPlanError(
				fmt.Sprintf("duplicate task id %q", t.ID),
				errors.ErrPlanStructure).WithTaskID(t.ID)
		}
		seen[t.ID] = true

		if strings.TrimSpace(t.Description) == "" {
			return errors.NewPlanError(
				fmt.Sprintf("task %q has no description", t.ID),
				errors.ErrPlanStructure).WithTaskID(t.ID)
		}
		if strings.TrimSpace(t.ExecutorType) == "" {
			return errors.NewPlanError(
				fmt.Sprintf("task %q has no executor type", t.ID),
				errors.ErrPlanStructure).WithTaskID(t.ID)
		}
	}

	for _, t := range p.Tasks {
		if !v.executorTypes[t.ExecutorType] {
			return errors.NewPlanError(
				fmt.Sprintf("task %q uses executor type %q, valid types are: %s",
					t.ID, t.ExecutorType, strings.Join(v.typeList, ", ")),
				errors.ErrInvalidExecutorType).WithTaskID(t.ID)
		}
	}

	if cycle := DetectCycle(p); cycle != nil {
		return errors.NewPlanError(
			fmt.Sprintf("dependency cycle detected: %s", strings.Join(cycle, " -> ")),
			errors.ErrCyclicDependency).WithTaskID(cycle[0])
	}

	for _, t := range p.Tasks {
		for _, depID := range t.DependsOn {
			if !seen[depID] {
				return errors.NewPlanError(
					fmt.Sprintf("task %q depends on unknown task %q", t.ID, depID),
					errors.ErrUnknownDependency).WithTaskID(t.ID)
			}
		}
	}

	return nil
}

// DetectCycle reports a dependency cycle in the plan, returning the task IDs
// forming the cycle (first and last entries equal), or nil if the graph is
// acyclic. Depth-first traversal with a recursion stack: a back-edge into
// the stack signals a cycle.
func DetectCycle(p *Plan) []string {
	if p == nil {
		return nil
	}

	visited := make(map[string]bool)
	recStack := make(map[string]bool)
	parent := make(map[string]string)

	var dfs func(taskID string) []string
	dfs = func(taskID string) []string {
		visited[taskID] = true
		recStack[taskID] = true

		t := p.Task(taskID)
		if t == nil {
			recStack[taskID] = false
			return nil
		}

		for _, depID := range t.DependsOn {
			if !visited[depID] {
				parent[depID] = taskID
				if cycle := dfs(depID); cycle != nil {
					return cycle
				}
			} else if recStack[depID] {
				// Found a cycle - reconstruct it
				cycle := []string{depID}
				current := taskID
				for current != depID {
					cycle = append([]string{current}, cycle...)
					current = parent[current]
				}
				cycle = append([]string{depID}, cycle...)
				return cycle
			}
		}

		recStack[taskID] = false
		return nil
	}

	for _, t := range p.Tasks {
		if !visited[t.ID] {
			if cycle := dfs(t.ID); cycle != nil {
				return cycle
			}
		}
	}

	return nil
}
