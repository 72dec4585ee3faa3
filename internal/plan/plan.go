// Package plan defines the task-graph specification produced by a planning
// collaborator and the validator that accepts or rejects it before any task
// entity is created.
package plan

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// TaskSpec is a single task specification inside a plan.
type TaskSpec struct {
	ID           string   `json:"id" yaml:"id"`
	Description  string   `json:"description" yaml:"description"`
	ExecutorType string   `json:"executor_type" yaml:"executor_type"`
	DependsOn    []string `json:"depends_on,omitempty" yaml:"depends_on,omitempty"`
}

// Plan is the proposed task graph. It is immutable after validation.
type Plan struct {
	ID        string     `json:"id,omitempty" yaml:"id,omitempty"`
	Objective string     `json:"objective,omitempty" yaml:"objective,omitempty"`
	Tasks     []TaskSpec `json:"tasks" yaml:"tasks"`
	CreatedAt time.Time  `json:"created_at,omitempty" yaml:"created_at,omitempty"`
}

// TaskIDs returns the plan's task IDs in plan order.
func (p *Plan) TaskIDs() []string {
	ids := make([]string, len(p.Tasks))
	for i, t := range p.Tasks {
		ids[i] = t.ID
	}
	return ids
}

// Task returns the task spec with the given ID, or nil if not present.
func (p *Plan) Task(id string) *TaskSpec {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			return &p.Tasks[i]
		}
	}
	return nil
}

// Parse decodes a plan from JSON or YAML bytes. JSON is tried first since
// plans produced by the planner are JSON; YAML covers hand-written plan files.
func Parse(data []byte) (*Plan, error) {
	var p Plan
	if jsonErr := json.Unmarshal(data, &p); jsonErr == nil {
		return &p, nil
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan: %w", err)
	}
	return &p, nil
}

// ParseFile reads and decodes a plan file. The extension selects the
// format: .json is JSON, anything else is YAML.
func ParseFile(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading plan file: %w", err)
	}

	var p Plan
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("parsing plan file %s: %w", path, err)
		}
		return &p, nil
	}
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parsing plan file %s: %w", path, err)
	}
	return &p, nil
}
