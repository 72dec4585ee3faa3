package plan

import (
	"os"
	"path/filepath"
	"testing"
)

const jsonPlan = `{
  "id": "p1",
  "objective": "ship the thing",
  "tasks": [
    {"id": "t1", "description": "first", "executor_type": "shell"},
    {"id": "t2", "description": "second", "executor_type": "llm", "depends_on": ["t1"]}
  ]
}`

const yamlPlan = `
id: p2
objective: ship the other thing
tasks:
  - id: t1
    description: first
    executor_type: shell
  - id: t2
    description: second
    executor_type: llm
    depends_on: [t1]
`

func TestParse_JSON(t *testing.T) {
	p, err := Parse([]byte(jsonPlan))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.ID != "p1" {
		t.Errorf("ID = %q, want p1", p.ID)
	}
	if len(p.Tasks) != 2 {
		t.Fatalf("len(Tasks) = %d, want 2", len(p.Tasks))
	}
	if p.Tasks[1].ExecutorType != "llm" {
		t.Errorf("Tasks[1].ExecutorType = %q", p.Tasks[1].ExecutorType)
	}
	if len(p.Tasks[1].DependsOn) != 1 || p.Tasks[1].DependsOn[0] != "t1" {
		t.Errorf("Tasks[1].DependsOn = %v", p.Tasks[1].DependsOn)
	}
}

func TestParse_YAML(t *testing.T) {
	p, err := Parse([]byte(yamlPlan))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if p.ID != "p2" {
		t.Errorf("ID = %q, want p2", p.ID)
	}
	if len(p.Tasks) != 2 {
		t.Fatalf("len(Tasks) = %d, want 2", len(p.Tasks))
	}
}

func TestParse_Garbage(t *testing.T) {
	if _, err := Parse([]byte("{{{not a plan")); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "plan.json")
	if err := os.WriteFile(jsonPath, []byte(jsonPlan), 0644); err != nil {
		t.Fatal(err)
	}
	yamlPath := filepath.Join(dir, "plan.yaml")
	if err := os.WriteFile(yamlPath, []byte(yamlPlan), 0644); err != nil {
		t.Fatal(err)
	}

	jp, err := ParseFile(jsonPath)
	if err != nil {
		t.Fatalf("ParseFile(json): %v", err)
	}
	if jp.ID != "p1" {
		t.Errorf("json plan ID = %q", jp.ID)
	}

	yp, err := ParseFile(yamlPath)
	if err != nil {
		t.Fatalf("ParseFile(yaml): %v", err)
	}
	if yp.ID != "p2" {
		t.Errorf("yaml plan ID = %q", yp.ID)
	}
}

func TestParseFile_Missing(t *testing.T) {
	if _, err := ParseFile("/does/not/exist.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestPlan_TaskLookup(t *testing.T) {
	p, err := Parse([]byte(jsonPlan))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if got := p.Task("t2"); got == nil || got.Description != "second" {
		t.Errorf("Task(t2) = %+v", got)
	}
	if got := p.Task("nope"); got != nil {
		t.Errorf("Task(nope) = %+v, want nil", got)
	}

	ids := p.TaskIDs()
	if len(ids) != 2 || ids[0] != "t1" || ids[1] != "t2" {
		t.Errorf("TaskIDs() = %v", ids)
	}
}
