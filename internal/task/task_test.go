package task

import (
	"encoding/json"
	"testing"

	"github.com/hollis-m/relay/internal/errors"
)

func TestStatus_IsTerminal(t *testing.T) {
	tests := []struct {
		status Status
		want   bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusFailed, true},
		{StatusBlocked, true},
	}

	for _, tt := range tests {
		if got := tt.status.IsTerminal(); got != tt.want {
			t.Errorf("%s.IsTerminal() = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestTask_HappyPathTransitions(t *testing.T) {
	tk := New("t1", "write the report", "shell", []string{"t0"})

	if tk.Status != StatusPending {
		t.Fatalf("new task status = %s, want pending", tk.Status)
	}
	if tk.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	if err := tk.Start("127.0.0.1:9090"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if tk.Status != StatusRunning {
		t.Errorf("status = %s, want running", tk.Status)
	}
	if tk.Endpoint != "127.0.0.1:9090" {
		t.Errorf("endpoint = %q", tk.Endpoint)
	}
	if tk.StartedAt == nil {
		t.Error("StartedAt not set")
	}

	if err := tk.Complete("done"); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if tk.Status != StatusCompleted {
		t.Errorf("status = %s, want completed", tk.Status)
	}
	if tk.Result != "done" {
		t.Errorf("result = %q", tk.Result)
	}
	if tk.CompletedAt == nil {
		t.Error("CompletedAt not set")
	}
	if tk.Duration() < 0 {
		t.Errorf("Duration() = %v", tk.Duration())
	}
}

func TestTask_FailFromRunning(t *testing.T) {
	tk := New("t1", "desc", "shell", nil)
	if err := tk.Start("ep"); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := tk.Fail("command exited 1"); err != nil {
		t.Fatalf("Fail: %v", err)
	}
	if tk.Status != StatusFailed {
		t.Errorf("status = %s, want failed", tk.Status)
	}
	if tk.Error != "command exited 1" {
		t.Errorf("error payload = %q", tk.Error)
	}
}

func TestTask_FailFromPending(t *testing.T) {
	// Acquire timeout fails a task that never started.
	tk := New("t1", "desc", "shell", nil)
	if err := tk.Fail("no endpoint available"); err != nil {
		t.Fatalf("Fail from pending: %v", err)
	}
	if tk.Status != StatusFailed {
		t.Errorf("status = %s, want failed", tk.Status)
	}
	if tk.StartedAt != nil {
		t.Error("StartedAt should remain nil for a task that never ran")
	}
}

func TestTask_BlockFromPending(t *testing.T) {
	tk := New("t1", "desc", "shell", []string{"t0"})
	if err := tk.Block(); err != nil {
		t.Fatalf("Block: %v", err)
	}
	if tk.Status != StatusBlocked {
		t.Errorf("status = %s, want blocked", tk.Status)
	}
	if tk.Result != "" || tk.Error != "" || tk.Endpoint != "" {
		t.Error("blocked task should carry no result, error, or endpoint")
	}
}

func TestTask_InvalidTransitions(t *testing.T) {
	completed := New("t1", "d", "shell", nil)
	_ = completed.Start("ep")
	_ = completed.Complete("ok")

	blocked := New("t2", "d", "shell", nil)
	_ = blocked.Block()

	tests := []struct {
		name string
		call func() error
	}{
		{"start a completed task", func() error { return completed.Start("ep") }},
		{"complete a completed task", func() error { return completed.Complete("again") }},
		{"fail a completed task", func() error { return completed.Fail("late") }},
		{"block a completed task", func() error { return completed.Block() }},
		{"start a blocked task", func() error { return blocked.Start("ep") }},
		{"complete a pending task", func() error { return New("t3", "d", "shell", nil).Complete("x") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.call()
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !errors.Is(err, errors.ErrInvalidTransition) {
				t.Errorf("error = %v, want ErrInvalidTransition", err)
			}
		})
	}
}

func TestTask_JSONRoundTrip(t *testing.T) {
	tk := New("t1", "summarize", "llm", []string{"t0", "t2"})
	_ = tk.Start("10.0.0.5:8000")
	_ = tk.Complete("the summary")

	data, err := json.Marshal(tk)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Task
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if decoded.ID != tk.ID {
		t.Errorf("ID = %q, want %q", decoded.ID, tk.ID)
	}
	if decoded.Status != StatusCompleted {
		t.Errorf("Status = %s, want completed", decoded.Status)
	}
	if len(decoded.DependsOn) != 2 || decoded.DependsOn[0] != "t0" || decoded.DependsOn[1] != "t2" {
		t.Errorf("DependsOn = %v", decoded.DependsOn)
	}
	if decoded.Result != "the summary" {
		t.Errorf("Result = %q", decoded.Result)
	}
	if decoded.Endpoint != "10.0.0.5:8000" {
		t.Errorf("Endpoint = %q", decoded.Endpoint)
	}
}

func TestTask_JSONRoundTrip_FailedTask(t *testing.T) {
	tk := New("t9", "doomed", "shell", nil)
	_ = tk.Start("ep-1")
	_ = tk.Fail("exit status 1")

	data, err := json.Marshal(tk)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded Task
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Status != StatusFailed {
		t.Errorf("Status = %s, want failed", decoded.Status)
	}
	if decoded.Error != "exit status 1" {
		t.Errorf("Error = %q", decoded.Error)
	}
	if decoded.Result != "" {
		t.Errorf("Result = %q, want empty", decoded.Result)
	}
}

func TestTask_Clone(t *testing.T) {
	tk := New("t1", "d", "shell", []string{"t0"})
	_ = tk.Start("ep")

	cp := tk.Clone()
	cp.DependsOn[0] = "mutated"
	*cp.StartedAt = cp.StartedAt.Add(1000)
	cp.Status = StatusFailed

	if tk.DependsOn[0] != "t0" {
		t.Error("Clone shares DependsOn backing array")
	}
	if tk.Status != StatusRunning {
		t.Error("Clone shares status")
	}
	if tk.StartedAt.Equal(*cp.StartedAt) {
		t.Error("Clone shares StartedAt pointer")
	}
}

func TestTask_DependsOnTask(t *testing.T) {
	tk := New("t3", "d", "shell", []string{"t1", "t2"})
	if !tk.DependsOnTask("t1") {
		t.Error("expected DependsOnTask(t1) = true")
	}
	if tk.DependsOnTask("t9") {
		t.Error("expected DependsOnTask(t9) = false")
	}
}

func TestNew_NilDependsOn(t *testing.T) {
	tk := New("t1", "d", "shell", nil)
	if tk.DependsOn == nil {
		t.Error("DependsOn should never be nil")
	}
}
