package config

import (
	"strings"
	"testing"

	"github.com/hollis-m/relay/internal/endpoint"
)

func TestValidationError_Error(t *testing.T) {
	err := ValidationError{
		Field:   "engine.max_concurrent",
		Value:   -5,
		Message: "must be positive, or -1 for unlimited",
	}

	expected := "engine.max_concurrent: must be positive, or -1 for unlimited (got: -5)"
	if err.Error() != expected {
		t.Errorf("Error() = %q, want %q", err.Error(), expected)
	}
}

func TestValidationErrors_Error(t *testing.T) {
	t.Run("empty errors", func(t *testing.T) {
		var errs ValidationErrors
		if errs.Error() != "" {
			t.Errorf("Error() for empty = %q, want empty string", errs.Error())
		}
	})

	t.Run("single error", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "watch.dir", Value: "", Message: "cannot be empty"},
		}
		expected := "watch.dir: cannot be empty (got: )"
		if errs.Error() != expected {
			t.Errorf("Error() = %q, want %q", errs.Error(), expected)
		}
	})

	t.Run("multiple errors", func(t *testing.T) {
		errs := ValidationErrors{
			{Field: "field1", Value: "bad", Message: "is invalid"},
			{Field: "field2", Value: -1, Message: "must be positive"},
		}
		result := errs.Error()
		if !strings.Contains(result, "2 validation errors") {
			t.Errorf("Error() should mention 2 errors: %s", result)
		}
		if !strings.Contains(result, "field1") || !strings.Contains(result, "field2") {
			t.Errorf("Error() should mention both fields: %s", result)
		}
	})
}

func TestConfig_Validate_DefaultConfig(t *testing.T) {
	cfg := Default()
	errs := cfg.Validate()
	if len(errs) != 0 {
		t.Errorf("Default config should be valid, got %d errors: %v", len(errs), errs)
	}
}

func hasFieldError(errs []ValidationError, field string) bool {
	for _, err := range errs {
		if err.Field == field {
			return true
		}
	}
	return false
}

func TestConfig_Validate_Engine(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*Config)
		field    string
		hasError bool
	}{
		{"unlimited concurrency", func(c *Config) { c.Engine.MaxConcurrent = -1 }, "engine.max_concurrent", false},
		{"zero concurrency uses default", func(c *Config) { c.Engine.MaxConcurrent = 0 }, "engine.max_concurrent", false},
		{"below unlimited sentinel", func(c *Config) { c.Engine.MaxConcurrent = -2 }, "engine.max_concurrent", true},
		{"excessive concurrency", func(c *Config) { c.Engine.MaxConcurrent = 500 }, "engine.max_concurrent", true},
		{"zero retries is valid", func(c *Config) { c.Engine.PlanRetries = 0 }, "engine.plan_retries", false},
		{"negative retries", func(c *Config) { c.Engine.PlanRetries = -1 }, "engine.plan_retries", true},
		{"excessive retries", func(c *Config) { c.Engine.PlanRetries = 50 }, "engine.plan_retries", true},
		{"zero min_tasks", func(c *Config) { c.Engine.MinTasks = 0 }, "engine.min_tasks", true},
		{"max below min", func(c *Config) { c.Engine.MinTasks = 5; c.Engine.MaxTasks = 3 }, "engine.max_tasks", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			errs := cfg.Validate()
			if got := hasFieldError(errs, tt.field); got != tt.hasError {
				t.Errorf("Validate(): error on %s = %v, want %v (all: %v)", tt.field, got, tt.hasError, errs)
			}
		})
	}
}

func TestConfig_Validate_Pool(t *testing.T) {
	t.Run("zero timeout", func(t *testing.T) {
		cfg := Default()
		cfg.Pool.AcquireTimeoutSeconds = 0
		if !hasFieldError(cfg.Validate(), "pool.acquire_timeout_seconds") {
			t.Error("expected error for zero acquire timeout")
		}
	})

	t.Run("excessive timeout", func(t *testing.T) {
		cfg := Default()
		cfg.Pool.AcquireTimeoutSeconds = 7200
		if !hasFieldError(cfg.Validate(), "pool.acquire_timeout_seconds") {
			t.Error("expected error for excessive acquire timeout")
		}
	})
}

func TestConfig_Validate_Executors(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		cfg := Default()
		cfg.Executors.Enabled = nil
		if !hasFieldError(cfg.Validate(), "executors.enabled") {
			t.Error("expected error for empty executor list")
		}
	})

	t.Run("blank tag", func(t *testing.T) {
		cfg := Default()
		cfg.Executors.Enabled = []string{"echo", "  "}
		if !hasFieldError(cfg.Validate(), "executors.enabled[1]") {
			t.Error("expected error for blank executor tag")
		}
	})

	t.Run("duplicate tag", func(t *testing.T) {
		cfg := Default()
		cfg.Executors.Enabled = []string{"echo", "echo"}
		if !hasFieldError(cfg.Validate(), "executors.enabled[1]") {
			t.Error("expected error for duplicate executor tag")
		}
	})
}

func TestConfig_Validate_Logging(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		hasError bool
	}{
		{"valid debug", "debug", false},
		{"valid info", "info", false},
		{"valid warn", "warn", false},
		{"valid error", "error", false},
		{"empty is valid", "", false},
		{"invalid level", "trace", true},
		{"uppercase", "INFO", false},
		{"mixed case", "Warn", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Logging.Level = tt.level
			if got := hasFieldError(cfg.Validate(), "logging.level"); got != tt.hasError {
				t.Errorf("Validate() for level=%q: hasError=%v, want %v", tt.level, got, tt.hasError)
			}
		})
	}
}

func TestConfig_Validate_Watch(t *testing.T) {
	t.Run("empty dir", func(t *testing.T) {
		cfg := Default()
		cfg.Watch.Dir = ""
		if !hasFieldError(cfg.Validate(), "watch.dir") {
			t.Error("expected error for empty watch dir")
		}
	})

	t.Run("invalid glob", func(t *testing.T) {
		cfg := Default()
		cfg.Watch.Pattern = "[unclosed"
		if !hasFieldError(cfg.Validate(), "watch.pattern") {
			t.Error("expected error for invalid glob pattern")
		}
	})

	t.Run("negative settle", func(t *testing.T) {
		cfg := Default()
		cfg.Watch.SettleMs = -10
		if !hasFieldError(cfg.Validate(), "watch.settle_ms") {
			t.Error("expected error for negative settle delay")
		}
	})
}

func TestConfig_Validate_Endpoints(t *testing.T) {
	t.Run("empty list", func(t *testing.T) {
		cfg := Default()
		cfg.Endpoints = nil
		if !hasFieldError(cfg.Validate(), "endpoints") {
			t.Error("expected error for empty endpoint list")
		}
	})

	t.Run("blank address", func(t *testing.T) {
		cfg := Default()
		cfg.Endpoints = []endpoint.Config{{Address: "", Capacity: 2}}
		if !hasFieldError(cfg.Validate(), "endpoints[0].address") {
			t.Error("expected error for blank endpoint address")
		}
	})

	t.Run("duplicate address", func(t *testing.T) {
		cfg := Default()
		cfg.Endpoints = []endpoint.Config{
			{Address: "localhost:8080", Capacity: 2},
			{Address: "localhost:8080", Capacity: 4},
		}
		if !hasFieldError(cfg.Validate(), "endpoints[1].address") {
			t.Error("expected error for duplicate endpoint address")
		}
	})

	t.Run("negative capacity", func(t *testing.T) {
		cfg := Default()
		cfg.Endpoints = []endpoint.Config{{Address: "localhost:8080", Capacity: -1}}
		if !hasFieldError(cfg.Validate(), "endpoints[0].capacity") {
			t.Error("expected error for negative capacity")
		}
	})

	t.Run("zero capacity uses default", func(t *testing.T) {
		cfg := Default()
		cfg.Endpoints = []endpoint.Config{{Address: "localhost:8080", Capacity: 0}}
		if hasFieldError(cfg.Validate(), "endpoints[0].capacity") {
			t.Error("zero capacity should be valid")
		}
	})
}
