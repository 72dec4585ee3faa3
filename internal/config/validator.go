package config

import (
	"fmt"
	"slices"
	"strings"

	"github.com/gobwas/glob"

	"github.com/hollis-m/relay/internal/logging"
)

// ValidationError represents a single validation failure.
type ValidationError struct {
	Field   string // The config field path (e.g., "engine.max_concurrent")
	Value   any    // The invalid value
	Message string // Human-readable error description
}

// Error implements the error interface for ValidationError.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got: %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of validation errors.
type ValidationErrors []ValidationError

// Error implements the error interface for ValidationErrors.
func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return ""
	}
	if len(e) == 1 {
		return e[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d validation errors:\n", len(e)))
	for i, err := range e {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}

// Validate checks the Config for invalid values and returns all validation
// errors found.
func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	errors = append(errors, c.validateEngine()...)
	errors = append(errors, c.validatePool()...)
	errors = append(errors, c.validateExecutors()...)
	errors = append(errors, c.validateLogging()...)
	errors = append(errors, c.validateWatch()...)
	errors = append(errors, c.validateEndpoints()...)

	return errors
}

// validateEngine validates the EngineConfig.
func (c *Config) validateEngine() []ValidationError {
	var errors []ValidationError

	if c.Engine.MaxConcurrent < -1 {
		errors = append(errors, ValidationError{
			Field:   "engine.max_concurrent",
			Value:   c.Engine.MaxConcurrent,
			Message: "must be positive, 0 for the default, or -1 for unlimited",
		})
	}

	const maxConcurrentLimit = 100
	if c.Engine.MaxConcurrent > maxConcurrentLimit {
		errors = append(errors, ValidationError{
			Field:   "engine.max_concurrent",
			Value:   c.Engine.MaxConcurrent,
			Message: fmt.Sprintf("exceeds maximum of %d", maxConcurrentLimit),
		})
	}

	if c.Engine.PlanRetries < 0 {
		errors = append(errors, ValidationError{
			Field:   "engine.plan_retries",
			Value:   c.Engine.PlanRetries,
			Message: "must be non-negative (0 disables retries)",
		})
	}

	const maxPlanRetries = 10
	if c.Engine.PlanRetries > maxPlanRetries {
		errors = append(errors, ValidationError{
			Field:   "engine.plan_retries",
			Value:   c.Engine.PlanRetries,
			Message: fmt.Sprintf("exceeds maximum of %d", maxPlanRetries),
		})
	}

	if c.Engine.MinTasks < 1 {
		errors = append(errors, ValidationError{
			Field:   "engine.min_tasks",
			Value:   c.Engine.MinTasks,
			Message: "must be at least 1",
		})
	}
	if c.Engine.MaxTasks < c.Engine.MinTasks {
		errors = append(errors, ValidationError{
			Field:   "engine.max_tasks",
			Value:   c.Engine.MaxTasks,
			Message: fmt.Sprintf("must be at least min_tasks (%d)", c.Engine.MinTasks),
		})
	}

	return errors
}

// validatePool validates the PoolConfig.
func (c *Config) validatePool() []ValidationError {
	var errors []ValidationError

	if c.Pool.AcquireTimeoutSeconds <= 0 {
		errors = append(errors, ValidationError{
			Field:   "pool.acquire_timeout_seconds",
			Value:   c.Pool.AcquireTimeoutSeconds,
			Message: "must be positive",
		})
	}

	const maxAcquireTimeout = 3600
	if c.Pool.AcquireTimeoutSeconds > maxAcquireTimeout {
		errors = append(errors, ValidationError{
			Field:   "pool.acquire_timeout_seconds",
			Value:   c.Pool.AcquireTimeoutSeconds,
			Message: fmt.Sprintf("exceeds maximum of %d seconds", maxAcquireTimeout),
		})
	}

	return errors
}

// validateExecutors validates the ExecutorsConfig.
func (c *Config) validateExecutors() []ValidationError {
	var errors []ValidationError

	if len(c.Executors.Enabled) == 0 {
		errors = append(errors, ValidationError{
			Field:   "executors.enabled",
			Value:   c.Executors.Enabled,
			Message: "at least one executor type is required",
		})
	}

	seen := make(map[string]bool)
	for i, tag := range c.Executors.Enabled {
		fieldName := fmt.Sprintf("executors.enabled[%d]", i)
		if strings.TrimSpace(tag) == "" {
			errors = append(errors, ValidationError{
				Field:   fieldName,
				Value:   tag,
				Message: "executor type tag cannot be empty",
			})
			continue
		}
		if seen[tag] {
			errors = append(errors, ValidationError{
				Field:   fieldName,
				Value:   tag,
				Message: "duplicate executor type",
			})
		}
		seen[tag] = true
	}

	return errors
}

// validateLogging validates the LoggingConfig.
func (c *Config) validateLogging() []ValidationError {
	var errors []ValidationError

	// parseLevel accepts any case, so validation does too.
	if c.Logging.Level != "" && !slices.Contains(logging.ValidLevels(), strings.ToUpper(c.Logging.Level)) {
		errors = append(errors, ValidationError{
			Field:   "logging.level",
			Value:   c.Logging.Level,
			Message: fmt.Sprintf("must be one of: %s", strings.Join(logging.ValidLevels(), ", ")),
		})
	}

	return errors
}

// validateWatch validates the WatchConfig.
func (c *Config) validateWatch() []ValidationError {
	var errors []ValidationError

	if c.Watch.Dir == "" {
		errors = append(errors, ValidationError{
			Field:   "watch.dir",
			Value:   c.Watch.Dir,
			Message: "cannot be empty",
		})
	}

	if c.Watch.Pattern == "" {
		errors = append(errors, ValidationError{
			Field:   "watch.pattern",
			Value:   c.Watch.Pattern,
			Message: "cannot be empty",
		})
	} else if _, err := glob.Compile(c.Watch.Pattern); err != nil {
		errors = append(errors, ValidationError{
			Field:   "watch.pattern",
			Value:   c.Watch.Pattern,
			Message: fmt.Sprintf("invalid glob pattern: %v", err),
		})
	}

	if c.Watch.SettleMs < 0 {
		errors = append(errors, ValidationError{
			Field:   "watch.settle_ms",
			Value:   c.Watch.SettleMs,
			Message: "must be non-negative",
		})
	}

	return errors
}

// validateEndpoints validates the endpoint list.
func (c *Config) validateEndpoints() []ValidationError {
	var errors []ValidationError

	if len(c.Endpoints) == 0 {
		errors = append(errors, ValidationError{
			Field:   "endpoints",
			Value:   c.Endpoints,
			Message: "at least one endpoint is required",
		})
	}

	seen := make(map[string]bool)
	for i, ep := range c.Endpoints {
		fieldName := fmt.Sprintf("endpoints[%d]", i)
		if strings.TrimSpace(ep.Address) == "" {
			errors = append(errors, ValidationError{
				Field:   fieldName + ".address",
				Value:   ep.Address,
				Message: "address cannot be empty",
			})
			continue
		}
		if seen[ep.Address] {
			errors = append(errors, ValidationError{
				Field:   fieldName + ".address",
				Value:   ep.Address,
				Message: "duplicate endpoint address",
			})
		}
		seen[ep.Address] = true

		if ep.Capacity < 0 {
			errors = append(errors, ValidationError{
				Field:   fieldName + ".capacity",
				Value:   ep.Capacity,
				Message: "must be non-negative (0 uses the default of 1)",
			})
		}

		const maxCapacity = 1000
		if ep.Capacity > maxCapacity {
			errors = append(errors, ValidationError{
				Field:   fieldName + ".capacity",
				Value:   ep.Capacity,
				Message: fmt.Sprintf("exceeds maximum of %d", maxCapacity),
			})
		}
	}

	return errors
}
