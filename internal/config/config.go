// Package config loads and validates the relay configuration via viper.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/hollis-m/relay/internal/endpoint"
)

// Config represents the complete relay configuration.
type Config struct {
	Engine    EngineConfig      `mapstructure:"engine"`
	Pool      PoolConfig        `mapstructure:"pool"`
	Executors ExecutorsConfig   `mapstructure:"executors"`
	Logging   LoggingConfig     `mapstructure:"logging"`
	Watch     WatchConfig       `mapstructure:"watch"`
	Endpoints []endpoint.Config `mapstructure:"endpoints"`
}

// EngineConfig controls the delegation pipeline.
type EngineConfig struct {
	// MaxConcurrent is the plan-wide bound on simultaneous task executions,
	// shared across waves. 0 uses the default of 3; -1 means unlimited.
	MaxConcurrent int `mapstructure:"max_concurrent"`
	// PlanRetries is the number of extra planning attempts after a
	// validator rejection (default: 2)
	PlanRetries int `mapstructure:"plan_retries"`
	// MinTasks is the minimum number of tasks a plan may carry (default: 1)
	MinTasks int `mapstructure:"min_tasks"`
	// MaxTasks is the maximum number of tasks a plan may carry (default: 12)
	MaxTasks int `mapstructure:"max_tasks"`
}

// PoolConfig controls endpoint acquisition.
type PoolConfig struct {
	// AcquireTimeoutSeconds bounds each task's wait for a free endpoint (default: 30)
	AcquireTimeoutSeconds int `mapstructure:"acquire_timeout_seconds"`
}

// AcquireTimeout returns the acquire timeout as a time.Duration.
func (p *PoolConfig) AcquireTimeout() time.Duration {
	return time.Duration(p.AcquireTimeoutSeconds) * time.Second
}

// ExecutorsConfig controls which executor types are available. The enabled
// tags become the plan validator's whitelist.
type ExecutorsConfig struct {
	// Enabled lists the executor type tags to register (default: ["echo", "shell", "sleep"])
	Enabled []string `mapstructure:"enabled"`
}

// LoggingConfig controls structured logging behavior.
type LoggingConfig struct {
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Dir is the directory for log files. Empty logs to stderr.
	Dir string `mapstructure:"dir"`
}

// WatchConfig controls watch mode, where plan files dropped into a
// directory are executed as they appear.
type WatchConfig struct {
	// Dir is the directory to watch (default: "plans")
	Dir string `mapstructure:"dir"`
	// Pattern is a glob matched against file names (default: "*.{json,yaml,yml}")
	Pattern string `mapstructure:"pattern"`
	// SettleMs is how long a file must be quiet before it is picked up,
	// so half-written files are not parsed (default: 250)
	SettleMs int `mapstructure:"settle_ms"`
}

// Settle returns the settle delay as a time.Duration.
func (w *WatchConfig) Settle() time.Duration {
	return time.Duration(w.SettleMs) * time.Millisecond
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			MaxConcurrent: 3,
			PlanRetries:   2,
			MinTasks:      1,
			MaxTasks:      12,
		},
		Pool: PoolConfig{
			AcquireTimeoutSeconds: 30,
		},
		Executors: ExecutorsConfig{
			Enabled: []string{"echo", "shell", "sleep"},
		},
		Logging: LoggingConfig{
			Level: "info",
			Dir:   "",
		},
		Watch: WatchConfig{
			Dir:      "plans",
			Pattern:  "*.{json,yaml,yml}",
			SettleMs: 250,
		},
		Endpoints: []endpoint.Config{
			{Address: "localhost:8080", Capacity: 2},
		},
	}
}

// SetDefaults registers default values with viper.
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("engine.max_concurrent", defaults.Engine.MaxConcurrent)
	viper.SetDefault("engine.plan_retries", defaults.Engine.PlanRetries)
	viper.SetDefault("engine.min_tasks", defaults.Engine.MinTasks)
	viper.SetDefault("engine.max_tasks", defaults.Engine.MaxTasks)

	viper.SetDefault("pool.acquire_timeout_seconds", defaults.Pool.AcquireTimeoutSeconds)

	viper.SetDefault("executors.enabled", defaults.Executors.Enabled)

	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)

	viper.SetDefault("watch.dir", defaults.Watch.Dir)
	viper.SetDefault("watch.pattern", defaults.Watch.Pattern)
	viper.SetDefault("watch.settle_ms", defaults.Watch.SettleMs)

	viper.SetDefault("endpoints", defaults.Endpoints)
}

// Load reads the configuration from viper into a Config struct and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "relay")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".relay"
	}
	return filepath.Join(home, ".config", "relay")
}

// ConfigFile returns the path to the config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
