package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig holds configuration for the linsched server.
type ServerConfig struct {
	Addr      string `yaml:"addr"`       // Listen address (default ":8080")
	LogLevel  string `yaml:"log_level"`  // Log level: debug, info, warn, error
	LogFormat string `yaml:"log_format"` // Log format: text, json
	LogFile   string `yaml:"log_file"`   // Optional JSON log file, written alongside stderr
	DBPath    string `yaml:"db_path"`    // SQLite database path (default ~/.linsched/linsched.db, ":memory:" for testing)

	Scheduler SchedulerConfig `yaml:"scheduler"`

	// SubscriberBuffer is the per-observer event buffer.
	SubscriberBuffer int `yaml:"subscriber_buffer"`

	// ScenarioSizes overrides the dimension of named scenarios.
	ScenarioSizes map[string]int `yaml:"scenario_sizes"`

	// ShutdownTimeout bounds graceful HTTP shutdown.
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// SchedulerConfig holds dispatch tuning.
type SchedulerConfig struct {
	Quantum     time.Duration `yaml:"quantum"`
	MinStepCost time.Duration `yaml:"min_step_cost"`
}

// DefaultServerConfig returns sensible defaults.
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		Addr:      ":8080",
		LogLevel:  "info",
		LogFormat: "text",
		Scheduler: SchedulerConfig{
			Quantum:     10 * time.Millisecond,
			MinStepCost: time.Millisecond,
		},
		SubscriberBuffer: 64,
		ScenarioSizes: map[string]int{
			"simple":   3,
			"medio":    20,
			"complejo": 80,
		},
		ShutdownTimeout: 10 * time.Second,
	}
}

// LoadFile overlays the YAML file at path onto cfg. Keys absent from the
// file keep their current values.
func LoadFile(path string, cfg *ServerConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// Validate reports every invalid setting.
func (c ServerConfig) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.Scheduler.Quantum <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.quantum must be positive, got %s", c.Scheduler.Quantum))
	}
	if c.Scheduler.MinStepCost <= 0 {
		errs = append(errs, fmt.Errorf("scheduler.min_step_cost must be positive, got %s", c.Scheduler.MinStepCost))
	}
	if c.Scheduler.MinStepCost > c.Scheduler.Quantum {
		errs = append(errs, errors.New("scheduler.min_step_cost must not exceed scheduler.quantum"))
	}
	if c.SubscriberBuffer <= 0 {
		errs = append(errs, fmt.Errorf("subscriber_buffer must be positive, got %d", c.SubscriberBuffer))
	}
	for name, n := range c.ScenarioSizes {
		if n <= 0 {
			errs = append(errs, fmt.Errorf("scenario_sizes.%s must be positive, got %d", name, n))
		}
	}
	return errors.Join(errs...)
}
