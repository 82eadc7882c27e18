package scheduler

import (
	"time"

	"github.com/smallbiznis/fixdesk/internal/config"
)

// Config controls job schedules and batch sizes.
type Config struct {
	OverdueSpec    string
	BatchSize      int
	JobTimeout     time.Duration
	JobLockTimeout time.Duration
}

func DefaultConfig() Config {
	return Config{
		OverdueSpec:    "@every 5m",
		BatchSize:      200,
		JobTimeout:     30 * time.Second,
		JobLockTimeout: time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.OverdueSpec == "" {
		c.OverdueSpec = defaults.OverdueSpec
	}
	if c.BatchSize <= 0 {
		c.BatchSize = defaults.BatchSize
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaults.JobTimeout
	}
	if c.JobLockTimeout <= 0 {
		c.JobLockTimeout = defaults.JobLockTimeout
	}
	return c
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		OverdueSpec: cfg.Scheduler.OverdueSpec,
		BatchSize:   cfg.Scheduler.OverdueBatchSize,
	}.withDefaults()
}
