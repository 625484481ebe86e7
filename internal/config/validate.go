package config

import (
	"errors"
	"fmt"
)

var validDateFormats = map[string]struct{}{
	"YYYY/MM/DD": {},
	"YYYY/MM":    {},
	"YYYY-MM-DD": {},
	"YYYY-MM":    {},
}

var validDuplicateHandling = map[string]struct{}{
	"rename":    {},
	"skip":      {},
	"overwrite": {},
}

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateFormats(); err != nil {
		return err
	}
	if err := c.validatePerformance(); err != nil {
		return err
	}
	if err := c.validateSafety(); err != nil {
		return err
	}
	if err := c.validateFallback(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateFormats() error {
	if _, ok := validDateFormats[c.DateFormat]; !ok {
		return fmt.Errorf("date_format must be one of YYYY/MM/DD, YYYY/MM, YYYY-MM-DD, YYYY-MM (got %q)", c.DateFormat)
	}
	if _, ok := validDuplicateHandling[c.Processing.DuplicateHandling]; !ok {
		return fmt.Errorf("processing.duplicate_handling must be rename, skip, or overwrite (got %q)", c.Processing.DuplicateHandling)
	}
	if len(c.SupportedExtensions) == 0 {
		return errors.New("supported_extensions must include at least one extension")
	}
	return nil
}

func (c *Config) validatePerformance() error {
	if err := ensurePositiveMap(map[string]int{
		"performance.batch_size":          c.Performance.BatchSize,
		"performance.retry_attempts":      c.Performance.RetryAttempts,
		"performance.retry_base_delay_ms": c.Performance.RetryBaseDelayMS,
		"performance.max_workers":         c.Performance.MaxWorkers,
		"performance.max_concurrent_io":   c.Performance.MaxConcurrentIO,
		"performance.batch_timeout":       c.Performance.BatchTimeout,
		"performance.queue_poll_interval": c.Performance.QueuePollInterval,
	}); err != nil {
		return err
	}
	if c.Performance.ExtractCacheSize <= 0 {
		return errors.New("performance.extract_cache_size must be positive")
	}
	if c.Performance.BatchTimeout <= c.Performance.QueuePollInterval {
		return errors.New("performance.batch_timeout must be greater than performance.queue_poll_interval")
	}
	return nil
}

func (c *Config) validateSafety() error {
	if c.Safety.MaxFilesPerRun < 0 {
		return errors.New("safety.max_files_per_run must be >= 0")
	}
	if c.Safety.MinFreeSpaceMB < 0 {
		return errors.New("safety.min_free_space_mb must be >= 0")
	}
	return nil
}

func (c *Config) validateFallback() error {
	if c.Fallback.NoDateFolder == "" {
		return errors.New("fallback.no_date_folder must be set")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
