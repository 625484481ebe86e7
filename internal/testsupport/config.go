package testsupport

import (
	"path/filepath"
	"testing"

	"shuttersort/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SourceDir = filepath.Join(base, "source")
	cfgVal.Paths.TargetDir = filepath.Join(base, "target")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Performance.RetryBaseDelayMS = 1
	cfgVal.Performance.BatchTimeout = 5
	cfgVal.Performance.QueuePollInterval = 1

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMoveFiles switches the test config from copy to move semantics.
func WithMoveFiles() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Processing.MoveFiles = true
	}
}

// WithDuplicateHandling overrides the duplicate policy on the test config.
func WithDuplicateHandling(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Processing.DuplicateHandling = policy
	}
}

// WithWorkers pins the worker-pool size on the test config.
func WithWorkers(workers int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Performance.MaxWorkers = workers
	}
}

// WithBatchSize overrides the dispatch batch size on the test config.
func WithBatchSize(size int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Performance.BatchSize = size
	}
}
