package stats

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"shuttersort/internal/logging"
)

// Counter names recognized by the collector. Increments against unknown names
// are dropped with a warning rather than failing the caller.
const (
	Processed           = "processed"
	Moved               = "moved"
	Copied              = "copied"
	Skipped             = "skipped"
	Errors              = "errors"
	NoDate              = "no_date"
	Discovered          = "discovered"
	Batches             = "batches"
	VideosProcessed     = "videos_processed"
	ThumbnailsProcessed = "thumbnails_processed"
	MpgMerged           = "mpg_merged"
	ThmDeleted          = "thm_deleted"
	CacheHits           = "cache_hits"
	CacheMisses         = "cache_misses"
	BytesProcessed      = "bytes_processed"
)

var counterNames = []string{
	Processed, Moved, Copied, Skipped, Errors, NoDate,
	Discovered, Batches, VideosProcessed, ThumbnailsProcessed,
	MpgMerged, ThmDeleted, CacheHits, CacheMisses, BytesProcessed,
}

// Collector aggregates run statistics from concurrent producers. Counter
// mutation is lock-free; the mutex only guards session timestamps.
type Collector struct {
	counters map[string]*atomic.Int64
	logger   *slog.Logger

	mu        sync.Mutex
	startTime time.Time
	endTime   time.Time
}

// Snapshot is a consistent point-in-time copy of the collected statistics.
type Snapshot struct {
	Counters  map[string]int64
	StartTime time.Time
	EndTime   time.Time
}

// NewCollector constructs a collector with all known counters registered.
func NewCollector(logger *slog.Logger) *Collector {
	counters := make(map[string]*atomic.Int64, len(counterNames))
	for _, name := range counterNames {
		counters[name] = new(atomic.Int64)
	}
	return &Collector{
		counters: counters,
		logger:   logging.NewComponentLogger(logger, "stats"),
	}
}

// StartSession records the session start time and clears any previous end time.
func (c *Collector) StartSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.startTime = time.Now()
	c.endTime = time.Time{}
}

// EndSession records the session end time.
func (c *Collector) EndSession() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endTime = time.Now()
}

// Increment adds one to the named counter.
func (c *Collector) Increment(name string) {
	c.Add(name, 1)
}

// Add adds amount to the named counter.
func (c *Collector) Add(name string, amount int64) {
	counter, ok := c.counters[name]
	if !ok {
		c.logger.Warn("unknown counter", logging.String("counter", name))
		return
	}
	counter.Add(amount)
}

// Set stores value in the named counter.
func (c *Collector) Set(name string, value int64) {
	counter, ok := c.counters[name]
	if !ok {
		c.logger.Warn("unknown counter", logging.String("counter", name))
		return
	}
	counter.Store(value)
}

// Get returns the current value of the named counter.
func (c *Collector) Get(name string) int64 {
	counter, ok := c.counters[name]
	if !ok {
		return 0
	}
	return counter.Load()
}

// Snapshot returns a copy of all counters and session timestamps. The copy
// does not alias collector state.
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	start, end := c.startTime, c.endTime
	c.mu.Unlock()

	counters := make(map[string]int64, len(c.counters))
	for name, counter := range c.counters {
		counters[name] = counter.Load()
	}
	return Snapshot{Counters: counters, StartTime: start, EndTime: end}
}

// Duration returns the session length, or zero when the session is still open.
func (s Snapshot) Duration() time.Duration {
	if s.StartTime.IsZero() || s.EndTime.IsZero() {
		return 0
	}
	return s.EndTime.Sub(s.StartTime)
}

// FilesPerSecond returns the processing rate over the session.
func (s Snapshot) FilesPerSecond() float64 {
	d := s.Duration()
	if d <= 0 {
		return 0
	}
	return float64(s.Counters[Processed]) / d.Seconds()
}
