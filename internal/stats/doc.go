// Package stats provides the concurrency-safe counter set shared by the
// organize pipeline. Counters are commutative increments, so the final
// snapshot is independent of worker completion order.
package stats
