// Package organize contains the organizing pipeline: a task builder that
// dates files and resolves collisions, a coordinator that dispatches work in
// bounded batches, a worker pool that executes transfers with retries, and a
// cancellation token tying them together.
//
// The pipeline holds at most one batch of tasks in flight, so memory stays
// flat no matter how large the source tree is. Every task handed to a worker
// produces exactly one result, which keeps the session counters consistent:
// processed always equals moved plus copied plus errors.
package organize
