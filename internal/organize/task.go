package organize

import (
	"time"
)

// Operation identifies what a worker does with a task's source file.
type Operation string

const (
	// OpCopy duplicates the source into the target tree.
	OpCopy Operation = "copy"
	// OpMove relocates the source into the target tree.
	OpMove Operation = "move"
	// OpMerge remuxes a video with its thumbnail into the target tree.
	OpMerge Operation = "merge"
)

// FileTask is one unit of work: a source file bound to its computed target
// path. Tasks are immutable once built.
type FileTask struct {
	Source     string
	Target     string
	Operation  Operation
	Companions []string
	MergeWith  string
	Size       int64
	TakenAt    *time.Time
}

// Result reports the outcome of executing a single FileTask. Exactly one
// Result is produced for every task handed to a worker.
type Result struct {
	Task     FileTask
	Success  bool
	Err      string
	Duration time.Duration
	Bytes    int64
}
