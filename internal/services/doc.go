// Package services provides the error taxonomy and context plumbing shared by
// the shuttersort pipeline components. Errors are tagged with sentinel markers
// so callers can distinguish fatal configuration problems from per-file
// failures that only feed the statistics error counter.
package services
