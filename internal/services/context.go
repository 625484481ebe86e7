package services

import (
	"context"
	"strings"
)

type contextKey int

const (
	runIDKey contextKey = iota
	componentKey
	workerKey
)

// WithRunID attaches the run correlation identifier to the context.
func WithRunID(ctx context.Context, runID string) context.Context {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return ctx
	}
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext extracts the run identifier, if present.
func RunIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(runIDKey).(string)
	return id, ok && id != ""
}

// WithComponent attaches the active component name to the context.
func WithComponent(ctx context.Context, component string) context.Context {
	component = strings.TrimSpace(component)
	if component == "" {
		return ctx
	}
	return context.WithValue(ctx, componentKey, component)
}

// ComponentFromContext extracts the component name, if present.
func ComponentFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	component, ok := ctx.Value(componentKey).(string)
	return component, ok && component != ""
}

// WithWorker attaches a worker identifier to the context.
func WithWorker(ctx context.Context, worker string) context.Context {
	worker = strings.TrimSpace(worker)
	if worker == "" {
		return ctx
	}
	return context.WithValue(ctx, workerKey, worker)
}

// WorkerFromContext extracts the worker identifier, if present.
func WorkerFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	worker, ok := ctx.Value(workerKey).(string)
	return worker, ok && worker != ""
}
