// Package logging wraps log/slog with the handlers and helpers used across
// shuttersort: a console handler for interactive runs, a JSON handler for
// machine consumption, attribute constructors, and context-derived fields
// (run id, component, worker).
package logging
