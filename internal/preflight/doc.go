// Package preflight validates filesystem paths and external tools before a
// run starts.
//
// The organizer calls Run before building any tasks; a failed check aborts
// the run before a single file is touched. The CLI status command uses RunAll
// to display the same checks without aborting anything.
package preflight
