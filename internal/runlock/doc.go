// Package runlock serializes runs against a target directory with an advisory
// file lock.
package runlock
