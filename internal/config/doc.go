// Package config loads, validates, and normalizes shuttersort configuration
// from TOML files.
package config
