// Package config loads sqlq settings from YAML and validates them against
// an embedded CUE schema.
//
// Precedence, lowest first: defaults, config file, SQLQ_* environment
// variables, command line flags. Validate runs once everything is merged.
package config
