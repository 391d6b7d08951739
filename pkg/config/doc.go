// Package config loads invocation configuration from a YAML file and
// FLEETSCOUT_* environment variables, layered over built-in defaults, and
// maps the sections onto each subsystem's policy types.
package config
