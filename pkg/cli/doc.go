// Package cli implements the fleetscout command line interface.
package cli
