// Package defaults centralizes timeout, throttle, and retry constants used
// across fleetscout components. Values here are conservative fallbacks;
// pkg/config exposes the tunable subset.
package defaults
