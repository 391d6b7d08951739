// Package target defines the addressable hosts under audit and the opaque
// authentication context threaded through to transport bindings.
package target
