// Package transport abstracts remote target access: name resolution, a
// lightweight reachability probe, endpoint validation, authentication, and
// the authenticated query channel collectors use.
//
// The core treats Transport as an opaque capability. Concrete bindings (an
// SSH channel, an HTTP agent, a Windows-management protocol) plug in behind
// the interface; Loopback is the in-process binding used for self-audits.
//
// ReliabilityWrapper decorates any Transport with a per-target circuit
// breaker and a fleet-wide rate limiter so a dead or throttling host fails
// fast instead of consuming retry budget:
//
//	tr := transport.NewReliabilityWrapper(
//	    transport.NewLoopback(),
//	    transport.DefaultReliabilityOptions(),
//	)
package transport
