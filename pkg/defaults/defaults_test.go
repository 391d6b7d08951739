package defaults

import (
	"testing"
	"time"
)

func TestTimeoutOrdering(t *testing.T) {
	// Sub-probe timeouts must be short relative to the per-task floor so a
	// failed profile never costs more than a single slow task.
	if SubProbeTimeout >= TaskTimeoutFloor {
		t.Errorf("SubProbeTimeout (%v) should be well below TaskTimeoutFloor (%v)",
			SubProbeTimeout, TaskTimeoutFloor)
	}

	if ProbeTimeout > HealthCheckTimeout {
		t.Errorf("ProbeTimeout (%v) should not exceed HealthCheckTimeout (%v)",
			ProbeTimeout, HealthCheckTimeout)
	}
}

func TestPositiveValues(t *testing.T) {
	durations := map[string]time.Duration{
		"SubProbeTimeout":        SubProbeTimeout,
		"ProfileCacheTTL":        ProfileCacheTTL,
		"TaskTimeoutFloor":       TaskTimeoutFloor,
		"HealthCheckTimeout":     HealthCheckTimeout,
		"PressureSampleInterval": PressureSampleInterval,
		"RetryBaseDelay":         RetryBaseDelay,
		"SinkFlushInterval":      SinkFlushInterval,
		"ResolveTimeout":         ResolveTimeout,
		"QueryTimeout":           QueryTimeout,
		"AuditTimeout":           AuditTimeout,
	}

	for name, d := range durations {
		if d <= 0 {
			t.Errorf("%s must be positive, got %v", name, d)
		}
	}

	if FleetConcurrencyCeiling < 1 {
		t.Error("FleetConcurrencyCeiling must be at least 1")
	}
	if HealthCheckThrottle < 1 {
		t.Error("HealthCheckThrottle must be at least 1")
	}
	if MaxRetries < 0 {
		t.Error("MaxRetries must not be negative")
	}
	if SinkBufferSize < 1 {
		t.Error("SinkBufferSize must be at least 1")
	}
}

func TestWaterMarks(t *testing.T) {
	if CPUHighWaterMark <= 0 || CPUHighWaterMark > 1 {
		t.Errorf("CPUHighWaterMark out of range: %v", CPUHighWaterMark)
	}
	if MemoryHighWaterMark <= 0 || MemoryHighWaterMark > 1 {
		t.Errorf("MemoryHighWaterMark out of range: %v", MemoryHighWaterMark)
	}
}
