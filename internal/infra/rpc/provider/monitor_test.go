package provider

import (
	"testing"
	"time"
)

func TestMonitorAverageLatency(t *testing.T) {
	m := NewProviderMonitor()

	if got := m.GetAverageLatency(); got != 0 {
		t.Fatalf("expected 0 with no samples, got %v", got)
	}

	m.RecordRequest(100 * time.Millisecond)
	m.RecordRequest(300 * time.Millisecond)

	if got := m.GetAverageLatency(); got != 200*time.Millisecond {
		t.Errorf("expected 200ms, got %v", got)
	}
}

func TestMonitorLatencyWindow(t *testing.T) {
	m := NewProviderMonitor()

	// Old slow samples fall out of the window
	for i := 0; i < 5; i++ {
		m.RecordRequest(10 * time.Second)
	}
	for i := 0; i < 20; i++ {
		m.RecordRequest(50 * time.Millisecond)
	}

	if got := m.GetAverageLatency(); got != 50*time.Millisecond {
		t.Errorf("expected 50ms, got %v", got)
	}
	if status := m.CheckProviderStatus(); status != StatusHealthy {
		t.Errorf("expected healthy, got %s", status)
	}
}

func TestMonitorDegradedWhenSlow(t *testing.T) {
	m := NewProviderMonitor()
	for i := 0; i < 10; i++ {
		m.RecordRequest(4 * time.Second)
	}

	if status := m.CheckProviderStatus(); status != StatusDegraded {
		t.Errorf("expected degraded, got %s", status)
	}
}

func TestMonitorThrottle(t *testing.T) {
	m := NewProviderMonitor()

	for i := 0; i < 6; i++ {
		m.RecordThrottle(429, "30")
	}

	if status := m.CheckProviderStatus(); status != StatusThrottled {
		t.Fatalf("expected throttled, got %s", status)
	}
	if after := m.GetRetryAfter(); after <= 0 || after > 30*time.Second {
		t.Errorf("expected retry-after within 30s, got %v", after)
	}

	// A success clears the streak
	m.RecordRequest(10 * time.Millisecond)
	if status := m.CheckProviderStatus(); status != StatusHealthy {
		t.Errorf("expected healthy after success, got %s", status)
	}
}

func TestMonitorBlocked(t *testing.T) {
	m := NewProviderMonitor()
	m.RecordThrottle(403, "")

	if status := m.CheckProviderStatus(); status != StatusBlocked {
		t.Errorf("expected blocked, got %s", status)
	}
}

func TestMonitorDetectThrottlePattern(t *testing.T) {
	m := NewProviderMonitor()

	if !m.DetectThrottlePattern("Project Rate Limit reached") {
		t.Errorf("expected pattern match")
	}
	if m.DetectThrottlePattern("execution reverted") {
		t.Errorf("unexpected pattern match")
	}
}
