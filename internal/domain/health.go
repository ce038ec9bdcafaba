package domain

import "time"

// HealthStatus is one provider's liveness probe result. Probe failures are
// data, not errors - a monitoring page must render even when every provider
// is down.
type HealthStatus struct {
	// Provider is the canonical provider identifier.
	Provider string `json:"provider"`

	// OK reports whether the probe completed successfully.
	OK bool `json:"ok"`

	// Model is the model the probe exercised, when known.
	Model string `json:"model,omitempty"`

	// LatencyMs is the probe round-trip time.
	LatencyMs int64 `json:"latency_ms,omitempty"`

	// Error describes the failure when OK is false.
	Error string `json:"error,omitempty"`
}

// HealthReport aggregates per-provider probe results for the health endpoint.
type HealthReport struct {
	// OK is the AND of all provider statuses.
	OK bool `json:"ok"`

	Providers []HealthStatus `json:"providers"`
	Timestamp time.Time      `json:"timestamp"`
}

// NewHealthReport builds a report from individual probe results, computing
// the aggregate OK flag.
func NewHealthReport(statuses []HealthStatus, at time.Time) HealthReport {
	ok := len(statuses) > 0
	for _, s := range statuses {
		if !s.OK {
			ok = false
			break
		}
	}
	return HealthReport{OK: ok, Providers: statuses, Timestamp: at}
}
