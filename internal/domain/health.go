package domain

import "time"

const (
	// HealthStatusOK indicates every check passed.
	HealthStatusOK = "ok"
	// HealthStatusDegraded indicates at least one check failed but the engine still serves requests.
	HealthStatusDegraded = "degraded"
	// HealthStatusError indicates the engine or a critical dependency is unavailable.
	HealthStatusError = "error"
)

// SystemHealthCheck captures the outcome of a single readiness probe.
type SystemHealthCheck struct {
	Status    string
	Detail    string
	Error     string
	Latency   time.Duration
	CheckedAt time.Time
}

// SystemHealthReport aggregates probe results for the readiness endpoint.
type SystemHealthReport struct {
	Status           string
	Checks           map[string]SystemHealthCheck
	Modes            []string
	ModelFingerprint string
	Version          string
	CommitSHA        string
	Environment      string
	Uptime           time.Duration
	AssetsLoadedAt   time.Time
	GeneratedAt      time.Time
}
