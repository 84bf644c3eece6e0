package domain

import (
	"strings"
	"time"
)

// ProbeKind identifies which category of check produced a result.
type ProbeKind string

const (
	KindMethodCall       ProbeKind = "method-call"
	KindSyncStatus       ProbeKind = "sync-status"
	KindBlockProgression ProbeKind = "block-progression"
	KindLatency          ProbeKind = "latency"
	KindAux              ProbeKind = "aux"
)

// ProbeResult is the immutable record of one probe against one endpoint.
type ProbeResult struct {
	Endpoint  string    `json:"endpoint"`
	Kind      ProbeKind `json:"kind"`
	Method    string    `json:"method,omitempty"` // RPC method or aux service name
	Outcome   Outcome   `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EndpointHealth is the folded verdict for one registry entry.
type EndpointHealth struct {
	Name    string        `json:"name"`
	Outcome Outcome       `json:"outcome"`
	Probes  []ProbeResult `json:"probes"`
}

// HealthReport is the outcome of one evaluation run across the whole
// registry. Endpoint order matches registry configuration order.
type HealthReport struct {
	RunID      string           `json:"run_id"`
	StartedAt  time.Time        `json:"started_at"`
	FinishedAt time.Time        `json:"finished_at"`
	Endpoints  []EndpointHealth `json:"endpoints"`
	Overall    Outcome          `json:"overall"`
	Failed     []string         `json:"failed,omitempty"` // non-ok endpoint names, registry order
}

// FailedList renders the failed endpoint names for the journal line,
// "none" when every endpoint is ok.
func (r *HealthReport) FailedList() string {
	if len(r.Failed) == 0 {
		return "none"
	}
	return strings.Join(r.Failed, ",")
}
