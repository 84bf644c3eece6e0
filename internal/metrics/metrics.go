package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ProbesTotal tracks probe outcomes per endpoint and probe kind
	ProbesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainpulse_probes_total",
			Help: "Total number of probes by outcome",
		},
		[]string{"endpoint", "kind", "outcome"},
	)

	// ProbeLatency tracks RPC round-trip latency per endpoint
	ProbeLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "chainpulse_probe_latency_seconds",
			Help:    "RPC probe round-trip latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	// EndpointUp reports 1 when the endpoint's aggregated outcome is ok
	EndpointUp = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chainpulse_endpoint_up",
			Help: "1 if the endpoint's aggregated outcome is ok, else 0",
		},
		[]string{"endpoint"},
	)

	// ChainLatestBlock tracks the latest block height seen per endpoint
	ChainLatestBlock = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "chainpulse_chain_latest_block",
			Help: "Latest block height reported by the endpoint",
		},
		[]string{"endpoint"},
	)

	// RunsTotal tracks evaluation runs by overall outcome
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chainpulse_runs_total",
			Help: "Total number of evaluation runs by overall outcome",
		},
		[]string{"outcome"},
	)
)
