// Package report runs the full probe battery across every registry entry,
// folds the results into a health report, and renders it.
package report

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/chainpulse/chainpulse/internal/core/domain"
	"github.com/chainpulse/chainpulse/internal/core/registry"
	"github.com/chainpulse/chainpulse/internal/metrics"
	"github.com/chainpulse/chainpulse/internal/probe"
)

// ProbeSet selects which probes run against each endpoint.
type ProbeSet struct {
	Methods          []string // method-call probes, empty params
	SyncStatus       bool
	BlockProgression bool
	Latency          bool
	Aux              bool // probe configured aux URLs
}

// DefaultProbeSet runs the full battery with the standard method list.
func DefaultProbeSet(methods []string) ProbeSet {
	return ProbeSet{
		Methods:          methods,
		SyncStatus:       true,
		BlockProgression: true,
		Latency:          true,
		Aux:              true,
	}
}

// Aggregator executes evaluation runs.
type Aggregator struct {
	runner *probe.Runner
	log    *slog.Logger
}

// NewAggregator creates an aggregator around a probe runner.
func NewAggregator(runner *probe.Runner) *Aggregator {
	return &Aggregator{runner: runner, log: slog.Default()}
}

// Run probes every registry entry concurrently and folds the results.
// Report ordering always matches registry order regardless of completion
// order. When the context deadline expires, outstanding probes are recorded
// as errors ("timed out") so every configured endpoint appears.
func (a *Aggregator) Run(ctx context.Context, reg *registry.Registry, set ProbeSet) *domain.HealthReport {
	started := time.Now()
	entries := reg.Entries()

	// Buffered per entry index so completion order never leaks into output.
	results := make([][]domain.ProbeResult, len(entries))

	g, gctx := errgroup.WithContext(ctx)
	for i, ep := range entries {
		g.Go(func() error {
			results[i] = a.probeEndpoint(gctx, ep, set)
			return nil
		})
	}
	_ = g.Wait() // probe failures are data, not errors

	report := &domain.HealthReport{
		RunID:     uuid.NewString(),
		StartedAt: started,
		Endpoints: make([]domain.EndpointHealth, 0, len(entries)),
	}

	overall := domain.OutcomeOK
	for i, ep := range entries {
		probes := results[i]
		outcomes := make([]domain.Outcome, len(probes))
		for j, p := range probes {
			outcomes[j] = p.Outcome
			metrics.ProbesTotal.WithLabelValues(p.Endpoint, string(p.Kind), string(p.Outcome)).Inc()
		}

		agg := domain.Fold(outcomes)
		report.Endpoints = append(report.Endpoints, domain.EndpointHealth{
			Name:    ep.Name,
			Outcome: agg,
			Probes:  probes,
		})

		up := 0.0
		if agg.IsOK() {
			up = 1.0
		} else {
			report.Failed = append(report.Failed, ep.Name)
		}
		metrics.EndpointUp.WithLabelValues(ep.Name).Set(up)

		overall = overall.Worse(agg)
		a.log.Debug("endpoint evaluated", "endpoint", ep.Name, "outcome", agg, "probes", len(probes))
	}

	report.Overall = overall
	report.FinishedAt = time.Now()
	metrics.RunsTotal.WithLabelValues(string(report.Overall)).Inc()

	a.log.Info("evaluation finished",
		"run_id", report.RunID,
		"overall", report.Overall,
		"failed", report.FailedList(),
		"duration", report.FinishedAt.Sub(report.StartedAt))

	return report
}

type plannedProbe struct {
	kind   domain.ProbeKind
	method string
	run    func(context.Context) domain.ProbeResult
}

// probeEndpoint runs the configured battery sequentially for one endpoint.
// Probes skipped by an expired context become synthetic "timed out" errors.
func (a *Aggregator) probeEndpoint(ctx context.Context, ep registry.Endpoint, set ProbeSet) []domain.ProbeResult {
	planned := a.plan(ep, set)

	results := make([]domain.ProbeResult, 0, len(planned))
	for _, p := range planned {
		if ctx.Err() != nil {
			results = append(results, domain.ProbeResult{
				Endpoint:  ep.Name,
				Kind:      p.kind,
				Method:    p.method,
				Outcome:   domain.OutcomeError,
				Detail:    "timed out",
				Timestamp: time.Now(),
			})
			continue
		}
		results = append(results, p.run(ctx))
	}
	return results
}

func (a *Aggregator) plan(ep registry.Endpoint, set ProbeSet) []plannedProbe {
	var planned []plannedProbe

	for _, method := range set.Methods {
		planned = append(planned, plannedProbe{
			kind:   domain.KindMethodCall,
			method: method,
			run: func(ctx context.Context) domain.ProbeResult {
				return a.runner.CallMethod(ctx, ep, method)
			},
		})
	}

	if set.SyncStatus {
		planned = append(planned, plannedProbe{
			kind:   domain.KindSyncStatus,
			method: "eth_syncing",
			run: func(ctx context.Context) domain.ProbeResult {
				return a.runner.CheckSyncStatus(ctx, ep)
			},
		})
	}

	if set.BlockProgression {
		planned = append(planned, plannedProbe{
			kind:   domain.KindBlockProgression,
			method: "eth_blockNumber",
			run: func(ctx context.Context) domain.ProbeResult {
				return a.runner.CheckBlockProgression(ctx, ep)
			},
		})
	}

	if set.Latency {
		planned = append(planned, plannedProbe{
			kind:   domain.KindLatency,
			method: "eth_blockNumber",
			run: func(ctx context.Context) domain.ProbeResult {
				return a.runner.CheckLatency(ctx, ep)
			},
		})
	}

	if set.Aux && len(ep.AuxURLs) > 0 {
		// Sorted for deterministic probe ordering within the endpoint.
		names := make([]string, 0, len(ep.AuxURLs))
		for name := range ep.AuxURLs {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			url := ep.AuxURLs[name]
			planned = append(planned, plannedProbe{
				kind:   domain.KindAux,
				method: name,
				run: func(ctx context.Context) domain.ProbeResult {
					return a.runner.CheckAux(ctx, ep, name, url)
				},
			})
		}
	}

	return planned
}
