// Package control manages the continuous monitoring lifecycle: scheduled
// evaluation runs, the health HTTP server, and snapshot publishing.
package control

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/chainpulse/chainpulse/internal/core/domain"
	"github.com/chainpulse/chainpulse/internal/core/registry"
	redisclient "github.com/chainpulse/chainpulse/internal/infra/redis"
	"github.com/chainpulse/chainpulse/internal/probe"
	"github.com/chainpulse/chainpulse/internal/report"
)

// Config holds the monitor configuration.
type Config struct {
	Port         int
	Registry     *registry.Registry
	ProbeSet     report.ProbeSet
	Timeout      time.Duration // per-request probe timeout
	PollInterval time.Duration // block progression wait
	Deadline     time.Duration // per-run budget, 0 = none
	ScanInterval time.Duration // cadence between runs
	JournalPath  string
	Redis        redisclient.Config // optional, URL empty = disabled
}

// Monitor runs scheduled evaluations and serves their results over HTTP.
type Monitor struct {
	cfg        Config
	runner     *probe.Runner
	aggregator *report.Aggregator
	journal    *report.Journal
	snapshots  *redisclient.Client
	server     *Server
	log        *slog.Logger

	mu   sync.RWMutex
	last *domain.HealthReport

	cancel context.CancelFunc
	done   chan struct{}
}

// NewMonitor creates a monitor with all dependencies initialized.
func NewMonitor(cfg Config) (*Monitor, error) {
	if cfg.Registry == nil || cfg.Registry.Len() == 0 {
		return nil, fmt.Errorf("monitor requires a non-empty registry")
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = 30 * time.Second
	}

	runner := probe.NewRunner(probe.Options{
		Timeout:      cfg.Timeout,
		PollInterval: cfg.PollInterval,
	})

	m := &Monitor{
		cfg:        cfg,
		runner:     runner,
		aggregator: report.NewAggregator(runner),
		journal:    report.NewJournal(cfg.JournalPath),
		log:        slog.Default(),
		done:       make(chan struct{}),
	}

	if cfg.Redis.URL != "" {
		snapshots, err := redisclient.NewClient(cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("failed to init redis snapshots: %w", err)
		}
		m.snapshots = snapshots
		m.log.Info("Report snapshots enabled", "history_limit", cfg.Redis.HistoryLimit)
	}

	m.server = NewServer(m, cfg.Port)
	return m, nil
}

// Start launches the evaluation loop and the HTTP server.
func (m *Monitor) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel

	go func() {
		if err := m.server.Start(); err != nil {
			m.log.Error("Health server stopped", "error", err)
		}
	}()

	go m.loop(runCtx)

	m.log.Info("Monitor started",
		"endpoints", m.cfg.Registry.Len(),
		"interval", m.cfg.ScanInterval,
		"port", m.cfg.Port)
	return nil
}

// Stop shuts down the loop and server, honoring the context deadline.
func (m *Monitor) Stop(ctx context.Context) error {
	if m.cancel != nil {
		m.cancel()
	}

	select {
	case <-m.done:
	case <-ctx.Done():
		return fmt.Errorf("monitor shutdown: %w", ctx.Err())
	}

	if err := m.server.Stop(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if m.snapshots != nil {
		_ = m.snapshots.Close()
	}
	return m.runner.Close()
}

// LastReport returns the most recent evaluation result, nil before the
// first run completes.
func (m *Monitor) LastReport() *domain.HealthReport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

func (m *Monitor) loop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.cfg.ScanInterval)
	defer ticker.Stop()

	m.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.runOnce(ctx)
		}
	}
}

func (m *Monitor) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	runCtx := ctx
	if m.cfg.Deadline > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, m.cfg.Deadline)
		defer cancel()
	}

	result := m.aggregator.Run(runCtx, m.cfg.Registry, m.cfg.ProbeSet)

	m.mu.Lock()
	m.last = result
	m.mu.Unlock()

	if err := m.journal.Append(result); err != nil {
		m.log.Error("Failed to append journal", "error", err)
	}

	if m.snapshots != nil {
		if err := m.snapshots.SaveReport(ctx, result); err != nil {
			m.log.Error("Failed to save report snapshot", "error", err)
		}
	}
}
