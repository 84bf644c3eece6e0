// Package probe executes categorized health probes against registry
// endpoints and classifies their results. Every probe is total: transport
// and decode failures are captured as error-classified results, never
// returned as Go errors.
package probe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/chainpulse/chainpulse/internal/core/domain"
	"github.com/chainpulse/chainpulse/internal/core/registry"
	"github.com/chainpulse/chainpulse/internal/infra/rpc"
	"github.com/chainpulse/chainpulse/internal/metrics"
)

// Options configures probe execution.
type Options struct {
	Timeout      time.Duration // per-request timeout
	PollInterval time.Duration // wait between block progression reads
}

// Runner issues probes against endpoints. Safe for concurrent use; probes
// share no mutable state beyond the connection-pooling RPC clients.
type Runner struct {
	timeout      time.Duration
	pollInterval time.Duration

	mu      sync.Mutex
	clients map[string]*rpc.Client

	auxClient *http.Client
}

// NewRunner creates a runner with the given options, applying the 5s
// timeout and 2s poll interval defaults.
func NewRunner(opts Options) *Runner {
	if opts.Timeout == 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.PollInterval == 0 {
		opts.PollInterval = 2 * time.Second
	}
	return &Runner{
		timeout:      opts.Timeout,
		pollInterval: opts.PollInterval,
		clients:      make(map[string]*rpc.Client),
		auxClient:    &http.Client{Timeout: opts.Timeout},
	}
}

// CallMethod probes one JSON-RPC method with empty params. One attempt, no
// retries; retry policy belongs to the caller's schedule.
func (r *Runner) CallMethod(ctx context.Context, ep registry.Endpoint, method string) domain.ProbeResult {
	raw, err := r.client(ep).Call(ctx, method, nil)
	if err != nil {
		return r.classify(ep, domain.KindMethodCall, method, err)
	}

	return domain.ProbeResult{
		Endpoint:  ep.Name,
		Kind:      domain.KindMethodCall,
		Method:    method,
		Outcome:   domain.OutcomeOK,
		Detail:    stringifyResult(raw),
		Timestamp: time.Now(),
	}
}

// CheckSyncStatus probes eth_syncing: false means synced (ok), a syncing
// object means catching up (degraded), anything else is classified like a
// failed method call.
func (r *Runner) CheckSyncStatus(ctx context.Context, ep registry.Endpoint) domain.ProbeResult {
	raw, err := r.client(ep).Call(ctx, "eth_syncing", nil)
	if err != nil {
		return r.classify(ep, domain.KindSyncStatus, "eth_syncing", err)
	}

	res := domain.ProbeResult{
		Endpoint:  ep.Name,
		Kind:      domain.KindSyncStatus,
		Method:    "eth_syncing",
		Timestamp: time.Now(),
	}

	var syncing bool
	if strings.TrimSpace(string(raw)) == "null" {
		res.Outcome = domain.OutcomeUnknown
		res.Detail = "unexpected eth_syncing result: null"
		return res
	}
	if jsonErr := json.Unmarshal(raw, &syncing); jsonErr == nil {
		if !syncing {
			res.Outcome = domain.OutcomeOK
			res.Detail = "synced"
			return res
		}
		// A bare true is not a valid eth_syncing response.
		res.Outcome = domain.OutcomeUnknown
		res.Detail = "unexpected eth_syncing result: true"
		return res
	}

	var progress struct {
		CurrentBlock string `json:"currentBlock"`
		HighestBlock string `json:"highestBlock"`
	}
	if jsonErr := json.Unmarshal(raw, &progress); jsonErr == nil {
		res.Outcome = domain.OutcomeDegraded
		res.Detail = "syncing"
		current, errCur := parseHexUint(progress.CurrentBlock)
		highest, errHigh := parseHexUint(progress.HighestBlock)
		if errCur == nil && errHigh == nil {
			res.Detail = fmt.Sprintf("syncing: block %d of %d", current, highest)
		}
		return res
	}

	res.Outcome = domain.OutcomeUnknown
	res.Detail = fmt.Sprintf("unexpected eth_syncing result: %s", stringifyResult(raw))
	return res
}

// CheckBlockProgression reads eth_blockNumber twice, pollInterval apart,
// and compares. A decreasing height is always an error: regression signals
// a reorg deeper than expected or a misconfigured endpoint.
func (r *Runner) CheckBlockProgression(ctx context.Context, ep registry.Endpoint) domain.ProbeResult {
	first, err := r.blockNumber(ctx, ep)
	if err != nil {
		return r.blockReadFailure(ep, err)
	}

	select {
	case <-ctx.Done():
		return r.blockReadFailure(ep, ctx.Err())
	case <-time.After(r.pollInterval):
	}

	second, err := r.blockNumber(ctx, ep)
	if err != nil {
		return r.blockReadFailure(ep, err)
	}

	metrics.ChainLatestBlock.WithLabelValues(ep.Name).Set(float64(second))

	res := domain.ProbeResult{
		Endpoint:  ep.Name,
		Kind:      domain.KindBlockProgression,
		Method:    "eth_blockNumber",
		Timestamp: time.Now(),
	}

	switch {
	case second > first:
		res.Outcome = domain.OutcomeOK
		res.Detail = fmt.Sprintf("progressing: %d -> %d", first, second)
	case second == first:
		res.Outcome = domain.OutcomeDegraded
		res.Detail = fmt.Sprintf("stalled at block %d", second)
	default:
		res.Outcome = domain.OutcomeError
		res.Detail = fmt.Sprintf("regression: %d -> %d", first, second)
	}
	return res
}

// CheckLatency measures the wall-clock round trip of one eth_blockNumber
// call and classifies it into bands. Boundaries are inclusive toward the
// stricter class: exactly 500ms is "good", exactly 2s is an error.
func (r *Runner) CheckLatency(ctx context.Context, ep registry.Endpoint) domain.ProbeResult {
	start := time.Now()
	_, err := r.client(ep).Call(ctx, "eth_blockNumber", nil)
	elapsed := time.Since(start)

	res := domain.ProbeResult{
		Endpoint:  ep.Name,
		Kind:      domain.KindLatency,
		Method:    "eth_blockNumber",
		Timestamp: time.Now(),
	}

	if err != nil {
		res.Outcome = domain.OutcomeError
		res.Detail = fmt.Sprintf("unreachable: %v", err)
		return res
	}

	metrics.ProbeLatency.WithLabelValues(ep.Name).Observe(elapsed.Seconds())

	res.Outcome, res.Detail = LatencyOutcome(elapsed)
	return res
}

// LatencyOutcome maps a round-trip duration to its classification band.
func LatencyOutcome(d time.Duration) (domain.Outcome, string) {
	ms := d.Milliseconds()
	switch {
	case ms < 500:
		return domain.OutcomeOK, fmt.Sprintf("excellent (%dms)", ms)
	case ms < 1000:
		return domain.OutcomeOK, fmt.Sprintf("good (%dms)", ms)
	case ms < 2000:
		return domain.OutcomeDegraded, fmt.Sprintf("slow (%dms)", ms)
	default:
		return domain.OutcomeError, fmt.Sprintf("too slow (%dms)", ms)
	}
}

// CheckAux probes an auxiliary service (beacon API, mev-boost builder
// status) with a plain GET. Any 2xx counts as alive.
func (r *Runner) CheckAux(ctx context.Context, ep registry.Endpoint, auxName, url string) domain.ProbeResult {
	res := domain.ProbeResult{
		Endpoint:  ep.Name,
		Kind:      domain.KindAux,
		Method:    auxName,
		Timestamp: time.Now(),
	}

	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		res.Outcome = domain.OutcomeError
		res.Detail = fmt.Sprintf("create request: %v", err)
		return res
	}

	resp, err := r.auxClient.Do(req)
	if err != nil {
		res.Outcome = domain.OutcomeError
		res.Detail = fmt.Sprintf("unreachable: %v", err)
		return res
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		res.Outcome = domain.OutcomeOK
		res.Detail = fmt.Sprintf("http %d", resp.StatusCode)
	} else {
		res.Outcome = domain.OutcomeError
		res.Detail = fmt.Sprintf("http %d", resp.StatusCode)
	}
	return res
}

// Close releases idle connections held by the per-endpoint clients.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.clients {
		_ = c.Close()
	}
	r.clients = make(map[string]*rpc.Client)
	return nil
}

func (r *Runner) blockNumber(ctx context.Context, ep registry.Endpoint) (uint64, error) {
	raw, err := r.client(ep).Call(ctx, "eth_blockNumber", nil)
	if err != nil {
		return 0, err
	}
	var hex string
	if err := json.Unmarshal(raw, &hex); err != nil {
		return 0, fmt.Errorf("invalid block number response: %w", errors.Join(rpc.ErrBadResponse, err))
	}
	return parseHexUint(hex)
}

func (r *Runner) blockReadFailure(ep registry.Endpoint, err error) domain.ProbeResult {
	return domain.ProbeResult{
		Endpoint:  ep.Name,
		Kind:      domain.KindBlockProgression,
		Method:    "eth_blockNumber",
		Outcome:   domain.OutcomeError,
		Detail:    fmt.Sprintf("cannot read block number: %v", err),
		Timestamp: time.Now(),
	}
}

// classify maps a client error onto a probe outcome: remote JSON-RPC errors
// and transport failures are errors, unrecognized response shapes unknown.
func (r *Runner) classify(ep registry.Endpoint, kind domain.ProbeKind, method string, err error) domain.ProbeResult {
	res := domain.ProbeResult{
		Endpoint:  ep.Name,
		Kind:      kind,
		Method:    method,
		Timestamp: time.Now(),
	}

	var rpcErr *rpc.Error
	switch {
	case errors.As(err, &rpcErr):
		res.Outcome = domain.OutcomeError
		res.Detail = rpcErr.Message
		if res.Detail == "" {
			res.Detail = rpcErr.Error()
		}
	case errors.Is(err, rpc.ErrBadResponse):
		res.Outcome = domain.OutcomeUnknown
		res.Detail = err.Error()
	default:
		res.Outcome = domain.OutcomeError
		res.Detail = err.Error()
	}
	return res
}

func (r *Runner) client(ep registry.Endpoint) *rpc.Client {
	r.mu.Lock()
	defer r.mu.Unlock()

	if c, ok := r.clients[ep.RPCURL]; ok {
		return c
	}
	c := rpc.NewClient(ep.Name, ep.RPCURL, r.timeout)
	r.clients[ep.RPCURL] = c
	return c
}

func stringifyResult(raw json.RawMessage) string {
	s := strings.TrimSpace(string(raw))
	if unquoted := strings.Trim(s, `"`); len(unquoted) != len(s) {
		return unquoted
	}
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

func parseHexUint(hexStr string) (uint64, error) {
	n := new(big.Int)
	if _, ok := n.SetString(strings.TrimPrefix(hexStr, "0x"), 16); !ok {
		return 0, fmt.Errorf("invalid hex: %s", hexStr)
	}
	return n.Uint64(), nil
}
