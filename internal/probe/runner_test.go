package probe

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/chainpulse/chainpulse/internal/core/domain"
	"github.com/chainpulse/chainpulse/internal/core/registry"
)

// rpcServer builds a mock JSON-RPC server whose handler maps method names
// to raw JSON result fragments.
func rpcServer(t *testing.T, results func(method string) string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("failed to decode request: %v", err)
			return
		}
		method, _ := req["method"].(string)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":` + results(method) + `}`))
	}))
}

func testEndpoint(url string) registry.Endpoint {
	return registry.Endpoint{Name: "mock", RPCURL: url}
}

func newTestRunner() *Runner {
	return NewRunner(Options{Timeout: 2 * time.Second, PollInterval: 10 * time.Millisecond})
}

func TestCallMethod_OK(t *testing.T) {
	server := rpcServer(t, func(method string) string { return `"0x1"` })
	defer server.Close()

	r := newTestRunner()
	defer r.Close()

	res := r.CallMethod(context.Background(), testEndpoint(server.URL), "eth_chainId")
	if res.Outcome != domain.OutcomeOK {
		t.Fatalf("expected ok, got %s (%s)", res.Outcome, res.Detail)
	}
	if res.Detail != "0x1" {
		t.Errorf("expected detail 0x1, got %q", res.Detail)
	}
	if res.Kind != domain.KindMethodCall || res.Method != "eth_chainId" {
		t.Errorf("unexpected kind/method: %s/%s", res.Kind, res.Method)
	}
}

func TestCallMethod_RPCError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32601,"message":"method not found"}}`))
	}))
	defer server.Close()

	r := newTestRunner()
	defer r.Close()

	res := r.CallMethod(context.Background(), testEndpoint(server.URL), "bogus")
	if res.Outcome != domain.OutcomeError {
		t.Fatalf("expected error, got %s", res.Outcome)
	}
	if res.Detail != "method not found" {
		t.Errorf("expected endpoint message as detail, got %q", res.Detail)
	}
}

func TestCallMethod_UnknownShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1}`))
	}))
	defer server.Close()

	r := newTestRunner()
	defer r.Close()

	res := r.CallMethod(context.Background(), testEndpoint(server.URL), "eth_blockNumber")
	if res.Outcome != domain.OutcomeUnknown {
		t.Fatalf("expected unknown, got %s (%s)", res.Outcome, res.Detail)
	}
}

func TestCallMethod_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // refuse connections

	r := newTestRunner()
	defer r.Close()

	res := r.CallMethod(context.Background(), testEndpoint(server.URL), "eth_blockNumber")
	if res.Outcome != domain.OutcomeError {
		t.Fatalf("expected error, got %s", res.Outcome)
	}
}

func TestCheckSyncStatus_Synced(t *testing.T) {
	server := rpcServer(t, func(method string) string { return `false` })
	defer server.Close()

	r := newTestRunner()
	defer r.Close()

	res := r.CheckSyncStatus(context.Background(), testEndpoint(server.URL))
	if res.Outcome != domain.OutcomeOK {
		t.Fatalf("expected ok, got %s (%s)", res.Outcome, res.Detail)
	}
	if res.Detail != "synced" {
		t.Errorf("expected detail 'synced', got %q", res.Detail)
	}
}

func TestCheckSyncStatus_Syncing(t *testing.T) {
	server := rpcServer(t, func(method string) string {
		return `{"startingBlock":"0x0","currentBlock":"0x64","highestBlock":"0xc8"}`
	})
	defer server.Close()

	r := newTestRunner()
	defer r.Close()

	res := r.CheckSyncStatus(context.Background(), testEndpoint(server.URL))
	if res.Outcome != domain.OutcomeDegraded {
		t.Fatalf("expected degraded, got %s (%s)", res.Outcome, res.Detail)
	}
	if !strings.Contains(res.Detail, "100") || !strings.Contains(res.Detail, "200") {
		t.Errorf("expected current/highest blocks in detail, got %q", res.Detail)
	}
}

func TestCheckSyncStatus_UnexpectedShapes(t *testing.T) {
	cases := []struct {
		name   string
		result string
	}{
		{"bare true", `true`},
		{"null", `null`},
		{"number", `42`},
	}

	for _, c := range cases {
		server := rpcServer(t, func(method string) string { return c.result })

		r := newTestRunner()
		res := r.CheckSyncStatus(context.Background(), testEndpoint(server.URL))
		r.Close()
		server.Close()

		if res.Outcome != domain.OutcomeUnknown {
			t.Errorf("%s: expected unknown, got %s (%s)", c.name, res.Outcome, res.Detail)
		}
	}
}

func TestCheckBlockProgression_Progressing(t *testing.T) {
	blocks := []string{`"0x10"`, `"0x11"`}
	call := 0
	server := rpcServer(t, func(method string) string {
		result := blocks[call%len(blocks)]
		call++
		return result
	})
	defer server.Close()

	r := newTestRunner()
	defer r.Close()

	res := r.CheckBlockProgression(context.Background(), testEndpoint(server.URL))
	if res.Outcome != domain.OutcomeOK {
		t.Fatalf("expected ok, got %s (%s)", res.Outcome, res.Detail)
	}
}

func TestCheckBlockProgression_Stalled(t *testing.T) {
	server := rpcServer(t, func(method string) string { return `"0x10"` })
	defer server.Close()

	r := newTestRunner()
	defer r.Close()

	res := r.CheckBlockProgression(context.Background(), testEndpoint(server.URL))
	if res.Outcome != domain.OutcomeDegraded {
		t.Fatalf("expected degraded for same block twice, got %s (%s)", res.Outcome, res.Detail)
	}
}

func TestCheckBlockProgression_Regression(t *testing.T) {
	blocks := []string{`"0x20"`, `"0x10"`}
	call := 0
	server := rpcServer(t, func(method string) string {
		result := blocks[call%len(blocks)]
		call++
		return result
	})
	defer server.Close()

	r := newTestRunner()
	defer r.Close()

	res := r.CheckBlockProgression(context.Background(), testEndpoint(server.URL))
	if res.Outcome != domain.OutcomeError {
		t.Fatalf("regression must be an error, got %s (%s)", res.Outcome, res.Detail)
	}
	if !strings.Contains(res.Detail, "regression") {
		t.Errorf("expected regression detail, got %q", res.Detail)
	}
}

func TestCheckBlockProgression_ReadFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"unavailable"}}`))
	}))
	defer server.Close()

	r := newTestRunner()
	defer r.Close()

	res := r.CheckBlockProgression(context.Background(), testEndpoint(server.URL))
	if res.Outcome != domain.OutcomeError {
		t.Fatalf("expected error, got %s", res.Outcome)
	}
	if !strings.Contains(res.Detail, "cannot read block number") {
		t.Errorf("unexpected detail: %q", res.Detail)
	}
}

func TestLatencyOutcome_Bands(t *testing.T) {
	cases := []struct {
		d       time.Duration
		outcome domain.Outcome
		band    string
	}{
		{100 * time.Millisecond, domain.OutcomeOK, "excellent"},
		{499 * time.Millisecond, domain.OutcomeOK, "excellent"},
		// boundaries are inclusive toward the stricter class
		{500 * time.Millisecond, domain.OutcomeOK, "good"},
		{999 * time.Millisecond, domain.OutcomeOK, "good"},
		{1000 * time.Millisecond, domain.OutcomeDegraded, "slow"},
		{1999 * time.Millisecond, domain.OutcomeDegraded, "slow"},
		{2000 * time.Millisecond, domain.OutcomeError, "too slow"},
		{5 * time.Second, domain.OutcomeError, "too slow"},
	}

	for _, c := range cases {
		outcome, detail := LatencyOutcome(c.d)
		if outcome != c.outcome {
			t.Errorf("%v: expected %s, got %s", c.d, c.outcome, outcome)
		}
		if !strings.HasPrefix(detail, c.band) {
			t.Errorf("%v: expected band %q, got %q", c.d, c.band, detail)
		}
	}
}

func TestCheckLatency_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	r := newTestRunner()
	defer r.Close()

	res := r.CheckLatency(context.Background(), testEndpoint(server.URL))
	if res.Outcome != domain.OutcomeError {
		t.Fatalf("expected error, got %s", res.Outcome)
	}
	if !strings.Contains(res.Detail, "unreachable") {
		t.Errorf("expected unreachable detail, got %q", res.Detail)
	}
}

func TestCheckAux(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()

	r := newTestRunner()
	defer r.Close()

	ep := testEndpoint("http://127.0.0.1:1")

	res := r.CheckAux(context.Background(), ep, "mev-boost", healthy.URL+"/status")
	if res.Outcome != domain.OutcomeOK {
		t.Errorf("expected ok for 200, got %s (%s)", res.Outcome, res.Detail)
	}
	if res.Method != "mev-boost" {
		t.Errorf("expected aux name as method, got %q", res.Method)
	}

	res = r.CheckAux(context.Background(), ep, "beacon", broken.URL)
	if res.Outcome != domain.OutcomeError {
		t.Errorf("expected error for 502, got %s", res.Outcome)
	}
}
