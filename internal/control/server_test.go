package control

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/chainpulse/chainpulse/internal/core/config"
	"github.com/chainpulse/chainpulse/internal/core/domain"
	"github.com/chainpulse/chainpulse/internal/core/registry"
	"github.com/chainpulse/chainpulse/internal/report"
)

func newTestMonitor(t *testing.T, rpcURL string) *Monitor {
	t.Helper()

	reg, err := registry.Load([]config.EndpointConfig{
		{Name: "A", RPCURL: rpcURL},
	})
	if err != nil {
		t.Fatalf("registry load failed: %v", err)
	}

	m, err := NewMonitor(Config{
		Port:         0,
		Registry:     reg,
		ProbeSet:     report.ProbeSet{Methods: []string{"eth_blockNumber"}},
		Timeout:      time.Second,
		PollInterval: 10 * time.Millisecond,
		ScanInterval: time.Hour, // never ticks during the test
		JournalPath:  filepath.Join(t.TempDir(), "runs.log"),
	})
	if err != nil {
		t.Fatalf("monitor init failed: %v", err)
	}
	return m
}

func TestHandleHealth_BeforeFirstRun(t *testing.T) {
	m := newTestMonitor(t, "http://127.0.0.1:1")

	rec := httptest.NewRecorder()
	m.server.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 before first run, got %d", rec.Code)
	}
}

func TestHandleHealth_AfterRun(t *testing.T) {
	rpc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x10"}`))
	}))
	defer rpc.Close()

	m := newTestMonitor(t, rpc.URL)
	m.runOnce(context.Background())

	rec := httptest.NewRecorder()
	m.server.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200 for healthy endpoint, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if body["status"] != string(domain.OutcomeOK) {
		t.Errorf("expected status ok, got %q", body["status"])
	}
	if body["failed"] != "none" {
		t.Errorf("expected failed=none, got %q", body["failed"])
	}
}

func TestHandleHealth_ErrorIs503(t *testing.T) {
	rpc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"error":{"code":-32000,"message":"down"}}`))
	}))
	defer rpc.Close()

	m := newTestMonitor(t, rpc.URL)
	m.runOnce(context.Background())

	rec := httptest.NewRecorder()
	m.server.handleHealth(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 for erroring endpoint, got %d", rec.Code)
	}
}

func TestHandleDetailed(t *testing.T) {
	rpc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"jsonrpc":"2.0","id":1,"result":"0x10"}`))
	}))
	defer rpc.Close()

	m := newTestMonitor(t, rpc.URL)
	m.runOnce(context.Background())

	rec := httptest.NewRecorder()
	m.server.handleDetailed(rec, httptest.NewRequest("GET", "/health/detailed", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body domain.HealthReport
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid JSON body: %v", err)
	}
	if len(body.Endpoints) != 1 || body.Endpoints[0].Name != "A" {
		t.Errorf("unexpected report body: %+v", body)
	}
	if body.RunID == "" {
		t.Error("expected run ID in detailed report")
	}
}
