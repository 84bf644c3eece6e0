package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_EnvSubstitution(t *testing.T) {
	os.Setenv("TEST_RPC_URL", "http://127.0.0.1:8545")
	defer os.Unsetenv("TEST_RPC_URL")

	configContent := `
endpoints:
  - name: Ethereum
    rpc_url: ${TEST_RPC_URL}
`
	tmpFile, err := os.CreateTemp("", "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write([]byte(configContent)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.Endpoints) != 1 {
		t.Fatalf("expected 1 endpoint, got %d", len(cfg.Endpoints))
	}
	if cfg.Endpoints[0].RPCURL != "http://127.0.0.1:8545" {
		t.Errorf("Expected URL http://127.0.0.1:8545, got %s", cfg.Endpoints[0].RPCURL)
	}
}

func TestLoad_Defaults(t *testing.T) {
	configContent := `
endpoints:
  - name: Ethereum
    rpc_url: http://127.0.0.1:8545
`
	tmpFile, err := os.CreateTemp("", "config_*.yaml")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	defer os.Remove(tmpFile.Name())

	if _, err := tmpFile.Write([]byte(configContent)); err != nil {
		t.Fatalf("Failed to write to temp file: %v", err)
	}
	tmpFile.Close()

	cfg, err := Load(tmpFile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Probes.Timeout != 5*time.Second {
		t.Errorf("expected default timeout 5s, got %v", cfg.Probes.Timeout)
	}
	if cfg.Probes.PollInterval != 2*time.Second {
		t.Errorf("expected default poll interval 2s, got %v", cfg.Probes.PollInterval)
	}
	if cfg.Server.Port != 8580 {
		t.Errorf("expected default port 8580, got %d", cfg.Server.Port)
	}
	if len(cfg.Probes.Methods) != len(DefaultMethods) {
		t.Errorf("expected default methods, got %v", cfg.Probes.Methods)
	}
	if cfg.Journal.Path != "chainpulse.log" {
		t.Errorf("expected default journal path, got %s", cfg.Journal.Path)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}
