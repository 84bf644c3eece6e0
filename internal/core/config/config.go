package config

import (
	"time"

	redisclient "github.com/chainpulse/chainpulse/internal/infra/redis"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig       `yaml:"server"`
	Endpoints []EndpointConfig   `yaml:"endpoints"`
	Probes    ProbeConfig        `yaml:"probes"`
	Journal   JournalConfig      `yaml:"journal"`
	Redis     redisclient.Config `yaml:"redis"`
	Logging   LoggingConfig      `yaml:"logging"`
}

// ServerConfig holds HTTP server settings for serve mode.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// EndpointConfig describes one endpoint to probe.
type EndpointConfig struct {
	Name    string            `yaml:"name"`
	RPCURL  string            `yaml:"rpc_url"`
	AuxURLs map[string]string `yaml:"aux_urls"` // beacon, mev-boost, metrics, ...
}

// ProbeConfig holds probe battery settings.
type ProbeConfig struct {
	Timeout      time.Duration `yaml:"timeout"`       // per-request timeout
	PollInterval time.Duration `yaml:"poll_interval"` // block progression wait
	Deadline     time.Duration `yaml:"deadline"`      // whole-run budget, 0 = none
	ScanInterval time.Duration `yaml:"scan_interval"` // serve mode cadence
	Methods      []string      `yaml:"methods"`       // method-call probe list
}

// JournalConfig holds settings for the append-only run journal.
type JournalConfig struct {
	Path string `yaml:"path"`
}
