package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// DefaultMethods is the method-call battery used when none is configured.
var DefaultMethods = []string{
	"eth_blockNumber",
	"eth_chainId",
	"net_version",
	"web3_clientVersion",
}

// Load reads configuration from a YAML file.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg AppConfig
	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Set defaults if necessary
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8580
	}
	if cfg.Probes.Timeout == 0 {
		cfg.Probes.Timeout = 5 * time.Second
	}
	if cfg.Probes.PollInterval == 0 {
		cfg.Probes.PollInterval = 2 * time.Second
	}
	if cfg.Probes.ScanInterval == 0 {
		cfg.Probes.ScanInterval = 30 * time.Second
	}
	if len(cfg.Probes.Methods) == 0 {
		cfg.Probes.Methods = DefaultMethods
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = "chainpulse.log"
	}
	if cfg.Redis.HistoryLimit == 0 {
		cfg.Redis.HistoryLimit = 50
	}

	return &cfg, nil
}
