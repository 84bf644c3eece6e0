// Package registry holds the static mapping of logical chain names to the
// RPC and auxiliary URLs that get probed. Loaded once at startup, immutable
// for the process lifetime.
package registry

import (
	"fmt"
	"net/url"

	"github.com/chainpulse/chainpulse/internal/core/config"
)

// ConfigError reports a malformed or duplicate registry entry. It is fatal
// at startup: the process exits before any probing.
type ConfigError struct {
	Entry  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("invalid endpoint config: %s", e.Reason)
	}
	return fmt.Sprintf("invalid endpoint %q: %s", e.Entry, e.Reason)
}

// Endpoint is one probed target: a chain RPC plus optional auxiliary
// services (beacon API, mev-boost builder status, metrics).
type Endpoint struct {
	Name    string
	RPCURL  string
	AuxURLs map[string]string
}

// Registry is the ordered, validated endpoint list. Order is configuration
// order and drives report ordering.
type Registry struct {
	entries []Endpoint
}

// Load validates endpoint configs into a Registry. Names must be unique and
// non-empty; every URL must be an absolute http(s) URL.
func Load(cfgs []config.EndpointConfig) (*Registry, error) {
	if len(cfgs) == 0 {
		return nil, &ConfigError{Reason: "no endpoints configured"}
	}

	seen := make(map[string]struct{}, len(cfgs))
	entries := make([]Endpoint, 0, len(cfgs))

	for _, c := range cfgs {
		if c.Name == "" {
			return nil, &ConfigError{Reason: "endpoint name is empty"}
		}
		if _, dup := seen[c.Name]; dup {
			return nil, &ConfigError{Entry: c.Name, Reason: "duplicate endpoint name"}
		}
		seen[c.Name] = struct{}{}

		if err := validateURL(c.RPCURL); err != nil {
			return nil, &ConfigError{Entry: c.Name, Reason: fmt.Sprintf("rpc_url: %v", err)}
		}
		for aux, u := range c.AuxURLs {
			if err := validateURL(u); err != nil {
				return nil, &ConfigError{Entry: c.Name, Reason: fmt.Sprintf("aux_urls.%s: %v", aux, err)}
			}
		}

		entries = append(entries, Endpoint{
			Name:    c.Name,
			RPCURL:  c.RPCURL,
			AuxURLs: c.AuxURLs,
		})
	}

	return &Registry{entries: entries}, nil
}

// Entries returns the endpoints in configured order.
func (r *Registry) Entries() []Endpoint {
	return r.entries
}

// Len returns the number of configured endpoints.
func (r *Registry) Len() int {
	return len(r.entries)
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("missing URL")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("parse %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host in %q", raw)
	}
	return nil
}
