// Package redis stores health report snapshots so overlapping tooling (the
// status command, external alerting) can read the latest run without
// re-probing the fleet. Optional: the one-shot evaluator never touches it.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/chainpulse/chainpulse/internal/core/domain"
)

const (
	latestKey  = "chainpulse:report:latest"
	historyKey = "chainpulse:report:history"
)

// ErrNoReport is returned when no report snapshot has been stored yet.
var ErrNoReport = errors.New("no report stored")

// Config holds Redis connection configuration.
type Config struct {
	URL          string `yaml:"url"`
	Password     string `yaml:"password"`
	HistoryLimit int    `yaml:"history_limit"` // bounded run history length
}

// Client wraps Redis operations for report snapshots.
type Client struct {
	rdb          *redis.Client
	historyLimit int
}

// NewClient creates a new Redis client and verifies connectivity.
func NewClient(cfg Config) (*Client, error) {
	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}

	rdb := redis.NewClient(opts)

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	limit := cfg.HistoryLimit
	if limit <= 0 {
		limit = 50
	}

	return &Client{rdb: rdb, historyLimit: limit}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.rdb.Close()
}

// SaveReport stores the report as the latest snapshot and pushes it onto the
// bounded run history.
func (c *Client) SaveReport(ctx context.Context, report *domain.HealthReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}

	pipe := c.rdb.TxPipeline()
	pipe.Set(ctx, latestKey, data, 0)
	pipe.LPush(ctx, historyKey, data)
	pipe.LTrim(ctx, historyKey, 0, int64(c.historyLimit-1))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

// LatestReport returns the most recently stored report snapshot.
func (c *Client) LatestReport(ctx context.Context) (*domain.HealthReport, error) {
	data, err := c.rdb.Get(ctx, latestKey).Bytes()
	if err == redis.Nil {
		return nil, ErrNoReport
	}
	if err != nil {
		return nil, fmt.Errorf("get latest report: %w", err)
	}

	var report domain.HealthReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report: %w", err)
	}
	return &report, nil
}

// History returns up to n most recent report snapshots, newest first.
func (c *Client) History(ctx context.Context, n int) ([]*domain.HealthReport, error) {
	if n <= 0 || n > c.historyLimit {
		n = c.historyLimit
	}
	items, err := c.rdb.LRange(ctx, historyKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}

	reports := make([]*domain.HealthReport, 0, len(items))
	for _, item := range items {
		var r domain.HealthReport
		if err := json.Unmarshal([]byte(item), &r); err != nil {
			continue
		}
		reports = append(reports, &r)
	}
	return reports, nil
}
