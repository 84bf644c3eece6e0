package cli

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/chainpulse/chainpulse/internal/core/config"
	"github.com/chainpulse/chainpulse/internal/core/registry"
	"github.com/chainpulse/chainpulse/internal/probe"
	"github.com/chainpulse/chainpulse/internal/report"
)

var (
	cfgPath string
	isDebug bool
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "chainpulse",
	Short: "Node-fleet RPC health evaluator",
	Long: `Chainpulse probes a fleet of blockchain RPC endpoints (method calls,
sync status, block progression, latency, auxiliary services) and reports a
pass/fail verdict. Exit code 0 means every endpoint is healthy.`,
	Run: runCheck,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.Flags().DurationVar(&timeout, "timeout", 0, "per-request probe timeout (overrides config)")
}

// setup loads .env and config, then initializes logging. Shared by every
// subcommand; config load failures are fatal before any probing.
func setup() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})

	return cfg
}

func runCheck(cmd *cobra.Command, args []string) {
	cfg := setup()

	reg, err := registry.Load(cfg.Endpoints)
	if err != nil {
		slog.Error("Invalid endpoint registry", "error", err)
		os.Exit(1)
	}

	if timeout > 0 {
		cfg.Probes.Timeout = timeout
	}

	runner := probe.NewRunner(probe.Options{
		Timeout:      cfg.Probes.Timeout,
		PollInterval: cfg.Probes.PollInterval,
	})
	defer runner.Close()

	ctx := context.Background()
	if cfg.Probes.Deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Probes.Deadline)
		defer cancel()
	}

	aggregator := report.NewAggregator(runner)
	result := aggregator.Run(ctx, reg, report.DefaultProbeSet(cfg.Probes.Methods))

	if err := report.Render(os.Stdout, result); err != nil {
		slog.Error("Failed to render report", "error", err)
	}

	journal := report.NewJournal(cfg.Journal.Path)
	if err := journal.Append(result); err != nil {
		slog.Error("Failed to append journal", "error", err)
	}

	if !result.Overall.IsOK() {
		os.Exit(1)
	}
}
