package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/chainpulse/chainpulse/internal/control"
	"github.com/chainpulse/chainpulse/internal/core/registry"
	"github.com/chainpulse/chainpulse/internal/report"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run continuous monitoring with an HTTP health endpoint",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := setup()

	reg, err := registry.Load(cfg.Endpoints)
	if err != nil {
		slog.Error("Invalid endpoint registry", "error", err)
		os.Exit(1)
	}

	monitor, err := control.NewMonitor(control.Config{
		Port:         cfg.Server.Port,
		Registry:     reg,
		ProbeSet:     report.DefaultProbeSet(cfg.Probes.Methods),
		Timeout:      cfg.Probes.Timeout,
		PollInterval: cfg.Probes.PollInterval,
		Deadline:     cfg.Probes.Deadline,
		ScanInterval: cfg.Probes.ScanInterval,
		JournalPath:  cfg.Journal.Path,
		Redis:        cfg.Redis,
	})
	if err != nil {
		slog.Error("Failed to initialize monitor", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := monitor.Start(ctx); err != nil {
		slog.Error("Failed to start monitor", "error", err)
		os.Exit(1)
	}

	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := monitor.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Monitor stopped gracefully")
}
