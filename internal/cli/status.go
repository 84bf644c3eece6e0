package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	redisclient "github.com/chainpulse/chainpulse/internal/infra/redis"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the latest stored health report without re-probing",
	Run:   runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) {
	cfg := setup()

	if cfg.Redis.URL == "" {
		slog.Error("status requires redis.url to be configured")
		os.Exit(1)
	}

	snapshots, err := redisclient.NewClient(cfg.Redis)
	if err != nil {
		slog.Error("Failed to connect to redis", "error", err)
		os.Exit(1)
	}
	defer func() {
		_ = snapshots.Close()
	}()

	report, err := snapshots.LatestReport(context.Background())
	if err != nil {
		if errors.Is(err, redisclient.ErrNoReport) {
			slog.Error("No report stored yet; run the monitor first")
		} else {
			slog.Error("Failed to read latest report", "error", err)
		}
		os.Exit(1)
	}

	fmt.Printf("run %s  finished %s  overall=%s\n\n",
		report.RunID, report.FinishedAt.Format("2006-01-02 15:04:05"), report.Overall)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "ENDPOINT\tOUTCOME\tPROBES")

	for _, ep := range report.Endpoints {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\n", ep.Name, ep.Outcome, len(ep.Probes))
	}
	_ = w.Flush()

	if !report.Overall.IsOK() {
		os.Exit(1)
	}
}
