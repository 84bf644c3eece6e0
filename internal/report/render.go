package report

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/chainpulse/chainpulse/internal/core/domain"
)

// Render writes the line-oriented human report: a per-run header, then one
// probe-by-probe block per endpoint in registry order.
func Render(w io.Writer, report *domain.HealthReport) error {
	if _, err := fmt.Fprintf(w, "run %s  overall=%s  failed=%s\n\n",
		report.RunID, report.Overall, report.FailedList()); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 3, ' ', 0)
	fmt.Fprintln(tw, "ENDPOINT\tOUTCOME\tPROBE\tMETHOD\tDETAIL")

	for _, ep := range report.Endpoints {
		mark := "pass"
		if !ep.Outcome.IsOK() {
			mark = "FAIL"
		}
		fmt.Fprintf(tw, "%s\t%s (%s)\t\t\t\n", ep.Name, ep.Outcome, mark)

		for _, p := range ep.Probes {
			fmt.Fprintf(tw, "\t%s\t%s\t%s\t%s\n", p.Outcome, p.Kind, p.Method, p.Detail)
		}
	}

	return tw.Flush()
}
