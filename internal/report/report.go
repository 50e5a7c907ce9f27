// ============================================================================
// Ballast Gate Report - plan rendering
// ============================================================================
//
// Package: internal/report
// File: report.go
// Purpose: Render solved plans for people (markdown, console summary) and
// for downstream tooling (actions CSV).
//
// ============================================================================

package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/marineops/ballastgate/internal/pipeline"
	"github.com/marineops/ballastgate/pkg/types"
)

// timePrecision rounds durations in the console summary.
const timePrecision = 100 * time.Microsecond

// WriteMarkdown renders one plan as a markdown section: resulting state,
// pumping actions in execution order, and the gate verdicts.
func WriteMarkdown(w io.Writer, plan *types.BallastPlan) error {
	fmt.Fprintf(w, "## %s\n\n", plan.Stage)

	fmt.Fprintf(w, "| Quantity | Value |\n|---|---|\n")
	fmt.Fprintf(w, "| Forward draft | %.3f m |\n", plan.ForwardDraft)
	fmt.Fprintf(w, "| Aft draft | %.3f m |\n", plan.AftDraft)
	fmt.Fprintf(w, "| Mean draft | %.3f m |\n", plan.MeanDraft)
	fmt.Fprintf(w, "| Trim | %.3f m |\n", plan.Trim)
	fmt.Fprintf(w, "| Ballast moved | %.1f t |\n", plan.TotalWeight)
	fmt.Fprintf(w, "| Refinement iterations | %d |\n\n", plan.Iterations)

	if len(plan.Actions) == 0 {
		fmt.Fprintf(w, "No pumping required.\n\n")
	} else {
		fmt.Fprintf(w, "| Tank | Action | Tons | Pump time |\n|---|---|---|---|\n")
		for _, a := range plan.Actions {
			fmt.Fprintf(w, "| %s | %s | %.1f | %s |\n", a.Tank, a.Kind, a.Pumped, a.PumpTime)
		}
		fmt.Fprintln(w)
	}

	if len(plan.Gates) > 0 {
		fmt.Fprintf(w, "| Gate | Status | Limit | Actual | Margin |\n|---|---|---|---|---|\n")
		for _, g := range plan.Gates {
			if g.Status == types.StatusNotApplicable {
				fmt.Fprintf(w, "| %s | %s | | | |\n", g.Name, g.Status)
				continue
			}
			fmt.Fprintf(w, "| %s | %s | %.3f | %.3f | %.3f |\n",
				g.Name, g.Status, g.Limit, g.Actual, g.Margin)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// WriteActionsCSV writes the plan's pumping actions as CSV for downstream
// tooling (columns stage, tank, action, tons, pump_minutes).
func WriteActionsCSV(w io.Writer, plan *types.BallastPlan) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"stage", "tank", "action", "tons", "pump_minutes"}); err != nil {
		return fmt.Errorf("report: write actions csv: %w", err)
	}
	for _, a := range plan.Actions {
		rec := []string{
			plan.Stage,
			string(a.Tank),
			string(a.Kind),
			strconv.FormatFloat(a.Pumped, 'f', 1, 64),
			strconv.FormatFloat(a.PumpTime.Minutes(), 'f', 1, 64),
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("report: write actions csv: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteSummary prints a one-line-per-stage console table for a pipeline run.
func WriteSummary(w io.Writer, results []pipeline.StageResult) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "STAGE\tSTATUS\tACTIONS\tFWD\tAFT\tDURATION")
	for _, res := range results {
		switch {
		case res.Err != nil:
			fmt.Fprintf(tw, "%s\tERROR: %v\t\t\t\t%s\n", res.Stage, res.Err, res.Duration.Round(timePrecision))
		case res.Plan.Violated():
			fmt.Fprintf(tw, "%s\tVIOLATED\t%d\t%.3f\t%.3f\t%s\n",
				res.Stage, len(res.Plan.Actions),
				res.Plan.ForwardDraft, res.Plan.AftDraft,
				res.Duration.Round(timePrecision))
		default:
			fmt.Fprintf(tw, "%s\tOK\t%d\t%.3f\t%.3f\t%s\n",
				res.Stage, len(res.Plan.Actions),
				res.Plan.ForwardDraft, res.Plan.AftDraft,
				res.Duration.Round(timePrecision))
		}
	}
	return tw.Flush()
}
