// ============================================================================
// Ballast Gate Pipeline - multi-stage runner
// ============================================================================
//
// Package: internal/pipeline
// File: runner.go
// Purpose: Solve every stage of a cargo operation against shared vessel
// inputs and per-stage sounding snapshots.
//
// The tank table, hydrostatic table, and gate set are loaded once and shared
// read-only across stages. Each stage gets a private tank copy with its own
// sounding snapshot applied, so stages never observe each other's state.
// Failures are isolated per stage: a stage whose snapshot fails to load or
// whose solve errors is reported in its result slot while the rest of the
// operation proceeds. Results come back in stage input order regardless of
// completion order.
//
// ============================================================================

package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/marineops/ballastgate/internal/hydro"
	"github.com/marineops/ballastgate/internal/input"
	"github.com/marineops/ballastgate/internal/metrics"
	"github.com/marineops/ballastgate/internal/solver"
	"github.com/marineops/ballastgate/pkg/types"
)

var log = slog.Default()

// Stage describes one stage of the operation to solve.
type Stage struct {
	Name      string
	Soundings string       // snapshot file or directory; empty keeps the tank table's currents
	Initial   types.Drafts // observed drafts at the start of the stage
	Mode      solver.SolveMode
	Target    types.Drafts // target-mode draft pair; ignored in limit mode
}

// StageResult is the outcome of one stage, in stage input order. Exactly one
// of Plan and Err is set.
type StageResult struct {
	Stage    string
	Plan     *types.BallastPlan
	Err      error
	Duration time.Duration
}

// Inputs are the vessel-level inputs shared by every stage.
type Inputs struct {
	Tanks []types.Tank
	Table *hydro.Table
	Gates []types.GateSpec
}

// Runner solves a sequence of stages on a worker pool.
type Runner struct {
	solver      *solver.Solver
	inputs      Inputs
	parallelism int
	collector   *metrics.Collector // nil disables instrumentation
}

// NewRunner creates a runner. Parallelism below 1 is clamped to 1; collector
// may be nil.
func NewRunner(s *solver.Solver, inputs Inputs, parallelism int, collector *metrics.Collector) *Runner {
	if parallelism < 1 {
		parallelism = 1
	}
	return &Runner{
		solver:      s,
		inputs:      inputs,
		parallelism: parallelism,
		collector:   collector,
	}
}

// Run solves all stages and returns one result per stage in input order.
// The returned error covers pipeline-level failures only; per-stage failures
// land in the corresponding StageResult.
func (r *Runner) Run(ctx context.Context, stages []Stage) ([]StageResult, error) {
	if len(stages) == 0 {
		return nil, errors.New("pipeline: no stages to solve")
	}

	results := make([]StageResult, len(stages))
	for i, st := range stages {
		results[i].Stage = st.Name
	}

	pool := NewPool(r.solver, len(stages))
	if err := pool.Start(ctx, r.parallelism); err != nil {
		return nil, err
	}
	defer pool.Stop()

	outstanding := 0
	for i, st := range stages {
		tanks, err := r.stageTanks(st)
		if err != nil {
			results[i].Err = err
			log.Warn("stage inputs rejected", "stage", st.Name, "error", err)
			continue
		}
		task := Task{
			Index: i,
			Request: solver.Request{
				Stage:   st.Name,
				Tanks:   tanks,
				Table:   r.inputs.Table,
				Gates:   r.inputs.Gates,
				Initial: st.Initial,
				Mode:    st.Mode,
				Target:  st.Target,
			},
		}
		if err := pool.Submit(task); err != nil {
			results[i].Err = err
			continue
		}
		outstanding++
		r.updateGauges(outstanding)
	}

	for ; outstanding > 0; outstanding-- {
		res, err := pool.ReceiveResult()
		if err != nil {
			return nil, err
		}
		slot := &results[res.Index]
		slot.Plan = res.Plan
		slot.Err = res.Err
		slot.Duration = res.Duration

		if res.Err != nil {
			r.collector.RecordFailure()
			log.Warn("stage solve failed", "stage", slot.Stage, "error", res.Err)
		} else {
			r.collector.RecordSolve(res.Duration.Seconds())
			r.collector.RecordViolations(countViolations(res.Plan))
		}
		r.updateGauges(outstanding - 1)
	}
	return results, nil
}

// stageTanks builds the stage's private tank snapshot. With no sounding
// source the shared table's current contents are used as-is.
func (r *Runner) stageTanks(st Stage) ([]types.Tank, error) {
	if st.Soundings == "" {
		tanks := make([]types.Tank, len(r.inputs.Tanks))
		copy(tanks, r.inputs.Tanks)
		return tanks, nil
	}
	soundings, err := input.ResolveSoundings(st.Soundings)
	if err != nil {
		return nil, err
	}
	return input.ApplySoundings(r.inputs.Tanks, soundings)
}

// updateGauges approximates pending/in-flight from the outstanding count:
// up to parallelism tasks can be in flight, the rest wait on the queue.
func (r *Runner) updateGauges(outstanding int) {
	inFlight := outstanding
	if inFlight > r.parallelism {
		inFlight = r.parallelism
	}
	r.collector.UpdateStageStats(outstanding-inFlight, inFlight)
}

func countViolations(plan *types.BallastPlan) int {
	if plan == nil {
		return 0
	}
	n := 0
	for _, g := range plan.Gates {
		if g.Status == types.StatusFail {
			n++
		}
	}
	return n
}
