// ============================================================================
// Ballast Gate Solver - hydrostatic refinement loop
// ============================================================================
//
// Package: internal/solver
// File: solver.go
// Purpose: Drive the full solve: interpolate hydrostatics, build the LP
// model, call the backend, predict the resulting drafts, and iterate.
//
// The hydrostatic coefficients (TPC, MTC, LCF) depend on the mean draft the
// plan itself produces, so the linear model is only valid at the draft it
// was built for. The loop handles this as repeated linearization: each
// iteration re-interpolates at the mean draft predicted by the previous
// iteration's solution. The iteration count is fixed (default 2) — drafts
// stabilize empirically within 2–3 iterations, and a bounded loop guarantees
// termination without a numerical convergence test.
//
// Failure policy: a backend failure or an out-of-range draft at any
// iteration aborts the whole solve. No partial plan is returned and the loop
// never retries with relaxed constraints; relax-and-retry is a caller-level
// decision.
//
// ============================================================================

package solver

import (
	"context"
	"log/slog"
	"time"

	"github.com/marineops/ballastgate/internal/hydro"
	"github.com/marineops/ballastgate/internal/lp"
	"github.com/marineops/ballastgate/pkg/types"
)

var log = slog.Default()

// Default solve parameters.
const (
	DefaultIterations   = 2
	DefaultSlackPenalty = 1e6
)

// Config configures a Solver.
type Config struct {
	Backend      lp.Backend      // nil selects lp.Gonum{}
	Iterations   int             // refinement iterations, <=0 selects DefaultIterations
	SlackPenalty float64         // soft-gate/target slack penalty, <=0 selects DefaultSlackPenalty
	Objective    ObjectivePolicy // tank cost policy
}

// Solver runs ballast gate solves. Stateless between calls: each solve is a
// pure computation over its request, so one Solver may serve concurrent
// stages as long as its backend is reentrant.
type Solver struct {
	backend    lp.Backend
	iterations int
	penalty    float64
	objective  ObjectivePolicy
}

// New creates a Solver, applying defaults for unset config fields.
func New(cfg Config) *Solver {
	s := &Solver{
		backend:    cfg.Backend,
		iterations: cfg.Iterations,
		penalty:    cfg.SlackPenalty,
		objective:  cfg.Objective,
	}
	if s.backend == nil {
		s.backend = lp.Gonum{}
	}
	if s.iterations <= 0 {
		s.iterations = DefaultIterations
	}
	if s.penalty <= 0 {
		s.penalty = DefaultSlackPenalty
	}
	return s
}

// Request is one solve invocation: a private snapshot of tanks and gates
// plus the initial draft state. The solver never mutates request data.
type Request struct {
	Stage   string
	Tanks   []types.Tank
	Table   *hydro.Table
	Gates   []types.GateSpec
	Initial types.Drafts

	Mode   SolveMode
	Target types.Drafts // target-mode draft pair; ignored in limit mode
}

// Solve runs the refinement loop and interprets the final solution into a
// plan. The context is checked between iterations; cancellation aborts the
// solve with the context error.
func (s *Solver) Solve(ctx context.Context, req Request) (*types.BallastPlan, error) {
	if len(req.Tanks) == 0 {
		return nil, &SolveError{Stage: req.Stage, Err: ErrNoTanks}
	}
	if req.Table == nil {
		return nil, &SolveError{Stage: req.Stage, Err: ErrNoTable}
	}

	start := time.Now()
	mean := req.Initial.Mean()

	var (
		lastModel *model
		lastX     []float64
	)

	for it := 1; it <= s.iterations; it++ {
		if err := ctx.Err(); err != nil {
			return nil, &SolveError{Stage: req.Stage, Iteration: it, Err: err}
		}

		pt, err := req.Table.At(mean)
		if err != nil {
			return nil, &SolveError{Stage: req.Stage, Iteration: it, Err: err}
		}

		m, err := buildModel(buildParams{
			tanks:        req.Tanks,
			point:        pt,
			initial:      req.Initial,
			gates:        req.Gates,
			stage:        req.Stage,
			mode:         req.Mode,
			target:       req.Target,
			objective:    s.objective,
			slackPenalty: s.penalty,
		})
		if err != nil {
			return nil, &SolveError{Stage: req.Stage, Iteration: it, Err: err}
		}

		x, err := s.backend.Solve(m.problem())
		if err != nil {
			return nil, &SolveError{Stage: req.Stage, Iteration: it, Err: err}
		}

		lastModel, lastX = m, x
		pred := hydro.Predict(req.Initial, pt, m.tankDeltas(x))
		log.Debug("refinement iteration",
			"stage", req.Stage,
			"iteration", it,
			"mean_draft", mean,
			"predicted_mean", pred.Drafts.Mean(),
			"total_weight", pred.TotalWeight)
		mean = pred.Drafts.Mean()
	}

	plan := interpret(lastModel, lastX, req.Stage, s.iterations)
	log.Info("solve completed",
		"stage", req.Stage,
		"actions", len(plan.Actions),
		"violated", plan.Violated(),
		"duration", time.Since(start))
	return plan, nil
}
