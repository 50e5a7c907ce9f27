package solver

// ============================================================================
// Solver Error Definitions
// Purpose: Typed failures of the ballast gate solve
// ============================================================================

import (
	"errors"
	"fmt"
)

// Predefined errors
var (
	// ErrNoTanks indicates a solve request without any tanks.
	ErrNoTanks = errors.New("solver: no tanks in request")

	// ErrNoTable indicates a solve request without a hydrostatic table.
	ErrNoTable = errors.New("solver: no hydrostatic table in request")
)

// SolveError wraps a failure of one refinement iteration. A mid-loop failure
// is fatal to the whole solve: no partial plan is returned, and the loop
// never retries with relaxed constraints on its own.
type SolveError struct {
	Stage     string // stage name of the failed solve
	Iteration int    // 1-based refinement iteration, 0 for pre-loop failures
	Err       error  // underlying cause (hydro range, LP infeasibility, backend)
}

func (e *SolveError) Error() string {
	if e.Iteration > 0 {
		return fmt.Sprintf("solver: stage %q iteration %d: %v", e.Stage, e.Iteration, e.Err)
	}
	return fmt.Sprintf("solver: stage %q: %v", e.Stage, e.Err)
}

func (e *SolveError) Unwrap() error { return e.Err }
