// ============================================================================
// LP Backend Contract
// ============================================================================
//
// Package: internal/lp
// File: lp.go
// Purpose: Define the linear-programming backend boundary used by the ballast
// gate solver. Any interior-point or simplex implementation satisfying this
// contract is interchangeable; the solver only depends on the interface.
//
// Contract:
//   minimize   Objective·x
//   subject to G·x <= H          (optional inequality system)
//              A·x  = B          (optional equality system)
//              Lower <= x <= Upper
//
// A failed solve (infeasible, unbounded, or numerical failure) must surface
// as an error, never as a zero solution vector.
//
// ============================================================================

package lp

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors for the two failure classes the solver distinguishes.
var (
	// ErrInfeasible indicates the model has no feasible point or is
	// unbounded below. The caller decides whether to relax gates and
	// re-solve; the backend never relaxes on its own.
	ErrInfeasible = errors.New("lp: model infeasible or unbounded")

	// ErrBackend indicates the backend itself failed (singular system,
	// numerical breakdown). Propagated identically to infeasibility.
	ErrBackend = errors.New("lp: backend failure")
)

// Problem is a general-form LP over dense double-precision data.
type Problem struct {
	Objective []float64 // length n, minimized

	G [][]float64 // inequality rows, each length n
	H []float64   // inequality bounds, len(G)

	A [][]float64 // equality rows, each length n
	B []float64   // equality values, len(A)

	Lower []float64 // per-variable lower bounds, length n
	Upper []float64 // per-variable upper bounds, length n; may be +Inf
}

// Validate checks dimensional consistency and bound ordering.
func (p *Problem) Validate() error {
	n := len(p.Objective)
	if n == 0 {
		return fmt.Errorf("lp: empty objective")
	}
	if len(p.Lower) != n || len(p.Upper) != n {
		return fmt.Errorf("lp: bounds length %d/%d, want %d", len(p.Lower), len(p.Upper), n)
	}
	if len(p.G) != len(p.H) {
		return fmt.Errorf("lp: %d inequality rows but %d bounds", len(p.G), len(p.H))
	}
	if len(p.A) != len(p.B) {
		return fmt.Errorf("lp: %d equality rows but %d values", len(p.A), len(p.B))
	}
	for i, row := range p.G {
		if len(row) != n {
			return fmt.Errorf("lp: inequality row %d has length %d, want %d", i, len(row), n)
		}
	}
	for i, row := range p.A {
		if len(row) != n {
			return fmt.Errorf("lp: equality row %d has length %d, want %d", i, len(row), n)
		}
	}
	for i := 0; i < n; i++ {
		if math.IsInf(p.Lower[i], 1) || p.Lower[i] > p.Upper[i] {
			return fmt.Errorf("lp: variable %d has empty bound [%g, %g]", i, p.Lower[i], p.Upper[i])
		}
	}
	return nil
}

// Backend solves a Problem. Implementations must be stateless per call so
// that concurrent solves need no synchronization.
type Backend interface {
	Solve(p *Problem) ([]float64, error)
}
