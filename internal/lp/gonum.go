package lp

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	convexlp "gonum.org/v1/gonum/optimize/convex/lp"
)

// defaultTol matches the tolerance gonum's simplex uses internally.
const defaultTol = 1e-10

// Gonum solves Problems with gonum's dense simplex method. The general form
// is rewritten to standard form via lp.Convert: variable bounds become
// inequality rows, and Convert splits each variable into a non-negative
// positive/negative pair. Stateless; safe for concurrent use.
type Gonum struct {
	// Tol is the simplex optimality tolerance. Zero selects defaultTol.
	Tol float64
}

// Solve implements Backend.
func (g Gonum) Solve(p *Problem) ([]float64, error) {
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}
	n := len(p.Objective)

	// Assemble the full inequality system: model rows first, then the
	// variable bounds. Convert treats variables as free, so the lower
	// bound row is required even when the bound is zero.
	rows := make([][]float64, 0, len(p.G)+2*n)
	h := make([]float64, 0, len(p.H)+2*n)
	rows = append(rows, p.G...)
	h = append(h, p.H...)
	for i := 0; i < n; i++ {
		if !math.IsInf(p.Upper[i], 1) {
			row := make([]float64, n)
			row[i] = 1
			rows = append(rows, row)
			h = append(h, p.Upper[i])
		}
		row := make([]float64, n)
		row[i] = -1
		rows = append(rows, row)
		h = append(h, -p.Lower[i])
	}

	gm := mat.NewDense(len(rows), n, nil)
	for i, row := range rows {
		gm.SetRow(i, row)
	}

	var am mat.Matrix
	var b []float64
	if len(p.A) > 0 {
		ad := mat.NewDense(len(p.A), n, nil)
		for i, row := range p.A {
			ad.SetRow(i, row)
		}
		am = ad
		b = p.B
	}

	cStd, aStd, bStd := convexlp.Convert(p.Objective, gm, h, am, b)

	tol := g.Tol
	if tol == 0 {
		tol = defaultTol
	}
	_, xStd, err := convexlp.Simplex(cStd, aStd, bStd, tol, nil)
	if err != nil {
		if errors.Is(err, convexlp.ErrInfeasible) || errors.Is(err, convexlp.ErrUnbounded) {
			return nil, fmt.Errorf("%w: %v", ErrInfeasible, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrBackend, err)
	}

	// Convert splits x into [x+, x-, structural slacks]; recover x.
	x := make([]float64, n)
	for i := 0; i < n; i++ {
		x[i] = xStd[i] - xStd[n+i]
	}
	return x, nil
}
