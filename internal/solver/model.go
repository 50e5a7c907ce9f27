// ============================================================================
// LP Model - variable layout and system assembly
// ============================================================================
//
// Package: internal/solver
// File: model.go
// Purpose: Hold the LP model under construction: an explicit ordered list of
// named variables (tank fill/discharge pairs first, then gate or target
// slacks) with a name-to-index lookup, plus the inequality and equality
// systems referencing those indices.
//
// The explicit layout avoids positional-index bugs when gates are
// conditionally added: every consumer resolves variables by name, and rows
// are kept sparse until the final densification into an lp.Problem.
//
// ============================================================================

package solver

import (
	"math"

	"github.com/marineops/ballastgate/internal/hydro"
	"github.com/marineops/ballastgate/internal/lp"
	"github.com/marineops/ballastgate/pkg/types"
)

// SolveMode selects the constraint construction.
type SolveMode int

// Solve modes.
const (
	// ModeLimit bounds the resulting state with inequality gate rows.
	ModeLimit SolveMode = iota
	// ModeTarget forces an exact resulting draft pair with penalized
	// equality slack so the model stays solvable when the target is out
	// of reach.
	ModeTarget
)

// ObjectivePolicy selects the per-tank cost coefficients.
type ObjectivePolicy int

// Objective policies.
const (
	// MinimizeWeight costs each moved ton by the tank's priority weight.
	MinimizeWeight ObjectivePolicy = iota
	// MinimizeTime costs each moved ton by priority divided by pump rate,
	// approximating total pumping time.
	MinimizeTime
)

type varKind int

const (
	varFill varKind = iota
	varDischarge
	varSlack
)

// variable is one entry of the flat LP variable array.
type variable struct {
	name   string
	kind   varKind
	tank   int // tank index for fill/discharge variables, -1 for slacks
	lo, hi float64
	cost   float64
}

// sparse inequality/equality row: coef·x <= bound (or = bound).
type row struct {
	coef  map[int]float64
	bound float64
}

// gateEval carries what the interpreter needs to report one gate: the spec,
// the stage-applicability outcome, and the slack variables backing it.
type gateEval struct {
	spec       types.GateSpec
	applicable bool
	slacks     []int // empty for hard gates and non-applicable gates
}

// model is the assembled LP for one refinement iteration.
type model struct {
	tanks   []types.Tank
	point   types.HydroPoint
	initial types.Drafts
	mode    SolveMode

	vars  []variable
	index map[string]int
	ineq  []row
	eq    []row

	// Per tank-variable sensitivity vectors; slack variables have zero
	// sensitivity and are not represented here.
	sensWeight []float64 // tons of net change per unit of the variable
	sensMoment []float64 // trimming moment per unit, t·m
	sensMean   []float64 // mean-draft change per unit, m
	sensTrim   []float64 // trim change per unit, m
	sensFwd    []float64 // forward-draft change per unit, m
	sensAft    []float64 // aft-draft change per unit, m

	gates []gateEval

	// Target-mode slack variable indices (+/- per row), -1 when unused.
	weightSlackPos, weightSlackNeg int
	momentSlackPos, momentSlackNeg int
}

func newModel(tanks []types.Tank, pt types.HydroPoint, initial types.Drafts, mode SolveMode) *model {
	return &model{
		tanks:          tanks,
		point:          pt,
		initial:        initial,
		mode:           mode,
		index:          make(map[string]int),
		weightSlackPos: -1,
		weightSlackNeg: -1,
		momentSlackPos: -1,
		momentSlackNeg: -1,
	}
}

// addVar appends a named variable and returns its index.
func (m *model) addVar(v variable) int {
	idx := len(m.vars)
	m.vars = append(m.vars, v)
	m.index[v.name] = idx
	return idx
}

// addSlack appends a penalized non-negative slack variable.
func (m *model) addSlack(name string, penalty float64) int {
	return m.addVar(variable{
		name: name,
		kind: varSlack,
		tank: -1,
		lo:   0,
		hi:   math.Inf(1),
		cost: penalty,
	})
}

// lookup returns the index of a named variable.
func (m *model) lookup(name string) (int, bool) {
	i, ok := m.index[name]
	return i, ok
}

func (m *model) addIneq(coef map[int]float64, bound float64) {
	m.ineq = append(m.ineq, row{coef: coef, bound: bound})
}

func (m *model) addEq(coef map[int]float64, bound float64) {
	m.eq = append(m.eq, row{coef: coef, bound: bound})
}

// problem densifies the model into the backend's standard contract.
func (m *model) problem() *lp.Problem {
	n := len(m.vars)
	p := &lp.Problem{
		Objective: make([]float64, n),
		Lower:     make([]float64, n),
		Upper:     make([]float64, n),
	}
	for i, v := range m.vars {
		p.Objective[i] = v.cost
		p.Lower[i] = v.lo
		p.Upper[i] = v.hi
	}
	for _, r := range m.ineq {
		dense := make([]float64, n)
		for i, c := range r.coef {
			dense[i] = c
		}
		p.G = append(p.G, dense)
		p.H = append(p.H, r.bound)
	}
	for _, r := range m.eq {
		dense := make([]float64, n)
		for i, c := range r.coef {
			dense[i] = c
		}
		p.A = append(p.A, dense)
		p.B = append(p.B, r.bound)
	}
	return p
}

// tankDeltas converts a solution vector into per-tank net weight changes.
func (m *model) tankDeltas(x []float64) []hydro.Delta {
	deltas := make([]hydro.Delta, 0, len(m.tanks))
	for i, t := range m.tanks {
		fill, disch := m.tankValues(x, i)
		net := fill - disch
		deltas = append(deltas, hydro.Delta{Tank: t.ID, Offset: t.LCG, Tons: net})
	}
	return deltas
}

// tankValues returns the fill and discharge amounts of tank i in x.
func (m *model) tankValues(x []float64, i int) (fill, discharge float64) {
	fi := m.index[fillName(m.tanks[i].ID)]
	di := m.index[dischargeName(m.tanks[i].ID)]
	return x[fi], x[di]
}

func fillName(id types.TankID) string      { return "fill/" + string(id) }
func dischargeName(id types.TankID) string { return "disch/" + string(id) }
