// ============================================================================
// Constraint Builder - LP model construction from tanks, hydrostatics, gates
// ============================================================================
//
// Package: internal/solver
// File: constraints.go
// Purpose: Build the full LP model for one refinement iteration: decision
// variables with mode-derived bounds, draft-sensitivity coefficients, gate
// inequality rows (limit mode) or target equality rows (target mode), and
// the objective vector.
//
// Variable representation: each tank gets two non-negative variables, fill
// p and discharge n, with net change p−n. The split keeps the model in
// standard non-negative form and lets the objective cost the two directions
// independently.
//
// Soft gates follow the gate-row-plus-optional-slack pattern: one inequality
// row per gate side, with a penalized non-negative slack subtracted from the
// left side so the slack value measures the violation. Hard gates emit the
// same row without slack; if a hard gate cannot be met the model is
// infeasible and the solve fails.
//
// Guard bands: the gate tolerance relaxes the limit before the row is built
// (subtracted from minimum limits, added to maximum limits). A result inside
// the band is feasible for the LP; the interpreter reclassifies it as a
// guard-band pass against the true limit.
//
// ============================================================================

package solver

import (
	"fmt"

	"github.com/marineops/ballastgate/pkg/types"
)

// buildParams collects everything one model construction needs.
type buildParams struct {
	tanks        []types.Tank
	point        types.HydroPoint
	initial      types.Drafts
	gates        []types.GateSpec
	stage        string
	mode         SolveMode
	target       types.Drafts
	objective    ObjectivePolicy
	slackPenalty float64
}

// buildModel constructs the LP model for the given operating point.
func buildModel(p buildParams) (*model, error) {
	if len(p.tanks) == 0 {
		return nil, ErrNoTanks
	}
	for _, t := range p.tanks {
		if err := t.Validate(); err != nil {
			return nil, err
		}
	}
	for _, g := range p.gates {
		if err := g.Validate(); err != nil {
			return nil, err
		}
	}
	if p.point.TPC <= 0 || p.point.MTC <= 0 {
		return nil, fmt.Errorf("solver: hydrostatic point has non-positive TPC/MTC")
	}

	m := newModel(p.tanks, p.point, p.initial, p.mode)
	m.addTankVariables(p.objective)
	m.computeSensitivities()

	switch p.mode {
	case ModeLimit:
		for _, g := range p.gates {
			m.addGate(g, p.stage, p.slackPenalty)
		}
	case ModeTarget:
		m.addTargetRows(p.target, p.slackPenalty)
	default:
		return nil, fmt.Errorf("solver: unknown solve mode %d", p.mode)
	}
	return m, nil
}

// addTankVariables creates the fill/discharge pair for every tank with
// bounds derived from the tank's operating mode. Blocked and disabled tanks
// get zero-width bounds on both directions.
func (m *model) addTankVariables(policy ObjectivePolicy) {
	for i, t := range m.tanks {
		var fillHi, dischHi float64
		switch t.Mode {
		case types.ModeFillDischarge:
			fillHi = t.FillHeadroom()
			dischHi = t.DischargeHeadroom()
		case types.ModeFillOnly:
			fillHi = t.FillHeadroom()
		case types.ModeDischargeOnly:
			dischHi = t.DischargeHeadroom()
		}

		cost := tankCost(t, policy)
		m.addVar(variable{name: fillName(t.ID), kind: varFill, tank: i, lo: 0, hi: fillHi, cost: cost})
		m.addVar(variable{name: dischargeName(t.ID), kind: varDischarge, tank: i, lo: 0, hi: dischHi, cost: cost})
	}
}

// tankCost is the objective coefficient applied identically to both the
// fill and discharge variable of a tank. A non-positive result falls back to
// 1 so that moving ballast is never free: a zero cost would make
// simultaneous fill and discharge of one tank non-dominated.
func tankCost(t types.Tank, policy ObjectivePolicy) float64 {
	w := t.Priority
	if w <= 0 {
		w = 1
	}
	if policy == MinimizeTime && t.PumpRate > 0 {
		w /= t.PumpRate
	}
	if w <= 0 {
		w = 1
	}
	return w
}

// computeSensitivities derives the per-variable draft sensitivity vectors
// from the weight and moment rows at the current hydrostatic point.
func (m *model) computeSensitivities() {
	n := len(m.vars)
	m.sensWeight = make([]float64, n)
	m.sensMoment = make([]float64, n)
	m.sensMean = make([]float64, n)
	m.sensTrim = make([]float64, n)
	m.sensFwd = make([]float64, n)
	m.sensAft = make([]float64, n)

	tpm := m.point.TPC * 100 // tons per meter of mean draft
	mtm := m.point.MTC * 100 // t·m per meter of trim

	for i, v := range m.vars {
		if v.tank < 0 {
			continue
		}
		t := m.tanks[v.tank]
		arm := t.LCG - m.point.LCF

		sign := 1.0
		if v.kind == varDischarge {
			sign = -1.0
		}
		m.sensWeight[i] = sign
		m.sensMoment[i] = sign * arm
		m.sensMean[i] = m.sensWeight[i] / tpm
		m.sensTrim[i] = m.sensMoment[i] / mtm
		m.sensFwd[i] = m.sensMean[i] - 0.5*m.sensTrim[i]
		m.sensAft[i] = m.sensMean[i] + 0.5*m.sensTrim[i]
	}
}

// gateRow emits one inequality row coef·x − slack <= bound. For soft rows a
// slack is created (or reused, for gates sharing one slack across sides) and
// its index returned; hard rows return reuse unchanged.
func (m *model) gateRow(coef []float64, bound float64, soft bool, slackName string, penalty float64, reuse int) int {
	r := make(map[int]float64, 8)
	for i, c := range coef {
		if c != 0 {
			r[i] = c
		}
	}
	slack := reuse
	if soft {
		if slack < 0 {
			slack = m.addSlack(slackName, penalty)
		}
		r[slack] = -1
	}
	m.addIneq(r, bound)
	return slack
}

// addGate translates one gate spec into inequality rows at the current
// operating point. Non-applicable gates produce no rows and are recorded so
// the interpreter reports them as not evaluated rather than pass/fail.
func (m *model) addGate(g types.GateSpec, stage string, penalty float64) {
	if !g.AppliesTo(stage) {
		m.gates = append(m.gates, gateEval{spec: g, applicable: false})
		return
	}

	soft := g.Policy == types.PolicySoft
	ev := gateEval{spec: g, applicable: true}
	slackName := "slack/" + g.Name

	record := func(idx int) {
		if idx < 0 {
			return
		}
		for _, s := range ev.slacks {
			if s == idx {
				return
			}
		}
		ev.slacks = append(ev.slacks, idx)
	}

	switch g.Kind {
	case types.GateAftMin:
		// aft_new >= limit−tol  ⇒  −sensAft·x <= −(limit−tol − initialAft)
		limit := g.Limit - g.Tolerance
		record(m.gateRow(negate(m.sensAft), -(limit - m.initial.Aft), soft, slackName, penalty, -1))

	case types.GateForwardMax:
		// fwd_new <= limit+tol
		limit := g.Limit + g.Tolerance
		record(m.gateRow(m.sensFwd, limit-m.initial.Forward, soft, slackName, penalty, -1))

	case types.GateFreeboardMin:
		// freeboard >= limit−tol on both sides ⇒ draft <= depth−(limit−tol)
		allowed := g.VesselDepth - (g.Limit - g.Tolerance)
		s := m.gateRow(m.sensFwd, allowed-m.initial.Forward, soft, slackName+"/fwd", penalty, -1)
		record(s)
		if g.SplitSlack {
			s = -1
		}
		record(m.gateRow(m.sensAft, allowed-m.initial.Aft, soft, slackName+"/aft", penalty, s))

	case types.GateUKCMin:
		// refDraft <= bottom + tide − squat − margin − (ukcMin−tol)
		allowed := g.BottomDepth + g.Tide - g.Squat - g.SafetyMargin - (g.Limit - g.Tolerance)
		ref := g.Reference
		if ref == "" {
			ref = types.UKCBoth
		}
		switch ref {
		case types.UKCForward:
			record(m.gateRow(m.sensFwd, allowed-m.initial.Forward, soft, slackName, penalty, -1))
		case types.UKCAft:
			record(m.gateRow(m.sensAft, allowed-m.initial.Aft, soft, slackName, penalty, -1))
		case types.UKCMean:
			record(m.gateRow(m.sensMean, allowed-m.initial.Mean(), soft, slackName, penalty, -1))
		case types.UKCBoth:
			s := m.gateRow(m.sensFwd, allowed-m.initial.Forward, soft, slackName+"/fwd", penalty, -1)
			record(s)
			if g.SplitSlack {
				s = -1
			}
			record(m.gateRow(m.sensAft, allowed-m.initial.Aft, soft, slackName+"/aft", penalty, s))
		}

	case types.GateTrimMax:
		// |trim_new| <= limit+tol, hard only (validated upstream).
		limit := g.Limit + g.Tolerance
		trim0 := m.initial.Trim()
		m.gateRow(m.sensTrim, limit-trim0, false, "", 0, -1)
		m.gateRow(negate(m.sensTrim), limit+trim0, false, "", 0, -1)
	}

	m.gates = append(m.gates, ev)
}

// addTargetRows emits the two target-mode equality rows forcing the net
// weight and moment that produce the requested draft pair, each with a
// penalized ± slack pair so an out-of-reach target degrades to the nearest
// feasible state instead of infeasibility.
func (m *model) addTargetRows(target types.Drafts, penalty float64) {
	tpm := m.point.TPC * 100
	mtm := m.point.MTC * 100

	wantWeight := (target.Mean() - m.initial.Mean()) * tpm
	wantMoment := (target.Trim() - m.initial.Trim()) * mtm

	m.weightSlackPos = m.addSlack("slack/target_weight+", penalty)
	m.weightSlackNeg = m.addSlack("slack/target_weight-", penalty)
	m.momentSlackPos = m.addSlack("slack/target_moment+", penalty)
	m.momentSlackNeg = m.addSlack("slack/target_moment-", penalty)

	wrow := make(map[int]float64)
	mrow := make(map[int]float64)
	for i := range m.vars {
		if m.vars[i].tank < 0 {
			continue
		}
		if c := m.sensWeight[i]; c != 0 {
			wrow[i] = c
		}
		if c := m.sensMoment[i]; c != 0 {
			mrow[i] = c
		}
	}
	wrow[m.weightSlackPos] = 1
	wrow[m.weightSlackNeg] = -1
	mrow[m.momentSlackPos] = 1
	mrow[m.momentSlackNeg] = -1

	m.addEq(wrow, wantWeight)
	m.addEq(mrow, wantMoment)
}

func negate(v []float64) []float64 {
	out := make([]float64, len(v))
	for i, c := range v {
		out[i] = -c
	}
	return out
}
