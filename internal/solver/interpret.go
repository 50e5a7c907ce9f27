// ============================================================================
// Solution Interpreter - raw LP vector to ballast plan
// ============================================================================
//
// Package: internal/solver
// File: interpret.go
// Purpose: Convert the solved variable vector into the named ballast action
// list, the per-gate compliance report, and the predicted final drafts.
//
// Gate reporting: a soft gate's slack value is read directly as its
// violation magnitude. A plan with nonzero soft violation is still returned
// — the violation is data for operator judgment, not a solve failure. Gates
// skipped by stage applicability are reported not-applicable, never as a
// numeric pass/fail.
//
// ============================================================================

package solver

import (
	"math"
	"sort"
	"time"

	"github.com/marineops/ballastgate/internal/hydro"
	"github.com/marineops/ballastgate/pkg/types"
)

const (
	// actionEps suppresses numerical noise in the solution vector from
	// being reported as a pumping action.
	actionEps = 1e-10

	// classifyEps separates a true violation from simplex round-off when
	// assigning gate verdicts.
	classifyEps = 1e-9
)

// interpret builds the plan from the final iteration's model and solution.
func interpret(m *model, x []float64, stage string, iterations int) *types.BallastPlan {
	deltas := m.tankDeltas(x)
	pred := hydro.Predict(m.initial, m.point, deltas)

	plan := &types.BallastPlan{
		Stage:        stage,
		Actions:      buildActions(m, x),
		ForwardDraft: pred.Drafts.Forward,
		AftDraft:     pred.Drafts.Aft,
		MeanDraft:    pred.Drafts.Mean(),
		Trim:         pred.Drafts.Trim(),
		TotalWeight:  pred.TotalWeight,
		TotalMoment:  pred.TotalMoment,
		Iterations:   iterations,
	}

	switch m.mode {
	case ModeLimit:
		for _, ev := range m.gates {
			plan.Gates = append(plan.Gates, gateReport(ev, pred.Drafts, x))
		}
	case ModeTarget:
		plan.TargetWeightMiss = slackValue(x, m.weightSlackPos) + slackValue(x, m.weightSlackNeg)
		plan.TargetMomentMiss = slackValue(x, m.momentSlackPos) + slackValue(x, m.momentSlackNeg)
	}
	return plan
}

// buildActions converts the tank variables into the sorted action list.
func buildActions(m *model, x []float64) []types.BallastAction {
	actions := make([]types.BallastAction, 0, len(m.tanks))
	for i, t := range m.tanks {
		fill, disch := m.tankValues(x, i)
		net := fill - disch
		pumped := fill + disch
		if math.Abs(net) < actionEps && pumped < actionEps {
			continue
		}

		kind := types.ActionFill
		if net < 0 {
			kind = types.ActionDischarge
		}

		var pumpTime time.Duration
		if t.PumpRate > 0 {
			hours := pumped / t.PumpRate
			pumpTime = time.Duration(hours * float64(time.Hour))
		}

		actions = append(actions, types.BallastAction{
			Tank:     t.ID,
			Kind:     kind,
			Delta:    net,
			Pumped:   pumped,
			PumpTime: pumpTime,
		})
	}

	// Deterministic, operator-friendly ordering: longest pumping first,
	// ties by tank name.
	sort.Slice(actions, func(i, j int) bool {
		if actions[i].PumpTime != actions[j].PumpTime {
			return actions[i].PumpTime > actions[j].PumpTime
		}
		return actions[i].Tank < actions[j].Tank
	})
	return actions
}

// gateReport classifies one gate against the predicted final state.
//
// The LP enforced the guard-band-relaxed limit; the verdict is taken against
// the true limit: PASS when fully compliant, PASS_GUARD when compliant only
// inside the tolerance band, FAIL when beyond the relaxed limit (violation =
// slack magnitude for soft gates).
func gateReport(ev gateEval, final types.Drafts, x []float64) types.GateReport {
	g := ev.spec
	rep := types.GateReport{
		Name:       g.Name,
		Kind:       g.Kind,
		Applicable: ev.applicable,
		Limit:      g.Limit,
	}
	if !ev.applicable {
		rep.Status = types.StatusNotApplicable
		return rep
	}

	actual, isMin := gateActual(g, final)
	rep.Actual = actual

	// margin: spare distance to the true limit, positive = compliant.
	if isMin {
		rep.Margin = actual - g.Limit
	} else {
		rep.Margin = g.Limit - actual
	}

	// Violation beyond the relaxed limit: slack value for soft gates,
	// residual margin shortfall for hard ones.
	viol := 0.0
	for _, s := range ev.slacks {
		if v := slackValue(x, s); v > viol {
			viol = v
		}
	}
	if len(ev.slacks) == 0 {
		if short := -(rep.Margin + g.Tolerance); short > 0 {
			viol = short
		}
	}

	switch {
	case viol > classifyEps:
		rep.Status = types.StatusFail
		rep.Violation = viol
	case rep.Margin < -classifyEps:
		rep.Status = types.StatusPassGuard
	default:
		rep.Status = types.StatusPass
	}
	return rep
}

// gateActual returns the predicted value a gate constrains and whether the
// gate is a minimum (true) or maximum (false) on that value.
func gateActual(g types.GateSpec, final types.Drafts) (actual float64, isMin bool) {
	switch g.Kind {
	case types.GateForwardMax:
		return final.Forward, false
	case types.GateAftMin:
		return final.Aft, true
	case types.GateFreeboardMin:
		// Worst-side freeboard.
		return g.VesselDepth - math.Max(final.Forward, final.Aft), true
	case types.GateUKCMin:
		ref := g.Reference
		if ref == "" {
			ref = types.UKCBoth
		}
		var draft float64
		switch ref {
		case types.UKCForward:
			draft = final.Forward
		case types.UKCAft:
			draft = final.Aft
		case types.UKCMean:
			draft = final.Mean()
		default: // both: strictest side
			draft = math.Max(final.Forward, final.Aft)
		}
		return g.BottomDepth + g.Tide - g.Squat - g.SafetyMargin - draft, true
	case types.GateTrimMax:
		return math.Abs(final.Trim()), false
	}
	return 0, false
}

func slackValue(x []float64, idx int) float64 {
	if idx < 0 || idx >= len(x) {
		return 0
	}
	if v := x[idx]; v > 0 {
		return v
	}
	return 0
}
