// Package types defines the core domain model shared by the ballastgate
// solver, pipeline, and reporting layers.
package types

import (
	"fmt"
	"regexp"
	"time"
)

// TankID uniquely identifies a ballast tank.
type TankID string

// TankMode controls which pumping directions a tank allows during a solve.
type TankMode string

// Tank operating modes.
const (
	ModeFillDischarge TankMode = "FILL_DISCHARGE" // both directions allowed
	ModeFillOnly      TankMode = "FILL_ONLY"      // only taking on ballast
	ModeDischargeOnly TankMode = "DISCHARGE_ONLY" // only pumping out
	ModeBlocked       TankMode = "BLOCKED"        // content fixed for this solve
	ModeDisabled      TankMode = "DISABLED"       // tank excluded entirely
)

// ValidTankMode reports whether m is one of the defined operating modes.
func ValidTankMode(m TankMode) bool {
	switch m {
	case ModeFillDischarge, ModeFillOnly, ModeDischargeOnly, ModeBlocked, ModeDisabled:
		return true
	}
	return false
}

// Tank is a named ballast compartment. It is loaded once per solve and is
// immutable for the duration of the solve.
type Tank struct {
	ID       TankID   `json:"id"`
	Current  float64  `json:"current_t"` // current content in tons
	Min      float64  `json:"min_t"`     // minimum allowed content in tons
	Max      float64  `json:"max_t"`     // maximum allowed content in tons
	Mode     TankMode `json:"mode"`      // pumping direction policy
	LCG      float64  `json:"lcg_m"`     // signed offset from midship, positive aft
	PumpRate float64  `json:"rate_tph"`  // pump rate in tons/hour
	Priority float64  `json:"priority"`  // objective weight biasing tank selection
}

// FillHeadroom returns the tons that may still be taken into the tank.
func (t Tank) FillHeadroom() float64 {
	if h := t.Max - t.Current; h > 0 {
		return h
	}
	return 0
}

// DischargeHeadroom returns the tons that may still be pumped out.
func (t Tank) DischargeHeadroom() float64 {
	if h := t.Current - t.Min; h > 0 {
		return h
	}
	return 0
}

// Movable reports whether the tank may change content at all in this solve.
func (t Tank) Movable() bool {
	return t.Mode == ModeFillDischarge || t.Mode == ModeFillOnly || t.Mode == ModeDischargeOnly
}

// Validate checks the tank invariants: a known mode, a non-empty ID, and
// min <= current <= max.
func (t Tank) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("tank: empty id")
	}
	if !ValidTankMode(t.Mode) {
		return fmt.Errorf("tank %s: unknown mode %q", t.ID, t.Mode)
	}
	if t.Min > t.Max {
		return fmt.Errorf("tank %s: min %.3f t exceeds max %.3f t", t.ID, t.Min, t.Max)
	}
	if t.Current < t.Min || t.Current > t.Max {
		return fmt.Errorf("tank %s: current %.3f t outside [%.3f, %.3f] t", t.ID, t.Current, t.Min, t.Max)
	}
	return nil
}

// HydroPoint holds the hydrostatic coefficients valid at a specific mean
// draft: tons-per-centimeter, moment-to-change-trim, and the longitudinal
// center of flotation (signed offset from midship, positive aft).
type HydroPoint struct {
	Draft float64 `json:"draft_m"`
	TPC   float64 `json:"tpc_t_per_cm"`
	MTC   float64 `json:"mtc_tm_per_cm"`
	LCF   float64 `json:"lcf_m"`
}

// Drafts is a forward/aft draft pair in meters.
type Drafts struct {
	Forward float64 `json:"forward_m" yaml:"forward"`
	Aft     float64 `json:"aft_m" yaml:"aft"`
}

// Mean returns the mean draft.
func (d Drafts) Mean() float64 { return (d.Forward + d.Aft) / 2 }

// Trim returns the trim (aft minus forward; positive by the stern).
func (d Drafts) Trim() float64 { return d.Aft - d.Forward }

// GateKind identifies which resulting stability value a gate constrains.
type GateKind string

// Gate kinds.
const (
	GateForwardMax   GateKind = "forward_draft_max" // forward draft must stay under the limit
	GateAftMin       GateKind = "aft_draft_min"     // aft draft must stay over the limit
	GateFreeboardMin GateKind = "freeboard_min"     // freeboard must stay over the limit
	GateUKCMin       GateKind = "ukc_min"           // under-keel clearance must stay over the limit
	GateTrimMax      GateKind = "trim_abs_max"      // |trim| must stay under the limit
)

// ValidGateKind reports whether k is one of the defined gate kinds.
func ValidGateKind(k GateKind) bool {
	switch k {
	case GateForwardMax, GateAftMin, GateFreeboardMin, GateUKCMin, GateTrimMax:
		return true
	}
	return false
}

// GatePolicy selects hard enforcement (infeasible if violated) or soft
// enforcement (penalized slack, violation reported in the plan).
type GatePolicy string

// Gate enforcement policies.
const (
	PolicySoft GatePolicy = "soft"
	PolicyHard GatePolicy = "hard"
)

// UKCReference selects which draft the under-keel-clearance gate bounds.
type UKCReference string

// UKC reference drafts. Both is the strictest and is the default.
const (
	UKCForward UKCReference = "forward"
	UKCAft     UKCReference = "aft"
	UKCMean    UKCReference = "mean"
	UKCBoth    UKCReference = "both"
)

// GateSpec is a named constraint on the resulting stability state. Gates are
// configuration: supplied once per solve and never mutated.
type GateSpec struct {
	Name      string     `json:"name"`
	Kind      GateKind   `json:"kind"`
	Limit     float64    `json:"limit"`
	Policy    GatePolicy `json:"policy"`
	Tolerance float64    `json:"tolerance"` // guard band in draft units

	// StagePattern restricts forward-draft-max gates to matching stage
	// names. Nil means the gate applies to every stage. Pattern keeps the
	// source expression for reporting.
	StagePattern *regexp.Regexp `json:"-"`
	Pattern      string         `json:"stage_pattern,omitempty"`

	// Freeboard parameters.
	VesselDepth float64 `json:"vessel_depth,omitempty"`

	// UKC parameters.
	Reference    UKCReference `json:"reference,omitempty"`
	BottomDepth  float64      `json:"bottom_depth,omitempty"`
	Tide         float64      `json:"tide,omitempty"`
	Squat        float64      `json:"squat,omitempty"`
	SafetyMargin float64      `json:"safety_margin,omitempty"`

	// SplitSlack gives each row of a two-row soft gate (freeboard, UKC
	// "both") its own slack variable. The default shares one slack across
	// both rows, so a single penalty covers either-side violation.
	SplitSlack bool `json:"split_slack,omitempty"`
}

// AppliesTo reports whether the gate is active for the named stage. Only
// forward-draft-max gates carry a stage predicate; every other kind applies
// to all stages.
func (g GateSpec) AppliesTo(stage string) bool {
	if g.Kind != GateForwardMax || g.StagePattern == nil {
		return true
	}
	return g.StagePattern.MatchString(stage)
}

// Validate checks gate configuration consistency.
func (g GateSpec) Validate() error {
	if g.Name == "" {
		return fmt.Errorf("gate: empty name")
	}
	if !ValidGateKind(g.Kind) {
		return fmt.Errorf("gate %s: unknown kind %q", g.Name, g.Kind)
	}
	if g.Policy != PolicySoft && g.Policy != PolicyHard {
		return fmt.Errorf("gate %s: unknown policy %q", g.Name, g.Policy)
	}
	if g.Tolerance < 0 {
		return fmt.Errorf("gate %s: negative tolerance %.4f", g.Name, g.Tolerance)
	}
	switch g.Kind {
	case GateTrimMax:
		// Trim has no slack construction; it is meaningful only as a
		// hard constraint.
		if g.Policy != PolicyHard {
			return fmt.Errorf("gate %s: trim gate must use policy %q", g.Name, PolicyHard)
		}
	case GateFreeboardMin:
		if g.VesselDepth <= 0 {
			return fmt.Errorf("gate %s: freeboard gate requires vessel_depth", g.Name)
		}
	case GateUKCMin:
		switch g.Reference {
		case UKCForward, UKCAft, UKCMean, UKCBoth:
		case "":
			// Loader defaults an empty reference to UKCBoth.
		default:
			return fmt.Errorf("gate %s: unknown ukc reference %q", g.Name, g.Reference)
		}
		if g.BottomDepth <= 0 {
			return fmt.Errorf("gate %s: ukc gate requires bottom_depth", g.Name)
		}
	}
	return nil
}

// GateStatus is the per-gate verdict carried in a plan.
type GateStatus string

// Gate verdicts. A soft gate with nonzero violation still yields a returned
// plan; the verdict records the non-compliance for operator judgment.
const (
	StatusPass          GateStatus = "PASS"
	StatusPassGuard     GateStatus = "PASS_GUARD" // compliant only within the guard band
	StatusFail          GateStatus = "FAIL"
	StatusNotApplicable GateStatus = "NOT_APPLICABLE"
)

// GateReport records how one gate fared against the plan's predicted state.
type GateReport struct {
	Name       string     `json:"name"`
	Kind       GateKind   `json:"kind"`
	Applicable bool       `json:"applicable"`
	Status     GateStatus `json:"status"`
	Limit      float64    `json:"limit"`
	Actual     float64    `json:"actual"`    // predicted value the gate constrains
	Margin     float64    `json:"margin"`    // spare distance to the true limit, positive = compliant
	Violation  float64    `json:"violation"` // slack magnitude, zero when fully satisfied
}

// ActionKind labels the pumping direction of a ballast action.
type ActionKind string

// Ballast action kinds.
const (
	ActionFill      ActionKind = "fill"
	ActionDischarge ActionKind = "discharge"
)

// BallastAction is one tank movement in a plan.
type BallastAction struct {
	Tank     TankID        `json:"tank"`
	Kind     ActionKind    `json:"kind"`
	Delta    float64       `json:"delta_t"`  // signed net change in tons
	Pumped   float64       `json:"pumped_t"` // total tons moved through the pump
	PumpTime time.Duration `json:"pump_time"`
}

// BallastPlan is the solver's output: the action list, the predicted
// resulting state, and the per-gate compliance record. A plan is produced
// fresh by each solve and never mutated afterward; a caller that wants a
// different plan re-solves.
type BallastPlan struct {
	Stage   string          `json:"stage"`
	Actions []BallastAction `json:"actions"`

	ForwardDraft float64 `json:"forward_draft_m"`
	AftDraft     float64 `json:"aft_draft_m"`
	MeanDraft    float64 `json:"mean_draft_m"`
	Trim         float64 `json:"trim_m"`

	TotalWeight float64 `json:"total_weight_t"`
	TotalMoment float64 `json:"total_moment_tm"`

	Gates []GateReport `json:"gates,omitempty"`

	// Target-mode slack magnitudes: how far the best feasible solution
	// missed the requested drafts. Zero in limit mode.
	TargetWeightMiss float64 `json:"target_weight_miss_t,omitempty"`
	TargetMomentMiss float64 `json:"target_moment_miss_tm,omitempty"`

	Iterations int `json:"iterations"`
}

// Violated reports whether any applicable gate carries a nonzero violation.
func (p *BallastPlan) Violated() bool {
	for _, g := range p.Gates {
		if g.Applicable && g.Violation > 0 {
			return true
		}
	}
	return false
}

// FrameOffset converts a frame-station index to the signed longitudinal
// offset from midship (positive aft) used throughout the model. The midship
// constant is a vessel-specific calibration value.
func FrameOffset(midshipConstant, frameIndex float64) float64 {
	return midshipConstant - frameIndex
}
