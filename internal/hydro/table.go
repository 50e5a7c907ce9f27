// ============================================================================
// Hydrostatic Table - draft-indexed coefficient curve
// ============================================================================
//
// Package: internal/hydro
// File: table.go
// Purpose: Interpolate the hydrostatic coefficients (TPC, MTC, LCF) valid at
// a given mean draft from an ordered table of samples.
//
// The coefficients are a nonlinear function of draft, so the solver
// re-interpolates once per refinement iteration at the updated mean draft.
//
// Range policy: a draft outside the tabulated domain is rejected with a
// RangeError. The table never clamps and never extrapolates; a bad draft is
// a signal of bad input data and must surface to the caller.
//
// ============================================================================

package hydro

import (
	"errors"
	"fmt"
	"sort"

	"github.com/marineops/ballastgate/pkg/types"
)

// ErrOutOfRange is the sentinel wrapped by every RangeError.
var ErrOutOfRange = errors.New("hydro: draft outside tabulated range")

// RangeError reports an interpolation request outside the table domain.
type RangeError struct {
	Draft float64 // requested mean draft
	Lo    float64 // smallest tabulated draft
	Hi    float64 // largest tabulated draft
}

func (e *RangeError) Error() string {
	return fmt.Sprintf("hydro: draft %.4f m outside tabulated range [%.4f, %.4f] m", e.Draft, e.Lo, e.Hi)
}

func (e *RangeError) Unwrap() error { return ErrOutOfRange }

// Sample is one row of the hydrostatic curve.
type Sample struct {
	Draft float64 // mean draft in m
	TPC   float64 // tons per centimeter immersion
	MTC   float64 // moment to change trim, t·m per cm
	LCF   float64 // longitudinal center of flotation, m from midship (+aft)
}

// Table is an ordered hydrostatic curve. Immutable after construction.
type Table struct {
	samples []Sample
}

// NewTable builds a table from samples. The samples are sorted by draft;
// duplicate or non-positive TPC/MTC entries are rejected, and at least two
// samples are required so that interpolation is defined.
func NewTable(samples []Sample) (*Table, error) {
	if len(samples) < 2 {
		return nil, fmt.Errorf("hydro: table needs at least 2 samples, got %d", len(samples))
	}
	s := make([]Sample, len(samples))
	copy(s, samples)
	sort.Slice(s, func(i, j int) bool { return s[i].Draft < s[j].Draft })

	for i, smp := range s {
		if smp.TPC <= 0 || smp.MTC <= 0 {
			return nil, fmt.Errorf("hydro: sample at draft %.4f m has non-positive TPC/MTC", smp.Draft)
		}
		if i > 0 && smp.Draft <= s[i-1].Draft {
			return nil, fmt.Errorf("hydro: duplicate draft sample %.4f m", smp.Draft)
		}
	}
	return &Table{samples: s}, nil
}

// Domain returns the smallest and largest tabulated draft.
func (t *Table) Domain() (lo, hi float64) {
	return t.samples[0].Draft, t.samples[len(t.samples)-1].Draft
}

// Len returns the number of samples.
func (t *Table) Len() int { return len(t.samples) }

// At interpolates the hydrostatic point valid at the given mean draft.
// Returns a RangeError when the draft lies outside the tabulated domain.
func (t *Table) At(meanDraft float64) (types.HydroPoint, error) {
	lo, hi := t.Domain()
	if meanDraft < lo || meanDraft > hi {
		return types.HydroPoint{}, &RangeError{Draft: meanDraft, Lo: lo, Hi: hi}
	}

	// Upper bracket: first sample with Draft >= meanDraft.
	i := sort.Search(len(t.samples), func(k int) bool {
		return t.samples[k].Draft >= meanDraft
	})
	if t.samples[i].Draft == meanDraft {
		s := t.samples[i]
		return types.HydroPoint{Draft: meanDraft, TPC: s.TPC, MTC: s.MTC, LCF: s.LCF}, nil
	}

	a, b := t.samples[i-1], t.samples[i]
	f := (meanDraft - a.Draft) / (b.Draft - a.Draft)
	return types.HydroPoint{
		Draft: meanDraft,
		TPC:   a.TPC + f*(b.TPC-a.TPC),
		MTC:   a.MTC + f*(b.MTC-a.MTC),
		LCF:   a.LCF + f*(b.LCF-a.LCF),
	}, nil
}
