package hydro

import "github.com/marineops/ballastgate/pkg/types"

// Delta is one tank's net weight change and its longitudinal position.
type Delta struct {
	Tank   types.TankID
	Offset float64 // signed m from midship, positive aft
	Tons   float64 // signed weight change, positive = fill
}

// Prediction is the resulting stability state computed from a set of tank
// deltas at a fixed hydrostatic operating point.
type Prediction struct {
	TotalWeight float64 // ΣΔw in tons
	TotalMoment float64 // ΣΔw·(x−LCF) in t·m
	MeanChange  float64 // m
	TrimChange  float64 // m
	Drafts      types.Drafts
}

// Predict applies the first-order hydrostatic relation to the tank deltas:
//
//	Δmean = ΔW / (TPC·100)
//	Δtrim = ΔM / (MTC·100)
//	Δfwd  = Δmean − Δtrim/2
//	Δaft  = Δmean + Δtrim/2
//
// This is a small-signal linearization around the given hydrostatic point.
// It is only locally accurate, which is why the solver re-evaluates it once
// per refinement iteration.
func Predict(initial types.Drafts, pt types.HydroPoint, deltas []Delta) Prediction {
	var dw, dm float64
	for _, d := range deltas {
		if d.Tons == 0 {
			continue
		}
		dw += d.Tons
		dm += d.Tons * (d.Offset - pt.LCF)
	}

	// TPC and MTC are per centimeter; drafts are in meters.
	meanChange := dw / (pt.TPC * 100)
	trimChange := dm / (pt.MTC * 100)

	return Prediction{
		TotalWeight: dw,
		TotalMoment: dm,
		MeanChange:  meanChange,
		TrimChange:  trimChange,
		Drafts: types.Drafts{
			Forward: initial.Forward + meanChange - trimChange/2,
			Aft:     initial.Aft + meanChange + trimChange/2,
		},
	}
}
