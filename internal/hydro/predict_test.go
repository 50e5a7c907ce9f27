package hydro

import (
	"testing"

	"github.com/marineops/ballastgate/pkg/types"
	"github.com/stretchr/testify/assert"
)

// Operating point used across the predictor tests: TPC=10 t/cm, MTC=200
// t·m/cm, LCF at midship.
func testPoint() types.HydroPoint {
	return types.HydroPoint{Draft: 2.4, TPC: 10, MTC: 200, LCF: 0}
}

func TestPredictNoChange(t *testing.T) {
	init := types.Drafts{Forward: 2.60, Aft: 2.20}

	p := Predict(init, testPoint(), nil)
	assert.Zero(t, p.TotalWeight)
	assert.Zero(t, p.TotalMoment)
	assert.Equal(t, init, p.Drafts)

	// Zero-ton deltas contribute nothing.
	p = Predict(init, testPoint(), []Delta{{Tank: "WB1", Offset: -20, Tons: 0}})
	assert.Equal(t, init, p.Drafts)
}

func TestPredictPureSinkage(t *testing.T) {
	// 100 t at the flotation center: mean draft rises 10 cm, no trim change.
	init := types.Drafts{Forward: 2.60, Aft: 2.20}
	p := Predict(init, testPoint(), []Delta{{Tank: "WB3", Offset: 0, Tons: 100}})

	assert.InDelta(t, 100.0, p.TotalWeight, 1e-12)
	assert.InDelta(t, 0.0, p.TotalMoment, 1e-12)
	assert.InDelta(t, 0.10, p.MeanChange, 1e-12)
	assert.InDelta(t, 0.0, p.TrimChange, 1e-12)
	assert.InDelta(t, 2.70, p.Drafts.Forward, 1e-12)
	assert.InDelta(t, 2.30, p.Drafts.Aft, 1e-12)
}

func TestPredictTrimmingMoment(t *testing.T) {
	// 100 t at 15 m aft of LCF: ΔW=100 t, ΔM=1500 t·m.
	// Δmean = 100/1000 = 0.100 m, Δtrim = 1500/20000 = 0.075 m.
	init := types.Drafts{Forward: 2.60, Aft: 2.20}
	p := Predict(init, testPoint(), []Delta{{Tank: "APT", Offset: 15, Tons: 100}})

	assert.InDelta(t, 1500.0, p.TotalMoment, 1e-9)
	assert.InDelta(t, 0.100, p.MeanChange, 1e-12)
	assert.InDelta(t, 0.075, p.TrimChange, 1e-12)
	assert.InDelta(t, 2.60+0.100-0.0375, p.Drafts.Forward, 1e-12)
	assert.InDelta(t, 2.20+0.100+0.0375, p.Drafts.Aft, 1e-12)
}

func TestPredictLCFShiftsArm(t *testing.T) {
	// With LCF aft of midship the moment arm is measured from LCF, not
	// from midship.
	pt := types.HydroPoint{Draft: 3.0, TPC: 10, MTC: 200, LCF: 5}
	init := types.Drafts{Forward: 3.0, Aft: 3.0}
	p := Predict(init, pt, []Delta{{Tank: "WB2", Offset: 5, Tons: 80}})

	assert.InDelta(t, 0.0, p.TotalMoment, 1e-12, "weight at the LCF produces no trimming moment")
	assert.InDelta(t, 0.08, p.MeanChange, 1e-12)
}

func TestPredictDischargeForwardTank(t *testing.T) {
	// Discharging 50 t from 20 m forward of LCF: ΔW=-50, ΔM=+1000 t·m.
	init := types.Drafts{Forward: 2.60, Aft: 2.20}
	p := Predict(init, testPoint(), []Delta{{Tank: "FPT", Offset: -20, Tons: -50}})

	assert.InDelta(t, -50.0, p.TotalWeight, 1e-12)
	assert.InDelta(t, 1000.0, p.TotalMoment, 1e-9)
	assert.InDelta(t, -0.05, p.MeanChange, 1e-12)
	assert.InDelta(t, 0.05, p.TrimChange, 1e-12)
	// Bow rises by both effects, stern trades them off.
	assert.InDelta(t, 2.60-0.05-0.025, p.Drafts.Forward, 1e-12)
	assert.InDelta(t, 2.20-0.05+0.025, p.Drafts.Aft, 1e-12)
}

func TestPredictAccumulatesTanks(t *testing.T) {
	init := types.Drafts{Forward: 2.60, Aft: 2.20}
	deltas := []Delta{
		{Tank: "FPT", Offset: -20, Tons: -50},
		{Tank: "APT", Offset: 15, Tons: 30},
	}
	p := Predict(init, testPoint(), deltas)

	assert.InDelta(t, -20.0, p.TotalWeight, 1e-12)
	assert.InDelta(t, 1000.0+450.0, p.TotalMoment, 1e-9)
}
