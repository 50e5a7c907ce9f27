package pipeline

// ============================================================================
// Pipeline tests
// Purpose: Exercise the solve pool lifecycle and the multi-stage runner,
// including per-stage sounding snapshots and failure isolation.
// ============================================================================

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/marineops/ballastgate/internal/hydro"
	"github.com/marineops/ballastgate/internal/solver"
	"github.com/marineops/ballastgate/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flatTable builds a hydrostatic table with constant coefficients, so the
// refinement loop is exact and plan numbers are easy to verify by hand.
func flatTable(t *testing.T) *hydro.Table {
	t.Helper()
	table, err := hydro.NewTable([]hydro.Sample{
		{Draft: 1.0, TPC: 10, MTC: 200, LCF: 0},
		{Draft: 5.0, TPC: 10, MTC: 200, LCF: 0},
	})
	require.NoError(t, err)
	return table
}

// midshipTank sits at the flotation centre, so moving water changes mean
// draft without trimming.
func midshipTank(current float64) types.Tank {
	return types.Tank{
		ID:       "WB",
		Current:  current,
		Min:      0,
		Max:      500,
		Mode:     types.ModeFillDischarge,
		LCG:      0,
		PumpRate: 100,
		Priority: 1,
	}
}

func targetStage(name string) Stage {
	return Stage{
		Name:    name,
		Initial: types.Drafts{Forward: 2.5, Aft: 2.5},
		Mode:    solver.ModeTarget,
		Target:  types.Drafts{Forward: 2.6, Aft: 2.6},
	}
}

func TestPoolLifecycle(t *testing.T) {
	s := solver.New(solver.Config{})
	pool := NewPool(s, 4)

	assert.ErrorIs(t, pool.Submit(Task{}), ErrPoolNotStarted)

	require.NoError(t, pool.Start(context.Background(), 2))
	assert.Equal(t, 2, pool.WorkerCount())
	assert.Error(t, pool.Start(context.Background(), 2), "double start is rejected")

	table := flatTable(t)
	for i := 0; i < 3; i++ {
		require.NoError(t, pool.Submit(Task{
			Index: i,
			Request: solver.Request{
				Stage:   "pool stage",
				Tanks:   []types.Tank{midshipTank(100)},
				Table:   table,
				Initial: types.Drafts{Forward: 2.5, Aft: 2.5},
			},
		}))
	}

	seen := make(map[int]bool)
	for i := 0; i < 3; i++ {
		res, err := pool.ReceiveResult()
		require.NoError(t, err)
		require.NoError(t, res.Err)
		require.NotNil(t, res.Plan)
		assert.Empty(t, res.Plan.Actions, "no gates and no target means no movement")
		seen[res.Index] = true
	}
	assert.Len(t, seen, 3, "every task index reports exactly once")

	pool.Stop()
	assert.ErrorIs(t, pool.Submit(Task{}), ErrPoolClosed)
	_, err := pool.ReceiveResult()
	assert.ErrorIs(t, err, ErrPoolClosed)
	assert.NotPanics(t, pool.Stop, "stop is idempotent")
}

func TestRunnerResultsInInputOrder(t *testing.T) {
	s := solver.New(solver.Config{})
	inputs := Inputs{Tanks: []types.Tank{midshipTank(100)}, Table: flatTable(t)}
	runner := NewRunner(s, inputs, 3, nil)

	stages := []Stage{
		targetStage("Stage 1_Arrival"),
		targetStage("Stage 2_Discharge"),
		targetStage("Stage 3_Departure"),
	}
	results, err := runner.Run(context.Background(), stages)
	require.NoError(t, err)
	require.Len(t, results, 3)

	for i, res := range results {
		assert.Equal(t, stages[i].Name, res.Stage, "results keep stage input order")
		require.NoError(t, res.Err)
		require.NotNil(t, res.Plan)
		// Raising mean draft 0.10 m at TPC 10 takes 100 t into the
		// midship tank.
		require.Len(t, res.Plan.Actions, 1)
		assert.Equal(t, types.ActionFill, res.Plan.Actions[0].Kind)
		assert.InDelta(t, 100.0, res.Plan.Actions[0].Delta, 1e-6)
	}
}

func TestRunnerAppliesStageSoundings(t *testing.T) {
	dir := t.TempDir()
	snapshot := filepath.Join(dir, "soundings_20260825T0600.csv")
	require.NoError(t, os.WriteFile(snapshot, []byte("tank,tons\nWB,500\n"), 0o644))

	s := solver.New(solver.Config{})
	inputs := Inputs{Tanks: []types.Tank{midshipTank(100)}, Table: flatTable(t)}
	runner := NewRunner(s, inputs, 1, nil)

	full := targetStage("Stage 1_Full")
	full.Soundings = snapshot
	results, err := runner.Run(context.Background(), []Stage{
		full,
		targetStage("Stage 2_Table"),
	})
	require.NoError(t, err)
	require.Len(t, results, 2)

	// The snapshot fills the tank to capacity, so the 100 t target fill is
	// out of reach and lands entirely on the weight slack.
	require.NoError(t, results[0].Err)
	assert.Empty(t, results[0].Plan.Actions)
	assert.InDelta(t, 100.0, results[0].Plan.TargetWeightMiss, 1e-6)

	// The second stage still sees the shared table's 100 t.
	require.NoError(t, results[1].Err)
	require.Len(t, results[1].Plan.Actions, 1)
	assert.InDelta(t, 100.0, results[1].Plan.Actions[0].Delta, 1e-6)
}

func TestRunnerIsolatesStageFailures(t *testing.T) {
	s := solver.New(solver.Config{})
	inputs := Inputs{Tanks: []types.Tank{midshipTank(100)}, Table: flatTable(t)}
	runner := NewRunner(s, inputs, 2, nil)

	broken := targetStage("Stage 2_Broken")
	broken.Soundings = filepath.Join(t.TempDir(), "missing.csv")
	results, err := runner.Run(context.Background(), []Stage{
		targetStage("Stage 1_OK"),
		broken,
		targetStage("Stage 3_OK"),
	})
	require.NoError(t, err, "a stage failure does not fail the pipeline")
	require.Len(t, results, 3)

	assert.NoError(t, results[0].Err)
	assert.Error(t, results[1].Err)
	assert.Nil(t, results[1].Plan)
	assert.NoError(t, results[2].Err)
	require.NotNil(t, results[2].Plan)
}

func TestRunnerNoStages(t *testing.T) {
	s := solver.New(solver.Config{})
	runner := NewRunner(s, Inputs{}, 2, nil)
	_, err := runner.Run(context.Background(), nil)
	assert.Error(t, err)
}

func TestRunnerCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := solver.New(solver.Config{})
	inputs := Inputs{Tanks: []types.Tank{midshipTank(100)}, Table: flatTable(t)}
	runner := NewRunner(s, inputs, 1, nil)

	results, err := runner.Run(ctx, []Stage{targetStage("Stage 1")})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.Canceled)
}
