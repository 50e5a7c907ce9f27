package input

// ============================================================================
// Input loader tests
// Purpose: Exercise the CSV/YAML loaders against files written to a temp
// directory, including the snapshot-discovery and defaulting rules.
// ============================================================================

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/marineops/ballastgate/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func testProfile(t *testing.T, dir string) Profile {
	t.Helper()
	path := writeFile(t, dir, "vessel.yaml", `
name: "MV Harbour Lift"
depth: 9.0
midship_constant: 100.0
bottom_depth: 8.0
tide: 0.9
squat: 0.12
safety_margin: 0.20
`)
	p, err := LoadProfile(path)
	require.NoError(t, err)
	return p
}

func TestLoadProfile(t *testing.T) {
	dir := t.TempDir()
	p := testProfile(t, dir)
	assert.Equal(t, "MV Harbour Lift", p.Name)
	assert.InDelta(t, 9.0, p.Depth, 1e-12)
	assert.InDelta(t, 100.0, p.MidshipConstant, 1e-12)

	bad := writeFile(t, dir, "bad.yaml", "name: x\ndepth: 0\n")
	_, err := LoadProfile(bad)
	assert.Error(t, err, "non-positive depth must be rejected")
}

func TestLoadTankTable(t *testing.T) {
	dir := t.TempDir()
	profile := testProfile(t, dir)

	path := writeFile(t, dir, "tanks.csv", `id,lcg,frame,current,min,max,mode,rate,priority
FPT,-20,,50,0,80,FILL_DISCHARGE,100,1
APT,,85,30,10,60,discharge_only,50,2
WB1,5,,,0,40,BLOCKED,,
`)

	tanks, err := LoadTankTable(path, profile)
	require.NoError(t, err)
	require.Len(t, tanks, 3)

	assert.Equal(t, types.TankID("FPT"), tanks[0].ID)
	assert.InDelta(t, -20.0, tanks[0].LCG, 1e-12)
	assert.InDelta(t, 50.0, tanks[0].Current, 1e-12)

	// Frame 85 with midship constant 100 sits 15 m aft of midship.
	assert.InDelta(t, 15.0, tanks[1].LCG, 1e-12)
	assert.Equal(t, types.ModeDischargeOnly, tanks[1].Mode, "mode names are case-insensitive")

	// Optional columns default: current=min, rate=0, priority=1.
	assert.InDelta(t, 0.0, tanks[2].Current, 1e-12)
	assert.InDelta(t, 0.0, tanks[2].PumpRate, 1e-12)
	assert.InDelta(t, 1.0, tanks[2].Priority, 1e-12)
}

func TestLoadTankTableErrors(t *testing.T) {
	dir := t.TempDir()
	profile := testProfile(t, dir)

	tests := []struct {
		name, csv string
	}{
		{"missing required column", "id,lcg,min,max\nFPT,-20,0,80\n"},
		{"no position column", "id,current,min,max,mode\nFPT,50,0,80,BLOCKED\n"},
		{"duplicate tank", "id,lcg,min,max,mode\nFPT,-20,0,80,BLOCKED\nFPT,-20,0,80,BLOCKED\n"},
		{"bad number", "id,lcg,min,max,mode\nFPT,-20,zero,80,BLOCKED\n"},
		{"invariant violation", "id,lcg,current,min,max,mode\nFPT,-20,90,0,80,BLOCKED\n"},
		{"unknown mode", "id,lcg,min,max,mode\nFPT,-20,0,80,SIDEWAYS\n"},
		{"empty table", "id,lcg,min,max,mode\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "tanks.csv", tt.csv)
			_, err := LoadTankTable(path, profile)
			assert.Error(t, err)
		})
	}
}

func TestLoadHydroTable(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "hydro.csv", `draft,tpc,mtc,lcf
2.0,9.0,180,-1.0
3.0,10.0,200,0.0
4.0,11.0,220,1.5
`)

	table, err := LoadHydroTable(path)
	require.NoError(t, err)
	assert.Equal(t, 3, table.Len())

	pt, err := table.At(2.5)
	require.NoError(t, err)
	assert.InDelta(t, 9.5, pt.TPC, 1e-12)

	bad := writeFile(t, dir, "bad.csv", "draft,tpc,mtc,lcf\n2.0,9.0,180,-1.0\n")
	_, err = LoadHydroTable(bad)
	assert.Error(t, err, "a single-sample curve cannot be interpolated")
}

func TestLoadSoundings(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "soundings.csv", "tank,tons\nFPT,42.5\nAPT,18\n")

	s, err := LoadSoundings(path)
	require.NoError(t, err)
	assert.InDelta(t, 42.5, s["FPT"], 1e-12)
	assert.InDelta(t, 18.0, s["APT"], 1e-12)

	dup := writeFile(t, dir, "dup.csv", "tank,tons\nFPT,42.5\nFPT,18\n")
	_, err = LoadSoundings(dup)
	assert.Error(t, err)
}

func TestLatestSoundings(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "soundings_20260824T0900.csv", "tank,tons\nFPT,10\n")
	writeFile(t, dir, "soundings_20260825T1200.csv", "tank,tons\nFPT,20\n")
	writeFile(t, dir, "soundings_20260825T0800.csv", "tank,tons\nFPT,15\n")
	writeFile(t, dir, "notes.txt", "not a snapshot")

	latest, err := LatestSoundings(dir)
	require.NoError(t, err)
	assert.Equal(t, "soundings_20260825T1200.csv", filepath.Base(latest))

	// ResolveSoundings accepts either the directory or a single file.
	s, err := ResolveSoundings(dir)
	require.NoError(t, err)
	assert.InDelta(t, 20.0, s["FPT"], 1e-12)

	s, err = ResolveSoundings(filepath.Join(dir, "soundings_20260824T0900.csv"))
	require.NoError(t, err)
	assert.InDelta(t, 10.0, s["FPT"], 1e-12)

	_, err = LatestSoundings(t.TempDir())
	assert.Error(t, err, "an empty snapshot directory is an error")
}

func TestApplySoundings(t *testing.T) {
	tanks := []types.Tank{
		{ID: "FPT", Current: 50, Min: 0, Max: 80, Mode: types.ModeFillDischarge, Priority: 1},
		{ID: "APT", Current: 30, Min: 10, Max: 60, Mode: types.ModeDischargeOnly, Priority: 1},
	}

	out, err := ApplySoundings(tanks, map[types.TankID]float64{"FPT": 65})
	require.NoError(t, err)
	assert.InDelta(t, 65.0, out[0].Current, 1e-12)
	assert.InDelta(t, 30.0, out[1].Current, 1e-12, "tanks without a sounding keep their value")
	assert.InDelta(t, 50.0, tanks[0].Current, 1e-12, "the input table is not mutated")

	_, err = ApplySoundings(tanks, map[types.TankID]float64{"NOPE": 5})
	assert.Error(t, err, "a sounding for an unknown tank is an error")

	_, err = ApplySoundings(tanks, map[types.TankID]float64{"APT": 90})
	assert.Error(t, err, "a sounding above capacity is rejected, not clamped")
}

func TestLoadGates(t *testing.T) {
	dir := t.TempDir()
	profile := testProfile(t, dir)

	path := writeFile(t, dir, "gates.yaml", `
gates:
  - name: fwd_max_roro
    kind: forward_draft_max
    limit: 5.60
    tolerance: 0.02
    stage_pattern: "critical"
  - name: aft_min
    kind: aft_draft_min
    limit: 2.70
    policy: hard
  - name: freeboard
    kind: freeboard_min
    limit: 0.50
  - name: ukc
    kind: ukc_min
    limit: 0.60
    bottom_depth: 7.5
    tide: 1.2
    squat: 0.15
    safety_margin: 0.10
  - name: trim
    kind: trim_abs_max
    limit: 1.0
`)

	gates, err := LoadGates(path, profile)
	require.NoError(t, err)
	require.Len(t, gates, 5)

	fwd := gates[0]
	assert.Equal(t, types.PolicySoft, fwd.Policy, "policy defaults to soft")
	require.NotNil(t, fwd.StagePattern)
	assert.True(t, fwd.AppliesTo("Stage 5_PreBallast critical"))
	assert.False(t, fwd.AppliesTo("Stage 1"))

	assert.Equal(t, types.PolicyHard, gates[1].Policy)
	assert.InDelta(t, 9.0, gates[2].VesselDepth, 1e-12, "freeboard depth defaults from the profile")
	assert.Equal(t, types.UKCBoth, gates[3].Reference, "ukc reference defaults to both")
	assert.InDelta(t, 7.5, gates[3].BottomDepth, 1e-12, "explicit values win over profile defaults")
	assert.Equal(t, types.PolicyHard, gates[4].Policy, "trim defaults to hard")
}

func TestLoadGatesUKCEnvironmentDefaults(t *testing.T) {
	dir := t.TempDir()
	profile := testProfile(t, dir)

	path := writeFile(t, dir, "gates.yaml", `
gates:
  - name: ukc
    kind: ukc_min
    limit: 0.60
`)
	gates, err := LoadGates(path, profile)
	require.NoError(t, err)
	require.Len(t, gates, 1)

	// Unset UKC environment values inherit the vessel profile.
	assert.InDelta(t, 8.0, gates[0].BottomDepth, 1e-12)
	assert.InDelta(t, 0.9, gates[0].Tide, 1e-12)
	assert.InDelta(t, 0.12, gates[0].Squat, 1e-12)
	assert.InDelta(t, 0.20, gates[0].SafetyMargin, 1e-12)
}

func TestLoadGatesErrors(t *testing.T) {
	dir := t.TempDir()
	profile := testProfile(t, dir)

	tests := []struct {
		name, yaml string
	}{
		{"empty file", "gates: []\n"},
		{"duplicate names", "gates:\n  - {name: g, kind: aft_draft_min, limit: 1}\n  - {name: g, kind: aft_draft_min, limit: 2}\n"},
		{"bad pattern", "gates:\n  - {name: g, kind: forward_draft_max, limit: 1, stage_pattern: \"[\"}\n"},
		{"unknown kind", "gates:\n  - {name: g, kind: sideways_max, limit: 1}\n"},
		{"soft trim", "gates:\n  - {name: g, kind: trim_abs_max, limit: 1, policy: soft}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, t.TempDir(), "gates.yaml", tt.yaml)
			_, err := LoadGates(path, profile)
			assert.Error(t, err)
		})
	}
}
