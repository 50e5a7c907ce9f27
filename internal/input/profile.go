// ============================================================================
// Input Loaders - vessel profile
// ============================================================================
//
// Package: internal/input
// Purpose: Load and validate the external input files the pipeline feeds the
// solver: vessel profile, tank table, hydrostatic curve, tank soundings, and
// gate configuration. The solver core never reads files; it only sees the
// resolved structures produced here.
//
// ============================================================================

package input

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Profile is the static vessel calibration data shared by all stages.
type Profile struct {
	Name string `yaml:"name"`
	// Depth is the vertical distance from keel to the freeboard deck
	// line in meters; it anchors freeboard gate defaults.
	Depth float64 `yaml:"depth"`
	// MidshipConstant converts a frame-station index to the signed
	// longitudinal offset from midship: offset = constant - frame.
	MidshipConstant float64 `yaml:"midship_constant"`

	// Default under-keel clearance environment. A ukc_min gate that leaves
	// one of these unset inherits the profile value.
	BottomDepth  float64 `yaml:"bottom_depth"`
	Tide         float64 `yaml:"tide"`
	Squat        float64 `yaml:"squat"`
	SafetyMargin float64 `yaml:"safety_margin"`
}

// LoadProfile reads a vessel profile YAML file.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("input: read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("input: parse profile %s: %w", path, err)
	}
	if p.Depth <= 0 {
		return Profile{}, fmt.Errorf("input: profile %s: depth must be positive, got %.3f", path, p.Depth)
	}
	return p, nil
}
