package input

import (
	"fmt"
	"os"
	"regexp"

	"github.com/marineops/ballastgate/pkg/types"
	"gopkg.in/yaml.v3"
)

// gateYAML mirrors one gate entry of the gate configuration file.
type gateYAML struct {
	Name         string  `yaml:"name"`
	Kind         string  `yaml:"kind"`
	Limit        float64 `yaml:"limit"`
	Policy       string  `yaml:"policy"`
	Tolerance    float64 `yaml:"tolerance"`
	StagePattern string  `yaml:"stage_pattern"`
	VesselDepth  float64 `yaml:"vessel_depth"`
	Reference    string  `yaml:"reference"`
	BottomDepth  float64 `yaml:"bottom_depth"`
	Tide         float64 `yaml:"tide"`
	Squat        float64 `yaml:"squat"`
	SafetyMargin float64 `yaml:"safety_margin"`
	SplitSlack   bool    `yaml:"split_slack"`
}

type gatesFile struct {
	Gates []gateYAML `yaml:"gates"`
}

// LoadGates reads the gate configuration YAML, compiles stage patterns, and
// fills defaults from the vessel profile: an unset policy is soft (hard for
// trim, which has no soft construction), an unset UKC reference is "both",
// an unset freeboard vessel depth comes from the profile, and unset UKC
// environment values inherit the profile's defaults.
func LoadGates(path string, profile Profile) ([]types.GateSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("input: read gates: %w", err)
	}
	var file gatesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("input: parse gates %s: %w", path, err)
	}
	if len(file.Gates) == 0 {
		return nil, fmt.Errorf("input: gates %s defines no gates", path)
	}

	gates := make([]types.GateSpec, 0, len(file.Gates))
	seen := make(map[string]bool)
	for _, g := range file.Gates {
		if seen[g.Name] {
			return nil, fmt.Errorf("input: gates %s: duplicate gate %q", path, g.Name)
		}
		seen[g.Name] = true

		spec := types.GateSpec{
			Name:         g.Name,
			Kind:         types.GateKind(g.Kind),
			Limit:        g.Limit,
			Policy:       types.GatePolicy(g.Policy),
			Tolerance:    g.Tolerance,
			Pattern:      g.StagePattern,
			VesselDepth:  g.VesselDepth,
			Reference:    types.UKCReference(g.Reference),
			BottomDepth:  g.BottomDepth,
			Tide:         g.Tide,
			Squat:        g.Squat,
			SafetyMargin: g.SafetyMargin,
			SplitSlack:   g.SplitSlack,
		}

		if spec.Policy == "" {
			if spec.Kind == types.GateTrimMax {
				spec.Policy = types.PolicyHard
			} else {
				spec.Policy = types.PolicySoft
			}
		}
		if spec.Kind == types.GateFreeboardMin && spec.VesselDepth == 0 {
			spec.VesselDepth = profile.Depth
		}
		if spec.Kind == types.GateUKCMin {
			if spec.Reference == "" {
				spec.Reference = types.UKCBoth
			}
			if spec.BottomDepth == 0 {
				spec.BottomDepth = profile.BottomDepth
			}
			if spec.Tide == 0 {
				spec.Tide = profile.Tide
			}
			if spec.Squat == 0 {
				spec.Squat = profile.Squat
			}
			if spec.SafetyMargin == 0 {
				spec.SafetyMargin = profile.SafetyMargin
			}
		}
		if g.StagePattern != "" {
			re, err := regexp.Compile(g.StagePattern)
			if err != nil {
				return nil, fmt.Errorf("input: gates %s: gate %q stage pattern: %w", path, g.Name, err)
			}
			spec.StagePattern = re
		}

		if err := spec.Validate(); err != nil {
			return nil, fmt.Errorf("input: gates %s: %w", path, err)
		}
		gates = append(gates, spec)
	}
	return gates, nil
}
