// ============================================================================
// Ballast Gate CLI - Command Line Interface
// ============================================================================
//
// Package: internal/cli
// File: cli.go
// Purpose: Cobra command tree for the ballast planner.
//
// Command structure:
//   ballastgate                    # root command
//   ├── run                        # solve every stage of the configured operation
//   │   └── --report, -r           # also write per-stage markdown/CSV reports
//   ├── solve                      # solve a single stage from flags
//   │   ├── --stage                # stage name (gate applicability input)
//   │   ├── --fwd, --aft           # observed initial drafts
//   │   ├── --soundings            # sounding snapshot file or directory
//   │   └── --target-fwd/--target-aft  # switch to target mode
//   ├── validate                   # load and check all configured inputs
//   └── --config, -c               # config file (default configs/default.yaml)
//
// Configuration is one YAML file naming the vessel inputs (profile, tank
// table, hydrostatic table, gates) plus solver, pipeline, and metrics
// settings. The run command starts the metrics endpoint when enabled and
// cancels in-flight solves on SIGINT/SIGTERM.
//
// Exit policy: run returns an error (non-zero exit) when any stage fails to
// solve or any solved stage carries a gate FAIL, so scripted callers can
// gate on the exit code alone.
//
// ============================================================================

package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/marineops/ballastgate/internal/input"
	"github.com/marineops/ballastgate/internal/metrics"
	"github.com/marineops/ballastgate/internal/pipeline"
	"github.com/marineops/ballastgate/internal/report"
	"github.com/marineops/ballastgate/internal/solver"
	"github.com/marineops/ballastgate/pkg/types"
)

// DraftsConfig is an observed or target draft pair in the config file.
type DraftsConfig struct {
	Forward float64 `yaml:"forward"`
	Aft     float64 `yaml:"aft"`
}

// StageConfig is one stage entry of the pipeline section.
type StageConfig struct {
	Name      string       `yaml:"name"`
	Soundings string       `yaml:"soundings"`
	Initial   DraftsConfig `yaml:"initial"`
	Mode      string       `yaml:"mode"` // "limit" (default) or "target"
	Target    DraftsConfig `yaml:"target"`
}

// Config is the planner configuration file.
type Config struct {
	VesselProfile string `yaml:"vessel_profile"`
	TankTable     string `yaml:"tank_table"`
	HydroTable    string `yaml:"hydro_table"`
	Gates         string `yaml:"gates"`

	Solver struct {
		Iterations   int     `yaml:"iterations"`
		Objective    string  `yaml:"objective"` // "weight" (default) or "time"
		SlackPenalty float64 `yaml:"slack_penalty"`
	} `yaml:"solver"`

	Pipeline struct {
		Parallelism int           `yaml:"parallelism"`
		Stages      []StageConfig `yaml:"stages"`
	} `yaml:"pipeline"`

	Metrics struct {
		Enabled bool `yaml:"enabled"`
		Port    int  `yaml:"port"`
	} `yaml:"metrics"`
}

var configFile string

// BuildCLI assembles the command tree.
func BuildCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ballastgate",
		Short: "Ballast water redistribution planner",
		Long: `ballastgate plans ballast water movements that keep a vessel inside its
operational draft gates (aft minimum, forward maximum, freeboard, under-keel
clearance, trim) across the stages of a cargo operation.`,
		Version: "1.0.0",
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/default.yaml", "config file path")

	rootCmd.AddCommand(buildRunCommand())
	rootCmd.AddCommand(buildSolveCommand())
	rootCmd.AddCommand(buildValidateCommand())

	return rootCmd
}

func buildRunCommand() *cobra.Command {
	var reportDir string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Solve every stage of the configured operation",
		Long:  "Load the vessel inputs, solve all configured stages on the pipeline, and print a per-stage summary.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, reportDir)
		},
	}

	cmd.Flags().StringVarP(&reportDir, "report", "r", "", "directory for per-stage markdown and CSV reports")
	return cmd
}

func runPipeline(cmd *cobra.Command, reportDir string) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if len(cfg.Pipeline.Stages) == 0 {
		return fmt.Errorf("config %s defines no pipeline stages", configFile)
	}

	inputs, err := loadInputs(cfg)
	if err != nil {
		return err
	}
	s, err := buildSolver(cfg)
	if err != nil {
		return err
	}

	var collector *metrics.Collector
	if cfg.Metrics.Enabled {
		collector = metrics.NewCollector()
		go func() {
			if err := metrics.StartServer(cfg.Metrics.Port); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "metrics server error: %v\n", err)
			}
		}()
	}

	stages := make([]pipeline.Stage, 0, len(cfg.Pipeline.Stages))
	for _, sc := range cfg.Pipeline.Stages {
		stage, err := configStage(sc)
		if err != nil {
			return err
		}
		stages = append(stages, stage)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := pipeline.NewRunner(s, inputs, cfg.Pipeline.Parallelism, collector)
	results, err := runner.Run(ctx, stages)
	if err != nil {
		return err
	}

	if err := report.WriteSummary(cmd.OutOrStdout(), results); err != nil {
		return err
	}
	if reportDir != "" {
		if err := writeReports(reportDir, results); err != nil {
			return err
		}
	}

	var failed, violated []string
	for _, res := range results {
		switch {
		case res.Err != nil:
			failed = append(failed, res.Stage)
		case res.Plan.Violated():
			violated = append(violated, res.Stage)
		}
	}
	if len(failed) > 0 || len(violated) > 0 {
		return fmt.Errorf("pipeline not clean: %d stage(s) failed (%s), %d stage(s) violated (%s)",
			len(failed), strings.Join(failed, ", "),
			len(violated), strings.Join(violated, ", "))
	}
	return nil
}

// writeReports writes one markdown and one CSV file per solved stage.
func writeReports(dir string, results []pipeline.StageResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	for _, res := range results {
		if res.Plan == nil {
			continue
		}
		base := stageFileName(res.Stage)

		md, err := os.Create(filepath.Join(dir, base+".md"))
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		werr := report.WriteMarkdown(md, res.Plan)
		if cerr := md.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return fmt.Errorf("write report for %s: %w", res.Stage, werr)
		}

		cf, err := os.Create(filepath.Join(dir, base+"_actions.csv"))
		if err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		werr = report.WriteActionsCSV(cf, res.Plan)
		if cerr := cf.Close(); werr == nil {
			werr = cerr
		}
		if werr != nil {
			return fmt.Errorf("write report for %s: %w", res.Stage, werr)
		}
	}
	return nil
}

// stageFileName turns a stage name into a filesystem-safe base name.
func stageFileName(stage string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, stage)
}

func buildSolveCommand() *cobra.Command {
	var (
		stageName string
		soundings string
		fwd, aft  float64
		targetFwd float64
		targetAft float64
	)

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Solve a single stage from flags",
		Long:  "Solve one stage against the configured vessel inputs and print the plan as markdown. Setting both target drafts switches from limit mode to target mode.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			inputs, err := loadInputs(cfg)
			if err != nil {
				return err
			}
			s, err := buildSolver(cfg)
			if err != nil {
				return err
			}

			stage := pipeline.Stage{
				Name:      stageName,
				Soundings: soundings,
				Initial:   types.Drafts{Forward: fwd, Aft: aft},
			}
			if cmd.Flags().Changed("target-fwd") || cmd.Flags().Changed("target-aft") {
				stage.Mode = solver.ModeTarget
				stage.Target = types.Drafts{Forward: targetFwd, Aft: targetAft}
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			runner := pipeline.NewRunner(s, inputs, 1, nil)
			results, err := runner.Run(ctx, []pipeline.Stage{stage})
			if err != nil {
				return err
			}
			if results[0].Err != nil {
				return results[0].Err
			}
			return report.WriteMarkdown(cmd.OutOrStdout(), results[0].Plan)
		},
	}

	cmd.Flags().StringVar(&stageName, "stage", "", "stage name, matched against gate stage patterns")
	cmd.Flags().StringVar(&soundings, "soundings", "", "sounding snapshot file or directory")
	cmd.Flags().Float64Var(&fwd, "fwd", 0, "observed forward draft in metres")
	cmd.Flags().Float64Var(&aft, "aft", 0, "observed aft draft in metres")
	cmd.Flags().Float64Var(&targetFwd, "target-fwd", 0, "target forward draft in metres")
	cmd.Flags().Float64Var(&targetAft, "target-aft", 0, "target aft draft in metres")
	cmd.MarkFlagRequired("stage")
	cmd.MarkFlagRequired("fwd")
	cmd.MarkFlagRequired("aft")

	return cmd
}

func buildValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Load and check all configured inputs",
		Long:  "Load the vessel profile, tank table, hydrostatic table, and gates, and report what was found. Fails on the first invalid input.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}

			profile, err := input.LoadProfile(cfg.VesselProfile)
			if err != nil {
				return err
			}
			tanks, err := input.LoadTankTable(cfg.TankTable, profile)
			if err != nil {
				return err
			}
			table, err := input.LoadHydroTable(cfg.HydroTable)
			if err != nil {
				return err
			}
			var gates []types.GateSpec
			if cfg.Gates != "" {
				if gates, err = input.LoadGates(cfg.Gates, profile); err != nil {
					return err
				}
			}
			if _, err := buildSolver(cfg); err != nil {
				return err
			}
			for _, sc := range cfg.Pipeline.Stages {
				if _, err := configStage(sc); err != nil {
					return err
				}
			}

			lo, hi := table.Domain()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "vessel:    %s (depth %.2f m)\n", profile.Name, profile.Depth)
			fmt.Fprintf(out, "tanks:     %d\n", len(tanks))
			fmt.Fprintf(out, "hydro:     %d samples, drafts %.2f-%.2f m\n", table.Len(), lo, hi)
			fmt.Fprintf(out, "gates:     %d\n", len(gates))
			fmt.Fprintf(out, "stages:    %d\n", len(cfg.Pipeline.Stages))
			fmt.Fprintln(out, "inputs OK")
			return nil
		},
	}
}

// loadInputs loads the vessel-level inputs shared by every stage.
func loadInputs(cfg *Config) (pipeline.Inputs, error) {
	profile, err := input.LoadProfile(cfg.VesselProfile)
	if err != nil {
		return pipeline.Inputs{}, err
	}
	tanks, err := input.LoadTankTable(cfg.TankTable, profile)
	if err != nil {
		return pipeline.Inputs{}, err
	}
	table, err := input.LoadHydroTable(cfg.HydroTable)
	if err != nil {
		return pipeline.Inputs{}, err
	}
	var gates []types.GateSpec
	if cfg.Gates != "" {
		if gates, err = input.LoadGates(cfg.Gates, profile); err != nil {
			return pipeline.Inputs{}, err
		}
	}
	return pipeline.Inputs{Tanks: tanks, Table: table, Gates: gates}, nil
}

// buildSolver constructs the solver from the config's solver section.
func buildSolver(cfg *Config) (*solver.Solver, error) {
	var objective solver.ObjectivePolicy
	switch strings.ToLower(cfg.Solver.Objective) {
	case "", "weight":
		objective = solver.MinimizeWeight
	case "time":
		objective = solver.MinimizeTime
	default:
		return nil, fmt.Errorf("config: unknown solver objective %q", cfg.Solver.Objective)
	}
	return solver.New(solver.Config{
		Iterations:   cfg.Solver.Iterations,
		SlackPenalty: cfg.Solver.SlackPenalty,
		Objective:    objective,
	}), nil
}

// configStage converts one config stage entry into a pipeline stage.
func configStage(sc StageConfig) (pipeline.Stage, error) {
	if sc.Name == "" {
		return pipeline.Stage{}, fmt.Errorf("config: stage with empty name")
	}
	stage := pipeline.Stage{
		Name:      sc.Name,
		Soundings: sc.Soundings,
		Initial:   types.Drafts{Forward: sc.Initial.Forward, Aft: sc.Initial.Aft},
	}
	switch strings.ToLower(sc.Mode) {
	case "", "limit":
		stage.Mode = solver.ModeLimit
	case "target":
		stage.Mode = solver.ModeTarget
		stage.Target = types.Drafts{Forward: sc.Target.Forward, Aft: sc.Target.Aft}
	default:
		return pipeline.Stage{}, fmt.Errorf("config: stage %q: unknown mode %q", sc.Name, sc.Mode)
	}
	return stage, nil
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config YAML: %w", err)
	}
	return &cfg, nil
}
