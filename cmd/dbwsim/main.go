package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/dbwsim/internal/config"
	"github.com/san-kum/dbwsim/internal/experiment"
	"github.com/san-kum/dbwsim/internal/logging"
)

var (
	dataDir    string
	configFile string
	preset     string
	logLevel   string
	logFile    string

	dt         float64
	duration   float64
	seed       int64
	noise      float64
	speed      float64
	integrator string
	overrides  []string
	plantSets  []string

	// tune
	kpRange []float64
	kdRange []float64
	steps   int
	metric  string

	// drive
	canIface string
	period   float64

	// plot, phase
	svgPath string

	// montecarlo
	trials  int
	workers int
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "dbwsim",
		Short:        "drive-by-wire controller lab",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dbwsim", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "use preset configuration")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "trace, debug, info, warn, error or critical")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "rotating log file")

	runCmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "run a scenario and store the trace",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runScenario,
	}
	addSimFlags(runCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot speed and actuator traces of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringVar(&svgPath, "svg", "", "also write the driven path to an SVG file")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [scenario]",
		Short: "run a scenario and write the full trace as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportJSON,
	}
	addSimFlags(exportJSONCmd)
	exportJSONCmd.Flags().StringP("output", "o", "-", "output file, - for stdout")

	presetsCmd := &cobra.Command{
		Use:   "presets [scenario]",
		Short: "list available presets for a scenario",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scenario: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	scenariosCmd := &cobra.Command{
		Use:   "scenarios",
		Short: "list scenarios",
		Run: func(cmd *cobra.Command, args []string) {
			for _, s := range experiment.ListScenarios() {
				fmt.Printf("  %-10s %5.0fs  %s\n", s.Name, s.Duration, s.Description)
			}
		},
	}

	liveCmd := &cobra.Command{
		Use:   "live [scenario]",
		Short: "drive a scenario in the terminal dashboard",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	addSimFlags(liveCmd)

	tuneCmd := &cobra.Command{
		Use:   "tune [scenario]",
		Short: "grid search the steering gains",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneGains,
	}
	addSimFlags(tuneCmd)
	tuneCmd.Flags().Float64SliceVar(&kpRange, "kp", []float64{0.2, 2.0}, "kp range lo,hi")
	tuneCmd.Flags().Float64SliceVar(&kdRange, "kd", []float64{0.0, 2.0}, "kd range lo,hi")
	tuneCmd.Flags().IntVar(&steps, "steps", 5, "grid points per gain")
	tuneCmd.Flags().StringVar(&metric, "metric", "tracking_rms", "metric to minimize")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of the actuator traces",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id] [x_column] [y_column]",
		Short: "scatter one trace column against another",
		Args:  cobra.ExactArgs(3),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&svgPath, "svg", "", "also write the portrait to an SVG file")

	driveCmd := &cobra.Command{
		Use:   "drive [scenario]",
		Short: "run the controller in real time and publish commands on CAN",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runDrive,
	}
	addSimFlags(driveCmd)
	driveCmd.Flags().StringVar(&canIface, "can", "", "SocketCAN interface, e.g. vcan0 (default: in-memory)")
	driveCmd.Flags().Float64Var(&period, "period", 0, "control period in seconds (default: dt)")

	batchCmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "run and store every step of a YAML batch file",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [scenario]",
		Short: "repeat a scenario over noise seeds and summarize the metrics",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	addSimFlags(monteCarloCmd)
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of seeds")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 4, "trials run in parallel")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportCmd, exportJSONCmd, presetsCmd, scenariosCmd,
		liveCmd, tuneCmd, analyzeCmd, phaseCmd, driveCmd, batchCmd, monteCarloCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addSimFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "control period / timestep")
	cmd.Flags().Float64Var(&duration, "time", 0, "duration (default: scenario length)")
	cmd.Flags().Int64Var(&seed, "seed", 0, "noise seed")
	cmd.Flags().Float64Var(&noise, "noise", config.DefaultNoise, "speed measurement noise std dev (m/s)")
	cmd.Flags().Float64Var(&speed, "speed", 0, "initial speed (default: scenario)")
	cmd.Flags().StringVar(&integrator, "integrator", config.DefaultIntegrator, "integrator")
	cmd.Flags().StringSliceVar(&overrides, "set", nil, "controller parameter, e.g. --set kp=0.8")
	cmd.Flags().StringSliceVar(&plantSets, "plant", nil, "simulated vehicle parameter, e.g. --plant mass=2200")
}

// loadConfig resolves the configuration: preset, then config file, then
// flags. A positional scenario wins over both.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Scenario = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Scenario, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Scenario))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if len(args) > 0 {
			cfg.Scenario = args[0]
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("seed") {
		cfg.Seed = seed
	}
	if flags.Changed("noise") {
		cfg.Noise = noise
	}
	if flags.Changed("speed") {
		cfg.InitState.Speed = speed
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if err := applyPairs("set", overrides, cfg.SetControllerParam); err != nil {
		return nil, err
	}
	if err := applyPairs("plant", plantSets, cfg.SetPlantParam); err != nil {
		return nil, err
	}

	return cfg, cfg.Validate()
}

// applyPairs parses name=value flag values and hands each to set.
func applyPairs(flag string, pairs []string, set func(string, float64) error) error {
	for _, kv := range pairs {
		name, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return fmt.Errorf("--%s expects name=value, got %q", flag, kv)
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("--%s %s: %w", flag, name, err)
		}
		if err := set(name, v); err != nil {
			return err
		}
	}
	return nil
}

// newLogger builds the logger from config and flags. With quiet set and no
// file configured nothing is written, which keeps the dashboard clean.
func newLogger(cfg *config.Config, quiet bool) (*logging.Logger, error) {
	levelName := cfg.Log.Level
	if logLevel != "" {
		levelName = logLevel
	}
	level, err := logging.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	path := cfg.Log.File
	if logFile != "" {
		path = logFile
	}
	if path != "" {
		return logging.NewFileLogger(logging.FileConfig{
			Path:       path,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		}, level, cfg.Log.Stdout && !quiet), nil
	}
	if quiet {
		return logging.Discard(), nil
	}
	return logging.New(os.Stderr, level), nil
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
