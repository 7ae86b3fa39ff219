package main

import (
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/dbwsim/internal/canbus"
	"github.com/san-kum/dbwsim/internal/config"
	"github.com/san-kum/dbwsim/internal/dynamo"
	"github.com/san-kum/dbwsim/internal/experiment"
	"github.com/san-kum/dbwsim/internal/logging"
	"github.com/san-kum/dbwsim/internal/optim"
	"github.com/san-kum/dbwsim/internal/physics"
	"github.com/san-kum/dbwsim/internal/realtime"
	"github.com/san-kum/dbwsim/internal/storage"
	"github.com/san-kum/dbwsim/internal/viz"
)

func runInfo(cfg *config.Config, exp *experiment.Experiment) storage.RunInfo {
	return storage.RunInfo{
		Scenario:   exp.Scenario().Name,
		Preset:     preset,
		Integrator: cfg.Integrator,
		Dt:         cfg.Dt,
		Duration:   exp.Duration(),
		Seed:       cfg.Seed,
		Noise:      cfg.Noise,
		Vehicle:    cfg.Vehicle,
		Tuning:     cfg.Tuning,
	}
}

func simulate(cmd *cobra.Command, args []string) (*config.Config, *experiment.Experiment, *dynamo.Result, *logging.Logger, error) {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	log, err := newLogger(cfg, false)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	exp := experiment.New(cfg, log)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		log.Close()
		return nil, nil, nil, nil, err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	result, err := exp.Run(ctx)
	if err != nil {
		log.Close()
		return nil, nil, nil, nil, err
	}
	return cfg, exp, result, log, nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	start := time.Now()
	cfg, exp, result, log, err := simulate(cmd, args)
	if err != nil {
		return err
	}
	defer log.Close()
	elapsed := time.Since(start)

	runID, err := st.Save(runInfo(cfg, exp), result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Println("\nmetrics:")
	for _, name := range sortedKeys(result.Metrics) {
		fmt.Printf("  %-18s %.6f\n", name, result.Metrics[name])
	}
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	cfg, exp, result, log, err := simulate(cmd, args)
	if err != nil {
		return err
	}
	defer log.Close()

	out, _ := cmd.Flags().GetString("output")
	return storage.ExportJSON(out, runInfo(cfg, exp), result)
}

func tuneGains(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(kpRange) != 2 || len(kdRange) != 2 {
		return fmt.Errorf("--kp and --kd expect lo,hi")
	}
	log, err := newLogger(base, false)
	if err != nil {
		return err
	}
	defer log.Close()

	g := optim.NewGridSearch(
		[]string{"kp", "kd"},
		[][]float64{optim.Linspace(kpRange[0], kpRange[1], steps), optim.Linspace(kdRange[0], kdRange[1], steps)},
	)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "KP\tKD\t%s\n", metric)
	g.OnTrial = func(tr optim.Trial) {
		if tr.Err != nil {
			fmt.Fprintf(w, "%.3f\t%.3f\tfailed: %v\n", tr.Params["kp"], tr.Params["kd"], tr.Err)
			return
		}
		fmt.Fprintf(w, "%.3f\t%.3f\t%.6f\n", tr.Params["kp"], tr.Params["kd"], tr.Value)
	}

	build := func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		for k, v := range params {
			if err := cfg.SetControllerParam(k, v); err != nil {
				return nil, err
			}
		}
		exp := experiment.New(cfg, log)
		if err := exp.Setup(experiment.NewRegistry()); err != nil {
			return nil, err
		}
		return exp, nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	best, val, err := g.Search(ctx, build, metric)
	w.Flush()
	if err != nil {
		return err
	}

	fmt.Printf("\nbest: kp=%.3f kd=%.3f %s=%.6f\n", best["kp"], best["kd"], metric, val)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, true)
	if err != nil {
		return err
	}
	defer log.Close()

	registry := experiment.NewRegistry()
	scenario, err := registry.GetScenario(cfg.Scenario)
	if err != nil {
		return err
	}
	integ, err := registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	model, err := viz.NewModel(cfg, scenario, integ, log)
	if err != nil {
		return err
	}
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func runDrive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer log.Close()

	registry := experiment.NewRegistry()
	scenario, err := registry.GetScenario(cfg.Scenario)
	if err != nil {
		return err
	}
	integ, err := registry.GetIntegrator(cfg.Integrator)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	iface := cfg.CAN.Interface
	if canIface != "" {
		iface = canIface
	}
	var w canbus.Writer
	if iface != "" {
		sw, err := canbus.NewSocketCANWriter(ctx, iface)
		if err != nil {
			return err
		}
		w = sw
		log.Info("publishing on %s", iface)
	} else {
		w = canbus.NewRecorder()
		log.Info("no CAN interface given, recording frames in memory")
	}
	pub := canbus.NewPublisher(w)
	defer pub.Close()

	p := cfg.Dt
	if period > 0 {
		p = period
	}
	plant, err := experiment.NewPlant(cfg)
	if err != nil {
		return err
	}
	driver := experiment.NewDriver(experiment.NewController(cfg, log), scenario, cfg.Noise, cfg.Seed)
	loop := realtime.New(plant, integ, driver, pub, time.Duration(p*float64(time.Second)), log)

	initSpeed := scenario.InitSpeed
	if cfg.InitState.Speed > 0 {
		initSpeed = cfg.InitState.Speed
	}
	d := cfg.Duration
	if d <= 0 {
		d = scenario.Duration
	}

	stats, err := loop.Run(ctx, plant.InitialState(initSpeed), time.Duration(d*float64(time.Second)))
	if err != nil {
		return err
	}

	fmt.Printf("cycles: %d  overruns: %d  max gap: %v\n", stats.Cycles, stats.Overruns, stats.MaxGap)
	if snap := loop.Snapshot(); snap.State != nil {
		fmt.Printf("final: t=%.2fs speed=%.2f m/s throttle=%.3f brake=%.0f steer=%+.3f\n",
			snap.Time, snap.State[physics.IdxSpeed], snap.Outputs.Throttle, snap.Outputs.Brake, snap.Outputs.Steering)
	}
	if rec, ok := w.(*canbus.Recorder); ok {
		fmt.Printf("frames recorded: %d\n", len(rec.Frames()))
	}
	return nil
}
