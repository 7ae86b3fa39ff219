package main

import (
	"fmt"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/dbwsim/internal/automation"
	"github.com/san-kum/dbwsim/internal/storage"
)

func runBatch(cmd *cobra.Command, args []string) error {
	batch, err := automation.LoadBatch(args[0])
	if err != nil {
		return err
	}
	base, err := loadConfig(cmd, nil)
	if err != nil {
		return err
	}
	log, err := newLogger(base, false)
	if err != nil {
		return err
	}
	defer log.Close()

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSCENARIO\tRUN ID\tTRACKING\tSTABILITY")
	_, err = automation.RunBatch(ctx, batch, base, log, func(sr automation.StepResult) error {
		cfg := sr.Config
		runID, err := st.Save(storage.RunInfo{
			Scenario:   cfg.Scenario,
			Preset:     sr.Preset,
			Integrator: cfg.Integrator,
			Dt:         cfg.Dt,
			Duration:   sr.Duration,
			Seed:       cfg.Seed,
			Noise:      cfg.Noise,
			Vehicle:    cfg.Vehicle,
			Tuning:     cfg.Tuning,
		}, sr.Result)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.3f\n", sr.Name, cfg.Scenario, runID,
			sr.Result.Metrics["tracking_rms"], sr.Result.Metrics["stability"])
		return nil
	})
	if flushErr := w.Flush(); err == nil {
		err = flushErr
	}
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	log, err := newLogger(cfg, false)
	if err != nil {
		return err
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	e := automation.NewEnsemble(cfg, trials, cfg.Seed, log)
	e.SetWorkers(workers)
	results, err := e.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("scenario: %s, %d seeds from %d, noise %.3f m/s\n\n", cfg.Scenario, trials, cfg.Seed, cfg.Noise)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tMAX")
	for _, s := range automation.Summarize(results) {
		fmt.Fprintf(w, "%s\t%.6f\t%.6f\t%.6f\t%.6f\n", s.Metric, s.Mean, s.Std, s.Min, s.Max)
	}
	return w.Flush()
}
