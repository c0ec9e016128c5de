package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/autodrive/internal/analysis"
	"github.com/san-kum/autodrive/internal/automation"
	"github.com/san-kum/autodrive/internal/config"
	"github.com/san-kum/autodrive/internal/experiment"
	"github.com/san-kum/autodrive/internal/logging"
	"github.com/san-kum/autodrive/internal/metrics"
	"github.com/san-kum/autodrive/internal/optim"
	"github.com/san-kum/autodrive/internal/storage"
	"github.com/san-kum/autodrive/internal/viz"
)

// loadConfig returns the config file named by --config, or the defaults.
func loadConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		var err error
		if cfg, err = config.Load(configFile); err != nil {
			return nil, err
		}
	}
	if debug {
		cfg.Debug = true
	}
	if dataDir == "" {
		dataDir = cfg.DataDir
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) (*zap.SugaredLogger, error) {
	return logging.New("autodrive", cfg.Debug)
}

// resolveRoutine picks the routine from --script, the argument, or the
// default beacon-red.
func resolveRoutine(args []string) (*automation.Routine, error) {
	var routine *automation.Routine
	var err error
	switch {
	case script != "":
		routine, err = automation.LoadRoutine(script)
	case len(args) == 1:
		routine, err = experiment.NewRegistry().GetRoutine(args[0])
	default:
		routine = automation.GetPreset("beacon-red")
	}
	if err != nil {
		return nil, err
	}
	if preset != "" {
		if _, ok := config.Presets[preset]; !ok {
			return nil, errors.Errorf("unknown preset: %s (see `autodrive presets`)", preset)
		}
		routine.Preset = preset
	}
	return routine, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt)
}

func runRoutine(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("realtime") {
		cfg.Sim.RealTime = realTime
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	routine, err := resolveRoutine(args)
	if err != nil {
		return err
	}

	exp := experiment.New(cfg, logger)
	if err := exp.Setup(routine); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("running %s (%d steps)...\n", routine.Name, len(routine.Steps))
	result, runErr := exp.Run(ctx)
	if result == nil {
		return runErr
	}

	st := storage.New(dataDir)
	runID, err := st.Save(cfg.Sim, result)
	if err != nil {
		return err
	}

	printResult(runID, result)
	return runErr
}

func printResult(runID string, result *experiment.Result) {
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("simulated: %v\n", result.Duration)
	fmt.Printf("steps: %d\n", result.Steps)
	fmt.Printf("start: (%.1f, %.1f) %.1f°\n", result.Start.X, result.Start.Y, result.Start.Heading)
	fmt.Printf("final: (%.1f, %.1f) %.1f°\n", result.Final.X, result.Final.Y, result.Final.Heading)
	fmt.Printf("beacon pushes: %d\n", result.Pushes)
	if result.Error != "" {
		fmt.Printf("error: %s\n", result.Error)
	}
	fmt.Println("\nmetrics:")
	for _, name := range metrics.Names(result.Metrics) {
		fmt.Printf("  %s: %.6f\n", name, result.Metrics[name])
	}
}

func listRoutines(cmd *cobra.Command, args []string) error {
	reg := experiment.NewRegistry()
	if len(args) == 1 {
		routine, err := reg.GetRoutine(args[0])
		if err != nil {
			return err
		}
		return yaml.NewEncoder(os.Stdout).Encode(routine)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPRESET\tSTEPS\tDESCRIPTION")
	for _, name := range reg.ListRoutines() {
		r, err := reg.GetRoutine(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", r.Name, r.Preset, len(r.Steps), r.Description)
	}
	return w.Flush()
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tX\tY\tHEADING\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.Presets[name]
		fmt.Fprintf(w, "%s\t%.1f\t%.1f\t%.1f\t%s\n", name, p.Start.X, p.Start.Y, p.Start.Heading, p.Description)
	}
	return w.Flush()
}

func showConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if outFile != "" {
		if err := config.Save(outFile, cfg); err != nil {
			return err
		}
		fmt.Printf("wrote %s\n", outFile)
		return nil
	}
	return yaml.NewEncoder(os.Stdout).Encode(cfg)
}

func listRuns(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tROUTINE\tTIME\tSIMULATED\tSTEPS\tPUSHES\tERROR")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%d\t%d\t%s\n",
			run.ID,
			run.Routine,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration.Seconds(),
			run.Steps,
			run.Pushes,
			run.Error,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	samples, err := st.LoadTicks(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return errors.New("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("routine: %s\n", meta.Routine)
	fmt.Printf("samples: %d\n\n", len(samples))

	if showPath {
		fmt.Print(viz.PlotPath(cfg.Sim.Field, samples, 72, 36))
		return nil
	}

	graph, err := viz.PlotSeries(samples, series, 80, 12)
	if err != nil {
		return errors.Wrapf(err, "series are %s", strings.Join(viz.SeriesNames(), ", "))
	}
	fmt.Println(graph)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	data, err := storage.New(dataDir).Export(args[0])
	if err != nil {
		return err
	}
	if outFile == "" {
		return storage.WriteJSON(os.Stdout, data)
	}
	if err := storage.ExportJSON(outFile, data); err != nil {
		return err
	}
	fmt.Printf("exported %d ticks to %s\n", data.Ticks, outFile)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	samples, err := storage.New(dataDir).LoadTicks(args[0])
	if err != nil {
		return err
	}
	if len(samples) == 0 {
		return errors.New("no data to analyze")
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SESSION\tSTEP\tTICKS\tDURATION\tINITIAL\tFINAL\tOVERSHOOT\tSETTLED\tFREQ")
	for _, r := range analysis.Responses(samples, tolerance) {
		settled := "no"
		if r.Settled {
			settled = fmt.Sprintf("%.2fs", r.SettlingTime)
		}
		fmt.Fprintf(w, "%d\t%d\t%d\t%.2fs\t%.2f\t%.2f\t%.2f\t%s\t%.2fHz\n",
			r.Run, r.Step+1, r.Ticks, r.Duration, r.InitialError, r.FinalError, r.Overshoot, settled, r.Frequency)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if showPhase {
		fmt.Println("\nerror vs error rate:")
		fmt.Print(analysis.PhasePortraitToASCII(analysis.ErrorPhase(samples), 70, 20))
	}
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("realtime") || cfg.Sim.RealTime == 0 {
		cfg.Sim.RealTime = realTime
	}

	routine, err := resolveRoutine(args)
	if err != nil {
		return err
	}

	// the alt screen owns the terminal, so only the run's outcome is printed
	exp := experiment.New(cfg, zap.NewNop().Sugar())
	if err := exp.Setup(routine); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	result, runErr := viz.RunLive(ctx, exp, routine)
	if result == nil {
		return runErr
	}
	runID, err := storage.New(dataDir).Save(cfg.Sim, result)
	if err != nil {
		return err
	}
	printResult(runID, result)
	return runErr
}

func tuneGains(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	routine, err := resolveRoutine(args)
	if err != nil {
		return err
	}

	// runs inside the search only log warnings
	quiet, err := logging.New("tune", false)
	if err != nil {
		return err
	}
	quiet = quiet.Desugar().WithOptions(zap.IncreaseLevel(zap.WarnLevel)).Sugar()

	build, err := optim.PIDBuilder(cfg, routine, controller, quiet)
	if err != nil {
		return err
	}

	var names []string
	var ranges [][]float64
	for _, p := range []struct {
		name   string
		values []float64
	}{{"kp", kpValues}, {"ki", kiValues}, {"kd", kdValues}} {
		if len(p.values) > 0 {
			names = append(names, p.name)
			ranges = append(ranges, p.values)
		}
	}
	if len(names) == 0 {
		return errors.New("give at least one of --kp, --ki, --kd")
	}

	score := optim.DurationObjective
	if objective != "duration" {
		if _, err := experiment.NewRegistry().GetMetric(objective); err != nil {
			return err
		}
		score = optim.MetricObjective(objective)
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Infow("tuning", "routine", routine.Name, "controller", controller, "params", names, "objective", objective)
	best, value, results, err := optim.NewGridSearch(names, ranges).Search(ctx, build, score)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(objective))
	for _, t := range results {
		row := make([]string, 0, len(names)+1)
		for _, n := range names {
			row = append(row, fmt.Sprintf("%g", t.Params[n]))
		}
		if t.Err != nil {
			row = append(row, "failed: "+t.Err.Error())
		} else {
			row = append(row, fmt.Sprintf("%.4f", t.Score))
		}
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	if ferr := w.Flush(); ferr != nil {
		return ferr
	}
	if err != nil {
		return err
	}

	fmt.Printf("\nbest %s: %.4f\n", objective, value)
	for _, n := range names {
		fmt.Printf("  %s: %g\n", n, best[n])
	}
	return nil
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	routine, err := resolveRoutine(args)
	if err != nil {
		return err
	}

	mc := experiment.MonteCarloConfig{
		Trials:         trials,
		Seed:           seed,
		PositionJitter: positionJitter,
		HeadingJitter:  headingJitter,
		Tolerance:      mcTolerance,
		Workers:        workers,
	}

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("monte carlo: %s, %d trials\n", routine.Name, trials)
	res, err := experiment.New(cfg, logger).MonteCarlo(ctx, routine, mc)
	if err != nil {
		return err
	}

	failed := 0
	for _, t := range res.Trials {
		if t.Err != nil {
			failed++
		}
	}
	fmt.Printf("nominal final heading: %.1f°\n", res.Nominal.Final.Heading)
	fmt.Printf("on heading: %d/%d (%.1f%%)\n", res.Successes, len(res.Trials), 100*res.SuccessRate())
	fmt.Printf("failed runs: %d\n", failed)
	return nil
}
