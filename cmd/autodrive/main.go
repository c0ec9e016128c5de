package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	dataDir    string
	configFile string
	debug      bool
	// run / live
	script   string
	realTime float64
	preset   string
	// plot
	series   []string
	showPath bool
	// export
	outFile string
	// analyze
	tolerance float64
	showPhase bool
	// tune
	controller string
	objective  string
	kpValues   []float64
	kiValues   []float64
	kdValues   []float64
	// montecarlo
	trials         int
	seed           int64
	positionJitter float64
	headingJitter  float64
	mcTolerance    float64
	workers        int
)

// main registers the commands and exits with status 1 when one fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "autodrive",
		Short:         "closed-loop drive routines on a simulated westcoast robot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", "", "data directory (default from config, .autodrive)")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "debug logging")

	runCmd := &cobra.Command{
		Use:   "run [routine]",
		Short: "run a routine in the simulator and save the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runRoutine,
	}
	runCmd.Flags().StringVar(&script, "script", "", "routine file (yaml)")
	runCmd.Flags().Float64Var(&realTime, "realtime", 0, "pace the simulation at this multiple of wall-clock time (default from config, 0 = as fast as possible)")
	runCmd.Flags().StringVar(&preset, "preset", "", "start from this preset instead of the routine's")

	routinesCmd := &cobra.Command{
		Use:   "routines [routine]",
		Short: "list built-in routines, or print one as yaml",
		Args:  cobra.MaximumNArgs(1),
		RunE:  listRoutines,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list start presets",
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective config as yaml",
		RunE:  showConfig,
	}
	configCmd.Flags().StringVarP(&outFile, "out", "o", "", "write to file instead of stdout")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&series, "series", []string{"reading", "target"}, "series to plot together")
	plotCmd.Flags().BoolVar(&showPath, "path", false, "draw the path on the field instead")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a saved run as json",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVarP(&outFile, "out", "o", "", "write to file instead of stdout")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "step response of every control session in a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Float64Var(&tolerance, "tolerance", 2, "settling band, in reading units")
	analyzeCmd.Flags().BoolVar(&showPhase, "phase", false, "also draw the error phase portrait")

	liveCmd := &cobra.Command{
		Use:   "live [routine]",
		Short: "watch a routine run on the field",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	liveCmd.Flags().StringVar(&script, "script", "", "routine file (yaml)")
	liveCmd.Flags().Float64Var(&realTime, "realtime", 1, "pace the simulation at this multiple of wall-clock time")
	liveCmd.Flags().StringVar(&preset, "preset", "", "start from this preset instead of the routine's")

	tuneCmd := &cobra.Command{
		Use:   "tune [routine]",
		Short: "grid search PID gains against a routine",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneGains,
	}
	tuneCmd.Flags().StringVar(&script, "script", "", "routine file (yaml)")
	tuneCmd.Flags().StringVar(&controller, "controller", "gyroscope", "gyroscope or ultrasonic")
	tuneCmd.Flags().StringVar(&objective, "objective", "duration", "duration or a metric name to minimise")
	tuneCmd.Flags().Float64SliceVar(&kpValues, "kp", nil, "kp values to try")
	tuneCmd.Flags().Float64SliceVar(&kiValues, "ki", nil, "ki values to try")
	tuneCmd.Flags().Float64SliceVar(&kdValues, "kd", nil, "kd values to try")

	mcCmd := &cobra.Command{
		Use:   "montecarlo [routine]",
		Short: "run a routine from perturbed starts and count how often it ends on heading",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	mcCmd.Flags().StringVar(&script, "script", "", "routine file (yaml)")
	mcCmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	mcCmd.Flags().Int64Var(&seed, "seed", 1, "random seed")
	mcCmd.Flags().Float64Var(&positionJitter, "jitter", 1, "start position jitter, inches")
	mcCmd.Flags().Float64Var(&headingJitter, "heading-jitter", 2, "start heading jitter, degrees")
	mcCmd.Flags().Float64Var(&mcTolerance, "tolerance", 5, "final heading tolerance, degrees")
	mcCmd.Flags().IntVar(&workers, "workers", 0, "parallel trials (0 = GOMAXPROCS)")

	rootCmd.AddCommand(runCmd, routinesCmd, presetsCmd, configCmd, listCmd, plotCmd, exportCmd,
		analyzeCmd, liveCmd, tuneCmd, mcCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
