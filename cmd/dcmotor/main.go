package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/san-kum/dcmotor/internal/analysis"
	"github.com/san-kum/dcmotor/internal/automation"
	"github.com/san-kum/dcmotor/internal/config"
	"github.com/san-kum/dcmotor/internal/export"
	"github.com/san-kum/dcmotor/internal/metrics"
	"github.com/san-kum/dcmotor/internal/motor"
	"github.com/san-kum/dcmotor/internal/optim"
	"github.com/san-kum/dcmotor/internal/storage"
	"github.com/san-kum/dcmotor/internal/tui"
	"github.com/san-kum/dcmotor/internal/viz"
)

var (
	dataDir    string
	configFile string
	preset     string

	signal    string
	amplitude float64
	frequency float64
	duration  float64
	tMax      float64
	dt        float64
	resR      float64
	indL      float64
	torqueK   float64
	emfK      float64
	inertia   float64
	friction  float64

	label      string
	noSave     bool
	showPlot   bool
	figurePath string

	plotWidth  int
	plotHeight int
	outPath    string

	sweepParam   string
	sweepMin     float64
	sweepMax     float64
	sweepPoints  int
	workers      int
	tolerance    float64
	trials       int
	seed         int64
	saveScenario bool
	tuneRanges   []string
	tuneMetric   string
	tuneTarget   float64
)

// main registers the dcmotor commands. With no subcommand it opens the
// interactive form. It exits with status 1 if a command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:   "dcmotor",
		Short: "brushed DC motor transient simulator",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := baseConfig()
			if err != nil {
				return err
			}
			return tui.Run(cfg)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".dcmotor", "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&preset, "preset", "", "start from a named preset")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulation and save it",
		Args:  cobra.NoArgs,
		RunE:  runSimulation,
	}
	addParamFlags(runCmd)
	runCmd.Flags().StringVar(&label, "label", "run", "label prefix for the run id")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "print the traces after the run")
	runCmd.Flags().StringVar(&figurePath, "figure", "", "write a png or svg figure of the run")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot run traces in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotWidth, "width", 80, "plot width")
	plotCmd.Flags().IntVar(&plotHeight, "height", 10, "plot height")

	renderCmd := &cobra.Command{
		Use:   "render [run_id]",
		Short: "render run traces to a png or svg figure",
		Args:  cobra.ExactArgs(1),
		RunE:  renderRun,
	}
	renderCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (.png or .svg), defaults to <run_id>.png")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run data to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "operating point, time constants and spectrum of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list available presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIGNAL\tAMPL\tFREQ\tDUR\tT_MAX\tDT")
			for _, name := range config.ListPresets() {
				p := config.GetPreset(name)
				fmt.Fprintf(w, "%s\t%s\t%g\t%g\t%g\t%g\t%g\n",
					name, p.Signal.Type, p.Signal.Amplitude, p.Signal.Frequency,
					p.Signal.Duration, p.Sim.TMax, p.Sim.Dt)
			}
			return w.Flush()
		},
	}

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run a yaml scenario",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&saveScenario, "save", true, "store steps that set save_as")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "sweep one parameter, e.g. --param motor.r",
		Args:  cobra.NoArgs,
		RunE:  runSweep,
	}
	addParamFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "signal.amplitude", "parameter path section.field")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 1, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 10, "last value")
	sweepCmd.Flags().IntVar(&sweepPoints, "points", 10, "number of values")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 = all cpus)")

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "perturb motor constants and report the spread of the response",
		Args:  cobra.NoArgs,
		RunE:  runMonteCarlo,
	}
	addParamFlags(monteCarloCmd)
	monteCarloCmd.Flags().Float64Var(&tolerance, "tol", 0.05, "relative tolerance of every constant")
	monteCarloCmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 0, "parallel runs (0 = all cpus)")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "grid search parameters so a metric hits a target",
		Args:  cobra.NoArgs,
		RunE:  runTune,
	}
	addParamFlags(tuneCmd)
	tuneCmd.Flags().StringArrayVar(&tuneRanges, "grid", nil, "parameter grid path=min:max:step, repeatable")
	tuneCmd.Flags().StringVar(&tuneMetric, "metric", "final_speed", "metric to match")
	tuneCmd.Flags().Float64Var(&tuneTarget, "target", 30, "wanted metric value")

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, renderCmd, exportJSONCmd, exportCSVCmd, analyzeCmd, presetsCmd, scenarioCmd, sweepCmd, monteCarloCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addParamFlags(cmd *cobra.Command) {
	d := config.DefaultConfig()
	f := cmd.Flags()
	f.StringVar(&signal, "signal", d.Signal.Type, "input signal: step, triangle or sin")
	f.Float64Var(&amplitude, "amplitude", d.Signal.Amplitude, "signal amplitude [V]")
	f.Float64Var(&frequency, "frequency", d.Signal.Frequency, "signal frequency [Hz]")
	f.Float64Var(&duration, "duration", d.Signal.Duration, "step duration [s]")
	f.Float64Var(&tMax, "tmax", d.Sim.TMax, "simulated time [s]")
	f.Float64Var(&dt, "dt", d.Sim.Dt, "timestep [s]")
	f.Float64Var(&resR, "r", d.Motor.R, "armature resistance [ohm]")
	f.Float64Var(&indL, "l", d.Motor.L, "armature inductance [H]")
	f.Float64Var(&torqueK, "kt", d.Motor.KT, "torque constant [N·m/A]")
	f.Float64Var(&emfK, "ke", d.Motor.Ke, "back-emf constant [V·s/rad]")
	f.Float64Var(&inertia, "j", d.Motor.J, "rotor inertia [kg·m²]")
	f.Float64Var(&friction, "b", d.Motor.B, "viscous friction [N·m·s/rad]")
}

// baseConfig resolves the preset, then the config file on top of it.
func baseConfig() (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		loaded, err := config.LoadOver(configFile, cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	return cfg, nil
}

// resolveConfig applies command line flags on top of baseConfig. Only flags
// the user actually set take effect.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := baseConfig()
	if err != nil {
		return nil, err
	}

	f := cmd.Flags()
	if f.Changed("signal") {
		cfg.Signal.Type = signal
	}
	floats := []struct {
		flag  string
		value float64
		dst   *float64
	}{
		{"amplitude", amplitude, &cfg.Signal.Amplitude},
		{"frequency", frequency, &cfg.Signal.Frequency},
		{"duration", duration, &cfg.Signal.Duration},
		{"tmax", tMax, &cfg.Sim.TMax},
		{"dt", dt, &cfg.Sim.Dt},
		{"r", resR, &cfg.Motor.R},
		{"l", indL, &cfg.Motor.L},
		{"kt", torqueK, &cfg.Motor.KT},
		{"ke", emfK, &cfg.Motor.Ke},
		{"j", inertia, &cfg.Motor.J},
		{"b", friction, &cfg.Motor.B},
	}
	for _, fl := range floats {
		if f.Changed(fl.flag) {
			*fl.dst = fl.value
		}
	}

	return cfg, nil
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	params, err := cfg.Parameters()
	if err != nil {
		return err
	}

	fmt.Printf("running %s input, %d samples...\n", params.Input.Kind, params.Samples())
	start := time.Now()

	tr, values, err := motor.Simulate(cmd.Context(), params, metrics.Default()...)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	fmt.Printf("completed in %v\n", elapsed)
	if !noSave {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err := st.Save(label, cfg, tr, values, elapsed)
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", viz.Title.Render(runID))
	}
	fmt.Printf("steps: %d\n", tr.Len()-1)
	fmt.Println("\nmetrics:")
	fmt.Print(viz.MetricsTable(values))

	if showPlot {
		fmt.Println()
		fmt.Println(viz.PlotTrace(tr, viz.DefaultPlotOptions()))
	}

	if figurePath != "" {
		if err := export.SaveFigure(figurePath, tr, export.DefaultFigureOptions()); err != nil {
			return err
		}
		fmt.Printf("figure: %s\n", figurePath)
	}

	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTIME\tSIGNAL\tAMPL\tT_MAX\tDT\tSAMPLES\tFINAL I\tFINAL ω")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%gs\t%gs\t%d\t%.4g\t%.4g\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Config.Signal.Type,
			run.Config.Signal.Amplitude,
			run.Config.Sim.TMax,
			run.Config.Sim.Dt,
			run.Samples,
			float64(run.Metrics["final_current"]),
			float64(run.Metrics["final_speed"]),
		)
	}

	return w.Flush()
}

func loadRun(runID string) (*storage.RunMetadata, *motor.Trace, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}

	tr, err := st.LoadTrace(runID)
	if err != nil {
		return nil, nil, err
	}

	if tr.Len() == 0 {
		return nil, nil, fmt.Errorf("run %s has no data", runID)
	}

	return meta, tr, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("signal: %s  amplitude: %g\n", meta.Config.Signal.Type, meta.Config.Signal.Amplitude)
	fmt.Printf("samples: %d\n\n", tr.Len())

	fmt.Println(viz.PlotTrace(tr, viz.PlotOptions{Width: plotWidth, Height: plotHeight}))
	return nil
}

func renderRun(cmd *cobra.Command, args []string) error {
	_, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	path := outPath
	if path == "" {
		path = args[0] + ".png"
	}

	if err := export.SaveFigure(path, tr, export.DefaultFigureOptions()); err != nil {
		return err
	}

	fmt.Printf("wrote %s\n", path)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	return storage.ExportJSON(os.Stdout, meta, tr)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	_, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	return storage.WriteTraceCSV(os.Stdout, tr)
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, tr, err := loadRun(args[0])
	if err != nil {
		return err
	}

	params, err := meta.Config.Parameters()
	if err != nil {
		return err
	}

	fmt.Printf("analysis: %s\n\n", meta.ID)

	tauE, tauM := analysis.TimeConstants(params.Motor)
	fmt.Printf("electrical time constant L/R: %.4g s\n", tauE)
	fmt.Printf("mechanical time constant J/B: %.4g s\n", tauM)

	op, err := analysis.SteadyState(params.Motor, params.Input.Amplitude)
	if err != nil {
		fmt.Printf("steady state: %v\n", err)
	} else {
		finalI, finalW := tr.Final()
		fmt.Printf("\nsteady state at %g V:\n", op.Voltage)
		fmt.Printf("  current  %.4g A (final sample %.4g)\n", op.Current, finalI)
		fmt.Printf("  speed    %.4g rad/s (final sample %.4g)\n", op.Omega, finalW)
		fmt.Printf("  torque   %.4g N·m\n", op.Torque)
	}

	ps := analysis.PowerSpectrum(analysis.ZeroPad(tr.Current))
	plotData := ps[:len(ps)/4]
	if len(plotData) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(viz.Downsample(plotData, 80),
			asciigraph.Height(12),
			asciigraph.Caption("power spectrum of i(t)"),
		))
	}

	fmt.Printf("\ndominant frequency of i(t): %.3f hz\n", analysis.DominantFrequency(tr.Current, meta.Config.Sim.Dt))
	return nil
}

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("scenario: %s\n", viz.Title.Render(sc.Name))
	if sc.Description != "" {
		fmt.Println(viz.Subtle.Render(sc.Description))
	}

	var saver automation.Saver
	if saveScenario {
		st := storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
		saver = st
	}

	results, err := automation.RunScenario(cmd.Context(), sc, saver, func(done, total int) {
		fmt.Printf("step %d/%d done\n", done, total)
	})
	for _, r := range results {
		finalI, finalW := r.Trace.Final()
		line := fmt.Sprintf("  %-12s %6d samples  i=%.4g A  ω=%.4g rad/s", r.Name, r.Trace.Len(), finalI, finalW)
		if r.RunID != "" {
			line += "  saved " + r.RunID
		}
		fmt.Println(line)
	}
	return err
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	sweep := &automation.ParameterSweep{
		Base:    cfg,
		Param:   sweepParam,
		Min:     sweepMin,
		Max:     sweepMax,
		Points:  sweepPoints,
		Workers: workers,
	}

	results, err := automation.RunSweep(cmd.Context(), sweep, progressPrinter("sweep"))
	fmt.Println()
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tFINAL I\tFINAL ω\tPEAK I\tPEAK ω\tENERGY\n", sweepParam)
	for _, r := range results {
		m := r.Metrics
		fmt.Fprintf(w, "%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\n",
			r.Value, m["final_current"], m["final_speed"], m["peak_current"], m["peak_speed"], m["input_energy"])
	}
	return w.Flush()
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	mc := &automation.MonteCarloConfig{
		Base:      cfg,
		Tolerance: tolerance,
		NumTrials: trials,
		Seed:      seed,
		Workers:   workers,
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), mc, progressPrinter("trials"))
	fmt.Println()
	if err != nil {
		return err
	}

	fmt.Printf("\n%d trials, ±%.1f%% on every constant\n", len(results), tolerance*100)
	for _, s := range automation.Summarize(results, "final_current", "final_speed", "peak_current", "peak_speed") {
		fmt.Printf("  %s  %s ± %s\n",
			viz.MetricLabel.Render(fmt.Sprintf("%-14s", s.Metric)),
			viz.MetricValue.Render(fmt.Sprintf("%.4g", s.Mean)),
			viz.MetricValue.Render(fmt.Sprintf("%.2g", s.StdDev)))
	}
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	if len(tuneRanges) == 0 {
		return fmt.Errorf("at least one --grid is required, e.g. --grid signal.amplitude=1:20:0.5")
	}

	names := make([]string, 0, len(tuneRanges))
	ranges := make([][]float64, 0, len(tuneRanges))
	for _, entry := range tuneRanges {
		name, rng, ok := strings.Cut(entry, "=")
		if !ok {
			return fmt.Errorf("invalid --grid %q, want path=min:max:step", entry)
		}
		values, err := optim.ParseRange(rng)
		if err != nil {
			return fmt.Errorf("--grid %s: %w", name, err)
		}
		names = append(names, name)
		ranges = append(ranges, values)
	}

	best, err := optim.NewGridSearch(names, ranges).Search(cmd.Context(), cfg, optim.Target(tuneMetric, tuneTarget))
	if err != nil {
		return err
	}

	fmt.Printf("tried %d candidates for %s = %g\n\n", best.Tried, tuneMetric, tuneTarget)
	for _, name := range names {
		fmt.Printf("  %s  %s\n", viz.MetricLabel.Render(fmt.Sprintf("%-18s", name)), viz.MetricValue.Render(fmt.Sprintf("%g", best.Params[name])))
	}
	fmt.Printf("\n%s reached %.6g (off by %.3g)\n", tuneMetric, best.Metrics[tuneMetric], best.Score)
	return nil
}

func progressPrinter(what string) automation.ProgressFunc {
	return func(done, total int) {
		fmt.Printf("\r%s %s %d/%d", what, viz.ProgressBar(float64(done)/float64(total), 30), done, total)
	}
}
