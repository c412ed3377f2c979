package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/matdyn/internal/config"
	"github.com/san-kum/matdyn/internal/experiment"
	"github.com/san-kum/matdyn/internal/export"
	"github.com/san-kum/matdyn/internal/integrators"
	"github.com/san-kum/matdyn/internal/models"
	"github.com/san-kum/matdyn/internal/storage"
	"github.com/san-kum/matdyn/internal/trajectory"
	"github.com/san-kum/matdyn/internal/tui"
	"github.com/san-kum/matdyn/internal/viz"
)

var (
	dataDir string
	verbose bool
	theme   string

	configFile string
	preset     string
	dt         float64
	duration   float64
	integrator string
	interp     string
	strict     bool
	adaptive   bool
	tolerance  float64
	live       bool
	frameRate  int

	atTimes      []float64
	plotSamples  int
	phaseSamples int
	pngSamples   int
	jsonSamples  int
	overlay      bool
	xEntry       int
	yEntry       int
	output       string
	entries      bool
	precision    int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "matdyn",
		Short: "matrix differential equation lab",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
			viz.SetTheme(theme)
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".matdyn", "data directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", "ocean", fmt.Sprintf("color theme %v", viz.ThemeNames()))

	runCmd := &cobra.Command{
		Use:   "run [problem]",
		Short: "integrate a matrix problem and store the run",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runProblem,
	}
	runCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	runCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	runCmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	runCmd.Flags().StringVar(&integrator, "integrator", "rk4", fmt.Sprintf("integrator %v", integrators.Names()))
	runCmd.Flags().StringVar(&interp, "interp", string(trajectory.Linear), fmt.Sprintf("interpolation %v", trajectory.Methods()))
	runCmd.Flags().BoolVar(&strict, "strict", false, "fail when aliased derivative entries disagree")
	runCmd.Flags().BoolVar(&adaptive, "adaptive", false, "adaptive step size")
	runCmd.Flags().Float64Var(&tolerance, "tol", config.DefaultTolerance, "adaptive error tolerance")
	runCmd.Flags().BoolVar(&live, "live", false, "draw the matrix while integrating")
	runCmd.Flags().IntVar(&frameRate, "fps", 20, "live frame rate")

	problemsCmd := &cobra.Command{
		Use:   "problems",
		Short: "list built-in problems",
		Run: func(cmd *cobra.Command, args []string) {
			for _, name := range models.NewRegistry().Names() {
				fmt.Printf("  %-10s presets: %v\n", name, config.ListPresets(name))
			}
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [problem]",
		Short: "list available presets for a problem",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for problem: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print the reconstructed matrix at query times",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().Float64SliceVar(&atTimes, "at", nil, "query times (default: both ends)")
	showCmd.Flags().IntVar(&precision, "precision", 4, "decimal places")

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot unique entries against time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().IntVar(&plotSamples, "samples", 200, "query points")
	plotCmd.Flags().BoolVar(&overlay, "overlay", false, "draw all entries in one plot")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase plot of two unique entries",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().IntVar(&xEntry, "x", 0, "unique entry for the x axis")
	phaseCmd.Flags().IntVar(&yEntry, "y", 1, "unique entry for the y axis")
	phaseCmd.Flags().IntVar(&phaseSamples, "samples", 400, "query points")

	exportPNGCmd := &cobra.Command{
		Use:   "export-png [run_id]",
		Short: "render entries to an image (.png, .svg, .pdf)",
		Args:  cobra.ExactArgs(1),
		RunE:  exportImage,
	}
	exportPNGCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default <run_id>.png)")
	exportPNGCmd.Flags().IntVar(&pngSamples, "samples", 200, "query points")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export the matrix trajectory to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")
	exportJSONCmd.Flags().IntVar(&jsonSamples, "samples", 50, "query points")
	exportJSONCmd.Flags().BoolVar(&entries, "entries", false, "include per-entry series")

	viewCmd := &cobra.Command{
		Use:   "view [run_id]",
		Short: "browse a run interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			meta, f, err := loadRun(args[0])
			if err != nil {
				return err
			}
			return tui.Run(f, meta.Problem+"  "+meta.ID)
		},
	}

	rootCmd.AddCommand(runCmd, problemsCmd, presetsCmd, listCmd, showCmd, plotCmd, phaseCmd, exportPNGCmd, exportJSONCmd, viewCmd)
	rootCmd.AddCommand(batchCommands()...)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig layers preset, then file, then changed flags.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	problem := cfg.Problem
	if len(args) > 0 {
		problem = args[0]
	}

	switch {
	case preset != "":
		cfg = config.GetPreset(problem, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(problem))
		}
	case configFile == "" && problem != cfg.Problem:
		presets := config.ListPresets(problem)
		if len(presets) == 0 {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownProblem, problem)
		}
		slog.Debug("using first preset", "problem", problem, "preset", presets[0])
		cfg = config.GetPreset(problem, presets[0])
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
		if len(args) > 0 && args[0] != cfg.Problem {
			return nil, fmt.Errorf("config %s is for problem %q, not %q", configFile, cfg.Problem, args[0])
		}
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if flags.Changed("time") {
		cfg.Duration = duration
	}
	if flags.Changed("integrator") {
		cfg.Integrator = integrator
	}
	if flags.Changed("interp") {
		cfg.Interpolation = interp
	}
	if flags.Changed("strict") {
		cfg.Strict = strict
	}
	if flags.Changed("adaptive") {
		cfg.Adaptive = adaptive
	}
	if flags.Changed("tol") {
		cfg.Tolerance = tolerance
	}
	return cfg, cfg.Validate()
}

func runProblem(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	exp, err := experiment.New(cfg, models.NewRegistry())
	if err != nil {
		return err
	}
	layout := exp.Layout()
	slog.Debug("system built", "problem", cfg.Problem, "unknowns", len(layout.Names), "backward", exp.Problem().Backward)

	if live {
		r := tui.NewLiveRenderer(os.Stdout, cfg.Problem, layout, frameRate)
		exp.AddObserver(r)
		r.Start()
		defer r.Stop()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("running %s...\n", cfg.Problem)
	start := time.Now()

	out, err := exp.RunAll(ctx)
	if err != nil {
		return err
	}
	slog.Debug("integration done", "steps", out.Result.StepsTaken, "samples", len(out.Result.Times), "closed_loop", out.Loop != nil)
	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunInfo{
		Problem:       cfg.Problem,
		Integrator:    cfg.Integrator,
		Interpolation: cfg.Interpolation,
		Dt:            cfg.Dt,
		Duration:      cfg.Duration,
		Backward:      out.Backward,
		Layout:        layout,
		Metrics:       out.Metrics,
	}, out.Result)
	if err != nil {
		return err
	}

	t0, _ := out.Callable.Span()
	opts := viz.DefaultMatrixOptions()
	opts.Title = fmt.Sprintf("t = %g", t0)

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("unknowns: %d of %d entries\n", len(layout.Names), layout.Rows*layout.Cols)
	fmt.Printf("samples: %d\n\n", len(out.Result.Times))
	fmt.Println(viz.Matrix(out.Callable.At(t0), opts))
	fmt.Println("\nmetrics:")
	names := make([]string, 0, len(out.Metrics))
	for name := range out.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Println("  " + viz.Metric(name, fmt.Sprintf("%.6f", out.Metrics[name])))
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
	fmt.Fprintln(w, "ID\tPROBLEM\tTIME\tDURATION\tDT\tINTEG\tINTERP\tSIZE\tSTEPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%s\t%s\t%dx%d\t%d\n",
			run.ID,
			run.Problem,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Integrator,
			run.Interpolation,
			run.Layout.Rows, run.Layout.Cols,
			run.Steps,
		)
	}

	return w.Flush()
}

// loadRun rebuilds the matrix callable of a stored run with the
// interpolation it was recorded with.
func loadRun(runID string) (*storage.RunMetadata, *trajectory.MatrixCallable, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, err
	}
	times, x, layout, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, err
	}
	method := trajectory.Method(meta.Interpolation)
	if method == "" {
		method = trajectory.Linear
	}
	f, err := trajectory.FromLayout(times, x, layout, trajectory.WithMethod(method))
	if err != nil {
		return nil, nil, fmt.Errorf("run %s: %w", runID, err)
	}
	slog.Debug("run loaded", "id", runID, "samples", len(times), "method", method)
	return meta, f, nil
}

func queryTimes(f *trajectory.MatrixCallable, n int) []float64 {
	t0, t1 := f.Span()
	if n < 2 {
		return []float64{t0}
	}
	ts := make([]float64, n)
	for i := range ts {
		ts[i] = t0 + (t1-t0)*float64(i)/float64(n-1)
	}
	return ts
}

func showRun(cmd *cobra.Command, args []string) error {
	meta, f, err := loadRun(args[0])
	if err != nil {
		return err
	}
	ts := atTimes
	if len(ts) == 0 {
		t0, t1 := f.Span()
		ts = []float64{t0, t1}
	}

	stack, err := f.Eval(ts...)
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("problem: %s\n\n", meta.Problem)

	opts := viz.DefaultMatrixOptions()
	opts.Precision = precision
	for k, t := range ts {
		opts.Title = fmt.Sprintf("t = %g", t)
		if len(ts) == 1 {
			fmt.Println(viz.Matrix(stack.Dense(), opts))
		} else {
			fmt.Println(viz.Matrix(stack.Slice(k), opts))
		}
	}
	return nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, f, err := loadRun(args[0])
	if err != nil {
		return err
	}
	series := export.Series(f, queryTimes(f, plotSamples))

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("problem: %s\n", meta.Problem)
	fmt.Printf("unknowns: %d\n\n", len(series))

	opts := viz.DefaultPlotOptions()
	if overlay {
		values := make([][]float64, len(series))
		names := make([]string, len(series))
		for i, s := range series {
			values[i], names[i] = s.Values, s.Name
		}
		opts.Caption = meta.Problem
		fmt.Println(viz.EntriesPlot(values, names, opts))
		return nil
	}

	const maxPlots = 6
	for i, s := range series {
		if i >= maxPlots {
			fmt.Printf("(%d more entries, use --overlay)\n", len(series)-maxPlots)
			break
		}
		opts.Caption = s.Name
		fmt.Println(viz.EntryPlot(s.Values, opts))
		fmt.Println()
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, f, err := loadRun(args[0])
	if err != nil {
		return err
	}
	series := export.Series(f, queryTimes(f, phaseSamples))
	if xEntry < 0 || xEntry >= len(series) || yEntry < 0 || yEntry >= len(series) {
		return fmt.Errorf("entries must be in [0, %d)", len(series))
	}

	fmt.Printf("run: %s  %s vs %s\n\n", meta.ID, series[yEntry].Name, series[xEntry].Name)
	fmt.Print(viz.Phase(series[xEntry].Values, series[yEntry].Values, 60, 20).String())
	return nil
}

func exportImage(cmd *cobra.Command, args []string) error {
	meta, f, err := loadRun(args[0])
	if err != nil {
		return err
	}
	path := output
	if path == "" {
		path = meta.ID + ".png"
	}
	opts := export.DefaultPlotOptions()
	opts.Title = meta.Problem
	if err := export.Plot(path, f, queryTimes(f, pngSamples), opts); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", path)
	return nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	meta, f, err := loadRun(args[0])
	if err != nil {
		return err
	}
	w := os.Stdout
	if output != "" {
		file, err := os.Create(output)
		if err != nil {
			return err
		}
		defer file.Close()
		w = file
	}
	if err := export.JSON(w, meta.ID, f, queryTimes(f, jsonSamples), entries); err != nil {
		return err
	}
	if output != "" {
		fmt.Printf("wrote %s\n", output)
	}
	return nil
}
