package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/matdyn/internal/analysis"
	"github.com/san-kum/matdyn/internal/automation"
	"github.com/san-kum/matdyn/internal/export"
	"github.com/san-kum/matdyn/internal/models"
	"github.com/san-kum/matdyn/internal/optim"
	"github.com/san-kum/matdyn/internal/storage"
)

var (
	knob       string
	knobMin    float64
	knobMax    float64
	knobSteps  int
	workers    int
	trials     int
	perturb    float64
	seed       int64
	grid       []string
	metricName string
	settleTol  float64
	anaSamples int
)

func batchCommands() []*cobra.Command {
	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "eigenvalues, convergence and frequency analysis",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().Float64Var(&settleTol, "tol", 1e-3, "settling tolerance (Frobenius)")
	analyzeCmd.Flags().IntVar(&anaSamples, "samples", 256, "query points")

	sweepCmd := &cobra.Command{
		Use:   "sweep [problem]",
		Short: "run a problem across values of one setting",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSweep,
	}
	sweepCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	sweepCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	sweepCmd.Flags().StringVar(&knob, "knob", "r[0][0]", "setting to sweep (dt, duration, tolerance, q[i][j], ...)")
	sweepCmd.Flags().Float64Var(&knobMin, "min", 0.1, "first value")
	sweepCmd.Flags().Float64Var(&knobMax, "max", 10, "last value")
	sweepCmd.Flags().IntVar(&knobSteps, "steps", 5, "number of values")
	sweepCmd.Flags().IntVar(&workers, "workers", 0, "concurrent runs (0 = one per CPU)")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file]",
		Short: "run and store every step of a scenario file",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [problem]",
		Short: "closed-loop trials from perturbed initial states",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	monteCarloCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	monteCarloCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	monteCarloCmd.Flags().IntVar(&trials, "trials", 100, "number of trials")
	monteCarloCmd.Flags().Float64Var(&perturb, "perturb", 0.5, "uniform perturbation half-width")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time based)")
	monteCarloCmd.Flags().IntVar(&workers, "workers", 0, "concurrent trials (0 = one per CPU)")

	tuneCmd := &cobra.Command{
		Use:   "tune [problem]",
		Short: "grid search settings minimizing a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runTune,
	}
	tuneCmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	tuneCmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	tuneCmd.Flags().StringArrayVar(&grid, "grid", nil, "setting=v1:v2:... (repeatable)")
	tuneCmd.Flags().StringVar(&metricName, "metric", "cost", "metric to minimize")

	return []*cobra.Command{analyzeCmd, sweepCmd, scenarioCmd, monteCarloCmd, tuneCmd}
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, f, err := loadRun(args[0])
	if err != nil {
		return err
	}
	times := queryTimes(f, anaSamples)
	t0, t1 := f.Span()

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("problem: %s\n\n", meta.Problem)

	snaps, err := analysis.Spectrum(f, times)
	if err != nil {
		return err
	}
	indefinite := 0
	for _, s := range snaps {
		if !s.PositiveDefinite {
			indefinite++
		}
	}
	for _, s := range []analysis.Snapshot{snaps[0], snaps[len(snaps)-1]} {
		fmt.Printf("t=%-8.4g eigenvalues %s  ‖·‖=%.4g\n", s.T, formatEigen(s.Eigenvalues), s.Norm)
	}
	fmt.Printf("positive definite at %d of %d samples\n\n", len(snaps)-indefinite, len(snaps))

	settledAt, ref := t1, f.At(t1)
	if meta.Backward {
		settledAt, ref = t0, f.At(t0)
	}
	dist := analysis.Distance(f, times, ref)
	if ts, ok := analysis.SettlingTime(times, dist, settleTol, meta.Backward); ok {
		fmt.Printf("within %g of P(%g) on [%g, %g]\n", settleTol, settledAt, min(ts, settledAt), max(ts, settledAt))
	} else {
		fmt.Printf("does not settle within %g\n", settleTol)
	}

	fmt.Println("\ndominant frequency per entry:")
	for _, s := range export.Series(f, times) {
		freq, err := analysis.DominantFrequency(times, s.Values)
		if err != nil {
			return err
		}
		fmt.Printf("  %-12s %.4g\n", s.Name, freq)
	}
	return nil
}

func formatEigen(vals []complex128) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		if imag(v) == 0 {
			parts[i] = strconv.FormatFloat(real(v), 'g', 5, 64)
		} else {
			parts[i] = fmt.Sprintf("%.4g%+.4gi", real(v), imag(v))
		}
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	sweep := &automation.ParameterSweep{Base: cfg, Knob: knob, Min: knobMin, Max: knobMax, NumSteps: knobSteps, Workers: workers}
	results, err := automation.RunSweep(ctx, sweep, models.NewRegistry())
	if err != nil {
		return err
	}

	if len(results) == 0 {
		return fmt.Errorf("sweep of %s produced no runs", knob)
	}
	names := metricNames(results[0].Metrics)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\t%s\n", strings.ToUpper(knob), strings.ToUpper(strings.Join(names, "\t")), "P(t0)")
	for _, r := range results {
		row := []string{strconv.FormatFloat(r.Value, 'g', 6, 64)}
		for _, name := range names {
			row = append(row, fmt.Sprintf("%.6g", r.Metrics[name]))
		}
		row = append(row, compact(r.Start))
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}

func compact(m mat.Matrix) string {
	r, c := m.Dims()
	rows := make([]string, r)
	for i := 0; i < r; i++ {
		cells := make([]string, c)
		for j := 0; j < c; j++ {
			cells[j] = strconv.FormatFloat(m.At(i, j), 'g', 4, 64)
		}
		rows[i] = strings.Join(cells, " ")
	}
	return "[" + strings.Join(rows, "; ") + "]"
}

func metricNames(m map[string]float64) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func runScenario(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	fmt.Printf("scenario: %s\n", scenario.Name)
	if scenario.Description != "" {
		fmt.Printf("  %s\n", scenario.Description)
	}

	results, runErr := automation.RunScenario(ctx, scenario, models.NewRegistry())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tRUN ID\tMETRICS")
	for i, r := range results {
		runID, err := st.Save(storage.RunInfo{
			Problem:       r.Config.Problem,
			Integrator:    r.Config.Integrator,
			Interpolation: r.Config.Interpolation,
			Dt:            r.Config.Dt,
			Duration:      r.Config.Duration,
			Backward:      r.Outcome.Backward,
			Layout:        r.Outcome.Layout,
			Metrics:       r.Outcome.Metrics,
		}, r.Outcome.Result)
		if err != nil {
			return err
		}
		name := r.Step.Name
		if name == "" {
			name = fmt.Sprintf("%d", i+1)
		}
		var parts []string
		for _, m := range metricNames(r.Outcome.Metrics) {
			parts = append(parts, fmt.Sprintf("%s=%.4g", m, r.Outcome.Metrics[m]))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, runID, strings.Join(parts, " "))
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	mc := &automation.MonteCarloConfig{Base: cfg, Perturbation: perturb, NumTrials: trials, Seed: seed, Workers: workers}
	results, err := automation.RunMonteCarlo(ctx, mc, models.NewRegistry())
	if err != nil {
		return err
	}

	stable, unstable, mean, worst := automation.MonteCarloStats(results)
	fmt.Printf("trials: %d  stable: %d  unstable: %d\n", len(results), stable, unstable)
	fmt.Printf("cost: mean %.6f  max %.6f\n", mean, worst)
	return nil
}

func runTune(cmd *cobra.Command, args []string) error {
	if len(grid) == 0 {
		return fmt.Errorf("at least one --grid setting=v1:v2 is required")
	}
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	names, ranges, err := parseGrid(grid)
	if err != nil {
		return err
	}

	search, err := optim.NewGridSearch(names, ranges)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	best, val, err := search.Search(ctx, cfg, models.NewRegistry(), metricName)
	if err != nil {
		return err
	}
	fmt.Printf("best %s: %.6g\n", metricName, val)
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, best[name])
	}
	return nil
}

// parseGrid reads setting=v1:v2:... flags into parallel name and value lists.
func parseGrid(args []string) ([]string, [][]float64, error) {
	names := make([]string, len(args))
	ranges := make([][]float64, len(args))
	for i, arg := range args {
		name, list, ok := strings.Cut(arg, "=")
		if !ok || name == "" {
			return nil, nil, fmt.Errorf("bad --grid %q, want setting=v1:v2", arg)
		}
		names[i] = name
		for _, field := range strings.Split(list, ":") {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("bad --grid %q: %w", arg, err)
			}
			ranges[i] = append(ranges[i], v)
		}
	}
	return names, ranges, nil
}
