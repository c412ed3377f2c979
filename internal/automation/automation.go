// Package automation batches experiments: scripted scenarios, parameter
// sweeps and Monte Carlo closed-loop trials.
package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/matdyn/internal/config"
	"github.com/san-kum/matdyn/internal/dynamo"
	"github.com/san-kum/matdyn/internal/experiment"
	"github.com/san-kum/matdyn/internal/models"
)

var ErrEmpty = errors.New("automation: nothing to run")

// divergence bounds a stable closed-loop final state.
const divergence = 1e6

// Scenario defines a scripted sequence of runs
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep starts from a preset and overrides individual settings.
type ScenarioStep struct {
	Name    string             `yaml:"name"`
	Problem string             `yaml:"problem"`
	Preset  string             `yaml:"preset"`
	Set     map[string]float64 `yaml:"set"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("%w: scenario %s has no steps", ErrEmpty, path)
	}
	return &scenario, nil
}

// Config resolves the step's preset, the problem's first one when none is
// named, and applies the overrides in name order.
func (s ScenarioStep) Config() (*config.Config, error) {
	preset := s.Preset
	if preset == "" {
		presets := config.ListPresets(s.Problem)
		if len(presets) == 0 {
			return nil, fmt.Errorf("%w: %s", models.ErrUnknownProblem, s.Problem)
		}
		preset = presets[0]
	}
	cfg := config.GetPreset(s.Problem, preset)
	if cfg == nil {
		return nil, fmt.Errorf("unknown preset: %s/%s", s.Problem, preset)
	}

	names := make([]string, 0, len(s.Set))
	for name := range s.Set {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := cfg.Set(name, s.Set[name]); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

type StepResult struct {
	Step    ScenarioStep
	Config  *config.Config
	Outcome *experiment.Outcome
}

// RunScenario executes the steps in order and stops at the first failure,
// returning the results so far.
func RunScenario(ctx context.Context, scenario *Scenario, reg *models.Registry) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		slog.Info("scenario step", "step", i+1, "of", len(scenario.Steps), "name", step.Name, "problem", step.Problem)

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		exp, err := experiment.New(cfg, reg)
		if err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		out, err := exp.RunAll(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Step: step, Config: cfg, Outcome: out})
	}

	return results, nil
}

// ParameterSweep runs Base with one setting stepped across [Min, Max].
type ParameterSweep struct {
	Base     *config.Config
	Knob     string
	Min, Max float64
	NumSteps int

	// Workers bounds concurrent runs; zero means one per CPU.
	Workers int
}

type SweepResult struct {
	Value      float64
	Start, End *mat.Dense
	Metrics    map[string]float64
}

// Values lists the swept setting's values.
func (s *ParameterSweep) Values() []float64 {
	if s.NumSteps <= 1 {
		return []float64{s.Min}
	}
	out := make([]float64, s.NumSteps)
	step := (s.Max - s.Min) / float64(s.NumSteps-1)
	for i := range out {
		out[i] = s.Min + float64(i)*step
	}
	return out
}

func RunSweep(ctx context.Context, sweep *ParameterSweep, reg *models.Registry) ([]SweepResult, error) {
	values := sweep.Values()
	cfgs := make([]*config.Config, len(values))
	for i, v := range values {
		cfg := sweep.Base.Clone()
		if err := cfg.Set(sweep.Knob, v); err != nil {
			return nil, err
		}
		cfgs[i] = cfg
	}

	results := make([]SweepResult, len(values))
	err := parallel(len(values), sweep.Workers, func(i int) error {
		exp, err := experiment.New(cfgs[i], reg)
		if err != nil {
			return fmt.Errorf("%s=%g: %w", sweep.Knob, values[i], err)
		}
		out, err := exp.RunAll(ctx)
		if err != nil {
			return fmt.Errorf("%s=%g: %w", sweep.Knob, values[i], err)
		}
		t0, t1 := out.Callable.Span()
		results[i] = SweepResult{
			Value:   values[i],
			Start:   out.Callable.At(t0),
			End:     out.Callable.At(t1),
			Metrics: out.Metrics,
		}
		slog.Debug("sweep point", "knob", sweep.Knob, "value", values[i])
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloConfig perturbs the closed-loop initial state of Base. The
// matrix problem is solved once and shared by every trial.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
	Workers      int
}

type MonteCarloResult struct {
	TrialID   int
	InitState dynamo.State
	Final     dynamo.State
	Cost      float64
	Stable    bool
}

func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, reg *models.Registry) ([]MonteCarloResult, error) {
	if cfg.NumTrials <= 0 {
		return nil, ErrEmpty
	}
	exp, err := experiment.New(cfg.Base, reg)
	if err != nil {
		return nil, err
	}
	out, err := exp.Run(ctx)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	inits := make([]dynamo.State, cfg.NumTrials)
	for trial := range inits {
		x0 := make(dynamo.State, len(cfg.Base.X0))
		for i, v := range cfg.Base.X0 {
			x0[i] = v + (rng.Float64()-0.5)*2*cfg.Perturbation
		}
		inits[trial] = x0
	}

	results := make([]MonteCarloResult, cfg.NumTrials)
	err = parallel(cfg.NumTrials, cfg.Workers, func(trial int) error {
		loop, err := exp.ClosedLoopFrom(ctx, out.Callable, inits[trial])
		if err != nil {
			return fmt.Errorf("trial %d: %w", trial, err)
		}
		final := loop.Result.States[len(loop.Result.States)-1]
		results[trial] = MonteCarloResult{
			TrialID:   trial,
			InitState: inits[trial],
			Final:     final,
			Cost:      loop.Metrics["cost"],
			Stable:    final.IsValid() && final.Norm() < divergence,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// MonteCarloStats counts stable trials and summarizes their cost.
func MonteCarloStats(results []MonteCarloResult) (stableCount, unstableCount int, meanCost, maxCost float64) {
	maxCost = math.Inf(-1)
	for _, r := range results {
		if !r.Stable {
			unstableCount++
			continue
		}
		stableCount++
		meanCost += r.Cost
		maxCost = math.Max(maxCost, r.Cost)
	}
	if stableCount > 0 {
		meanCost /= float64(stableCount)
	} else {
		maxCost = 0
	}
	return
}

// parallel calls fn(0..n-1) on at most workers goroutines and returns the
// first error by index.
func parallel(n, workers int, fn func(i int) error) error {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	errs := make([]error, n)
	jobs := make(chan int)

	var wg sync.WaitGroup
	for w := 0; w < min(workers, n); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				errs[i] = fn(i)
			}
		}()
	}
	for i := 0; i < n; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
