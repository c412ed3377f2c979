package automation

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/san-kum/matdyn/internal/config"
	"github.com/san-kum/matdyn/internal/models"
)

const scenarioYAML = `
name: riccati weights
description: two control weights on the double integrator
steps:
  - name: baseline
    problem: riccati
    preset: double-integrator
    set:
      duration: 5
  - name: heavy control
    problem: riccati
    set:
      duration: 5
      r[0][0]: 4
`

func TestScenario(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(scenarioYAML), 0644); err != nil {
		t.Fatal(err)
	}

	scenario, err := LoadScenario(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(scenario.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(scenario.Steps))
	}

	results, err := RunScenario(context.Background(), scenario, models.NewRegistry())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if results[1].Config.Matrices.R[0][0] != 4 || results[1].Config.Duration != 5 {
		t.Errorf("overrides not applied: %+v", results[1].Config)
	}

	// A costlier control makes the value function larger.
	p0 := results[0].Outcome.Callable.At(0).At(0, 0)
	p1 := results[1].Outcome.Callable.At(0).At(0, 0)
	if p1 <= p0 {
		t.Errorf("expected p_11 to grow with r, got %f then %f", p0, p1)
	}
}

func TestLoadScenarioEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("name: nothing\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScenario(path); !errors.Is(err, ErrEmpty) {
		t.Errorf("expected ErrEmpty, got %v", err)
	}
}

func TestScenarioStepErrors(t *testing.T) {
	if _, err := (ScenarioStep{Problem: "nope"}).Config(); !errors.Is(err, models.ErrUnknownProblem) {
		t.Errorf("expected ErrUnknownProblem, got %v", err)
	}
	step := ScenarioStep{Problem: "riccati", Set: map[string]float64{"seed": 1}}
	if _, err := step.Config(); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected config.ErrInvalid, got %v", err)
	}
}

func TestSweep(t *testing.T) {
	base := config.GetPreset("riccati", "double-integrator")
	base.Duration = 5
	sweep := &ParameterSweep{Base: base, Knob: "r[0][0]", Min: 0.5, Max: 2, NumSteps: 4, Workers: 2}

	results, err := RunSweep(context.Background(), sweep, models.NewRegistry())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if len(results) != 4 || results[0].Value != 0.5 || results[3].Value != 2 {
		t.Fatalf("unexpected sweep values %v", results)
	}
	for i := 1; i < len(results); i++ {
		if results[i].Start.At(0, 0) <= results[i-1].Start.At(0, 0) {
			t.Errorf("expected p_11(0) increasing in r at %d", i)
		}
		if _, ok := results[i].Metrics["cost"]; !ok {
			t.Errorf("missing closed-loop cost at %d", i)
		}
	}
	if base.Matrices.R[0][0] != 1 {
		t.Error("sweep mutated its base config")
	}
}

func TestSweepBadKnob(t *testing.T) {
	sweep := &ParameterSweep{Base: config.DefaultConfig(), Knob: "seed", NumSteps: 2}
	if _, err := RunSweep(context.Background(), sweep, models.NewRegistry()); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("expected config.ErrInvalid, got %v", err)
	}
}

func TestMonteCarlo(t *testing.T) {
	base := config.GetPreset("riccati", "double-integrator")
	mc := &MonteCarloConfig{Base: base, Perturbation: 0.5, NumTrials: 8, Seed: 7, Workers: 3}

	results, err := RunMonteCarlo(context.Background(), mc, models.NewRegistry())
	if err != nil {
		t.Fatalf("monte carlo: %v", err)
	}
	stable, unstable, mean, worst := MonteCarloStats(results)
	if stable != 8 || unstable != 0 {
		t.Errorf("expected all trials stable, got %d/%d", stable, unstable)
	}
	if mean <= 0 || worst < mean {
		t.Errorf("unexpected cost summary mean=%f max=%f", mean, worst)
	}
	for i, r := range results {
		if r.TrialID != i {
			t.Errorf("trial %d stored at %d", r.TrialID, i)
		}
		for j, v := range r.InitState {
			if math.Abs(v-base.X0[j]) > 0.5 {
				t.Errorf("trial %d perturbation out of range: %v", i, r.InitState)
			}
		}
	}

	again, err := RunMonteCarlo(context.Background(), mc, models.NewRegistry())
	if err != nil {
		t.Fatal(err)
	}
	if again[3].InitState[0] != results[3].InitState[0] {
		t.Error("expected a fixed seed to reproduce the trials")
	}
}

func TestParallel(t *testing.T) {
	var calls atomic.Int32
	err := parallel(10, 3, func(i int) error {
		calls.Add(1)
		if i == 4 || i == 7 {
			return errors.New("boom")
		}
		return nil
	})
	if err == nil || calls.Load() != 10 {
		t.Errorf("expected every job to run and an error, got %d calls, err=%v", calls.Load(), err)
	}
	if err := parallel(0, 0, func(int) error { return nil }); err != nil {
		t.Errorf("expected nil for no jobs, got %v", err)
	}
}
