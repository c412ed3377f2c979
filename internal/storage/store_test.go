package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/matdyn/internal/dynamo"
	"github.com/san-kum/matdyn/internal/vectorize"
)

func symmetricLayout() vectorize.Layout {
	return vectorize.Layout{
		Rows:  2,
		Cols:  2,
		Names: []string{"p_11(t)", "p_12(t)", "p_22(t)"},
		Index: []int{0, 1, 1, 2},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	result := &dynamo.Result{
		States: []dynamo.State{
			{0, 0, 0},
			{1.0 / 3, 0.5, 2},
		},
		Times:      []float64{1, 0},
		StepsTaken: 1,
	}

	info := RunInfo{
		Problem:    "riccati",
		Integrator: "rk4",
		Dt:         -1,
		Duration:   1,
		Backward:   true,
		Layout:     symmetricLayout(),
		Metrics:    map[string]float64{"cost": 1.5},
	}
	runID, err := st.Save(info, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	if runID == "" {
		t.Error("expected non-empty run id")
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if !meta.Backward {
		t.Error("expected the backward flag to round-trip")
	}

	if meta.Problem != "riccati" {
		t.Errorf("expected problem 'riccati', got '%s'", meta.Problem)
	}
	if meta.Metrics["cost"] != 1.5 {
		t.Errorf("expected cost 1.5, got %f", meta.Metrics["cost"])
	}
	if meta.Layout.Index[2] != 1 || len(meta.Layout.Names) != 3 {
		t.Errorf("layout not preserved: %+v", meta.Layout)
	}

	times, x, layout, err := st.LoadTrajectory(runID)
	if err != nil {
		t.Fatalf("load trajectory failed: %v", err)
	}
	if len(times) != 2 || times[0] != 0 || times[1] != 1 {
		t.Errorf("expected chronological times, got %v", times)
	}
	if x.At(0, 0) != 1.0/3 {
		t.Errorf("expected exact round trip, got %v", x.At(0, 0))
	}
	if layout.Rows != 2 {
		t.Errorf("expected 2 rows, got %d", layout.Rows)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	result := &dynamo.Result{
		States: []dynamo.State{{1, 2, 3}, {1, 2, 3}},
		Times:  []float64{0, 0.1},
	}

	for _, problem := range []string{"riccati", "lyapunov"} {
		if _, err := st.Save(RunInfo{Problem: problem, Layout: symmetricLayout()}, result); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}

	if len(runs) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(runs))
	}
	if runs[0].Problem != "riccati" {
		t.Errorf("expected oldest run first, got %s", runs[0].Problem)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	result := &dynamo.Result{
		States: []dynamo.State{{1, 2, 3}},
		Times:  []float64{0},
	}

	runID, err := st.Save(RunInfo{Problem: "test", Layout: symmetricLayout()}, result)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	metaPath := filepath.Join(runDir, "metadata.json")
	csvPath := filepath.Join(runDir, "states.csv")

	if _, err := os.Stat(metaPath); os.IsNotExist(err) {
		t.Error("metadata.json not created")
	}

	if _, err := os.Stat(csvPath); os.IsNotExist(err) {
		t.Error("states.csv not created")
	}

	data, err := os.ReadFile(csvPath)
	if err != nil {
		t.Fatal(err)
	}
	if want := "time,p_11(t),p_12(t),p_22(t)\n0,1,2,3\n"; string(data) != want {
		t.Errorf("unexpected csv %q", data)
	}
}

func TestStoreRejectsMismatchedStates(t *testing.T) {
	st := New(t.TempDir())
	result := &dynamo.Result{States: []dynamo.State{{1}}, Times: []float64{0}}
	if _, err := st.Save(RunInfo{Problem: "test", Layout: symmetricLayout()}, result); !errors.Is(err, vectorize.ErrLookup) {
		t.Errorf("expected ErrLookup, got %v", err)
	}
	if _, err := st.Save(RunInfo{Problem: "test"}, result); err == nil {
		t.Error("expected invalid layout error")
	}
}

func TestLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, _, _, err := st.LoadTrajectory("nope"); err == nil {
		t.Error("expected error for missing run")
	}
}
