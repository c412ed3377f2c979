package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/matdyn/internal/dynamo"
	"github.com/san-kum/matdyn/internal/vectorize"
)

var ErrCorrupt = errors.New("storage: corrupt run")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

// RunInfo describes how a run was produced.
type RunInfo struct {
	Problem       string
	Integrator    string
	Interpolation string
	Dt            float64
	Duration      float64
	Backward      bool
	Layout        vectorize.Layout
	Metrics       map[string]float64
}

type RunMetadata struct {
	ID            string             `json:"id"`
	Problem       string             `json:"problem"`
	Timestamp     time.Time          `json:"timestamp"`
	Dt            float64            `json:"dt"`
	Duration      float64            `json:"duration"`
	Integrator    string             `json:"integrator"`
	Interpolation string             `json:"interpolation"`
	Steps         int                `json:"steps"`
	Backward      bool               `json:"backward,omitempty"`
	Layout        vectorize.Layout   `json:"layout"`
	Metrics       map[string]float64 `json:"metrics,omitempty"`
}

// Save writes the run in chronological order, one column per unique entry.
func (s *Store) Save(info RunInfo, result *dynamo.Result) (string, error) {
	if err := info.Layout.Validate(); err != nil {
		return "", err
	}
	for i, x := range result.States {
		if len(x) != len(info.Layout.Names) {
			return "", fmt.Errorf("%w: state %d has %d entries, layout has %d", vectorize.ErrLookup, i, len(x), len(info.Layout.Names))
		}
	}
	result = result.Chronological()

	now := time.Now()
	runID := fmt.Sprintf("%s_%d", info.Problem, now.UnixNano())
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:            runID,
		Problem:       info.Problem,
		Timestamp:     now,
		Dt:            info.Dt,
		Duration:      info.Duration,
		Integrator:    info.Integrator,
		Interpolation: info.Interpolation,
		Steps:         result.StepsTaken,
		Backward:      info.Backward,
		Layout:        info.Layout,
		Metrics:       info.Metrics,
	}

	metaPath := filepath.Join(runDir, "metadata.json")
	metaFile, err := os.Create(metaPath)
	if err != nil {
		return "", err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return "", err
	}

	csvPath := filepath.Join(runDir, "states.csv")
	csvFile, err := os.Create(csvPath)
	if err != nil {
		return "", err
	}
	defer csvFile.Close()

	w := csv.NewWriter(csvFile)

	header := append([]string{"time"}, info.Layout.Names...)
	if err := w.Write(header); err != nil {
		return "", err
	}

	for i := range result.States {
		row := []string{strconv.FormatFloat(result.Times[i], 'g', -1, 64)}
		for _, val := range result.States[i] {
			row = append(row, strconv.FormatFloat(val, 'g', -1, 64))
		}
		if err := w.Write(row); err != nil {
			return "", err
		}
	}

	w.Flush()
	return runID, w.Error()
}

// List returns every readable run, oldest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	metaPath := filepath.Join(s.baseDir, runID, "metadata.json")
	data, err := os.ReadFile(metaPath)
	if err != nil {
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}

	return &meta, nil
}

// LoadStates reads the sample times and one row of unique-entry values per
// sample.
func (s *Store) LoadStates(runID string) ([]float64, *mat.Dense, error) {
	csvPath := filepath.Join(s.baseDir, runID, "states.csv")
	file, err := os.Open(csvPath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	records, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) < 2 {
		return nil, nil, fmt.Errorf("%w: %s has no samples", ErrCorrupt, runID)
	}

	cols := len(records[0]) - 1
	times := make([]float64, 0, len(records)-1)
	data := make([]float64, 0, (len(records)-1)*cols)

	for i, record := range records[1:] {
		t, err := strconv.ParseFloat(record[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%w: row %d: %v", ErrCorrupt, i+1, err)
		}
		times = append(times, t)

		for j := 1; j < len(record); j++ {
			val, err := strconv.ParseFloat(record[j], 64)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: row %d column %d: %v", ErrCorrupt, i+1, j, err)
			}
			data = append(data, val)
		}
	}

	return times, mat.NewDense(len(times), cols, data), nil
}

// LoadTrajectory returns the samples together with the layout needed to
// rebuild matrices from them.
func (s *Store) LoadTrajectory(runID string) ([]float64, *mat.Dense, vectorize.Layout, error) {
	meta, err := s.Load(runID)
	if err != nil {
		return nil, nil, vectorize.Layout{}, err
	}
	times, x, err := s.LoadStates(runID)
	if err != nil {
		return nil, nil, vectorize.Layout{}, err
	}
	if _, c := x.Dims(); c != len(meta.Layout.Names) {
		return nil, nil, vectorize.Layout{}, fmt.Errorf("%w: %d columns, layout has %d entries", ErrCorrupt, c, len(meta.Layout.Names))
	}
	return times, x, meta.Layout, nil
}
