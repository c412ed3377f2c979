package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/matdyn/internal/integrators"
	"github.com/san-kum/matdyn/internal/models"
	"github.com/san-kum/matdyn/internal/trajectory"
)

const (
	DefaultDt        = 0.01
	DefaultDuration  = 10.0
	DefaultTolerance = 1e-6
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Problem       string  `yaml:"problem"`
	Integrator    string  `yaml:"integrator"`
	Dt            float64 `yaml:"dt"`
	Duration      float64 `yaml:"duration"`
	Adaptive      bool    `yaml:"adaptive"`
	Tolerance     float64 `yaml:"tolerance"`
	Interpolation string  `yaml:"interpolation"`
	Strict        bool    `yaml:"strict"`

	Matrices MatricesConfig `yaml:"matrices"`

	// X0 seeds the closed-loop plant run of a riccati problem.
	X0 []float64 `yaml:"x0,omitempty"`
}

// MatricesConfig holds coefficient matrices as nested row lists. P0 is the
// initial condition, or the terminal one for backward problems; it defaults
// to zero.
type MatricesConfig struct {
	A  Matrix `yaml:"a,omitempty"`
	B  Matrix `yaml:"b,omitempty"`
	Q  Matrix `yaml:"q,omitempty"`
	R  Matrix `yaml:"r,omitempty"`
	P0 Matrix `yaml:"p0,omitempty"`
}

type Matrix [][]float64

// Dense converts m, returning nil for an empty matrix.
func (m Matrix) Dense() (*mat.Dense, error) {
	if len(m) == 0 {
		return nil, nil
	}
	cols := len(m[0])
	if cols == 0 {
		return nil, fmt.Errorf("%w: empty row", ErrInvalid)
	}
	data := make([]float64, 0, len(m)*cols)
	for i, row := range m {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d", ErrInvalid, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(m), cols, data), nil
}

func DefaultConfig() *Config {
	return &Config{
		Problem:       "riccati",
		Integrator:    "rk4",
		Dt:            DefaultDt,
		Duration:      DefaultDuration,
		Tolerance:     DefaultTolerance,
		Interpolation: string(trajectory.Linear),
		Matrices: MatricesConfig{
			A: Matrix{{0, 1}, {0, 0}},
			B: Matrix{{0}, {1}},
			Q: Matrix{{1, 0}, {0, 1}},
			R: Matrix{{1}},
		},
		X0: []float64{1, 0},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// Scalar settings fall back to defaults; matrices come from the file only.
	cfg := DefaultConfig()
	cfg.Matrices, cfg.X0 = MatricesConfig{}, nil
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalid, c.Dt)
	}
	if c.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalid, c.Duration)
	}
	if c.Adaptive && c.Tolerance <= 0 {
		return fmt.Errorf("%w: adaptive runs need a positive tolerance", ErrInvalid)
	}
	if !slices.Contains(integrators.Names(), c.Integrator) {
		return fmt.Errorf("%w: unknown integrator %q", ErrInvalid, c.Integrator)
	}
	if !slices.Contains(trajectory.Methods(), trajectory.Method(c.Interpolation)) {
		return fmt.Errorf("%w: unknown interpolation %q", ErrInvalid, c.Interpolation)
	}
	if !slices.Contains(models.NewRegistry().Names(), c.Problem) {
		return fmt.Errorf("%w: unknown problem %q", ErrInvalid, c.Problem)
	}

	params, err := c.Params()
	if err != nil {
		return err
	}
	p0, err := c.Matrices.P0.Dense()
	if err != nil {
		return err
	}
	if p0 != nil && params.A != nil {
		n, _ := params.A.Dims()
		if r, k := p0.Dims(); r != n || k != n {
			return fmt.Errorf("%w: p0 is %dx%d, state is %dx%d", ErrInvalid, r, k, n, n)
		}
	}
	return nil
}

// Params converts the coefficient matrices. Shape consistency between them
// is checked by the problem builder.
func (c *Config) Params() (models.Params, error) {
	var p models.Params
	var err error
	if p.A, err = c.Matrices.A.Dense(); err != nil {
		return p, fmt.Errorf("matrix a: %w", err)
	}
	if p.B, err = c.Matrices.B.Dense(); err != nil {
		return p, fmt.Errorf("matrix b: %w", err)
	}
	if p.Q, err = c.Matrices.Q.Dense(); err != nil {
		return p, fmt.Errorf("matrix q: %w", err)
	}
	if p.R, err = c.Matrices.R.Dense(); err != nil {
		return p, fmt.Errorf("matrix r: %w", err)
	}
	return p, nil
}

// InitialMatrix returns P0, or an n x n zero matrix when none is given.
func (c *Config) InitialMatrix(n int) (*mat.Dense, error) {
	p0, err := c.Matrices.P0.Dense()
	if err != nil {
		return nil, err
	}
	if p0 == nil {
		return mat.NewDense(n, n, nil), nil
	}
	return p0, nil
}
