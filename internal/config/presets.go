package config

import "sort"

var Presets = map[string]map[string]*Config{
	"riccati": {
		"double-integrator": {
			Problem: "riccati", Integrator: "rk4", Dt: 0.01, Duration: 10.0, Interpolation: "linear",
			Matrices: MatricesConfig{
				A: Matrix{{0, 1}, {0, 0}}, B: Matrix{{0}, {1}},
				Q: Matrix{{1, 0}, {0, 1}}, R: Matrix{{1}},
			},
			X0: []float64{1, 0},
		},
		"oscillator": {
			Problem: "riccati", Integrator: "rk4", Dt: 0.01, Duration: 20.0, Interpolation: "akima",
			Matrices: MatricesConfig{
				A: Matrix{{0, 1}, {-1, -0.1}}, B: Matrix{{0}, {1}},
				Q: Matrix{{10, 0}, {0, 1}}, R: Matrix{{0.1}},
			},
			X0: []float64{1, 0},
		},
		"cheap-control": {
			Problem: "riccati", Integrator: "rk4", Dt: 0.001, Duration: 5.0, Interpolation: "linear",
			Matrices: MatricesConfig{
				A: Matrix{{0, 1}, {0, 0}}, B: Matrix{{0}, {1}},
				Q: Matrix{{1, 0}, {0, 1}}, R: Matrix{{0.01}},
			},
			X0: []float64{1, 0},
		},
	},
	"lyapunov": {
		"decay": {
			Problem: "lyapunov", Integrator: "rk4", Dt: 0.01, Duration: 10.0, Interpolation: "linear",
			Matrices: MatricesConfig{
				A: Matrix{{-1, 0}, {0, -2}}, Q: Matrix{{2, 0}, {0, 4}},
			},
		},
		"damped": {
			Problem: "lyapunov", Integrator: "rk45", Dt: 0.01, Duration: 30.0, Adaptive: true, Tolerance: 1e-8,
			Interpolation: "fritsch-butland",
			Matrices: MatricesConfig{
				A: Matrix{{0, 1}, {-2, -0.5}}, Q: Matrix{{0, 0}, {0, 1}},
			},
		},
	},
	"linear": {
		"rotation": {
			Problem: "linear", Integrator: "rk4", Dt: 0.01, Duration: 6.3, Interpolation: "cubic",
			Matrices: MatricesConfig{
				A: Matrix{{0, 1}, {-1, 0}}, P0: Matrix{{1, 0}, {0, 1}},
			},
		},
		"shear": {
			Problem: "linear", Integrator: "euler", Dt: 0.001, Duration: 2.0, Interpolation: "linear",
			Matrices: MatricesConfig{
				A: Matrix{{0, 1}, {0, 0}}, P0: Matrix{{1, 0}, {0, 1}},
			},
		},
	},
}

func GetPreset(problem, preset string) *Config {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	cfg, ok := problemPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(problem string) []string {
	problemPresets, ok := Presets[problem]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(problemPresets))
	for name := range problemPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
