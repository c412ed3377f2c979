package config

import (
	"fmt"
	"regexp"
	"strconv"
)

// Clone deep-copies c so that overrides never reach a shared preset.
func (c *Config) Clone() *Config {
	out := *c
	out.Matrices = MatricesConfig{
		A:  c.Matrices.A.clone(),
		B:  c.Matrices.B.clone(),
		Q:  c.Matrices.Q.clone(),
		R:  c.Matrices.R.clone(),
		P0: c.Matrices.P0.clone(),
	}
	if c.X0 != nil {
		out.X0 = append([]float64(nil), c.X0...)
	}
	return &out
}

func (m Matrix) clone() Matrix {
	if m == nil {
		return nil
	}
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = append([]float64(nil), row...)
	}
	return out
}

var (
	entryKnob  = regexp.MustCompile(`^(a|b|q|r|p0)\[(\d+)\]\[(\d+)\]$`)
	vectorKnob = regexp.MustCompile(`^x0\[(\d+)\]$`)
)

// Set assigns one numeric setting by name: dt, duration, tolerance, a matrix
// entry such as q[0][1], or an x0 component such as x0[1]. Off-diagonal
// entries of q, r and p0 are mirrored to keep them symmetric.
func (c *Config) Set(name string, v float64) error {
	switch name {
	case "dt":
		c.Dt = v
		return nil
	case "duration":
		c.Duration = v
		return nil
	case "tolerance":
		c.Tolerance = v
		return nil
	}

	if m := vectorKnob.FindStringSubmatch(name); m != nil {
		i, _ := strconv.Atoi(m[1])
		if i >= len(c.X0) {
			return fmt.Errorf("%w: %s outside x0 of length %d", ErrInvalid, name, len(c.X0))
		}
		c.X0[i] = v
		return nil
	}

	m := entryKnob.FindStringSubmatch(name)
	if m == nil {
		return fmt.Errorf("%w: unknown setting %q", ErrInvalid, name)
	}
	i, _ := strconv.Atoi(m[2])
	j, _ := strconv.Atoi(m[3])

	var target Matrix
	mirror := true
	switch m[1] {
	case "a":
		target, mirror = c.Matrices.A, false
	case "b":
		target, mirror = c.Matrices.B, false
	case "q":
		target = c.Matrices.Q
	case "r":
		target = c.Matrices.R
	case "p0":
		target = c.Matrices.P0
	}
	if i >= len(target) || j >= len(target[i]) {
		return fmt.Errorf("%w: %s outside the configured matrix", ErrInvalid, name)
	}
	target[i][j] = v
	if mirror && j < len(target) && i < len(target[j]) {
		target[j][i] = v
	}
	return nil
}
