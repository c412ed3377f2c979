// Package optim tunes configuration settings against a run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/san-kum/matdyn/internal/config"
	"github.com/san-kum/matdyn/internal/experiment"
	"github.com/san-kum/matdyn/internal/models"
)

var ErrNoResult = errors.New("optim: no grid point produced the metric")

// GridSearch tries every combination of the listed setting values.
type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) (*GridSearch, error) {
	if len(params) != len(ranges) {
		return nil, fmt.Errorf("optim: %d settings with %d value lists", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, fmt.Errorf("optim: no values for %s", params[i])
		}
	}
	return &GridSearch{paramNames: params, ranges: ranges}, nil
}

// Search returns the settings minimizing metricName over full runs of base.
// Points whose run fails are skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	base *config.Config,
	reg *models.Registry,
	metricName string,
) (map[string]float64, float64, error) {

	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), base, reg, metricName, &best, &bestParams)
	if err != nil {
		return nil, 0, err
	}
	if bestParams == nil {
		return nil, 0, fmt.Errorf("%w: %s", ErrNoResult, metricName)
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	reg *models.Registry,
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		cfg := base.Clone()
		for name, v := range current {
			if err := cfg.Set(name, v); err != nil {
				return err
			}
		}

		exp, err := experiment.New(cfg, reg)
		if err != nil {
			slog.Debug("grid point skipped", "params", current, "err", err)
			return nil
		}
		out, err := exp.RunAll(ctx)
		if err != nil {
			slog.Debug("grid point failed", "params", current, "err", err)
			return nil
		}

		val, ok := out.Metrics[metricName]
		if ok && val < *best {
			*best = val
			*bestParams = make(map[string]float64)
			for k, v := range current {
				(*bestParams)[k] = v
			}
		}
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, reg, metricName, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}
