// Package export writes reconstructed matrix trajectories to image and JSON
// files.
package export

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/san-kum/matdyn/internal/trajectory"
)

var ErrFormat = errors.New("export: unsupported image format")

type PlotOptions struct {
	Title         string
	Width, Height vg.Length
}

func DefaultPlotOptions() PlotOptions {
	return PlotOptions{Width: 8 * vg.Inch, Height: 5 * vg.Inch}
}

// Plot renders one line per unique matrix entry against time and saves it to
// path. The format follows the extension: .png, .svg or .pdf.
func Plot(path string, f *trajectory.MatrixCallable, times []float64, opts PlotOptions) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png", ".svg", ".pdf":
	default:
		return fmt.Errorf("%w: %q", ErrFormat, filepath.Ext(path))
	}
	if len(times) == 0 {
		return trajectory.ErrNoQuery
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = "t"
	p.Legend.Top = true

	for i, s := range Series(f, times) {
		xys := make(plotter.XYs, len(times))
		for k, t := range times {
			xys[k].X = t
			xys[k].Y = s.Values[k]
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("export: %s: %w", s.Name, err)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i / len(plotutil.DefaultColors))
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}

	return p.Save(opts.Width, opts.Height, path)
}

// EntrySeries is one unique entry sampled over time, with the matrix
// positions that read it.
type EntrySeries struct {
	Name      string    `json:"name"`
	Positions [][2]int  `json:"positions"`
	Values    []float64 `json:"values"`
}

// Series samples every unique entry of f at times.
func Series(f *trajectory.MatrixCallable, times []float64) []EntrySeries {
	layout := f.Layout()
	out := make([]EntrySeries, len(layout.Names))
	for idx, name := range layout.Names {
		out[idx] = EntrySeries{Name: name, Positions: layout.Positions(idx), Values: make([]float64, len(times))}
	}
	for k, t := range times {
		m := f.At(t)
		for idx := range out {
			if pos := out[idx].Positions; len(pos) > 0 {
				out[idx].Values[k] = m.At(pos[0][0], pos[0][1])
			}
		}
	}
	return out
}

// Document is the JSON form of a reconstructed matrix trajectory.
type Document struct {
	Run      string        `json:"run,omitempty"`
	Rows     int           `json:"rows"`
	Cols     int           `json:"cols"`
	Times    []float64     `json:"times"`
	Matrices [][][]float64 `json:"matrices"`
	Entries  []EntrySeries `json:"entries,omitempty"`
}

// JSON writes the matrices of f at times to w. Entry series are included
// when withEntries is set.
func JSON(w io.Writer, run string, f *trajectory.MatrixCallable, times []float64, withEntries bool) error {
	stack, err := f.Eval(times...)
	if err != nil {
		return err
	}
	r, c := f.Dims()
	doc := Document{Run: run, Rows: r, Cols: c, Times: times, Matrices: make([][][]float64, len(times))}
	for k := range times {
		var m *mat.Dense
		if len(times) == 1 {
			m = stack.Dense()
		} else {
			m = stack.Slice(k)
		}
		doc.Matrices[k] = rows(m)
	}
	if withEntries {
		doc.Entries = Series(f, times)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

func rows(m mat.Matrix) [][]float64 {
	r, c := m.Dims()
	out := make([][]float64, r)
	for i := range out {
		out[i] = make([]float64, c)
		for j := range out[i] {
			out[i][j] = m.At(i, j)
		}
	}
	return out
}
