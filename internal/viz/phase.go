package viz

import "math"

// Phase draws the curve (xs[k], ys[k]) on a w x h character Braille canvas,
// scaled to the data range.
func Phase(xs, ys []float64, w, h int) *Canvas {
	c := NewCanvas(w, h)
	n := min(len(xs), len(ys))
	if n == 0 {
		return c
	}

	xmin, xmax := bounds(xs[:n])
	ymin, ymax := bounds(ys[:n])
	pw, ph := float64(w*2-1), float64(h*4-1)
	project := func(x, y float64) (int, int) {
		px := (x - xmin) / (xmax - xmin) * pw
		py := (ymax - y) / (ymax - ymin) * ph
		return int(math.Round(px)), int(math.Round(py))
	}

	x0, y0 := project(xs[0], ys[0])
	c.Set(x0, y0)
	for k := 1; k < n; k++ {
		x1, y1 := project(xs[k], ys[k])
		c.DrawLine(x0, y0, x1, y1)
		x0, y0 = x1, y1
	}
	return c
}

func bounds(v []float64) (float64, float64) {
	lo, hi := v[0], v[0]
	for _, x := range v[1:] {
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
	}
	if hi == lo {
		lo, hi = lo-1, hi+1
	}
	return lo, hi
}
