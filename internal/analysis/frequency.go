package analysis

import (
	"errors"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

var ErrTooShort = errors.New("analysis: series too short")

// PowerSpectrum returns |X_k| for k = 0..n/2 of the mean-removed series.
func PowerSpectrum(values []float64) []float64 {
	if len(values) == 0 {
		return nil
	}
	mean := stat.Mean(values, nil)
	centered := make([]float64, len(values))
	for i, v := range values {
		centered[i] = v - mean
	}

	coeffs := fourier.NewFFT(len(values)).Coefficients(nil, centered)
	ps := make([]float64, len(coeffs))
	for i, c := range coeffs {
		ps[i] = cmplx.Abs(c)
	}
	return ps
}

// DominantFrequency returns the strongest nonzero frequency, in cycles per
// unit time, of values sampled uniformly at times.
func DominantFrequency(times, values []float64) (float64, error) {
	n := len(values)
	if n < 4 || len(times) != n {
		return 0, ErrTooShort
	}
	dt := (times[n-1] - times[0]) / float64(n-1)

	ps := PowerSpectrum(values)
	best := 1
	for k := 2; k < len(ps); k++ {
		if ps[k] > ps[best] {
			best = k
		}
	}
	return fourier.NewFFT(n).Freq(best) / dt, nil
}
