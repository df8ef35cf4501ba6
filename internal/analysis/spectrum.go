// Package analysis provides frequency-domain diagnostics over sampled
// energy series.
package analysis

import (
	"errors"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/floats"
)

var ErrTooShort = errors.New("analysis: series too short for a spectrum")

// PowerSpectrum computes the one-sided power spectrum of a uniformly
// sampled series. The mean is removed first so the DC component does not
// swamp the vibrational peaks. dt is the sampling interval in seconds;
// frequencies come back in Hz.
func PowerSpectrum(series []float64, dt float64) (freqs, power []float64, err error) {
	n := len(series)
	if n < 4 {
		return nil, nil, ErrTooShort
	}
	if dt <= 0 {
		return nil, nil, errors.New("analysis: sampling interval must be positive")
	}

	detrended := make([]float64, n)
	copy(detrended, series)
	mean := floats.Sum(detrended) / float64(n)
	floats.AddConst(-mean, detrended)

	spectrum := fft.FFTReal(detrended)

	half := n / 2
	freqs = make([]float64, half)
	power = make([]float64, half)
	for k := 0; k < half; k++ {
		freqs[k] = float64(k) / (float64(n) * dt)
		power[k] = cmplx.Abs(spectrum[k]) * cmplx.Abs(spectrum[k])
	}

	return freqs, power, nil
}

// DominantFrequency returns the frequency of the strongest non-DC peak.
func DominantFrequency(series []float64, dt float64) (float64, error) {
	freqs, power, err := PowerSpectrum(series, dt)
	if err != nil {
		return 0, err
	}
	if len(power) < 2 {
		return 0, ErrTooShort
	}
	// Skip the DC bin; detrending leaves it near zero anyway.
	peak := floats.MaxIdx(power[1:]) + 1
	return freqs[peak], nil
}

// Normalize scales a series so its largest magnitude is 1, for plotting.
// A flat series is returned unchanged.
func Normalize(series []float64) []float64 {
	out := make([]float64, len(series))
	copy(out, series)
	if len(out) == 0 {
		return out
	}
	max := floats.Norm(out, math.Inf(1))
	if max == 0 {
		return out
	}
	floats.Scale(1/max, out)
	return out
}
