// Package testutil provides deterministic synthetic spectra and tolerance
// helpers shared by the package tests.
package testutil

import (
	"math"
	"math/rand"
)

// GaussianLine returns a spectrum of the given length containing a single
// Gaussian emission feature centered at pos with the given width (in grid
// cells) and amplitude.
func GaussianLine(length int, pos, width, amplitude float64) []float64 {
	out := make([]float64, length)

	for i := range out {
		d := (float64(i) - pos) / width
		out[i] = amplitude * math.Exp(-0.5*d*d)
	}

	return out
}

// SyntheticSpectrum builds a flattened spectrum with several Gaussian features
// at fixed positions, suitable as a fake template flux. The result is
// deterministic for a given length.
func SyntheticSpectrum(length int) []float64 {
	out := make([]float64, length)

	features := []struct {
		pos, width, amp float64
	}{
		{0.15, 0.008, 1.0},
		{0.35, 0.015, -0.7},
		{0.55, 0.010, 0.9},
		{0.80, 0.020, 0.5},
	}

	for _, f := range features {
		pos := f.pos * float64(length)
		width := f.width * float64(length)

		for i := range out {
			d := (float64(i) - pos) / width
			out[i] += f.amp * math.Exp(-0.5*d*d)
		}
	}

	return out
}

// DeterministicNoise generates white noise with a fixed seed for
// reproducibility.
func DeterministicNoise(seed int64, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	rng := rand.New(rand.NewSource(seed))

	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// Rolled returns a copy of x circularly shifted right by shift cells.
// A positive shift moves features toward higher indices, which on a
// logarithmic grid corresponds to a redshift.
func Rolled(x []float64, shift int) []float64 {
	n := len(x)
	out := make([]float64, n)

	for i := range x {
		out[(i+shift%n+n)%n] = x[i]
	}

	return out
}

// Scaled returns a copy of x with every element multiplied by factor.
func Scaled(x []float64, factor float64) []float64 {
	out := make([]float64, len(x))

	for i, v := range x {
		out[i] = v * factor
	}

	return out
}
