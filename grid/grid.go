// Package grid defines the fixed logarithmic wavelength grid shared by every
// template and every input spectrum.
//
// All spectra are assumed to be rebinned onto the same grid before they reach
// this module. Because the grid is logarithmic, a shift of m grid cells
// corresponds to a multiplicative wavelength factor exp(m*DLog), which is why
// cross-correlation lags map directly to redshifts:
//
//	z = exp(lag * DLog) - 1
package grid

import (
	"errors"
	"fmt"
	"math"
)

// Errors returned by grid functions.
var (
	ErrInvalidPointCount = errors.New("grid: number of points must be positive")
	ErrInvalidWaveRange  = errors.New("grid: wavelength bounds must satisfy 0 < min < max")
)

// StandardGrid describes a logarithmic wavelength sampling with NumPoints
// cells between MinWave and MaxWave (both in the same wavelength unit,
// conventionally Angstroms).
//
// The zero value is not usable; construct via Default or a struct literal and
// check Validate.
type StandardGrid struct {
	NumPoints int
	MinWave   float64
	MaxWave   float64
}

// Default returns the standard 1024-point grid spanning 2500-10000 Angstroms
// used by the reference template libraries.
func Default() StandardGrid {
	return StandardGrid{NumPoints: 1024, MinWave: 2500, MaxWave: 10000}
}

// Validate checks that the grid parameters are usable.
func (g StandardGrid) Validate() error {
	if g.NumPoints <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidPointCount, g.NumPoints)
	}

	if g.MinWave <= 0 || g.MinWave >= g.MaxWave {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidWaveRange, g.MinWave, g.MaxWave)
	}

	return nil
}

// DLog returns the logarithmic step between adjacent grid cells,
// ln(MaxWave/MinWave) / NumPoints.
func (g StandardGrid) DLog() float64 {
	return math.Log(g.MaxWave/g.MinWave) / float64(g.NumPoints)
}

// Wavelength returns the cell-center wavelengths,
// wave[i] = MinWave * exp((i+0.5)*DLog).
func (g StandardGrid) Wavelength() []float64 {
	dlog := g.DLog()
	out := make([]float64, g.NumPoints)

	for i := range out {
		out[i] = g.MinWave * math.Exp((float64(i)+0.5)*dlog)
	}

	return out
}

// RedshiftForLag converts a correlation lag in grid cells to a redshift.
// Fractional lags are allowed (sub-cell peak refinement).
func (g StandardGrid) RedshiftForLag(lag float64) float64 {
	return math.Exp(lag*g.DLog()) - 1
}

// LagForRedshift converts a redshift to a correlation lag in grid cells.
func (g StandardGrid) LagForRedshift(z float64) float64 {
	return math.Log(1+z) / g.DLog()
}

// SearchWindow converts an allowed redshift range to the inclusive index
// window [lz1, lz2] of the shifted correlation function, where the zero-lag
// cell sits at NumPoints/2. The window is clipped to [0, NumPoints-1].
func (g StandardGrid) SearchWindow(zMin, zMax float64) (lz1, lz2 int) {
	mid := g.NumPoints / 2

	lz1 = mid + int(math.Floor(g.LagForRedshift(zMin)))
	lz2 = mid + int(math.Ceil(g.LagForRedshift(zMax)))

	if lz1 < 0 {
		lz1 = 0
	}

	if lz2 > g.NumPoints-1 {
		lz2 = g.NumPoints - 1
	}

	return lz1, lz2
}
