package correlate

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-specmatch/grid"
)

// Errors returned by correlate functions.
var (
	ErrInvalidBandpass = errors.New("correlate: bandpass indices must satisfy 0 <= k1 < k2 <= k3 < k4 <= n/2")
	ErrInvalidZRange   = errors.New("correlate: redshift range must satisfy -1 < zMin <= zMax")
	ErrInvalidSpectrum = errors.New("correlate: spectrum does not match grid or has non-positive RMS")
	ErrInvalidParams   = errors.New("correlate: invalid parameters")
)

// Params holds the policy constants of one correlation run. The same Params
// value must drive both the single-template engine and the batched peak
// finder so the two stay numerically identical.
type Params struct {
	Grid grid.StandardGrid

	// Bandpass cutoff indices in frequency space, k1 < k2 <= k3 < k4.
	// Frequencies below k1 and above k4 are removed, the response ramps
	// with a half-cosine between k1..k2 and k3..k4.
	K1, K2, K3, K4 int

	// Allowed redshift search range.
	ZMin, ZMax float64

	// Minimum normalized correlation height for a peak.
	PeakHeight float64

	// Minimum distance between accepted peaks in grid cells.
	PeakDistance int

	// Minimum overlap fraction for a peak to yield a match.
	MinLap float64
}

// DefaultParams returns the reference parameters for a grid: bandpass
// k1=1, k2=4, k3=N/12, k4=N/10, redshift window [-0.01, 1.2], peak height
// 0.3, peak distance 3 cells, minimum overlap 0.3.
func DefaultParams(g grid.StandardGrid) Params {
	return Params{
		Grid:         g,
		K1:           1,
		K2:           4,
		K3:           g.NumPoints / 12,
		K4:           g.NumPoints / 10,
		ZMin:         -0.01,
		ZMax:         1.2,
		PeakHeight:   0.3,
		PeakDistance: 3,
		MinLap:       0.3,
	}
}

// Validate checks grid, bandpass ordering, and search-range consistency.
func (p Params) Validate() error {
	if err := p.Grid.Validate(); err != nil {
		return err
	}

	if p.K1 < 0 || p.K1 >= p.K2 || p.K2 > p.K3 || p.K3 >= p.K4 || p.K4 > p.Grid.NumPoints/2 {
		return fmt.Errorf("%w: k=(%d,%d,%d,%d), n=%d", ErrInvalidBandpass, p.K1, p.K2, p.K3, p.K4, p.Grid.NumPoints)
	}

	if p.ZMin <= -1 || p.ZMin > p.ZMax {
		return fmt.Errorf("%w: [%g, %g]", ErrInvalidZRange, p.ZMin, p.ZMax)
	}

	if p.PeakHeight <= 0 {
		return fmt.Errorf("%w: peak height %g must be positive", ErrInvalidParams, p.PeakHeight)
	}

	if p.PeakDistance < 1 {
		return fmt.Errorf("%w: peak distance %d must be >= 1", ErrInvalidParams, p.PeakDistance)
	}

	if p.MinLap < 0 || p.MinLap > 1 {
		return fmt.Errorf("%w: minimum lap %g must be in [0, 1]", ErrInvalidParams, p.MinLap)
	}

	return nil
}
