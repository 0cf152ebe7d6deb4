package correlate

import (
	"fmt"
	"math"
)

// Bandpass returns the n frequency-domain filter weights for the cutoff
// indices k1 < k2 <= k3 < k4. The response is zero below k1 and above k4,
// unity between k2 and k3, and half-cosine tapered in between. Bins above the
// Nyquist index are mirrored so the filtered product of two real-signal
// transforms stays conjugate-symmetric.
func Bandpass(n, k1, k2, k3, k4 int) ([]float64, error) {
	if k1 < 0 || k1 >= k2 || k2 > k3 || k3 >= k4 || k4 > n/2 {
		return nil, fmt.Errorf("%w: k=(%d,%d,%d,%d), n=%d", ErrInvalidBandpass, k1, k2, k3, k4, n)
	}

	out := make([]float64, n)

	for i := range out {
		// Mirror across Nyquist: bin i and bin n-i carry the same frequency.
		f := i
		if f > n-f {
			f = n - f
		}

		switch {
		case f < k1 || f > k4:
			out[i] = 0
		case f < k2:
			out[i] = 0.5 * (1 - math.Cos(math.Pi*float64(f-k1)/float64(k2-k1)))
		case f <= k3:
			out[i] = 1
		default:
			out[i] = 0.5 * (1 + math.Cos(math.Pi*float64(f-k3)/float64(k4-k3)))
		}
	}

	return out, nil
}
