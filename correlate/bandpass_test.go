package correlate

import (
	"errors"
	"testing"
)

func TestBandpassShape(t *testing.T) {
	const n = 256

	bp, err := Bandpass(n, 2, 8, 24, 32)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(bp) != n {
		t.Fatalf("len = %d, want %d", len(bp), n)
	}

	// Zero below k1 and above k4.
	for _, k := range []int{0, 1, 33, 64, 100} {
		if bp[k] != 0 {
			t.Errorf("bp[%d] = %v, want 0", k, bp[k])
		}
	}

	// Unity in the passband [k2, k3].
	for k := 8; k <= 24; k++ {
		if bp[k] != 1 {
			t.Errorf("bp[%d] = %v, want 1", k, bp[k])
		}
	}

	// Monotone ramps.
	for k := 2; k < 8; k++ {
		if bp[k+1] <= bp[k] {
			t.Errorf("rising ramp not monotone at %d: %v -> %v", k, bp[k], bp[k+1])
		}
	}

	for k := 24; k < 32; k++ {
		if bp[k+1] >= bp[k] {
			t.Errorf("falling ramp not monotone at %d: %v -> %v", k, bp[k], bp[k+1])
		}
	}
}

func TestBandpassMirrorSymmetry(t *testing.T) {
	const n = 128

	bp, err := Bandpass(n, 1, 4, 10, 16)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for k := 1; k < n; k++ {
		if bp[k] != bp[n-k] {
			t.Fatalf("bp[%d] = %v != bp[%d] = %v", k, bp[k], n-k, bp[n-k])
		}
	}
}

func TestBandpassInvalidIndices(t *testing.T) {
	tests := [][4]int{
		{-1, 4, 10, 16}, // negative k1
		{4, 4, 10, 16},  // k1 == k2
		{1, 12, 10, 16}, // k2 > k3
		{1, 4, 16, 16},  // k3 == k4
		{1, 4, 10, 65},  // k4 beyond Nyquist
	}

	for _, k := range tests {
		if _, err := Bandpass(128, k[0], k[1], k[2], k[3]); !errors.Is(err, ErrInvalidBandpass) {
			t.Errorf("Bandpass(128, %v) error = %v, want ErrInvalidBandpass", k, err)
		}
	}
}
