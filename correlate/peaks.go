package correlate

import "sort"

// PeakFinder searches normalized correlation functions for peaks, alone or
// batched over many templates at once. It is built from the same Params as
// the Engine, so single-template and batched searches share every threshold.
type PeakFinder struct {
	params   Params
	mid      int
	lz1, lz2 int
}

// NewPeakFinder creates a peak finder for the given parameters.
func NewPeakFinder(params Params) (*PeakFinder, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	lz1, lz2 := params.Grid.SearchWindow(params.ZMin, params.ZMax)

	return &PeakFinder{
		params: params,
		mid:    params.Grid.NumPoints / 2,
		lz1:    lz1,
		lz2:    lz2,
	}, nil
}

// Window returns the inclusive index window [lz1, lz2] of the shifted
// correlation function in which peaks are accepted.
func (f *PeakFinder) Window() (lz1, lz2 int) {
	return f.lz1, f.lz2
}

// FindPeaks returns the indices of accepted peaks in a normalized, shifted
// correlation function, in ascending index order.
//
// A peak is a local maximum at least PeakHeight high. When two candidates lie
// closer than PeakDistance cells, the lower one is suppressed. Surviving
// peaks outside [lz1, lz2] are discarded.
func (f *PeakFinder) FindPeaks(corr []float64) []int {
	var candidates []int

	for i := 1; i < len(corr)-1; i++ {
		if corr[i] > corr[i-1] && corr[i] > corr[i+1] && corr[i] >= f.params.PeakHeight {
			candidates = append(candidates, i)
		}
	}

	if len(candidates) == 0 {
		return nil
	}

	// Suppress neighbors of taller peaks first.
	byHeight := make([]int, len(candidates))
	copy(byHeight, candidates)
	sort.Slice(byHeight, func(a, b int) bool {
		return corr[byHeight[a]] > corr[byHeight[b]]
	})

	suppressed := make(map[int]bool)

	for _, p := range byHeight {
		if suppressed[p] {
			continue
		}

		for _, q := range candidates {
			if q != p && abs(q-p) < f.params.PeakDistance {
				suppressed[q] = true
			}
		}
	}

	var out []int

	for _, p := range candidates {
		if !suppressed[p] && p >= f.lz1 && p <= f.lz2 {
			out = append(out, p)
		}
	}

	return out
}

// BatchPeaks holds the surviving peaks of one template in a batched search.
type BatchPeaks struct {
	Peaks         []int
	Correlation   []float64 // normalized, shifted correlation row
	TemplateIndex int
	TemplateRMS   float64
}

// FindPeaksBatch searches the raw correlation rows of many templates at once.
//
// Rows whose rms product with the spectrum is not positive are masked out up
// front (they cannot be normalized). Every surviving row is shifted and
// normalized exactly like the single-template path, then searched with the
// same thresholds. Templates with no surviving peak are absent from the
// result map.
func (f *PeakFinder) FindPeaksBatch(correlationMatrix [][]float64, names []string, templateRMS []float64, spectrumRMS float64) map[string]BatchPeaks {
	results := make(map[string]BatchPeaks)

	for i, raw := range correlationMatrix {
		if i >= len(names) || i >= len(templateRMS) {
			break
		}

		rmsProduct := spectrumRMS * templateRMS[i]
		if rmsProduct <= 0 || len(raw) != f.params.Grid.NumPoints {
			continue
		}

		corr := normalizeShift(raw, rmsProduct, f.mid)

		peaks := f.FindPeaks(corr)
		if len(peaks) == 0 {
			continue
		}

		results[names[i]] = BatchPeaks{
			Peaks:         peaks,
			Correlation:   corr,
			TemplateIndex: i,
			TemplateRMS:   templateRMS[i],
		}
	}

	return results
}

// normalizeShift circularly shifts a raw correlation row by mid cells (so
// zero lag lands at index mid) and divides by N * rmsProduct. Both the
// engine and the batched finder route through this function.
func normalizeShift(raw []float64, rmsProduct float64, mid int) []float64 {
	n := len(raw)
	out := make([]float64, n)
	scale := 1 / (float64(n) * rmsProduct)

	for i := range raw {
		out[(i+mid)%n] = raw[i] * scale
	}

	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}

	return x
}
