// Package correlate computes the FFT cross-correlation between one
// preprocessed spectrum and a library of reference templates, and extracts
// candidate matches from the correlation peaks.
//
// Spectrum and templates live on the same logarithmic wavelength grid with
// their discrete Fourier transforms precomputed, so the per-template work is:
//
//	corr = IFFT(spectrumFFT * conj(templateFFT) * bandpass)
//
// followed by a circular shift that centers zero lag, normalization by
// N * rmsSpectrum * rmsTemplate, and a peak search restricted to the index
// window corresponding to the allowed redshift range. Each accepted peak
// yields a match.Match carrying the peak redshift, its uncertainty, the
// normalized correlation height r, the overlap fraction lap, and the quality
// metrics built from them.
//
// The bandpass suppresses low-frequency continuum residuals and
// high-frequency noise before the inverse transform; it is applied
// identically to every template of a run.
//
// # Batched peak search
//
// PeakFinder.FindPeaksBatch processes the correlation rows of many templates
// at once. It shares every policy constant (minimum peak height, minimum
// inter-peak distance, redshift window) with the single-template path, and the
// two are numerically identical by construction: both normalize through the
// same code and search peaks through the same code.
package correlate
