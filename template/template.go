// Package template defines the read-only template records consumed by the
// correlation engine, and the flattening of multi-epoch library records into
// one Template per epoch.
//
// Persistence (HDF5 storage, user/builtin library merge) is an external
// collaborator; this package only models the in-memory snapshot handed to a
// classification run.
package template

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-specmatch/grid"
)

// Errors returned by template functions.
var (
	ErrEmptyFlux      = errors.New("template: empty flux array")
	ErrGridMismatch   = errors.New("template: flux length does not match grid")
	ErrNonPositiveRMS = errors.New("template: non-positive RMS")
)

// Template is one reference spectrum at one epoch, rebinned onto the standard
// grid with its Fourier transform and RMS precomputed.
//
// A multi-epoch library record is presented to the correlation engine as a
// sequence of Templates sharing Name, Type, and Subtype. Templates are treated
// as read-only once constructed.
type Template struct {
	Name     string
	Type     string
	Subtype  string
	AgeDays  float64
	Redshift float64
	Flux     []float64
	FFT      []complex128
	RMS      float64
}

// Epoch is one (age, flux) sample of a multi-epoch library record.
type Epoch struct {
	AgeDays float64
	Flux    []float64
	FFT     []complex128
	RMS     float64
}

// Record is a library entry carrying one or more epochs under a single
// template identity.
type Record struct {
	Name     string
	Type     string
	Subtype  string
	Redshift float64
	Epochs   []Epoch
}

// Flatten expands records into one Template per epoch, preserving record
// order and epoch order. It is a pure transform; the input is not modified.
func Flatten(records []Record) []Template {
	var out []Template

	for _, rec := range records {
		for _, ep := range rec.Epochs {
			out = append(out, Template{
				Name:     rec.Name,
				Type:     rec.Type,
				Subtype:  rec.Subtype,
				AgeDays:  ep.AgeDays,
				Redshift: rec.Redshift,
				Flux:     ep.Flux,
				FFT:      ep.FFT,
				RMS:      ep.RMS,
			})
		}
	}

	return out
}

// Prepare fills in the FFT and RMS of a template from its flux array.
// The flux must already live on the standard grid g.
func Prepare(tpl *Template, g grid.StandardGrid) error {
	if len(tpl.Flux) == 0 {
		return ErrEmptyFlux
	}

	if len(tpl.Flux) != g.NumPoints {
		return fmt.Errorf("%w: %d != %d", ErrGridMismatch, len(tpl.Flux), g.NumPoints)
	}

	tpl.RMS = rms(tpl.Flux)
	if tpl.RMS <= 0 {
		return ErrNonPositiveRMS
	}

	plan, err := algofft.NewPlan64(g.NumPoints)
	if err != nil {
		return fmt.Errorf("template: failed to create FFT plan: %w", err)
	}

	in := make([]complex128, g.NumPoints)
	for i, v := range tpl.Flux {
		in[i] = complex(v, 0)
	}

	tpl.FFT = make([]complex128, g.NumPoints)
	if err := plan.Forward(tpl.FFT, in); err != nil {
		return fmt.Errorf("template: forward FFT failed: %w", err)
	}

	return nil
}

// Valid reports whether a template can participate in correlation against the
// given grid: correctly sized flux and FFT, positive finite RMS.
func (t *Template) Valid(g grid.StandardGrid) bool {
	if len(t.Flux) != g.NumPoints || len(t.FFT) != g.NumPoints {
		return false
	}

	return t.RMS > 0 && !math.IsInf(t.RMS, 0) && !math.IsNaN(t.RMS)
}

func rms(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}

	var sumSq float64
	for _, v := range x {
		sumSq += v * v
	}

	return math.Sqrt(sumSq / float64(len(x)))
}
