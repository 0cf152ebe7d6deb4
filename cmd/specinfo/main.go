// Command specinfo prints the correlation geometry of a classification
// configuration: the log-wavelength grid, the redshift search window, and
// the bandpass filter applied to every cross-correlation.
//
// Usage:
//
//	specinfo [flags]
//
// Examples:
//
//	specinfo
//	specinfo -points 2048 -zmax 0.5
//	specinfo -config classify.yaml -bandpass
package main

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cwbudde/algo-specmatch/classify"
	"github.com/cwbudde/algo-specmatch/correlate"
)

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults apply when empty)")
	points := flag.Int("points", 0, "override the number of grid points")
	zMin := flag.Float64("zmin", 0, "override the lower redshift bound")
	zMax := flag.Float64("zmax", 0, "override the upper redshift bound")
	bandpass := flag.Bool("bandpass", false, "print the bandpass response per wavenumber band")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: specinfo [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Prints the correlation geometry of a classification configuration.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  specinfo\n")
		fmt.Fprintf(os.Stderr, "  specinfo -points 2048 -zmax 0.5\n")
		fmt.Fprintf(os.Stderr, "  specinfo -config classify.yaml -bandpass\n")
	}
	flag.Parse()

	cfg, err := classify.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *points > 0 {
		cfg.NumPoints = *points
	}
	if *zMax > *zMin && (*zMin != 0 || *zMax != 0) {
		cfg.ZMin = *zMin
		cfg.ZMax = *zMax
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	g := cfg.Grid()
	params := cfg.CorrelationParams()

	lz1, lz2 := g.SearchWindow(cfg.ZMin, cfg.ZMax)
	mid := g.NumPoints / 2

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Points\t%d\n", g.NumPoints)
	fmt.Fprintf(tw, "Wavelength range\t%.1f .. %.1f A\n", g.MinWave, g.MaxWave)
	fmt.Fprintf(tw, "Log step\t%.6e\n", g.DLog())
	fmt.Fprintf(tw, "Cell at rest\t%.3f A\n", g.Wavelength()[g.NumPoints/2])
	fmt.Fprintf(tw, "Redshift window\t%.4f .. %.4f\n", cfg.ZMin, cfg.ZMax)
	fmt.Fprintf(tw, "Lag window\t%d .. %d cells\n", lz1-mid, lz2-mid)
	fmt.Fprintf(tw, "Redshift per cell\t%.6f at z=0\n", g.RedshiftForLag(1))
	fmt.Fprintf(tw, "Bandpass knots\t%d %d %d %d\n", params.K1, params.K2, params.K3, params.K4)
	fmt.Fprintf(tw, "Metric threshold\t%.2f\n", cfg.MinMetric)
	fmt.Fprintf(tw, "Overlap threshold\t%.2f\n", cfg.MinLap)
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	if *bandpass {
		printBandpass(params)
	}
}

// printBandpass prints the filter response at the band edges and midpoints.
func printBandpass(params correlate.Params) {
	n := params.Grid.NumPoints

	f, err := correlate.Bandpass(n, params.K1, params.K2, params.K3, params.K4)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Wavenumber\tResponse\n")

	marks := []int{0, params.K1, (params.K1 + params.K2) / 2, params.K2,
		(params.K2 + params.K3) / 2, params.K3, (params.K3 + params.K4) / 2, params.K4}

	last := -1
	for _, k := range marks {
		if k == last || k >= n/2 {
			continue
		}

		last = k
		fmt.Fprintf(tw, "%d\t%.4f\n", k, f[k])
	}

	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
