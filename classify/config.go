package classify

import (
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-specmatch/cluster"
	"github.com/cwbudde/algo-specmatch/correlate"
	"github.com/cwbudde/algo-specmatch/grid"
)

// Config defines configuration for a classification pipeline.
type Config struct {
	// Grid geometry for all spectra and templates.
	NumPoints int     `yaml:"num_points"`
	MinWave   float64 `yaml:"min_wave"`
	MaxWave   float64 `yaml:"max_wave"`

	// Redshift search window.
	ZMin float64 `yaml:"z_min"`
	ZMax float64 `yaml:"z_max"`

	// Bandpass cutoff indices in frequency space, k1 < k2 <= k3 < k4.
	// Leaving all four at zero keeps the grid's reference bandpass; a
	// partially set bandpass fails parameter validation.
	K1 int `yaml:"k1"`
	K2 int `yaml:"k2"`
	K3 int `yaml:"k3"`
	K4 int `yaml:"k4"`

	// Peak acceptance thresholds shared by every correlation. Zero values
	// fall back to the reference thresholds.
	PeakHeight   float64 `yaml:"peak_height"`
	PeakDistance int     `yaml:"peak_distance"`

	// MinMetric is the quality threshold a match must reach to take part
	// in clustering and consensus estimation. The metric scale follows the
	// normalized correlation: a perfect full-overlap match scores 1.
	MinMetric float64 `yaml:"min_metric"`

	// MinLap is the minimum overlap fraction for a peak to become a match.
	MinLap float64 `yaml:"min_lap"`

	// Workers bounds the number of concurrent correlation workers.
	// Zero means one worker per CPU.
	Workers int `yaml:"workers"`

	// MaxComponents caps the mixture size when splitting a type into
	// redshift groups.
	MaxComponents int `yaml:"max_components"`

	// TopN is the number of strongest members counted toward cluster
	// quality.
	TopN int `yaml:"top_n"`

	// MinMatches is the smallest match set worth clustering.
	MinMatches int `yaml:"min_matches"`
}

// Option mutates a Config.
type Option func(*Config)

// DefaultConfig returns the standard pipeline configuration.
func DefaultConfig() Config {
	g := grid.Default()
	ce := cluster.DefaultEngine()
	cp := correlate.DefaultParams(g)

	return Config{
		NumPoints:     g.NumPoints,
		MinWave:       g.MinWave,
		MaxWave:       g.MaxWave,
		ZMin:          cp.ZMin,
		ZMax:          cp.ZMax,
		MinMetric:     0.4,
		MinLap:        cp.MinLap,
		Workers:       0,
		MaxComponents: ce.MaxComponents,
		TopN:          ce.TopN,
		MinMatches:    ce.MinMatches,
	}
}

// WithRedshiftRange sets the redshift search window.
func WithRedshiftRange(zMin, zMax float64) Option {
	return func(cfg *Config) {
		if zMax > zMin {
			cfg.ZMin = zMin
			cfg.ZMax = zMax
		}
	}
}

// WithMinMetric sets the match quality threshold.
func WithMinMetric(min float64) Option {
	return func(cfg *Config) {
		if min >= 0 {
			cfg.MinMetric = min
		}
	}
}

// WithWorkers sets the number of concurrent correlation workers.
func WithWorkers(n int) Option {
	return func(cfg *Config) {
		if n > 0 {
			cfg.Workers = n
		}
	}
}

// WithGrid sets the wavelength grid geometry.
func WithGrid(g grid.StandardGrid) Option {
	return func(cfg *Config) {
		if g.Validate() == nil {
			cfg.NumPoints = g.NumPoints
			cfg.MinWave = g.MinWave
			cfg.MaxWave = g.MaxWave
		}
	}
}

// ApplyOptions applies zero or more options to the default config.
func ApplyOptions(opts ...Option) Config {
	cfg := DefaultConfig()

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// LoadConfig reads a YAML config file over the defaults. A missing path
// returns the defaults unchanged.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("classify: reading config file %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("classify: parsing config file %s: %w", path, err)
	}

	return cfg, nil
}

// Grid returns the configured wavelength grid.
func (c Config) Grid() grid.StandardGrid {
	return grid.StandardGrid{NumPoints: c.NumPoints, MinWave: c.MinWave, MaxWave: c.MaxWave}
}

// CorrelationParams builds the correlation parameter set for the grid. An
// all-zero bandpass and zero-valued peak settings keep the grid's reference
// values; a partially set bandpass is carried through so validation can
// reject it.
func (c Config) CorrelationParams() correlate.Params {
	p := correlate.DefaultParams(c.Grid())
	p.ZMin = c.ZMin
	p.ZMax = c.ZMax
	p.MinLap = c.MinLap

	if c.K1 != 0 || c.K2 != 0 || c.K3 != 0 || c.K4 != 0 {
		p.K1, p.K2, p.K3, p.K4 = c.K1, c.K2, c.K3, c.K4
	}

	if c.PeakHeight > 0 {
		p.PeakHeight = c.PeakHeight
	}

	if c.PeakDistance > 0 {
		p.PeakDistance = c.PeakDistance
	}

	return p
}

// clusterEngine builds the clustering engine from the config.
func (c Config) clusterEngine() cluster.Engine {
	e := cluster.DefaultEngine()

	if c.MaxComponents > 0 {
		e.MaxComponents = c.MaxComponents
	}

	if c.TopN > 0 {
		e.TopN = c.TopN
	}

	if c.MinMatches > 0 {
		e.MinMatches = c.MinMatches
	}

	return e
}

// workers resolves the effective worker count.
func (c Config) workers() int {
	if c.Workers > 0 {
		return c.Workers
	}

	return runtime.GOMAXPROCS(0)
}

// Validate checks that the configuration is internally consistent.
func (c Config) Validate() error {
	if err := c.Grid().Validate(); err != nil {
		return err
	}

	if c.ZMax <= c.ZMin {
		return fmt.Errorf("classify: invalid redshift window [%v, %v]", c.ZMin, c.ZMax)
	}

	if c.MinMetric < 0 {
		return fmt.Errorf("classify: negative metric threshold %v", c.MinMetric)
	}

	return nil
}
