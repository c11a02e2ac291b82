package pool

import (
	"time"

	"github.com/ajitpratap0/quasar/pkg/qerrors"
)

// Config controls sizing and the adaptive heuristics of a pool.
type Config struct {
	// InitialSize is the idle count constructed at warmup
	InitialSize int `yaml:"initial_size" json:"initial_size"`
	// MinSize is the floor the idle set never shrinks below
	MinSize int `yaml:"min_size" json:"min_size"`
	// MaxSize is the ceiling the idle set never grows beyond
	MaxSize int `yaml:"max_size" json:"max_size"`
	// GrowthFactor scales growth steps; must be > 1
	GrowthFactor float64 `yaml:"growth_factor" json:"growth_factor"`
	// ShrinkFactor is the fraction of idle kept on a shrink; in (0,1)
	ShrinkFactor float64 `yaml:"shrink_factor" json:"shrink_factor"`
	// GrowthThreshold is the utilization above which a miss triggers growth
	GrowthThreshold float64 `yaml:"growth_threshold" json:"growth_threshold"`
	// ShrinkThreshold is the utilization below which a release triggers shrink
	ShrinkThreshold float64 `yaml:"shrink_threshold" json:"shrink_threshold"`
	// OptimizeInterval is the period of the background optimize cycle
	OptimizeInterval time.Duration `yaml:"optimize_interval" json:"optimize_interval"`
	// WarmupEnabled pre-constructs InitialSize idle objects at creation
	WarmupEnabled bool `yaml:"warmup_enabled" json:"warmup_enabled"`
	// AutoOptimizeEnabled runs the optimize cycle on a background ticker
	AutoOptimizeEnabled bool `yaml:"auto_optimize_enabled" json:"auto_optimize_enabled"`
}

// DefaultConfig returns a configuration suited to bursty CLI workloads.
func DefaultConfig() Config {
	return Config{
		InitialSize:         8,
		MinSize:             2,
		MaxSize:             64,
		GrowthFactor:        2.0,
		ShrinkFactor:        0.5,
		GrowthThreshold:     0.8,
		ShrinkThreshold:     0.3,
		OptimizeInterval:    30 * time.Second,
		WarmupEnabled:       true,
		AutoOptimizeEnabled: true,
	}
}

// Validate checks the size ordering and heuristic factor ranges.
func (c Config) Validate() error {
	if c.MinSize < 0 {
		return qerrors.Newf(qerrors.KindConfig, "min_size must be >= 0, got %d", c.MinSize)
	}
	if c.MinSize > c.InitialSize || c.InitialSize > c.MaxSize {
		return qerrors.Newf(qerrors.KindConfig,
			"size ordering violated: min_size (%d) <= initial_size (%d) <= max_size (%d) required",
			c.MinSize, c.InitialSize, c.MaxSize)
	}
	if c.GrowthFactor <= 1 {
		return qerrors.Newf(qerrors.KindConfig, "growth_factor must be > 1, got %v", c.GrowthFactor)
	}
	if c.ShrinkFactor <= 0 || c.ShrinkFactor >= 1 {
		return qerrors.Newf(qerrors.KindConfig, "shrink_factor must be in (0,1), got %v", c.ShrinkFactor)
	}
	if c.GrowthThreshold < 0 || c.GrowthThreshold > 1 {
		return qerrors.Newf(qerrors.KindConfig, "growth_threshold must be in [0,1], got %v", c.GrowthThreshold)
	}
	if c.ShrinkThreshold < 0 || c.ShrinkThreshold > 1 {
		return qerrors.Newf(qerrors.KindConfig, "shrink_threshold must be in [0,1], got %v", c.ShrinkThreshold)
	}
	if c.AutoOptimizeEnabled && c.OptimizeInterval <= 0 {
		return qerrors.New(qerrors.KindConfig, "optimize_interval must be positive when auto-optimize is enabled")
	}
	return nil
}
