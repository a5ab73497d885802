// Package config holds runtime configuration: defaults, optional YAML
// config file, CLI flag parsing, and validation. Precedence is CLI flags >
// config file > defaults.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/projection"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Worker bounds for batch mode. Each concurrent ffmpeg child can hold
// GB-scale frame buffers, so the default is capped well below the CPU
// count on large machines.
const (
	DefaultWorkerCap = 4
	MaxWorkers       = 8
)

// DefaultTestDuration is the prefix length in seconds processed by the
// masking CLI's --test mode.
const DefaultTestDuration = 30

// Config holds all runtime settings shared by the three CLIs. It is
// populated by [DefaultConfig], optionally overlaid from a YAML file, and
// then mutated by the per-command Parse*Flags function.
type Config struct {
	// Paths (set from positional args, never from the config file).
	Input     string // single-file modes
	Output    string
	InputDir  string // batch mode
	OutputDir string

	// Encoding. Preset and CRF override the named profile's values when
	// set; they are independent axes.
	ProfileName string // fast | balanced | quality
	Preset      string // x264 preset override, "" = profile's
	CRF         int    // -1 = profile's

	// Masking.
	AddMasking   bool // batch: mask after projection
	TestMode     bool // mask CLI: process a prefix only
	TestDuration int  // seconds, used by --test

	// Batch.
	Workers      int // 0 = min(GOMAXPROCS, DefaultWorkerCap)
	SkipExisting bool

	// Per-job timeout; 0 disables.
	Timeout time.Duration

	// Display and logging.
	Verbose   bool
	ColorMode ColorMode
	LogFile   string
	CheckOnly bool
}

// DefaultConfig returns the baseline settings: balanced profile
// (medium/CRF 23), auto-sized worker pool, 30 second test prefix.
func DefaultConfig() Config {
	return Config{
		ProfileName:  "balanced",
		CRF:          -1,
		TestDuration: DefaultTestDuration,
		Workers:      0,
		ColorMode:    ColorAuto,
	}
}

// Profile resolves the encoding profile: the named profile with any
// explicit --preset / --quality overrides applied on top.
func (c *Config) Profile() (projection.Profile, error) {
	prof, err := projection.ProfileByName(c.ProfileName)
	if err != nil {
		return projection.Profile{}, err
	}
	if c.Preset != "" {
		prof.Preset = c.Preset
		prof.Name = "custom"
	}
	if c.CRF >= 0 {
		prof.CRF = c.CRF
		prof.Name = "custom"
	}
	if err := prof.Validate(); err != nil {
		return projection.Profile{}, err
	}
	return prof, nil
}

// EffectiveWorkers returns the worker pool size for batch mode: the
// configured value clamped to [1, MaxWorkers], or min(GOMAXPROCS,
// DefaultWorkerCap) when unset. GOMAXPROCS respects container CPU limits.
func (c *Config) EffectiveWorkers() int {
	w := c.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
		if w > DefaultWorkerCap {
			w = DefaultWorkerCap
		}
	}
	if w > MaxWorkers {
		w = MaxWorkers
	}
	if w < 1 {
		w = 1
	}
	return w
}

// Validate checks enum fields and numeric ranges common to all commands.
// Positional-argument presence is checked during flag parsing, where the
// command is known.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return errors.New("invalid color mode (use 'auto', 'always' or 'never')")
	}

	if _, err := c.Profile(); err != nil {
		return err
	}

	if c.Workers < 0 || c.Workers > MaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d", MaxWorkers)
	}
	if c.TestDuration <= 0 {
		return errors.New("test duration must be a positive number of seconds")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must not be negative")
	}
	return nil
}

// ValidatePaths ensures the resolved output directory is not inside (or
// equal to) the resolved input directory, so the batch never discovers its
// own output files. Both arguments must be absolute, symlink-resolved paths.
func (c *Config) ValidatePaths(inputAbs, outputAbs string) error {
	sep := string(filepath.Separator)
	if outputAbs == inputAbs || strings.HasPrefix(outputAbs+sep, inputAbs+sep) {
		return errors.New("output directory must not be inside input directory")
	}
	return nil
}

// NormalizeDirArg strips trailing slashes from a directory argument,
// preserving the root path.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return path
	}
	return strings.TrimRight(path, "/")
}
