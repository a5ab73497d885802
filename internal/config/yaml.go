package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the Config fields a YAML config file may set. Pointer
// fields distinguish "absent" from zero values, so a partial file leaves
// defaults (and earlier layers) untouched. Timeout is a string so users can
// write "30m" rather than nanoseconds.
type fileConfig struct {
	Profile      *string `yaml:"profile"`
	Preset       *string `yaml:"preset"`
	CRF          *int    `yaml:"crf"`
	AddMasking   *bool   `yaml:"add_masking"`
	TestDuration *int    `yaml:"test_duration"`
	Workers      *int    `yaml:"workers"`
	SkipExisting *bool   `yaml:"skip_existing"`
	Timeout      *string `yaml:"timeout"`
	Verbose      *bool   `yaml:"verbose"`
	Color        *string `yaml:"color"`
	LogFile      *string `yaml:"log_file"`
}

// LoadFile overlays settings from a YAML config file onto cfg. Fields
// absent from the file keep their current values, so defaults survive a
// partial file and CLI flags applied afterwards still win.
func LoadFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	if fc.Profile != nil {
		cfg.ProfileName = *fc.Profile
	}
	if fc.Preset != nil {
		cfg.Preset = *fc.Preset
	}
	if fc.CRF != nil {
		cfg.CRF = *fc.CRF
	}
	if fc.AddMasking != nil {
		cfg.AddMasking = *fc.AddMasking
	}
	if fc.TestDuration != nil {
		cfg.TestDuration = *fc.TestDuration
	}
	if fc.Workers != nil {
		cfg.Workers = *fc.Workers
	}
	if fc.SkipExisting != nil {
		cfg.SkipExisting = *fc.SkipExisting
	}
	if fc.Timeout != nil {
		d, err := time.ParseDuration(*fc.Timeout)
		if err != nil {
			return fmt.Errorf("parse config file %s: timeout: %w", path, err)
		}
		cfg.Timeout = d
	}
	if fc.Verbose != nil {
		cfg.Verbose = *fc.Verbose
	}
	if fc.Color != nil {
		cfg.ColorMode = ColorMode(*fc.Color)
	}
	if fc.LogFile != nil {
		cfg.LogFile = *fc.LogFile
	}
	return nil
}

// FindConfigFile searches the standard locations for a config file.
// Returns empty string when none exists (not an error).
func FindConfigFile() string {
	locations := []string{
		"./gopro360.yaml",
		"./gopro360.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "gopro360", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "gopro360", "config.yml"),
		"/etc/gopro360/config.yaml",
	}

	for _, path := range locations {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
