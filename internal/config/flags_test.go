package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const testVersion = "0.0.0-test"

func TestParseConvertFlags(t *testing.T) {
	cfg := DefaultConfig()
	args := []string{"--profile", "quality", "-q", "20", "-p", "slow", "--timeout", "30m", "in.360", "out.mp4"}
	if err := ParseConvertFlags(&cfg, args, testVersion); err != nil {
		t.Fatalf("ParseConvertFlags() error = %v", err)
	}

	if cfg.Input != "in.360" || cfg.Output != "out.mp4" {
		t.Errorf("paths = %s -> %s, want in.360 -> out.mp4", cfg.Input, cfg.Output)
	}
	if cfg.ProfileName != "quality" || cfg.CRF != 20 || cfg.Preset != "slow" {
		t.Errorf("encoding = %s/%d/%s, want quality/20/slow", cfg.ProfileName, cfg.CRF, cfg.Preset)
	}
	if cfg.Timeout != 30*time.Minute {
		t.Errorf("Timeout = %v, want 30m", cfg.Timeout)
	}
}

func TestParseConvertFlags_Positionals(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr bool
	}{
		{"both present", []string{"in.360", "out.mp4"}, false},
		{"missing output", []string{"in.360"}, true},
		{"none", []string{}, true},
		{"too many", []string{"a.360", "b.mp4", "c.mp4"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			err := ParseConvertFlags(&cfg, tt.args, testVersion)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseConvertFlags(%v) error = %v, wantErr %v", tt.args, err, tt.wantErr)
			}
		})
	}
}

func TestParseConvertFlags_CheckSkipsPositionals(t *testing.T) {
	cfg := DefaultConfig()
	if err := ParseConvertFlags(&cfg, []string{"--check"}, testVersion); err != nil {
		t.Fatalf("ParseConvertFlags(--check) error = %v", err)
	}
	if !cfg.CheckOnly {
		t.Error("CheckOnly = false after --check")
	}
}

func TestParseMaskFlags_DerivedOutput(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantInput  string
		wantOutput string
	}{
		{"derived", []string{"clip.mp4"}, "clip.mp4", "clip_masked.mp4"},
		{"derived test mode", []string{"--test", "clip.mp4"}, "clip.mp4", "clip_test_masked.mp4"},
		{"explicit output wins", []string{"clip.mp4", "final.mp4"}, "clip.mp4", "final.mp4"},
		{"derived with path", []string{"/videos/GS42_fisheye.mp4"}, "/videos/GS42_fisheye.mp4", "/videos/GS42_fisheye_masked.mp4"},
		{"no extension", []string{"clip"}, "clip", "clip_masked.mp4"},
		{"dotted directory", []string{"/v1.2/clip"}, "/v1.2/clip", "/v1.2/clip_masked.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := ParseMaskFlags(&cfg, tt.args, testVersion); err != nil {
				t.Fatalf("ParseMaskFlags(%v) error = %v", tt.args, err)
			}
			if cfg.Input != tt.wantInput || cfg.Output != tt.wantOutput {
				t.Errorf("paths = %s -> %s, want %s -> %s", cfg.Input, cfg.Output, tt.wantInput, tt.wantOutput)
			}
		})
	}
}

func TestParseMaskFlags_TestDuration(t *testing.T) {
	cfg := DefaultConfig()
	if err := ParseMaskFlags(&cfg, []string{"--test", "--test-duration", "10", "clip.mp4"}, testVersion); err != nil {
		t.Fatalf("ParseMaskFlags() error = %v", err)
	}
	if !cfg.TestMode || cfg.TestDuration != 10 {
		t.Errorf("test mode = %v/%ds, want true/10s", cfg.TestMode, cfg.TestDuration)
	}
}

func TestParseBatchFlags(t *testing.T) {
	cfg := DefaultConfig()
	args := []string{"--add-masking", "-w", "3", "--skip-existing", "/data/in/", "/data/out/"}
	if err := ParseBatchFlags(&cfg, args, testVersion); err != nil {
		t.Fatalf("ParseBatchFlags() error = %v", err)
	}

	if cfg.InputDir != "/data/in" || cfg.OutputDir != "/data/out" {
		t.Errorf("dirs = %s -> %s, want trailing slashes stripped", cfg.InputDir, cfg.OutputDir)
	}
	if !cfg.AddMasking || !cfg.SkipExisting || cfg.Workers != 3 {
		t.Errorf("flags = masking=%v skip=%v workers=%d, want true/true/3", cfg.AddMasking, cfg.SkipExisting, cfg.Workers)
	}
}

func TestParseFlags_ColorOverrides(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want ColorMode
	}{
		{"default auto", []string{"in.360", "out.mp4"}, ColorAuto},
		{"force on", []string{"--color", "in.360", "out.mp4"}, ColorAlways},
		{"force off", []string{"--no-color", "in.360", "out.mp4"}, ColorNever},
		{"off beats on", []string{"--color", "--no-color", "in.360", "out.mp4"}, ColorNever},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := ParseConvertFlags(&cfg, tt.args, testVersion); err != nil {
				t.Fatalf("ParseConvertFlags() error = %v", err)
			}
			if cfg.ColorMode != tt.want {
				t.Errorf("ColorMode = %q, want %q", cfg.ColorMode, tt.want)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gopro360.yaml")
	content := "profile: quality\nworkers: 3\nskip_existing: true\ntimeout: 45m\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	if err := LoadFile(&cfg, path); err != nil {
		t.Fatalf("LoadFile() error = %v", err)
	}

	if cfg.ProfileName != "quality" || cfg.Workers != 3 || !cfg.SkipExisting {
		t.Errorf("loaded = %s/%d/skip=%v, want quality/3/true", cfg.ProfileName, cfg.Workers, cfg.SkipExisting)
	}
	if cfg.Timeout != 45*time.Minute {
		t.Errorf("Timeout = %v, want 45m", cfg.Timeout)
	}
	// Fields absent from the file keep their defaults.
	if cfg.CRF != -1 || cfg.TestDuration != DefaultTestDuration {
		t.Errorf("defaults clobbered: CRF=%d TestDuration=%d", cfg.CRF, cfg.TestDuration)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	cfg := DefaultConfig()
	if err := LoadFile(&cfg, "/does/not/exist.yaml"); err == nil {
		t.Error("LoadFile() on missing file returned nil error")
	}

	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("workers: [not a number"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := LoadFile(&cfg, bad); err == nil {
		t.Error("LoadFile() on malformed YAML returned nil error")
	}
}

func TestParseFlags_ConfigFileThenFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "gopro360.yaml")
	if err := os.WriteFile(path, []byte("profile: quality\nworkers: 2\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := DefaultConfig()
	args := []string{"--config", path, "-w", "5", "/data/in", "/data/out"}
	if err := ParseBatchFlags(&cfg, args, testVersion); err != nil {
		t.Fatalf("ParseBatchFlags() error = %v", err)
	}

	if cfg.ProfileName != "quality" {
		t.Errorf("ProfileName = %q, want quality from config file", cfg.ProfileName)
	}
	if cfg.Workers != 5 {
		t.Errorf("Workers = %d, want 5 (flag overrides file)", cfg.Workers)
	}
}
