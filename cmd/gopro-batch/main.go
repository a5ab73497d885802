// Command gopro-batch converts every GoPro Max .360 file in a directory to
// dual fisheye, optionally with circular masking, across a bounded pool of
// parallel workers.
//
// The batch survives individual job failures and exits non-zero only when
// at least one job failed or no input files were found.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/check"
	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/config"
	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/display"
	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/logging"
	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/pipeline"
	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/runner"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0"
	commit  = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg := config.DefaultConfig()
	if err := config.ParseBatchFlags(&cfg, os.Args[1:], version); err != nil {
		fmt.Fprintf(os.Stderr, "gopro-batch: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "gopro-batch: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gopro-batch: %v\n", err)
		return 1
	}
	defer log.Close()

	display.PrintBanner()

	if cfg.CheckOnly {
		if !check.RunCheck(log) {
			return 1
		}
		return 0
	}

	// Resolve and validate paths: input must exist, output is created if
	// needed, and output must not be inside input (the discovery pass
	// would otherwise pick up its own results on a re-run).
	inputAbs, err := absPath(cfg.InputDir)
	if err != nil {
		log.Error("Input not found: %s", cfg.InputDir)
		return 1
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		log.Error("Cannot create output directory: %s", cfg.OutputDir)
		return 1
	}
	outputAbs, err := absPath(cfg.OutputDir)
	if err != nil {
		log.Error("Cannot resolve output path: %s", cfg.OutputDir)
		return 1
	}
	if err := cfg.ValidatePaths(inputAbs, outputAbs); err != nil {
		log.Error("%v", err)
		return 1
	}

	if err := check.CheckDeps(); err != nil {
		log.Error("%v", err)
		return 1
	}

	log.Info("=== gopro-batch v%s (%s) ===", version, commit)
	log.Info("In:  %s", cfg.InputDir)
	log.Info("Out: %s", cfg.OutputDir)
	log.Info("")

	// Cancel on SIGINT/SIGTERM: running ffmpeg children are killed and
	// not-yet-started jobs are recorded as cancelled in the report.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, cancelling batch...")
		cancel()
	}()

	batch := &pipeline.Batch{
		Config: &cfg,
		Log:    log,
		Runner: runner.New(log, cfg.Verbose),
	}
	report, err := batch.Run(ctx)
	if err != nil {
		log.Error("%v", err)
		return 1
	}
	if !report.Clean() {
		return 1
	}
	return 0
}

// absPath returns the absolute, symlink-resolved path for safe comparison
// of input vs output directory hierarchies.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
