// Command gopro-mask composites the dual-circle vignette mask onto an
// already-projected dual-fisheye video, blanking everything outside the two
// image circles the way GoPro LRV files do.
//
// With --test only a short prefix of the input is processed, for quickly
// judging the mask placement before committing to a full encode.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/check"
	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/config"
	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/display"
	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/logging"
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
	if err := config.ParseMaskFlags(&cfg, os.Args[1:], version); err != nil {
		fmt.Fprintf(os.Stderr, "gopro-mask: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "gopro-mask: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gopro-mask: %v\n", err)
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

	if err := check.CheckDeps(); err != nil {
		log.Error("%v", err)
		return 1
	}

	if dir := filepath.Dir(cfg.Output); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error("Cannot create output directory: %v", err)
			return 1
		}
	}

	prof, err := cfg.Profile()
	if err != nil {
		log.Error("%v", err)
		return 1
	}

	testPrefix := 0
	if cfg.TestMode {
		testPrefix = cfg.TestDuration
	}

	log.Info("=== gopro-mask v%s (%s) ===", version, commit)
	log.Info("In:  %s", cfg.Input)
	log.Info("Out: %s", cfg.Output)
	log.Info("Profile: %s (preset %s, CRF %d)", prof.Name, prof.Preset, prof.CRF)
	if cfg.TestMode {
		log.Warn("Test mode: processing first %d seconds only", cfg.TestDuration)
	}
	log.Info("")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, stopping masking...")
		cancel()
	}()

	r := runner.New(log, cfg.Verbose)
	res := r.RunMask(ctx, runner.Job{
		Source:     cfg.Input,
		Dest:       cfg.Output,
		Profile:    prof,
		Timeout:    cfg.Timeout,
		TestPrefix: testPrefix,
	})

	if res.Status == runner.StatusSucceeded {
		log.Success("Masking applied in %s (%s)", display.FormatDuration(res.Elapsed), display.FormatBytes(res.OutputBytes))
		log.Info("Output: %s", res.Dest)
		if cfg.TestMode {
			log.Info("This was a test run; drop --test to process the full video")
		}
		return 0
	}

	log.Error("%s: %s", res.Kind, res.Detail)
	if res.StderrTail != "" {
		log.Error("Last ffmpeg output:")
		for _, l := range strings.Split(res.StderrTail, "\n") {
			log.Error("  %s", l)
		}
	}
	return 1
}
