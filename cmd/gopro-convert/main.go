// Command gopro-convert converts a single GoPro Max .360 file (EAC
// projection) into the 1408x704 dual-fisheye layout of LRV previews.
//
// It parses flags, validates configuration, and runs one conversion job
// through the shared runner. Exit code 0 only when the conversion succeeds
// and the output validates.
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
	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/projection"
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
	// Bootstrap phase: the logger does not exist yet, so errors go
	// directly to stderr via fmt.
	cfg := config.DefaultConfig()
	if err := config.ParseConvertFlags(&cfg, os.Args[1:], version); err != nil {
		fmt.Fprintf(os.Stderr, "gopro-convert: %v\n", err)
		return 1
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "gopro-convert: %v\n", err)
		return 1
	}

	log, err := logging.NewLogger(&cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "gopro-convert: %v\n", err)
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

	if !strings.EqualFold(filepath.Ext(cfg.Input), ".360") {
		log.Warn("Input does not have a .360 extension; converting anyway")
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

	log.Info("=== gopro-convert v%s (%s) ===", version, commit)
	log.Info("In:  %s", cfg.Input)
	log.Info("Out: %s", cfg.Output)
	log.Info("Profile: %s (preset %s, CRF %d)", prof.Name, prof.Preset, prof.CRF)
	log.Info("")

	// Cancel the context on SIGINT/SIGTERM so the ffmpeg child is killed
	// instead of orphaned.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, stopping conversion...")
		cancel()
	}()

	r := runner.New(log, cfg.Verbose)
	res := r.Run(ctx, runner.Job{
		Source:  cfg.Input,
		Dest:    cfg.Output,
		Spec:    projection.LRVMatch(),
		Profile: prof,
		Timeout: cfg.Timeout,
	})
	return reportResult(log, res)
}

// reportResult logs the job outcome and converts it into an exit code.
func reportResult(log *logging.Logger, res runner.Result) int {
	if res.Status == runner.StatusSucceeded {
		log.Success("Converted in %s (%s)", display.FormatDuration(res.Elapsed), display.FormatBytes(res.OutputBytes))
		log.Info("Output: %s", res.Dest)
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
