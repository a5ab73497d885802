// Package pipeline orchestrates batch conversion: file discovery, fan-out
// across a bounded worker pool, incremental progress reporting, and the
// aggregate batch report.
package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/config"
	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/display"
	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/projection"
	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/runner"
)

// ErrNoInputFiles is returned when the input directory holds no .360 files.
// It is the only job-related condition fatal to a batch run.
var ErrNoInputFiles = errors.New("no .360 files found in input directory")

// Logger is the logging interface the scheduler needs; the Progress level
// carries per-job completion lines.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Progress(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// Batch runs one directory of conversions through a bounded worker pool.
type Batch struct {
	Config *config.Config
	Log    Logger
	Runner *runner.Runner

	// OnResult, when set, observes each completed job in completion order
	// (done is the running completion count). Called from the collecting
	// goroutine, never concurrently.
	OnResult func(done, total int, res runner.Result)
}

// Run executes the batch. Individual job failures are recorded and the
// batch continues; the returned Report covers every enumerated job,
// including jobs cancelled mid-run. Only an unreadable input directory or
// an empty one aborts the run.
func (b *Batch) Run(ctx context.Context) (*Report, error) {
	cfg := b.Config
	start := time.Now()

	files, err := Discover(cfg.InputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoInputFiles
	}

	prof, err := cfg.Profile()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, err
	}

	report := &Report{Total: len(files)}
	jobs := make([]runner.Job, 0, len(files))
	for _, src := range files {
		dest := filepath.Join(cfg.OutputDir, OutputName(src, cfg.AddMasking))
		if cfg.SkipExisting {
			if _, err := os.Stat(dest); err == nil {
				b.Log.Warn("Skip (exists): %s", filepath.Base(dest))
				report.Skipped++
				continue
			}
		}
		jobs = append(jobs, runner.Job{
			Source:  src,
			Dest:    dest,
			Spec:    projection.LRVMatch(),
			Profile: prof,
			Masking: cfg.AddMasking,
			Timeout: cfg.Timeout,
		})
	}

	workers := cfg.EffectiveWorkers()
	b.Log.Info("Found %d files, converting %d with %d workers", len(files), len(jobs), workers)
	b.Log.Info("Profile: %s (preset %s, CRF %d), masking: %v", prof.Name, prof.Preset, prof.CRF, cfg.AddMasking)

	// Results flow through a channel into a single collecting goroutine, so
	// the report counters never race regardless of worker count.
	results := make(chan runner.Result)
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		done := 0
		for res := range results {
			done++
			report.record(res)
			b.logResult(done, report.Total, res)
			if b.OnResult != nil {
				b.OnResult(done, report.Total, res)
			}
		}
	}()

	var g errgroup.Group
	g.SetLimit(workers)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			// A cancelled batch still records every job: not-yet-started
			// jobs report Cancelled instead of silently vanishing, and
			// in-flight jobs are killed via the context.
			if ctx.Err() != nil {
				results <- runner.Cancelled(job)
				return nil
			}
			results <- b.Runner.Run(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
	close(results)
	<-collectorDone

	report.Elapsed = time.Since(start)
	b.logSummary(report)
	return report, nil
}

// logResult emits the incremental per-job completion line.
func (b *Batch) logResult(done, total int, res runner.Result) {
	name := filepath.Base(res.Source)
	switch res.Status {
	case runner.StatusSucceeded:
		b.Log.Progress("[%d/%d] ok %s -> %s (%s, %s)",
			done, total, name, filepath.Base(res.Dest),
			display.FormatBytes(res.OutputBytes), display.FormatDuration(res.Elapsed))
	case runner.StatusCancelled:
		b.Log.Progress("[%d/%d] cancelled %s", done, total, name)
	default:
		b.Log.Progress("[%d/%d] FAILED %s (%s: %s)", done, total, name, res.Kind, res.Detail)
	}
}

// logSummary prints the batch totals and per-file failure detail.
func (b *Batch) logSummary(report *Report) {
	b.Log.Info("==============================")
	b.Log.Info("Done: %d succeeded, %d failed, %d cancelled, %d skipped (of %d files)",
		report.Succeeded, report.Failed, report.Cancelled, report.Skipped, report.Total)
	b.Log.Info("Total time: %s", display.FormatDuration(report.Elapsed))
	if n := len(report.Results); n > 0 {
		b.Log.Info("Average per file: %s", display.FormatDuration(report.Elapsed/time.Duration(n)))
	}

	failedResults := report.FailedResults()
	if len(failedResults) == 0 {
		b.Log.Success("All conversions completed successfully")
		return
	}
	b.Log.Warn("Completed with failures:")
	for _, res := range failedResults {
		b.Log.Error("  %s: %s (%s)", filepath.Base(res.Source), res.Detail, res.Kind)
	}
}
