// Package runner executes one conversion job end to end: validate the
// source, build the engine command(s), run them as scoped subprocesses, and
// validate the output. Every outcome is reported as a Result — the runner
// never panics and applies no retry; each job is at most one attempt.
package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/ffmpeg"
	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/mask"
	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/probe"
)

// stderrTailLines is how much engine stderr is attached to failed results.
const stderrTailLines = 20

// ProcessFunc invokes the external engine for one command. Tests substitute
// a fake; the default is ffmpeg.Execute.
type ProcessFunc func(ctx context.Context, spec *ffmpeg.CommandSpec, verbose bool) ffmpeg.ExecResult

// ProbeFunc inspects a media file. Tests substitute a fake; the default is
// probe.Probe.
type ProbeFunc func(ctx context.Context, path string) (*probe.Result, error)

// Runner runs conversion jobs. Engine and Prober default to the real
// ffmpeg/ffprobe wrappers; Log must be non-nil.
type Runner struct {
	Engine  ProcessFunc
	Prober  ProbeFunc
	Log     Logger
	Verbose bool
}

// New returns a Runner wired to the real external tools.
func New(log Logger, verbose bool) *Runner {
	return &Runner{
		Engine:  ffmpeg.Execute,
		Prober:  probe.Probe,
		Log:     log,
		Verbose: verbose,
	}
}

// Run converts one EAC source to dual fisheye, with the masking pass
// appended when the job requests it. Mask compositing operates on the
// already-projected frame, so masking means two engine invocations with a
// temporary intermediate that is removed on every exit path.
func (r *Runner) Run(ctx context.Context, job Job) Result {
	start := time.Now()

	if res, ok := r.preflight(job, start); !ok {
		return res
	}
	if err := job.Spec.Validate(); err != nil {
		return failed(job, start, FailureInvalidSpec, err.Error(), "")
	}
	if err := job.Profile.Validate(); err != nil {
		return failed(job, start, FailureInvalidSpec, err.Error(), "")
	}

	jobCtx, cancel := r.jobContext(ctx, job)
	defer cancel()

	// Audio presence drives output validation; a probe failure here is
	// tolerated (treated as no audio) since the engine will surface real
	// corruption on its own.
	srcHasAudio := false
	if src, err := r.Prober(jobCtx, job.Source); err == nil {
		srcHasAudio = src.HasAudio
	} else {
		r.Log.Debug(r.Verbose, "Cannot probe %s: %v", job.Source, err)
	}

	projDest := job.Dest
	if job.Masking {
		projDest = filepath.Join(filepath.Dir(job.Dest), "temp_"+filepath.Base(job.Dest))
		defer os.Remove(projDest)
	}

	spec, err := ffmpeg.BuildProjection(job.Source, projDest, job.Spec, job.Profile)
	if err != nil {
		return failed(job, start, FailureInvalidSpec, err.Error(), "")
	}

	if res, ok := r.invoke(ctx, jobCtx, job, start, spec); !ok {
		return res
	}

	if job.Masking {
		maskPath, err := mask.WriteTemp("", job.Spec.OutputWidth, job.Spec.OutputHeight)
		if err != nil {
			os.Remove(job.Dest)
			return failed(job, start, FailureEngineFailed, fmt.Sprintf("prepare mask: %v", err), "")
		}
		defer os.Remove(maskPath)

		maskSpec, err := ffmpeg.BuildMasking(projDest, maskPath, job.Dest, job.Spec.OutputWidth, job.Spec.OutputHeight, job.Profile, 0)
		if err != nil {
			return failed(job, start, FailureInvalidSpec, err.Error(), "")
		}
		if res, ok := r.invoke(ctx, jobCtx, job, start, maskSpec); !ok {
			return res
		}
	}

	return r.validateOutput(jobCtx, job, start, job.Spec.OutputWidth, job.Spec.OutputHeight, srcHasAudio)
}

// RunMask applies the circular mask to an already-projected dual-fisheye
// file (the standalone gopro-mask mode). The mask geometry derives from the
// probed input dimensions, and the output must keep those dimensions.
func (r *Runner) RunMask(ctx context.Context, job Job) Result {
	start := time.Now()

	if res, ok := r.preflight(job, start); !ok {
		return res
	}
	if err := job.Profile.Validate(); err != nil {
		return failed(job, start, FailureInvalidSpec, err.Error(), "")
	}

	jobCtx, cancel := r.jobContext(ctx, job)
	defer cancel()

	src, err := r.Prober(jobCtx, job.Source)
	if err != nil {
		return failed(job, start, FailureEngineFailed, fmt.Sprintf("probe %s: %v", job.Source, err), "")
	}
	if !src.HasVideo {
		return failed(job, start, FailureInvalidSpec, "no video stream in "+job.Source, "")
	}
	if ar := src.AspectRatio(); ar < 1.8 || ar > 2.2 {
		r.Log.Warn("Input %s is %s (%.2f:1), not the ~2:1 dual-fisheye layout", filepath.Base(job.Source), src.Resolution(), ar)
	}

	maskPath, err := mask.WriteTemp("", src.Width, src.Height)
	if err != nil {
		if errors.Is(err, mask.ErrInvalidDimensions) {
			return failed(job, start, FailureInvalidDimensions, err.Error(), "")
		}
		return failed(job, start, FailureEngineFailed, fmt.Sprintf("prepare mask: %v", err), "")
	}
	defer os.Remove(maskPath)

	spec, err := ffmpeg.BuildMasking(job.Source, maskPath, job.Dest, src.Width, src.Height, job.Profile, job.TestPrefix)
	if err != nil {
		return failed(job, start, FailureInvalidSpec, err.Error(), "")
	}

	if res, ok := r.invoke(ctx, jobCtx, job, start, spec); !ok {
		return res
	}

	return r.validateOutput(jobCtx, job, start, src.Width, src.Height, src.HasAudio)
}

// preflight validates the source file. ok=false carries the failure result.
func (r *Runner) preflight(job Job, start time.Time) (Result, bool) {
	fi, err := os.Stat(job.Source)
	if err != nil {
		return failed(job, start, FailureSourceNotFound, "source file not found: "+job.Source, ""), false
	}
	if fi.Size() == 0 {
		return failed(job, start, FailureSourceNotFound, "source file is empty: "+job.Source, ""), false
	}
	return Result{}, true
}

// jobContext derives the per-job context, applying the timeout when set.
func (r *Runner) jobContext(ctx context.Context, job Job) (context.Context, context.CancelFunc) {
	if job.Timeout > 0 {
		return context.WithTimeout(ctx, job.Timeout)
	}
	return context.WithCancel(ctx)
}

// invoke runs one engine command and classifies any failure. ok=false
// carries the failure result; partial output is removed before returning.
func (r *Runner) invoke(parent, jobCtx context.Context, job Job, start time.Time, spec *ffmpeg.CommandSpec) (Result, bool) {
	res := r.Engine(jobCtx, spec, r.Verbose)
	if res.Err == nil {
		return Result{}, true
	}

	os.Remove(spec.OutputPath)
	tail := ffmpeg.StderrTail(res.Stderr, stderrTailLines)

	switch {
	case parent.Err() != nil:
		return cancelled(job, start), false
	case jobCtx.Err() == context.DeadlineExceeded:
		return failed(job, start, FailureTimeout, fmt.Sprintf("engine killed after %s timeout", job.Timeout), tail), false
	default:
		return failed(job, start, FailureEngineFailed, res.Err.Error(), tail), false
	}
}

// validateOutput checks the finished file: present and non-empty, expected
// dimensions, audio stream preserved when the source had one. Validation
// failures after a zero exit are reported, never raised; the partial output
// is removed so a failed job leaves nothing behind.
func (r *Runner) validateOutput(ctx context.Context, job Job, start time.Time, wantWidth, wantHeight int, wantAudio bool) Result {
	fi, err := os.Stat(job.Dest)
	if err != nil {
		return failed(job, start, FailureOutputValidation, "output file missing: "+job.Dest, "")
	}
	if fi.Size() == 0 {
		os.Remove(job.Dest)
		return failed(job, start, FailureOutputValidation, "output file is empty: "+job.Dest, "")
	}

	out, err := r.Prober(ctx, job.Dest)
	if err != nil {
		os.Remove(job.Dest)
		return failed(job, start, FailureOutputValidation, fmt.Sprintf("cannot probe output: %v", err), "")
	}

	var findings []string
	if out.Width != wantWidth || out.Height != wantHeight {
		findings = append(findings, fmt.Sprintf("dimensions %s, want %dx%d", out.Resolution(), wantWidth, wantHeight))
	}
	if wantAudio && !out.HasAudio {
		findings = append(findings, "audio stream missing (source had audio)")
	}
	if len(findings) > 0 {
		os.Remove(job.Dest)
		return failed(job, start, FailureOutputValidation, strings.Join(findings, "; "), "")
	}

	return Result{
		Source:      job.Source,
		Dest:        job.Dest,
		Status:      StatusSucceeded,
		Elapsed:     time.Since(start),
		OutputBytes: fi.Size(),
	}
}

func failed(job Job, start time.Time, kind FailureKind, detail, stderrTail string) Result {
	return Result{
		Source:     job.Source,
		Dest:       job.Dest,
		Status:     StatusFailed,
		Kind:       kind,
		Detail:     detail,
		StderrTail: stderrTail,
		Elapsed:    time.Since(start),
	}
}

func cancelled(job Job, start time.Time) Result {
	return Result{
		Source:  job.Source,
		Dest:    job.Dest,
		Status:  StatusCancelled,
		Kind:    FailureCancelled,
		Detail:  "job cancelled",
		Elapsed: time.Since(start),
	}
}

// Cancelled builds the result recorded for a job that never started because
// the batch was cancelled first.
func Cancelled(job Job) Result {
	return cancelled(job, time.Now())
}
