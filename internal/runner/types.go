package runner

import (
	"time"

	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/projection"
)

// Status is the terminal state of one conversion job.
type Status int

const (
	StatusSucceeded Status = iota
	StatusFailed
	StatusCancelled
)

// String returns the lowercase status label used in logs and summaries.
func (s Status) String() string {
	switch s {
	case StatusSucceeded:
		return "succeeded"
	case StatusFailed:
		return "failed"
	case StatusCancelled:
		return "cancelled"
	}
	return "unknown"
}

// FailureKind classifies why a job did not succeed. Empty for successes.
type FailureKind string

const (
	FailureNone              FailureKind = ""
	FailureInvalidDimensions FailureKind = "invalid_dimensions"
	FailureInvalidSpec       FailureKind = "invalid_spec"
	FailureSourceNotFound    FailureKind = "source_not_found"
	FailureEngineFailed      FailureKind = "engine_failed"
	FailureOutputValidation  FailureKind = "output_validation_failed"
	FailureTimeout           FailureKind = "timeout"
	FailureCancelled         FailureKind = "cancelled"
)

// Job is one unit of work: convert Source to Dest under the given spec and
// profile, optionally masking the result. Immutable once created.
type Job struct {
	Source  string
	Dest    string
	Spec    projection.Spec
	Profile projection.Profile

	// Masking appends the circular-mask pass after projection.
	Masking bool

	// Timeout bounds the whole job (all engine invocations); 0 disables.
	Timeout time.Duration

	// TestPrefix limits mask-only runs to the first N seconds of input.
	TestPrefix int
}

// Result is the outcome of one job. Created by the runner, owned by the
// caller afterwards, never mutated.
type Result struct {
	Source string
	Dest   string

	Status     Status
	Kind       FailureKind
	Detail     string
	StderrTail string

	Elapsed     time.Duration
	OutputBytes int64
}

// Failed reports whether the job ended in failure (cancellation included).
func (r Result) Failed() bool {
	return r.Status != StatusSucceeded
}

// Logger is the minimal logging interface the runner needs. Defined here
// (rather than importing the logging package) so tests can pass a mock.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}
