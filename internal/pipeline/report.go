package pipeline

import (
	"time"

	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/runner"
)

// Report aggregates the outcomes of one batch run. Results are stored in
// completion order, which need not match submission order; consumers
// needing determinism must sort. Read-only once Run returns.
type Report struct {
	Total     int // jobs enumerated, skipped files included
	Succeeded int
	Failed    int
	Cancelled int
	Skipped   int // outputs that already existed (with --skip-existing)

	Elapsed time.Duration
	Results []runner.Result
}

// record folds one job result into the counters. Called only from the
// single collecting goroutine, so no locking is needed.
func (r *Report) record(res runner.Result) {
	r.Results = append(r.Results, res)
	switch res.Status {
	case runner.StatusSucceeded:
		r.Succeeded++
	case runner.StatusCancelled:
		r.Cancelled++
	default:
		r.Failed++
	}
}

// Clean reports whether every job succeeded. A batch with failures still
// completes; this only decides the process exit code.
func (r *Report) Clean() bool {
	return r.Failed == 0 && r.Cancelled == 0
}

// FailedResults returns the failed and cancelled results, for the summary.
func (r *Report) FailedResults() []runner.Result {
	var out []runner.Result
	for _, res := range r.Results {
		if res.Failed() {
			out = append(out, res)
		}
	}
	return out
}
