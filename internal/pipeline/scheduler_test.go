package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/config"
	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/ffmpeg"
	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/probe"
	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/runner"
)

// batchLogger satisfies Logger and is safe for the concurrent calls the
// runner makes from worker goroutines.
type batchLogger struct {
	mu sync.Mutex
}

func (l *batchLogger) log(string, ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
}

func (l *batchLogger) Info(f string, a ...interface{})     { l.log(f, a...) }
func (l *batchLogger) Success(f string, a ...interface{})  { l.log(f, a...) }
func (l *batchLogger) Warn(f string, a ...interface{})     { l.log(f, a...) }
func (l *batchLogger) Error(f string, a ...interface{})    { l.log(f, a...) }
func (l *batchLogger) Progress(f string, a ...interface{}) { l.log(f, a...) }
func (l *batchLogger) Debug(bool, string, ...interface{})  {}

// writeSources creates n non-empty .360 files named GS01000<i>.360.
func writeSources(t *testing.T, dir string, n int) []string {
	t.Helper()
	names := make([]string, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("GS01000%d.360", i)
		if err := os.WriteFile(filepath.Join(dir, name), []byte("fake 360 footage"), 0o644); err != nil {
			t.Fatal(err)
		}
		names = append(names, name)
	}
	return names
}

// fakeRunner wires a Runner whose engine writes output files and fails for
// sources whose name contains failSub (when non-empty).
func fakeRunner(log runner.Logger, failSub string) *runner.Runner {
	return &runner.Runner{
		Engine: func(_ context.Context, spec *ffmpeg.CommandSpec, _ bool) ffmpeg.ExecResult {
			if failSub != "" && strings.Contains(strings.Join(spec.InputArgs, " "), failSub) {
				return ffmpeg.ExecResult{Stderr: "Conversion failed!", Err: errors.New("exit status 1")}
			}
			if err := os.WriteFile(spec.OutputPath, []byte("encoded video"), 0o644); err != nil {
				return ffmpeg.ExecResult{Err: err}
			}
			return ffmpeg.ExecResult{}
		},
		Prober: func(context.Context, string) (*probe.Result, error) {
			return &probe.Result{Width: 1408, Height: 704, HasVideo: true, HasAudio: true, AudioCodec: "aac"}, nil
		},
		Log: log,
	}
}

func batchConfig(inputDir, outputDir string, workers int) *config.Config {
	cfg := config.DefaultConfig()
	cfg.InputDir = inputDir
	cfg.OutputDir = outputDir
	cfg.Workers = workers
	return &cfg
}

func TestDiscover(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"GS010043.360", "GS010042.360", "notes.txt", "clip.mp4"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested.360"), 0o755); err != nil {
		t.Fatal(err)
	}

	files, err := Discover(dir)
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	want := []string{
		filepath.Join(dir, "GS010042.360"),
		filepath.Join(dir, "GS010043.360"),
	}
	if len(files) != len(want) {
		t.Fatalf("Discover() = %v, want %v", files, want)
	}
	for i := range want {
		if files[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, files[i], want[i])
		}
	}
}

func TestDiscover_Empty(t *testing.T) {
	files, err := Discover(t.TempDir())
	if err != nil {
		t.Fatalf("Discover() error = %v", err)
	}
	if len(files) != 0 {
		t.Errorf("Discover() = %v, want empty", files)
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		source  string
		masking bool
		want    string
	}{
		{"/in/GS010042.360", false, "GS010042_fisheye.mp4"},
		{"/in/GS010042.360", true, "GS010042_fisheye_masked.mp4"},
		{"clip.with.dots.360", false, "clip.with.dots_fisheye.mp4"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := OutputName(tt.source, tt.masking); got != tt.want {
				t.Errorf("OutputName(%q, %v) = %q, want %q", tt.source, tt.masking, got, tt.want)
			}
		})
	}
}

func TestBatch_CountsAddUp(t *testing.T) {
	const total = 5
	for _, workers := range []int{1, 2, 4, 8} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			inDir := t.TempDir()
			outDir := t.TempDir()
			writeSources(t, inDir, total)
			// Two sources fail in the engine, the rest convert.
			for _, name := range []string{"GS010001.360", "GS010003.360"} {
				bad := filepath.Join(inDir, "BAD_"+name)
				if err := os.Rename(filepath.Join(inDir, name), bad); err != nil {
					t.Fatal(err)
				}
			}

			log := &batchLogger{}
			b := &Batch{
				Config: batchConfig(inDir, outDir, workers),
				Log:    log,
				Runner: fakeRunner(log, "BAD_"),
			}

			report, err := b.Run(context.Background())
			if err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			if report.Total != total {
				t.Errorf("Total = %d, want %d", report.Total, total)
			}
			if report.Succeeded != 3 || report.Failed != 2 || report.Cancelled != 0 {
				t.Errorf("counts = %d/%d/%d (ok/failed/cancelled), want 3/2/0",
					report.Succeeded, report.Failed, report.Cancelled)
			}
			if got := report.Succeeded + report.Failed + report.Cancelled; got != total {
				t.Errorf("counts sum to %d, want %d", got, total)
			}
			if len(report.Results) != total {
				t.Errorf("len(Results) = %d, want %d", len(report.Results), total)
			}
			if report.Clean() {
				t.Error("Clean() = true for a batch with failures")
			}
			if got := len(report.FailedResults()); got != 2 {
				t.Errorf("len(FailedResults()) = %d, want 2", got)
			}

			// The three good files landed with the derived names.
			for _, name := range []string{"GS010000", "GS010002", "GS010004"} {
				dest := filepath.Join(outDir, name+"_fisheye.mp4")
				if _, err := os.Stat(dest); err != nil {
					t.Errorf("missing output %s: %v", dest, err)
				}
			}
		})
	}
}

func TestBatch_AllClean(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeSources(t, inDir, 3)

	log := &batchLogger{}
	var seen []string
	b := &Batch{
		Config: batchConfig(inDir, outDir, 2),
		Log:    log,
		Runner: fakeRunner(log, ""),
		OnResult: func(done, total int, res runner.Result) {
			seen = append(seen, filepath.Base(res.Source))
			if done > total {
				panic("done exceeded total")
			}
		},
	}

	report, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !report.Clean() || report.Succeeded != 3 {
		t.Errorf("got %d succeeded, Clean()=%v, want 3 and true", report.Succeeded, report.Clean())
	}

	sort.Strings(seen)
	want := []string{"GS010000.360", "GS010001.360", "GS010002.360"}
	if len(seen) != len(want) {
		t.Fatalf("OnResult saw %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Errorf("OnResult[%d] = %s, want %s", i, seen[i], want[i])
		}
	}
}

func TestBatch_SkipExisting(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeSources(t, inDir, 3)
	existing := filepath.Join(outDir, "GS010001_fisheye.mp4")
	if err := os.WriteFile(existing, []byte("previous run"), 0o644); err != nil {
		t.Fatal(err)
	}

	log := &batchLogger{}
	cfg := batchConfig(inDir, outDir, 2)
	cfg.SkipExisting = true
	b := &Batch{Config: cfg, Log: log, Runner: fakeRunner(log, "")}

	report, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Skipped != 1 || report.Succeeded != 2 {
		t.Errorf("skipped/succeeded = %d/%d, want 1/2", report.Skipped, report.Succeeded)
	}
	if len(report.Results) != 2 {
		t.Errorf("len(Results) = %d, want 2 (skipped files are not run)", len(report.Results))
	}

	data, err := os.ReadFile(existing)
	if err != nil || string(data) != "previous run" {
		t.Errorf("existing output was overwritten: %q, %v", data, err)
	}
}

func TestBatch_MaskingNaming(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeSources(t, inDir, 1)

	log := &batchLogger{}
	cfg := batchConfig(inDir, outDir, 1)
	cfg.AddMasking = true
	b := &Batch{Config: cfg, Log: log, Runner: fakeRunner(log, "")}

	report, err := b.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Succeeded != 1 {
		t.Fatalf("succeeded = %d, want 1 (results: %+v)", report.Succeeded, report.Results)
	}
	dest := filepath.Join(outDir, "GS010000_fisheye_masked.mp4")
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("missing masked output %s: %v", dest, err)
	}
}

func TestBatch_Cancellation(t *testing.T) {
	const total = 4
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeSources(t, inDir, total)

	// Two completion tokens: two jobs finish, the rest block until the
	// batch context is cancelled by OnResult below.
	gate := make(chan struct{}, 2)
	gate <- struct{}{}
	gate <- struct{}{}

	log := &batchLogger{}
	r := fakeRunner(log, "")
	r.Engine = func(ctx context.Context, spec *ffmpeg.CommandSpec, _ bool) ffmpeg.ExecResult {
		select {
		case <-gate:
			if err := os.WriteFile(spec.OutputPath, []byte("encoded video"), 0o644); err != nil {
				return ffmpeg.ExecResult{Err: err}
			}
			return ffmpeg.ExecResult{}
		case <-ctx.Done():
			return ffmpeg.ExecResult{Err: ctx.Err()}
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	b := &Batch{
		Config: batchConfig(inDir, outDir, 2),
		Log:    log,
		Runner: r,
		OnResult: func(done, total int, res runner.Result) {
			if done == 2 {
				cancel()
			}
		},
	}

	report, err := b.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Succeeded != 2 || report.Cancelled != 2 || report.Failed != 0 {
		t.Errorf("counts = %d/%d/%d (ok/failed/cancelled), want 2/0/2",
			report.Succeeded, report.Failed, report.Cancelled)
	}
	if len(report.Results) != total {
		t.Errorf("len(Results) = %d, want %d (every job reported)", len(report.Results), total)
	}
	if report.Clean() {
		t.Error("Clean() = true for a cancelled batch")
	}
}

func TestBatch_CancelledBeforeStart(t *testing.T) {
	inDir := t.TempDir()
	outDir := t.TempDir()
	writeSources(t, inDir, 3)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	log := &batchLogger{}
	b := &Batch{Config: batchConfig(inDir, outDir, 2), Log: log, Runner: fakeRunner(log, "")}

	report, err := b.Run(ctx)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if report.Cancelled != 3 || report.Succeeded != 0 {
		t.Errorf("cancelled/succeeded = %d/%d, want 3/0", report.Cancelled, report.Succeeded)
	}
}

func TestBatch_NoInputFiles(t *testing.T) {
	log := &batchLogger{}
	b := &Batch{
		Config: batchConfig(t.TempDir(), t.TempDir(), 1),
		Log:    log,
		Runner: fakeRunner(log, ""),
	}
	if _, err := b.Run(context.Background()); !errors.Is(err, ErrNoInputFiles) {
		t.Errorf("Run() error = %v, want ErrNoInputFiles", err)
	}
}
