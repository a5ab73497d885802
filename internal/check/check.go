// Package check provides system diagnostics (--check mode) and pre-run
// dependency validation for ffmpeg, ffprobe, the v360 filter, and libx264.
package check

import (
	"errors"
	"os/exec"
	"strings"
)

// Sentinel errors returned by CheckDeps when a required tool is missing.
var (
	ErrFfmpegNotFound  = errors.New("ffmpeg not found on PATH")
	ErrFfprobeNotFound = errors.New("ffprobe not found on PATH")
	ErrNoV360Filter    = errors.New("this ffmpeg build has no v360 filter (need ffmpeg 4.2+)")
	ErrX264TestFailed  = errors.New("libx264 test encode failed")
)

// Logger is the minimal logging interface needed by RunCheck. Defined here
// (rather than importing the logging package) so that check remains
// dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// RunCheck runs the interactive --check flow: ffmpeg/ffprobe presence and
// versions, v360 filter availability, and a short libx264 test encode.
// Informational only; returns false when any check failed.
func RunCheck(log Logger) bool {
	log.Info("=== System Check ===")
	ok := true

	ok = checkTool(log, "ffmpeg") && ok
	ok = checkTool(log, "ffprobe") && ok
	ok = checkV360(log) && ok
	ok = checkX264(log) && ok
	return ok
}

// checkTool verifies a binary is on PATH and logs its version line.
func checkTool(log Logger, name string) bool {
	if _, err := exec.LookPath(name); err != nil {
		log.Error("%s not found", name)
		return false
	}
	out, err := exec.Command(name, "-version").Output()
	if err != nil {
		log.Warn("%s found but -version failed: %v", name, err)
		return false
	}
	firstLine := strings.TrimSpace(string(out))
	if idx := strings.Index(firstLine, "\n"); idx > 0 {
		firstLine = firstLine[:idx]
	}
	log.Success("%s: %s", name, firstLine)
	return true
}

// checkV360 verifies the v360 projection filter is compiled into ffmpeg;
// the EAC remap is impossible without it.
func checkV360(log Logger) bool {
	if hasV360() {
		log.Success("v360 filter available")
		return true
	}
	log.Error("v360 filter not available (install ffmpeg 4.2 or newer)")
	return false
}

// checkX264 runs a minimal libx264 encode against a generated test frame.
func checkX264(log Logger) bool {
	log.Info("Testing libx264 encoder...")
	if runSilent("ffmpeg", x264TestArgs()...) {
		log.Success("libx264 works")
		return true
	}
	log.Error("libx264 test encode failed")
	return false
}

// CheckDeps is the pre-run validation shared by all three commands: ffmpeg
// and ffprobe on PATH, v360 filter present, libx264 usable. Returns a
// sentinel error on the first failure.
func CheckDeps() error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return ErrFfmpegNotFound
	}
	if _, err := exec.LookPath("ffprobe"); err != nil {
		return ErrFfprobeNotFound
	}
	if !hasV360() {
		return ErrNoV360Filter
	}
	if !runSilent("ffmpeg", x264TestArgs()...) {
		return ErrX264TestFailed
	}
	return nil
}

func hasV360() bool {
	out, err := exec.Command("ffmpeg", "-hide_banner", "-filters").Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(out), "v360")
}

func x264TestArgs() []string {
	return []string{
		"-hide_banner", "-nostdin",
		"-f", "lavfi", "-i", "color=black:size=64x64:duration=0.1",
		"-c:v", "libx264", "-f", "null", "-",
	}
}

func runSilent(name string, args ...string) bool {
	cmd := exec.Command(name, args...)
	return cmd.Run() == nil
}
