// Package ffmpeg builds and executes the projection and masking commands.
// Each transform is a single filter_complex invocation with argument-slice
// construction, so the full command is inspectable in tests and logs.
package ffmpeg

import (
	"bytes"
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
)

// ExecResult holds the outcome of a single ffmpeg invocation.
type ExecResult struct {
	Stderr string
	Err    error
}

// Execute runs the command described by spec. When verbose, stderr is tee'd
// to os.Stderr in real time; otherwise it is captured silently for failure
// reporting. Context cancellation kills the child process; the process
// handle never outlives this call.
func Execute(ctx context.Context, spec *CommandSpec, verbose bool) ExecResult {
	args := spec.Args()
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)

	var stderrBuf bytes.Buffer
	if verbose {
		cmd.Stderr = io.MultiWriter(&stderrBuf, os.Stderr)
	} else {
		cmd.Stderr = &stderrBuf
	}

	err := cmd.Run()
	return ExecResult{
		Stderr: stderrBuf.String(),
		Err:    err,
	}
}

// StderrTail returns the last n lines of captured stderr, for attaching a
// readable failure detail to job results.
func StderrTail(stderr string, n int) string {
	stderr = strings.TrimSpace(stderr)
	if stderr == "" {
		return ""
	}
	lines := strings.Split(stderr, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
