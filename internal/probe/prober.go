// Package probe provides ffprobe-based media inspection. One JSON call per
// file supplies everything the converter needs: frame dimensions, duration,
// and audio stream presence.
package probe

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Result is the parsed output of a single ffprobe call. Width and Height
// come from the first non-attached-pic video stream; zero when no video
// stream exists.
type Result struct {
	Width      int
	Height     int
	Duration   float64 // seconds, from the stream or container, 0 if unknown
	HasVideo   bool
	HasAudio   bool
	AudioCodec string // codec of the first audio stream, "" if none
}

// Resolution returns "WxH", or "unknown" when no video stream was found.
func (r *Result) Resolution() string {
	if !r.HasVideo || r.Width <= 0 || r.Height <= 0 {
		return "unknown"
	}
	return strconv.Itoa(r.Width) + "x" + strconv.Itoa(r.Height)
}

// AspectRatio returns width/height, or 0 when no video stream was found.
func (r *Result) AspectRatio() float64 {
	if !r.HasVideo || r.Height <= 0 {
		return 0
	}
	return float64(r.Width) / float64(r.Height)
}

// Probe runs a single ffprobe JSON call against path.
func Probe(ctx context.Context, path string) (*Result, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)

	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %q: %w", path, err)
	}

	return ParseJSON(out)
}

// ParseJSON converts raw ffprobe JSON output into a Result.
// Exported for testing without a real ffprobe binary.
func ParseJSON(data []byte) (*Result, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	r := &Result{Duration: parseFloat(raw.Format.Duration)}

	for i := range raw.Streams {
		s := &raw.Streams[i]
		switch s.CodecType {
		case "video":
			if s.Disposition["attached_pic"] != 0 {
				continue
			}
			if !r.HasVideo {
				r.HasVideo = true
				r.Width = s.Width
				r.Height = s.Height
				if d := parseFloat(s.Duration); d > 0 {
					r.Duration = d
				}
			}
		case "audio":
			if !r.HasAudio {
				r.HasAudio = true
				r.AudioCodec = s.CodecName
			}
		}
	}
	return r, nil
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	Duration string `json:"duration"`
}

type ffprobeStream struct {
	Index       int            `json:"index"`
	CodecName   string         `json:"codec_name"`
	CodecType   string         `json:"codec_type"`
	Width       int            `json:"width"`
	Height      int            `json:"height"`
	Duration    string         `json:"duration"`
	Disposition map[string]int `json:"disposition"`
}

// ffprobe returns numbers as strings.
func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
