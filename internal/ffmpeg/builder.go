package ffmpeg

import (
	"fmt"
	"strconv"

	"github.com/alexarje/GoPro-360-to-dual-fisheye/internal/projection"
)

// CommandSpec is one fully specified ffmpeg invocation: inputs, a single
// filter_complex graph, stream maps, codec flags, and the output path.
// Both transforms are expressed as one graph so intermediate frames never
// touch disk regardless of video length.
type CommandSpec struct {
	InputArgs     []string
	FilterComplex string
	MapArgs       []string
	CodecArgs     []string
	OutputPath    string
}

// Args assembles the complete ffmpeg argument slice, starting with the
// binary name so executors can run Args()[0] with Args()[1:].
func (c *CommandSpec) Args() []string {
	args := make([]string, 0, 32)
	args = append(args, "ffmpeg", "-hide_banner", "-nostdin", "-y")
	args = append(args, c.InputArgs...)
	args = append(args, "-filter_complex", c.FilterComplex)
	args = append(args, c.MapArgs...)
	args = append(args, c.CodecArgs...)
	args = append(args, c.OutputPath)
	return args
}

// BuildProjection constructs the EAC -> equirectangular -> dual-fisheye
// command for one file. All four stages live in one filter graph:
//
//	equirect:     v360 eac->e remap, scaled to the intermediate resolution
//	left_eye:     equirect -> fisheye at YawLeft
//	right_eye:    equirect -> fisheye at YawRight
//	dual_fisheye: left and right hstacked into the final frame
//
// Audio is stream-copied, never re-encoded. The spec and profile are
// validated here, before any process is spawned.
func BuildProjection(input, output string, spec projection.Spec, prof projection.Profile) (*CommandSpec, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if err := prof.Validate(); err != nil {
		return nil, err
	}

	filter := fmt.Sprintf(
		"[0:v]v360=eac:e:ih_fov=360:iv_fov=180,scale=%dx%d[equirect];"+
			"[equirect]v360=e:fisheye:ih_fov=360:iv_fov=180:h_fov=%d:v_fov=%d:w=%d:h=%d:yaw=%d[left_eye];"+
			"[equirect]v360=e:fisheye:ih_fov=360:iv_fov=180:h_fov=%d:v_fov=%d:w=%d:h=%d:yaw=%d[right_eye];"+
			"[left_eye][right_eye]hstack=inputs=2[dual_fisheye]",
		spec.EquirectWidth, spec.EquirectHeight,
		spec.HFOV, spec.VFOV, spec.EyeSize, spec.EyeSize, spec.YawLeft,
		spec.HFOV, spec.VFOV, spec.EyeSize, spec.EyeSize, spec.YawRight,
	)

	return &CommandSpec{
		InputArgs:     []string{"-i", input},
		FilterComplex: filter,
		MapArgs:       []string{"-map", "[dual_fisheye]", "-map", "0:a?"},
		CodecArgs:     encoderArgs(prof),
		OutputPath:    output,
	}, nil
}

// BuildMasking constructs the circular-masking command: the mask image is
// converted to a gray alpha plane, merged onto the source video, and the
// result composited over an opaque black background of the same size.
// testPrefix > 0 limits processing to that many seconds of input.
func BuildMasking(input, maskPath, output string, width, height int, prof projection.Profile, testPrefix int) (*CommandSpec, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: frame %dx%d", projection.ErrInvalidSpec, width, height)
	}
	if err := prof.Validate(); err != nil {
		return nil, err
	}

	inputArgs := []string{"-i", input, "-i", maskPath}
	if testPrefix > 0 {
		inputArgs = append(inputArgs, "-t", strconv.Itoa(testPrefix))
	}

	filter := fmt.Sprintf(
		"[1:v]format=gray[mask];"+
			"[0:v][mask]alphamerge[masked];"+
			"color=black:size=%dx%d[bg];"+
			"[bg][masked]overlay=0:0:format=auto,format=yuv420p[final]",
		width, height,
	)

	return &CommandSpec{
		InputArgs:     inputArgs,
		FilterComplex: filter,
		MapArgs:       []string{"-map", "[final]", "-map", "0:a?"},
		CodecArgs:     encoderArgs(prof),
		OutputPath:    output,
	}, nil
}

// encoderArgs returns the shared output flags: x264 video at the profile's
// preset and CRF, audio copied, faststart for web playback.
func encoderArgs(prof projection.Profile) []string {
	return []string{
		"-c:v", "libx264",
		"-crf", strconv.Itoa(prof.CRF),
		"-preset", prof.Preset,
		"-c:a", "copy",
		"-movflags", "+faststart",
	}
}
