package projection

import "fmt"

// Profile holds the encoder speed preset and CRF for the x264 video encode.
// Preset and CRF are independent axes: the preset trades encode speed for
// compression efficiency, CRF is the sole quality lever at fixed resolution.
type Profile struct {
	Name   string
	Preset string
	CRF    int
}

// CRF bounds accepted by libx264.
const (
	CRFMin = 0
	CRFMax = 51
)

// Named profiles. "balanced" is the default everywhere.
var (
	ProfileFast     = Profile{Name: "fast", Preset: "ultrafast", CRF: 28}
	ProfileBalanced = Profile{Name: "balanced", Preset: "medium", CRF: 23}
	ProfileQuality  = Profile{Name: "quality", Preset: "slow", CRF: 18}
)

// x264Presets is the fixed set of speed presets libx264 accepts.
var x264Presets = map[string]bool{
	"ultrafast": true, "superfast": true, "veryfast": true, "faster": true,
	"fast": true, "medium": true, "slow": true, "slower": true, "veryslow": true,
}

// ProfileByName resolves a named profile (fast, balanced, quality).
func ProfileByName(name string) (Profile, error) {
	switch name {
	case "fast":
		return ProfileFast, nil
	case "balanced":
		return ProfileBalanced, nil
	case "quality":
		return ProfileQuality, nil
	}
	return Profile{}, fmt.Errorf("%w: unknown profile %q (want fast, balanced or quality)", ErrInvalidSpec, name)
}

// Custom builds a profile from an explicit preset and CRF pair.
func Custom(preset string, crf int) Profile {
	return Profile{Name: "custom", Preset: preset, CRF: crf}
}

// Validate checks the preset name and CRF range.
func (p Profile) Validate() error {
	if !x264Presets[p.Preset] {
		return fmt.Errorf("%w: unknown x264 preset %q", ErrInvalidSpec, p.Preset)
	}
	if p.CRF < CRFMin || p.CRF > CRFMax {
		return fmt.Errorf("%w: CRF %d out of range %d-%d", ErrInvalidSpec, p.CRF, CRFMin, CRFMax)
	}
	return nil
}
