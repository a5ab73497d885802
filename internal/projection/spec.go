// Package projection defines the value types that parameterize the EAC to
// dual-fisheye transform: the projection geometry (Spec) and the encoder
// quality settings (Profile). Both are validated before any ffmpeg process
// is spawned, so bad parameters never reach the engine.
package projection

import (
	"errors"
	"fmt"
)

// ErrInvalidSpec is wrapped by all parameter validation failures.
var ErrInvalidSpec = errors.New("invalid projection spec")

// LRV-match constants. GoPro Max LRV previews are a 1408x704 dual-fisheye
// frame: two 704x704 eyes with 190 degree FOV, stacked side by side.
const (
	LRVOutputWidth  = 1408
	LRVOutputHeight = 704
	LRVEyeSize      = 704
	LRVEyeFOV       = 190
	LRVYawLeft      = -90
	LRVYawRight     = 90

	// Intermediate equirectangular frame the EAC input is remapped through.
	EquirectWidth  = 3840
	EquirectHeight = 1920
)

// Spec describes one EAC -> equirectangular -> dual-fisheye transform.
// The zero value is not valid; use LRVMatch or fill every field.
type Spec struct {
	// Output frame: two EyeSize x EyeSize fisheyes side by side.
	OutputWidth  int
	OutputHeight int
	EyeSize      int

	// Per-eye field of view in degrees (horizontal and vertical).
	HFOV int
	VFOV int

	// Yaw offsets in degrees for the left and right eye projections.
	YawLeft  int
	YawRight int

	// Intermediate equirectangular resolution.
	EquirectWidth  int
	EquirectHeight int
}

// LRVMatch returns the fixed spec matching GoPro's LRV preview layout.
// Output resolution and FOV are constants in this mode regardless of the
// input resolution.
func LRVMatch() Spec {
	return Spec{
		OutputWidth:    LRVOutputWidth,
		OutputHeight:   LRVOutputHeight,
		EyeSize:        LRVEyeSize,
		HFOV:           LRVEyeFOV,
		VFOV:           LRVEyeFOV,
		YawLeft:        LRVYawLeft,
		YawRight:       LRVYawRight,
		EquirectWidth:  EquirectWidth,
		EquirectHeight: EquirectHeight,
	}
}

// Validate checks the spec against sane projection bounds. Custom specs may
// override the LRV constants but must keep the eyes symmetric and the
// output frame at a 2:1 aspect ratio.
func (s Spec) Validate() error {
	if s.OutputWidth <= 0 || s.OutputHeight <= 0 {
		return fmt.Errorf("%w: output resolution %dx%d", ErrInvalidSpec, s.OutputWidth, s.OutputHeight)
	}
	if s.EyeSize <= 0 {
		return fmt.Errorf("%w: eye size %d", ErrInvalidSpec, s.EyeSize)
	}
	if s.EquirectWidth <= 0 || s.EquirectHeight <= 0 {
		return fmt.Errorf("%w: equirect resolution %dx%d", ErrInvalidSpec, s.EquirectWidth, s.EquirectHeight)
	}
	if s.HFOV <= 0 || s.HFOV > 360 {
		return fmt.Errorf("%w: horizontal FOV %d (want 1-360)", ErrInvalidSpec, s.HFOV)
	}
	if s.VFOV <= 0 || s.VFOV > 360 {
		return fmt.Errorf("%w: vertical FOV %d (want 1-360)", ErrInvalidSpec, s.VFOV)
	}
	if s.OutputWidth != 2*s.OutputHeight {
		return fmt.Errorf("%w: output %dx%d is not 2:1", ErrInvalidSpec, s.OutputWidth, s.OutputHeight)
	}
	if s.OutputWidth != 2*s.EyeSize || s.OutputHeight != s.EyeSize {
		return fmt.Errorf("%w: eye size %d does not tile a %dx%d frame", ErrInvalidSpec, s.EyeSize, s.OutputWidth, s.OutputHeight)
	}
	return nil
}
