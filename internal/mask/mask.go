// Package mask generates the dual-circle alpha mask composited over the
// dual-fisheye frame. The mask is white where fisheye pixels are kept and
// black where the frame is blanked, matching the vignette of GoPro LRV files.
package mask

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"
	"os"

	"github.com/disintegration/imaging"
)

// ErrInvalidDimensions is returned for non-positive frame dimensions.
var ErrInvalidDimensions = errors.New("invalid mask dimensions")

// padding is added to the circle radius so the vignette edge sits just
// outside the fisheye image circle.
const padding = 20

// Geometry holds the circle placement for a given frame size. All values
// derive purely from the frame dimensions, never from content.
type Geometry struct {
	Radius int // shared radius of both circles, padding included
	LeftX  int
	RightX int
	CenterY int
}

// GeometryFor computes the circle placement for a width x height frame:
// radius = round(0.45*height) + padding, centers at (width/4, height/2)
// and (3*width/4, height/2).
func GeometryFor(width, height int) Geometry {
	return Geometry{
		Radius:  int(math.Round(0.45*float64(height))) + padding,
		LeftX:   width / 4,
		RightX:  3 * width / 4,
		CenterY: height / 2,
	}
}

// Generate renders the mask raster: two white hard-edged filled circles on
// an opaque black background. The output is a pure function of the
// dimensions, byte-for-byte identical across calls.
func Generate(width, height int) (*image.NRGBA, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}

	img := imaging.New(width, height, color.NRGBA{0, 0, 0, 255})
	g := GeometryFor(width, height)
	fillCircle(img, g.LeftX, g.CenterY, g.Radius)
	fillCircle(img, g.RightX, g.CenterY, g.Radius)
	return img, nil
}

// fillCircle paints a filled white circle. Hard-edged on purpose: an
// anti-aliased rim would make mask equality depend on rounding behavior.
func fillCircle(img *image.NRGBA, cx, cy, r int) {
	white := color.NRGBA{255, 255, 255, 255}
	b := img.Bounds()
	r2 := r * r

	for y := max(cy-r, b.Min.Y); y <= min(cy+r, b.Max.Y-1); y++ {
		dy := y - cy
		for x := max(cx-r, b.Min.X); x <= min(cx+r, b.Max.X-1); x++ {
			dx := x - cx
			if dx*dx+dy*dy <= r2 {
				img.SetNRGBA(x, y, white)
			}
		}
	}
}

// WriteTemp renders the mask and encodes it as a PNG in dir (or the system
// temp directory when dir is empty). The caller removes the returned file.
func WriteTemp(dir string, width, height int) (string, error) {
	img, err := Generate(width, height)
	if err != nil {
		return "", err
	}

	f, err := os.CreateTemp(dir, fmt.Sprintf("fisheye-mask-%dx%d-*.png", width, height))
	if err != nil {
		return "", fmt.Errorf("create mask file: %w", err)
	}

	if err := imaging.Encode(f, img, imaging.PNG); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("encode mask: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}
