package capture

import (
	"image"

	"golang.org/x/image/draw"
)

// Capturer defines the interface for full-screen capture backends
type Capturer interface {
	// Capture acquires the primary display as a non-premultiplied image
	// anchored at (0,0). It blocks until the image is available or a
	// failure is established; failures are *Error values.
	Capture() (*image.NRGBA, error)

	// Name returns a human-readable name for this capturer
	Name() string
}

// ToNRGBA normalises a decoded image to an origin-anchored *image.NRGBA.
// Images that already have that shape are returned as is, so alpha from
// the source is never re-quantised.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Rect.Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
