package cv

import (
	"image"
)

// Capturer interface for different capture methods
type Capturer interface {
	CaptureFrame() (*image.RGBA, error)
	GetDimensions() (width, height int)
}

// Placeholder frame size used when a capture fails
const (
	PlaceholderWidth  = 1280
	PlaceholderHeight = 720
)

// PlaceholderFrame returns an all-black frame. Every detector reports
// "absent" on it, so a failed capture turns the tick into a no-op.
func PlaceholderFrame() *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, PlaceholderWidth, PlaceholderHeight))
	for i := 3; i < len(frame.Pix); i += 4 {
		frame.Pix[i] = 255
	}
	return frame
}
