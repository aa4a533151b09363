package cv

import (
	"fmt"
	"image"
)

// CoordinateTranslator maps frame pixels to the coordinate system the
// input backend expects. On HiDPI desktops the capture is larger than the
// logical screen, so frame points are divided by the scale and offset by
// the display origin.
type CoordinateTranslator struct {
	source image.Point // captured frame size
	target image.Point // logical display size
	origin image.Point // logical top-left of the display
}

// NewCoordinateTranslator creates a translator from captured frame size to
// the logical display rectangle
func NewCoordinateTranslator(frameW, frameH int, display image.Rectangle) *CoordinateTranslator {
	return &CoordinateTranslator{
		source: image.Pt(frameW, frameH),
		target: display.Size(),
		origin: display.Min,
	}
}

// TranslatePoint converts a frame point to a logical screen point
func (ct *CoordinateTranslator) TranslatePoint(p Point) Point {
	scaleX, scaleY := ct.GetScaleFactors()
	return Point{
		X: ct.origin.X + int(float64(p.X)/scaleX),
		Y: ct.origin.Y + int(float64(p.Y)/scaleY),
	}
}

// GetScaleFactors returns frame pixels per logical pixel on each axis. An
// unknown size on either side yields 1.
func (ct *CoordinateTranslator) GetScaleFactors() (float64, float64) {
	scaleX, scaleY := 1.0, 1.0
	if ct.source.X > 0 && ct.target.X > 0 {
		scaleX = float64(ct.source.X) / float64(ct.target.X)
	}
	if ct.source.Y > 0 && ct.target.Y > 0 {
		scaleY = float64(ct.source.Y) / float64(ct.target.Y)
	}
	return scaleX, scaleY
}

// Validate ensures both sizes are known
func (ct *CoordinateTranslator) Validate() error {
	if ct.source.X <= 0 || ct.source.Y <= 0 {
		return fmt.Errorf("invalid frame size: %dx%d", ct.source.X, ct.source.Y)
	}
	if ct.target.X <= 0 || ct.target.Y <= 0 {
		return fmt.Errorf("invalid display size: %dx%d", ct.target.X, ct.target.Y)
	}
	return nil
}

func (ct *CoordinateTranslator) String() string {
	scaleX, scaleY := ct.GetScaleFactors()
	return fmt.Sprintf("CoordinateTranslator{Frame: %dx%d, Display: %dx%d@%d,%d, ScaleX: %.3f, ScaleY: %.3f}",
		ct.source.X, ct.source.Y, ct.target.X, ct.target.Y, ct.origin.X, ct.origin.Y, scaleX, scaleY)
}
