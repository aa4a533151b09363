// Package desktop drives a game window on the local display: screen
// capture through kbinani/screenshot, input through robotgo and liveness
// through the process table.
package desktop

import (
	"fmt"
	"image"
	"sync"

	"github.com/go-vgo/robotgo"
	"github.com/kbinani/screenshot"
	"golang.org/x/image/draw"
	"jordanella.com/tower-bot-go/internal/cv"
	"jordanella.com/tower-bot-go/internal/logging"
	"jordanella.com/tower-bot-go/internal/monitor"
)

// Device captures one display and taps on it
type Device struct {
	display int
	procs   *monitor.ProcessChecker
	logger  *logging.Logger

	mu         sync.Mutex
	translator *cv.CoordinateTranslator
	width      int
	height     int
}

// New creates a device for display index and a process name substring
func New(display int, processMatch string) (*Device, error) {
	if n := screenshot.NumActiveDisplays(); display < 0 || display >= n {
		return nil, fmt.Errorf("display %d not available (%d active)", display, n)
	}
	return &Device{
		display: display,
		procs:   monitor.NewProcessChecker(processMatch),
		logger:  logging.NewLogger("Desktop"),
	}, nil
}

// Name identifies the device in logs and events
func (d *Device) Name() string {
	return fmt.Sprintf("desktop:%d", d.display)
}

// CaptureFrame grabs the whole display. The frame is in physical pixels
// and its origin is 0,0.
func (d *Device) CaptureFrame() (*image.RGBA, error) {
	bounds := screenshot.GetDisplayBounds(d.display)
	img, err := screenshot.CaptureRect(bounds)
	if err != nil {
		return nil, fmt.Errorf("failed to capture screen %d: %w", d.display, err)
	}

	frame := img
	if img.Bounds().Min != (image.Point{}) {
		frame = image.NewRGBA(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
		draw.Draw(frame, frame.Bounds(), img, img.Bounds().Min, draw.Src)
	}

	d.updateTranslator(frame.Bounds().Dx(), frame.Bounds().Dy())
	return frame, nil
}

// updateTranslator refreshes the frame to logical scale when the capture
// size changes
func (d *Device) updateTranslator(w, h int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.translator != nil && d.width == w && d.height == h {
		return
	}

	x, y, lw, lh := robotgo.GetDisplayBounds(d.display)
	d.translator = cv.NewCoordinateTranslator(w, h, image.Rect(x, y, x+lw, y+lh))
	d.width, d.height = w, h

	if err := d.translator.Validate(); err != nil {
		d.logger.ErrorWithContext("Display geometry unusable, taps disabled", err, map[string]interface{}{
			"display": d.display,
		})
		return
	}
	d.logger.InfoWithContext("Display geometry", map[string]interface{}{
		"translator": d.translator.String(),
	})
}

// GetDimensions returns the size of the last captured frame
func (d *Device) GetDimensions() (int, int) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.width, d.height
}

// Tap clicks at a frame pixel, converted to logical screen coordinates
func (d *Device) Tap(x, y int) error {
	d.mu.Lock()
	translator := d.translator
	d.mu.Unlock()

	if translator == nil {
		return fmt.Errorf("no frame captured yet, display geometry unknown")
	}
	if err := translator.Validate(); err != nil {
		return fmt.Errorf("cannot map tap to display %d: %w", d.display, err)
	}

	p := translator.TranslatePoint(cv.Point{X: x, Y: y})
	robotgo.Move(p.X, p.Y)
	robotgo.Click("left")
	return nil
}

// IsAppRunning looks for the game process on this machine
func (d *Device) IsAppRunning() (bool, error) {
	return d.procs.IsAppRunning()
}
