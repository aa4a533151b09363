package adb

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"strconv"
	"strings"

	"golang.org/x/image/draw"
)

// Tap performs a tap at frame pixel coordinates
func (c *Controller) Tap(x, y int) error {
	if _, err := c.command("shell", "input", "tap", strconv.Itoa(x), strconv.Itoa(y)); err != nil {
		c.noteFailure(err)
		return fmt.Errorf("tap (%d,%d) failed: %w", x, y, err)
	}
	return nil
}

// Shell executes a shell command and returns trimmed output
func (c *Controller) Shell(command string) (string, error) {
	output, err := c.command("shell", command)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(output)), nil
}

// CaptureFrame grabs the screen as PNG over exec-out
func (c *Controller) CaptureFrame() (*image.RGBA, error) {
	data, err := c.command("exec-out", "screencap", "-p")
	if err != nil {
		c.noteFailure(err)
		return nil, fmt.Errorf("screencap failed: %w", err)
	}
	return decodeScreencap(data)
}

// GetDimensions returns the screen size cached at Connect
func (c *Controller) GetDimensions() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

// IsAppRunning checks the configured package with pidof. A controller
// that lost its device reconnects here first.
func (c *Controller) IsAppRunning() (bool, error) {
	if !c.IsConnected() {
		if err := c.Connect(); err != nil {
			return false, fmt.Errorf("device offline: %w", err)
		}
	}
	if c.pkg == "" {
		return true, nil
	}
	output, err := c.command("shell", "pidof", c.pkg)
	if err != nil {
		// pidof exits non-zero when nothing matches
		return false, nil
	}
	return hasPID(string(output)), nil
}

// noteFailure marks the controller disconnected when adb reports the
// device gone, so the next liveness check reconnects
func (c *Controller) noteFailure(err error) {
	if !isDeviceGone(err) {
		return
	}
	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if wasConnected {
		c.logger.WarnWithContext("Device lost", map[string]interface{}{
			"serial": c.Name(),
			"error":  err.Error(),
		})
	}
}

func isDeviceGone(err error) bool {
	msg := err.Error()
	for _, marker := range []string{"device offline", "not found", "no devices", "device unauthorized"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// ForceStop stops an application
func (c *Controller) ForceStop(packageName string) error {
	_, err := c.Shell(fmt.Sprintf("am force-stop %s", packageName))
	return err
}

func decodeScreencap(data []byte) (*image.RGBA, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("screencap returned no data")
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode screencap: %w", err)
	}

	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba, nil
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba, nil
}

// parseWindowSize reads `wm size`. An override size wins over the
// physical size because that is what screencap returns.
func parseWindowSize(output string) (int, int, error) {
	var physW, physH, overW, overH int
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "Override size:"):
			fmt.Sscanf(line, "Override size: %dx%d", &overW, &overH)
		case strings.HasPrefix(line, "Physical size:"):
			fmt.Sscanf(line, "Physical size: %dx%d", &physW, &physH)
		}
	}
	if overW > 0 && overH > 0 {
		return overW, overH, nil
	}
	if physW > 0 && physH > 0 {
		return physW, physH, nil
	}
	return 0, 0, fmt.Errorf("failed to parse window size: %q", strings.TrimSpace(output))
}

func hasPID(output string) bool {
	for _, field := range strings.Fields(output) {
		if _, err := strconv.Atoi(field); err == nil {
			return true
		}
	}
	return false
}
