package adb

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"jordanella.com/tower-bot-go/internal/logging"
)

// DefaultTimeout bounds every adb invocation
const DefaultTimeout = 5 * time.Second

// runner executes adb with args and returns combined stdout
type runner func(ctx context.Context, args ...string) ([]byte, error)

// Controller drives one Android device through the adb binary. It
// satisfies the scheduler's Device interface.
type Controller struct {
	path    string
	serial  string // adb -s target; empty means the only attached device
	pkg     string // package probed by IsAppRunning
	timeout time.Duration
	run     runner
	logger  *logging.Logger

	mu        sync.Mutex
	connected bool
	width     int
	height    int
}

// NewController creates a new ADB controller
func NewController(adbPath, serial, pkg string) *Controller {
	c := &Controller{
		path:    adbPath,
		serial:  serial,
		pkg:     pkg,
		timeout: DefaultTimeout,
		logger:  logging.NewLogger("ADB"),
	}
	c.run = c.execADB
	return c
}

func (c *Controller) execADB(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, c.path, args...)
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return out, fmt.Errorf("adb %s: %w, stderr: %s", strings.Join(args, " "), err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return out, fmt.Errorf("adb %s: %w", strings.Join(args, " "), err)
	}
	return out, nil
}

// command runs adb against the configured device
func (c *Controller) command(args ...string) ([]byte, error) {
	if c.serial != "" {
		args = append([]string{"-s", c.serial}, args...)
	}
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	return c.run(ctx, args...)
}

// Connect attaches to the device. Network serials (host:port) are
// connected first; the screen size is cached for GetDimensions.
func (c *Controller) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if strings.Contains(c.serial, ":") {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		output, err := c.run(ctx, "connect", c.serial)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to connect to device %s: %w", c.serial, err)
		}
		if !isConnectOK(string(output)) {
			return fmt.Errorf("unexpected connect output: %s", strings.TrimSpace(string(output)))
		}
	}

	output, err := c.command("shell", "wm", "size")
	if err != nil {
		return fmt.Errorf("failed to query screen size: %w", err)
	}
	w, h, err := parseWindowSize(string(output))
	if err != nil {
		return err
	}

	c.width, c.height = w, h
	c.connected = true

	c.logger.InfoWithContext("Connected", map[string]interface{}{
		"serial": c.Name(),
		"width":  w,
		"height": h,
	})
	return nil
}

// Disconnect drops a network connection; USB devices need nothing
func (c *Controller) Disconnect() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.connected && strings.Contains(c.serial, ":") {
		ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()
		if _, err := c.run(ctx, "disconnect", c.serial); err != nil {
			return fmt.Errorf("failed to disconnect %s: %w", c.serial, err)
		}
	}
	c.connected = false
	return nil
}

// IsConnected returns whether the controller is connected
func (c *Controller) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

// Name identifies the device in logs and events
func (c *Controller) Name() string {
	if c.serial == "" {
		return "adb"
	}
	return "adb:" + c.serial
}

func isConnectOK(output string) bool {
	return strings.Contains(output, "connected to") || strings.Contains(output, "already connected")
}
