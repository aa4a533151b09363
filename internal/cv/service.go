package cv

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Service wraps a Capturer with placeholder fallback and a short-lived
// frame cache shared by the scheduler and the GUI
type Service struct {
	capturer Capturer

	// Frame caching for performance
	cachedFrame     *image.RGBA
	cachedFrameTime time.Time
	cacheDuration   time.Duration
	lastErr         error

	mu sync.RWMutex
}

// NewService creates a new CV service
func NewService(capturer Capturer) *Service {
	return NewServiceWithCache(capturer, 100*time.Millisecond)
}

// NewServiceWithCache creates a CV service with custom cache duration
func NewServiceWithCache(capturer Capturer, cacheDuration time.Duration) *Service {
	return &Service{
		capturer:      capturer,
		cacheDuration: cacheDuration,
	}
}

// CaptureFrame captures current frame with optional caching
func (s *Service) CaptureFrame(useCache bool) (*image.RGBA, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check if cached frame is still valid
	if useCache && s.cachedFrame != nil {
		if time.Since(s.cachedFrameTime) < s.cacheDuration {
			return s.cachedFrame, nil
		}
	}

	frame, err := s.capturer.CaptureFrame()
	s.lastErr = err
	if err != nil {
		return nil, err
	}

	s.cachedFrame = frame
	s.cachedFrameTime = time.Now()
	return frame, nil
}

// Frame always returns a fresh frame to inspect. When the capture fails
// the error is returned alongside a placeholder frame.
func (s *Service) Frame() (*image.RGBA, error) {
	frame, err := s.CaptureFrame(false)
	if err != nil || frame == nil {
		if err == nil {
			err = ErrInvalidImage
		}
		return PlaceholderFrame(), err
	}
	return frame, nil
}

// LastFrame returns the most recent successful capture, or nil
func (s *Service) LastFrame() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cachedFrame
}

// LastError returns the error of the most recent capture attempt
func (s *Service) LastError() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// GetDimensions returns the capture dimensions
func (s *Service) GetDimensions() (width, height int) {
	return s.capturer.GetDimensions()
}

// SaveRegionPNG crops a region of the latest frame to a PNG file,
// capturing a new frame if none is cached
func (s *Service) SaveRegionPNG(r Region, path string) error {
	if err := r.Validate(); err != nil {
		return err
	}

	frame, err := s.CaptureFrame(true)
	if err != nil {
		return fmt.Errorf("failed to capture frame: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer file.Close()

	if err := png.Encode(file, CropRegion(frame, r)); err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	return nil
}
