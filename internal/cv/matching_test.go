package cv

import (
	"errors"
	"image"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"
)

// pattern returns a deterministic non-flat grayscale image
func pattern(w, h int, seed int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x*7 + y*13 + seed*31 + (x*y)%17) % 256)})
		}
	}
	return img
}

func invert(src *image.Gray) *image.Gray {
	dst := image.NewGray(src.Bounds())
	for i, v := range src.Pix {
		dst.Pix[i] = 255 - v
	}
	return dst
}

func TestRegionCenterFloors(t *testing.T) {
	tests := []struct {
		region Region
		want   Point
	}{
		{NewRegion(0, 0, 10, 10), Point{5, 5}},
		{NewRegion(483, 194, 505, 73), Point{735, 230}},
		{NewRegion(1, 1, 3, 1), Point{2, 1}},
	}
	for _, tt := range tests {
		if got := tt.region.Center(); got != tt.want {
			t.Errorf("%s.Center() = %s, want %s", tt.region, got, tt.want)
		}
	}
}

func TestRegionValidate(t *testing.T) {
	if err := NewRegion(0, 0, 1, 1).Validate(); err != nil {
		t.Errorf("1x1 region should be valid: %v", err)
	}
	for _, r := range []Region{NewRegion(0, 0, 0, 5), NewRegion(0, 0, 5, -1)} {
		if err := r.Validate(); err == nil {
			t.Errorf("%s should be rejected", r)
		}
	}
}

func TestMatchScoreIdentityAndInverse(t *testing.T) {
	img := pattern(40, 30, 1)

	if score := MatchScore(img, img); math.Abs(score-1) > 1e-9 {
		t.Errorf("identical images scored %f, want 1", score)
	}
	if score := MatchScore(img, invert(img)); math.Abs(score+1) > 1e-9 {
		t.Errorf("inverted image scored %f, want -1", score)
	}
}

func TestMatchScoreFlatInputs(t *testing.T) {
	flat := image.NewGray(image.Rect(0, 0, 20, 20))
	if score := MatchScore(flat, pattern(20, 20, 2)); score != 0 {
		t.Errorf("flat crop scored %f, want 0", score)
	}
	if score := MatchScore(nil, flat); score != 0 {
		t.Errorf("nil crop scored %f, want 0", score)
	}
}

func TestMatchScoreResizesTemplateToCrop(t *testing.T) {
	crop := pattern(50, 20, 3)
	template := pattern(100, 40, 4)

	direct := MatchScore(crop, template)
	preResized := MatchScore(crop, ResizeGray(template, 50, 20))

	if direct != preResized {
		t.Errorf("auto-resized score %f differs from pre-resized score %f", direct, preResized)
	}
}

func TestResizeGrayAveragesArea(t *testing.T) {
	src := image.NewGray(image.Rect(0, 0, 4, 2))
	copy(src.Pix, []uint8{
		0, 10, 100, 200,
		20, 30, 100, 0,
	})

	got := ResizeGray(src, 2, 1)
	if got.Pix[0] != 15 || got.Pix[1] != 100 {
		t.Errorf("2:1 block averages = %v, want [15 100]", got.Pix)
	}

	// Non-integer ratio: each output pixel covers 1.5 source pixels
	line := image.NewGray(image.Rect(0, 0, 3, 1))
	copy(line.Pix, []uint8{0, 90, 180})
	got = ResizeGray(line, 2, 1)
	if got.Pix[0] != 30 || got.Pix[1] != 150 {
		t.Errorf("3:2 area weights = %v, want [30 150]", got.Pix)
	}
}

func TestResizeGrayHonoursSubImageOrigin(t *testing.T) {
	full := image.NewGray(image.Rect(0, 0, 6, 6))
	for i := range full.Pix {
		full.Pix[i] = 255
	}
	sub := full.SubImage(image.Rect(2, 2, 6, 6)).(*image.Gray)
	for y := 2; y < 6; y++ {
		for x := 2; x < 6; x++ {
			full.SetGray(x, y, color.Gray{Y: 40})
		}
	}

	got := ResizeGray(sub, 2, 2)
	for i, v := range got.Pix {
		if v != 40 {
			t.Fatalf("pixel %d = %d, want 40 (read outside the sub-image)", i, v)
		}
	}
}

func TestMatchScoreScaledCopyStillMatches(t *testing.T) {
	crop := image.NewGray(image.Rect(0, 0, 60, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 60; x++ {
			crop.SetGray(x, y, color.Gray{Y: uint8(x*3 + y*2)})
		}
	}
	template := ResizeGray(crop, 120, 60)

	if score := MatchScore(crop, template); score < DefaultMatchThreshold {
		t.Errorf("upscaled copy scored %f, want >= %f", score, DefaultMatchThreshold)
	}
}

func TestFindTemplateLocatesNeedle(t *testing.T) {
	haystack := pattern(30, 30, 6)
	needle := ToGray(haystack.SubImage(image.Rect(10, 12, 18, 20)))

	result, err := FindTemplate(haystack, needle, DefaultMatchThreshold)
	if err != nil {
		t.Fatalf("FindTemplate failed: %v", err)
	}
	if !result.Found || result.Location != (image.Point{X: 10, Y: 12}) {
		t.Errorf("unexpected result %+v", result)
	}

	if _, err := FindTemplate(needle, haystack, DefaultMatchThreshold); !errors.Is(err, ErrTemplateTooLarge) {
		t.Errorf("Expected ErrTemplateTooLarge, got %v", err)
	}
}

func TestHasBrightPixel(t *testing.T) {
	frame := PlaceholderFrame()
	region := NewRegion(100, 100, 10, 10)

	if HasBrightPixel(frame, region, BrightPixelThreshold) {
		t.Fatal("black frame should have no bright pixel")
	}

	frame.SetRGBA(105, 105, color.RGBA{250, 250, 250, 255})
	if HasBrightPixel(frame, region, BrightPixelThreshold) {
		t.Error("gray 250 is not above the threshold")
	}

	frame.SetRGBA(109, 109, color.RGBA{255, 255, 255, 255})
	if !HasBrightPixel(frame, region, BrightPixelThreshold) {
		t.Error("white pixel inside region not detected")
	}
	if HasBrightPixel(frame, NewRegion(0, 0, 100, 100), BrightPixelThreshold) {
		t.Error("white pixel outside region detected")
	}
}

func TestCropGrayClipsToFrame(t *testing.T) {
	frame := PlaceholderFrame()

	crop := CropGray(frame, NewRegion(PlaceholderWidth-10, PlaceholderHeight-5, 50, 50))
	if crop == nil {
		t.Fatal("Expected a clipped crop, got nil")
	}
	if b := crop.Bounds(); b.Dx() != 10 || b.Dy() != 5 {
		t.Fatalf("Expected 10x5 crop, got %v", b)
	}
	if CropGray(frame, NewRegion(5000, 5000, 10, 10)) != nil {
		t.Error("off-screen region should produce nil crop")
	}
}

type fakeCapturer struct {
	frame *image.RGBA
	err   error
	calls int
}

func (f *fakeCapturer) CaptureFrame() (*image.RGBA, error) {
	f.calls++
	return f.frame, f.err
}

func (f *fakeCapturer) GetDimensions() (int, int) {
	if f.frame == nil {
		return 0, 0
	}
	return f.frame.Bounds().Dx(), f.frame.Bounds().Dy()
}

func TestServiceFallsBackToPlaceholder(t *testing.T) {
	capturer := &fakeCapturer{err: errors.New("device offline")}
	service := NewService(capturer)

	frame, err := service.Frame()
	if err == nil {
		t.Error("Expected capture error to be reported")
	}
	if frame == nil {
		t.Fatal("Expected placeholder frame, got nil")
	}
	if b := frame.Bounds(); b.Dx() != PlaceholderWidth || b.Dy() != PlaceholderHeight {
		t.Fatalf("Expected %dx%d placeholder, got %v", PlaceholderWidth, PlaceholderHeight, b)
	}
	if service.LastFrame() != nil {
		t.Error("placeholder must not be cached as a real frame")
	}
	if service.LastError() == nil {
		t.Error("LastError should keep the capture failure")
	}

	capturer.err = nil
	capturer.frame = image.NewRGBA(image.Rect(0, 0, 8, 8))
	if _, err := service.Frame(); err != nil {
		t.Fatalf("Frame failed after recovery: %v", err)
	}
	if service.LastError() != nil || service.LastFrame() == nil {
		t.Error("a good capture should clear LastError and be kept as LastFrame")
	}
}

func TestServiceSaveRegionPNG(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 40, 40))
	capturer := &fakeCapturer{frame: src}
	service := NewService(capturer)

	path := filepath.Join(t.TempDir(), "templates", "claim.png")
	if err := service.SaveRegionPNG(NewRegion(5, 5, 10, 8), path); err != nil {
		t.Fatalf("SaveRegionPNG failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("Expected file at %s: %v", path, err)
	}
	if err := service.SaveRegionPNG(NewRegion(0, 0, 0, 0), path); err == nil {
		t.Error("Expected empty region to be rejected")
	}
}
