package cv

import (
	"image"
	"testing"
)

func TestCoordinateTranslator(t *testing.T) {
	tests := []struct {
		name    string
		frameW  int
		frameH  int
		display image.Rectangle
		in      Point
		want    Point
	}{
		{"no scaling", 1920, 1080, image.Rect(0, 0, 1920, 1080), Point{100, 200}, Point{100, 200}},
		{"retina 2x", 2880, 1800, image.Rect(0, 0, 1440, 900), Point{1000, 600}, Point{500, 300}},
		{"125 percent", 2400, 1350, image.Rect(0, 0, 1920, 1080), Point{250, 125}, Point{200, 100}},
		{"secondary display", 1920, 1080, image.Rect(1920, 0, 3840, 1080), Point{10, 20}, Point{1930, 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ct := NewCoordinateTranslator(tt.frameW, tt.frameH, tt.display)
			if err := ct.Validate(); err != nil {
				t.Fatalf("Validate failed: %v", err)
			}
			if got := ct.TranslatePoint(tt.in); got != tt.want {
				t.Errorf("TranslatePoint(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestCoordinateTranslatorUnknownSize(t *testing.T) {
	ct := NewCoordinateTranslator(0, 0, image.Rectangle{})
	if err := ct.Validate(); err == nil {
		t.Error("Expected invalid translator")
	}
	if sx, sy := ct.GetScaleFactors(); sx != 1 || sy != 1 {
		t.Errorf("Expected unit scale, got %v,%v", sx, sy)
	}
	if got := ct.TranslatePoint(Point{7, 9}); got != (Point{7, 9}) {
		t.Errorf("Expected identity, got %v", got)
	}
}
