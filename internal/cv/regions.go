package cv

import (
	"fmt"
	"image"
)

// Region is an axis-aligned rectangle in frame pixel coordinates
type Region struct {
	X, Y          int
	Width, Height int
}

// Point is a tap target in frame pixel coordinates
type Point struct {
	X, Y int
}

// NewRegion creates a new region
func NewRegion(x, y, width, height int) Region {
	return Region{X: x, Y: y, Width: width, Height: height}
}

// Center returns the tap point for the region, rounding toward the origin
func (r Region) Center() Point {
	return Point{X: r.X + r.Width/2, Y: r.Y + r.Height/2}
}

// Contains checks if a point is within the region
func (r Region) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Rect converts the region to an image.Rectangle
func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

// Validate rejects empty regions
func (r Region) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("region %dx%d at (%d,%d) has non-positive size", r.Width, r.Height, r.X, r.Y)
	}
	return nil
}

// Slice returns the region as [x, y, w, h] for persistence
func (r Region) Slice() []int {
	return []int{r.X, r.Y, r.Width, r.Height}
}

func (r Region) String() string {
	return fmt.Sprintf("[%d,%d,%d,%d]", r.X, r.Y, r.Width, r.Height)
}

// Slice returns the point as [x, y] for persistence
func (p Point) Slice() []int {
	return []int{p.X, p.Y}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}
