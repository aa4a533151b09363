package components

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
)

var (
	badgeGray   = color.NRGBA{R: 140, G: 140, B: 140, A: 255}
	badgeGreen  = color.NRGBA{R: 76, G: 175, B: 80, A: 255}
	badgeOrange = color.NRGBA{R: 255, G: 152, B: 0, A: 255}
	badgeRed    = color.NRGBA{R: 244, G: 67, B: 54, A: 255}
	badgeBlue   = color.NRGBA{R: 33, G: 150, B: 243, A: 255}
)

// StatusColor maps scheduler states and session statuses onto a color
func StatusColor(status string) color.Color {
	switch status {
	case "RUNNING", "running", "IDLE":
		return badgeGreen
	case "PERK_SELECTING":
		return badgeBlue
	case "APP MISSING", "aborted":
		return badgeOrange
	case "ERROR":
		return badgeRed
	default:
		return badgeGray
	}
}

// Badge is a colored status label that can be updated in place
type Badge struct {
	bg    *canvas.Rectangle
	label *widget.Label
	box   *fyne.Container
}

// NewBadge creates a badge showing status
func NewBadge(status string) *Badge {
	b := &Badge{
		bg:    canvas.NewRectangle(StatusColor(status)),
		label: widget.NewLabel(status),
	}
	b.bg.CornerRadius = 8
	b.label.TextStyle = fyne.TextStyle{Bold: true}
	b.box = container.NewStack(b.bg, b.label)
	return b
}

// SetStatus changes text and color. Call on the UI goroutine.
func (b *Badge) SetStatus(status string) {
	if b.label.Text == status {
		return
	}
	b.label.SetText(status)
	b.bg.FillColor = StatusColor(status)
	b.bg.Refresh()
}

// Status returns the displayed text
func (b *Badge) Status() string {
	return b.label.Text
}

// Object returns the canvas object to place in a layout
func (b *Badge) Object() fyne.CanvasObject {
	return b.box
}
