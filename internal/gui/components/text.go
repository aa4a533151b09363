// Package components holds the small widget helpers shared by the tabs.
package components

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
)

// Heading creates a large bold title for the top of a tab
func Heading(text string) *widget.RichText {
	return styled(text, theme.SizeNameHeadingText, fyne.TextStyle{Bold: true})
}

// Subheading creates a section title
func Subheading(text string) *widget.RichText {
	return styled(text, theme.SizeNameSubHeadingText, fyne.TextStyle{Bold: true})
}

// Caption creates small hint text
func Caption(text string) *widget.RichText {
	return styled(text, theme.SizeNameCaptionText, fyne.TextStyle{})
}

// MonospaceLabel creates a label for numbers that change every tick, so
// the layout does not jitter
func MonospaceLabel(text string) *widget.Label {
	label := widget.NewLabel(text)
	label.TextStyle = fyne.TextStyle{Monospace: true}
	return label
}

func styled(text string, size fyne.ThemeSizeName, style fyne.TextStyle) *widget.RichText {
	return widget.NewRichText(
		&widget.TextSegment{
			Text: text,
			Style: widget.RichTextStyle{
				SizeName:  size,
				TextStyle: style,
				ColorName: theme.ColorNameForeground,
			},
		},
	)
}
