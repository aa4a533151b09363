// Package ocr reads short single-line labels out of screen regions.
package ocr

import (
	"image"
	"strings"
	"time"

	"jordanella.com/tower-bot-go/internal/cv"
)

// DigitCharset restricts recognition to the wave counter's glyphs
const DigitCharset = "0123456789"

// Result is the normalized text of one region and how long it took
type Result struct {
	Text    string
	Elapsed time.Duration
}

// Reader extracts text from a region of a frame. An empty charset means
// no restriction. Implementations return lowercase, whitespace-normalized
// text.
type Reader interface {
	ReadText(frame *image.RGBA, region cv.Region, charset string) (Result, error)
}

// Closer is implemented by readers holding native resources
type Closer interface {
	Close() error
}

// Normalize lowercases text and collapses all whitespace runs to one space
func Normalize(text string) string {
	return strings.ToLower(strings.Join(strings.Fields(text), " "))
}

// Null is the reader used when no OCR engine is available. It always
// returns empty text, so every text check reads as absent.
type Null struct{}

// ReadText returns an empty result
func (Null) ReadText(*image.RGBA, cv.Region, string) (Result, error) {
	return Result{}, nil
}
