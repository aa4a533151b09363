// Package tesseract implements ocr.Reader on top of libtesseract.
package tesseract

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"sync"
	"time"

	"github.com/otiai10/gosseract/v2"

	"jordanella.com/tower-bot-go/internal/cv"
	"jordanella.com/tower-bot-go/internal/ocr"
)

// Reader serializes calls into a single tesseract client
type Reader struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New creates a reader for the given language, "eng" if empty
func New(language string) (*Reader, error) {
	if language == "" {
		language = "eng"
	}

	client := gosseract.NewClient()
	if err := client.SetLanguage(language); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set OCR language %q: %w", language, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_LINE); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set page segmentation mode: %w", err)
	}

	return &Reader{client: client}, nil
}

// ReadText preprocesses the region and runs recognition on it
func (r *Reader) ReadText(frame *image.RGBA, region cv.Region, charset string) (ocr.Result, error) {
	img := ocr.Preprocess(frame, region)
	if img == nil {
		return ocr.Result{}, nil
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return ocr.Result{}, fmt.Errorf("failed to encode region: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.client.SetWhitelist(charset); err != nil {
		return ocr.Result{}, fmt.Errorf("failed to set whitelist: %w", err)
	}
	if err := r.client.SetImageFromBytes(buf.Bytes()); err != nil {
		return ocr.Result{}, fmt.Errorf("failed to load image: %w", err)
	}

	start := time.Now()
	text, err := r.client.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("recognition failed: %w", err)
	}

	return ocr.Result{
		Text:    ocr.Normalize(text),
		Elapsed: time.Since(start),
	}, nil
}

// Close releases the tesseract client
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.client.Close()
}
