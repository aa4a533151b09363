package ocr

import (
	"image"
	"math"

	"github.com/nfnt/resize"

	"jordanella.com/tower-bot-go/internal/cv"
)

// Preprocessing constants tuned for the game's flat UI font
const (
	UpscaleFactor  = 1.5
	ContrastFactor = 1.5
	SharpenFactor  = 1.2
	BinarizeLevel  = 160
)

// Preprocess turns a region of the frame into a binarized, upscaled
// grayscale image that tesseract reads reliably. Nil means the region
// is entirely off-frame.
func Preprocess(frame *image.RGBA, region cv.Region) *image.Gray {
	crop := cv.CropGray(frame, region)
	if crop == nil {
		return nil
	}

	b := crop.Bounds()
	w := uint(math.Max(1, float64(b.Dx())*UpscaleFactor))
	h := uint(math.Max(1, float64(b.Dy())*UpscaleFactor))
	scaled := cv.ToGray(resize.Resize(w, h, crop, resize.Lanczos3))

	adjustContrast(scaled, ContrastFactor)
	scaled = sharpen(scaled, SharpenFactor)
	binarize(scaled, BinarizeLevel)
	return scaled
}

// adjustContrast stretches pixels away from the image mean
func adjustContrast(img *image.Gray, factor float64) {
	if len(img.Pix) == 0 {
		return
	}
	var sum float64
	for _, v := range img.Pix {
		sum += float64(v)
	}
	mean := math.Floor(sum/float64(len(img.Pix)) + 0.5)
	for i, v := range img.Pix {
		img.Pix[i] = clamp(mean + factor*(float64(v)-mean))
	}
}

// sharpen blends the image away from a 3x3 smoothed copy. Border pixels
// are kept as-is.
func sharpen(img *image.Gray, factor float64) *image.Gray {
	b := img.Bounds()
	out := image.NewGray(b)
	copy(out.Pix, img.Pix)
	if b.Dx() < 3 || b.Dy() < 3 {
		return out
	}

	for y := 1; y < b.Dy()-1; y++ {
		for x := 1; x < b.Dx()-1; x++ {
			var acc float64
			for dy := -1; dy <= 1; dy++ {
				row := (y + dy) * img.Stride
				for dx := -1; dx <= 1; dx++ {
					weight := 1.0
					if dx == 0 && dy == 0 {
						weight = 5
					}
					acc += weight * float64(img.Pix[row+x+dx])
				}
			}
			smooth := acc / 13
			orig := float64(img.Pix[y*img.Stride+x])
			out.Pix[y*out.Stride+x] = clamp(smooth + factor*(orig-smooth))
		}
	}
	return out
}

func binarize(img *image.Gray, level uint8) {
	for i, v := range img.Pix {
		if v > level {
			img.Pix[i] = 255
		} else {
			img.Pix[i] = 0
		}
	}
}

func clamp(v float64) uint8 {
	v = math.Round(v)
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
