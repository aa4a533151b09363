package cv

import (
	"errors"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// DefaultMatchThreshold is the minimum TM_CCOEFF_NORMED score for a template hit
const DefaultMatchThreshold = 0.70

// BrightPixelThreshold is the gray level a pixel must exceed to count as lit
const BrightPixelThreshold = 250

// MatchResult contains template matching results
type MatchResult struct {
	Found      bool
	Location   image.Point
	Confidence float64
}

// Error types
var (
	ErrTemplateTooLarge = errors.New("template larger than search image")
	ErrInvalidImage     = errors.New("invalid image provided")
)

// FindTemplate slides needle over haystack and returns the best
// mean-subtracted normalized correlation (TM_CCOEFF_NORMED, -1..1).
func FindTemplate(haystack, needle *image.Gray, threshold float64) (*MatchResult, error) {
	if haystack == nil || needle == nil {
		return nil, ErrInvalidImage
	}

	hb := haystack.Bounds()
	nb := needle.Bounds()
	if nb.Dx() == 0 || nb.Dy() == 0 {
		return nil, ErrInvalidImage
	}
	if nb.Dx() > hb.Dx() || nb.Dy() > hb.Dy() {
		return nil, ErrTemplateTooLarge
	}

	best := math.Inf(-1)
	bestLocation := image.Point{}
	for y := 0; y <= hb.Dy()-nb.Dy(); y++ {
		for x := 0; x <= hb.Dx()-nb.Dx(); x++ {
			score := matchCCoeffNormed(haystack, needle, x, y)
			if score > best {
				best = score
				bestLocation = image.Point{X: x, Y: y}
			}
		}
	}

	return &MatchResult{
		Found:      best >= threshold,
		Location:   bestLocation,
		Confidence: best,
	}, nil
}

// matchCCoeffNormed correlates needle against the haystack window at (x, y),
// both measured from their own bounds origin
func matchCCoeffNormed(haystack, needle *image.Gray, x, y int) float64 {
	hb := haystack.Bounds()
	nb := needle.Bounds()
	w, h := nb.Dx(), nb.Dy()

	var sumH, sumN, sumHN, sumHH, sumNN float64
	for ny := 0; ny < h; ny++ {
		hRow := haystack.Pix[(hb.Min.Y-haystack.Rect.Min.Y+y+ny)*haystack.Stride+(hb.Min.X-haystack.Rect.Min.X+x):]
		nRow := needle.Pix[(nb.Min.Y-needle.Rect.Min.Y+ny)*needle.Stride+(nb.Min.X-needle.Rect.Min.X):]
		for nx := 0; nx < w; nx++ {
			hv := float64(hRow[nx])
			nv := float64(nRow[nx])
			sumH += hv
			sumN += nv
			sumHN += hv * nv
			sumHH += hv * hv
			sumNN += nv * nv
		}
	}

	count := float64(w * h)
	numerator := sumHN - sumH*sumN/count
	varH := sumHH - sumH*sumH/count
	varN := sumNN - sumN*sumN/count
	if varH <= 1e-9 || varN <= 1e-9 {
		// flat window or flat template carries no signal
		return 0
	}

	corr := numerator / math.Sqrt(varH*varN)
	return math.Max(-1, math.Min(1, corr))
}

// MatchScore scores a template against a crop. A template whose size
// differs from the crop is resized to the crop first; the crop itself
// is never rescaled.
func MatchScore(crop, template *image.Gray) float64 {
	if crop == nil || template == nil || crop.Bounds().Empty() || template.Bounds().Empty() {
		return 0
	}
	return scoreTemplate(crop, template)
}

// ResizeGray scales src to w x h. Shrinking averages every source pixel
// by the area it covers in the destination pixel, like OpenCV's
// INTER_AREA. Enlarging on either axis falls back to bilinear.
func ResizeGray(src *image.Gray, w, h int) *image.Gray {
	dst := image.NewGray(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	if w <= 0 || h <= 0 || sb.Empty() {
		return dst
	}
	if w > sb.Dx() || h > sb.Dy() {
		draw.BiLinear.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
		return dst
	}

	xs := areaWeights(sb.Dx(), w)
	ys := areaWeights(sb.Dy(), h)
	for dy, ytaps := range ys {
		row := dst.Pix[dy*dst.Stride:]
		for dx, xtaps := range xs {
			var sum float64
			for _, ty := range ytaps {
				line := src.Pix[src.PixOffset(sb.Min.X, sb.Min.Y+ty.index):]
				var acc float64
				for _, tx := range xtaps {
					acc += float64(line[tx.index]) * tx.weight
				}
				sum += acc * ty.weight
			}
			row[dx] = uint8(math.Min(255, math.Round(sum)))
		}
	}
	return dst
}

type areaTap struct {
	index  int
	weight float64
}

// areaWeights maps each of dst cells onto the src cells it overlaps.
// The weights of one cell sum to 1.
func areaWeights(src, dst int) [][]areaTap {
	scale := float64(src) / float64(dst)
	taps := make([][]areaTap, dst)
	for d := range taps {
		start := float64(d) * scale
		end := start + scale
		for s := int(start); s < src && float64(s) < end; s++ {
			lo := math.Max(start, float64(s))
			hi := math.Min(end, float64(s+1))
			if hi > lo {
				taps[d] = append(taps[d], areaTap{index: s, weight: (hi - lo) / scale})
			}
		}
	}
	return taps
}

// ToGray converts an image to 8-bit luminance
func ToGray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	if rgba, ok := img.(*image.RGBA); ok {
		for y := 0; y < bounds.Dy(); y++ {
			src := rgba.Pix[(bounds.Min.Y-rgba.Rect.Min.Y+y)*rgba.Stride+(bounds.Min.X-rgba.Rect.Min.X)*4:]
			dst := gray.Pix[y*gray.Stride:]
			for x := 0; x < bounds.Dx(); x++ {
				dst[x] = luminance(src[x*4], src[x*4+1], src[x*4+2])
			}
		}
		return gray
	}

	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
			gray.Pix[y*gray.Stride+x] = luminance(uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}
	return gray
}

func luminance(r, g, b uint8) uint8 {
	return uint8((int(r)*299 + int(g)*587 + int(b)*114) / 1000)
}

// CropGray cuts the region out of the frame as a grayscale image with
// its origin at (0,0). The region is clipped to the frame; nil means
// nothing of it was on screen.
func CropGray(frame *image.RGBA, r Region) *image.Gray {
	if frame == nil {
		return nil
	}
	rect := r.Rect().Intersect(frame.Bounds())
	if rect.Empty() {
		return nil
	}
	return ToGray(frame.SubImage(rect))
}

// HasBrightPixel reports whether any pixel in the region is brighter than
// threshold after grayscale conversion
func HasBrightPixel(frame *image.RGBA, r Region, threshold uint8) bool {
	if frame == nil {
		return false
	}
	rect := r.Rect().Intersect(frame.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		row := frame.Pix[(y-frame.Rect.Min.Y)*frame.Stride:]
		for x := rect.Min.X; x < rect.Max.X; x++ {
			idx := (x - frame.Rect.Min.X) * 4
			if luminance(row[idx], row[idx+1], row[idx+2]) > threshold {
				return true
			}
		}
	}
	return false
}

// CropRegion extracts a region from an image as a standalone RGBA copy
func CropRegion(img *image.RGBA, r Region) *image.RGBA {
	rect := r.Rect().Intersect(img.Bounds())
	cropped := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(cropped, cropped.Bounds(), img, rect.Min, draw.Src)
	return cropped
}
