//go:build !gocv

package cv

import "image"

func scoreTemplate(crop, template *image.Gray) float64 {
	cb := crop.Bounds()
	if tb := template.Bounds(); tb.Dx() != cb.Dx() || tb.Dy() != cb.Dy() {
		template = ResizeGray(template, cb.Dx(), cb.Dy())
	}

	result, err := FindTemplate(crop, template, DefaultMatchThreshold)
	if err != nil {
		return 0
	}
	return result.Confidence
}
