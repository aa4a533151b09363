//go:build gocv

package cv

import (
	"image"

	"gocv.io/x/gocv"
)

// scoreTemplate runs the match through OpenCV. Built with -tags gocv.
func scoreTemplate(crop, template *image.Gray) float64 {
	cropMat, err := gocv.ImageGrayToMatGray(crop)
	if err != nil {
		return 0
	}
	defer cropMat.Close()

	tmplMat, err := gocv.ImageGrayToMatGray(template)
	if err != nil {
		return 0
	}
	defer tmplMat.Close()

	cb := crop.Bounds()
	if tmplMat.Cols() != cb.Dx() || tmplMat.Rows() != cb.Dy() {
		resized := gocv.NewMat()
		defer resized.Close()
		gocv.Resize(tmplMat, &resized, image.Point{X: cb.Dx(), Y: cb.Dy()}, 0, 0, gocv.InterpolationArea)
		tmplMat, resized = resized, tmplMat
	}

	result := gocv.NewMat()
	defer result.Close()
	mask := gocv.NewMat()
	defer mask.Close()

	gocv.MatchTemplate(cropMat, tmplMat, &result, gocv.TmCcoeffNormed, mask)
	_, maxVal, _, _ := gocv.MinMaxLoc(result)
	return float64(maxVal)
}
