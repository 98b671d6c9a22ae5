package imagecodec

import (
	"image"

	"golang.org/x/image/draw"
)

// resizeToFit scales img down so max(width,height) <= cap, preserving
// aspect ratio, using bicubic (CatmullRom) interpolation per §4.3 step 4.
// If img already fits, it is returned unchanged.
func resizeToFit(img *image.NRGBA, maxW, maxH int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= maxW && h <= maxH {
		return img
	}

	scale := float64(maxW) / float64(w)
	if alt := float64(maxH) / float64(h); alt < scale {
		scale = alt
	}
	newW := maxInt(1, int(float64(w)*scale))
	newH := maxInt(1, int(float64(h)*scale))

	dst := image.NewNRGBA(image.Rect(0, 0, newW, newH))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Over, nil)
	return dst
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
