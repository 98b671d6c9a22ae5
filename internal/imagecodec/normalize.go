package imagecodec

import (
	"image"
	"image/color"
	"math"
)

// toNRGBA converts any image.Image to 8-bit sRGB NRGBA, matching §4.3 step
//3's "convert to 8-bit sRGB" — every decoder above already produces 8-bit
// color, so this step is really a canonicalization to one concrete type
// the rest of the pipeline can address pixel-by-pixel.
func toNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	dst := image.NewNRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			dst.Set(x, y, src.At(x, y))
		}
	}
	return dst
}

// normalizeHistogram performs a simple linear contrast stretch: it maps
// the observed [min,max] luma range onto [0,255] per channel, the display
// profile's "normalize histogram" step.
func normalizeHistogram(img *image.NRGBA) {
	b := img.Bounds()
	var lo, hi uint8 = 255, 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			l := luma8(uint8(r>>8), uint8(g>>8), uint8(bl>>8))
			if l < lo {
				lo = l
			}
			if l > hi {
				hi = l
			}
		}
	}
	if hi <= lo {
		return // flat image, nothing to stretch
	}
	scale := 255.0 / float64(hi-lo)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			img.SetNRGBA(x, y, color.NRGBA{
				R: stretch(c.R, lo, scale),
				G: stretch(c.G, lo, scale),
				B: stretch(c.B, lo, scale),
				A: c.A,
			})
		}
	}
}

func stretch(v, lo uint8, scale float64) uint8 {
	f := (float64(v) - float64(lo)) * scale
	if f < 0 {
		f = 0
	}
	if f > 255 {
		f = 255
	}
	return uint8(math.Round(f))
}

func luma8(r, g, b uint8) uint8 {
	return uint8((299*int(r) + 587*int(g) + 114*int(b)) / 1000)
}

// sharpen applies a light unsharp-mask style 3x3 kernel, the display
// profile's "apply light sharpening" step.
func sharpen(img *image.NRGBA) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(b)
	kernel := [3][3]float64{
		{0, -0.15, 0},
		{-0.15, 1.6, -0.15},
		{0, -0.15, 0},
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			var rs, gs, bs float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					sx := clampInt(x+kx, b.Min.X, b.Max.X-1)
					sy := clampInt(y+ky, b.Min.Y, b.Max.Y-1)
					c := img.NRGBAAt(sx, sy)
					w := kernel[ky+1][kx+1]
					rs += float64(c.R) * w
					gs += float64(c.G) * w
					bs += float64(c.B) * w
				}
			}
			a := img.NRGBAAt(x, y).A
			out.SetNRGBA(x, y, color.NRGBA{R: clampU8(rs), G: clampU8(gs), B: clampU8(bs), A: a})
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampU8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(math.Round(v))
}

// qualityAttributes derives sharpness, contrast, brightness in [0,1] from
// a decoded (pre-encode) buffer, feeding the Slideshow Engine's Image
// Entry quality attributes (§3).
func qualityAttributes(img *image.NRGBA) (sharpness, contrast, brightness float64) {
	b := img.Bounds()
	n := (b.Dx()) * (b.Dy())
	if n == 0 {
		return 0, 0, 0
	}

	var sum, sumSq float64
	var gradSum float64
	lumas := make([]float64, 0, n)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := img.NRGBAAt(x, y)
			l := float64(luma8(c.R, c.G, c.B))
			lumas = append(lumas, l)
			sum += l
			sumSq += l * l
		}
	}
	mean := sum / float64(n)
	variance := sumSq/float64(n) - mean*mean
	if variance < 0 {
		variance = 0
	}
	contrast = math.Sqrt(variance) / 128.0
	if contrast > 1 {
		contrast = 1
	}
	brightness = mean / 255.0

	// Sharpness: mean absolute horizontal gradient, normalized.
	idx := func(x, y int) int { return (y-b.Min.Y)*b.Dx() + (x - b.Min.X) }
	count := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X-1; x++ {
			gradSum += math.Abs(lumas[idx(x+1, y)] - lumas[idx(x, y)])
			count++
		}
	}
	if count > 0 {
		sharpness = (gradSum / float64(count)) / 64.0
	}
	if sharpness > 1 {
		sharpness = 1
	}
	return sharpness, contrast, brightness
}
