package imagecodec

import "bytes"

// Format tags a decoded/encoded image's underlying container.
type Format string

const (
	JPEG  Format = "jpeg"
	PNG   Format = "png"
	WebP  Format = "webp"
	HEIF  Format = "heif"
	Other Format = "other"
)

var (
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}
)

// probeFormat inspects the leading bytes of data and returns the detected
// container format, following the strict magic-byte order of §4.3 step 1.
// It never returns an error; callers treat Other as "unsupported".
func probeFormat(data []byte) Format {
	switch {
	case bytes.HasPrefix(data, jpegMagic):
		return JPEG
	case bytes.HasPrefix(data, pngMagic):
		return PNG
	case len(data) >= 12 && bytes.Equal(data[0:4], []byte("RIFF")) && bytes.Equal(data[8:12], []byte("WEBP")):
		return WebP
	case len(data) >= 12 && bytes.Equal(data[4:8], []byte("ftyp")) && isHEIFBrand(data[8:12]):
		return HEIF
	default:
		return Other
	}
}

func isHEIFBrand(brand []byte) bool {
	switch string(brand) {
	case "heic", "heix", "hevc", "hevx", "mif1", "msf1":
		return true
	default:
		return false
	}
}
