package imagecodec

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/webp"
)

// Decoder decodes raw bytes of a known Format into an image.Image. The
// adapter is stateless; implementations must be safe for concurrent use,
// which is the backend's responsibility per §4.3.
type Decoder interface {
	Decode(data []byte, format Format) (image.Image, error)
}

// Encoder encodes an image.Image to bytes at the given quality (0-100,
// meaning is encoder-specific; JPEG uses it directly).
type Encoder interface {
	Encode(img image.Image, format Format, quality int) ([]byte, error)
}

// Backend bundles a Decoder and Encoder pair. §9's Open Question (c) asks
// implementers to pick a single codec backend; DefaultBackend is that
// choice here: pure-Go stdlib + golang.org/x/image, no cgo.
type Backend interface {
	Decoder
	Encoder
}

// defaultBackend decodes JPEG/PNG/WebP and encodes JPEG/PNG. HEIF decode
// requires a cgo binding to libheif that the pure-Go pack this module was
// grounded on does not provide; defaultBackend reports it as unsupported
// rather than silently producing a garbage frame. See DESIGN.md.
type defaultBackend struct{}

// DefaultBackend is the adapter's built-in, cgo-free backend.
func DefaultBackend() Backend { return defaultBackend{} }

func (defaultBackend) Decode(data []byte, format Format) (image.Image, error) {
	switch format {
	case JPEG:
		return jpeg.Decode(bytes.NewReader(data))
	case PNG:
		return png.Decode(bytes.NewReader(data))
	case WebP:
		return webp.Decode(bytes.NewReader(data))
	case HEIF:
		return nil, fmt.Errorf("imagecodec: HEIF decode requires a cgo backend, none configured")
	default:
		return nil, fmt.Errorf("imagecodec: unsupported format %q", format)
	}
}

func (defaultBackend) Encode(img image.Image, format Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case JPEG, "":
		if quality <= 0 || quality > 100 {
			quality = 85
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	case PNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("imagecodec: unsupported encode target %q", format)
	}
	return buf.Bytes(), nil
}
