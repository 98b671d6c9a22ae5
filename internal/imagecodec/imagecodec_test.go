package imagecodec

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sampleImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{
				R: uint8((x * 255) / w),
				G: uint8((y * 255) / h),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func encodeJPEG(t *testing.T, w, h, quality int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, sampleImage(w, h), &jpeg.Options{Quality: quality}))
	return buf.Bytes()
}

func encodePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, sampleImage(w, h)))
	return buf.Bytes()
}

func TestProbeFormat(t *testing.T) {
	require.Equal(t, JPEG, probeFormat(encodeJPEG(t, 4, 4, 90)))
	require.Equal(t, PNG, probeFormat(encodePNG(t, 4, 4)))
	require.Equal(t, Other, probeFormat([]byte("not an image")))

	webpHeader := append([]byte("RIFF\x00\x00\x00\x00WEBP"), []byte("VP8 ")...)
	require.Equal(t, WebP, probeFormat(webpHeader))

	heifHeader := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
	require.Equal(t, HEIF, probeFormat(heifHeader))
}

func TestProcessJPEGWithinCap(t *testing.T) {
	a := New(DefaultBackend())
	raw := encodeJPEG(t, 800, 600, 95)

	res, err := a.Process(context.Background(), raw, Options{
		MaxWidth: 320, MaxHeight: 240, MaxBytes: 50 * 1024,
	})
	require.NoError(t, err)
	require.LessOrEqual(t, len(res.Payload), 50*1024)
	require.LessOrEqual(t, res.Width, 320)
	require.LessOrEqual(t, res.Height, 240)
	require.Equal(t, JPEG, res.Format)
	require.GreaterOrEqual(t, res.Sharpness, 0.0)
	require.LessOrEqual(t, res.Sharpness, 1.0)
}

func TestProcessUnsupportedFormat(t *testing.T) {
	a := New(DefaultBackend())
	_, err := a.Process(context.Background(), []byte("garbage"), Options{})
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestProcessHEIFUnsupportedByDefaultBackend(t *testing.T) {
	a := New(DefaultBackend())
	heifHeader := append([]byte{0, 0, 0, 24}, []byte("ftypheic")...)
	heifHeader = append(heifHeader, make([]byte, 16)...)
	_, err := a.Process(context.Background(), heifHeader, Options{})
	require.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestProcessSizeExceededWhenTinyCap(t *testing.T) {
	a := New(DefaultBackend())
	raw := encodeJPEG(t, 800, 600, 95)
	_, err := a.Process(context.Background(), raw, Options{MaxBytes: 10})
	require.ErrorIs(t, err, ErrSizeExceeded)
}

func TestProcessRespectsTimeout(t *testing.T) {
	a := New(slowBackend{DefaultBackend()})
	raw := encodeJPEG(t, 10, 10, 90)
	_, err := a.Process(context.Background(), raw, Options{Timeout: 5 * time.Millisecond})
	require.ErrorIs(t, err, ErrCodecTimeout)
}

type slowBackend struct{ Backend }

func (s slowBackend) Decode(data []byte, format Format) (image.Image, error) {
	time.Sleep(50 * time.Millisecond)
	return s.Backend.Decode(data, format)
}

func TestResizePreservesAspectRatio(t *testing.T) {
	img := sampleImage(800, 400)
	out := resizeToFit(img, 320, 240)
	b := out.Bounds()
	require.LessOrEqual(t, b.Dx(), 320)
	require.LessOrEqual(t, b.Dy(), 240)
	// aspect ratio ~2:1 preserved
	require.InDelta(t, 2.0, float64(b.Dx())/float64(b.Dy()), 0.1)
}

func TestResizeNoopWhenWithinBounds(t *testing.T) {
	img := sampleImage(100, 50)
	out := resizeToFit(img, 320, 240)
	b := out.Bounds()
	require.Equal(t, 100, b.Dx())
	require.Equal(t, 50, b.Dy())
}

func TestQualityAttributesRange(t *testing.T) {
	img := sampleImage(50, 50)
	normalizeHistogram(img)
	sh, co, br := qualityAttributes(img)
	for _, v := range []float64{sh, co, br} {
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 1.0)
	}
}
