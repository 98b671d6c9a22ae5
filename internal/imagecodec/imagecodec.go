// Package imagecodec implements the decode -> normalize -> encode
// pipeline (§4.3) that turns arbitrary ingested image bytes into a
// DAB-compliant, size-bounded re-encoded payload. The Adapter is
// stateless; concurrency safety is delegated to the Backend.
package imagecodec

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"
)

// Sentinel errors match the taxonomy of spec.md §7.
var (
	ErrUnsupportedFormat = errors.New("imagecodec: unsupported format")
	ErrSizeExceeded      = errors.New("imagecodec: no quality level fits the byte cap")
	ErrCodecTimeout      = errors.New("imagecodec: decode/encode timed out")
)

// qualityLadder is the ordered JPEG quality sequence tried in step 5,
// highest quality first, per §4.3.
var qualityLadder = []int{95, 85, 75, 65, 55, 50}

// Options configures a single Process call.
type Options struct {
	MaxWidth     int
	MaxHeight    int
	MaxBytes     int
	TargetFormat Format        // default JPEG
	Timeout      time.Duration // default 2s, per §5
}

// Result is the adapter's output: the final encoded payload plus the
// metadata the Slideshow Engine needs for its Image Entry.
type Result struct {
	Payload    []byte
	Format     Format
	Width      int
	Height     int
	Sharpness  float64
	Contrast   float64
	Brightness float64
}

// Adapter runs the decode/normalize/encode pipeline against a Backend.
type Adapter struct {
	backend Backend
}

// New constructs an Adapter around the given Backend. Pass DefaultBackend()
// for the stock pure-Go pipeline.
func New(backend Backend) *Adapter {
	return &Adapter{backend: backend}
}

// Process runs the full pipeline: probe, decode, normalize, resize,
// encode-with-size-targeting. It respects opts.Timeout via ctx and returns
// ErrCodecTimeout if the deadline is exceeded before completion.
func (a *Adapter) Process(ctx context.Context, raw []byte, opts Options) (Result, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 2 * time.Second
	}
	if opts.TargetFormat == "" {
		opts.TargetFormat = JPEG
	}
	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	type out struct {
		res Result
		err error
	}
	ch := make(chan out, 1)
	go func() {
		res, err := a.process(raw, opts)
		ch <- out{res, err}
	}()

	select {
	case <-ctx.Done():
		return Result{}, ErrCodecTimeout
	case o := <-ch:
		return o.res, o.err
	}
}

func (a *Adapter) process(raw []byte, opts Options) (Result, error) {
	format := probeFormat(raw)
	if format == Other {
		return Result{}, fmt.Errorf("%w: unrecognized magic bytes", ErrUnsupportedFormat)
	}

	decoded, err := a.backend.Decode(raw, format)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrUnsupportedFormat, format, err)
	}

	img := toNRGBA(decoded)
	normalizeHistogram(img)
	img = sharpen(img)

	sharpness, contrast, brightness := qualityAttributes(img)

	maxW, maxH := opts.MaxWidth, opts.MaxHeight
	if maxW <= 0 {
		maxW = 320
	}
	if maxH <= 0 {
		maxH = 240
	}
	img = resizeToFit(img, maxW, maxH)

	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = 50 * 1024
	}

	payload, err := a.encodeWithinCap(img, opts.TargetFormat, maxBytes)
	if err != nil {
		return Result{}, err
	}

	b := img.Bounds()
	return Result{
		Payload:    payload,
		Format:     opts.TargetFormat,
		Width:      b.Dx(),
		Height:     b.Dy(),
		Sharpness:  sharpness,
		Contrast:   contrast,
		Brightness: brightness,
	}, nil
}

// encodeWithinCap iterates the quality ladder and returns the highest
// quality encoding that fits maxBytes, per §4.3 step 5/6. Non-JPEG target
// formats (PNG) have no quality knob, so they either fit or fail outright.
func (a *Adapter) encodeWithinCap(img *image.NRGBA, format Format, maxBytes int) ([]byte, error) {
	if format != JPEG {
		payload, err := a.backend.Encode(img, format, 0)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		if len(payload) > maxBytes {
			return nil, fmt.Errorf("%w: %s payload %d bytes exceeds cap %d", ErrSizeExceeded, format, len(payload), maxBytes)
		}
		return payload, nil
	}

	var best []byte
	for _, q := range qualityLadder {
		payload, err := a.backend.Encode(img, JPEG, q)
		if err != nil {
			continue
		}
		if len(payload) <= maxBytes {
			best = payload
			break
		}
	}
	if best == nil {
		return nil, ErrSizeExceeded
	}
	return best, nil
}
