// Package slideshow owns the MOT SlideShow image carousel: deduplicating
// ingest, quality/freshness scoring, rotation, and MOT-object framing.
// The cache is exclusively owned by this package; the Coordinator only
// ever sees read-only snapshots (§3 Ownership).
package slideshow

import (
	"time"

	"github.com/sekz/ODR-PadEnc/internal/fingerprint"
	"github.com/sekz/ODR-PadEnc/internal/imagecodec"
)

// Entry is an immutable-after-construction, clonable snapshot of a cached
// image (§3 Image Entry). The cache mutates the live copy under its
// mutex; NextImage returns a cloned copy so callers never observe a partially
// updated entry.
type Entry struct {
	Fingerprint fingerprint.Fingerprint
	Filename    string // advisory only

	Payload []byte
	Format  imagecodec.Format

	Width, Height int

	Sharpness, Contrast, Brightness float64
	ByteLength                      int

	CreatedAt    time.Time
	LastServedAt time.Time
	ServeCount   int
	Freshness    float64

	Optimized bool

	TransportID uint32
}

// Clone returns a deep-enough copy: Payload is shared (treated as
// immutable once written), every other field is a value copy.
func (e Entry) Clone() Entry {
	return e
}

// score implements the smart-selection formula from §4.4:
// 0.3*sharpness + 0.2*contrast + 0.1*(1-brightness) + 0.4*freshness.
func (e Entry) score() float64 {
	return 0.3*e.Sharpness + 0.2*e.Contrast + 0.1*(1-e.Brightness) + 0.4*e.Freshness
}

// evictionScore implements §4.4's eviction key:
// 0.6*freshness + 0.4*((sharpness+contrast)/2). The entry with the lowest
// score is evicted first.
func (e Entry) evictionScore() float64 {
	return 0.6*e.Freshness + 0.4*((e.Sharpness+e.Contrast)/2)
}
