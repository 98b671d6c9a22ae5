// Package fingerprint computes the content digests used for deduplication
// by both the slideshow cache and the DLS queue. It has no state: the same
// bytes always fingerprint to the same value, independent of process.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
)

// Fingerprint is a hex-encoded SHA-256 digest, used as a cache/queue key
// and as the dedup-window map key.
type Fingerprint string

// OfBytes fingerprints raw bytes, e.g. a re-encoded image payload.
func OfBytes(b []byte) Fingerprint {
	sum := sha256.Sum256(b)
	return Fingerprint(hex.EncodeToString(sum[:]))
}

// OfText fingerprints normalized text, e.g. a DLS message body.
func OfText(s string) Fingerprint {
	return OfBytes([]byte(s))
}
