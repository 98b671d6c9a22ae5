package slideshow

import "errors"

// Sentinel errors, matching the taxonomy of spec.md §7.
var (
	ErrInvalidInput      = errors.New("slideshow: invalid input")
	ErrDuplicate         = errors.New("slideshow: duplicate content")
	ErrNoContent         = errors.New("slideshow: cache is empty")
	ErrResourceExhausted = errors.New("slideshow: cache full, no evictable entry")
)

// PathValidator delegates the "is this path inside a configured ingest
// root" decision to an external collaborator (§4.4 Ingest).
type PathValidator interface {
	Allowed(path string) bool
}

// AllowAllPaths is a PathValidator that accepts every path; useful for
// tests and single-root deployments where the OS directory listing is
// already the trust boundary.
type AllowAllPaths struct{}

// Allowed always returns true.
func (AllowAllPaths) Allowed(string) bool { return true }
