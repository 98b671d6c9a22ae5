package dls

import "errors"

var (
	// ErrInvalidInput covers malformed text (e.g. empty after normalization).
	ErrInvalidInput = errors.New("dls: invalid input")
	// ErrDuplicate is returned by Add on a dedup-window hit.
	ErrDuplicate = errors.New("dls: duplicate within dedup window")
	// ErrNoMatch is returned by Next when no candidate survives the filter.
	ErrNoMatch = errors.New("dls: no matching candidate")
)
