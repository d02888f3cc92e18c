package shm

import "errors"

// Sentinel errors returned by the mapping and layout constructors.
//
// Callers should use [errors.Is] to classify failures. Hot-path operations
// in the seqlock, ring, daemon, and shell packages never return these; they
// encode failure as a zero length, false, or none.
var (
	// ErrNameExists indicates a shared-memory object of the requested name
	// already existed at create time. Create removes any such object first
	// and never returns this error.
	ErrNameExists = errors.New("shm: name exists")

	// ErrNotFound indicates no shared-memory object of that name exists.
	ErrNotFound = errors.New("shm: not found")

	// ErrMappingFailed indicates the OS refused to create, size, or map
	// the shared-memory object.
	ErrMappingFailed = errors.New("shm: mapping failed")

	// ErrInvalidLayout indicates a channel's magic, version, or sizes did
	// not match attach-time expectations.
	ErrInvalidLayout = errors.New("shm: invalid layout")

	// ErrTooSmall indicates the backing object is smaller than the fixed
	// channel header and cannot possibly hold a valid channel.
	ErrTooSmall = errors.New("shm: too small")
)
