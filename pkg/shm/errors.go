package shm

import (
	"errors"

	internalshm "github.com/srediag/shmseg/internal/shm"
)

// Error kinds returned by segment operations. Match them with errors.Is.
var (
	// ErrNotFound is returned when attaching to a name with no backing object.
	ErrNotFound = internalshm.ErrNotFound
	// ErrAlreadyExists is returned when creating a name that is already in use.
	ErrAlreadyExists = internalshm.ErrAlreadyExists
	// ErrOutOfBounds is returned when offset+length exceeds the segment size.
	ErrOutOfBounds = internalshm.ErrOutOfBounds
	// ErrClosed is returned by any access after Close.
	ErrClosed = internalshm.ErrClosed
	// ErrPlatform matches every failure of the underlying kernel calls.
	ErrPlatform = internalshm.ErrPlatform

	// The kinds below always arrive wrapped in a *PlatformError.

	// ErrInvalidName is returned for names the backend cannot store.
	ErrInvalidName = internalshm.ErrInvalidName
	// ErrInvalidSize is returned for a non-positive create size, a create above
	// Config.MaxSegmentSize, or an attach view larger than the object.
	ErrInvalidSize = internalshm.ErrInvalidSize
	// ErrNotSized is returned, together with ErrInvalidSize, when an attach finds
	// an object its creator has not sized yet. AttachWithRetry retries it.
	ErrNotSized = internalshm.ErrNotSized
	// ErrNoSpace is returned when the shared memory filesystem cannot back a create.
	ErrNoSpace = internalshm.ErrNoSpace
	// ErrUnsupported is returned for a backend not compiled for this platform.
	ErrUnsupported = internalshm.ErrUnsupported
)

// PlatformError describes a failed kernel call. It always matches ErrPlatform.
type PlatformError = internalshm.PlatformError

// errorKind maps err onto a short label for metrics and audit events.
func errorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrOutOfBounds):
		return "out_of_bounds"
	case errors.Is(err, ErrClosed):
		return "closed"
	case errors.Is(err, ErrPlatform):
		return "platform"
	}
	return "other"
}
