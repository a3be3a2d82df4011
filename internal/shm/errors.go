package shm

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("shm: segment not found")
	ErrAlreadyExists = errors.New("shm: segment already exists")
	ErrOutOfBounds   = errors.New("shm: access out of bounds")
	ErrClosed        = errors.New("shm: segment closed")
	ErrPlatform      = errors.New("shm: platform error")

	// The following are always delivered inside a *PlatformError.
	ErrInvalidName = errors.New("invalid segment name")
	ErrInvalidSize = errors.New("invalid segment size")
	ErrNoSpace     = errors.New("not enough space in shared memory namespace")
	ErrUnsupported = errors.New("shared memory backend not supported on this platform")
	// ErrNotSized accompanies ErrInvalidSize when an attach finds an object whose
	// creator has not sized it yet.
	ErrNotSized = errors.New("existing object not sized yet")
)

// PlatformError reports a kernel call that failed for a reason outside the
// segment layer's control. errors.Is(err, ErrPlatform) holds for every PlatformError.
type PlatformError struct {
	Op   string
	Name string
	Err  error
}

func (e *PlatformError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("shm: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("shm: %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *PlatformError) Unwrap() error { return e.Err }

func (e *PlatformError) Is(target error) bool { return target == ErrPlatform }

// wrapErr normalizes a raw kernel error into one of the contract kinds.
func wrapErr(op, name string, err error) error {
	if err == nil {
		return nil
	}
	if kind := classify(err); kind != nil {
		return fmt.Errorf("%w: %s %s", kind, op, name)
	}
	return &PlatformError{Op: op, Name: name, Err: err}
}

func isAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}
