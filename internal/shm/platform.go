// Package shm contains the platform backends behind the shared memory segment contract.
//
// Each backend maps a named kernel object into the address space and hands back a
// Region. Exactly one backend is the default for a build target; it is chosen in the
// backend_<os>.go files, never by branching at runtime.
package shm

import (
	"context"
)

// Kind identifies a backend implementation.
type Kind string

const (
	KindPOSIX       Kind = "posix"
	KindSysV        Kind = "sysv"
	KindWindows     Kind = "windows"
	KindUnsupported Kind = "unsupported"
)

// MapOptions defines options for mapping shared memory.
type MapOptions struct {
	Name string
	// Size is required when Create is set. On attach a non-zero Size narrows the
	// view to the first Size bytes of the existing object.
	Size   int
	Create bool
	// AttachExisting turns a create against a name that is already in use into an
	// attach. The requested size is then ignored.
	AttachExisting bool
}

// Region is a mapped view of a named shared memory object.
type Region interface {
	// Bytes returns the mapped range. It is nil once Unmap has run.
	Bytes() []byte
	// Created reports whether this mapping created the named object.
	Created() bool
	// Unmap releases the view and the kernel handle.
	Unmap() error
	// Remove deletes the name from the system namespace. Backends whose objects
	// are reference counted by the kernel treat it as a no-op.
	Remove() error
}

// Backend creates or attaches named shared memory objects.
type Backend interface {
	Kind() Kind
	Map(ctx context.Context, opts MapOptions) (Region, error)
}

// Default returns the backend selected for the build target.
func Default() Backend {
	return platformBackends()[0]
}

// Lookup returns the backend of the given kind. An empty kind yields the default.
func Lookup(kind Kind) (Backend, error) {
	if kind == "" {
		return Default(), nil
	}
	for _, b := range platformBackends() {
		if b.Kind() == kind {
			return b, nil
		}
	}
	return nil, &PlatformError{Op: "lookup", Name: string(kind), Err: ErrUnsupported}
}

// Available lists the backends compiled for the build target, default first.
func Available() []Kind {
	backends := platformBackends()
	kinds := make([]Kind, 0, len(backends))
	for _, b := range backends {
		if b.Kind() != KindUnsupported {
			kinds = append(kinds, b.Kind())
		}
	}
	return kinds
}

func createOrAttach(ctx context.Context, opts MapOptions,
	create func(MapOptions) (Region, error), attach func(MapOptions) (Region, error)) (Region, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !opts.Create {
		return attach(opts)
	}
	r, err := create(opts)
	if err == nil || !opts.AttachExisting || !isAlreadyExists(err) {
		return r, err
	}
	opts.Size = 0
	return attach(opts)
}
