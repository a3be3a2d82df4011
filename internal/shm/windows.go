//go:build windows

package shm

import (
	"context"
	"errors"
	"fmt"
)

// windowsBackend maps pagefile-backed file mapping objects. The kernel reference
// counts them, so there is no unlink step.
type windowsBackend struct{}

func (windowsBackend) Kind() Kind { return KindWindows }

func (b windowsBackend) Map(ctx context.Context, opts MapOptions) (Region, error) {
	name, err := windowsName(opts.Name)
	if err != nil {
		return nil, &PlatformError{Op: "CreateFileMapping", Name: opts.Name, Err: err}
	}
	opts.Name = name
	return createOrAttach(ctx, opts, b.create, b.attach)
}

func (windowsBackend) create(opts MapOptions) (Region, error) {
	if opts.Size <= 0 {
		return nil, &PlatformError{Op: "CreateFileMapping", Name: opts.Name, Err: fmt.Errorf("%w: %d", ErrInvalidSize, opts.Size)}
	}
	h, err := createFileMapping(opts.Name, uint64(opts.Size))
	if err != nil {
		return nil, wrapErr("CreateFileMapping", opts.Name, err)
	}
	data, addr, err := mapView(h, opts.Size)
	if err != nil {
		_ = closeHandle(h)
		return nil, &PlatformError{Op: "MapViewOfFile", Name: opts.Name, Err: err}
	}
	return &windowsRegion{name: opts.Name, handle: h, addr: addr, data: data, created: true}, nil
}

func (windowsBackend) attach(opts MapOptions) (Region, error) {
	h, err := openFileMapping(opts.Name)
	if err != nil {
		return nil, wrapErr("OpenFileMapping", opts.Name, err)
	}
	// Map the whole object first; its size is only known once a view exists.
	data, addr, err := mapView(h, 0)
	if err != nil {
		_ = closeHandle(h)
		return nil, &PlatformError{Op: "MapViewOfFile", Name: opts.Name, Err: err}
	}
	size, err := viewSize(opts.Size, len(data))
	if err != nil {
		_ = unmapView(addr)
		_ = closeHandle(h)
		return nil, &PlatformError{Op: "MapViewOfFile", Name: opts.Name, Err: err}
	}
	return &windowsRegion{name: opts.Name, handle: h, addr: addr, data: data[:size:size]}, nil
}

type windowsRegion struct {
	name    string
	handle  handle
	addr    uintptr
	data    []byte
	created bool
}

func (r *windowsRegion) Bytes() []byte { return r.data }

func (r *windowsRegion) Created() bool { return r.created }

// Unmap unmaps the view and closes the mapping handle. Both steps are attempted.
func (r *windowsRegion) Unmap() error {
	var errs []error
	if r.addr != 0 {
		if err := unmapView(r.addr); err != nil {
			errs = append(errs, &PlatformError{Op: "UnmapViewOfFile", Name: r.name, Err: err})
		}
		r.addr, r.data = 0, nil
	}
	if r.handle != 0 {
		if err := closeHandle(r.handle); err != nil {
			errs = append(errs, &PlatformError{Op: "CloseHandle", Name: r.name, Err: err})
		}
		r.handle = 0
	}
	return errors.Join(errs...)
}

// Remove is a no-op: the object disappears once the last handle in any process is closed.
func (r *windowsRegion) Remove() error { return nil }
