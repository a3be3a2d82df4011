//go:build linux || (darwin && !ios)

package shm

import (
	"context"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"golang.org/x/sys/unix"
)

// sysvBackend delegates to the System V shared memory facility wrapped by
// x/sys/unix. Names are hashed into 32-bit IPC keys, so two names can share a
// key: creating the second fails with ErrAlreadyExists, and attaching to a name
// that was never created joins the other name's segment instead of failing with
// ErrNotFound. Use the POSIX backend where names must be exact.
type sysvBackend struct{}

func (sysvBackend) Kind() Kind { return KindSysV }

func (b sysvBackend) Map(ctx context.Context, opts MapOptions) (Region, error) {
	name, err := posixName(opts.Name)
	if err != nil {
		return nil, &PlatformError{Op: "shmget", Name: opts.Name, Err: err}
	}
	opts.Name = name
	return createOrAttach(ctx, opts, b.create, b.attach)
}

// sysvKey derives the IPC key for name from the low 32 bits of its xxhash.
// IPC_PRIVATE (0) is never returned.
func sysvKey(name string) int {
	key := int(int32(xxhash.Sum64String(name)))
	if key == 0 {
		key = 1
	}
	return key
}

func (sysvBackend) create(opts MapOptions) (Region, error) {
	if opts.Size <= 0 {
		return nil, &PlatformError{Op: "shmget", Name: opts.Name, Err: fmt.Errorf("%w: %d", ErrInvalidSize, opts.Size)}
	}
	id, err := unix.SysvShmGet(sysvKey(opts.Name), opts.Size, unix.IPC_CREAT|unix.IPC_EXCL|0o600)
	if err != nil {
		return nil, wrapErr("shmget", opts.Name, err)
	}
	data, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		_, _ = unix.SysvShmCtl(id, unix.IPC_RMID, nil)
		return nil, &PlatformError{Op: "shmat", Name: opts.Name, Err: err}
	}
	return &sysvRegion{name: opts.Name, id: id, data: data, view: data, created: true}, nil
}

func (sysvBackend) attach(opts MapOptions) (Region, error) {
	id, err := unix.SysvShmGet(sysvKey(opts.Name), 0, 0o600)
	if err != nil {
		return nil, wrapErr("shmget", opts.Name, err)
	}
	data, err := unix.SysvShmAttach(id, 0, 0)
	if err != nil {
		return nil, wrapErr("shmat", opts.Name, err)
	}
	size, err := viewSize(opts.Size, len(data))
	if err != nil {
		_ = unix.SysvShmDetach(data)
		return nil, &PlatformError{Op: "shmat", Name: opts.Name, Err: err}
	}
	return &sysvRegion{name: opts.Name, id: id, data: data, view: data[:size:size]}, nil
}

type sysvRegion struct {
	name string
	id   int
	// data is the whole attachment as returned by shmat; view is what callers see.
	data    []byte
	view    []byte
	created bool
}

func (r *sysvRegion) Bytes() []byte { return r.view }

func (r *sysvRegion) Created() bool { return r.created }

func (r *sysvRegion) Unmap() error {
	if r.data == nil {
		return nil
	}
	err := unix.SysvShmDetach(r.data)
	r.data, r.view = nil, nil
	if err != nil {
		return &PlatformError{Op: "shmdt", Name: r.name, Err: err}
	}
	return nil
}

// Remove marks the segment for destruction; the kernel frees it after the last detach.
func (r *sysvRegion) Remove() error {
	if _, err := unix.SysvShmCtl(r.id, unix.IPC_RMID, nil); err != nil {
		if errors.Is(err, unix.EINVAL) || errors.Is(err, unix.EIDRM) {
			return fmt.Errorf("%w: shmctl %s", ErrNotFound, r.name)
		}
		return wrapErr("shmctl", r.name, err)
	}
	return nil
}
