//go:build linux

package shm

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// shmDir is where glibc's shm_open keeps POSIX shared memory objects.
const shmDir = "/dev/shm"

type posixBackend struct {
	dir string
}

func newPOSIXBackend() *posixBackend {
	return &posixBackend{dir: shmDir}
}

func (b *posixBackend) Kind() Kind { return KindPOSIX }

// Map opens or creates a POSIX shared memory object and maps it MAP_SHARED.
func (b *posixBackend) Map(ctx context.Context, opts MapOptions) (Region, error) {
	name, err := posixName(opts.Name)
	if err != nil {
		return nil, &PlatformError{Op: "shm_open", Name: opts.Name, Err: err}
	}
	opts.Name = name
	return createOrAttach(ctx, opts, b.create, b.attach)
}

func (b *posixBackend) path(name string) string {
	return filepath.Join(b.dir, name[1:])
}

func (b *posixBackend) create(opts MapOptions) (Region, error) {
	if opts.Size <= 0 {
		return nil, &PlatformError{Op: "shm_open", Name: opts.Name, Err: fmt.Errorf("%w: %d", ErrInvalidSize, opts.Size)}
	}
	if err := checkCapacity(b.dir, uint64(opts.Size)); err != nil {
		return nil, &PlatformError{Op: "shm_open", Name: opts.Name, Err: err}
	}
	path := b.path(opts.Name)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_EXCL|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0o600)
	if err != nil {
		return nil, wrapErr("shm_open", opts.Name, err)
	}
	// From here on the name exists; every failure must take it back out.
	discard := func() {
		_ = unix.Close(fd)
		_ = unix.Unlink(path)
	}
	if err := unix.Ftruncate(fd, int64(opts.Size)); err != nil {
		discard()
		return nil, &PlatformError{Op: "ftruncate", Name: opts.Name, Err: err}
	}
	data, err := unix.Mmap(fd, 0, opts.Size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		discard()
		return nil, &PlatformError{Op: "mmap", Name: opts.Name, Err: err}
	}
	return &posixRegion{name: opts.Name, path: path, fd: fd, data: data, created: true}, nil
}

func (b *posixBackend) attach(opts MapOptions) (Region, error) {
	path := b.path(opts.Name)
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_NOFOLLOW|unix.O_CLOEXEC, 0)
	if err != nil {
		return nil, wrapErr("shm_open", opts.Name, err)
	}
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		_ = unix.Close(fd)
		return nil, &PlatformError{Op: "fstat", Name: opts.Name, Err: err}
	}
	size, err := viewSize(opts.Size, int(st.Size))
	if err != nil {
		_ = unix.Close(fd)
		return nil, &PlatformError{Op: "mmap", Name: opts.Name, Err: err}
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		_ = unix.Close(fd)
		return nil, &PlatformError{Op: "mmap", Name: opts.Name, Err: err}
	}
	return &posixRegion{name: opts.Name, path: path, fd: fd, data: data}, nil
}

type posixRegion struct {
	name    string
	path    string
	fd      int
	data    []byte
	created bool
}

func (r *posixRegion) Bytes() []byte { return r.data }

func (r *posixRegion) Created() bool { return r.created }

// Unmap unmaps the view and closes the descriptor. Both steps are attempted.
func (r *posixRegion) Unmap() error {
	var errs []error
	if r.data != nil {
		if err := unix.Munmap(r.data); err != nil {
			errs = append(errs, &PlatformError{Op: "munmap", Name: r.name, Err: err})
		}
		r.data = nil
	}
	if r.fd >= 0 {
		if err := unix.Close(r.fd); err != nil {
			errs = append(errs, &PlatformError{Op: "close", Name: r.name, Err: err})
		}
		r.fd = -1
	}
	return errors.Join(errs...)
}

// Remove unlinks the name. Memory stays alive until every mapping is gone.
func (r *posixRegion) Remove() error {
	if err := unix.Unlink(r.path); err != nil {
		return wrapErr("shm_unlink", r.name, err)
	}
	return nil
}
