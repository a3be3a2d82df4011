//go:build windows

package shm

// This file is the only place that touches raw handles and view addresses.

import (
	"errors"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

type handle = windows.Handle

const fileMapReadWrite = windows.FILE_MAP_READ | windows.FILE_MAP_WRITE

var (
	modkernel32          = windows.NewLazySystemDLL("kernel32.dll")
	procOpenFileMappingW = modkernel32.NewProc("OpenFileMappingW")
)

// createFileMapping creates a pagefile-backed mapping of size bytes. An existing
// object of the same name is reported as ERROR_ALREADY_EXISTS and its handle closed.
func createFileMapping(name string, size uint64) (handle, error) {
	namep, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, err
	}
	h, err := windows.CreateFileMapping(windows.InvalidHandle, nil, windows.PAGE_READWRITE,
		uint32(size>>32), uint32(size), namep)
	if h == 0 {
		if err == nil {
			err = syscall.EINVAL
		}
		return 0, err
	}
	if errors.Is(err, windows.ERROR_ALREADY_EXISTS) {
		_ = windows.CloseHandle(h)
		return 0, windows.ERROR_ALREADY_EXISTS
	}
	return h, nil
}

func openFileMapping(name string) (handle, error) {
	namep, err := windows.UTF16PtrFromString(name)
	if err != nil {
		return 0, err
	}
	if err := procOpenFileMappingW.Find(); err != nil {
		return 0, err
	}
	r0, _, e1 := syscall.SyscallN(procOpenFileMappingW.Addr(),
		uintptr(fileMapReadWrite), 0, uintptr(unsafe.Pointer(namep)))
	if r0 == 0 {
		if e1 != 0 {
			return 0, e1
		}
		return 0, syscall.EINVAL
	}
	return handle(r0), nil
}

// mapView maps size bytes of h. A zero size maps the whole object, whose length is
// then read back with VirtualQuery and is rounded up to the page size.
func mapView(h handle, size int) ([]byte, uintptr, error) {
	addr, err := windows.MapViewOfFile(h, fileMapReadWrite, 0, 0, uintptr(size))
	if err != nil {
		return nil, 0, err
	}
	if addr == 0 {
		return nil, 0, syscall.EINVAL
	}
	if size == 0 {
		var info windows.MemoryBasicInformation
		if err := windows.VirtualQuery(addr, &info, unsafe.Sizeof(info)); err != nil {
			_ = windows.UnmapViewOfFile(addr)
			return nil, 0, err
		}
		size = int(info.RegionSize)
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), size), addr, nil
}

func unmapView(addr uintptr) error {
	return windows.UnmapViewOfFile(addr)
}

func closeHandle(h handle) error {
	return windows.CloseHandle(h)
}
