//go:build linux

package shm

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"
)

// NamespaceUsage reports the usage of the filesystem holding POSIX shared memory objects.
func NamespaceUsage() (*disk.UsageStat, error) {
	stat, err := disk.Usage(shmDir)
	if err != nil {
		return nil, &PlatformError{Op: "statfs", Name: shmDir, Err: err}
	}
	return stat, nil
}

// checkCapacity rejects sizes the tmpfs behind dir cannot back. ftruncate on tmpfs
// succeeds regardless, and the shortfall would only surface as SIGBUS on first touch.
func checkCapacity(dir string, size uint64) error {
	stat, err := disk.Usage(dir)
	if err != nil {
		// statfs failing is not a reason to refuse; mmap reports real problems.
		return nil
	}
	if size > stat.Free {
		return fmt.Errorf("%w: need %d bytes, %s has %d free", ErrNoSpace, size, dir, stat.Free)
	}
	return nil
}
