//go:build !linux

package shm

import (
	"github.com/shirou/gopsutil/v3/disk"
)

// NamespaceUsage is only meaningful where shared memory lives on a filesystem.
func NamespaceUsage() (*disk.UsageStat, error) {
	return nil, &PlatformError{Op: "statfs", Err: ErrUnsupported}
}
