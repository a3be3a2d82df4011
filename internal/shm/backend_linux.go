//go:build linux

package shm

func platformBackends() []Backend {
	return []Backend{newPOSIXBackend(), sysvBackend{}}
}
