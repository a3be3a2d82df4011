//go:build windows

package shm

func platformBackends() []Backend {
	return []Backend{windowsBackend{}}
}
