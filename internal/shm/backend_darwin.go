//go:build darwin && !ios

package shm

// Darwin has no x/sys wrapper for shm_open, so System V is the default.
func platformBackends() []Backend {
	return []Backend{sysvBackend{}}
}
