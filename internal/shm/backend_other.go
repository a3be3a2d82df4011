//go:build !linux && !windows && !(darwin && !ios)

package shm

import (
	"context"
)

type unsupportedBackend struct{}

func (unsupportedBackend) Kind() Kind { return KindUnsupported }

func (unsupportedBackend) Map(_ context.Context, opts MapOptions) (Region, error) {
	return nil, &PlatformError{Op: "open", Name: opts.Name, Err: ErrUnsupported}
}

func platformBackends() []Backend {
	return []Backend{unsupportedBackend{}}
}
