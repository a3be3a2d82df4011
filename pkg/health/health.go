// Package health exposes liveness and readiness checks for processes sharing
// memory segments through a registry.
package health

import (
	"errors"
	"fmt"

	"github.com/heptiolabs/healthcheck"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/srediag/shmseg/pkg/registry"
	"github.com/srediag/shmseg/pkg/shm"
)

// Options configures the checks returned by New.
type Options struct {
	// MinFreeBytes is the free space the POSIX namespace must keep for the
	// process to report ready. Zero disables the capacity check.
	MinFreeBytes uint64
	// Registerer, when set, also exports every check result as a gauge.
	Registerer prometheus.Registerer
	// Namespace prefixes the exported gauges.
	Namespace string
}

// New returns an http.Handler serving /live and /ready for r.
func New(r *registry.Registry, opts Options) healthcheck.Handler {
	var h healthcheck.Handler
	if opts.Registerer != nil {
		h = healthcheck.NewMetricsHandler(opts.Registerer, opts.Namespace)
	} else {
		h = healthcheck.NewHandler()
	}
	h.AddLivenessCheck("segments-open", SegmentsOpen(r))
	if opts.MinFreeBytes > 0 {
		h.AddReadinessCheck("shm-capacity", Capacity(opts.MinFreeBytes))
	}
	return h
}

// SegmentsOpen fails when a segment still held by r has been closed behind the
// registry's back.
func SegmentsOpen(r *registry.Registry) healthcheck.Check {
	return func() error {
		var closed []string
		r.Range(func(name string, seg *shm.Segment) bool {
			if !seg.IsOpen() {
				closed = append(closed, name)
			}
			return true
		})
		if len(closed) > 0 {
			return fmt.Errorf("registered segments closed: %v", closed)
		}
		return nil
	}
}

// Capacity fails when the POSIX shared memory filesystem has less than min bytes
// free. Platforms without such a filesystem always pass.
func Capacity(min uint64) healthcheck.Check {
	return capacity(min, shm.NamespaceFree)
}

func capacity(min uint64, free func() (uint64, error)) healthcheck.Check {
	return func() error {
		n, err := free()
		if errors.Is(err, shm.ErrUnsupported) {
			return nil
		}
		if err != nil {
			return err
		}
		if n < min {
			return fmt.Errorf("shared memory namespace has %d bytes free, want at least %d", n, min)
		}
		return nil
	}
}
