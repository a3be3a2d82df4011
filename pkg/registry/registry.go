// Package registry shares shared memory segments within one process.
//
// Opening the same name twice in a process yields two independent mappings,
// and the creator's Close removes the name under the other one. A Registry
// hands out reference-counted handles to a single mapping per name instead, and
// closes it when the last handle is released.
package registry

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/panjf2000/ants/v2"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/srediag/shmseg/pkg/shm"
)

// ErrClosed is returned by Acquire after Close.
var ErrClosed = errors.New("registry: closed")

// Options configures a Registry.
type Options struct {
	// Workers bounds the goroutines used by Close. Defaults to GOMAXPROCS.
	Workers int
	// Registerer, when set, receives the registry's segment gauge.
	Registerer prometheus.Registerer
}

type entry struct {
	seg  *shm.Segment
	refs int
}

// Registry maps canonical segment names to open segments.
type Registry struct {
	// mu serializes acquire, release and close; lookups go through segments only.
	mu       sync.Mutex
	segments cmap.ConcurrentMap[string, *entry]
	closed   bool
	workers  int
	gauge    prometheus.Gauge
}

// New creates an empty registry.
func New(opts Options) (*Registry, error) {
	if opts.Workers <= 0 {
		opts.Workers = runtime.GOMAXPROCS(0)
	}
	r := &Registry{
		segments: cmap.New[*entry](),
		workers:  opts.Workers,
		gauge: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "shmseg",
			Subsystem: "registry",
			Name:      "segments",
			Help:      "Segments held open by the registry.",
		}),
	}
	if opts.Registerer != nil {
		if err := opts.Registerer.Register(r.gauge); err != nil {
			return nil, fmt.Errorf("registry: register gauge: %w", err)
		}
	}
	return r, nil
}

// Handle is one reference to a registered segment.
type Handle struct {
	r        *Registry
	key      string
	e        *entry
	released atomic.Bool
}

// Segment returns the shared segment. It stays open until every handle for its
// name has been released.
func (h *Handle) Segment() *shm.Segment { return h.e.seg }

// Release drops this reference. The last release closes the segment and returns
// the Close error. Releasing twice does nothing.
func (h *Handle) Release() error {
	if !h.released.CompareAndSwap(false, true) {
		return nil
	}
	return h.r.release(h.key, h.e)
}

// Acquire returns a handle to the segment named in opts, opening it on first use.
// When the name is already registered the existing mapping is shared and the
// remaining fields of opts are ignored.
func (r *Registry) Acquire(ctx context.Context, opts shm.OpenOptions) (*Handle, error) {
	key := shm.CanonicalName(opts.Name)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil, ErrClosed
	}
	if e, ok := r.segments.Get(key); ok {
		e.refs++
		return &Handle{r: r, key: key, e: e}, nil
	}
	seg, err := shm.Open(ctx, opts)
	if err != nil {
		return nil, err
	}
	e := &entry{seg: seg, refs: 1}
	r.segments.Set(key, e)
	r.gauge.Inc()
	return &Handle{r: r, key: key, e: e}, nil
}

func (r *Registry) release(key string, e *entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.refs--
	if e.refs > 0 {
		return nil
	}
	// Close may already have taken the entry out.
	if cur, ok := r.segments.Get(key); !ok || cur != e {
		return nil
	}
	r.segments.Remove(key)
	r.gauge.Dec()
	return e.seg.Close()
}

// Get returns the registered segment for name without taking a reference.
func (r *Registry) Get(name string) (*shm.Segment, bool) {
	e, ok := r.segments.Get(shm.CanonicalName(name))
	if !ok {
		return nil, false
	}
	return e.seg, true
}

// Len returns the number of registered segments.
func (r *Registry) Len() int {
	return r.segments.Count()
}

// Names returns the canonical names of the registered segments.
func (r *Registry) Names() []string {
	return r.segments.Keys()
}

// Range calls fn for every registered segment until fn returns false.
func (r *Registry) Range(fn func(name string, seg *shm.Segment) bool) {
	for item := range r.segments.IterBuffered() {
		if !fn(item.Key, item.Val.seg) {
			return
		}
	}
}

// Close closes every registered segment, regardless of outstanding handles, on a
// bounded worker pool, and refuses further Acquire calls. Errors are joined.
func (r *Registry) Close(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	items := r.segments.Items()
	r.segments.Clear()
	r.gauge.Sub(float64(len(items)))
	if len(items) == 0 {
		return nil
	}

	pool, err := ants.NewPool(r.workers)
	if err != nil {
		return fmt.Errorf("registry: worker pool: %w", err)
	}
	defer pool.Release()

	var (
		wg   sync.WaitGroup
		emu  sync.Mutex
		errs []error
	)
	closeOne := func(name string, seg *shm.Segment) {
		if err := seg.Close(); err != nil {
			emu.Lock()
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			emu.Unlock()
		}
	}
	for name, e := range items {
		seg := e.seg
		// Whatever is not submitted still has to be released.
		if ctx.Err() != nil {
			closeOne(name, seg)
			continue
		}
		wg.Add(1)
		err := pool.Submit(func() {
			defer wg.Done()
			closeOne(name, seg)
		})
		if err != nil {
			wg.Done()
			closeOne(name, seg)
		}
	}
	wg.Wait()
	return errors.Join(errs...)
}
