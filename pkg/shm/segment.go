package shm

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/srediag/shmseg/api"
	internalshm "github.com/srediag/shmseg/internal/shm"
)

var _ api.Segment = (*Segment)(nil)

// Segment is an open, named shared memory region.
//
// Reads and writes may run concurrently with each other; the bytes themselves are
// not synchronized. Close waits for in-flight accesses of this instance before
// unmapping.
type Segment struct {
	mu      sync.RWMutex
	open    bool
	region  internalshm.Region
	name    string
	size    int
	creator bool
	backend BackendKind
	config  *Config
	tel     *telemetry
}

// Open creates or attaches a segment. See OpenOptions for the semantics of each field.
func Open(ctx context.Context, opts OpenOptions) (seg *Segment, err error) {
	config := opts.Config
	if config == nil {
		config = DefaultConfig()
	}
	if err := VerifyConfig(config); err != nil {
		return nil, err
	}
	backend, err := internalshm.Lookup(opts.Backend)
	if err != nil {
		config.Metrics.fail("open", err)
		return nil, err
	}
	tel, err := newTelemetry(config, backend.Kind())
	if err != nil {
		return nil, fmt.Errorf("shm: telemetry: %w", err)
	}

	ctx, span := tel.start(ctx, "open", opts.Name)
	defer func() {
		if err != nil {
			config.Metrics.fail("open", err)
			internalLogger.debugf("open %s (create=%t) failed: %v", opts.Name, opts.Create, err)
		}
		endSpan(span, err)
	}()

	if opts.Create && config.MaxSegmentSize > 0 && opts.Size > config.MaxSegmentSize {
		return nil, &PlatformError{Op: "open", Name: opts.Name,
			Err: fmt.Errorf("%w: %d exceeds the %d byte limit", ErrInvalidSize, opts.Size, config.MaxSegmentSize)}
	}
	region, err := backend.Map(ctx, internalshm.MapOptions{
		Name:           opts.Name,
		Size:           opts.Size,
		Create:         opts.Create,
		AttachExisting: opts.AttachExisting,
	})
	if err != nil {
		return nil, err
	}

	seg = &Segment{
		open:    true,
		region:  region,
		name:    CanonicalName(opts.Name),
		size:    len(region.Bytes()),
		creator: region.Created(),
		backend: backend.Kind(),
		config:  config,
		tel:     tel,
	}
	config.Metrics.open(seg.backend, seg.creator)
	event := "attached"
	if seg.creator {
		event = "created"
	}
	seg.audit(event, nil)
	internalLogger.debugf("%s %s backend=%s size=%d", event, seg.name, seg.backend, seg.size)
	return seg, nil
}

// Create allocates a new segment of size bytes.
func Create(ctx context.Context, name string, size int, opts ...Option) (*Segment, error) {
	return Open(ctx, OpenOptions{Name: name, Size: size, Create: true}.apply(opts))
}

// Attach joins an existing segment. Its size is taken from the existing object.
func Attach(ctx context.Context, name string, opts ...Option) (*Segment, error) {
	return Open(ctx, OpenOptions{Name: name}.apply(opts))
}

// With opens a segment, runs fn and closes the segment on every exit path,
// including a panic in fn. A close failure is returned when fn succeeded.
func With(ctx context.Context, opts OpenOptions, fn func(*Segment) error) (err error) {
	seg, err := Open(ctx, opts)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := seg.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()
	return fn(seg)
}

// Name returns the canonical segment name.
func (s *Segment) Name() string { return s.name }

// Size returns the length of the mapped region. It never changes.
func (s *Segment) Size() int { return s.size }

// IsCreator reports whether this instance created the named object and will
// remove it on Close.
func (s *Segment) IsCreator() bool { return s.creator }

// Backend reports the backend that mapped the segment.
func (s *Segment) Backend() BackendKind { return s.backend }

// IsOpen reports whether the region may still be accessed.
func (s *Segment) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open
}

func (s *Segment) checkBounds(offset, length int) error {
	if offset < 0 || length < 0 || offset > s.size-length {
		return fmt.Errorf("%w: offset %d length %d size %d", ErrOutOfBounds, offset, length, s.size)
	}
	return nil
}

// access runs fn on the region bytes [offset, offset+length) while holding the
// segment open.
func (s *Segment) access(op string, offset, length int, fn func([]byte)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	err := ErrClosed
	if s.open {
		err = s.checkBounds(offset, length)
	}
	if err != nil {
		s.config.Metrics.fail(op, err)
		return err
	}
	fn(s.region.Bytes()[offset : offset+length])
	return nil
}

// Write copies data into the segment at offset. Other processes see the bytes
// immediately, with no ordering guarantees.
func (s *Segment) Write(data []byte, offset int) error {
	err := s.access("write", offset, len(data), func(dst []byte) {
		copy(dst, data)
	})
	if err == nil {
		s.tel.wrote(len(data))
	}
	return err
}

// Read returns a copy of size bytes starting at offset.
func (s *Segment) Read(size, offset int) ([]byte, error) {
	var out []byte
	err := s.access("read", offset, size, func(src []byte) {
		out = make([]byte, len(src))
		copy(out, src)
	})
	if err != nil {
		return nil, err
	}
	s.tel.read(len(out))
	return out, nil
}

// ReadAt implements io.ReaderAt. A range past the end fails as a whole with
// ErrOutOfBounds; nothing is read.
func (s *Segment) ReadAt(p []byte, off int64) (int, error) {
	if off != int64(int(off)) {
		return 0, fmt.Errorf("%w: offset %d", ErrOutOfBounds, off)
	}
	err := s.access("read", int(off), len(p), func(src []byte) {
		copy(p, src)
	})
	if err != nil {
		return 0, err
	}
	s.tel.read(len(p))
	return len(p), nil
}

// WriteAt implements io.WriterAt with the same all-or-nothing bounds policy as ReadAt.
func (s *Segment) WriteAt(p []byte, off int64) (int, error) {
	if off != int64(int(off)) {
		return 0, fmt.Errorf("%w: offset %d", ErrOutOfBounds, off)
	}
	if err := s.Write(p, int(off)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// View returns the live bytes [offset, offset+length) of the mapping. The slice
// aliases shared memory and must not be used after Close.
func (s *Segment) View(offset, length int) ([]byte, error) {
	var view []byte
	err := s.access("view", offset, length, func(b []byte) {
		view = b[:length:length]
	})
	return view, err
}

// Close unmaps the region and releases the kernel handle. The creator also
// removes the name, so later attaches fail with ErrNotFound. Every step is
// attempted even if an earlier one fails; failures are logged and joined.
// Closing an already closed segment does nothing.
func (s *Segment) Close() (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.open {
		return nil
	}
	s.open = false

	_, span := s.tel.start(context.Background(), "close", s.name)
	defer func() { endSpan(span, err) }()

	var errs []error
	if uerr := s.region.Unmap(); uerr != nil {
		internalLogger.warnf("segment %s unmap failed: %v", s.name, uerr)
		errs = append(errs, uerr)
	}
	if s.creator {
		if rerr := s.region.Remove(); rerr != nil {
			internalLogger.warnf("segment %s remove failed: %v", s.name, rerr)
			errs = append(errs, rerr)
		} else {
			internalLogger.infof("segment %s removed from the %s namespace", s.name, s.backend)
			s.audit("unlinked", nil)
		}
	}
	err = errors.Join(errs...)

	s.config.Metrics.close(s.backend)
	if err != nil {
		s.config.Metrics.fail("close", err)
		s.audit("close_failed", map[string]interface{}{"error": err.Error()})
		return err
	}
	s.audit("closed", nil)
	internalLogger.debugf("closed %s", s.name)
	return nil
}

func (s *Segment) audit(event string, extra map[string]interface{}) {
	if s.config.Audit == nil {
		return
	}
	details := map[string]interface{}{
		"name":    s.name,
		"backend": string(s.backend),
		"size":    s.size,
		"creator": s.creator,
	}
	for k, v := range extra {
		details[k] = v
	}
	if err := s.config.Audit.LogEvent(event, details); err != nil {
		internalLogger.warnf("audit %s for %s failed: %v", event, s.name, err)
	}
}
