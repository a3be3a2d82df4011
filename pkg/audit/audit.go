// Package audit records shared memory segment lifecycle events.
package audit

import (
	"errors"
	"sync"
	"time"

	"github.com/Workiva/go-datastructures/queue"

	"github.com/srediag/shmseg/api"
)

// ErrClosed is returned by a RingLog after Close.
var ErrClosed = errors.New("audit: log closed")

// AuditLogger is an api.Audit whose recent history can be inspected.
type AuditLogger interface {
	api.Audit
	// Events returns the retained events, oldest first.
	Events() []Event
}

// Event is one recorded lifecycle event.
type Event struct {
	Name    string
	Details map[string]interface{}
	Time    time.Time
}

var _ AuditLogger = (*RingLog)(nil)

// RingLog keeps the most recent events in a fixed-capacity ring. When full, the
// oldest event is dropped to make room.
type RingLog struct {
	mu       sync.Mutex
	ring     *queue.RingBuffer
	capacity uint64
	dropped  uint64
	now      func() time.Time
}

// NewRingLog creates a log retaining up to capacity events. A zero capacity is
// raised to one.
func NewRingLog(capacity uint64) *RingLog {
	if capacity == 0 {
		capacity = 1
	}
	return &RingLog{
		ring:     queue.NewRingBuffer(capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// LogEvent implements api.Audit. details is copied.
func (l *RingLog) LogEvent(event string, details map[string]interface{}) error {
	e := Event{Name: event, Time: l.now()}
	if len(details) > 0 {
		e.Details = make(map[string]interface{}, len(details))
		for k, v := range details {
			e.Details[k] = v
		}
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ring.IsDisposed() {
		return ErrClosed
	}
	// The ring rounds its size up to a power of two, so the limit is enforced here.
	if l.ring.Len() >= l.capacity {
		if _, err := l.ring.Get(); err != nil {
			return err
		}
		l.dropped++
	}
	ok, err := l.ring.Offer(e)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("audit: ring unexpectedly full")
	}
	return nil
}

// Events returns a snapshot of the retained events, oldest first.
func (l *RingLog) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.ring.IsDisposed() {
		return nil
	}
	n := l.ring.Len()
	events := make([]Event, 0, n)
	for i := uint64(0); i < n; i++ {
		item, err := l.ring.Get()
		if err != nil {
			break
		}
		e := item.(Event)
		events = append(events, e)
		_ = l.ring.Put(e)
	}
	return events
}

// Dropped reports how many events were evicted to make room for newer ones.
func (l *RingLog) Dropped() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close releases the ring. Later LogEvent calls fail with ErrClosed.
func (l *RingLog) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ring.Dispose()
}
