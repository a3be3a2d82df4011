// Package api defines public API contracts for shmseg.
package api

// Segment is the capability every shared memory backend provides: bounded access
// to a named region and an idempotent, creator-aware close.
type Segment interface {
	// Name returns the platform-visible identifier of the segment.
	Name() string
	// Size returns the fixed byte length of the mapped region.
	Size() int
	// IsCreator reports whether this instance created the named object.
	IsCreator() bool
	// IsOpen reports whether the mapped region may still be accessed.
	IsOpen() bool
	// Write copies data into the region at offset.
	Write(data []byte, offset int) error
	// Read returns a copy of size bytes starting at offset.
	Read(size, offset int) ([]byte, error)
	// Close releases the mapping. It is safe to call more than once.
	Close() error
}
