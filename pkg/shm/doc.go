// Package shm provides named, process-shared memory segments.
//
// A Segment is created or attached by name, exposes a fixed-size byte region
// shared with every other process that opened the same name, and supports
// bounds-checked reads and writes at explicit offsets. The bytes are never
// interpreted; coordinating concurrent access between processes is left to the
// caller.
//
// One backend is compiled in as the default for each platform: POSIX shared
// memory on Linux, System V shared memory on macOS and file mapping objects on
// Windows. Every backend honors the same lifecycle: only the creator removes the
// name from the system namespace, and Close is idempotent.
//
// Example usage:
//
//	err := shm.With(ctx, shm.OpenOptions{Name: "/frames", Size: 1 << 20, Create: true},
//	  func(seg *shm.Segment) error {
//	    return seg.Write([]byte("hello"), 0)
//	  })
//
// Telemetry is optional: set Config.Tracer and Config.Meter for OpenTelemetry,
// Config.Metrics for Prometheus collectors and Config.Audit to record lifecycle
// events.
package shm
