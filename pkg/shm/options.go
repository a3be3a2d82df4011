package shm

import (
	"fmt"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/srediag/shmseg/api"
	internalshm "github.com/srediag/shmseg/internal/shm"
)

// BackendKind names a platform backend.
type BackendKind = internalshm.Kind

const (
	// BackendDefault selects the backend compiled in as the platform default.
	BackendDefault BackendKind = ""
	BackendPOSIX   BackendKind = internalshm.KindPOSIX
	BackendSysV    BackendKind = internalshm.KindSysV
	BackendWindows BackendKind = internalshm.KindWindows
)

// AvailableBackends lists the backends compiled for this platform, default first.
func AvailableBackends() []BackendKind {
	return internalshm.Available()
}

// CanonicalName returns name with exactly one leading slash, the form reported by
// Segment.Name on every platform.
func CanonicalName(name string) string {
	return internalshm.CanonicalName(name)
}

// NamespaceFree reports the free bytes of the filesystem backing POSIX shared
// memory. Platforms without one return an error matching ErrUnsupported.
func NamespaceFree() (uint64, error) {
	usage, err := internalshm.NamespaceUsage()
	if err != nil {
		return 0, err
	}
	return usage.Free, nil
}

// Config holds the ambient settings shared by segments.
type Config struct {
	// MaxSegmentSize bounds the size of created segments. Zero disables the limit.
	MaxSegmentSize int
	// Tracer receives spans for open and close. Nil disables tracing.
	Tracer trace.Tracer
	// Meter records byte counters for reads and writes. Nil disables them.
	Meter metric.Meter
	// Metrics receives Prometheus counters. Nil disables them.
	Metrics *Metrics
	// Audit receives lifecycle events. Nil disables auditing.
	Audit api.Audit
}

// DefaultConfig returns the configuration used when OpenOptions.Config is nil.
// It places no limit on segment size and disables telemetry and auditing.
func DefaultConfig() *Config {
	return &Config{}
}

// VerifyConfig checks config for values no segment could be opened with.
func VerifyConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("shm: nil config")
	}
	if config.MaxSegmentSize < 0 {
		return fmt.Errorf("shm: MaxSegmentSize must be >= 0, got %d", config.MaxSegmentSize)
	}
	return nil
}

// OpenOptions defines options for creating or attaching a segment.
type OpenOptions struct {
	// Name identifies the segment system wide. A leading slash is optional.
	Name string
	// Size is the segment length in bytes. Required when Create is set; on attach a
	// non-zero Size narrows the view to the first Size bytes.
	Size int
	// Create allocates a new named object instead of attaching to an existing one.
	Create bool
	// AttachExisting makes Create attach when the name is already in use instead of
	// failing with ErrAlreadyExists. Size is then ignored and the segment is not
	// the creator.
	AttachExisting bool
	// Backend selects a backend other than the platform default.
	Backend BackendKind
	// Config defaults to DefaultConfig().
	Config *Config
}

// Option adjusts OpenOptions for Create, Attach and AttachWithRetry.
type Option func(*OpenOptions)

// WithBackend selects the backend.
func WithBackend(kind BackendKind) Option {
	return func(o *OpenOptions) { o.Backend = kind }
}

// WithConfig sets the ambient configuration.
func WithConfig(config *Config) Option {
	return func(o *OpenOptions) { o.Config = config }
}

// WithAttachExisting lets Create join a segment that already exists.
func WithAttachExisting() Option {
	return func(o *OpenOptions) { o.AttachExisting = true }
}

// WithViewSize bounds an attached view to the first n bytes of the segment.
func WithViewSize(n int) Option {
	return func(o *OpenOptions) {
		if !o.Create {
			o.Size = n
		}
	}
}

func (o OpenOptions) apply(opts []Option) OpenOptions {
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
