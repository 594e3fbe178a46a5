package core

import (
	"context"
	"time"

	"heritagecore/internal/gate"
	"heritagecore/internal/identity"
	"heritagecore/internal/media"

	"github.com/segmentio/ksuid"
)

// Clock supplies the current time to the service.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now implements Clock.
func (f ClockFunc) Now() time.Time { return f() }

// AuditStatus is the outcome recorded for an audited operation.
type AuditStatus string

// Audit statuses.
const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusError   AuditStatus = "error"
)

// AuditEntry describes one completed service operation.
type AuditEntry struct {
	Operation string
	Entity    EntityType
	Action    Action
	EntityID  string
	Device    string
	Actor     string
	Status    AuditStatus
	Error     string
	Duration  time.Duration
	Timestamp time.Time
}

// AuditRecorder receives audit entries for completed operations.
type AuditRecorder interface {
	Record(ctx context.Context, entry AuditEntry)
}

// MetricsRecorder observes operation latency and outcome.
type MetricsRecorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Tracer starts a span around a service operation.
type Tracer interface {
	Start(ctx context.Context, operation string) (context.Context, TraceSpan)
}

// TraceSpan is ended once with the operation error, if any.
type TraceSpan interface {
	End(err error)
}

type noopAuditRecorder struct{}

func (noopAuditRecorder) Record(context.Context, AuditEntry) {}

type noopMetricsRecorder struct{}

func (noopMetricsRecorder) Observe(context.Context, string, bool, time.Duration) {}

type noopTracer struct{}

func (noopTracer) Start(ctx context.Context, _ string) (context.Context, TraceSpan) {
	return ctx, noopSpan{}
}

type noopSpan struct{}

func (noopSpan) End(error) {}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	clock        Clock
	logger       Logger
	audit        AuditRecorder
	metrics      MetricsRecorder
	tracer       Tracer
	engine       *RulesEngine
	roles        identity.RoleResolver
	verifier     gate.Verifier
	media        *media.Library
	errorDisplay time.Duration
	newID        func() string
	seed         bool
	maxDevices   int
}

func defaultServiceOptions() serviceOptions {
	return serviceOptions{
		clock:        ClockFunc(func() time.Time { return time.Now().UTC() }),
		logger:       noopLogger{},
		audit:        noopAuditRecorder{},
		metrics:      noopMetricsRecorder{},
		tracer:       noopTracer{},
		engine:       NewDefaultRulesEngine(),
		roles:        identity.SubstringRoleResolver{},
		verifier:     gate.PrefixCodeVerifier{},
		errorDisplay: gate.DefaultErrorDisplay,
		newID:        func() string { return ksuid.New().String() },
		seed:         true,
		maxDevices:   DefaultMaxDevices,
	}
}

// WithClock overrides the time source.
func WithClock(clock Clock) ServiceOption {
	return func(o *serviceOptions) {
		if clock != nil {
			o.clock = clock
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithAuditRecorder sets the audit sink.
func WithAuditRecorder(recorder AuditRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.audit = recorder
		}
	}
}

// WithMetricsRecorder sets the metrics sink.
func WithMetricsRecorder(recorder MetricsRecorder) ServiceOption {
	return func(o *serviceOptions) {
		if recorder != nil {
			o.metrics = recorder
		}
	}
}

// WithTracer sets the tracer.
func WithTracer(tracer Tracer) ServiceOption {
	return func(o *serviceOptions) {
		if tracer != nil {
			o.tracer = tracer
		}
	}
}

// WithRulesEngine replaces the authoring rules engine.
func WithRulesEngine(engine *RulesEngine) ServiceOption {
	return func(o *serviceOptions) {
		if engine != nil {
			o.engine = engine
		}
	}
}

// WithRoleResolver replaces the email based role assignment.
func WithRoleResolver(resolver identity.RoleResolver) ServiceOption {
	return func(o *serviceOptions) {
		if resolver != nil {
			o.roles = resolver
		}
	}
}

// WithVerifier replaces the village access code check.
func WithVerifier(verifier gate.Verifier) ServiceOption {
	return func(o *serviceOptions) {
		if verifier != nil {
			o.verifier = verifier
		}
	}
}

// WithMediaLibrary enables media uploads.
func WithMediaLibrary(lib *media.Library) ServiceOption {
	return func(o *serviceOptions) {
		o.media = lib
	}
}

// WithErrorDisplay sets how long a rejected access code stays visible.
func WithErrorDisplay(d time.Duration) ServiceOption {
	return func(o *serviceOptions) {
		if d > 0 {
			o.errorDisplay = d
		}
	}
}

// WithIDGenerator overrides heritage item id generation.
func WithIDGenerator(fn func() string) ServiceOption {
	return func(o *serviceOptions) {
		if fn != nil {
			o.newID = fn
		}
	}
}

// WithDeviceLimit caps how many devices keep in-memory gate state. The least
// recently used device is dropped first; its session and lineage stay in the
// durable store.
func WithDeviceLimit(n int) ServiceOption {
	return func(o *serviceOptions) {
		if n > 0 {
			o.maxDevices = n
		}
	}
}

// WithoutSeed starts the archive empty instead of with the sample items.
func WithoutSeed() ServiceOption {
	return func(o *serviceOptions) {
		o.seed = false
	}
}
