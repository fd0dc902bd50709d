// Package lifecycle composes ledger transitions into atomic use cases:
// removing, restoring, accepting and leaving memberships, toggling vacation
// and recording payments.
//
// Every operation follows the same shape. The caller is resolved and
// authorized and the records are loaded before any write. The transitions
// then run in one store transaction against freshly read rows, and
// notifications go out only after commit.
package lifecycle

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/mmynk/circles/internal/auth"
	"github.com/mmynk/circles/internal/metrics"
	"github.com/mmynk/circles/internal/notify"
	"github.com/mmynk/circles/internal/storage"
)

// DefaultVacationDays is the vacation budget given to new memberships.
const DefaultVacationDays = 3

// DefaultNotifyTimeout bounds one notification delivery.
const DefaultNotifyTimeout = 5 * time.Second

// Orchestrator runs lifecycle operations against a store.
type Orchestrator struct {
	store        storage.Store
	resolver     auth.Resolver
	sender       notify.Sender
	metrics      *metrics.Recorder
	tracer       trace.Tracer
	vacationDays int

	notifyTimeout time.Duration
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSender sets the notification channel. The default drops
// notifications.
func WithSender(s notify.Sender) Option {
	return func(o *Orchestrator) { o.sender = s }
}

// WithMetrics records operation counters.
func WithMetrics(r *metrics.Recorder) Option {
	return func(o *Orchestrator) { o.metrics = r }
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *Orchestrator) { o.tracer = tp.Tracer(tracerName) }
}

// WithNotifyTimeout bounds how long a notification may delay the response
// of the operation that triggered it. Non-positive values keep the default.
func WithNotifyTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.notifyTimeout = d
		}
	}
}

// WithInitialVacationDays sets the vacation budget of invited members.
func WithInitialVacationDays(days int) Option {
	return func(o *Orchestrator) { o.vacationDays = max(days, 0) }
}

const tracerName = "circles/lifecycle"

// New creates an Orchestrator.
func New(store storage.Store, resolver auth.Resolver, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		store:        store,
		resolver:     resolver,
		sender:       notify.Discard{},
		tracer:       otel.Tracer(tracerName),
		vacationDays: DefaultVacationDays,

		notifyTimeout: DefaultNotifyTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// run wraps one operation with a span, a metric and panic containment.
func (o *Orchestrator) run(ctx context.Context, op string, attrs []attribute.KeyValue, fn func(ctx context.Context) Result) (res Result) {
	ctx, span := o.tracer.Start(ctx, "lifecycle."+op, trace.WithAttributes(attrs...))
	defer func() {
		if r := recover(); r != nil {
			slog.ErrorContext(ctx, "Lifecycle operation panicked", "operation", op, "panic", r)
			res = resultRetry
		}
		code := "ok"
		if !res.Success {
			code = string(res.Code)
			span.SetStatus(codes.Error, res.Message)
		}
		span.SetAttributes(attribute.String("result.code", code))
		span.End()
		o.metrics.Operation(op, code)
	}()

	return fn(ctx)
}

// actor resolves the caller. Unauthenticated callers get false.
func (o *Orchestrator) actor(ctx context.Context) (auth.Actor, bool) {
	if o.resolver == nil {
		return auth.Actor{}, false
	}
	actor, ok := o.resolver.ResolveActor(ctx)
	if !ok || actor.ID == "" {
		return auth.Actor{}, false
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("actor.id", actor.ID))
	return actor, true
}

// fail logs err and converts it to a Result.
func (o *Orchestrator) fail(ctx context.Context, op string, err error, attrs ...any) Result {
	res := classify(err)
	trace.SpanFromContext(ctx).RecordError(err)
	attrs = append(attrs, "operation", op, "code", res.Code, "error", err)
	if res.Code == CodePersistenceFailure {
		slog.ErrorContext(ctx, "Lifecycle operation failed", attrs...)
	} else {
		slog.InfoContext(ctx, "Lifecycle operation rejected", attrs...)
	}
	return res
}

// notify sends a notification after commit. Failures are logged only.
// Delivery gets its own deadline and outlives a cancelled request: the
// change it reports is already committed.
func (o *Orchestrator) notify(ctx context.Context, kind notify.Kind, recipient string, data map[string]string) {
	sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.notifyTimeout)
	defer cancel()

	err := o.sender.Send(sendCtx, kind, recipient, data)
	o.metrics.Notification(string(kind), err)
	if err != nil {
		slog.WarnContext(ctx, "Failed to send notification", "kind", kind, "recipient", recipient, "error", err)
	}
}

// pinNow validates the caller-supplied clock reading and rounds it up to
// the store's whole-second resolution. Rounding up keeps a meeting that
// began earlier within the same second on the started side of now.
func pinNow(now time.Time) (time.Time, map[string]string) {
	if now.IsZero() {
		return time.Time{}, map[string]string{"now": "is required"}
	}
	pinned := now.Truncate(time.Second)
	if pinned.Before(now) {
		pinned = pinned.Add(time.Second)
	}
	return pinned, nil
}

func required(fields map[string]string, name, value string) map[string]string {
	if value != "" {
		return fields
	}
	return setField(fields, name, "is required")
}

func isConflict(err error) bool {
	return errors.Is(err, storage.ErrConflict)
}
