package tool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/matiasleandrokruk/statsmcp/internal/api/ctxkeys"
	"github.com/matiasleandrokruk/statsmcp/internal/domain/dataset"
	"github.com/matiasleandrokruk/statsmcp/internal/infra/eventbus"
	"github.com/matiasleandrokruk/statsmcp/internal/infra/quote"
)

// TopicToolInvoked carries one InvocationRecord per dispatched call.
const TopicToolInvoked = "tool.invoked"

const tracerName = "github.com/matiasleandrokruk/statsmcp/internal/domain/tool"

var errHandlerPanic = errors.New("tool handler panicked")

// InvocationRequest is one call to a tool. ID is assigned when empty and
// only correlates logs and spans.
type InvocationRequest struct {
	ID        string
	Tool      string
	Arguments Arguments
}

// Outcome is the terminal state of an invocation: Completed once the handler
// ran (successfully or not), Rejected when validation stopped it first.
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeRejected  Outcome = "rejected"
)

type InvocationRecord struct {
	ID        string
	Tool      string
	Subject   string
	Outcome   Outcome
	ErrorKind ErrorKind
	Duration  time.Duration
}

// MissingArgumentError names the required parameter that was absent or blank.
type MissingArgumentError struct {
	Name string
}

func (e *MissingArgumentError) Error() string {
	return fmt.Sprintf("%v: %s", ErrMissingArgument, e.Name)
}

func (e *MissingArgumentError) Unwrap() error {
	return ErrMissingArgument
}

// Dispatcher validates and runs invocations against a registry and wraps
// every outcome in a Result. It holds no per-call state and is safe for
// concurrent use.
type Dispatcher struct {
	registry *ToolRegistry
	bus      eventbus.EventBus
	tracer   trace.Tracer
}

type DispatcherOption func(*Dispatcher)

// WithEventBus publishes an InvocationRecord on TopicToolInvoked per call.
func WithEventBus(bus eventbus.EventBus) DispatcherOption {
	return func(d *Dispatcher) { d.bus = bus }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(t trace.Tracer) DispatcherOption {
	return func(d *Dispatcher) {
		if t != nil {
			d.tracer = t
		}
	}
}

func NewDispatcher(registry *ToolRegistry, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		registry: registry,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Dispatcher) Registry() *ToolRegistry {
	return d.registry
}

// Invoke runs Received → Validating → Invoking → Completed, or stops at
// Rejected. It never returns a Go error: every failure is an Err result.
// There are no retries and no internal timeout; ctx bounds the call.
func (d *Dispatcher) Invoke(ctx context.Context, req InvocationRequest) Result {
	start := time.Now()
	if req.ID == "" {
		req.ID = newInvocationID()
	}
	if req.Arguments == nil {
		req.Arguments = Arguments{}
	}

	ctx, span := d.tracer.Start(ctx, "tool.invoke", trace.WithAttributes(
		attribute.String("tool.name", req.Tool),
		attribute.String("tool.invocation_id", req.ID),
	))
	defer span.End()

	result, outcome := d.invoke(ctx, req)

	var kind ErrorKind
	if result.IsError() {
		kind = result.Err.Kind
		span.SetAttributes(attribute.String("tool.error_kind", string(kind)))
		span.SetStatus(codes.Error, result.Err.Message)
	} else {
		span.SetStatus(codes.Ok, "")
	}

	if d.bus != nil {
		d.bus.Publish(TopicToolInvoked, InvocationRecord{
			ID:        req.ID,
			Tool:      req.Tool,
			Subject:   ctxkeys.Value(ctx, ctxkeys.Subject),
			Outcome:   outcome,
			ErrorKind: kind,
			Duration:  time.Since(start),
		})
	}
	return result
}

func (d *Dispatcher) invoke(ctx context.Context, req InvocationRequest) (Result, Outcome) {
	desc, ok := d.registry.Lookup(req.Tool)
	if !ok {
		return Fail(KindNotFound, fmt.Sprintf("unknown tool %q", req.Tool)), OutcomeRejected
	}
	if err := d.registry.ValidateArguments(desc.Name, req.Arguments); err != nil {
		return classify(err), OutcomeRejected
	}

	value, err := execute(ctx, desc, req.Arguments)
	if err != nil {
		return classify(err), OutcomeCompleted
	}
	// JSON has no encoding for Inf or NaN.
	if f, ok := value.(float64); ok && (math.IsInf(f, 0) || math.IsNaN(f)) {
		return Fail(KindHandlerFailure, fmt.Sprintf("%s: result %s is not a finite number", desc.Name, FormatFloat(f))), OutcomeCompleted
	}
	return Ok(value), OutcomeCompleted
}

func execute(ctx context.Context, desc *ToolDescriptor, args Arguments) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("%w: %s: %v", errHandlerPanic, desc.Name, r)
		}
	}()
	return desc.Executor.Execute(ctx, args)
}

// classify is the single translation point from Go errors to error kinds.
func classify(err error) Result {
	var missing *MissingArgumentError
	if errors.As(err, &missing) {
		return Fail(KindMissingArgument, missing.Name)
	}

	kind := KindHandlerFailure
	switch {
	case errors.Is(err, dataset.ErrColumnNotFound):
		kind = KindColumnNotFound
	case errors.Is(err, dataset.ErrNotNumeric):
		kind = KindNotNumeric
	case errors.Is(err, dataset.ErrInsufficientData):
		kind = KindInsufficientData
	case errors.Is(err, quote.ErrProviderUnavailable):
		kind = KindProviderUnavailable
	case errors.Is(err, quote.ErrSymbolNotFound):
		kind = KindSymbolNotFound
	case errors.Is(err, ErrToolNotFound):
		kind = KindNotFound
	case errors.Is(err, ErrMissingArgument):
		kind = KindMissingArgument
	case errors.Is(err, ErrInvalidArguments):
		kind = KindInvalidArgument
	}
	return Fail(kind, err.Error())
}

// newInvocationID returns a time-ordered UUIDv7, falling back to v4 if the
// clock sequence cannot be generated.
func newInvocationID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
