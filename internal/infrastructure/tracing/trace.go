package tracing

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/docbridge/internal/shared/id"
)

// Propagation headers
const (
	TraceHeader = "X-Trace-ID"
	SpanHeader  = "X-Span-ID"
)

const spanBuffer = 1000

type (
	TraceID string
	SpanID  string
)

// Span is one timed operation within a trace
type Span struct {
	TraceID  TraceID
	SpanID   SpanID
	ParentID SpanID
	Name     string
	Start    time.Time
	Duration time.Duration

	tracer *Tracer
	fields []zap.Field
	err    error
	once   sync.Once
}

// SetTag attaches a string attribute
func (s *Span) SetTag(key, value string) {
	s.fields = append(s.fields, zap.String(key, value))
}

// SetStatus records an HTTP status code
func (s *Span) SetStatus(code int) {
	s.fields = append(s.fields, zap.Int("status", code))
}

// SetError marks the span as failed
func (s *Span) SetError(err error) {
	s.err = err
}

// Err returns the error recorded on the span
func (s *Span) Err() error {
	return s.err
}

// End stops the clock and hands the span to its tracer. Later calls are no-ops.
func (s *Span) End() {
	s.once.Do(func() {
		s.Duration = s.tracer.now().Sub(s.Start)
		s.tracer.submit(s)
	})
}

// Tracer writes finished spans to the log from a single collector goroutine
type Tracer struct {
	service string
	logger  *zap.Logger
	now     func() time.Time

	mu     sync.RWMutex
	closed bool
	spans  chan *Span
	done   chan struct{}
}

// New starts a tracer for service
func New(service string, logger *zap.Logger) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracer{
		service: service,
		logger:  logger.Named("tracing"),
		now:     time.Now,
		spans:   make(chan *Span, spanBuffer),
		done:    make(chan struct{}),
	}
	go t.collect()
	return t
}

// StartSpan opens a span named name. It joins the trace carried by ctx, or starts a new one.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	parent := fromContext(ctx)
	if parent.trace == "" {
		parent.trace = TraceID(id.NewTraceID())
	}

	span := &Span{
		TraceID:  parent.trace,
		SpanID:   SpanID(id.NewSpanID()),
		ParentID: parent.span,
		Name:     name,
		Start:    t.now(),
		tracer:   t,
	}
	return span, withSpanContext(ctx, spanContext{trace: span.TraceID, span: span.SpanID})
}

func (t *Tracer) submit(span *Span) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}

	select {
	case t.spans <- span:
	default:
		t.logger.Warn("span buffer full, dropping span",
			zap.String("trace_id", string(span.TraceID)),
			zap.String("operation", span.Name))
	}
}

func (t *Tracer) collect() {
	defer close(t.done)
	for span := range t.spans {
		t.write(span)
	}
}

func (t *Tracer) write(span *Span) {
	fields := make([]zap.Field, 0, len(span.fields)+6)
	fields = append(fields,
		zap.String("service", t.service),
		zap.String("operation", span.Name),
		zap.String("trace_id", string(span.TraceID)),
		zap.String("span_id", string(span.SpanID)),
		zap.Duration("duration", span.Duration),
	)
	if span.ParentID != "" {
		fields = append(fields, zap.String("parent_id", string(span.ParentID)))
	}
	fields = append(fields, span.fields...)

	if span.err != nil {
		t.logger.Warn("span completed with error", append(fields, zap.Error(span.err))...)
		return
	}
	t.logger.Debug("span completed", fields...)
}

// Close drains buffered spans and stops the collector. Spans ended afterwards are dropped.
func (t *Tracer) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	close(t.spans)
	t.mu.Unlock()

	<-t.done
}

type spanContext struct {
	trace TraceID
	span  SpanID
}

type ctxKey struct{}

func fromContext(ctx context.Context) spanContext {
	sc, _ := ctx.Value(ctxKey{}).(spanContext)
	return sc
}

func withSpanContext(ctx context.Context, sc spanContext) context.Context {
	return context.WithValue(ctx, ctxKey{}, sc)
}

// WithTraceID continues traceID in ctx. An empty id leaves ctx unchanged.
func WithTraceID(ctx context.Context, traceID TraceID) context.Context {
	return WithRemoteParent(ctx, traceID, "")
}

// WithRemoteParent continues a trace whose parent span lives in another process
func WithRemoteParent(ctx context.Context, traceID TraceID, parent SpanID) context.Context {
	if traceID == "" {
		return ctx
	}
	return withSpanContext(ctx, spanContext{trace: traceID, span: parent})
}

// GetTraceID returns the trace id carried by ctx, if any
func GetTraceID(ctx context.Context) TraceID {
	return fromContext(ctx).trace
}

// GetSpanID returns the innermost span id carried by ctx, if any
func GetSpanID(ctx context.Context) SpanID {
	return fromContext(ctx).span
}
