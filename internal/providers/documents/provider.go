package documents

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/docbridge/internal/domain/service"
	"github.com/GriffinCanCode/docbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/docbridge/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
	"github.com/GriffinCanCode/docbridge/internal/shared/types"
)

// ServiceID prefixes every tool of this provider.
const ServiceID = "documents"

// Caller runs one bridge action to completion.
type Caller interface {
	Supports(action string) bool
	Call(ctx context.Context, action string, params map[string]interface{}) (map[string]interface{}, *failure.Failure)
}

// Provider exposes the document bridge as the documents service.
type Provider struct {
	bridge  Caller
	tracer  *tracing.Tracer
	metrics *monitoring.Metrics
	logger  *zap.Logger
}

// Option configures a Provider
type Option func(*Provider)

// WithTracer records a span per call
func WithTracer(t *tracing.Tracer) Option {
	return func(p *Provider) { p.tracer = t }
}

// WithMetrics times calls
func WithMetrics(m *monitoring.Metrics) Option {
	return func(p *Provider) { p.metrics = m }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// New creates the documents provider
func New(bridge Caller, opts ...Option) *Provider {
	p := &Provider{bridge: bridge, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named(ServiceID)
	return p
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          ServiceID,
		Name:        "Document Bridge",
		Description: "Pick, read and write user documents and shared media through the host document system",
		Category:    types.CategoryDocuments,
		Capabilities: []string{
			"pick",
			"read",
			"write",
			"overwrite",
			"delete",
			"media",
			"resolve",
		},
		Tools: tools(),
		DataModels: []types.DataModel{
			{
				Name: "FileInfo",
				Fields: map[string]string{
					"uri":          "string",
					"name":         "string",
					"lastModified": "number",
					"writable":     "boolean",
					"type":         "string",
					"size":         "number",
				},
			},
		},
	}
}

// Execute runs a documents tool. Tool failures are reported in the result, not as errors.
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	action, ok := strings.CutPrefix(toolID, ServiceID+".")
	if !ok || !p.bridge.Supports(action) {
		return service.Failed(failure.New(failure.Validation, "execute", "unknown tool: %s", toolID)), nil
	}

	if appCtx != nil && appCtx.TraceID != nil {
		ctx = tracing.WithTraceID(ctx, tracing.TraceID(*appCtx.TraceID))
	}

	var span *tracing.Span
	if p.tracer != nil {
		span, ctx = p.tracer.StartSpan(ctx, toolID)
		span.SetTag("action", action)
		if appCtx != nil && appCtx.AppID != nil {
			span.SetTag("app_id", *appCtx.AppID)
		}
		defer span.End()
	}

	var timer *monitoring.Timer
	if p.metrics != nil {
		timer = monitoring.NewTimer(p.metrics, ServiceID, action)
	}

	payload, f := p.bridge.Call(ctx, action, params)
	if f != nil {
		if span != nil {
			span.SetTag("kind", f.Kind.String())
			span.SetError(f)
		}
		if p.metrics != nil {
			p.metrics.RecordServiceError(ServiceID, action, f.Kind.String())
		}
		timer.Stop("error")
		p.logger.Debug("tool failed",
			zap.String("tool", toolID),
			zap.Stringer("kind", f.Kind),
			zap.String("message", f.Message))
		return service.FromFailure(f), nil
	}

	timer.Stop("success")
	return service.Success(payload), nil
}
