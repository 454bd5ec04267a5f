package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/docbridge/internal/domain/picker"
	"github.com/GriffinCanCode/docbridge/internal/domain/service"
	"github.com/GriffinCanCode/docbridge/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/docbridge/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
	"github.com/GriffinCanCode/docbridge/internal/shared/types"
	"github.com/GriffinCanCode/docbridge/internal/shared/utils"
)

const maxParamsDepth = 8

// Version is reported by the root handler.
const Version = "0.3.0"

// Status reports bridge and host liveness for /health.
type Status interface {
	Outstanding() int
}

// Hosts counts connected picker hosts.
type Hosts interface {
	Connected() int
}

// Handlers contains all HTTP handlers
type Handlers struct {
	registry       *service.Registry
	results        picker.ResultHandler
	status         Status
	hosts          Hosts
	metrics        *monitoring.Metrics
	logger         *zap.Logger
	executeTimeout time.Duration
}

// Dependencies wires the handler set. Registry and Results are required.
type Dependencies struct {
	Registry *service.Registry
	Results  picker.ResultHandler
	Status   Status
	Hosts    Hosts
	Metrics  *monitoring.Metrics
	Logger   *zap.Logger
	// ExecuteTimeout bounds how long /services/execute waits; zero waits for the client.
	ExecuteTimeout time.Duration
}

// NewHandlers creates a new handler set
func NewHandlers(deps Dependencies) *Handlers {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		registry:       deps.Registry,
		results:        deps.Results,
		status:         deps.Status,
		hosts:          deps.Hosts,
		metrics:        deps.Metrics,
		logger:         logger.Named("http"),
		executeTimeout: deps.ExecuteTimeout,
	}
}

// Root handles the liveness check
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "docbridge",
		"version": Version,
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{
		"status":           "healthy",
		"service_registry": h.registry.Stats(),
	}
	if h.status != nil {
		body["pending_requests"] = h.status.Outstanding()
	}
	if h.hosts != nil {
		body["picker_hosts"] = h.hosts.Connected()
	}
	c.JSON(http.StatusOK, body)
}

// ListServices lists all available services
func (h *Handlers) ListServices(c *gin.Context) {
	categoryStr := c.Query("category")
	if err := utils.ValidateCategory(categoryStr, false); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var category *types.Category
	if categoryStr != "" {
		cat := types.Category(categoryStr)
		category = &cat
	}

	c.JSON(http.StatusOK, gin.H{
		"services": h.registry.List(category),
		"stats":    h.registry.Stats(),
	})
}

// DiscoverServices ranks services for a free-text query
func (h *Handlers) DiscoverServices(c *gin.Context) {
	var req types.DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := utils.ValidateString(req.Query, "query", 1, utils.MaxQueryLength, true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit := req.Limit
	if limit <= 0 {
		limit = 5
	}

	c.JSON(http.StatusOK, gin.H{
		"query":    req.Query,
		"services": h.registry.Discover(req.Query, limit),
	})
}

// ExecuteService executes a service tool and waits for its outcome
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if !bindLimited(c, &req, utils.MaxPayloadSize) {
		return
	}
	if err := utils.ValidateToolID(req.ToolID, "tool_id", true); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.AppID != nil {
		if err := utils.ValidateID(*req.AppID, "app_id", false); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := utils.ValidateJSONDepth(req.Params, maxParamsDepth); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	if h.executeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.executeTimeout)
		defer cancel()
	}

	appCtx := &types.Context{AppID: req.AppID}
	if traceID := tracing.GetTraceID(ctx); traceID != "" {
		s := string(traceID)
		appCtx.TraceID = &s
	}

	result, err := h.registry.Execute(ctx, req.ToolID, req.Params, appCtx)
	if err != nil {
		c.JSON(statusFor(err), result)
		return
	}

	c.JSON(http.StatusOK, result)
}

// PickerResult accepts a picker result over plain HTTP
func (h *Handlers) PickerResult(c *gin.Context) {
	var req types.PickerResultRequest
	if !bindLimited(c, &req, utils.MaxControlSize) {
		return
	}
	if err := utils.ValidateURI(req.URI, "uri", req.OK); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	h.results.OnPickerResult(picker.Result{
		RequestCode: req.RequestCode,
		OK:          req.OK,
		URI:         req.URI,
		Flags:       picker.Flags(req.Flags),
	})
	h.logger.Debug("picker result accepted", zap.Int64("request_code", req.RequestCode), zap.Bool("ok", req.OK))

	c.JSON(http.StatusAccepted, gin.H{"accepted": true, "request_code": req.RequestCode})
}

// MetricsJSON returns the metrics snapshot
func (h *Handlers) MetricsJSON(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, h.metrics.Snapshot())
}

func statusFor(err error) int {
	switch failure.KindOf(err) {
	case failure.Validation:
		return http.StatusBadRequest
	case failure.NotFound:
		return http.StatusNotFound
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// bindLimited decodes a JSON body of at most limit bytes, answering 413 or 400 on failure
func bindLimited(c *gin.Context, dst interface{}, limit int64) bool {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	err := c.ShouldBindJSON(dst)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": fmt.Sprintf("request body exceeds %d bytes", limit)})
		return false
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	return false
}
