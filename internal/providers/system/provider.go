// Package system exposes bridge health to apps as the "system" service.
package system

import (
	"context"
	"runtime"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/docbridge/internal/domain/service"
	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
	"github.com/GriffinCanCode/docbridge/internal/shared/types"
	"github.com/GriffinCanCode/docbridge/internal/shared/utils"
)

// ServiceID prefixes every tool of this provider.
const ServiceID = "system"

// Gauges report live bridge state. Nil gauges read as zero.
type Gauges struct {
	Pending func() int
	Hosts   func() int
}

// Provider answers system queries
type Provider struct {
	authority string
	volumes   []string
	gauges    Gauges
	logger    *zap.Logger
	startTime time.Time
	now       func() time.Time
}

// New creates the system provider
func New(authority string, volumes []string, gauges Gauges, logger *zap.Logger) *Provider {
	if logger == nil {
		logger = zap.NewNop()
	}
	sorted := append([]string(nil), volumes...)
	sort.Strings(sorted)
	return &Provider{
		authority: authority,
		volumes:   sorted,
		gauges:    gauges,
		logger:    logger,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:           ServiceID,
		Name:         "System Service",
		Description:  "Bridge status and utilities",
		Category:     types.CategorySystem,
		Capabilities: []string{"info", "logging"},
		Tools: []types.Tool{
			{
				ID:          ServiceID + ".info",
				Name:        "System Info",
				Description: "Runtime, volumes and picker state",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          ServiceID + ".time",
				Name:        "Current Time",
				Description: "Get current server time",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
			{
				ID:          ServiceID + ".log",
				Name:        "Log Message",
				Description: "Write a message to the server log",
				Parameters: []types.Parameter{
					{Name: "message", Type: "string", Description: "Log message", Required: true},
					{Name: "level", Type: "string", Description: "Log level (info/warn/error)"},
				},
				Returns: "boolean",
			},
			{
				ID:          ServiceID + ".ping",
				Name:        "Ping",
				Description: "Test service availability",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
		},
	}
}

// Execute runs a system tool
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case ServiceID + ".info":
		return p.info(), nil
	case ServiceID + ".time":
		return p.currentTime(), nil
	case ServiceID + ".log":
		return p.log(utils.Params(params), appCtx), nil
	case ServiceID + ".ping":
		return service.Success(map[string]interface{}{
			"pong":      true,
			"timestamp": p.now().Unix(),
		}), nil
	default:
		return service.Failed(failure.New(failure.Validation, "execute", "unknown tool: %s", toolID)), nil
	}
}

func read(f func() int) int {
	if f == nil {
		return 0
	}
	return f()
}

func (p *Provider) info() *types.Result {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return service.Success(map[string]interface{}{
		"authority":        p.authority,
		"volumes":          p.volumes,
		"pending_requests": read(p.gauges.Pending),
		"picker_hosts":     read(p.gauges.Hosts),
		"go_version":       runtime.Version(),
		"os":               runtime.GOOS,
		"arch":             runtime.GOARCH,
		"goroutines":       runtime.NumGoroutine(),
		"memory_alloc":     m.Alloc / 1024 / 1024, // MB
		"uptime_seconds":   p.now().Sub(p.startTime).Seconds(),
	})
}

func (p *Provider) currentTime() *types.Result {
	now := p.now()
	return service.Success(map[string]interface{}{
		"timestamp": now.Unix(),
		"iso":       now.Format(time.RFC3339),
		"unix_ms":   now.UnixMilli(),
	})
}

func (p *Provider) log(params utils.Params, appCtx *types.Context) *types.Result {
	message, err := params.RequireString("message")
	if err != nil {
		return service.Failed(failure.Wrap(failure.Validation, "log", err))
	}

	fields := []zap.Field{zap.String("source", "app")}
	if appCtx != nil && appCtx.AppID != nil {
		fields = append(fields, zap.String("app_id", *appCtx.AppID))
	}

	level, _ := params["level"].(string)
	switch level {
	case "", "info":
		p.logger.Info(message, fields...)
	case "warn":
		p.logger.Warn(message, fields...)
	case "error":
		p.logger.Error(message, fields...)
	default:
		return service.Failed(failure.New(failure.Validation, "log", "invalid level %q", level))
	}
	return service.Success(map[string]interface{}{"logged": true})
}
