package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
	"github.com/GriffinCanCode/docbridge/internal/shared/types"
)

// Provider implements the tools of one service. Definition must not change after registration.
type Provider interface {
	Definition() types.Service
	Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error)
}

type entry struct {
	provider Provider
	def      types.Service
}

// Registry routes tool calls to providers by the service prefix of the tool id
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]entry)}
}

// Register adds provider under its definition's id
func (r *Registry) Register(provider Provider) error {
	def := provider.Definition()
	switch {
	case def.ID == "":
		return fmt.Errorf("service ID cannot be empty")
	case strings.Contains(def.ID, "."):
		return fmt.Errorf("service ID %q must not contain '.'", def.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[def.ID]; exists {
		return fmt.Errorf("service %q already registered", def.ID)
	}
	r.entries[def.ID] = entry{provider: provider, def: def}
	return nil
}

func (r *Registry) Unregister(serviceID string) {
	r.mu.Lock()
	delete(r.entries, serviceID)
	r.mu.Unlock()
}

func (r *Registry) Get(serviceID string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[serviceID]
	return e.provider, ok
}

// definitions returns a snapshot sorted by id
func (r *Registry) definitions() []types.Service {
	r.mu.RLock()
	defs := make([]types.Service, 0, len(r.entries))
	for _, e := range r.entries {
		defs = append(defs, e.def)
	}
	r.mu.RUnlock()

	slices.SortFunc(defs, func(a, b types.Service) int { return cmp.Compare(a.ID, b.ID) })
	return defs
}

// List returns registered services sorted by id, optionally limited to one category
func (r *Registry) List(category *types.Category) []types.Service {
	defs := r.definitions()
	if category == nil {
		return defs
	}
	return slices.DeleteFunc(defs, func(def types.Service) bool { return def.Category != *category })
}

// Tool looks up a tool definition by its full "<service>.<tool>" id
func (r *Registry) Tool(toolID string) (types.Tool, bool) {
	serviceID, _, ok := strings.Cut(toolID, ".")
	if !ok {
		return types.Tool{}, false
	}

	r.mu.RLock()
	e, ok := r.entries[serviceID]
	r.mu.RUnlock()
	if !ok {
		return types.Tool{}, false
	}

	i := slices.IndexFunc(e.def.Tools, func(t types.Tool) bool { return t.ID == toolID })
	if i < 0 {
		return types.Tool{}, false
	}
	return e.def.Tools[i], true
}

// Discover ranks services by keyword overlap with intent and returns at most limit of them
func (r *Registry) Discover(intent string, limit int) []types.Service {
	type match struct {
		def   types.Service
		score int
	}

	intent = strings.ToLower(intent)
	var matches []match
	for _, def := range r.definitions() {
		if score := relevance(intent, def); score > 0 {
			matches = append(matches, match{def, score})
		}
	}
	// definitions are already sorted by id, so a stable sort keeps ties in id order
	slices.SortStableFunc(matches, func(a, b match) int { return cmp.Compare(b.score, a.score) })

	n := max(min(limit, len(matches)), 0)
	out := make([]types.Service, 0, n)
	for _, m := range matches[:n] {
		out = append(out, m.def)
	}
	return out
}

// Execute dispatches toolID to the provider named by its prefix. Routing failures are
// returned both as a failed result and as an error.
func (r *Registry) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	serviceID, _, ok := strings.Cut(toolID, ".")
	if !ok || serviceID == "" {
		err := failure.New(failure.Validation, "execute", "invalid tool ID format: %s", toolID)
		return Failed(err), err
	}

	provider, ok := r.Get(serviceID)
	if !ok {
		err := failure.New(failure.NotFound, "execute", "service not found: %s", serviceID)
		return Failed(err), err
	}
	return provider.Execute(ctx, toolID, params, appCtx)
}

// Stats summarizes the registry for the health and discovery endpoints
func (r *Registry) Stats() map[string]interface{} {
	var tools int
	categories := make(map[string]int)
	defs := r.definitions()
	for _, def := range defs {
		tools += len(def.Tools)
		categories[string(def.Category)]++
	}

	return map[string]interface{}{
		"total_services": len(defs),
		"total_tools":    tools,
		"categories":     categories,
	}
}

// relevance weights: id or name 10, description word 5, tool name 4, capability 3, category 2
func relevance(intent string, def types.Service) int {
	score := 0
	if strings.Contains(intent, def.ID) || strings.Contains(intent, strings.ToLower(def.Name)) {
		score += 10
	}
	for _, word := range strings.Fields(strings.ToLower(def.Description)) {
		if len(word) > 3 && strings.Contains(intent, word) {
			score += 5
		}
	}
	for _, tool := range def.Tools {
		if _, name, _ := strings.Cut(tool.ID, "."); name != "" && strings.Contains(intent, strings.ToLower(name)) {
			score += 4
		}
	}
	for _, capability := range def.Capabilities {
		if strings.Contains(intent, strings.ReplaceAll(strings.ToLower(capability), "_", " ")) {
			score += 3
		}
	}
	if strings.Contains(intent, string(def.Category)) {
		score += 2
	}
	return score
}
