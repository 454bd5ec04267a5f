// Package media exposes the shared media index as the "media" service.
package media

import (
	"context"
	"strings"

	"github.com/GriffinCanCode/docbridge/internal/domain/collection"
	"github.com/GriffinCanCode/docbridge/internal/domain/document"
	"github.com/GriffinCanCode/docbridge/internal/domain/service"
	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
	"github.com/GriffinCanCode/docbridge/internal/shared/types"
	"github.com/GriffinCanCode/docbridge/internal/shared/utils"
)

// ServiceID prefixes every tool of this provider.
const ServiceID = "media"

// Library is the part of the media index this service needs.
type Library interface {
	List(ctx context.Context, c collection.Collection) ([]document.Node, error)
	Scan(ctx context.Context, root string) (int, error)
}

// Provider lists and rescans shared media.
type Provider struct {
	library Library
	root    string
}

// New creates the media provider. root is the host directory the index scans.
func New(library Library, root string) *Provider {
	return &Provider{library: library, root: root}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	names := make([]string, 0, len(collection.All()))
	for _, c := range collection.All() {
		names = append(names, c.String())
	}

	return types.Service{
		ID:           ServiceID,
		Name:         "Shared Media",
		Description:  "Browse the shared media collections",
		Category:     types.CategoryMedia,
		Capabilities: []string{"list", "scan"},
		Tools: []types.Tool{
			{
				ID:          ServiceID + ".list",
				Name:        "List Media",
				Description: "List finalized entries of one collection",
				Parameters: []types.Parameter{
					{Name: "collection", Type: "string", Description: "One of " + strings.Join(names, ", "), Required: true},
				},
				Returns: "object",
			},
			{
				ID:          ServiceID + ".scan",
				Name:        "Scan Media",
				Description: "Register files added to the media folders outside the bridge",
				Parameters:  []types.Parameter{},
				Returns:     "object",
			},
		},
	}
}

// Execute runs a media tool
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case ServiceID + ".list":
		return p.list(ctx, utils.Params(params))
	case ServiceID + ".scan":
		return p.scan(ctx)
	default:
		return service.Failed(failure.New(failure.Validation, "execute", "unknown tool: %s", toolID)), nil
	}
}

func (p *Provider) list(ctx context.Context, params utils.Params) (*types.Result, error) {
	name, err := params.RequireString("collection")
	if err != nil {
		return service.Failed(failure.Wrap(failure.Validation, "list", err)), nil
	}
	c, ok := collection.Parse(name)
	if !ok {
		return service.Failed(failure.New(failure.Validation, "list", "unknown collection %q", name)), nil
	}

	nodes, err := p.library.List(ctx, c)
	if err != nil {
		return service.Failed(err), nil
	}
	entries := make([]map[string]interface{}, 0, len(nodes))
	for i := range nodes {
		entries = append(entries, nodes[i].Info().Map())
	}
	return service.Success(map[string]interface{}{
		"collection": c.String(),
		"entries":    entries,
		"count":      len(entries),
	}), nil
}

func (p *Provider) scan(ctx context.Context) (*types.Result, error) {
	added, err := p.library.Scan(ctx, p.root)
	if err != nil {
		return service.Failed(err), nil
	}
	return service.Success(map[string]interface{}{"added": added}), nil
}
