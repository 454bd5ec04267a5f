package document

import (
	"context"
	"io"
	"sync"

	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
)

// Provider serves the documents under one URI authority.
type Provider interface {
	Authority() string
	// Stat fails with failure.NotFound when the document does not exist.
	Stat(ctx context.Context, uri string) (*Node, error)
	OpenReader(ctx context.Context, uri string) (io.ReadCloser, error)
	// OpenWriter opens the document for writing in truncate mode.
	OpenWriter(ctx context.Context, uri string) (io.WriteCloser, error)
	// Delete returns the number of documents removed, 0 when already absent.
	Delete(ctx context.Context, uri string) (int, error)
}

// Tree is a Provider whose documents form a navigable hierarchy.
type Tree interface {
	Provider
	// Root returns the directory a tree URI is rooted at.
	Root(ctx context.Context, treeURI string) (*Node, error)
	// FindChild returns nil, nil when parent has no child named name.
	FindChild(ctx context.Context, parent *Node, name string) (*Node, error)
	CreateDirectory(ctx context.Context, parent *Node, name string) (*Node, error)
	CreateFile(ctx context.Context, parent *Node, contentType, name string) (*Node, error)
}

// Discarder is implemented by writers that can drop uncommitted bytes.
type Discarder interface {
	Discard() error
}

// Discard abandons w, dropping pending bytes when the writer supports it.
func Discard(w io.WriteCloser) error {
	if d, ok := w.(Discarder); ok {
		return d.Discard()
	}
	return w.Close()
}

// Router dispatches URIs to the provider registered for their authority.
type Router struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewRouter creates a router over providers
func NewRouter(providers ...Provider) *Router {
	r := &Router{providers: make(map[string]Provider)}
	for _, p := range providers {
		r.Register(p)
	}
	return r
}

// Register adds or replaces the provider for its authority
func (r *Router) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Authority()] = p
}

// Provider returns the provider serving uri
func (r *Router) Provider(uri string) (Provider, error) {
	u, err := ParseURI(uri)
	if err != nil {
		return nil, &failure.Error{Kind: failure.Validation, Op: "route", Path: uri, Message: "malformed uri", Err: err}
	}

	r.mu.RLock()
	p, ok := r.providers[u.Authority]
	r.mu.RUnlock()
	if !ok {
		return nil, failure.New(failure.NotFound, "route", "no provider for authority %q", u.Authority).WithPath(uri)
	}
	return p, nil
}

// Tree returns the tree provider serving uri
func (r *Router) Tree(uri string) (Tree, error) {
	p, err := r.Provider(uri)
	if err != nil {
		return nil, err
	}
	t, ok := p.(Tree)
	if !ok {
		return nil, failure.New(failure.NotADirectory, "route", "uri does not address a document tree").WithPath(uri)
	}
	return t, nil
}

// Authority of the router itself is empty; it serves every registered authority.
func (r *Router) Authority() string { return "" }

// Stat implements Provider
func (r *Router) Stat(ctx context.Context, uri string) (*Node, error) {
	p, err := r.Provider(uri)
	if err != nil {
		return nil, err
	}
	return p.Stat(ctx, uri)
}

// OpenReader implements Provider
func (r *Router) OpenReader(ctx context.Context, uri string) (io.ReadCloser, error) {
	p, err := r.Provider(uri)
	if err != nil {
		return nil, err
	}
	return p.OpenReader(ctx, uri)
}

// OpenWriter implements Provider
func (r *Router) OpenWriter(ctx context.Context, uri string) (io.WriteCloser, error) {
	p, err := r.Provider(uri)
	if err != nil {
		return nil, err
	}
	return p.OpenWriter(ctx, uri)
}

// Delete implements Provider
func (r *Router) Delete(ctx context.Context, uri string) (int, error) {
	p, err := r.Provider(uri)
	if err != nil {
		return 0, err
	}
	return p.Delete(ctx, uri)
}
