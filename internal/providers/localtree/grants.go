package localtree

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/docbridge/internal/domain/document"
	"github.com/GriffinCanCode/docbridge/internal/domain/picker"
	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
	"github.com/GriffinCanCode/docbridge/internal/shared/paths"
)

// Grant is access the user gave to one document or tree.
type Grant struct {
	URI        string       `json:"uri"`
	Flags      picker.Flags `json:"flags"`
	Persistent bool         `json:"persistent"`
	GrantedAt  time.Time    `json:"granted_at"`
}

// Grants stores picker grants. Persistent grants survive restarts when a file is set.
type Grants struct {
	mu     sync.RWMutex
	grants map[string]Grant
	file   string
	now    func() time.Time
	logger *zap.Logger
}

// NewGrants creates a grant store. An empty file keeps everything in memory.
func NewGrants(file string, logger *zap.Logger) (*Grants, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Grants{
		grants: make(map[string]Grant),
		file:   file,
		now:    time.Now,
		logger: logger.Named("grants"),
	}
	if file == "" {
		return g, nil
	}

	data, err := os.ReadFile(file)
	if errors.Is(err, os.ErrNotExist) {
		return g, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read grants: %w", err)
	}

	var stored []Grant
	if err := sonic.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("decode grants %s: %w", file, err)
	}
	for _, gr := range stored {
		gr.Persistent = true
		g.grants[gr.URI] = gr
	}
	g.logger.Info("grants loaded", zap.Int("count", len(stored)), zap.String("file", file))
	return g, nil
}

// Take records a grant, widening an existing one. Persistent grants are saved.
func (g *Grants) Take(_ context.Context, uri string, flags picker.Flags, persist bool) error {
	if _, err := document.ParseURI(uri); err != nil {
		return &failure.Error{Kind: failure.Validation, Op: "grant", Path: uri, Message: "malformed uri", Err: err}
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	gr := g.grants[uri]
	gr.URI = uri
	gr.Flags |= flags.Access()
	gr.Persistent = gr.Persistent || persist
	gr.GrantedAt = g.now()
	g.grants[uri] = gr

	g.logger.Debug("grant taken", zap.String("uri", uri), zap.Stringer("flags", gr.Flags), zap.Bool("persistent", gr.Persistent))
	if !gr.Persistent {
		return nil
	}
	return g.saveLocked()
}

// Release drops the grant for uri
func (g *Grants) Release(uri string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	gr, ok := g.grants[uri]
	if !ok {
		return false, nil
	}
	delete(g.grants, uri)
	if gr.Persistent {
		return true, g.saveLocked()
	}
	return true, nil
}

// Check returns nil when some grant covers uri with all of need. A tree grant covers every
// document beneath its tree document.
func (g *Grants) Check(uri string, need picker.Flags) error {
	target, err := document.ParseURI(uri)
	if err != nil {
		return &failure.Error{Kind: failure.Validation, Op: "grant", Path: uri, Message: "malformed uri", Err: err}
	}
	targetID, _ := target.DocumentID()

	g.mu.RLock()
	defer g.mu.RUnlock()

	if gr, ok := g.grants[uri]; ok && gr.Flags.Has(need) {
		return nil
	}
	for _, gr := range g.grants {
		if !gr.Flags.Has(need) {
			continue
		}
		if covers(gr.URI, target.Authority, targetID) {
			return nil
		}
	}
	return failure.New(failure.NotFound, "grant", "no %s grant", need).WithPath(uri)
}

// List returns every grant ordered by URI
func (g *Grants) List() []Grant {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Grant, 0, len(g.grants))
	for _, gr := range g.grants {
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].URI < out[j].URI })
	return out
}

func covers(grantURI, authority, docID string) bool {
	u, err := document.ParseURI(grantURI)
	if err != nil || u.Authority != authority || docID == "" {
		return false
	}
	if !u.IsTree() {
		id, _ := u.DocumentID()
		return id == docID
	}

	treeID, _ := u.TreeID()
	treeVolume, treeRel, err := document.SplitDocumentID(treeID)
	if err != nil {
		return false
	}
	volume, rel, err := document.SplitDocumentID(docID)
	if err != nil || volume != treeVolume {
		return false
	}
	return paths.Within(paths.TrimLeading(treeRel), paths.TrimLeading(rel))
}

func (g *Grants) saveLocked() error {
	if g.file == "" {
		return nil
	}

	stored := make([]Grant, 0, len(g.grants))
	for _, gr := range g.grants {
		if gr.Persistent {
			stored = append(stored, gr)
		}
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].URI < stored[j].URI })

	data, err := sonic.ConfigStd.MarshalIndent(stored, "", "  ")
	if err != nil {
		return fmt.Errorf("encode grants: %w", err)
	}
	if err := atomic.WriteFile(g.file, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write grants: %w", err)
	}
	return nil
}
