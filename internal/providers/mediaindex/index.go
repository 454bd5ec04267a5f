package mediaindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/docbridge/internal/domain/collection"
	"github.com/GriffinCanCode/docbridge/internal/domain/document"
	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
	"github.com/GriffinCanCode/docbridge/internal/shared/id"
	"github.com/GriffinCanCode/docbridge/internal/shared/paths"
)

// Authority of media URIs.
const Authority = "media"

const (
	volumeSegment = "external"
	mediaSegment  = "media"
	maxCollisions = 1000
)

// Index implements the bridge's content index over an afero filesystem and a Catalog.
type Index struct {
	fs      afero.Fs
	catalog Catalog
	logger  *zap.Logger
	now     func() time.Time

	// serializes name reservation
	mu sync.Mutex
}

// Option configures an Index
type Option func(*Index)

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(i *Index) { i.logger = l }
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) Option {
	return func(i *Index) { i.now = now }
}

// New creates an index storing files in fs
func New(fs afero.Fs, catalog Catalog, opts ...Option) *Index {
	idx := &Index{fs: fs, catalog: catalog, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(idx)
	}
	idx.logger = idx.logger.Named("mediaindex")
	return idx
}

// URI returns the media URI of an entry
func URI(c collection.Collection, entryID string) string {
	return document.URI{
		Authority: Authority,
		Segments:  []string{volumeSegment, c.Segment(), mediaSegment, entryID},
	}.String()
}

// ParseURI extracts the collection and entry id of a media URI
func ParseURI(uri string) (collection.Collection, string, error) {
	u, err := document.ParseURI(uri)
	if err != nil {
		return collection.Generic, "", err
	}
	if u.Authority != Authority || len(u.Segments) != 4 || u.Segments[0] != volumeSegment || u.Segments[2] != mediaSegment {
		return collection.Generic, "", fmt.Errorf("not a media entry uri: %q", uri)
	}
	c, ok := collection.Parse(u.Segments[1])
	if !ok {
		return collection.Generic, "", fmt.Errorf("unknown collection %q", u.Segments[1])
	}
	return c, u.Segments[3], nil
}

// Authority implements document.Provider
func (i *Index) Authority() string { return Authority }

// Insert reserves a file for req and records a pending entry. A taken display name becomes
// "name (1).ext", "name (2).ext" and so on.
func (i *Index) Insert(ctx context.Context, req collection.InsertRequest) (*document.Node, error) {
	const op = "insert"

	dir := paths.TrimLeading(req.RelativePath)
	if dir != "" {
		if err := paths.ValidateSegments(paths.Segments(dir)); err != nil {
			return nil, &failure.Error{Kind: failure.Validation, Op: op, Path: dir, Message: "invalid relative path", Err: err}
		}
	}
	if err := paths.ValidateSegments([]string{req.DisplayName}); err != nil || strings.Contains(req.DisplayName, paths.Separator) {
		return nil, failure.New(failure.Validation, op, "invalid display name %q", req.DisplayName)
	}

	if err := i.fs.MkdirAll(paths.Separator+dir, 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %w", dir, err)
	}

	name, err := i.reserve(dir, req.DisplayName)
	if err != nil {
		return nil, err
	}

	now := i.now()
	e := Entry{
		ID:           id.NewEntryID().String(),
		Collection:   req.Collection,
		RelativePath: dir,
		DisplayName:  name,
		ContentType:  req.ContentType,
		Pending:      true,
		Created:      now,
		Modified:     now,
	}
	if err := i.catalog.Insert(ctx, e); err != nil {
		_ = i.fs.Remove(paths.Separator + e.Path())
		return nil, err
	}

	i.logger.Debug("entry inserted", zap.String("id", e.ID), zap.String("path", e.Path()), zap.Stringer("collection", e.Collection))
	return i.node(e), nil
}

func (i *Index) reserve(dir, name string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()

	stem, ext := paths.Stem(name), ""
	if e := paths.Ext(name); e != "" {
		ext = name[len(name)-len(e)-1:]
	}

	candidate := name
	for n := 1; n <= maxCollisions; n++ {
		f, err := i.fs.OpenFile(paths.Separator+paths.Join(dir, candidate), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			return candidate, f.Close()
		}
		if !errors.Is(err, os.ErrExist) {
			return "", fmt.Errorf("reserve %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s (%d)%s", stem, n, ext)
	}
	return "", fmt.Errorf("no free name for %s after %d attempts", name, maxCollisions)
}

// Finalize marks a provisional entry complete and records its size.
func (i *Index) Finalize(ctx context.Context, uri string) (*document.Node, error) {
	const op = "finalize"
	e, err := i.entry(ctx, op, uri)
	if err != nil {
		return nil, err
	}
	if !e.Pending {
		return nil, errNotProvisional(op, uri)
	}
	fi, err := i.fs.Stat(paths.Separator + e.Path())
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", e.Path(), err)
	}

	e.Pending = false
	e.Size = fi.Size()
	e.Modified = i.now()
	if err := i.catalog.Update(ctx, *e); err != nil {
		return nil, err
	}
	return i.node(*e), nil
}

// Abort removes a provisional entry and its bytes. Aborting a missing entry is a no-op;
// finalized entries are left alone and reported.
func (i *Index) Abort(ctx context.Context, uri string) error {
	const op = "abort"
	e, err := i.entry(ctx, op, uri)
	if failure.KindOf(err) == failure.NotFound {
		return nil
	}
	if err != nil {
		return err
	}
	if !e.Pending {
		return errNotProvisional(op, uri)
	}
	return i.remove(ctx, e)
}

// Reclaim removes provisional entries created before cutoff, bytes included. Such entries
// belong to writes that can no longer finalize; List never shows them.
func (i *Index) Reclaim(ctx context.Context, cutoff time.Time) (int, error) {
	entries, err := i.catalog.List(ctx, Filter{IncludePending: true})
	if err != nil {
		return 0, err
	}

	removed := 0
	for k := range entries {
		e := &entries[k]
		if !e.Pending || !e.Created.Before(cutoff) {
			continue
		}
		if err := i.remove(ctx, e); err != nil {
			return removed, err
		}
		removed++
	}
	if removed > 0 {
		i.logger.Info("reclaimed provisional entries", zap.Int("removed", removed), zap.Time("cutoff", cutoff))
	}
	return removed, nil
}

func errNotProvisional(op, uri string) error {
	return failure.New(failure.Validation, op, "entry is not provisional").WithPath(uri)
}

// List returns the finalized entries of c
func (i *Index) List(ctx context.Context, c collection.Collection) ([]document.Node, error) {
	entries, err := i.catalog.List(ctx, Filter{Collection: &c})
	if err != nil {
		return nil, err
	}
	out := make([]document.Node, 0, len(entries))
	for _, e := range entries {
		out = append(out, *i.node(e))
	}
	return out, nil
}

// Stat implements document.Provider. Pending entries are visible.
func (i *Index) Stat(ctx context.Context, uri string) (*document.Node, error) {
	e, err := i.entry(ctx, "stat", uri)
	if err != nil {
		return nil, err
	}
	n := i.node(*e)
	if fi, err := i.fs.Stat(paths.Separator + e.Path()); err == nil {
		n.Size = fi.Size()
		n.LastModified = fi.ModTime()
	}
	return n, nil
}

// OpenReader implements document.Provider
func (i *Index) OpenReader(ctx context.Context, uri string) (io.ReadCloser, error) {
	e, err := i.entry(ctx, "open", uri)
	if err != nil {
		return nil, err
	}
	f, err := i.fs.Open(paths.Separator + e.Path())
	if err != nil {
		return nil, &failure.Error{Kind: failure.UnreadableTarget, Op: "open", Path: uri, Err: err}
	}
	return f, nil
}

// OpenWriter implements document.Provider
func (i *Index) OpenWriter(ctx context.Context, uri string) (io.WriteCloser, error) {
	e, err := i.entry(ctx, "open", uri)
	if err != nil {
		return nil, err
	}
	f, err := i.fs.OpenFile(paths.Separator+e.Path(), os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, &failure.Error{Kind: failure.UnwritableTarget, Op: "open", Path: uri, Err: err}
	}
	return f, nil
}

// Delete implements document.Provider
func (i *Index) Delete(ctx context.Context, uri string) (int, error) {
	e, err := i.entry(ctx, "delete", uri)
	if failure.KindOf(err) == failure.NotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if err := i.remove(ctx, e); err != nil {
		return 0, err
	}
	return 1, nil
}

func (i *Index) remove(ctx context.Context, e *Entry) error {
	if err := i.fs.Remove(paths.Separator + e.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove %s: %w", e.Path(), err)
	}
	if _, err := i.catalog.Delete(ctx, e.ID); err != nil {
		return err
	}
	i.logger.Debug("entry removed", zap.String("id", e.ID), zap.Bool("pending", e.Pending))
	return nil
}

func (i *Index) entry(ctx context.Context, op, uri string) (*Entry, error) {
	c, entryID, err := ParseURI(uri)
	if err != nil {
		return nil, &failure.Error{Kind: failure.Validation, Op: op, Path: uri, Message: "malformed media uri", Err: err}
	}
	e, err := i.catalog.Get(ctx, entryID)
	if err != nil {
		return nil, failure.Wrap(failure.Unknown, op, err)
	}
	if e == nil || e.Collection != c {
		return nil, failure.New(failure.NotFound, op, "media entry does not exist").WithPath(uri)
	}
	return e, nil
}

func (i *Index) node(e Entry) *document.Node {
	return &document.Node{
		URI:          URI(e.Collection, e.ID),
		Kind:         document.KindFile,
		Name:         e.DisplayName,
		ContentType:  e.ContentType,
		Size:         e.Size,
		LastModified: e.Modified,
		Writable:     true,
	}
}
