package localtree

import (
	"context"
	"errors"
	"io"
	"os"
	"sort"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/docbridge/internal/domain/collection"
	"github.com/GriffinCanCode/docbridge/internal/domain/document"
	"github.com/GriffinCanCode/docbridge/internal/domain/picker"
	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
	"github.com/GriffinCanCode/docbridge/internal/shared/paths"
)

// DefaultAuthority is the URI authority of local document trees.
const DefaultAuthority = "docbridge.local"

const sniffLen = 512

// Provider implements document.Tree over named volumes.
type Provider struct {
	authority string
	volumes   map[string]afero.Fs
	grants    *Grants
	logger    *zap.Logger

	// content types declared at creation for files whose name implies none
	declared sync.Map
}

// Option configures a Provider
type Option func(*Provider)

// WithAuthority overrides DefaultAuthority
func WithAuthority(authority string) Option {
	return func(p *Provider) { p.authority = authority }
}

// WithGrants enforces access through g
func WithGrants(g *Grants) Option {
	return func(p *Provider) { p.grants = g }
}

// WithLogger sets the logger
func WithLogger(l *zap.Logger) Option {
	return func(p *Provider) { p.logger = l }
}

// New creates a provider over volumes
func New(volumes map[string]afero.Fs, opts ...Option) *Provider {
	p := &Provider{
		authority: DefaultAuthority,
		volumes:   volumes,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named("localtree")
	return p
}

// OSVolumes maps volume names to directories on the host filesystem.
func OSVolumes(dirs map[string]string) map[string]afero.Fs {
	volumes := make(map[string]afero.Fs, len(dirs))
	for name, dir := range dirs {
		volumes[name] = afero.NewBasePathFs(afero.NewOsFs(), dir)
	}
	return volumes
}

// Authority implements document.Provider
func (p *Provider) Authority() string { return p.authority }

// Volumes lists the volume names
func (p *Provider) Volumes() []string {
	names := make([]string, 0, len(p.volumes))
	for name := range p.volumes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TreeURI returns the tree URI rooted at rel inside volume
func (p *Provider) TreeURI(volume, rel string) string {
	return document.TreeURI(p.authority, document.DocumentIDOf(volume, paths.TrimLeading(rel)))
}

// DocumentURI returns the standalone URI of rel inside volume
func (p *Provider) DocumentURI(volume, rel string) string {
	return document.DocumentURI(p.authority, "", document.DocumentIDOf(volume, paths.TrimLeading(rel)))
}

// location is a parsed document address.
type location struct {
	uri    string
	treeID string
	volume string
	rel    string
	fs     afero.Fs
}

func (l location) path() string { return paths.Separator + l.rel }

func (p *Provider) locate(op, uri string) (location, error) {
	u, err := document.ParseURI(uri)
	if err != nil {
		return location{}, &failure.Error{Kind: failure.Validation, Op: op, Path: uri, Message: "malformed uri", Err: err}
	}
	if u.Authority != p.authority {
		return location{}, failure.New(failure.NotFound, op, "uri belongs to %q", u.Authority).WithPath(uri)
	}

	docID, ok := u.DocumentID()
	if !ok {
		return location{}, failure.New(failure.Validation, op, "uri does not address a document").WithPath(uri)
	}
	volume, rel, err := document.SplitDocumentID(docID)
	if err != nil {
		return location{}, &failure.Error{Kind: failure.Validation, Op: op, Path: uri, Message: "malformed document id", Err: err}
	}
	rel = paths.TrimLeading(rel)
	if rel != "" {
		if err := paths.ValidateSegments(paths.Segments(rel)); err != nil {
			return location{}, &failure.Error{Kind: failure.Validation, Op: op, Path: uri, Message: "invalid document path", Err: err}
		}
	}

	fs, ok := p.volumes[volume]
	if !ok {
		return location{}, failure.New(failure.NotFound, op, "unknown volume %q", volume).WithPath(uri)
	}

	treeID, _ := u.TreeID()
	return location{uri: uri, treeID: treeID, volume: volume, rel: rel, fs: fs}, nil
}

func (p *Provider) child(parent location, name string) location {
	rel := paths.Join(parent.rel, name)
	return location{
		uri:    document.DocumentURI(p.authority, parent.treeID, document.DocumentIDOf(parent.volume, rel)),
		treeID: parent.treeID,
		volume: parent.volume,
		rel:    rel,
		fs:     parent.fs,
	}
}

func (p *Provider) allowed(uri string, need picker.Flags) bool {
	return p.grants == nil || p.grants.Check(uri, need) == nil
}

func (p *Provider) require(op, uri string, need picker.Flags) error {
	if p.allowed(uri, need) {
		return nil
	}
	kind := failure.UnreadableTarget
	if need.Has(picker.Write) {
		kind = failure.UnwritableTarget
	}
	return failure.New(kind, op, "no %s grant", need).WithPath(uri)
}

func (p *Provider) node(loc location, fi os.FileInfo) *document.Node {
	n := &document.Node{
		URI:          loc.uri,
		Name:         fi.Name(),
		LastModified: fi.ModTime(),
		Writable:     p.allowed(loc.uri, picker.Write),
	}
	if loc.rel == "" {
		n.Name = loc.volume
	}
	if fi.IsDir() {
		n.Kind = document.KindDirectory
		n.ContentType = document.DirectoryMimeType
		return n
	}
	n.Kind = document.KindFile
	n.Size = fi.Size()
	n.ContentType = p.contentType(loc)
	return n
}

func (p *Provider) contentType(loc location) string {
	_, name := paths.Split(loc.rel)
	if t := collection.TypeByExtension(name); t != "" {
		return t
	}
	if t, ok := p.declared.Load(loc.volume + ":" + loc.rel); ok {
		return t.(string)
	}

	f, err := loc.fs.Open(loc.path())
	if err != nil {
		return collection.DefaultContentType
	}
	defer f.Close()
	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(f, head)
	if n == 0 {
		return collection.DefaultContentType
	}
	return collection.Sniff(head[:n])
}

func (p *Provider) stat(op string, loc location) (*document.Node, error) {
	fi, err := loc.fs.Stat(loc.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, failure.New(failure.NotFound, op, "document does not exist").WithPath(loc.uri)
		}
		return nil, failure.Wrap(failure.Unknown, op, err)
	}
	return p.node(loc, fi), nil
}

// Stat implements document.Provider
func (p *Provider) Stat(_ context.Context, uri string) (*document.Node, error) {
	loc, err := p.locate("stat", uri)
	if err != nil {
		return nil, err
	}
	return p.stat("stat", loc)
}

// OpenReader implements document.Provider
func (p *Provider) OpenReader(_ context.Context, uri string) (io.ReadCloser, error) {
	const op = "open"

	loc, err := p.locate(op, uri)
	if err != nil {
		return nil, err
	}
	if err := p.require(op, uri, picker.Read); err != nil {
		return nil, err
	}
	f, err := loc.fs.Open(loc.path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, failure.New(failure.NotFound, op, "document does not exist").WithPath(uri)
		}
		return nil, &failure.Error{Kind: failure.UnreadableTarget, Op: op, Path: uri, Err: err}
	}
	return f, nil
}

// OpenWriter implements document.Provider. Bytes land in a hidden sibling and replace the
// target on Close.
func (p *Provider) OpenWriter(ctx context.Context, uri string) (io.WriteCloser, error) {
	const op = "open"

	loc, err := p.locate(op, uri)
	if err != nil {
		return nil, err
	}
	if err := p.require(op, uri, picker.Write); err != nil {
		return nil, err
	}
	n, err := p.stat(op, loc)
	if err != nil {
		return nil, err
	}
	if !n.IsFile() {
		return nil, failure.New(failure.UnwritableTarget, op, "target is not a file").WithPath(uri)
	}
	return newReplacer(loc.fs, loc.path())
}

// Delete implements document.Provider. Directories are removed with their contents.
func (p *Provider) Delete(_ context.Context, uri string) (int, error) {
	const op = "delete"

	loc, err := p.locate(op, uri)
	if err != nil {
		return 0, err
	}
	if loc.rel == "" {
		return 0, failure.New(failure.Validation, op, "cannot delete a volume root").WithPath(uri)
	}
	if err := p.require(op, uri, picker.Write); err != nil {
		return 0, err
	}

	if _, err := loc.fs.Stat(loc.path()); errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err := loc.fs.RemoveAll(loc.path()); err != nil {
		return 0, failure.Wrap(failure.Unknown, op, err)
	}
	p.declared.Delete(loc.volume + ":" + loc.rel)
	p.logger.Debug("document deleted", zap.String("uri", uri))
	return 1, nil
}

// Root implements document.Tree
func (p *Provider) Root(_ context.Context, treeURI string) (*document.Node, error) {
	const op = "root"

	u, err := document.ParseURI(treeURI)
	if err != nil || !u.IsTree() {
		return nil, failure.New(failure.Validation, op, "not a tree uri").WithPath(treeURI)
	}
	loc, err := p.locate(op, treeURI)
	if err != nil {
		return nil, err
	}
	n, err := p.stat(op, loc)
	if err != nil {
		return nil, err
	}
	if !n.IsDirectory() {
		return nil, failure.New(failure.NotADirectory, op, "tree root is not a directory").WithPath(treeURI)
	}
	return n, nil
}

// FindChild implements document.Tree
func (p *Provider) FindChild(_ context.Context, parent *document.Node, name string) (*document.Node, error) {
	loc, err := p.locate("find", parent.URI)
	if err != nil {
		return nil, err
	}
	n, err := p.stat("find", p.child(loc, name))
	if failure.KindOf(err) == failure.NotFound {
		return nil, nil
	}
	return n, err
}

// CreateDirectory implements document.Tree
func (p *Provider) CreateDirectory(_ context.Context, parent *document.Node, name string) (*document.Node, error) {
	const op = "mkdir"

	loc, err := p.locate(op, parent.URI)
	if err != nil {
		return nil, err
	}
	if err := p.require(op, parent.URI, picker.Write); err != nil {
		return nil, err
	}
	c := p.child(loc, name)
	if err := c.fs.Mkdir(c.path(), 0o755); err != nil {
		return nil, err
	}
	return p.stat(op, c)
}

// CreateFile implements document.Tree. The file must not exist yet.
func (p *Provider) CreateFile(_ context.Context, parent *document.Node, contentType, name string) (*document.Node, error) {
	const op = "create"

	loc, err := p.locate(op, parent.URI)
	if err != nil {
		return nil, err
	}
	if err := p.require(op, parent.URI, picker.Write); err != nil {
		return nil, err
	}
	c := p.child(loc, name)
	f, err := c.fs.OpenFile(c.path(), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}
	if contentType != "" && contentType != collection.DefaultContentType && collection.TypeByExtension(name) == "" {
		p.declared.Store(c.volume+":"+c.rel, contentType)
	}
	return p.stat(op, c)
}
