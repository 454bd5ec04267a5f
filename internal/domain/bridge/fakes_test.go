package bridge

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/GriffinCanCode/docbridge/internal/domain/collection"
	"github.com/GriffinCanCode/docbridge/internal/domain/document"
	"github.com/GriffinCanCode/docbridge/internal/domain/picker"
	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
	"github.com/GriffinCanCode/docbridge/internal/shared/paths"
)

var epoch = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

type memEntry struct {
	node    document.Node
	data    []byte
	pending bool
}

// memStore keeps documents by URI.
type memStore struct {
	authority string
	mu        sync.Mutex
	entries   map[string]*memEntry
}

func newMemStore(authority string) *memStore {
	return &memStore{authority: authority, entries: make(map[string]*memEntry)}
}

func (s *memStore) Authority() string { return s.authority }

func (s *memStore) put(n document.Node, data []byte) *document.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	n.Size = int64(len(data))
	n.LastModified = epoch
	n.Writable = true
	s.entries[n.URI] = &memEntry{node: n, data: data}
	cp := n
	return &cp
}

func (s *memStore) Stat(_ context.Context, uri string) (*document.Node, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[uri]
	if !ok {
		return nil, failure.New(failure.NotFound, "stat", "no such document").WithPath(uri)
	}
	n := e.node
	n.Size = int64(len(e.data))
	return &n, nil
}

func (s *memStore) OpenReader(_ context.Context, uri string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[uri]
	if !ok {
		return nil, failure.New(failure.NotFound, "open", "no such document").WithPath(uri)
	}
	return io.NopCloser(bytes.NewReader(append([]byte(nil), e.data...))), nil
}

func (s *memStore) OpenWriter(_ context.Context, uri string) (io.WriteCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[uri]; !ok {
		return nil, failure.New(failure.NotFound, "open", "no such document").WithPath(uri)
	}
	return &memWriter{store: s, uri: uri}, nil
}

func (s *memStore) Delete(_ context.Context, uri string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key := range s.entries {
		if key == uri || strings.HasPrefix(key, uri+"%2F") {
			delete(s.entries, key)
			n++
		}
	}
	if n > 1 {
		n = 1
	}
	return n, nil
}

func (s *memStore) has(uri string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[uri]
	return ok
}

func (s *memStore) content(uri string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[uri]; ok {
		return string(e.data)
	}
	return ""
}

type memWriter struct {
	store *memStore
	uri   string
	buf   bytes.Buffer
}

func (w *memWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }

func (w *memWriter) Close() error {
	w.store.mu.Lock()
	defer w.store.mu.Unlock()
	if e, ok := w.store.entries[w.uri]; ok {
		e.data = append([]byte(nil), w.buf.Bytes()...)
	}
	return nil
}

func (w *memWriter) Discard() error { return nil }

// memTree is a single-volume tree under content://mem/tree/v%3A.
type memTree struct {
	*memStore
}

const treeVolume = "v"

func newMemTree() *memTree {
	t := &memTree{memStore: newMemStore("mem")}
	t.put(document.Node{URI: t.rootURI(), Kind: document.KindDirectory, Name: treeVolume}, nil)
	return t
}

func (t *memTree) rootURI() string {
	return document.TreeURI("mem", document.DocumentIDOf(treeVolume, ""))
}

func (t *memTree) uriOf(rel string) string {
	if rel == "" {
		return t.rootURI()
	}
	return document.DocumentURI("mem", document.DocumentIDOf(treeVolume, ""), document.DocumentIDOf(treeVolume, rel))
}

func (t *memTree) relOf(uri string) string {
	u, err := document.ParseURI(uri)
	if err != nil {
		return ""
	}
	docID, _ := u.DocumentID()
	_, rel, _ := document.SplitDocumentID(docID)
	return rel
}

func (t *memTree) addFile(rel, contentType string, data []byte) string {
	_, name := paths.Split(rel)
	return t.put(document.Node{URI: t.uriOf(rel), Kind: document.KindFile, Name: name, ContentType: contentType}, data).URI
}

func (t *memTree) addDir(rel string) string {
	_, name := paths.Split(rel)
	return t.put(document.Node{URI: t.uriOf(rel), Kind: document.KindDirectory, Name: name, ContentType: document.DirectoryMimeType}, nil).URI
}

func (t *memTree) Root(ctx context.Context, treeURI string) (*document.Node, error) {
	return t.Stat(ctx, treeURI)
}

func (t *memTree) FindChild(ctx context.Context, parent *document.Node, name string) (*document.Node, error) {
	n, err := t.Stat(ctx, t.uriOf(paths.Join(t.relOf(parent.URI), name)))
	if failure.KindOf(err) == failure.NotFound {
		return nil, nil
	}
	return n, err
}

func (t *memTree) CreateDirectory(_ context.Context, parent *document.Node, name string) (*document.Node, error) {
	return t.Stat(context.Background(), t.addDir(paths.Join(t.relOf(parent.URI), name)))
}

func (t *memTree) CreateFile(_ context.Context, parent *document.Node, contentType, name string) (*document.Node, error) {
	return t.Stat(context.Background(), t.addFile(paths.Join(t.relOf(parent.URI), name), contentType, nil))
}

// memIndex is a ContentIndex under content://media.
type memIndex struct {
	*memStore
	seq       atomic.Int64
	insertErr error
	finalized atomic.Int64
	aborted   atomic.Int64
}

func newMemIndex() *memIndex {
	return &memIndex{memStore: newMemStore("media")}
}

func (m *memIndex) Insert(_ context.Context, req collection.InsertRequest) (*document.Node, error) {
	if m.insertErr != nil {
		return nil, m.insertErr
	}
	uri := fmt.Sprintf("content://media/external/%s/media/%d", req.Collection.Segment(), m.seq.Add(1))
	n := m.put(document.Node{URI: uri, Kind: document.KindFile, Name: req.DisplayName, ContentType: req.ContentType}, nil)
	m.mu.Lock()
	m.entries[uri].pending = true
	m.mu.Unlock()
	return n, nil
}

func (m *memIndex) Finalize(ctx context.Context, uri string) (*document.Node, error) {
	m.mu.Lock()
	if e, ok := m.entries[uri]; ok {
		e.pending = false
	}
	m.mu.Unlock()
	m.finalized.Add(1)
	return m.Stat(ctx, uri)
}

func (m *memIndex) Abort(ctx context.Context, uri string) error {
	m.aborted.Add(1)
	_, err := m.Delete(ctx, uri)
	return err
}

// fakeLauncher hands every request to a channel.
type fakeLauncher struct {
	requests chan picker.Request
	views    chan picker.ViewRequest
	err      error
	panicOn  bool
}

func newFakeLauncher() *fakeLauncher {
	return &fakeLauncher{requests: make(chan picker.Request, 8), views: make(chan picker.ViewRequest, 8)}
}

func (l *fakeLauncher) Launch(_ context.Context, req picker.Request) error {
	if l.panicOn {
		panic("launcher exploded")
	}
	if l.err != nil {
		return l.err
	}
	l.requests <- req
	return nil
}

func (l *fakeLauncher) View(_ context.Context, req picker.ViewRequest) error {
	if l.err != nil {
		return l.err
	}
	l.views <- req
	return nil
}

type grantCall struct {
	uri     string
	flags   picker.Flags
	persist bool
}

type fakeGrants struct {
	mu    sync.Mutex
	calls []grantCall
}

func (g *fakeGrants) Take(_ context.Context, uri string, flags picker.Flags, persist bool) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, grantCall{uri: uri, flags: flags, persist: persist})
	return nil
}

func (g *fakeGrants) taken() []grantCall {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]grantCall(nil), g.calls...)
}

type countingRecorder struct {
	nopRecorder
	stale    atomic.Int64
	failures atomic.Int64
}

func (r *countingRecorder) IncStaleResults() { r.stale.Add(1) }

func (r *countingRecorder) RecordFailure(string, failure.Kind) { r.failures.Add(1) }
