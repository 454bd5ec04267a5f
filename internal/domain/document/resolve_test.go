package document

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
)

// memTree is a minimal in-memory Tree keyed by slash paths.
type memTree struct {
	nodes    map[string]*Node
	created  []string
	failMkdr bool
	findErr  error
}

func newMemTree() *memTree {
	return &memTree{nodes: map[string]*Node{"": {URI: "mem://", Kind: KindDirectory}}}
}

func (m *memTree) key(parent *Node, name string) string {
	p := strings.TrimPrefix(parent.URI, "mem://")
	if p == "" {
		return name
	}
	return p + "/" + name
}

func (m *memTree) add(path string, kind Kind) {
	m.nodes[path] = &Node{URI: "mem://" + path, Kind: kind, Name: path[strings.LastIndex(path, "/")+1:]}
}

func (m *memTree) Authority() string { return "mem" }
func (m *memTree) Stat(context.Context, string) (*Node, error) {
	return nil, failure.ErrNotFound
}
func (m *memTree) OpenReader(context.Context, string) (io.ReadCloser, error) {
	return nil, failure.ErrUnreadableTarget
}
func (m *memTree) OpenWriter(context.Context, string) (io.WriteCloser, error) {
	return nil, failure.ErrUnwritableTarget
}
func (m *memTree) Delete(context.Context, string) (int, error) { return 0, nil }
func (m *memTree) Root(context.Context, string) (*Node, error) { return m.nodes[""], nil }

func (m *memTree) FindChild(_ context.Context, parent *Node, name string) (*Node, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.nodes[m.key(parent, name)], nil
}

func (m *memTree) CreateDirectory(_ context.Context, parent *Node, name string) (*Node, error) {
	if m.failMkdr {
		return nil, errors.New("read-only")
	}
	k := m.key(parent, name)
	m.add(k, KindDirectory)
	m.created = append(m.created, k)
	return m.nodes[k], nil
}

func (m *memTree) CreateFile(_ context.Context, parent *Node, contentType, name string) (*Node, error) {
	k := m.key(parent, name)
	m.add(k, KindFile)
	m.nodes[k].ContentType = contentType
	m.created = append(m.created, k)
	return m.nodes[k], nil
}

func TestResolveEnsureCreatesInOrder(t *testing.T) {
	tree := newMemTree()
	ctx := context.Background()

	node, err := Resolve(ctx, tree, tree.nodes[""], "a/b/c.txt", Ensure, "text/plain")
	require.NoError(t, err)
	assert.True(t, node.IsFile())
	assert.Equal(t, "text/plain", node.ContentType)
	assert.Equal(t, []string{"a", "a/b", "a/b/c.txt"}, tree.created)

	again, err := Resolve(ctx, tree, tree.nodes[""], "/a/b/c.txt", Ensure, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, node.URI, again.URI)
	assert.Len(t, tree.created, 3, "second resolution must not create anything")
}

func TestResolveLookupHasNoSideEffects(t *testing.T) {
	tree := newMemTree()
	tree.add("a", KindDirectory)

	_, err := Resolve(context.Background(), tree, tree.nodes[""], "a/missing/c.txt", Lookup, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrNotFound)
	assert.Equal(t, "a/missing", err.(*failure.Error).Path)
	assert.Empty(t, tree.created)

	_, err = Resolve(context.Background(), tree, tree.nodes[""], "a/c.txt", Lookup, "")
	assert.ErrorIs(t, err, failure.ErrNotFound)
	assert.Empty(t, tree.created)
}

func TestResolveKindMismatches(t *testing.T) {
	tree := newMemTree()
	tree.add("file.txt", KindFile)
	tree.add("dir", KindDirectory)
	ctx := context.Background()
	root := tree.nodes[""]

	_, err := Resolve(ctx, tree, root, "file.txt/x", Ensure, "")
	assert.ErrorIs(t, err, failure.ErrNotADirectory)

	_, err = Resolve(ctx, tree, root, "dir", Ensure, "")
	assert.ErrorIs(t, err, failure.ErrNotAFile)

	_, err = Resolve(ctx, tree, root, "dir", Lookup, "")
	assert.ErrorIs(t, err, failure.ErrNotAFile)

	node, err := Resolve(ctx, tree, root, "dir", Locate, "")
	require.NoError(t, err)
	assert.True(t, node.IsDirectory())

	_, err = Resolve(ctx, tree, &Node{Kind: KindFile}, "x", Lookup, "")
	assert.ErrorIs(t, err, failure.ErrNotADirectory)
}

func TestResolveSingleSegment(t *testing.T) {
	tree := newMemTree()
	node, err := Resolve(context.Background(), tree, tree.nodes[""], "notes.txt", Ensure, "text/plain")
	require.NoError(t, err)
	assert.Equal(t, "notes.txt", node.Name)
	assert.Equal(t, []string{"notes.txt"}, tree.created)
}

func TestResolveRejectsInvalidSegments(t *testing.T) {
	tree := newMemTree()
	for _, path := range []string{"", "a//b", "../etc/passwd", "a/./b", "a/"} {
		t.Run(path, func(t *testing.T) {
			_, err := Resolve(context.Background(), tree, tree.nodes[""], path, Ensure, "")
			assert.ErrorIs(t, err, failure.ErrValidation)
		})
	}
	assert.Empty(t, tree.created)
}

func TestResolveCreateFailure(t *testing.T) {
	tree := newMemTree()
	tree.failMkdr = true

	_, err := Resolve(context.Background(), tree, tree.nodes[""], "x/y/z.bin", Ensure, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, failure.ErrCreateFailed)
	assert.Equal(t, "x", err.(*failure.Error).Path)
}

func TestResolveProviderErrorPassesThrough(t *testing.T) {
	tree := newMemTree()
	tree.findErr = failure.New(failure.UnreadableTarget, "find", "no read grant")

	_, err := Resolve(context.Background(), tree, tree.nodes[""], "a/b", Lookup, "")
	assert.ErrorIs(t, err, failure.ErrUnreadableTarget)
}
