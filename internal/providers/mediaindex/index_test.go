package mediaindex

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/docbridge/internal/domain/collection"
	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
)

func newTestIndex(t *testing.T) (*Index, string) {
	t.Helper()
	root := t.TempDir()
	catalog, err := NewMemoryCatalog(filepath.Join(t.TempDir(), "catalog.json"))
	require.NoError(t, err)
	return New(afero.NewBasePathFs(afero.NewOsFs(), root), catalog), root
}

func insert(t *testing.T, idx *Index, c collection.Collection, dir, name, contentType string) string {
	t.Helper()
	n, err := idx.Insert(context.Background(), collection.InsertRequest{
		Collection:   c,
		RelativePath: dir,
		DisplayName:  name,
		ContentType:  contentType,
	})
	require.NoError(t, err)
	return n.URI
}

func write(t *testing.T, idx *Index, uri, data string) {
	t.Helper()
	w, err := idx.OpenWriter(context.Background(), uri)
	require.NoError(t, err)
	_, err = io.WriteString(w, data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestURIRoundTrip(t *testing.T) {
	uri := URI(collection.Images, "01HZX")
	assert.Equal(t, "content://media/external/images/media/01HZX", uri)

	c, entryID, err := ParseURI(uri)
	require.NoError(t, err)
	assert.Equal(t, collection.Images, c)
	assert.Equal(t, "01HZX", entryID)

	assert.Equal(t, "content://media/external/file/media/x", URI(collection.Generic, "x"))

	_, _, err = ParseURI("content://media/internal/images/x")
	assert.Error(t, err)
	_, _, err = ParseURI("content://other/external/images/media/x")
	assert.Error(t, err)
}

func TestInsertWriteFinalize(t *testing.T) {
	idx, root := newTestIndex(t)
	ctx := context.Background()

	uri := insert(t, idx, collection.Images, "Pictures", "x.jpg", "image/jpeg")

	listed, err := idx.List(ctx, collection.Images)
	require.NoError(t, err)
	assert.Empty(t, listed, "pending entries are not listed")

	write(t, idx, uri, "Hello")
	n, err := idx.Stat(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, int64(5), n.Size)

	final, err := idx.Finalize(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, "x.jpg", final.Name)
	assert.Equal(t, "image/jpeg", final.ContentType)
	assert.Equal(t, int64(5), final.Size)

	data, err := os.ReadFile(filepath.Join(root, "Pictures", "x.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "Hello", string(data))

	listed, err = idx.List(ctx, collection.Images)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, uri, listed[0].URI)

	r, err := idx.OpenReader(ctx, uri)
	require.NoError(t, err)
	defer r.Close()
	got, _ := io.ReadAll(r)
	assert.Equal(t, "Hello", string(got))
}

func TestCollisionNaming(t *testing.T) {
	idx, root := newTestIndex(t)
	ctx := context.Background()

	first := insert(t, idx, collection.Downloads, "Download", "report.PDF", "application/pdf")
	second := insert(t, idx, collection.Downloads, "Download", "report.PDF", "application/pdf")
	third := insert(t, idx, collection.Downloads, "Download", "report.PDF", "application/pdf")
	bare := insert(t, idx, collection.Downloads, "Download", "README", "text/plain")
	bare2 := insert(t, idx, collection.Downloads, "Download", "README", "text/plain")

	names := map[string]string{}
	for _, uri := range []string{first, second, third, bare, bare2} {
		n, err := idx.Stat(ctx, uri)
		require.NoError(t, err)
		names[uri] = n.Name
	}
	assert.Equal(t, "report.PDF", names[first])
	assert.Equal(t, "report (1).PDF", names[second])
	assert.Equal(t, "report (2).PDF", names[third])
	assert.Equal(t, "README (1)", names[bare2])

	_, err := os.Stat(filepath.Join(root, "Download", "report (2).PDF"))
	assert.NoError(t, err)
}

func TestAbortRemovesBytes(t *testing.T) {
	idx, root := newTestIndex(t)
	ctx := context.Background()

	uri := insert(t, idx, collection.Audio, "Music/Album", "song.mp3", "audio/mpeg")
	write(t, idx, uri, "partial")
	require.NoError(t, idx.Abort(ctx, uri))

	_, err := os.Stat(filepath.Join(root, "Music", "Album", "song.mp3"))
	assert.True(t, os.IsNotExist(err))
	_, err = idx.Stat(ctx, uri)
	assert.Equal(t, failure.NotFound, failure.KindOf(err))

	assert.NoError(t, idx.Abort(ctx, uri), "abort is idempotent")

	again := insert(t, idx, collection.Audio, "Music/Album", "song.mp3", "audio/mpeg")
	n, err := idx.Stat(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, "song.mp3", n.Name, "aborted names are free again")
}

func TestFinalizedEntryLeavesProvisionalState(t *testing.T) {
	idx, root := newTestIndex(t)
	ctx := context.Background()

	uri := insert(t, idx, collection.Images, "Pictures", "keep.png", "image/png")
	write(t, idx, uri, "png")
	_, err := idx.Finalize(ctx, uri)
	require.NoError(t, err)

	_, err = idx.Finalize(ctx, uri)
	assert.Equal(t, failure.Validation, failure.KindOf(err))
	assert.Equal(t, failure.Validation, failure.KindOf(idx.Abort(ctx, uri)))

	n, err := idx.Stat(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n.Size)
	data, err := os.ReadFile(filepath.Join(root, "Pictures", "keep.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(data))
}

func TestReclaimDropsStaleProvisionalEntries(t *testing.T) {
	idx, root := newTestIndex(t)
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := start
	idx.now = func() time.Time { return clock }

	stale := insert(t, idx, collection.Images, "Pictures", "stale.jpg", "image/jpeg")
	write(t, idx, stale, "half")
	kept := insert(t, idx, collection.Images, "Pictures", "kept.jpg", "image/jpeg")
	write(t, idx, kept, "whole")
	_, err := idx.Finalize(ctx, kept)
	require.NoError(t, err)

	clock = start.Add(time.Hour)
	fresh := insert(t, idx, collection.Images, "Pictures", "fresh.jpg", "image/jpeg")

	removed, err := idx.Reclaim(ctx, start.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = idx.Stat(ctx, stale)
	assert.Equal(t, failure.NotFound, failure.KindOf(err))
	_, err = os.Stat(filepath.Join(root, "Pictures", "stale.jpg"))
	assert.True(t, os.IsNotExist(err))

	for _, uri := range []string{kept, fresh} {
		_, err := idx.Stat(ctx, uri)
		assert.NoError(t, err, uri)
	}

	removed, err = idx.Reclaim(ctx, start.Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, removed)
}

func TestDeleteCounts(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	uri := insert(t, idx, collection.Generic, "", "notes.txt", "text/plain")
	_, err := idx.Finalize(ctx, uri)
	require.NoError(t, err)

	n, err := idx.Delete(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	n, err = idx.Delete(ctx, uri)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestInsertRejectsBadNames(t *testing.T) {
	idx, _ := newTestIndex(t)
	ctx := context.Background()

	_, err := idx.Insert(ctx, collection.InsertRequest{Collection: collection.Images, RelativePath: "Pictures/../..", DisplayName: "x.jpg"})
	assert.Equal(t, failure.Validation, failure.KindOf(err))

	_, err = idx.Insert(ctx, collection.InsertRequest{Collection: collection.Images, RelativePath: "Pictures", DisplayName: ".."})
	assert.Equal(t, failure.Validation, failure.KindOf(err))
}

func TestWrongCollectionIsNotFound(t *testing.T) {
	idx, _ := newTestIndex(t)

	uri := insert(t, idx, collection.Images, "DCIM", "a.jpg", "image/jpeg")
	_, entryID, err := ParseURI(uri)
	require.NoError(t, err)

	_, err = idx.Stat(context.Background(), URI(collection.Video, entryID))
	assert.Equal(t, failure.NotFound, failure.KindOf(err))
}

func TestScanRegistersExistingFiles(t *testing.T) {
	idx, root := newTestIndex(t)
	ctx := context.Background()

	files := map[string]string{
		"DCIM/Camera/IMG_1.jpg":       "jpeg",
		"Music/track.mp3":             "mp3",
		"Download/manual.pdf":         "pdf",
		"DCIM/.thumbnails/IMG_1.jpg":  "thumb",
		"Pictures/.hidden.png":        "png",
		"Documents/notes.txt":         "outside the media areas",
		"Pictures/misfiled-notes.txt": "rejected by the classifier",
	}
	for rel, data := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
		require.NoError(t, os.WriteFile(full, []byte(data), 0o644))
	}
	known := insert(t, idx, collection.Images, "Pictures", "known.jpg", "image/jpeg")
	_, err := idx.Finalize(ctx, known)
	require.NoError(t, err)

	added, err := idx.Scan(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 3, added)

	images, err := idx.List(ctx, collection.Images)
	require.NoError(t, err)
	require.Len(t, images, 2)
	assert.Equal(t, "IMG_1.jpg", images[0].Name)
	assert.Equal(t, int64(4), images[0].Size)

	audio, err := idx.List(ctx, collection.Audio)
	require.NoError(t, err)
	require.Len(t, audio, 1)
	assert.Equal(t, "audio/mpeg", audio[0].ContentType)

	again, err := idx.Scan(ctx, root)
	require.NoError(t, err)
	assert.Zero(t, again)
}
