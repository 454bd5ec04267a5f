package bridge

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/docbridge/internal/domain/collection"
	"github.com/GriffinCanCode/docbridge/internal/domain/document"
	"github.com/GriffinCanCode/docbridge/internal/domain/transcode"
	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
	"github.com/GriffinCanCode/docbridge/internal/shared/utils"
)

func (b *Bridge) readFile(ctx context.Context, p utils.Params, _ Callback) (map[string]interface{}, error) {
	const op = ActionReadFile

	uri, err := p.RequireString("uri")
	if err != nil {
		return nil, invalid(op, err)
	}

	node, err := b.docs.Stat(ctx, uri)
	if err != nil {
		return nil, classified(failure.UnreadableTarget, op, uri, err)
	}
	if !node.IsFile() {
		return nil, failure.New(failure.UnreadableTarget, op, "could not open file").WithPath(uri)
	}
	if node.Size > b.cfg.MaxReadBytes {
		return nil, failure.New(failure.UnreadableTarget, op, "file of %d bytes exceeds the %d byte read limit", node.Size, b.cfg.MaxReadBytes).WithPath(uri)
	}

	r, err := b.docs.OpenReader(ctx, uri)
	if err != nil {
		return nil, classified(failure.UnreadableTarget, op, uri, err)
	}
	defer r.Close()

	text, n, err := transcode.EncodeToString(r, node.Size)
	if err != nil {
		return nil, classified(failure.UnreadableTarget, op, uri, err)
	}
	b.metrics.RecordBytes("read", n)

	contentType := node.ContentType
	if contentType == "" {
		contentType = collection.DefaultContentType
	}
	return map[string]interface{}{
		"data": text,
		"type": contentType,
		"size": n,
	}, nil
}

func (b *Bridge) writeFile(ctx context.Context, p utils.Params, cb Callback) (map[string]interface{}, error) {
	const op = ActionWriteFile

	uri, err := p.String("uri")
	if err != nil {
		return nil, invalid(op, err)
	}
	if uri == "" {
		return b.writeMedia(ctx, p, cb)
	}

	data, err := p.RequireString("data")
	if err != nil {
		return nil, invalid(op, err)
	}
	path, err := p.String("path")
	if err != nil {
		return nil, invalid(op, err)
	}
	mimeType, err := p.String("mimeType")
	if err != nil {
		return nil, invalid(op, err)
	}

	return b.writeTo(ctx, op, uri, path, data, mimeType)
}

// writeTo writes data to uri when it names a file, otherwise to path resolved with Ensure
// inside the directory uri names.
func (b *Bridge) writeTo(ctx context.Context, op, uri, path, data, mimeType string) (map[string]interface{}, error) {
	target, err := b.docs.Stat(ctx, uri)
	if err != nil {
		return nil, classified(failure.NotFound, op, uri, err)
	}

	if !target.IsFile() {
		tree, err := b.docs.Tree(uri)
		if err != nil {
			return nil, err
		}
		_, name := collection.RelativeLocation(path)
		target, err = document.Resolve(ctx, tree, target, path, document.Ensure, collection.ContentTypeFor(name, mimeType))
		if err != nil {
			return nil, err
		}
	}

	node, err := b.writeNode(ctx, op, b.docs, target.URI, data)
	if err != nil {
		return nil, err
	}
	return node.Info().Map(), nil
}

// writeNode replaces the contents of a file and returns its refreshed node.
func (b *Bridge) writeNode(ctx context.Context, op string, docs document.Provider, uri, data string) (*document.Node, error) {
	w, err := docs.OpenWriter(ctx, uri)
	if err != nil {
		return nil, classified(failure.UnwritableTarget, op, uri, err)
	}

	n, err := transcode.Decode(w, strings.NewReader(data))
	if err != nil {
		if derr := document.Discard(w); derr != nil {
			b.logger.Warn("discarding partial write failed", zap.String("uri", uri), zap.Error(derr))
		}
		return nil, classified(failure.UnwritableTarget, op, uri, err)
	}
	if err := w.Close(); err != nil {
		return nil, classified(failure.UnwritableTarget, op, uri, err)
	}
	b.metrics.RecordBytes("write", n)

	node, err := docs.Stat(ctx, uri)
	if err != nil {
		return nil, classified(failure.NotFound, op, uri, err)
	}
	return node, nil
}

func (b *Bridge) writeMedia(ctx context.Context, p utils.Params, _ Callback) (map[string]interface{}, error) {
	const op = ActionWriteMedia

	data, err := p.RequireString("data")
	if err != nil {
		return nil, invalid(op, err)
	}
	path, err := p.RequireString("path")
	if err != nil {
		return nil, invalid(op, err)
	}
	mimeType, err := p.String("mimeType")
	if err != nil {
		return nil, invalid(op, err)
	}

	dir, name := collection.RelativeLocation(path)
	contentType := collection.ContentTypeFor(name, mimeType)

	coll, err := collection.Classify(path, contentType)
	if err != nil {
		return nil, err
	}

	entry, err := b.index.Insert(ctx, collection.InsertRequest{
		Collection:   coll,
		RelativePath: dir,
		DisplayName:  name,
		ContentType:  contentType,
	})
	if err != nil {
		return nil, &failure.Error{Kind: failure.InsertFailed, Op: op, Path: path, Message: "could not insert media entry", Err: err}
	}

	final, err := b.fillEntry(ctx, entry.URI, data)
	if err != nil {
		if aerr := b.index.Abort(ctx, entry.URI); aerr != nil {
			b.logger.Error("aborting media entry failed", zap.String("uri", entry.URI), zap.Error(aerr))
		}
		return nil, err
	}
	return final.Info().Map(), nil
}

func (b *Bridge) fillEntry(ctx context.Context, uri, data string) (*document.Node, error) {
	if _, err := b.writeNode(ctx, ActionWriteMedia, b.index, uri, data); err != nil {
		return nil, err
	}
	node, err := b.index.Finalize(ctx, uri)
	if err != nil {
		return nil, classified(failure.InsertFailed, ActionWriteMedia, uri, err)
	}
	return node, nil
}

func (b *Bridge) overwriteFile(ctx context.Context, p utils.Params, _ Callback) (map[string]interface{}, error) {
	const op = ActionOverwriteFile

	uri, err := p.RequireString("uri")
	if err != nil {
		return nil, invalid(op, err)
	}
	data, err := p.RequireString("data")
	if err != nil {
		return nil, invalid(op, err)
	}

	node, err := b.docs.Stat(ctx, uri)
	if err != nil {
		return nil, classified(failure.UnwritableTarget, op, uri, err)
	}
	if !node.IsFile() {
		return nil, failure.New(failure.NotAFile, op, "target is not a file").WithPath(uri)
	}

	node, err = b.writeNode(ctx, op, b.docs, uri, data)
	if err != nil {
		return nil, err
	}
	return node.Info().Map(), nil
}

func (b *Bridge) deleteFile(ctx context.Context, p utils.Params, _ Callback) (map[string]interface{}, error) {
	const op = ActionDeleteFile

	uri, err := p.RequireString("uri")
	if err != nil {
		return nil, invalid(op, err)
	}

	n, err := b.docs.Delete(ctx, uri)
	if err != nil {
		return nil, classified(failure.Unknown, op, uri, err)
	}
	return map[string]interface{}{"count": n}, nil
}

func (b *Bridge) getInfo(ctx context.Context, p utils.Params, _ Callback) (map[string]interface{}, error) {
	node, err := b.locate(ctx, ActionGetInfo, p)
	if err != nil {
		return nil, err
	}
	return node.Info().Map(), nil
}

func (b *Bridge) getURI(ctx context.Context, p utils.Params, _ Callback) (map[string]interface{}, error) {
	node, err := b.locate(ctx, ActionGetURI, p)
	switch failure.KindOf(err) {
	case failure.NotFound, failure.NotADirectory:
		// a missing segment or a file where a folder was expected both mean no such document
		return map[string]interface{}{"uri": nil}, nil
	}
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"uri": node.URI}, nil
}

// locate finds uri, or path beneath it, without creating anything.
func (b *Bridge) locate(ctx context.Context, op string, p utils.Params) (*document.Node, error) {
	uri, err := p.RequireString("uri")
	if err != nil {
		return nil, invalid(op, err)
	}
	path, err := p.String("path")
	if err != nil {
		return nil, invalid(op, err)
	}

	node, err := b.docs.Stat(ctx, uri)
	if err != nil {
		return nil, classified(failure.NotFound, op, uri, err)
	}
	if path == "" {
		return node, nil
	}

	tree, err := b.docs.Tree(uri)
	if err != nil {
		return nil, err
	}
	found, err := document.Resolve(ctx, tree, node, path, document.Locate, "")
	if err != nil {
		if failure.KindOf(err) == failure.NotFound {
			return nil, failure.New(failure.NotFound, op, "could not find file: %s : %s", uri, path)
		}
		return nil, err
	}
	return found, nil
}
