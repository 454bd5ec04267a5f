package bridge

import (
	"context"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/docbridge/internal/domain/collection"
	"github.com/GriffinCanCode/docbridge/internal/domain/correlator"
	"github.com/GriffinCanCode/docbridge/internal/domain/document"
	"github.com/GriffinCanCode/docbridge/internal/domain/picker"
	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
	"github.com/GriffinCanCode/docbridge/internal/shared/utils"
)

const (
	defaultSelectFolderTitle = "Select Folder"
	defaultSelectFileTitle   = "Select File"
	defaultOpenFolderTitle   = "Open Folder"
	defaultOpenFileTitle     = "Open File"
)

// saveRequest is the stashed payload of a pending saveFile.
type saveRequest struct {
	data        string
	contentType string
}

func (b *Bridge) selectFolder(ctx context.Context, p utils.Params, cb Callback) (map[string]interface{}, error) {
	const op = ActionSelectFolder

	folder, err := p.String("folder")
	if err != nil {
		return nil, invalid(op, err)
	}
	title, err := p.String("title")
	if err != nil {
		return nil, invalid(op, err)
	}
	writable, err := p.Bool("writable", true)
	if err != nil {
		return nil, invalid(op, err)
	}

	flags := picker.Read | picker.Persistable
	if writable {
		flags |= picker.Write
	}

	return nil, b.launch(ctx, correlator.SelectFolder, cb, picker.Request{
		Action:     picker.OpenDocumentTree,
		InitialURI: folder,
		Title:      orDefault(title, defaultSelectFolderTitle),
		Flags:      flags,
	})
}

func (b *Bridge) selectFile(ctx context.Context, p utils.Params, cb Callback) (map[string]interface{}, error) {
	const op = ActionSelectFile

	folder, err := p.String("folder")
	if err != nil {
		return nil, invalid(op, err)
	}
	title, err := p.String("title")
	if err != nil {
		return nil, invalid(op, err)
	}
	mimeTypes, err := p.Strings("mimeTypes")
	if err != nil {
		return nil, invalid(op, err)
	}
	if len(mimeTypes) == 0 {
		mimeTypes = []string{collection.DefaultContentType}
	}
	// older callers send "write"
	writable, err := p.Bool("write", true)
	if err != nil {
		return nil, invalid(op, err)
	}
	if writable, err = p.Bool("writable", writable); err != nil {
		return nil, invalid(op, err)
	}

	flags := picker.Read
	if writable {
		flags |= picker.Write
	}

	return nil, b.launch(ctx, correlator.SelectFile, cb, picker.Request{
		Action:     picker.OpenDocument,
		InitialURI: folder,
		Title:      orDefault(title, defaultSelectFileTitle),
		MimeTypes:  mimeTypes,
		Flags:      flags,
	})
}

func (b *Bridge) saveFile(ctx context.Context, p utils.Params, cb Callback) (map[string]interface{}, error) {
	const op = ActionSaveFile

	data, err := p.RequireString("data")
	if err != nil {
		return nil, invalid(op, err)
	}
	folder, err := p.String("folder")
	if err != nil {
		return nil, invalid(op, err)
	}
	filename, err := p.String("filename")
	if err != nil {
		return nil, invalid(op, err)
	}
	mimeType, err := p.String("mimeType")
	if err != nil {
		return nil, invalid(op, err)
	}
	contentType := collection.ContentTypeFor(filename, mimeType)

	b.corr.Stash(cb.ID(), saveRequest{data: data, contentType: contentType})

	err = b.launch(ctx, correlator.SaveFile, cb, picker.Request{
		Action:        picker.CreateDocument,
		InitialURI:    folder,
		MimeTypes:     []string{contentType},
		SuggestedName: filename,
		Flags:         picker.Read | picker.Write,
	})
	if err != nil {
		b.corr.Discard(cb.ID())
	}
	return nil, err
}

func (b *Bridge) openFolder(ctx context.Context, p utils.Params, _ Callback) (map[string]interface{}, error) {
	return b.view(ctx, ActionOpenFolder, p, defaultOpenFolderTitle, func(string) string {
		return document.DirectoryMimeType
	})
}

func (b *Bridge) openFile(ctx context.Context, p utils.Params, _ Callback) (map[string]interface{}, error) {
	return b.view(ctx, ActionOpenFile, p, defaultOpenFileTitle, func(uri string) string {
		node, err := b.docs.Stat(ctx, uri)
		if err != nil || node.ContentType == "" {
			return collection.DefaultContentType
		}
		return node.ContentType
	})
}

func (b *Bridge) view(ctx context.Context, op string, p utils.Params, defaultTitle string, mimeOf func(string) string) (map[string]interface{}, error) {
	uri, err := p.RequireString("uri")
	if err != nil {
		return nil, invalid(op, err)
	}
	title, err := p.String("title")
	if err != nil {
		return nil, invalid(op, err)
	}

	err = b.launcher.View(ctx, picker.ViewRequest{
		URI:      uri,
		MimeType: mimeOf(uri),
		Title:    orDefault(title, defaultTitle),
	})
	if err != nil {
		return nil, classified(failure.Unknown, op, uri, err)
	}
	return map[string]interface{}{}, nil
}

// launch registers the pending request and hands it to the picker. A failed launch
// cancels the pending entry and is reported as the operation's error.
func (b *Bridge) launch(ctx context.Context, kind correlator.Kind, cb Callback, req picker.Request) error {
	token, err := b.corr.Begin(kind, completion{b: b, kind: kind, cb: cb})
	if err != nil {
		return err
	}
	b.metrics.SetPendingRequests(b.corr.Outstanding())

	req.RequestCode = token.Int64()
	if err := b.launcher.Launch(ctx, req); err != nil {
		b.corr.Cancel(token)
		b.metrics.SetPendingRequests(b.corr.Outstanding())
		return classified(failure.Unknown, kind.String(), req.InitialURI, err)
	}

	b.logger.Debug("picker launched", zap.Stringer("token", token), zap.String("action", string(req.Action)))
	return nil
}

func (b *Bridge) completePicker(ctx context.Context, res picker.Result) {
	pending, err := b.corr.Complete(res.RequestCode)
	b.metrics.SetPendingRequests(b.corr.Outstanding())
	if err != nil {
		b.metrics.IncStaleResults()
		b.logger.Warn("picker result without pending request", zap.Int64("request_code", res.RequestCode), zap.Error(err))
		return
	}

	action := pending.Kind.String()
	c, ok := pending.Completion.(completion)
	if !ok {
		b.logger.Error("pending request carries a foreign completion", zap.Stringer("token", pending.Token))
		return
	}
	cb := c.cb

	if pending.Kind == correlator.SaveFile {
		defer b.corr.Discard(cb.ID())
	}
	if !res.OK || res.URI == "" {
		b.fail(action, cb, failure.New(failure.Cancelled, action, "Cancelled"))
		return
	}

	payload, err := b.finishPicker(ctx, pending, cb, res)
	if err != nil {
		b.fail(action, cb, err)
		return
	}
	b.out.Success(cb, payload)
}

func (b *Bridge) finishPicker(ctx context.Context, pending *correlator.Pending, cb Callback, res picker.Result) (map[string]interface{}, error) {
	access := res.Flags.Access()

	switch pending.Kind {
	case correlator.SelectFolder:
		if err := b.grants.Take(ctx, res.URI, access, true); err != nil {
			return nil, classified(failure.Unknown, ActionSelectFolder, res.URI, err)
		}
	case correlator.SelectFile:
		if err := b.grants.Take(ctx, res.URI, access, false); err != nil {
			return nil, classified(failure.Unknown, ActionSelectFile, res.URI, err)
		}
	case correlator.SaveFile:
		stashed, ok := b.corr.Take(cb.ID())
		if !ok {
			return nil, failure.New(failure.Unknown, ActionSaveFile, "No saveFileData")
		}
		if err := b.grants.Take(ctx, res.URI, access, false); err != nil {
			return nil, classified(failure.Unknown, ActionSaveFile, res.URI, err)
		}
		req := stashed.(saveRequest)
		return b.writeTo(ctx, ActionSaveFile, res.URI, "", req.data, req.contentType)
	}

	node, err := b.docs.Stat(ctx, res.URI)
	if err != nil {
		return nil, classified(failure.NotFound, pending.Kind.String(), res.URI, err)
	}
	return node.Info().Map(), nil
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
