// Package transcode streams binary payloads through the text-safe encoding used on the
// caller boundary: standard padded base64 (RFC 4648). Line breaks in encoded input are
// ignored. Malformed input fails with failure.DataCorrupt; failures of the byte sink
// fail with failure.UnwritableTarget and are never reported as corrupt data.
package transcode

import (
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
)

// Encoding is the codec on the wire.
var Encoding = base64.StdEncoding

// Encode streams src into dst as encoded text and returns the number of source bytes consumed.
func Encode(dst io.Writer, src io.Reader) (int64, error) {
	sink := &sinkWriter{w: dst}
	enc := base64.NewEncoder(Encoding, sink)

	n, err := io.Copy(enc, &sourceReader{r: src})
	if err == nil {
		err = enc.Close()
	}
	if err != nil {
		return n, classify("encode", err)
	}
	return n, nil
}

// Decode streams encoded text from src into dst and returns the number of bytes written.
func Decode(dst io.Writer, src io.Reader) (int64, error) {
	sink := &sinkWriter{w: dst}

	n, err := io.Copy(sink, &decodeReader{r: base64.NewDecoder(Encoding, &sourceReader{r: src})})
	if err != nil {
		return n, classify("decode", err)
	}
	return n, nil
}

// EncodeToString encodes src fully in memory and reports the source bytes consumed.
// sizeHint, when positive, pre-sizes the buffer.
func EncodeToString(src io.Reader, sizeHint int64) (string, int64, error) {
	var b strings.Builder
	if sizeHint > 0 {
		b.Grow(Encoding.EncodedLen(int(sizeHint)))
	}
	n, err := Encode(&b, src)
	if err != nil {
		return "", n, err
	}
	return b.String(), n, nil
}

// NewDecodeReader returns a reader yielding the bytes encoded in text. Malformed text
// surfaces as a failure.DataCorrupt read error.
func NewDecodeReader(text string) io.Reader {
	return &decodeReader{r: base64.NewDecoder(Encoding, strings.NewReader(text))}
}

type sinkWriter struct {
	w   io.Writer
	err error
}

func (s *sinkWriter) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	if err != nil {
		s.err = err
		return n, &sinkError{err: err}
	}
	return n, nil
}

type sourceReader struct {
	r io.Reader
}

func (s *sourceReader) Read(p []byte) (int, error) {
	n, err := s.r.Read(p)
	if err != nil && err != io.EOF {
		return n, &sourceError{err: err}
	}
	return n, err
}

type decodeReader struct {
	r io.Reader
}

func (d *decodeReader) Read(p []byte) (int, error) {
	n, err := d.r.Read(p)
	if err == nil || err == io.EOF {
		return n, err
	}
	var corrupt base64.CorruptInputError
	if errors.As(err, &corrupt) || errors.Is(err, io.ErrUnexpectedEOF) {
		return n, &failure.Error{Kind: failure.DataCorrupt, Op: "decode", Message: "malformed encoded data", Err: err}
	}
	return n, err
}

type sinkError struct{ err error }

func (e *sinkError) Error() string { return e.err.Error() }
func (e *sinkError) Unwrap() error { return e.err }

type sourceError struct{ err error }

func (e *sourceError) Error() string { return e.err.Error() }
func (e *sourceError) Unwrap() error { return e.err }

func classify(op string, err error) error {
	var sink *sinkError
	if errors.As(err, &sink) {
		return &failure.Error{Kind: failure.UnwritableTarget, Op: op, Message: "write failed", Err: sink.err}
	}
	var fe *failure.Error
	if errors.As(err, &fe) {
		return err
	}
	var src *sourceError
	if errors.As(err, &src) {
		return &failure.Error{Kind: failure.UnreadableTarget, Op: op, Message: "read failed", Err: src.err}
	}
	return failure.Wrap(failure.Unknown, op, err)
}
