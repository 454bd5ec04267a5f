package failure

import (
	"errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{"kind only", &Error{Kind: NotADirectory}, "not a directory"},
		{"op and message", &Error{Kind: Validation, Op: "readFile", Message: "uri is required"}, "readFile: uri is required"},
		{"path", &Error{Kind: NotFound, Op: "getInfo", Path: "a/b.txt"}, "getInfo: not found (a/b.txt)"},
		{"wrapped", &Error{Kind: CreateFailed, Op: "writeFile", Err: fs.ErrPermission}, "writeFile: permission denied"},
		{"message and cause", &Error{Kind: InsertFailed, Message: "catalog", Err: fs.ErrExist}, "catalog: file already exists"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestSentinelMatching(t *testing.T) {
	err := fmt.Errorf("resolve: %w", New(NotFound, "resolve", "missing").WithPath("x"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrNotAFile))
	assert.Equal(t, NotFound, KindOf(err))
	assert.Equal(t, Unknown, KindOf(errors.New("plain")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(Unknown, "op", nil))

	err := Wrap(UnreadableTarget, "readFile", fs.ErrPermission)
	assert.ErrorIs(t, err, fs.ErrPermission)
	assert.ErrorIs(t, err, ErrUnreadableTarget)
}

func TestWithPathCopies(t *testing.T) {
	base := New(NotFound, "op", "gone")
	withPath := base.WithPath("a.txt")

	assert.Empty(t, base.Path)
	assert.Equal(t, "a.txt", withPath.Path)
}

func TestFromError(t *testing.T) {
	assert.Nil(t, FromError(nil))

	f := FromError(New(Validation, "selectFile", "bad mime"))
	require.NotNil(t, f)
	assert.Equal(t, Validation, f.Kind)
	assert.Equal(t, "selectFile: bad mime", f.Message)

	// an existing Failure passes through untouched
	orig := &Failure{Kind: Cancelled, Message: "user cancelled", Trace: "stack"}
	assert.Same(t, orig, FromError(fmt.Errorf("deliver: %w", orig)))

	assert.Equal(t, Unknown, FromError(errors.New("boom")).Kind)
}

func TestKindNames(t *testing.T) {
	assert.Equal(t, "unsupported_content_type", UnsupportedContentType.String())
	assert.Equal(t, "unknown", Kind(999).String())

	text, err := DataCorrupt.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "data_corrupt", string(text))
}
