// Package failure defines the error taxonomy shared by every document operation.
//
// Components return *Error values tagged with a Kind. The bridge converts them into a
// caller-facing Failure with a stable message before delivery.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure.
type Kind int

const (
	Unknown Kind = iota
	Validation
	NotFound
	NotADirectory
	NotAFile
	CreateFailed
	UnreadableTarget
	UnwritableTarget
	UnsupportedContentType
	InsertFailed
	UnknownToken
	Cancelled
	DataCorrupt
)

var kindNames = map[Kind]string{
	Unknown:                "unknown",
	Validation:             "validation",
	NotFound:               "not_found",
	NotADirectory:          "not_a_directory",
	NotAFile:               "not_a_file",
	CreateFailed:           "create_failed",
	UnreadableTarget:       "unreadable_target",
	UnwritableTarget:       "unwritable_target",
	UnsupportedContentType: "unsupported_content_type",
	InsertFailed:           "insert_failed",
	UnknownToken:           "unknown_token",
	Cancelled:              "cancelled",
	DataCorrupt:            "data_corrupt",
}

// String returns the wire name of the kind
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// MarshalText encodes the kind by name
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Sentinel errors, one per kind. errors.Is(err, ErrNotFound) matches any *Error of that kind.
var (
	ErrUnknown                = &Error{Kind: Unknown}
	ErrValidation             = &Error{Kind: Validation}
	ErrNotFound               = &Error{Kind: NotFound}
	ErrNotADirectory          = &Error{Kind: NotADirectory}
	ErrNotAFile               = &Error{Kind: NotAFile}
	ErrCreateFailed           = &Error{Kind: CreateFailed}
	ErrUnreadableTarget       = &Error{Kind: UnreadableTarget}
	ErrUnwritableTarget       = &Error{Kind: UnwritableTarget}
	ErrUnsupportedContentType = &Error{Kind: UnsupportedContentType}
	ErrInsertFailed           = &Error{Kind: InsertFailed}
	ErrUnknownToken           = &Error{Kind: UnknownToken}
	ErrCancelled              = &Error{Kind: Cancelled}
	ErrDataCorrupt            = &Error{Kind: DataCorrupt}
)

// Error is a classified failure with optional operation and path context.
type Error struct {
	Kind    Kind
	Op      string // operation that failed
	Path    string // uri or relative path involved
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	var b strings.Builder
	if e.Op != "" {
		b.WriteString(e.Op)
		b.WriteString(": ")
	}
	switch {
	case e.Message != "":
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(e.Err.Error())
	default:
		b.WriteString(strings.ReplaceAll(e.Kind.String(), "_", " "))
	}
	if e.Path != "" {
		b.WriteString(" (")
		b.WriteString(e.Path)
		b.WriteString(")")
	}
	if e.Message != "" && e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is a sentinel of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Op == "" && t.Path == "" && t.Message == "" && t.Err == nil
}

// New creates a classified error with a formatted message.
func New(kind Kind, op, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err. A nil err yields nil.
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// WithPath returns a copy of e carrying path.
func (e *Error) WithPath(path string) *Error {
	cp := *e
	cp.Path = path
	return &cp
}

// KindOf returns the kind of the first *Error in err's chain, or Unknown.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return Unknown
}

// Failure is the caller-facing shape of an error.
type Failure struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Trace   string `json:"trace,omitempty"`
}

// Error implements the error interface.
func (f *Failure) Error() string {
	return f.Message
}

// FromError converts any error into a Failure. Unclassified errors become Unknown.
func FromError(err error) *Failure {
	if err == nil {
		return nil
	}
	var f *Failure
	if errors.As(err, &f) {
		return f
	}
	return &Failure{Kind: KindOf(err), Message: err.Error()}
}
