// Package picker is the contract between the bridge and the host UI that shows the
// system document picker. The bridge never blocks on the user: Launch only hands the
// request over, and the Result arrives later carrying the same request code.
package picker

import (
	"context"
	"strings"
)

// Action is the picker mode to show.
type Action string

const (
	OpenDocumentTree Action = "open_document_tree"
	OpenDocument     Action = "open_document"
	CreateDocument   Action = "create_document"
)

// Flags is the bitset of permissions requested or granted.
type Flags int

const (
	Read Flags = 1 << iota
	Write
	Persistable
)

// Has reports whether all bits of other are set
func (f Flags) Has(other Flags) bool { return f&other == other }

// Access keeps only the Read and Write bits
func (f Flags) Access() Flags { return f & (Read | Write) }

// String lists the set flags
func (f Flags) String() string {
	var parts []string
	if f.Has(Read) {
		parts = append(parts, "read")
	}
	if f.Has(Write) {
		parts = append(parts, "write")
	}
	if f.Has(Persistable) {
		parts = append(parts, "persistable")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// Request asks the host to show a picker.
type Request struct {
	RequestCode   int64
	Action        Action
	InitialURI    string
	Title         string
	MimeTypes     []string
	SuggestedName string
	Flags         Flags
}

// ViewRequest asks the host to open a document or folder in its default viewer.
type ViewRequest struct {
	URI      string
	MimeType string
	Title    string
}

// Result is the host's answer to a Request.
type Result struct {
	RequestCode int64
	OK          bool
	URI         string
	Flags       Flags
}

// Launcher shows pickers and viewers on the host.
type Launcher interface {
	// Launch returns once the request is handed over; a non-nil error means it never will be answered.
	Launch(ctx context.Context, req Request) error
	View(ctx context.Context, req ViewRequest) error
}

// ResultHandler consumes results arriving from the host.
type ResultHandler interface {
	OnPickerResult(res Result)
}
