package document

import (
	"fmt"
	"net/url"
	"strings"
)

// Scheme of every document URI.
const Scheme = "content"

const (
	treeSegment     = "tree"
	documentSegment = "document"
)

// URI is a parsed content URI with unescaped path segments.
type URI struct {
	Authority string
	Segments  []string
}

// ParseURI parses a content URI.
func ParseURI(raw string) (URI, error) {
	rest, ok := strings.CutPrefix(raw, Scheme+"://")
	if !ok {
		return URI{}, fmt.Errorf("not a %s uri: %q", Scheme, raw)
	}

	authority, path, _ := strings.Cut(rest, "/")
	if authority == "" {
		return URI{}, fmt.Errorf("missing authority: %q", raw)
	}

	u := URI{Authority: authority}
	if path == "" {
		return u, nil
	}
	for _, seg := range strings.Split(path, "/") {
		s, err := url.PathUnescape(seg)
		if err != nil {
			return URI{}, fmt.Errorf("malformed segment %q: %w", seg, err)
		}
		u.Segments = append(u.Segments, s)
	}
	return u, nil
}

// String renders the URI with escaped segments.
func (u URI) String() string {
	var b strings.Builder
	b.WriteString(Scheme)
	b.WriteString("://")
	b.WriteString(u.Authority)
	for _, seg := range u.Segments {
		b.WriteByte('/')
		b.WriteString(escape(seg))
	}
	return b.String()
}

// TreeID returns the tree document ID of a tree-shaped URI.
func (u URI) TreeID() (string, bool) {
	if len(u.Segments) >= 2 && u.Segments[0] == treeSegment {
		return u.Segments[1], true
	}
	return "", false
}

// DocumentID returns the addressed document ID. A bare tree URI addresses its tree root.
func (u URI) DocumentID() (string, bool) {
	switch {
	case len(u.Segments) == 4 && u.Segments[0] == treeSegment && u.Segments[2] == documentSegment:
		return u.Segments[3], true
	case len(u.Segments) == 2 && u.Segments[0] == treeSegment:
		return u.Segments[1], true
	case len(u.Segments) == 2 && u.Segments[0] == documentSegment:
		return u.Segments[1], true
	}
	return "", false
}

// IsTree reports whether the URI names a tree root without a document part.
func (u URI) IsTree() bool {
	return len(u.Segments) == 2 && u.Segments[0] == treeSegment
}

// TreeURI builds content://<authority>/tree/<treeID>.
func TreeURI(authority, treeID string) string {
	return URI{Authority: authority, Segments: []string{treeSegment, treeID}}.String()
}

// DocumentURI builds a document URI, inside a tree when treeID is set.
func DocumentURI(authority, treeID, docID string) string {
	if treeID == "" {
		return URI{Authority: authority, Segments: []string{documentSegment, docID}}.String()
	}
	return URI{Authority: authority, Segments: []string{treeSegment, treeID, documentSegment, docID}}.String()
}

// DocumentIDOf joins a volume and a relative path into a document ID.
func DocumentIDOf(volume, rel string) string {
	return volume + ":" + rel
}

// SplitDocumentID splits "<volume>:<relative/path>".
func SplitDocumentID(docID string) (volume, rel string, err error) {
	volume, rel, ok := strings.Cut(docID, ":")
	if !ok || volume == "" {
		return "", "", fmt.Errorf("malformed document id %q", docID)
	}
	return volume, rel, nil
}

func escape(seg string) string {
	return strings.ReplaceAll(url.PathEscape(seg), ":", "%3A")
}
