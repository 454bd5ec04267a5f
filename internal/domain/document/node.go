package document

import "time"

// DirectoryMimeType is the content type reported for directories.
const DirectoryMimeType = "vnd.android.document/directory"

// Kind distinguishes files from directories.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

// String returns the kind name
func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// Node is a file or directory in a document tree. Names are not unique; URI is the identity.
type Node struct {
	URI          string
	Kind         Kind
	Name         string
	ContentType  string
	Size         int64
	LastModified time.Time
	Writable     bool
}

// IsFile reports whether the node is a file
func (n *Node) IsFile() bool { return n != nil && n.Kind == KindFile }

// IsDirectory reports whether the node is a directory
func (n *Node) IsDirectory() bool { return n != nil && n.Kind == KindDirectory }

// Info is the caller-facing description of a node. Type and Size are set for files only.
type Info struct {
	URI          string `json:"uri"`
	Name         string `json:"name"`
	LastModified int64  `json:"lastModified"`
	Writable     bool   `json:"writable"`
	Type         string `json:"type,omitempty"`
	Size         *int64 `json:"size,omitempty"`
}

// Info describes the node
func (n *Node) Info() Info {
	info := Info{
		URI:          n.URI,
		Name:         n.Name,
		LastModified: n.LastModified.UnixMilli(),
		Writable:     n.Writable,
	}
	if n.IsFile() {
		size := n.Size
		info.Type = n.ContentType
		info.Size = &size
	}
	return info
}

// Map renders the info as a result payload
func (i Info) Map() map[string]interface{} {
	m := map[string]interface{}{
		"uri":          i.URI,
		"name":         i.Name,
		"lastModified": i.LastModified,
		"writable":     i.Writable,
	}
	if i.Type != "" {
		m["type"] = i.Type
	}
	if i.Size != nil {
		m["size"] = *i.Size
	}
	return m
}
