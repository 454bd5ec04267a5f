package collection

// InsertRequest describes a new content index entry.
type InsertRequest struct {
	Collection Collection
	// RelativePath is the directory part of the write, without the display name.
	RelativePath string
	DisplayName  string
	ContentType  string
}
