// Package paths provides helpers for slash-separated document paths and the
// default on-disk layout.
//
// Document paths are always relative and always use "/" regardless of the host
// OS. Segments are validated before they reach a provider so that a tree
// backed by a real directory can never be escaped.
//
// # Directory Structure
//
//	$DOCBRIDGE_HOME/
//	  ├── volumes/       (one directory per document volume)
//	  ├── media/         (content index storage root)
//	  ├── grants.json    (persisted permission grants)
//	  └── catalog.json   (media catalog snapshot)
//
// # Usage
//
//	dir, name := paths.Split("Pictures/trip/x.jpg") // "Pictures/trip", "x.jpg"
//	if err := paths.ValidateSegments(paths.Segments(rel)); err != nil {
//	    // reject
//	}
package paths
