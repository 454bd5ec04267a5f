// Package mediaindex is the content index behind collection-routed writes.
//
// Entries are files under a media root, laid out by their relative path, and rows in a
// Catalog. A freshly inserted entry is pending: it is visible to Stat and writable, but
// List skips it until Finalize. Abort removes both the row and the bytes.
package mediaindex
