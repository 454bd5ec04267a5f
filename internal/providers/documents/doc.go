// Package documents registers the document bridge as the "documents" service.
//
// Every bridge action is a tool named documents.<action>. Execute waits for the
// delivered outcome, so interactive tools block until the picker host answers or
// the caller's context ends.
package documents
