/*
Package document models nodes of a permission-scoped document tree and resolves
relative paths inside one.

# Identity

Nodes are identified by content URIs, never by name:

	content://<authority>/tree/<treeDocID>
	content://<authority>/tree/<treeDocID>/document/<docID>
	content://<authority>/document/<docID>

Document IDs have the form "<volume>:<relative/path>" and are path-escaped inside URIs.

# Providers

A Provider stats, opens and deletes documents under one authority. A Tree is a
Provider that also supports child lookup and creation, which is what Resolve needs.
The Router dispatches any URI to the provider registered for its authority.

# Resolution

	node, err := document.Resolve(ctx, tree, root, "a/b/c.txt", document.Ensure, "text/plain")

Lookup never creates anything. Ensure creates missing directories and the leaf file.
Locate behaves like Lookup but accepts a directory leaf.
*/
package document
