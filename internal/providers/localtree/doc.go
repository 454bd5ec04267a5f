// Package localtree serves document trees backed by afero filesystems.
//
// Each volume is one afero.Fs. Document IDs are "<volume>:<relative/path>" and appear in
// content URIs under the provider's authority. Access is checked against Grants when the
// provider is built with one.
package localtree
