// Package collection routes media writes into storage collections and enforces the
// content types each top-level media folder accepts.
package collection

import (
	"fmt"
	"strings"

	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
	"github.com/GriffinCanCode/docbridge/internal/shared/paths"
)

// Collection is a storage collection of the content index.
type Collection int

const (
	Generic Collection = iota
	Images
	Video
	Audio
	Downloads
)

var collectionNames = [...]string{
	Generic:   "generic",
	Images:    "images",
	Video:     "video",
	Audio:     "audio",
	Downloads: "downloads",
}

// String returns the collection name
func (c Collection) String() string {
	if int(c) < len(collectionNames) {
		return collectionNames[c]
	}
	return "unknown"
}

// Segment is the collection's URI path segment in media URIs.
func (c Collection) Segment() string {
	if c == Generic {
		return "file"
	}
	return c.String()
}

// Parse returns the collection with the given name or URI segment.
func Parse(s string) (Collection, bool) {
	if s == "file" {
		return Generic, true
	}
	for c, name := range collectionNames {
		if name == s {
			return Collection(c), true
		}
	}
	return Generic, false
}

// MarshalText encodes the collection by name
func (c Collection) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText decodes a collection name
func (c *Collection) UnmarshalText(text []byte) error {
	parsed, ok := Parse(string(text))
	if !ok {
		return fmt.Errorf("unknown collection %q", text)
	}
	*c = parsed
	return nil
}

// All lists every collection
func All() []Collection {
	return []Collection{Generic, Images, Video, Audio, Downloads}
}

// rule constrains one group of top-level folders.
type rule struct {
	folders []string
	// accepted content-type prefixes mapped to the collection they route to; nil means unconstrained
	accepts map[string]Collection
	// fallback for unconstrained folders
	target Collection
}

var (
	pictureRule = &rule{
		folders: []string{"DCIM", "Pictures"},
		accepts: map[string]Collection{"image/": Images, "video/": Video},
	}
	movieRule = &rule{
		folders: []string{"Movies"},
		accepts: map[string]Collection{"video/": Video},
	}
	audioRule = &rule{
		folders: []string{"Alarms", "Audiobooks", "Music", "Notifications", "Podcasts", "Recordings", "Ringtones"},
		accepts: map[string]Collection{"audio/": Audio},
	}
	downloadRule = &rule{
		folders: []string{"Download", "Downloads"},
		target:  Downloads,
	}

	rules = func() map[string]*rule {
		m := make(map[string]*rule)
		for _, r := range []*rule{pictureRule, movieRule, audioRule, downloadRule} {
			for _, f := range r.folders {
				m[f] = r
			}
		}
		return m
	}()
)

// Classify picks the collection for a write of contentType at relativePath. The first
// path segment selects the rule, matched exactly and case-sensitively. A bare filename
// and unknown folders land in Generic.
func Classify(relativePath, contentType string) (Collection, error) {
	const op = "classify"

	dir, name := paths.Split(relativePath)
	if dir == "" {
		return Generic, nil
	}
	top, _, _ := strings.Cut(dir, paths.Separator)

	r, ok := rules[top]
	if !ok {
		return Generic, nil
	}
	if r.accepts == nil {
		return r.target, nil
	}

	declared := strings.ToLower(strings.TrimSpace(contentType))
	for prefix, c := range r.accepts {
		if !strings.HasPrefix(declared, prefix) {
			continue
		}
		if implied := TypeByExtension(name); implied != "" && family(implied) != family(declared) {
			return Generic, failure.New(failure.UnsupportedContentType, op,
				"file extension of %s implies %s, declared %s", name, implied, contentType).WithPath(relativePath)
		}
		return c, nil
	}

	return Generic, failure.New(failure.UnsupportedContentType, op,
		"can only store %s files in %s", r.describeTypes(), r.describeFolders()).WithPath(relativePath)
}

// RelativeLocation splits an insertion path into its relative directory and display name.
func RelativeLocation(relativePath string) (dir, name string) {
	return paths.Split(relativePath)
}

func (r *rule) describeTypes() string {
	var kinds []string
	for _, prefix := range []string{"image/", "video/", "audio/"} {
		if _, ok := r.accepts[prefix]; ok {
			kinds = append(kinds, strings.TrimSuffix(prefix, "/"))
		}
	}
	return joinOr(kinds)
}

func (r *rule) describeFolders() string {
	folders := make([]string, len(r.folders))
	for i, f := range r.folders {
		folders[i] = f + "/"
	}
	folder := " folder"
	if len(folders) > 1 {
		folder = " folders"
	}
	return joinOr(folders) + folder
}

func joinOr(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
}

func family(contentType string) string {
	f, _, _ := strings.Cut(contentType, "/")
	return f
}
