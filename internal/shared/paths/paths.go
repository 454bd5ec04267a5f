package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Separator of relative document paths, independent of the host OS.
const Separator = "/"

// Default on-disk layout under the data directory.
const (
	VolumesDir  = "volumes"
	MediaDir    = "media"
	GrantsFile  = "grants.json"
	CatalogFile = "catalog.json"
)

// DataDir returns the default data directory: $DOCBRIDGE_HOME, else ~/.docbridge.
func DataDir() string {
	if home := os.Getenv("DOCBRIDGE_HOME"); home != "" {
		return home
	}
	if dir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(dir, ".docbridge")
	}
	return filepath.Join(os.TempDir(), "docbridge")
}

// TrimLeading drops one leading separator.
func TrimLeading(path string) string {
	return strings.TrimPrefix(path, Separator)
}

// Segments splits a relative path after dropping one leading separator.
// A path without separators yields a single segment.
func Segments(path string) []string {
	return strings.Split(TrimLeading(path), Separator)
}

// ValidateSegments rejects empty, "." and ".." segments.
func ValidateSegments(segments []string) error {
	for i, seg := range segments {
		switch seg {
		case "":
			return fmt.Errorf("empty path segment at position %d", i)
		case ".", "..":
			return fmt.Errorf("path segment %q is not allowed", seg)
		}
		if strings.ContainsRune(seg, 0) {
			return fmt.Errorf("path segment %d contains a NUL byte", i)
		}
	}
	return nil
}

// Join joins relative segments with the separator, skipping empty ones.
func Join(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.Trim(p, Separator); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, Separator)
}

// Split returns the directory and final element of a relative path.
// "a/b/c.txt" → ("a/b", "c.txt"); "c.txt" → ("", "c.txt").
func Split(path string) (dir, name string) {
	path = TrimLeading(path)
	if i := strings.LastIndex(path, Separator); i >= 0 {
		return path[:i], path[i+1:]
	}
	return "", path
}

// Ext returns the lower-cased extension of name without the dot.
func Ext(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i <= 0 || i == len(name)-1 {
		return ""
	}
	return strings.ToLower(name[i+1:])
}

// Stem returns name without its extension.
func Stem(name string) string {
	if ext := Ext(name); ext != "" {
		return name[:len(name)-len(ext)-1]
	}
	return name
}

// Within reports whether path equals root or lies beneath it.
// An empty root contains everything.
func Within(root, path string) bool {
	if root == "" || root == path {
		return true
	}
	return strings.HasPrefix(path, strings.TrimSuffix(root, Separator)+Separator)
}
