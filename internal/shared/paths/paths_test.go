package paths

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSegments(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c.txt"}, Segments("/a/b/c.txt"))
	assert.Equal(t, []string{"a", "b", "c.txt"}, Segments("a/b/c.txt"))
	assert.Equal(t, []string{"notes.txt"}, Segments("notes.txt"))
	assert.Equal(t, []string{"", "a"}, Segments("//a"))
}

func TestValidateSegments(t *testing.T) {
	assert.NoError(t, ValidateSegments([]string{"a", "b.txt"}))
	assert.Error(t, ValidateSegments([]string{"a", "", "b"}))
	assert.Error(t, ValidateSegments([]string{".."}))
	assert.Error(t, ValidateSegments([]string{"a", "."}))
	assert.Error(t, ValidateSegments([]string{"a\x00b"}))
}

func TestSplit(t *testing.T) {
	tests := []struct {
		path string
		dir  string
		name string
	}{
		{"Pictures/trip/x.jpg", "Pictures/trip", "x.jpg"},
		{"/DCIM/img.jpg", "DCIM", "img.jpg"},
		{"notes.txt", "", "notes.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			dir, name := Split(tt.path)
			assert.Equal(t, tt.dir, dir)
			assert.Equal(t, tt.name, name)
		})
	}
}

func TestExtAndStem(t *testing.T) {
	assert.Equal(t, "jpg", Ext("IMG.JPG"))
	assert.Equal(t, "gz", Ext("archive.tar.gz"))
	assert.Equal(t, "", Ext(".hidden"))
	assert.Equal(t, "", Ext("trailing."))
	assert.Equal(t, "", Ext("noext"))

	assert.Equal(t, "archive.tar", Stem("archive.tar.gz"))
	assert.Equal(t, ".hidden", Stem(".hidden"))
}

func TestJoinAndWithin(t *testing.T) {
	assert.Equal(t, "a/b/c", Join("a", "/b/", "", "c"))
	assert.Equal(t, "", Join())

	assert.True(t, Within("", "anything"))
	assert.True(t, Within("docs", "docs"))
	assert.True(t, Within("docs", "docs/a.txt"))
	assert.False(t, Within("docs", "docs2/a.txt"))
}
