package collection

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/docbridge/internal/shared/failure"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		contentType string
		want        Collection
		wantErr     bool
	}{
		{"dcim image", "DCIM/img.jpg", "image/jpeg", Images, false},
		{"dcim video", "DCIM/Camera/clip.mp4", "video/mp4", Video, false},
		{"pictures image", "Pictures/x.jpg", "image/jpeg", Images, false},
		{"dcim extension mismatch", "DCIM/clip.mp4", "image/jpeg", Generic, true},
		{"dcim text", "DCIM/notes.txt", "text/plain", Generic, true},
		{"movies video", "Movies/film.mkv", "video/x-matroska", Video, false},
		{"movies image", "Movies/poster.jpg", "image/jpeg", Generic, true},
		{"music audio", "Music/song.mp3", "audio/mpeg", Audio, false},
		{"ringtones audio", "Ringtones/ring.ogg", "audio/ogg", Audio, false},
		{"podcasts video", "Podcasts/ep.mp4", "video/mp4", Generic, true},
		{"downloads anything", "Downloads/setup.zip", "application/zip", Downloads, false},
		{"download anything", "Download/a/b/c.bin", "*/*", Downloads, false},
		{"bare filename", "notes.txt", "text/plain", Generic, false},
		{"unknown folder", "Documents/report.pdf", "application/pdf", Generic, false},
		{"case sensitive", "dcim/img.jpg", "text/plain", Generic, false},
		{"leading slash", "/Pictures/x.png", "image/png", Images, false},
		{"unknown extension", "Pictures/raw.xyz123", "image/x-custom", Images, false},
		{"uppercase type", "Pictures/x.PNG", "IMAGE/PNG", Images, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Classify(tt.path, tt.contentType)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, failure.ErrUnsupportedContentType)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestClassifyErrorNamesFolders(t *testing.T) {
	_, err := Classify("DCIM/notes.txt", "text/plain")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image or video")
	assert.Contains(t, err.Error(), "DCIM/ or Pictures/")

	_, err = Classify("Music/cover.png", "image/png")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "audio")
}

func TestCollectionNames(t *testing.T) {
	for _, c := range All() {
		parsed, ok := Parse(c.String())
		require.True(t, ok)
		assert.Equal(t, c, parsed)

		parsed, ok = Parse(c.Segment())
		require.True(t, ok)
		assert.Equal(t, c, parsed)
	}
	assert.Equal(t, "file", Generic.Segment())
	_, ok := Parse("nope")
	assert.False(t, ok)
}

func TestRelativeLocation(t *testing.T) {
	dir, name := RelativeLocation("Pictures/trip/x.jpg")
	assert.Equal(t, "Pictures/trip", dir)
	assert.Equal(t, "x.jpg", name)

	dir, name = RelativeLocation("x.jpg")
	assert.Empty(t, dir)
	assert.Equal(t, "x.jpg", name)
}

func TestContentTypes(t *testing.T) {
	assert.Equal(t, "image/jpeg", TypeByExtension("x.JPG"))
	assert.Equal(t, "video/mp4", TypeByExtension("clip.mp4"))
	assert.Equal(t, "", TypeByExtension("README"))

	assert.Equal(t, "text/csv", ContentTypeFor("a.csv", ""))
	assert.Equal(t, "application/x-custom", ContentTypeFor("a.csv", " application/x-custom "))
	assert.Equal(t, DefaultContentType, ContentTypeFor("noext", ""))
}

func TestSniff(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.Equal(t, "image/png", Sniff(png))
	assert.Equal(t, "text/plain", Sniff([]byte("hello world, plain text")))

	got, err := SniffReader(bytes.NewReader(png))
	require.NoError(t, err)
	assert.Equal(t, "image/png", got)

	assert.Equal(t, "image/jpeg", Detect("x.jpg", []byte("not really a jpeg")))
	assert.Equal(t, "image/png", Detect("blob", png))
}
