package collection

import (
	"io"
	"mime"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/GriffinCanCode/docbridge/internal/shared/paths"
)

// DefaultContentType is used when neither the caller nor the file name implies a type.
const DefaultContentType = "*/*"

// extensionTypes takes precedence over the platform table so results do not vary by host.
var extensionTypes = map[string]string{
	// images
	"jpg": "image/jpeg", "jpeg": "image/jpeg", "png": "image/png", "gif": "image/gif",
	"webp": "image/webp", "bmp": "image/bmp", "heic": "image/heic", "heif": "image/heif",
	"svg": "image/svg+xml", "tif": "image/tiff", "tiff": "image/tiff", "ico": "image/x-icon",
	"dng": "image/x-adobe-dng",
	// video
	"mp4": "video/mp4", "m4v": "video/mp4", "mkv": "video/x-matroska", "webm": "video/webm",
	"3gp": "video/3gpp", "3g2": "video/3gpp2", "mov": "video/quicktime", "avi": "video/x-msvideo",
	"ts": "video/mp2ts", "mpg": "video/mpeg", "mpeg": "video/mpeg",
	// audio
	"mp3": "audio/mpeg", "m4a": "audio/mp4", "aac": "audio/aac", "ogg": "audio/ogg",
	"oga": "audio/ogg", "opus": "audio/opus", "wav": "audio/x-wav", "flac": "audio/flac",
	"amr": "audio/amr", "mid": "audio/midi", "midi": "audio/midi", "wma": "audio/x-ms-wma",
	// documents
	"txt": "text/plain", "md": "text/markdown", "csv": "text/csv", "html": "text/html",
	"htm": "text/html", "xml": "text/xml", "json": "application/json", "pdf": "application/pdf",
	"zip": "application/zip", "gz": "application/gzip", "tar": "application/x-tar",
	"apk": "application/vnd.android.package-archive", "ics": "text/calendar", "vcf": "text/x-vcard",
	"doc": "application/msword", "xls": "application/vnd.ms-excel", "ppt": "application/vnd.ms-powerpoint",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"pptx": "application/vnd.openxmlformats-officedocument.presentationml.presentation",
}

// TypeByExtension returns the content type implied by name's extension, or "".
func TypeByExtension(name string) string {
	ext := paths.Ext(name)
	if ext == "" {
		return ""
	}
	if t, ok := extensionTypes[ext]; ok {
		return t
	}
	return baseType(mime.TypeByExtension("." + ext))
}

// ContentTypeFor returns declared when set, else the extension type, else DefaultContentType.
func ContentTypeFor(name, declared string) string {
	if declared = strings.TrimSpace(declared); declared != "" {
		return declared
	}
	if t := TypeByExtension(name); t != "" {
		return t
	}
	return DefaultContentType
}

// Sniff detects the content type of a file from its leading bytes.
func Sniff(head []byte) string {
	return baseType(mimetype.Detect(head).String())
}

// SniffReader detects the content type from the start of r.
func SniffReader(r io.Reader) (string, error) {
	m, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	return baseType(m.String()), nil
}

// Detect prefers the extension and falls back to sniffing head.
func Detect(name string, head []byte) string {
	if t := TypeByExtension(name); t != "" {
		return t
	}
	return Sniff(head)
}

func baseType(t string) string {
	t, _, _ = strings.Cut(t, ";")
	return strings.TrimSpace(t)
}
