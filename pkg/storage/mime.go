package storage

import (
	"bytes"
	"io"
	"net/http"
	"strings"
)

const (
	MIMEOctetStream = "application/octet-stream"
	sniffLen        = 512
)

var imageTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/gif":  {},
	"image/webp": {},
	"image/bmp":  {},
	"image/avif": {},
}

var extensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/gif":       ".gif",
	"image/webp":      ".webp",
	"image/bmp":       ".bmp",
	"image/avif":      ".avif",
	"application/pdf": ".pdf",
	"text/plain":      ".txt",
	"text/csv":        ".csv",
	"application/zip": ".zip",
}

// DetectReader sniffs the content type from the first 512 bytes of r.
func DetectReader(r io.Reader) string {
	buf := make([]byte, sniffLen)
	n, _ := io.ReadFull(r, buf)
	if n == 0 {
		return MIMEOctetStream
	}
	return http.DetectContentType(buf[:n])
}

// IsImageType reports whether the content type is a raster image format
// browsers render. SVG is excluded because it can carry scripts.
func IsImageType(mimeType string) bool {
	_, ok := imageTypes[normalizeMIME(mimeType)]
	return ok
}

// ExtFromMIME returns the preferred file extension, or "" when unknown.
func ExtFromMIME(mimeType string) string {
	return extensions[normalizeMIME(mimeType)]
}

// sniff detects the content type and returns a reader that still yields
// the whole content.
func sniff(r io.Reader) (string, io.Reader) {
	if rs, ok := r.(io.ReadSeeker); ok {
		ct := DetectReader(rs)
		if _, err := rs.Seek(0, io.SeekStart); err == nil {
			return ct, rs
		}
	}
	head := make([]byte, sniffLen)
	n, _ := io.ReadFull(r, head)
	head = head[:n]
	ct := MIMEOctetStream
	if n > 0 {
		ct = http.DetectContentType(head)
	}
	return ct, io.MultiReader(bytes.NewReader(head), r)
}

func normalizeMIME(mimeType string) string {
	mimeType, _, _ = strings.Cut(mimeType, ";")
	return strings.TrimSpace(strings.ToLower(mimeType))
}
