package storage

import (
	"context"
	"io"
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Storage stores uploaded files.
type Storage interface {
	// Put writes r under a generated or explicit key. size may be -1 when unknown.
	Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*FileInfo, error)
	// Get opens a stored file; the caller closes it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	// URL returns a link a browser can fetch the file from.
	URL(ctx context.Context, key string, opts ...URLOption) (string, error)
}

// FileInfo describes a stored file.
type FileInfo struct {
	Key         string
	ContentType string
	ACL         ACL
	Size        int64
}

type ACL string

const (
	ACLPrivate    ACL = "private"
	ACLPublicRead ACL = "public-read"
)

// Config is the "storage" configuration section.
type Config struct {
	// Driver is "local" or "s3".
	Driver string      `mapstructure:"driver"`
	Local  LocalConfig `mapstructure:"local"`
	S3     S3Config    `mapstructure:"s3"`
}

// Open returns the backend selected by cfg.Driver.
func Open(cfg Config) (Storage, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		return NewLocal(cfg.Local)
	case "s3":
		return NewS3(cfg.S3)
	}
	return nil, ErrUnknownDriver
}

var unsafeSegment = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// cleanSegment makes one path segment safe for object keys and file names.
func cleanSegment(s string) string {
	s = strings.Trim(s, " /\\")
	s = strings.ReplaceAll(s, "..", "")
	return url.PathEscape(unsafeSegment.ReplaceAllString(s, "_"))
}

// newKey builds "{prefix}/{uuid}{ext}".
func newKey(prefix, contentType string) string {
	ext := ExtFromMIME(contentType)
	if ext == "" {
		ext = ".bin"
	}
	name := uuid.NewString() + ext
	var parts []string
	for _, p := range strings.Split(prefix, "/") {
		if p = cleanSegment(p); p != "" {
			parts = append(parts, p)
		}
	}
	return path.Join(append(parts, name)...)
}

// validKey rejects keys that could escape the storage root.
func validKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	for _, seg := range strings.Split(key, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return false
		}
	}
	return true
}
