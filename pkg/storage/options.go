package storage

import "time"

// Option configures Put.
type Option func(*putOptions)

type putOptions struct {
	key         string
	prefix      string
	contentType string
	acl         ACL
}

// WithKey stores the file under key instead of a generated one.
func WithKey(key string) Option {
	return func(o *putOptions) { o.key = key }
}

// WithPrefix puts the generated key under a directory, e.g. "products".
func WithPrefix(prefix string) Option {
	return func(o *putOptions) { o.prefix = prefix }
}

// WithContentType skips content sniffing.
func WithContentType(ct string) Option {
	return func(o *putOptions) { o.contentType = ct }
}

// WithACL overrides the default ACL. Ignored by Local.
func WithACL(acl ACL) Option {
	return func(o *putOptions) { o.acl = acl }
}

// URLOption configures URL.
type URLOption func(*urlOptions)

type urlOptions struct {
	downloadName string
	expiry       time.Duration
	signed       bool
}

// DefaultURLExpiry is the lifetime of presigned URLs.
const DefaultURLExpiry = 15 * time.Minute

// WithSigned requests a presigned URL. Zero expiry keeps the default.
func WithSigned(expiry time.Duration) URLOption {
	return func(o *urlOptions) {
		o.signed = true
		if expiry > 0 {
			o.expiry = expiry
		}
	}
}

// WithDownload requests a presigned URL that makes browsers save the file as filename.
func WithDownload(filename string) URLOption {
	return func(o *urlOptions) {
		o.downloadName = filename
		o.signed = true
	}
}
