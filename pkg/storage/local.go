package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LocalConfig configures disk storage.
type LocalConfig struct {
	// Root is the directory files are written to.
	Root string `mapstructure:"root"`
	// PublicURL is the URL prefix Root is served under, e.g. "/uploads".
	PublicURL string `mapstructure:"public_url"`
}

// Local stores files on disk. Use it for development and single-node setups.
type Local struct {
	cfg LocalConfig
}

// NewLocal creates the root directory if needed.
func NewLocal(cfg LocalConfig) (*Local, error) {
	if cfg.Root == "" {
		return nil, fmt.Errorf("%w: empty local root", ErrInvalidConfig)
	}
	if err := os.MkdirAll(cfg.Root, 0o755); err != nil {
		return nil, errors.Join(ErrInvalidConfig, err)
	}
	if cfg.PublicURL == "" {
		cfg.PublicURL = "/uploads"
	}
	return &Local{cfg: cfg}, nil
}

func (l *Local) path(key string) (string, error) {
	if !validKey(key) {
		return "", ErrInvalidKey
	}
	return filepath.Join(l.cfg.Root, filepath.FromSlash(key)), nil
}

func (l *Local) Put(ctx context.Context, r io.Reader, _ int64, opts ...Option) (*FileInfo, error) {
	o := putOptions{acl: ACLPublicRead}
	for _, opt := range opts {
		opt(&o)
	}

	ct := o.contentType
	if ct == "" {
		ct, r = sniff(r)
	}
	key := o.key
	if key == "" {
		key = newKey(o.prefix, ct)
	}
	dst, err := l.path(key)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return nil, errors.Join(ErrUploadFailed, err)
	}

	// write to a temp file first so readers never see a partial file
	tmp, err := os.CreateTemp(filepath.Dir(dst), ".upload-*")
	if err != nil {
		return nil, errors.Join(ErrUploadFailed, err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, ctxReader{ctx: ctx, r: r})
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, errors.Join(ErrUploadFailed, err)
	}
	if n == 0 {
		return nil, ErrEmptyFile
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, errors.Join(ErrUploadFailed, err)
	}

	return &FileInfo{Key: key, ContentType: ct, ACL: o.acl, Size: n}, nil
}

func (l *Local) Get(_ context.Context, key string) (io.ReadCloser, error) {
	p, err := l.path(key)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(p)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return f, err
}

func (l *Local) Delete(_ context.Context, key string) error {
	p, err := l.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Join(ErrDeleteFailed, err)
	}
	return nil
}

// URL returns the public URL; signing options are ignored.
func (l *Local) URL(_ context.Context, key string, _ ...URLOption) (string, error) {
	if !validKey(key) {
		return "", ErrInvalidKey
	}
	return strings.TrimSuffix(l.cfg.PublicURL, "/") + "/" + key, nil
}

// ctxReader stops a copy when the context is cancelled.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}

var _ Storage = (*Local)(nil)
