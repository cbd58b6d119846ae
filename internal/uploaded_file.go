package internal

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/dmitrymomot/storefront/pkg/storage"
)

// EmptyFile stands for a file input that was submitted without a file.
// Nullable validation rules treat it like a missing value.
var EmptyFile = &UploadedFile{}

// UploadedFile is one file from a multipart request.
type UploadedFile struct {
	header      *multipart.FileHeader
	Filename    string
	ContentType string // as sent by the client; do not trust it
	size        int64
	moved       bool
}

func newUploadedFile(fh *multipart.FileHeader) *UploadedFile {
	if fh == nil || fh.Size == 0 {
		return EmptyFile
	}
	return &UploadedFile{
		header:      fh,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		size:        fh.Size,
	}
}

func (f *UploadedFile) Size() int64 { return f.size }

// IsEmpty reports whether no file was uploaded.
func (f *UploadedFile) IsEmpty() bool { return f.header == nil }

func (f *UploadedFile) IsMoved() bool { return f.moved }

// Open opens the uploaded content for reading.
func (f *UploadedFile) Open() (io.ReadCloser, error) {
	if f.IsEmpty() {
		return nil, ErrUploadFailed
	}
	if f.moved {
		return nil, ErrFileAlreadyMoved
	}
	return f.header.Open()
}

// MoveTo copies the upload to dst on the local file system. The target
// directory must exist and dst must not.
func (f *UploadedFile) MoveTo(dst string) error {
	if f.IsEmpty() {
		return ErrUploadFailed
	}
	if f.moved {
		return ErrFileAlreadyMoved
	}

	info, err := os.Stat(filepath.Dir(dst))
	if err != nil || !info.IsDir() {
		return ErrTargetNotWritable
	}

	src, err := f.header.Open()
	if err != nil {
		return errors.Join(ErrUploadFailed, err)
	}
	defer src.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return ErrTargetNotWritable
		}
		return errors.Join(ErrMoveFailed, err)
	}
	if _, err := io.Copy(out, src); err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return errors.Join(ErrMoveFailed, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(dst)
		return errors.Join(ErrMoveFailed, err)
	}

	f.moved = true
	return nil
}

// Store hands the upload to a storage backend and returns where it went.
// The content type is sniffed by the backend unless an option sets it.
func (f *UploadedFile) Store(ctx context.Context, s storage.Storage, opts ...storage.Option) (*storage.FileInfo, error) {
	if f.IsEmpty() {
		return nil, ErrUploadFailed
	}
	if f.moved {
		return nil, ErrFileAlreadyMoved
	}

	src, err := f.header.Open()
	if err != nil {
		return nil, errors.Join(ErrUploadFailed, err)
	}
	defer src.Close()

	info, err := s.Put(ctx, src, f.size, opts...)
	if err != nil {
		return nil, err
	}
	f.moved = true
	return info, nil
}
