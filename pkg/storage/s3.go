package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config configures S3 compatible object storage.
type S3Config struct {
	Bucket    string `mapstructure:"bucket"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	// Endpoint is set for MinIO and other S3 compatible services.
	Endpoint string `mapstructure:"endpoint"`
	// Region defaults to us-east-1.
	Region string `mapstructure:"region"`
	// PublicURL is a CDN prefix used for public objects.
	PublicURL string `mapstructure:"public_url"`
	// DefaultACL defaults to public-read: product images are public.
	DefaultACL ACL  `mapstructure:"default_acl"`
	PathStyle  bool `mapstructure:"path_style"`
}

const DefaultRegion = "us-east-1"

func (c *S3Config) normalize() error {
	if c.Bucket == "" || c.AccessKey == "" || c.SecretKey == "" {
		return fmt.Errorf("%w: bucket and credentials are required", ErrInvalidConfig)
	}
	if c.Region == "" {
		c.Region = DefaultRegion
	}
	if c.DefaultACL == "" {
		c.DefaultACL = ACLPublicRead
	}
	return nil
}

// S3 stores files in a bucket.
type S3 struct {
	client    *s3.Client
	presigner *s3.PresignClient
	cfg       S3Config
}

// NewS3 builds a client with static credentials. No request is made.
func NewS3(cfg S3Config) (*S3, error) {
	if err := cfg.normalize(); err != nil {
		return nil, err
	}

	client := s3.New(s3.Options{}, func(o *s3.Options) {
		o.Region = cfg.Region
		o.Credentials = credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = cfg.PathStyle
		}
	})

	return &S3{client: client, presigner: s3.NewPresignClient(client), cfg: cfg}, nil
}

func (s *S3) Put(ctx context.Context, r io.Reader, size int64, opts ...Option) (*FileInfo, error) {
	o := putOptions{acl: s.cfg.DefaultACL}
	for _, opt := range opts {
		opt(&o)
	}

	// the SDK signs the payload, so it needs a seekable body of known length
	body, ok := r.(io.ReadSeeker)
	if !ok || size < 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.Join(ErrUploadFailed, err)
		}
		body, size = bytes.NewReader(data), int64(len(data))
	}
	if size == 0 {
		return nil, ErrEmptyFile
	}

	ct := o.contentType
	if ct == "" {
		ct = DetectReader(body)
		if _, err := body.Seek(0, io.SeekStart); err != nil {
			return nil, errors.Join(ErrUploadFailed, err)
		}
	}
	key := o.key
	if key == "" {
		key = newKey(o.prefix, ct)
	}
	if !validKey(key) {
		return nil, ErrInvalidKey
	}

	acl := types.ObjectCannedACLPrivate
	if o.acl == ACLPublicRead {
		acl = types.ObjectCannedACLPublicRead
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		ContentType:   aws.String(ct),
		ACL:           acl,
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrUploadFailed)
	}

	return &FileInfo{Key: key, Size: size, ContentType: ct, ACL: o.acl}, nil
}

func (s *S3) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, wrapS3Error(err, ErrNotFound)
	}
	return out.Body, nil
}

func (s *S3) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return wrapS3Error(err, ErrDeleteFailed)
	}
	return nil
}

// URL returns the public URL of key, or a presigned one when requested
// or when the bucket's default ACL is private.
func (s *S3) URL(ctx context.Context, key string, opts ...URLOption) (string, error) {
	o := urlOptions{expiry: DefaultURLExpiry}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.signed && s.cfg.DefaultACL == ACLPublicRead {
		return s.publicURL(key), nil
	}

	in := &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	}
	if o.downloadName != "" {
		in.ResponseContentDisposition = aws.String(fmt.Sprintf("attachment; filename=%q", o.downloadName))
	}
	res, err := s.presigner.PresignGetObject(ctx, in, func(po *s3.PresignOptions) {
		po.Expires = o.expiry
	})
	if err != nil {
		return "", wrapS3Error(err, ErrPresignFailed)
	}
	return res.URL, nil
}

func (s *S3) publicURL(key string) string {
	switch {
	case s.cfg.PublicURL != "":
		return strings.TrimSuffix(s.cfg.PublicURL, "/") + "/" + key
	case s.cfg.Endpoint != "" && s.cfg.PathStyle:
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.cfg.Endpoint, "/"), s.cfg.Bucket, key)
	case s.cfg.Endpoint != "":
		return strings.TrimSuffix(s.cfg.Endpoint, "/") + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.cfg.Bucket, s.cfg.Region, key)
}

var _ Storage = (*S3)(nil)
