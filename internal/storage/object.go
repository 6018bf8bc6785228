package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ObjectStore moves artifact bytes to a bucket and mints time-bounded
// download links. Presence of a configured store is optional; callers treat
// nil as "publishing disabled".
type ObjectStore interface {
	Upload(ctx context.Context, key, localPath, contentType string) error
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// BucketOptions configures an S3-compatible object store.
type BucketOptions struct {
	EndpointURL string
	AccessKey   string
	SecretKey   string
	Bucket      string
}

// BucketStore is an ObjectStore backed by an S3-compatible service.
type BucketStore struct {
	client *minio.Client
	bucket string
}

// NewBucketStore connects to the endpoint named in opts. The endpoint URL's
// scheme decides TLS use.
func NewBucketStore(opts BucketOptions) (*BucketStore, error) {
	if opts.EndpointURL == "" {
		return nil, errors.New("storage: bucket endpoint is required")
	}
	if opts.Bucket == "" {
		return nil, errors.New("storage: bucket name is required")
	}
	u, err := url.Parse(opts.EndpointURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("storage: invalid bucket endpoint %q", opts.EndpointURL)
	}
	client, err := minio.New(u.Host, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: u.Scheme == "https",
	})
	if err != nil {
		return nil, fmt.Errorf("storage: bucket client: %w", err)
	}
	return &BucketStore{client: client, bucket: opts.Bucket}, nil
}

// Upload copies the local file to the bucket under key.
func (s *BucketStore) Upload(ctx context.Context, key, localPath, contentType string) error {
	_, err := s.client.FPutObject(ctx, s.bucket, key, localPath, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("storage: upload %s: %w", key, err)
	}
	return nil
}

// PresignGet mints a credential-free download URL valid for expiry.
func (s *BucketStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	u, err := s.client.PresignedGetObject(ctx, s.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("storage: presign %s: %w", key, err)
	}
	return u.String(), nil
}

var _ ObjectStore = (*BucketStore)(nil)
