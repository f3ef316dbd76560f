// Package storage writes objects to S3, Google Cloud Storage or MinIO and hands
// out time-limited download links for them.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

var (
	ErrBucketRequired = errors.New("storage: bucket is required")
	// ErrMissingSigner is returned by PresignGet when the backend has no signing credentials.
	ErrMissingSigner = errors.New("storage: signed url signer not configured")
)

type Storage interface {
	io.Closer
	Put(ctx context.Context, bucket, key string, r io.Reader, opts PutOptions) (ObjectInfo, error)
	Delete(ctx context.Context, bucket, key string) error
	PresignGet(ctx context.Context, bucket, key string, expiry time.Duration) (string, error)
}

// PutOptions describes an upload. Size may be -1 when unknown.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

type ObjectInfo struct {
	Bucket string
	Key    string
	Size   int64
	ETag   string
}
