// Package filestore defines the byte-level object store protocol that the
// directory client is written against.
//
// All providers (AWS S3 via aws-sdk-go-v2, MinIO and other S3-compatible
// endpoints via minio-go, the in-memory store) implement the Store
// interface. Callers depend only on this package, never on a specific
// provider package.
//
// Usage:
//
//	store, err := s3.New(ctx, cfg)
//	if err != nil { ... }
//	defer store.Close()
//
//	page, err := store.ListObjects(ctx, "photos", filestore.ListOptions{Prefix: "2024/", Delimiter: "/"})
package filestore

import (
	"context"
	"io"
)

// Store is the single interface all object storage providers must implement.
// Errors are *errs.Error values with a kind mapped from the provider's
// native error.
type Store interface {
	// Close releases any held resources.
	Close() error

	// ListBuckets returns all buckets accessible with the configured credentials.
	ListBuckets(ctx context.Context) ([]BucketInfo, error)

	// ListObjects returns one page of keys under opts.Prefix. With a
	// non-empty opts.Delimiter, keys sharing a prefix up to the next
	// delimiter are collapsed into CommonPrefixes.
	ListObjects(ctx context.Context, bucket string, opts ListOptions) (*ListResult, error)

	// GetObject opens a streaming handle to the object at key inside bucket.
	// The caller MUST call Object.Close() after reading.
	GetObject(ctx context.Context, bucket, key string) (Object, error)

	// PutObject uploads size bytes read from body to key.
	PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, opts PutOptions) error

	// DeleteObject removes one key. Deleting a missing key is not an error.
	DeleteObject(ctx context.Context, bucket, key string) error

	// CopyObject copies srcKey in srcBucket to dstKey in dstBucket.
	CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error

	// HeadObject returns metadata for the object at key inside bucket
	// without downloading its content.
	HeadObject(ctx context.Context, bucket, key string) (*ObjectInfo, error)

	// GetObjectTags returns the tag set of the object at key.
	GetObjectTags(ctx context.Context, bucket, key string) (map[string]string, error)
}

// Identity describes the principal behind a Store's credentials.
type Identity struct {
	Account string `json:"account"`
	ARN     string `json:"arn"`
	UserID  string `json:"userId"`
}

// IdentityProber is implemented by stores that can report who they are
// authenticated as.
type IdentityProber interface {
	WhoAmI(ctx context.Context) (*Identity, error)
}
