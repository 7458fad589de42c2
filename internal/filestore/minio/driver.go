// Package minio provides a minio-go implementation of filestore.Store for
// S3-compatible endpoints reached with a static key pair.
//
// Usage:
//
//	store, err := minio.New(filestore.Endpoint{
//		URL:             "http://localhost:9000",
//		AccessKeyID:     "minioadmin",
//		SecretAccessKey: "minioadmin",
//	})
//	if err != nil { ... }
//	defer store.Close()
//
//	buckets, err := store.ListBuckets(ctx)
package minio

import (
	"context"
	"io"
	"net/url"
	"strings"

	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/filestore"
)

// Driver is a MinIO implementation of filestore.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	core *miniogo.Core
}

// New builds a path-style client for ep. It performs no network I/O.
func New(ep filestore.Endpoint) (*Driver, error) {
	host, secure, err := splitEndpoint(ep.URL)
	if err != nil {
		return nil, err
	}

	region := ep.Region
	if region == "" {
		region = filestore.DefaultRegion
	}

	core, err := miniogo.NewCore(host, &miniogo.Options{
		Creds:        credentials.NewStaticV4(ep.AccessKeyID, ep.SecretAccessKey, ""),
		Secure:       secure,
		Region:       region,
		BucketLookup: miniogo.BucketLookupPath,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to create minio client", err)
	}

	return &Driver{core: core}, nil
}

// splitEndpoint turns "https://host:port" into the host and TLS flag
// minio-go expects. A bare "host:port" is treated as plain HTTP.
func splitEndpoint(raw string) (string, bool, error) {
	if !strings.Contains(raw, "://") {
		if raw == "" {
			return "", false, errs.New(errs.ErrKindConfig, "endpoint url is empty")
		}
		return raw, false, nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", false, errs.Wrap(errs.ErrKindConfig, "invalid endpoint url", err)
	}
	switch u.Scheme {
	case "http":
		return u.Host, false, nil
	case "https":
		return u.Host, true, nil
	default:
		return "", false, errs.Newf(errs.ErrKindConfig, "unsupported endpoint scheme %q", u.Scheme)
	}
}

// --- filestore.Store implementation ---

// Close is a no-op for MinIO; the SDK client holds no persistent connections.
func (d *Driver) Close() error {
	return nil
}

// ListBuckets returns all buckets accessible with the configured credentials.
func (d *Driver) ListBuckets(ctx context.Context) ([]filestore.BucketInfo, error) {
	raw, err := d.core.ListBuckets(ctx)
	if err != nil {
		return nil, mapError(err, "failed to list buckets")
	}

	buckets := make([]filestore.BucketInfo, len(raw))
	for i, b := range raw {
		buckets[i] = filestore.BucketInfo{
			Name:      b.Name,
			CreatedAt: b.CreationDate,
		}
	}
	return buckets, nil
}

// ListObjects returns one ListObjectsV2 page. The low-level call takes no
// context, so cancellation is only observed before the request starts.
func (d *Driver) ListObjects(ctx context.Context, bucket string, opts filestore.ListOptions) (*filestore.ListResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, mapError(err, "failed to list objects")
	}

	out, err := d.core.ListObjectsV2(bucket, opts.Prefix, "", opts.ContinuationToken, opts.Delimiter, opts.MaxKeys)
	if err != nil {
		return nil, mapError(err, "failed to list objects")
	}

	res := &filestore.ListResult{
		IsTruncated:           out.IsTruncated,
		NextContinuationToken: out.NextContinuationToken,
		KeyCount:              len(out.Contents) + len(out.CommonPrefixes),
		Objects:               make([]filestore.ObjectInfo, 0, len(out.Contents)),
	}
	for _, o := range out.Contents {
		res.Objects = append(res.Objects, filestore.ObjectInfo{
			Key:          o.Key,
			Size:         o.Size,
			ETag:         quoteETag(o.ETag),
			LastModified: o.LastModified,
			StorageClass: o.StorageClass,
		})
	}
	for _, cp := range out.CommonPrefixes {
		res.CommonPrefixes = append(res.CommonPrefixes, cp.Prefix)
	}
	return res, nil
}

// GetObject opens a streaming handle to the object at key inside bucket.
// The caller MUST call Object.Close() after reading.
func (d *Driver) GetObject(ctx context.Context, bucket, key string) (filestore.Object, error) {
	obj, err := d.core.Client.GetObject(ctx, bucket, key, miniogo.GetObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to get object")
	}

	stat, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, mapError(err, "failed to stat object after get")
	}

	return &object{
		ReadCloser: obj,
		info:       toInfo(key, stat),
	}, nil
}

// PutObject uploads body to key.
func (d *Driver) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, opts filestore.PutOptions) error {
	_, err := d.core.Client.PutObject(ctx, bucket, key, body, size, miniogo.PutObjectOptions{
		ContentType:     opts.ContentType,
		ContentEncoding: opts.ContentEncoding,
		UserMetadata:    opts.UserMetadata,
	})
	if err != nil {
		return mapError(err, "failed to put object")
	}
	return nil
}

// DeleteObject removes one key.
func (d *Driver) DeleteObject(ctx context.Context, bucket, key string) error {
	if err := d.core.Client.RemoveObject(ctx, bucket, key, miniogo.RemoveObjectOptions{}); err != nil {
		return mapError(err, "failed to delete object")
	}
	return nil
}

// CopyObject performs a server-side copy.
func (d *Driver) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	_, err := d.core.Client.CopyObject(ctx,
		miniogo.CopyDestOptions{Bucket: dstBucket, Object: dstKey},
		miniogo.CopySrcOptions{Bucket: srcBucket, Object: srcKey},
	)
	if err != nil {
		return mapError(err, "failed to copy object")
	}
	return nil
}

// HeadObject returns metadata for the object at key inside bucket
// without downloading its content.
func (d *Driver) HeadObject(ctx context.Context, bucket, key string) (*filestore.ObjectInfo, error) {
	stat, err := d.core.Client.StatObject(ctx, bucket, key, miniogo.StatObjectOptions{})
	if err != nil {
		return nil, mapError(err, "failed to stat object")
	}
	return toInfo(key, stat), nil
}

// GetObjectTags returns the object's tag set.
func (d *Driver) GetObjectTags(ctx context.Context, bucket, key string) (map[string]string, error) {
	t, err := d.core.Client.GetObjectTagging(ctx, bucket, key, miniogo.GetObjectTaggingOptions{})
	if err != nil {
		return nil, mapError(err, "failed to get object tags")
	}
	return t.ToMap(), nil
}

// --- internal types ---

// object wraps a MinIO GetObject response and exposes filestore.Object.
type object struct {
	io.ReadCloser
	info *filestore.ObjectInfo
}

func (o *object) Info() *filestore.ObjectInfo {
	return o.info
}

func toInfo(key string, stat miniogo.ObjectInfo) *filestore.ObjectInfo {
	return &filestore.ObjectInfo{
		Key:                  key,
		Size:                 stat.Size,
		ContentType:          stat.ContentType,
		ETag:                 quoteETag(stat.ETag),
		LastModified:         stat.LastModified,
		StorageClass:         stat.StorageClass,
		ContentEncoding:      stat.Metadata.Get("Content-Encoding"),
		CacheControl:         stat.Metadata.Get("Cache-Control"),
		ServerSideEncryption: stat.Metadata.Get("X-Amz-Server-Side-Encryption"),
		KMSKeyID:             stat.Metadata.Get("X-Amz-Server-Side-Encryption-Aws-Kms-Key-Id"),
		VersionID:            stat.VersionID,
		Expires:              stat.Expires,
		UserMetadata:         stat.UserMetadata,
	}
}

// quoteETag restores the quotes minio-go strips so both drivers agree.
func quoteETag(etag string) string {
	if etag == "" || strings.HasPrefix(etag, `"`) {
		return etag
	}
	return `"` + etag + `"`
}
