// Package s3 provides an aws-sdk-go-v2 implementation of filestore.Store,
// authenticated from a resolved AWS profile.
//
// Usage:
//
//	store, err := s3.New(ctx, s3.Config{Profile: p, Paths: paths, Region: "eu-west-1"})
//	if err != nil { ... }
//	defer store.Close()
//
//	buckets, err := store.ListBuckets(ctx)
package s3

import (
	"context"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/koustreak/s3nav/internal/awsfiles"
	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/filestore"
	"github.com/koustreak/s3nav/internal/profile"
)

// Config selects the identity and target of a Driver.
type Config struct {
	// Profile is the resolved profile to authenticate as. Static profiles
	// use their key pair directly; every other mechanism is delegated to the
	// SDK's shared-config credential chain for Profile.Name.
	Profile profile.Profile

	// Paths are the shared files the SDK reads for non-static profiles.
	Paths awsfiles.Paths

	// Region is the signing region.
	Region string

	// Endpoint optionally points the client at an S3-compatible server.
	// Path-style addressing is used whenever Endpoint.URL is set.
	Endpoint filestore.Endpoint
}

// Driver is an aws-sdk-go-v2 implementation of filestore.Store.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	cfg    aws.Config
	client *awss3.Client
}

// New builds the SDK client. It performs no network I/O; credentials are
// fetched lazily on the first request.
func New(ctx context.Context, c Config) (*Driver, error) {
	region := c.Region
	if region == "" {
		region = filestore.DefaultRegion
	}

	opts := []func(*config.LoadOptions) error{
		config.WithRegion(region),
	}
	if c.Paths.Credentials != "" {
		opts = append(opts, config.WithSharedCredentialsFiles([]string{c.Paths.Credentials}))
	}
	if c.Paths.Config != "" {
		opts = append(opts, config.WithSharedConfigFiles([]string{c.Paths.Config}))
	}

	switch m := c.Profile.Mechanism.(type) {
	case profile.Static:
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(m.AccessKeyID, m.SecretAccessKey, m.SessionToken),
		))
	default:
		opts = append(opts, config.WithSharedConfigProfile(c.Profile.Name))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConfig, "failed to load aws config for profile "+c.Profile.Name, err)
	}

	client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		if c.Endpoint.URL != "" {
			o.BaseEndpoint = aws.String(c.Endpoint.URL)
			o.UsePathStyle = true
		}
	})

	return &Driver{cfg: cfg, client: client}, nil
}

// --- filestore.Store implementation ---

// Close is a no-op; the SDK client holds only pooled HTTP connections.
func (d *Driver) Close() error {
	return nil
}

// ListBuckets returns all buckets accessible with the configured credentials.
func (d *Driver) ListBuckets(ctx context.Context) ([]filestore.BucketInfo, error) {
	var buckets []filestore.BucketInfo
	p := awss3.NewListBucketsPaginator(d.client, &awss3.ListBucketsInput{})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, mapError(err, "failed to list buckets")
		}
		for _, b := range page.Buckets {
			buckets = append(buckets, filestore.BucketInfo{
				Name:      aws.ToString(b.Name),
				CreatedAt: aws.ToTime(b.CreationDate),
			})
		}
	}
	return buckets, nil
}

// ListObjects returns one ListObjectsV2 page.
func (d *Driver) ListObjects(ctx context.Context, bucket string, opts filestore.ListOptions) (*filestore.ListResult, error) {
	in := &awss3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
	}
	if opts.Prefix != "" {
		in.Prefix = aws.String(opts.Prefix)
	}
	if opts.Delimiter != "" {
		in.Delimiter = aws.String(opts.Delimiter)
	}
	if opts.MaxKeys > 0 {
		in.MaxKeys = aws.Int32(int32(opts.MaxKeys))
	}
	if opts.ContinuationToken != "" {
		in.ContinuationToken = aws.String(opts.ContinuationToken)
	}

	out, err := d.client.ListObjectsV2(ctx, in)
	if err != nil {
		return nil, mapError(err, "failed to list objects")
	}

	res := &filestore.ListResult{
		IsTruncated:           aws.ToBool(out.IsTruncated),
		NextContinuationToken: aws.ToString(out.NextContinuationToken),
		KeyCount:              int(aws.ToInt32(out.KeyCount)),
		Objects:               make([]filestore.ObjectInfo, 0, len(out.Contents)),
	}
	for _, o := range out.Contents {
		res.Objects = append(res.Objects, filestore.ObjectInfo{
			Key:          aws.ToString(o.Key),
			Size:         aws.ToInt64(o.Size),
			ETag:         aws.ToString(o.ETag),
			LastModified: aws.ToTime(o.LastModified),
			StorageClass: string(o.StorageClass),
		})
	}
	for _, cp := range out.CommonPrefixes {
		res.CommonPrefixes = append(res.CommonPrefixes, aws.ToString(cp.Prefix))
	}
	return res, nil
}

// GetObject opens a streaming handle to the object at key inside bucket.
// The caller MUST call Object.Close() after reading.
func (d *Driver) GetObject(ctx context.Context, bucket, key string) (filestore.Object, error) {
	out, err := d.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapError(err, "failed to get object")
	}

	return &object{
		ReadCloser: out.Body,
		info: &filestore.ObjectInfo{
			Key:             key,
			Size:            aws.ToInt64(out.ContentLength),
			ContentType:     aws.ToString(out.ContentType),
			ContentEncoding: aws.ToString(out.ContentEncoding),
			ETag:            aws.ToString(out.ETag),
			LastModified:    aws.ToTime(out.LastModified),
			StorageClass:    string(out.StorageClass),
		},
	}, nil
}

// PutObject uploads body to key.
func (d *Driver) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, opts filestore.PutOptions) error {
	in := &awss3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(size),
		Metadata:      opts.UserMetadata,
	}
	if opts.ContentType != "" {
		in.ContentType = aws.String(opts.ContentType)
	}
	if opts.ContentEncoding != "" {
		in.ContentEncoding = aws.String(opts.ContentEncoding)
	}

	if _, err := d.client.PutObject(ctx, in); err != nil {
		return mapError(err, "failed to put object")
	}
	return nil
}

// DeleteObject removes one key.
func (d *Driver) DeleteObject(ctx context.Context, bucket, key string) error {
	_, err := d.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return mapError(err, "failed to delete object")
	}
	return nil
}

// CopyObject performs a server-side copy, keeping the source's metadata.
func (d *Driver) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	_, err := d.client.CopyObject(ctx, &awss3.CopyObjectInput{
		Bucket:     aws.String(dstBucket),
		Key:        aws.String(dstKey),
		CopySource: aws.String(copySource(srcBucket, srcKey)),
	})
	if err != nil {
		return mapError(err, "failed to copy object")
	}
	return nil
}

// copySource URL-encodes each key segment, keeping the separators.
func copySource(bucket, key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return bucket + "/" + strings.Join(parts, "/")
}

// HeadObject returns metadata for the object at key inside bucket
// without downloading its content.
func (d *Driver) HeadObject(ctx context.Context, bucket, key string) (*filestore.ObjectInfo, error) {
	out, err := d.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapError(err, "failed to head object")
	}

	return &filestore.ObjectInfo{
		Key:                  key,
		Size:                 aws.ToInt64(out.ContentLength),
		ContentType:          aws.ToString(out.ContentType),
		ContentEncoding:      aws.ToString(out.ContentEncoding),
		CacheControl:         aws.ToString(out.CacheControl),
		ETag:                 aws.ToString(out.ETag),
		LastModified:         aws.ToTime(out.LastModified),
		StorageClass:         string(out.StorageClass),
		ServerSideEncryption: string(out.ServerSideEncryption),
		KMSKeyID:             aws.ToString(out.SSEKMSKeyId),
		VersionID:            aws.ToString(out.VersionId),
		UserMetadata:         out.Metadata,
	}, nil
}

// GetObjectTags returns the object's tag set.
func (d *Driver) GetObjectTags(ctx context.Context, bucket, key string) (map[string]string, error) {
	out, err := d.client.GetObjectTagging(ctx, &awss3.GetObjectTaggingInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, mapError(err, "failed to get object tags")
	}
	tags := make(map[string]string, len(out.TagSet))
	for _, t := range out.TagSet {
		tags[aws.ToString(t.Key)] = aws.ToString(t.Value)
	}
	return tags, nil
}

// WhoAmI calls STS GetCallerIdentity with the driver's credentials.
func (d *Driver) WhoAmI(ctx context.Context) (*filestore.Identity, error) {
	out, err := sts.NewFromConfig(d.cfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return nil, mapError(err, "failed to get caller identity")
	}
	return &filestore.Identity{
		Account: aws.ToString(out.Account),
		ARN:     aws.ToString(out.Arn),
		UserID:  aws.ToString(out.UserId),
	}, nil
}

// --- internal types ---

// object wraps a GetObject response body and exposes filestore.Object.
type object struct {
	io.ReadCloser
	info *filestore.ObjectInfo
}

func (o *object) Info() *filestore.ObjectInfo {
	return o.info
}
