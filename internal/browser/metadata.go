package browser

import (
	"context"
	"time"

	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/filestore"
)

// Metadata combines head fields with the object's tags.
type Metadata struct {
	Key                  string            `json:"key"`
	Size                 int64             `json:"size"`
	ContentType          string            `json:"contentType,omitempty"`
	ContentEncoding      string            `json:"contentEncoding,omitempty"`
	CacheControl         string            `json:"cacheControl,omitempty"`
	LastModified         time.Time         `json:"lastModified,omitzero"`
	Expires              time.Time         `json:"expires,omitzero"`
	ETag                 string            `json:"etag,omitempty"`
	StorageClass         string            `json:"storageClass,omitempty"`
	ServerSideEncryption string            `json:"serverSideEncryption,omitempty"`
	KMSKeyID             string            `json:"kmsKeyId,omitempty"`
	VersionID            string            `json:"versionId,omitempty"`
	UserMetadata         map[string]string `json:"metadata"`
	Tags                 map[string]string `json:"tags"`
}

// Metadata heads key and fetches its tags. Tag access is best effort: any
// tag error, access denied included, yields an empty tag set.
func (c *Client) Metadata(ctx context.Context, bucket, key string) (*Metadata, error) {
	store, err := c.store(ctx)
	if err != nil {
		return nil, err
	}
	info, err := store.HeadObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}

	tags, err := store.GetObjectTags(ctx, bucket, key)
	if err != nil {
		c.log.DebugWith("object tags unavailable", map[string]interface{}{
			"bucket": bucket,
			"key":    key,
			"error":  err.Error(),
		})
		tags = nil
	}
	if tags == nil {
		tags = map[string]string{}
	}

	meta := info.UserMetadata
	if meta == nil {
		meta = map[string]string{}
	}

	return &Metadata{
		Key:                  key,
		Size:                 info.Size,
		ContentType:          info.ContentType,
		ContentEncoding:      info.ContentEncoding,
		CacheControl:         info.CacheControl,
		LastModified:         info.LastModified,
		Expires:              info.Expires,
		ETag:                 stripQuotes(info.ETag),
		StorageClass:         info.StorageClass,
		ServerSideEncryption: info.ServerSideEncryption,
		KMSKeyID:             info.KMSKeyID,
		VersionID:            info.VersionID,
		UserMetadata:         meta,
		Tags:                 tags,
	}, nil
}

// WhoAmI reports the principal behind the active connection. Only stores
// that can query an identity service support it.
func (c *Client) WhoAmI(ctx context.Context) (*filestore.Identity, error) {
	store, err := c.store(ctx)
	if err != nil {
		return nil, err
	}
	prober, ok := store.(filestore.IdentityProber)
	if !ok {
		return nil, errs.New(errs.ErrKindInvalidInput, "identity lookup is not supported by this endpoint")
	}
	return prober.WhoAmI(ctx)
}
