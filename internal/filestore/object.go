package filestore

import (
	"io"
	"time"
)

// BucketInfo describes a storage bucket.
type BucketInfo struct {
	// Name is the bucket name.
	Name string `json:"name"`

	// CreatedAt is when the bucket was created.
	// May be zero if the backend does not expose creation time.
	CreatedAt time.Time `json:"createdAt,omitzero"`
}

// ObjectInfo describes a single object stored in a bucket.
type ObjectInfo struct {
	// Key is the full object path within the bucket (e.g. "images/photo.jpg").
	Key string

	// Size is the byte size of the object.
	Size int64

	// ContentType is the MIME type (e.g. "image/jpeg"). Only set by HeadObject
	// and GetObject.
	ContentType string

	// ETag is the object's entity tag as returned by the backend, quotes
	// included.
	ETag string

	// LastModified is when the object was last written.
	LastModified time.Time

	// StorageClass is the backend storage class (STANDARD, GLACIER, …).
	StorageClass string

	// The remaining fields are only populated by HeadObject.
	ContentEncoding      string
	CacheControl         string
	ServerSideEncryption string
	KMSKeyID             string
	VersionID            string
	Expires              time.Time
	UserMetadata         map[string]string
}

// Object is a streaming handle to an object's content.
// The caller MUST call Close() after reading to avoid resource leaks.
type Object interface {
	io.ReadCloser

	// Info returns the metadata for this object.
	Info() *ObjectInfo
}

// ListOptions controls one ListObjects page.
type ListOptions struct {
	// Prefix restricts results to keys starting with this string.
	Prefix string

	// Delimiter groups keys into CommonPrefixes. Empty lists every nested
	// key flatly.
	Delimiter string

	// MaxKeys caps the number of keys plus common prefixes in the page.
	// 0 means the backend default.
	MaxKeys int

	// ContinuationToken resumes a truncated listing. "" starts from the
	// beginning.
	ContinuationToken string
}

// ListResult is one page of a listing.
type ListResult struct {
	Objects               []ObjectInfo
	CommonPrefixes        []string
	IsTruncated           bool
	NextContinuationToken string
	KeyCount              int
}

// PutOptions carries optional upload headers.
type PutOptions struct {
	ContentType     string
	ContentEncoding string
	UserMetadata    map[string]string
}
