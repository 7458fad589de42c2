package filestore

import "strings"

// Provider identifies the object storage backend.
type Provider string

const (
	ProviderS3     Provider = "s3"
	ProviderMinIO  Provider = "minio"
	ProviderMemory Provider = "memory"
)

// DefaultRegion is used when neither the profile nor any other profile in
// the shared config names one.
const DefaultRegion = "us-east-1"

// MemoryScheme selects the in-memory store when used as an endpoint URL.
const MemoryScheme = "mem://"

// Endpoint overrides where requests are sent. The zero value means "AWS,
// resolved from the profile".
type Endpoint struct {
	// URL is the base URL of an S3-compatible server
	// (e.g. "http://localhost:9000").
	URL string

	// AccessKeyID and SecretAccessKey, when both set together with URL,
	// bypass profile-based authentication entirely.
	AccessKeyID     string
	SecretAccessKey string

	// Region is sent with requests to the override endpoint.
	Region string
}

// IsZero reports whether no override is configured.
func (e Endpoint) IsZero() bool {
	return e.URL == ""
}

// Static reports whether the override carries its own credentials, in
// which case no profile is consulted and path-style addressing is forced.
func (e Endpoint) Static() bool {
	return e.URL != "" && e.AccessKeyID != "" && e.SecretAccessKey != ""
}

// Memory reports whether the override selects the in-memory store.
func (e Endpoint) Memory() bool {
	return strings.HasPrefix(e.URL, MemoryScheme)
}

// Key identifies the override for connection caching; secrets are left out.
func (e Endpoint) Key() string {
	return e.URL + "|" + e.AccessKeyID + "|" + e.Region
}

// Provider reports which backend serves this endpoint.
func (e Endpoint) Provider() Provider {
	switch {
	case e.Memory():
		return ProviderMemory
	case e.Static():
		return ProviderMinIO
	default:
		return ProviderS3
	}
}
