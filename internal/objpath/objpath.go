// Package objpath parses object URLs and treats slash-separated keys as
// hierarchical paths.
package objpath

import (
	"net/url"
	"strings"
)

const (
	// Scheme is the native URL scheme, as in s3://bucket/key.
	Scheme = "s3"

	// Separator splits keys into path segments.
	Separator = "/"

	awsHostSuffix = ".amazonaws.com"
)

// Location is a bucket and key pair.
type Location struct {
	Bucket string `json:"bucket"`
	Key    string `json:"key"`
}

// String renders the native form.
func (l Location) String() string {
	return Scheme + "://" + l.Bucket + Separator + l.Key
}

// Parse recognises three forms:
//
//	s3://bucket/key
//	https://bucket.s3[.region].amazonaws.com/key    (virtual-hosted)
//	https://s3[.region].amazonaws.com/bucket/key    (path-style)
//
// A region segment may also be joined with a dash (s3-us-west-2). Keys in
// the native form are taken verbatim, so "?", "#" and "%" are part of the
// key; the https forms are percent-decoded. Anything else reports
// ok == false.
func Parse(raw string) (Location, bool) {
	raw = strings.TrimSpace(raw)
	if rest, ok := cutScheme(raw, Scheme+"://"); ok {
		return parseNative(rest)
	}
	if _, ok := cutScheme(raw, "https://"); !ok {
		return Location{}, false
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return Location{}, false
	}

	host := strings.ToLower(u.Hostname())
	name, ok := strings.CutSuffix(host, awsHostSuffix)
	if !ok {
		return Location{}, false
	}

	if isServiceLabel(name) {
		bucket, key, _ := strings.Cut(strings.TrimPrefix(u.Path, Separator), Separator)
		if bucket == "" {
			return Location{}, false
		}
		return Location{Bucket: bucket, Key: keyOf(key)}, true
	}

	i := strings.LastIndex(name, ".s3")
	if i <= 0 || !isServiceLabel(name[i+1:]) {
		return Location{}, false
	}
	return Location{Bucket: name[:i], Key: keyOf(u.Path)}, true
}

// cutScheme strips a case-insensitive scheme prefix.
func cutScheme(raw, prefix string) (string, bool) {
	if len(raw) < len(prefix) || !strings.EqualFold(raw[:len(prefix)], prefix) {
		return "", false
	}
	return raw[len(prefix):], true
}

// parseNative splits bucket/key at the first separator.
func parseNative(rest string) (Location, bool) {
	bucket, key, _ := strings.Cut(rest, Separator)
	if bucket == "" {
		return Location{}, false
	}
	if key == Separator {
		key = ""
	}
	return Location{Bucket: bucket, Key: key}, true
}

// isServiceLabel matches "s3", "s3.<region>" and "s3-<region>".
func isServiceLabel(s string) bool {
	if s == "s3" {
		return true
	}
	if !strings.HasPrefix(s, "s3.") && !strings.HasPrefix(s, "s3-") {
		return false
	}
	region := s[3:]
	if region == "" {
		return false
	}
	for _, r := range region {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r == '-' || r == '.') {
			return false
		}
	}
	return true
}

// keyOf drops the leading separator; a lone separator is the empty key.
func keyOf(path string) string {
	key := strings.TrimPrefix(path, Separator)
	if key == Separator {
		return ""
	}
	return key
}

// ParentPrefix strips a trailing slash, then returns everything up to and
// including the last remaining slash.
//
//	ParentPrefix("a/b/c.txt") == "a/b/"
//	ParentPrefix("a/")        == ""
func ParentPrefix(key string) string {
	trimmed := strings.TrimSuffix(key, Separator)
	i := strings.LastIndex(trimmed, Separator)
	if i < 0 {
		return ""
	}
	return trimmed[:i+1]
}

// LeafName returns the last path segment, so a folder's leaf is its own
// name rather than "".
//
//	LeafName("a/b/")  == "b"
//	LeafName("c.txt") == "c.txt"
func LeafName(key string) string {
	trimmed := strings.TrimSuffix(key, Separator)
	return trimmed[strings.LastIndex(trimmed, Separator)+1:]
}

// IsFolder reports whether key names a folder marker.
func IsFolder(key string) bool {
	return strings.HasSuffix(key, Separator)
}

// Join appends name to prefix, inserting a separator when prefix lacks one.
func Join(prefix, name string) string {
	if prefix == "" || IsFolder(prefix) {
		return prefix + name
	}
	return prefix + Separator + name
}
