// Package memstore is an in-memory filestore.Store. It backs the mem://
// endpoint (offline demo mode) and the test suites of the packages built on
// filestore.
//
// Listing follows S3 ListObjectsV2 semantics: keys and common prefixes are
// returned in lexicographic order, both count toward MaxKeys, and the
// continuation token is opaque to callers.
package memstore

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"io"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/filestore"
)

// Op names a Store method for fault injection.
type Op string

const (
	OpList   Op = "list"
	OpGet    Op = "get"
	OpPut    Op = "put"
	OpDelete Op = "delete"
	OpCopy   Op = "copy"
	OpHead   Op = "head"
	OpTags   Op = "tags"
)

const defaultMaxKeys = 1000

type object struct {
	data        []byte
	contentType string
	encoding    string
	meta        map[string]string
	tags        map[string]string
	modified    time.Time
	class       string
}

// Call records one request made against the store.
type Call struct {
	Op     Op
	Bucket string
	Key    string
}

// Store is an in-memory filestore.Store. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	buckets map[string]map[string]*object
	created map[string]time.Time
	faults  map[Op]map[string]error
	calls   []Call
	now     func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		buckets: map[string]map[string]*object{},
		created: map[string]time.Time{},
		faults:  map[Op]map[string]error{},
		now:     time.Now,
	}
}

// CreateBucket adds an empty bucket; existing buckets are left alone.
func (s *Store) CreateBucket(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.buckets[name]; !ok {
		s.buckets[name] = map[string]*object{}
		s.created[name] = s.now()
	}
}

// Seed writes key directly, creating the bucket if needed.
func (s *Store) Seed(bucket, key string, data []byte) {
	s.CreateBucket(bucket)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buckets[bucket][key] = &object{data: data, modified: s.now(), class: "STANDARD"}
}

// SetTags replaces the tag set of an existing key.
func (s *Store) SetTags(bucket, key string, tags map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if o, ok := s.buckets[bucket][key]; ok {
		o.tags = maps.Clone(tags)
	}
}

// FailOn makes op fail with err for key ("" matches every key).
func (s *Store) FailOn(op Op, key string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.faults[op] == nil {
		s.faults[op] = map[string]error{}
	}
	s.faults[op][key] = err
}

// Keys returns the sorted keys of bucket.
func (s *Store) Keys(bucket string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Sorted(maps.Keys(s.buckets[bucket]))
}

// Calls returns the requests made so far, in order.
func (s *Store) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.calls)
}

// CallCount counts the requests of kind op.
func (s *Store) CallCount(op Op) int {
	n := 0
	for _, c := range s.Calls() {
		if c.Op == op {
			n++
		}
	}
	return n
}

// record logs the call and returns the injected fault, if any. Callers hold mu.
func (s *Store) record(op Op, bucket, key string) error {
	s.calls = append(s.calls, Call{Op: op, Bucket: bucket, Key: key})
	if f := s.faults[op]; f != nil {
		if err, ok := f[key]; ok {
			return err
		}
		if err, ok := f[""]; ok {
			return err
		}
	}
	return nil
}

func (s *Store) bucket(name string) (map[string]*object, error) {
	b, ok := s.buckets[name]
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "NoSuchBucket: bucket %q does not exist", name)
	}
	return b, nil
}

// --- filestore.Store implementation ---

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

// ListBuckets returns buckets in map order; callers sort.
func (s *Store) ListBuckets(ctx context.Context) ([]filestore.BucketInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpList, "", ""); err != nil {
		return nil, err
	}
	out := make([]filestore.BucketInfo, 0, len(s.buckets))
	for name := range s.buckets {
		out = append(out, filestore.BucketInfo{Name: name, CreatedAt: s.created[name]})
	}
	return out, nil
}

// ListObjects returns one page of bucket.
func (s *Store) ListObjects(ctx context.Context, bucket string, opts filestore.ListOptions) (*filestore.ListResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpList, bucket, opts.Prefix); err != nil {
		return nil, err
	}
	b, err := s.bucket(bucket)
	if err != nil {
		return nil, err
	}

	maxKeys := opts.MaxKeys
	if maxKeys <= 0 || maxKeys > defaultMaxKeys {
		maxKeys = defaultMaxKeys
	}
	after := ""
	if opts.ContinuationToken != "" {
		raw, err := base64.RawURLEncoding.DecodeString(opts.ContinuationToken)
		if err != nil {
			return nil, errs.New(errs.ErrKindInvalidInput, "invalid continuation token")
		}
		after = string(raw)
	}

	// entry is either an object key or a common prefix; both sort together.
	type entry struct {
		name     string
		isPrefix bool
	}
	seen := map[string]bool{}
	var entries []entry
	for _, key := range slices.Sorted(maps.Keys(b)) {
		if !strings.HasPrefix(key, opts.Prefix) {
			continue
		}
		if opts.Delimiter != "" {
			rest := key[len(opts.Prefix):]
			if i := strings.Index(rest, opts.Delimiter); i >= 0 {
				cp := opts.Prefix + rest[:i+len(opts.Delimiter)]
				if !seen[cp] {
					seen[cp] = true
					entries = append(entries, entry{name: cp, isPrefix: true})
				}
				continue
			}
		}
		entries = append(entries, entry{name: key})
	}

	res := &filestore.ListResult{}
	for _, e := range entries {
		if after != "" && e.name <= after {
			continue
		}
		if res.KeyCount == maxKeys {
			res.IsTruncated = true
			break
		}
		if e.isPrefix {
			res.CommonPrefixes = append(res.CommonPrefixes, e.name)
		} else {
			res.Objects = append(res.Objects, s.info(e.name, b[e.name]))
		}
		res.KeyCount++
		after = e.name
	}
	if res.IsTruncated {
		res.NextContinuationToken = base64.RawURLEncoding.EncodeToString([]byte(after))
	}
	return res, nil
}

func (s *Store) info(key string, o *object) filestore.ObjectInfo {
	sum := md5.Sum(o.data)
	return filestore.ObjectInfo{
		Key:             key,
		Size:            int64(len(o.data)),
		ContentType:     o.contentType,
		ContentEncoding: o.encoding,
		ETag:            `"` + hex.EncodeToString(sum[:]) + `"`,
		LastModified:    o.modified,
		StorageClass:    o.class,
		UserMetadata:    maps.Clone(o.meta),
	}
}

// GetObject returns a reader over a copy of the stored bytes.
func (s *Store) GetObject(ctx context.Context, bucket, key string) (filestore.Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpGet, bucket, key); err != nil {
		return nil, err
	}
	o, err := s.lookup(bucket, key)
	if err != nil {
		return nil, err
	}
	info := s.info(key, o)
	return &reader{Reader: bytes.NewReader(bytes.Clone(o.data)), info: &info}, nil
}

func (s *Store) lookup(bucket, key string) (*object, error) {
	b, err := s.bucket(bucket)
	if err != nil {
		return nil, err
	}
	o, ok := b[key]
	if !ok {
		return nil, errs.Newf(errs.ErrKindNotFound, "NoSuchKey: %s/%s", bucket, key)
	}
	return o, nil
}

// PutObject stores the body.
func (s *Store) PutObject(ctx context.Context, bucket, key string, body io.Reader, size int64, opts filestore.PutOptions) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return errs.Wrap(errs.ErrKindQueryFailed, "failed to read upload body", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpPut, bucket, key); err != nil {
		return err
	}
	b, err := s.bucket(bucket)
	if err != nil {
		return err
	}
	b[key] = &object{
		data:        data,
		contentType: opts.ContentType,
		encoding:    opts.ContentEncoding,
		meta:        maps.Clone(opts.UserMetadata),
		modified:    s.now(),
		class:       "STANDARD",
	}
	return nil
}

// DeleteObject removes key; missing keys succeed like S3.
func (s *Store) DeleteObject(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpDelete, bucket, key); err != nil {
		return err
	}
	b, err := s.bucket(bucket)
	if err != nil {
		return err
	}
	delete(b, key)
	return nil
}

// CopyObject duplicates an object, metadata included.
func (s *Store) CopyObject(ctx context.Context, srcBucket, srcKey, dstBucket, dstKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpCopy, srcBucket, srcKey); err != nil {
		return err
	}
	o, err := s.lookup(srcBucket, srcKey)
	if err != nil {
		return err
	}
	dst, err := s.bucket(dstBucket)
	if err != nil {
		return err
	}
	cp := *o
	cp.data = bytes.Clone(o.data)
	cp.meta = maps.Clone(o.meta)
	cp.tags = maps.Clone(o.tags)
	cp.modified = s.now()
	dst[dstKey] = &cp
	return nil
}

// HeadObject returns metadata for key.
func (s *Store) HeadObject(ctx context.Context, bucket, key string) (*filestore.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpHead, bucket, key); err != nil {
		return nil, err
	}
	o, err := s.lookup(bucket, key)
	if err != nil {
		return nil, err
	}
	info := s.info(key, o)
	return &info, nil
}

// GetObjectTags returns a copy of the tag set.
func (s *Store) GetObjectTags(ctx context.Context, bucket, key string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.record(OpTags, bucket, key); err != nil {
		return nil, err
	}
	o, err := s.lookup(bucket, key)
	if err != nil {
		return nil, err
	}
	tags := maps.Clone(o.tags)
	if tags == nil {
		tags = map[string]string{}
	}
	return tags, nil
}

type reader struct {
	*bytes.Reader
	info *filestore.ObjectInfo
}

func (r *reader) Close() error {
	return nil
}

func (r *reader) Info() *filestore.ObjectInfo {
	return r.info
}
