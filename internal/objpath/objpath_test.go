package objpath

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	tests := []struct {
		raw    string
		bucket string
		key    string
		ok     bool
	}{
		{"s3://b/k", "b", "k", true},
		{"s3://b/", "b", "", true},
		{"s3://b", "b", "", true},
		{"s3://b/dir/", "b", "dir/", true},
		{"s3://b/a/b/c.txt", "b", "a/b/c.txt", true},
		{"S3://b/k", "b", "k", true},
		{"s3://b/report?.csv", "b", "report?.csv", true},
		{"s3://b/notes#1.txt", "b", "notes#1.txt", true},
		{"s3://b/100%.txt", "b", "100%.txt", true},
		{"s3://b/a%20b", "b", "a%20b", true},
		{"s3://b/logs?old", "b", "logs?old", true},
		{"s3://b/a//c", "b", "a//c", true},
		{"https://photos.s3.amazonaws.com/a%20b.jpg", "photos", "a b.jpg", true},
		{"https://photos.s3.amazonaws.com/2024/cat.jpg", "photos", "2024/cat.jpg", true},
		{"https://photos.s3.eu-west-1.amazonaws.com/cat.jpg", "photos", "cat.jpg", true},
		{"https://my.dotted.bucket.s3-us-west-2.amazonaws.com/k", "my.dotted.bucket", "k", true},
		{"https://photos.s3.amazonaws.com/", "photos", "", true},
		{"https://s3.amazonaws.com/photos/cat.jpg", "photos", "cat.jpg", true},
		{"https://s3.eu-west-1.amazonaws.com/photos/dir/", "photos", "dir/", true},
		{"https://s3-us-west-2.amazonaws.com/photos", "photos", "", true},
		{"https://s3.amazonaws.com/", "", "", false},
		{"gs://b/k", "", "", false},
		{"http://photos.s3.amazonaws.com/k", "", "", false},
		{"https://example.com/b/k", "", "", false},
		{"https://photos.storage.amazonaws.com/k", "", "", false},
		{"s3://", "", "", false},
		{"s3:///k", "", "", false},
		{"not a url", "", "", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			loc, ok := Parse(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.bucket, loc.Bucket)
			assert.Equal(t, tt.key, loc.Key)
		})
	}
}

func TestParentPrefix(t *testing.T) {
	assert.Equal(t, "a/b/", ParentPrefix("a/b/c.txt"))
	assert.Equal(t, "", ParentPrefix("a/"))
	assert.Equal(t, "a/", ParentPrefix("a/b/"))
	assert.Equal(t, "", ParentPrefix("c.txt"))
	assert.Equal(t, "", ParentPrefix(""))
}

func TestLeafName(t *testing.T) {
	assert.Equal(t, "b", LeafName("a/b/"))
	assert.Equal(t, "c.txt", LeafName("c.txt"))
	assert.Equal(t, "c.txt", LeafName("a/b/c.txt"))
	assert.Equal(t, "", LeafName(""))
}

func TestJoin(t *testing.T) {
	assert.Equal(t, "a/b.txt", Join("a/", "b.txt"))
	assert.Equal(t, "a/b.txt", Join("a", "b.txt"))
	assert.Equal(t, "b.txt", Join("", "b.txt"))
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "s3://b/a/k", Location{Bucket: "b", Key: "a/k"}.String())
}
