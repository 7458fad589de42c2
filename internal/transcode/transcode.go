// Package transcode makes gzip-compressed keys transparent to callers that
// read and write text.
//
// Usage:
//
//	text := transcode.NewText(client)
//	body, err := text.Read(ctx, "logs", "2024/app.log.gz")
//	err = text.Write(ctx, "logs", "2024/app.log.gz", body)
package transcode

import (
	"bytes"
	"context"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/koustreak/s3nav/internal/errs"
)

// Extension marks a key as gzip-compressed.
const Extension = ".gz"

// IsCompressed reports whether key ends in Extension, ignoring case.
func IsCompressed(key string) bool {
	return strings.HasSuffix(strings.ToLower(key), Extension)
}

// Compress gzips data at the default level.
func Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		return nil, errs.Wrap(errs.ErrKindCompression, "compression failed", err)
	}
	if err := zw.Close(); err != nil {
		return nil, errs.Wrap(errs.ErrKindCompression, "compression failed", err)
	}
	return buf.Bytes(), nil
}

// Decompress gunzips data. Corrupt or truncated input is an
// errs.ErrKindDecompression error, never partial output.
func Decompress(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindDecompression, "decompression failed", err)
	}
	defer zr.Close()

	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindDecompression, "decompression failed", err)
	}
	return out, nil
}

// ByteStore is the binary read/write primitive pair text access is built on.
type ByteStore interface {
	GetBytes(ctx context.Context, bucket, key string) ([]byte, error)
	PutBytes(ctx context.Context, bucket, key string, data []byte) error
}

// Text reads and writes string content, compressing keys that carry
// Extension and passing everything else through.
type Text struct {
	store ByteStore
}

// NewText wraps store.
func NewText(store ByteStore) *Text {
	return &Text{store: store}
}

// Read fetches key and returns it as text.
func (t *Text) Read(ctx context.Context, bucket, key string) (string, error) {
	data, err := t.store.GetBytes(ctx, bucket, key)
	if err != nil {
		return "", err
	}
	if IsCompressed(key) {
		if data, err = Decompress(data); err != nil {
			return "", err
		}
	}
	return string(data), nil
}

// Write stores content under key. A compression failure aborts the upload.
func (t *Text) Write(ctx context.Context, bucket, key, content string) error {
	data := []byte(content)
	if IsCompressed(key) {
		var err error
		if data, err = Compress(data); err != nil {
			return err
		}
	}
	return t.store.PutBytes(ctx, bucket, key, data)
}
