package browser

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/filestore"
	"github.com/koustreak/s3nav/internal/objpath"
)

// GetBytes downloads the whole object.
func (c *Client) GetBytes(ctx context.Context, bucket, key string) ([]byte, error) {
	store, err := c.store(ctx)
	if err != nil {
		return nil, err
	}
	obj, err := store.GetObject(ctx, bucket, key)
	if err != nil {
		return nil, err
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "failed to read object body", err)
	}
	return data, nil
}

// PutBytes uploads data with a content type inferred from key.
func (c *Client) PutBytes(ctx context.Context, bucket, key string, data []byte) error {
	store, err := c.store(ctx)
	if err != nil {
		return err
	}
	return store.PutObject(ctx, bucket, key, bytes.NewReader(data), int64(len(data)), filestore.PutOptions{
		ContentType: ContentType(key),
	})
}

// CreateFolder writes an empty marker object so an empty folder is visible.
func (c *Client) CreateFolder(ctx context.Context, bucket, prefix string) (string, error) {
	if prefix == "" || prefix == objpath.Separator {
		return "", errs.New(errs.ErrKindInvalidInput, "folder name is empty")
	}
	if !objpath.IsFolder(prefix) {
		prefix += objpath.Separator
	}
	if err := c.PutBytes(ctx, bucket, prefix, nil); err != nil {
		return "", err
	}
	return prefix, nil
}

// CopyFile copies src to dst server-side. Buckets may differ.
func (c *Client) CopyFile(ctx context.Context, src, dst objpath.Location) error {
	if src == dst {
		return errs.New(errs.ErrKindInvalidInput, "source and destination are the same object")
	}
	store, err := c.store(ctx)
	if err != nil {
		return err
	}
	return store.CopyObject(ctx, src.Bucket, src.Key, dst.Bucket, dst.Key)
}

// RenameFile copies srcKey to dstKey within bucket and then deletes srcKey.
// A failed copy leaves the source untouched and skips the delete.
func (c *Client) RenameFile(ctx context.Context, bucket, srcKey, dstKey string) error {
	src := objpath.Location{Bucket: bucket, Key: srcKey}
	dst := objpath.Location{Bucket: bucket, Key: dstKey}
	if err := c.CopyFile(ctx, src, dst); err != nil {
		return err
	}

	store, err := c.store(ctx)
	if err != nil {
		return err
	}
	if err := store.DeleteObject(ctx, bucket, srcKey); err != nil {
		return errs.Wrap(errs.KindOf(err), "copied to "+dstKey+" but failed to remove "+srcKey, err)
	}
	return nil
}

// UploadOutcome aggregates a multi-file upload. Success is true iff
// FailedCount is zero and the batch was not aborted.
type UploadOutcome struct {
	Results       []KeyResult `json:"results"`
	UploadedCount int         `json:"uploadedCount"`
	FailedCount   int         `json:"failedCount"`
	Success       bool        `json:"success"`
	Aborted       bool        `json:"aborted,omitempty"`
}

// UploadFiles uploads local files under prefix one at a time, keyed by
// their base names. A failing file does not stop the rest. Cancellation is
// checked before every upload; onProgress receives the attempted and total
// counts after each attempt.
func (c *Client) UploadFiles(ctx context.Context, bucket, prefix string, paths []string, onProgress func(done, total int)) (*UploadOutcome, error) {
	store, err := c.store(ctx)
	if err != nil {
		return nil, err
	}

	log := c.log.With().
		Str("op_id", uuid.NewString()).
		Str("bucket", bucket).
		Str("prefix", prefix).
		Logger()

	out := &UploadOutcome{Results: make([]KeyResult, 0, len(paths))}
	for i, path := range paths {
		if ctx.Err() != nil {
			out.Aborted = true
			log.With().Int("uploaded", out.UploadedCount).Logger().Info("upload aborted")
			return out, nil
		}

		key := objpath.Join(prefix, filepath.Base(path))
		if err := uploadFile(context.WithoutCancel(ctx), store, bucket, key, path); err != nil {
			log.WarnWith("upload failed", err, map[string]interface{}{"path": path, "key": key})
			out.FailedCount++
			out.Results = append(out.Results, KeyResult{Key: key, Error: err.Error()})
		} else {
			out.UploadedCount++
			out.Results = append(out.Results, KeyResult{Key: key, Success: true})
		}
		if onProgress != nil {
			onProgress(i+1, len(paths))
		}
	}

	out.Success = out.FailedCount == 0
	log.With().Int("uploaded", out.UploadedCount).Int("failed", out.FailedCount).Logger().Info("upload complete")
	return out, nil
}

func uploadFile(ctx context.Context, store filestore.Store, bucket, key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to open "+path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to stat "+path, err)
	}
	if st.IsDir() {
		return errs.Newf(errs.ErrKindInvalidInput, "%s is a directory", path)
	}

	return store.PutObject(ctx, bucket, key, f, st.Size(), filestore.PutOptions{
		ContentType: ContentType(key),
	})
}

// DownloadFile streams key to dest. When dest is an existing directory the
// object's leaf name is appended. It returns the written path and size. A
// failed download leaves no partial file behind.
func (c *Client) DownloadFile(ctx context.Context, bucket, key, dest string) (string, int64, error) {
	if st, err := os.Stat(dest); err == nil && st.IsDir() {
		dest = filepath.Join(dest, objpath.LeafName(key))
	}

	store, err := c.store(ctx)
	if err != nil {
		return "", 0, err
	}
	obj, err := store.GetObject(ctx, bucket, key)
	if err != nil {
		return "", 0, err
	}
	defer obj.Close()

	f, err := os.Create(dest)
	if err != nil {
		return "", 0, errs.Wrap(errs.ErrKindInvalidInput, "failed to create "+dest, err)
	}
	n, err := io.Copy(f, obj)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(dest)
		return "", 0, errs.Wrap(errs.ErrKindConnectionFailed, "failed to download "+key, err)
	}
	return dest, n, nil
}
