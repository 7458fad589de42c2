package browser

import (
	"context"

	"github.com/google/uuid"

	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/filestore"
	"github.com/koustreak/s3nav/internal/objpath"
)

// KeyResult is the outcome of one key in a batch.
type KeyResult struct {
	Key     string `json:"key"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// DeleteOutcome aggregates a batch delete. Success is true iff FailedCount
// is zero and the batch was not aborted.
type DeleteOutcome struct {
	Results      []KeyResult `json:"results"`
	DeletedCount int         `json:"deletedCount"`
	FailedCount  int         `json:"failedCount"`
	Success      bool        `json:"success"`
	Aborted      bool        `json:"aborted,omitempty"`
}

func (o *DeleteOutcome) record(key string, err error) {
	if err != nil {
		o.FailedCount++
		o.Results = append(o.Results, KeyResult{Key: key, Error: err.Error()})
		return
	}
	o.DeletedCount++
	o.Results = append(o.Results, KeyResult{Key: key, Success: true})
}

func (o *DeleteOutcome) finish(aborted bool) *DeleteOutcome {
	o.Aborted = aborted
	o.Success = !aborted && o.FailedCount == 0
	return o
}

// DeletePrefix deletes every key under prefix, then the prefix's own marker
// object. A prefix without a trailing slash gets one, so "logs" deletes
// logs/ and leaves logs-old/ alone. Keys are deleted one request at a time;
// a failing key does not stop the rest. onProgress receives the attempted and total counts after
// each attempt.
//
// Cancellation is checked before every page fetch and every delete. A
// cancelled run stops at once and reports an aborted outcome carrying the
// counts accumulated so far.
//
// When nothing is nested under prefix, only the marker is deleted and it is
// the single counted attempt. Otherwise the trailing marker delete is best
// effort and is not counted.
func (c *Client) DeletePrefix(ctx context.Context, bucket, prefix string, onProgress func(done, total int)) (*DeleteOutcome, error) {
	if prefix == "" {
		return nil, errs.New(errs.ErrKindInvalidInput, "refusing to delete an empty prefix")
	}
	if !objpath.IsFolder(prefix) {
		prefix += objpath.Separator
	}

	out := &DeleteOutcome{Results: []KeyResult{}}
	if ctx.Err() != nil {
		return out.finish(true), nil
	}

	store, err := c.store(ctx)
	if err != nil {
		return nil, err
	}

	log := c.log.With().
		Str("op_id", uuid.NewString()).
		Str("bucket", bucket).
		Str("prefix", prefix).
		Logger()

	nested, _, err := c.collect(ctx, store, bucket, ListOptions{Prefix: prefix, Recursive: true}, nil)
	if err != nil {
		if errs.IsAborted(err) {
			return out.finish(true), nil
		}
		return nil, err
	}

	if len(nested.Files) == 0 {
		out.record(prefix, store.DeleteObject(context.WithoutCancel(ctx), bucket, prefix))
		log.With().Int("deleted", out.DeletedCount).Logger().Info("empty prefix deleted")
		return out.finish(false), nil
	}

	total := len(nested.Files)
	for i, e := range nested.Files {
		if ctx.Err() != nil {
			log.With().Int("deleted", out.DeletedCount).Int("failed", out.FailedCount).Logger().Info("prefix delete aborted")
			return out.finish(true), nil
		}
		err := store.DeleteObject(context.WithoutCancel(ctx), bucket, e.Key)
		if err != nil {
			log.WarnWith("delete failed", err, map[string]interface{}{"key": e.Key})
		}
		out.record(e.Key, err)
		if onProgress != nil {
			onProgress(i+1, total)
		}
	}

	c.deleteMarker(ctx, store, bucket, prefix)

	log.With().Int("deleted", out.DeletedCount).Int("failed", out.FailedCount).Logger().Info("prefix deleted")
	return out.finish(false), nil
}

// deleteMarker removes the folder marker left after its contents are gone.
// Its outcome never changes the batch verdict.
func (c *Client) deleteMarker(ctx context.Context, store filestore.Store, bucket, prefix string) {
	if err := store.DeleteObject(context.WithoutCancel(ctx), bucket, prefix); err != nil {
		c.log.DebugWith("folder marker delete failed", map[string]interface{}{
			"bucket": bucket,
			"prefix": prefix,
			"error":  err.Error(),
		})
	}
}

// DeleteFiles deletes keys one request at a time so each key's failure is
// reported on its own while the rest proceed. Cancellation is checked
// before every delete.
func (c *Client) DeleteFiles(ctx context.Context, bucket string, keys []string) (*DeleteOutcome, error) {
	store, err := c.store(ctx)
	if err != nil {
		return nil, err
	}

	out := &DeleteOutcome{Results: make([]KeyResult, 0, len(keys))}
	for _, key := range keys {
		if ctx.Err() != nil {
			return out.finish(true), nil
		}
		out.record(key, store.DeleteObject(context.WithoutCancel(ctx), bucket, key))
	}
	return out.finish(false), nil
}
