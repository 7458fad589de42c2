package browser

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/filestore"
)

// Entry is one row of a directory listing.
type Entry struct {
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified,omitzero"`
	ETag         string    `json:"etag,omitempty"`
	StorageClass string    `json:"storageClass,omitempty"`

	// IsPrefix marks a folder synthesised from a common prefix.
	IsPrefix bool `json:"isPrefix"`
}

// Page is one listing page. ContinuationToken is set iff IsTruncated.
type Page struct {
	Files             []Entry `json:"files"`
	Folders           []Entry `json:"folders"`
	IsTruncated       bool    `json:"isTruncated"`
	ContinuationToken string  `json:"continuationToken,omitempty"`
	KeyCount          int     `json:"keyCount"`
}

// Listing is the union of every page of a full listing.
type Listing struct {
	Files   []Entry `json:"files"`
	Folders []Entry `json:"folders"`
}

// ListOptions controls ListObjects and ListAllObjects.
type ListOptions struct {
	Prefix string

	// Delimiter groups keys into folders. Empty means DefaultDelimiter.
	Delimiter string

	// Recursive lists every nested key flatly, with no folder collapsing.
	Recursive bool

	// MaxKeys is clamped to [1, MaxPageSize]. Zero selects the client's
	// page size.
	MaxKeys int

	ContinuationToken string
}

// ListBuckets returns every visible bucket sorted by name, byte-wise.
func (c *Client) ListBuckets(ctx context.Context) ([]filestore.BucketInfo, error) {
	store, err := c.store(ctx)
	if err != nil {
		return nil, err
	}
	buckets, err := store.ListBuckets(ctx)
	if err != nil {
		return nil, err
	}
	slices.SortFunc(buckets, func(a, b filestore.BucketInfo) int {
		return strings.Compare(a.Name, b.Name)
	})
	return buckets, nil
}

// ListObjects fetches one page under opts.Prefix. The marker object whose
// key equals the prefix itself is never returned.
func (c *Client) ListObjects(ctx context.Context, bucket string, opts ListOptions) (*Page, error) {
	store, err := c.store(ctx)
	if err != nil {
		return nil, err
	}
	return c.listPage(ctx, store, bucket, opts)
}

func (c *Client) listPage(ctx context.Context, store filestore.Store, bucket string, opts ListOptions) (*Page, error) {
	delimiter := opts.Delimiter
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	if opts.Recursive {
		delimiter = ""
	}

	res, err := store.ListObjects(ctx, bucket, filestore.ListOptions{
		Prefix:            opts.Prefix,
		Delimiter:         delimiter,
		MaxKeys:           clampPageSize(opts.MaxKeys, c.pageSize),
		ContinuationToken: opts.ContinuationToken,
	})
	if err != nil {
		return nil, err
	}

	page := &Page{
		Files:       make([]Entry, 0, len(res.Objects)),
		Folders:     make([]Entry, 0, len(res.CommonPrefixes)),
		IsTruncated: res.IsTruncated,
		KeyCount:    res.KeyCount,
	}
	if res.IsTruncated {
		page.ContinuationToken = res.NextContinuationToken
	}
	for _, o := range res.Objects {
		if o.Key == opts.Prefix {
			continue
		}
		page.Files = append(page.Files, Entry{
			Key:          o.Key,
			Size:         o.Size,
			LastModified: o.LastModified,
			ETag:         stripQuotes(o.ETag),
			StorageClass: o.StorageClass,
		})
	}
	for _, p := range res.CommonPrefixes {
		page.Folders = append(page.Folders, Entry{Key: p, IsPrefix: true})
	}
	return page, nil
}

// ListAllObjects pages through opts.Prefix at MaxPageSize until the listing
// is exhausted, calling onProgress with the running file count after each
// page. The count is non-decreasing: a page holding only folders repeats the
// previous value. Cancellation is checked before every page; a cancelled listing
// returns an aborted error and no partial data.
func (c *Client) ListAllObjects(ctx context.Context, bucket string, opts ListOptions, onProgress func(files int)) (*Listing, error) {
	store, err := c.store(ctx)
	if err != nil {
		return nil, err
	}

	log := c.log.With().
		Str("op_id", uuid.NewString()).
		Str("bucket", bucket).
		Str("prefix", opts.Prefix).
		Bool("recursive", opts.Recursive).
		Logger()

	all, pages, err := c.collect(ctx, store, bucket, opts, onProgress)
	if err != nil {
		if errs.IsAborted(err) {
			log.With().Int("pages", pages).Logger().Info("listing aborted")
		}
		return nil, err
	}
	log.With().Int("pages", pages).Int("files", len(all.Files)).Logger().Debug("listing complete")
	return all, nil
}

// collect drives the page loop shared by ListAllObjects and DeletePrefix.
// Each page request runs detached from ctx so an observed cancellation
// never interrupts it.
func (c *Client) collect(ctx context.Context, store filestore.Store, bucket string, opts ListOptions, onProgress func(int)) (*Listing, int, error) {
	all := &Listing{Files: []Entry{}, Folders: []Entry{}}
	opts.MaxKeys = MaxPageSize
	opts.ContinuationToken = ""

	pages := 0
	for {
		if ctx.Err() != nil {
			return nil, pages, errs.Aborted()
		}
		page, err := c.listPage(context.WithoutCancel(ctx), store, bucket, opts)
		if err != nil {
			return nil, pages, err
		}
		pages++
		all.Files = append(all.Files, page.Files...)
		all.Folders = append(all.Folders, page.Folders...)
		if onProgress != nil {
			onProgress(len(all.Files))
		}
		if !page.IsTruncated {
			return all, pages, nil
		}
		if page.ContinuationToken == "" {
			return nil, pages, errs.New(errs.ErrKindQueryFailed, "truncated listing returned no continuation token")
		}
		opts.ContinuationToken = page.ContinuationToken
	}
}

func stripQuotes(etag string) string {
	return strings.Trim(etag, `"`)
}
