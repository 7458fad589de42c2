package api

import (
	"context"

	"github.com/koustreak/s3nav/internal/browser"
	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/filestore"
	"github.com/koustreak/s3nav/internal/logger"
	"github.com/koustreak/s3nav/internal/objpath"
	"github.com/koustreak/s3nav/internal/profile"
	"github.com/koustreak/s3nav/internal/transcode"
)

// Service exposes the profile and directory operations as envelopes.
type Service struct {
	profiles *profile.Store
	client   *browser.Client
	text     *transcode.Text
	log      *logger.Logger
}

// New returns a Service over client and the profile store it
// authenticates from.
func New(client *browser.Client, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		profiles: client.Profiles(),
		client:   client,
		text:     transcode.NewText(client),
		log:      log.Component("api"),
	}
}

// --- profiles ---

// ProfileList is the payload of ListProfiles.
type ProfileList struct {
	Profiles      []profile.Summary `json:"profiles"`
	DefaultRegion string            `json:"defaultRegion,omitempty"`
	Active        string            `json:"active,omitempty"`
}

// ListProfiles re-reads the shared files.
func (s *Service) ListProfiles() Result[ProfileList] {
	return call(s.log, "list_profiles", func() (ProfileList, error) {
		set := s.profiles.Resolver().Resolve()
		out := ProfileList{
			Profiles:      make([]profile.Summary, 0, len(set.Profiles)),
			DefaultRegion: set.DefaultRegion,
		}
		for _, p := range set.Profiles {
			out.Profiles = append(out.Profiles, profile.Summarize(p))
		}
		out.Active, _ = s.profiles.Current()
		return out, nil
	})
}

// ValidateProfile reports whether name is usable right now.
func (s *Service) ValidateProfile(name string) Result[profile.Validation] {
	return call(s.log, "validate_profile", func() (profile.Validation, error) {
		p, _, err := s.profiles.Resolver().Lookup(name)
		if err != nil {
			return profile.Validation{}, err
		}
		return profile.Validate(p), nil
	})
}

// SetActiveProfile selects name after validating it.
func (s *Service) SetActiveProfile(name string) Result[profile.Summary] {
	return call(s.log, "set_active_profile", func() (profile.Summary, error) {
		p, err := s.profiles.SetActive(name)
		if err != nil {
			return profile.Summary{}, err
		}
		return profile.Summarize(p), nil
	})
}

// ActiveProfile returns the freshly resolved active profile.
func (s *Service) ActiveProfile() Result[profile.Summary] {
	return call(s.log, "active_profile", func() (profile.Summary, error) {
		p, _, err := s.profiles.Active()
		if err != nil {
			return profile.Summary{}, err
		}
		return profile.Summarize(p), nil
	})
}

// ClearActiveProfile deselects the active profile.
func (s *Service) ClearActiveProfile() Result[Empty] {
	return call(s.log, "clear_active_profile", func() (Empty, error) {
		s.profiles.Clear()
		return Empty{}, nil
	})
}

// --- directory ---

// ListBuckets lists buckets sorted by name.
func (s *Service) ListBuckets(ctx context.Context) Result[[]filestore.BucketInfo] {
	return call(s.log, "list_buckets", func() ([]filestore.BucketInfo, error) {
		buckets, err := s.client.ListBuckets(ctx)
		if buckets == nil && err == nil {
			buckets = []filestore.BucketInfo{}
		}
		return buckets, err
	})
}

// ListObjects fetches one page.
func (s *Service) ListObjects(ctx context.Context, bucket string, opts browser.ListOptions) Result[*browser.Page] {
	return call(s.log, "list_objects", func() (*browser.Page, error) {
		return s.client.ListObjects(ctx, bucket, opts)
	})
}

// ListAllObjects fetches every page.
func (s *Service) ListAllObjects(ctx context.Context, bucket string, opts browser.ListOptions) Result[*browser.Listing] {
	return call(s.log, "list_all_objects", func() (*browser.Listing, error) {
		return s.client.ListAllObjects(ctx, bucket, opts, nil)
	})
}

// DeletePrefix deletes a folder recursively. An aborted run is a failed
// envelope that still carries the counts reached. onProgress may be nil.
func (s *Service) DeletePrefix(ctx context.Context, bucket, prefix string, onProgress func(done, total int)) Result[*browser.DeleteOutcome] {
	res := call(s.log, "delete_prefix", func() (*browser.DeleteOutcome, error) {
		return s.client.DeletePrefix(ctx, bucket, prefix, onProgress)
	})
	if res.Success && res.Data.Aborted {
		return FailWith(res.Data, errs.Aborted())
	}
	return res
}

// DeleteFiles deletes keys one at a time.
func (s *Service) DeleteFiles(ctx context.Context, bucket string, keys []string) Result[*browser.DeleteOutcome] {
	res := call(s.log, "delete_files", func() (*browser.DeleteOutcome, error) {
		return s.client.DeleteFiles(ctx, bucket, keys)
	})
	if res.Success && res.Data.Aborted {
		return FailWith(res.Data, errs.Aborted())
	}
	return res
}

// RenameFile moves a key within bucket.
func (s *Service) RenameFile(ctx context.Context, bucket, from, to string) Result[Empty] {
	return call(s.log, "rename_file", func() (Empty, error) {
		return Empty{}, s.client.RenameFile(ctx, bucket, from, to)
	})
}

// CopyFile copies an object, possibly across buckets.
func (s *Service) CopyFile(ctx context.Context, src, dst objpath.Location) Result[Empty] {
	return call(s.log, "copy_file", func() (Empty, error) {
		return Empty{}, s.client.CopyFile(ctx, src, dst)
	})
}

// CreateFolder writes a folder marker and returns its key.
func (s *Service) CreateFolder(ctx context.Context, bucket, prefix string) Result[string] {
	return call(s.log, "create_folder", func() (string, error) {
		return s.client.CreateFolder(ctx, bucket, prefix)
	})
}

// UploadFiles uploads local files under prefix. onProgress may be nil.
func (s *Service) UploadFiles(ctx context.Context, bucket, prefix string, paths []string, onProgress func(done, total int)) Result[*browser.UploadOutcome] {
	res := call(s.log, "upload_files", func() (*browser.UploadOutcome, error) {
		return s.client.UploadFiles(ctx, bucket, prefix, paths, onProgress)
	})
	if res.Success && res.Data.Aborted {
		return FailWith(res.Data, errs.Aborted())
	}
	return res
}

// Download is the payload of DownloadFile.
type Download struct {
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// DownloadFile saves key to dest on the local disk.
func (s *Service) DownloadFile(ctx context.Context, bucket, key, dest string) Result[Download] {
	return call(s.log, "download_file", func() (Download, error) {
		path, n, err := s.client.DownloadFile(ctx, bucket, key, dest)
		return Download{Path: path, Size: n}, err
	})
}

// Metadata returns head fields and tags.
func (s *Service) Metadata(ctx context.Context, bucket, key string) Result[*browser.Metadata] {
	return call(s.log, "metadata", func() (*browser.Metadata, error) {
		return s.client.Metadata(ctx, bucket, key)
	})
}

// ReadText returns an object as text, decompressing .gz keys.
func (s *Service) ReadText(ctx context.Context, bucket, key string) Result[string] {
	return call(s.log, "read_text", func() (string, error) {
		return s.text.Read(ctx, bucket, key)
	})
}

// WriteText stores text, compressing .gz keys.
func (s *Service) WriteText(ctx context.Context, bucket, key, content string) Result[Empty] {
	return call(s.log, "write_text", func() (Empty, error) {
		return Empty{}, s.text.Write(ctx, bucket, key, content)
	})
}

// ParseURL splits an object URL into bucket and key.
func (s *Service) ParseURL(raw string) Result[objpath.Location] {
	return call(s.log, "parse_url", func() (objpath.Location, error) {
		loc, ok := objpath.Parse(raw)
		if !ok {
			return loc, errs.Newf(errs.ErrKindInvalidInput, "url not recognized: %q", raw)
		}
		return loc, nil
	})
}

// WhoAmI reports the caller identity of the active connection.
func (s *Service) WhoAmI(ctx context.Context) Result[*filestore.Identity] {
	return call(s.log, "whoami", func() (*filestore.Identity, error) {
		return s.client.WhoAmI(ctx)
	})
}
