package browser

import (
	"context"
	"sync"

	"github.com/koustreak/s3nav/internal/awsfiles"
	"github.com/koustreak/s3nav/internal/filestore"
	"github.com/koustreak/s3nav/internal/filestore/memstore"
	"github.com/koustreak/s3nav/internal/filestore/minio"
	"github.com/koustreak/s3nav/internal/filestore/s3"
	"github.com/koustreak/s3nav/internal/transcode"
)

// DefaultDialer picks the provider from the endpoint override:
//
//	mem://...             in-memory store (shared across reconnects)
//	URL + static keys     minio-go, path-style
//	anything else         aws-sdk-go-v2, authenticated from the profile
//
// paths are handed to the SDK so it reads the same shared files the
// profile resolver does.
func DefaultDialer(paths awsfiles.Paths) DialFunc {
	demo := sync.OnceValue(newDemoStore)
	return func(ctx context.Context, t Target) (filestore.Store, error) {
		switch t.Endpoint.Provider() {
		case filestore.ProviderMemory:
			return demo(), nil
		case filestore.ProviderMinIO:
			d, err := minio.New(t.Endpoint)
			if err != nil {
				return nil, err
			}
			return d, nil
		default:
			d, err := s3.New(ctx, s3.Config{
				Profile:  t.Profile,
				Paths:    paths,
				Region:   t.Region,
				Endpoint: t.Endpoint,
			})
			if err != nil {
				return nil, err
			}
			return d, nil
		}
	}
}

// newDemoStore returns an in-memory store with a small sample tree.
func newDemoStore() *memstore.Store {
	m := memstore.New()
	m.CreateBucket("archive")
	m.Seed("demo", "README.md", []byte("# demo bucket\n\nServed from memory.\n"))
	m.Seed("demo", "data/", nil)
	m.Seed("demo", "data/people.csv", []byte("name,team\nada,core\nlinus,kernel\n"))
	m.Seed("demo", "data/config.yaml", []byte("listing:\n  page_size: 100\n"))
	m.Seed("demo", "logs/2024/app.log", []byte("started\nstopped\n"))
	if gz, err := transcode.Compress([]byte("{\"level\":\"info\",\"msg\":\"compressed\"}\n")); err == nil {
		m.Seed("demo", "logs/2024/app.json.gz", gz)
	}
	return m
}
