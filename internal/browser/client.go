// Package browser presents a flat object store as a navigable folder tree.
//
// A Client owns exactly one cached connection to the store, bound to the
// active profile and the endpoint override it was built for. Switching
// either drops the cached connection before a new one is built.
//
// Usage:
//
//	profiles := profile.NewStore(profile.NewResolver(paths, log), log)
//	client := browser.New(profiles, browser.DefaultDialer(paths), browser.WithLogger(log))
//	defer client.Close()
//
//	if _, err := profiles.SetActive("dev"); err != nil { ... }
//	page, err := client.ListObjects(ctx, "photos", browser.ListOptions{Prefix: "2024/"})
package browser

import (
	"context"
	"sync"

	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/filestore"
	"github.com/koustreak/s3nav/internal/logger"
	"github.com/koustreak/s3nav/internal/profile"
)

const (
	// MaxPageSize is the largest page a listing request may ask for.
	MaxPageSize = 1000

	// DefaultPageSize is used when a listing does not name a page size.
	DefaultPageSize = 100

	// DefaultDelimiter collapses keys into folders.
	DefaultDelimiter = "/"
)

// Target is everything a Dialer needs to build a store connection.
type Target struct {
	// Profile is the resolved profile. It is zero when the endpoint
	// override bypasses profile authentication.
	Profile  profile.Profile
	Region   string
	Endpoint filestore.Endpoint
}

// Dialer builds a store connection. Implementations must not perform
// network I/O.
type Dialer interface {
	Dial(ctx context.Context, t Target) (filestore.Store, error)
}

// DialFunc adapts a function to Dialer.
type DialFunc func(ctx context.Context, t Target) (filestore.Store, error)

// Dial calls f.
func (f DialFunc) Dial(ctx context.Context, t Target) (filestore.Store, error) {
	return f(ctx, t)
}

// handle is the cached connection and what it was built for.
type handle struct {
	store    filestore.Store
	profile  string
	endpoint string
}

// Client is the directory client. It is safe for concurrent use, but
// operations are not designed to interleave; one caller per process is
// assumed.
type Client struct {
	profiles *profile.Store
	dialer   Dialer
	log      *logger.Logger
	pageSize int

	mu       sync.Mutex
	endpoint filestore.Endpoint
	handle   *handle
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the client's logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// WithEndpoint sets the initial endpoint override.
func WithEndpoint(ep filestore.Endpoint) Option {
	return func(c *Client) {
		c.endpoint = ep
	}
}

// WithPageSize sets the page size used when a listing names none.
func WithPageSize(n int) Option {
	return func(c *Client) {
		c.pageSize = clampPageSize(n, DefaultPageSize)
	}
}

// New returns a Client that authenticates as profiles' active profile and
// registers itself to drop its connection whenever that profile changes.
func New(profiles *profile.Store, dialer Dialer, opts ...Option) *Client {
	c := &Client{
		profiles: profiles,
		dialer:   dialer,
		log:      logger.Nop(),
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.Component("browser")
	profiles.OnInvalidate(c.invalidate)
	return c
}

// Profiles returns the profile store the client authenticates from.
func (c *Client) Profiles() *profile.Store {
	return c.profiles
}

// Endpoint returns the current endpoint override.
func (c *Client) Endpoint() filestore.Endpoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.endpoint
}

// SetEndpoint replaces the endpoint override and drops the cached
// connection.
func (c *Client) SetEndpoint(ep filestore.Endpoint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.endpoint = ep
	c.dropLocked()
}

// Close drops the cached connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked()
	return nil
}

func (c *Client) invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dropLocked()
}

func (c *Client) dropLocked() {
	if c.handle == nil {
		return
	}
	if err := c.handle.store.Close(); err != nil {
		c.log.WarnWith("closing store connection", err, map[string]interface{}{"profile": c.handle.profile})
	}
	c.handle = nil
}

// bypassesProfiles reports whether ep authenticates on its own.
func bypassesProfiles(ep filestore.Endpoint) bool {
	return ep.Static() || ep.Memory()
}

// Connection returns the cached store if it was built for profileName and
// the current endpoint override and forceNew is false. Otherwise it
// resolves the profile, fails fast if it is unknown or unusable, and
// replaces the cache with a fresh connection.
func (c *Client) Connection(ctx context.Context, profileName string, forceNew bool) (filestore.Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ep := c.endpoint
	if bypassesProfiles(ep) {
		profileName = ""
	}
	key := ep.Key()

	if !forceNew && c.handle != nil && c.handle.profile == profileName && c.handle.endpoint == key {
		return c.handle.store, nil
	}
	c.dropLocked()

	t, err := c.target(profileName, ep)
	if err != nil {
		return nil, err
	}
	store, err := c.dialer.Dial(ctx, t)
	if err != nil {
		return nil, err
	}

	c.handle = &handle{store: store, profile: profileName, endpoint: key}
	c.log.With().
		Str("profile", profileName).
		Str("provider", string(ep.Provider())).
		Str("region", t.Region).
		Logger().Debug("store connection built")
	return store, nil
}

func (c *Client) target(profileName string, ep filestore.Endpoint) (Target, error) {
	if profileName == "" {
		if bypassesProfiles(ep) {
			return Target{Region: firstNonEmpty(ep.Region, filestore.DefaultRegion), Endpoint: ep}, nil
		}
		return Target{}, errs.New(errs.ErrKindConfig, "no active profile selected")
	}

	p, set, err := c.profiles.Resolver().Lookup(profileName)
	if err != nil {
		return Target{}, err
	}
	if v := profile.Validate(p); !v.Valid {
		return Target{}, errs.Newf(errs.ErrKindConfig, "profile %q cannot be used: %s", profileName, v.Reason)
	}

	return Target{
		Profile:  p,
		Region:   firstNonEmpty(ep.Region, p.Region, set.DefaultRegion, filestore.DefaultRegion),
		Endpoint: ep,
	}, nil
}

// store returns the connection for the active profile.
func (c *Client) store(ctx context.Context) (filestore.Store, error) {
	name, _ := c.profiles.Current()
	return c.Connection(ctx, name, false)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// clampPageSize bounds n to [1, MaxPageSize]; zero selects def.
func clampPageSize(n, def int) int {
	switch {
	case n == 0:
		return def
	case n < 1:
		return 1
	case n > MaxPageSize:
		return MaxPageSize
	default:
		return n
	}
}
