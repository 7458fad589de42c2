package browser

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/s3nav/internal/awsfiles"
	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/filestore"
	"github.com/koustreak/s3nav/internal/filestore/memstore"
	"github.com/koustreak/s3nav/internal/profile"
)

const (
	testCredentials = `[dev]
aws_access_key_id = AKIADEV
aws_secret_access_key = dev-secret

[ops]
aws_access_key_id = AKIAOPS
aws_secret_access_key = ops-secret
`
	testConfig = `[default]
region = eu-west-1

[profile ops]
region = ap-south-1

[profile sso-half]
sso_start_url = https://example.awsapps.com/start
sso_role_name = ReadOnly
`
)

// closeCounter counts Close calls on the shared in-memory store.
type closeCounter struct {
	filestore.Store
	mu     *sync.Mutex
	closed *int
}

func (c closeCounter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	*c.closed++
	return nil
}

type harness struct {
	mem      *memstore.Store
	profiles *profile.Store
	client   *Client

	mu      sync.Mutex
	targets []Target
	closed  int
}

func (h *harness) dials() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.targets)
}

func (h *harness) lastTarget() Target {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.targets[len(h.targets)-1]
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()

	dir := t.TempDir()
	paths := awsfiles.Paths{
		Credentials: filepath.Join(dir, "credentials"),
		Config:      filepath.Join(dir, "config"),
	}
	require.NoError(t, os.WriteFile(paths.Credentials, []byte(testCredentials), 0o600))
	require.NoError(t, os.WriteFile(paths.Config, []byte(testConfig), 0o600))

	h := &harness{mem: memstore.New()}
	h.profiles = profile.NewStore(profile.NewResolver(paths, nil), nil)
	dial := DialFunc(func(_ context.Context, tg Target) (filestore.Store, error) {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.targets = append(h.targets, tg)
		return closeCounter{Store: h.mem, mu: &h.mu, closed: &h.closed}, nil
	})
	h.client = New(h.profiles, dial, opts...)
	return h
}

// activeHarness returns a harness with "dev" selected.
func activeHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := newHarness(t, opts...)
	_, err := h.profiles.SetActive("dev")
	require.NoError(t, err)
	return h
}

func TestConnection_CachedUntilProfileChanges(t *testing.T) {
	h := activeHarness(t)
	ctx := context.Background()
	h.mem.CreateBucket("b")

	_, err := h.client.ListBuckets(ctx)
	require.NoError(t, err)
	_, err = h.client.ListBuckets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, h.dials())

	first := h.lastTarget()
	assert.Equal(t, "dev", first.Profile.Name)
	assert.Equal(t, profile.TypeStatic, first.Profile.Type())
	assert.Equal(t, "eu-west-1", first.Region, "falls back to the default profile's region")

	_, err = h.profiles.SetActive("ops")
	require.NoError(t, err)
	assert.Equal(t, 1, h.closed, "switching profiles drops the cached connection")

	_, err = h.client.ListBuckets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, h.dials())
	assert.Equal(t, "ap-south-1", h.lastTarget().Region)
}

func TestConnection_ForceNew(t *testing.T) {
	h := activeHarness(t)
	ctx := context.Background()

	_, err := h.client.Connection(ctx, "dev", false)
	require.NoError(t, err)
	_, err = h.client.Connection(ctx, "dev", true)
	require.NoError(t, err)

	assert.Equal(t, 2, h.dials())
	assert.Equal(t, 1, h.closed)
}

func TestConnection_SameProfileReselectedKeepsHandle(t *testing.T) {
	h := activeHarness(t)
	ctx := context.Background()

	_, err := h.client.Connection(ctx, "dev", false)
	require.NoError(t, err)
	_, err = h.profiles.SetActive("dev")
	require.NoError(t, err)
	_, err = h.client.Connection(ctx, "dev", false)
	require.NoError(t, err)

	assert.Equal(t, 1, h.dials())
}

func TestConnection_FailsFast(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	_, err := h.client.Connection(ctx, "ghost", false)
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
	assert.Contains(t, err.Error(), `"ghost" does not exist`)

	_, err = h.client.Connection(ctx, "sso-half", false)
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err))
	assert.Contains(t, err.Error(), "account id and role name")

	_, err = h.client.ListBuckets(ctx)
	require.Error(t, err)
	assert.True(t, errs.IsConfig(err), "no active profile")

	assert.Zero(t, h.dials())
}

func TestConnection_ClearDropsHandle(t *testing.T) {
	h := activeHarness(t)
	ctx := context.Background()

	_, err := h.client.ListBuckets(ctx)
	require.NoError(t, err)
	h.profiles.Clear()
	assert.Equal(t, 1, h.closed)

	_, err = h.client.ListBuckets(ctx)
	assert.True(t, errs.IsConfig(err))
}

func TestConnection_StaticEndpointBypassesProfiles(t *testing.T) {
	h := newHarness(t, WithEndpoint(filestore.Endpoint{
		URL:             "http://localhost:9000",
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
	}))
	ctx := context.Background()

	_, err := h.client.ListBuckets(ctx)
	require.NoError(t, err, "no profile needed")

	tg := h.lastTarget()
	assert.Empty(t, tg.Profile.Name)
	assert.Equal(t, filestore.DefaultRegion, tg.Region)
	assert.Equal(t, filestore.ProviderMinIO, tg.Endpoint.Provider())

	_, err = h.profiles.SetActive("dev")
	require.NoError(t, err)
	_, err = h.client.ListBuckets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, h.dials(), "profile switch still invalidates")

	h.client.SetEndpoint(filestore.Endpoint{URL: "http://localhost:9001", AccessKeyID: "a", SecretAccessKey: "b", Region: "local"})
	_, err = h.client.ListBuckets(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, h.dials())
	assert.Equal(t, "local", h.lastTarget().Region)
}

func TestConnection_EndpointWithoutKeysUsesProfile(t *testing.T) {
	h := activeHarness(t, WithEndpoint(filestore.Endpoint{URL: "http://localhost:4566"}))

	_, err := h.client.ListBuckets(context.Background())
	require.NoError(t, err)

	tg := h.lastTarget()
	assert.Equal(t, "dev", tg.Profile.Name)
	assert.Equal(t, filestore.ProviderS3, tg.Endpoint.Provider())
}

func TestDefaultDialerMemoryEndpoint(t *testing.T) {
	dial := DefaultDialer(awsfiles.Paths{})
	ctx := context.Background()
	tg := Target{Endpoint: filestore.Endpoint{URL: "mem://demo"}, Region: filestore.DefaultRegion}

	first, err := dial.Dial(ctx, tg)
	require.NoError(t, err)
	second, err := dial.Dial(ctx, tg)
	require.NoError(t, err)
	assert.Same(t, first, second, "demo data survives reconnects")

	buckets, err := first.ListBuckets(ctx)
	require.NoError(t, err)
	assert.Len(t, buckets, 2)
}

func TestClampPageSize(t *testing.T) {
	assert.Equal(t, DefaultPageSize, clampPageSize(0, DefaultPageSize))
	assert.Equal(t, 1, clampPageSize(-5, DefaultPageSize))
	assert.Equal(t, MaxPageSize, clampPageSize(5000, DefaultPageSize))
	assert.Equal(t, 42, clampPageSize(42, DefaultPageSize))
}
