package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/filestore"
)

// isolate clears every variable Load consults so the host environment
// cannot leak in.
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, name := range []string{
		"AWS_SHARED_CREDENTIALS_FILE", "AWS_CONFIG_FILE", "AWS_PROFILE",
		"AWS_ENDPOINT_URL_S3", "AWS_ENDPOINT_URL",
		"S3NAV_LOG_LEVEL", "S3NAV_LOG_FORMAT", "S3NAV_AWS_PROFILE",
		"S3NAV_ENDPOINT_URL", "S3NAV_ENDPOINT_ACCESS_KEY_ID", "S3NAV_ENDPOINT_SECRET_ACCESS_KEY",
		"S3NAV_LISTING_PAGE_SIZE", "S3NAV_SERVER_ADDR",
	} {
		t.Setenv(name, "")
	}
	return home
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "s3nav.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 100, cfg.Listing.PageSize)
	assert.Equal(t, "127.0.0.1:8765", cfg.Server.Addr)
	assert.True(t, cfg.FileEndpoint().IsZero())
}

func TestLoadFileThenEnvThenFlags(t *testing.T) {
	isolate(t)
	path := writeConfig(t, `
log:
  level: warn
aws:
  profile: from-file
listing:
  page_size: 250
server:
  allowed_origins: ["http://wails.localhost"]
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "from-file", cfg.AWS.Profile)
	assert.Equal(t, 250, cfg.Listing.PageSize)
	assert.Equal(t, []string{"http://wails.localhost"}, cfg.Server.AllowedOrigins)

	t.Setenv("AWS_PROFILE", "from-aws-env")
	cfg, err = Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-aws-env", cfg.AWS.Profile)

	t.Setenv("S3NAV_AWS_PROFILE", "from-own-env")
	cfg, err = Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "from-own-env", cfg.AWS.Profile)

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("profile", "", "")
	flags.String("log-level", "", "")
	require.NoError(t, flags.Parse([]string{"--profile", "from-flag"}))

	cfg, err = Load(path, flags)
	require.NoError(t, err)
	assert.Equal(t, "from-flag", cfg.AWS.Profile)
	assert.Equal(t, "warn", cfg.Log.Level, "unchanged flags must not override")
}

func TestLoadEndpointFromEnv(t *testing.T) {
	isolate(t)
	t.Setenv("AWS_ENDPOINT_URL_S3", "http://localhost:9000")
	t.Setenv("S3NAV_ENDPOINT_ACCESS_KEY_ID", "minio")
	t.Setenv("S3NAV_ENDPOINT_SECRET_ACCESS_KEY", "minio123")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	ep := cfg.FileEndpoint()
	assert.Equal(t, "http://localhost:9000", ep.URL)
	assert.True(t, ep.Static())
	assert.Equal(t, filestore.ProviderMinIO, ep.Provider())
}

func TestLoadPaths(t *testing.T) {
	isolate(t)
	t.Setenv("AWS_CONFIG_FILE", "/etc/aws/config")
	path := writeConfig(t, "aws:\n  credentials_file: /tmp/creds\n")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	p := cfg.Paths()
	assert.Equal(t, "/tmp/creds", p.Credentials)
	assert.Equal(t, "/etc/aws/config", p.Config)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"bad level", "log:\n  level: loud\n"},
		{"bad format", "log:\n  format: xml\n"},
		{"page size too large", "listing:\n  page_size: 5000\n"},
		{"page size zero", "listing:\n  page_size: 0\n"},
		{"half static credentials", "endpoint:\n  url: http://localhost:9000\n  access_key_id: minio\n"},
		{"bad addr", "server:\n  addr: nowhere\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, err := Load(writeConfig(t, tt.body), nil)
			require.Error(t, err)
			assert.True(t, errs.IsConfig(err), err.Error())
		})
	}
}

func TestLoadMissingNamedFile(t *testing.T) {
	isolate(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Equal(t, errs.ErrKindConfig, errs.KindOf(err))
}

func TestLoadSearchesHome(t *testing.T) {
	home := isolate(t)
	dir := filepath.Join(home, ".config", "s3nav")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "s3nav.yaml"), []byte("log:\n  format: json\n"), 0o600))

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.Log.Format)
}
