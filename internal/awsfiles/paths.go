package awsfiles

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/koustreak/s3nav/internal/errs"
)

const (
	EnvCredentialsFile = "AWS_SHARED_CREDENTIALS_FILE"
	EnvConfigFile      = "AWS_CONFIG_FILE"
)

// Paths locates the two shared files.
type Paths struct {
	Credentials string
	Config      string
}

// ResolvePaths picks the file locations. Explicit overrides win, then the
// AWS_SHARED_CREDENTIALS_FILE / AWS_CONFIG_FILE variables, then ~/.aws.
// getenv is usually os.Getenv; home may be "" to use os.UserHomeDir.
func ResolvePaths(overrides Paths, getenv func(string) string, home string) Paths {
	if getenv == nil {
		getenv = os.Getenv
	}
	if home == "" {
		home, _ = os.UserHomeDir()
	}

	p := overrides
	if p.Credentials == "" {
		p.Credentials = getenv(EnvCredentialsFile)
	}
	if p.Credentials == "" {
		p.Credentials = filepath.Join(home, ".aws", "credentials")
	}
	if p.Config == "" {
		p.Config = getenv(EnvConfigFile)
	}
	if p.Config == "" {
		p.Config = filepath.Join(home, ".aws", "config")
	}
	return p
}

// Load reads and parses both files. The config table is already normalised
// (see NormalizeConfig). A missing file yields an empty table; any other
// read failure is returned as a config error along with whatever was read.
func Load(p Paths) (creds, cfg Table, err error) {
	creds, err1 := readTable(p.Credentials)
	raw, err2 := readTable(p.Config)
	return creds, NormalizeConfig(raw), errors.Join(err1, err2)
}

func readTable(path string) (Table, error) {
	if path == "" {
		return Table{}, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Table{}, nil
		}
		return Table{}, errs.Wrap(errs.ErrKindConfig, "failed to read "+path, err)
	}
	return Parse(string(b)), nil
}
