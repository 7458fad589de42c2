// Package config loads the s3nav application configuration.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/koustreak/s3nav/internal/awsfiles"
	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/filestore"
	"github.com/koustreak/s3nav/internal/logger"
)

// EnvPrefix namespaces the application's own environment variables.
const EnvPrefix = "S3NAV"

// Config is the root configuration.
type Config struct {
	Log      LogConfig      `mapstructure:"log"`
	AWS      AWSConfig      `mapstructure:"aws"`
	Endpoint EndpointConfig `mapstructure:"endpoint"`
	Listing  ListingConfig  `mapstructure:"listing"`
	Server   ServerConfig   `mapstructure:"server"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"required,oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"required,oneof=json console"`
}

// AWSConfig overrides where the shared files live and which profile starts
// out active.
type AWSConfig struct {
	CredentialsFile string `mapstructure:"credentials_file"`
	ConfigFile      string `mapstructure:"config_file"`
	Profile         string `mapstructure:"profile"`
}

// EndpointConfig points the browser at an S3-compatible server.
type EndpointConfig struct {
	URL             string `mapstructure:"url"`
	AccessKeyID     string `mapstructure:"access_key_id" validate:"required_with=SecretAccessKey"`
	SecretAccessKey string `mapstructure:"secret_access_key" validate:"required_with=AccessKeyID"`
	Region          string `mapstructure:"region"`
}

// ListingConfig holds listing defaults.
type ListingConfig struct {
	PageSize int `mapstructure:"page_size" validate:"min=1,max=1000"`
}

// ServerConfig holds HTTP transport configuration.
type ServerConfig struct {
	Addr           string   `mapstructure:"addr" validate:"required,hostname_port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// Paths returns the shared file locations, falling back to the AWS
// environment variables and ~/.aws for anything unset.
func (c *Config) Paths() awsfiles.Paths {
	return awsfiles.ResolvePaths(awsfiles.Paths{
		Credentials: c.AWS.CredentialsFile,
		Config:      c.AWS.ConfigFile,
	}, nil, "")
}

// FileEndpoint converts the endpoint section.
func (c *Config) FileEndpoint() filestore.Endpoint {
	return filestore.Endpoint{
		URL:             c.Endpoint.URL,
		AccessKeyID:     c.Endpoint.AccessKeyID,
		SecretAccessKey: c.Endpoint.SecretAccessKey,
		Region:          c.Endpoint.Region,
	}
}

// Logger converts the log section.
func (c *Config) Logger() *logger.Config {
	lc := logger.DefaultConfig()
	lc.Level = c.Log.Level
	lc.Format = c.Log.Format
	return lc
}

// flagToViperKey maps CLI flag names to viper keys.
var flagToViperKey = map[string]string{
	"log-level":    "log.level",
	"log-format":   "log.format",
	"profile":      "aws.profile",
	"endpoint-url": "endpoint.url",
	"region":       "endpoint.region",
	"page-size":    "listing.page_size",
	"addr":         "server.addr",
	"origin":       "server.allowed_origins",
}

// envAliases lets the standard AWS variables feed the same keys. The
// S3NAV_ name is listed first and wins.
var envAliases = map[string][]string{
	"aws.credentials_file":       {"AWS_SHARED_CREDENTIALS_FILE"},
	"aws.config_file":            {"AWS_CONFIG_FILE"},
	"aws.profile":                {"AWS_PROFILE"},
	"endpoint.url":               {"AWS_ENDPOINT_URL_S3", "AWS_ENDPOINT_URL"},
	"endpoint.access_key_id":     nil,
	"endpoint.secret_access_key": nil,
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("aws.credentials_file", "")
	v.SetDefault("aws.config_file", "")
	v.SetDefault("aws.profile", "")

	v.SetDefault("endpoint.url", "")
	v.SetDefault("endpoint.access_key_id", "")
	v.SetDefault("endpoint.secret_access_key", "")
	v.SetDefault("endpoint.region", "")

	v.SetDefault("listing.page_size", 100)

	v.SetDefault("server.addr", "127.0.0.1:8765")
	v.SetDefault("server.allowed_origins", []string{})
}

func bindEnv(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, aliases := range envAliases {
		own := EnvPrefix + "_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(append([]string{key, own}, aliases...)...); err != nil {
			return err
		}
	}
	return nil
}

func bindFlags(v *viper.Viper, flags *pflag.FlagSet) {
	flags.VisitAll(func(f *pflag.Flag) {
		key, ok := flagToViperKey[f.Name]
		if !ok || !f.Changed {
			return
		}
		_ = v.BindPFlag(key, f)
	})
}

// Load reads configuration and returns a validated Config.
// Order of precedence (highest to lowest): flags > env > config file > defaults.
//
// An empty file searches ./s3nav.yaml and $HOME/.config/s3nav/s3nav.yaml and
// tolerates neither existing; a named file must be readable. flags may be nil.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, errs.Wrap(errs.ErrKindConfig, "failed to read config file "+file, err)
		}
	} else {
		v.SetConfigName("s3nav")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/s3nav")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errs.Wrap(errs.ErrKindConfig, "failed to read config file", err)
			}
		}
	}

	if err := bindEnv(v); err != nil {
		return nil, errs.Wrap(errs.ErrKindConfig, "failed to bind environment", err)
	}
	if flags != nil {
		bindFlags(v, flags)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindConfig, "failed to decode config", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, errs.Wrap(errs.ErrKindConfig, fmt.Sprintf("invalid config (%d problems)", countProblems(err)), err)
	}
	return &cfg, nil
}

func countProblems(err error) int {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return len(verrs)
	}
	return 1
}
