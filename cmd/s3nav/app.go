package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/koustreak/s3nav/internal/api"
	"github.com/koustreak/s3nav/internal/browser"
	"github.com/koustreak/s3nav/internal/config"
	"github.com/koustreak/s3nav/internal/errs"
	"github.com/koustreak/s3nav/internal/logger"
	"github.com/koustreak/s3nav/internal/objpath"
	"github.com/koustreak/s3nav/internal/profile"
)

// defaultProfile is activated when neither a flag nor the environment
// names one.
const defaultProfile = "default"

// app carries everything a command needs.
type app struct {
	cfg    *config.Config
	log    *logger.Logger
	client *browser.Client
	svc    *api.Service
	out    *printer
}

type appKey struct{}

func withApp(ctx context.Context, a *app) context.Context {
	return context.WithValue(ctx, appKey{}, a)
}

func appFromContext(ctx context.Context) (*app, error) {
	a, ok := ctx.Value(appKey{}).(*app)
	if !ok || a == nil {
		return nil, errors.New("app not found in context")
	}
	return a, nil
}

// setup loads the config and builds the service graph once per invocation.
func setup(cmd *cobra.Command, _ []string) error {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(file, cmd.Flags())
	if err != nil {
		return err
	}

	format, _ := cmd.Flags().GetString("output")
	out, err := newPrinter(cmd.OutOrStdout(), format)
	if err != nil {
		return err
	}

	log := logger.New(cfg.Logger())
	logger.SetGlobal(log)
	paths := cfg.Paths()
	profiles := profile.NewStore(profile.NewResolver(paths, log), log)
	client := browser.New(profiles, browser.DefaultDialer(paths),
		browser.WithLogger(log),
		browser.WithEndpoint(cfg.FileEndpoint()),
		browser.WithPageSize(cfg.Listing.PageSize),
	)

	log.With().
		Str("credentials", paths.Credentials).
		Str("config", paths.Config).
		Str("endpoint", cfg.Endpoint.URL).
		Logger().Debug("configured")

	cmd.SetContext(withApp(cmd.Context(), &app{
		cfg:    cfg,
		log:    log,
		client: client,
		svc:    api.New(client, log),
		out:    out,
	}))
	return nil
}

// mustApp is for RunE bodies, which only run after setup succeeded.
func mustApp(cmd *cobra.Command) *app {
	a, err := appFromContext(cmd.Context())
	if err != nil {
		panic(err)
	}
	return a
}

// activate selects the configured profile. Endpoints that carry their own
// credentials need none.
func (a *app) activate() error {
	ep := a.cfg.FileEndpoint()
	if ep.Static() || ep.Memory() {
		return nil
	}
	name := a.cfg.AWS.Profile
	if name == "" {
		name = defaultProfile
	}
	_, err := unwrap(a.svc.SetActiveProfile(name))
	return err
}

// failure is a failed envelope surfaced as an error.
type failure struct {
	Code    string
	Title   string
	Message string
	Hint    string
}

func (f *failure) Error() string {
	return fmt.Sprintf("%s: %s", f.Title, f.Message)
}

func (f *failure) Unwrap() error {
	if f.Code == "cancelled" {
		return errs.Aborted()
	}
	return nil
}

// unwrap turns an envelope back into a value or an error.
func unwrap[T any](r api.Result[T]) (T, error) {
	if r.Success {
		return r.Data, nil
	}
	return r.Data, &failure{Code: r.Code, Title: r.Title, Message: r.Error, Hint: r.Hint}
}

// location parses an s3:// or https URL argument.
func location(arg string) (objpath.Location, error) {
	loc, ok := objpath.Parse(arg)
	if !ok {
		return loc, errs.Newf(errs.ErrKindInvalidInput, "not an S3 URL: %q (expected s3://bucket/key)", arg)
	}
	return loc, nil
}
