package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koustreak/s3nav/internal/errs"
)

var version = "dev"

var rootCmd = &cobra.Command{
	Version: version,
	Use:     "s3nav",
	Short:   "Browse S3 buckets with your AWS CLI profiles",
	Long: `s3nav resolves the profiles in your shared AWS credentials and config
files and browses buckets as folders. It also serves the same operations as a
JSON API for a desktop front-end.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		if a, err := appFromContext(cmd.Context()); err == nil {
			_ = a.client.Close()
		}
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file path (default: ./s3nav.yaml, ~/.config/s3nav/s3nav.yaml)")
	pf.StringP("profile", "p", "", "AWS profile to use (env: S3NAV_AWS_PROFILE, AWS_PROFILE)")
	pf.String("endpoint-url", "", "S3-compatible endpoint, or mem:// for the demo store")
	pf.String("region", "", "region override for the endpoint")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.StringP("output", "o", "table", "output format: table, json, yaml")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		printError(os.Stderr, err)
		if errs.IsAborted(err) || errors.Is(err, context.Canceled) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}

func printError(w *os.File, err error) {
	var fe *failure
	if errors.As(err, &fe) {
		fmt.Fprintf(w, "%s %s\n", errorStyle.Render(fe.Title+":"), fe.Message)
		if fe.Hint != "" {
			fmt.Fprintln(w, hintStyle.Render(fe.Hint))
		}
		return
	}
	fmt.Fprintln(w, errorStyle.Render("Error:"), err)
}
