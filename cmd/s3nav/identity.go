package main

import (
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the caller identity of the active profile",
	Args:  cobra.NoArgs,
	RunE:  runWhoAmI,
}

var parseCmd = &cobra.Command{
	Use:   "parse URL",
	Short: "Split an s3:// or https S3 URL into bucket and key",
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	rootCmd.AddCommand(whoamiCmd, parseCmd)
}

func runWhoAmI(cmd *cobra.Command, _ []string) error {
	a := mustApp(cmd)
	if err := a.activate(); err != nil {
		return err
	}
	id, err := unwrap(a.svc.WhoAmI(cmd.Context()))
	if err != nil {
		return err
	}
	return a.out.print(id, func() string {
		t := newTable("ACCOUNT", "ARN", "USER ID")
		t.Row(id.Account, id.ARN, id.UserID)
		return t.String()
	})
}

func runParse(cmd *cobra.Command, args []string) error {
	a := mustApp(cmd)
	loc, err := unwrap(a.svc.ParseURL(args[0]))
	if err != nil {
		return err
	}
	return a.out.print(loc, func() string {
		t := newTable("BUCKET", "KEY")
		t.Row(loc.Bucket, loc.Key)
		return t.String()
	})
}

func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
