package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/koustreak/s3nav/internal/api"
	"github.com/koustreak/s3nav/internal/profile"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "Inspect the profiles in the shared AWS files",
}

var profilesListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List every profile and whether it can be used",
	Args:    cobra.NoArgs,
	RunE:    runProfilesList,
}

var profilesValidateCmd = &cobra.Command{
	Use:   "validate NAME",
	Short: "Check that a profile has what it needs to authenticate",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfilesValidate,
}

func init() {
	profilesCmd.AddCommand(profilesListCmd, profilesValidateCmd)
	rootCmd.AddCommand(profilesCmd)
}

func runProfilesList(cmd *cobra.Command, _ []string) error {
	a := mustApp(cmd)
	list, err := unwrap(a.svc.ListProfiles())
	if err != nil {
		return err
	}
	return a.out.print(list, func() string { return renderProfiles(list) })
}

func renderProfiles(list api.ProfileList) string {
	if len(list.Profiles) == 0 {
		return hintStyle.Render("No profiles found.")
	}
	t := newTable("NAME", "TYPE", "REGION", "USABLE", "DETAIL")
	for _, p := range list.Profiles {
		usable := okStyle.Render("yes")
		if !p.HasCredentials {
			usable = errorStyle.Render("no")
		}
		t.Row(p.Name, string(p.Type), p.Region, usable, profileDetail(p))
	}
	var b strings.Builder
	b.WriteString(t.String())
	if list.DefaultRegion != "" {
		b.WriteString("\n" + hintStyle.Render("default region: "+list.DefaultRegion))
	}
	return b.String()
}

func profileDetail(p profile.Summary) string {
	switch {
	case p.Problem != "":
		return p.Problem
	case p.RoleARN != "":
		if p.SourceProfile != "" {
			return p.RoleARN + " via " + p.SourceProfile
		}
		return p.RoleARN
	case p.SSOSession != "":
		return "sso-session " + p.SSOSession
	case p.SSOStartURL != "":
		return p.SSOStartURL
	}
	return ""
}

func runProfilesValidate(cmd *cobra.Command, args []string) error {
	a := mustApp(cmd)
	v, err := unwrap(a.svc.ValidateProfile(args[0]))
	if err != nil {
		return err
	}
	return a.out.print(v, func() string {
		if v.Valid {
			return okStyle.Render("✓ " + args[0] + " is usable")
		}
		return errorStyle.Render("✗ "+args[0]+": ") + v.Reason
	})
}
