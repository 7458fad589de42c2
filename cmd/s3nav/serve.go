package main

import (
	"github.com/spf13/cobra"

	"github.com/koustreak/s3nav/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON API for a desktop front-end",
	Long: `Start the HTTP server. Every operation answers with a success/error
envelope; the front-end selects a profile through /api/profiles/active.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default: 127.0.0.1:8765, env: S3NAV_SERVER_ADDR)")
	serveCmd.Flags().StringSlice("origin", nil, "allowed CORS origin, repeatable")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a := mustApp(cmd)

	// An explicitly configured profile starts out active; otherwise the
	// front-end picks one.
	if a.cfg.AWS.Profile != "" {
		if err := a.activate(); err != nil {
			return err
		}
	}

	srv := server.New(server.Config{
		Addr:           a.cfg.Server.Addr,
		AllowedOrigins: a.cfg.Server.AllowedOrigins,
	}, a.svc, a.log)
	return srv.ListenAndServe(cmd.Context())
}
