package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "portal",
	Short: "Serve themed content sites",
	Long: `portal renders a directory of html/template pages over a content store.

Configuration is read from the environment (DATABASE_*, REDIS_*, MEDIA_*,
LOG_*, PORTAL_* and HTTP_* variables).

Getting Started:
  portal migrate                   Apply the schema
  portal seed fixtures.yaml        Load terms and items
  portal terms news --depth 2      Inspect the category tree
  portal serve                     Start the HTTP server`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
}
