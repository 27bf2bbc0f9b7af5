// Package cmd assembles the scanctl command tree.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dentalscan/scanctl/cmd/config"
	"github.com/dentalscan/scanctl/cmd/login"
	"github.com/dentalscan/scanctl/cmd/logout"
	"github.com/dentalscan/scanctl/cmd/refresh"
	"github.com/dentalscan/scanctl/cmd/register"
	"github.com/dentalscan/scanctl/cmd/report"
	"github.com/dentalscan/scanctl/cmd/send"
	"github.com/dentalscan/scanctl/cmd/studies"
	"github.com/dentalscan/scanctl/cmd/upload"
	"github.com/dentalscan/scanctl/cmd/watch"
	"github.com/dentalscan/scanctl/cmd/whoami"
	"github.com/dentalscan/scanctl/internal/cli"
)

// RootCommand creates and returns the root command
func RootCommand(ctx *cli.Context) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "scanctl",
		Short:         "Upload dental CT scans and follow their AI analysis",
		Version:       ctx.Build.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cobra.CheckErr(setupFlags(rootCmd, ctx))

	rootCmd.AddCommand(
		login.Command(ctx),
		register.Command(ctx),
		logout.Command(ctx),
		whoami.Command(ctx),
		upload.Command(ctx),
		studies.Command(ctx),
		send.Command(ctx),
		refresh.Command(ctx),
		report.Command(ctx),
		watch.Command(ctx),
		config.Command(ctx),
	)

	return rootCmd
}

// setupFlags defines the global flags and binds them to their settings keys
func setupFlags(rootCmd *cobra.Command, ctx *cli.Context) error {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&ctx.ConfigFile, "config", "", "Path to config.yaml (default: search the standard locations)")
	flags.String("api-url", "", "Backend API base URL, e.g. http://localhost:8000/api")
	flags.BoolP("debug", "d", false, "Enable debug output")
	flags.String("locale", "", "Message language: en or ru")

	bindings := map[string]string{
		"api.base_url": "api-url",
		"debug":        "debug",
		"locale":       "locale",
	}
	for key, flag := range bindings {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			return fmt.Errorf("error binding flag %s: %w", flag, err)
		}
	}

	return nil
}
