// Package config provides the config command and its subcommands
package config

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/dentalscan/scanctl/internal/cli"
	"github.com/dentalscan/scanctl/internal/conf"
	"github.com/dentalscan/scanctl/internal/i18n"
)

// Command creates and returns the config command
func Command(ctx *cli.Context) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}
	cmd.AddCommand(initCommand(ctx), showCommand(ctx))
	return cmd
}

func initCommand(ctx *cli.Context) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective settings to config.yaml",
		Long:  `Init writes the current settings, defaults merged with environment variables and flags, to the file given by --config or to the first standard location.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.Settings()
			if err != nil {
				return err
			}
			l := ctx.Localizer()

			path := ctx.ConfigFile
			if path == "" {
				path = conf.DefaultConfigFile()
			}
			if _, err := os.Stat(path); err == nil && !force {
				return cli.UserError(l.T(i18n.MsgConfigExists, path))
			}

			if err := conf.SaveYAMLConfig(path, settings); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), l.T(i18n.MsgConfigWritten, path))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	return cmd
}

func showCommand(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective settings as YAML",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := ctx.Settings()
			if err != nil {
				return err
			}

			shown := *settings
			if shown.Telemetry.DSN != "" {
				shown.Telemetry.DSN = "[REDACTED]"
			}

			data, err := yaml.Marshal(&shown)
			if err != nil {
				return fmt.Errorf("error marshaling settings to YAML: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
