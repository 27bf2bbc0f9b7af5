// Package logout provides the logout command
package logout

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dentalscan/scanctl/internal/cli"
	"github.com/dentalscan/scanctl/internal/i18n"
)

// Command creates and returns the logout command
func Command(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.App()
			if err != nil {
				return ctx.Fail(err, i18n.MsgAuthRequired)
			}
			if err := a.Session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.Localizer.T(i18n.MsgLoggedOut))
			return nil
		},
	}
}
