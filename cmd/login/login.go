// Package login provides the login command
package login

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dentalscan/scanctl/internal/cli"
	"github.com/dentalscan/scanctl/internal/i18n"
)

// Command creates and returns the login command
func Command(ctx *cli.Context) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Long:  `Login authenticates against the backend and stores the returned token and user in the local session store. The password is read from standard input when --password is not given.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.App()
			if err != nil {
				return ctx.Fail(err, i18n.MsgLoginFailed)
			}

			if password == "" {
				password, err = cli.Prompt(bufio.NewReader(cmd.InOrStdin()), cmd.ErrOrStderr(), a.Localizer.T(i18n.MsgPasswordPrompt))
				if err != nil {
					return err
				}
			}

			resp, err := a.API.Login(cmd.Context(), email, password)
			if err != nil {
				return ctx.Fail(err, i18n.MsgLoginFailed)
			}
			if err := a.Session.Begin(resp.Token, resp.User); err != nil {
				return ctx.Fail(err, i18n.MsgLoginFailed)
			}

			name := email
			if resp.User != nil {
				name = resp.User.DisplayName()
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.Localizer.T(i18n.MsgLoggedIn, name))
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
