// Package register provides the register command
package register

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dentalscan/scanctl/internal/cli"
	"github.com/dentalscan/scanctl/internal/i18n"
	"github.com/dentalscan/scanctl/internal/model"
)

// Command creates and returns the register command
func Command(ctx *cli.Context) *cobra.Command {
	var (
		reg     model.Registration
		role    string
		confirm string
	)

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Long:  `Register creates a new account. The password must be at least 6 characters and is asked twice when not given with --password and --confirm.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.App()
			if err != nil {
				return ctx.Fail(err, i18n.MsgRegistrationFailed)
			}

			in := bufio.NewReader(cmd.InOrStdin())
			if reg.Password == "" {
				if reg.Password, err = cli.Prompt(in, cmd.ErrOrStderr(), a.Localizer.T(i18n.MsgPasswordPrompt)); err != nil {
					return err
				}
			}
			if confirm == "" {
				if confirm, err = cli.Prompt(in, cmd.ErrOrStderr(), a.Localizer.T(i18n.MsgConfirmPrompt)); err != nil {
					return err
				}
			}
			reg.Role = model.Role(role)

			resp, err := a.API.Register(cmd.Context(), reg, confirm)
			if err != nil {
				return ctx.Fail(err, i18n.MsgRegistrationFailed)
			}
			if err := a.Session.Begin(resp.Token, resp.User); err != nil {
				return ctx.Fail(err, i18n.MsgRegistrationFailed)
			}

			name := reg.Email
			if resp.User != nil {
				name = resp.User.DisplayName()
			}
			fmt.Fprintln(cmd.OutOrStdout(), a.Localizer.T(i18n.MsgLoggedIn, name))
			return nil
		},
	}

	cmd.Flags().StringVarP(&reg.Email, "email", "e", "", "Account email")
	cmd.Flags().StringVar(&reg.FirstName, "first-name", "", "First name")
	cmd.Flags().StringVar(&reg.LastName, "last-name", "", "Last name")
	cmd.Flags().StringVar(&reg.Phone, "phone", "", "Phone number")
	cmd.Flags().StringVar(&role, "role", string(model.RolePatient), "Account role: patient, clinic or government")
	cmd.Flags().StringVarP(&reg.Password, "password", "p", "", "Password (prompted when empty)")
	cmd.Flags().StringVar(&confirm, "confirm", "", "Password confirmation (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
