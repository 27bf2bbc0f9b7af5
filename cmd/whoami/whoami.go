// Package whoami provides the whoami command
package whoami

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dentalscan/scanctl/internal/cli"
	"github.com/dentalscan/scanctl/internal/i18n"
)

// Command creates and returns the whoami command
func Command(ctx *cli.Context) *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user",
		Long:  `Whoami fetches the current user from the backend and updates the stored copy. With --offline the stored copy is shown without a request.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.Authenticated()
			if err != nil {
				return ctx.Fail(err, i18n.MsgAuthRequired)
			}

			user := a.Session.User()
			if !offline {
				user, err = a.API.Me(cmd.Context())
				if err != nil {
					return ctx.Fail(err, i18n.MsgAuthRequired)
				}
				if err := a.Session.UpdateUser(user); err != nil {
					return err
				}
			}
			if user == nil {
				return cli.UserError(a.Localizer.T(i18n.MsgAuthRequired))
			}

			l := a.Localizer
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "%s:\t%s\n", l.T(i18n.HeaderName), user.DisplayName())
			fmt.Fprintf(w, "%s:\t%s\n", l.T(i18n.HeaderEmail), user.Email)
			fmt.Fprintf(w, "%s:\t%s\n", l.T(i18n.HeaderRole), user.Role)
			return w.Flush()
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Show the stored user without contacting the backend")

	return cmd
}
