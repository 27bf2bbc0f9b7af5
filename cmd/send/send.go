// Package send provides the send command
package send

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dentalscan/scanctl/internal/cli"
	"github.com/dentalscan/scanctl/internal/i18n"
)

// Command creates and returns the send command
func Command(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "send [study-id]",
		Short: "Submit a stored study for AI analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			studyID, err := ctx.ParseID(args[0])
			if err != nil {
				return err
			}
			a, err := ctx.Authenticated()
			if err != nil {
				return ctx.Fail(err, i18n.MsgSendFailed)
			}

			resp, err := a.Analyses.Send(cmd.Context(), studyID)
			if err != nil {
				return ctx.Fail(err, i18n.MsgSendFailed)
			}

			l := a.Localizer
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, l.T(i18n.MsgStudySent, studyID))
			if resp.Analysis != nil {
				fmt.Fprintf(out, "%s: %d (%s)\n", l.T(i18n.HeaderAnalysis), resp.Analysis.ID, l.AnalysisStatus(resp.Analysis.Status))
			}
			return nil
		},
	}
}
