// Package refresh provides the refresh command
package refresh

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dentalscan/scanctl/internal/cli"
	"github.com/dentalscan/scanctl/internal/i18n"
	"github.com/dentalscan/scanctl/internal/model"
)

// Command creates and returns the refresh command
func Command(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh [analysis-id]",
		Short: "Re-read one analysis from the AI service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysisID, err := ctx.ParseID(args[0])
			if err != nil {
				return err
			}
			a, err := ctx.Authenticated()
			if err != nil {
				return ctx.Fail(err, i18n.MsgRefreshFailed)
			}

			analysis, err := a.Analyses.Refresh(cmd.Context(), analysisID)
			if err != nil {
				return ctx.Fail(err, i18n.MsgRefreshFailed)
			}

			fmt.Fprintln(cmd.OutOrStdout(), StatusLine(a.Localizer, &analysis))
			return nil
		},
	}
}

// StatusLine summarizes where an analysis stands
func StatusLine(l *i18n.Localizer, analysis *model.Analysis) string {
	switch {
	case analysis.Complete:
		return l.T(i18n.MsgAnalysisComplete, analysis.ID)
	case analysis.Status == model.AnalysisFailed:
		return l.T(i18n.MsgAnalysisFailed, analysis.ID)
	default:
		return l.T(i18n.MsgAnalysisPending, analysis.ID)
	}
}
