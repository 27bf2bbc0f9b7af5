// Package report provides the report command
package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/dentalscan/scanctl/internal/cli"
	"github.com/dentalscan/scanctl/internal/i18n"
	"github.com/dentalscan/scanctl/internal/model"
	"github.com/dentalscan/scanctl/internal/report"
)

// Command creates and returns the report command
func Command(ctx *cli.Context) *cobra.Command {
	return &cobra.Command{
		Use:   "report [analysis-id]",
		Short: "Show the findings of a completed analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			analysisID, err := ctx.ParseID(args[0])
			if err != nil {
				return err
			}
			a, err := ctx.Authenticated()
			if err != nil {
				return ctx.Fail(err, i18n.MsgLoadAnalysesFailed)
			}

			if _, err := a.Analyses.List(cmd.Context()); err != nil {
				return ctx.Fail(err, i18n.MsgLoadAnalysesFailed)
			}

			l := a.Localizer
			analysis := find(a.Analyses.Snapshot(), analysisID)
			if analysis == nil {
				return cli.UserError(l.T(i18n.MsgAnalysisNotHeld, analysisID))
			}
			if analysis.Error != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), l.T(i18n.ReportError, analysis.Error))
			}
			if !analysis.Complete {
				return cli.UserError(l.T(i18n.MsgNotComplete, analysisID))
			}

			return Print(cmd.OutOrStdout(), l, analysis)
		},
	}
}

// Print writes the counters, the per-tooth breakdown and the artifact links
func Print(w io.Writer, l *i18n.Localizer, analysis *model.Analysis) error {
	summary := report.Summarize(analysis)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%s:\t%d\n", l.T(i18n.ReportAffectedTeeth), summary.AffectedTeeth)
	fmt.Fprintf(tw, "%s:\t%d\n", l.T(i18n.ReportPathologies), summary.TotalPathologies)
	fmt.Fprintf(tw, "%s:\t%d\n", l.T(i18n.ReportPeriodontal), summary.WithPeriodontalData)
	fmt.Fprintf(tw, "%s:\t%d\n", l.T(i18n.ReportComments), summary.WithComments)
	fmt.Fprintf(tw, "%s:\t%d\n", l.T(i18n.ReportConfirmed), summary.ConfirmedPathologies)
	fmt.Fprintf(tw, "%s:\t%d\n", l.T(i18n.ReportRejected), summary.RejectedPathologies)
	if err := tw.Flush(); err != nil {
		return err
	}

	for _, tooth := range report.Teeth(analysis) {
		fmt.Fprintf(w, "\n%s\n", l.T(i18n.ReportTooth, tooth.Number))
		for _, f := range tooth.Findings {
			fmt.Fprintf(w, "  #%d\t%s\n", f.AttributeID, l.Decision(f.Decision))
		}
		if tooth.HasPeriodontal {
			fmt.Fprintf(w, "  %s: %s\n", l.T(i18n.ReportPeriodontal), strings.Join(tooth.Roots, ", "))
		}
		if tooth.Comment != "" {
			fmt.Fprintf(w, "  %q\n", tooth.Comment)
		}
	}

	if links := report.Links(analysis); len(links) > 0 {
		fmt.Fprintln(w)
		for _, link := range links {
			fmt.Fprintf(w, "%s: %s\n", link.Kind, link.URL)
		}
	}
	return nil
}

func find(analyses []model.Analysis, id uint64) *model.Analysis {
	for i := range analyses {
		if analyses[i].ID == id {
			return &analyses[i]
		}
	}
	return nil
}
