// Package studies provides the studies command
package studies

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dentalscan/scanctl/internal/app"
	"github.com/dentalscan/scanctl/internal/cli"
	"github.com/dentalscan/scanctl/internal/i18n"
	"github.com/dentalscan/scanctl/internal/logger"
	"github.com/dentalscan/scanctl/internal/reconcile"
	"github.com/dentalscan/scanctl/internal/report"
)

const timeLayout = "2006-01-02 15:04"

// Command creates and returns the studies command
func Command(ctx *cli.Context) *cobra.Command {
	var showAnomalies bool

	cmd := &cobra.Command{
		Use:   "studies",
		Short: "List studies with their analysis state and next action",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.Authenticated()
			if err != nil {
				return ctx.Fail(err, i18n.MsgLoadStudiesFailed)
			}

			g, gctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				_, err := a.Studies.List(gctx)
				return err
			})
			g.Go(func() error {
				_, err := a.Analyses.List(gctx)
				return err
			})
			if err := g.Wait(); err != nil {
				return ctx.Fail(err, i18n.MsgLoadStudiesFailed)
			}

			studies := a.Studies.Snapshot()
			analyses := a.Analyses.Snapshot()

			anomalies := reconcile.Anomalies(studies, analyses)
			logAnomalies(a, anomalies)

			out := cmd.OutOrStdout()
			if len(studies) == 0 {
				fmt.Fprintln(out, a.Localizer.T(i18n.MsgNoStudies))
			} else if err := printRows(out, a, reconcile.BuildRows(studies, analyses, a.Analyses)); err != nil {
				return err
			}

			if showAnomalies {
				printAnomalies(out, a.Localizer, anomalies)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showAnomalies, "anomalies", false, "Also list studies with several analyses and analyses without a study")

	return cmd
}

func printRows(w io.Writer, a *app.App, rows []reconcile.Row) error {
	l := a.Localizer
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		l.T(i18n.HeaderID), l.T(i18n.HeaderDescription), l.T(i18n.HeaderStatus), l.T(i18n.HeaderSize),
		l.T(i18n.HeaderUploaded), l.T(i18n.HeaderAnalysis), l.T(i18n.HeaderActions), l.T(i18n.HeaderViewer))

	for i := range rows {
		row := &rows[i]
		description := row.Study.Description
		if description == "" {
			description = l.T(i18n.MsgUntitled)
		}

		analysis := "-"
		if row.Analysis != nil {
			analysis = fmt.Sprintf("#%d %s", row.Analysis.ID, l.AnalysisStatus(row.Analysis.Status))
		}

		action := l.Action(row.Action.Kind)
		if row.Pending {
			action += "..."
		}
		if action == "" {
			action = "-"
		}

		viewer := report.ViewerURL(a.Settings.Viewer.BaseURL, &row.Study)
		if viewer == "" {
			viewer = "-"
		}

		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			row.Study.ID, description, l.StudyStatus(row.Study.Status), l.FileSize(row.Study.FileSize),
			row.Study.CreatedAt.Local().Format(timeLayout), analysis, action, viewer)
	}

	return tw.Flush()
}

func logAnomalies(a *app.App, r reconcile.Report) {
	for studyID, ids := range r.MultipleAnalyses {
		a.Log.Warn("study has several analyses",
			logger.Uint64("study_id", studyID),
			logger.Int("count", len(ids)),
			logger.Uint64("shown_analysis_id", ids[0]))
	}
	for _, id := range r.Orphans {
		a.Log.Warn("analysis refers to an unknown study", logger.Uint64("analysis_id", id))
	}
}

func printAnomalies(w io.Writer, l *i18n.Localizer, r reconcile.Report) {
	for _, studyID := range slices.Sorted(maps.Keys(r.MultipleAnalyses)) {
		ids := r.MultipleAnalyses[studyID]
		fmt.Fprintln(w, l.T(i18n.MsgAnomalyMultiple, studyID, len(ids), ids[0]))
	}
	for _, id := range r.Orphans {
		fmt.Fprintln(w, l.T(i18n.MsgAnomalyOrphan, id))
	}
}
