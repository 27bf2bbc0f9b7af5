// Package upload provides the upload command
package upload

import (
	"fmt"
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dentalscan/scanctl/internal/cli"
	"github.com/dentalscan/scanctl/internal/i18n"
	"github.com/dentalscan/scanctl/internal/model"
	"github.com/dentalscan/scanctl/internal/upload"
)

// Command creates and returns the upload command
func Command(ctx *cli.Context) *cobra.Command {
	var destination string

	cmd := &cobra.Command{
		Use:   "upload [scan.dcm]",
		Short: "Upload a DICOM file",
		Long:  `Upload sends one .dcm file to the backend. With --destination diagnocat the study is also submitted for AI analysis; orthanc only stores it in the local archive.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.Authenticated()
			if err != nil {
				return ctx.Fail(err, upload.MsgUploadFailed)
			}
			l := a.Localizer

			file, err := upload.FromPath(args[0])
			if err != nil {
				return ctx.Fail(err, upload.MsgUploadFailed)
			}

			progress := newProgressPrinter(cmd.ErrOrStderr(), l)
			result, err := a.Uploads.Submit(cmd.Context(), file, model.Destination(destination), progress.update)
			progress.done()
			if err != nil {
				return ctx.Fail(err, upload.MsgUploadFailed)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, l.Message(result.SuccessMessage()))
			if result.Study != nil {
				fmt.Fprintf(out, "%s: %d\n", l.T(i18n.HeaderID), result.Study.ID)
			}
			if result.Analysis != nil {
				fmt.Fprintf(out, "%s: %d (%s)\n", l.T(i18n.HeaderAnalysis), result.Analysis.ID, l.AnalysisStatus(result.Analysis.Status))
			}
			if result.RefreshErr != nil {
				fmt.Fprintln(cmd.ErrOrStderr(), l.Message(upload.MsgCollectionsOutdated))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&destination, "destination", string(model.DestinationDiagnocat), "Upload target: diagnocat (AI analysis) or orthanc (archive only)")

	return cmd
}

// progressPrinter redraws one status line on terminals and prints nothing otherwise
type progressPrinter struct {
	w    io.Writer
	l    *i18n.Localizer
	tty  bool
	last int
}

func newProgressPrinter(w io.Writer, l *i18n.Localizer) *progressPrinter {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
	}
	return &progressPrinter{w: w, l: l, tty: tty, last: -1}
}

func (p *progressPrinter) update(percent int) {
	if !p.tty || percent == p.last {
		return
	}
	p.last = percent
	fmt.Fprintf(p.w, "\r%s", p.l.T(i18n.MsgUploadProgress, percent))
}

func (p *progressPrinter) done() {
	if p.tty && p.last >= 0 {
		fmt.Fprintln(p.w)
	}
}
