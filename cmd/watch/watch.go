// Package watch provides the watch command
package watch

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dentalscan/scanctl/cmd/refresh"
	"github.com/dentalscan/scanctl/internal/cli"
	"github.com/dentalscan/scanctl/internal/errors"
	"github.com/dentalscan/scanctl/internal/i18n"
	"github.com/dentalscan/scanctl/internal/model"
)

// Command creates and returns the watch command
func Command(ctx *cli.Context) *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Refresh incomplete analyses until they finish",
		Long:  `Watch refreshes every analysis that is neither complete nor failed, one request at a time at the configured poll interval, and exits when none is left or on Ctrl-C.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.Authenticated()
			if err != nil {
				return ctx.Fail(err, i18n.MsgRefreshFailed)
			}
			l := a.Localizer
			out := cmd.OutOrStdout()

			runCtx := cmd.Context()
			if timeout > 0 {
				var cancel context.CancelFunc
				runCtx, cancel = context.WithTimeout(runCtx, timeout)
				defer cancel()
			}

			p := a.Poller(func(analysis model.Analysis, err error) {
				if err != nil {
					fmt.Fprintf(out, "#%d: %s\n", analysis.ID, l.Message(errors.DisplayMessage(err, l.T(i18n.MsgRefreshFailed))))
					return
				}
				fmt.Fprintln(out, refresh.StatusLine(l, &analysis))
			})

			err = p.Run(runCtx)
			switch {
			case err == nil:
				fmt.Fprintln(out, l.T(i18n.MsgWatchDone))
				return nil
			case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded),
				errors.IsCategory(err, errors.CategoryCancellation):
				// stopped by the user or --timeout
				if n := p.Pending(); n > 0 {
					fmt.Fprintln(out, l.T(i18n.MsgWatching, n))
				}
				return nil
			default:
				return ctx.Fail(err, i18n.MsgRefreshFailed)
			}
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Stop watching after this long (0 waits until done)")

	return cmd
}
