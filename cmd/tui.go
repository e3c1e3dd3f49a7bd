// ABOUTME: Interactive dashboard command
// ABOUTME: Starts the bubbletea TUI over the shared session manager

package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/markalston/cleanops-admin/internal/config"
	"github.com/markalston/cleanops-admin/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive dashboard",
	Long: `Open the full-screen dashboard: sign in, browse every resource, and
act on pending requests, withdrawals, reports, and issues.

Logs go to the log file so they do not disturb the screen.`,
	Args: cobra.NoArgs,
	Run:  run(func(ctx context.Context, w io.Writer, _ []string) int { return runTUI(ctx, w) }),
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

// runTUI runs the dashboard until the admin quits and returns exit code
func runTUI(ctx context.Context, w io.Writer) int {
	return withEnv(ctx, w, func(ctx context.Context, e *env) int {
		if e.cfg.LogPath() == config.StderrLogFile {
			e.logger.Warn("logging to stderr while the TUI is running")
		}
		err := tui.Run(e.session, e.client, tui.Options{
			PageSize: e.cfg.PageSize,
			Timeout:  e.cfg.RequestTimeout,
		})
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitError
		}
		return exitOK
	})
}
