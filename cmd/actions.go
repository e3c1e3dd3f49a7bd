// ABOUTME: Mutating commands: approve, reject, deactivate, reactivate, mark-read, and notify
// ABOUTME: Each runs one resource action as the signed-in admin

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/markalston/cleanops-admin/internal/client"
	"github.com/markalston/cleanops-admin/internal/resource"
	"github.com/markalston/cleanops-admin/internal/validation"
)

var (
	rejectReason string
	notifyTitle  string
	notifyBody   string
	notifyAt     string
)

var approveCmd = &cobra.Command{
	Use:   "approve <withdrawals|requests> <id>",
	Short: "Approve a withdrawal or a provider request",
	Args:  cobra.ExactArgs(2),
	Run: run(func(ctx context.Context, w io.Writer, args []string) int {
		return runAction(ctx, w, args[0], resource.ActionRequest{Action: resource.ActionApprove, ID: args[1]})
	}),
}

var rejectCmd = &cobra.Command{
	Use:   "reject <withdrawals|requests> <id>",
	Short: "Reject a withdrawal or a provider request with a reason",
	Args:  cobra.ExactArgs(2),
	Run: run(func(ctx context.Context, w io.Writer, args []string) int {
		return runAction(ctx, w, args[0], resource.ActionRequest{Action: resource.ActionReject, ID: args[1], Reason: strings.TrimSpace(rejectReason)})
	}),
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate <user-id>",
	Short: "Deactivate a user account",
	Args:  cobra.ExactArgs(1),
	Run: run(func(ctx context.Context, w io.Writer, args []string) int {
		return runAction(ctx, w, string(resource.KindUsers), resource.ActionRequest{Action: resource.ActionDeactivate, ID: args[0]})
	}),
}

var reactivateCmd = &cobra.Command{
	Use:   "reactivate <user-id>",
	Short: "Reactivate a deactivated user account",
	Args:  cobra.ExactArgs(1),
	Run: run(func(ctx context.Context, w io.Writer, args []string) int {
		return runAction(ctx, w, string(resource.KindUsers), resource.ActionRequest{Action: resource.ActionReactivate, ID: args[0]})
	}),
}

var markReadCmd = &cobra.Command{
	Use:   "mark-read <reports|issues> <id>",
	Short: "Mark a report or an issue as read",
	Args:  cobra.ExactArgs(2),
	Run: run(func(ctx context.Context, w io.Writer, args []string) int {
		return runAction(ctx, w, args[0], resource.ActionRequest{Action: resource.ActionMarkRead, ID: args[1]})
	}),
}

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Schedule a notification for all users",
	Long: `Schedule a broadcast notification.

--at takes RFC 3339 ("2026-12-24T09:00:00+01:00") or local "2006-01-02 15:04";
the default is now.`,
	Args: cobra.NoArgs,
	Run:  run(func(ctx context.Context, w io.Writer, _ []string) int { return runNotify(ctx, w, time.Now()) }),
}

func init() {
	rootCmd.AddCommand(approveCmd, rejectCmd, deactivateCmd, reactivateCmd, markReadCmd, notifyCmd)
	rejectCmd.Flags().StringVarP(&rejectReason, "reason", "r", "", "Reason sent to the provider (required)")
	notifyCmd.Flags().StringVarP(&notifyTitle, "title", "t", "", "Notification title (required)")
	notifyCmd.Flags().StringVarP(&notifyBody, "body", "b", "", "Notification message (required)")
	notifyCmd.Flags().StringVar(&notifyAt, "at", "", "Delivery time (default: now)")
}

// runAction performs one action on the named resource and returns exit code
func runAction(ctx context.Context, w io.Writer, name string, req resource.ActionRequest) int {
	d, err := resource.Lookup(name)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	if !d.Supports(req.Action) {
		fmt.Fprintf(w, "Error: %s cannot be used with %s\n", req.Action, d.Kind)
		return exitError
	}
	return withEnv(ctx, w, func(ctx context.Context, e *env) int {
		if !requireSession(w, e) {
			return exitRejected
		}
		msg, err := resource.Perform(ctx, e.client, d, req)
		if err != nil {
			return actionFailure(ctx, w, err)
		}
		e.logger.Info("admin action performed", "resource", d.Kind, "action", req.Action, "id", req.ID)
		printMessage(w, msg)
		return exitOK
	})
}

// runNotify schedules a notification and returns exit code
func runNotify(ctx context.Context, w io.Writer, now time.Time) int {
	at := now
	if notifyAt != "" {
		parsed, err := parseTime(notifyAt)
		if err != nil {
			fmt.Fprintf(w, "Error: invalid --at: %v\n", err)
			return exitError
		}
		at = parsed
	}
	n := client.NewNotification(strings.TrimSpace(notifyTitle), strings.TrimSpace(notifyBody), at)
	return runAction(ctx, w, string(resource.KindNotifications), resource.ActionRequest{Action: resource.ActionSend, Notification: n})
}

// parseTime accepts RFC 3339 or a local date and time
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02 15:04", s, time.Local)
}

// actionFailure reports input problems as errors without contacting the backend
func actionFailure(ctx context.Context, w io.Writer, err error) int {
	var verr *validation.Error
	if errors.As(err, &verr) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	return apiFailure(ctx, w, err)
}

// printMessage reports a backend confirmation
func printMessage(w io.Writer, msg string) {
	if IsJSONOutput() {
		printJSON(w, map[string]any{"success": true, "message": msg})
		return
	}
	fmt.Fprintln(w, msg)
}
