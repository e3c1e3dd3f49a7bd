// ABOUTME: Authenticated admin resource endpoints
// ABOUTME: Raw GETs for listing plus the mutating actions exposed by the dashboard

package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Fetch performs an authenticated GET and returns the raw JSON body.
// Callers normalize the shape; see package resource.
func (c *Client) Fetch(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	return c.do(ctx, request{
		op:       op,
		method:   http.MethodGet,
		path:     path,
		query:    query,
		auth:     true,
		fallback: "Failed to " + op,
	})
}

// Act performs an authenticated POST and returns the backend's message
func (c *Client) Act(ctx context.Context, op, path string, body any) (*MessageResponse, error) {
	var out MessageResponse
	err := c.doJSON(ctx, request{
		op:       op,
		method:   http.MethodPost,
		path:     path,
		body:     body,
		auth:     true,
		fallback: "Failed to " + op,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetUserStatus deactivates or reactivates a user
func (c *Client) SetUserStatus(ctx context.Context, userID string, active bool) (*MessageResponse, error) {
	if active {
		return c.Act(ctx, "reactivate user", "/admin/reactive-user/"+url.PathEscape(userID), nil)
	}
	return c.Act(ctx, "deactivate user", "/admin/deactivate-user/"+url.PathEscape(userID), nil)
}

// reasonBody carries an optional rejection reason
type reasonBody struct {
	Reason string `json:"reason"`
}

// ApproveWithdrawal calls POST /admin/withdrawals/{id}/approve
func (c *Client) ApproveWithdrawal(ctx context.Context, id string) (*MessageResponse, error) {
	return c.Act(ctx, "approve withdrawal", "/admin/withdrawals/"+url.PathEscape(id)+"/approve", nil)
}

// RejectWithdrawal calls POST /admin/withdrawals/{id}/reject
func (c *Client) RejectWithdrawal(ctx context.Context, id, reason string) (*MessageResponse, error) {
	return c.Act(ctx, "reject withdrawal", "/admin/withdrawals/"+url.PathEscape(id)+"/reject", reasonBody{Reason: reason})
}

// ApproveRequest approves a provider profile request
func (c *Client) ApproveRequest(ctx context.Context, id string) (*MessageResponse, error) {
	return c.Act(ctx, "approve the request", "/admin/profile-approval-requests/"+url.PathEscape(id)+"/approve", nil)
}

// RejectRequest rejects a provider profile request
func (c *Client) RejectRequest(ctx context.Context, id, reason string) (*MessageResponse, error) {
	return c.Act(ctx, "reject the request", "/admin/profile-approval-requests/"+url.PathEscape(id)+"/reject", reasonBody{Reason: reason})
}

// MarkReportRead calls POST /admin/reports/{id}
func (c *Client) MarkReportRead(ctx context.Context, id string) (*MessageResponse, error) {
	return c.Act(ctx, "mark the report as read", "/admin/reports/"+url.PathEscape(id), nil)
}

// MarkIssueRead calls POST /admin/issues/{id}
func (c *Client) MarkIssueRead(ctx context.Context, id string) (*MessageResponse, error) {
	return c.Act(ctx, "mark issue as read", "/admin/issues/"+url.PathEscape(id), nil)
}

// Notification is the body of POST /admin/notifications
type Notification struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
}

// NewNotification stamps a notification with the given local time.
// The backend expects dd-mm-yyyy and a 24h clock.
func NewNotification(title, body string, at time.Time) Notification {
	return Notification{
		Title:    title,
		Body:     body,
		Date:     at.Format("02-01-2006"),
		Time:     at.Format("15:04:05"),
		Timezone: timezoneName(at),
	}
}

// timezoneName prefers the IANA name; "Local" is not meaningful to the backend
func timezoneName(at time.Time) string {
	name := at.Location().String()
	if name == "Local" || name == "" {
		abbr, offset := at.Zone()
		if abbr != "" {
			return abbr
		}
		minutes := (offset % 3600) / 60
		if minutes < 0 {
			minutes = -minutes
		}
		return fmt.Sprintf("UTC%+03d:%02d", offset/3600, minutes)
	}
	return name
}

// SendNotification calls POST /admin/notifications
func (c *Client) SendNotification(ctx context.Context, n Notification) (*MessageResponse, error) {
	return c.Act(ctx, "add notification", "/admin/notifications", n)
}
