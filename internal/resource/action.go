// ABOUTME: Mutating actions and detail views over admin resources
// ABOUTME: Validates input, then dispatches to the matching API client call

package resource

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/markalston/cleanops-admin/internal/client"
	"github.com/markalston/cleanops-admin/internal/validation"
)

// ErrUnsupportedAction reports an action the resource does not offer
var ErrUnsupportedAction = errors.New("action not supported for this resource")

// API is the part of the admin client used by actions; *client.Client implements it
type API interface {
	Fetcher
	SetUserStatus(ctx context.Context, userID string, active bool) (*client.MessageResponse, error)
	ApproveWithdrawal(ctx context.Context, id string) (*client.MessageResponse, error)
	RejectWithdrawal(ctx context.Context, id, reason string) (*client.MessageResponse, error)
	ApproveRequest(ctx context.Context, id string) (*client.MessageResponse, error)
	RejectRequest(ctx context.Context, id, reason string) (*client.MessageResponse, error)
	MarkReportRead(ctx context.Context, id string) (*client.MessageResponse, error)
	MarkIssueRead(ctx context.Context, id string) (*client.MessageResponse, error)
	SendNotification(ctx context.Context, n client.Notification) (*client.MessageResponse, error)
}

// ActionRequest selects an action and its arguments
type ActionRequest struct {
	Action       Action
	ID           string
	Reason       string
	Notification client.Notification
}

// Perform runs an action on a resource and returns the backend's message
func Perform(ctx context.Context, api API, d Descriptor, req ActionRequest) (string, error) {
	if !d.Supports(req.Action) {
		return "", fmt.Errorf("%s %s: %w", req.Action, d.Kind, ErrUnsupportedAction)
	}

	if req.Action == ActionSend {
		n := req.Notification
		if err := validation.Validate(validation.NotificationInput{Title: n.Title, Body: n.Body}); err != nil {
			return "", err
		}
		return message(api.SendNotification(ctx, n))
	}

	if req.Action == ActionReject {
		if err := validation.Validate(validation.RejectInput{ID: req.ID, Reason: req.Reason}); err != nil {
			return "", err
		}
	} else if req.ID == "" {
		return "", fmt.Errorf("%s %s: id is required", req.Action, d.Kind)
	}

	switch d.Kind {
	case KindUsers:
		return message(api.SetUserStatus(ctx, req.ID, req.Action == ActionReactivate))
	case KindWithdrawals:
		if req.Action == ActionApprove {
			return message(api.ApproveWithdrawal(ctx, req.ID))
		}
		return message(api.RejectWithdrawal(ctx, req.ID, req.Reason))
	case KindRequests:
		if req.Action == ActionApprove {
			return message(api.ApproveRequest(ctx, req.ID))
		}
		return message(api.RejectRequest(ctx, req.ID, req.Reason))
	case KindReports:
		return message(api.MarkReportRead(ctx, req.ID))
	case KindIssues:
		return message(api.MarkIssueRead(ctx, req.ID))
	}
	return "", fmt.Errorf("%s %s: %w", req.Action, d.Kind, ErrUnsupportedAction)
}

func message(resp *client.MessageResponse, err error) (string, error) {
	if err != nil {
		return "", err
	}
	if resp == nil || resp.Message == "" {
		return "Done", nil
	}
	return resp.Message, nil
}

// Detail fetches one record's detail view. The page selects the page of
// any nested lists the backend paginates.
func Detail(ctx context.Context, f Fetcher, d Descriptor, id string, page int) (Record, error) {
	if !d.HasDetail() {
		return Record{}, fmt.Errorf("%s has no detail view", d.Kind)
	}
	if id == "" {
		return Record{}, fmt.Errorf("%s detail: id is required", d.Kind)
	}
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	body, err := f.Fetch(ctx, "fetch "+string(d.Kind)+" details", fmt.Sprintf(d.DetailPath, url.PathEscape(id)), q)
	if err != nil {
		return Record{}, err
	}
	r := NewRecord(string(body))
	if !r.raw.IsObject() {
		return Record{}, ErrMalformed
	}
	return r, nil
}

// ProviderDetail fetches /admin/provider-details/{id}; it serves both
// provider requests and provider users.
func ProviderDetail(ctx context.Context, f Fetcher, id string, page int) (Record, error) {
	return Detail(ctx, f, MustLookup(KindRequests), id, page)
}
