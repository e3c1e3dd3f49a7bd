// ABOUTME: Descriptors for the admin resources listed by the dashboard
// ABOUTME: Each names its endpoint, list location, summary stats, columns, and actions

package resource

import (
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

// Kind names a resource collection
type Kind string

const (
	KindUsers         Kind = "users"
	KindTransactions  Kind = "transactions"
	KindWithdrawals   Kind = "withdrawals"
	KindRequests      Kind = "requests"
	KindNotifications Kind = "notifications"
	KindReports       Kind = "reports"
	KindIssues        Kind = "issues"
)

// Action is a mutation offered on a resource
type Action string

const (
	ActionDeactivate Action = "deactivate"
	ActionReactivate Action = "reactivate"
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
	ActionMarkRead   Action = "mark-read"
	ActionSend       Action = "send"
)

// Stat is a summary figure returned alongside a list
type Stat struct {
	Key   string
	Label string
}

// Column is a table column read from each record with a gjson path
type Column struct {
	Title  string
	Path   string
	Width  int
	Format func(gjson.Result) string
}

// Descriptor describes one resource collection
type Descriptor struct {
	Kind  Kind
	Title string
	Path  string
	// ListKey is the gjson path of the paginated list; empty means the body itself
	ListKey string
	IDPath  string
	Stats   []Stat
	Columns []Column
	Actions []Action
	// DetailPath is a format string taking the record ID; empty when there is no detail view
	DetailPath string
}

// Supports reports whether the descriptor offers action a
func (d Descriptor) Supports(a Action) bool {
	for _, have := range d.Actions {
		if have == a {
			return true
		}
	}
	return false
}

// HasDetail reports whether records can be opened individually
func (d Descriptor) HasDetail() bool {
	return d.DetailPath != ""
}

func yesNo(yes, no string) func(gjson.Result) string {
	return func(r gjson.Result) string {
		if r.Bool() {
			return yes
		}
		return no
	}
}

var descriptors = map[Kind]Descriptor{
	KindUsers: {
		Kind:    KindUsers,
		Title:   "Users",
		Path:    "/admin/users",
		ListKey: "users",
		IDPath:  "id",
		Stats: []Stat{
			{Key: "total_users", Label: "Total users"},
			{Key: "deactivated_users", Label: "Deactivated"},
		},
		Columns: []Column{
			{Title: "ID", Path: "id", Width: 6},
			{Title: "Name", Path: "name", Width: 22},
			{Title: "Email", Path: "email", Width: 28},
			{Title: "Role", Path: "role", Width: 10},
			{Title: "Phone", Path: "phone_number", Width: 14},
			{Title: "Joined", Path: "joined_date", Width: 12},
			{Title: "Status", Path: "is_deactivate", Width: 11, Format: yesNo("deactivated", "active")},
		},
		Actions:    []Action{ActionDeactivate, ActionReactivate},
		DetailPath: "/admin/user-details/%s",
	},
	KindTransactions: {
		Kind:    KindTransactions,
		Title:   "Transactions",
		Path:    "/admin/transactions",
		ListKey: "transactions",
		IDPath:  "transaction_id",
		Stats: []Stat{
			{Key: "total_revenue", Label: "Revenue"},
			{Key: "pending_amount", Label: "Pending"},
			{Key: "total_refunds", Label: "Refunds"},
			{Key: "processing_amount", Label: "Processing"},
		},
		Columns: []Column{
			{Title: "ID", Path: "transaction_id", Width: 12},
			{Title: "Customer", Path: "customer", Width: 20},
			{Title: "Email", Path: "email", Width: 26},
			{Title: "Type", Path: "type", Width: 10},
			{Title: "Amount", Path: "amount", Width: 10},
			{Title: "Status", Path: "status", Width: 10},
			{Title: "Date", Path: "date", Width: 12},
		},
	},
	KindWithdrawals: {
		Kind:   KindWithdrawals,
		Title:  "Withdrawals",
		Path:   "/admin/withdrawals",
		IDPath: "id",
		Columns: []Column{
			{Title: "ID", Path: "id", Width: 6},
			{Title: "Provider", Path: "user.name", Width: 22},
			{Title: "Email", Path: "user.email", Width: 26},
			{Title: "Amount", Path: "amount", Width: 10},
			{Title: "Status", Path: "status", Width: 10},
			{Title: "Requested", Path: "created_at", Width: 20},
		},
		Actions:    []Action{ActionApprove, ActionReject},
		DetailPath: "/admin/withdrawals/%s",
	},
	KindRequests: {
		Kind:    KindRequests,
		Title:   "Approval requests",
		Path:    "/admin/approval-requests",
		ListKey: "profile_requests",
		IDPath:  "id",
		Columns: []Column{
			{Title: "ID", Path: "id", Width: 6},
			{Title: "Name", Path: "name", Width: 22},
			{Title: "Email", Path: "email", Width: 26},
			{Title: "Role", Path: "role", Width: 10},
			{Title: "Phone", Path: "phone_number", Width: 14},
			{Title: "Approved", Path: "is_approved", Width: 9, Format: yesNo("yes", "no")},
		},
		Actions:    []Action{ActionApprove, ActionReject},
		DetailPath: "/admin/provider-details/%s",
	},
	KindNotifications: {
		Kind:    KindNotifications,
		Title:   "Notifications",
		Path:    "/admin/notifications",
		ListKey: "notifications",
		IDPath:  "notification_id",
		Stats: []Stat{
			{Key: "total_send_notifications", Label: "Sent"},
			{Key: "total_pending_notifications", Label: "Pending"},
			{Key: "total_recipients", Label: "Recipients"},
		},
		Columns: []Column{
			{Title: "ID", Path: "notification_id", Width: 6},
			{Title: "Title", Path: "title", Width: 24},
			{Title: "Body", Path: "body", Width: 34},
			{Title: "Date", Path: "date", Width: 12},
			{Title: "Time", Path: "time", Width: 9},
			{Title: "Status", Path: "status", Width: 10},
		},
		Actions: []Action{ActionSend},
	},
	KindReports: {
		Kind:   KindReports,
		Title:  "Reports",
		Path:   "/admin/reports",
		IDPath: "report_id",
		Columns: []Column{
			{Title: "ID", Path: "report_id", Width: 6},
			{Title: "Reporter", Path: "reporter.reporter_name", Width: 18},
			{Title: "Reported user", Path: "reportable.reported_user_name", Width: 18},
			{Title: "Reason", Path: "reason", Width: 30},
			{Title: "Date", Path: "date", Width: 12},
			{Title: "Read", Path: "is_marked", Width: 5, Format: yesNo("yes", "no")},
		},
		Actions: []Action{ActionMarkRead},
	},
	KindIssues: {
		Kind:   KindIssues,
		Title:  "Issues",
		Path:   "/admin/user/issues",
		IDPath: "issue_id",
		Columns: []Column{
			{Title: "ID", Path: "issue_id", Width: 6},
			{Title: "User", Path: "user.name", Width: 18},
			{Title: "Title", Path: "title", Width: 24},
			{Title: "Description", Path: "description", Width: 30},
			{Title: "Date", Path: "date", Width: 12},
			{Title: "Read", Path: "is_marked", Width: 5, Format: yesNo("yes", "no")},
		},
		Actions: []Action{ActionMarkRead},
	},
}

// Lookup returns the descriptor for a kind name
func Lookup(name string) (Descriptor, error) {
	d, ok := descriptors[Kind(strings.ToLower(strings.TrimSpace(name)))]
	if !ok {
		return Descriptor{}, fmt.Errorf("unknown resource %q (expected one of: %s)", name, strings.Join(Names(), ", "))
	}
	return d, nil
}

// MustLookup returns the descriptor for a known kind
func MustLookup(k Kind) Descriptor {
	d, ok := descriptors[k]
	if !ok {
		panic(fmt.Sprintf("resource: unknown kind %q", k))
	}
	return d
}

// All returns every descriptor in menu order
func All() []Descriptor {
	order := []Kind{KindUsers, KindRequests, KindTransactions, KindWithdrawals, KindNotifications, KindReports, KindIssues}
	out := make([]Descriptor, 0, len(order))
	for _, k := range order {
		out = append(out, descriptors[k])
	}
	return out
}

// Names returns the sorted kind names
func Names() []string {
	names := make([]string, 0, len(descriptors))
	for k := range descriptors {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return names
}
