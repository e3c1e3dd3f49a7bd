// ABOUTME: Tests for resource descriptors, normalization, collections, and actions
// ABOUTME: Uses an in-memory fetcher and a recording API fake

package resource_test

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"

	"github.com/markalston/cleanops-admin/internal/client"
	"github.com/markalston/cleanops-admin/internal/resource"
	"github.com/markalston/cleanops-admin/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockAPI records calls and serves canned bodies per page
type MockAPI struct {
	mu      sync.Mutex
	Bodies  map[string]string
	Err     error
	Queries []url.Values
	Paths   []string
	Calls   []string
}

func (m *MockAPI) Fetch(ctx context.Context, op, path string, query url.Values) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Paths = append(m.Paths, path)
	m.Queries = append(m.Queries, query)
	if m.Err != nil {
		return nil, m.Err
	}
	body, ok := m.Bodies[query.Get("page")]
	if !ok {
		body = m.Bodies[""]
	}
	return []byte(body), nil
}

func (m *MockAPI) record(call string) (*client.MessageResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls = append(m.Calls, call)
	return &client.MessageResponse{Message: "ok: " + call}, nil
}

func (m *MockAPI) SetUserStatus(ctx context.Context, id string, active bool) (*client.MessageResponse, error) {
	if active {
		return m.record("reactivate " + id)
	}
	return m.record("deactivate " + id)
}

func (m *MockAPI) ApproveWithdrawal(ctx context.Context, id string) (*client.MessageResponse, error) {
	return m.record("approve withdrawal " + id)
}

func (m *MockAPI) RejectWithdrawal(ctx context.Context, id, reason string) (*client.MessageResponse, error) {
	return m.record("reject withdrawal " + id + " " + reason)
}

func (m *MockAPI) ApproveRequest(ctx context.Context, id string) (*client.MessageResponse, error) {
	return m.record("approve request " + id)
}

func (m *MockAPI) RejectRequest(ctx context.Context, id, reason string) (*client.MessageResponse, error) {
	return m.record("reject request " + id + " " + reason)
}

func (m *MockAPI) MarkReportRead(ctx context.Context, id string) (*client.MessageResponse, error) {
	return m.record("read report " + id)
}

func (m *MockAPI) MarkIssueRead(ctx context.Context, id string) (*client.MessageResponse, error) {
	return m.record("read issue " + id)
}

func (m *MockAPI) SendNotification(ctx context.Context, n client.Notification) (*client.MessageResponse, error) {
	return m.record("send " + n.Title)
}

const usersPage1 = `{
	"total_users": 42,
	"deactivated_users": 3,
	"users": {
		"current_page": 1,
		"last_page": 2,
		"total": 3,
		"data": [
			{"id": 1, "name": "Ada", "email": "ada@example.com", "is_deactivate": false},
			{"id": 2, "name": "Bob", "email": "bob@example.com", "is_deactivate": true}
		]
	}
}`

const usersPage2 = `{
	"total_users": 42,
	"deactivated_users": 3,
	"users": {"current_page": 2, "last_page": 2, "total": 3, "data": [{"id": 3, "name": "Cy"}]}
}`

func TestNormalize_NestedList(t *testing.T) {
	page, err := resource.Normalize(resource.MustLookup(resource.KindUsers), []byte(usersPage1))
	require.NoError(t, err)

	require.Len(t, page.Items, 2)
	assert.Equal(t, "Ada", page.Items[0].Get("name"))
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 2, page.LastPage)
	assert.Equal(t, 3, page.Total)
	assert.True(t, page.HasNext())
	assert.False(t, page.HasPrev())
	assert.Equal(t, "42", page.Stats["total_users"])
	assert.Equal(t, "3", page.Stats["deactivated_users"])
}

func TestNormalize_TopLevelPaginator(t *testing.T) {
	body := `{"current_page": 3, "last_page": 5, "total": 41, "data": [{"report_id": 9, "reason": "spam", "is_marked": true}]}`

	page, err := resource.Normalize(resource.MustLookup(resource.KindReports), []byte(body))
	require.NoError(t, err)

	require.Len(t, page.Items, 1)
	assert.Equal(t, 3, page.CurrentPage)
	assert.Equal(t, 5, page.LastPage)
	assert.Equal(t, 41, page.Total)
}

func TestNormalize_BareArrayAndDefaults(t *testing.T) {
	page, err := resource.Normalize(resource.MustLookup(resource.KindWithdrawals), []byte(`[{"id": 1}, {"id": 2}]`))
	require.NoError(t, err)

	assert.Len(t, page.Items, 2)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 1, page.LastPage)
	assert.Equal(t, 2, page.Total)
}

func TestNormalize_MissingStatsReadZero(t *testing.T) {
	page, err := resource.Normalize(resource.MustLookup(resource.KindTransactions), []byte(`{"transactions": {"data": []}}`))
	require.NoError(t, err)

	assert.Empty(t, page.Items)
	assert.Equal(t, "0", page.Stats["total_revenue"])
	assert.Equal(t, "0", page.Stats["processing_amount"])
}

func TestNormalize_Malformed(t *testing.T) {
	_, err := resource.Normalize(resource.MustLookup(resource.KindUsers), []byte("<html>"))
	assert.ErrorIs(t, err, resource.ErrMalformed)
}

func TestRecord_Cell(t *testing.T) {
	d := resource.MustLookup(resource.KindUsers)
	r := resource.NewRecord(`{"name": "Ada", "is_deactivate": true, "phone_number": null}`)

	cells := map[string]string{}
	for _, c := range d.Columns {
		cells[c.Title] = r.Cell(c)
	}

	assert.Equal(t, "Ada", cells["Name"])
	assert.Equal(t, "deactivated", cells["Status"])
	assert.Equal(t, "-", cells["Phone"])
}

func TestCollection_Pagination(t *testing.T) {
	api := &MockAPI{Bodies: map[string]string{"1": usersPage1, "2": usersPage2}}
	c := resource.NewCollection(resource.MustLookup(resource.KindUsers), api, 10)
	ctx := context.Background()

	page, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, "10", api.Queries[0].Get("per_page"))
	assert.Equal(t, "/admin/users", api.Paths[0])

	page, err = c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Equal(t, "Cy", page.Items[0].Get("name"))

	page, err = c.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, page.CurrentPage)
	assert.Len(t, api.Queries, 2, "next on the last page should not fetch")

	page, err = c.Prev(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, page.CurrentPage)
	assert.False(t, c.Loading())
}

func TestCollection_SetSearchResetsPage(t *testing.T) {
	api := &MockAPI{Bodies: map[string]string{"1": usersPage1, "2": usersPage2}}
	c := resource.NewCollection(resource.MustLookup(resource.KindUsers), api, 10)
	ctx := context.Background()
	_, err := c.GoTo(ctx, 2)
	require.NoError(t, err)

	_, err = c.SetSearch(ctx, " ada ")
	require.NoError(t, err)

	last := api.Queries[len(api.Queries)-1]
	assert.Equal(t, "1", last.Get("page"))
	assert.Equal(t, "ada", last.Get("search"))
	assert.Equal(t, " ada ", c.Query().Search)
}

func TestCollection_ErrorKeepsLastPage(t *testing.T) {
	api := &MockAPI{Bodies: map[string]string{"1": usersPage1}}
	c := resource.NewCollection(resource.MustLookup(resource.KindUsers), api, 10)
	ctx := context.Background()
	_, err := c.Load(ctx)
	require.NoError(t, err)

	api.Err = client.ErrUnauthorized
	_, err = c.Next(ctx)

	assert.ErrorIs(t, err, client.ErrUnauthorized)
	assert.ErrorIs(t, c.Err(), client.ErrUnauthorized)
	assert.Equal(t, 1, c.Page().CurrentPage)
	assert.Equal(t, 1, c.Query().Page)
}

func TestCollection_NextBeforeFirstLoadDoesNotAdvance(t *testing.T) {
	api := &MockAPI{Err: client.ErrTransport}
	c := resource.NewCollection(resource.MustLookup(resource.KindUsers), api, 10)
	ctx := context.Background()

	_, err := c.Load(ctx)
	require.Error(t, err)
	_, err = c.Next(ctx)
	require.Error(t, err)
	_, err = c.Next(ctx)
	require.Error(t, err)

	var pages []string
	for _, q := range api.Queries {
		pages = append(pages, q.Get("page"))
	}
	assert.Equal(t, []string{"1", "1", "1"}, pages)
	assert.Equal(t, 1, c.Query().Page)
}

func TestCollection_FailedGoToBeforeFirstLoadResets(t *testing.T) {
	api := &MockAPI{Err: client.ErrTransport}
	c := resource.NewCollection(resource.MustLookup(resource.KindUsers), api, 10)

	_, err := c.GoTo(context.Background(), 4)

	require.Error(t, err)
	assert.Equal(t, "4", api.Queries[0].Get("page"))
	assert.Equal(t, 1, c.Query().Page)
}

func TestPerform_Dispatch(t *testing.T) {
	tests := []struct {
		kind resource.Kind
		req  resource.ActionRequest
		want string
	}{
		{resource.KindUsers, resource.ActionRequest{Action: resource.ActionDeactivate, ID: "7"}, "deactivate 7"},
		{resource.KindUsers, resource.ActionRequest{Action: resource.ActionReactivate, ID: "7"}, "reactivate 7"},
		{resource.KindWithdrawals, resource.ActionRequest{Action: resource.ActionApprove, ID: "3"}, "approve withdrawal 3"},
		{resource.KindWithdrawals, resource.ActionRequest{Action: resource.ActionReject, ID: "3", Reason: "dup"}, "reject withdrawal 3 dup"},
		{resource.KindRequests, resource.ActionRequest{Action: resource.ActionApprove, ID: "5"}, "approve request 5"},
		{resource.KindRequests, resource.ActionRequest{Action: resource.ActionReject, ID: "5", Reason: "docs"}, "reject request 5 docs"},
		{resource.KindReports, resource.ActionRequest{Action: resource.ActionMarkRead, ID: "9"}, "read report 9"},
		{resource.KindIssues, resource.ActionRequest{Action: resource.ActionMarkRead, ID: "4"}, "read issue 4"},
		{resource.KindNotifications, resource.ActionRequest{Action: resource.ActionSend, Notification: client.Notification{Title: "Hi", Body: "There"}}, "send Hi"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			api := &MockAPI{}
			msg, err := resource.Perform(context.Background(), api, resource.MustLookup(tt.kind), tt.req)
			require.NoError(t, err)
			assert.Equal(t, "ok: "+tt.want, msg)
			assert.Equal(t, []string{tt.want}, api.Calls)
		})
	}
}

func TestPerform_Rejections(t *testing.T) {
	api := &MockAPI{}
	ctx := context.Background()

	_, err := resource.Perform(ctx, api, resource.MustLookup(resource.KindTransactions), resource.ActionRequest{Action: resource.ActionApprove, ID: "1"})
	assert.ErrorIs(t, err, resource.ErrUnsupportedAction)

	_, err = resource.Perform(ctx, api, resource.MustLookup(resource.KindWithdrawals), resource.ActionRequest{Action: resource.ActionReject, ID: "1"})
	var ve *validation.Error
	assert.True(t, errors.As(err, &ve))

	_, err = resource.Perform(ctx, api, resource.MustLookup(resource.KindNotifications), resource.ActionRequest{Action: resource.ActionSend})
	assert.True(t, errors.As(err, &ve))

	_, err = resource.Perform(ctx, api, resource.MustLookup(resource.KindReports), resource.ActionRequest{Action: resource.ActionMarkRead})
	assert.Error(t, err)

	assert.Empty(t, api.Calls)
}

func TestDetail(t *testing.T) {
	api := &MockAPI{Bodies: map[string]string{"2": `{"user": {"name": "Ada"}, "requests": {"private": {"current_page": 2}}}`}}

	r, err := resource.Detail(context.Background(), api, resource.MustLookup(resource.KindUsers), "u-1", 2)
	require.NoError(t, err)

	assert.Equal(t, "/admin/user-details/u-1", api.Paths[0])
	assert.Equal(t, "Ada", r.Get("user.name"))

	_, err = resource.Detail(context.Background(), api, resource.MustLookup(resource.KindReports), "1", 0)
	assert.Error(t, err)
}

func TestProviderDetail(t *testing.T) {
	api := &MockAPI{Bodies: map[string]string{"": `{"cleaner_id": 12}`}}

	r, err := resource.ProviderDetail(context.Background(), api, "12", 0)
	require.NoError(t, err)

	assert.Equal(t, "/admin/provider-details/12", api.Paths[0])
	assert.Equal(t, "12", r.Get("cleaner_id"))
}

func TestParseDashboard(t *testing.T) {
	body := `{
		"total_customers": {"value": 120, "change_from_yesterday": "+4%"},
		"total_bookings": {"value": "33"},
		"sales_graph": [{"time": "09:00", "service_sales": 12.5}, {"time": "10:00", "service_sales": 20}]
	}`

	d, err := resource.ParseDashboard([]byte(body))
	require.NoError(t, err)

	require.Len(t, d.Metrics, 4)
	assert.Equal(t, "120", d.Metrics[0].Value)
	assert.Equal(t, "+4%", d.Metrics[0].Change)
	assert.Equal(t, "0", d.Metrics[1].Value)
	assert.Equal(t, "33", d.Metrics[2].Value)
	assert.Equal(t, "0%", d.Metrics[2].Change)
	require.Len(t, d.Sales, 2)
	assert.Equal(t, 20.0, d.Sales[1].Value)
}

func TestLookup(t *testing.T) {
	d, err := resource.Lookup("Users")
	require.NoError(t, err)
	assert.Equal(t, resource.KindUsers, d.Kind)

	_, err = resource.Lookup("bookings")
	assert.ErrorContains(t, err, "unknown resource")
	assert.Len(t, resource.All(), 7)
}
