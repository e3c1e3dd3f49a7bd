// ABOUTME: Tests for dashboard component
// ABOUTME: Validates metric blocks, the sales trend, and pending work lists

package dashboard

import (
	"strings"
	"testing"

	"github.com/markalston/cleanops-admin/internal/resource"
)

func sampleData(t *testing.T) *Data {
	t.Helper()
	summary, err := resource.ParseDashboard([]byte(`{
		"total_customers": {"value": 120, "change_from_yesterday": "+4%"},
		"total_cleaners": {"value": 35, "change_from_yesterday": "0%"},
		"total_bookings": {"value": 410, "change_from_yesterday": "-2%"},
		"reported_users": {"value": 3, "change_from_yesterday": "+1%"},
		"sales_graph": [{"time": "08:00", "service_sales": 10}, {"time": "18:00", "service_sales": 40}]
	}`))
	if err != nil {
		t.Fatalf("ParseDashboard: %v", err)
	}
	requests, err := resource.Normalize(resource.MustLookup(resource.KindRequests),
		[]byte(`{"profile_requests": {"current_page": 1, "last_page": 1, "total": 1, "data": [{"id": 7, "name": "Hana Sato", "email": "hana@example.com"}]}}`))
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	return &Data{Summary: summary, Requests: requests}
}

func TestDashboardView(t *testing.T) {
	d := New(sampleData(t), 120, 40)
	view := d.View()

	for _, expected := range []string{
		"Customers",
		"120",
		"Reported users",
		"Service sales",
		"08:00",
		"Hana Sato",
		"Pending approval requests (1)",
		"Nothing waiting",
	} {
		if !strings.Contains(view, expected) {
			t.Errorf("expected view to contain %q\nView:\n%s", expected, view)
		}
	}
}

func TestDashboardNilData(t *testing.T) {
	d := New(nil, 80, 24)

	if !strings.Contains(d.View(), "Loading") {
		t.Error("expected loading message when data is nil")
	}
}

func TestDashboardUpdate(t *testing.T) {
	d := New(nil, 120, 40)
	d.Update(sampleData(t))

	if strings.Contains(d.View(), "Loading") {
		t.Error("should not show loading after update")
	}
}

func TestDashboardNarrowWraps(t *testing.T) {
	d := New(sampleData(t), 50, 40)
	wide := New(sampleData(t), 120, 40)

	if strings.Count(d.View(), "\n") <= strings.Count(wide.View(), "\n") {
		t.Error("expected narrow layout to use more lines than the wide one")
	}
}
