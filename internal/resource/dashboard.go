// ABOUTME: Dashboard summary: headline metrics and the service sales series
// ABOUTME: Parses GET /admin/dashboard with gjson

package resource

import (
	"context"

	"github.com/tidwall/gjson"
)

// Metric is a headline figure with its day-over-day change
type Metric struct {
	Key    string
	Label  string
	Value  string
	Change string
}

// SalesPoint is one sample of the sales graph
type SalesPoint struct {
	Time  string
	Value float64
}

// Dashboard is the summary shown on the landing screen
type Dashboard struct {
	Metrics []Metric
	Sales   []SalesPoint
}

var dashboardMetrics = []struct{ key, label string }{
	{"total_customers", "Customers"},
	{"total_cleaners", "Cleaners"},
	{"total_bookings", "Bookings"},
	{"reported_users", "Reported users"},
}

// ParseDashboard reads the dashboard body. Missing metrics read as zero.
func ParseDashboard(body []byte) (Dashboard, error) {
	if !gjson.ValidBytes(body) {
		return Dashboard{}, ErrMalformed
	}
	root := gjson.ParseBytes(body)

	var d Dashboard
	for _, m := range dashboardMetrics {
		v := root.Get(m.key)
		metric := Metric{Key: m.key, Label: m.label, Value: "0", Change: "0%"}
		if val := v.Get("value"); val.Exists() && val.String() != "" {
			metric.Value = val.String()
		}
		if ch := v.Get("change_from_yesterday"); ch.Exists() && ch.String() != "" {
			metric.Change = ch.String()
		}
		d.Metrics = append(d.Metrics, metric)
	}
	for _, p := range root.Get("sales_graph").Array() {
		d.Sales = append(d.Sales, SalesPoint{
			Time:  p.Get("time").String(),
			Value: p.Get("service_sales").Float(),
		})
	}
	return d, nil
}

// LoadDashboard fetches and parses the dashboard
func LoadDashboard(ctx context.Context, f Fetcher) (Dashboard, error) {
	body, err := f.Fetch(ctx, "fetch dashboard data", "/admin/dashboard", nil)
	if err != nil {
		return Dashboard{}, err
	}
	return ParseDashboard(body)
}
