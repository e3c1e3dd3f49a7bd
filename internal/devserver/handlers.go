// ABOUTME: Resource handlers of the dev server
// ABOUTME: Paginated listings, detail views, and the admin actions over the seeded dataset

package devserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/markalston/cleanops-admin/internal/client"
	"github.com/markalston/cleanops-admin/internal/validation"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

func queryInt(r *http.Request, key string, def int) int {
	v, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || v < 1 {
		return def
	}
	return v
}

// paginate returns a Laravel-style paginator over items
func paginate(r *http.Request, items []record) map[string]any {
	perPage := queryInt(r, "per_page", defaultPerPage)
	if perPage > maxPerPage {
		perPage = maxPerPage
	}
	lastPage := (len(items) + perPage - 1) / perPage
	if lastPage < 1 {
		lastPage = 1
	}
	page := queryInt(r, "page", 1)
	if page > lastPage {
		page = lastPage
	}

	start := (page - 1) * perPage
	end := start + perPage
	if end > len(items) {
		end = len(items)
	}
	data := make([]record, 0, end-start)
	for _, it := range items[start:end] {
		data = append(data, copyRecord(it))
	}
	return map[string]any{
		"current_page": page,
		"last_page":    lastPage,
		"per_page":     perPage,
		"total":        len(items),
		"data":         data,
	}
}

func copyRecord(in record) record {
	out := make(record, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// search keeps records whose given fields contain the search term
func search(r *http.Request, items []record, fields ...string) []record {
	term := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("search")))
	if term == "" {
		return items
	}
	var out []record
	for _, it := range items {
		for _, f := range fields {
			if s, ok := it[f].(string); ok && strings.Contains(strings.ToLower(s), term) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

func findByID(items []record, key, id string) (record, bool) {
	for _, it := range items {
		if fmt.Sprint(it[key]) == id {
			return it, true
		}
	}
	return nil, false
}

// Dashboard handles GET /admin/dashboard
func (s *Server) Dashboard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	customers, cleaners := 0, 0
	for _, u := range s.data.users {
		if u["role"] == "cleaner" {
			cleaners++
		} else {
			customers++
		}
	}
	reported := map[string]bool{}
	for _, rep := range s.data.reports {
		if target, ok := rep["reportable"].(record); ok {
			reported[fmt.Sprint(target["reported_user_email"])] = true
		}
	}

	var sales []map[string]any
	for h := 8; h <= 18; h += 2 {
		sales = append(sales, map[string]any{
			"time":          fmt.Sprintf("%02d:00", h),
			"service_sales": float64(h*37%200) + 40.5,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"total_customers": map[string]any{"value": customers, "change_from_yesterday": "+2%"},
		"total_cleaners":  map[string]any{"value": cleaners, "change_from_yesterday": "0%"},
		"total_bookings":  map[string]any{"value": len(s.data.transactions), "change_from_yesterday": "+5%"},
		"reported_users":  map[string]any{"value": len(reported), "change_from_yesterday": "-1%"},
		"sales_graph":     sales,
	})
}

// ListUsers handles GET /admin/users
func (s *Server) ListUsers(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deactivated := 0
	for _, u := range s.data.users {
		if u["is_deactivate"] == true {
			deactivated++
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_users":       len(s.data.users),
		"deactivated_users": deactivated,
		"users":             paginate(r, search(r, s.data.users, "name", "email", "phone_number")),
	})
}

// UserDetails handles GET /admin/user-details/{id}
func (s *Server) UserDetails(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := findByID(s.data.users, "id", chi.URLParam(r, "id"))
	if !ok {
		u, ok = findByID(s.data.users, "uid", chi.URLParam(r, "id"))
	}
	if !ok {
		writeError(w, "User not found", http.StatusNotFound)
		return
	}
	var bookings []record
	for _, t := range s.data.transactions {
		if t["email"] == u["email"] {
			bookings = append(bookings, t)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"user":     copyRecord(u),
		"requests": map[string]any{"private": paginate(r, bookings), "broadcast_requests": paginate(r, nil)},
	})
}

func (s *Server) setUserStatus(active bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		u, ok := findByID(s.data.users, "id", chi.URLParam(r, "id"))
		if !ok {
			writeError(w, "User not found", http.StatusNotFound)
			return
		}
		u["is_deactivate"] = !active
		if active {
			writeMessage(w, "User reactivated successfully")
			return
		}
		writeMessage(w, "User deactivated successfully")
	}
}

// ListTransactions handles GET /admin/transactions
func (s *Server) ListTransactions(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	totals := map[string]int{}
	for _, t := range s.data.transactions {
		cents := parseCents(fmt.Sprint(t["amount"]))
		switch t["status"] {
		case "completed":
			totals["total_revenue"] += cents
		case "pending":
			totals["pending_amount"] += cents
		case "refunded":
			totals["total_refunds"] += cents
		case "processing":
			totals["processing_amount"] += cents
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_revenue":     money(totals["total_revenue"]),
		"pending_amount":    money(totals["pending_amount"]),
		"total_refunds":     money(totals["total_refunds"]),
		"processing_amount": money(totals["processing_amount"]),
		"transactions":      paginate(r, search(r, s.data.transactions, "transaction_id", "customer", "email")),
	})
}

func parseCents(amount string) int {
	whole, frac, _ := strings.Cut(amount, ".")
	w, _ := strconv.Atoi(whole)
	f, _ := strconv.Atoi((frac + "00")[:2])
	return w*100 + f
}

// ListWithdrawals handles GET /admin/withdrawals
func (s *Server) ListWithdrawals(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, paginate(r, s.data.withdrawals))
}

// WithdrawalDetails handles GET /admin/withdrawals/{id}
func (s *Server) WithdrawalDetails(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wd, ok := findByID(s.data.withdrawals, "id", chi.URLParam(r, "id"))
	if !ok {
		writeError(w, "Withdrawal not found", http.StatusNotFound)
		return
	}
	payouts, _ := wd["payouts"].([]record)
	out := copyRecord(wd)
	delete(out, "payouts")
	out["payouts"] = paginate(r, payouts)
	writeJSON(w, http.StatusOK, out)
}

type reasonRequest struct {
	Reason string `json:"reason"`
}

func (s *Server) readReason(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req reasonRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	if err := validation.Validate(validation.RejectInput{ID: chi.URLParam(r, "id"), Reason: req.Reason}); err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return "", false
	}
	return req.Reason, true
}

func (s *Server) decideWithdrawal(approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reason := ""
		if !approve {
			var ok bool
			if reason, ok = s.readReason(w, r); !ok {
				return
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		wd, ok := findByID(s.data.withdrawals, "id", chi.URLParam(r, "id"))
		if !ok {
			writeError(w, "Withdrawal not found", http.StatusNotFound)
			return
		}
		if wd["status"] != "pending" {
			writeError(w, fmt.Sprintf("Withdrawal is already %s", wd["status"]), http.StatusConflict)
			return
		}
		if approve {
			wd["status"] = "approved"
			writeMessage(w, "Withdrawal approved successfully")
			return
		}
		wd["status"] = "rejected"
		wd["reason"] = reason
		writeMessage(w, "Withdrawal rejected successfully")
	}
}

// ListApprovalRequests handles GET /admin/approval-requests
func (s *Server) ListApprovalRequests(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pending []record
	for _, req := range s.data.requests {
		if req["status"] == "pending" {
			pending = append(pending, req)
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"profile_requests": paginate(r, search(r, pending, "name", "email")),
	})
}

// ProviderDetails handles GET /admin/provider-details/{id}
func (s *Server) ProviderDetails(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := findByID(s.data.requests, "cleaner_id", chi.URLParam(r, "id"))
	if !ok {
		writeError(w, "Provider not found", http.StatusNotFound)
		return
	}
	out := copyRecord(req)
	out["requests"] = map[string]any{
		"private_requests":   paginate(r, nil),
		"boradcast_requests": paginate(r, nil),
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) decideRequest(approve bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reason := ""
		if !approve {
			var ok bool
			if reason, ok = s.readReason(w, r); !ok {
				return
			}
		}

		s.mu.Lock()
		defer s.mu.Unlock()

		req, ok := findByID(s.data.requests, "id", chi.URLParam(r, "id"))
		if !ok {
			writeError(w, "Request not found", http.StatusNotFound)
			return
		}
		if req["status"] != "pending" {
			writeError(w, fmt.Sprintf("Request is already %s", req["status"]), http.StatusConflict)
			return
		}
		if approve {
			req["status"] = "approved"
			req["is_approved"] = true
			writeMessage(w, "Request approved successfully")
			return
		}
		req["status"] = "rejected"
		req["rejection_reason"] = reason
		writeMessage(w, "Request rejected successfully")
	}
}

// ListNotifications handles GET /admin/notifications
func (s *Server) ListNotifications(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sent, pending, recipients := 0, 0, 0
	for _, n := range s.data.notifications {
		if n["status"] == "sent" {
			sent++
		} else {
			pending++
		}
		if d, ok := n["delivered"].(int); ok {
			recipients += d
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total_send_notifications":    sent,
		"total_pending_notifications": pending,
		"total_recipients":            recipients,
		"notifications":               paginate(r, s.data.notifications),
	})
}

// SendNotification handles POST /admin/notifications
func (s *Server) SendNotification(w http.ResponseWriter, r *http.Request) {
	var n client.Notification
	if err := decode(r, &n); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.Validate(validation.NotificationInput{Title: n.Title, Body: n.Body}); err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if n.Date == "" || n.Time == "" {
		writeError(w, "date and time are required", http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.notifications = append([]record{{
		"notification_id": len(s.data.notifications) + 1,
		"title":           n.Title,
		"body":            n.Body,
		"date":            n.Date,
		"time":            n.Time,
		"timezone":        n.Timezone,
		"status":          "pending",
		"delivered":       0,
	}}, s.data.notifications...)
	writeMessage(w, "Notification scheduled successfully")
}

// ListReports handles GET /admin/reports
func (s *Server) ListReports(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, paginate(r, s.data.reports))
}

// ListIssues handles GET /admin/user/issues
func (s *Server) ListIssues(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, http.StatusOK, paginate(r, s.data.issues))
}

type moderationKind int

const (
	kindReport moderationKind = iota
	kindIssue
)

func (s *Server) markRead(kind moderationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		items, key, name := s.data.reports, "report_id", "Report"
		if kind == kindIssue {
			items, key, name = s.data.issues, "issue_id", "Issue"
		}
		it, ok := findByID(items, key, chi.URLParam(r, "id"))
		if !ok {
			writeError(w, name+" not found", http.StatusNotFound)
			return
		}
		it["is_marked"] = true
		writeMessage(w, name+" marked as read")
	}
}
