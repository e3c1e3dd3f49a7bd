// ABOUTME: Local stand-in for the marketplace admin backend
// ABOUTME: Serves the /admin API over seeded in-memory data for development and tests

package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"
)

const (
	DefaultAdminEmail    = "admin@cleanops.test"
	DefaultAdminPassword = "cleanops-admin"
)

// Config configures the dev server
type Config struct {
	AdminEmail    string
	AdminPassword string
	// Secret signs bearer tokens; a random one is generated when empty
	Secret   string
	TokenTTL time.Duration
	// LoginRateLimit is login requests per minute per client IP; 0 disables it
	LoginRateLimit int
	Logger         *slog.Logger
	// Now replaces the wall clock
	Now func() time.Time
}

// DefaultConfig returns the seeded admin account and a 30/min login limit
func DefaultConfig() Config {
	return Config{
		AdminEmail:     DefaultAdminEmail,
		AdminPassword:  DefaultAdminPassword,
		TokenTTL:       12 * time.Hour,
		LoginRateLimit: 30,
	}
}

// Server is the fake backend. It is safe for concurrent use.
type Server struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
	tokens *tokenManager

	mu           sync.Mutex
	admin        record
	passwordHash []byte
	otps         map[string]string
	data         *dataset
}

// New creates a server seeded with fixture data
func New(cfg Config) (*Server, error) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil, errors.New("devserver: admin email and password are required")
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 12 * time.Hour
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("devserver: hashing admin password: %w", err)
	}
	tokens, err := newTokenManager(cfg.Secret, cfg.TokenTTL, cfg.Now)
	if err != nil {
		return nil, err
	}

	return &Server{
		cfg:    cfg,
		logger: cfg.Logger,
		now:    cfg.Now,
		tokens: tokens,
		admin: record{
			"id":    1,
			"name":  "Operations Admin",
			"email": cfg.AdminEmail,
			"role":  "admin",
		},
		passwordHash: hash,
		otps:         make(map[string]string),
		data:         seed(cfg.Now()),
	}, nil
}

// Route defines an API endpoint with its HTTP method and handler.
type Route struct {
	Method  string
	Path    string
	Handler http.HandlerFunc
	Public  bool
}

// Routes returns all API routes for registration.
func (s *Server) Routes() []Route {
	return []Route{
		// Auth
		{Method: http.MethodPost, Path: "/admin/login", Handler: s.Login, Public: true},
		{Method: http.MethodPost, Path: "/admin/resend-otp", Handler: s.ResendOTP, Public: true},
		{Method: http.MethodPost, Path: "/admin/verify-otp", Handler: s.VerifyOTP, Public: true},
		{Method: http.MethodGet, Path: "/admin/logout", Handler: s.Logout},
		{Method: http.MethodPost, Path: "/admin/update-password", Handler: s.UpdatePassword},

		// Dashboard
		{Method: http.MethodGet, Path: "/admin/dashboard", Handler: s.Dashboard},

		// Users
		{Method: http.MethodGet, Path: "/admin/users", Handler: s.ListUsers},
		{Method: http.MethodGet, Path: "/admin/user-details/{id}", Handler: s.UserDetails},
		{Method: http.MethodPost, Path: "/admin/deactivate-user/{id}", Handler: s.setUserStatus(false)},
		{Method: http.MethodPost, Path: "/admin/reactive-user/{id}", Handler: s.setUserStatus(true)},

		// Money
		{Method: http.MethodGet, Path: "/admin/transactions", Handler: s.ListTransactions},
		{Method: http.MethodGet, Path: "/admin/withdrawals", Handler: s.ListWithdrawals},
		{Method: http.MethodGet, Path: "/admin/withdrawals/{id}", Handler: s.WithdrawalDetails},
		{Method: http.MethodPost, Path: "/admin/withdrawals/{id}/approve", Handler: s.decideWithdrawal(true)},
		{Method: http.MethodPost, Path: "/admin/withdrawals/{id}/reject", Handler: s.decideWithdrawal(false)},

		// Provider onboarding
		{Method: http.MethodGet, Path: "/admin/approval-requests", Handler: s.ListApprovalRequests},
		{Method: http.MethodGet, Path: "/admin/provider-details/{id}", Handler: s.ProviderDetails},
		{Method: http.MethodPost, Path: "/admin/profile-approval-requests/{id}/approve", Handler: s.decideRequest(true)},
		{Method: http.MethodPost, Path: "/admin/profile-approval-requests/{id}/reject", Handler: s.decideRequest(false)},

		// Notifications
		{Method: http.MethodGet, Path: "/admin/notifications", Handler: s.ListNotifications},
		{Method: http.MethodPost, Path: "/admin/notifications", Handler: s.SendNotification},

		// Moderation
		{Method: http.MethodGet, Path: "/admin/reports", Handler: s.ListReports},
		{Method: http.MethodPost, Path: "/admin/reports/{id}", Handler: s.markRead(kindReport)},
		{Method: http.MethodGet, Path: "/admin/user/issues", Handler: s.ListIssues},
		{Method: http.MethodPost, Path: "/admin/issues/{id}", Handler: s.markRead(kindIssue)},
	}
}

// Handler returns the router with logging, recovery, auth, and login rate limiting
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequest)

	loginLimit := rateLimitLogin(s.cfg.LoginRateLimit)
	for _, route := range s.Routes() {
		var h http.Handler = route.Handler
		if route.Path == "/admin/login" && loginLimit != nil {
			h = loginLimit(h)
		}
		if !route.Public {
			h = s.requireAuth(h)
		}
		r.Method(route.Method, route.Path, h)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Route not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	})
	return r
}

// OTP returns the pending one-time code for email, if any
func (s *Server) OTP(email string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.otps[email]
	return code, ok
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, message string, code int) {
	writeJSON(w, code, map[string]string{"message": message})
}

func writeMessage(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusOK, map[string]string{"message": message})
}

func decode(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
