// ABOUTME: Authentication handlers of the dev server
// ABOUTME: Login, logout, OTP password recovery, and password update

package devserver

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/markalston/cleanops-admin/internal/client"
	"github.com/markalston/cleanops-admin/internal/validation"
)

func (s *Server) issueLogin(w http.ResponseWriter, message string) {
	token, err := s.tokens.Issue(s.cfg.AdminEmail)
	if err != nil {
		s.logger.Error("failed to sign token", "error", err)
		writeError(w, "Could not create session", http.StatusInternalServerError)
		return
	}
	s.mu.Lock()
	profile := record{}
	for k, v := range s.admin {
		profile[k] = v
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"token":         token,
		"admin_details": profile,
		"message":       message,
	})
}

func (s *Server) checkPassword(password string) bool {
	s.mu.Lock()
	hash := s.passwordHash
	s.mu.Unlock()
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}

// Login handles POST /admin/login
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	var req client.LoginRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.Validate(validation.LoginInput{Email: req.Email, Password: req.Password}); err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if !strings.EqualFold(req.Email, s.cfg.AdminEmail) || !s.checkPassword(req.Password) {
		s.logger.Info("login rejected")
		writeError(w, "These credentials do not match our records.", http.StatusUnauthorized)
		return
	}
	s.logger.Info("admin logged in")
	s.issueLogin(w, "Login successful")
}

// Logout handles GET /admin/logout
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	if c, ok := claimsFrom(r.Context()); ok {
		s.tokens.Revoke(c)
	}
	writeMessage(w, "Logged out successfully")
}

type otpRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

func newOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ResendOTP handles POST /admin/resend-otp. The code is logged since the
// dev server sends no email.
func (s *Server) ResendOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !strings.EqualFold(strings.TrimSpace(req.Email), s.cfg.AdminEmail) {
		writeError(w, "We can't find a user with that email address.", http.StatusNotFound)
		return
	}
	code, err := newOTP()
	if err != nil {
		writeError(w, "Could not generate OTP", http.StatusInternalServerError)
		return
	}
	s.mu.Lock()
	s.otps[s.cfg.AdminEmail] = code
	s.mu.Unlock()

	s.logger.Info("otp issued", "email", s.cfg.AdminEmail, "otp", code)
	writeMessage(w, "OTP sent to your email")
}

// VerifyOTP handles POST /admin/verify-otp
func (s *Server) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req otpRequest
	if err := decode(r, &req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := validation.Validate(validation.OTPInput{Email: req.Email, OTP: req.OTP}); err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	s.mu.Lock()
	want, ok := s.otps[s.cfg.AdminEmail]
	valid := ok && strings.EqualFold(req.Email, s.cfg.AdminEmail) && want == req.OTP
	if valid {
		delete(s.otps, s.cfg.AdminEmail)
	}
	s.mu.Unlock()

	if !valid {
		writeError(w, "Invalid or expired OTP", http.StatusUnprocessableEntity)
		return
	}
	s.issueLogin(w, "OTP verified successfully")
}

// UpdatePassword handles POST /admin/update-password. The old password is
// checked when supplied; the caller's token is revoked on success.
func (s *Server) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	var req client.PasswordUpdate
	if err := decode(r, &req); err != nil {
		writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	err := validation.Validate(validation.PasswordChangeInput{
		OldPassword:  req.OldPassword,
		Password:     req.Password,
		Confirmation: req.PasswordConfirmation,
	})
	if err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if req.OldPassword != "" && !s.checkPassword(req.OldPassword) {
		writeError(w, "The current password is incorrect.", http.StatusUnprocessableEntity)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, "Could not update password", http.StatusInternalServerError)
		return
	}
	s.mu.Lock()
	s.passwordHash = hash
	s.mu.Unlock()

	if c, ok := claimsFrom(r.Context()); ok {
		s.tokens.Revoke(c)
	}
	s.logger.Info("admin password updated")
	writeMessage(w, "Password updated successfully")
}
