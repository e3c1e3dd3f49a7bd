// ABOUTME: Tests for the root command, global flags, and the shared test backend
// ABOUTME: Commands run against the dev server with a session kept in a temp directory

package cmd

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/markalston/cleanops-admin/internal/devserver"
	"github.com/markalston/cleanops-admin/internal/session"
)

// backend is a dev server plus a fresh config directory wired into the
// global flags
type backend struct {
	srv *devserver.Server
	url string
	dir string
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	srv, err := devserver.New(devserver.Config{
		AdminEmail:    devserver.DefaultAdminEmail,
		AdminPassword: devserver.DefaultAdminPassword,
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatalf("devserver.New: %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	b := &backend{srv: srv, url: ts.URL, dir: t.TempDir()}
	apiURL = b.url
	configDir = b.dir
	jsonOutput = false
	t.Setenv("CLEANOPS_LOG_FILE", "")
	t.Cleanup(func() {
		apiURL = ""
		configDir = ""
		jsonOutput = false
	})
	return b
}

// signIn logs in with the seeded admin and fails the test otherwise
func signIn(t *testing.T) {
	t.Helper()
	loginEmail, loginPassword = devserver.DefaultAdminEmail, devserver.DefaultAdminPassword
	defer func() { loginEmail, loginPassword = "", "" }()

	var buf bytes.Buffer
	if code := runLogin(context.Background(), &buf); code != 0 {
		t.Fatalf("login failed with exit code %d: %s", code, buf.String())
	}
}

func TestJSONOutput(t *testing.T) {
	jsonOutput = true
	defer func() { jsonOutput = false }()

	if !IsJSONOutput() {
		t.Error("expected IsJSONOutput to return true")
	}
}

func TestLoadConfig_FlagsOverride(t *testing.T) {
	t.Setenv("CLEANOPS_API_URL", "http://backend.example.com")
	apiURL = "flag-override.example.com"
	configDir = t.TempDir()
	defer func() { apiURL, configDir = "", "" }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.APIURL != "http://flag-override.example.com" {
		t.Errorf("expected flag to override env, got %s", cfg.APIURL)
	}
	if cfg.ConfigDir != configDir {
		t.Errorf("expected config dir %s, got %s", configDir, cfg.ConfigDir)
	}
}

func TestWithEnv_ConfigError(t *testing.T) {
	newBackend(t)
	t.Setenv("CLEANOPS_PAGE_SIZE", "1000")

	var buf bytes.Buffer
	code := withEnv(context.Background(), &buf, func(context.Context, *env) int {
		t.Fatal("command body must not run")
		return 0
	})

	if code != exitError {
		t.Errorf("expected exit code %d, got %d", exitError, code)
	}
	if !strings.Contains(buf.String(), "page_size") {
		t.Errorf("expected config error, got %q", buf.String())
	}
}

func TestResultExitCode(t *testing.T) {
	tests := []struct {
		result session.Result
		want   int
	}{
		{session.Result{Success: true}, exitOK},
		{session.Result{Kind: session.KindCredentialsInvalid}, exitRejected},
		{session.Result{Kind: session.KindLockedOut}, exitRejected},
		{session.Result{Kind: session.KindSessionExpired}, exitRejected},
		{session.Result{Kind: session.KindTransport}, exitError},
		{session.Result{Kind: session.KindInvalidInput}, exitError},
	}
	for _, tt := range tests {
		if got := resultExitCode(tt.result); got != tt.want {
			t.Errorf("resultExitCode(%v) = %d, want %d", tt.result.Kind, got, tt.want)
		}
	}
}

func TestCommandsRegistered(t *testing.T) {
	want := []string{"login", "logout", "whoami", "lockout", "dashboard", "list", "show",
		"approve", "reject", "deactivate", "reactivate", "mark-read", "notify", "password", "tui", "devserver"}
	have := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		have[c.Name()] = true
	}
	for _, name := range want {
		if !have[name] {
			t.Errorf("expected %q to be registered", name)
		}
	}
}
