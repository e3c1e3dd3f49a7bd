// ABOUTME: Root command for the cleanops CLI
// ABOUTME: Handles global flags and builds the session manager every command shares

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/markalston/cleanops-admin/internal/client"
	"github.com/markalston/cleanops-admin/internal/config"
	"github.com/markalston/cleanops-admin/internal/logger"
	"github.com/markalston/cleanops-admin/internal/session"
	"github.com/markalston/cleanops-admin/internal/store"
)

var (
	apiURL     string
	configDir  string
	jsonOutput bool
)

// Exit codes
const (
	exitOK       = 0
	exitRejected = 1
	exitError    = 2
)

// rootCmd is the base command
var rootCmd = &cobra.Command{
	Use:   "cleanops",
	Short: "Admin console for the CleanOps marketplace",
	Long: `cleanops is the administrator console for the CleanOps cleaning marketplace.

Sign in once with 'cleanops login'; the session is kept in the config
directory and reused by every other command and by the interactive 'tui'.

Exit codes:
  0 - Success
  1 - Rejected (invalid credentials, locked out, not signed in)
  2 - Error (connectivity, invalid input, configuration)

Environment Variables:
  CLEANOPS_API_URL             Backend API URL (default: http://localhost:8080)
  CLEANOPS_CONFIG_DIR          Config and session directory (default: ~/.config/cleanops)
  CLEANOPS_MAX_LOGIN_ATTEMPTS  Failed logins before lockout (default: 5)
  CLEANOPS_LOCKOUT_DURATION    Lockout length (default: 15m)
  CLEANOPS_REQUEST_TIMEOUT     Backend request timeout (default: 30s)
  CLEANOPS_PAGE_SIZE           Rows per page (default: 10)
  CLEANOPS_LOG_FILE            Log file, "-" for stderr (default: <config-dir>/cleanops.log)
  LOG_LEVEL                    debug, info, warn, error (default: info)
  LOG_FORMAT                   text, json (default: text)`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "", "Backend API URL (overrides CLEANOPS_API_URL)")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", "", "Config and session directory (overrides CLEANOPS_CONFIG_DIR)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output JSON instead of human-readable text")
}

// IsJSONOutput returns whether JSON output is requested
func IsJSONOutput() bool {
	return jsonOutput
}

// run adapts a command body to cobra: SIGINT and SIGTERM cancel the
// context and a non-zero result becomes the process exit code
func run(fn func(ctx context.Context, w io.Writer, args []string) int) func(*cobra.Command, []string) {
	return func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		exitCode := fn(ctx, cmd.OutOrStdout(), args)
		cancel()
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	}
}

// loadConfig applies the global flags on top of the layered configuration
func loadConfig() (*config.Config, error) {
	return config.Load(config.Overrides{APIURL: apiURL, ConfigDir: configDir})
}

// env is what a command needs to talk to the backend as the signed-in admin
type env struct {
	cfg     *config.Config
	logger  *slog.Logger
	client  *client.Client
	session *session.Manager
	closers []func() error
}

// openEnv loads configuration, opens the session store, and bootstraps the
// session manager. Callers must Close the result.
func openEnv(ctx context.Context) (*env, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	if cfg.ConfigDir != "" {
		if err := os.MkdirAll(cfg.ConfigDir, 0o700); err != nil {
			return nil, fmt.Errorf("create config directory: %w", err)
		}
	}

	log, closeLog, err := logger.Init(logger.Options{
		Path:   cfg.LogPath(),
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
	if err != nil {
		return nil, err
	}
	e := &env{cfg: cfg, logger: log, closers: []func() error{closeLog}}

	var st store.Store
	if cfg.ConfigDir == "" {
		log.Warn("no config directory; the session will not be kept")
		st = store.NewMemory()
	} else {
		bolt, err := store.OpenBolt(cfg.StatePath())
		if err != nil {
			e.Close()
			return nil, err
		}
		e.closers = append(e.closers, bolt.Close)
		st = bolt
	}

	e.client = client.New(cfg.APIURL, client.WithTimeout(cfg.RequestTimeout))
	e.session = session.New(session.NewAPIBackend(e.client), st, session.Config{
		MaxAttempts:     cfg.MaxLoginAttempts,
		LockoutDuration: cfg.LockoutDuration,
	}, session.WithLogger(log))
	e.client.SetTokenSource(e.session)
	e.session.Bootstrap(ctx)

	log.Debug("command environment ready", "api_url", cfg.APIURL, "state", e.session.State().String())
	return e, nil
}

// Close releases the store and the log file, last opened first
func (e *env) Close() {
	for i := len(e.closers) - 1; i >= 0; i-- {
		if err := e.closers[i](); err != nil && e.logger != nil {
			e.logger.Warn("close failed", "error", err)
		}
	}
}

// withEnv opens the environment for fn and reports setup failures as errors
func withEnv(ctx context.Context, w io.Writer, fn func(context.Context, *env) int) int {
	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	defer e.Close()
	return fn(session.NewContext(ctx, e.session), e)
}

// requireSession reports whether an admin is signed in, printing a hint when not
func requireSession(w io.Writer, e *env) bool {
	if e.session.IsAuthenticated() {
		return true
	}
	if IsJSONOutput() {
		printJSON(w, map[string]any{"success": false, "message": "Not signed in"})
	} else {
		fmt.Fprintln(w, "Not signed in. Run 'cleanops login' first.")
	}
	return false
}

// apiFailure reports a backend error. A rejected token ends the local
// session the same way the dashboard does.
func apiFailure(ctx context.Context, w io.Writer, err error) int {
	if errors.Is(err, client.ErrUnauthorized) {
		if m, ok := session.FromContext(ctx); ok {
			m.Logout(ctx)
		}
		fmt.Fprintln(w, "Your session has expired. Please sign in again.")
		return exitRejected
	}
	fmt.Fprintf(w, "Error: %v\n", err)
	return exitError
}

// printJSON writes v as indented JSON
func printJSON(w io.Writer, v any) {
	data, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(data))
}
