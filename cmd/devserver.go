// ABOUTME: Dev server command: runs the local stand-in for the marketplace backend
// ABOUTME: Serves seeded fixtures so the CLI and TUI can be used without the real API

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/markalston/cleanops-admin/internal/devserver"
	"github.com/markalston/cleanops-admin/internal/logger"
)

var (
	devAddr      string
	devEmail     string
	devPassword  string
	devSecret    string
	devTokenTTL  time.Duration
	devLoginRate int
)

const shutdownTimeout = 5 * time.Second

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run a local backend with seeded data",
	Long: `Run a local stand-in for the marketplace backend.

It seeds users, providers, transactions, withdrawals, notifications,
reports, and issues, and signs bearer tokens with a random secret unless
--secret is set. Password recovery codes are written to the log.

Environment Variables:
  CLEANOPS_DEV_SECRET  Token signing secret (default: random per run)`,
	Args: cobra.NoArgs,
	Run:  run(func(ctx context.Context, w io.Writer, _ []string) int { return runDevServer(ctx, w, nil) }),
}

func init() {
	rootCmd.AddCommand(devserverCmd)
	defaults := devserver.DefaultConfig()
	devserverCmd.Flags().StringVar(&devAddr, "addr", "localhost:8080", "Listen address")
	devserverCmd.Flags().StringVar(&devEmail, "admin-email", defaults.AdminEmail, "Seeded administrator email")
	devserverCmd.Flags().StringVar(&devPassword, "admin-password", defaults.AdminPassword, "Seeded administrator password")
	devserverCmd.Flags().StringVar(&devSecret, "secret", "", "Token signing secret (overrides CLEANOPS_DEV_SECRET)")
	devserverCmd.Flags().DurationVar(&devTokenTTL, "token-ttl", defaults.TokenTTL, "Bearer token lifetime")
	devserverCmd.Flags().IntVar(&devLoginRate, "login-rate", defaults.LoginRateLimit, "Login requests per minute per client IP (0 disables)")
}

// runDevServer serves until ctx is cancelled and returns exit code. When
// ready is set it receives the bound address once the listener is open.
func runDevServer(ctx context.Context, w io.Writer, ready chan<- string) int {
	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	log := logger.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	secret := devSecret
	if secret == "" {
		secret = os.Getenv("CLEANOPS_DEV_SECRET")
	}
	srv, err := devserver.New(devserver.Config{
		AdminEmail:     devEmail,
		AdminPassword:  devPassword,
		Secret:         secret,
		TokenTTL:       devTokenTTL,
		LoginRateLimit: devLoginRate,
		Logger:         log,
	})
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}

	ln, err := net.Listen("tcp", devAddr)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	httpServer := &http.Server{
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	fmt.Fprintf(w, "Dev server listening on http://%s\n", ln.Addr())
	fmt.Fprintf(w, "Sign in with: cleanops login --api-url http://%s --email %s\n", ln.Addr(), devEmail)
	if ready != nil {
		ready <- ln.Addr().String()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			fmt.Fprintf(w, "Error: %v\n", err)
			return exitError
		}
		return exitOK
	case <-ctx.Done():
	}

	log.Info("shutting down dev server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return exitError
	}
	return exitOK
}
