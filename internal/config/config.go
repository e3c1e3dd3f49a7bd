// ABOUTME: Configuration loader for the cleanops CLI
// ABOUTME: Layers defaults, config.yaml, .env, environment variables, and flag overrides

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	appName = "cleanops"

	DefaultAPIURL          = "http://localhost:8080"
	DefaultMaxAttempts     = 5
	DefaultLockoutDuration = 15 * time.Minute
	DefaultRequestTimeout  = 30 * time.Second
	DefaultPageSize        = 10

	// StderrLogFile selects stderr instead of a log file
	StderrLogFile = "-"
)

// ErrConfigFailed marks any problem reading or parsing config.yaml
var ErrConfigFailed = errors.New("config: failed to load")

// Config holds the CLI settings
type Config struct {
	APIURL           string        `yaml:"api_url"`
	MaxLoginAttempts int           `yaml:"max_login_attempts"`
	LockoutDuration  time.Duration `yaml:"lockout_duration"`
	RequestTimeout   time.Duration `yaml:"request_timeout"`
	PageSize         int           `yaml:"page_size"`
	LogFile          string        `yaml:"log_file"`
	LogLevel         string        `yaml:"log_level"`
	LogFormat        string        `yaml:"log_format"`

	ConfigDir string `yaml:"-"`
}

// Error carries the file that failed to load
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e == nil {
		return ErrConfigFailed.Error()
	}
	return fmt.Sprintf("%v: %s: %v", ErrConfigFailed, e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is lets errors.Is match ErrConfigFailed
func (e *Error) Is(target error) bool {
	return target == ErrConfigFailed
}

// Overrides are values from command flags; empty fields are ignored
type Overrides struct {
	APIURL    string
	ConfigDir string
	// EnvFile is the dotenv file to read; defaults to .env in the working directory
	EnvFile string
}

// Load builds the configuration. Later layers win: defaults, config.yaml in
// the config directory, the dotenv file, the environment, then overrides.
// Values in the dotenv file never replace variables already set.
func Load(o Overrides) (*Config, error) {
	envFile := o.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, &Error{Path: envFile, Err: err}
	}

	cfg := &Config{
		APIURL:           DefaultAPIURL,
		MaxLoginAttempts: DefaultMaxAttempts,
		LockoutDuration:  DefaultLockoutDuration,
		RequestTimeout:   DefaultRequestTimeout,
		PageSize:         DefaultPageSize,
		LogLevel:         "info",
		LogFormat:        "text",
	}

	cfg.ConfigDir = firstNonEmpty(o.ConfigDir, os.Getenv("CLEANOPS_CONFIG_DIR"), DefaultConfigDir())

	if cfg.ConfigDir != "" {
		if err := cfg.loadFile(filepath.Join(cfg.ConfigDir, "config.yaml")); err != nil {
			return nil, err
		}
	}

	cfg.APIURL = getEnv("CLEANOPS_API_URL", cfg.APIURL)
	cfg.MaxLoginAttempts = getEnvInt("CLEANOPS_MAX_LOGIN_ATTEMPTS", cfg.MaxLoginAttempts)
	cfg.LockoutDuration = getEnvDuration("CLEANOPS_LOCKOUT_DURATION", cfg.LockoutDuration)
	cfg.RequestTimeout = getEnvDuration("CLEANOPS_REQUEST_TIMEOUT", cfg.RequestTimeout)
	cfg.PageSize = getEnvInt("CLEANOPS_PAGE_SIZE", cfg.PageSize)
	cfg.LogFile = getEnv("CLEANOPS_LOG_FILE", cfg.LogFile)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)

	if o.APIURL != "" {
		cfg.APIURL = o.APIURL
	}
	cfg.APIURL = strings.TrimRight(ensureScheme(cfg.APIURL), "/")

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadFile applies config.yaml if it exists
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &Error{Path: path, Err: err}
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return &Error{Path: path, Err: err}
	}
	return nil
}

func (c *Config) validate() error {
	if c.APIURL == "" {
		return fmt.Errorf("api_url is required")
	}
	for _, r := range []struct {
		name     string
		value    int
		min, max int
	}{
		{"max_login_attempts", c.MaxLoginAttempts, 1, 100},
		{"page_size", c.PageSize, 1, 100},
	} {
		if r.value < r.min || r.value > r.max {
			return fmt.Errorf("%s must be between %d and %d, got %d", r.name, r.min, r.max, r.value)
		}
	}
	for _, r := range []struct {
		name     string
		value    time.Duration
		min, max time.Duration
	}{
		{"lockout_duration", c.LockoutDuration, time.Second, 24 * time.Hour},
		{"request_timeout", c.RequestTimeout, time.Second, 5 * time.Minute},
	} {
		if r.value < r.min || r.value > r.max {
			return fmt.Errorf("%s must be between %s and %s, got %s", r.name, r.min, r.max, r.value)
		}
	}
	return nil
}

// StatePath is the session database file
func (c *Config) StatePath() string {
	return filepath.Join(c.ConfigDir, "state.db")
}

// LogPath is the log destination; StderrLogFile means stderr
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	if c.ConfigDir == "" {
		return StderrLogFile
	}
	return filepath.Join(c.ConfigDir, appName+".log")
}

// DefaultConfigDir returns the default config directory following XDG spec
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("90s") or plain seconds ("90")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}

// ensureScheme adds http:// prefix if the URL has no scheme
func ensureScheme(url string) string {
	if url == "" {
		return url
	}
	if !strings.Contains(url, "://") {
		return "http://" + url
	}
	return url
}
