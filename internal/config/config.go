// Package config loads and validates the gh-notifier runtime configuration.
// Configuration lives in <config>/gh-notifier/config.toml and is read with
// viper. A missing file is not an error — every option has a default — but a
// malformed file or an out-of-range value fails startup so the daemon never
// runs with a half-applied config.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

const (
	// AppName is the directory name under the platform config root and the
	// service name registered with the OS secret service.
	AppName = "gh-notifier"

	DefaultPollIntervalSec  = 30
	MinPollIntervalSec      = 5
	MaxPollIntervalSec      = 3600
	DefaultRetryCount       = 3
	MaxRetryCount           = 10
	DefaultRetryIntervalSec = 5
	MaxRetryIntervalSec     = 300
	DefaultAPIPort          = 8575
	DefaultAPIBind          = "127.0.0.1"
)

// FilterLists holds the include/exclude pair applied to one attribute.
// An empty Include means "allow all"; a non-empty Include allows only the
// listed values. Exclude is always subtractive and applied after Include.
type FilterLists struct {
	Include []string `mapstructure:"include"`
	Exclude []string `mapstructure:"exclude"`
}

// FilterConfig is the declarative rule set applied to raw notifications
// before they reach the store. See filter.Keep for evaluation order.
type FilterConfig struct {
	Repositories  FilterLists `mapstructure:"repositories"`
	Organizations FilterLists `mapstructure:"organizations"`
	Reasons       FilterLists `mapstructure:"reasons"`
	SubjectKinds  FilterLists `mapstructure:"subject_kinds"`

	ExcludePrivateRepos bool `mapstructure:"exclude_private_repos"`
	ExcludeForkRepos    bool `mapstructure:"exclude_fork_repos"`
	ExcludeDraftPRs     bool `mapstructure:"exclude_draft_prs"`

	TitleContains      []string `mapstructure:"title_contains"`
	TitleNotContains   []string `mapstructure:"title_not_contains"`
	RepositoryContains []string `mapstructure:"repository_contains"`

	// MinimumUpdatedAge drops items younger than this duration, letting
	// rapid-fire remote updates settle before a notification is surfaced.
	// Zero disables the rule.
	MinimumUpdatedAge time.Duration `mapstructure:"minimum_updated_age"`
}

// Config is the full runtime configuration.
type Config struct {
	PollIntervalSec     uint64 `mapstructure:"poll_interval_sec"`
	MarkAsReadOnNotify  bool   `mapstructure:"mark_as_read_on_notify"`
	PersistentNotifs    bool   `mapstructure:"persistent_notifications"`
	RecoveryWindowHours uint64 `mapstructure:"notification_recovery_window_hours"`
	BatchSize           int    `mapstructure:"batch_size"`
	BatchIntervalSec    uint64 `mapstructure:"batch_interval_sec"`
	RetryCount          uint32 `mapstructure:"retry_count"`
	RetryIntervalSec    uint64 `mapstructure:"retry_interval_sec"`

	APIEnabled bool   `mapstructure:"api_enabled"`
	APIPort    uint16 `mapstructure:"api_port"`
	APIBind    string `mapstructure:"api_bind"`

	MetricsEnabled bool `mapstructure:"metrics_enabled"`

	LogLevel    string `mapstructure:"log_level"`
	LogFilePath string `mapstructure:"log_file_path"`

	// Sink selects the dispatch backend: "desktop", "log" or "dummy".
	Sink string `mapstructure:"sink"`

	// DBPath overrides the notification store location. Empty uses
	// <config>/gh-notifier/gh-notifier.db.
	DBPath string `mapstructure:"db_path"`

	// RetentionDays purges read notifications older than this many days via
	// a background cleanup job. Zero keeps everything forever.
	RetentionDays uint64 `mapstructure:"retention_days"`

	Filter FilterConfig `mapstructure:"filter"`
}

// Dir returns the gh-notifier config directory, creating it if needed.
func Dir() (string, error) {
	root, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("%w: cannot resolve user config dir: %s", ErrLoad, err)
	}
	dir := filepath.Join(root, AppName)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("%w: cannot create %s: %s", ErrWrite, dir, err)
	}
	return dir, nil
}

// DefaultPath returns the default config.toml location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Default returns a Config populated with every default value. It is the
// configuration a fresh install runs with before a config.toml exists.
func Default() Config {
	return Config{
		PollIntervalSec:  DefaultPollIntervalSec,
		RetryCount:       DefaultRetryCount,
		RetryIntervalSec: DefaultRetryIntervalSec,
		APIEnabled:       true,
		APIPort:          DefaultAPIPort,
		APIBind:          DefaultAPIBind,
		MetricsEnabled:   true,
		LogLevel:         "info",
		Sink:             "desktop",
	}
}

// Load reads the config file at path (or the default location when path is
// empty), applies defaults for unset keys, and validates the result.
// A missing file yields Default() without error.
func Load(path string) (Config, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	d := Default()
	v.SetDefault("poll_interval_sec", d.PollIntervalSec)
	v.SetDefault("retry_count", d.RetryCount)
	v.SetDefault("retry_interval_sec", d.RetryIntervalSec)
	v.SetDefault("api_enabled", d.APIEnabled)
	v.SetDefault("api_port", d.APIPort)
	v.SetDefault("api_bind", d.APIBind)
	v.SetDefault("metrics_enabled", d.MetricsEnabled)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("sink", d.Sink)

	if err := v.ReadInConfig(); err != nil {
		if errors.As(err, &viper.ConfigFileNotFoundError{}) || os.IsNotExist(err) {
			return d, nil
		}
		var parseErr viper.ConfigParseError
		if errors.As(err, &parseErr) {
			return Config{}, fmt.Errorf("%w: %s: %s", ErrParse, path, err)
		}
		return Config{}, fmt.Errorf("%w: %s: %s", ErrLoad, path, err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %s: %s", ErrParse, path, err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every bounded option against its valid range.
func (c Config) Validate() error {
	if c.PollIntervalSec < MinPollIntervalSec || c.PollIntervalSec > MaxPollIntervalSec {
		return fmt.Errorf("%w: poll_interval_sec must be between %d and %d, got %d",
			ErrValidation, MinPollIntervalSec, MaxPollIntervalSec, c.PollIntervalSec)
	}
	if c.RetryCount > MaxRetryCount {
		return fmt.Errorf("%w: retry_count must be at most %d, got %d",
			ErrValidation, MaxRetryCount, c.RetryCount)
	}
	if c.RetryIntervalSec > MaxRetryIntervalSec {
		return fmt.Errorf("%w: retry_interval_sec must be at most %d, got %d",
			ErrValidation, MaxRetryIntervalSec, c.RetryIntervalSec)
	}
	switch c.Sink {
	case "desktop", "log", "dummy", "":
	default:
		return fmt.Errorf("%w: sink must be one of desktop, log, dummy; got %q",
			ErrValidation, c.Sink)
	}
	if c.Filter.MinimumUpdatedAge < 0 {
		return fmt.Errorf("%w: filter.minimum_updated_age must not be negative", ErrValidation)
	}
	return nil
}

// PollInterval returns the poll cadence as a time.Duration.
func (c Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSec) * time.Second
}

// RetryInterval returns the retry sleep as a time.Duration.
func (c Config) RetryInterval() time.Duration {
	return time.Duration(c.RetryIntervalSec) * time.Second
}

// RecoveryWindow returns the startup recovery window. Zero means disabled.
func (c Config) RecoveryWindow() time.Duration {
	return time.Duration(c.RecoveryWindowHours) * time.Hour
}

// DatabasePath resolves the notification store location.
func (c Config) DatabasePath() (string, error) {
	if c.DBPath != "" {
		return c.DBPath, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "gh-notifier.db"), nil
}
