// Package config loads harness settings from the environment, an optional
// .env file and command-line flags, in that order of increasing priority.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/thesyncim/latynkatar-e2e/pkg/harness"
	"github.com/thesyncim/latynkatar-e2e/pkg/latynkatar"
)

// Keys. Each is also read from the upper-cased environment variable,
// e.g. BASE_URL.
const (
	KeyBaseURL         = "base_url"
	KeyHeadless        = "headless"
	KeyChromeBin       = "chrome_bin"
	KeyViewport        = "viewport"
	KeyImplicitWait    = "implicit_wait"
	KeyNavTimeout      = "nav_timeout"
	KeySettleTimeout   = "settle_timeout"
	KeySettleInterval  = "settle_interval"
	KeySettleQuiet     = "settle_quiet"
	KeyScenarioTimeout = "scenario_timeout"
	KeyClipboard       = "clipboard"
	KeyConvertTitle    = "convert_title"
	KeyClearTitle      = "clear_title"
	KeySeed            = "seed"
	KeyParallel        = "parallel"
	KeyReportDir       = "report_dir"
	KeyScreenshots     = "screenshots"
	KeyLogLevel        = "log_level"
	KeyCatalog         = "catalog"
)

// ErrMissingBaseURL is returned by RequireBaseURL when no page is configured.
var ErrMissingBaseURL = errors.New("BASE_URL is not set")

// Config is the harness configuration.
type Config struct {
	BaseURL         string        `mapstructure:"base_url"`
	Headless        bool          `mapstructure:"headless"`
	ChromeBin       string        `mapstructure:"chrome_bin"`
	Viewport        string        `mapstructure:"viewport"`
	ImplicitWait    time.Duration `mapstructure:"implicit_wait"`
	NavTimeout      time.Duration `mapstructure:"nav_timeout"`
	SettleTimeout   time.Duration `mapstructure:"settle_timeout"`
	SettleInterval  time.Duration `mapstructure:"settle_interval"`
	SettleQuiet     time.Duration `mapstructure:"settle_quiet"`
	ScenarioTimeout time.Duration `mapstructure:"scenario_timeout"`
	Clipboard       string        `mapstructure:"clipboard"`
	ConvertTitle    string        `mapstructure:"convert_title"`
	ClearTitle      string        `mapstructure:"clear_title"`
	Seed            int64         `mapstructure:"seed"`
	Parallel        int           `mapstructure:"parallel"`
	ReportDir       string        `mapstructure:"report_dir"`
	Screenshots     bool          `mapstructure:"screenshots"`
	LogLevel        string        `mapstructure:"log_level"`
	Catalog         string        `mapstructure:"catalog"` // Scenario file; empty uses the built-in catalog
}

// LoadDotEnv loads variables from files into the process environment
// without overriding variables that are already set. With no files it
// reads ./.env if present.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// New returns a viper instance with every key defaulted and bound to its
// environment variable. Callers may bind flags to it before Load.
func New() *viper.Viper {
	v := viper.New()
	stab := harness.DefaultStabilizePolicy()

	v.SetDefault(KeyBaseURL, "")
	v.SetDefault(KeyHeadless, true)
	v.SetDefault(KeyChromeBin, "")
	v.SetDefault(KeyViewport, "1920x1080")
	v.SetDefault(KeyImplicitWait, 5*time.Second)
	v.SetDefault(KeyNavTimeout, 30*time.Second)
	v.SetDefault(KeySettleTimeout, stab.Timeout)
	v.SetDefault(KeySettleInterval, stab.Interval)
	v.SetDefault(KeySettleQuiet, stab.Quiet)
	v.SetDefault(KeyScenarioTimeout, 2*time.Minute)
	v.SetDefault(KeyClipboard, string(harness.ClipboardPage))
	v.SetDefault(KeyConvertTitle, latynkatar.DefaultConvertTitle)
	v.SetDefault(KeyClearTitle, latynkatar.DefaultClearTitle)
	v.SetDefault(KeySeed, 0)
	v.SetDefault(KeyParallel, 1)
	v.SetDefault(KeyReportDir, "test-results")
	v.SetDefault(KeyScreenshots, true)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyCatalog, "")

	v.AutomaticEnv()
	return v
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv loads ./.env and then the environment.
func FromEnv() (*Config, error) {
	if err := LoadDotEnv(); err != nil {
		return nil, err
	}
	return Load(New())
}

// Validate checks every field except the presence of BaseURL.
func (c *Config) Validate() error {
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
			return fmt.Errorf("invalid BASE_URL %q: want an absolute http(s) URL", c.BaseURL)
		}
	}
	if _, err := harness.ParseViewport(c.Viewport); err != nil {
		return err
	}
	if _, err := harness.ParseClipboardMode(c.Clipboard); err != nil {
		return err
	}
	if err := c.StabilizePolicy().Validate(); err != nil {
		return err
	}
	if c.ImplicitWait <= 0 {
		return errors.New("implicit wait must be positive")
	}
	if c.NavTimeout <= 0 {
		return errors.New("navigation timeout must be positive")
	}
	if c.ScenarioTimeout < 0 {
		return errors.New("scenario timeout must not be negative")
	}
	if c.Parallel < 1 {
		return fmt.Errorf("parallel must be at least 1, got %d", c.Parallel)
	}
	if _, err := zap.ParseAtomicLevel(c.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	return nil
}

// RequireBaseURL returns ErrMissingBaseURL if no page is configured.
func (c *Config) RequireBaseURL() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	return nil
}

// SessionConfig converts c into browser session settings.
func (c *Config) SessionConfig(logger *zap.Logger) (harness.SessionConfig, error) {
	vp, err := harness.ParseViewport(c.Viewport)
	if err != nil {
		return harness.SessionConfig{}, err
	}
	mode, err := harness.ParseClipboardMode(c.Clipboard)
	if err != nil {
		return harness.SessionConfig{}, err
	}
	return harness.SessionConfig{
		BaseURL:           c.BaseURL,
		Headless:          c.Headless,
		Bin:               c.ChromeBin,
		Viewport:          vp,
		ImplicitWait:      c.ImplicitWait,
		NavigationTimeout: c.NavTimeout,
		Clipboard:         mode,
		Logger:            logger,
	}, nil
}

// StabilizePolicy returns the configured synchronization policy.
func (c *Config) StabilizePolicy() harness.StabilizePolicy {
	return harness.StabilizePolicy{
		Timeout:  c.SettleTimeout,
		Interval: c.SettleInterval,
		Quiet:    c.SettleQuiet,
	}
}

// Page returns the page object with the configured button titles.
func (c *Config) Page() latynkatar.Page {
	return latynkatar.NewPage(c.ConvertTitle, c.ClearTitle)
}

// LoadCatalog compiles the configured scenario catalog.
func (c *Config) LoadCatalog() (*latynkatar.Catalog, error) {
	if c.Catalog == "" {
		return latynkatar.Default(c.Page())
	}
	return latynkatar.Load(c.Catalog, c.Page())
}

// Metadata lists the settings worth recording in a report.
func (c *Config) Metadata() map[string]string {
	return map[string]string{
		"Viewport":  c.Viewport,
		"Headless":  fmt.Sprint(c.Headless),
		"Clipboard": c.Clipboard,
		"Parallel":  fmt.Sprint(c.Parallel),
		"Settle":    fmt.Sprintf("timeout=%s interval=%s quiet=%s", c.SettleTimeout, c.SettleInterval, c.SettleQuiet),
	}
}
