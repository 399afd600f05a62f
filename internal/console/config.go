// Package console is the terminal adapter of the admin controller: its
// configuration, the file backed auth session, the text view, and the
// command loop.
package console

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/folio/testimonial-relay/internal/admin"
	"github.com/folio/testimonial-relay/internal/i18n"
)

// ErrConfigMissing means the auth service URL or key is absent or still a
// placeholder. The console cannot start without them.
var ErrConfigMissing = errors.New("supabase url or anon key missing")

type Config struct {
	SupabaseURL         string        `mapstructure:"supabase_url"`
	SupabaseAnonKey     string        `mapstructure:"supabase_anon_key"`
	APIBase             string        `mapstructure:"api_base"`
	PublicSiteURL       string        `mapstructure:"public_site_url"`
	Origin              string        `mapstructure:"origin"`
	RedirectURL         string        `mapstructure:"redirect_url"`
	AdminEmailAllowlist []string      `mapstructure:"admin_email_allowlist"`
	Language            string        `mapstructure:"language"`
	SessionFile         string        `mapstructure:"session_file"`
	LogLevel            string        `mapstructure:"log_level"`
	RequestTimeout      time.Duration `mapstructure:"request_timeout"`
	SessionTimeout      time.Duration `mapstructure:"session_timeout"`
	WatchdogTimeout     time.Duration `mapstructure:"watchdog_timeout"`
	PollInterval        time.Duration `mapstructure:"poll_interval"`
}

// LoadConfig reads admin.yaml from the working directory or the user config
// dir, or path when set. PORTFOLIO_* variables override file values.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("admin")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if dir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(dir, "testimonial-admin"))
		}
	}

	v.SetEnvPrefix("PORTFOLIO")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.fill()
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	// Every key needs a default so that AutomaticEnv is consulted on Unmarshal.
	v.SetDefault("supabase_url", "")
	v.SetDefault("supabase_anon_key", "")
	v.SetDefault("api_base", "")
	v.SetDefault("public_site_url", "")
	v.SetDefault("origin", "http://localhost:8080")
	v.SetDefault("redirect_url", "")
	v.SetDefault("admin_email_allowlist", []string{})
	v.SetDefault("language", "fr")
	v.SetDefault("session_file", "")
	v.SetDefault("log_level", "warn")
	v.SetDefault("request_timeout", "15s")
	v.SetDefault("session_timeout", "8s")
	v.SetDefault("watchdog_timeout", "30s")
	v.SetDefault("poll_interval", "45s")
}

func (c *Config) fill() {
	c.Origin = strings.TrimRight(strings.TrimSpace(c.Origin), "/")
	c.PublicSiteURL = strings.TrimSpace(c.PublicSiteURL)
	if c.APIBase == "" {
		c.APIBase = c.Origin
	}
	if c.RedirectURL == "" {
		c.RedirectURL = c.Origin + "/admin.html"
	}
	if c.SessionFile == "" {
		if dir, err := os.UserConfigDir(); err == nil {
			c.SessionFile = filepath.Join(dir, "testimonial-admin", "session.json")
		} else {
			c.SessionFile = ".admin-session.json"
		}
	}

	emails := c.AdminEmailAllowlist[:0]
	for _, e := range c.AdminEmailAllowlist {
		if e = strings.TrimSpace(e); e != "" {
			emails = append(emails, e)
		}
	}
	c.AdminEmailAllowlist = emails
}

// Validate rejects a missing or placeholder auth service configuration.
func (c *Config) Validate() error {
	if isPlaceholder(c.SupabaseURL) || isPlaceholder(c.SupabaseAnonKey) {
		return ErrConfigMissing
	}
	return nil
}

func isPlaceholder(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.Contains(s, "YOUR_")
}

// ControllerOptions maps the configuration onto the admin controller.
func (c *Config) ControllerOptions() admin.Options {
	return admin.Options{
		Allowlist:       c.AdminEmailAllowlist,
		Language:        i18n.Normalize(c.Language),
		PublicSiteURL:   c.PublicSiteURL,
		Origin:          c.Origin,
		RedirectURL:     c.RedirectURL,
		SessionTimeout:  c.SessionTimeout,
		RequestTimeout:  c.RequestTimeout,
		WatchdogTimeout: c.WatchdogTimeout,
		PollInterval:    c.PollInterval,
	}
}
