package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port               int      `env:"PORT" envDefault:"8080"`
	DatabaseURL        string   `env:"DATABASE_URL,required"`
	RedisURL           string   `env:"REDIS_URL,required"`
	LogLevel           string   `env:"LOG_LEVEL" envDefault:"info"`
	SupabaseURL        string   `env:"SUPABASE_URL"`
	SupabaseAnonKey    string   `env:"SUPABASE_ANON_KEY"`
	ResendAPIKey       string   `env:"RESEND_API_KEY"`
	ResendFromEmail    string   `env:"RESEND_FROM_EMAIL"`
	ResendAPIURL       string   `env:"RESEND_API_URL" envDefault:"https://api.resend.com"`
	AdminEmails        []string `env:"ADMIN_EMAILS" envSeparator:","`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`
	CleanupSchedule    string   `env:"CLEANUP_SCHEDULE" envDefault:"@every 5m"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// AuthReady reports whether bearer tokens can be verified against the auth service.
func (c *Config) AuthReady() bool {
	return c.SupabaseURL != "" && c.SupabaseAnonKey != ""
}

// InviteReady reports whether invitation emails can be sent.
func (c *Config) InviteReady() bool {
	return c.AuthReady() && c.ResendAPIKey != "" && c.ResendFromEmail != ""
}

// AdminEmailList returns the trimmed, lowercased, non-empty admin emails.
func (c *Config) AdminEmailList() []string {
	out := make([]string, 0, len(c.AdminEmails))
	for _, email := range c.AdminEmails {
		email = strings.ToLower(strings.TrimSpace(email))
		if email != "" {
			out = append(out, email)
		}
	}
	return out
}

func (c *Config) Validate(isProduction bool) error {
	if c.CleanupSchedule == "" {
		return fmt.Errorf("CLEANUP_SCHEDULE must not be empty")
	}

	if !c.InviteReady() {
		log.Warn().Msg("SUPABASE_URL, SUPABASE_ANON_KEY, RESEND_API_KEY or RESEND_FROM_EMAIL missing: send-invite will answer 500")
	}

	if isProduction {
		if len(c.AdminEmailList()) == 0 {
			log.Warn().Msg("ADMIN_EMAILS is empty in production: every authenticated user is treated as admin")
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if strings.HasPrefix(c.SupabaseURL, "http://") {
			return fmt.Errorf("SUPABASE_URL must use https in production")
		}
	}

	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}

// RequestTimeout bounds outbound calls to the auth service and the email provider.
func (c *Config) RequestTimeout() time.Duration {
	return OutboundRequestTimeout
}
