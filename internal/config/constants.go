package config

import "time"

// Database connection pool settings
const (
	DBMaxOpenConns    = 10
	DBMaxIdleConns    = 3
	DBConnMaxLifetime = 5 * time.Minute
)

// HTTP server timeouts
const (
	ServerRequestTimeout  = 30 * time.Second
	ServerReadTimeout     = 15 * time.Second
	ServerWriteTimeout    = 35 * time.Second
	ServerIdleTimeout     = 120 * time.Second
	ServerShutdownTimeout = 30 * time.Second
)

// Database ping timeout for health checks
const DBPingTimeout = 5 * time.Second

// Outbound HTTP (auth service, email provider)
const OutboundRequestTimeout = 10 * time.Second

// Rate limits
const (
	SubmitRateLimit  = 10
	SubmitRateWindow = 10 * time.Minute
	InviteRateLimit  = 20
	InviteRateWindow = time.Minute
)

// Expired tokens are kept this long before the cleanup job purges them
const TokenRetention = 30 * 24 * time.Hour

// Public listing size
const PublicTestimonialsLimit = 6
