// Package config provides centralized configuration management for the
// capture service. It loads settings from environment variables with
// sensible defaults and validates everything on startup to fail fast on
// misconfiguration.
package config

import "time"

// Config holds all application configuration.
// All settings can be configured via environment variables.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Capture  CaptureConfig
	Mirror   MirrorConfig
	Logging  LoggingConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	// Host is the interface to bind to (default: 0.0.0.0)
	Host string `env:"SERVER_HOST" default:"0.0.0.0"`

	// Port is the port to listen on (default: 8080)
	Port int `env:"SERVER_PORT" default:"8080"`

	// ReadTimeout is the maximum duration for reading a request body (default: 15s)
	ReadTimeout time.Duration `env:"SERVER_READ_TIMEOUT" default:"15s"`

	// WriteTimeout is the maximum duration for writing a response (default: 30s)
	WriteTimeout time.Duration `env:"SERVER_WRITE_TIMEOUT" default:"30s"`

	// IdleTimeout is the keep-alive timeout (default: 60s)
	IdleTimeout time.Duration `env:"SERVER_IDLE_TIMEOUT" default:"60s"`

	// ShutdownTimeout is the maximum wait for graceful shutdown (default: 30s)
	ShutdownTimeout time.Duration `env:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`

	// RequestTimeout is the middleware timeout for requests (default: 60s)
	RequestTimeout time.Duration `env:"SERVER_REQUEST_TIMEOUT" default:"60s"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	// URL is the PostgreSQL connection string (required).
	// Supports both DATABASE_URL and DB_URL env vars for compatibility.
	URL string `env:"DATABASE_URL" envAlt:"DB_URL" required:"true"`

	// MaxConns is the maximum number of pooled connections (default: 10)
	MaxConns int `env:"DB_MAX_CONNS" default:"10"`

	// MinConns is the minimum number of connections to keep open (default: 2)
	MinConns int `env:"DB_MIN_CONNS" default:"2"`

	// MaxConnLifetime is the maximum lifetime of a connection (default: 1h)
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" default:"1h"`

	// MaxConnIdleTime is the idle time before a connection closes (default: 30m)
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" default:"30m"`
}

// CaptureConfig holds the derivation engine's policy values.
type CaptureConfig struct {
	// MaxDayKm is the maximum plausible distance one vehicle can cover
	// in a single day. Larger distances are rejected as entry errors.
	// Policy value, not physics (default: 1900).
	MaxDayKm float64 `env:"CAPTURE_MAX_DAY_KM" default:"1900"`

	// CacheTTL bounds reuse of catalog/history/limits snapshots (default: 5m)
	CacheTTL time.Duration `env:"CAPTURE_CACHE_TTL" default:"5m"`
}

// MirrorConfig holds the best-effort xlsx mirror settings.
type MirrorConfig struct {
	// Enabled controls whether accepted records are mirrored (default: true)
	Enabled bool `env:"MIRROR_ENABLED" default:"true"`

	// WorkbookPath is the xlsx file records are appended to
	// (default: data/daily_records.xlsx)
	WorkbookPath string `env:"MIRROR_WORKBOOK" default:"data/daily_records.xlsx"`

	// Sheet is the worksheet name within the workbook (default: records)
	Sheet string `env:"MIRROR_SHEET" default:"records"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: debug, info, warn, error (default: info)
	Level string `env:"LOG_LEVEL" default:"info"`

	// Format is the log format: text or json (default: text)
	Format string `env:"LOG_FORMAT" default:"text"`
}

// Addr returns the server listen address in host:port format.
func (c *ServerConfig) Addr() string {
	return c.Host + ":" + itoa(c.Port)
}

// itoa converts an int to string without importing strconv in this file.
func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b [20]byte
	n := len(b)
	neg := i < 0
	if neg {
		i = -i
	}
	for i > 0 {
		n--
		b[n] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		n--
		b[n] = '-'
	}
	return string(b[n:])
}
