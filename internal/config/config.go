// Package config loads the application configuration from the environment.
// The configuration is read once at startup into an explicit struct that is
// passed down to the layers that need it.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDev  = "dev"
	EnvProd = "prod"
)

// ErrMissingDatabaseURL is returned when DATABASE_URL is unset or blank.
var ErrMissingDatabaseURL = errors.New("DATABASE_URL is not set")

type Config struct {
	Env         string
	DatabaseURL string
	// BaseURL overrides the base used when building short links, e.g. the
	// public URL of the service behind a proxy. Empty means "derive from
	// the incoming request".
	BaseURL   string
	SecretKey string
	HTTPServer
	Postgres
}

type HTTPServer struct {
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

var defaultHTTPServer = HTTPServer{
	Port:         8080,
	ReadTimeout:  5 * time.Second,
	WriteTimeout: 10 * time.Second,
	IdleTimeout:  time.Minute,
}

func (s *HTTPServer) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

type Postgres struct {
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
	MaxIdleConns    int
	MaxOpenConns    int
}

var defaultPostgres = Postgres{
	ConnMaxIdleTime: 5 * time.Minute,
	ConnMaxLifetime: 30 * time.Minute,
	MaxIdleConns:    5,
	MaxOpenConns:    25,
}

// Load reads the configuration from environment variables. A local .env
// file is loaded first, best-effort, so dev runs work without exporting
// anything. DATABASE_URL is required; everything else has a default.
func Load() (*Config, error) {
	const op = "config.Load"

	_ = godotenv.Load()

	dsn := getEnv("DATABASE_URL", "")
	if dsn == "" {
		return nil, fmt.Errorf("%s: %w", op, ErrMissingDatabaseURL)
	}

	cfg := &Config{
		Env:         getEnv("ENV", EnvDev),
		DatabaseURL: NormalizeDatabaseURL(dsn),
		BaseURL:     strings.TrimRight(getEnv("BASE_URL", ""), "/"),
		SecretKey:   getEnv("SECRET_KEY", "dev-secret-change-me"),
		HTTPServer: HTTPServer{
			Port:         getEnvInt("PORT", defaultHTTPServer.Port),
			ReadTimeout:  getEnvDuration("HTTP_READ_TIMEOUT", defaultHTTPServer.ReadTimeout),
			WriteTimeout: getEnvDuration("HTTP_WRITE_TIMEOUT", defaultHTTPServer.WriteTimeout),
			IdleTimeout:  getEnvDuration("HTTP_IDLE_TIMEOUT", defaultHTTPServer.IdleTimeout),
		},
		Postgres: Postgres{
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", defaultPostgres.ConnMaxIdleTime),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", defaultPostgres.ConnMaxLifetime),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", defaultPostgres.MaxIdleConns),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", defaultPostgres.MaxOpenConns),
		},
	}

	return cfg, nil
}

// NormalizeDatabaseURL rewrites the postgresql:// scheme some hosting
// providers hand out to the postgres:// form, so the pool and the migration
// runner share one canonical DSN.
func NormalizeDatabaseURL(dsn string) string {
	if strings.HasPrefix(dsn, "postgresql://") {
		return "postgres://" + strings.TrimPrefix(dsn, "postgresql://")
	}
	return dsn
}
