package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds application configuration loaded from environment.
type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Admin    AdminConfig
	AWS      AWSConfig
	Email    EmailConfig
	Notify   NotifyConfig
	Worker   WorkerConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port               string `env:"PORT" envDefault:"8080"`
	ReadTimeout        int    `env:"READ_TIMEOUT_SEC" envDefault:"30"`
	WriteTimeout       int    `env:"WRITE_TIMEOUT_SEC" envDefault:"30"`
	CORSAllowedOrigins string `env:"CORS_ALLOWED_ORIGINS" envDefault:"http://localhost:3000"` // comma-separated, or "*"
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Driver   string `env:"DB_DRIVER" envDefault:"postgres"` // postgres | memory
	URL      string `env:"DATABASE_URL"`                    // if set, used as-is
	Host     string `env:"DB_HOST" envDefault:"localhost"`
	Port     string `env:"DB_PORT" envDefault:"5432"`
	User     string `env:"DB_USER" envDefault:"postgres"`
	Password string `env:"DB_PASSWORD" envDefault:"postgres"`
	DBName   string `env:"DB_NAME" envDefault:"eventdesk"`
	SSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`
	MaxConns int32  `env:"DB_MAX_CONNS" envDefault:"10"`
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

// JWTConfig holds JWT signing and validation settings.
type JWTConfig struct {
	Secret      string `env:"JWT_SECRET" envDefault:"change-me-in-production"`
	ExpireHours int    `env:"JWT_EXPIRE_HOURS" envDefault:"24"`
}

// AdminConfig is the bootstrap administrator created on startup when no administrator exists.
type AdminConfig struct {
	Email    string `env:"ADMIN_EMAIL" envDefault:"admin@example.com"`
	Password string `env:"ADMIN_PASSWORD"`
}

// AWSConfig holds AWS credentials and the export archive bucket.
type AWSConfig struct {
	Region               string `env:"AWS_REGION"`
	AccessKeyID          string `env:"AWS_ACCESS_KEY_ID"`
	SecretAccessKey      string `env:"AWS_SECRET_ACCESS_KEY"`
	ExportsBucket        string `env:"AWS_S3_EXPORTS_BUCKET" envDefault:"eventdesk-exports"`
	PresignExpireMinutes int    `env:"AWS_PRESIGN_EXPIRE_MINUTES" envDefault:"15"`
}

// EmailConfig for SMTP delivery.
type EmailConfig struct {
	FromAddress string `env:"EMAIL_FROM_ADDRESS" envDefault:"noreply@example.com"`
	FromName    string `env:"EMAIL_FROM_NAME" envDefault:"Event Management Team"`
	SMTPHost    string `env:"SMTP_HOST"`
	SMTPPort    int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser    string `env:"SMTP_USER"`
	SMTPPass    string `env:"SMTP_PASS"`
}

// NotifyConfig tunes the notification outbox relay and delivery retries.
type NotifyConfig struct {
	RelayInterval time.Duration `env:"NOTIFY_RELAY_INTERVAL" envDefault:"30s"`
	PendingAge    time.Duration `env:"NOTIFY_PENDING_AGE" envDefault:"2m"`
	RelayBatch    int           `env:"NOTIFY_RELAY_BATCH" envDefault:"100"`
	MaxAttempts   int           `env:"NOTIFY_MAX_ATTEMPTS" envDefault:"3"`
}

// WorkerConfig holds cmd/worker settings.
type WorkerConfig struct {
	MetricsPort string `env:"WORKER_METRICS_PORT" envDefault:"9091"`
}

// DSN returns the PostgreSQL connection string.
// If DatabaseConfig.URL is set (e.g. DATABASE_URL env), it is used as-is; otherwise built from components.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// S3Enabled reports whether export archiving can be configured.
func (c AWSConfig) S3Enabled() bool {
	return c.Region != "" && c.ExportsBucket != ""
}

// Origins splits CORSAllowedOrigins.
func (c ServerConfig) Origins() []string {
	return splitTrim(c.CORSAllowedOrigins, ",")
}

// Load reads configuration from environment, with optional .env file.
func Load() (*Config, error) {
	_ = godotenv.Load() // .env

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	switch cfg.Database.Driver {
	case "postgres", "memory":
	default:
		return nil, fmt.Errorf("DB_DRIVER must be postgres or memory, got %q", cfg.Database.Driver)
	}
	if cfg.Notify.MaxAttempts < 1 {
		cfg.Notify.MaxAttempts = 1
	}
	return cfg, nil
}

func splitTrim(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, v := range strings.Split(s, sep) {
		if t := strings.TrimSpace(v); t != "" {
			out = append(out, t)
		}
	}
	return out
}
