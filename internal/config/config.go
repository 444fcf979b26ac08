package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	DefaultPublicPhone = "1-800-123-4567"
	DefaultPublicEmail = "service@skyreachair.com"
	DefaultContactTo   = "service@skyreachair.com"
)

type Config struct {
	// Database
	DatabaseURL string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBSSLMode   string

	// Sessions
	JWTSecret     string
	SessionTTL    time.Duration
	SessionCookie string
	CookieSecure  bool
	RedisURL      string

	// Notifications
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPass       string
	SMTPSecure     bool
	SMTPFrom       string
	ContactEmail   string
	SendGridAPIKey string
	NotifyTimeout  time.Duration

	// Public site
	PublicPhone string
	PublicEmail string
	PostHogKey  string
	PostHogHost string

	// Admin
	AdminEmails string

	// Server
	Port        string
	FrontendURL string
	AppEnv      string
	SentryDSN   string

	// Logging
	LogLevel         string
	LogRetentionDays int
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present; real environment variables win.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "5432"),
		DBUser:      getEnv("DB_USER", "postgres"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "skyreach"),
		DBSSLMode:   getEnv("DB_SSLMODE", "disable"),

		JWTSecret:     getEnv("JWT_SECRET", ""),
		SessionTTL:    parseDuration(getEnv("SESSION_TTL", "24h"), 24*time.Hour),
		SessionCookie: getEnv("SESSION_COOKIE", "token"),
		CookieSecure:  parseBool(getEnv("COOKIE_SECURE", ""), getEnv("APP_ENV", "") == "production"),
		RedisURL:      getEnv("REDIS_URL", ""),

		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       parseInt(getEnv("SMTP_PORT", "587"), 587),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPass:       getEnv("SMTP_PASS", ""),
		SMTPSecure:     parseBool(getEnv("SMTP_SECURE", ""), false),
		SMTPFrom:       getEnv("SMTP_FROM", ""),
		ContactEmail:   getEnv("CONTACT_EMAIL", getEnv("ADMIN_EMAIL_RECIPIENT", DefaultContactTo)),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		NotifyTimeout:  parseDuration(getEnv("NOTIFY_TIMEOUT", "10s"), 10*time.Second),

		PublicPhone: getEnv("PUBLIC_PHONE", DefaultPublicPhone),
		PublicEmail: getEnv("PUBLIC_EMAIL", DefaultPublicEmail),
		PostHogKey:  getEnv("POSTHOG_KEY", ""),
		PostHogHost: getEnv("POSTHOG_HOST", "https://us.i.posthog.com"),

		AdminEmails: getEnv("ADMIN_EMAILS", ""),

		Port:        getEnv("PORT", "3001"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		AppEnv:      getEnv("APP_ENV", "development"),
		SentryDSN:   getEnv("SENTRY_DSN", ""),

		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogRetentionDays: parseInt(getEnv("LOG_RETENTION_DAYS", "30"), 30),
	}
}

// DSN prefers DATABASE_URL and falls back to the discrete DB_* settings.
func (c *Config) DSN() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}

// SMTPSender returns the From address for lead notifications.
func (c *Config) SMTPSender() string {
	if c.SMTPFrom != "" {
		return c.SMTPFrom
	}
	return c.SMTPUser
}

func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func parseDuration(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func parseInt(s string, fallback int) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return fallback
	}
	return n
}

func parseBool(s string, fallback bool) bool {
	b, err := strconv.ParseBool(s)
	if err != nil {
		return fallback
	}
	return b
}
