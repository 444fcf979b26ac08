package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "SMTP_PORT", "CONTACT_EMAIL", "ADMIN_EMAIL_RECIPIENT", "SESSION_TTL", "DATABASE_URL", "APP_ENV", "COOKIE_SECURE"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, "3001", cfg.Port)
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, DefaultContactTo, cfg.ContactEmail)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Equal(t, DefaultPublicPhone, cfg.PublicPhone)
	assert.False(t, cfg.CookieSecure)
	assert.Contains(t, cfg.DSN(), "dbname=skyreach")
}

func TestContactEmailPrecedence(t *testing.T) {
	t.Setenv("CONTACT_EMAIL", "")
	t.Setenv("ADMIN_EMAIL_RECIPIENT", "office@example.com")
	assert.Equal(t, "office@example.com", Load().ContactEmail)

	t.Setenv("CONTACT_EMAIL", "leads@example.com")
	assert.Equal(t, "leads@example.com", Load().ContactEmail)
}

func TestDSNPrefersDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/leads")
	assert.Equal(t, "postgres://u:p@db:5432/leads", Load().DSN())
}

func TestInvalidValuesFallBack(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-port")
	t.Setenv("SESSION_TTL", "forever")
	t.Setenv("SMTP_SECURE", "maybe")

	cfg := Load()
	assert.Equal(t, 587, cfg.SMTPPort)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.SMTPSecure)
}

func TestSMTPSenderFallsBackToUser(t *testing.T) {
	cfg := &Config{SMTPUser: "mailer@example.com"}
	assert.Equal(t, "mailer@example.com", cfg.SMTPSender())
	cfg.SMTPFrom = "Skyreach <noreply@example.com>"
	assert.Equal(t, "Skyreach <noreply@example.com>", cfg.SMTPSender())
}
