// Package config provides environment-based configuration for Latchkey.
//
// Configuration is loaded from environment variables using Viper, with
// sensible defaults for development.
//
// # Environment Variables
//
//   - DB_TYPE: Database type (sqlite, postgres, mysql). Default: sqlite
//   - DSN: Database connection string. Default: latchkey.db
//   - LOG_LEVEL: Logging level (debug, info, warn, error). Default: info
//   - PORT: HTTP server port. Default: 8080
//   - TOKEN_DURATION: Token lifetime in seconds. Default: 1800
//   - EMAIL_TOKEN_LENGTH: Length of email tokens. Default: 8
//   - SMS_TOKEN_LENGTH: Length of SMS codes. Default: 6
//   - SINGLE_USE_LINK: Delete tokens on first exchange attempt. Default: false
//   - DISABLE_USER_CREATION: Never auto-provision accounts. Default: false
//   - REQUIRE_ADMIN_APPROVAL: Gate new tokens on admin approval. Default: false
//
// Delivery and session settings (SMTP_*, SMS_*, SESSION_SECRET,
// REDIS_ADDR) follow the same pattern; see the struct fields.
package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	DBType   string `mapstructure:"DB_TYPE"` // sqlite, postgres, mysql
	DSN      string `mapstructure:"DSN"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	Port     int    `mapstructure:"PORT"`

	// Token policy.
	TokenDurationSeconds int  `mapstructure:"TOKEN_DURATION"`
	EmailTokenLength     int  `mapstructure:"EMAIL_TOKEN_LENGTH"`
	SMSTokenLength       int  `mapstructure:"SMS_TOKEN_LENGTH"`
	SingleUseLink        bool `mapstructure:"SINGLE_USE_LINK"`
	DisableUserCreation  bool `mapstructure:"DISABLE_USER_CREATION"`
	RequireAdminApproval bool `mapstructure:"REQUIRE_ADMIN_APPROVAL"`

	// Presentation.
	SiteName     string `mapstructure:"SITE_NAME"`
	SupportEmail string `mapstructure:"SUPPORT_EMAIL"`
	LoginURL     string `mapstructure:"LOGIN_URL"`

	// Email delivery.
	SMTPHost  string `mapstructure:"SMTP_HOST"`
	SMTPPort  int    `mapstructure:"SMTP_PORT"`
	SMTPUser  string `mapstructure:"SMTP_USER"`
	SMTPPass  string `mapstructure:"SMTP_PASS"`
	FromEmail string `mapstructure:"FROM_EMAIL"`

	// SMS delivery (Twilio-compatible REST API).
	SMSAccountSID string `mapstructure:"SMS_ACCOUNT_SID"`
	SMSAuthToken  string `mapstructure:"SMS_AUTH_TOKEN"`
	SMSFromNumber string `mapstructure:"SMS_FROM_NUMBER"`

	// Sessions and rate limiting.
	SessionSecret string `mapstructure:"SESSION_SECRET"`
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
}

// TokenDuration returns the configured token lifetime.
func (c *Config) TokenDuration() time.Duration {
	return time.Duration(c.TokenDurationSeconds) * time.Second
}

// SMSEnabled reports whether SMS delivery is fully configured.
func (c *Config) SMSEnabled() bool {
	return c.SMSAccountSID != "" && c.SMSAuthToken != "" && c.SMSFromNumber != ""
}

func LoadConfig() (*Config, error) {
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("DB_TYPE", "sqlite")
	viper.SetDefault("DSN", "latchkey.db")
	viper.SetDefault("TOKEN_DURATION", 30*60)
	viper.SetDefault("EMAIL_TOKEN_LENGTH", 8)
	viper.SetDefault("SMS_TOKEN_LENGTH", 6)
	viper.SetDefault("SINGLE_USE_LINK", false)
	viper.SetDefault("DISABLE_USER_CREATION", false)
	viper.SetDefault("REQUIRE_ADMIN_APPROVAL", false)
	viper.SetDefault("SITE_NAME", "Latchkey")
	viper.SetDefault("LOGIN_URL", "/auth/token")
	viper.SetDefault("SMTP_PORT", 587)

	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// AutomaticEnv alone does not surface env-only keys to Unmarshal;
	// every key without a default must be bound explicitly.
	for _, key := range []string{
		"SUPPORT_EMAIL",
		"SMTP_HOST", "SMTP_USER", "SMTP_PASS", "FROM_EMAIL",
		"SMS_ACCOUNT_SID", "SMS_AUTH_TOKEN", "SMS_FROM_NUMBER",
		"SESSION_SECRET", "REDIS_ADDR",
	} {
		if err := viper.BindEnv(key); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
