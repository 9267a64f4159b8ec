package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port      string
	AppEnv    string
	Version   string
	LogLevel  string
	LogFormat string

	DBDriver   string // postgres | sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	SQLitePath string

	// Captcha session store; empty RedisAddr keeps challenges in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	CaptchaTTL    time.Duration

	// Admin auth
	JWTSecret             string
	RefreshJWTSecret      string
	AccessTokenTTLMinutes int
	RefreshTokenTTLDays   int
	AdminEmail            string
	AdminPassword         string
	AdminFullName         string

	// Anti-forgery tokens for the public form
	FormSecret   string
	FormTokenTTL time.Duration

	// Outbound channels
	TelegramAPIURL   string
	BotTimeout       time.Duration
	BotRatePerSecond int
	AntiSpamURL      string
	AntiSpamTimeout  time.Duration

	EmailTransport string // none | ses | smtp
	EmailFrom      string
	AWSRegion      string
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string

	SentryDSN string

	// Proxies whose X-Forwarded-For is believed; empty means the peer address
	// is the client IP.
	TrustedProxies []string
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Port:      v.GetString("PORT"),
		AppEnv:    v.GetString("APP_ENV"),
		Version:   v.GetString("VERSION"),
		LogLevel:  strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat: strings.ToLower(v.GetString("LOG_FORMAT")),

		DBDriver:   strings.ToLower(v.GetString("DB_DRIVER")),
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),
		SQLitePath: v.GetString("SQLITE_PATH"),

		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),
		CaptchaTTL:    v.GetDuration("CAPTCHA_TTL"),

		JWTSecret:             v.GetString("JWT_SECRET"),
		RefreshJWTSecret:      v.GetString("REFRESH_JWT_SECRET"),
		AccessTokenTTLMinutes: v.GetInt("ACCESS_TOKEN_TTL_MINUTES"),
		RefreshTokenTTLDays:   v.GetInt("REFRESH_TOKEN_TTL_DAYS"),
		AdminEmail:            v.GetString("ADMIN_EMAIL"),
		AdminPassword:         v.GetString("ADMIN_PASSWORD"),
		AdminFullName:         v.GetString("ADMIN_FULL_NAME"),

		FormSecret:   v.GetString("FORM_SECRET"),
		FormTokenTTL: v.GetDuration("FORM_TOKEN_TTL"),

		TelegramAPIURL:   v.GetString("TELEGRAM_API_URL"),
		BotTimeout:       v.GetDuration("BOT_TIMEOUT"),
		BotRatePerSecond: v.GetInt("BOT_RATE_PER_SECOND"),
		AntiSpamURL:      v.GetString("ANTISPAM_URL"),
		AntiSpamTimeout:  v.GetDuration("ANTISPAM_TIMEOUT"),

		EmailTransport: strings.ToLower(v.GetString("EMAIL_TRANSPORT")),
		EmailFrom:      v.GetString("EMAIL_FROM"),
		AWSRegion:      v.GetString("AWS_REGION"),
		SMTPHost:       v.GetString("SMTP_HOST"),
		SMTPPort:       v.GetInt("SMTP_PORT"),
		SMTPUsername:   v.GetString("SMTP_USERNAME"),
		SMTPPassword:   v.GetString("SMTP_PASSWORD"),

		SentryDSN: v.GetString("SENTRY_DSN"),

		TrustedProxies: splitList(v.GetString("TRUSTED_PROXIES")),
	}
	// refresh secret falls back to the access secret, as before
	if cfg.RefreshJWTSecret == "" {
		cfg.RefreshJWTSecret = cfg.JWTSecret
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// splitList parses a comma separated env value, dropping empty entries.
func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("VERSION", "dev")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")

	v.SetDefault("DB_DRIVER", "postgres")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tcf_db")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("SQLITE_PATH", "tcf.db")

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CAPTCHA_TTL", "30m")

	v.SetDefault("JWT_SECRET", "supersecret_change_me")
	v.SetDefault("ACCESS_TOKEN_TTL_MINUTES", 15)
	v.SetDefault("REFRESH_TOKEN_TTL_DAYS", 30)
	v.SetDefault("ADMIN_EMAIL", "admin@example.com")
	v.SetDefault("ADMIN_PASSWORD", "admin123")
	v.SetDefault("ADMIN_FULL_NAME", "Administrator")

	v.SetDefault("FORM_SECRET", "form_secret_change_me")
	v.SetDefault("FORM_TOKEN_TTL", "2h")

	v.SetDefault("TELEGRAM_API_URL", "https://api.telegram.org")
	v.SetDefault("BOT_TIMEOUT", "10s")
	v.SetDefault("BOT_RATE_PER_SECOND", 20)
	v.SetDefault("ANTISPAM_TIMEOUT", "5s")

	v.SetDefault("EMAIL_TRANSPORT", "none")
	v.SetDefault("EMAIL_FROM", "no-reply@example.com")
	v.SetDefault("AWS_REGION", "us-east-1")
	v.SetDefault("SMTP_PORT", 587)
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unsupported DB_DRIVER: %s", c.DBDriver)
	}
	switch c.EmailTransport {
	case "none", "ses":
	case "smtp":
		if c.SMTPHost == "" {
			return fmt.Errorf("SMTP_HOST is required when EMAIL_TRANSPORT=smtp")
		}
	default:
		return fmt.Errorf("unsupported EMAIL_TRANSPORT: %s", c.EmailTransport)
	}
	if c.CaptchaTTL <= 0 {
		return fmt.Errorf("CAPTCHA_TTL must be positive")
	}
	if c.FormTokenTTL <= 0 {
		return fmt.Errorf("FORM_TOKEN_TTL must be positive")
	}
	if c.BotTimeout <= 0 {
		return fmt.Errorf("BOT_TIMEOUT must be positive")
	}
	if c.IsProduction() {
		if c.JWTSecret == "" || c.JWTSecret == "supersecret_change_me" {
			return fmt.Errorf("JWT_SECRET must be set in production")
		}
		if c.FormSecret == "" || c.FormSecret == "form_secret_change_me" {
			return fmt.Errorf("FORM_SECRET must be set in production")
		}
		if c.AdminPassword == "" || c.AdminPassword == "admin123" {
			return fmt.Errorf("ADMIN_PASSWORD must be set in production")
		}
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func (c *Config) AccessTTL() time.Duration {
	if c.AccessTokenTTLMinutes <= 0 {
		return 15 * time.Minute
	}
	return time.Duration(c.AccessTokenTTLMinutes) * time.Minute
}

func (c *Config) RefreshTTL() time.Duration {
	if c.RefreshTokenTTLDays <= 0 {
		return 30 * 24 * time.Hour
	}
	return time.Duration(c.RefreshTokenTTLDays) * 24 * time.Hour
}
