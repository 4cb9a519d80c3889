package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		UI
		Auth
		Loans
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		Path string
	}
	UI struct {
		TemplatesPath string
	}
	Auth struct {
		SessionSecret   string
		SessionLifetime time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		MaxLoginAttempts int           // Failed attempts before lockout (default: 5)
		LockoutDuration  time.Duration // How long a locked account stays locked (default: 30m)
	}
	Loans struct {
		PeriodDays int // Loan period applied to every new borrowing
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8190)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("templates_path", "./templates")

	// Auth defaults
	v.SetDefault("auth_session_secret", "") // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_lockout_duration", "30m")

	// Lending defaults
	v.SetDefault("loan_period_days", DefaultLoanPeriodDays)

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		UI: UI{
			TemplatesPath: v.GetString("TEMPLATES_PATH"),
		},
		Auth: Auth{
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Loans: Loans{
			PeriodDays: v.GetInt("LOAN_PERIOD_DAYS"),
		},
	}
}
