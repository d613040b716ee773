package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"edusaas-checkout-api/database"
	"edusaas-checkout-api/services/email"
)

type Config struct {
	Database    database.DatabaseConfig
	SMTP        email.SMTPConfig
	Server      ServerConfig
	Redis       RedisConfig
	Session     SessionConfig
	Activation  ActivationConfig
	Submission  SubmissionConfig
	Log         LogConfig
	Catalog     CatalogConfig
	Preferences PreferencesConfig
}

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	Dev            bool

	// MetricsAllowedIPs restricts /metrics; empty allows every client.
	MetricsAllowedIPs []string

	// InternalAllowedIPs restricts the /internal operator routes.
	InternalAllowedIPs []string
}

type RedisConfig struct {
	URL               string
	WorkerConcurrency int
	QueueName         string
	// Disabled runs without Redis: no newsletter queue and no rate limiting.
	Disabled bool
}

type SessionConfig struct {
	CookieName    string
	Secret        string
	IdleTimeout   time.Duration
	SweepInterval time.Duration
	Secure        bool
}

type ActivationConfig struct {
	Secret        string
	Issuer        string
	TokenDuration time.Duration
}

// SubmissionConfig selects the testimonial and newsletter backend.
// Mode is "simulated" or "http".
type SubmissionConfig struct {
	Mode       string
	APIBaseURL string
	Delay      time.Duration
	Fail       bool

	// AutoApprove makes simulated testimonials visible in the latest list.
	AutoApprove bool
}

type LogConfig struct {
	Level    string
	Format   string
	Sampling bool
}

type CatalogConfig struct {
	File string
}

// PreferencesConfig selects the preference store: "memory", "redis" or "mysql".
type PreferencesConfig struct {
	Backend string
	TTL     time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}
	return FromEnv()
}

// FromEnv builds the config from the process environment only.
func FromEnv() *Config {
	cfg := &Config{
		Database: database.DatabaseConfig{
			Host:     os.Getenv("DB_HOST"),
			User:     os.Getenv("DB_USER"),
			Password: os.Getenv("DB_PASSWORD"),
			DBName:   os.Getenv("DB_NAME"),
		},
		SMTP: email.SMTPConfig{
			Host:        getEnv("SMTP_HOST", "localhost"),
			Port:        getEnvInt("SMTP_PORT", 587),
			Username:    os.Getenv("SMTP_USER"),
			Password:    os.Getenv("SMTP_PASSWORD"),
			FromAddress: getEnv("SMTP_FROM_ADDRESS", "no-reply@edusaas.local"),
			FromName:    getEnv("SMTP_FROM_NAME", "EduSaaS"),
			BaseURL:     getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),
		},
		Server: ServerConfig{
			Port:               getEnv("SERVER_PORT", "8080"),
			AllowedOrigins:     getEnvList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			Dev:                getEnvBool("DEV", false),
			MetricsAllowedIPs:  getEnvList("METRICS_ALLOWED_IPS", nil),
			InternalAllowedIPs: getEnvList("INTERNAL_ALLOWED_IPS", []string{"127.0.0.1", "::1"}),
		},
		Redis: RedisConfig{
			URL:               getEnv("REDIS_URL", "redis://localhost:6379/0"),
			WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 2),
			QueueName:         getEnv("QUEUE_NAME", "checkout_jobs"),
			Disabled:          getEnvBool("REDIS_DISABLED", false),
		},
		Session: SessionConfig{
			CookieName:    getEnv("SESSION_COOKIE_NAME", "edusaas_checkout"),
			Secret:        getEnv("SESSION_SECRET", "dev-session-secret-change-me-0000"),
			IdleTimeout:   getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
			SweepInterval: getEnvDuration("SESSION_SWEEP_INTERVAL", time.Minute),
			Secure:        getEnvBool("SESSION_SECURE", false),
		},
		Activation: ActivationConfig{
			Secret:        getEnv("ACTIVATION_SECRET", "dev-activation-secret"),
			Issuer:        getEnv("ACTIVATION_ISSUER", "edusaas-checkout"),
			TokenDuration: getEnvDuration("ACTIVATION_TOKEN_DURATION", 24*time.Hour),
		},
		Submission: SubmissionConfig{
			Mode:        strings.ToLower(getEnv("SUBMISSION_MODE", "simulated")),
			APIBaseURL:  getEnv("API_BASE_URL", "http://localhost:5000"),
			Delay:       getEnvDuration("SUBMISSION_DELAY", time.Second),
			Fail:        getEnvBool("SUBMISSION_FAIL", false),
			AutoApprove: getEnvBool("SUBMISSION_AUTO_APPROVE", false),
		},
		Log: LogConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Format:   getEnv("LOG_FORMAT", "json"),
			Sampling: getEnvBool("LOG_SAMPLING", false),
		},
		Catalog: CatalogConfig{
			File: os.Getenv("CATALOG_FILE"),
		},
		Preferences: PreferencesConfig{
			Backend: strings.ToLower(getEnv("PREFERENCE_BACKEND", "memory")),
			TTL:     getEnvDuration("PREFERENCE_TTL", 365*24*time.Hour),
		},
	}

	if cfg.Preferences.Backend == "redis" && cfg.Redis.Disabled {
		log.Printf("Warning: PREFERENCE_BACKEND=redis with REDIS_DISABLED, falling back to memory")
		cfg.Preferences.Backend = "memory"
	}

	return cfg
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %v", key, v, def)
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("Warning: invalid %s=%q, using %s", key, v, def)
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
