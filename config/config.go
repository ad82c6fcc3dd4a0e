package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Port      string
	Env       string
	PublicDir string
	LogLevel  string
	LogFile   string
	DBUrl     string
	// Redis Configuration (shared rate-limit counters)
	RedisURL      string
	RedisPassword string
	// Session Configuration
	SessionSecret string
	SessionTTL    time.Duration
	// Rate Limiting Configuration
	RateLimitGlobalMax     int
	RateLimitGlobalWindow  time.Duration
	ContactRateLimitMax    int
	ContactRateLimitWindow time.Duration
	ContactSubmitDelay     time.Duration
	ContactPersist         bool
	CORSAllowedOrigins     []string
	// Proxies allowed to set X-Forwarded-For; empty means the socket peer is the client
	TrustedProxies  []string
	SecurityLogToDB bool
	// SMTP Configuration (contact notifications)
	SMTPHost       string
	SMTPPort       int
	SMTPUsername   string
	SMTPPassword   string
	SMTPFromEmail  string
	ContactEmailTo string
}

func LoadConfig() (*Config, error) {
	// .env is optional; real environment variables always win.
	_ = godotenv.Load()

	cfg := &Config{
		Port:      getEnv("PORT", "3000"),
		Env:       strings.ToLower(getEnv("APP_ENV", EnvDevelopment)),
		PublicDir: getEnv("PUBLIC_DIR", "public"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFile:   getEnv("LOG_FILE", ""),
		DBUrl:     getEnv("DATABASE_URL", ""),
		// Redis Configuration
		RedisURL:      getEnv("REDIS_URL", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		// Session Configuration
		SessionSecret: getEnv("SESSION_SECRET", ""),
		SessionTTL:    time.Duration(getEnvInt("SESSION_TTL_HOURS", 14*24)) * time.Hour,
		// Rate Limiting Configuration
		RateLimitGlobalMax:     getEnvInt("RATE_LIMIT_GLOBAL_MAX", 100),
		RateLimitGlobalWindow:  time.Duration(getEnvInt("RATE_LIMIT_GLOBAL_WINDOW_MINUTES", 15)) * time.Minute,
		ContactRateLimitMax:    getEnvInt("CONTACT_RATE_LIMIT_MAX", 5),
		ContactRateLimitWindow: time.Duration(getEnvInt("CONTACT_RATE_LIMIT_WINDOW_MINUTES", 60)) * time.Minute,
		ContactSubmitDelay:     time.Duration(getEnvInt("CONTACT_SUBMIT_DELAY_MS", 1000)) * time.Millisecond,
		ContactPersist:         getEnvBool("CONTACT_PERSIST", false),
		CORSAllowedOrigins:     getEnvList("CORS_ALLOWED_ORIGINS"),
		TrustedProxies:         getEnvList("TRUSTED_PROXIES"),
		SecurityLogToDB:        getEnvBool("SECURITY_LOG_TO_DB", false),
		// SMTP Configuration
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnvInt("SMTP_PORT", 587),
		SMTPUsername:   getEnv("SMTP_USERNAME", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SMTPFromEmail:  getEnv("SMTP_FROM_EMAIL", ""),
		ContactEmailTo: getEnv("CONTACT_EMAIL_TO", ""),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// IsProduction reports whether APP_ENV selects the production profile.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Validate rejects configurations that are unsafe to run with.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("config: PORT must not be empty")
	}
	if c.ContactRateLimitMax <= 0 || c.RateLimitGlobalMax <= 0 {
		return errors.New("config: rate limit maximums must be positive")
	}
	if c.ContactRateLimitWindow <= 0 || c.RateLimitGlobalWindow <= 0 {
		return errors.New("config: rate limit windows must be positive")
	}
	if c.IsProduction() && c.SessionSecret == "" {
		return errors.New("config: SESSION_SECRET is required when APP_ENV=production")
	}
	if c.ContactPersist && c.DBUrl == "" {
		return errors.New("config: CONTACT_PERSIST requires DATABASE_URL")
	}
	return nil
}

// Warnings lists the insecure or per-process fallbacks the current
// configuration falls back to. They are logged at startup.
func (c *Config) Warnings() []string {
	var warnings []string
	if c.SessionSecret == "" {
		warnings = append(warnings, "SESSION_SECRET not set: using a random per-process secret, sessions will not survive restarts")
	}
	if c.RedisURL == "" {
		warnings = append(warnings, "REDIS_URL not set: rate limiting uses in-memory counters local to this process")
	}
	if c.DBUrl == "" {
		warnings = append(warnings, "DATABASE_URL not set: sessions are kept in memory")
	}
	if c.SecurityLogToDB && c.DBUrl == "" {
		warnings = append(warnings, "SECURITY_LOG_TO_DB ignored: DATABASE_URL not set")
	}
	return warnings
}

// SMTPConfigured reports whether contact notifications can be sent.
func (c *Config) SMTPConfigured() bool {
	return c.SMTPHost != "" && c.SMTPUsername != "" && c.SMTPPassword != "" && c.ContactEmailTo != ""
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt returns an integer environment variable or fallback if not set/invalid
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool returns a boolean environment variable or fallback if not set/invalid
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// getEnvList splits a comma separated variable, dropping blanks.
func getEnvList(key string) []string {
	value, exists := os.LookupEnv(key)
	if !exists {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.TrimRight(part, "/"))
		}
	}
	return out
}
