package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Auth     AuthConfig
	Throttle ThrottleConfig
	Email    EmailConfig
	Admin    AdminConfig
}

type DatabaseConfig struct {
	Host              string
	Port              int
	User              string
	Password          string
	Name              string
	SSLMode           string
	MaxConns          int32
	MinConns          int32
	MaxConnLifetime   time.Duration
	MaxConnIdleTime   time.Duration
	HealthCheckPeriod time.Duration
	AutoMigrate       bool
}

type ServerConfig struct {
	Port           string
	Env            string
	LogLevel       string
	AllowedOrigins []string
	TrustedProxies []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
}

type AuthConfig struct {
	JWTSecret            string
	AccessTokenExpiry    time.Duration
	TimingDelayBaseMs    int
	TimingDelayRandomMs  int
	TimingDelayOnSuccess bool
	// HTTP-level request budgets per client IP
	LoginRequestsPerMinute  int
	StatusRequestsPerMinute int
	// HTTP-level request budget per authenticated admin
	AdminRequestsPerMinute int
}

// ThrottleConfig configures the per-identity login backoff
type ThrottleConfig struct {
	MaxAttempts      int
	InitialDelay     time.Duration
	MaxDelay         time.Duration
	MaxTier          int
	IdleTTL          time.Duration
	SweepInterval    time.Duration
	HistoryRetention time.Duration
	AuditRetention   time.Duration
}

type EmailConfig struct {
	Enabled      bool
	AWSRegion    string
	FromAddress  string
	DashboardURL string
}

// AdminConfig holds the optional bootstrap admin account
type AdminConfig struct {
	Email    string
	Password string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	jwtSecret := getEnv("JWT_SECRET", "")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	env := getEnv("ENV", "development")

	cfg := &Config{
		Database: DatabaseConfig{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvAsInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "postgres"),
			Password:          getEnv("DB_PASSWORD", ""),
			Name:              getEnv("DB_NAME", "vitrine"),
			SSLMode:           getEnv("DB_SSLMODE", "disable"),
			MaxConns:          int32(getEnvAsInt("DB_MAX_CONNS", 25)),
			MinConns:          int32(getEnvAsInt("DB_MIN_CONNS", 5)),
			MaxConnLifetime:   getEnvAsDuration("DB_MAX_CONN_LIFETIME", 5*time.Minute),
			MaxConnIdleTime:   getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 1*time.Minute),
			HealthCheckPeriod: getEnvAsDuration("DB_HEALTH_CHECK_PERIOD", 1*time.Minute),
			AutoMigrate:       getEnvAsBool("DB_AUTO_MIGRATE", true),
		},
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Env:            env,
			LogLevel:       getEnv("LOG_LEVEL", "info"),
			AllowedOrigins: parseAllowedOrigins(env),
			TrustedProxies: getEnvAsList("TRUSTED_PROXIES"),
			ReadTimeout:    getEnvAsDuration("SERVER_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:   getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:    getEnvAsDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
		},
		Auth: AuthConfig{
			JWTSecret:               jwtSecret,
			AccessTokenExpiry:       getEnvAsDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
			TimingDelayBaseMs:       getEnvAsInt("TIMING_DELAY_BASE_MS", 500),
			TimingDelayRandomMs:     getEnvAsInt("TIMING_DELAY_RANDOM_MS", 100),
			TimingDelayOnSuccess:    getEnvAsBool("TIMING_DELAY_ON_SUCCESS", false),
			LoginRequestsPerMinute:  getEnvAsInt("LOGIN_REQUESTS_PER_MINUTE", 20),
			StatusRequestsPerMinute: getEnvAsInt("STATUS_REQUESTS_PER_MINUTE", 120),
			AdminRequestsPerMinute:  getEnvAsInt("ADMIN_REQUESTS_PER_MINUTE", 120),
		},
		Throttle: ThrottleConfig{
			MaxAttempts:      getEnvAsInt("THROTTLE_MAX_ATTEMPTS", 5),
			InitialDelay:     getEnvAsDuration("THROTTLE_INITIAL_DELAY", 30*time.Second),
			MaxDelay:         getEnvAsDuration("THROTTLE_MAX_DELAY", 5*time.Minute),
			MaxTier:          getEnvAsInt("THROTTLE_MAX_TIER", 5),
			IdleTTL:          getEnvAsDuration("THROTTLE_IDLE_TTL", 24*time.Hour),
			SweepInterval:    getEnvAsDuration("THROTTLE_SWEEP_INTERVAL", 5*time.Minute),
			HistoryRetention: getEnvAsDuration("LOGIN_HISTORY_RETENTION", 30*24*time.Hour),
			AuditRetention:   time.Duration(getEnvAsInt("AUDIT_RETENTION_DAYS", 90)) * 24 * time.Hour,
		},
		Email: EmailConfig{
			Enabled:      getEnvAsBool("EMAIL_ENABLED", false),
			AWSRegion:    getEnv("AWS_REGION", "us-east-1"),
			FromAddress:  getEnv("EMAIL_FROM_ADDRESS", ""),
			DashboardURL: getEnv("DASHBOARD_URL", "http://localhost:5173"),
		},
		Admin: AdminConfig{
			Email:    getEnv("ADMIN_EMAIL", ""),
			Password: getEnv("ADMIN_PASSWORD", ""),
		},
	}

	if cfg.Database.Password == "" {
		return nil, fmt.Errorf("DB_PASSWORD is required")
	}

	// Validate JWT secret strength
	if err := validateJWTSecret(jwtSecret, env); err != nil {
		return nil, err
	}

	if cfg.Email.Enabled && cfg.Email.FromAddress == "" {
		return nil, fmt.Errorf("EMAIL_FROM_ADDRESS is required when EMAIL_ENABLED is set")
	}

	if cfg.Throttle.SweepInterval <= 0 {
		cfg.Throttle.SweepInterval = 5 * time.Minute
	}

	return cfg, nil
}

// validateJWTSecret enforces minimum security standards for JWT secret
func validateJWTSecret(secret, env string) error {
	minLength := 16
	if env == "production" {
		minLength = 32
	}

	if len(secret) < minLength {
		return fmt.Errorf("JWT_SECRET must be at least %d characters in %s environment (got %d)",
			minLength, env, len(secret))
	}

	weakSecrets := []string{
		"secret", "test", "password", "12345", "changeme",
		"admin", "root", "default", "example",
	}

	secretLower := strings.ToLower(secret)
	for _, weak := range weakSecrets {
		if secretLower == weak {
			return fmt.Errorf("JWT_SECRET cannot be a common weak value")
		}
	}

	return nil
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsList(key string) []string {
	value := getEnv(key, "")
	if value == "" {
		return nil
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func parseAllowedOrigins(env string) []string {
	if env == "production" {
		origins := getEnvAsList("ALLOWED_ORIGINS")
		if origins == nil {
			return []string{}
		}
		return origins
	}

	// Development: the dashboard dev server and local tooling
	return []string{
		"http://localhost:3000",
		"http://localhost:8080",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:8080",
		"http://127.0.0.1:5173",
	}
}
