package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// ErrInvalidConfig marks configuration that fails validation.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config aggregates runtime configuration for the service.
type Config struct {
	App        AppConfig
	Postgres   PostgresConfig
	Redis      RedisConfig
	Logger     LoggerConfig
	Auth       AuthConfig
	Escalation EscalationConfig
	Duplicate  DuplicateConfig
	Reference  ReferenceConfig
	NATS       NATSConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines operator token parameters.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
}

// EscalationConfig tunes the periodic sweep.
type EscalationConfig struct {
	Enabled                    bool
	SweepIntervalSeconds       int
	Workers                    int
	IssueTimeoutSeconds        int
	L3Multiplier               float64
	L4Multiplier               float64
	UnassignedResolutionFactor float64
}

// DuplicateConfig tunes proximity matching.
type DuplicateConfig struct {
	RadiusMeters float64
}

// ReferenceConfig locates reference data.
type ReferenceConfig struct {
	RefreshIntervalSeconds int
	RulesPath              string
	SeedPath               string
	CacheKey               string
	CacheTTLSeconds        int
}

// NATSConfig configures the optional event broker.
type NATSConfig struct {
	URL           string
	SubjectPrefix string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	maxConns := int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10))
	minConns := int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2))
	runMigrations := getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true)
	connMaxIdle := int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30))
	connMaxLife := int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300))

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "tarisa-core"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       maxConns,
			MinConns:       minConns,
			RunMigrations:  runMigrations,
			ConnMaxIdleSec: connMaxIdle,
			ConnMaxLifeSec: connMaxLife,
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
		},
		Escalation: EscalationConfig{
			Enabled:                    getEnvAsBool("ESCALATION_ENABLED", true),
			SweepIntervalSeconds:       getEnvAsInt("ESCALATION_SWEEP_INTERVAL_SECONDS", 300),
			Workers:                    getEnvAsInt("ESCALATION_WORKERS", 8),
			IssueTimeoutSeconds:        getEnvAsInt("ESCALATION_ISSUE_TIMEOUT_SECONDS", 10),
			L3Multiplier:               getEnvAsFloat("ESCALATION_L3_MULTIPLIER", 2),
			L4Multiplier:               getEnvAsFloat("ESCALATION_L4_MULTIPLIER", 3),
			UnassignedResolutionFactor: getEnvAsFloat("ESCALATION_UNASSIGNED_RESOLUTION_FACTOR", 2),
		},
		Duplicate: DuplicateConfig{
			RadiusMeters: getEnvAsFloat("DUPLICATE_RADIUS_METERS", 100),
		},
		Reference: ReferenceConfig{
			RefreshIntervalSeconds: getEnvAsInt("REFERENCE_REFRESH_INTERVAL_SECONDS", 600),
			RulesPath:              os.Getenv("REFERENCE_RULES_PATH"),
			SeedPath:               os.Getenv("REFERENCE_SEED_PATH"),
			CacheKey:               getEnv("REFERENCE_CACHE_KEY", "tarisa:reference:snapshot"),
			CacheTTLSeconds:        getEnvAsInt("REFERENCE_CACHE_TTL_SECONDS", 86400),
		},
		NATS: NATSConfig{
			URL:           os.Getenv("NATS_URL"),
			SubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "tarisa.events"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with.
func (c *Config) Validate() error {
	e := c.Escalation
	switch {
	case e.SweepIntervalSeconds <= 0:
		return fmt.Errorf("%w: ESCALATION_SWEEP_INTERVAL_SECONDS must be positive", ErrInvalidConfig)
	case e.Workers <= 0:
		return fmt.Errorf("%w: ESCALATION_WORKERS must be positive", ErrInvalidConfig)
	case e.IssueTimeoutSeconds <= 0:
		return fmt.Errorf("%w: ESCALATION_ISSUE_TIMEOUT_SECONDS must be positive", ErrInvalidConfig)
	case e.L3Multiplier <= 1:
		return fmt.Errorf("%w: ESCALATION_L3_MULTIPLIER must exceed 1", ErrInvalidConfig)
	case e.L4Multiplier <= e.L3Multiplier:
		return fmt.Errorf("%w: ESCALATION_L4_MULTIPLIER must exceed ESCALATION_L3_MULTIPLIER", ErrInvalidConfig)
	case e.UnassignedResolutionFactor <= 0:
		return fmt.Errorf("%w: ESCALATION_UNASSIGNED_RESOLUTION_FACTOR must be positive", ErrInvalidConfig)
	case c.Duplicate.RadiusMeters <= 0:
		return fmt.Errorf("%w: DUPLICATE_RADIUS_METERS must be positive", ErrInvalidConfig)
	case c.Reference.RefreshIntervalSeconds <= 0:
		return fmt.Errorf("%w: REFERENCE_REFRESH_INTERVAL_SECONDS must be positive", ErrInvalidConfig)
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// SweepInterval returns the sweep period.
func (e EscalationConfig) SweepInterval() time.Duration {
	return time.Duration(e.SweepIntervalSeconds) * time.Second
}

// IssueTimeout returns the per issue check budget.
func (e EscalationConfig) IssueTimeout() time.Duration {
	return time.Duration(e.IssueTimeoutSeconds) * time.Second
}

// RefreshInterval returns the reference reload period.
func (r ReferenceConfig) RefreshInterval() time.Duration {
	return time.Duration(r.RefreshIntervalSeconds) * time.Second
}

// CacheTTL returns how long the cached snapshot lives in Redis.
func (r ReferenceConfig) CacheTTL() time.Duration {
	return time.Duration(r.CacheTTLSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
