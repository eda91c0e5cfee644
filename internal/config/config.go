package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	App       AppConfig
	Timer     TimerConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port          string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	IdleTimeout   time.Duration
	ActionDeadline time.Duration
}

// TimerConfig controls the draft session countdown engine.
type TimerConfig struct {
	GraceSeconds      float64
	TickInterval      time.Duration
	HeartbeatInterval time.Duration
}

// RateLimitConfig controls the two token buckets the draft core exposes.
type RateLimitConfig struct {
	ActionsPerSecond    float64
	ActionsBurst        int
	MutationsPerSecond  float64
	MutationsBurst      int
}

type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	MaxConns    int32
	MinConns    int32
	MaxConnAge  time.Duration
	ConnTimeout time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret              string
	AccessTokenExpiry   time.Duration
	RefreshTokenExpiry  time.Duration
}

type AppConfig struct {
	Environment string
	LogLevel    string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}

	// Server configuration
	cfg.Server.Port = getEnv("API_PORT", "8080")
	cfg.Server.ReadTimeout = getDurationEnv("SERVER_READ_TIMEOUT", 15*time.Second)
	cfg.Server.WriteTimeout = getDurationEnv("SERVER_WRITE_TIMEOUT", 15*time.Second)
	cfg.Server.IdleTimeout = getDurationEnv("SERVER_IDLE_TIMEOUT", 60*time.Second)
	cfg.Server.ActionDeadline = getDurationEnv("SERVER_ACTION_DEADLINE", 10*time.Second)

	// Database configuration
	cfg.Database.Host = getEnv("POSTGRES_HOST", "localhost")
	cfg.Database.Port = getEnv("POSTGRES_PORT", "5432")
	cfg.Database.User = getEnv("POSTGRES_USER", "app_user")
	cfg.Database.Password = getEnv("POSTGRES_PASSWORD", "secure_password")
	cfg.Database.Name = getEnv("POSTGRES_DB", "draftarena")
	cfg.Database.SSLMode = getEnv("POSTGRES_SSLMODE", "disable")
	cfg.Database.MaxConns = int32(getIntEnv("POSTGRES_MAX_CONNS", 20))
	cfg.Database.MinConns = int32(getIntEnv("POSTGRES_MIN_CONNS", 5))
	cfg.Database.MaxConnAge = getDurationEnv("POSTGRES_MAX_CONN_AGE", 30*time.Minute)
	cfg.Database.ConnTimeout = getDurationEnv("POSTGRES_CONN_TIMEOUT", 10*time.Second)

	// Redis configuration
	cfg.Redis.Host = getEnv("REDIS_HOST", "localhost")
	cfg.Redis.Port = getEnv("REDIS_PORT", "6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = getIntEnv("REDIS_DB", 0)

	// JWT configuration
	cfg.JWT.Secret = getEnv("JWT_SECRET", "")
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	cfg.JWT.AccessTokenExpiry = getDurationEnv("JWT_ACCESS_TOKEN_EXPIRY", 15*time.Minute)
	cfg.JWT.RefreshTokenExpiry = getDurationEnv("JWT_REFRESH_TOKEN_EXPIRY", 7*24*time.Hour)

	// App configuration
	cfg.App.Environment = getEnv("ENV", "development")
	cfg.App.LogLevel = getEnv("LOG_LEVEL", "info")

	// Draft timer configuration
	cfg.Timer.GraceSeconds = getFloatEnv("DRAFT_TIMER_GRACE_SECONDS", 30)
	cfg.Timer.TickInterval = getDurationEnv("DRAFT_TIMER_TICK_INTERVAL", 250*time.Millisecond)
	cfg.Timer.HeartbeatInterval = getDurationEnv("DRAFT_STREAM_HEARTBEAT_INTERVAL", 25*time.Second)

	// Rate limit configuration (the two buckets the draft core exposes)
	cfg.RateLimit.ActionsPerSecond = getFloatEnv("RATE_LIMIT_ACTIONS_PER_SECOND", 2)
	cfg.RateLimit.ActionsBurst = getIntEnv("RATE_LIMIT_ACTIONS_BURST", 5)
	cfg.RateLimit.MutationsPerSecond = getFloatEnv("RATE_LIMIT_MUTATIONS_PER_SECOND", 1)
	cfg.RateLimit.MutationsBurst = getIntEnv("RATE_LIMIT_MUTATIONS_BURST", 3)

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}