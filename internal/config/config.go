package config

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env        string
	Port       int
	DBURL      string
	DBMaxConns int

	JWTSecret   string
	JWTTTLHours int

	AdminUsername string
	AdminEmail    string
	AdminPassword string

	CORSAllowedOrigins []string
	MaxBodyBytes       int64

	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	LoginRateLimit int

	OTelEndpoint    string
	OTelSampleRatio float64
}

const devJWTSecret = "chairgo-dev-secret"

var ErrMissingJWTSecret = errors.New("JWT_SECRET must be set outside dev")

func Load() Config {
	// a missing .env is fine, the process environment wins anyway
	_ = godotenv.Load()

	return Config{
		Env:        getEnv("APP_ENV", "dev"),
		Port:       getEnvInt("PORT", 8080),
		DBURL:      buildDBURL(),
		DBMaxConns: getEnvInt("DB_MAX_CONNS", 10),

		JWTSecret:   getEnv("JWT_SECRET", ""),
		JWTTTLHours: getEnvInt("JWT_TTL_HOURS", 24),

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "admin@chairgo.local"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),
		MaxBodyBytes:       int64(getEnvInt("MAX_BODY_BYTES", 1<<20)),

		RedisAddr:      getEnv("REDIS_ADDR", ""),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getEnvInt("REDIS_DB", 0),
		LoginRateLimit: getEnvInt("LOGIN_RATE_LIMIT", 10),

		OTelEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTelSampleRatio: getEnvFloat("OTEL_TRACES_SAMPLER_RATIO", 1),
	}
}

// Validate fills dev defaults and rejects configs that are unsafe to serve with.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		if c.Env != "dev" && c.Env != "test" && c.Env != "memory" {
			return ErrMissingJWTSecret
		}
		c.JWTSecret = devJWTSecret
	}
	if c.JWTTTLHours <= 0 {
		c.JWTTTLHours = 24
	}
	return nil
}

func (c Config) JWTTTL() time.Duration {
	return time.Duration(c.JWTTTLHours) * time.Hour
}

func (c Config) UseMemoryStore() bool {
	return c.Env == "memory"
}

func buildDBURL() string {
	if url := getEnv("DATABASE_URL", ""); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "chairgo")
	pass := getEnv("DB_PASSWORD", "chairgo")
	name := getEnv("DB_NAME", "chairgo")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			slog.Warn("invalid integer env, using default", "key", key, "value", v)
			return fallback
		}

		return num
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			slog.Warn("invalid float env, using default", "key", key, "value", v)
			return fallback
		}
		return f
	}
	return fallback
}

func (c Config) IsProd() bool {
	return c.Env == "prod" || c.Env == "production"
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
