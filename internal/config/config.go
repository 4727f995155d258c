package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"
)

const devJWTSecret = "dev-secret-change-in-production"

type Config struct {
	Port        string
	Env         string
	DBDriver    string
	DatabaseDSN string
	JWTSecret   string
	CORSOrigin  string
	RedisURL    string

	// Token lifetimes chosen at issuance; signup tokens are short-lived.
	SignupTokenExpiry time.Duration
	SigninTokenExpiry time.Duration

	PredictURL       string
	HeatmapURL       string
	InferenceTimeout time.Duration

	UploadDir      string
	MaxUploadBytes int64
}

func Load() Config {
	cfg := Config{
		Port:              getEnv("PORT", "4000"),
		Env:               getEnv("ENV", "development"),
		DBDriver:          getEnv("DB_DRIVER", "mysql"),
		DatabaseDSN:       getEnv("DATABASE_DSN", "root:password@tcp(127.0.0.1:3306)/plantcare?parseTime=true&clientFoundRows=true"),
		JWTSecret:         getEnv("JWT_SECRET", devJWTSecret),
		CORSOrigin:        getEnv("CORS_ORIGIN", "*"),
		RedisURL:          getEnv("REDIS_URL", ""),
		SignupTokenExpiry: time.Hour,
		SigninTokenExpiry: 5 * time.Hour,
		PredictURL:        getEnv("FLASK_API_URL", "http://127.0.0.1:5000/predict"),
		HeatmapURL:        getEnv("FLASK_API_GRADCAM", "http://127.0.0.1:5000/gradcam"),
		InferenceTimeout:  getEnvDuration("INFERENCE_TIMEOUT", 30*time.Second),
		UploadDir:         getEnv("UPLOAD_DIR", os.TempDir()),
		MaxUploadBytes:    getEnvInt64("MAX_UPLOAD_BYTES", 10<<20),
	}

	if cfg.IsProduction() && cfg.JWTSecret == devJWTSecret {
		slog.Error("JWT_SECRET must be set in production environment")
		os.Exit(1)
	}

	return cfg
}

func (c Config) IsProduction() bool { return c.Env == "production" }

// IsTest reports whether the process runs under the test environment, where
// an unreachable database is not fatal.
func (c Config) IsTest() bool { return c.Env == "test" }

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		slog.Warn("ignoring invalid duration", "key", key, "value", v)
		return fallback
	}
	return d
}

func getEnvInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n <= 0 {
		slog.Warn("ignoring invalid integer", "key", key, "value", v)
		return fallback
	}
	return n
}
