package app

import (
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Issuer     string // Optional: issuer claim for access and challenge tokens (default: fieldbank-credentials)
	SigningKey string // Required outside dev: HMAC key for tokens, at least 32 bytes

	DatabaseDriver string // Optional: sqlite or postgres (default: sqlite)
	DatabaseFile   string // Optional: path to SQLite database file (default: ./credentials.db)
	DatabaseURL    string // Required for postgres: DSN passed to pgx

	PepperFile    string // Optional: path to file containing pepper for password hashing (default: ./pepper)
	MasterKeyPath string // Optional: path to master key that seals stored tokens (falls back to MASTER_KEY)

	AppBaseURL string // Required: dashboard origin that activation links point at
	Mailer     string // Optional: smtp, ses or log (default: log)

	RedisAddr     string // Optional: when set, OTP limits are shared through Redis
	RedisPassword string // Optional

	OTPSendWindow   time.Duration // Optional: OTP send window (default: 1h)
	OTPSendMax      int           // Optional: sends per window (default: 5)
	OTPSendCooldown time.Duration // Optional: minimum gap between sends (default: 60s)
	OTPVerifyMax    int           // Optional: verification attempts per window (default: 10)

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	LogOutput            io.Writer     // Not read from the environment; nil means stdout
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	ReconcileInterval    time.Duration // Reconciler interval (default: 15m)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

// LoadConfig reads the environment, after loading a .env file when one is
// present in the working directory.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to load .env file", "error", err)
	}

	cfg := Config{
		Issuer:     getEnvOrDefault("ISSUER", "fieldbank-credentials"),
		SigningKey: os.Getenv("SIGNING_KEY"),

		DatabaseDriver: getEnvOrDefault("DATABASE_DRIVER", "sqlite"),
		DatabaseFile:   getEnvOrDefault("DATABASE_FILE", "credentials.db"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),

		PepperFile:    getEnvOrDefault("PEPPER_FILE", "pepper"),
		MasterKeyPath: os.Getenv("MASTER_KEY_PATH"),

		AppBaseURL: getEnvOrDefault("APP_BASE_URL", "http://localhost:3000"),
		Mailer:     getEnvOrDefault("MAILER", "log"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		OTPSendWindow:   getEnvDurationOrDefault("OTP_SEND_WINDOW", time.Hour),
		OTPSendMax:      getEnvIntOrDefault("OTP_SEND_MAX", 5),
		OTPSendCooldown: getEnvDurationOrDefault("OTP_SEND_COOLDOWN", 60*time.Second),
		OTPVerifyMax:    getEnvIntOrDefault("OTP_VERIFY_MAX", 10),

		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		ReconcileInterval:    getEnvDurationOrDefault("RECONCILE_INTERVAL", 15*time.Minute),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Bare integers are minutes
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
