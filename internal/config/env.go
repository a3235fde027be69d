package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"bookbus/internal/utils"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Env struct {
	AppAddr string
	GinMode string

	DBHost string
	DBPort string
	DBUser string
	DBPass string
	DBName string

	JWTSecret   string
	CORSOrigins []string

	LogFile  string
	LogLevel string

	// Location used to decide what "today" means for travel dates.
	Timezone *time.Location

	CompletionInterval time.Duration
	SeatLockTimeout    time.Duration
	BookingRetries     int
	OTPTTL             time.Duration
}

// LoadEnv reads .env (when present) and the process environment.
func LoadEnv() Env {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, relying on environment")
	}

	appAddr := getEnv("APP_ADDR", ":8080")

	tz, err := time.LoadLocation(getEnv("TIMEZONE", "UTC"))
	if err != nil {
		logrus.WithError(err).Warn("invalid TIMEZONE, falling back to UTC")
		tz = time.UTC
	}

	return Env{
		AppAddr: appAddr,
		GinMode: strings.TrimSpace(os.Getenv("GIN_MODE")),

		DBHost: getEnv("DB_HOST", "127.0.0.1"),
		DBPort: getEnv("DB_PORT", "3306"),
		DBUser: getEnv("DB_USER", "root"),
		DBPass: os.Getenv("DB_PASS"),
		DBName: getEnv("DB_NAME", "bookbus"),

		JWTSecret:   getEnv("JWT_SECRET", "change-me"),
		CORSOrigins: utils.SplitList(getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000,http://localhost:5173")),

		LogFile:  getEnv("LOG_FILE", "./logs/app.log"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		Timezone: tz,

		CompletionInterval: getDuration("COMPLETION_INTERVAL", time.Hour),
		SeatLockTimeout:    getDuration("SEAT_LOCK_TIMEOUT", 5*time.Second),
		BookingRetries:     getInt("BOOKING_RETRIES", 3),
		OTPTTL:             getDuration("OTP_TTL", 10*time.Minute),
	}
}

// getEnv reads an environment variable or returns the provided default
func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && strings.TrimSpace(v) != "" {
		return strings.TrimSpace(v)
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		logrus.WithFields(logrus.Fields{"key": key, "value": raw}).Warnf("invalid duration, using %s", def)
		return def
	}
	return d
}

func getInt(key string, def int) int {
	raw := getEnv(key, "")
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		logrus.WithFields(logrus.Fields{"key": key, "value": raw}).Warnf("invalid number, using %d", def)
		return def
	}
	return n
}
