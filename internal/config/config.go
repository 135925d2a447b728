package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/mradkov043/discite-omnes-app/internal/retry"
)

type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	Log      LogConfig
	Sync     SyncConfig
}

type DatabaseConfig struct {
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	SSLMode      string
	MaxOpenConns int
}

type ServerConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}

type LogConfig struct {
	Level string
}

type SyncConfig struct {
	WriteMaxAttempts        int
	WriteInitialBackoff     time.Duration
	WriteMaxBackoff         time.Duration
	SnapshotRefreshInterval time.Duration
	RefetchPerSecond        float64
	AtomicMembership        bool
}

func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		Database: DatabaseConfig{
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnv("DB_PORT", "5432"),
			User:         getEnv("DB_USER", "discite"),
			Password:     getEnv("DB_PASSWORD", "discite"),
			DBName:       getEnv("DB_NAME", "discite_omnes"),
			SSLMode:      getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 10),
		},
		Server: ServerConfig{
			Addr:            getEnv("SERVER_ADDR", ":8080"),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
		},
		Log: LogConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Sync: SyncConfig{
			WriteMaxAttempts:        getEnvInt("WRITE_MAX_ATTEMPTS", 4),
			WriteInitialBackoff:     getEnvDuration("WRITE_INITIAL_BACKOFF", 200*time.Millisecond),
			WriteMaxBackoff:         getEnvDuration("WRITE_MAX_BACKOFF", 2*time.Second),
			SnapshotRefreshInterval: getEnvDuration("SNAPSHOT_REFRESH_INTERVAL", 30*time.Second),
			RefetchPerSecond:        getEnvFloat("REFETCH_PER_SECOND", 10),
			AtomicMembership:        getEnvBool("ATOMIC_MEMBERSHIP", false),
		},
	}
}

// DSN возвращает строку подключения в формате key=value для pgx
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.DBName,
		c.SSLMode,
	)
}

// MigrateURL возвращает URL для golang-migrate (драйвер pgx/v5)
func (c DatabaseConfig) MigrateURL() string {
	u := url.URL{
		Scheme:   "pgx5",
		User:     url.UserPassword(c.User, c.Password),
		Host:     net.JoinHostPort(c.Host, c.Port),
		Path:     "/" + c.DBName,
		RawQuery: url.Values{"sslmode": []string{c.SSLMode}}.Encode(),
	}
	return u.String()
}

func (c SyncConfig) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts:     c.WriteMaxAttempts,
		InitialInterval: c.WriteInitialBackoff,
		MaxInterval:     c.WriteMaxBackoff,
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
