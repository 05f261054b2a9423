package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Supported database drivers
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
)

var (
	ErrMissingJWTSecret  = errors.New("JWT_SECRET is required")
	ErrUnsupportedDriver = errors.New("unsupported DB_DRIVER")
)

// Config aggregates all runtime settings of the API server.
type Config struct {
	AppName    string
	GinMode    string
	HTTP       HTTPConfig
	Database   DatabaseConfig
	JWT        JWTConfig
	Logger     LoggerConfig
	RateLimit  RateLimitConfig
	AI         AIConfig
	Migrations MigrationsConfig
}

type HTTPConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnLifetime time.Duration
	LogLevel        string
}

type JWTConfig struct {
	Secret string
	Issuer string
	// TTL of zero issues tokens without an expiry.
	TTL time.Duration
}

type LoggerConfig struct {
	Level    string
	Encoding string
}

// RateLimitConfig guards the public auth endpoints. A zero RPS disables it.
type RateLimitConfig struct {
	AuthRPS   float64
	AuthBurst int
}

type AIConfig struct {
	OpenAIAPIKey string
	Model        string
	Timeout      time.Duration
}

type MigrationsConfig struct {
	Enabled bool
}

// Load reads configuration from the environment, optionally seeded from a .env file.
func Load() *Config {
	_ = godotenv.Load(".env")

	return &Config{
		AppName: getEnv("APP_NAME", "task-nexus"),
		GinMode: getEnv("GIN_MODE", "debug"),
		HTTP: HTTPConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnv("PORT", "5000"),
			ReadTimeout:     getDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:     getDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", DriverMySQL),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "3306"),
			User:            getEnv("DB_USER", "taskuser"),
			Password:        getEnv("DB_PASSWORD", "taskpassword"),
			Name:            getEnv("DB_NAME", "task_nexus"),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DB_MAX_IDLE_CONNS", 10),
			MaxConnLifetime: getDuration("DB_CONN_LIFETIME", time.Hour),
			LogLevel:        getEnv("DB_LOG_LEVEL", "warn"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
			Issuer: getEnv("JWT_ISSUER", "task-nexus"),
			TTL:    getDuration("JWT_TTL", 0),
		},
		Logger: LoggerConfig{
			Level:    getEnv("LOG_LEVEL", "info"),
			Encoding: getEnv("LOG_ENCODING", "json"),
		},
		RateLimit: RateLimitConfig{
			AuthRPS:   getFloat("AUTH_RATE_LIMIT_RPS", 0),
			AuthBurst: getInt("AUTH_RATE_LIMIT_BURST", 20),
		},
		AI: AIConfig{
			OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
			Model:        getEnv("OPENAI_MODEL", "gpt-4o"),
			Timeout:      getDuration("OPENAI_TIMEOUT", 30*time.Second),
		},
		Migrations: MigrationsConfig{
			Enabled: getBool("RUN_MIGRATIONS", true),
		},
	}
}

// Validate reports configuration that would make the server unsafe or unable to start.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	switch c.Database.Driver {
	case DriverMySQL, DriverPostgres:
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedDriver, c.Database.Driver)
	}
	return nil
}

// DSN builds the driver specific connection string.
func (c *Config) DSN() string {
	db := c.Database
	if db.Driver == DriverPostgres {
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			db.Host, db.Port, db.User, db.Password, db.Name, db.SSLMode)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		db.User, db.Password, db.Host, db.Port, db.Name)
}

// Address returns the HTTP listen address.
func (c *Config) Address() string {
	return c.HTTP.Host + ":" + c.HTTP.Port
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(value); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return defaultValue
}
