package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("JWT_TTL", "")

	cfg := Load()

	assert.Equal(t, DriverMySQL, cfg.Database.Driver)
	assert.Equal(t, "5000", cfg.HTTP.Port)
	assert.Equal(t, time.Duration(0), cfg.JWT.TTL)
	assert.Zero(t, cfg.RateLimit.AuthRPS)
	assert.ErrorIs(t, cfg.Validate(), ErrMissingJWTSecret)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("JWT_TTL", "24h")
	t.Setenv("AUTH_RATE_LIMIT_RPS", "2.5")
	t.Setenv("SERVER_READ_TIMEOUT", "7")

	cfg := Load()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL)
	assert.Equal(t, 2.5, cfg.RateLimit.AuthRPS)
	assert.Equal(t, 7*time.Second, cfg.HTTP.ReadTimeout)
	assert.Contains(t, cfg.DSN(), "port=5432")
	assert.Contains(t, cfg.DSN(), "sslmode=disable")
}

func TestValidate_UnsupportedDriver(t *testing.T) {
	cfg := &Config{
		JWT:      JWTConfig{Secret: "x"},
		Database: DatabaseConfig{Driver: "oracle"},
	}

	assert.ErrorIs(t, cfg.Validate(), ErrUnsupportedDriver)
}

func TestDSN_MySQL(t *testing.T) {
	cfg := &Config{Database: DatabaseConfig{
		Driver:   DriverMySQL,
		Host:     "db",
		Port:     "3306",
		User:     "u",
		Password: "p",
		Name:     "nexus",
	}}

	assert.Equal(t, "u:p@tcp(db:3306)/nexus?charset=utf8mb4&parseTime=True&loc=Local", cfg.DSN())
}
