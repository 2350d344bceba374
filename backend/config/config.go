package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
	DBMaxOpen  int
	DBMaxIdle  int

	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	ServerPort     string
	CORSOrigins    string
	RequestTimeout time.Duration

	EnableRedis   bool
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	LogLevel  string
	LogFormat string

	RateLimitMax    int
	RateLimitWindow time.Duration
	AuthRateLimit   int

	DefaultPageSize int
	MaxPageSize     int

	EnableMetrics bool
	AutoMigrate   bool
}

var defaults = map[string]interface{}{
	"DB_HOST":             "localhost",
	"DB_PORT":             "5432",
	"DB_USER":             "postgres",
	"DB_PASSWORD":         "postgres",
	"DB_NAME":             "coursemarket",
	"DB_SSLMODE":          "disable",
	"DB_MAX_OPEN_CONNS":   20,
	"DB_MAX_IDLE_CONNS":   10,
	"JWT_SECRET":          "secret",
	"ACCESS_TOKEN_TTL":    "30m",
	"REFRESH_TOKEN_TTL":   "168h",
	"SERVER_PORT":         "8080",
	"CORS_ORIGINS":        "*",
	"REQUEST_TIMEOUT":     "10s",
	"ENABLE_REDIS":        false,
	"REDIS_ADDR":          "localhost:6379",
	"REDIS_PASSWORD":      "",
	"REDIS_DB":            0,
	"LOG_LEVEL":           "info",
	"LOG_FORMAT":          "text",
	"RATE_LIMIT_MAX":      120,
	"RATE_LIMIT_WINDOW":   "1m",
	"AUTH_RATE_LIMIT_MAX": 10,
	"DEFAULT_PAGE_SIZE":   10,
	"MAX_PAGE_SIZE":       100,
	"ENABLE_METRICS":      true,
	"AUTO_MIGRATE":        true,
}

// LoadConfig reads .env (when present) and the process environment.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("no .env file found, using environment variables")
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	cfg := &Config{
		DBHost:     v.GetString("DB_HOST"),
		DBPort:     v.GetString("DB_PORT"),
		DBUser:     v.GetString("DB_USER"),
		DBPassword: v.GetString("DB_PASSWORD"),
		DBName:     v.GetString("DB_NAME"),
		DBSSLMode:  v.GetString("DB_SSLMODE"),
		DBMaxOpen:  v.GetInt("DB_MAX_OPEN_CONNS"),
		DBMaxIdle:  v.GetInt("DB_MAX_IDLE_CONNS"),

		JWTSecret:       v.GetString("JWT_SECRET"),
		AccessTokenTTL:  v.GetDuration("ACCESS_TOKEN_TTL"),
		RefreshTokenTTL: v.GetDuration("REFRESH_TOKEN_TTL"),

		ServerPort:     v.GetString("SERVER_PORT"),
		CORSOrigins:    v.GetString("CORS_ORIGINS"),
		RequestTimeout: v.GetDuration("REQUEST_TIMEOUT"),

		EnableRedis:   v.GetBool("ENABLE_REDIS"),
		RedisAddr:     v.GetString("REDIS_ADDR"),
		RedisPassword: v.GetString("REDIS_PASSWORD"),
		RedisDB:       v.GetInt("REDIS_DB"),

		LogLevel:  v.GetString("LOG_LEVEL"),
		LogFormat: v.GetString("LOG_FORMAT"),

		RateLimitMax:    v.GetInt("RATE_LIMIT_MAX"),
		RateLimitWindow: v.GetDuration("RATE_LIMIT_WINDOW"),
		AuthRateLimit:   v.GetInt("AUTH_RATE_LIMIT_MAX"),

		DefaultPageSize: v.GetInt("DEFAULT_PAGE_SIZE"),
		MaxPageSize:     v.GetInt("MAX_PAGE_SIZE"),

		EnableMetrics: v.GetBool("ENABLE_METRICS"),
		AutoMigrate:   v.GetBool("AUTO_MIGRATE"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.JWTSecret == "":
		return errors.New("config: JWT_SECRET must not be empty")
	case c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0:
		return errors.New("config: token lifetimes must be positive")
	case c.AccessTokenTTL >= c.RefreshTokenTTL:
		return errors.New("config: ACCESS_TOKEN_TTL must be shorter than REFRESH_TOKEN_TTL")
	case c.DefaultPageSize <= 0 || c.MaxPageSize < c.DefaultPageSize:
		return fmt.Errorf("config: invalid page sizes %d/%d", c.DefaultPageSize, c.MaxPageSize)
	}
	return nil
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
}
