package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort string

	DBDriver   string // mysql | postgres | sqlite
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPass     string
	SQLitePath string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	JWTSecret  string
	JWTIssuer  string
	SessionTTL time.Duration
	SiteURL    string

	// procedure | inline
	ScheduleMode string

	SnowflakeNode int64
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getint(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	_ = godotenv.Load()

	c := &Config{
		AppPort:    getenv("APP_PORT", "8080"),
		DBDriver:   strings.ToLower(getenv("DB_DRIVER", "mysql")),
		DBHost:     getenv("DB_HOST", "mysql"),
		DBPort:     getenv("DB_PORT", "3306"),
		DBName:     getenv("DB_NAME", "backoffice"),
		DBUser:     getenv("DB_USER", "backoffice"),
		DBPass:     getenv("DB_PASS", ""),
		SQLitePath: getenv("SQLITE_PATH", "backoffice.db"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:      getint("REDIS_DB", 0),
		IdempTTLSecs: getint("IDEMPOTENCY_TTL_SECONDS", 300),

		JWTSecret:  os.Getenv("AUTH_JWT_SECRET"),
		JWTIssuer:  getenv("AUTH_JWT_ISSUER", "microfinance-backoffice"),
		SessionTTL: time.Duration(getint("AUTH_SESSION_TTL_MINUTES", 12*60)) * time.Minute,
		SiteURL:    getenv("SITE_URL", "http://localhost:5173"),

		ScheduleMode:  strings.ToLower(getenv("SCHEDULE_MODE", "procedure")),
		SnowflakeNode: int64(getint("SNOWFLAKE_NODE", 1)),
	}
	return c
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("missing AUTH_JWT_SECRET")
	}
	if len(c.JWTSecret) < 16 {
		return errors.New("AUTH_JWT_SECRET must be at least 16 bytes")
	}
	switch c.DBDriver {
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	case "mysql", "postgres":
		if c.DBHost == "" || c.DBPort == "" || c.DBName == "" || c.DBUser == "" {
			return errors.New("missing database config (DB_HOST/PORT/NAME/USER)")
		}
		if _, err := net.LookupPort("tcp", c.DBPort); err != nil {
			return fmt.Errorf("invalid DB_PORT %q: %w", c.DBPort, err)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.ScheduleMode {
	case "procedure", "inline":
	default:
		return fmt.Errorf("unsupported SCHEDULE_MODE %q", c.ScheduleMode)
	}
	if c.RedisAddr == "" {
		return errors.New("missing REDIS_ADDR")
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	return nil
}

func (c *Config) dbAddr() string { return net.JoinHostPort(c.DBHost, c.DBPort) }

// DSN returns the connection string for the configured driver.
func (c *Config) DSN() string {
	switch c.DBDriver {
	case "postgres":
		return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
			c.DBHost, c.DBPort, c.DBUser, c.DBPass, c.DBName)
	case "sqlite":
		return c.SQLitePath
	default:
		// parseTime needed for DATE/DATETIME
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true&loc=UTC&charset=utf8mb4,utf8",
			c.DBUser, c.DBPass, c.dbAddr(), c.DBName)
	}
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}
