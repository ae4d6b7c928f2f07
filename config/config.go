package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Env  string `env:"ENV" envDefault:"dev"`
	Port string `env:"PORT" envDefault:"8083"`

	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"gym"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisUser     string `env:"REDIS_USER"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	CheckinSecret    string        `env:"CHECKIN_SECRET,notEmpty"`
	CheckinMaxAge    time.Duration `env:"CHECKIN_MAX_AGE" envDefault:"300s"`
	CheckinClockSkew time.Duration `env:"CHECKIN_CLOCK_SKEW" envDefault:"0s"`
	Timezone         string        `env:"TIMEZONE" envDefault:"UTC"`

	JWTSecret string        `env:"JWT_SECRET,notEmpty"`
	JWTTTL    time.Duration `env:"JWT_TTL" envDefault:"72h"`

	MembershipCacheTTL time.Duration `env:"MEMBERSHIP_CACHE_TTL" envDefault:"60s"`
	AutoCloseSchedule  string        `env:"AUTO_CLOSE_SCHEDULE" envDefault:"5 0 * * *"`
	LogLevel           string        `env:"LOG_LEVEL" envDefault:"info"`
	LogDir             string        `env:"LOG_DIR"`
}

// LoadEnv reads .env into the process environment. A missing file is not an
// error; the existing environment is used as is.
func LoadEnv() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env not loaded, using process environment: %v", err)
	}
}

// Load parses the process environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.CheckinMaxAge <= 0 {
		return nil, fmt.Errorf("CHECKIN_MAX_AGE must be positive, got %s", cfg.CheckinMaxAge)
	}
	if cfg.CheckinClockSkew < 0 {
		return nil, fmt.Errorf("CHECKIN_CLOCK_SKEW must not be negative, got %s", cfg.CheckinClockSkew)
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Location is the timezone that defines a calendar day for visits and
// membership expiry.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func (c *Config) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode, c.Timezone)
}
