// Package config loads application configuration from environment
// variables, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // APP_ENV (dev, test, prod)
	Port           string // APP_PORT
	DBUser         string // DB_USER
	DBPass         string // DB_PASS (optional)
	DBHost         string // DB_HOST
	DBPort         string // DB_PORT
	DBName         string // DB_NAME
	JWTSecret      string // JWT_SECRET
	AccessTTLMin   int    // ACCESS_TOKEN_TTL_MIN
	RefreshTTLDays int    // REFRESH_TOKEN_TTL_DAYS
	LogLevel       string // LOG_LEVEL (debug, info, warn, error)
	AutoMigrate    bool   // DB_AUTO_MIGRATE applies pending migrations on startup
	AMQPURL        string // AMQP_URL; empty disables event publishing
	EventQueue     string // EVENT_QUEUE
	EventLogPath   string // EVENT_LOG_PATH
}

// AccessTTL is the lifetime of an access token.
func (c Config) AccessTTL() time.Duration { return time.Duration(c.AccessTTLMin) * time.Minute }

// RefreshTTL is the lifetime of a refresh token.
func (c Config) RefreshTTL() time.Duration { return time.Duration(c.RefreshTTLDays) * 24 * time.Hour }

// MySQLDSN builds the driver DSN.  parseTime maps DATETIME to time.Time
// and loc=UTC keeps times consistent.
func (c Config) MySQLDSN() string {
	auth := c.DBUser
	if c.DBPass != "" {
		auth = fmt.Sprintf("%s:%s", c.DBUser, c.DBPass)
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, c.DBHost, c.DBPort, c.DBName)
}

// LoadDotEnv loads variables from the given files (default .env) without
// overriding ones already set.  Missing files are ignored.
func LoadDotEnv(files ...string) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			log.Printf("config: could not load %s: %v", f, err)
		}
	}
}

// Load reads the configuration and exits the process when a required
// variable is missing or malformed.
func Load() Config {
	cfg, err := FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// FromEnv reads the configuration, reporting every missing or invalid
// variable in one error.
func FromEnv() (Config, error) {
	r := &reader{}
	cfg := Config{
		Env:            r.must("APP_ENV"),
		Port:           r.must("APP_PORT"),
		DBUser:         r.must("DB_USER"),
		DBPass:         os.Getenv("DB_PASS"),
		DBHost:         r.must("DB_HOST"),
		DBPort:         r.must("DB_PORT"),
		DBName:         r.must("DB_NAME"),
		JWTSecret:      r.must("JWT_SECRET"),
		AccessTTLMin:   r.mustInt("ACCESS_TOKEN_TTL_MIN"),
		RefreshTTLDays: r.mustInt("REFRESH_TOKEN_TTL_DAYS"),
		LogLevel:       envStr("LOG_LEVEL", "info"),
		AutoMigrate:    envBool("DB_AUTO_MIGRATE", false),
		AMQPURL:        os.Getenv("AMQP_URL"),
		EventQueue:     envStr("EVENT_QUEUE", "parking.events"),
		EventLogPath:   envStr("EVENT_LOG_PATH", "logs/parking.log"),
	}
	if len(r.errs) > 0 {
		return Config{}, errors.New(strings.Join(r.errs, "; "))
	}
	return cfg, nil
}

// DatabaseFromEnv reads only the DB_* variables.  Tools that talk to
// the database without serving HTTP use it.
func DatabaseFromEnv() (Config, error) {
	r := &reader{}
	cfg := Config{
		DBUser: r.must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: r.must("DB_HOST"),
		DBPort: r.must("DB_PORT"),
		DBName: r.must("DB_NAME"),
	}
	if len(r.errs) > 0 {
		return Config{}, errors.New(strings.Join(r.errs, "; "))
	}
	return cfg, nil
}

// reader collects missing or malformed required variables.
type reader struct{ errs []string }

func (r *reader) must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		r.errs = append(r.errs, "missing required env var: "+key)
	}
	return v
}

func (r *reader) mustInt(key string) int {
	s := r.must(key)
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		r.errs = append(r.errs, fmt.Sprintf("invalid positive int for %s: %q", key, s))
	}
	return n
}
