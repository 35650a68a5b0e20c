// Package config loads service settings from an optional .env file, an
// optional TOML file and RESERVATIONS_* environment variables, in that order
// of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

const envPrefix = "RESERVATIONS_"

// Storage drivers accepted by STORAGE_DRIVER.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config captures the settings of the reservation service.
type Config struct {
	HTTPPort        int
	StorageDriver   string
	SQLitePath      string
	PostgresURL     string
	TokenSecret     string
	TokenTTL        time.Duration
	Timezone        string
	Location        *time.Location
	LogLevel        slog.Level
	RateLimitRPS    float64
	RateLimitBurst  int
	ShutdownTimeout time.Duration
}

// fileConfig mirrors the TOML file layout. Unset keys keep their defaults.
type fileConfig struct {
	HTTPPort        *int     `toml:"http_port"`
	StorageDriver   *string  `toml:"storage_driver"`
	SQLitePath      *string  `toml:"sqlite_path"`
	PostgresURL     *string  `toml:"postgres_url"`
	TokenSecret     *string  `toml:"token_secret"`
	TokenTTL        *string  `toml:"token_ttl"`
	Timezone        *string  `toml:"timezone"`
	LogLevel        *string  `toml:"log_level"`
	RateLimitRPS    *float64 `toml:"rate_limit_rps"`
	RateLimitBurst  *int     `toml:"rate_limit_burst"`
	ShutdownTimeout *string  `toml:"shutdown_timeout"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		HTTPPort:        8080,
		StorageDriver:   DriverSQLite,
		SQLitePath:      "data/reservations.db",
		TokenTTL:        12 * time.Hour,
		Timezone:        "UTC",
		Location:        time.UTC,
		LogLevel:        slog.LevelInfo,
		RateLimitRPS:    10,
		RateLimitBurst:  20,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Load reads .env from the working directory when present, then the TOML file
// named by RESERVATIONS_CONFIG_FILE, then the process environment.
//
// Missing and invalid keys are reported together in a single error.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: read .env: %w", err)
	}

	cfg := Default()
	l := &loader{cfg: &cfg}

	if path := strings.TrimSpace(os.Getenv(envPrefix + "CONFIG_FILE")); path != "" {
		if err := l.applyFile(path); err != nil {
			return Config{}, err
		}
	}

	l.applyEnv()
	l.validate()

	if len(l.missing) > 0 {
		return Config{}, fmt.Errorf("config: missing required settings: %s", strings.Join(l.missing, ", "))
	}
	if len(l.invalid) > 0 {
		return Config{}, fmt.Errorf("config: invalid settings: %s", strings.Join(l.invalid, ", "))
	}

	return cfg, nil
}

type loader struct {
	cfg     *Config
	missing []string
	invalid []string
}

func (l *loader) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}

	var file fileConfig
	if err := toml.Unmarshal(raw, &file); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}

	if file.HTTPPort != nil {
		l.setPort("http_port", strconv.Itoa(*file.HTTPPort))
	}
	if file.StorageDriver != nil {
		l.cfg.StorageDriver = strings.ToLower(strings.TrimSpace(*file.StorageDriver))
	}
	if file.SQLitePath != nil {
		l.cfg.SQLitePath = strings.TrimSpace(*file.SQLitePath)
	}
	if file.PostgresURL != nil {
		l.cfg.PostgresURL = strings.TrimSpace(*file.PostgresURL)
	}
	if file.TokenSecret != nil {
		l.cfg.TokenSecret = strings.TrimSpace(*file.TokenSecret)
	}
	if file.TokenTTL != nil {
		l.setDuration("token_ttl", *file.TokenTTL, &l.cfg.TokenTTL)
	}
	if file.Timezone != nil {
		l.cfg.Timezone = strings.TrimSpace(*file.Timezone)
	}
	if file.LogLevel != nil {
		l.setLogLevel("log_level", *file.LogLevel)
	}
	if file.RateLimitRPS != nil {
		l.setRate("rate_limit_rps", strconv.FormatFloat(*file.RateLimitRPS, 'f', -1, 64))
	}
	if file.RateLimitBurst != nil {
		l.setBurst("rate_limit_burst", strconv.Itoa(*file.RateLimitBurst))
	}
	if file.ShutdownTimeout != nil {
		l.setDuration("shutdown_timeout", *file.ShutdownTimeout, &l.cfg.ShutdownTimeout)
	}
	return nil
}

func (l *loader) applyEnv() {
	if value, ok := lookupEnv("HTTP_PORT"); ok {
		l.setPort(envPrefix+"HTTP_PORT", value)
	}
	if value, ok := lookupEnv("STORAGE_DRIVER"); ok {
		l.cfg.StorageDriver = strings.ToLower(value)
	}
	if value, ok := lookupEnv("SQLITE_PATH"); ok {
		l.cfg.SQLitePath = value
	}
	if value, ok := lookupEnv("POSTGRES_URL"); ok {
		l.cfg.PostgresURL = value
	}
	if value, ok := lookupEnv("TOKEN_SECRET"); ok {
		l.cfg.TokenSecret = value
	}
	if value, ok := lookupEnv("TOKEN_TTL"); ok {
		l.setDuration(envPrefix+"TOKEN_TTL", value, &l.cfg.TokenTTL)
	}
	if value, ok := lookupEnv("TIMEZONE"); ok {
		l.cfg.Timezone = value
	}
	if value, ok := lookupEnv("LOG_LEVEL"); ok {
		l.setLogLevel(envPrefix+"LOG_LEVEL", value)
	}
	if value, ok := lookupEnv("RATE_LIMIT_RPS"); ok {
		l.setRate(envPrefix+"RATE_LIMIT_RPS", value)
	}
	if value, ok := lookupEnv("RATE_LIMIT_BURST"); ok {
		l.setBurst(envPrefix+"RATE_LIMIT_BURST", value)
	}
	if value, ok := lookupEnv("SHUTDOWN_TIMEOUT"); ok {
		l.setDuration(envPrefix+"SHUTDOWN_TIMEOUT", value, &l.cfg.ShutdownTimeout)
	}
}

func (l *loader) validate() {
	switch l.cfg.StorageDriver {
	case DriverSQLite:
		if l.cfg.SQLitePath == "" {
			l.missing = append(l.missing, envPrefix+"SQLITE_PATH")
		}
	case DriverPostgres:
		if l.cfg.PostgresURL == "" {
			l.missing = append(l.missing, envPrefix+"POSTGRES_URL")
		}
	default:
		l.invalid = append(l.invalid, envPrefix+"STORAGE_DRIVER")
	}

	if l.cfg.TokenSecret == "" {
		l.missing = append(l.missing, envPrefix+"TOKEN_SECRET")
	}

	location, err := time.LoadLocation(l.cfg.Timezone)
	if err != nil {
		l.invalid = append(l.invalid, envPrefix+"TIMEZONE")
	} else {
		l.cfg.Location = location
	}
}

func (l *loader) setPort(key, value string) {
	port, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || port <= 0 || port > 65535 {
		l.invalid = append(l.invalid, key)
		return
	}
	l.cfg.HTTPPort = port
}

func (l *loader) setDuration(key, value string, target *time.Duration) {
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || d <= 0 {
		l.invalid = append(l.invalid, key)
		return
	}
	*target = d
}

func (l *loader) setLogLevel(key, value string) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(value))); err != nil {
		l.invalid = append(l.invalid, key)
		return
	}
	l.cfg.LogLevel = level
}

func (l *loader) setRate(key, value string) {
	rps, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil || rps < 0 {
		l.invalid = append(l.invalid, key)
		return
	}
	l.cfg.RateLimitRPS = rps
}

func (l *loader) setBurst(key, value string) {
	burst, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || burst < 0 {
		l.invalid = append(l.invalid, key)
		return
	}
	l.cfg.RateLimitBurst = burst
}

func lookupEnv(name string) (string, bool) {
	value, ok := os.LookupEnv(envPrefix + name)
	if !ok {
		return "", false
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}
