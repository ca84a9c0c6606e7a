// Package config loads server settings from defaults, an optional YAML
// file, a .env file and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the server configuration.
type Config struct {
	Addr      string `yaml:"addr"`
	DBPath    string `yaml:"db_path"`
	ClientURL string `yaml:"client_url"`
	LogLevel  string `yaml:"log_level"`

	Auth   AuthConfig   `yaml:"auth"`
	Google GoogleConfig `yaml:"google"`
	Redis  RedisConfig  `yaml:"redis"`
	SMTP   SMTPConfig   `yaml:"smtp"`
}

// AuthConfig controls session and reset tokens.
type AuthConfig struct {
	JWTSecret     string        `yaml:"jwt_secret"`
	TokenTTL      time.Duration `yaml:"token_ttl"`
	ResetTokenTTL time.Duration `yaml:"reset_token_ttl"`
}

// GoogleConfig holds the OAuth client used for Google sign-in.
type GoogleConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// RedisConfig enables the Redis reset token store when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// SMTPConfig enables email delivery when Host is set.
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Addr:      ":8080",
		DBPath:    "./data/splitledger.db",
		ClientURL: "http://localhost:3000",
		LogLevel:  "info",
		Auth: AuthConfig{
			TokenTTL:      time.Hour,
			ResetTokenTTL: time.Hour,
		},
		SMTP: SMTPConfig{
			Port: 587,
			From: "noreply@splitledger.local",
		},
	}
}

// Load builds the configuration. path names an optional YAML file; an empty
// path skips it. A .env file in the working directory is loaded if present;
// variables already set in the environment win over it.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				return
			}
			*dst = d
		}
	}

	str("ADDR", &c.Addr)
	str("DB_PATH", &c.DBPath)
	str("CLIENT_URL", &c.ClientURL)
	str("LOG_LEVEL", &c.LogLevel)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	dur("TOKEN_TTL", &c.Auth.TokenTTL)
	dur("RESET_TOKEN_TTL", &c.Auth.ResetTokenTTL)
	str("GOOGLE_CLIENT_ID", &c.Google.ClientID)
	str("GOOGLE_CLIENT_SECRET", &c.Google.ClientSecret)
	str("REDIS_ADDR", &c.Redis.Addr)
	str("REDIS_PASSWORD", &c.Redis.Password)
	num("REDIS_DB", &c.Redis.DB)
	str("SMTP_HOST", &c.SMTP.Host)
	num("SMTP_PORT", &c.SMTP.Port)
	str("SMTP_USERNAME", &c.SMTP.Username)
	str("SMTP_PASSWORD", &c.SMTP.Password)
	str("SMTP_FROM", &c.SMTP.From)

	return errors.Join(errs...)
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("token TTL must be positive"))
	}
	if c.Auth.ResetTokenTTL <= 0 {
		errs = append(errs, errors.New("reset token TTL must be positive"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("DB_PATH is required"))
	}
	return errors.Join(errs...)
}
