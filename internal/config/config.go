// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package config handles application configuration. Values come from
// built-in defaults, then an optional TOML file named by STATICPRESS_CONFIG,
// then environment variables, each layer overriding the previous one.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

// ConfigEnv names the environment variable holding the TOML file path.
const ConfigEnv = "STATICPRESS_CONFIG"

// Config holds all application configuration values.
type Config struct {
	// Server settings
	Host  string `toml:"host"`
	Port  string `toml:"port"`
	Env   string `toml:"env"` // "development", "production", "testing"
	Debug bool   `toml:"debug"`

	// RateLimit caps dynamic renders per client IP per RateLimitWindow.
	// Zero disables the limit.
	RateLimit       int           `toml:"rate_limit"`
	RateLimitWindow time.Duration `toml:"rate_limit_window"`

	// Publishing
	CacheRoot      string        `toml:"cache_root"`
	SiteURL        string        `toml:"site_url"`
	Minify         bool          `toml:"minify"`
	PublishLockTTL time.Duration `toml:"publish_lock_ttl"`
	PageCacheTTL   time.Duration `toml:"page_cache_ttl"`

	// PostgreSQL connection
	DBHost     string `toml:"db_host"`
	DBPort     string `toml:"db_port"`
	DBUser     string `toml:"db_user"`
	DBPassword string `toml:"db_password"`
	DBName     string `toml:"db_name"`

	// Valkey (Redis-compatible). An empty host disables the publish lock,
	// change notifications and the dynamic page cache.
	ValkeyHost     string `toml:"valkey_host"`
	ValkeyPort     string `toml:"valkey_port"`
	ValkeyPassword string `toml:"valkey_password"`
	ValkeyDB       int    `toml:"valkey_db"`

	// S3-compatible object storage
	S3Endpoint    string `toml:"s3_endpoint"`
	S3Region      string `toml:"s3_region"`
	S3AccessKey   string `toml:"s3_access_key"`
	S3SecretKey   string `toml:"s3_secret_key"`
	S3BucketMedia string `toml:"s3_bucket_media"`
	S3BucketSite  string `toml:"s3_bucket_site"`
	S3SitePrefix  string `toml:"s3_site_prefix"`
	S3PublicURL   string `toml:"s3_public_url"`
}

// Defaults returns the development configuration.
func Defaults() *Config {
	return &Config{
		Host:            "0.0.0.0",
		Port:            "8080",
		Env:             "development",
		RateLimit:       120,
		RateLimitWindow: time.Minute,
		CacheRoot:       "public",
		Minify:          true,
		PublishLockTTL:  30 * time.Minute,
		PageCacheTTL:    10 * time.Minute,
		DBHost:          "localhost",
		DBPort:          "5432",
		DBUser:          "staticpress",
		DBPassword:      "changeme",
		DBName:          "staticpress",
		ValkeyHost:      "localhost",
		ValkeyPort:      "6379",
		S3Region:        "fsn1",
		S3BucketMedia:   "staticpress-media",
	}
}

// Load reads the configuration, applying defaults for development where
// appropriate. Returns an error if critical values are missing in
// production mode.
func Load() (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv(ConfigEnv); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.Host = envOrDefault("APP_HOST", cfg.Host)
	cfg.Port = envOrDefault("APP_PORT", cfg.Port)
	cfg.Env = envOrDefault("APP_ENV", cfg.Env)
	cfg.Debug = envBool("APP_DEBUG", cfg.Debug)
	cfg.RateLimit = envInt("APP_RATE_LIMIT", cfg.RateLimit)
	cfg.RateLimitWindow = envDuration("APP_RATE_LIMIT_WINDOW", cfg.RateLimitWindow)

	cfg.CacheRoot = envOrDefault("CACHE_ROOT", cfg.CacheRoot)
	cfg.SiteURL = envOrDefault("SITE_URL", cfg.SiteURL)
	cfg.Minify = envBool("CACHE_MINIFY", cfg.Minify)
	cfg.PublishLockTTL = envDuration("PUBLISH_LOCK_TTL", cfg.PublishLockTTL)
	cfg.PageCacheTTL = envDuration("PAGE_CACHE_TTL", cfg.PageCacheTTL)

	cfg.DBHost = envOrDefault("POSTGRES_HOST", cfg.DBHost)
	cfg.DBPort = envOrDefault("POSTGRES_PORT", cfg.DBPort)
	cfg.DBUser = envOrDefault("POSTGRES_USER", cfg.DBUser)
	cfg.DBPassword = envOrDefault("POSTGRES_PASSWORD", cfg.DBPassword)
	cfg.DBName = envOrDefault("POSTGRES_DB", cfg.DBName)

	cfg.ValkeyHost = envOrDefault("VALKEY_HOST", cfg.ValkeyHost)
	cfg.ValkeyPort = envOrDefault("VALKEY_PORT", cfg.ValkeyPort)
	cfg.ValkeyPassword = envOrDefault("VALKEY_PASSWORD", cfg.ValkeyPassword)
	cfg.ValkeyDB = envInt("VALKEY_DB", cfg.ValkeyDB)

	cfg.S3Endpoint = envOrDefault("S3_ENDPOINT", cfg.S3Endpoint)
	cfg.S3Region = envOrDefault("S3_REGION", cfg.S3Region)
	cfg.S3AccessKey = envOrDefault("S3_ACCESS_KEY", cfg.S3AccessKey)
	cfg.S3SecretKey = envOrDefault("S3_SECRET_KEY", cfg.S3SecretKey)
	cfg.S3BucketMedia = envOrDefault("S3_BUCKET_MEDIA", cfg.S3BucketMedia)
	cfg.S3BucketSite = envOrDefault("S3_BUCKET_SITE", cfg.S3BucketSite)
	cfg.S3SitePrefix = envOrDefault("S3_SITE_PREFIX", cfg.S3SitePrefix)
	cfg.S3PublicURL = envOrDefault("S3_PUBLIC_URL", cfg.S3PublicURL)

	if cfg.Env == "production" {
		if cfg.DBPassword == "changeme" {
			return nil, fmt.Errorf("POSTGRES_PASSWORD must be set in production")
		}
	}
	if cfg.CacheRoot == "" {
		return nil, fmt.Errorf("CACHE_ROOT must not be empty")
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	if _, err := toml.DecodeFile(path, c); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %s not found", path)
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// DSN returns the PostgreSQL connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName,
	)
}

// Addr returns the server listen address (host:port).
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDev returns true if the application is running in development mode.
func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// envOrDefault reads an environment variable, returning a fallback if unset or empty.
func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return b
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return fallback
}
