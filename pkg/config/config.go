// Package config loads service configuration from the environment and an
// optional .env file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	Secret    string
	AccessTTL time.Duration
}

// KafkaConfig holds broker settings.
type KafkaConfig struct {
	Enabled     bool
	Brokers     []string
	GroupPrefix string
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Enabled  bool
	Addr     string
	Password string
	DB       int
}

// RateLimitConfig configures the token bucket limiter.
type RateLimitConfig struct {
	Capacity       int
	RefillInterval time.Duration
	TTL            time.Duration
	Prefix         string
}

// Load reads a .env file if present and returns a viper instance bound to the
// environment. Settings are resolved as PREFIX_KEY first, then KEY, so
// RESERVATION_DB_HOST overrides DB_HOST.
func Load(prefix string) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.Set("config.prefix", strings.ToUpper(prefix))

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", "5432")
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("JWT_SECRET", "change-me")
	v.SetDefault("JWT_ACCESS_TTL", "2h")
	v.SetDefault("KAFKA_ENABLED", true)
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "")
	v.SetDefault("REDIS_ENABLED", true)
	v.SetDefault("REDIS_ADDR", "localhost:6379")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("RATE_LIMIT_CAPACITY", 10)
	v.SetDefault("RATE_LIMIT_REFILL_INTERVAL", "6s")
	v.SetDefault("RATE_LIMIT_TTL", "10m")
	v.SetDefault("RATE_LIMIT_PREFIX", "rl")

	return v, nil
}

// lookup prefers PREFIX_KEY over KEY.
func lookup(v *viper.Viper, key string) string {
	prefix := v.GetString("config.prefix")
	if prefix != "" {
		if val := v.GetString(prefix + "_" + key); val != "" {
			return val
		}
	}
	return v.GetString(key)
}

// GetString returns a prefixed-or-plain string setting.
func GetString(v *viper.Viper, key string) string {
	return lookup(v, key)
}

// GetAppEnv returns APP_ENV.
func GetAppEnv(v *viper.Viper) string {
	return lookup(v, "APP_ENV")
}

// GetServicePort returns the listen address for the given port key, e.g. ":8080".
func GetServicePort(v *viper.Viper, key string) string {
	port := lookup(v, key)
	if port == "" {
		port = "8080"
	}
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}
	return port
}

// LoadDatabaseConfig builds a DatabaseConfig; dbNameKey names the env var for the database name.
func LoadDatabaseConfig(v *viper.Viper, dbNameKey string) DatabaseConfig {
	name := lookup(v, dbNameKey)
	if name == "" {
		name = "reservations"
	}
	return DatabaseConfig{
		Host:     lookup(v, "DB_HOST"),
		Port:     lookup(v, "DB_PORT"),
		User:     lookup(v, "DB_USER"),
		Password: lookup(v, "DB_PASSWORD"),
		DBName:   name,
		SSLMode:  lookup(v, "DB_SSLMODE"),
	}
}

// LoadJWTConfig builds a JWTConfig.
func LoadJWTConfig(v *viper.Viper) JWTConfig {
	ttl, err := time.ParseDuration(lookup(v, "JWT_ACCESS_TTL"))
	if err != nil || ttl <= 0 {
		ttl = 2 * time.Hour
	}
	return JWTConfig{
		Secret:    lookup(v, "JWT_SECRET"),
		AccessTTL: ttl,
	}
}

// LoadKafkaConfig builds a KafkaConfig. KAFKA_BROKERS is comma separated.
func LoadKafkaConfig(v *viper.Viper) KafkaConfig {
	var brokers []string
	for _, b := range strings.Split(lookup(v, "KAFKA_BROKERS"), ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return KafkaConfig{
		Enabled:     v.GetBool("KAFKA_ENABLED"),
		Brokers:     brokers,
		GroupPrefix: lookup(v, "KAFKA_GROUP_PREFIX"),
	}
}

// LoadRedisConfig builds a RedisConfig.
func LoadRedisConfig(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Addr:     lookup(v, "REDIS_ADDR"),
		Password: lookup(v, "REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}
}

// LoadRateLimitConfig builds a RateLimitConfig, clamping nonsensical values.
func LoadRateLimitConfig(v *viper.Viper) RateLimitConfig {
	cfg := RateLimitConfig{
		Capacity:       v.GetInt("RATE_LIMIT_CAPACITY"),
		RefillInterval: v.GetDuration("RATE_LIMIT_REFILL_INTERVAL"),
		TTL:            v.GetDuration("RATE_LIMIT_TTL"),
		Prefix:         lookup(v, "RATE_LIMIT_PREFIX"),
	}
	if cfg.Capacity < 1 {
		cfg.Capacity = 1
	}
	if cfg.RefillInterval <= 0 {
		cfg.RefillInterval = time.Second
	}
	if minTTL := 5 * cfg.RefillInterval; cfg.TTL < minTTL {
		cfg.TTL = minTTL
	}
	return cfg
}
