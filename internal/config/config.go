package config

import (
	"github.com/roomdesk/service-reservation/pkg/config"
)

// AdminConfig names the account created at startup when it does not exist.
type AdminConfig struct {
	Username string
	Password string
}

// ServiceConfig holds all configuration for the reservation service.
type ServiceConfig struct {
	Port            string
	AppEnv          string
	DBConfig        config.DatabaseConfig
	JWTConfig       config.JWTConfig
	KafkaConfig     config.KafkaConfig
	RedisConfig     config.RedisConfig
	RateLimitConfig config.RateLimitConfig
	AdminConfig     AdminConfig
}

// Load reads configuration from environment variables.
func Load() (*ServiceConfig, error) {
	v, err := config.Load("RESERVATION")
	if err != nil {
		return nil, err
	}

	return &ServiceConfig{
		Port:            config.GetServicePort(v, "SERVICE_PORT"),
		AppEnv:          config.GetAppEnv(v),
		DBConfig:        config.LoadDatabaseConfig(v, "DB_NAME"),
		JWTConfig:       config.LoadJWTConfig(v),
		KafkaConfig:     config.LoadKafkaConfig(v),
		RedisConfig:     config.LoadRedisConfig(v),
		RateLimitConfig: config.LoadRateLimitConfig(v),
		AdminConfig: AdminConfig{
			Username: config.GetString(v, "ADMIN_USERNAME"),
			Password: config.GetString(v, "ADMIN_PASSWORD"),
		},
	}, nil
}
