// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// DatabaseURL renders the config as a postgres connection URL for migrations.
func (c DatabaseConfig) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode)
}

// DSN renders the config as a GORM-compatible DSN.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// JWTConfig holds token verification settings.
type JWTConfig struct {
	Secret        string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
}

// KafkaConfig holds broker and consumer-group settings.
type KafkaConfig struct {
	Brokers     []string
	GroupPrefix string
}

// PaymentConfig selects and configures the payment processor adapter.
type PaymentConfig struct {
	// Mode is "simulator" for the in-memory processor or "processor" for the
	// real adapter.
	Mode     string
	BaseURL  string
	APIKey   string
	Currency string
	Timeout  time.Duration
}

// ServiceConfig holds all configuration for the booking service.
type ServiceConfig struct {
	Port          string
	AppEnv        string
	DBConfig      DatabaseConfig
	JWTConfig     JWTConfig
	KafkaConfig   KafkaConfig
	PaymentConfig PaymentConfig
}

// Load reads configuration from BOOKING_-prefixed environment variables with
// sane development defaults.
func Load() (*ServiceConfig, error) {
	v := viper.New()
	v.SetEnvPrefix("BOOKING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("SERVICE_PORT", "8080")
	v.SetDefault("APP_ENV", "development")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "booking")
	v.SetDefault("DB_SSLMODE", "disable")

	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("KAFKA_BROKERS", "localhost:9092")
	v.SetDefault("KAFKA_GROUP_PREFIX", "wrenchly-")

	v.SetDefault("PAYMENT_MODE", "simulator")
	v.SetDefault("PAYMENT_BASE_URL", "")
	v.SetDefault("PAYMENT_API_KEY", "")
	v.SetDefault("PAYMENT_CURRENCY", "MYR")
	v.SetDefault("PAYMENT_TIMEOUT_SECONDS", 10)

	cfg := &ServiceConfig{
		Port:   ":" + v.GetString("SERVICE_PORT"),
		AppEnv: v.GetString("APP_ENV"),
		DBConfig: DatabaseConfig{
			Host:     v.GetString("DB_HOST"),
			Port:     v.GetInt("DB_PORT"),
			User:     v.GetString("DB_USER"),
			Password: v.GetString("DB_PASSWORD"),
			DBName:   v.GetString("DB_NAME"),
			SSLMode:  v.GetString("DB_SSLMODE"),
		},
		JWTConfig: JWTConfig{
			Secret:        v.GetString("JWT_SECRET"),
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 7 * 24 * time.Hour,
		},
		KafkaConfig: KafkaConfig{
			Brokers:     strings.Split(v.GetString("KAFKA_BROKERS"), ","),
			GroupPrefix: v.GetString("KAFKA_GROUP_PREFIX"),
		},
		PaymentConfig: PaymentConfig{
			Mode:     v.GetString("PAYMENT_MODE"),
			BaseURL:  v.GetString("PAYMENT_BASE_URL"),
			APIKey:   v.GetString("PAYMENT_API_KEY"),
			Currency: v.GetString("PAYMENT_CURRENCY"),
			Timeout:  time.Duration(v.GetInt("PAYMENT_TIMEOUT_SECONDS")) * time.Second,
		},
	}

	if cfg.AppEnv != "development" {
		if cfg.JWTConfig.Secret == "" {
			return nil, fmt.Errorf("BOOKING_JWT_SECRET is required outside development")
		}
		if cfg.PaymentConfig.Mode == "processor" && cfg.PaymentConfig.BaseURL == "" {
			return nil, fmt.Errorf("BOOKING_PAYMENT_BASE_URL is required in processor mode")
		}
	}

	return cfg, nil
}
