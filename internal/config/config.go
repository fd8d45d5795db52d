package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"

	PaymentStripe = "stripe"
	PaymentMock   = "mock"

	RelayLocal = "local"
	RelayRedis = "redis"
)

type DBConfig struct {
	Driver     string
	User       string
	Password   string
	Host       string
	Port       string
	Name       string
	SQLitePath string
}

type Config struct {
	Env      string
	Port     string
	LogLevel string

	DB DBConfig

	RedisAddr     string
	RabbitMQURL   string
	OrderExchange string

	JWTSecret string
	JWTTTL    time.Duration

	PaymentMode          string
	StripeSecretKey      string
	StripePublishableKey string

	ClientURL       string
	RealtimeRelay   string
	ShutdownTimeout time.Duration
}

func (c *Config) Development() bool {
	return c.Env == "development"
}

// Load reads the process environment.
func Load() (*Config, error) {
	return LoadFrom(os.Getenv)
}

// LoadFrom reads configuration through getenv so tests can supply their own environment.
func LoadFrom(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := &Config{
		Env:      get("APP_ENV", "development"),
		Port:     get("PORT", "5000"),
		LogLevel: get("LOG_LEVEL", "info"),
		DB: DBConfig{
			Driver:     get("DB_DRIVER", DriverMySQL),
			User:       get("MYSQL_USER", "root"),
			Password:   getenv("MYSQL_PASSWORD"),
			Host:       get("MYSQL_HOST", "localhost"),
			Port:       get("MYSQL_PORT", "3306"),
			Name:       get("MYSQL_DATABASE", "cartify"),
			SQLitePath: get("SQLITE_PATH", "cartify.db"),
		},
		RabbitMQURL:          getenv("RABBITMQ_URL"),
		OrderExchange:        get("ORDER_EXCHANGE", "order.exchange"),
		JWTSecret:            getenv("JWT_SECRET"),
		PaymentMode:          getenv("PAYMENT_MODE"),
		StripeSecretKey:      getenv("STRIPE_SECRET_KEY"),
		StripePublishableKey: getenv("STRIPE_PUBLISHABLE_KEY"),
		ClientURL:            get("CLIENT_URL", "http://localhost:5173"),
		RealtimeRelay:        get("REALTIME_RELAY", RelayLocal),
	}

	if host := getenv("REDIS_HOST"); host != "" {
		cfg.RedisAddr = host + ":" + get("REDIS_PORT", "6379")
	}

	var err error
	if cfg.JWTTTL, err = time.ParseDuration(get("JWT_TTL", "720h")); err != nil {
		return nil, fmt.Errorf("JWT_TTL: %w", err)
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(get("SHUTDOWN_TIMEOUT", "30s")); err != nil {
		return nil, fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	switch c.DB.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		errs = append(errs, fmt.Errorf("DB_DRIVER: unknown driver %q", c.DB.Driver))
	}
	if c.PaymentMode == "" && c.Development() {
		c.PaymentMode = PaymentMock
	}
	switch c.PaymentMode {
	case "":
		errs = append(errs, errors.New("PAYMENT_MODE is required outside development"))
	case PaymentMock:
	case PaymentStripe:
		if c.StripeSecretKey == "" {
			errs = append(errs, errors.New("STRIPE_SECRET_KEY is required when PAYMENT_MODE=stripe"))
		}
	default:
		errs = append(errs, fmt.Errorf("PAYMENT_MODE: unknown mode %q", c.PaymentMode))
	}
	switch c.RealtimeRelay {
	case RelayLocal:
	case RelayRedis:
		if c.RedisAddr == "" {
			errs = append(errs, errors.New("REDIS_HOST is required when REALTIME_RELAY=redis"))
		}
	default:
		errs = append(errs, fmt.Errorf("REALTIME_RELAY: unknown relay %q", c.RealtimeRelay))
	}
	if c.JWTSecret == "" {
		if !c.Development() {
			errs = append(errs, errors.New("JWT_SECRET is required outside development"))
		}
		c.JWTSecret = "cartify-dev-secret"
	}
	return errors.Join(errs...)
}
