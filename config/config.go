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
	"github.com/shopspring/decimal"
)

const (
	CartStoreRedis  = "redis"
	CartStoreMemory = "memory"

	defaultJWTSecret = "your-secret-key"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Redis     RedisConfig
	Cart      CartConfig
	Scheduler SchedulerConfig
}

type ServerConfig struct {
	Port        string
	GinMode     string
	Environment string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	Secret             string
	AccessTokenExpiry  time.Duration
	RefreshTokenExpiry time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// CartConfig holds the pricing constants and the session backend.
type CartConfig struct {
	Store                  string // CartStoreRedis or CartStoreMemory
	SessionTTL             time.Duration
	PlatformFeePerChild    decimal.Decimal
	SiblingDiscountPercent decimal.Decimal
}

type SchedulerConfig struct {
	CouponExpiryCron string
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	fee, err := envDecimal("PLATFORM_FEE_PER_CHILD", "0")
	if err != nil {
		return nil, err
	}
	sibling, err := envDecimal("SIBLING_DISCOUNT_PERCENT", "20")
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        env("SERVER_PORT", "8080"),
			GinMode:     env("GIN_MODE", "debug"),
			Environment: env("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Host:     env("DB_HOST", "localhost"),
			Port:     env("DB_PORT", "5432"),
			User:     env("DB_USER", "lfk"),
			Password: env("DB_PASSWORD", "lfk"),
			DBName:   env("DB_NAME", "lfk"),
			SSLMode:  env("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			Secret:             env("JWT_SECRET", defaultJWTSecret),
			AccessTokenExpiry:  envDuration("JWT_ACCESS_TOKEN_EXPIRY", 15*time.Minute),
			RefreshTokenExpiry: envDuration("JWT_REFRESH_TOKEN_EXPIRY", 7*24*time.Hour),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(env("ALLOWED_ORIGINS", "http://localhost:3000")),
		},
		Redis: RedisConfig{
			Host:     env("REDIS_HOST", "localhost"),
			Port:     env("REDIS_PORT", "6379"),
			Password: env("REDIS_PASSWORD", ""),
			DB:       envInt("REDIS_DB", 0),
		},
		Cart: CartConfig{
			Store:                  strings.ToLower(env("CART_STORE", CartStoreRedis)),
			SessionTTL:             envDuration("CART_SESSION_TTL", 24*time.Hour),
			PlatformFeePerChild:    fee,
			SiblingDiscountPercent: sibling,
		},
		Scheduler: SchedulerConfig{
			CouponExpiryCron: env("COUPON_EXPIRY_CRON", "0 * * * *"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Cart.Store != CartStoreRedis && c.Cart.Store != CartStoreMemory {
		errs = append(errs, fmt.Errorf("CART_STORE must be %q or %q, got %q", CartStoreRedis, CartStoreMemory, c.Cart.Store))
	}
	if c.Cart.PlatformFeePerChild.IsNegative() {
		errs = append(errs, errors.New("PLATFORM_FEE_PER_CHILD must not be negative"))
	}
	if c.Cart.SiblingDiscountPercent.IsNegative() || c.Cart.SiblingDiscountPercent.GreaterThan(decimal.NewFromInt(100)) {
		errs = append(errs, errors.New("SIBLING_DISCOUNT_PERCENT must be between 0 and 100"))
	}
	if c.Server.Environment == "production" && c.JWT.Secret == defaultJWTSecret {
		errs = append(errs, errors.New("JWT_SECRET must be set in production"))
	}
	return errors.Join(errs...)
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

func env(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	raw := env(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("%s=%q is not a duration, using %s", key, raw, fallback)
		return fallback
	}
	return d
}

func envInt(key string, fallback int) int {
	raw := env(key, "")
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("%s=%q is not an integer, using %d", key, raw, fallback)
		return fallback
	}
	return n
}

func envDecimal(key, fallback string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(env(key, fallback))
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func splitList(s string) []string {
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
