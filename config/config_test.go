package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CART_STORE", "")
	t.Setenv("PLATFORM_FEE_PER_CHILD", "")
	t.Setenv("SIBLING_DISCOUNT_PERCENT", "")
	t.Setenv("CART_SESSION_TTL", "")
	t.Setenv("ENVIRONMENT", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, CartStoreRedis, cfg.Cart.Store)
	assert.Equal(t, 24*time.Hour, cfg.Cart.SessionTTL)
	assert.True(t, cfg.Cart.PlatformFeePerChild.IsZero())
	assert.Equal(t, "20", cfg.Cart.SiblingDiscountPercent.String())
}

func TestLoad_CartOverrides(t *testing.T) {
	t.Setenv("CART_STORE", "Memory")
	t.Setenv("PLATFORM_FEE_PER_CHILD", "1.5")
	t.Setenv("SIBLING_DISCOUNT_PERCENT", "10")
	t.Setenv("CART_SESSION_TTL", "90m")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, CartStoreMemory, cfg.Cart.Store)
	assert.Equal(t, "1.5", cfg.Cart.PlatformFeePerChild.String())
	assert.Equal(t, 90*time.Minute, cfg.Cart.SessionTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_InvalidDecimal(t *testing.T) {
	t.Setenv("PLATFORM_FEE_PER_CHILD", "three")

	_, err := Load()
	assert.ErrorContains(t, err, "PLATFORM_FEE_PER_CHILD")
}

func TestLoad_BadDurationFallsBack(t *testing.T) {
	t.Setenv("CART_STORE", "memory")
	t.Setenv("JWT_ACCESS_TOKEN_EXPIRY", "soon")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenExpiry)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Server: ServerConfig{Environment: "development"},
			JWT:    JWTConfig{Secret: defaultJWTSecret},
			Cart: CartConfig{
				Store:                  CartStoreMemory,
				PlatformFeePerChild:    decimal.NewFromInt(2),
				SiblingDiscountPercent: decimal.NewFromInt(20),
			},
		}
	}

	tests := []struct {
		name   string
		mutate func(*Config)
		errMsg string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown store", mutate: func(c *Config) { c.Cart.Store = "disk" }, errMsg: "CART_STORE"},
		{name: "negative fee", mutate: func(c *Config) { c.Cart.PlatformFeePerChild = decimal.NewFromInt(-1) }, errMsg: "PLATFORM_FEE_PER_CHILD"},
		{name: "percent over 100", mutate: func(c *Config) { c.Cart.SiblingDiscountPercent = decimal.NewFromInt(150) }, errMsg: "SIBLING_DISCOUNT_PERCENT"},
		{name: "default secret in production", mutate: func(c *Config) { c.Server.Environment = "production" }, errMsg: "JWT_SECRET"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errMsg == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.errMsg)
		})
	}
}
