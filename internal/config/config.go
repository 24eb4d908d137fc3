package config

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	JWTSecret          string
	CORSAllowedOrigins []string

	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	CookieDomain    string
	CookieSecure    bool
	CookieSameSite  http.SameSite

	CurrencyCode string
	// GSTRateBPS is the flat GST rate in basis points (500 = 5%).
	GSTRateBPS int

	// Store origin used for local vs interstate shipping band selection.
	StoreState string
	StoreCity  string
	// DefaultPackWeightKg is assumed when a variant pack size cannot be parsed.
	DefaultPackWeightKg float64

	// Loyalty programme knobs. Conversion, caps and earn rate mirror the
	// rules enforced by the loyalty ledger procedures.
	LoyaltyPointValue        float64
	LoyaltyMinRedeemPoints   int64
	LoyaltyMaxDiscountPct    float64
	LoyaltyEarnPointsPer100  int64
	LoyaltyAwardAsync        bool

	PaymentProvider        string
	RazorpayKeyID          string
	RazorpayKeySecret      string
	PaymentCallbackBaseURL string

	CatalogCacheTTL     time.Duration
	CatalogDefaultLimit int
	CatalogMaxLimit     int

	CartTTL        time.Duration
	IdempotencyTTL time.Duration
	TrackReplayTTL time.Duration

	LowStockThreshold int

	RateLimitPerMinute int64

	MaxBodyBytes    int64
	SecurityHeaders bool
	EnableHSTS      bool

	AsynqConcurrency int
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		JWTSecret:          k.String("JWT_SECRET"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		AccessTokenTTL:  parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),
		RefreshTokenTTL: parseDuration(k.String("REFRESH_TOKEN_TTL"), "720h"),
		CookieDomain:    strings.TrimSpace(k.String("COOKIE_DOMAIN")),
		CookieSecure:    parseBool(k.String("COOKIE_SECURE")),
		CookieSameSite:  parseSameSite(k.String("COOKIE_SAMESITE")),

		CurrencyCode: valueOrDefault(k.String("CURRENCY_CODE"), "INR"),
		GSTRateBPS:   parseInt(k.String("PRICING_GST_RATE_BPS"), 500),

		StoreState:          valueOrDefault(k.String("STORE_STATE"), "Tamil Nadu"),
		StoreCity:           valueOrDefault(k.String("STORE_CITY"), "Coimbatore"),
		DefaultPackWeightKg: parseFloat(k.String("SHIPPING_DEFAULT_PACK_WEIGHT_KG"), 1.0),

		LoyaltyPointValue:       parseFloat(k.String("LOYALTY_POINT_VALUE"), 0.10),
		LoyaltyMinRedeemPoints:  int64(parseInt(k.String("LOYALTY_MIN_REDEEM_POINTS"), 50)),
		LoyaltyMaxDiscountPct:   parseFloat(k.String("LOYALTY_MAX_DISCOUNT_PCT"), 50),
		LoyaltyEarnPointsPer100: int64(parseInt(k.String("LOYALTY_EARN_POINTS_PER_100"), 2)),
		LoyaltyAwardAsync:       parseBool(valueOrDefault(k.String("LOYALTY_AWARD_ASYNC"), "true")),

		PaymentProvider:        valueOrDefault(k.String("PAYMENT_PROVIDER"), "razorpay"),
		RazorpayKeyID:          k.String("RAZORPAY_KEY_ID"),
		RazorpayKeySecret:      k.String("RAZORPAY_KEY_SECRET"),
		PaymentCallbackBaseURL: k.String("PAYMENT_CALLBACK_BASE_URL"),

		CatalogCacheTTL:     parseDuration(k.String("CATALOG_CACHE_TTL"), "5m"),
		CatalogDefaultLimit: parseInt(k.String("CATALOG_DEFAULT_LIMIT"), 20),
		CatalogMaxLimit:     parseInt(k.String("CATALOG_MAX_LIMIT"), 100),

		CartTTL:        parseDuration(k.String("CART_TTL"), "168h"),
		IdempotencyTTL: parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		TrackReplayTTL: parseDuration(k.String("TRACK_REPLAY_TTL"), "10m"),

		LowStockThreshold: parseInt(k.String("INVENTORY_LOW_STOCK_THRESHOLD"), 5),

		RateLimitPerMinute: int64(parseInt(k.String("RATE_LIMIT_PER_MINUTE"), 300)),

		MaxBodyBytes:    int64(parseInt(k.String("HTTP_MAX_BODY_BYTES"), 1<<20)),
		SecurityHeaders: parseBool(valueOrDefault(k.String("SECURITY_HEADERS"), "true")),
		EnableHSTS:      parseBool(k.String("SECURITY_HSTS")),

		AsynqConcurrency: parseInt(k.String("ASYNQ_CONCURRENCY"), 4),
	}

	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}

	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.JWTSecret == "" {
		return nil, errors.New("JWT_SECRET is required")
	}
	if cfg.GSTRateBPS < 0 || cfg.GSTRateBPS > 10000 {
		return nil, errors.New("PRICING_GST_RATE_BPS out of range")
	}

	return cfg, nil
}

// GSTRatePct converts the configured basis points into a percentage.
func (c *Config) GSTRatePct() float64 {
	return float64(c.GSTRateBPS) / 100
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(trimmed)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseFloat(value string, fallback float64) float64 {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}
