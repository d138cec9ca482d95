package config

import (
	"fmt"

	pkgconfig "github.com/travelbuddy/server/pkg/config"
)

// Config holds all configuration for the travelbuddy server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8080"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"travelbuddy"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"travelbuddy_secret"`
	PostgresDB   string `env:"POSTGRES_DB" envDefault:"travelbuddy"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Redis (match result cache)
	RedisHost         string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB           int    `env:"REDIS_DB" envDefault:"0"`
	MatchCacheTTLSecs int    `env:"MATCH_CACHE_TTL_SECONDS" envDefault:"60"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// JWT
	JWTSecret       string `env:"JWT_SECRET" envDefault:"change-this-to-a-secure-secret"`
	JWTIssuer       string `env:"JWT_ISSUER" envDefault:"travelbuddy"`
	JWTAccessExpiry string `env:"JWT_ACCESS_TOKEN_EXPIRY" envDefault:"24h"`

	// SSLCommerz payment gateway
	SSLCommerzBaseURL     string `env:"SSLCOMMERZ_BASE_URL" envDefault:"https://sandbox.sslcommerz.com"`
	SSLCommerzStoreID     string `env:"SSLCOMMERZ_STORE_ID" envDefault:""`
	SSLCommerzStorePasswd string `env:"SSLCOMMERZ_STORE_PASSWORD" envDefault:""`
	PaymentSuccessURL     string `env:"PAYMENT_SUCCESS_URL" envDefault:"http://localhost:8080/api/v1/payments/success"`
	PaymentFailURL        string `env:"PAYMENT_FAIL_URL" envDefault:"http://localhost:8080/api/v1/payments/fail"`
	PaymentCancelURL      string `env:"PAYMENT_CANCEL_URL" envDefault:"http://localhost:8080/api/v1/payments/cancel"`
	PaymentIPNURL         string `env:"PAYMENT_IPN_URL" envDefault:""`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// Pprof access is limited to these CIDRs.
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Slow query logging threshold in milliseconds (0 disables).
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load server config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.MatchCacheTTLSecs < 0 {
		return fmt.Errorf("MATCH_CACHE_TTL_SECONDS cannot be negative")
	}
	return nil
}

// PostgresDSN returns the PostgreSQL connection string.
func (c *Config) PostgresDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.PostgresUser, c.PostgresPass, c.PostgresHost, c.PostgresPort, c.PostgresDB, c.PostgresSSL,
	)
}
