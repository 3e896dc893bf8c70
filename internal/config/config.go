package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/rocketshoes/cartservice/pkg/config"
)

// Config holds all configuration for the cart service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"CART_HTTP_PORT" envDefault:"8003"`

	// Store API serving /stock/{id} and /products/{id}
	StoreAPIURL string `env:"STORE_API_URL" envDefault:"http://localhost:3333"`

	// Redis slot holding the serialized cart
	RedisAddr string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPass string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB   int    `env:"REDIS_DB" envDefault:"0"`
	CartKey   string `env:"CART_STORAGE_KEY" envDefault:"rocketshoes:cart"`

	// Cart slot TTL in hours; 0 keeps the cart forever
	CartTTLHours int `env:"CART_TTL_HOURS" envDefault:"0"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Tracing
	TracingEnabled bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	TraceSample    float64 `env:"TRACE_SAMPLE_RATE" envDefault:"1.0"`

	// Pprof endpoint allowlist
	PprofCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8" envSeparator:","`
}

// Load reads configuration from environment variables. Validation runs as
// part of loading; see Validate.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load cart config: %w", err)
	}
	return cfg, nil
}

// CartTTL returns the configured slot TTL as a duration.
func (c *Config) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

// Validate checks cross-field consistency after parsing.
func (c *Config) Validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if c.StoreAPIURL == "" {
		return fmt.Errorf("store API URL is required")
	}
	if c.CartTTLHours < 0 {
		return fmt.Errorf("cart TTL must not be negative: %d", c.CartTTLHours)
	}
	return nil
}
