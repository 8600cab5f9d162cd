package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (CHECKOUT_ prefix), flags, or YAML config files.
type Config struct {
	Addr               string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL        string        `usage:"PostgreSQL connection URL (CHECKOUT_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	CartURL            string        `default:"http://localhost:3000" usage:"Cart Service base URL" flag:"cart-url"`
	InventoryURL       string        `default:"http://localhost:3020" usage:"Inventory Service base URL" flag:"inventory-url"`
	ClientTimeout      time.Duration `default:"10s" usage:"Timeout for collaborator HTTP calls" flag:"client-timeout"`
	ShippingRate       string        `default:"5.00" usage:"Flat-rate shipping cost added to every order" flag:"shipping-rate"`
	StrictCompensation bool          `default:"true" usage:"Re-increment already-decremented stock when a later decrement fails" flag:"strict-compensation"`
	Lease              LeaseConfig
	Events             EventsConfig
	RateLimit          RateLimitConfig
	CORS               CORSConfig
	Graceful           GracefulConfig
}

// LeaseConfig controls reclamation of abandoned checkouts.
type LeaseConfig struct {
	TTL           time.Duration `default:"15m" usage:"How long a begun checkout may stay unfinished; 0 disables leasing"`
	SweepInterval time.Duration `default:"1m"  usage:"How often the reaper looks for expired leases" flag:"sweep-interval"`
	RedisAddr     string        `usage:"Redis address for the shared lease store; empty uses in-memory" flag:"redis-addr"`
}

// EventsConfig controls order event publishing.
type EventsConfig struct {
	Brokers []string `usage:"Kafka broker addresses; empty disables publishing"`
	Topic   string   `default:"orders.created" usage:"Kafka topic for order events"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CHECKOUT",
		Files:     []string{"config.yaml", "/etc/checkout/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set CHECKOUT_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps the environment variables the platform's other
// services already use (CART_HOST/CART_PORT, INVENTORY_HOST/INVENTORY_PORT,
// DATABASE_URL, PORT) to the CHECKOUT_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
	if u := hostPortURL(os.Getenv("CART_HOST"), os.Getenv("CART_PORT")); u != "" {
		c.CartURL = u
	}
	if u := hostPortURL(os.Getenv("INVENTORY_HOST"), os.Getenv("INVENTORY_PORT")); u != "" {
		c.InventoryURL = u
	}
}

func hostPortURL(host, port string) string {
	if host == "" {
		return ""
	}
	if port == "" {
		return "http://" + host
	}
	return "http://" + host + ":" + port
}
