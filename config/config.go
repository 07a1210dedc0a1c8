package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Search    SearchConfig    `mapstructure:"search"`
	Fusion    FusionConfig    `mapstructure:"fusion"`
	Vision    VisionConfig    `mapstructure:"vision"`
	Retailers RetailersConfig `mapstructure:"retailers"`
	Browser   BrowserConfig   `mapstructure:"browser"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	MaxUploadMB    int64    `mapstructure:"max_upload_mb"`
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type      string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL  string        `mapstructure:"redis_url"`
	SearchTTL time.Duration `mapstructure:"search_ttl"` // 0 disables result caching
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP       int     `mapstructure:"per_ip"`       // Requests per minute per client IP
	RetailerRPS float64 `mapstructure:"retailer_rps"` // Outbound requests per second per retailer
}

// SearchConfig holds aggregation settings
type SearchConfig struct {
	TextMaxResults  int           `mapstructure:"text_max_results"`
	ImageMaxResults int           `mapstructure:"image_max_results"`
	AdapterTimeout  time.Duration `mapstructure:"adapter_timeout"`
	DedupThreshold  float64       `mapstructure:"dedup_threshold"`
	PriceSites      []string      `mapstructure:"price_sites"`
}

// FusionConfig holds signal fusion thresholds
type FusionConfig struct {
	ConfidenceFloor   float64  `mapstructure:"confidence_floor"`
	CaptionConfidence float64  `mapstructure:"caption_confidence"`
	KnownBrands       []string `mapstructure:"known_brands"`
}

// VisionConfig holds the inference service endpoints
type VisionConfig struct {
	DetectorURL       string        `mapstructure:"detector_url"`
	CaptionURL        string        `mapstructure:"caption_url"`
	OCRURL            string        `mapstructure:"ocr_url"`
	Timeout           time.Duration `mapstructure:"timeout"`
	MinTextConfidence float64       `mapstructure:"min_text_confidence"`
}

// RetailerConfig holds settings for one retailer source
type RetailerConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// RetailersConfig holds the shipped retailer sources
type RetailersConfig struct {
	Amazon         RetailerConfig `mapstructure:"amazon"`
	Flipkart       RetailerConfig `mapstructure:"flipkart"`
	GoogleShopping RetailerConfig `mapstructure:"google_shopping"`
}

// BrowserConfig holds headless browser settings for rendered sources
type BrowserConfig struct {
	ControlURL string        `mapstructure:"control_url"` // Empty launches a local browser
	Settle     time.Duration `mapstructure:"settle"`
}

// MetricsConfig holds Prometheus exposition settings
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/shoplens/")

	// Environment variable settings, e.g. SHOPLENS_CACHE_REDIS_URL
	v.SetEnvPrefix("SHOPLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set default values
	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"chrome-extension://*", "http://localhost:3000"})
	v.SetDefault("server.max_upload_mb", 10)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.search_ttl", "15m")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 100)
	v.SetDefault("ratelimit.retailer_rps", 2.0)

	// Search defaults
	v.SetDefault("search.text_max_results", 3)
	v.SetDefault("search.image_max_results", 2)
	v.SetDefault("search.adapter_timeout", "10s")
	v.SetDefault("search.dedup_threshold", 0.6)
	v.SetDefault("search.price_sites", []string{"amazon", "flipkart"})

	// Fusion defaults
	v.SetDefault("fusion.confidence_floor", 0.3)
	v.SetDefault("fusion.caption_confidence", 0.7)
	v.SetDefault("fusion.known_brands", []string{})

	// Vision defaults
	v.SetDefault("vision.detector_url", "")
	v.SetDefault("vision.caption_url", "")
	v.SetDefault("vision.ocr_url", "")
	v.SetDefault("vision.timeout", "30s")
	v.SetDefault("vision.min_text_confidence", 0.5)

	// Retailer defaults
	v.SetDefault("retailers.amazon.enabled", true)
	v.SetDefault("retailers.amazon.base_url", "https://www.amazon.in")
	v.SetDefault("retailers.amazon.timeout", "10s")
	v.SetDefault("retailers.flipkart.enabled", true)
	v.SetDefault("retailers.flipkart.base_url", "https://www.flipkart.com")
	v.SetDefault("retailers.flipkart.timeout", "10s")
	v.SetDefault("retailers.google_shopping.enabled", false)
	v.SetDefault("retailers.google_shopping.base_url", "https://www.google.com")
	v.SetDefault("retailers.google_shopping.timeout", "15s")

	// Browser defaults
	v.SetDefault("browser.control_url", "")
	v.SetDefault("browser.settle", "1s")

	// Metrics defaults
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("redis URL is required when cache type is 'redis'")
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got: %s", config.Logging.Format)
	}

	if config.Search.DedupThreshold <= 0 || config.Search.DedupThreshold > 1 {
		return fmt.Errorf("search dedup threshold must be in (0, 1], got: %v", config.Search.DedupThreshold)
	}

	if config.Fusion.ConfidenceFloor < 0 || config.Fusion.ConfidenceFloor >= 1 {
		return fmt.Errorf("fusion confidence floor must be in [0, 1), got: %v", config.Fusion.ConfidenceFloor)
	}

	if config.Search.TextMaxResults <= 0 || config.Search.ImageMaxResults <= 0 {
		return fmt.Errorf("search max results must be positive")
	}

	if config.Metrics.Enabled && !strings.HasPrefix(config.Metrics.Path, "/") {
		return fmt.Errorf("metrics path must start with '/', got: %s", config.Metrics.Path)
	}

	return nil
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
