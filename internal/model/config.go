package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the complete medscrape configuration
type Config struct {
	Site         SiteConfig         `yaml:"site" mapstructure:"site"`
	HTTP         HTTPConfig         `yaml:"http" mapstructure:"http"`
	Cache        CacheConfig        `yaml:"cache" mapstructure:"cache"`
	Concurrency  ConcurrencyConfig  `yaml:"concurrency" mapstructure:"concurrency"`
	RateLimiting RateLimitingConfig `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
	LLM          LLMConfig          `yaml:"llm" mapstructure:"llm"`
}

// SiteConfig locates the review site and its search entry points
type SiteConfig struct {
	BaseURL         string `yaml:"base_url" mapstructure:"base_url" validate:"required,http_url"`
	SearchPath      string `yaml:"search_path" mapstructure:"search_path" validate:"required,startswith=/"`
	CommonDrugsPath string `yaml:"common_drugs_path" mapstructure:"common_drugs_path" validate:"required"`
}

// HTTPConfig controls page fetching
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent" validate:"required"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes" validate:"gte=0"`
	InsecureTLS   bool          `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the optional page cache. Disabled by default so that
// every run reflects the live site. Backend picks the persistent layer behind
// the in-memory one; DiskTTL applies to whichever backend is chosen.
type CacheConfig struct {
	Enabled       bool          `yaml:"enabled" mapstructure:"enabled"`
	Backend       string        `yaml:"backend" mapstructure:"backend" validate:"omitempty,oneof=disk redis"`
	Dir           string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL     time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl" validate:"gte=0"`
	DiskTTL       time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl" validate:"gte=0"`
	RedisAddr     string        `yaml:"redis_addr,omitempty" mapstructure:"redis_addr" validate:"required_if=Backend redis"`
	RedisPassword string        `yaml:"-" mapstructure:"redis_password"`
	RedisDB       int           `yaml:"redis_db,omitempty" mapstructure:"redis_db" validate:"gte=0"`
}

// ConcurrencyConfig bounds parallel work. All ones reproduce a strictly
// sequential walk.
type ConcurrencyConfig struct {
	PageWorkers    int `yaml:"page_workers" mapstructure:"page_workers" validate:"gte=0,lte=64"`
	ResolveWorkers int `yaml:"resolve_workers" mapstructure:"resolve_workers" validate:"gte=0,lte=64"`
	ListingWorkers int `yaml:"listing_workers" mapstructure:"listing_workers" validate:"gte=0,lte=64"`
}

// RateLimitingConfig paces requests per domain. Zero means unlimited.
type RateLimitingConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gte=0"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size" validate:"gte=0"`
}

// OutputConfig controls logging and rendering
type OutputConfig struct {
	Verbose     bool   `yaml:"verbose" mapstructure:"verbose"`
	LogFormat   string `yaml:"log_format" mapstructure:"log_format" validate:"oneof=console json"`
	MetricsFile string `yaml:"metrics_file,omitempty" mapstructure:"metrics_file"`
}

// LLMConfig configures the optional review labeler
type LLMConfig struct {
	Provider  string   `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=openai anthropic claude ollama"`
	Model     string   `yaml:"model" mapstructure:"model"`
	APIKey    string   `yaml:"-" mapstructure:"api_key"`
	BaseURL   string   `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int      `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int      `yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`
	Labels    []string `yaml:"labels" mapstructure:"labels" validate:"omitempty,min=2,dive,required"`
}

// DefaultConfig returns the defaults used when no config file or flag overrides them
func DefaultConfig() *Config {
	return &Config{
		Site: SiteConfig{
			BaseURL:         "https://www.webmd.com",
			SearchPath:      "/search/search_results/default.aspx",
			CommonDrugsPath: "/drugs/2/index?show=drugs",
		},
		HTTP: HTTPConfig{
			Timeout:      30 * time.Second,
			UserAgent:    "Mozilla/5.0 (compatible; medscrape/0.1)",
			MaxBodyBytes: 5_000_000,
		},
		Cache: CacheConfig{
			Enabled:   false,
			Backend:   "disk",
			Dir:       ".medscrape-cache",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			PageWorkers:    1,
			ResolveWorkers: 1,
			ListingWorkers: 1,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 0,
			BurstSize:         1,
		},
		Output: OutputConfig{
			LogFormat: "console",
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 10,
			Labels:    []string{"positive", "negative", "neutral"},
		},
	}
}

// Validate checks ranges and enumerations after all sources are merged
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
