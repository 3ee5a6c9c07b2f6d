package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/liliang-cn/askcite/internal/resolver"
	"github.com/spf13/viper"
)

// Config holds all configuration for AskCite
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Admin     AdminConfig     `mapstructure:"admin"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Resolver  ResolverConfig  `mapstructure:"resolver"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Stream    StreamConfig    `mapstructure:"stream"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"`
}

// AdminConfig holds admin authentication configuration
type AdminConfig struct {
	APIKey string `mapstructure:"api_key"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Development bool `mapstructure:"development"`
}

// ResolverConfig holds deep link resolution configuration.
// An empty BackendBaseURL resolves page links from the local document registry.
type ResolverConfig struct {
	BackendBaseURL       string `mapstructure:"backend_base_url"`
	LookupTimeoutMS      int    `mapstructure:"lookup_timeout_ms"`
	MaxConcurrentLookups int    `mapstructure:"max_concurrent_lookups"`
	VideoBaseURL         string `mapstructure:"video_base_url"`
}

// EngineConfig holds citation composition configuration
type EngineConfig struct {
	OffsetUnit string `mapstructure:"offset_unit"` // bytes, utf16
}

// StreamConfig holds streaming configuration
type StreamConfig struct {
	PaceMS int `mapstructure:"pace_ms"`
}

// CacheConfig holds the optional Redis link cache configuration
type CacheConfig struct {
	RedisAddr  string `mapstructure:"redis_addr"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	TTLSeconds int    `mapstructure:"ttl_seconds"`
	Prefix     string `mapstructure:"prefix"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	RequestsPerHour int  `mapstructure:"requests_per_hour"`
}

// Load loads configuration from file and environment
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// ASKCITE_RESOLVER_BACKEND_BASE_URL overrides resolver.backend_base_url
	v.SetEnvPrefix("ASKCITE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")

	v.SetDefault("admin.api_key", "")

	v.SetDefault("database.path", "./data/askcite.db")

	v.SetDefault("log.development", false)

	v.SetDefault("resolver.backend_base_url", "")
	v.SetDefault("resolver.lookup_timeout_ms", 3000)
	v.SetDefault("resolver.max_concurrent_lookups", 8)
	v.SetDefault("resolver.video_base_url", resolver.DefaultVideoBaseURL)

	v.SetDefault("engine.offset_unit", "bytes")

	v.SetDefault("stream.pace_ms", 20)

	v.SetDefault("cache.redis_addr", "")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl_seconds", 1800)
	v.SetDefault("cache.prefix", "askcite")

	v.SetDefault("rate_limit.enabled", true)
	v.SetDefault("rate_limit.requests_per_hour", 100)
}

// Validate rejects settings the engine cannot run with
func (c *Config) Validate() error {
	switch strings.ToLower(c.Engine.OffsetUnit) {
	case "", "bytes", "utf16":
	default:
		return fmt.Errorf("invalid engine.offset_unit %q", c.Engine.OffsetUnit)
	}
	if c.Resolver.LookupTimeoutMS < 0 {
		return fmt.Errorf("invalid resolver.lookup_timeout_ms %d", c.Resolver.LookupTimeoutMS)
	}
	if c.Resolver.MaxConcurrentLookups < 0 {
		return fmt.Errorf("invalid resolver.max_concurrent_lookups %d", c.Resolver.MaxConcurrentLookups)
	}
	return nil
}

// Address returns the server address
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ResolverOptions returns the options the resolver is built with
func (c *Config) ResolverOptions() resolver.Options {
	return resolver.Options{
		BackendBaseURL:       strings.TrimRight(c.Resolver.BackendBaseURL, "/"),
		LookupTimeout:        time.Duration(c.Resolver.LookupTimeoutMS) * time.Millisecond,
		MaxConcurrentLookups: c.Resolver.MaxConcurrentLookups,
		VideoBaseURL:         c.Resolver.VideoBaseURL,
	}
}

// StreamPace returns the delay between streamed frames
func (c *Config) StreamPace() time.Duration {
	return time.Duration(c.Stream.PaceMS) * time.Millisecond
}

// CacheTTL returns the link cache TTL
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}
