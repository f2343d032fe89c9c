// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Viewport() ViewportConfig
	Fetch() FetchConfig
	Render() RenderConfig
	SetRenderConfig(rc RenderConfig)

	// Viewport Setters
	SetViewportWidth(int)
	SetViewportHeight(int)

	// Fetch Setters
	SetFetchEnabled(bool)
	SetFetchTimeout(d time.Duration)
	SetFetchConcurrency(int)
}

// Config holds the entire application configuration. Fields are exported
// so viper can unmarshal into them; callers go through the Interface.
type Config struct {
	LoggerCfg   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	ViewportCfg ViewportConfig `mapstructure:"viewport" yaml:"viewport"`
	FetchCfg    FetchConfig    `mapstructure:"fetch" yaml:"fetch"`
	// RenderCfg gets its marching orders from CLI flags, not the config file.
	RenderCfg RenderConfig `mapstructure:"-" yaml:"-"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Viewport() ViewportConfig { return c.ViewportCfg }
func (c *Config) Fetch() FetchConfig       { return c.FetchCfg }
func (c *Config) Render() RenderConfig     { return c.RenderCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetRenderConfig(rc RenderConfig) { c.RenderCfg = rc }

// Viewport Setters
func (c *Config) SetViewportWidth(w int)  { c.ViewportCfg.Width = w }
func (c *Config) SetViewportHeight(h int) { c.ViewportCfg.Height = h }

// Fetch Setters
func (c *Config) SetFetchEnabled(b bool)          { c.FetchCfg.Enabled = b }
func (c *Config) SetFetchTimeout(d time.Duration) { c.FetchCfg.Timeout = d }
func (c *Config) SetFetchConcurrency(n int)       { c.FetchCfg.Concurrency = n }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// ViewportConfig describes the area the document is laid out into. The
// converter uses it to size objects that have no intrinsic dimensions.
type ViewportConfig struct {
	Width  int `mapstructure:"width" yaml:"width"`
	Height int `mapstructure:"height" yaml:"height"`
}

// FetchConfig tunes retrieval of embedded objects (images, frames,
// plugin data) referenced by the document.
type FetchConfig struct {
	Enabled     bool              `mapstructure:"enabled" yaml:"enabled"`
	Timeout     time.Duration     `mapstructure:"timeout" yaml:"timeout"`
	Concurrency int               `mapstructure:"concurrency" yaml:"concurrency"`
	RateLimit   float64           `mapstructure:"rate_limit" yaml:"rate_limit"`
	MaxBodySize int64             `mapstructure:"max_body_size" yaml:"max_body_size"`
	UserAgent   string            `mapstructure:"user_agent" yaml:"user_agent"`
	Headers     map[string]string `mapstructure:"headers" yaml:"headers"`
}

// RenderConfig holds settings populated from CLI flags for a single run.
type RenderConfig struct {
	Input  string
	Output string
	Format string
	Base   string
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "boxtree")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Viewport --
	v.SetDefault("viewport.width", 800)
	v.SetDefault("viewport.height", 600)

	// -- Fetch --
	v.SetDefault("fetch.enabled", false)
	v.SetDefault("fetch.timeout", "30s")
	v.SetDefault("fetch.concurrency", 4)
	v.SetDefault("fetch.rate_limit", 10.0)
	v.SetDefault("fetch.max_body_size", 8<<20)
	v.SetDefault("fetch.user_agent", "boxtree/1.0")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.ViewportCfg.Width <= 0 || c.ViewportCfg.Height <= 0 {
		return fmt.Errorf("viewport dimensions must be positive integers")
	}
	if err := c.FetchCfg.Validate(); err != nil {
		return fmt.Errorf("fetch configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the fetch settings.
func (f *FetchConfig) Validate() error {
	if !f.Enabled {
		return nil
	}
	if f.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be a positive integer")
	}
	if f.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	if f.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be greater than 0")
	}
	return nil
}
