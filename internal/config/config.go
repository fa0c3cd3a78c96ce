package config

import (
	"element-scout/internal/discovery"
	"element-scout/internal/entity"
	"element-scout/internal/explorer"
	"element-scout/internal/retry"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppConfig       *AppConfig
	BrowserConfig   *BrowserConfig
	DiscoveryConfig *DiscoveryConfig
	RetryConfig     *RetryConfig
	BatchConfig     *BatchConfig
}

type AppConfig struct {
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	Debug    bool   `envconfig:"DEBUG" default:"false"`
	Tracing  bool   `envconfig:"TRACING_STDOUT" default:"false"`
}

type BrowserConfig struct {
	Headless          bool   `envconfig:"BROWSER_HEADLESS" default:"true"`
	SlowMo            int    `envconfig:"BROWSER_SLOW_MO" default:"0"`
	Timeout           int    `envconfig:"BROWSER_TIMEOUT" default:"30000"`
	UserAgent         string `envconfig:"BROWSER_USER_AGENT" default:"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"`
	ViewportWidth     int    `envconfig:"BROWSER_VIEWPORT_WIDTH" default:"1280"`
	ViewportHeight    int    `envconfig:"BROWSER_VIEWPORT_HEIGHT" default:"720"`
	IgnoreHTTPSErrors bool   `envconfig:"BROWSER_IGNORE_HTTPS_ERRORS" default:"false"`
}

type DiscoveryConfig struct {
	FastMode    bool    `envconfig:"DISCOVERY_FAST_MODE" default:"false"`
	MinQuality  float64 `envconfig:"DISCOVERY_MIN_QUALITY" default:"0.35"`
	MaxElements int     `envconfig:"DISCOVERY_MAX_ELEMENTS" default:"250"`
	MaxTriggers int     `envconfig:"DISCOVERY_MAX_TRIGGERS" default:"10"`
	Explore     bool    `envconfig:"DISCOVERY_EXPLORE" default:"true"`
}

type RetryConfig struct {
	MaxRetries        int      `envconfig:"RETRY_MAX_RETRIES" default:"3"`
	DelaysMs          []int    `envconfig:"RETRY_DELAYS" default:"2000,5000,10000"`
	BackoffMultiplier float64  `envconfig:"RETRY_BACKOFF_MULTIPLIER" default:"1.5"`
	MaxJitterMs       int      `envconfig:"RETRY_MAX_JITTER" default:"1000"`
	Categories        []string `envconfig:"RETRY_CATEGORIES" default:"NETWORK_ERROR,TIMEOUT_ERROR,BROWSER_ERROR,SSL_ERROR,JAVASCRIPT_ERROR"`
}

type BatchConfig struct {
	Concurrency int     `envconfig:"BATCH_CONCURRENCY" default:"2"`
	HostRPS     float64 `envconfig:"BATCH_HOST_RPS" default:"0.5"`
}

func GetConfig() (*Config, error) {
	_ = godotenv.Load()

	var conf Config

	if err := envconfig.Process("", &conf); err != nil {
		return nil, fmt.Errorf("read config from env vars: %w", err)
	}

	return &conf, nil
}

func (c *DiscoveryConfig) Scanner() discovery.Config {
	return discovery.Config{
		MinQuality:  c.MinQuality,
		MaxElements: c.MaxElements,
	}
}

func (c *DiscoveryConfig) Explorer() explorer.Config {
	cfg := explorer.DefaultConfig()
	cfg.MaxTriggers = c.MaxTriggers

	return cfg
}

func (c *RetryConfig) Policy() retry.Config {
	delays := make([]time.Duration, 0, len(c.DelaysMs))
	for _, ms := range c.DelaysMs {
		delays = append(delays, time.Duration(ms)*time.Millisecond)
	}

	categories := make([]entity.ErrorCategory, 0, len(c.Categories))
	for _, cat := range c.Categories {
		categories = append(categories, entity.ErrorCategory(cat))
	}

	return retry.Config{
		MaxRetries:        c.MaxRetries,
		Delays:            delays,
		BackoffMultiplier: c.BackoffMultiplier,
		MaxJitter:         time.Duration(c.MaxJitterMs) * time.Millisecond,
		Retryable:         categories,
	}
}

func (c *BrowserConfig) TimeoutDuration() time.Duration {
	return time.Duration(c.Timeout) * time.Millisecond
}
