// Package config loads linknest settings from defaults, an optional YAML or TOML file,
// and the environment, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/shpitdev/linknest/pkg/llm"
)

type Gemini struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type Config struct {
	Gemini Gemini

	// BatchLimit is the most URLs accepted by one batch call.
	BatchLimit int
	// Window is the number of URLs enriched concurrently within a batch.
	Window       int
	MaxRetries   int
	RateLimitRPS float64

	// CachePath enables the extraction cache when non-empty.
	CachePath string
	CacheTTL  time.Duration

	GitHubToken        string
	UserAgent          string
	TranscriptLanguage string
}

func Default() Config {
	return Config{
		Gemini: Gemini{
			Model:   llm.DefaultModel,
			Timeout: 30 * time.Second,
		},
		BatchLimit:         10,
		Window:             5,
		MaxRetries:         1,
		CacheTTL:           24 * time.Hour,
		TranscriptLanguage: "en",
	}
}

// Load builds a Config. path may be empty, in which case LINKNEST_CONFIG is consulted.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		path = strings.TrimSpace(os.Getenv("LINKNEST_CONFIG"))
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error
	if c.BatchLimit <= 0 {
		errs = append(errs, fmt.Errorf("batch limit must be positive, got %d", c.BatchLimit))
	}
	if c.Window <= 0 {
		errs = append(errs, fmt.Errorf("window must be positive, got %d", c.Window))
	}
	if c.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max retries must not be negative, got %d", c.MaxRetries))
	}
	if c.RateLimitRPS < 0 {
		errs = append(errs, fmt.Errorf("rate limit must not be negative, got %g", c.RateLimitRPS))
	}
	if c.Gemini.Timeout < 0 {
		errs = append(errs, fmt.Errorf("gemini timeout must not be negative, got %s", c.Gemini.Timeout))
	}
	if c.CacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("cache ttl must be positive, got %s", c.CacheTTL))
	}
	return errors.Join(errs...)
}

// fileConfig is the on-disk shape. Unset keys keep their current value.
type fileConfig struct {
	Gemini struct {
		APIKey  string `yaml:"api_key" toml:"api_key"`
		Model   string `yaml:"model" toml:"model"`
		BaseURL string `yaml:"base_url" toml:"base_url"`
		Timeout string `yaml:"timeout" toml:"timeout"`
	} `yaml:"gemini" toml:"gemini"`
	BatchLimit   *int     `yaml:"batch_limit" toml:"batch_limit"`
	Window       *int     `yaml:"window" toml:"window"`
	MaxRetries   *int     `yaml:"max_retries" toml:"max_retries"`
	RateLimitRPS *float64 `yaml:"rate_limit_rps" toml:"rate_limit_rps"`
	Cache        struct {
		Path string `yaml:"path" toml:"path"`
		TTL  string `yaml:"ttl" toml:"ttl"`
	} `yaml:"cache" toml:"cache"`
	GitHubToken        string `yaml:"github_token" toml:"github_token"`
	UserAgent          string `yaml:"user_agent" toml:"user_agent"`
	TranscriptLanguage string `yaml:"transcript_language" toml:"transcript_language"`
}

func (c *Config) loadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	var fc fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &fc)
	case ".toml":
		err = toml.Unmarshal(b, &fc)
	default:
		return fmt.Errorf("config %s: unsupported extension %q (want .yaml, .yml or .toml)", path, ext)
	}
	if err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return c.merge(fc)
}

func (c *Config) merge(fc fileConfig) error {
	setString(&c.Gemini.APIKey, fc.Gemini.APIKey)
	setString(&c.Gemini.Model, fc.Gemini.Model)
	setString(&c.Gemini.BaseURL, fc.Gemini.BaseURL)
	if err := setDuration(&c.Gemini.Timeout, "gemini.timeout", fc.Gemini.Timeout); err != nil {
		return err
	}
	if fc.BatchLimit != nil {
		c.BatchLimit = *fc.BatchLimit
	}
	if fc.Window != nil {
		c.Window = *fc.Window
	}
	if fc.MaxRetries != nil {
		c.MaxRetries = *fc.MaxRetries
	}
	if fc.RateLimitRPS != nil {
		c.RateLimitRPS = *fc.RateLimitRPS
	}
	setString(&c.CachePath, fc.Cache.Path)
	if err := setDuration(&c.CacheTTL, "cache.ttl", fc.Cache.TTL); err != nil {
		return err
	}
	setString(&c.GitHubToken, fc.GitHubToken)
	setString(&c.UserAgent, fc.UserAgent)
	setString(&c.TranscriptLanguage, fc.TranscriptLanguage)
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Gemini.APIKey, os.Getenv("GEMINI_API_KEY"))
	setString(&c.Gemini.Model, os.Getenv("GEMINI_MODEL"))
	setString(&c.Gemini.BaseURL, os.Getenv("GEMINI_BASE_URL"))
	setString(&c.CachePath, os.Getenv("LINKNEST_CACHE_PATH"))
	setString(&c.GitHubToken, os.Getenv("GITHUB_TOKEN"))
	setString(&c.UserAgent, os.Getenv("LINKNEST_USER_AGENT"))

	var err error
	if c.Gemini.Timeout, err = envDuration("GEMINI_TIMEOUT", c.Gemini.Timeout); err != nil {
		return err
	}
	if c.BatchLimit, err = envInt("LINKNEST_BATCH_LIMIT", c.BatchLimit); err != nil {
		return err
	}
	if c.Window, err = envInt("LINKNEST_WINDOW", c.Window); err != nil {
		return err
	}
	if c.MaxRetries, err = envInt("LINKNEST_MAX_RETRIES", c.MaxRetries); err != nil {
		return err
	}
	if c.RateLimitRPS, err = envFloat("LINKNEST_RATE_LIMIT_RPS", c.RateLimitRPS); err != nil {
		return err
	}
	if c.CacheTTL, err = envDuration("LINKNEST_CACHE_TTL", c.CacheTTL); err != nil {
		return err
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, key, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid %s=%q: %w", key, v, err)
	}
	*dst = d
	return nil
}

func envInt(varName string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envFloat(varName string, fallback float64) (float64, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}

func envDuration(varName string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(varName))
	if v == "" {
		return fallback, nil
	}
	out, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s=%q: %w", varName, v, err)
	}
	return out, nil
}
