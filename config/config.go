// Package config loads the feed's YAML configuration.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/krisalay/imagefeed/eviction"
	"github.com/krisalay/imagefeed/logging"
)

//go:embed default_config.yaml
var defaultConfig []byte

// Fallbacks used when a duration is missing or unparsable.
const (
	DefaultStaleAfter      = 5 * time.Minute
	DefaultIdleExpire      = 30 * time.Minute
	DefaultTimeout         = 10 * time.Second
	DefaultRetryBaseDelay  = time.Second
	DefaultRetryMaxDelay   = 30 * time.Second
	DefaultRefreshInterval = 5 * time.Minute
)

type Config struct {
	Relays           []string `yaml:"relays"`
	BlossomServer    string   `yaml:"blossom_server"`
	QueryLimit       int      `yaml:"query_limit"`
	VerifySignatures bool     `yaml:"verify_signatures"`

	StaleAfter      string `yaml:"stale_after"`
	IdleExpire      string `yaml:"idle_expire"`
	Timeout         string `yaml:"timeout"`
	Retries         int    `yaml:"retries"`
	RetryBaseDelay  string `yaml:"retry_base_delay"`
	RetryMaxDelay   string `yaml:"retry_max_delay"`
	RefreshInterval string `yaml:"refresh_interval"`

	Shards   int    `yaml:"shards"`
	Capacity int    `yaml:"capacity"`
	Eviction string `yaml:"eviction"`

	Log logging.Config `yaml:"log"`
}

// Default returns the embedded defaults.
func Default() (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultConfig, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

// Load reads path over the defaults. A missing file is not an error when
// path is empty; keys absent from the file keep their default.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	for _, r := range c.Relays {
		if !strings.HasPrefix(r, "ws://") && !strings.HasPrefix(r, "wss://") {
			errs = append(errs, fmt.Errorf("relay %q: want ws:// or wss://", r))
		}
	}
	if c.BlossomServer != "" && !strings.HasPrefix(c.BlossomServer, "http://") && !strings.HasPrefix(c.BlossomServer, "https://") {
		errs = append(errs, fmt.Errorf("blossom_server %q: want http:// or https://", c.BlossomServer))
	}
	if c.QueryLimit < 0 {
		errs = append(errs, errors.New("query_limit must not be negative"))
	}
	if c.Retries < 0 {
		errs = append(errs, errors.New("retries must not be negative"))
	}
	if c.Shards < 0 || c.Capacity < 0 {
		errs = append(errs, errors.New("shards and capacity must not be negative"))
	}
	if _, err := eviction.ParsePolicyType(c.Eviction); err != nil {
		errs = append(errs, err)
	}
	for name, v := range map[string]string{
		"stale_after":      c.StaleAfter,
		"idle_expire":      c.IdleExpire,
		"timeout":          c.Timeout,
		"retry_base_delay": c.RetryBaseDelay,
		"retry_max_delay":  c.RetryMaxDelay,
		"refresh_interval": c.RefreshInterval,
	} {
		if v == "" {
			continue
		}
		if _, err := time.ParseDuration(v); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (c *Config) StaleAfterDuration() time.Duration {
	return duration(c.StaleAfter, DefaultStaleAfter)
}

// IdleExpireDuration is 0 (never expire) when set to "0" or "off".
func (c *Config) IdleExpireDuration() time.Duration {
	if c.IdleExpire == "off" {
		return 0
	}
	return duration(c.IdleExpire, DefaultIdleExpire)
}

func (c *Config) TimeoutDuration() time.Duration {
	return duration(c.Timeout, DefaultTimeout)
}

func (c *Config) RetryBaseDelayDuration() time.Duration {
	return duration(c.RetryBaseDelay, DefaultRetryBaseDelay)
}

func (c *Config) RetryMaxDelayDuration() time.Duration {
	return duration(c.RetryMaxDelay, DefaultRetryMaxDelay)
}

// RefreshDuration is 0 (no interval refresh) when set to "0" or "off".
func (c *Config) RefreshDuration() time.Duration {
	if c.RefreshInterval == "off" {
		return 0
	}
	return duration(c.RefreshInterval, DefaultRefreshInterval)
}

// EvictionPolicy falls back to LRU for an unknown name; Validate reports it.
func (c *Config) EvictionPolicy() eviction.PolicyType {
	p, err := eviction.ParsePolicyType(c.Eviction)
	if err != nil {
		return eviction.LRU
	}
	return p
}

func duration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return def
	}
	return d
}
