package config

import (
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Supported service auth types.
const (
	AuthBearer = "bearer"
	AuthBasic  = "basic"
	AuthAPIKey = "api_key"
)

// DefaultAPIKeyHeader carries the key when api_key auth names no header.
const DefaultAPIKeyHeader = "X-API-Key"

// AuthConfig describes how the workbench authenticates to the remote service.
type AuthConfig struct {
	Type         string `yaml:"type"` // "bearer", "basic", "api_key" or empty
	Token        string `yaml:"token"`
	Username     string `yaml:"username"`
	Password     string `yaml:"password"`
	APIKey       string `yaml:"api_key"`
	APIKeyHeader string `yaml:"api_key_header"`
}

// ServiceConfig points at the Remote Workflow Service.
type ServiceConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	Insecure bool          `yaml:"insecure"` // skip TLS verification
	CACert   string        `yaml:"ca_cert"`
	Auth     AuthConfig    `yaml:"auth"`
}

// ListingConfig holds listing defaults.
type ListingConfig struct {
	PageSize int `yaml:"page_size"`
}

// ProbeConfig holds connection probe settings.
type ProbeConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// TransferConfig holds batch transfer settings.
type TransferConfig struct {
	Concurrency int `yaml:"concurrency"`
}

// Config holds all configuration (CLI flags + config file).
type Config struct {
	Listen   string         `yaml:"listen"`
	WebDir   string         `yaml:"web_dir"`
	DevProxy string         `yaml:"dev_proxy"` // frontend dev server to proxy to
	Service  ServiceConfig  `yaml:"service"`
	Listing  ListingConfig  `yaml:"listing"`
	Probe    ProbeConfig    `yaml:"probe"`
	Transfer TransferConfig `yaml:"transfer"`

	// internal: path to config file (from CLI flag)
	configFile string
}

// Parse reads CLI flags, then overlays config file values.
// CLI flags take precedence over config file values.
func Parse() *Config {
	c := &Config{}
	flag.StringVar(&c.configFile, "config", "", "Path to config file (YAML)")
	flag.StringVar(&c.Listen, "listen", "", "HTTP listen address")
	flag.StringVar(&c.Service.BaseURL, "service-url", "", "Remote workflow service base URL")
	flag.StringVar(&c.WebDir, "web-dir", "", "Directory with the built frontend (optional)")
	flag.StringVar(&c.DevProxy, "dev-proxy", "", "Proxy non-API requests to this frontend dev server URL")
	flag.Parse()

	if c.configFile != "" {
		if err := c.loadFile(c.configFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config file: %v\n", err)
			os.Exit(1)
		}
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	return c
}

// Load reads a config file without touching the global flag set.
// An empty path yields the defaults.
func Load(path string) (*Config, error) {
	c := &Config{}
	if path != "" {
		if err := c.loadFile(path); err != nil {
			return nil, err
		}
	}
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// loadFile reads a YAML config file. Values from the file are only applied
// if the corresponding CLI flag was not explicitly set.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	if c.Listen == "" && file.Listen != "" {
		c.Listen = file.Listen
	}
	if c.WebDir == "" && file.WebDir != "" {
		c.WebDir = file.WebDir
	}
	if c.DevProxy == "" && file.DevProxy != "" {
		c.DevProxy = file.DevProxy
	}
	baseURL := c.Service.BaseURL
	c.Service = file.Service
	if baseURL != "" {
		c.Service.BaseURL = baseURL
	}

	// Tuning sections always come from the config file
	c.Listing = file.Listing
	c.Probe = file.Probe
	c.Transfer = file.Transfer

	return nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.Service.BaseURL == "" {
		c.Service.BaseURL = "http://localhost:5000/api"
	}
	if c.Service.Timeout <= 0 {
		c.Service.Timeout = 30 * time.Second
	}
	if c.Service.Auth.Type == AuthAPIKey && c.Service.Auth.APIKeyHeader == "" {
		c.Service.Auth.APIKeyHeader = DefaultAPIKeyHeader
	}
	if c.Listing.PageSize <= 0 {
		c.Listing.PageSize = 20
	}
	if c.Probe.Timeout <= 0 {
		c.Probe.Timeout = 10 * time.Second
	}
	if c.Transfer.Concurrency <= 0 {
		c.Transfer.Concurrency = 4
	}
}

// Validate checks the service auth block the same way the service's own
// config loader does.
func (c *Config) Validate() error {
	a := c.Service.Auth
	switch a.Type {
	case "", "none":
	case AuthBearer:
		if a.Token == "" {
			return fmt.Errorf("service.auth: bearer auth requires token")
		}
	case AuthBasic:
		if a.Username == "" || a.Password == "" {
			return fmt.Errorf("service.auth: basic auth requires username and password")
		}
	case AuthAPIKey:
		if a.APIKey == "" {
			return fmt.Errorf("service.auth: api_key auth requires api_key")
		}
	default:
		return fmt.Errorf("service.auth: unsupported auth type %q", a.Type)
	}
	return nil
}
