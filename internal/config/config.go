package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ksyq12/cpaneldns/internal/errors"
)

// Config represents the application configuration
type Config struct {
	Credentials        string              `yaml:"credentials"`
	TTL                int                 `yaml:"ttl"`
	Timeout            time.Duration       `yaml:"timeout"`
	ReadRetries        int                 `yaml:"read_retries"`
	PropagationSeconds int                 `yaml:"propagation_seconds"`
	Resolver           string              `yaml:"resolver"`
	Certbot            Certbot             `yaml:"certbot"`
	Accounts           map[string]*Account `yaml:"accounts,omitempty"`
}

// Certbot holds settings for the certonly command.
type Certbot struct {
	Path      string `yaml:"path,omitempty"`
	ConfigDir string `yaml:"config_dir,omitempty"`
	Email     string `yaml:"email,omitempty"`
}

// configDir is the default config directory
const configDir = ".config/cpaneldns"
const configFile = "config.yaml"

// Defaults
const (
	DefaultCredentials        = "/etc/letsencrypt/cpanel.ini"
	DefaultTTL                = 60
	DefaultTimeout            = 30 * time.Second
	DefaultReadRetries        = 3
	DefaultPropagationSeconds = 30
)

// New creates a new Config with default values
func New() *Config {
	return &Config{
		Credentials:        DefaultCredentials,
		TTL:                DefaultTTL,
		Timeout:            DefaultTimeout,
		ReadRetries:        DefaultReadRetries,
		PropagationSeconds: DefaultPropagationSeconds,
		Accounts:           make(map[string]*Account),
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, configDir), nil
}

// ConfigPath returns the config file path
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFile), nil
}

// Load reads the config from the default path.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads the config from path. A missing file yields the defaults.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return New(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapDomain(errors.ErrCodeConfig, path, "failed to read config", err)
	}

	cfg := New()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.WrapDomain(errors.ErrCodeConfig, path, "failed to parse config", err)
	}

	// Initialize Accounts map if nil
	if cfg.Accounts == nil {
		cfg.Accounts = make(map[string]*Account)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.WrapDomain(errors.ErrCodeConfig, path, "invalid config", err)
	}

	return cfg, nil
}

// Validate rejects values no command can work with.
func (c *Config) Validate() error {
	if c.TTL < 0 {
		return fmt.Errorf("ttl must not be negative, got %d", c.TTL)
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.ReadRetries < 0 {
		return fmt.Errorf("read_retries must not be negative, got %d", c.ReadRetries)
	}
	if c.PropagationSeconds < 0 {
		return fmt.Errorf("propagation_seconds must not be negative, got %d", c.PropagationSeconds)
	}
	for key, a := range c.Accounts {
		if a == nil || a.Credentials == "" {
			return fmt.Errorf("account %s: credentials is required", key)
		}
	}
	return nil
}

// Save writes the config to the default path.
func (c *Config) Save() error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes the config to path, creating its directory.
func (c *Config) SaveTo(path string) error {
	// Create config directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WrapDomain(errors.ErrCodeConfig, path, "failed to create config directory", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfig, "failed to marshal config", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.WrapDomain(errors.ErrCodeConfig, path, "failed to write config", err)
	}

	return nil
}

// CredentialsFor returns the credentials file for fqdn: the account with the
// longest matching domain, or the global credentials.
func (c *Config) CredentialsFor(fqdn string) string {
	if a := c.AccountFor(fqdn); a != nil {
		return a.Credentials
	}
	return c.Credentials
}

// TTLFor returns the account TTL for fqdn when set, else the global TTL.
func (c *Config) TTLFor(fqdn string) int {
	if a := c.AccountFor(fqdn); a != nil && a.TTL > 0 {
		return a.TTL
	}
	return c.TTL
}

func normalize(name string) string {
	return strings.TrimSuffix(strings.ToLower(strings.TrimSpace(name)), ".")
}
