package shared

import (
	_ "embed"
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	EnvEndpoint = "MIXTAPE_ENDPOINT"
	EnvAddr     = "MIXTAPE_ADDR"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Service     ServiceConfig `toml:"service"`
	Server      ServerConfig  `toml:"server"`
	Batch       BatchConfig   `toml:"batch"`
	Suggestions []Suggestion  `toml:"suggestions"`
}

// ServiceConfig locates the recommendation endpoint.
type ServiceConfig struct {
	Endpoint  string   `toml:"endpoint"`
	Timeout   Duration `toml:"timeout"`
	RateLimit float64  `toml:"rate_limit"`
}

// ServerConfig contains HTTP server settings for the web UI.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// BatchConfig holds defaults for the batch command.
type BatchConfig struct {
	Workers   int    `toml:"workers"`
	Format    string `toml:"format"`
	OutputDir string `toml:"output_dir"`
}

// Suggestion is a preset prompt offered on the welcome screen.
type Suggestion struct {
	Label  string `toml:"label"`
	Prompt string `toml:"prompt"`
}

// Duration wraps [time.Duration] so it can be written as "30s" in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("%w: bad duration %q", ErrInvalidConfig, text)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// LoadConfig reads a TOML configuration file on top of [DefaultConfig], so keys missing from the file keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var keys struct{}
	md, err := toml.Decode(string(data), &keys)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config := DefaultConfig()
	// toml decodes array tables into the existing elements, so defaults would leak into user entries.
	if md.IsDefined("suggestions") {
		config.Suggestions = nil
	}
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// ResolveConfig builds the effective configuration.
//
// Precedence, lowest first: embedded defaults, the file at path (skipped when it does not exist), environment.
func ResolveConfig(path string) (*Config, error) {
	config := DefaultConfig()
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if config, err = LoadConfig(path); err != nil {
				return nil, err
			}
		}
	}

	if err := config.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// ApplyEnv overrides fields from environment variables looked up with lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvEndpoint); ok && v != "" {
		c.Service.Endpoint = v
	}
	if v, ok := lookup(EnvAddr); ok && v != "" {
		host, port, err := net.SplitHostPort(v)
		if err != nil {
			return fmt.Errorf("%w: %s=%q: %v", ErrInvalidConfig, EnvAddr, v, err)
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return fmt.Errorf("%w: %s port %q", ErrInvalidConfig, EnvAddr, port)
		}
		c.Server.Host = host
		c.Server.Port = p
	}
	return nil
}

// Validate checks the fields every command depends on.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Service.Endpoint)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: service.endpoint must be an absolute http(s) URL, got %q", ErrInvalidConfig, c.Service.Endpoint)
	}
	if c.Service.Timeout.Duration <= 0 {
		return fmt.Errorf("%w: service.timeout must be positive", ErrInvalidConfig)
	}
	if c.Service.RateLimit < 0 {
		return fmt.Errorf("%w: service.rate_limit cannot be negative", ErrInvalidConfig)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	for i, s := range c.Suggestions {
		if s.Prompt == "" {
			return fmt.Errorf("%w: suggestions[%d] has no prompt", ErrInvalidConfig, i)
		}
	}
	return nil
}

// Addr returns the listen address for the web UI.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
