package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config is the staffportal configuration file.
type Config struct {
	Backend    BackendConfig    `yaml:"backend" mapstructure:"backend"`
	Thumbnails ThumbnailsConfig `yaml:"thumbnails" mapstructure:"thumbnails"`
	Lists      ListsConfig      `yaml:"lists" mapstructure:"lists"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	MCP        MCPConfig        `yaml:"mcp" mapstructure:"mcp"`
	Logging    LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// BackendConfig points at the moderation REST API.
type BackendConfig struct {
	URL        string `yaml:"url" mapstructure:"url"`
	CookieName string `yaml:"cookie_name" mapstructure:"cookie_name"`
	// SessionCookie overrides the session saved by "staffportal login".
	SessionCookie string `yaml:"session_cookie,omitempty" mapstructure:"session_cookie"`
	Timeout       string `yaml:"timeout" mapstructure:"timeout"`
}

// ThumbnailsConfig controls avatar resolution.
type ThumbnailsConfig struct {
	Host      string `yaml:"host" mapstructure:"host"`
	Timeout   string `yaml:"timeout" mapstructure:"timeout"`
	BatchSize int    `yaml:"batch_size" mapstructure:"batch_size"`
	Retries   int    `yaml:"retries" mapstructure:"retries"`
	Backoff   string `yaml:"backoff" mapstructure:"backoff"`

	// RedisURL enables a shared avatar cache, e.g. redis://localhost:6379/0.
	RedisURL    string `yaml:"redis_url" mapstructure:"redis_url"`
	RedisTTL    string `yaml:"redis_ttl" mapstructure:"redis_ttl"`
	RedisPrefix string `yaml:"redis_prefix" mapstructure:"redis_prefix"`
}

// ListsConfig tunes the list views.
type ListsConfig struct {
	Debounce       string `yaml:"debounce" mapstructure:"debounce"`
	LookupDebounce string `yaml:"lookup_debounce" mapstructure:"lookup_debounce"`
	Timezone       string `yaml:"timezone" mapstructure:"timezone"`
}

// ServerConfig controls the dashboard HTTP server.
type ServerConfig struct {
	Host            string     `yaml:"host" mapstructure:"host"`
	Port            int        `yaml:"port" mapstructure:"port"`
	ShutdownTimeout string     `yaml:"shutdown_timeout" mapstructure:"shutdown_timeout"`
	RateLimit       int        `yaml:"rate_limit" mapstructure:"rate_limit"`
	CORS            CORSConfig `yaml:"cors" mapstructure:"cors"`
	TLS             TLSConfig  `yaml:"tls" mapstructure:"tls"`
}

// CORSConfig controls cross-origin resource sharing settings.
type CORSConfig struct {
	Origins []string `yaml:"origins" mapstructure:"origins"`
	Methods []string `yaml:"methods" mapstructure:"methods"`
}

// TLSConfig controls TLS termination at the server level.
type TLSConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	CertFile string `yaml:"cert_file" mapstructure:"cert_file"`
	KeyFile  string `yaml:"key_file" mapstructure:"key_file"`
}

// MCPConfig controls the MCP (Model Context Protocol) server.
type MCPConfig struct {
	Transport string `yaml:"transport" mapstructure:"transport"`
	Addr      string `yaml:"addr" mapstructure:"addr"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Default returns a Config pre-filled with sensible defaults.
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			URL:        "http://localhost:3000",
			CookieName: "connect.sid",
			Timeout:    "10s",
		},
		Thumbnails: ThumbnailsConfig{
			Host:        "https://thumbnails.rotunnel.com",
			Timeout:     "10s",
			BatchSize:   50,
			Retries:     0,
			Backoff:     "250ms",
			RedisTTL:    "24h",
			RedisPrefix: "staffportal:",
		},
		Lists: ListsConfig{
			Debounce:       "500ms",
			LookupDebounce: "1s",
			Timezone:       "Local",
		},
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ShutdownTimeout: "30s",
			RateLimit:       300,
			CORS: CORSConfig{
				Origins: []string{},
				Methods: []string{"GET", "POST", "PATCH", "DELETE"},
			},
		},
		MCP: MCPConfig{
			Transport: "stdio",
			Addr:      "127.0.0.1:3001",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// SetDefaults registers every key with v so that environment variables
// such as STAFFPORTAL_BACKEND_URL are picked up by Load.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("backend.url", d.Backend.URL)
	v.SetDefault("backend.cookie_name", d.Backend.CookieName)
	v.SetDefault("backend.session_cookie", d.Backend.SessionCookie)
	v.SetDefault("backend.timeout", d.Backend.Timeout)

	v.SetDefault("thumbnails.host", d.Thumbnails.Host)
	v.SetDefault("thumbnails.timeout", d.Thumbnails.Timeout)
	v.SetDefault("thumbnails.batch_size", d.Thumbnails.BatchSize)
	v.SetDefault("thumbnails.retries", d.Thumbnails.Retries)
	v.SetDefault("thumbnails.backoff", d.Thumbnails.Backoff)
	v.SetDefault("thumbnails.redis_url", d.Thumbnails.RedisURL)
	v.SetDefault("thumbnails.redis_ttl", d.Thumbnails.RedisTTL)
	v.SetDefault("thumbnails.redis_prefix", d.Thumbnails.RedisPrefix)

	v.SetDefault("lists.debounce", d.Lists.Debounce)
	v.SetDefault("lists.lookup_debounce", d.Lists.LookupDebounce)
	v.SetDefault("lists.timezone", d.Lists.Timezone)

	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	v.SetDefault("server.rate_limit", d.Server.RateLimit)
	v.SetDefault("server.cors.origins", d.Server.CORS.Origins)
	v.SetDefault("server.cors.methods", d.Server.CORS.Methods)
	v.SetDefault("server.tls.enabled", d.Server.TLS.Enabled)
	v.SetDefault("server.tls.cert_file", d.Server.TLS.CertFile)
	v.SetDefault("server.tls.key_file", d.Server.TLS.KeyFile)

	v.SetDefault("mcp.transport", d.MCP.Transport)
	v.SetDefault("mcp.addr", d.MCP.Addr)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// Load builds a Config from v (file, environment and defaults) and
// validates it.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads and parses a YAML configuration file on top of the
// defaults. Environment variables referenced as ${VAR_NAME} in the file are
// expanded before parsing.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	// Expand environment variables: ${VAR_NAME}
	content := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(content), cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// WriteDefault writes the default configuration to a YAML file.
func WriteDefault(path string) error {
	data, err := yaml.Marshal(Default())
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Backend.URL) == "" {
		return fmt.Errorf("%w: backend.url is required", ErrInvalid)
	}
	durations := map[string]string{
		"backend.timeout":         c.Backend.Timeout,
		"thumbnails.timeout":      c.Thumbnails.Timeout,
		"thumbnails.backoff":      c.Thumbnails.Backoff,
		"thumbnails.redis_ttl":    c.Thumbnails.RedisTTL,
		"lists.debounce":          c.Lists.Debounce,
		"lists.lookup_debounce":   c.Lists.LookupDebounce,
		"server.shutdown_timeout": c.Server.ShutdownTimeout,
	}
	for key, val := range durations {
		if val == "" {
			continue
		}
		if d, err := time.ParseDuration(val); err != nil || d < 0 {
			return fmt.Errorf("%w: %s: %q is not a duration", ErrInvalid, key, val)
		}
	}
	if c.Thumbnails.BatchSize < 0 || c.Thumbnails.BatchSize > 50 {
		return fmt.Errorf("%w: thumbnails.batch_size must be between 1 and 50", ErrInvalid)
	}
	if c.Thumbnails.Retries < 0 {
		return fmt.Errorf("%w: thumbnails.retries must not be negative", ErrInvalid)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalid, c.Server.Port)
	}
	switch c.MCP.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("%w: mcp.transport must be stdio or http", ErrInvalid)
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("%w: logging.format must be text or json", ErrInvalid)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("%w: lists.timezone: %v", ErrInvalid, err)
	}
	return nil
}

// Duration parses a validated duration string, falling back to def.
func Duration(s string, def time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

// Location returns the time zone used to render timestamps.
func (c *Config) Location() (*time.Location, error) {
	switch c.Lists.Timezone {
	case "", "Local":
		return time.Local, nil
	}
	return time.LoadLocation(c.Lists.Timezone)
}
