package statusview

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// StoreConfig selects where statuses are read from.
type StoreConfig struct {
	// Driver is "file", "sqlite" or "postgres".
	Driver string `yaml:"driver"`
	// Dir is the data directory of the file store.
	Dir string `yaml:"dir,omitempty"`
	// DSN is the data source name of the SQL stores.
	DSN string `yaml:"dsn,omitempty"`
}

// RendererConfig selects and configures the diagram renderer.
type RendererConfig struct {
	// Mode is "client" (rendered by the browser) or "browser" (rendered to
	// SVG by a headless browser on the server).
	Mode       string        `yaml:"mode"`
	ScriptURL  string        `yaml:"script_url,omitempty"`
	BrowserBin string        `yaml:"browser_bin,omitempty"`
	Timeout    time.Duration `yaml:"timeout,omitempty"`
	Mermaid    RenderConfig  `yaml:"mermaid"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the dashboard configuration.
type Config struct {
	Listen       string         `yaml:"listen"`
	TimeZone     string         `yaml:"time_zone,omitempty"`
	Store        StoreConfig    `yaml:"store"`
	Renderer     RendererConfig `yaml:"renderer"`
	Log          LogConfig      `yaml:"log"`
	RenderLogDir string         `yaml:"render_log_dir,omitempty"`
	SessionIdle  time.Duration  `yaml:"session_idle,omitempty"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Listen: "127.0.0.1:8080",
		Store: StoreConfig{
			Driver: "file",
		},
		Renderer: RendererConfig{
			Mode:    "client",
			Timeout: 30 * time.Second,
			Mermaid: DefaultRenderConfig(),
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		SessionIdle: 30 * time.Minute,
	}
}

// LoadConfig reads a YAML configuration file on top of the defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML configuration on top of the defaults.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
	}
	return cfg, nil
}

// Location returns the configured time zone, or time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.Local, nil
	}
	return time.LoadLocation(c.TimeZone)
}

// Validate returns every problem found in the configuration, in a stable
// order. An empty result means the configuration is usable.
func (c *Config) Validate() []string {
	var errs []string
	if c.Listen == "" {
		errs = append(errs, "listen address is required")
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, fmt.Sprintf("invalid time_zone %q: %v", c.TimeZone, err))
	}
	switch c.Store.Driver {
	case "file":
	case "sqlite", "postgres":
		if c.Store.DSN == "" {
			errs = append(errs, fmt.Sprintf("store.dsn is required for driver %q", c.Store.Driver))
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown store.driver %q", c.Store.Driver))
	}
	switch c.Renderer.Mode {
	case "client", "browser":
	default:
		errs = append(errs, fmt.Sprintf("unknown renderer.mode %q", c.Renderer.Mode))
	}
	if c.Renderer.Timeout < 0 {
		errs = append(errs, "renderer.timeout must not be negative")
	}
	if c.Renderer.Mermaid.MaxTextSize <= 0 {
		errs = append(errs, "renderer.mermaid.max_text_size must be positive")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("unknown log.format %q", c.Log.Format))
	}
	return errs
}
