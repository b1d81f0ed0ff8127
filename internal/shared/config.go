package shared

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
//
// It is loaded once at start-up and treated as read-only afterwards.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Database    DatabaseConfig    `toml:"database"`
	Server      ServerConfig      `toml:"server"`
	Widget      WidgetConfig      `toml:"widget"`
	HTTP        HTTPConfig        `toml:"http"`
}

// CredentialsConfig contains service-specific credentials.
type CredentialsConfig struct {
	Spotify SpotifyConfig `toml:"spotify"`
}

// SpotifyConfig contains Spotify API credentials.
type SpotifyConfig struct {
	ClientID     string   `toml:"client_id"`
	ClientSecret string   `toml:"client_secret"`
	RedirectURI  string   `toml:"redirect_uri"`
	Scopes       []string `toml:"scopes"`
}

// Map returns the credentials in the form accepted by [services.NewSpotifyService].
func (s SpotifyConfig) Map() map[string]string {
	return map[string]string{
		"client_id":     s.ClientID,
		"client_secret": s.ClientSecret,
		"redirect_uri":  s.RedirectURI,
	}
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host        string `toml:"host"`
	Port        int    `toml:"port"`
	BaseURL     string `toml:"base_url"`
	CacheMaxAge int    `toml:"cache_max_age"`
	FallbackURL string `toml:"fallback_url"`
}

// Addr returns the host:port pair the server binds to.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// WidgetConfig contains badge rendering defaults.
type WidgetConfig struct {
	PaletteSize  int    `toml:"palette_size"`
	DefaultTheme string `toml:"default_theme"`
}

// HTTPConfig bounds outbound calls to the remote service.
type HTTPConfig struct {
	TimeoutSeconds    int     `toml:"timeout_seconds"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Timeout returns the outbound request timeout, defaulting to ten seconds.
func (h HTTPConfig) Timeout() time.Duration {
	if h.TimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(h.TimeoutSeconds) * time.Second
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep the values of [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissingConfig, path)
	} else if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
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

// ApplyEnv overrides configuration values from the process environment.
//
// lookup is usually [os.LookupEnv]; tests pass a map-backed function.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup("CLIENT_ID"); ok && v != "" {
		c.Credentials.Spotify.ClientID = v
	}
	if v, ok := lookup("CLIENT_SECRET"); ok && v != "" {
		c.Credentials.Spotify.ClientSecret = v
	}
	if v, ok := lookup("REDIRECT_URI"); ok && v != "" {
		c.Credentials.Spotify.RedirectURI = v
	}
	if v, ok := lookup("HOST_URL"); ok && v != "" {
		c.Server.Host = v
	}
	if v, ok := lookup("PORT"); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: PORT=%q", ErrInvalidConfig, v)
		}
		c.Server.Port = port
	}
	if v, ok := lookup("DATABASE_PATH"); ok && v != "" {
		c.Database.Path = v
	}
	return nil
}

// Validate reports configuration that would prevent the service from starting.
func (c *Config) Validate() error {
	if c.Credentials.Spotify.ClientID == "" || c.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: spotify client_id and client_secret are required", ErrMissingCredentials)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server port %d", ErrInvalidConfig, c.Server.Port)
	}
	if c.Widget.PaletteSize <= 0 {
		return fmt.Errorf("%w: widget palette_size must be positive", ErrInvalidConfig)
	}
	if c.Database.Path == "" {
		return fmt.Errorf("%w: database path is empty", ErrInvalidConfig)
	}
	return nil
}
