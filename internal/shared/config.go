package shared

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

const (
	ModeCollections = "collections"
	ModeFavorites   = "favorites"
)

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	API      APIConfig      `toml:"api"`
	Identity IdentityConfig `toml:"identity"`
	Database DatabaseConfig `toml:"database"`
	UI       UIConfig       `toml:"ui"`
	Log      LogConfig      `toml:"log"`
}

// APIConfig contains catalog API settings.
type APIConfig struct {
	BaseURL   string  `toml:"base_url"`
	RateLimit float64 `toml:"rate_limit"`
}

// IdentityConfig contains the Cognito user pool client settings.
type IdentityConfig struct {
	Region        string `toml:"region"`
	UserPoolID    string `toml:"user_pool_id"`
	ClientID      string `toml:"client_id"`
	Endpoint      string `toml:"endpoint"`
	AdminUsername string `toml:"admin_username"`
}

// ResolvedRegion returns Region, or the region prefix of the user pool id (e.g. "eu-north-1_abc" -> "eu-north-1").
func (c IdentityConfig) ResolvedRegion() string {
	if c.Region != "" {
		return c.Region
	}
	if region, _, ok := strings.Cut(c.UserPoolID, "_"); ok {
		return region
	}
	return ""
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// UIConfig selects which membership model the client drives.
type UIConfig struct {
	Mode string `toml:"mode"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level string `toml:"level"`
	File  string `toml:"file"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
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

// SaveConfig encodes config as TOML and writes it to path.
func SaveConfig(path string, config *Config) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnv loads any of the given dotenv files that exist and then overrides config values from LIBRIS_* variables.
//
// Variables already present in the environment win over dotenv values.
func (c *Config) ApplyEnv(envFiles ...string) error {
	var present []string
	for _, f := range envFiles {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) > 0 {
		if err := godotenv.Load(present...); err != nil {
			return fmt.Errorf("failed to load env files: %w", err)
		}
	}

	overrides := map[string]*string{
		"LIBRIS_API_URL":              &c.API.BaseURL,
		"LIBRIS_COGNITO_REGION":       &c.Identity.Region,
		"LIBRIS_COGNITO_USER_POOL_ID": &c.Identity.UserPoolID,
		"LIBRIS_COGNITO_CLIENT_ID":    &c.Identity.ClientID,
		"LIBRIS_COGNITO_ENDPOINT":     &c.Identity.Endpoint,
		"LIBRIS_ADMIN_USERNAME":       &c.Identity.AdminUsername,
		"LIBRIS_DB_PATH":              &c.Database.Path,
		"LIBRIS_MODE":                 &c.UI.Mode,
		"LIBRIS_LOG_LEVEL":            &c.Log.Level,
	}
	for key, target := range overrides {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*target = v
		}
	}

	if v, ok := os.LookupEnv("LIBRIS_RATE_LIMIT"); ok && v != "" {
		rl, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%w: LIBRIS_RATE_LIMIT=%q", ErrInvalidConfig, v)
		}
		c.API.RateLimit = rl
	}

	return nil
}

// Validate checks the fields every command depends on.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.API.BaseURL) == "" {
		return fmt.Errorf("%w: api.base_url is required", ErrInvalidConfig)
	}
	switch c.UI.Mode {
	case ModeCollections, ModeFavorites:
	default:
		return fmt.Errorf("%w: ui.mode must be %q or %q, got %q", ErrInvalidConfig, ModeCollections, ModeFavorites, c.UI.Mode)
	}
	if c.API.RateLimit < 0 {
		return fmt.Errorf("%w: api.rate_limit must not be negative", ErrInvalidConfig)
	}
	return nil
}
