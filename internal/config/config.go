package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Host connection modes.
const (
	ModeWebSocket = "websocket"
	ModeStdio     = "stdio"
)

// Domain panel views.
const (
	DomainViewPretty = "pretty"
	DomainViewSimple = "simple"
)

// Config holds application configuration.
type Config struct {
	Host     HostConfig     `mapstructure:"host"`
	Database DatabaseConfig `mapstructure:"database"`
	Journal  JournalConfig  `mapstructure:"journal"`
	UI       UIConfig       `mapstructure:"ui"`
	Log      LogConfig      `mapstructure:"log"`
}

// HostConfig describes how to reach the solver host.
type HostConfig struct {
	URL         string        `mapstructure:"url"`
	Mode        string        `mapstructure:"mode"`
	TokenEnv    string        `mapstructure:"token_env"`
	Token       string        `mapstructure:"token"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// JournalConfig toggles message journaling.
type JournalConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	SpacingFactor int    `mapstructure:"spacing_factor"`
	DomainView    string `mapstructure:"domain_view"`
}

// LogConfig holds logger settings. An empty path disables logging.
type LogConfig struct {
	Path  string `mapstructure:"path"`
	Level string `mapstructure:"level"`
}

// Load reads configuration from file and env. Env var overrides use prefix SOLVETREE_.
func Load() (Config, error) {
	v := viper.New()

	home := os.Getenv("HOME")
	v.SetDefault("host.url", "ws://127.0.0.1:5173/solver")
	v.SetDefault("host.mode", ModeWebSocket)
	v.SetDefault("host.token_env", "SOLVETREE_HOST_TOKEN")
	v.SetDefault("host.token", "")
	v.SetDefault("host.dial_timeout", 10*time.Second)
	v.SetDefault("database.path", filepath.Join(home, ".local", "share", "solvetree", "journal.db"))
	v.SetDefault("journal.enabled", true)
	v.SetDefault("ui.spacing_factor", 1)
	v.SetDefault("ui.domain_view", DomainViewPretty)
	v.SetDefault("log.path", filepath.Join(home, ".local", "state", "solvetree", "solvetree.log"))
	v.SetDefault("log.level", "info")

	v.SetConfigType("toml")

	cfgPath := os.Getenv("SOLVETREE_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(home, ".config", "solvetree"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("SOLVETREE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// read config file if present
	_ = v.ReadInConfig()

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate rejects values the rest of the program cannot act on.
func (c Config) Validate() error {
	switch c.Host.Mode {
	case ModeWebSocket, ModeStdio:
	default:
		return fmt.Errorf("host.mode %q: want %s or %s", c.Host.Mode, ModeWebSocket, ModeStdio)
	}
	switch c.UI.DomainView {
	case DomainViewPretty, DomainViewSimple:
	default:
		return fmt.Errorf("ui.domain_view %q: want %s or %s", c.UI.DomainView, DomainViewPretty, DomainViewSimple)
	}
	if c.UI.SpacingFactor < 0 {
		return fmt.Errorf("ui.spacing_factor must not be negative, got %d", c.UI.SpacingFactor)
	}
	return nil
}

// Path returns the config file Save writes to.
func Path() string {
	if p := os.Getenv("SOLVETREE_CONFIG"); p != "" {
		return p
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "solvetree", "config.toml")
}

// Save writes the provided config to disk, creating the config directory if needed.
// The host token is stored in plain text; prefer the env var or the secrets store.
func Save(cfg Config) error {
	path := Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("host.url", cfg.Host.URL)
	v.Set("host.mode", cfg.Host.Mode)
	v.Set("host.token_env", cfg.Host.TokenEnv)
	v.Set("host.token", cfg.Host.Token)
	v.Set("host.dial_timeout", cfg.Host.DialTimeout.String())
	v.Set("database.path", cfg.Database.Path)
	v.Set("journal.enabled", cfg.Journal.Enabled)
	v.Set("ui.spacing_factor", cfg.UI.SpacingFactor)
	v.Set("ui.domain_view", cfg.UI.DomainView)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
