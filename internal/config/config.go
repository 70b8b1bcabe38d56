package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"

	"softcenter/internal/domain"
	"softcenter/internal/eventbus"
	"softcenter/internal/logging"
)

// Plugin names understood by the registry
const (
	PluginNative  = "native"
	PluginFlatpak = "flatpak"
	PluginSnapd   = "snapd"
	PluginCatalog = "catalog"
)

// Details pager choices
const (
	PagerAuto    = "auto"    // less when it is installed, the built-in viewer otherwise
	PagerLess    = "less"
	PagerBuiltin = "builtin"
)

// KnownPlugins lists plugin names in their default search order
var KnownPlugins = []string{PluginNative, PluginFlatpak, PluginSnapd, PluginCatalog}

// Config represents the application configuration
type Config struct {
	Version int            `mapstructure:"version" toml:"version"`
	Search  SearchSettings `mapstructure:"search" toml:"search"`
	Plugins PluginSettings `mapstructure:"plugins" toml:"plugins"`
	UI      UISettings     `mapstructure:"ui" toml:"ui"`
	Log     logging.Config `mapstructure:"log" toml:"log"`
}

// SearchSettings controls the debounce and worker behaviour
type SearchSettings struct {
	DebounceMS          int `mapstructure:"debounce_ms" toml:"debounce_ms"`
	StaleGraceMS        int `mapstructure:"stale_grace_ms" toml:"stale_grace_ms"`
	MaxResultsPerPlugin int `mapstructure:"max_results_per_plugin" toml:"max_results_per_plugin"`
	CacheSize           int `mapstructure:"cache_size" toml:"cache_size"`
}

// PluginSettings selects and configures the backend plugins
type PluginSettings struct {
	Enabled     []string `mapstructure:"enabled" toml:"enabled"`
	SnapdSocket string   `mapstructure:"snapd_socket" toml:"snapd_socket"`
	SnapdRate   float64  `mapstructure:"snapd_rate" toml:"snapd_rate"`
	CatalogPath string   `mapstructure:"catalog_path" toml:"catalog_path"`
}

// UISettings represents UI-related configuration
type UISettings struct {
	ShowHelp bool   `mapstructure:"show_help" toml:"show_help"`
	Pager    string `mapstructure:"pager" toml:"pager"`
}

// DebounceDelay is the pause in typing required before a search starts
func (s SearchSettings) DebounceDelay() time.Duration {
	return time.Duration(s.DebounceMS) * time.Millisecond
}

// StaleGrace is how long a new worker waits for the superseded one to exit
func (s SearchSettings) StaleGrace() time.Duration {
	return time.Duration(s.StaleGraceMS) * time.Millisecond
}

// PluginEnabled reports whether the named plugin is in the enabled list
func (c *Config) PluginEnabled(name string) bool {
	for _, p := range c.Plugins.Enabled {
		if p == name {
			return true
		}
	}
	return false
}

// Validate checks the configuration for values the application cannot use
func (c *Config) Validate() error {
	var errs []error
	if c.Search.DebounceMS < 0 {
		errs = append(errs, fmt.Errorf("search.debounce_ms must not be negative"))
	}
	if c.Search.StaleGraceMS < 0 {
		errs = append(errs, fmt.Errorf("search.stale_grace_ms must not be negative"))
	}
	if c.Search.MaxResultsPerPlugin < 0 {
		errs = append(errs, fmt.Errorf("search.max_results_per_plugin must not be negative"))
	}
	if c.Search.CacheSize < 0 {
		errs = append(errs, fmt.Errorf("search.cache_size must not be negative"))
	}
	if c.Plugins.SnapdRate <= 0 {
		errs = append(errs, fmt.Errorf("plugins.snapd_rate must be positive"))
	}
	for _, name := range c.Plugins.Enabled {
		known := false
		for _, k := range KnownPlugins {
			if name == k {
				known = true
				break
			}
		}
		if !known {
			errs = append(errs, fmt.Errorf("unknown plugin %q", name))
		}
	}
	switch c.UI.Pager {
	case PagerAuto, PagerLess, PagerBuiltin:
	default:
		errs = append(errs, fmt.Errorf("ui.pager must be %q, %q or %q, got %q", PagerAuto, PagerLess, PagerBuiltin, c.UI.Pager))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	Save(config *Config) error
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
	Path() string
}

// configService is the concrete implementation
type configService struct {
	bus      eventbus.EventBus
	filePath string
}

// DefaultPath returns the per-user config file location
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir, err = os.UserHomeDir()
		if err != nil {
			configDir = "."
		}
		configDir = filepath.Join(configDir, ".config")
	}
	return filepath.Join(configDir, "softcenter", "config.toml")
}

// NewConfigService creates a config service for the default path
func NewConfigService() ConfigService {
	return &configService{filePath: DefaultPath()}
}

// NewConfigServiceWithBus creates a config service for path with event bus support.
// An empty path means the default location.
func NewConfigServiceWithBus(bus eventbus.EventBus, path string) ConfigService {
	if path == "" {
		path = DefaultPath()
	}
	return &configService{bus: bus, filePath: path}
}

func (cs *configService) Path() string {
	return cs.filePath
}

// Load loads the configuration from the service's file. A missing file yields defaults.
func (cs *configService) Load() (*Config, error) {
	cfg, err := load(cs.filePath, true)
	if err != nil {
		return nil, err
	}
	if cs.bus != nil {
		cs.bus.Publish(domain.ConfigLoadedEvent{Path: cs.filePath, Plugins: cfg.Plugins.Enabled})
	}
	return cfg, nil
}

// Save saves the configuration to the service's file
func (cs *configService) Save(config *Config) error {
	if err := cs.SaveToPath(config, cs.filePath); err != nil {
		return err
	}
	if cs.bus != nil {
		cs.bus.Publish(domain.ConfigSavedEvent{Path: cs.filePath})
	}
	return nil
}

// LoadFromPath loads configuration from a specific path, which must exist
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	return load(path, false)
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// load layers defaults, the TOML file and SOFTCENTER_* environment variables
func load(path string, allowMissing bool) (*Config, error) {
	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)

	v.SetEnvPrefix("SOFTCENTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	} else if !os.IsNotExist(err) || !allowMissing {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("search.debounce_ms", d.Search.DebounceMS)
	v.SetDefault("search.stale_grace_ms", d.Search.StaleGraceMS)
	v.SetDefault("search.max_results_per_plugin", d.Search.MaxResultsPerPlugin)
	v.SetDefault("search.cache_size", d.Search.CacheSize)
	v.SetDefault("plugins.enabled", d.Plugins.Enabled)
	v.SetDefault("plugins.snapd_socket", d.Plugins.SnapdSocket)
	v.SetDefault("plugins.snapd_rate", d.Plugins.SnapdRate)
	v.SetDefault("plugins.catalog_path", d.Plugins.CatalogPath)
	v.SetDefault("ui.show_help", d.UI.ShowHelp)
	v.SetDefault("ui.pager", d.UI.Pager)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.file", d.Log.File)
}

// DefaultCatalogPath returns the location of the local catalog file
func DefaultCatalogPath() string {
	return filepath.Join(filepath.Dir(DefaultPath()), "catalog.yaml")
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	enabled := make([]string, len(KnownPlugins))
	copy(enabled, KnownPlugins)

	return &Config{
		Version: 1,
		Search: SearchSettings{
			DebounceMS:          1200,
			StaleGraceMS:        2000,
			MaxResultsPerPlugin: 500,
			CacheSize:           64,
		},
		Plugins: PluginSettings{
			Enabled:     enabled,
			SnapdSocket: "/run/snapd.socket",
			SnapdRate:   5,
			CatalogPath: DefaultCatalogPath(),
		},
		UI: UISettings{
			ShowHelp: true,
			Pager:    PagerAuto,
		},
		Log: logging.Config{
			Level: "info",
		},
	}
}
