package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bryanchriswhite/SnapShooter/internal/logger"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	AppName   = "snapshooter"
	EnvPrefix = "SNAPSHOOTER"
)

// Config represents the application configuration
type Config struct {
	LogLevel  string        `json:"log_level" yaml:"log_level" mapstructure:"log_level"`
	LogPretty bool          `json:"log_pretty" yaml:"log_pretty" mapstructure:"log_pretty"`
	Portal    PortalConfig  `json:"portal" yaml:"portal" mapstructure:"portal"`
	Output    OutputConfig  `json:"output" yaml:"output" mapstructure:"output"`
	Server    ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
	Preview   PreviewConfig `json:"preview" yaml:"preview" mapstructure:"preview"`
}

// PortalConfig configures the screenshot portal client
type PortalConfig struct {
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`
}

// OutputConfig controls where screenshots are saved
type OutputConfig struct {
	Dir    string `json:"dir" yaml:"dir" mapstructure:"dir"`
	Prefix string `json:"prefix" yaml:"prefix" mapstructure:"prefix"`
}

// ServerConfig configures the preview server
type ServerConfig struct {
	Port int `json:"port" yaml:"port" mapstructure:"port"`
}

// PreviewConfig controls preview thumbnails
type PreviewConfig struct {
	Scale float64 `json:"scale" yaml:"scale" mapstructure:"scale"`
}

type valueKind int

const (
	kindString valueKind = iota
	kindBool
	kindInt
	kindFloat
	kindDuration
	kindLevel
)

// keys lists every settable key with its default.
var keys = map[string]struct {
	kind valueKind
	def  interface{}
}{
	"log_level":      {kindLevel, "info"},
	"log_pretty":     {kindBool, true},
	"portal.timeout": {kindDuration, "60s"},
	"output.dir":     {kindString, "."},
	"output.prefix":  {kindString, "screenshot"},
	"server.port":    {kindInt, 8080},
	"preview.scale":  {kindFloat, 0.2},
}

// Manager handles configuration
type Manager struct {
	path string
	v    *viper.Viper
	mu   sync.RWMutex
}

// DefaultPath returns $XDG_CONFIG_HOME/snapshooter/config.yaml.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return filepath.Join(dir, AppName, "config.yaml"), nil
}

// Load reads configFile (or the default path) on top of the defaults and
// SNAPSHOOTER_* environment overrides. A missing file is not an error.
func Load(configFile string) (*Manager, error) {
	path := configFile
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	v := viper.New()
	for key, entry := range keys {
		v.SetDefault(key, entry.def)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	log := logger.WithComponent("config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.Is(err, fs.ErrNotExist) && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		log.Debug().Str("path", path).Msg("Config file not found, using defaults")
	} else {
		log.Debug().Str("path", path).Msg("Config loaded")
	}

	m := &Manager{path: path, v: v}
	if _, err := m.decode(); err != nil {
		return nil, err
	}
	return m, nil
}

// Path returns the config file path
func (m *Manager) Path() string {
	return m.path
}

// Get returns the current configuration
func (m *Manager) Get() Config {
	cfg, err := m.decode()
	if err != nil {
		// Set validates every value, so only a hand-edited file can get here
		// and Load already rejected it.
		logger.WithComponent("config").Error().Err(err).Msg("Invalid configuration")
	}
	return cfg
}

func (m *Manager) decode() (Config, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var cfg Config
	if err := m.v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Lookup returns the raw value of a known key.
func (m *Manager) Lookup(key string) (interface{}, error) {
	if _, ok := keys[key]; !ok {
		return nil, fmt.Errorf("unknown configuration key: %s", key)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.v.Get(key), nil
}

// Set parses value according to key's type and stores it.
func (m *Manager) Set(key, value string) error {
	entry, ok := keys[key]
	if !ok {
		return fmt.Errorf("unknown configuration key: %s", key)
	}

	parsed, err := parseValue(entry.kind, value)
	if err != nil {
		return fmt.Errorf("invalid value for %s: %w", key, err)
	}

	m.mu.Lock()
	prev := m.v.Get(key)
	m.v.Set(key, parsed)
	m.mu.Unlock()

	if _, err := m.decode(); err != nil {
		m.mu.Lock()
		m.v.Set(key, prev)
		m.mu.Unlock()
		return err
	}
	return nil
}

// Save writes the current configuration as YAML
func (m *Manager) Save() error {
	cfg, err := m.decode()
	if err != nil {
		return err
	}

	log := logger.WithComponent("config")

	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	log.Info().Str("path", m.path).Msg("Config saved")
	return nil
}

// Validate checks value ranges.
func Validate(cfg Config) error {
	if cfg.Portal.Timeout <= 0 {
		return fmt.Errorf("portal.timeout must be positive, got %s", cfg.Portal.Timeout)
	}
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("server.port must be within 1-65535, got %d", cfg.Server.Port)
	}
	if cfg.Preview.Scale <= 0 || cfg.Preview.Scale > 1 {
		return fmt.Errorf("preview.scale must be within (0, 1], got %g", cfg.Preview.Scale)
	}
	if cfg.Output.Prefix == "" {
		return fmt.Errorf("output.prefix must not be empty")
	}
	return nil
}

func parseValue(kind valueKind, value string) (interface{}, error) {
	switch kind {
	case kindBool:
		return strconv.ParseBool(value)
	case kindInt:
		return strconv.Atoi(value)
	case kindFloat:
		return strconv.ParseFloat(value, 64)
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	case kindLevel:
		switch strings.ToLower(value) {
		case "debug", "info", "warn", "error":
			return strings.ToLower(value), nil
		}
		return nil, fmt.Errorf("%q is not one of debug, info, warn, error", value)
	default:
		return value, nil
	}
}

// Keys returns the settable configuration keys.
func Keys() []string {
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
