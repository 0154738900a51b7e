package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// GlobalConfig holds engine tuning stored in ~/.config/sutra/config.yml.
// The index and display thresholds are independent: the index keeps every
// pair above index_threshold, views draw only pairs above display_threshold.
type GlobalConfig struct {
	IndexThreshold   float64 `yaml:"index_threshold" validate:"gte=0,lt=1"`
	DisplayThreshold float64 `yaml:"display_threshold" validate:"gte=0,lt=1"`
	FrameRate        float64 `yaml:"frame_rate" validate:"gte=0"`
	Seed             uint64  `yaml:"seed"` // 0 seeds layouts from the clock
	MaxTicks         int     `yaml:"max_ticks" validate:"gte=0"`
	WatchDebounceMS  int     `yaml:"watch_debounce_ms" validate:"gte=0"`
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "sutra"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// Global config errors.
var (
	ErrUnknownKey   = errors.New("unknown config key")
	ErrInvalidValue = errors.New("invalid config value")
)

var validate = validator.New()

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// DefaultGlobalConfig returns the built-in tuning.
func DefaultGlobalConfig() GlobalConfig {
	return GlobalConfig{
		IndexThreshold:   0.05,
		DisplayThreshold: 0.1,
		FrameRate:        60,
		MaxTicks:         600,
		WatchDebounceMS:  250,
	}
}

// WatchDebounce returns the watch debounce window.
func (c *GlobalConfig) WatchDebounce() time.Duration {
	return time.Duration(c.WatchDebounceMS) * time.Millisecond
}

// Validate checks value ranges.
func (c *GlobalConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed %q", ErrInvalidValue, verrs[0].Field(), verrs[0].Tag())
		}
		return err
	}
	return nil
}

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/sutra/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns the defaults (not an error) if the file doesn't exist; keys
// missing from the file keep their defaults.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	cfg := DefaultGlobalConfig()
	path := GlobalConfigPath()
	if path == "" {
		return &cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &cfg, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("global config %s: %w", path, err)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// SaveGlobalConfig writes cfg to the global config file and refreshes the
// cache.
func SaveGlobalConfig(cfg *GlobalConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	path := GlobalConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding global config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing global config: %w", err)
	}

	saved := *cfg
	globalConfigCache = &saved
	return nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GlobalKeys lists the settable keys.
func GlobalKeys() []string {
	keys := []string{"index_threshold", "display_threshold", "frame_rate", "seed", "max_ticks", "watch_debounce_ms"}
	sort.Strings(keys)
	return keys
}

// Get returns the value of key formatted as text.
func (c *GlobalConfig) Get(key string) (string, error) {
	switch key {
	case "index_threshold":
		return strconv.FormatFloat(c.IndexThreshold, 'g', -1, 64), nil
	case "display_threshold":
		return strconv.FormatFloat(c.DisplayThreshold, 'g', -1, 64), nil
	case "frame_rate":
		return strconv.FormatFloat(c.FrameRate, 'g', -1, 64), nil
	case "seed":
		return strconv.FormatUint(c.Seed, 10), nil
	case "max_ticks":
		return strconv.Itoa(c.MaxTicks), nil
	case "watch_debounce_ms":
		return strconv.Itoa(c.WatchDebounceMS), nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Set parses value into key and validates the result.
func (c *GlobalConfig) Set(key, value string) error {
	next := *c
	var err error
	switch key {
	case "index_threshold":
		next.IndexThreshold, err = strconv.ParseFloat(value, 64)
	case "display_threshold":
		next.DisplayThreshold, err = strconv.ParseFloat(value, 64)
	case "frame_rate":
		next.FrameRate, err = strconv.ParseFloat(value, 64)
	case "seed":
		next.Seed, err = strconv.ParseUint(value, 10, 64)
	case "max_ticks":
		next.MaxTicks, err = strconv.Atoi(value)
	case "watch_debounce_ms":
		next.WatchDebounceMS, err = strconv.Atoi(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	if err != nil {
		return fmt.Errorf("%w: %s=%q", ErrInvalidValue, key, value)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}
