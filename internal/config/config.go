// Package config holds repository layout and user settings.
//
// Settings are resolved with viper in increasing precedence: built-in
// defaults, the global file ($XDG_CONFIG_HOME/cvs/config.yaml), the
// repository file (.cvs/config.yaml) and CVS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Settings represents cvs configuration.
type Settings struct {
	User    UserSettings    `mapstructure:"user"`
	Storage StorageSettings `mapstructure:"storage"`
	Color   ColorSettings   `mapstructure:"color"`
	Log     LogSettings     `mapstructure:"log"`
}

// UserSettings holds the identity recorded on commits.
type UserSettings struct {
	Name string `mapstructure:"name"`
}

// StorageSettings controls how committed content is kept.
type StorageSettings struct {
	// Compression is "none" or "zstd".
	Compression string `mapstructure:"compression"`
}

// ColorSettings toggles coloured output.
type ColorSettings struct {
	UI bool `mapstructure:"ui"`
}

// LogSettings controls diagnostic logging on stderr.
type LogSettings struct {
	Level string `mapstructure:"level"`
}

var knownKeys = []string{"user.name", "storage.compression", "color.ui", "log.level"}

var boolKeys = []string{"color.ui"}

// KnownKeys lists every settable key.
func KnownKeys() []string {
	return slices.Clone(knownKeys)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("user.name", "")
	v.SetDefault("storage.compression", "none")
	v.SetDefault("color.ui", true)
	v.SetDefault("log.level", "warn")
}

// DefaultSettings returns settings with only built-in defaults applied.
func DefaultSettings() (*Settings, error) {
	v := viper.New()
	setDefaults(v)
	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("decode default settings: %w", err)
	}
	return s, nil
}

// GlobalSettingsPath returns the user-wide settings file.
func GlobalSettingsPath() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "cvs", "config.yaml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "cvs", "config.yaml"), nil
}

// LoadSettings resolves settings for the repository described by cfg.
func LoadSettings(cfg RepositoryConfig) (*Settings, error) {
	v, err := newViper(cfg)
	if err != nil {
		return nil, err
	}

	s := &Settings{}
	if err := v.Unmarshal(s); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return s, nil
}

func newViper(cfg RepositoryConfig) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)

	v.SetEnvPrefix("CVS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	files := []string{cfg.OSPath(cfg.SettingsFile)}
	if global, err := GlobalSettingsPath(); err == nil {
		files = append([]string{global}, files...)
	}

	for _, file := range files {
		if _, err := os.Stat(file); errors.Is(err, os.ErrNotExist) {
			continue
		}
		v.SetConfigFile(file)
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("read settings %s: %w", file, err)
		}
	}
	return v, nil
}

// GetValue retrieves a resolved setting by key (e.g. "user.name").
func GetValue(cfg RepositoryConfig, key string) (string, error) {
	if !slices.Contains(knownKeys, key) {
		return "", fmt.Errorf("unknown config key: %s", key)
	}
	v, err := newViper(cfg)
	if err != nil {
		return "", err
	}
	return v.GetString(key), nil
}

// SetValue writes key into the repository settings file, or the global one.
func SetValue(cfg RepositoryConfig, key, value string, global bool) error {
	if !slices.Contains(knownKeys, key) {
		return fmt.Errorf("unknown config key: %s (known: %s)", key, strings.Join(knownKeys, ", "))
	}

	file := cfg.OSPath(cfg.SettingsFile)
	if global {
		var err error
		if file, err = GlobalSettingsPath(); err != nil {
			return err
		}
	}

	v := viper.New()
	v.SetConfigType("yaml")
	if _, err := os.Stat(file); err == nil {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read settings %s: %w", file, err)
		}
	}

	if slices.Contains(boolKeys, key) {
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%s expects true or false: %w", key, err)
		}
		v.Set(key, b)
	} else {
		v.Set(key, value)
	}

	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := v.WriteConfigAs(file); err != nil {
		return fmt.Errorf("write settings %s: %w", file, err)
	}
	return nil
}
