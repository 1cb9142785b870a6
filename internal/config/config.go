package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Mountpoint string `koanf:"mountpoint"` // default device mountpoint

	// Device defaults used when initializing a blank device.
	Device DeviceConfig `koanf:"device"`

	// Transfer settings for copying audio onto the device.
	Transfer TransferConfig `koanf:"transfer"`

	Log LogConfig `koanf:"log"`
}

// DeviceConfig holds defaults for device initialization.
type DeviceConfig struct {
	ModelNumber string `koanf:"model_number"` // e.g., "MA450"
	Name        string `koanf:"name"`         // display name, also the master playlist name
}

// TransferConfig holds audio transfer configuration.
type TransferConfig struct {
	// SkipStat records caller-supplied sizes instead of statting the
	// placed file. Useful when the device is mounted through a slow
	// userspace filesystem.
	SkipStat bool `koanf:"skip_stat"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `koanf:"level"`  // "debug", "info", "warn", "error" (default: "info")
	Format string `koanf:"format"` // "text" or "json" (default: "text")
}

func Load() (*Config, error) {
	k := koanf.New(".")

	// Try config files in order of priority (last wins)
	configPaths := getConfigPaths()

	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	// Expand ~ and normalize the mountpoint
	if cfg.Mountpoint != "" {
		cfg.Mountpoint = strings.TrimSuffix(expandPath(cfg.Mountpoint), "/")
	}

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{
		// 1. XDG config dir, e.g. ~/.config/podlib/config.toml
		filepath.Join(xdg.ConfigHome, "podlib", "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
