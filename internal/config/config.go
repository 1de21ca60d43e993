package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	defaultChunkSize   = 500
	defaultGroupWindow = "5m"
)

type Config struct {
	ExportPath  string `toml:"export_path"`
	MediaDir    string `toml:"media_dir"`
	ViewerID    string `toml:"viewer_id"`
	Timezone    string `toml:"timezone"`
	GroupWindow string `toml:"group_window"`
	ChunkSize   int    `toml:"chunk_size"`
	LogLevel    string `toml:"log_level"`
}

// Path is the config file location. SEV_CONFIG overrides the default
// ~/.config/sev/config.toml.
func Path(home string) string {
	if p := os.Getenv("SEV_CONFIG"); p != "" {
		return expandHome(p, home)
	}
	return filepath.Join(home, ".config", "sev", "config.toml")
}

func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	return LoadFile(Path(home), home)
}

// LoadFile overlays the TOML file at cfgPath, when it exists, on the defaults.
func LoadFile(cfgPath, home string) (*Config, error) {
	cfg := &Config{
		ExportPath:  filepath.Join(home, "skype-export", "messages.json"),
		GroupWindow: defaultGroupWindow,
		ChunkSize:   defaultChunkSize,
		LogLevel:    "warn",
	}

	if _, err := os.Stat(cfgPath); err == nil {
		if _, err := toml.DecodeFile(cfgPath, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", cfgPath, err)
		}
	}

	// expand ~ in paths
	cfg.ExportPath = expandHome(cfg.ExportPath, home)
	cfg.MediaDir = expandHome(cfg.MediaDir, home)

	if cfg.MediaDir == "" {
		cfg.MediaDir = filepath.Join(filepath.Dir(cfg.ExportPath), "media")
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = defaultChunkSize
	}
	if _, err := cfg.Location(); err != nil {
		return nil, err
	}
	if _, err := cfg.Window(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Location is the zone date groups are keyed in; empty means local time.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// Window is the continuation threshold for consecutive messages.
func (c *Config) Window() (time.Duration, error) {
	if c.GroupWindow == "" {
		c.GroupWindow = defaultGroupWindow
	}
	d, err := time.ParseDuration(c.GroupWindow)
	if err != nil {
		return 0, fmt.Errorf("group_window %q: %w", c.GroupWindow, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("group_window %q: must not be negative", c.GroupWindow)
	}
	return d, nil
}

func expandHome(path, home string) string {
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		return filepath.Join(home, path[2:])
	}
	return path
}
