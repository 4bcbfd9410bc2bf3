// Package config loads server configuration from defaults, an optional YAML
// file and PROMPTMESH_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	domainprompt "github.com/alanyang/prompt-mesh/internal/domain/prompt"
)

const envPrefix = "PROMPTMESH"

type Config struct {
	Port        int    `mapstructure:"port"`
	DatabaseURL string `mapstructure:"database_url"`

	LogLevel      string `mapstructure:"log_level"`
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
	LogMaxAgeDays int    `mapstructure:"log_max_age_days"`

	Watch             bool `mapstructure:"watch"`
	MaxInclusionDepth int  `mapstructure:"max_inclusion_depth"`
	SessionQueueSize  int  `mapstructure:"session_queue_size"`

	// Directories lists prompt roots in registration order; the order
	// decides which directory keeps a contested namespace.
	Directories []domainprompt.Directory `mapstructure:"-"`

	// File is the config file that was read, if any.
	File string `mapstructure:"-"`
}

// directoryEntry lets "enabled" default to true when omitted.
type directoryEntry struct {
	Path    string `mapstructure:"path"`
	Name    string `mapstructure:"name"`
	Enabled *bool  `mapstructure:"enabled"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("database_url", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_file", "")
	v.SetDefault("log_max_size_mb", 100)
	v.SetDefault("log_max_backups", 5)
	v.SetDefault("log_max_age_days", 30)
	v.SetDefault("watch", true)
	v.SetDefault("max_inclusion_depth", 10)
	v.SetDefault("session_queue_size", 64)
}

// Load reads configuration. cfgFile, when set, must exist; otherwise
// ./promptmesh.yaml and $HOME/.promptmesh/config.yaml are tried in order.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile == "" {
		cfgFile = findConfigFile()
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	dirs, err := directories(v)
	if err != nil {
		return nil, err
	}
	cfg.Directories = dirs

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func findConfigFile() string {
	candidates := []string{"promptmesh.yaml"}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".promptmesh", "config.yaml"))
	}
	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c
		}
	}
	return ""
}

// directories accepts either a list of {path, name, enabled} entries or, as
// PROMPTMESH_DIRECTORIES usually is, an OS path list.
func directories(v *viper.Viper) ([]domainprompt.Directory, error) {
	raw := v.Get("directories")
	if raw == nil {
		return nil, nil
	}

	if s, ok := raw.(string); ok {
		var dirs []domainprompt.Directory
		for _, p := range filepath.SplitList(s) {
			if p = strings.TrimSpace(p); p != "" {
				dirs = append(dirs, newDirectory(p, "", true))
			}
		}
		return dirs, nil
	}

	var entries []directoryEntry
	if err := v.UnmarshalKey("directories", &entries); err != nil {
		return nil, fmt.Errorf("unmarshal directories: %w", err)
	}
	dirs := make([]domainprompt.Directory, 0, len(entries))
	for _, e := range entries {
		enabled := e.Enabled == nil || *e.Enabled
		dirs = append(dirs, newDirectory(e.Path, e.Name, enabled))
	}
	return dirs, nil
}

func newDirectory(path, name string, enabled bool) domainprompt.Directory {
	path = expandHome(path)
	if name == "" {
		name = filepath.Base(filepath.Clean(path))
	}
	return domainprompt.Directory{Path: path, Name: name, Enabled: enabled}
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if _, err := c.SlogLevel(); err != nil {
		errs = append(errs, err)
	}
	if c.MaxInclusionDepth < 1 {
		errs = append(errs, fmt.Errorf("max_inclusion_depth must be at least 1, got %d", c.MaxInclusionDepth))
	}
	if c.SessionQueueSize < 1 {
		errs = append(errs, fmt.Errorf("session_queue_size must be at least 1, got %d", c.SessionQueueSize))
	}
	for i, d := range c.Directories {
		if strings.TrimSpace(d.Path) == "" {
			errs = append(errs, fmt.Errorf("directories[%d]: path must not be empty", i))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// SlogLevel parses LogLevel.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// EnabledDirectories returns the directories that will be loaded and watched.
func (c *Config) EnabledDirectories() []domainprompt.Directory {
	var out []domainprompt.Directory
	for _, d := range c.Directories {
		if d.Enabled {
			out = append(out, d)
		}
	}
	return out
}

// MultiProcess reports whether peers share state through Postgres.
func (c *Config) MultiProcess() bool {
	return c.DatabaseURL != ""
}
