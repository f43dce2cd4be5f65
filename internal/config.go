package internal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	configDirName     = ".cursor-chatlog"
	projectConfigName = ".cursor-chatlog.yaml"
	envPrefix         = "CURSOR_CHATLOG"
)

// Config holds all user-tunable settings.
type Config struct {
	Storage   StorageConfig   `mapstructure:"storage" yaml:"storage"`
	Workspace WorkspaceConfig `mapstructure:"workspace" yaml:"workspace"`
	Window    WindowConfig    `mapstructure:"window" yaml:"window"`
	Scan      ScanConfig      `mapstructure:"scan" yaml:"scan"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// StorageConfig overrides detected Cursor storage locations.
type StorageConfig struct {
	BasePath    string `mapstructure:"base_path" yaml:"base_path,omitempty"`
	GlobalDB    string `mapstructure:"global_db" yaml:"global_db,omitempty"`
	WorkspaceDB string `mapstructure:"workspace_db" yaml:"workspace_db,omitempty"`
}

// WorkspaceConfig selects which workspace store belongs to the project.
// Match is a glob over the workspace folder path; empty means the
// project directory itself.
type WorkspaceConfig struct {
	Match string `mapstructure:"match" yaml:"match,omitempty"`
}

// WindowConfig pads the commit window on both sides.
type WindowConfig struct {
	LeadPadding  time.Duration `mapstructure:"lead_padding" yaml:"lead_padding"`
	TrailPadding time.Duration `mapstructure:"trail_padding" yaml:"trail_padding"`
}

// ScanConfig bounds store scanning.
type ScanConfig struct {
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// LogConfig controls log verbosity and line format (text, json, logfmt).
type LogConfig struct {
	Verbose bool   `mapstructure:"verbose" yaml:"verbose"`
	Format  string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{
			LeadPadding:  5 * time.Minute,
			TrailPadding: 5 * time.Minute,
		},
		Scan: ScanConfig{
			Concurrency: 4,
			Timeout:     30 * time.Second,
		},
		Log: LogConfig{Format: "text"},
	}
}

// LoadConfig merges defaults, the global config file, the project config
// file, an explicit file (if path is non-empty) and CURSOR_CHATLOG_*
// environment variables, in that order.
func LoadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for _, candidate := range []string{GlobalConfigPath(), ProjectConfigPath()} {
		if candidate == "" {
			continue
		}
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		if err := mergeFile(v, candidate); err != nil {
			return nil, err
		}
		LogDebug("Loaded config from %s", candidate)
	}

	if path != "" {
		if err := mergeFile(v, path); err != nil {
			return nil, err
		}
		LogDebug("Loaded config from %s", path)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.Scan.Concurrency < 1 {
		cfg.Scan.Concurrency = 1
	}
	return cfg, nil
}

func mergeFile(v *viper.Viper, path string) error {
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.MergeInConfig(); err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return nil
}

func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("storage.base_path", cfg.Storage.BasePath)
	v.SetDefault("storage.global_db", cfg.Storage.GlobalDB)
	v.SetDefault("storage.workspace_db", cfg.Storage.WorkspaceDB)
	v.SetDefault("workspace.match", cfg.Workspace.Match)
	v.SetDefault("window.lead_padding", cfg.Window.LeadPadding)
	v.SetDefault("window.trail_padding", cfg.Window.TrailPadding)
	v.SetDefault("scan.concurrency", cfg.Scan.Concurrency)
	v.SetDefault("scan.timeout", cfg.Scan.Timeout)
	v.SetDefault("log.verbose", cfg.Log.Verbose)
	v.SetDefault("log.format", cfg.Log.Format)
}

// GlobalConfigPath returns ~/.cursor-chatlog/config.yaml, or "" without a home dir.
func GlobalConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDirName, "config.yaml")
}

// ProjectConfigPath returns ./.cursor-chatlog.yaml, or "" without a cwd.
func ProjectConfigPath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	return filepath.Join(cwd, projectConfigName)
}

// YAML renders the effective config with human-readable durations.
func (c *Config) YAML() ([]byte, error) {
	view := struct {
		Storage   StorageConfig     `yaml:"storage"`
		Workspace WorkspaceConfig   `yaml:"workspace"`
		Window    map[string]string `yaml:"window"`
		Scan      map[string]string `yaml:"scan"`
		Log       LogConfig         `yaml:"log"`
	}{
		Storage:   c.Storage,
		Workspace: c.Workspace,
		Window: map[string]string{
			"lead_padding":  c.Window.LeadPadding.String(),
			"trail_padding": c.Window.TrailPadding.String(),
		},
		Scan: map[string]string{
			"concurrency": fmt.Sprintf("%d", c.Scan.Concurrency),
			"timeout":     c.Scan.Timeout.String(),
		},
		Log: c.Log,
	}
	return yaml.Marshal(view)
}
