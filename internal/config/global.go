package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigDir is the directory name under XDG_CONFIG_HOME and XDG_DATA_HOME.
	ConfigDir = "depviz"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"

	// EnvServer overrides server_url.
	EnvServer = "DEPVIZ_SERVER"
	// EnvDB overrides db_path.
	EnvDB = "DEPVIZ_DB"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *Config

// Path returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/depviz/config.yml.
func Path() string {
	return xdgPath("XDG_CONFIG_HOME", ".config", ConfigFile)
}

// DataDir returns the directory holding the default store.
// Respects XDG_DATA_HOME, defaults to ~/.local/share/depviz.
func DataDir() string {
	return filepath.Dir(xdgPath("XDG_DATA_HOME", filepath.Join(".local", "share"), DefaultDBFile))
}

func xdgPath(env, fallback, file string) string {
	base := os.Getenv(env)
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(ConfigDir, file)
		}
		base = filepath.Join(home, fallback)
	}
	return filepath.Join(base, ConfigDir, file)
}

// Load reads the global configuration file and applies environment
// overrides. Returns a default config (not an error) if the file doesn't
// exist.
func Load() (*Config, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	cfg, err := LoadFile(Path())
	if err != nil {
		return nil, err
	}
	applyEnv(cfg)

	globalConfigCache = cfg
	return cfg, nil
}

// LoadFile reads configuration from path without environment overrides.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	if cfg.DBPath != "" {
		cfg.DBPath = ExpandPath(cfg.DBPath)
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvServer); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv(EnvDB); v != "" {
		cfg.DBPath = ExpandPath(v)
	}
}

// Save writes cfg to path, creating the directory if needed.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	ResetCache()
	return nil
}

// ResetCache clears the cached global config.
// Useful for testing.
func ResetCache() {
	globalConfigCache = nil
}
