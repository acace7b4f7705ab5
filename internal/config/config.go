// Package config handles the depviz global configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/matsen/depviz/internal/client"
	"github.com/matsen/depviz/internal/debounce"
	"github.com/matsen/depviz/internal/layout"
	"github.com/matsen/depviz/internal/query"
)

// Config represents configuration stored in ~/.config/depviz/config.yml.
// Zero fields fall back to the package defaults.
type Config struct {
	ServerURL     string  `yaml:"server_url,omitempty"`
	DefaultLayout string  `yaml:"default_layout,omitempty"`
	DebounceMS    int     `yaml:"debounce_ms,omitempty"`
	TableLimit    int     `yaml:"table_limit,omitempty"`
	RateLimit     float64 `yaml:"rate_limit,omitempty"`
	DBPath        string  `yaml:"db_path,omitempty"`
	ListenAddr    string  `yaml:"listen_addr,omitempty"`
}

const (
	// DefaultDBFile is the store file name under the data directory.
	DefaultDBFile = "depviz.db"
	// DefaultListenAddr is the address the server binds by default.
	DefaultListenAddr = ":8080"
)

// Keys lists the settable configuration keys.
var Keys = []string{"server-url", "default-layout", "debounce-ms", "table-limit", "rate-limit", "db-path", "listen-addr"}

// Server returns the data server base URL.
func (c *Config) Server() string {
	if c.ServerURL == "" {
		return client.DefaultBaseURL
	}
	return c.ServerURL
}

// Layout returns the initial layout name.
func (c *Config) Layout() string {
	if c.DefaultLayout == "" {
		return layout.Default
	}
	return c.DefaultLayout
}

// DebounceWindow returns the free-text debounce window.
func (c *Config) DebounceWindow() time.Duration {
	if c.DebounceMS <= 0 {
		return debounce.DefaultWindow
	}
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// Limit returns the table row cap.
func (c *Config) Limit() int {
	if c.TableLimit <= 0 {
		return query.DefaultTableLimit
	}
	return c.TableLimit
}

// Rate returns the client request rate per second.
func (c *Config) Rate() float64 {
	if c.RateLimit == 0 {
		return client.DefaultRateLimit
	}
	return c.RateLimit
}

// Database returns the store path, defaulting under the data directory.
func (c *Config) Database() string {
	if c.DBPath != "" {
		return ExpandPath(c.DBPath)
	}
	return filepath.Join(DataDir(), DefaultDBFile)
}

// Listen returns the server listen address.
func (c *Config) Listen() string {
	if c.ListenAddr == "" {
		return DefaultListenAddr
	}
	return c.ListenAddr
}

// Validate checks that configured values are usable.
func (c *Config) Validate() error {
	if c.DefaultLayout != "" {
		if err := layout.Validate(c.DefaultLayout); err != nil {
			return err
		}
	}
	if c.DebounceMS < 0 {
		return fmt.Errorf("invalid debounce_ms %d: must not be negative", c.DebounceMS)
	}
	if c.TableLimit < 0 {
		return fmt.Errorf("invalid table_limit %d: must not be negative", c.TableLimit)
	}
	return nil
}

// Values returns every key with its effective value.
func (c *Config) Values() map[string]string {
	out := make(map[string]string, len(Keys))
	for _, k := range Keys {
		v, _ := c.Get(k)
		out[k] = v
	}
	return out
}

// Get returns the effective value of key.
func (c *Config) Get(key string) (string, error) {
	switch NormalizeKey(key) {
	case "server-url":
		return c.Server(), nil
	case "default-layout":
		return c.Layout(), nil
	case "debounce-ms":
		return strconv.FormatInt(c.DebounceWindow().Milliseconds(), 10), nil
	case "table-limit":
		return strconv.Itoa(c.Limit()), nil
	case "rate-limit":
		return strconv.FormatFloat(c.Rate(), 'g', -1, 64), nil
	case "db-path":
		return c.Database(), nil
	case "listen-addr":
		return c.Listen(), nil
	default:
		return "", unknownKey(key)
	}
}

// Set parses value into key. The result is validated before it is applied.
func (c *Config) Set(key, value string) error {
	next := *c
	switch NormalizeKey(key) {
	case "server-url":
		next.ServerURL = strings.TrimSuffix(value, "/")
	case "default-layout":
		next.DefaultLayout = value
	case "debounce-ms":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid debounce_ms %q: %w", value, err)
		}
		next.DebounceMS = n
	case "table-limit":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid table_limit %q: %w", value, err)
		}
		next.TableLimit = n
	case "rate-limit":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return fmt.Errorf("invalid rate_limit %q: %w", value, err)
		}
		next.RateLimit = f
	case "db-path":
		next.DBPath = ExpandPath(value)
	case "listen-addr":
		next.ListenAddr = value
	default:
		return unknownKey(key)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func unknownKey(key string) error {
	keys := append([]string(nil), Keys...)
	sort.Strings(keys)
	return fmt.Errorf("unknown configuration key: %s (valid: %s)", key, strings.Join(keys, ", "))
}

// NormalizeKey converts key formats (server_url, Server-URL) to server-url.
func NormalizeKey(key string) string {
	key = strings.ToLower(key)
	return strings.ReplaceAll(key, "_", "-")
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	return filepath.Join(home, path[1:])
}
