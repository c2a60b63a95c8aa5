package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	DefaultSSHPort  = 22
	DefaultSSHUser  = "frappe"
	DefaultTimeout  = 30 * time.Second
	DefaultStaleTTL = 30 * time.Second
)

// Config is the top-level configuration.
type Config struct {
	LogFile  string                `toml:"log_file"`
	StaleTTL Duration              `toml:"stale_ttl"`
	Sites    map[string]SiteConfig `toml:"sites"`
}

// SiteConfig holds connection details for one Frappe site.
type SiteConfig struct {
	URL                string                `toml:"url"`
	APIKey             string                `toml:"api_key"`
	APISecret          string                `toml:"api_secret"`
	InsecureSkipVerify bool                  `toml:"insecure_skip_verify"`
	Timeout            Duration              `toml:"timeout"`
	SSH                *SSHConfig            `toml:"ssh"`
	Pages              map[string]PageConfig `toml:"pages"`
}

// SSHConfig holds optional details for tunnelling the site's HTTP traffic
// through SSH.
type SSHConfig struct {
	Host               string `toml:"host"`
	Port               int    `toml:"port"`
	Username           string `toml:"username"`
	PrivateKeyPath     string `toml:"private_key_path"`
	HostKeyFingerprint string `toml:"host_key_fingerprint"`
}

// PageConfig overrides per-route dashboard behaviour.
type PageConfig struct {
	NotFoundMessage *bool `toml:"not_found_message"`
}

// Duration is a time.Duration decoded from strings such as "30s".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

// DefaultPath returns the default config file path using XDG conventions.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, "readiness-tui", "config.toml")
}

// DefaultLogPath returns the log file used when log_file is unset.
func DefaultLogPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".cache")
	}
	return filepath.Join(dir, "readiness-tui", "readiness-tui.log")
}

// LoadFrom reads and parses the config file at the given path.
// It applies defaults after parsing.
func LoadFrom(path string) (*Config, error) {
	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", path, err)
	}
	if len(cfg.Sites) == 0 {
		return nil, fmt.Errorf("config has no sites defined")
	}
	if cfg.StaleTTL.Duration <= 0 {
		cfg.StaleTTL.Duration = DefaultStaleTTL
	}
	if cfg.LogFile == "" {
		cfg.LogFile = DefaultLogPath()
	}
	cfg.LogFile = expandPath(cfg.LogFile)

	for name, site := range cfg.Sites {
		if site.URL == "" {
			return nil, fmt.Errorf("site %q: url is required", name)
		}
		site.URL = strings.TrimRight(site.URL, "/")
		if site.Timeout.Duration <= 0 {
			site.Timeout.Duration = DefaultTimeout
		}
		site.APIKey = os.ExpandEnv(site.APIKey)
		site.APISecret = os.ExpandEnv(site.APISecret)
		if site.SSH != nil {
			if site.SSH.Port == 0 {
				site.SSH.Port = DefaultSSHPort
			}
			if site.SSH.Username == "" {
				site.SSH.Username = DefaultSSHUser
			}
			site.SSH.PrivateKeyPath = expandPath(site.SSH.PrivateKeyPath)
		}
		cfg.Sites[name] = site
	}
	return &cfg, nil
}

// expandPath expands ~ to $HOME and then expands all environment variables.
func expandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		path = "$HOME" + path[1:]
	}
	return os.ExpandEnv(path)
}

// SiteNames returns the sorted list of site profile names.
func (c *Config) SiteNames() []string {
	names := make([]string, 0, len(c.Sites))
	for name := range c.Sites {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Site selects a site by name. An empty name is allowed only when exactly
// one site is configured.
func (c *Config) Site(name string) (string, SiteConfig, error) {
	if name == "" {
		if len(c.Sites) != 1 {
			return "", SiteConfig{}, fmt.Errorf("multiple sites configured, use --site to pick one of: %s",
				strings.Join(c.SiteNames(), ", "))
		}
		name = c.SiteNames()[0]
	}
	site, ok := c.Sites[name]
	if !ok {
		return "", SiteConfig{}, fmt.Errorf("site %q not found in config", name)
	}
	return name, site, nil
}
