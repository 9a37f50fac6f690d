package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is the console's runtime configuration. Fields are read from
// config.toml and then overridden by PADB_* environment variables.
type Config struct {
	APIURL          string        `envconfig:"API_URL"`
	Timeout         time.Duration `envconfig:"TIMEOUT"`
	LogFile         string        `envconfig:"LOG_FILE"`
	LogLevel        string        `envconfig:"LOG_LEVEL"`
	CredentialsFile string        `envconfig:"CREDENTIALS_FILE"`
	PrefsFile       string        `envconfig:"PREFS_FILE"`
	Debug           bool          `envconfig:"DEBUG"`
	MetricsAddr     string        `envconfig:"METRICS_ADDR"`
}

// EnvPrefix is the prefix of every override variable.
const EnvPrefix = "PADB"

const (
	defaultConfigPath      = "~/.config/padb/config.toml"
	defaultAPIURL          = "http://127.0.0.1:8000/api/v1"
	defaultTimeout         = 30 * time.Second
	defaultLogFile         = "~/.local/state/padb/padb.log"
	defaultLogLevel        = "info"
	defaultCredentialsFile = "~/.config/padb/credentials.toml"
	defaultPrefsFile       = "~/.config/padb/prefs.toml"
)

// Default returns the configuration used when no file or variables exist.
func Default() Config {
	return Config{
		APIURL:          defaultAPIURL,
		Timeout:         defaultTimeout,
		LogFile:         mustExpand(defaultLogFile),
		LogLevel:        defaultLogLevel,
		CredentialsFile: mustExpand(defaultCredentialsFile),
		PrefsFile:       mustExpand(defaultPrefsFile),
	}
}

// DefaultPath returns the default config file path.
func DefaultPath() string {
	return defaultConfigPath
}

// Load reads the config file (missing is fine), applies environment
// overrides and fills defaults for anything left empty.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{}
	if err := readFile(resolved, &cfg); err != nil {
		return Config{}, err
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("read %s_* environment: %w", EnvPrefix, err)
	}
	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		APIURL          string `toml:"api_url"`
		Timeout         string `toml:"timeout"`
		LogFile         string `toml:"log_file"`
		LogLevel        string `toml:"log_level"`
		CredentialsFile string `toml:"credentials_file"`
		PrefsFile       string `toml:"prefs_file"`
		Debug           bool   `toml:"debug"`
		MetricsAddr     string `toml:"metrics_addr"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	if t := strings.TrimSpace(raw.Timeout); t != "" {
		d, err := time.ParseDuration(t)
		if err != nil {
			return fmt.Errorf("parse config: timeout %q: %w", raw.Timeout, err)
		}
		cfg.Timeout = d
	}
	cfg.APIURL = raw.APIURL
	cfg.LogFile = raw.LogFile
	cfg.LogLevel = raw.LogLevel
	cfg.CredentialsFile = raw.CredentialsFile
	cfg.PrefsFile = raw.PrefsFile
	cfg.Debug = raw.Debug
	cfg.MetricsAddr = raw.MetricsAddr
	return nil
}

func (c *Config) normalize() error {
	def := Default()

	c.APIURL = strings.TrimSpace(c.APIURL)
	if c.APIURL == "" {
		c.APIURL = def.APIURL
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must be positive, got %s", c.Timeout)
	}
	if c.Timeout == 0 {
		c.Timeout = def.Timeout
	}
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	c.LogFile = expandOr(c.LogFile, def.LogFile)
	c.CredentialsFile = expandOr(c.CredentialsFile, def.CredentialsFile)
	c.PrefsFile = expandOr(c.PrefsFile, def.PrefsFile)
	c.MetricsAddr = strings.TrimSpace(c.MetricsAddr)
	return nil
}

func expandOr(path, fallback string) string {
	if strings.TrimSpace(path) == "" {
		return fallback
	}
	return mustExpand(path)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
