// Package userconfig loads the CLI's settings from ~/.config/bones/config.yaml
// and BONES_* environment variables.
package userconfig

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gameofbones/gameofbones/internal/cli/media"
)

const (
	configDirName  = "bones"
	configFileName = "config.yaml"

	// DefaultAPIURL is used when neither the file, env nor flags set one.
	DefaultAPIURL = "http://localhost:8080/api"
)

// Storage backends for the session.
const (
	StorageKeyring = "keyring"
	StorageFile    = "file"
)

// Config represents the user's local configuration
type Config struct {
	APIURL        string       `yaml:"api_url"`
	VerifySession bool         `yaml:"verify_session"`
	Storage       string       `yaml:"storage"`
	LogLevel      string       `yaml:"log_level"`
	LogFormat     string       `yaml:"log_format"`
	ImageHost     media.Config `yaml:"image_host"`
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		APIURL:    DefaultAPIURL,
		Storage:   StorageKeyring,
		LogLevel:  "warn",
		LogFormat: "console",
	}
}

// Dir returns ~/.config/bones
func Dir() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", configDirName), nil
}

// GetConfigPath returns the path to the config file. BONES_CONFIG overrides it.
func GetConfigPath() (string, error) {
	if p := os.Getenv("BONES_CONFIG"); p != "" {
		return p, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configFileName), nil
}

// Load reads the config file and applies environment overrides.
func Load() (*Config, error) {
	path, err := GetConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads path over the defaults. A missing file is not an error.
func LoadFile(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read user config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse user config file: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides fields from BONES_* variables.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	str := map[string]*string{
		"BONES_API_URL":         &c.APIURL,
		"BONES_STORAGE":         &c.Storage,
		"BONES_LOG_LEVEL":       &c.LogLevel,
		"BONES_LOG_FORMAT":      &c.LogFormat,
		"BONES_CLOUD_NAME":      &c.ImageHost.CloudName,
		"BONES_UPLOAD_PRESET":   &c.ImageHost.UploadPreset,
		"BONES_UPLOAD_FOLDER":   &c.ImageHost.Folder,
		"BONES_UPLOAD_ENDPOINT": &c.ImageHost.Endpoint,
	}
	for key, field := range str {
		if v, ok := lookup(key); ok && v != "" {
			*field = v
		}
	}

	if v, ok := lookup("BONES_VERIFY_SESSION"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid BONES_VERIFY_SESSION %q: %w", v, err)
		}
		c.VerifySession = b
	}
	return nil
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_url %q: must be an http(s) URL", c.APIURL)
	}
	switch c.Storage {
	case StorageKeyring, StorageFile:
	default:
		return fmt.Errorf("invalid storage %q: must be %s or %s", c.Storage, StorageKeyring, StorageFile)
	}
	return nil
}

// NormalizedAPIURL is APIURL without a trailing slash.
func (c *Config) NormalizedAPIURL() string {
	return strings.TrimRight(c.APIURL, "/")
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal user config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write user config file: %w", err)
	}
	return nil
}
