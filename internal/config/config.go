package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/vrpill/vrcwatch/vrchat"
)

// Config captures everything vrcwatch needs to reach the upstream API.
type Config struct {
	Username          string
	Password          string
	APIBase           string
	ProxyURL          string
	RequestsPerSecond float64
	LogFile           string
	LogLevel          string
}

const (
	defaultConfigPath = "~/.config/vrcwatch/config.toml"
	defaultLogFile    = "~/.local/state/vrcwatch/vrcwatch.log"
	defaultLogLevel   = "info"

	envUsername = "VRCHAT_USERNAME"
	envPassword = "VRCHAT_PASSWORD"
)

// ErrMissingCredentials is returned by Validate when no username or
// password was configured.
var ErrMissingCredentials = errors.New("username and password are required")

// Load locates and parses the config, falling back to defaults when missing.
// Credentials from the environment take precedence over the file.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		APIBase:  vrchat.DefaultBaseURL,
		LogFile:  mustExpand(defaultLogFile),
		LogLevel: defaultLogLevel,
	}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		Username          string  `toml:"username"`
		Password          string  `toml:"password"`
		APIBase           string  `toml:"api_base"`
		ProxyURL          string  `toml:"proxy_url"`
		RequestsPerSecond float64 `toml:"requests_per_second"`
		LogFile           string  `toml:"log_file"`
		LogLevel          string  `toml:"log_level"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	cfg.Username = strings.TrimSpace(raw.Username)
	cfg.Password = raw.Password
	if base := strings.TrimSpace(raw.APIBase); base != "" {
		cfg.APIBase = strings.TrimRight(base, "/")
	}
	cfg.ProxyURL = strings.TrimSpace(raw.ProxyURL)
	if raw.RequestsPerSecond < 0 {
		return Config{}, fmt.Errorf("requests_per_second must not be negative, got %v", raw.RequestsPerSecond)
	}
	cfg.RequestsPerSecond = raw.RequestsPerSecond
	if logFile := strings.TrimSpace(raw.LogFile); logFile != "" {
		cfg.LogFile = mustExpand(logFile)
	}
	if level := strings.ToLower(strings.TrimSpace(raw.LogLevel)); level != "" {
		cfg.LogLevel = level
	}

	applyEnv(&cfg)
	return cfg, nil
}

// Validate reports configuration that would make every API call fail.
func (c Config) Validate() error {
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("%w (set them in the config file or %s/%s)", ErrMissingCredentials, envUsername, envPassword)
	}
	return nil
}

// Credentials returns the configured account credentials.
func (c Config) Credentials() vrchat.Credentials {
	return vrchat.Credentials{Username: c.Username, Password: c.Password}
}

func applyEnv(cfg *Config) {
	if v := strings.TrimSpace(os.Getenv(envUsername)); v != "" {
		cfg.Username = v
	}
	if v := os.Getenv(envPassword); v != "" {
		cfg.Password = v
	}
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
