// Package config handles hearth configuration loading.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Defaults.
const (
	DefaultModel     = "qwen3:4b"
	DefaultOllamaURL = "http://localhost:11434"
	DefaultDBPath    = "hearth.sqlite"
	DefaultLogFile   = "hearth.log"
)

// DefaultSearchPaths returns the config file search order.
// An explicit path (from -config flag) is checked first.
// Then: ./hearth.yaml, ~/.config/hearth/config.yaml, /etc/hearth/config.yaml.
func DefaultSearchPaths() []string {
	paths := []string{"hearth.yaml"}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "hearth", "config.yaml"))
	}

	paths = append(paths, "/etc/hearth/config.yaml")
	return paths
}

// FindConfig locates a config file. If explicit is non-empty, it must
// exist. Otherwise the first existing search path wins; an empty string
// with a nil error means no config file (defaults apply).
func FindConfig(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	for _, p := range DefaultSearchPaths() {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	return "", nil
}

// Config holds all hearth configuration.
type Config struct {
	Model        string `yaml:"model"`
	OllamaURL    string `yaml:"ollama_url"`
	SystemPrompt string `yaml:"system_prompt"`
	DBPath       string `yaml:"db_path"`
	LogFile      string `yaml:"log_file"`
	LogLevel     string `yaml:"log_level"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Model:     DefaultModel,
		OllamaURL: DefaultOllamaURL,
		DBPath:    DefaultDBPath,
		LogFile:   DefaultLogFile,
	}
}

// Load reads configuration from a YAML file, expanding ${VAR} references
// against the environment. Missing fields keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnv overlays HEARTH_* environment variables onto the config.
// Environment beats file; flags (handled by the caller) beat both.
func (c *Config) ApplyEnv() {
	overlay := map[string]*string{
		"HEARTH_MODEL":         &c.Model,
		"HEARTH_OLLAMA_URL":    &c.OllamaURL,
		"HEARTH_SYSTEM_PROMPT": &c.SystemPrompt,
		"HEARTH_DB":            &c.DBPath,
		"HEARTH_LOG_FILE":      &c.LogFile,
		"HEARTH_LOG_LEVEL":     &c.LogLevel,
	}
	for key, dst := range overlay {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
}
