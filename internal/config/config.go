// internal/config/config.go
package config

import (
	"encoding/json"
	"os"

	"grit/shared/utils"
)

// Config is the per-repository configuration stored at .grit/config.json.
type Config struct {
	Branch   string   `json:"branch"`
	LogLevel string   `json:"log_level"` // debug, info, warn, error
	Ignore   []string `json:"ignore"`    // path components excluded from worktree scans
}

// Default returns the configuration written by `grit init`.
func Default() *Config {
	return &Config{
		Branch:   "main",
		LogLevel: "warn",
		Ignore:   []string{".git", ".grit", "node_modules", "vendor", "dist", "build"},
	}
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, err
	}
	defer file.Close()

	cfg := Default()
	if err := json.NewDecoder(file).Decode(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return utils.WriteFileAtomic(path, data, 0644)
}
