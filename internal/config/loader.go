package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables recognised by LoadServer.
const (
	EnvHTTPAddr       = "DUEL_HTTP_ADDR"
	EnvSSHAddr        = "DUEL_SSH_ADDR"
	EnvSSHHostKey     = "DUEL_SSH_HOST_KEY"
	EnvDB             = "DUEL_DB"
	EnvEvictAfter     = "DUEL_EVICT_AFTER"
	EnvAllowedOrigins = "DUEL_ALLOWED_ORIGINS"
)

// LoadGame loads the game configuration.
// Search order: customPath -> ~/.duel/configs/game.yaml -> ./configs/game.yaml -> embedded default
func LoadGame(customPath string) (GameConfig, error) {
	cfg, err := load(customPath, "game.yaml", defaultGameYAML, DefaultGameConfig)
	if err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadServer loads the server configuration and applies environment
// overrides. A .env file in the working directory is read first; variables
// already set in the process environment win over it.
// Search order: customPath -> ~/.duel/configs/server.yaml -> ./configs/server.yaml -> embedded default
func LoadServer(customPath string) (ServerConfig, error) {
	cfg, err := load(customPath, "server.yaml", defaultServerYAML, DefaultServerConfig)
	if err != nil {
		return cfg, err
	}
	if err := LoadDotEnv(".env"); err != nil {
		return cfg, err
	}
	if err := ApplyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

// LoadDotEnv reads KEY=VALUE pairs from path into the process environment
// without overriding existing variables. A missing file is not an error.
func LoadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("config: failed to read %s: %w", path, err)
}

// ApplyEnv overrides server settings from DUEL_* variables.
func ApplyEnv(cfg *ServerConfig, lookup func(string) (string, bool)) error {
	if v, ok := lookup(EnvHTTPAddr); ok && v != "" {
		cfg.HTTP.Addr = v
	}
	if v, ok := lookup(EnvSSHAddr); ok && v != "" {
		cfg.SSH.Addr = v
		cfg.SSH.Enabled = true
	}
	if v, ok := lookup(EnvSSHHostKey); ok && v != "" {
		cfg.SSH.HostKeyPath = v
	}
	if v, ok := lookup(EnvDB); ok && v != "" {
		cfg.Storage.Path = v
	}
	if v, ok := lookup(EnvEvictAfter); ok && v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("config: %s: %w", EnvEvictAfter, err)
		}
		cfg.Rooms.EvictAfter = d
	}
	if v, ok := lookup(EnvAllowedOrigins); ok && v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.HTTP.AllowedOrigins = origins
	}
	return nil
}

// parseDuration accepts Go durations ("90m") and bare seconds ("3600").
func parseDuration(s string) (time.Duration, error) {
	if secs, err := strconv.Atoi(s); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// load overlays the first YAML file found onto the defaults.
func load[T any](customPath, filename string, embedded []byte, defaults func() T) (T, error) {
	cfg := defaults()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("config: failed to read %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("config: failed to parse %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory, then local configs directory
	for _, path := range []string{userConfigPath(filename), filepath.Join("configs", filename)} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		candidate := defaults()
		if err := yaml.Unmarshal(data, &candidate); err == nil {
			return candidate, nil
		}
	}

	// Use embedded default YAML
	if err := yaml.Unmarshal(embedded, &cfg); err != nil {
		return defaults(), nil // Fallback to hardcoded if embed fails
	}
	return cfg, nil
}

// userConfigPath returns the path to user config file, or empty if home is unavailable.
func userConfigPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".duel", "configs", filename)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
