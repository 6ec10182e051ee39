// Package config loads application settings from .env files and the environment,
// and exposes them to injected callables.
package config

import (
	"errors"
	"io/fs"
	"maps"
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/illuin-tech/paraminject"
)

// Config holds the application settings.
// Environment variables take precedence over values read from files.
type Config struct {
	Name  string
	Env   string // local | production | testing
	Debug bool

	values map[string]string
}

// Load reads the given .env files (".env" when none is given) and populates a Config.
// Missing files are skipped; when several files set a key, the first one wins.
func Load(envFiles ...string) (*Config, error) {
	files := envFiles
	if len(files) == 0 {
		files = []string{".env"}
	}

	values := map[string]string{}
	for _, file := range files {
		read, err := godotenv.Read(file)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		for k, v := range read {
			if _, ok := values[k]; !ok {
				values[k] = v
			}
		}
	}

	cfg := &Config{values: values}
	cfg.Name = cfg.Get("APP_NAME", "paraminject")
	cfg.Env = cfg.Get("APP_ENV", "local")
	cfg.Debug = cfg.GetBool("APP_DEBUG", false)
	return cfg, nil
}

// Get returns a raw value, falling back to defaultVal.
func (c *Config) Get(key, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	if v, ok := c.values[key]; ok && v != "" {
		return v
	}
	return defaultVal
}

// GetInt returns an int value, falling back to defaultVal when unset or invalid.
func (c *Config) GetInt(key string, defaultVal int) int {
	i, err := strconv.Atoi(c.Get(key, ""))
	if err != nil {
		return defaultVal
	}
	return i
}

// GetBool returns a bool value, falling back to defaultVal when unset or invalid.
func (c *Config) GetBool(key string, defaultVal bool) bool {
	b, err := strconv.ParseBool(c.Get(key, ""))
	if err != nil {
		return defaultVal
	}
	return b
}

// Values returns a copy of the values read from files.
func (c *Config) Values() map[string]string {
	return maps.Clone(c.values)
}

// Source provides the configuration to injected callables as "env" (the environment
// name), "debug" and "app_config" (the Config itself).
func (c *Config) Source() *paraminject.MapSource {
	return paraminject.NewMapSource(map[string]any{
		"env":        c.Env,
		"debug":      c.Debug,
		"app_config": c,
	})
}
