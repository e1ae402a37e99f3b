package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/ngmaloney/rotation-map/internal/database"
)

// DefaultConfigPaths are searched when no path is given
var DefaultConfigPaths = []string{
	"rotation-map.yaml",
	"rotation-map.yml",
	filepath.Join("config", "rotation-map.yaml"),
}

// ConfigPathEnvVar names a config file explicitly
const ConfigPathEnvVar = "ROTMAP_CONFIG"

func defaultConfig() *Config {
	return &Config{
		Grid: GridConfig{
			Resolution:    5,
			MaxExpansions: 0,
		},
		Land: LandConfig{
			Source:     LandBoxes,
			DataDir:    "data",
			CacheMasks: true,
		},
		Routing: RoutingConfig{
			Backend:   "grid",
			Timeout:   10 * time.Second,
			Workers:   4,
			CacheSize: 1024,
		},
		Database: DatabaseConfig{
			Path: database.DBPath(),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// Load layers defaults, the YAML file at path (or the first default path
// found) and ROTMAP_* environment variables, then validates the result.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("ROTMAP_", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc maps ROTMAP_GRID_RESOLUTION style names to koanf paths.
// Unknown names map to "" and are ignored.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "ROTMAP_"))

	envMappings := map[string]string{
		"grid_resolution":     "grid.resolution",
		"grid_max_expansions": "grid.max_expansions",

		"land_source":        "land.source",
		"land_data_dir":      "land.data_dir",
		"land_shapefile_url": "land.shapefile_url",
		"land_cache_masks":   "land.cache_masks",

		"routing_backend":    "routing.backend",
		"routing_remote_url": "routing.remote_url",
		"routing_timeout":    "routing.timeout",
		"routing_workers":    "routing.workers",
		"routing_cache_size": "routing.cache_size",

		"ports_geocode":      "ports.geocode",
		"ports_geocoder_url": "ports.geocoder_url",

		"database_path": "database.path",
		"db_path":       "database.path",

		"log_level":  "logging.level",
		"log_format": "logging.format",

		"server_addr": "server.addr",
	}

	return envMappings[key]
}
