// Package config loads rotation-map settings from defaults, an optional YAML
// file and ROTMAP_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/ngmaloney/rotation-map/internal/grid"
	"github.com/ngmaloney/rotation-map/internal/logging"
	"github.com/ngmaloney/rotation-map/internal/pathfinder"
)

// Land sources
const (
	LandBoxes     = "boxes"
	LandShapefile = "shapefile"
)

// Config is the full settings tree. Each section maps to a top-level YAML key.
type Config struct {
	Grid     GridConfig     `koanf:"grid"`
	Land     LandConfig     `koanf:"land"`
	Routing  RoutingConfig  `koanf:"routing"`
	Ports    PortsConfig    `koanf:"ports"`
	Database DatabaseConfig `koanf:"database"`
	Logging  LoggingConfig  `koanf:"logging"`
	Server   ServerConfig   `koanf:"server"`
}

// GridConfig sizes the world grid and bounds each A* search.
type GridConfig struct {
	Resolution    float64 `koanf:"resolution" validate:"gt=0,lte=180"` // degrees per cell; must divide 180 and 360
	MaxExpansions int     `koanf:"max_expansions" validate:"gte=0"`    // 0 = whole grid
}

// LandConfig selects where the land mask comes from and where its data lives.
type LandConfig struct {
	Source       string `koanf:"source" validate:"oneof=boxes shapefile"`
	DataDir      string `koanf:"data_dir" validate:"required"`
	ShapefileURL string `koanf:"shapefile_url" validate:"omitempty,url"`
	CacheMasks   bool   `koanf:"cache_masks"` // store rasterized masks in the database
}

// RoutingConfig picks the path backend and how legs are searched and cached.
type RoutingConfig struct {
	Backend   string        `koanf:"backend" validate:"oneof=grid remote"`
	RemoteURL string        `koanf:"remote_url" validate:"omitempty,url"`
	Timeout   time.Duration `koanf:"timeout" validate:"gte=0"`
	Workers   int           `koanf:"workers" validate:"gte=1,lte=64"`
	CacheSize int64         `koanf:"cache_size" validate:"gte=0"`
}

// PortsConfig controls name resolution beyond the bundled and stored ports.
// The geocoder fallback is off by default.
type PortsConfig struct {
	Geocode     bool   `koanf:"geocode"`                               // fall back to a geocoder for unknown names
	GeocoderURL string `koanf:"geocoder_url" validate:"omitempty,url"` // empty = public Nominatim
}

// DatabaseConfig locates the SQLite file holding ports, services and land masks.
type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

// LoggingConfig sets the zerolog level and output format.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

// ServerConfig is the HTTP listen address for rotation-server.
type ServerConfig struct {
	Addr string `koanf:"addr" validate:"required"`
}

var validate = validator.New()

// Validate checks field constraints and the grid divisibility rule
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if err := grid.ValidateResolution(c.Grid.Resolution); err != nil {
		return err
	}
	if c.Routing.Backend == pathfinder.BackendRemote && c.Routing.RemoteURL == "" {
		return errors.New("routing.remote_url is required for the remote backend")
	}
	return nil
}

// Finder returns the pathfinder settings
func (c *Config) Finder() pathfinder.Config {
	return pathfinder.Config{
		Backend:       c.Routing.Backend,
		MaxExpansions: c.Grid.MaxExpansions,
		RemoteURL:     c.Routing.RemoteURL,
		Timeout:       c.Routing.Timeout,
		CacheSize:     c.Routing.CacheSize,
	}
}

// Logger returns the logging settings
func (c *Config) Logger() logging.Config {
	return logging.Config{Level: c.Logging.Level, Format: c.Logging.Format}
}

func (c *Config) String() string {
	return fmt.Sprintf("grid=%g° land=%s backend=%s db=%s", c.Grid.Resolution, c.Land.Source, c.Routing.Backend, c.Database.Path)
}
