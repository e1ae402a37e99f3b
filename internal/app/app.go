// Package app wires configuration, storage, the land grid and the route
// engine together for the commands.
package app

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ngmaloney/rotation-map/internal/config"
	"github.com/ngmaloney/rotation-map/internal/database"
	"github.com/ngmaloney/rotation-map/internal/grid"
	"github.com/ngmaloney/rotation-map/internal/landmask"
	"github.com/ngmaloney/rotation-map/internal/logging"
	"github.com/ngmaloney/rotation-map/internal/pathfinder"
	"github.com/ngmaloney/rotation-map/internal/ports"
	"github.com/ngmaloney/rotation-map/internal/rotations"
	"github.com/ngmaloney/rotation-map/internal/route"
)

// App holds the long-lived components shared by every command
type App struct {
	Config    *config.Config
	DB        *sql.DB
	Grid      *grid.WorldGrid
	Ports     *ports.Service
	PortRepo  *ports.Repository
	Rotations *rotations.Repository
	Directory ports.Directory
	Engine    *route.Engine
}

// New opens the database, builds the grid and assembles the engine
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	db, err := database.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}

	a, err := NewWithDB(ctx, cfg, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return a, nil
}

// NewWithDB assembles the app over an already open database
func NewWithDB(ctx context.Context, cfg *config.Config, db *sql.DB) (*App, error) {
	g, err := LoadGrid(ctx, cfg, db)
	if err != nil {
		return nil, err
	}

	finder, err := pathfinder.New(cfg.Finder(), g)
	if err != nil {
		return nil, err
	}

	portRepo := ports.NewRepository(db)
	// Stored ports win; the built-in fixtures cover the common hubs.
	dir := ports.Chain{portRepo, ports.DefaultDirectory()}
	if cfg.Ports.Geocode {
		dir = append(dir, ports.NewGeocodingDirectory(cfg.Ports.GeocoderURL))
	}

	return &App{
		Config:    cfg,
		DB:        db,
		Grid:      g,
		Ports:     ports.NewService(portRepo),
		PortRepo:  portRepo,
		Rotations: rotations.NewRepository(db),
		Directory: dir,
		Engine: &route.Engine{
			Directory:  dir,
			Finder:     finder,
			Resolution: g.Resolution(),
			Workers:    cfg.Routing.Workers,
		},
	}, nil
}

// LoadGrid builds the world grid for the configured land source, going
// through the mask cache when enabled.
func LoadGrid(ctx context.Context, cfg *config.Config, db *sql.DB) (*grid.WorldGrid, error) {
	source := cfg.Land.Source
	load := func() (grid.LandClassifier, error) {
		return LandClassifier(ctx, cfg)
	}

	if cfg.Land.CacheMasks && db != nil {
		return landmask.NewStore(db).LoadOrBuild(ctx, source, cfg.Grid.Resolution, load)
	}

	classifier, err := load()
	if err != nil {
		return nil, err
	}
	return grid.New(cfg.Grid.Resolution, classifier)
}

// LandClassifier returns the classifier for the configured land source,
// provisioning the shapefile on first use.
func LandClassifier(ctx context.Context, cfg *config.Config) (grid.LandClassifier, error) {
	switch cfg.Land.Source {
	case config.LandBoxes:
		return grid.NewBoxClassifier(), nil
	case config.LandShapefile:
		path, err := landmask.Provision(ctx, cfg.Land.DataDir, cfg.Land.ShapefileURL)
		if err != nil {
			return nil, fmt.Errorf("provisioning land data: %w", err)
		}
		c, err := landmask.LoadShapefile(path)
		if err != nil {
			return nil, err
		}
		logging.Info().Int("rings", c.Rings()).Str("path", path).Msg("Loaded land polygons")
		return c, nil
	default:
		return nil, fmt.Errorf("unknown land source %q", cfg.Land.Source)
	}
}

// Close releases the database
func (a *App) Close() error {
	return a.DB.Close()
}
