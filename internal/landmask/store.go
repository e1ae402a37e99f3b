package landmask

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ngmaloney/rotation-map/internal/grid"
	"github.com/ngmaloney/rotation-map/internal/logging"
	_ "modernc.org/sqlite"
)

// Store caches rasterized land masks so a grid can be rebuilt without
// re-reading its land source.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open database; the land_masks table must exist
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Load returns the cached grid for source and resolution, or nil if absent
func (s *Store) Load(ctx context.Context, source string, resolution float64) (*grid.WorldGrid, error) {
	var width, height int
	var cells []byte

	err := s.db.QueryRowContext(ctx,
		"SELECT width, height, cells FROM land_masks WHERE source = ? AND resolution = ?",
		source, resolution,
	).Scan(&width, &height, &cells)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying land mask: %w", err)
	}

	g, err := grid.NewFromMask(resolution, unpack(cells, width*height))
	if err != nil {
		return nil, fmt.Errorf("decoding land mask: %w", err)
	}
	return g, nil
}

// Save stores the grid's mask, replacing any previous entry
func (s *Store) Save(ctx context.Context, source string, g *grid.WorldGrid) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO land_masks (source, resolution, width, height, cells, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(source, resolution) DO UPDATE SET
			width = excluded.width,
			height = excluded.height,
			cells = excluded.cells,
			created_at = excluded.created_at
	`, source, g.Resolution(), g.Width(), g.Height(), pack(g.Mask()), time.Now())
	if err != nil {
		return fmt.Errorf("saving land mask: %w", err)
	}
	return nil
}

// LoadOrBuild returns the cached grid, or builds one from the classifier
// returned by load and caches it. load runs only on a cache miss.
func (s *Store) LoadOrBuild(ctx context.Context, source string, resolution float64, load func() (grid.LandClassifier, error)) (*grid.WorldGrid, error) {
	g, err := s.Load(ctx, source, resolution)
	if err != nil {
		return nil, err
	}
	if g != nil {
		logging.Debug().Str("source", source).Float64("resolution", resolution).Msg("Using cached land mask")
		return g, nil
	}

	classifier, err := load()
	if err != nil {
		return nil, err
	}

	logging.Info().Str("source", source).Float64("resolution", resolution).Msg("Rasterizing land mask")
	g, err = grid.New(resolution, classifier)
	if err != nil {
		return nil, err
	}
	if err := s.Save(ctx, source, g); err != nil {
		return nil, err
	}
	return g, nil
}

func pack(mask []bool) []byte {
	out := make([]byte, (len(mask)+7)/8)
	for i, land := range mask {
		if land {
			out[i/8] |= 1 << (i % 8)
		}
	}
	return out
}

func unpack(data []byte, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		if i/8 < len(data) {
			out[i] = data[i/8]&(1<<(i%8)) != 0
		}
	}
	return out
}
