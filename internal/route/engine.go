package route

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ngmaloney/rotation-map/internal/logging"
	"github.com/ngmaloney/rotation-map/internal/metrics"
	"github.com/ngmaloney/rotation-map/internal/models"
	"github.com/ngmaloney/rotation-map/internal/pathfinder"
	"github.com/ngmaloney/rotation-map/internal/ports"
)

const defaultWorkers = 4

// Engine builds rotation geometry from port names
type Engine struct {
	Directory  ports.Directory
	Finder     pathfinder.Finder
	Resolution float64 // grid resolution in degrees; half of it is the stitch tolerance
	Workers    int     // concurrent segment searches; <= 0 means 4
}

// Result is a built rotation
type Result struct {
	Waypoints      []models.Waypoint    `json:"-"`
	Segments       []models.Segment     `json:"-"`
	Geometry       models.RouteGeometry `json:"geometry"`
	Unresolved     []string             `json:"unresolved"`
	FailedSegments int                  `json:"failed_segments"`
}

// Build resolves names in order, finds a path for each consecutive pair of
// resolved ports and joins the paths into one unwrapped polyline.
//
// Unknown ports are skipped, so their neighbours become adjacent. A leg
// without a path leaves a gap and the build carries on. Fewer than two
// resolved ports yields empty geometry and no error.
//
// Names match exactly or by alias unless the Directory includes a
// GeocodingDirectory (ports.geocode, off by default), whose free-text search
// may also match near-miss names.
func (e *Engine) Build(ctx context.Context, names []string) (*Result, error) {
	started := time.Now()
	log := logging.With().Str("component", "route").Logger()

	res := &Result{Geometry: models.RouteGeometry{}}
	var resolved []models.Waypoint
	for _, name := range names {
		pos, ok, err := e.Directory.Resolve(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolving port %q: %w", name, err)
		}
		if !ok {
			log.Warn().Str("port", name).Msg("Unresolvable port, skipping")
			res.Waypoints = append(res.Waypoints, models.Unresolved(name))
			res.Unresolved = append(res.Unresolved, name)
			continue
		}
		wp := models.Resolved(name, pos)
		res.Waypoints = append(res.Waypoints, wp)
		resolved = append(resolved, wp)
	}

	if len(resolved) < 2 {
		metrics.RecordRouteBuild(time.Since(started), len(res.Unresolved))
		return res, nil
	}

	segments, err := e.findSegments(ctx, resolved)
	if err != nil {
		return nil, err
	}
	res.Segments = segments

	stitcher := NewStitcher(e.Resolution / 2)
	for _, seg := range segments {
		if seg.Failed() {
			log.Warn().
				Int("segment", seg.Index).
				Str("from", seg.From.Name).
				Str("to", seg.To.Name).
				AnErr("cause", seg.Err).
				Msg("No path found for segment")
		}
		stitcher.Add(seg.Path)
	}
	res.FailedSegments = stitcher.Gaps()
	res.Geometry = Unwrap(stitcher.Result())

	metrics.RecordRouteBuild(time.Since(started), len(res.Unresolved))
	log.Debug().
		Int("waypoints", len(resolved)).
		Int("points", len(res.Geometry)).
		Int("failed", res.FailedSegments).
		Dur("took", time.Since(started)).
		Msg("Built rotation geometry")

	return res, nil
}

// findSegments searches every leg concurrently. Results keep rotation order.
func (e *Engine) findSegments(ctx context.Context, waypoints []models.Waypoint) ([]models.Segment, error) {
	segments := make([]models.Segment, len(waypoints)-1)

	workers := e.Workers
	if workers <= 0 {
		workers = defaultWorkers
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range segments {
		from, to := waypoints[i], waypoints[i+1]
		segments[i] = models.Segment{Index: i, From: from, To: to}

		g.Go(func() error {
			found, err := e.Finder.FindPath(gctx, from.Position, to.Position)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				segments[i].Err = err
				return nil
			}
			if found.Found {
				segments[i].Path = found.Path
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("finding segment paths: %w", err)
	}
	return segments, nil
}

// BuildAll builds several services concurrently. Results follow the input order.
func (e *Engine) BuildAll(ctx context.Context, services []models.Service) ([]*Result, error) {
	results := make([]*Result, len(services))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(defaultWorkers)
	for i, svc := range services {
		g.Go(func() error {
			res, err := e.Build(gctx, svc.PortNames())
			if err != nil {
				return fmt.Errorf("service %s: %w", svc.Name, err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
