package pathfinder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/ngmaloney/rotation-map/internal/logging"
	"github.com/ngmaloney/rotation-map/internal/metrics"
	"github.com/ngmaloney/rotation-map/internal/models"
)

// RemoteFinder delegates routing to a searoute-style HTTP service.
//
// Request:  POST {"coordinates":[{"lon":..,"lat":..},{"lon":..,"lat":..}]}
// Response: {"geometry":{"type":"LineString","coordinates":[[lon,lat],...]}}
//
// 404 and 422 mean the service has no route, which is not an error.
type RemoteFinder struct {
	url    string
	client *http.Client
	cb     *gobreaker.CircuitBreaker[[]models.Coordinate]
}

type remotePoint struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

type remoteRequest struct {
	Coordinates []remotePoint `json:"coordinates"`
}

type remoteResponse struct {
	Geometry struct {
		Type        string       `json:"type"`
		Coordinates [][2]float64 `json:"coordinates"` // [lon, lat]
	} `json:"geometry"`
}

// NewRemoteFinder returns a finder posting to url
func NewRemoteFinder(url string, timeout time.Duration) *RemoteFinder {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	cb := gobreaker.NewCircuitBreaker[[]models.Coordinate](gobreaker.Settings{
		Name:        "routing-service",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Circuit breaker state change")
		},
	})

	return &RemoteFinder{
		url:    url,
		client: &http.Client{Timeout: timeout},
		cb:     cb,
	}
}

// FindPath implements Finder
func (f *RemoteFinder) FindPath(ctx context.Context, from, to models.Coordinate) (Result, error) {
	path, err := f.cb.Execute(func() ([]models.Coordinate, error) {
		return f.fetch(ctx, from, to)
	})
	if err != nil {
		metrics.RecordSearch(BackendRemote, metrics.OutcomeError, 0)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return Result{}, fmt.Errorf("routing service unavailable: %w", err)
		}
		return Result{}, err
	}
	if len(path) == 0 {
		metrics.RecordSearch(BackendRemote, metrics.OutcomeNoPath, 0)
		return Result{}, nil
	}

	metrics.RecordSearch(BackendRemote, metrics.OutcomeFound, 0)
	return Result{Path: path, Found: true}, nil
}

func (f *RemoteFinder) fetch(ctx context.Context, from, to models.Coordinate) ([]models.Coordinate, error) {
	body, err := json.Marshal(remoteRequest{Coordinates: []remotePoint{
		{Lon: from.Lng, Lat: from.Lat},
		{Lon: to.Lng, Lat: to.Lat},
	}})
	if err != nil {
		return nil, fmt.Errorf("encoding route request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting route: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound, http.StatusUnprocessableEntity:
		return nil, nil
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("routing service returned %s: %s", resp.Status, bytes.TrimSpace(msg))
	}

	var out remoteResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding route response: %w", err)
	}
	if out.Geometry.Type != "" && out.Geometry.Type != "LineString" {
		return nil, fmt.Errorf("unexpected geometry type %q", out.Geometry.Type)
	}

	path := make([]models.Coordinate, 0, len(out.Geometry.Coordinates))
	for _, p := range out.Geometry.Coordinates {
		path = append(path, models.Coordinate{Lat: p[1], Lng: p[0]})
	}
	return path, nil
}
