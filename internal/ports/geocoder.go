package ports

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/ngmaloney/rotation-map/internal/logging"
	"github.com/ngmaloney/rotation-map/internal/models"
)

const (
	// NominatimURL is the public OpenStreetMap search endpoint
	NominatimURL = "https://nominatim.openstreetmap.org/search"
	userAgent    = "RotationMap/1.0" // Required by Nominatim ToS
)

// GeocodingDirectory resolves port names through a Nominatim-compatible
// search API. Answers are remembered, misses included, so each name costs at
// most one request. Calls are spaced at least one second apart. Failed
// lookups are not remembered and report the port as unknown.
//
// The search is free text, so misspelled or partial names can match
// something. That relaxes the exact-name-or-alias rule of the other
// directories. The fallback is opt-in through ports.geocode and is off by
// default.
type GeocodingDirectory struct {
	url        string
	httpClient *http.Client
	interval   time.Duration

	mu       sync.Mutex
	lastCall time.Time
	known    map[string]geocodeAnswer
}

type geocodeAnswer struct {
	pos   models.Coordinate
	found bool
}

// nominatimResponse represents the Nominatim API response
type nominatimResponse struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}

// NewGeocodingDirectory creates a directory backed by the search API at
// searchURL; empty means the public Nominatim instance.
func NewGeocodingDirectory(searchURL string) *GeocodingDirectory {
	if searchURL == "" {
		searchURL = NominatimURL
	}
	return &GeocodingDirectory{
		url:        searchURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		interval:   time.Second,
		known:      make(map[string]geocodeAnswer),
	}
}

// Resolve looks up "<name> port" and returns the first hit
func (g *GeocodingDirectory) Resolve(ctx context.Context, rawName string) (models.Coordinate, bool, error) {
	key := NormalizeName(rawName)
	if key == "" {
		return models.Coordinate{}, false, nil
	}

	// Held across the request: one call in flight keeps the rate limit honest
	g.mu.Lock()
	defer g.mu.Unlock()

	if ans, ok := g.known[key]; ok {
		return ans.pos, ans.found, nil
	}

	if !g.lastCall.IsZero() {
		if wait := g.interval - time.Since(g.lastCall); wait > 0 {
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return models.Coordinate{}, false, ctx.Err()
			}
		}
	}
	g.lastCall = time.Now()

	ans, err := g.search(ctx, key)
	if err != nil {
		if ctx.Err() != nil {
			return models.Coordinate{}, false, ctx.Err()
		}
		// A geocoder outage leaves the port unresolved rather than failing the rotation
		logging.Warn().Err(err).Str("port", rawName).Msg("Geocoding failed")
		return models.Coordinate{}, false, nil
	}
	g.known[key] = ans

	logging.Debug().Str("port", rawName).Bool("found", ans.found).Msg("Geocoded port")
	return ans.pos, ans.found, nil
}

func (g *GeocodingDirectory) search(ctx context.Context, name string) (geocodeAnswer, error) {
	params := url.Values{}
	params.Add("format", "json")
	params.Add("limit", "1")
	params.Add("q", name+" port")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url+"?"+params.Encode(), nil)
	if err != nil {
		return geocodeAnswer{}, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return geocodeAnswer{}, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return geocodeAnswer{}, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
	}

	var results []nominatimResponse
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return geocodeAnswer{}, fmt.Errorf("decoding response: %w", err)
	}
	if len(results) == 0 {
		return geocodeAnswer{}, nil
	}

	lat, err := strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return geocodeAnswer{}, fmt.Errorf("parsing latitude: %w", err)
	}
	lon, err := strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return geocodeAnswer{}, fmt.Errorf("parsing longitude: %w", err)
	}
	return geocodeAnswer{pos: models.Coordinate{Lat: lat, Lng: lon}, found: true}, nil
}
