package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goccy/go-json"

	"github.com/ngmaloney/rotation-map/internal/app"
	"github.com/ngmaloney/rotation-map/internal/config"
	"github.com/ngmaloney/rotation-map/internal/database"
	"github.com/ngmaloney/rotation-map/internal/models"
)

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *apiError       `json:"error"`
}

func setupServer(t *testing.T) (*app.App, http.Handler) {
	t.Helper()
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	cfg.Grid.Resolution = 10

	db, err := database.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	a, err := app.NewWithDB(context.Background(), cfg, db)
	if err != nil {
		t.Fatalf("NewWithDB() error = %v", err)
	}
	return a, NewServer(a).Router()
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data any) envelope {
	t.Helper()
	var env envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data: %v", err)
		}
	}
	return env
}

func TestHealth(t *testing.T) {
	_, h := setupServer(t)

	rec := do(t, h, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var got healthResponse
	decode(t, rec, &got)
	if got.Width != 36 || got.Height != 18 || got.Backend != "grid" {
		t.Errorf("health = %+v", got)
	}
	if got.LandCells == 0 {
		t.Error("expected land cells in default grid")
	}
}

func TestPorts(t *testing.T) {
	_, h := setupServer(t)

	rec := do(t, h, http.MethodPost, "/api/ports/", `{"name":"Busan","code":"krpus","lat":35.1,"lon":129.0,"aliases":["Pusan"]}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d body = %s", rec.Code, rec.Body.String())
	}
	var created models.Port
	decode(t, rec, &created)
	if created.ID == 0 || created.Code != "KRPUS" {
		t.Errorf("created = %+v", created)
	}

	rec = do(t, h, http.MethodGet, "/api/ports/", "")
	var list []models.Port
	decode(t, rec, &list)
	if len(list) != 1 || list[0].Name != "Busan" {
		t.Errorf("list = %+v", list)
	}

	tests := []struct {
		name string
		body string
		code string
	}{
		{"bad json", `{`, "INVALID_JSON"},
		{"missing name", `{"lat":1,"lon":2}`, "VALIDATION_ERROR"},
		{"latitude out of range", `{"name":"X","lat":91,"lon":2}`, "VALIDATION_ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/ports/", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			env := decode(t, rec, nil)
			if env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("error = %+v, want %s", env.Error, tt.code)
			}
		})
	}
}

func TestServices(t *testing.T) {
	a, h := setupServer(t)
	ctx := context.Background()

	svc := &models.Service{Name: "AEX", Calls: []models.RotationCall{
		{PortName: "Busan"}, {PortName: "Atlantis"}, {PortName: "Rotterdam"},
	}}
	if err := a.Rotations.SaveService(ctx, svc); err != nil {
		t.Fatal(err)
	}

	rec := do(t, h, http.MethodGet, "/api/services/", "")
	var list []models.Service
	decode(t, rec, &list)
	if len(list) != 1 || len(list[0].Calls) != 3 {
		t.Errorf("list = %+v", list)
	}

	rec = do(t, h, http.MethodGet, "/api/services/1", "")
	var one models.Service
	decode(t, rec, &one)
	if rec.Code != http.StatusOK || one.Name != "AEX" {
		t.Errorf("get = %d %+v", rec.Code, one)
	}

	rec = do(t, h, http.MethodGet, "/api/services/1/geometry", "")
	var route routeResponse
	decode(t, rec, &route)
	if rec.Code != http.StatusOK {
		t.Fatalf("geometry status = %d", rec.Code)
	}
	if route.Service != "AEX" || len(route.Geometry) == 0 {
		t.Errorf("geometry = %+v", route)
	}
	if len(route.Unresolved) != 1 || route.Unresolved[0] != "Atlantis" {
		t.Errorf("unresolved = %v", route.Unresolved)
	}
	if len(route.Segments) != 1 || !route.Segments[0].Found {
		t.Errorf("segments = %+v", route.Segments)
	}

	rec = do(t, h, http.MethodGet, "/api/ports/check", "")
	var unmatched []struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	decode(t, rec, &unmatched)
	if len(unmatched) != 1 || unmatched[0].Count != 1 {
		t.Errorf("check = %+v", unmatched)
	}

	for _, target := range []string{"/api/services/99", "/api/services/99/geometry"} {
		if rec := do(t, h, http.MethodGet, target, ""); rec.Code != http.StatusNotFound {
			t.Errorf("%s status = %d, want 404", target, rec.Code)
		}
	}
	for _, target := range []string{"/api/services/abc", "/api/services/0/geometry"} {
		if rec := do(t, h, http.MethodGet, target, ""); rec.Code != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", target, rec.Code)
		}
	}
}

func TestBuildRoute(t *testing.T) {
	_, h := setupServer(t)

	t.Run("rotation string", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/routes", `{"rotation":"Busan, Shanghai -> Rotterdam"}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
		}
		var got routeResponse
		decode(t, rec, &got)
		if len(got.Segments) != 2 || got.FailedSegments != 0 {
			t.Errorf("segments = %+v failed = %d", got.Segments, got.FailedSegments)
		}
		if len(got.Geometry) == 0 || got.Polyline != "" {
			t.Errorf("expected pairs only, got %d pairs polyline %q", len(got.Geometry), got.Polyline)
		}
	})

	t.Run("polyline", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/routes?format=polyline", `{"ports":["Busan","Long Beach"]}`)
		var got routeResponse
		decode(t, rec, &got)
		if got.Polyline == "" || got.Geometry != nil {
			t.Errorf("polyline = %q geometry = %v", got.Polyline, got.Geometry)
		}
	})

	t.Run("geojson", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/routes", `{"ports":["Busan","Long Beach"],"format":"geojson"}`)
		if ct := rec.Header().Get("Content-Type"); ct != "application/geo+json" {
			t.Errorf("content type = %q", ct)
		}
		var feature struct {
			Type     string `json:"type"`
			Geometry struct {
				Type        string       `json:"type"`
				Coordinates [][2]float64 `json:"coordinates"`
			} `json:"geometry"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &feature); err != nil {
			t.Fatal(err)
		}
		if feature.Type != "Feature" || feature.Geometry.Type != "LineString" {
			t.Errorf("feature = %+v", feature)
		}
	})

	t.Run("degenerate rotation", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/routes", `{"rotation":"Busan"}`)
		var got routeResponse
		decode(t, rec, &got)
		if rec.Code != http.StatusOK || len(got.Geometry) != 0 || len(got.Segments) != 0 {
			t.Errorf("got %d %+v", rec.Code, got)
		}
	})

	errorCases := []struct {
		name   string
		target string
		body   string
		code   string
	}{
		{"empty", "/api/routes", `{}`, "VALIDATION_ERROR"},
		{"separators only", "/api/routes", `{"rotation":" -> , "}`, "VALIDATION_ERROR"},
		{"bad format", "/api/routes?format=kml", `{"rotation":"Busan, Rotterdam"}`, "INVALID_FORMAT"},
		{"bad json", "/api/routes", `[`, "INVALID_JSON"},
	}
	for _, tt := range errorCases {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.target, tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d", rec.Code)
			}
			if env := decode(t, rec, nil); env.Error == nil || env.Error.Code != tt.code {
				t.Errorf("error = %+v, want %s", env.Error, tt.code)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	_, h := setupServer(t)
	do(t, h, http.MethodPost, "/api/routes", `{"rotation":"Busan, Rotterdam"}`)

	rec := do(t, h, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "rotationmap_path_searches_total") {
		t.Error("expected path search counter in exposition")
	}
}
