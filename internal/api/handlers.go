package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/ngmaloney/rotation-map/internal/ports"
	"github.com/ngmaloney/rotation-map/internal/rotations"
	"github.com/ngmaloney/rotation-map/internal/route"
)

// Output formats for route geometry
const (
	formatJSON     = "json"
	formatGeoJSON  = "geojson"
	formatPolyline = "polyline"
)

type healthResponse struct {
	Status     string  `json:"status"`
	Resolution float64 `json:"resolution"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	LandCells  int     `json:"land_cells"`
	Backend    string  `json:"backend"`
}

type segmentResponse struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Points int    `json:"points"`
	Found  bool   `json:"found"`
}

type routeResponse struct {
	Service        string            `json:"service,omitempty"`
	Geometry       [][2]float64      `json:"geometry,omitempty"` // [lat, lng]
	Polyline       string            `json:"polyline,omitempty"`
	Unresolved     []string          `json:"unresolved"`
	FailedSegments int               `json:"failed_segments"`
	Segments       []segmentResponse `json:"segments"`
}

type routeRequest struct {
	Rotation string   `json:"rotation"` // "Busan, Shanghai -> Rotterdam"
	Ports    []string `json:"ports"`
	Format   string   `json:"format"`
}

// Health reports grid and backend status
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	g := s.app.Grid
	respondJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Resolution: g.Resolution(),
		Width:      g.Width(),
		Height:     g.Height(),
		LandCells:  g.LandCount(),
		Backend:    s.app.Config.Routing.Backend,
	})
}

// ListPorts returns every stored port
func (s *Server) ListPorts(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.Ports.ListPorts(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list ports", err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// CreatePort stores a port
func (s *Server) CreatePort(w http.ResponseWriter, r *http.Request) {
	var in ports.PortInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is not valid JSON", nil)
		return
	}

	port, err := s.app.Ports.CreatePort(r.Context(), in)
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &verrs):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", verrs.Error(), nil)
		return
	case err != nil:
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save port", err)
		return
	}
	respondJSON(w, http.StatusCreated, port)
}

// CheckPorts reports rotation port names that match no known port
func (s *Server) CheckPorts(w http.ResponseWriter, r *http.Request) {
	services, err := s.app.Rotations.ListServices(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list services", err)
		return
	}

	names := make([][]string, len(services))
	for i, svc := range services {
		names[i] = svc.PortNames()
	}
	unmatched, err := ports.CheckRotations(r.Context(), s.app.Directory, names)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to check ports", err)
		return
	}
	respondJSON(w, http.StatusOK, unmatched)
}

// ListServices returns every service with its rotation
func (s *Server) ListServices(w http.ResponseWriter, r *http.Request) {
	list, err := s.app.Rotations.ListServices(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list services", err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

// GetService returns one service
func (s *Server) GetService(w http.ResponseWriter, r *http.Request) {
	id, ok := serviceID(w, r)
	if !ok {
		return
	}
	svc, err := s.app.Rotations.GetService(r.Context(), id)
	if errors.Is(err, rotations.ErrServiceNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Service not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load service", err)
		return
	}
	respondJSON(w, http.StatusOK, svc)
}

// ServiceGeometry builds the route of a stored service
func (s *Server) ServiceGeometry(w http.ResponseWriter, r *http.Request) {
	id, ok := serviceID(w, r)
	if !ok {
		return
	}
	format, ok := outputFormat(w, r.URL.Query().Get("format"))
	if !ok {
		return
	}

	svc, err := s.app.Rotations.GetService(r.Context(), id)
	if errors.Is(err, rotations.ErrServiceNotFound) {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Service not found", nil)
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to load service", err)
		return
	}

	s.buildAndRespond(w, r, svc.Name, svc.PortNames(), format)
}

// BuildRoute builds the route of an ad-hoc rotation
func (s *Server) BuildRoute(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "INVALID_JSON", "Request body is not valid JSON", nil)
		return
	}

	names := req.Ports
	if len(names) == 0 {
		names = rotations.Parse(req.Rotation)
	}
	if len(names) == 0 {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "rotation or ports is required", nil)
		return
	}

	format := req.Format
	if q := r.URL.Query().Get("format"); q != "" {
		format = q
	}
	format, ok := outputFormat(w, format)
	if !ok {
		return
	}

	s.buildAndRespond(w, r, "", names, format)
}

func (s *Server) buildAndRespond(w http.ResponseWriter, r *http.Request, service string, names []string, format string) {
	res, err := s.app.Engine.Build(r.Context(), names)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "ROUTE_ERROR", "Failed to build route", err)
		return
	}

	if format == formatGeoJSON {
		props := map[string]any{
			"unresolved":      res.Unresolved,
			"failed_segments": res.FailedSegments,
		}
		if service != "" {
			props["service"] = service
		}
		body, err := route.ToGeoJSON(res.Geometry, props)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "ENCODING_ERROR", "Failed to encode GeoJSON", err)
			return
		}
		writeBody(w, http.StatusOK, "application/geo+json", body)
		return
	}

	out := routeResponse{
		Service:        service,
		Unresolved:     res.Unresolved,
		FailedSegments: res.FailedSegments,
		Segments:       make([]segmentResponse, len(res.Segments)),
	}
	if out.Unresolved == nil {
		out.Unresolved = []string{}
	}
	for i, seg := range res.Segments {
		out.Segments[i] = segmentResponse{
			From:   seg.From.Name,
			To:     seg.To.Name,
			Points: len(seg.Path),
			Found:  !seg.Failed(),
		}
	}
	if format == formatPolyline {
		out.Polyline = route.ToEncodedPolyline(res.Geometry)
	} else {
		out.Geometry = route.ToLatLngPairs(res.Geometry)
	}

	respondJSON(w, http.StatusOK, out)
}

func serviceID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		respondError(w, http.StatusBadRequest, "INVALID_ID", "Service id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func outputFormat(w http.ResponseWriter, raw string) (string, bool) {
	switch f := strings.ToLower(raw); f {
	case "", formatJSON:
		return formatJSON, true
	case formatGeoJSON, formatPolyline:
		return f, true
	default:
		respondError(w, http.StatusBadRequest, "INVALID_FORMAT", "format must be json, geojson or polyline", nil)
		return "", false
	}
}
