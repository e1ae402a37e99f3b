package models

// Service is a shipping service and its ordered port calls
type Service struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"` // Service code (e.g. "KSH")
	Description string         `json:"description,omitempty"`
	Calls       []RotationCall `json:"rotations"`
}

// RotationCall is one port call of a service.
// PortName is kept as written in the schedule so unknown ports survive import.
type RotationCall struct {
	Order     int    `json:"port_order"`
	PortName  string `json:"port_name"`
	Direction string `json:"direction,omitempty"` // E/W/S/N bound
	Terminal  string `json:"terminal,omitempty"`
}

// PortNames returns the call port names in rotation order
func (s Service) PortNames() []string {
	names := make([]string, 0, len(s.Calls))
	for _, c := range s.Calls {
		names = append(names, c.PortName)
	}
	return names
}

// Waypoint is a port reference in a rotation, either resolved to a
// coordinate or left unresolved. Unresolved waypoints are skipped when
// building segments, which joins their neighbours directly.
type Waypoint struct {
	Name     string     `json:"name"`
	Position Coordinate `json:"position"`
	resolved bool
}

// Resolved creates a waypoint with a known position
func Resolved(name string, pos Coordinate) Waypoint {
	return Waypoint{Name: name, Position: pos, resolved: true}
}

// Unresolved creates a waypoint the port directory could not match
func Unresolved(name string) Waypoint {
	return Waypoint{Name: name}
}

// IsResolved reports whether the waypoint has a position
func (w Waypoint) IsResolved() bool {
	return w.resolved
}

// Segment is the computed leg between two consecutive resolved waypoints.
// An empty Path means no sea route was found.
type Segment struct {
	Index int          `json:"index"`
	From  Waypoint     `json:"from"`
	To    Waypoint     `json:"to"`
	Path  []Coordinate `json:"path"`
	Err   error        `json:"-"`
}

// Failed reports whether the segment produced no geometry
func (s Segment) Failed() bool {
	return len(s.Path) == 0
}

// RouteGeometry is the rendered polyline of a whole rotation
type RouteGeometry []Coordinate
