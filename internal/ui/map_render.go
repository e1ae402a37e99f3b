package ui

import (
	"fmt"
	"math"
	"strings"

	"github.com/ngmaloney/rotation-map/internal/grid"
	"github.com/ngmaloney/rotation-map/internal/models"
	"github.com/ngmaloney/rotation-map/internal/route"
)

// Map glyphs
const (
	glyphSea   = ' '
	glyphLand  = '#'
	glyphRoute = '*'
	glyphPort  = 'O'
)

// RenderMap draws an equirectangular ASCII map of the grid's land with the
// route and its resolved ports on top. Rows run north to south, columns
// from longitude -180 eastwards.
func RenderMap(g *grid.WorldGrid, res *route.Result, width, height int) []string {
	if width < 1 || height < 1 {
		return nil
	}

	canvas := make([][]rune, height)
	for r := range canvas {
		canvas[r] = make([]rune, width)
		lat := 90 - (float64(r)+0.5)*180/float64(height)
		for c := range canvas[r] {
			lng := -180 + (float64(c)+0.5)*360/float64(width)
			canvas[r][c] = glyphSea
			if g != nil && g.IsLand(g.CoordToCell(models.Coordinate{Lat: lat, Lng: lng})) {
				canvas[r][c] = glyphLand
			}
		}
	}

	if res != nil {
		geom := res.Geometry
		for i, p := range geom {
			plot(canvas, p, glyphRoute)
			if i > 0 {
				drawLine(canvas, geom[i-1], p)
			}
		}
		for _, wp := range res.Waypoints {
			if wp.IsResolved() {
				plot(canvas, wp.Position, glyphPort)
			}
		}
	}

	lines := make([]string, height)
	for r, row := range canvas {
		lines[r] = string(row)
	}
	return lines
}

// drawLine interpolates between two consecutive route points. Longitudes may
// be unwrapped, so the line follows the short way round.
func drawLine(canvas [][]rune, a, b models.Coordinate) {
	h, w := len(canvas), len(canvas[0])
	dr := math.Abs(b.Lat-a.Lat) / 180 * float64(h)
	dc := math.Abs(b.Lng-a.Lng) / 360 * float64(w)
	steps := int(math.Ceil(math.Max(dr, dc)))
	for s := 1; s < steps; s++ {
		t := float64(s) / float64(steps)
		plot(canvas, models.Coordinate{
			Lat: a.Lat + (b.Lat-a.Lat)*t,
			Lng: a.Lng + (b.Lng-a.Lng)*t,
		}, glyphRoute)
	}
}

func plot(canvas [][]rune, p models.Coordinate, glyph rune) {
	h, w := len(canvas), len(canvas[0])
	r, c := canvasCell(p, w, h)
	if glyph == glyphRoute && canvas[r][c] == glyphPort {
		return
	}
	canvas[r][c] = glyph
}

func canvasCell(p models.Coordinate, w, h int) (int, int) {
	lng := models.NormalizeLongitude(p.Lng)
	c := int(math.Floor((lng + 180) / 360 * float64(w)))
	r := int(math.Floor((90 - p.Lat) / 180 * float64(h)))
	return clamp(r, 0, h-1), clamp(c, 0, w-1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// styleMap colours runs of identical glyphs
func styleMap(lines []string) string {
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		runes := []rune(line)
		for start := 0; start < len(runes); {
			end := start + 1
			for end < len(runes) && runes[end] == runes[start] {
				end++
			}
			run := string(runes[start:end])
			switch runes[start] {
			case glyphLand:
				run = landStyle.Render(run)
			case glyphRoute:
				run = routeStyle.Render(run)
			case glyphPort:
				run = portStyle.Render(run)
			}
			b.WriteString(run)
			start = end
		}
	}
	return b.String()
}

// renderDiagnostics lists unresolved ports and legs without a sea route
func renderDiagnostics(res *route.Result) string {
	if res == nil {
		return mutedStyle.Render("No route built")
	}

	resolved := 0
	for _, wp := range res.Waypoints {
		if wp.IsResolved() {
			resolved++
		}
	}

	lines := []string{
		fmt.Sprintf("%s %d of %d", labelStyle.Render("Ports resolved:"), resolved, len(res.Waypoints)),
		fmt.Sprintf("%s %d", labelStyle.Render("Legs:"), len(res.Segments)),
		fmt.Sprintf("%s %d", labelStyle.Render("Route points:"), len(res.Geometry)),
	}

	if len(res.Unresolved) == 0 {
		lines = append(lines, successStyle.Render("✓ All ports matched"))
	} else {
		lines = append(lines, "", warningStyle.Render("Unresolved ports:"))
		for _, name := range res.Unresolved {
			lines = append(lines, "  "+name)
		}
	}

	if res.FailedSegments == 0 {
		lines = append(lines, successStyle.Render("✓ Every leg has a sea route"))
	} else {
		lines = append(lines, "", errorStyle.Render("Legs without a sea route:"))
		for _, seg := range res.Segments {
			if seg.Failed() {
				lines = append(lines, fmt.Sprintf("  %s → %s", seg.From.Name, seg.To.Name))
			}
		}
	}

	return strings.Join(lines, "\n")
}
