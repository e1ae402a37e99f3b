package pathfinder

import (
	"context"
	"reflect"
	"testing"

	"github.com/ngmaloney/rotation-map/internal/grid"
	"github.com/ngmaloney/rotation-map/internal/models"
)

// gridFromArt builds a 30 degree grid (12x6) where '#' is land
func gridFromArt(t *testing.T, rows []string) *grid.WorldGrid {
	t.Helper()

	var mask []bool
	for _, row := range rows {
		for _, ch := range row {
			mask = append(mask, ch == '#')
		}
	}
	g, err := grid.NewFromMask(30, mask)
	if err != nil {
		t.Fatalf("NewFromMask() error = %v", err)
	}
	return g
}

var islands = []string{
	"............",
	"..###..#....",
	"..#.#..#..#.",
	"..#....####.",
	"......#.....",
	"............",
}

// bfsDistances returns step counts from goal to every reachable sea cell
func bfsDistances(g *grid.WorldGrid, goal grid.Cell) map[grid.Cell]int {
	dist := map[grid.Cell]int{goal: 0}
	queue := []grid.Cell{goal}
	for len(queue) > 0 {
		c := queue[0]
		queue = queue[1:]
		for _, n := range g.SeaNeighbors(c) {
			if _, seen := dist[n]; !seen {
				dist[n] = dist[c] + 1
				queue = append(queue, n)
			}
		}
	}
	return dist
}

func assertContiguous(t *testing.T, g *grid.WorldGrid, cells []grid.Cell) {
	t.Helper()
	for i := 1; i < len(cells); i++ {
		a, b := cells[i-1], cells[i]
		if Heuristic(a, b, g.Width()) != 1 {
			t.Fatalf("cells %v and %v are not grid neighbours", a, b)
		}
	}
}

func TestHeuristicWrapsColumns(t *testing.T) {
	tests := []struct {
		name string
		a, b grid.Cell
		want int
	}{
		{"same cell", grid.Cell{Row: 3, Col: 4}, grid.Cell{Row: 3, Col: 4}, 0},
		{"rows only", grid.Cell{Row: 0, Col: 4}, grid.Cell{Row: 5, Col: 4}, 5},
		{"direct", grid.Cell{Row: 1, Col: 2}, grid.Cell{Row: 2, Col: 5}, 4},
		{"across seam", grid.Cell{Row: 1, Col: 0}, grid.Cell{Row: 1, Col: 11}, 1},
		{"half way", grid.Cell{Row: 0, Col: 0}, grid.Cell{Row: 0, Col: 6}, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Heuristic(tt.a, tt.b, 12); got != tt.want {
				t.Errorf("Heuristic(%v, %v) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestHeuristicAdmissible(t *testing.T) {
	g := gridFromArt(t, islands)
	goals := []grid.Cell{{Row: 2, Col: 3}, {Row: 4, Col: 11}, {Row: 0, Col: 0}}

	for _, goal := range goals {
		for cell, d := range bfsDistances(g, goal) {
			if h := Heuristic(cell, goal, g.Width()); h > d {
				t.Errorf("Heuristic(%v, %v) = %d exceeds true distance %d", cell, goal, h, d)
			}
		}
	}
}

func TestFindPathIsShortest(t *testing.T) {
	g := gridFromArt(t, islands)
	f := NewGridFinder(g, 0)
	goal := grid.Cell{Row: 2, Col: 3}
	dist := bfsDistances(g, goal)

	for cell, d := range dist {
		res, err := f.FindPath(context.Background(), g.CellToCoord(cell), g.CellToCoord(goal))
		if err != nil {
			t.Fatalf("FindPath(%v) error = %v", cell, err)
		}
		if !res.Found {
			t.Fatalf("FindPath(%v) found no path, BFS distance %d", cell, d)
		}
		if len(res.Cells) != d+1 {
			t.Errorf("FindPath(%v) length = %d, want %d", cell, len(res.Cells), d+1)
		}
		if res.Cells[0] != cell || res.Cells[len(res.Cells)-1] != goal {
			t.Errorf("FindPath(%v) endpoints = %v..%v", cell, res.Cells[0], res.Cells[len(res.Cells)-1])
		}
		assertContiguous(t, g, res.Cells)
	}
}

func TestFindPathAvoidsLand(t *testing.T) {
	g, err := grid.New(5, grid.NewBoxClassifier())
	if err != nil {
		t.Fatal(err)
	}
	f := NewGridFinder(g, 0)

	busan := models.Coordinate{Lat: 35.1, Lng: 129.0}
	rotterdam := models.Coordinate{Lat: 51.9, Lng: 4.5}

	res, err := f.FindPath(context.Background(), busan, rotterdam)
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	if !res.Found {
		t.Fatal("expected a path from Busan to Rotterdam")
	}
	for _, c := range res.Cells {
		if g.IsLand(c) {
			t.Fatalf("path crosses land cell %v", c)
		}
	}
	assertContiguous(t, g, res.Cells)
	if len(res.Path) != len(res.Cells) {
		t.Errorf("path has %d points for %d cells", len(res.Path), len(res.Cells))
	}
	if res.Expanded == 0 {
		t.Error("expected expansion count to be reported")
	}
}

func TestFindPathDeterministic(t *testing.T) {
	g, err := grid.New(5, grid.NewBoxClassifier())
	if err != nil {
		t.Fatal(err)
	}
	f := NewGridFinder(g, 0)
	from := models.Coordinate{Lat: 1.3, Lng: 103.8}
	to := models.Coordinate{Lat: 40.7, Lng: -74.0}

	first, _ := f.FindPath(context.Background(), from, to)
	for i := 0; i < 3; i++ {
		again, _ := f.FindPath(context.Background(), from, to)
		if !reflect.DeepEqual(first.Cells, again.Cells) {
			t.Fatalf("run %d produced a different path", i+1)
		}
	}
}

func TestFindPathAcrossDateline(t *testing.T) {
	g, err := grid.New(10, grid.Ocean)
	if err != nil {
		t.Fatal(err)
	}
	f := NewGridFinder(g, 0)

	res, err := f.FindPath(context.Background(),
		models.Coordinate{Lat: 0, Lng: 170},
		models.Coordinate{Lat: 0, Lng: -170})
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}

	want := []grid.Cell{{Row: 9, Col: 35}, {Row: 9, Col: 0}, {Row: 9, Col: 1}}
	if !reflect.DeepEqual(res.Cells, want) {
		t.Errorf("Cells = %v, want %v", res.Cells, want)
	}
}

func TestFindPathSameCell(t *testing.T) {
	g := gridFromArt(t, islands)
	f := NewGridFinder(g, 0)
	p := g.CellToCoord(grid.Cell{Row: 5, Col: 5})

	res, err := f.FindPath(context.Background(), p, p)
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	if !res.Found || len(res.Path) != 1 {
		t.Errorf("expected single-point path, got %v", res.Path)
	}
}

func TestFindPathEnclosedGoal(t *testing.T) {
	// (2,5) is sea walled in by land on all four sides
	g := gridFromArt(t, []string{
		"............",
		".....#......",
		"....#.#.....",
		".....#......",
		"............",
		"............",
	})
	f := NewGridFinder(g, 0)

	res, err := f.FindPath(context.Background(),
		g.CellToCoord(grid.Cell{Row: 5, Col: 0}),
		g.CellToCoord(grid.Cell{Row: 2, Col: 5}))
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	if res.Found || len(res.Path) != 0 {
		t.Errorf("expected no path, got %v", res.Path)
	}
}

func TestFindPathExpansionCap(t *testing.T) {
	g, err := grid.New(5, grid.Ocean)
	if err != nil {
		t.Fatal(err)
	}
	f := NewGridFinder(g, 10)

	res, err := f.FindPath(context.Background(),
		models.Coordinate{Lat: 60, Lng: -170},
		models.Coordinate{Lat: -60, Lng: 10})
	if err != nil {
		t.Fatalf("FindPath() error = %v", err)
	}
	if res.Found {
		t.Error("expected capped search to report no path")
	}
	if res.Expanded != 10 {
		t.Errorf("Expanded = %d, want 10", res.Expanded)
	}
}

func TestFindPathAllLand(t *testing.T) {
	land := grid.ClassifierFunc(func(lat, lng float64) bool { return true })
	g, err := grid.New(30, land)
	if err != nil {
		t.Fatal(err)
	}

	res, err := NewGridFinder(g, 0).FindPath(context.Background(),
		models.Coordinate{Lat: 0, Lng: 0},
		models.Coordinate{Lat: 30, Lng: 30})
	if err != nil || res.Found {
		t.Errorf("FindPath() = %v, %v; want no path and no error", res.Found, err)
	}
}

func TestFindPathCancelled(t *testing.T) {
	g, err := grid.New(5, grid.Ocean)
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewGridFinder(g, 0).FindPath(ctx,
		models.Coordinate{Lat: 0, Lng: 0},
		models.Coordinate{Lat: 10, Lng: 10})
	if err == nil {
		t.Error("expected context error")
	}
}
