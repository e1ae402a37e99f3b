package pathfinder

import (
	"container/heap"
	"context"

	"github.com/ngmaloney/rotation-map/internal/grid"
	"github.com/ngmaloney/rotation-map/internal/logging"
	"github.com/ngmaloney/rotation-map/internal/metrics"
	"github.com/ngmaloney/rotation-map/internal/models"
)

// how often the search loop checks for cancellation
const cancelCheckInterval = 1024

// GridFinder runs A* over a WorldGrid with 4-connected unit-cost moves.
// It holds no per-search state and is safe for concurrent use.
type GridFinder struct {
	grid          *grid.WorldGrid
	maxExpansions int
}

// NewGridFinder returns a finder over g. maxExpansions <= 0 means the number
// of cells in the grid, which no search can exceed.
func NewGridFinder(g *grid.WorldGrid, maxExpansions int) *GridFinder {
	if maxExpansions <= 0 {
		maxExpansions = g.Width() * g.Height()
	}
	return &GridFinder{grid: g, maxExpansions: maxExpansions}
}

// Heuristic is the Manhattan distance with the column distance taken the
// short way around the cylinder. It never overestimates the true step count.
func Heuristic(a, b grid.Cell, width int) int {
	dr := abs(a.Row - b.Row)
	dc := abs(a.Col - b.Col)
	if width-dc < dc {
		dc = width - dc
	}
	return dr + dc
}

// FindPath implements Finder
func (f *GridFinder) FindPath(ctx context.Context, from, to models.Coordinate) (Result, error) {
	start, okStart := f.grid.SnapToSea(f.grid.CoordToCell(from))
	goal, okGoal := f.grid.SnapToSea(f.grid.CoordToCell(to))
	if !okStart || !okGoal {
		metrics.RecordSearch(BackendGrid, metrics.OutcomeNoPath, 0)
		return Result{}, nil
	}

	cells, expanded, outcome, err := f.search(ctx, start, goal)
	metrics.RecordSearch(BackendGrid, outcome, expanded)
	if err != nil {
		return Result{Expanded: expanded}, err
	}
	if cells == nil {
		logging.Debug().
			Int("expanded", expanded).
			Str("outcome", outcome).
			Msg("No grid path")
		return Result{Expanded: expanded}, nil
	}

	path := make([]models.Coordinate, len(cells))
	for i, c := range cells {
		path[i] = f.grid.CellToCoord(c)
	}
	return Result{Path: path, Cells: cells, Expanded: expanded, Found: true}, nil
}

func (f *GridFinder) search(ctx context.Context, start, goal grid.Cell) ([]grid.Cell, int, string, error) {
	g := f.grid
	width := g.Width()
	index := func(c grid.Cell) int { return c.Row*width + c.Col }
	cellAt := func(i int) grid.Cell { return grid.Cell{Row: i / width, Col: i % width} }

	n := width * g.Height()
	gScore := make([]int, n)
	for i := range gScore {
		gScore[i] = -1
	}
	parent := make([]int, n)
	closed := make([]bool, n)

	var seq uint64
	open := &priorityQueue{}
	startIdx, goalIdx := index(start), index(goal)
	gScore[startIdx] = 0
	parent[startIdx] = -1
	heap.Push(open, &queueItem{cell: startIdx, f: Heuristic(start, goal, width), seq: seq})

	expanded := 0
	for open.Len() > 0 {
		item := heap.Pop(open).(*queueItem)
		if closed[item.cell] || item.g > gScore[item.cell] {
			continue // stale entry
		}

		if item.cell == goalIdx {
			return reconstruct(parent, goalIdx, cellAt), expanded, metrics.OutcomeFound, nil
		}
		if expanded >= f.maxExpansions {
			return nil, expanded, metrics.OutcomeCapped, nil
		}
		if expanded%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, expanded, metrics.OutcomeError, err
			}
		}

		closed[item.cell] = true
		expanded++

		current := cellAt(item.cell)
		for _, next := range g.SeaNeighbors(current) {
			ni := index(next)
			if closed[ni] {
				continue
			}
			tentative := item.g + 1
			if gScore[ni] >= 0 && tentative >= gScore[ni] {
				continue
			}
			gScore[ni] = tentative
			parent[ni] = item.cell
			seq++
			heap.Push(open, &queueItem{
				cell: ni,
				g:    tentative,
				f:    tentative + Heuristic(next, goal, width),
				seq:  seq,
			})
		}
	}

	return nil, expanded, metrics.OutcomeNoPath, nil
}

func reconstruct(parent []int, goal int, cellAt func(int) grid.Cell) []grid.Cell {
	var rev []grid.Cell
	for i := goal; i != -1; i = parent[i] {
		rev = append(rev, cellAt(i))
	}
	cells := make([]grid.Cell, len(rev))
	for i, c := range rev {
		cells[len(rev)-1-i] = c
	}
	return cells
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
