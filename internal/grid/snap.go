package grid

// SnapToSea returns the nearest sea cell to c by breadth-first search in
// north, south, east, west order, so the choice is deterministic. A cell
// that is already sea is returned unchanged. The bool is false when the
// grid has no sea at all.
func (g *WorldGrid) SnapToSea(c Cell) (Cell, bool) {
	c = Cell{Row: c.Row, Col: g.Wrap(c.Col)}
	if !g.InBounds(c) {
		return c, false
	}
	if !g.IsLand(c) {
		return c, true
	}

	visited := make([]bool, len(g.land))
	visited[g.index(c.Row, c.Col)] = true
	queue := []Cell{c}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range g.Neighbors(cur) {
			idx := g.index(n.Row, n.Col)
			if visited[idx] {
				continue
			}
			visited[idx] = true
			if !g.land[idx] {
				return n, true
			}
			queue = append(queue, n)
		}
	}
	return c, false
}
